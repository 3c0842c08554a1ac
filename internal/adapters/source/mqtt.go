package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
	Backoff  Backoff
}

// MQTTSource subscribes to a topic carrying firmware frames. Reconnects are
// left to the paho client.
type MQTTSource struct {
	cfg         MQTTConfig
	obs         ports.Observability
	onDecodeErr DecodeErrorHandler
	newClient   func(*mqtt.ClientOptions) mqtt.Client

	client mqtt.Client
	lc     lifecycle
}

var _ ports.SampleSource = (*MQTTSource)(nil)

func NewMQTTSource(cfg MQTTConfig, obs ports.Observability, opts ...Option) (*MQTTSource, error) {
	if cfg.Broker == "" || cfg.Topic == "" {
		return nil, errors.New("mqtt source: broker and topic are required")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt source: invalid qos %d", cfg.QoS)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("vitalmon-%d", time.Now().UnixNano())
	}
	cfg.Backoff = cfg.Backoff.withDefaults()

	obs = observability.OrNop(obs)
	return &MQTTSource{
		cfg:         cfg,
		obs:         obs,
		onDecodeErr: applyOptions(obs, opts).onDecodeErr,
		newClient:   mqtt.NewClient,
	}, nil
}

func (m *MQTTSource) Start(out chan<- *domain.Sample) error {
	ctx, err := m.lc.begin()
	if err != nil {
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(m.cfg.Broker).
		SetClientID(m.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(m.cfg.Backoff.Initial).
		SetMaxReconnectInterval(m.cfg.Backoff.Max).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			m.obs.IncCounter(observability.SourceErrors, 1)
			m.obs.LogError("mqtt_connection_lost", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			tok := c.Subscribe(m.cfg.Topic, m.cfg.QoS, m.handler(ctx, out))
			tok.Wait()
			if err := tok.Error(); err != nil {
				m.obs.LogError("mqtt_subscribe_failed", err, ports.Field{Key: "topic", Value: m.cfg.Topic})
				return
			}
			m.obs.LogInfo("mqtt_subscribed", ports.Field{Key: "topic", Value: m.cfg.Topic})
		})

	m.client = m.newClient(opts)
	tok := m.client.Connect()
	// with connect retry the token only completes once connected
	m.lc.spawn(func() {
		select {
		case <-tok.Done():
			if err := tok.Error(); err != nil {
				m.obs.LogError("mqtt_connect_failed", err, ports.Field{Key: "broker", Value: m.cfg.Broker})
			}
		case <-ctx.Done():
		}
	})
	return nil
}

func (m *MQTTSource) handler(ctx context.Context, out chan<- *domain.Sample) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		s, err := DecodeDeviceLine(msg.Payload())
		if err != nil {
			m.obs.IncCounter(observability.DecodeErrors, 1)
			var de *DecodeError
			if errors.As(err, &de) && m.onDecodeErr(de) {
				m.client.Disconnect(0)
			}
			return
		}
		m.lc.emit(ctx, out, m.lc.stamp(s, "mqtt", time.Now()))
	}
}

func (m *MQTTSource) Stop() error {
	if m.lc.end() && m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}
