package source

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	"github.com/gorilla/websocket"
)

type PushConfig struct {
	URL              string
	Header           http.Header
	HandshakeTimeout time.Duration
	Backoff          Backoff
}

// PushSource reads device frames from a WebSocket and reconnects with
// exponential backoff whenever the connection ends.
type PushSource struct {
	cfg         PushConfig
	dialer      *websocket.Dialer
	obs         ports.Observability
	onDecodeErr DecodeErrorHandler

	lc lifecycle
}

var _ ports.SampleSource = (*PushSource)(nil)

func NewPushSource(cfg PushConfig, obs ports.Observability, opts ...Option) (*PushSource, error) {
	if cfg.URL == "" {
		return nil, errors.New("push source: url is required")
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	obs = observability.OrNop(obs)
	return &PushSource{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		obs:         obs,
		onDecodeErr: applyOptions(obs, opts).onDecodeErr,
	}, nil
}

func (p *PushSource) Start(out chan<- *domain.Sample) error {
	ctx, err := p.lc.begin()
	if err != nil {
		return err
	}
	p.obs.LogInfo("source_started", ports.Field{Key: "source", Value: "push"}, ports.Field{Key: "url", Value: p.cfg.URL})
	p.lc.spawn(func() { p.run(ctx, out) })
	return nil
}

func (p *PushSource) run(ctx context.Context, out chan<- *domain.Sample) {
	attempt := 0
	for {
		conn, _, err := p.dialer.DialContext(ctx, p.cfg.URL, p.cfg.Header)
		if err == nil {
			attempt = 0
			p.obs.LogInfo("push_connected", ports.Field{Key: "url", Value: p.cfg.URL})
			err = p.readLoop(ctx, conn, out)
			_ = conn.Close()
		}
		if ctx.Err() != nil {
			return
		}
		p.obs.IncCounter(observability.SourceErrors, 1)
		delay := p.cfg.Backoff.Next(attempt)
		p.obs.LogError("push_disconnected", err, ports.Field{Key: "retry_in", Value: delay.String()})
		if !sleepCtx(ctx, delay) {
			return
		}
		attempt++
	}
}

func (p *PushSource) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- *domain.Sample) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s, err := DecodePush(data)
		if err != nil {
			p.obs.IncCounter(observability.DecodeErrors, 1)
			var de *DecodeError
			if errors.As(err, &de) && p.onDecodeErr(de) {
				return de
			}
			continue
		}
		if !p.lc.emit(ctx, out, p.lc.stamp(s, "push", time.Now())) {
			return ctx.Err()
		}
	}
}

// Stop closes the connection and waits for the reader to exit.
func (p *PushSource) Stop() error {
	p.lc.end()
	return nil
}
