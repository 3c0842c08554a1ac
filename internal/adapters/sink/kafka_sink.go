package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaSink publishes every capture entry as one JSON message keyed by its
// source, so entries of one device stay ordered within a partition.
type KafkaSink struct {
	w       messageWriter
	timeout time.Duration
}

var _ ports.Sink = (*KafkaSink)(nil)

func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka sink: brokers and topic are required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newKafkaSink(w, cfg.WriteTimeout), nil
}

func newKafkaSink(w messageWriter, timeout time.Duration) *KafkaSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KafkaSink{w: w, timeout: timeout}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) WriteBatch(entries []*domain.CaptureEntry) error {
	if len(entries) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		msg := kafka.Message{Key: []byte(e.Sample.Source), Value: b}
		if at, ok := e.CapturedAt(); ok {
			msg.Time = at
		}
		msgs = append(msgs, msg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	return k.w.WriteMessages(ctx, msgs...)
}

func (k *KafkaSink) Close() error {
	return k.w.Close()
}
