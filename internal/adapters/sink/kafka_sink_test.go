package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSinkWriteBatch(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, time.Second)

	entries := []*domain.CaptureEntry{
		{Timestamp: "2024-05-01T10:00:00.000Z", Sample: domain.Sample{Source: "serial", HeartRate: domain.Float(72)}},
		{Timestamp: "2024-05-01T10:00:01.000Z", Sample: domain.Sample{Source: "serial", ECG: domain.Float(0.2)}},
	}
	if err := sink.WriteBatch(entries); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "serial" {
		t.Fatalf("expected source key, got %q", w.msgs[0].Key)
	}
	if !w.msgs[1].Time.Equal(time.Date(2024, 5, 1, 10, 0, 1, 0, time.UTC)) {
		t.Fatalf("expected message time from entry, got %v", w.msgs[1].Time)
	}

	var decoded domain.CaptureEntry
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if decoded.Timestamp != entries[0].Timestamp || *decoded.Sample.HeartRate != 72 {
		t.Fatalf("unexpected message payload %+v", decoded)
	}

	if err := sink.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer to be closed, err=%v", err)
	}
}

func TestKafkaSinkPropagatesErrors(t *testing.T) {
	sink := newKafkaSink(&fakeWriter{err: errors.New("leader not available")}, 0)
	if err := sink.WriteBatch([]*domain.CaptureEntry{{Timestamp: "x"}}); err == nil {
		t.Fatalf("expected writer error")
	}
	if err := sink.WriteBatch(nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}

func TestNewKafkaSinkValidates(t *testing.T) {
	if _, err := NewKafkaSink(KafkaConfig{Topic: "vitals"}); err == nil {
		t.Fatalf("expected missing brokers to fail")
	}
	sink, err := NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "vitals"})
	if err != nil {
		t.Fatalf("new kafka sink: %v", err)
	}
	if sink.Name() != "kafka" {
		t.Fatalf("unexpected name %q", sink.Name())
	}
	_ = sink.Close()
}
