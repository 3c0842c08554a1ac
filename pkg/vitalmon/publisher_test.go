package vitalmon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

func TestPublisherLifecycle(t *testing.T) {
	p := NewPublisher()
	ctx := context.Background()

	if err := p.Publish(ctx, Sample{}); !errors.Is(err, ErrPublisherNotStarted) {
		t.Fatalf("expected ErrPublisherNotStarted, got %v", err)
	}

	out := make(chan *Sample, 2)
	if err := p.Start(out); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := p.Start(out); !errors.Is(err, ports.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}

	in := Sample{HeartRate: Float(72)}
	if err := p.Publish(ctx, in); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if err := p.Publish(ctx, Sample{SpO2: Float(98), Timestamp: time.Unix(5, 0)}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	first, second := <-out, <-out
	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("expected sequence 1, 2, got %d, %d", first.Seq, second.Seq)
	}
	if first.Timestamp.IsZero() || first.Source != "publisher" {
		t.Fatalf("expected stamped sample, got %+v", first)
	}
	if !second.Timestamp.Equal(time.Unix(5, 0)) {
		t.Fatalf("expected caller timestamp to be kept, got %v", second.Timestamp)
	}
	*first.HeartRate = 1
	if *in.HeartRate != 72 {
		t.Fatalf("expected Publish to copy the sample")
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := p.Publish(ctx, in); !errors.Is(err, ErrPublisherStopped) {
		t.Fatalf("expected ErrPublisherStopped, got %v", err)
	}
	if err := p.Start(out); !errors.Is(err, ports.ErrSourceStopped) {
		t.Fatalf("expected ErrSourceStopped, got %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
}

func TestPublisherStopReleasesBlockedPublish(t *testing.T) {
	p := NewPublisher()
	if err := p.Start(make(chan *Sample)); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- p.Publish(context.Background(), Sample{HeartRate: Float(60)}) }()
	time.Sleep(5 * time.Millisecond)
	_ = p.Stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrPublisherStopped) {
			t.Fatalf("expected ErrPublisherStopped, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("blocked Publish was not released by Stop")
	}
}

func TestPublisherHonoursContext(t *testing.T) {
	p := NewPublisher()
	_ = p.Start(make(chan *Sample))
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := p.Publish(ctx, Sample{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
