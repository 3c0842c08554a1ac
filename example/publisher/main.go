package main

import (
	"context"
	"errors"
	"log"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32"
)

func main() {
	cfg := vitalmon.DefaultConfig()
	cfg.Source.Kind = "external"

	pub := vitalmon.NewPublisher()
	flow, err := vitalmon.ConfFromConfig(cfg)
	if err != nil {
		log.Fatalf("build flow: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go feed(ctx, pub)

	if err := flow.StreamIN(vitalmon.StreamInSource(pub)).Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

// feed publishes a 1 Hz sine as ECG and a vitals sample every second.
func feed(ctx context.Context, pub *vitalmon.Publisher) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s := vitalmon.Sample{ECG: vitalmon.Float(math.Sin(2 * math.Pi * float64(i) / 50))}
		if i%50 == 0 {
			s.HeartRate = vitalmon.Float(72)
			s.SpO2 = vitalmon.Float(98)
			s.Temperature = vitalmon.Float(36.6)
		}
		err := pub.Publish(ctx, s)
		switch {
		case err == nil, errors.Is(err, vitalmon.ErrPublisherNotStarted):
		case errors.Is(err, vitalmon.ErrPublisherStopped), errors.Is(err, context.Canceled):
			return
		default:
			log.Printf("publish: %v", err)
		}
	}
}
