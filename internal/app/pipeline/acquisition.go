package pipeline

import (
	"context"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

// Ingestor consumes transformed samples.
type Ingestor interface {
	Ingest(s *domain.Sample)
}

// RunAcquisition starts src and feeds every sample through tr into dst until
// ctx is cancelled. The returned channel is closed once the loop has exited.
// Stopping src is left to the caller.
func RunAcquisition(ctx context.Context, src ports.SampleSource, tr ports.Transformer, dst Ingestor, pol ports.Policy, obs ports.Observability) (<-chan struct{}, error) {
	obs = observability.OrNop(obs)
	buf := pol.SourceBuffer
	if buf <= 0 {
		buf = 1
	}
	ch := make(chan *domain.Sample, buf)

	if err := src.Start(ch); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-ch:
				acquire(s, tr, dst, obs)
			}
		}
	}()
	return done, nil
}

func acquire(s *domain.Sample, tr ports.Transformer, dst Ingestor, obs ports.Observability) {
	if s == nil {
		return
	}
	obs.IncCounter(observability.SamplesReceived, 1)

	out, err := tr.Transform(s)
	if err != nil {
		obs.IncCounter(observability.TransformErrors, 1)
		obs.LogError("transform_failed", err,
			ports.Field{Key: "seq", Value: s.Seq},
			ports.Field{Key: "source", Value: s.Source})
		return
	}
	dst.Ingest(out)
}
