package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

const maxPollBody = 1 << 20

type PollingConfig struct {
	URL      string
	Interval time.Duration
	Timeout  time.Duration
	Client   *http.Client
}

// PollingSource requests the latest reading from an HTTP backend on a fixed
// interval. Failed ticks are skipped; there is no retry.
type PollingSource struct {
	cfg    PollingConfig
	client *http.Client
	obs    ports.Observability

	lc lifecycle
}

var _ ports.SampleSource = (*PollingSource)(nil)

func NewPollingSource(cfg PollingConfig, obs ports.Observability) (*PollingSource, error) {
	if cfg.URL == "" {
		return nil, errors.New("polling source: url is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &PollingSource{cfg: cfg, client: client, obs: observability.OrNop(obs)}, nil
}

func (p *PollingSource) Start(out chan<- *domain.Sample) error {
	ctx, err := p.lc.begin()
	if err != nil {
		return err
	}
	p.obs.LogInfo("source_started", ports.Field{Key: "source", Value: "polling"}, ports.Field{Key: "url", Value: p.cfg.URL})
	p.lc.every(ctx, p.cfg.Interval, func(now time.Time) {
		s, err := p.poll(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.obs.IncCounter(observability.SourceErrors, 1)
				p.obs.LogDebug("source_poll_failed", ports.Field{Key: "err", Value: err.Error()})
			}
			return
		}
		if s.Empty() {
			return
		}
		p.lc.emit(ctx, out, p.lc.stamp(s, "polling", now))
	})
	return nil
}

func (p *PollingSource) poll(ctx context.Context) (*domain.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPollBody))
	if err != nil {
		return nil, err
	}
	return DecodePoll(body)
}

// Stop aborts an in-flight request and waits for the poll loop to exit.
func (p *PollingSource) Stop() error {
	p.lc.end()
	return nil
}
