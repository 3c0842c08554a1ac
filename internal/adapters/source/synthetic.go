package source

import (
	"math/rand"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

// WaveformCycle is the length of one synthetic heartbeat in ticks.
const WaveformCycle = 100

// Waveform is a crude PQRST shape: flat except for a handful of phases.
func Waveform(phase int) float64 {
	switch ((phase % WaveformCycle) + WaveformCycle) % WaveformCycle {
	case 0:
		return 0.1
	case 10:
		return 1.0
	case 13:
		return -0.5
	case 15:
		return 0.8
	case 17:
		return 0.1
	case 20:
		return 0.05
	default:
		return 0
	}
}

type SyntheticConfig struct {
	Interval time.Duration
	// VitalsEvery adds simulated HR, SpO2 and temperature to every n-th
	// sample, starting with the first. Zero disables them.
	VitalsEvery int
	Seed        int64
}

// SyntheticSource generates a repeating ECG trace locally.
type SyntheticSource struct {
	cfg   SyntheticConfig
	rng   *rand.Rand
	phase int
	ticks int

	lc lifecycle
}

var _ ports.SampleSource = (*SyntheticSource)(nil)

func NewSyntheticSource(cfg SyntheticConfig) *SyntheticSource {
	if cfg.Interval <= 0 {
		cfg.Interval = 20 * time.Millisecond
	}
	if cfg.VitalsEvery < 0 {
		cfg.VitalsEvery = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &SyntheticSource{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Next advances the generator by one tick. It is not safe to call while the
// source is started.
func (s *SyntheticSource) Next() *domain.Sample {
	out := &domain.Sample{ECG: domain.Float(Waveform(s.phase))}
	s.phase = (s.phase + 1) % WaveformCycle

	if s.cfg.VitalsEvery > 0 && s.ticks%s.cfg.VitalsEvery == 0 {
		out.HeartRate = domain.Float(float64(60 + s.rng.Intn(41)))
		out.SpO2 = domain.Float(float64(95 + s.rng.Intn(6)))
		out.Temperature = domain.Float(float64(365+s.rng.Intn(16)) / 10)
	}
	s.ticks++
	return out
}

func (s *SyntheticSource) Start(out chan<- *domain.Sample) error {
	ctx, err := s.lc.begin()
	if err != nil {
		return err
	}
	s.lc.every(ctx, s.cfg.Interval, func(now time.Time) {
		s.lc.emit(ctx, out, s.lc.stamp(s.Next(), "synthetic", now))
	})
	return nil
}

func (s *SyntheticSource) Stop() error {
	s.lc.end()
	return nil
}
