// Package transform holds the acquisition-path transformers.
package transform

import (
	"fmt"
	"math"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

// ECGScaler maps raw ECG readings onto the renderer's [-1, 1] range:
// (v - Offset) * Gain, optionally clamped.
type ECGScaler struct {
	Offset float64 `yaml:"offset"`
	Gain   float64 `yaml:"gain"`
	Clamp  bool    `yaml:"clamp"`
}

var _ ports.Transformer = (*ECGScaler)(nil)

// ADC12 scales a 12-bit ADC sample centred at mid-scale.
func ADC12() *ECGScaler {
	return &ECGScaler{Offset: 2048, Gain: 1.0 / 2048, Clamp: true}
}

func (e *ECGScaler) Transform(s *domain.Sample) (*domain.Sample, error) {
	if s == nil || s.ECG == nil {
		return s, nil
	}
	raw := *s.ECG
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return nil, fmt.Errorf("ecg reading %v is not finite", raw)
	}
	v := (raw - e.Offset) * e.Gain
	if e.Clamp {
		v = math.Max(-1, math.Min(1, v))
	}
	out := s.Clone()
	out.ECG = &v
	return out, nil
}

func (e *ECGScaler) Version() uint16 { return 1 }

// Identity passes samples through untouched.
type Identity struct{}

var _ ports.Transformer = Identity{}

func (Identity) Transform(s *domain.Sample) (*domain.Sample, error) { return s, nil }
func (Identity) Version() uint16 { return 0 }
