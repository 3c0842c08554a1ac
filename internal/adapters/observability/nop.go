package observability

import (
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

// Nop discards logs and metrics. Components fall back to it when no
// observability is supplied.
type Nop struct{}

var _ ports.Observability = Nop{}

func (Nop) LogDebug(string, ...ports.Field) {}
func (Nop) LogInfo(string, ...ports.Field) {}
func (Nop) LogError(string, error, ...ports.Field) {}
func (Nop) LogCritical(string, error, ...ports.Field) {}
func (Nop) IncCounter(string, float64) {}
func (Nop) ObserveLatency(string, float64) {}
func (Nop) SetGauge(string, float64) {}
func (Nop) RecordDLQ(ports.EntryID, *domain.CaptureEntry, error) {}

// OrNop returns obs, or Nop when obs is nil.
func OrNop(obs ports.Observability) ports.Observability {
	if obs == nil {
		return Nop{}
	}
	return obs
}
