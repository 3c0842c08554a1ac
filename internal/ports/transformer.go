package ports

import "github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"

// Transformer rewrites samples on the acquisition path (calibration, scaling).
type Transformer interface {
	Transform(*domain.Sample) (*domain.Sample, error)
	Version() uint16
}
