package ports

import "github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"

// Sink archives batches of captured entries.
type Sink interface {
	WriteBatch(entries []*domain.CaptureEntry) error
	Name() string
}
