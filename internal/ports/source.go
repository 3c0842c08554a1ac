package ports

import (
	"errors"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice on a source.
	ErrAlreadyStarted = errors.New("source already started")
	// ErrSourceStopped is returned when Start is called after Stop; sources
	// cannot be restarted.
	ErrSourceStopped = errors.New("source stopped")
)

// SampleSource produces an unbounded stream of samples into out until Stop.
// Once Stop returns nothing more is sent on out.
type SampleSource interface {
	Start(out chan<- *domain.Sample) error
	Stop() error
}
