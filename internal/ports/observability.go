package ports

import "github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"

type Observability interface {
	LogDebug(msg string, fields ...Field)
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)

	RecordDLQ(id EntryID, e *domain.CaptureEntry, err error)
}

type Field struct {
	Key   string
	Value any
}
