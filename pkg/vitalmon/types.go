package vitalmon

import (
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

// Sample is one timestamped bundle of vital readings; nil fields are absent.
type Sample = domain.Sample

// CaptureEntry is one row of the capture log.
type CaptureEntry = domain.CaptureEntry

// Reading is an evaluated scalar vital (value, label, status, severity).
type Reading = domain.Reading

// VitalRange is the inclusive normal interval of a vital.
type VitalRange = domain.VitalRange

// SampleSource streams samples into the monitor (device, backend, simulator).
type SampleSource = ports.SampleSource

// Transformer lets callers rewrite samples (calibration, scaling) before they
// reach the monitor.
type Transformer = ports.Transformer

// Sink archives batches of captured entries.
type Sink = ports.Sink

// Journal is the durable record of the capture log.
type Journal = ports.Journal

// JournalStats exposes journal metadata for observability.
type JournalStats = ports.JournalStats

// EntryID uniquely identifies a journal entry.
type EntryID = ports.EntryID

// EntryQueue is the bounded queue between the journal and the sink.
type EntryQueue = ports.EntryQueue

// QueuedEntry is an item buffered inside the queue.
type QueuedEntry = ports.QueuedEntry

// Observability emits logs and metrics.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Float returns a pointer to v, for building samples.
func Float(v float64) *float64 { return domain.Float(v) }
