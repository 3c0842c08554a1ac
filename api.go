package vitalmon

import (
	base "github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/pkg/vitalmon"
)

// Re-exported errors for convenience.
var (
	ErrChannelSinkClosed   = base.ErrChannelSinkClosed
	ErrPublisherStopped    = base.ErrPublisherStopped
	ErrPublisherNotStarted = base.ErrPublisherNotStarted
)

// Type aliases so consumers can import the module root directly.
type (
	Config          = base.Config
	Policy          = base.Policy
	SourceConfig    = base.SourceConfig
	DisplayConfig   = base.DisplayConfig
	RangesConfig    = base.RangesConfig
	CaptureConfig   = base.CaptureConfig
	JournalConfig   = base.JournalConfig
	SinkConfig      = base.SinkConfig
	HTTPConfig      = base.HTTPConfig
	MetricsConfig   = base.MetricsConfig
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	StreamInOption  = base.StreamInOption
	StreamOutOption = base.StreamOutOption
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
	Sample          = base.Sample
	CaptureEntry    = base.CaptureEntry
	Reading         = base.Reading
	VitalRange      = base.VitalRange
	EntryBatchSink  = base.EntryBatchSink
	SampleSource    = base.SampleSource
	Sink            = base.Sink
	Transformer     = base.Transformer
	Journal         = base.Journal
	JournalStats    = base.JournalStats
	EntryID         = base.EntryID
	EntryQueue      = base.EntryQueue
	QueuedEntry     = base.QueuedEntry
	Observability   = base.Observability
	Publisher       = base.Publisher
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInSource(src SampleSource) StreamInOption {
	return base.StreamInSource(src)
}

func StreamInQueue(q EntryQueue) StreamInOption {
	return base.StreamInQueue(q)
}

func StreamInJournal(j Journal) StreamInOption {
	return base.StreamInJournal(j)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutSink(s Sink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutTransformer(tr Transformer) StreamOutOption {
	return base.StreamOutTransformer(tr)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

func StreamOutCallback(name string, fn EntryBatchSink) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithSource(src SampleSource) RuntimeOption {
	return base.WithSource(src)
}

func WithSink(s Sink) RuntimeOption {
	return base.WithSink(s)
}

func WithTransformer(tr Transformer) RuntimeOption {
	return base.WithTransformer(tr)
}

func WithJournal(j Journal) RuntimeOption {
	return base.WithJournal(j)
}

func WithQueue(q EntryQueue) RuntimeOption {
	return base.WithQueue(q)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

// Sink adapters.
func NewCallbackSink(name string, fn EntryBatchSink) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan []CaptureEntry, func()) {
	return base.NewChannelSink(name, buffer)
}

// In-process sample publisher.
func NewPublisher() *Publisher {
	return base.NewPublisher()
}

// Float returns a pointer to v, for building partial samples.
func Float(v float64) *float64 {
	return base.Float(v)
}
