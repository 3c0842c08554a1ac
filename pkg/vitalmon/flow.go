package vitalmon

import (
	"context"
	"fmt"
)

// Flow builds a Runtime in three steps: Conf loads the configuration,
// StreamIN overrides the acquisition side, StreamOUT the archive side.
type Flow struct {
	cfg  *Config
	opts []RuntimeOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// StreamInOption configures the acquisition side (source, journal, queue, observability).
type StreamInOption func(*Flow)

// StreamOutOption configures the archive side (sink, transformer, observability).
type StreamOutOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config is the loaded configuration; changes apply to the next StreamOUT.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends RuntimeOption values directly.
func (f *Flow) Options(opts ...RuntimeOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// StreamIN records acquisition-side overrides.
func (f *Flow) StreamIN(opts ...StreamInOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// StreamOUT records archive-side overrides and builds a Runtime ready to run.
func (f *Flow) StreamOUT(opts ...StreamOutOption) (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return NewRuntime(f.cfg, f.opts...)
}

// Run builds the runtime and runs it until ctx is cancelled.
func (f *Flow) Run(ctx context.Context, opts ...StreamOutOption) error {
	rt, err := f.StreamOUT(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// WithFlowOptions appends RuntimeOption values during Conf.
func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// override turns a RuntimeOption into a builder step; ok is false when the
// caller passed a nil dependency, which leaves the configured default.
func override(opt RuntimeOption, ok bool) func(*Flow) {
	return func(f *Flow) {
		if f != nil && ok {
			f.appendOptions(opt)
		}
	}
}

// StreamInSource feeds the monitor from a caller-provided source (a
// Publisher, a device bridge, a recorded session).
func StreamInSource(src SampleSource) StreamInOption {
	return override(WithSource(src), src != nil)
}

// StreamInJournal replaces the file journal that backs the capture log.
func StreamInJournal(j Journal) StreamInOption {
	return override(WithJournal(j), j != nil)
}

// StreamInQueue swaps the in-memory archive queue.
func StreamInQueue(q EntryQueue) StreamInOption {
	return override(WithQueue(q), q != nil)
}

// StreamInObservability replaces the Prometheus and slog observability backend.
func StreamInObservability(obs Observability) StreamInOption {
	return override(WithObservability(obs), obs != nil)
}

// StreamOutSink archives captured entries into s instead of the configured sink.
func StreamOutSink(s Sink) StreamOutOption {
	return override(WithSink(s), s != nil)
}

// StreamOutTransformer replaces the configured ECG transformer.
func StreamOutTransformer(tr Transformer) StreamOutOption {
	return override(WithTransformer(tr), tr != nil)
}

// StreamOutObservability is StreamInObservability for the archive side of the chain.
func StreamOutObservability(obs Observability) StreamOutOption {
	return override(WithObservability(obs), obs != nil)
}

// StreamOutCallback archives every batch of captured entries through fn.
func StreamOutCallback(name string, fn EntryBatchSink) StreamOutOption {
	return override(WithSink(NewCallbackSink(name, fn)), true)
}

func (f *Flow) appendOptions(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
