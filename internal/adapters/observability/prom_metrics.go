package observability

import (
	"errors"
	"log/slog"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names understood by PromObs. Unknown names are ignored.
const (
	SamplesReceived = "vitalmon_samples_received_total"
	SourceErrors    = "vitalmon_source_errors_total"
	DecodeErrors    = "vitalmon_decode_errors_total"
	TransformErrors = "vitalmon_transform_errors_total"
	CaptureEntries  = "vitalmon_capture_entries_total"
	Archived        = "vitalmon_archived_total"
	ArchiveDropped  = "vitalmon_archive_dropped_total"
	DLQ             = "vitalmon_dlq_total"
	JournalSize     = "vitalmon_journal_size_bytes"
	ArchiveQueueLen = "vitalmon_archive_queue_length"
	CaptureLogLen   = "vitalmon_capture_log_length"
	HeartRate       = "vitalmon_heart_rate_bpm"
	SpO2            = "vitalmon_spo2_percent"
	Temperature     = "vitalmon_temperature_celsius"
	RenderLatency   = "vitalmon_render_seconds"
	SinkLatency     = "vitalmon_sink_latency_seconds"
)

type PromObs struct {
	log      *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

var _ ports.Observability = (*PromObs)(nil)

type Option func(*promOptions)

type promOptions struct {
	reg prometheus.Registerer
	log *slog.Logger
}

// WithRegisterer registers the collectors somewhere other than the default
// Prometheus registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *promOptions) { o.reg = reg }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *promOptions) { o.log = l }
}

func NewPromObs(opts ...Option) *PromObs {
	o := promOptions{reg: prometheus.DefaultRegisterer, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	counter := func(name, help string) prometheus.Counter {
		return register(o.reg, prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help}))
	}
	gauge := func(name, help string) prometheus.Gauge {
		return register(o.reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}))
	}

	renderLatency := register(o.reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    RenderLatency,
		Help:    "Time spent redrawing the ECG surface.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}))
	sinkLatency := register(o.reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    SinkLatency,
		Help:    "Latency of one archive batch write, dequeue to commit.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}))

	return &PromObs{
		log: o.log,
		counters: map[string]prometheus.Counter{
			SamplesReceived: counter(SamplesReceived, "Samples accepted from the active source."),
			SourceErrors:    counter(SourceErrors, "Source ticks skipped because of transport or status errors."),
			DecodeErrors:    counter(DecodeErrors, "Device payloads that could not be decoded."),
			TransformErrors: counter(TransformErrors, "Samples rejected by the transformer."),
			CaptureEntries:  counter(CaptureEntries, "Entries appended to the capture log."),
			Archived:        counter(Archived, "Capture entries written to the archive sink."),
			ArchiveDropped:  counter(ArchiveDropped, "Capture entries lost to journal or queue backpressure."),
			DLQ:             counter(DLQ, "Capture entries that failed archival."),
		},
		gauges: map[string]prometheus.Gauge{
			JournalSize:     gauge(JournalSize, "Size of the capture journal on disk."),
			ArchiveQueueLen: gauge(ArchiveQueueLen, "Entries waiting for the archive sink."),
			CaptureLogLen:   gauge(CaptureLogLen, "Entries in the current capture log."),
			HeartRate:       gauge(HeartRate, "Last heart rate reading."),
			SpO2:            gauge(SpO2, "Last SpO2 reading."),
			Temperature:     gauge(Temperature, "Last body temperature reading."),
		},
		histos: map[string]prometheus.Observer{
			RenderLatency: renderLatency,
			SinkLatency:   sinkLatency,
		},
	}
}

// register adds c to reg, reusing an identical collector registered by an
// earlier PromObs on the same registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (p *PromObs) LogDebug(msg string, fields ...ports.Field) {
	p.log.Debug(msg, attrs(fields)...)
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(attrs(fields), slog.Any("err", err))...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(attrs(fields), slog.Any("err", err), slog.Bool("critical", true))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDLQ(id ports.EntryID, e *domain.CaptureEntry, err error) {
	p.IncCounter(DLQ, 1)
	if err == nil {
		return
	}
	ts := ""
	if e != nil {
		ts = e.Timestamp
	}
	p.log.Error("archive_dlq", slog.Uint64("entry_id", uint64(id)), slog.String("captured_at", ts), slog.Any("err", err))
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields)+2)
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
