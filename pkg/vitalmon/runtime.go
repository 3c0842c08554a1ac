package vitalmon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/journal"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/queue"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/sink"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/source"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/transform"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/api"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/app/config"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/app/monitor"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/app/pipeline"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source        SampleSource
	sink          Sink
	transformer   Transformer
	journal       Journal
	queue         EntryQueue
	observability Observability
}

// WithSource injects a custom sample source (a Publisher, a simulator, a
// device driver).
func WithSource(src SampleSource) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = src
	}
}

// WithSink injects a custom archive sink so captured entries can be sent to
// any database or API.
func WithSink(s Sink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.sink = s
	}
}

// WithTransformer overrides the configured ECG transformer.
func WithTransformer(t Transformer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.transformer = t
	}
}

// WithJournal lets callers bring their own journal implementation.
func WithJournal(j Journal) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.journal = j
	}
}

// WithQueue injects a custom archive queue implementation.
func WithQueue(q EntryQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// Runtime wires source → transformer → monitor, the capture archive
// (journal → queue → sink) and the HTTP surfaces, and exposes lifecycle
// hooks for embedding vitalmon inside any Go service.
type Runtime struct {
	cfg         *Config
	policy      ports.Policy
	obs         ports.Observability
	journal     ports.Journal
	ownsJournal bool
	queue       ports.EntryQueue
	source      ports.SampleSource
	transformer ports.Transformer
	sink        ports.Sink
	ownsSink    bool
	db          *sql.DB
	archiver    *pipeline.Archiver
	monitor     *monitor.Monitor
	api         *api.Server

	mu         sync.Mutex
	started    bool
	cancel     context.CancelFunc
	acqDone    <-chan struct{}
	ingestDone chan struct{}
	httpSrv    *http.Server
	metricsSrv *http.Server
	gaugeStop  chan struct{}
}

// NewRuntime bootstraps the default adapters (configured source, file
// journal, in-memory queue, configured sink, Prometheus observability).
// RuntimeOption values override any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}
	if overrides.source != nil && cfg.Source.Kind == "" {
		cfg.Source.Kind = config.SourceExternal
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	obs := overrides.observability
	if obs == nil {
		logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		if err != nil {
			return nil, err
		}
		obs = observability.NewPromObs(observability.WithLogger(logger))
	}

	rt := &Runtime{
		cfg:    cfg,
		policy: cfg.Policy,
		obs:    obs,
	}
	if err := rt.build(overrides); err != nil {
		return nil, errors.Join(err, rt.release())
	}
	return rt, nil
}

func (r *Runtime) build(overrides runtimeOverrides) error {
	cfg := r.cfg

	r.source = overrides.source
	if r.source == nil {
		src, err := buildSource(cfg.Source, r.obs)
		if err != nil {
			return err
		}
		r.source = src
	}

	r.transformer = overrides.transformer
	if r.transformer == nil {
		r.transformer = buildTransformer(cfg.Transform)
	}

	r.sink = overrides.sink
	if r.sink == nil {
		if err := r.buildSink(); err != nil {
			return err
		}
	}

	r.journal = overrides.journal
	if r.journal == nil && !cfg.Journal.Disabled {
		j, err := journal.Open(cfg.Journal.Dir, journal.WithSync(cfg.Journal.Sync))
		if err != nil {
			return err
		}
		r.journal, r.ownsJournal = j, true
	}
	if r.sink != nil && r.journal == nil {
		return fmt.Errorf("an archive sink requires the journal")
	}

	r.queue = overrides.queue
	if r.queue == nil {
		r.queue = queue.NewMemQueue(cfg.Policy.MaxQueueLen)
	}

	monOpts := []monitor.Option{monitor.WithObservability(r.obs)}
	if r.journal != nil {
		r.archiver = pipeline.NewArchiver(r.journal, r.queue, r.sink, r.policy, r.obs)
		monOpts = append(monOpts, monitor.WithArchive(r.archiver))
	}

	mon, err := monitor.New(monitor.Settings{
		ECGWindow:       cfg.Display.ECGWindow,
		TrendWindow:     cfg.Display.TrendWindow,
		Width:           cfg.Display.Width,
		Height:          cfg.Display.Height,
		PixelRatio:      cfg.Display.PixelRatio,
		RenderInterval:  cfg.Display.RenderInterval,
		Theme:           cfg.Display.Theme,
		Colors:          cfg.Display.Colors,
		HeartRate:       cfg.Ranges.HeartRate,
		SpO2:            cfg.Ranges.SpO2,
		Temperature:     cfg.Ranges.Temperature,
		CaptureInterval: time.Duration(cfg.Capture.IntervalMs) * time.Millisecond,
		PatientID:       cfg.Capture.PatientID,
	}, monOpts...)
	if err != nil {
		return err
	}
	r.monitor = mon

	if r.archiver != nil {
		entries, err := r.archiver.Entries()
		if err != nil {
			return fmt.Errorf("restore capture log: %w", err)
		}
		if len(entries) > 0 {
			mon.RestoreCapture(entries)
			r.obs.LogInfo("capture_restored", ports.Field{Key: "entries", Value: len(entries)})
		}
	}

	r.api = api.NewServer(mon,
		api.WithExportFilename(cfg.Capture.ExportFilename),
		api.WithDefaultInterval(cfg.Capture.IntervalMs),
		api.WithCORSOrigins(cfg.HTTP.CORSOrigins...),
		api.WithObservability(r.obs),
	)
	return nil
}

func buildSource(cfg config.SourceConfig, obs ports.Observability) (ports.SampleSource, error) {
	switch cfg.Kind {
	case config.SourcePolling:
		return source.NewPollingSource(source.PollingConfig{
			URL:      cfg.Polling.URL,
			Interval: cfg.Polling.Interval,
			Timeout:  cfg.Polling.Timeout,
		}, obs)
	case config.SourcePush:
		var opts []source.Option
		if cfg.Push.DropOnDecodeError {
			opts = append(opts, source.WithDecodeErrorHandler(func(err *source.DecodeError) bool {
				obs.LogError("push_frame_rejected", err)
				return true
			}))
		}
		return source.NewPushSource(source.PushConfig{URL: cfg.Push.URL, Backoff: cfg.Backoff}, obs, opts...)
	case config.SourceSynthetic:
		return source.NewSyntheticSource(source.SyntheticConfig{
			Interval:    cfg.Synthetic.Interval,
			VitalsEvery: cfg.Synthetic.VitalsEvery,
			Seed:        cfg.Synthetic.Seed,
		}), nil
	case config.SourceMQTT:
		return source.NewMQTTSource(source.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			QoS:      cfg.MQTT.QoS,
			Backoff:  cfg.Backoff,
		}, obs)
	case config.SourceSerial:
		return source.NewSerialSource(source.SerialConfig{
			Port:     cfg.Serial.Port,
			BaudRate: cfg.Serial.BaudRate,
			Backoff:  cfg.Backoff,
		}, obs)
	case config.SourceExternal:
		return nil, fmt.Errorf("source.kind %q needs a source passed with WithSource", cfg.Kind)
	default:
		return nil, fmt.Errorf("unknown source.kind %q", cfg.Kind)
	}
}

func buildTransformer(cfg config.TransformConfig) ports.Transformer {
	switch cfg.ECG {
	case "adc12":
		return transform.ADC12()
	case "linear":
		return &transform.ECGScaler{Offset: cfg.Offset, Gain: cfg.Gain, Clamp: cfg.Clamp}
	default:
		return transform.Identity{}
	}
}

func (r *Runtime) buildSink() error {
	switch r.cfg.Sink.Kind {
	case config.SinkTimescale:
		db, err := sql.Open("postgres", r.cfg.Sink.Timescale.ConnString)
		if err != nil {
			return err
		}
		r.db = db
		ts, err := sink.NewTimescaleSink(db, r.cfg.Sink.Timescale.Table)
		if err != nil {
			return err
		}
		if r.cfg.Sink.Timescale.CreateTable {
			if err := ts.EnsureTable(); err != nil {
				return fmt.Errorf("create archive table: %w", err)
			}
		}
		r.sink, r.ownsSink = ts, true
	case config.SinkKafka:
		k, err := sink.NewKafkaSink(r.cfg.Sink.Kafka)
		if err != nil {
			return err
		}
		r.sink, r.ownsSink = k, true
	}
	return nil
}

// Monitor exposes the live state for embedding programs.
func (r *Runtime) Monitor() *monitor.Monitor {
	return r.monitor
}

// Handler is the control API, for mounting into an existing server.
func (r *Runtime) Handler() http.Handler {
	return r.api.Handler()
}

// Start launches acquisition, rendering, the archive loop and the HTTP
// servers. It returns immediately; call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("runtime already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	if r.archiver != nil && r.sink != nil {
		r.ingestDone = make(chan struct{})
		go func() {
			defer close(r.ingestDone)
			// Replay blocks while the sink keeps failing.
			if err := r.archiver.Replay(ctx); err != nil && ctx.Err() == nil {
				r.obs.LogError("journal_replay_failed", err)
			}
			r.archiver.Run(ctx)
		}()
	}

	r.monitor.Start()

	done, err := pipeline.RunAcquisition(ctx, r.source, r.transformer, r.monitor, r.policy, r.obs)
	if err != nil {
		cancel()
		if r.archiver != nil {
			r.archiver.Close()
		}
		r.monitor.Stop()
		return err
	}
	r.acqDone = done
	r.started = true

	if r.cfg.Capture.AutoStart {
		if err := r.monitor.StartCapture(r.cfg.Capture.IntervalMs); err != nil {
			r.obs.LogError("capture_autostart_failed", err)
		}
	}

	if !r.cfg.HTTP.Disabled {
		r.httpSrv = r.serve("http", r.cfg.HTTP.Addr, r.api.Handler())
	}
	r.startMetrics()
	r.obs.LogInfo("runtime_started",
		ports.Field{Key: "source", Value: r.cfg.Source.Kind},
		ports.Field{Key: "sink", Value: r.sinkName()})
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the source, the render and capture tasks, the archive loop,
// the HTTP servers and releases the journal, sink and DB connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return r.release()
	}
	r.started = false

	var errs []error

	if r.gaugeStop != nil {
		close(r.gaugeStop)
		r.gaugeStop = nil
	}
	for _, srv := range []*http.Server{r.httpSrv, r.metricsSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if err := r.source.Stop(); err != nil {
		errs = append(errs, err)
	}
	r.cancel()
	<-r.acqDone

	// a capture tick may be blocked on a full queue until the archiver closes
	if r.archiver != nil {
		r.archiver.Close()
	}
	r.monitor.Stop()
	if r.ingestDone != nil {
		select {
		case <-r.ingestDone:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("archive loop: %w", ctx.Err()))
		}
	}

	if err := r.release(); err != nil {
		errs = append(errs, err)
	}
	r.obs.LogInfo("runtime_stopped")
	return errors.Join(errs...)
}

// release closes what the runtime opened itself.
func (r *Runtime) release() error {
	var errs []error
	if c, ok := r.sink.(io.Closer); ok && r.ownsSink {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
		r.ownsSink = false
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
		r.db = nil
	}
	if r.ownsJournal {
		if c, ok := r.journal.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		r.ownsJournal = false
	}
	return errors.Join(errs...)
}

func (r *Runtime) sinkName() string {
	if r.sink == nil {
		return config.SinkNone
	}
	return r.sink.Name()
}

func (r *Runtime) serve(name, addr string, h http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("server_exited", err, ports.Field{Key: "server", Value: name})
		}
	}()
	return srv
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.metricsSrv = r.serve("metrics", r.cfg.Metrics.Addr, mux)

	r.gaugeStop = make(chan struct{})
	go r.recordResourceGauges(r.gaugeStop, time.Second)
}

func (r *Runtime) recordResourceGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if r.journal != nil {
				r.obs.SetGauge(observability.JournalSize, float64(r.journal.Stats().SizeBytes))
			}
			r.obs.SetGauge(observability.ArchiveQueueLen, float64(r.queue.Len()))
			r.obs.SetGauge(observability.CaptureLogLen, float64(r.monitor.CaptureStatus().Entries))
		}
	}
}
