// Package monitor owns the live state of one vital-signs display: the
// waveform and trend windows, the capture session, the rendered ECG frame
// and the stream subscribers.
package monitor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/buffer"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/capture"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/export"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/periodic"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/render"
)

const subscriberBuffer = 16

// Settings sizes the windows and the ECG surface.
type Settings struct {
	ECGWindow      int
	TrendWindow    int
	Width          int
	Height         int
	PixelRatio     float64
	RenderInterval time.Duration
	Theme          string
	Colors         map[string]string

	HeartRate   domain.VitalRange
	SpO2        domain.VitalRange
	Temperature domain.VitalRange

	// CaptureInterval is the EDF record span used before any capture ran.
	CaptureInterval time.Duration
	PatientID       string
}

// Archive persists captured entries. pipeline.Archiver implements it.
type Archive interface {
	Record(e domain.CaptureEntry)
	Reset() error
}

type Option func(*Monitor)

func WithObservability(obs ports.Observability) Option {
	return func(m *Monitor) { m.obs = observability.OrNop(obs) }
}

// WithArchive journals every captured entry and resets the archive together
// with the capture log.
func WithArchive(a Archive) Option {
	return func(m *Monitor) { m.archive = a }
}

// WithClock replaces time.Now for capture timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.clock = now }
}

type Monitor struct {
	settings Settings
	fields   map[render.Signal]domain.Field

	ecg    *buffer.Rolling[float64]
	trends map[render.Signal]*buffer.Rolling[float64]

	session *capture.Session
	surface *render.Surface
	colors  *render.ColorSet

	mu     sync.RWMutex
	theme  render.Theme
	paused bool
	frame  []byte

	taskMu sync.Mutex
	task   *periodic.Task

	subMu      sync.Mutex
	subs       map[uint64]chan *domain.Sample
	nextSub    uint64
	subsClosed bool

	archive Archive
	clock   func() time.Time
	obs     ports.Observability
}

// New builds a monitor. Zero settings fall back to the display defaults.
func New(s Settings, opts ...Option) (*Monitor, error) {
	s = withDefaults(s)
	theme, err := render.ParseTheme(s.Theme)
	if err != nil {
		return nil, err
	}
	for _, r := range []domain.VitalRange{s.HeartRate, s.SpO2, s.Temperature} {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	surface, err := render.NewSurface(s.Width, s.Height, s.PixelRatio)
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		settings: s,
		fields: map[render.Signal]domain.Field{
			render.SignalHeartRate:   {Name: domain.HeartRateField.Name, Suffix: domain.HeartRateField.Suffix, Range: s.HeartRate},
			render.SignalOxygen:      {Name: domain.SpO2Field.Name, Suffix: domain.SpO2Field.Suffix, Range: s.SpO2},
			render.SignalTemperature: {Name: domain.TemperatureField.Name, Suffix: domain.TemperatureField.Suffix, Range: s.Temperature},
		},
		ecg: buffer.NewRolling[float64](s.ECGWindow),
		trends: map[render.Signal]*buffer.Rolling[float64]{
			render.SignalHeartRate:   buffer.NewRolling[float64](s.TrendWindow),
			render.SignalOxygen:      buffer.NewRolling[float64](s.TrendWindow),
			render.SignalTemperature: buffer.NewRolling[float64](s.TrendWindow),
		},
		surface: surface,
		colors:  render.NewColorSet(theme),
		theme:   theme,
		subs:    map[uint64]chan *domain.Sample{},
		clock:   time.Now,
		obs:     observability.Nop{},
	}
	for _, opt := range opts {
		opt(m)
	}
	for sig, value := range s.Colors {
		parsed, err := render.ParseSignal(sig)
		if err != nil {
			return nil, err
		}
		if err := m.colors.Set(parsed, value); err != nil {
			return nil, err
		}
	}

	m.ecg.Fill(0)
	m.session = capture.NewSession(
		capture.WithClock(m.clock),
		capture.WithObservability(m.obs),
		capture.WithOnEntry(m.onEntry),
	)
	return m, nil
}

func withDefaults(s Settings) Settings {
	if s.ECGWindow <= 0 {
		s.ECGWindow = 200
	}
	if s.TrendWindow <= 0 {
		s.TrendWindow = 100
	}
	if s.Width <= 0 {
		s.Width = 800
	}
	if s.Height <= 0 {
		s.Height = 200
	}
	if s.PixelRatio <= 0 {
		s.PixelRatio = 1
	}
	if s.RenderInterval <= 0 {
		s.RenderInterval = 50 * time.Millisecond
	}
	if s.Theme == "" {
		s.Theme = render.ThemeDark
	}
	if s.HeartRate == (domain.VitalRange{}) {
		s.HeartRate = domain.HeartRateField.Range
	}
	if s.SpO2 == (domain.VitalRange{}) {
		s.SpO2 = domain.SpO2Field.Range
	}
	if s.Temperature == (domain.VitalRange{}) {
		s.Temperature = domain.TemperatureField.Range
	}
	if s.CaptureInterval <= 0 {
		s.CaptureInterval = time.Second
	}
	return s
}

func (m *Monitor) onEntry(e domain.CaptureEntry) {
	m.obs.SetGauge(observability.CaptureLogLen, float64(m.session.Len()))
	if m.archive != nil {
		m.archive.Record(e)
	}
}

// Start begins redrawing the ECG surface on the render cadence.
func (m *Monitor) Start() {
	m.taskMu.Lock()
	defer m.taskMu.Unlock()
	if m.task != nil {
		return
	}
	m.subMu.Lock()
	m.subsClosed = false
	m.subMu.Unlock()
	m.task = periodic.Start(m.settings.RenderInterval, func(time.Time) {
		if m.Paused() {
			return
		}
		if err := m.Redraw(); err != nil {
			m.obs.LogError("render_failed", err)
		}
	})
}

// Stop ends redrawing and any running capture. When it returns neither
// writes to the monitor anymore.
func (m *Monitor) Stop() {
	m.taskMu.Lock()
	task := m.task
	m.task = nil
	m.taskMu.Unlock()
	task.Stop()
	m.session.Stop()

	m.subMu.Lock()
	m.subsClosed = true
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
	m.subMu.Unlock()
}

// Ingest folds one acquired sample into the live state.
func (m *Monitor) Ingest(s *domain.Sample) {
	if s == nil {
		return
	}
	merged := m.session.Observe(s)

	if s.ECG != nil {
		m.ecg.Push(*s.ECG)
	}
	for sig, v := range map[render.Signal]*float64{
		render.SignalHeartRate:   s.HeartRate,
		render.SignalOxygen:      s.SpO2,
		render.SignalTemperature: s.Temperature,
	} {
		if v != nil {
			m.trends[sig].Push(*v)
		}
	}

	if s.HeartRate != nil {
		m.obs.SetGauge(observability.HeartRate, *s.HeartRate)
	}
	if s.SpO2 != nil {
		m.obs.SetGauge(observability.SpO2, *s.SpO2)
	}
	if s.Temperature != nil {
		m.obs.SetGauge(observability.Temperature, *s.Temperature)
	}

	m.publish(merged)
}

// Redraw renders the current ECG window and caches the frame.
func (m *Monitor) Redraw() error {
	start := time.Now()
	stroke, err := m.colors.Get(render.SignalECG)
	if err != nil {
		return err
	}
	m.mu.RLock()
	theme := m.theme
	m.mu.RUnlock()

	if err := render.Redraw(m.surface, m.ecg.Snapshot(), theme, stroke); err != nil {
		return err
	}
	frame, err := m.surface.PNG()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.frame = frame
	m.mu.Unlock()
	m.obs.ObserveLatency(observability.RenderLatency, time.Since(start).Seconds())
	return nil
}

// Frame returns the last rendered ECG frame as PNG, rendering one if none
// exists yet.
func (m *Monitor) Frame() ([]byte, error) {
	m.mu.RLock()
	frame := m.frame
	m.mu.RUnlock()
	if frame != nil {
		return frame, nil
	}
	if err := m.Redraw(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame, nil
}

// Resize changes the CSS size or pixel ratio of the ECG surface.
func (m *Monitor) Resize(width, height int, ratio float64) error {
	return m.surface.Resize(width, height, ratio)
}

func (m *Monitor) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

func (m *Monitor) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
}

func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Latest is the last-known merged sample, nil before the first one.
func (m *Monitor) Latest() *domain.Sample {
	return m.session.Last()
}

// ECGWindow returns the waveform window, oldest first.
func (m *Monitor) ECGWindow() []float64 {
	return m.ecg.Snapshot()
}

// Readings evaluates every scalar present in the last-known sample, keyed
// by field name.
func (m *Monitor) Readings() map[string]domain.Reading {
	out := map[string]domain.Reading{}
	last := m.session.Last()
	if last == nil {
		return out
	}
	for sig, v := range map[render.Signal]*float64{
		render.SignalHeartRate:   last.HeartRate,
		render.SignalOxygen:      last.SpO2,
		render.SignalTemperature: last.Temperature,
	} {
		if v == nil {
			continue
		}
		f := m.fields[sig]
		out[f.Name] = f.Evaluate(*v)
	}
	return out
}

// Trend renders the trend window of sig as PNG.
func (m *Monitor) Trend(sig render.Signal) ([]byte, error) {
	buf, ok := m.trends[sig]
	if sig == render.SignalECG {
		buf, ok = m.ecg, true
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", render.ErrUnknownSignal, sig)
	}
	stroke, err := m.colors.Get(sig)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	theme := m.theme
	m.mu.RUnlock()
	return render.TrendPNG(buf.Snapshot(), theme, stroke, render.TrendOptions{})
}

// SetColor changes the stroke color of one signal.
func (m *Monitor) SetColor(signal, value string) error {
	sig, err := render.ParseSignal(signal)
	if err != nil {
		return err
	}
	return m.colors.Set(sig, value)
}

func (m *Monitor) Colors() map[string]string {
	return m.colors.Snapshot()
}

func (m *Monitor) SetTheme(name string) error {
	theme, err := render.ParseTheme(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.theme = theme
	m.mu.Unlock()
	m.colors.ApplyTheme(theme)
	return nil
}

func (m *Monitor) Theme() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme.Name
}

// CaptureStatus summarises the capture session.
type CaptureStatus struct {
	State      string `json:"state"`
	IntervalMs int64  `json:"interval_ms"`
	Entries    int    `json:"entries"`
}

func (m *Monitor) CaptureStatus() CaptureStatus {
	return CaptureStatus{
		State:      m.session.State().String(),
		IntervalMs: m.session.Interval().Milliseconds(),
		Entries:    m.session.Len(),
	}
}

func (m *Monitor) StartCapture(intervalMs int) error {
	return m.session.Start(intervalMs)
}

func (m *Monitor) StopCapture() {
	m.session.Stop()
}

func (m *Monitor) ToggleCapture(intervalMs int) (capture.State, error) {
	return m.session.Toggle(intervalMs)
}

// ResetCapture clears the capture log and the archive journal.
func (m *Monitor) ResetCapture() error {
	n := m.session.Reset()
	var err error
	if m.archive != nil {
		err = m.archive.Reset()
	}
	m.obs.SetGauge(observability.CaptureLogLen, 0)
	m.obs.LogInfo("capture_reset", ports.Field{Key: "entries", Value: n})
	return err
}

// RestoreCapture puts journaled entries back in front of the capture log.
func (m *Monitor) RestoreCapture(entries []domain.CaptureEntry) {
	m.session.Restore(entries)
	m.obs.SetGauge(observability.CaptureLogLen, float64(m.session.Len()))
}

func (m *Monitor) CaptureLog() []domain.CaptureEntry {
	return m.session.Log()
}

func (m *Monitor) ExportCSV() ([]byte, error) {
	return export.CSV(m.session.Log())
}

func (m *Monitor) ExportEDF() ([]byte, error) {
	interval := m.session.Interval()
	if interval <= 0 {
		interval = m.settings.CaptureInterval
	}
	return export.EDF(m.session.Log(), export.EDFOptions{
		PatientID:   m.settings.PatientID,
		RecordingID: "vitalmon " + m.clock().UTC().Format("2006-01-02"),
		Interval:    interval,
	})
}

// Subscribe streams every ingested sample, merged onto the last-known one.
// Slow subscribers miss samples rather than stall ingestion. The channel is
// closed by cancel or by Stop; after Stop it is returned already closed.
func (m *Monitor) Subscribe() (<-chan *domain.Sample, func()) {
	ch := make(chan *domain.Sample, subscriberBuffer)
	m.subMu.Lock()
	if m.subsClosed {
		m.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if c, ok := m.subs[id]; ok {
			close(c)
			delete(m.subs, id)
		}
	}
	return ch, cancel
}

func (m *Monitor) publish(s *domain.Sample) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- s.Clone():
		default:
		}
	}
}

// IsUserError reports whether err comes from bad input rather than a fault.
func IsUserError(err error) bool {
	return errors.Is(err, capture.ErrInvalidInterval) ||
		errors.Is(err, render.ErrUnknownSignal) ||
		errors.Is(err, render.ErrInvalidColor) ||
		errors.Is(err, render.ErrUnknownTheme)
}
