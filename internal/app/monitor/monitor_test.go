package monitor

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/capture"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/export"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/render"
)

type recordingArchive struct {
	mu      sync.Mutex
	entries []domain.CaptureEntry
	resets  int
}

func (r *recordingArchive) Record(e domain.CaptureEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingArchive) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
	r.entries = nil
	return nil
}

func (r *recordingArchive) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func newMonitor(t *testing.T, opts ...Option) *Monitor {
	t.Helper()
	m, err := New(Settings{ECGWindow: 5, TrendWindow: 3, Width: 100, Height: 40}, opts...)
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	t.Cleanup(m.Stop)
	return m
}

func TestECGWindowStartsFlatAndRolls(t *testing.T) {
	m := newMonitor(t)
	if got := m.ECGWindow(); len(got) != 5 || got[4] != 0 {
		t.Fatalf("expected a zero-filled window of 5, got %v", got)
	}
	for _, v := range []float64{0.1, 0.2, 0.3} {
		m.Ingest(&domain.Sample{ECG: domain.Float(v)})
	}
	got := m.ECGWindow()
	want := []float64{0, 0, 0.1, 0.2, 0.3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window = %v, want %v", got, want)
		}
	}
}

func TestReadingsUseMergedSample(t *testing.T) {
	m := newMonitor(t)
	if len(m.Readings()) != 0 {
		t.Fatalf("expected no readings before the first sample")
	}

	m.Ingest(&domain.Sample{HeartRate: domain.Float(110), SpO2: domain.Float(97)})
	m.Ingest(&domain.Sample{Temperature: domain.Float(36.8)})

	r := m.Readings()
	if r["hr"].Status != "High" || r["hr"].Label != "110 bpm" {
		t.Fatalf("unexpected hr reading %+v", r["hr"])
	}
	if r["spo2"].Status != "Normal" {
		t.Fatalf("expected spo2 to carry over, got %+v", r["spo2"])
	}
	if r["temperature"].Label != "36.8 °C" {
		t.Fatalf("unexpected temperature reading %+v", r["temperature"])
	}
}

func TestCustomRangesApply(t *testing.T) {
	m, err := New(Settings{HeartRate: domain.VitalRange{Min: 40, Max: 120}})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	m.Ingest(&domain.Sample{HeartRate: domain.Float(110)})
	if got := m.Readings()["hr"].Status; got != "Normal" {
		t.Fatalf("expected custom range to classify 110 as Normal, got %s", got)
	}

	if _, err := New(Settings{SpO2: domain.VitalRange{Min: 100, Max: 90}}); err == nil {
		t.Fatalf("expected inverted range to be rejected")
	}
}

func TestSubscribeReceivesMergedSamples(t *testing.T) {
	m := newMonitor(t)
	ch, cancel := m.Subscribe()

	m.Ingest(&domain.Sample{HeartRate: domain.Float(72)})
	m.Ingest(&domain.Sample{ECG: domain.Float(0.4)})

	<-ch
	got := <-ch
	if got.HeartRate == nil || *got.HeartRate != 72 || *got.ECG != 0.4 {
		t.Fatalf("expected merged sample, got %+v", got)
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
	cancel()
}

func TestSubscribeAfterStopIsClosed(t *testing.T) {
	m := newMonitor(t)
	live, _ := m.Subscribe()
	m.Stop()

	if _, ok := <-live; ok {
		t.Fatalf("expected Stop to close existing subscribers")
	}
	late, cancel := m.Subscribe()
	select {
	case _, ok := <-late:
		if ok {
			t.Fatalf("expected a closed channel after Stop")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription made after Stop was left open")
	}
	cancel()
}

func TestFrameRendersAndPauseFreezesIt(t *testing.T) {
	m, err := New(Settings{Width: 60, Height: 30, RenderInterval: 2 * time.Millisecond})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	defer m.Stop()

	first, err := m.Frame()
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if !bytes.HasPrefix(first, []byte("\x89PNG")) {
		t.Fatalf("expected PNG frame")
	}

	m.Pause()
	m.Start()
	for i := 0; i < 50; i++ {
		m.Ingest(&domain.Sample{ECG: domain.Float(0.9)})
	}
	time.Sleep(20 * time.Millisecond)
	paused, _ := m.Frame()
	if !bytes.Equal(first, paused) {
		t.Fatalf("expected frame to stay frozen while paused")
	}

	m.Resume()
	deadline := time.Now().Add(2 * time.Second)
	for {
		cur, _ := m.Frame()
		if !bytes.Equal(first, cur) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected redraws to resume")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestColorsAndTheme(t *testing.T) {
	m := newMonitor(t)
	if err := m.SetColor("oxygen", "#ff0000"); err != nil {
		t.Fatalf("set color: %v", err)
	}
	if err := m.SetColor("pressure", "#ff0000"); !errors.Is(err, render.ErrUnknownSignal) || !IsUserError(err) {
		t.Fatalf("expected unknown signal user error, got %v", err)
	}
	if err := m.SetColor("ecg", "blue"); !errors.Is(err, render.ErrInvalidColor) {
		t.Fatalf("expected invalid color, got %v", err)
	}

	if err := m.SetTheme("light"); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	colors := m.Colors()
	if colors["oxygen"] != "#FF0000" {
		t.Fatalf("expected custom oxygen color to survive the theme change, got %s", colors["oxygen"])
	}
	if colors["heartRate"] != "#059669" {
		t.Fatalf("expected light heart rate default, got %s", colors["heartRate"])
	}
	if m.Theme() != "light" {
		t.Fatalf("expected light theme, got %s", m.Theme())
	}
	if err := m.SetTheme("sepia"); !IsUserError(err) {
		t.Fatalf("expected unknown theme user error, got %v", err)
	}
}

func TestTrendNeedsTwoPoints(t *testing.T) {
	m := newMonitor(t)
	m.Ingest(&domain.Sample{HeartRate: domain.Float(70)})
	if _, err := m.Trend(render.SignalHeartRate); !errors.Is(err, render.ErrNotEnoughPoints) {
		t.Fatalf("expected ErrNotEnoughPoints, got %v", err)
	}
	m.Ingest(&domain.Sample{HeartRate: domain.Float(75)})
	png, err := m.Trend(render.SignalHeartRate)
	if err != nil || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected trend PNG, got err %v", err)
	}
	if _, err := m.Trend("pressure"); !errors.Is(err, render.ErrUnknownSignal) {
		t.Fatalf("expected unknown signal, got %v", err)
	}
}

func TestCaptureFlowArchivesAndExports(t *testing.T) {
	arch := &recordingArchive{}
	m := newMonitor(t, WithArchive(arch))

	if _, err := m.ExportCSV(); !errors.Is(err, export.ErrEmptyLog) {
		t.Fatalf("expected empty log error, got %v", err)
	}
	if err := m.StartCapture(0); !errors.Is(err, capture.ErrInvalidInterval) || !IsUserError(err) {
		t.Fatalf("expected invalid interval, got %v", err)
	}

	m.Ingest(&domain.Sample{HeartRate: domain.Float(72), SpO2: domain.Float(98), Temperature: domain.Float(36.8), ECG: domain.Float(0.2)})
	if err := m.StartCapture(5); err != nil {
		t.Fatalf("start capture: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for m.CaptureStatus().Entries < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected capture entries")
		}
		time.Sleep(time.Millisecond)
	}
	m.StopCapture()

	st := m.CaptureStatus()
	if st.State != "idle" || st.IntervalMs != 5 {
		t.Fatalf("unexpected status %+v", st)
	}
	if arch.len() != st.Entries {
		t.Fatalf("expected every entry archived, got %d of %d", arch.len(), st.Entries)
	}

	csv, err := m.ExportCSV()
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	lines := strings.Split(string(csv), "\n")
	if lines[0] != "Timestamp,HR,SpO2,Temperature,ECG" || !strings.HasSuffix(lines[1], ",72,98,36.8,0.2") {
		t.Fatalf("unexpected csv %q", csv)
	}
	edf, err := m.ExportEDF()
	if err != nil || len(edf) == 0 {
		t.Fatalf("export edf: %v", err)
	}

	if err := m.ResetCapture(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if m.CaptureStatus().Entries != 0 || arch.resets != 1 {
		t.Fatalf("expected log and archive reset")
	}
}

func TestRestoreCapture(t *testing.T) {
	m := newMonitor(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m.RestoreCapture([]domain.CaptureEntry{domain.NewCaptureEntry(at, &domain.Sample{HeartRate: domain.Float(60)})})
	if got := m.CaptureLog(); len(got) != 1 || *got[0].Sample.HeartRate != 60 {
		t.Fatalf("unexpected restored log %+v", got)
	}
}
