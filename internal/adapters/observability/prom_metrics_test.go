package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	logger, err := NewLogger("debug", "text", &logs)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	obs := NewPromObs(WithRegisterer(reg), WithLogger(logger))

	obs.IncCounter(SamplesReceived, 5)
	if got := testutil.ToFloat64(obs.counters[SamplesReceived]); got != 5 {
		t.Fatalf("expected samples counter 5, got %f", got)
	}

	obs.IncCounter(ArchiveDropped, 2)
	if got := testutil.ToFloat64(obs.counters[ArchiveDropped]); got != 2 {
		t.Fatalf("expected drop counter 2, got %f", got)
	}

	obs.SetGauge(JournalSize, 42)
	if got := testutil.ToFloat64(obs.gauges[JournalSize]); got != 42 {
		t.Fatalf("expected journal gauge 42, got %f", got)
	}

	obs.SetGauge(HeartRate, 72)
	if got := testutil.ToFloat64(obs.gauges[HeartRate]); got != 72 {
		t.Fatalf("expected heart rate gauge 72, got %f", got)
	}

	obs.ObserveLatency(SinkLatency, 0.5)
	hCollector := obs.histos[SinkLatency].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	obs.RecordDLQ(7, &domain.CaptureEntry{Timestamp: "2024-05-01T10:00:00.000Z"}, errors.New("db down"))
	if got := testutil.ToFloat64(obs.counters[DLQ]); got != 1 {
		t.Fatalf("expected dlq counter 1, got %f", got)
	}
	if !strings.Contains(logs.String(), "archive_dlq") || !strings.Contains(logs.String(), "db down") {
		t.Fatalf("expected dlq log line, got %q", logs.String())
	}

	obs.IncCounter("not_a_metric", 1)
}

func TestPromObsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewPromObs(WithRegisterer(reg))
	second := NewPromObs(WithRegisterer(reg))

	first.IncCounter(CaptureEntries, 1)
	second.IncCounter(CaptureEntries, 1)
	if got := testutil.ToFloat64(second.counters[CaptureEntries]); got != 2 {
		t.Fatalf("expected shared counter 2, got %f", got)
	}
}

func TestLogFieldsAreStructured(t *testing.T) {
	var logs bytes.Buffer
	logger, err := NewLogger("info", "json", &logs)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	obs := NewPromObs(WithRegisterer(prometheus.NewRegistry()), WithLogger(logger))

	obs.LogDebug("hidden")
	obs.LogInfo("capture_started", ports.Field{Key: "interval_ms", Value: 1000})

	out := logs.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %q", out)
	}
	if !strings.Contains(out, `"msg":"capture_started"`) || !strings.Contains(out, `"interval_ms":1000`) {
		t.Fatalf("unexpected json log: %q", out)
	}
}

func TestNewLoggerRejectsUnknownInput(t *testing.T) {
	if _, err := NewLogger("loud", "text", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected bad level to fail")
	}
	if _, err := NewLogger("info", "xml", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected bad format to fail")
	}
}
