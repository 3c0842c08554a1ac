package vitalmon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := testConfig(t)

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	src := &stubSource{}
	sink := &stubSink{}

	rt, err := flow.
		StreamIN(
			StreamInSource(src),
			StreamInJournal(&stubJournal{}),
			StreamInObservability(&stubObservability{}),
		).
		StreamOUT(
			StreamOutSink(sink),
			StreamOutTransformer(&stubTransformer{}),
			StreamOutObservability(&stubObservability{}),
		)
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if rt.source != src {
		t.Fatalf("expected custom source to be wired")
	}
	if rt.sink != sink {
		t.Fatalf("expected custom sink to be wired")
	}
}

func TestFlowRunUsesStreamOutOptions(t *testing.T) {
	flow, err := ConfFromConfig(testConfig(t))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	// Stop immediately; Run still performs a full start and shutdown.
	cancel()
	if err := flow.StreamIN(
		StreamInSource(&stubSource{}),
		StreamInObservability(&stubObservability{}),
	).Run(ctx,
		StreamOutCallback("cb", func([]CaptureEntry) error { return nil }),
		StreamOutObservability(&stubObservability{}),
	); err != nil && err != context.Canceled {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
}

func TestConfLoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitalmon.yaml")
	data := "source:\n  kind: synthetic\nhttp:\n  disabled: true\njournal:\n  dir: " + t.TempDir() + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flow, err := Conf(path)
	if err != nil {
		t.Fatalf("Conf returned error: %v", err)
	}
	if flow.Config().Display.ECGWindow != 200 {
		t.Fatalf("expected defaults to be applied, got %+v", flow.Config().Display)
	}

	if _, err := Conf(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
