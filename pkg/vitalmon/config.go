package vitalmon

import (
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/app/config"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls journal/queue thresholds.
	Policy = ports.Policy
	// SourceConfig selects and configures the acquisition source.
	SourceConfig = config.SourceConfig
	// DisplayConfig sizes the waveform surface and the rolling windows.
	DisplayConfig = config.DisplayConfig
	// RangesConfig overrides the normal range of each scalar vital.
	RangesConfig = config.RangesConfig
	// CaptureConfig holds capture and export defaults.
	CaptureConfig = config.CaptureConfig
	// JournalConfig configures on-disk durability of the capture log.
	JournalConfig = config.JournalConfig
	// SinkConfig selects the archive sink.
	SinkConfig = config.SinkConfig
	// HTTPConfig configures the control API.
	HTTPConfig = config.HTTPConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns a synthetic-source configuration with every default
// applied.
func DefaultConfig() *Config {
	return config.Default()
}
