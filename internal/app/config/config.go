package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/sink"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/source"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	"gopkg.in/yaml.v3"
)

const (
	SourcePolling   = "polling"
	SourcePush      = "push"
	SourceSynthetic = "synthetic"
	SourceMQTT      = "mqtt"
	SourceSerial    = "serial"
	// SourceExternal means the embedding program supplies the source.
	SourceExternal = "external"

	SinkNone      = "none"
	SinkTimescale = "timescale"
	SinkKafka     = "kafka"

	PolicyBlock = "block"
	PolicyDrop  = "drop"
)

type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Transform TransformConfig `yaml:"transform"`
	Display   DisplayConfig   `yaml:"display"`
	Ranges    RangesConfig    `yaml:"ranges"`
	Capture   CaptureConfig   `yaml:"capture"`
	Policy    ports.Policy    `yaml:"policy"`
	Journal   JournalConfig   `yaml:"journal"`
	Sink      SinkConfig      `yaml:"sink"`
	HTTP      HTTPConfig      `yaml:"http"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type SourceConfig struct {
	Kind      string          `yaml:"kind"`
	Backoff   source.Backoff  `yaml:"backoff"`
	Polling   PollingConfig   `yaml:"polling"`
	Push      PushConfig      `yaml:"push"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Serial    SerialConfig    `yaml:"serial"`
}

type PollingConfig struct {
	URL      string        `yaml:"url"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

type PushConfig struct {
	URL string `yaml:"url"`
	// DropOnDecodeError reconnects after a malformed frame instead of
	// skipping it.
	DropOnDecodeError bool `yaml:"drop_on_decode_error"`
}

type SyntheticConfig struct {
	Interval    time.Duration `yaml:"interval"`
	VitalsEvery int           `yaml:"vitals_every"`
	Seed        int64         `yaml:"seed"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

type TransformConfig struct {
	// ECG is "none", "adc12" or "linear".
	ECG    string  `yaml:"ecg"`
	Offset float64 `yaml:"offset"`
	Gain   float64 `yaml:"gain"`
	Clamp  bool    `yaml:"clamp"`
}

type DisplayConfig struct {
	Width          int               `yaml:"width"`
	Height         int               `yaml:"height"`
	PixelRatio     float64           `yaml:"pixel_ratio"`
	RenderInterval time.Duration     `yaml:"render_interval"`
	Theme          string            `yaml:"theme"`
	ECGWindow      int               `yaml:"ecg_window"`
	TrendWindow    int               `yaml:"trend_window"`
	Colors         map[string]string `yaml:"colors"`
}

type RangesConfig struct {
	HeartRate   domain.VitalRange `yaml:"heart_rate"`
	SpO2        domain.VitalRange `yaml:"spo2"`
	Temperature domain.VitalRange `yaml:"temperature"`
}

type CaptureConfig struct {
	IntervalMs     int    `yaml:"interval_ms"`
	AutoStart      bool   `yaml:"auto_start"`
	ExportFilename string `yaml:"export_filename"`
	PatientID      string `yaml:"patient_id"`
}

type JournalConfig struct {
	Dir      string `yaml:"dir"`
	Sync     bool   `yaml:"sync"`
	Disabled bool   `yaml:"disabled"`
}

type SinkConfig struct {
	Kind      string           `yaml:"kind"`
	Timescale TimescaleConfig  `yaml:"timescale"`
	Kafka     sink.KafkaConfig `yaml:"kafka"`
}

type TimescaleConfig struct {
	ConnString  string `yaml:"conn_string"`
	Table       string `yaml:"table"`
	CreateTable bool   `yaml:"create_table"`
}

type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	Disabled    bool     `yaml:"disabled"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration that runs the synthetic source with every
// default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Finalize applies defaults and validates a programmatically built config.
func (c *Config) Finalize() error {
	c.applyDefaults()
	return c.validate()
}

func (c *Config) applyDefaults() {
	if c.Source.Kind == "" {
		c.Source.Kind = SourceSynthetic
	}
	if c.Source.Polling.Interval == 0 {
		c.Source.Polling.Interval = time.Second
	}
	if c.Source.Synthetic.Interval == 0 {
		c.Source.Synthetic.Interval = 20 * time.Millisecond
	}
	if c.Source.Synthetic.VitalsEvery == 0 {
		c.Source.Synthetic.VitalsEvery = 50
	}
	if c.Source.Serial.BaudRate == 0 {
		c.Source.Serial.BaudRate = 9600
	}
	if c.Source.MQTT.Topic == "" {
		c.Source.MQTT.Topic = "vitals"
	}
	if c.Source.Backoff.Initial == 0 {
		c.Source.Backoff.Initial = 500 * time.Millisecond
	}
	if c.Source.Backoff.Max == 0 {
		c.Source.Backoff.Max = 30 * time.Second
	}
	if c.Source.Backoff.Multiplier == 0 {
		c.Source.Backoff.Multiplier = 2
	}

	if c.Transform.ECG == "" {
		c.Transform.ECG = "none"
	}

	if c.Display.Width == 0 {
		c.Display.Width = 800
	}
	if c.Display.Height == 0 {
		c.Display.Height = 200
	}
	if c.Display.PixelRatio == 0 {
		c.Display.PixelRatio = 1
	}
	if c.Display.RenderInterval == 0 {
		c.Display.RenderInterval = 50 * time.Millisecond
	}
	if c.Display.Theme == "" {
		c.Display.Theme = "dark"
	}
	if c.Display.ECGWindow == 0 {
		c.Display.ECGWindow = 200
	}
	if c.Display.TrendWindow == 0 {
		c.Display.TrendWindow = 100
	}

	if c.Ranges.HeartRate == (domain.VitalRange{}) {
		c.Ranges.HeartRate = domain.HeartRateField.Range
	}
	if c.Ranges.SpO2 == (domain.VitalRange{}) {
		c.Ranges.SpO2 = domain.SpO2Field.Range
	}
	if c.Ranges.Temperature == (domain.VitalRange{}) {
		c.Ranges.Temperature = domain.TemperatureField.Range
	}

	if c.Capture.IntervalMs == 0 {
		c.Capture.IntervalMs = 1000
	}
	if c.Capture.ExportFilename == "" {
		c.Capture.ExportFilename = "patient_data.csv"
	}

	if c.Policy.MaxJournalSizeBytes == 0 {
		c.Policy.MaxJournalSizeBytes = 1 << 30
	}
	if c.Policy.MaxQueueLen == 0 {
		c.Policy.MaxQueueLen = 10_000
	}
	if c.Policy.MaxBatchSize == 0 {
		c.Policy.MaxBatchSize = 500
	}
	if c.Policy.IdleSleep == 0 {
		c.Policy.IdleSleep = 5 * time.Millisecond
	}
	if c.Policy.SourceBuffer == 0 {
		c.Policy.SourceBuffer = 256
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = PolicyBlock
	}
	if c.Policy.OnJournalFull == "" {
		c.Policy.OnJournalFull = PolicyDrop
	}

	if c.Journal.Dir == "" {
		c.Journal.Dir = "./data/journal"
	}
	if c.Sink.Kind == "" {
		c.Sink.Kind = SinkNone
	}
	if c.Sink.Timescale.Table == "" {
		c.Sink.Timescale.Table = "vitals"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Source.Kind {
	case SourcePolling:
		if c.Source.Polling.URL == "" {
			return fmt.Errorf("source.polling.url is required")
		}
	case SourcePush:
		if c.Source.Push.URL == "" {
			return fmt.Errorf("source.push.url is required")
		}
	case SourceMQTT:
		if c.Source.MQTT.Broker == "" {
			return fmt.Errorf("source.mqtt.broker is required")
		}
		if c.Source.MQTT.QoS > 2 {
			return fmt.Errorf("source.mqtt.qos must be 0, 1 or 2")
		}
	case SourceSerial:
		if c.Source.Serial.Port == "" {
			return fmt.Errorf("source.serial.port is required")
		}
	case SourceSynthetic, SourceExternal:
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}

	switch c.Transform.ECG {
	case "none", "adc12":
	case "linear":
		if c.Transform.Gain == 0 {
			return fmt.Errorf("transform.gain is required for the linear ECG transform")
		}
	default:
		return fmt.Errorf("unknown transform.ecg %q", c.Transform.ECG)
	}

	if c.Display.Width < 0 || c.Display.Height < 0 || c.Display.PixelRatio < 0 {
		return fmt.Errorf("display size and pixel_ratio must be positive")
	}
	if c.Display.Theme != "dark" && c.Display.Theme != "light" {
		return fmt.Errorf("display.theme must be dark or light, got %q", c.Display.Theme)
	}
	if c.Display.ECGWindow < 0 || c.Display.TrendWindow < 0 {
		return fmt.Errorf("display windows must be positive")
	}

	for name, r := range map[string]domain.VitalRange{
		"heart_rate":  c.Ranges.HeartRate,
		"spo2":        c.Ranges.SpO2,
		"temperature": c.Ranges.Temperature,
	} {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("ranges.%s: %w", name, err)
		}
	}

	if c.Capture.IntervalMs < 0 {
		return fmt.Errorf("capture.interval_ms must be positive")
	}

	for name, v := range map[string]string{
		"on_queue_full":   c.Policy.OnQueueFull,
		"on_journal_full": c.Policy.OnJournalFull,
	} {
		if v != PolicyBlock && v != PolicyDrop {
			return fmt.Errorf("policy.%s must be block or drop, got %q", name, v)
		}
	}

	switch c.Sink.Kind {
	case SinkNone:
	case SinkTimescale:
		if c.Sink.Timescale.ConnString == "" {
			return fmt.Errorf("sink.timescale.conn_string is required")
		}
	case SinkKafka:
		if len(c.Sink.Kafka.Brokers) == 0 || c.Sink.Kafka.Topic == "" {
			return fmt.Errorf("sink.kafka.brokers and sink.kafka.topic are required")
		}
	default:
		return fmt.Errorf("unknown sink.kind %q", c.Sink.Kind)
	}
	if c.Sink.Kind != SinkNone && c.Journal.Disabled {
		return fmt.Errorf("an archive sink requires the journal")
	}

	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}
