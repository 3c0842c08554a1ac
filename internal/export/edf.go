package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/OpenPSG/edf"
)

// EDFOptions describes the recording written to the EDF header.
type EDFOptions struct {
	PatientID   string
	RecordingID string
	// Interval is the capture interval; one data record spans it, rounded
	// up to whole seconds.
	Interval time.Duration
}

type edfChannel struct {
	signal edf.Signal
	value  func(domain.Sample) *float64
}

var edfChannels = []edfChannel{
	{
		signal: edf.Signal{Label: "HR", TransducerType: "Pulse oximeter", PhysicalDimension: "bpm", PhysicalMin: 0, PhysicalMax: 300},
		value:  func(s domain.Sample) *float64 { return s.HeartRate },
	},
	{
		signal: edf.Signal{Label: "SpO2", TransducerType: "Pulse oximeter", PhysicalDimension: "%", PhysicalMin: 0, PhysicalMax: 100},
		value:  func(s domain.Sample) *float64 { return s.SpO2 },
	},
	{
		signal: edf.Signal{Label: "Temp", TransducerType: "Thermistor", PhysicalDimension: "degC", PhysicalMin: 25, PhysicalMax: 45},
		value:  func(s domain.Sample) *float64 { return s.Temperature },
	},
	{
		signal: edf.Signal{Label: "ECG", TransducerType: "AgAgCl electrode", PhysicalDimension: "mV", PhysicalMin: -1, PhysicalMax: 1},
		value:  func(s domain.Sample) *float64 { return s.ECG },
	},
}

// RecordDuration rounds the capture interval up to whole seconds, at least one.
func RecordDuration(interval time.Duration) time.Duration {
	secs := math.Ceil(interval.Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// WriteEDF writes the log as an EDF file with one data record per entry and
// one sample per signal. Absent readings are written as the signal minimum.
func WriteEDF(w io.WriteSeeker, log []domain.CaptureEntry, opts EDFOptions) error {
	if len(log) == 0 {
		return ErrEmptyLog
	}

	start := time.Now().UTC()
	if at, ok := log[0].CapturedAt(); ok {
		start = at
	}
	signals := make([]edf.Signal, len(edfChannels))
	for i, ch := range edfChannels {
		signals[i] = ch.signal
		signals[i].DigitalMin = math.MinInt16
		signals[i].DigitalMax = math.MaxInt16
		signals[i].SamplesPerRecord = 1
	}

	ew, err := edf.Create(w, edf.Header{
		Version:            edf.Version0,
		PatientID:          opts.PatientID,
		RecordingID:        opts.RecordingID,
		StartTime:          start,
		DataRecordDuration: RecordDuration(opts.Interval),
		SignalCount:        len(signals),
		Signals:            signals,
	})
	if err != nil {
		return fmt.Errorf("edf header: %w", err)
	}

	record := make([][]float64, len(edfChannels))
	for _, e := range log {
		for i, ch := range edfChannels {
			v := ch.signal.PhysicalMin
			if p := ch.value(e.Sample); p != nil {
				v = math.Max(ch.signal.PhysicalMin, math.Min(ch.signal.PhysicalMax, *p))
			}
			record[i] = []float64{v}
		}
		if err := ew.Write(record); err != nil {
			return fmt.Errorf("edf record %s: %w", e.Timestamp, err)
		}
	}
	return ew.Close()
}

// EDF renders the log into memory through a temporary file.
func EDF(log []domain.CaptureEntry, opts EDFOptions) ([]byte, error) {
	if len(log) == 0 {
		return nil, ErrEmptyLog
	}
	f, err := os.CreateTemp("", "vitalmon-*.edf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := WriteEDF(f, log, opts); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}
