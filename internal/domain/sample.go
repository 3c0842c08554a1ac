package domain

import "time"

// TimestampLayout is the sortable textual instant used for captured entries.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Sample is one timestamped bundle of vital readings. A nil field means the
// reading was not part of this update.
type Sample struct {
	Timestamp   time.Time `json:"ts"`
	Seq         uint64    `json:"seq"`
	Source      string    `json:"source,omitempty"`
	HeartRate   *float64  `json:"hr,omitempty"`
	SpO2        *float64  `json:"spo2,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	ECG         *float64  `json:"ecg,omitempty"`
	ECGStatus   string    `json:"ecg_status,omitempty"`
}

// Float returns a pointer to v, for building samples.
func Float(v float64) *float64 { return &v }

// Empty reports whether the sample carries no reading at all.
func (s *Sample) Empty() bool {
	return s.HeartRate == nil && s.SpO2 == nil && s.Temperature == nil && s.ECG == nil && s.ECGStatus == ""
}

// Clone returns a deep copy so the receiver can stay immutable.
func (s *Sample) Clone() *Sample {
	if s == nil {
		return nil
	}
	out := *s
	out.HeartRate = cloneFloat(s.HeartRate)
	out.SpO2 = cloneFloat(s.SpO2)
	out.Temperature = cloneFloat(s.Temperature)
	out.ECG = cloneFloat(s.ECG)
	return &out
}

// Merge folds a partial update onto prev. Fields missing from next keep the
// previous value, except that a lead-off status always clears ECG.
func Merge(prev, next *Sample) *Sample {
	if next == nil {
		return prev.Clone()
	}
	out := next.Clone()
	if prev == nil {
		return out
	}
	if out.HeartRate == nil {
		out.HeartRate = cloneFloat(prev.HeartRate)
	}
	if out.SpO2 == nil {
		out.SpO2 = cloneFloat(prev.SpO2)
	}
	if out.Temperature == nil {
		out.Temperature = cloneFloat(prev.Temperature)
	}
	if out.ECG == nil && out.ECGStatus == "" {
		out.ECG = cloneFloat(prev.ECG)
	}
	return out
}

// CaptureEntry is one row of a capture session log.
type CaptureEntry struct {
	Timestamp string `json:"timestamp"`
	Sample    Sample `json:"sample"`
}

// NewCaptureEntry stamps a copy of s with the capture instant.
func NewCaptureEntry(at time.Time, s *Sample) CaptureEntry {
	return CaptureEntry{
		Timestamp: at.UTC().Format(TimestampLayout),
		Sample:    *s.Clone(),
	}
}

// CapturedAt parses the entry timestamp; ok is false for foreign formats.
func (e CaptureEntry) CapturedAt() (time.Time, bool) {
	t, err := time.Parse(TimestampLayout, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
