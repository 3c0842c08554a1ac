package domain

import (
	"fmt"
	"strconv"
)

// Status is the classification of a scalar reading against its normal range.
type Status int

const (
	StatusNormal Status = iota
	StatusLow
	StatusHigh
)

func (s Status) String() string {
	switch s {
	case StatusLow:
		return "Low"
	case StatusHigh:
		return "High"
	default:
		return "Normal"
	}
}

// Severity maps a status onto the display style of the dashboard.
func (s Status) Severity() string {
	switch s {
	case StatusLow:
		return "danger"
	case StatusHigh:
		return "warning"
	default:
		return "normal"
	}
}

// VitalRange is the inclusive normal interval of one vital field.
type VitalRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Validate rejects inverted ranges.
func (r VitalRange) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("range min %v is above max %v", r.Min, r.Max)
	}
	return nil
}

// Classify is boundary-inclusive: only values strictly outside [Min, Max]
// are Low or High.
func Classify(v float64, r VitalRange) Status {
	switch {
	case v < r.Min:
		return StatusLow
	case v > r.Max:
		return StatusHigh
	default:
		return StatusNormal
	}
}

// Field describes how one scalar vital is labelled and judged.
type Field struct {
	Name   string
	Suffix string
	Range  VitalRange
}

var (
	HeartRateField   = Field{Name: "hr", Suffix: " bpm", Range: VitalRange{Min: 60, Max: 100}}
	SpO2Field        = Field{Name: "spo2", Suffix: "%", Range: VitalRange{Min: 95, Max: 100}}
	TemperatureField = Field{Name: "temperature", Suffix: " °C", Range: VitalRange{Min: 36.1, Max: 37.2}}
)

// Reading is an evaluated scalar ready for display.
type Reading struct {
	Value    float64 `json:"value"`
	Label    string  `json:"label"`
	Status   string  `json:"status"`
	Severity string  `json:"severity"`
}

// Evaluate formats and classifies v.
func (f Field) Evaluate(v float64) Reading {
	st := Classify(v, f.Range)
	return Reading{
		Value:    v,
		Label:    FormatValue(v) + f.Suffix,
		Status:   st.String(),
		Severity: st.Severity(),
	}
}

// FormatValue renders v with the shortest representation that round-trips.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
