package domain

import (
	"math"
	"testing"
)

func TestClassifyBoundariesAreNormal(t *testing.T) {
	r := VitalRange{Min: 60, Max: 100}

	cases := []struct {
		v    float64
		want Status
	}{
		{59.999, StatusLow},
		{60, StatusNormal},
		{80, StatusNormal},
		{100, StatusNormal},
		{100.001, StatusHigh},
		{math.Inf(-1), StatusLow},
		{math.Inf(1), StatusHigh},
	}
	for _, tc := range cases {
		if got := Classify(tc.v, r); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.v, got, tc.want)
		}
	}
}

func TestFieldEvaluateLabels(t *testing.T) {
	hr := HeartRateField.Evaluate(72)
	if hr.Label != "72 bpm" || hr.Status != "Normal" || hr.Severity != "normal" {
		t.Fatalf("unexpected heart rate reading: %+v", hr)
	}

	spo2 := SpO2Field.Evaluate(91)
	if spo2.Label != "91%" || spo2.Status != "Low" || spo2.Severity != "danger" {
		t.Fatalf("unexpected spo2 reading: %+v", spo2)
	}

	temp := TemperatureField.Evaluate(38.4)
	if temp.Label != "38.4 °C" || temp.Status != "High" || temp.Severity != "warning" {
		t.Fatalf("unexpected temperature reading: %+v", temp)
	}
}

func TestVitalRangeValidate(t *testing.T) {
	if err := (VitalRange{Min: 5, Max: 1}).Validate(); err == nil {
		t.Fatalf("expected inverted range to fail validation")
	}
	if err := (VitalRange{Min: 1, Max: 1}).Validate(); err != nil {
		t.Fatalf("degenerate range should be valid: %v", err)
	}
}
