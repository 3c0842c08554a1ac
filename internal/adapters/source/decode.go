package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
)

// ErrDeviceReported marks a firmware frame that carries only an "Error" key.
var ErrDeviceReported = errors.New("device reported error")

// DecodeError wraps a payload that could not be turned into a sample.
type DecodeError struct {
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload %q: %v", truncate(e.Payload, 64), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeErrorHandler sees every decode failure of a connection-oriented
// source. Returning true drops the current connection.
type DecodeErrorHandler func(*DecodeError) bool

// devicePayload is the frame shape sent by the ESP8266 bridge and, one JSON
// object per line, by the STM32 firmware.
type devicePayload struct {
	HR          *float64 `json:"HR"`
	SpO2        *float64 `json:"SpO2"`
	Temperature *float64 `json:"Temperature"`
	ECG         *float64 `json:"ECG"`
	ECGStatus   string   `json:"ECG_Status"`
	Error       string   `json:"Error"`
}

// DecodePush parses a WebSocket frame. All four readings are required.
func DecodePush(b []byte) (*domain.Sample, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, &DecodeError{Payload: b, Err: err}
	}
	for _, key := range []string{"HR", "SpO2", "Temperature", "ECG"} {
		v, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, &DecodeError{Payload: b, Err: fmt.Errorf("missing field %s", key)}
		}
	}
	var p devicePayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, &DecodeError{Payload: b, Err: err}
	}
	return &domain.Sample{HeartRate: p.HR, SpO2: p.SpO2, Temperature: p.Temperature, ECG: p.ECG}, nil
}

// DecodeDeviceLine parses a firmware frame where any reading may be null and
// the ECG may be replaced by a lead-off status.
func DecodeDeviceLine(b []byte) (*domain.Sample, error) {
	b = bytes.TrimSpace(b)
	var p devicePayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, &DecodeError{Payload: b, Err: err}
	}
	if p.Error != "" {
		return nil, &DecodeError{Payload: b, Err: fmt.Errorf("%w: %s", ErrDeviceReported, p.Error)}
	}
	s := &domain.Sample{HeartRate: p.HR, SpO2: p.SpO2, Temperature: p.Temperature, ECG: p.ECG}
	if p.ECG == nil && p.ECGStatus != "" {
		s.ECGStatus = p.ECGStatus
	}
	return s, nil
}

// pollPayload is the response body of the polling backend.
type pollPayload struct {
	HR          *float64 `json:"hr"`
	SpO2        *float64 `json:"spo2"`
	ECG         *float64 `json:"ecg"`
	Temperature *float64 `json:"temperature"`
}

// DecodePoll parses a polling response; null fields stay absent.
func DecodePoll(b []byte) (*domain.Sample, error) {
	var p pollPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, &DecodeError{Payload: b, Err: err}
	}
	return &domain.Sample{HeartRate: p.HR, SpO2: p.SpO2, Temperature: p.Temperature, ECG: p.ECG}, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
