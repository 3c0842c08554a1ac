package source

import (
	"errors"
	"testing"
)

func TestDecodePushRequiresAllFields(t *testing.T) {
	s, err := DecodePush([]byte(`{"HR":72,"SpO2":98,"Temperature":36.8,"ECG":0.2}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *s.HeartRate != 72 || *s.SpO2 != 98 || *s.Temperature != 36.8 || *s.ECG != 0.2 {
		t.Fatalf("unexpected sample %+v", s)
	}

	for _, payload := range []string{
		`{"HR":72,"SpO2":98,"Temperature":36.8}`,
		`{"HR":72,"SpO2":98,"Temperature":36.8,"ECG":null}`,
		`{"HR":"fast","SpO2":98,"Temperature":36.8,"ECG":0.2}`,
		`not json`,
	} {
		_, err := DecodePush([]byte(payload))
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("payload %s: expected *DecodeError, got %v", payload, err)
		}
		if string(de.Payload) != payload {
			t.Fatalf("decode error should carry the payload, got %q", de.Payload)
		}
	}
}

func TestDecodeDeviceLineLeadOff(t *testing.T) {
	s, err := DecodeDeviceLine([]byte(`{"HR":null,"SpO2":97,"Temperature":36.9,"ECG":null,"ECG_Status":"Electrodes disconnected"}` + "\r\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.HeartRate != nil || s.ECG != nil {
		t.Fatalf("expected absent HR and ECG, got %+v", s)
	}
	if s.ECGStatus != "Electrodes disconnected" || *s.SpO2 != 97 {
		t.Fatalf("unexpected sample %+v", s)
	}
}

func TestDecodeDeviceLineErrorFrame(t *testing.T) {
	_, err := DecodeDeviceLine([]byte(`{"Error":"Failed to parse JSON"}`))
	if !errors.Is(err, ErrDeviceReported) {
		t.Fatalf("expected ErrDeviceReported, got %v", err)
	}
}

func TestDecodePollNulls(t *testing.T) {
	s, err := DecodePoll([]byte(`{"hr":null,"spo2":99,"ecg":-0.3,"temperature":null}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.HeartRate != nil || s.Temperature != nil {
		t.Fatalf("null fields must stay absent: %+v", s)
	}
	if *s.SpO2 != 99 || *s.ECG != -0.3 {
		t.Fatalf("unexpected sample %+v", s)
	}

	empty, err := DecodePoll([]byte(`{"hr":null,"spo2":null,"ecg":null,"temperature":null}`))
	if err != nil || !empty.Empty() {
		t.Fatalf("expected empty sample, got %+v err=%v", empty, err)
	}
}
