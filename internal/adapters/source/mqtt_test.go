package source

import (
	"context"
	"testing"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
)

type fakeMessage struct {
	payload []byte
}

func (m fakeMessage) Duplicate() bool { return false }
func (m fakeMessage) Qos() byte { return 0 }
func (m fakeMessage) Retained() bool { return false }
func (m fakeMessage) Topic() string { return "vitals/bed1" }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte { return m.payload }
func (m fakeMessage) Ack() {}

func TestMQTTHandlerDecodesFirmwareFrames(t *testing.T) {
	var decodeErrs int
	src, err := NewMQTTSource(MQTTConfig{Broker: "tcp://localhost:1883", Topic: "vitals/bed1"}, nil,
		WithDecodeErrorHandler(func(*DecodeError) bool {
			decodeErrs++
			return false
		}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out := make(chan *domain.Sample, 2)
	h := src.handler(context.Background(), out)
	h(nil, fakeMessage{payload: []byte(`garbage`)})
	h(nil, fakeMessage{payload: []byte(`{"HR":70,"SpO2":97,"Temperature":36.6,"ECG":-0.1}`)})

	if decodeErrs != 1 {
		t.Fatalf("expected one decode error, got %d", decodeErrs)
	}
	s := <-out
	if *s.HeartRate != 70 || *s.ECG != -0.1 || s.Source != "mqtt" || s.Seq != 1 {
		t.Fatalf("unexpected sample %+v", s)
	}
}

func TestMQTTConfigValidation(t *testing.T) {
	if _, err := NewMQTTSource(MQTTConfig{Topic: "x"}, nil); err == nil {
		t.Fatalf("expected missing broker to fail")
	}
	if _, err := NewMQTTSource(MQTTConfig{Broker: "tcp://b:1883", Topic: "x", QoS: 3}, nil); err == nil {
		t.Fatalf("expected qos 3 to fail")
	}
}
