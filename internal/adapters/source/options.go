package source

import "github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"

// Option configures the connection-oriented sources (push, MQTT, serial).
type Option func(*options)

type options struct {
	onDecodeErr DecodeErrorHandler
}

// WithDecodeErrorHandler replaces the default handler, which logs the error
// and keeps the connection.
func WithDecodeErrorHandler(h DecodeErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onDecodeErr = h
		}
	}
}

func applyOptions(obs ports.Observability, opts []Option) options {
	o := options{
		onDecodeErr: func(de *DecodeError) bool {
			obs.LogError("source_decode_failed", de)
			return false
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
