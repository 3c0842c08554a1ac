package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	"go.bug.st/serial"
)

type SerialConfig struct {
	Port     string
	BaudRate int
	Backoff  Backoff
}

// SerialSource reads newline-delimited firmware frames straight from the
// UART, reopening the port with backoff when it fails.
type SerialSource struct {
	cfg         SerialConfig
	obs         ports.Observability
	onDecodeErr DecodeErrorHandler
	open        func(port string, mode *serial.Mode) (io.ReadCloser, error)

	lc lifecycle
}

var _ ports.SampleSource = (*SerialSource)(nil)

func NewSerialSource(cfg SerialConfig, obs ports.Observability, opts ...Option) (*SerialSource, error) {
	if cfg.Port == "" {
		return nil, errors.New("serial source: port is required")
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 9600
	}
	obs = observability.OrNop(obs)
	return &SerialSource{
		cfg:         cfg,
		obs:         obs,
		onDecodeErr: applyOptions(obs, opts).onDecodeErr,
		open: func(port string, mode *serial.Mode) (io.ReadCloser, error) {
			return serial.Open(port, mode)
		},
	}, nil
}

func (s *SerialSource) Start(out chan<- *domain.Sample) error {
	ctx, err := s.lc.begin()
	if err != nil {
		return err
	}
	s.obs.LogInfo("source_started", ports.Field{Key: "source", Value: "serial"}, ports.Field{Key: "port", Value: s.cfg.Port})
	s.lc.spawn(func() { s.run(ctx, out) })
	return nil
}

func (s *SerialSource) run(ctx context.Context, out chan<- *domain.Sample) {
	mode := &serial.Mode{BaudRate: s.cfg.BaudRate, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	attempt := 0
	for {
		port, err := s.open(s.cfg.Port, mode)
		if err == nil {
			attempt = 0
			err = s.readLines(ctx, port, out)
			_ = port.Close()
		}
		if ctx.Err() != nil {
			return
		}
		s.obs.IncCounter(observability.SourceErrors, 1)
		delay := s.cfg.Backoff.Next(attempt)
		s.obs.LogError("serial_port_failed", err, ports.Field{Key: "port", Value: s.cfg.Port}, ports.Field{Key: "retry_in", Value: delay.String()})
		if !sleepCtx(ctx, delay) {
			return
		}
		attempt++
	}
}

func (s *SerialSource) readLines(ctx context.Context, port io.ReadCloser, out chan<- *domain.Sample) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = port.Close()
		case <-done:
		}
	}()

	sc := bufio.NewScanner(port)
	for sc.Scan() {
		line := append([]byte(nil), sc.Bytes()...)
		if len(line) == 0 {
			continue
		}
		smp, err := DecodeDeviceLine(line)
		if err != nil {
			s.obs.IncCounter(observability.DecodeErrors, 1)
			var de *DecodeError
			if errors.As(err, &de) && s.onDecodeErr(de) {
				return de
			}
			continue
		}
		if !s.lc.emit(ctx, out, s.lc.stamp(smp, "serial", time.Now())) {
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func (s *SerialSource) Stop() error {
	s.lc.end()
	return nil
}
