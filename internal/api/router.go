// Package api exposes the monitor controls over HTTP.
package api

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/app/monitor"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/capture"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/render"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Dashboard is the monitor surface the API drives.
type Dashboard interface {
	Latest() *domain.Sample
	Readings() map[string]domain.Reading
	Subscribe() (<-chan *domain.Sample, func())

	Frame() ([]byte, error)
	Trend(sig render.Signal) ([]byte, error)
	Pause()
	Resume()
	Paused() bool

	CaptureStatus() monitor.CaptureStatus
	CaptureLog() []domain.CaptureEntry
	StartCapture(intervalMs int) error
	StopCapture()
	ToggleCapture(intervalMs int) (capture.State, error)
	ResetCapture() error
	ExportCSV() ([]byte, error)
	ExportEDF() ([]byte, error)

	Colors() map[string]string
	SetColor(signal, value string) error
	Theme() string
	SetTheme(name string) error
}

var _ Dashboard = (*monitor.Monitor)(nil)

type Server struct {
	dash            Dashboard
	filename        string
	defaultInterval int
	origins         []string
	accessLog       io.Writer
	writeTimeout    time.Duration
	upgrader        websocket.Upgrader
	obs             ports.Observability
}

type Option func(*Server)

// WithExportFilename sets the CSV attachment name; the EDF export reuses its
// stem.
func WithExportFilename(name string) Option {
	return func(s *Server) { s.filename = name }
}

// WithDefaultInterval is used when a capture start carries no interval.
func WithDefaultInterval(ms int) Option {
	return func(s *Server) { s.defaultInterval = ms }
}

// WithCORSOrigins enables CORS for the listed origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithAccessLog writes combined-format access logs to w; nil disables them.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.accessLog = w }
}

func WithObservability(obs ports.Observability) Option {
	return func(s *Server) { s.obs = observability.OrNop(obs) }
}

func NewServer(d Dashboard, opts ...Option) *Server {
	s := &Server{
		dash:            d,
		filename:        "patient_data.csv",
		defaultInterval: 1000,
		accessLog:       os.Stdout,
		writeTimeout:    5 * time.Second,
		obs:             observability.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/data", s.getData).Methods(http.MethodGet)
	r.HandleFunc("/vitals", s.getVitals).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.stream).Methods(http.MethodGet)

	r.HandleFunc("/ecg.png", s.getFrame).Methods(http.MethodGet)
	r.HandleFunc("/charts/{signal:[A-Za-z]+}.png", s.getTrend).Methods(http.MethodGet)
	r.HandleFunc("/render/pause", s.pause).Methods(http.MethodPost)
	r.HandleFunc("/render/resume", s.resume).Methods(http.MethodPost)

	r.HandleFunc("/capture", s.getCapture).Methods(http.MethodGet)
	r.HandleFunc("/capture/entries", s.getEntries).Methods(http.MethodGet)
	r.HandleFunc("/capture/start", s.startCapture).Methods(http.MethodPost)
	r.HandleFunc("/capture/stop", s.stopCapture).Methods(http.MethodPost)
	r.HandleFunc("/capture/toggle", s.toggleCapture).Methods(http.MethodPost)
	r.HandleFunc("/capture/reset", s.resetCapture).Methods(http.MethodPost)
	r.HandleFunc("/capture/export.csv", s.exportCSV).Methods(http.MethodGet)
	r.HandleFunc("/capture/export.edf", s.exportEDF).Methods(http.MethodGet)

	r.HandleFunc("/colors", s.getColors).Methods(http.MethodGet)
	r.HandleFunc("/colors/{signal}", s.setColor).Methods(http.MethodPut)
	r.HandleFunc("/theme", s.getTheme).Methods(http.MethodGet)
	r.HandleFunc("/theme/{name}", s.setTheme).Methods(http.MethodPut)

	return r
}

// Handler wraps the router with access logging and, when origins are
// configured, CORS.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	if len(s.origins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.origins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
			handlers.ExposedHeaders([]string{"Content-Disposition"}),
		)(h)
	}
	if s.accessLog != nil {
		h = handlers.LoggingHandler(s.accessLog, h)
	}
	return h
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.origins) == 0 {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
