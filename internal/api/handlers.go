package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/app/monitor"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/capture"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/export"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/render"
	"github.com/gorilla/mux"
)

// pollFrame is the polling payload, so one vitalmon can poll another.
type pollFrame struct {
	HR          *float64 `json:"hr"`
	SpO2        *float64 `json:"spo2"`
	ECG         *float64 `json:"ecg"`
	Temperature *float64 `json:"temperature"`
}

// pushFrame is the push payload streamed on /ws.
type pushFrame struct {
	HR          *float64 `json:"HR"`
	SpO2        *float64 `json:"SpO2"`
	Temperature *float64 `json:"Temperature"`
	ECG         *float64 `json:"ECG"`
}

type captureResponse struct {
	monitor.CaptureStatus
	Paused bool `json:"render_paused"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case monitor.IsUserError(err):
		return http.StatusBadRequest
	case errors.Is(err, capture.ErrAlreadyCapturing),
		errors.Is(err, export.ErrEmptyLog),
		errors.Is(err, render.ErrNotEnoughPoints):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) getData(w http.ResponseWriter, _ *http.Request) {
	var out pollFrame
	if last := s.dash.Latest(); last != nil {
		out = pollFrame{HR: last.HeartRate, SpO2: last.SpO2, ECG: last.ECG, Temperature: last.Temperature}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getVitals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Readings())
}

func (s *Server) getFrame(w http.ResponseWriter, _ *http.Request) {
	frame, err := s.dash.Frame()
	if err != nil {
		writeError(w, err)
		return
	}
	writePNG(w, frame)
}

func (s *Server) getTrend(w http.ResponseWriter, r *http.Request) {
	sig, err := render.ParseSignal(mux.Vars(r)["signal"])
	if err != nil {
		writeError(w, err)
		return
	}
	png, err := s.dash.Trend(sig)
	if err != nil {
		writeError(w, err)
		return
	}
	writePNG(w, png)
}

func writePNG(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	s.dash.Pause()
	s.getCapture(w, r)
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	s.dash.Resume()
	s.getCapture(w, r)
}

func (s *Server) getCapture(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, captureResponse{CaptureStatus: s.dash.CaptureStatus(), Paused: s.dash.Paused()})
}

func (s *Server) getEntries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.CaptureLog())
}

// interval reads the capture interval from the query or form; absent means
// the configured default.
func (s *Server) interval(r *http.Request) (int, error) {
	raw := r.FormValue("interval")
	if raw == "" {
		return s.defaultInterval, nil
	}
	return capture.ParseInterval(raw)
}

func (s *Server) startCapture(w http.ResponseWriter, r *http.Request) {
	ms, err := s.interval(r)
	if err == nil {
		err = s.dash.StartCapture(ms)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.getCapture(w, r)
}

func (s *Server) stopCapture(w http.ResponseWriter, r *http.Request) {
	s.dash.StopCapture()
	s.getCapture(w, r)
}

// toggleCapture stops a running capture without looking at the interval.
func (s *Server) toggleCapture(w http.ResponseWriter, r *http.Request) {
	if s.dash.CaptureStatus().State == capture.Capturing.String() {
		s.dash.StopCapture()
		s.getCapture(w, r)
		return
	}
	ms, err := s.interval(r)
	if err == nil {
		_, err = s.dash.ToggleCapture(ms)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.getCapture(w, r)
}

func (s *Server) resetCapture(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.ResetCapture(); err != nil {
		writeError(w, err)
		return
	}
	s.getCapture(w, r)
}

func (s *Server) exportCSV(w http.ResponseWriter, _ *http.Request) {
	b, err := s.dash.ExportCSV()
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttachment(w, "text/csv", s.filename, b)
}

func (s *Server) exportEDF(w http.ResponseWriter, _ *http.Request) {
	b, err := s.dash.ExportEDF()
	if err != nil {
		writeError(w, err)
		return
	}
	name := strings.TrimSuffix(s.filename, path.Ext(s.filename)) + ".edf"
	writeAttachment(w, "application/octet-stream", name, b)
}

func writeAttachment(w http.ResponseWriter, contentType, name string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(b)
}

func (s *Server) getColors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"colors":  s.dash.Colors(),
		"presets": render.Presets,
	})
}

func (s *Server) setColor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body: " + err.Error()})
		return
	}
	if err := s.dash.SetColor(mux.Vars(r)["signal"], body.Color); err != nil {
		writeError(w, err)
		return
	}
	s.getColors(w, r)
}

func (s *Server) getTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"theme": s.dash.Theme()})
}

func (s *Server) setTheme(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.SetTheme(mux.Vars(r)["name"]); err != nil {
		writeError(w, err)
		return
	}
	s.getTheme(w, r)
}

func toPushFrame(smp *domain.Sample) pushFrame {
	return pushFrame{HR: smp.HeartRate, SpO2: smp.SpO2, Temperature: smp.Temperature, ECG: smp.ECG}
}
