package api

import (
	"net/http"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
	"github.com/gorilla/websocket"
)

// stream upgrades to a WebSocket and sends one push frame per ingested
// sample until the client goes away.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.obs.LogError("ws_upgrade_failed", err, ports.Field{Key: "remote_addr", Value: r.RemoteAddr})
		return
	}
	defer conn.Close()

	samples, cancel := s.dash.Subscribe()
	defer cancel()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.obs.LogDebug("ws_read_failed", ports.Field{Key: "error", Value: err.Error()})
				}
				return
			}
		}
	}()

	s.obs.LogInfo("ws_client_connected", ports.Field{Key: "remote_addr", Value: r.RemoteAddr})
	for {
		select {
		case <-gone:
			return
		case smp, ok := <-samples:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteJSON(toPushFrame(smp)); err != nil {
				return
			}
		}
	}
}
