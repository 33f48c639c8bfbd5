package httpserver

import (
	"net/http"
	"time"

	infraconfig "holdings-pricer/internal/infrastructure/config"
	"holdings-pricer/internal/infrastructure/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StreamRefreshState pushes the refresh state over a websocket: the current
// state right away, then every change. Intermediate states may be skipped
// for a slow reader, the latest one is always delivered.
func (s *Server) StreamRefreshState(w http.ResponseWriter, r *http.Request) {
	log := logx.WithFields(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Info("ws.upgrade_failed", zap.Error(err))
		return
	}
	defer conn.Close()

	states, cancel := s.svc.SubscribeRefresh()
	defer cancel()

	// the read side only serves as a close/pong watchdog
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Info("ws.read_error", zap.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	log.Info("ws.connected")
	for {
		select {
		case <-gone:
			log.Info("ws.disconnected")
			return
		case <-s.stop:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(infraconfig.DefaultWSWriteTimeout))
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(infraconfig.DefaultWSWriteTimeout))
			if err := conn.WriteJSON(toRefreshStateResponse(st)); err != nil {
				log.Info("ws.write_failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(infraconfig.DefaultWSWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
