package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nkey/pelarboj/internal/status"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	// The page is served from the device itself; any origin may watch.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream pushes a JSON snapshot on connect and then every interval
// until the client goes away or the server shuts down. Frames carry the same
// document as /index.json.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	remote := r.RemoteAddr
	log.Debug().Str("remote_addr", remote).Msg("Status stream opened")

	gone := make(chan struct{})
	go readPump(conn, gone)

	push := time.NewTicker(s.interval)
	defer push.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := s.writeSnapshot(conn); err != nil {
		return
	}
	for {
		select {
		case <-gone:
			log.Debug().Str("remote_addr", remote).Msg("Status stream closed by client")
			return
		case <-s.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-push.C:
			if err := s.writeSnapshot(conn); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					log.Debug().Err(err).Str("remote_addr", remote).Msg("Status stream write failed")
				}
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, status.FormatJSON(s.tracker.Snapshot()))
}

// readPump discards client frames so control messages are processed, and
// closes gone when the connection drops.
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
