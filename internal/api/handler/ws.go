package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mcoot/gridfire-go/internal/api/middleware"
	"github.com/mcoot/gridfire-go/internal/model"
)

// Time allowed to write a message to the peer
const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Token auth makes origin checks redundant for this API
		return true
	},
}

// wsSubscriber adapts a websocket connection to the hub transport. Writes
// are decoupled from fan-out through a buffered channel pumped by a single
// writer goroutine, as gorilla/websocket allows only one concurrent writer.
type wsSubscriber struct {
	conn *websocket.Conn
	send chan model.Event
	done chan struct{}
	once sync.Once
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{
		conn: conn,
		send: make(chan model.Event, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (s *wsSubscriber) WriteEvent(event model.Event) error {
	select {
	case <-s.done:
		return errSubscriberClosed
	case s.send <- event:
		return nil
	default:
		return errSubscriberSlow
	}
}

func (s *wsSubscriber) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// writePump drains the send buffer onto the socket
func (s *wsSubscriber) writePump() {
	defer func() { _ = s.conn.Close() }()

	for {
		select {
		case event := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteJSON(event); err != nil {
				s.Close()
				return
			}

		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// WS handles GET /api/v1/games/{id}/ws
func (h *StreamHandler) WS(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	seat, err := h.authService.GameSeat(session.Token, gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}

	sub := newWSSubscriber(wsConn)
	go sub.writePump()

	conn, _, err := h.hub.Subscribe(gameID, seat, session.DisplayName, sub, r.URL.Query().Get("reconnect_token"))
	if err != nil {
		sub.Close()
		return
	}
	defer h.hub.Drop(conn)

	// Read loop: incoming frames are discarded, the socket exists for
	// server push only. Liveness comes from the hub's heartbeat events,
	// not from read deadlines, so this blocks until the peer goes away.
	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			return
		}
	}
}
