package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridfire-go/internal/api/middleware"
	"github.com/mcoot/gridfire-go/internal/model"
	"github.com/mcoot/gridfire-go/internal/realtime"
	"github.com/mcoot/gridfire-go/internal/services/auth"
)

const sendBufferSize = 64

var (
	errSubscriberClosed = errors.New("subscriber closed")
	errSubscriberSlow   = errors.New("subscriber buffer full")
)

// StreamHandler serves the server-push endpoints
type StreamHandler struct {
	hub         *realtime.Hub
	authService *auth.Service
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(hub *realtime.Hub, authService *auth.Service) *StreamHandler {
	return &StreamHandler{
		hub:         hub,
		authService: authService,
	}
}

// sseSubscriber buffers events between the hub and the HTTP write loop.
// WriteEvent never blocks: a full buffer is a write failure, which makes
// the hub evict this connection rather than stall fan-out.
type sseSubscriber struct {
	send chan model.Event
	done chan struct{}
	once sync.Once
}

func newSSESubscriber() *sseSubscriber {
	return &sseSubscriber{
		send: make(chan model.Event, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (s *sseSubscriber) WriteEvent(event model.Event) error {
	select {
	case <-s.done:
		return errSubscriberClosed
	case s.send <- event:
		return nil
	default:
		return errSubscriberSlow
	}
}

func (s *sseSubscriber) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Events handles GET /api/v1/games/{id}/events
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	seat, err := h.authService.GameSeat(session.Token, gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	sub := newSSESubscriber()
	conn, _, err := h.hub.Subscribe(gameID, seat, session.DisplayName, sub, r.URL.Query().Get("reconnect_token"))
	if err != nil {
		WriteError(w, err)
		return
	}
	// Drop is a no-op if the hub already evicted this connection
	defer h.hub.Drop(conn)

	for {
		select {
		case event := <-sub.send:
			if err := writeSSEEvent(w, event); err != nil {
				return
			}
			flusher.Flush()

		case <-sub.done:
			return

		case <-r.Context().Done():
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	return err
}
