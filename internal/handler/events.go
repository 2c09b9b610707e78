package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/affiliateportal/internal/state"
)

const eventWriteTimeout = 5 * time.Second

// EventsHandler streams committed mutation events over a WebSocket, used by
// the admin dashboard to refresh live. Each connection gets its own
// subscription; a slow client drops events instead of slowing writers.
type EventsHandler struct {
	store          *state.Store
	logger         *slog.Logger
	allowedOrigins []string
}

// NewEventsHandler creates the events handler.
func NewEventsHandler(store *state.Store, logger *slog.Logger, allowedOrigins []string) *EventsHandler {
	return &EventsHandler{store: store, logger: logger, allowedOrigins: allowedOrigins}
}

func (h *EventsHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/events.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	events, cancel := h.store.Subscribe()
	defer cancel()

	// Reader goroutine detects client disconnects; inbound frames are
	// ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := ws.WriteJSON(ev); err != nil {
				h.logger.Debug("event feed write failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}
