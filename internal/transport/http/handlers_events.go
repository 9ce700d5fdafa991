package httptransport

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"flightsurety/internal/notify"
	"flightsurety/internal/platform/middleware"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

// EventStream hands out live notification subscriptions.
type EventStream interface {
	Subscribe(types ...notify.EventType) *notify.Subscription
	Unsubscribe(sub *notify.Subscription)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WithEventStream serves GET /events, a websocket feed of committed
// notifications.
func WithEventStream(stream EventStream) Option {
	return func(h *Handler) {
		h.events = stream
	}
}

// RegisterEvents registers the notification stream. Streams are long lived,
// so the route sits outside the request timeout.
func (h *Handler) RegisterEvents(r chi.Router) {
	if h.events == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/events", h.handleEvents)
	})
}

// handleEvents streams notifications, optionally filtered by ?types=a,b.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	var types []notify.EventType
	for _, raw := range strings.Split(r.URL.Query().Get("types"), ",") {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		t, err := notify.ParseEventType(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		types = append(types, t)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		return
	}
	defer conn.Close()

	ctx := r.Context()
	sub := h.events.Subscribe(types...)
	defer h.events.Unsubscribe(sub)
	h.logger.InfoContext(ctx, "event stream opened",
		"caller", requestcontext.Caller(ctx),
		"types", types,
		"request_id", requestcontext.RequestID(ctx),
	)

	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case payload, ok := <-sub.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				// The hub dropped a lagging subscriber or is shutting down.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "stream closed, reconnect"))
				h.logger.WarnContext(ctx, "event stream closed by server",
					"caller", requestcontext.Caller(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// readUntilClosed services control frames and reports when the peer leaves.
// The stream is one-way; data frames from the client are discarded.
func readUntilClosed(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
