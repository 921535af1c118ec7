package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Oldhoon/accessible-journeys/internal/service"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamBuffer     = 16
)

// StreamHandler pushes a user's emergency session snapshots over a
// WebSocket.
type StreamHandler struct {
	emergency *service.EmergencyService
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewStreamHandler creates a new stream handler. checkOrigin may be nil to
// accept any origin.
func NewStreamHandler(svc *service.EmergencyService, checkOrigin func(*http.Request) bool, logger *slog.Logger) *StreamHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &StreamHandler{
		emergency: svc,
		upgrader:  websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:    logger,
	}
}

// ServeWS handles GET /api/v1/emergency/stream
func (h *StreamHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "emergency stream upgrade failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}

	// Observers run under the session lock, so slow clients drop frames
	// instead of stalling the countdown.
	updates := make(chan service.EmergencyResult, streamBuffer)
	unsubscribe := h.emergency.Subscribe(userID, func(res service.EmergencyResult) {
		select {
		case updates <- res:
		default:
		}
	})

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, updates, done)

	unsubscribe()
	_ = conn.Close()
	h.logger.DebugContext(r.Context(), "emergency stream closed", slog.String("user_id", userID))
}

// readLoop keeps the read deadline fresh and answers text "ping" frames.
// It closes done when the client goes away.
func (h *StreamHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		if mt == websocket.TextMessage && strings.EqualFold(strings.TrimSpace(string(msg)), "ping") {
			// WriteControl is safe alongside the writer goroutine.
			_ = conn.WriteControl(websocket.PongMessage, []byte("pong"), time.Now().Add(streamWriteWait))
		}
	}
}

func (h *StreamHandler) writeLoop(conn *websocket.Conn, updates <-chan service.EmergencyResult, done <-chan struct{}) {
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case res := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(res); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}
