package dashboard

import (
	"fmt"
	"sync"

	"github.com/yegors/wxdash/internal/weather"
	"github.com/yegors/wxdash/internal/websocket"
	"github.com/yegors/wxdash/pkg/logger"
)

// Renderer turns a dashboard state into an HTML fragment
type Renderer interface {
	RenderDashboard(state State) (string, error)
}

// WebSocketHandler runs one dashboard session per websocket client
type WebSocketHandler struct {
	provider weather.Provider
	recorder Recorder
	renderer Renderer
	logger   *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewWebSocketHandler creates a new WebSocket message handler
func NewWebSocketHandler(provider weather.Provider, recorder Recorder, renderer Renderer, logger *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		provider: provider,
		recorder: recorder,
		renderer: renderer,
		logger:   logger.Named("dashboard-ws-handler"),
		sessions: make(map[string]*Session),
	}
}

// OnConnect mounts a new dashboard for the client
func (h *WebSocketHandler) OnConnect(client *websocket.Client) {
	session := NewSession(client.ID(), h.provider, h.recorder, func(state State) {
		h.sendView(client, state)
	}, h.logger)

	h.mu.Lock()
	h.sessions[client.ID()] = session
	count := len(h.sessions)
	h.mu.Unlock()

	h.logger.Info("Dashboard mounted",
		logger.String("session_id", client.ID()),
		logger.Int("active_sessions", count))

	// Show the skeleton right away, the session only reports changes
	h.sendView(client, session.State())
	session.Start()
}

// OnDisconnect disposes the client's dashboard
func (h *WebSocketHandler) OnDisconnect(client *websocket.Client) {
	h.mu.Lock()
	session, ok := h.sessions[client.ID()]
	delete(h.sessions, client.ID())
	count := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return
	}
	session.Dispose()

	h.logger.Info("Dashboard disposed",
		logger.String("session_id", client.ID()),
		logger.Int("active_sessions", count))
}

// HandleMessage handles incoming WebSocket messages
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	h.mu.Lock()
	session, ok := h.sessions[client.ID()]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("no dashboard session for client %s", client.ID())
	}

	var ev Event
	switch messageType {
	case websocket.MessageTypeQueryChanged:
		ev = QueryChanged{Query: stringField(data, "query")}
	case websocket.MessageTypeSearchSubmit:
		ev = Submit{Query: stringField(data, "query")}
	case websocket.MessageTypeKeyPress:
		ev = KeyPress{Key: stringField(data, "key")}
	default:
		h.logger.Debug("Unhandled message type", logger.String("type", messageType))
		return nil
	}

	session.Dispatch(ev)
	return nil
}

// ActiveSessions returns the number of mounted dashboards
func (h *WebSocketHandler) ActiveSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown disposes every session
func (h *WebSocketHandler) Shutdown() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for id, session := range h.sessions {
		sessions = append(sessions, session)
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	for _, session := range sessions {
		session.Dispose()
	}
	h.logger.Info("All dashboard sessions disposed", logger.Int("count", len(sessions)))
}

// sendView renders state and sends it to the client
func (h *WebSocketHandler) sendView(client *websocket.Client, state State) {
	html, err := h.renderer.RenderDashboard(state)
	if err != nil {
		h.logger.Error("Failed to render dashboard",
			logger.Error(err),
			logger.String("session_id", client.ID()))
		return
	}

	message := &websocket.Message{
		Type: websocket.MessageTypeDashboardView,
		Data: map[string]any{
			"phase": string(state.Phase),
			"html":  html,
			"seq":   state.Seq,
		},
	}

	if !client.SendMessage(message) {
		h.logger.Debug("Dropped dashboard view, client gone or slow",
			logger.String("session_id", client.ID()))
	}
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
