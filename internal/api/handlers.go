package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/yegors/wxdash/internal/config"
	"github.com/yegors/wxdash/internal/dashboard"
	"github.com/yegors/wxdash/internal/view"
	"github.com/yegors/wxdash/internal/weather"
	"github.com/yegors/wxdash/internal/websocket"
	"github.com/yegors/wxdash/pkg/logger"
)

// SearchLog is the read side of the search log
type SearchLog interface {
	RecentSearches(ctx context.Context, limit int) ([]*dashboard.SearchRecord, error)
	OutcomeCounts(ctx context.Context) (map[string]int, error)
}

// WSPath is where the dashboard websocket is mounted
const WSPath = "/ws"

// Handler contains the API handlers
type Handler struct {
	weatherService *weather.Service
	searches       SearchLog
	views          *view.Service
	dashboards     *dashboard.WebSocketHandler
	wsServer       *websocket.Server
	config         *config.Config
	logger         *logger.Logger
	startedAt      time.Time
}

// NewHandler creates a new API handler. searches may be nil when the search log is unavailable.
func NewHandler(weatherService *weather.Service, searches SearchLog, views *view.Service, dashboards *dashboard.WebSocketHandler, wsServer *websocket.Server, config *config.Config, logger *logger.Logger) *Handler {
	return &Handler{
		weatherService: weatherService,
		searches:       searches,
		views:          views,
		dashboards:     dashboards,
		wsServer:       wsServer,
		config:         config,
		logger:         logger.Named("api-handler"),
		startedAt:      time.Now(),
	}
}

// GetShell serves the page hosting the dashboard
func (h *Handler) GetShell(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.RenderShell(w, WSPath, dashboard.Initial()); err != nil {
		h.logger.Error("Failed to render shell", logger.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":            "ok",
		"uptime_seconds":    int64(time.Since(h.startedAt).Seconds()),
		"websocket_clients": h.wsServer.ClientCount(),
		"active_dashboards": h.dashboards.ActiveSessions(),
		"weather":           h.weatherService.GetStats(),
	}

	if h.searches != nil {
		counts, err := h.searches.OutcomeCounts(r.Context())
		if err != nil {
			h.logger.Warn("Failed to read search outcome counts", logger.Error(err))
			response["status"] = "degraded"
		} else {
			response["searches"] = counts
		}
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetConfig returns the public configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	publicConfig := map[string]any{
		"dashboard": map[string]any{
			"mount_delay_ms":   h.config.Dashboard.MountDelayMs,
			"search_delay_ms":  h.config.Dashboard.SearchDelayMs,
			"max_query_length": h.config.Dashboard.MaxQueryLength,
			"activation_key":   dashboard.ActivationKey,
			"websocket_path":   WSPath,
		},
		"provider": map[string]any{
			"name":                h.weatherService.Name(),
			"requests_per_second": h.config.Provider.RequestsPerSecond,
			"burst":               h.config.Provider.Burst,
			"request_timeout":     h.config.Provider.RequestTimeoutSec,
		},
		"storage": map[string]any{
			"max_searches_in_api": h.config.Storage.MaxSearchesAPI,
		},
		"tracing": map[string]any{
			"enabled": h.config.Tracing.Enabled,
		},
	}

	WriteJSON(w, http.StatusOK, publicConfig)
}

// GetWeather looks up one snapshot. An empty location means the default location.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")

	snapshot, err := h.weatherService.Current(r.Context(), location)
	if err != nil {
		switch {
		case errors.Is(err, weather.ErrLocationTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.Canceled):
			// Client went away, nobody reads the response
			h.logger.Debug("Weather lookup canceled by client", logger.String("location", location))
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, "weather lookup timed out")
		default:
			h.logger.Error("Weather lookup failed", logger.Error(err), logger.String("location", location))
			writeError(w, http.StatusBadGateway, "weather lookup failed")
		}
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// GetSearches returns the most recent entries of the search log
func (h *Handler) GetSearches(w http.ResponseWriter, r *http.Request) {
	if h.searches == nil {
		writeError(w, http.StatusServiceUnavailable, "search log not available")
		return
	}

	limit := h.config.Storage.MaxSearchesAPI
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.searches.RecentSearches(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read search log", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read search log")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"searches": records,
		"count":    len(records),
	})
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
