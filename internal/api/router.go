package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yegors/wxdash/internal/websocket"
	"github.com/yegors/wxdash/pkg/logger"
)

// Router wires the HTTP routes of the server
type Router struct {
	handler  *Handler
	static   *StaticFileHandler
	wsServer *websocket.Server
	logger   *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(handler *Handler, wsServer *websocket.Server, staticDir string, logger *logger.Logger) *Router {
	return &Router{
		handler:  handler,
		static:   NewStaticFileHandler(staticDir, logger),
		wsServer: wsServer,
		logger:   logger.Named("router"),
	}
}

// Routes returns the root handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(rt.logger))

	r.Get("/", rt.handler.GetShell)
	r.Handle("/static/*", http.StripPrefix("/static", rt.static))
	r.Get(WSPath, rt.wsServer.HandleConnection)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", rt.handler.GetHealth)
		r.Get("/config", rt.handler.GetConfig)
		r.Get("/weather", rt.handler.GetWeather)
		r.Get("/searches", rt.handler.GetSearches)
	})

	return r
}
