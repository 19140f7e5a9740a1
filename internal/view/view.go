package view

import (
	"io"

	"github.com/yegors/wxdash/internal/dashboard"
	"github.com/yegors/wxdash/pkg/logger"
)

// Template names
const (
	DashboardTemplate = "dashboard.html"
	ShellTemplate     = "shell.html"
)

// DefaultTitle is the page title of the shell
const DefaultTitle = "Weather Dashboard"

// Service renders the dashboard and the page shell
type Service struct {
	engine *Engine
	title  string
	logger *logger.Logger
}

// NewService creates a view service backed by the embedded templates
func NewService(logger *logger.Logger) *Service {
	return NewServiceWithEngine(NewEngine(EmbeddedTemplates(), logger), logger)
}

// NewServiceWithEngine creates a view service backed by engine
func NewServiceWithEngine(engine *Engine, logger *logger.Logger) *Service {
	return &Service{
		engine: engine,
		title:  DefaultTitle,
		logger: logger.Named("view-service"),
	}
}

// RenderDashboard renders the dashboard fragment for state
func (s *Service) RenderDashboard(state dashboard.State) (string, error) {
	return s.engine.Render(DashboardTemplate, FormatDashboardData(state))
}

// RenderShell writes the full page. The dashboard inside it is rendered from
// state so the page is usable before the websocket connects.
func (s *Service) RenderShell(w io.Writer, wsPath string, state dashboard.State) error {
	html, err := s.engine.Render(ShellTemplate, ShellData{
		Title:     s.title,
		WSPath:    wsPath,
		Dashboard: FormatDashboardData(state),
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, html)
	return err
}

// ReloadAllTemplates forces all cached templates to be reloaded
func (s *Service) ReloadAllTemplates() error {
	return s.engine.ReloadAllTemplates()
}

// GetCacheStats returns statistics about the template cache
func (s *Service) GetCacheStats() map[string]any {
	return s.engine.GetCacheStats()
}
