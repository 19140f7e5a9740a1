package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"

	"github.com/yegors/wxdash/pkg/logger"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// partialsPattern matches the shared template files parsed along with every page
const partialsPattern = "templates/_*.html"

// EmbeddedTemplates returns the templates compiled into the binary
func EmbeddedTemplates() fs.FS {
	return embeddedTemplates
}

// Engine handles template loading, caching, and rendering
type Engine struct {
	fsys          fs.FS
	templateCache map[string]*template.Template
	cacheMutex    sync.RWMutex
	logger        *logger.Logger
}

// NewEngine creates a new template engine reading from fsys.
// Template names are file names below fsys's templates directory.
func NewEngine(fsys fs.FS, logger *logger.Logger) *Engine {
	return &Engine{
		fsys:          fsys,
		templateCache: make(map[string]*template.Template),
		logger:        logger.Named("template-engine"),
	}
}

// Render executes the named template with data
func (e *Engine) Render(name string, data any) (string, error) {
	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", fmt.Errorf("failed to get template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", name, err)
	}

	rendered := buf.String()
	e.logger.Debug("Template rendered successfully",
		logger.String("template", name),
		logger.Int("rendered_length", len(rendered)))

	return rendered, nil
}

// getTemplate retrieves a template from cache or parses it
func (e *Engine) getTemplate(name string) (*template.Template, error) {
	e.cacheMutex.RLock()
	if tmpl, exists := e.templateCache[name]; exists {
		e.cacheMutex.RUnlock()
		return tmpl, nil
	}
	e.cacheMutex.RUnlock()

	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	// Another goroutine may have loaded it while we were waiting
	if tmpl, exists := e.templateCache[name]; exists {
		return tmpl, nil
	}

	tmpl, err := e.loadTemplate(name)
	if err != nil {
		return nil, err
	}

	e.templateCache[name] = tmpl
	e.logger.Debug("Template loaded and cached", logger.String("template", name))

	return tmpl, nil
}

// loadTemplate parses a page template together with the shared partials
func (e *Engine) loadTemplate(name string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(e.fsys, path.Join("templates", name), partialsPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", name, err)
	}
	return tmpl, nil
}

// ReloadTemplate forces a template to be parsed again
func (e *Engine) ReloadTemplate(name string) error {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	tmpl, err := e.loadTemplate(name)
	if err != nil {
		return err
	}

	e.templateCache[name] = tmpl
	e.logger.Info("Template reloaded", logger.String("template", name))

	return nil
}

// ReloadAllTemplates forces all cached templates to be parsed again
func (e *Engine) ReloadAllTemplates() error {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	var errors []string
	reloadedCount := 0

	for name := range e.templateCache {
		tmpl, err := e.loadTemplate(name)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		e.templateCache[name] = tmpl
		reloadedCount++
	}

	if len(errors) > 0 {
		e.logger.Error("Some templates failed to reload",
			logger.Int("successful", reloadedCount),
			logger.Int("failed", len(errors)))
		return fmt.Errorf("failed to reload %d templates: %v", len(errors), errors)
	}

	e.logger.Info("All templates reloaded successfully", logger.Int("count", reloadedCount))

	return nil
}

// ClearCache clears the template cache
func (e *Engine) ClearCache() {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	templateCount := len(e.templateCache)
	e.templateCache = make(map[string]*template.Template)

	e.logger.Info("Template cache cleared", logger.Int("cleared_count", templateCount))
}

// GetCacheStats returns statistics about the template cache
func (e *Engine) GetCacheStats() map[string]any {
	e.cacheMutex.RLock()
	defer e.cacheMutex.RUnlock()

	templates := make([]string, 0, len(e.templateCache))
	for name := range e.templateCache {
		templates = append(templates, name)
	}

	return map[string]any{
		"cached_template_count": len(e.templateCache),
		"cached_templates":      templates,
	}
}
