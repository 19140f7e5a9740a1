package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/yegors/wxdash/internal/config"
	"github.com/yegors/wxdash/internal/dashboard"
	"github.com/yegors/wxdash/internal/view"
	"github.com/yegors/wxdash/internal/weather"
	"github.com/yegors/wxdash/internal/websocket"
	"github.com/yegors/wxdash/pkg/logger"
)

type fakeSearchLog struct {
	records   []*dashboard.SearchRecord
	lastLimit int
}

func (f *fakeSearchLog) RecentSearches(ctx context.Context, limit int) ([]*dashboard.SearchRecord, error) {
	f.lastLimit = limit
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeSearchLog) OutcomeCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, r := range f.records {
		counts[r.Outcome]++
	}
	return counts, nil
}

type testServer struct {
	handler    http.Handler
	dashboards *dashboard.WebSocketHandler
}

func newTestServer(t *testing.T, searches SearchLog) *testServer {
	t.Helper()
	log := logger.NewNop()

	cfg := config.Default()
	cfg.Server.StaticFilesDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(cfg.Server.StaticFilesDir, "dashboard.js"), []byte("// js"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(cfg.Server.StaticFilesDir, "img"), 0o755); err != nil {
		t.Fatal(err)
	}

	wcfg := weather.DefaultConfig()
	weatherService := weather.NewServiceWithProvider(wcfg, weather.NewMockProvider(0, 0), log)
	views := view.NewService(log)

	wsServer := websocket.NewServer(log)
	dashboards := dashboard.NewWebSocketHandler(weatherService, nil, views, log)
	wsServer.SetMessageHandler(dashboards)
	go wsServer.Run()

	t.Cleanup(func() {
		dashboards.Shutdown()
		wsServer.Stop()
	})

	handler := NewHandler(weatherService, searches, views, dashboards, wsServer, cfg, log)
	router := NewRouter(handler, wsServer, cfg.Server.StaticFilesDir, log)

	return &testServer{handler: router.Routes(), dashboards: dashboards}
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestShell(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`data-ws-path="/ws"`, "skeleton-large", "/static/dashboard.css"} {
		if !strings.Contains(body, want) {
			t.Errorf("shell missing %q", want)
		}
	}
}

func TestHealthAndConfig(t *testing.T) {
	srv := newTestServer(t, &fakeSearchLog{})

	t.Run("health", func(t *testing.T) {
		rec := srv.get(t, "/api/health")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body map[string]any
		decode(t, rec, &body)
		if body["status"] != "ok" {
			t.Errorf("status = %v", body["status"])
		}
		if _, ok := body["weather"].(map[string]any); !ok {
			t.Errorf("weather stats missing: %v", body)
		}
	})

	t.Run("config", func(t *testing.T) {
		rec := srv.get(t, "/api/config")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Dashboard struct {
				ActivationKey  string `json:"activation_key"`
				MaxQueryLength int    `json:"max_query_length"`
			} `json:"dashboard"`
		}
		decode(t, rec, &body)
		if body.Dashboard.ActivationKey != "Enter" || body.Dashboard.MaxQueryLength != 100 {
			t.Errorf("unexpected dashboard config %+v", body.Dashboard)
		}
	})
}

func TestGetWeather(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name         string
		target       string
		wantStatus   int
		wantLocation string
	}{
		{"default location", "/api/weather", http.StatusOK, "San Francisco, CA"},
		{"searched location", "/api/weather?location=Tokyo", http.StatusOK, "Tokyo"},
		{"trimmed location", "/api/weather?location=%20%20Oslo%20", http.StatusOK, "Oslo"},
		{"too long", "/api/weather?location=" + strings.Repeat("a", 101), http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.get(t, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantLocation == "" {
				return
			}
			var snapshot weather.Snapshot
			decode(t, rec, &snapshot)
			if snapshot.Location != tt.wantLocation || snapshot.Temperature != 22 {
				t.Errorf("got %q at %d°, want %q at 22°", snapshot.Location, snapshot.Temperature, tt.wantLocation)
			}
		})
	}
}

func TestGetSearches(t *testing.T) {
	t.Run("no search log", func(t *testing.T) {
		srv := newTestServer(t, nil)
		if rec := srv.get(t, "/api/searches"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	log := &fakeSearchLog{records: []*dashboard.SearchRecord{
		{ID: 2, Query: "Tokyo", Outcome: dashboard.OutcomeResolved},
		{ID: 1, Query: "", Kind: dashboard.KindInitial, Outcome: dashboard.OutcomeSuperseded},
	}}
	srv := newTestServer(t, log)

	t.Run("default limit", func(t *testing.T) {
		rec := srv.get(t, "/api/searches")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Count    int                       `json:"count"`
			Searches []*dashboard.SearchRecord `json:"searches"`
		}
		decode(t, rec, &body)
		if body.Count != 2 || body.Searches[0].Query != "Tokyo" {
			t.Errorf("unexpected body %+v", body)
		}
		if log.lastLimit != 50 {
			t.Errorf("limit = %d, want configured default 50", log.lastLimit)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		rec := srv.get(t, "/api/searches?limit=1")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if log.lastLimit != 1 {
			t.Errorf("limit = %d, want 1", log.lastLimit)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		for _, target := range []string{"/api/searches?limit=abc", "/api/searches?limit=0"} {
			if rec := srv.get(t, target); rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", target, rec.Code)
			}
		}
	})
}

func TestStaticFiles(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		target string
		want   int
	}{
		{"/static/dashboard.js", http.StatusOK},
		{"/static/missing.css", http.StatusNotFound},
		{"/static/img", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if rec := srv.get(t, tt.target); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func readView(t *testing.T, conn *gws.Conn) (phase, html string) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	if msg.Type != websocket.MessageTypeDashboardView {
		t.Fatalf("message type = %q, want %q", msg.Type, websocket.MessageTypeDashboardView)
	}
	phase, _ = msg.Data["phase"].(string)
	html, _ = msg.Data["html"].(string)
	return phase, html
}

func TestDashboardOverWebSocket(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + WSPath
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	phase, html := readView(t, conn)
	if phase != "loading" || !strings.Contains(html, "skeleton") {
		t.Fatalf("first view = %s, want loading skeleton", phase)
	}

	phase, html = readView(t, conn)
	if phase != "ready" || !strings.Contains(html, "San Francisco, CA") {
		t.Fatalf("second view = %s, want ready default snapshot", phase)
	}

	// Whitespace-only submissions change nothing, so the next view is for Tokyo
	if err := conn.WriteJSON(websocket.Message{Type: websocket.MessageTypeSearchSubmit, Data: map[string]any{"query": "   "}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(websocket.Message{Type: websocket.MessageTypeQueryChanged, Data: map[string]any{"query": "Tokyo"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(websocket.Message{Type: websocket.MessageTypeKeyPress, Data: map[string]any{"key": "Enter"}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	phase, _ = readView(t, conn)
	if phase != "loading" {
		t.Fatalf("view after search = %s, want loading", phase)
	}
	phase, html = readView(t, conn)
	if phase != "ready" || !strings.Contains(html, "Tokyo") {
		t.Fatalf("view after resolution = %s, want ready Tokyo", phase)
	}

	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for srv.dashboards.ActiveSessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("dashboard session was not disposed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
