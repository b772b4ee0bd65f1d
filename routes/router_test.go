package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cppla/focusstreak/config"
	"github.com/cppla/focusstreak/store"
	"github.com/cppla/focusstreak/streak"
)

func testConfig(t *testing.T) config.AppConfig {
	return config.AppConfig{
		GinMode:            "test",
		GinPath:            filepath.Join(t.TempDir(), "gin.log"),
		LogLevel:           "info",
		RateLimitPerMinute: 600,
		AllowedOrigins:     []string{"https://focus.example"},
		DefaultGoal:        90,
	}
}

func TestSetupRouter_Routes(t *testing.T) {
	r := SetupRouter(testConfig(t), store.NewMemoryStore(90), streak.SystemClock{})

	cases := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/config", http.StatusOK},
		{http.MethodGet, "/api/streak", http.StatusBadRequest},
		{http.MethodGet, "/api/streak?userId=x", http.StatusNotFound},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.code {
			t.Fatalf("%s %s: got=%d want=%d", tc.method, tc.path, rec.Code, tc.code)
		}
	}
}

func TestSetupRouter_CORS(t *testing.T) {
	r := SetupRouter(testConfig(t), store.NewMemoryStore(90), streak.SystemClock{})

	req := httptest.NewRequest(http.MethodOptions, "/api/streak", nil)
	req.Header.Set("Origin", "https://focus.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://focus.example" {
		t.Fatalf("unexpected allow-origin header: got=%q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/streak", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin for foreign origin: %q", got)
	}
}

func TestSetupRouter_WritesAccessLog(t *testing.T) {
	cfg := testConfig(t)
	r := SetupRouter(cfg, store.NewMemoryStore(90), streak.SystemClock{})

	req := httptest.NewRequest(http.MethodGet, "/api/streak?userId=x", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	b, err := os.ReadFile(cfg.GinPath)
	if err != nil {
		t.Fatalf("read access log: %v", err)
	}
	if !strings.Contains(string(b), `"path":"/api/streak"`) || !strings.Contains(string(b), `"status":404`) {
		t.Fatalf("access log missing request line: %s", b)
	}
}
