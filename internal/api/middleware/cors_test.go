package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(origins []string, development bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins, development))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func preflight(r *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_AllowedOrigin(t *testing.T) {
	r := corsRouter([]string{"https://app.example.com"}, false)

	w := preflight(r, "https://app.example.com")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected the origin to be allowed, got %q", got)
	}
}

func TestCORS_UnknownOriginRejected(t *testing.T) {
	r := corsRouter([]string{"https://app.example.com"}, false)

	w := preflight(r, "https://evil.example.com")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unknown origin must not be allowed, got %q", got)
	}
}

func TestCORS_DevelopmentAllowsLoopback(t *testing.T) {
	r := corsRouter(nil, true)

	for _, origin := range []string{"http://localhost:5173", "http://127.0.0.1:3000"} {
		w := preflight(r, origin)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Fatalf("development mode must allow %q, got %q", origin, got)
		}
	}
}

func TestCORS_ProductionRejectsLoopback(t *testing.T) {
	r := corsRouter([]string{"https://app.example.com"}, false)

	w := preflight(r, "http://localhost:5173")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("production must not allow loopback origins, got %q", got)
	}
}

func TestIsLoopbackOrigin(t *testing.T) {
	cases := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://127.0.0.1", true},
		{"http://[::1]:8080", true},
		{"https://example.com", false},
		{"http://localhost.evil.com", false},
	}
	for _, tc := range cases {
		if got := isLoopbackOrigin(tc.origin); got != tc.want {
			t.Errorf("isLoopbackOrigin(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}
