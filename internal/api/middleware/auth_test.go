package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"notehive/internal/model"
	"notehive/internal/pkg/token"
	"notehive/internal/store"
)

type mockUserResolver struct {
	byIDFunc func(ctx context.Context, id uint) (*model.User, error)
	calls    int
}

func (m *mockUserResolver) ByID(ctx context.Context, id uint) (*model.User, error) {
	m.calls++
	return m.byIDFunc(ctx, id)
}

func newGuardedRouter(t *testing.T, tokens *token.Manager, users UserResolver) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(nil, false))
	r.GET("/private", RequireAuth(tokens, users), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			t.Fatalf("guard passed without setting the user")
		}
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	return r
}

func newTokenManager(t *testing.T, secret string) *token.Manager {
	t.Helper()
	m, err := token.NewManager(token.Config{Secret: secret})
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return m
}

func get(r *gin.Engine, path string, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", "abc.def.ghi"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
	}
	for _, tc := range cases {
		if got := BearerToken(tc.header); got != tc.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := newTokenManager(t, "secret")
	users := &mockUserResolver{byIDFunc: func(ctx context.Context, id uint) (*model.User, error) {
		if id != 42 {
			t.Fatalf("expected lookup for user 42, got %d", id)
		}
		return &model.User{ID: 42, Email: "jane@example.com"}, nil
	}}
	r := newGuardedRouter(t, tokens, users)

	signed, err := tokens.Create("42", 0)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	w := get(r, "/private", "Bearer "+signed)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "jane@example.com") {
		t.Fatalf("expected the resolved user in the response: %s", w.Body.String())
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	tokens := newTokenManager(t, "secret")
	users := &mockUserResolver{byIDFunc: func(ctx context.Context, id uint) (*model.User, error) {
		return nil, store.ErrNotFound
	}}
	r := newGuardedRouter(t, tokens, users)

	for _, authorization := range []string{"", "Basic Zm9v", "Bearer"} {
		w := get(r, "/private", authorization)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", authorization, w.Code)
		}
		if !strings.Contains(w.Body.String(), "You are not logged in. Please log in to access this route.") {
			t.Fatalf("header %q: unexpected body %s", authorization, w.Body.String())
		}
	}
	if users.calls != 0 {
		t.Fatalf("user store must not be queried without a token")
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	tokens := newTokenManager(t, "secret")
	users := &mockUserResolver{byIDFunc: func(ctx context.Context, id uint) (*model.User, error) {
		return &model.User{ID: 1}, nil
	}}
	r := newGuardedRouter(t, tokens, users)

	signed, err := tokens.Create("1", time.Millisecond)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	w := get(r, "/private", "Bearer "+signed)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Expired token, please login again..") {
		t.Fatalf("expected the fixed expired-token message: %s", w.Body.String())
	}
}

func TestRequireAuth_TamperedToken(t *testing.T) {
	tokens := newTokenManager(t, "secret")
	other := newTokenManager(t, "other-secret")
	users := &mockUserResolver{byIDFunc: func(ctx context.Context, id uint) (*model.User, error) {
		return &model.User{ID: 1}, nil
	}}
	r := newGuardedRouter(t, tokens, users)

	signed, err := other.Create("1", 0)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	w := get(r, "/private", "Bearer "+signed)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Invalid token, please login again..") {
		t.Fatalf("expected the fixed invalid-token message: %s", w.Body.String())
	}
	if users.calls != 0 {
		t.Fatalf("user store must not be queried for tampered tokens")
	}
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	tokens := newTokenManager(t, "secret")
	users := &mockUserResolver{byIDFunc: func(ctx context.Context, id uint) (*model.User, error) {
		return nil, store.ErrNotFound
	}}
	r := newGuardedRouter(t, tokens, users)

	signed, err := tokens.Create("7", 0)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	w := get(r, "/private", "Bearer "+signed)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "The user that belongs to this token no longer exists.") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRequireAuth_NonNumericSubject(t *testing.T) {
	tokens := newTokenManager(t, "secret")
	users := &mockUserResolver{byIDFunc: func(ctx context.Context, id uint) (*model.User, error) {
		return &model.User{ID: 1}, nil
	}}
	r := newGuardedRouter(t, tokens, users)

	signed, err := tokens.Create("not-a-number", 0)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	w := get(r, "/private", "Bearer "+signed)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Invalid token, please login again..") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if users.calls != 0 {
		t.Fatalf("user store must not be queried for unparseable subjects")
	}
}
