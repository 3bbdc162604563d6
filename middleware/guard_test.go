package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authcore"
)

func newTestEngine(t *testing.T) *authcore.Engine {
	t.Helper()

	cfg := authcore.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Session.ReapInterval = 0

	engine, err := authcore.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func loginToken(t *testing.T, engine *authcore.Engine) (string, string) {
	t.Helper()

	ctx := context.Background()
	user, err := engine.Register(ctx, "alice", "Str0ngP@ss")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	sess, err := engine.Login(ctx, "alice", "Str0ngP@ss")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return sess.Token, user.ID
}

func TestGuardAdmitsActiveToken(t *testing.T) {
	engine := newTestEngine(t)
	token, userID := loginToken(t, engine)

	var seen *authcore.Session
	h := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if seen == nil || seen.UserID != userID || seen.Token != token {
		t.Fatalf("expected session in context, got %+v", seen)
	}
}

func TestGuardRejects(t *testing.T) {
	engine := newTestEngine(t)
	token, _ := loginToken(t, engine)
	if err := engine.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer " + token, "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		Guard(engine)(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestGuardNilEngine(t *testing.T) {
	rec := httptest.NewRecorder()
	Guard(nil)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGuardWithErrorHandler(t *testing.T) {
	engine := newTestEngine(t)

	var got error
	h := GuardWithErrorHandler(engine, func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	})(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot || !errors.Is(got, authcore.ErrInvalidToken) {
		t.Fatalf("expected custom handler with ErrInvalidToken, got %d %v", rec.Code, got)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer abc":   "abc",
		"Bearer  abc ": "abc",
	}
	for header, want := range cases {
		got, ok := bearerToken(header)
		if !ok || got != want {
			t.Fatalf("bearerToken(%q) = %q, %v", header, got, ok)
		}
	}
	for _, header := range []string{"", "Bearer", "Token abc", "Bearer    "} {
		if _, ok := bearerToken(header); ok {
			t.Fatalf("bearerToken(%q) should fail", header)
		}
	}
}
