package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hiroshandev/media-gallery-api/internal/auth"
	"github.com/hiroshandev/media-gallery-api/internal/config"
	"github.com/hiroshandev/media-gallery-api/internal/model"
)

// =========================================================================
// HELPERS
// =========================================================================

// newTestServer wires a full Server against an in-memory database. The
// router it exposes is the production route table — middleware chains and
// all.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Config{
		Port:          8080,
		Env:           "development",
		DBPath:        ":memory:",
		JWTSecret:     "test-secret-at-least-16-chars!!",
		JWTExpiresIn:  time.Hour,
		SessionSecret: "session-test-secret",
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.db.Close() })
	return s
}

// seedUser inserts a user directly and returns a valid bearer token for it.
func seedUser(t *testing.T, s *Server, u *model.User) string {
	t.Helper()

	if err := s.db.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user %s: %v", u.Email, err)
	}

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret, s.cfg.JWTExpiresIn)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	token, err := tokens.Generate(u.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return token
}

func get(s *Server, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// =========================================================================
// ROUTE GATE TESTS
// =========================================================================

func TestAdminRoute_FullGateChain(t *testing.T) {
	s := newTestServer(t)

	unverifiedAdmin := seedUser(t, s, &model.User{
		Name: "A", Email: "a@x.com", Role: model.RoleAdmin,
		IsActive: true, AuthProvider: model.ProviderLocal,
	})
	verifiedUser := seedUser(t, s, &model.User{
		Name: "B", Email: "b@x.com", Role: model.RoleUser,
		IsActive: true, IsEmailVerified: true, AuthProvider: model.ProviderLocal,
	})
	verifiedAdmin := seedUser(t, s, &model.User{
		Name: "C", Email: "c@x.com", Role: model.RoleAdmin,
		IsActive: true, IsEmailVerified: true, AuthProvider: model.ProviderLocal,
	})

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantInBody string
	}{
		{"no token", "", http.StatusUnauthorized, "No token provided"},
		{"unverified admin", unverifiedAdmin, http.StatusForbidden, "Email verification required"},
		{"verified non-admin", verifiedUser, http.StatusForbidden, "Admin access required"},
		{"verified admin", verifiedAdmin, http.StatusOK, `"count":3`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(s, "/api/admin/users-count", tt.token)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantInBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.wantInBody)
			}
		})
	}
}

func TestMeRoute_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	token := seedUser(t, s, &model.User{
		Name: "Ada", Email: "ada@x.com", Role: model.RoleUser,
		IsActive: true, IsEmailVerified: true, AuthProvider: model.ProviderLocal,
	})

	rec := get(s, "/api/auth/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /me status = %d, want 401", rec.Code)
	}

	rec = get(s, "/api/auth/me", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("/me status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"ada@x.com"`) {
		t.Errorf("body %q does not carry the profile", rec.Body.String())
	}
}
