package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inventory-system/backoffice-api/internal/api/session"
	"github.com/inventory-system/backoffice-api/internal/core/domain"
	"github.com/inventory-system/backoffice-api/internal/core/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevocations) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	s.revoked[tokenID] = true
	return nil
}

func (s *stubRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return s.revoked[tokenID], s.err
}

func issue(t *testing.T, tokens *service.TokenManager, role domain.Role) domain.IssuedToken {
	t.Helper()
	tok, err := tokens.Issue("user-1", role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func newTokens(t *testing.T, secret string, opts ...service.TokenOption) *service.TokenManager {
	t.Helper()
	tokens, err := service.NewTokenManager(secret, time.Hour, opts...)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return tokens
}

func run(t *testing.T, mw echo.MiddlewareFunc, cookie string) (bool, domain.Claims, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: cookie})
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var (
		called bool
		claims domain.Claims
	)
	err := mw(func(c echo.Context) error {
		called = true
		claims, _ = ClaimsFrom(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return called, claims, err
}

func TestAuth_ValidCookie(t *testing.T) {
	tokens := newTokens(t, testSecret)
	tok := issue(t, tokens, domain.RoleManager)

	called, claims, err := run(t, Auth(session.New(session.Config{}), tokens, nil, zerolog.Nop()), tok.Value)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if claims.UserID != "user-1" || claims.Role != domain.RoleManager || claims.TokenID != tok.TokenID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuth_RejectsUniformly(t *testing.T) {
	tokens := newTokens(t, testSecret)
	foreign := issue(t, newTokens(t, "ffffffffffffffffffffffffffffffff"), domain.RoleAdmin)

	now := time.Now()
	stale := newTokens(t, testSecret, service.WithClock(func() time.Time { return now.Add(-2 * time.Hour) }))
	expired := issue(t, stale, domain.RoleStaff)

	cases := map[string]string{
		"missing":        "",
		"garbage":        "not-a-token",
		"foreign secret": foreign.Value,
		"expired":        expired.Value,
	}
	for name, cookie := range cases {
		t.Run(name, func(t *testing.T) {
			called, _, err := run(t, Auth(session.New(session.Config{}), tokens, nil, zerolog.Nop()), cookie)
			if called {
				t.Fatalf("next must not run")
			}
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestAuth_RevokedToken(t *testing.T) {
	tokens := newTokens(t, testSecret)
	tok := issue(t, tokens, domain.RoleStaff)
	revocations := &stubRevocations{revoked: map[string]bool{tok.TokenID: true}}

	called, _, err := run(t, Auth(session.New(session.Config{}), tokens, revocations, zerolog.Nop()), tok.Value)
	if called || !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected revoked token to be rejected, called=%v err=%v", called, err)
	}
}

func TestAuth_DenylistOutageFailsOpen(t *testing.T) {
	tokens := newTokens(t, testSecret)
	tok := issue(t, tokens, domain.RoleStaff)
	revocations := &stubRevocations{revoked: map[string]bool{}, err: errors.New("connection refused")}

	called, _, err := run(t, Auth(session.New(session.Config{}), tokens, revocations, zerolog.Nop()), tok.Value)
	if err != nil || !called {
		t.Fatalf("expected request to pass, called=%v err=%v", called, err)
	}
}
