package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/webster-hq/webster/internal/core/domain"
)

type stubVerifier struct {
	authenticateFn func(ctx context.Context, token string) (domain.Principal, error)
}

func (s *stubVerifier) Verify(ctx context.Context, token string, kind domain.PrincipalKind) (bool, error) {
	p, err := s.authenticateFn(ctx, token)
	return err == nil && p.Kind == kind, nil
}

func (s *stubVerifier) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	return s.authenticateFn(ctx, token)
}

func run(t *testing.T, mw echo.MiddlewareFunc, authorization string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := mw(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func unreachable(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	verifier := &stubVerifier{authenticateFn: func(_ context.Context, token string) (domain.Principal, error) {
		if token != "tok123" {
			t.Fatalf("unexpected token %q", token)
		}
		return domain.Principal{Kind: domain.PrincipalMember, Email: "alice@example.com"}, nil
	}}

	called := false
	rec := run(t, Auth(verifier), "Bearer tok123", func(c echo.Context) error {
		called = true
		p, ok := Principal(c)
		if !ok || p.Email != "alice@example.com" || p.Kind != domain.PrincipalMember {
			t.Fatalf("principal not set: %+v", p)
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	verifier := &stubVerifier{authenticateFn: func(context.Context, string) (domain.Principal, error) {
		t.Fatalf("verifier should not be called")
		return domain.Principal{}, nil
	}}
	if rec := run(t, Auth(verifier), "", unreachable(t)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	verifier := &stubVerifier{authenticateFn: func(context.Context, string) (domain.Principal, error) {
		t.Fatalf("verifier should not be called")
		return domain.Principal{}, nil
	}}
	for _, h := range []string{"Token abc", "Bearer", "Bearer   "} {
		if rec := run(t, Auth(verifier), h, unreachable(t)); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", h, rec.Code)
		}
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	verifier := &stubVerifier{authenticateFn: func(context.Context, string) (domain.Principal, error) {
		return domain.Principal{}, domain.ErrInvalidToken
	}}
	if rec := run(t, Auth(verifier), "Bearer expired", unreachable(t)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_StorageFailure(t *testing.T) {
	verifier := &stubVerifier{authenticateFn: func(context.Context, string) (domain.Principal, error) {
		return domain.Principal{}, errors.New("connection refused")
	}}
	if rec := run(t, Auth(verifier), "Bearer tok", unreachable(t)); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
