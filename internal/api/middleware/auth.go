package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
)

// PrincipalKey is the echo.Context key holding the authenticated domain.Principal.
const PrincipalKey = "principal"

const msgInvalidToken = "Invalid or expired token"

// Auth resolves the bearer token to a principal and injects it into context.
// Missing, unknown and expired tokens are indistinguishable to the client.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
			}

			p, err := verifier.Authenticate(c.Request().Context(), token)
			if errors.Is(err, domain.ErrInvalidToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
			}
			if err != nil {
				return err
			}

			c.Set(PrincipalKey, p)
			return next(c)
		}
	}
}

// Principal returns the principal injected by Auth.
func Principal(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(domain.Principal)
	return p, ok && p.Kind.Valid()
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
