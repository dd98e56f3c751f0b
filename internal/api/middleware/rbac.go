package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webster-hq/webster/internal/core/domain"
)

// RequireKind admits only principals of the given kinds. It must run after Auth.
func RequireKind(kinds ...domain.PrincipalKind) echo.MiddlewareFunc {
	allowed := make(map[domain.PrincipalKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
			}
			if _, ok := allowed[p.Kind]; !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Admin access required")
			}
			return next(c)
		}
	}
}

// RequireOperator is RequireKind(domain.PrincipalOperator).
func RequireOperator() echo.MiddlewareFunc {
	return RequireKind(domain.PrincipalOperator)
}
