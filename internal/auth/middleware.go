package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/streavmin/streavmin/internal/users"
)

const claimsContextKey = "claims"

// RequireAuth rejects requests without a valid bearer token and stores the
// claims on the echo context.
func (s *Service) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := s.ParseToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// RequireAdmin rejects authenticated requests from non-admin accounts.
// Must run after RequireAuth.
func (s *Service) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			if claims.Role != users.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims stored by RequireAuth, or nil.
func ClaimsFromContext(c echo.Context) *Claims {
	claims, _ := c.Get(claimsContextKey).(*Claims)
	return claims
}

// ActorFromContext returns the authenticated username for audit
// attribution, or the empty string.
func ActorFromContext(c echo.Context) string {
	if claims := ClaimsFromContext(c); claims != nil {
		return claims.Username
	}
	return ""
}
