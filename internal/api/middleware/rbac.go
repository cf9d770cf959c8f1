package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

// RequireRole admits only callers whose token carries one of the roles.
// It must run after Auth; without claims the request is unauthorized.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return domain.ErrUnauthorized
			}
			if _, ok := allowed[claims.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
