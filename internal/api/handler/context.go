package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/inventory-system/backoffice-api/internal/api/middleware"
	"github.com/inventory-system/backoffice-api/internal/core/domain"
	"github.com/inventory-system/backoffice-api/internal/core/ports"
)

// ctxClaims returns the claims injected by the access guard. Their absence
// means the route was mounted without the guard; treat it as unauthenticated.
func ctxClaims(c echo.Context) (domain.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return domain.Claims{}, domain.ErrUnauthorized
	}
	return claims, nil
}

func requestMeta(c echo.Context) ports.RequestMeta {
	return ports.RequestMeta{
		RemoteAddr: c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	}
}

// response is the envelope every endpoint answers with.
type response struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	User    *domain.UserView `json:"user,omitempty"`
}
