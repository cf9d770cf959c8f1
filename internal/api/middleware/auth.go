package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inventory-system/backoffice-api/internal/api/metrics"
	"github.com/inventory-system/backoffice-api/internal/core/domain"
	"github.com/inventory-system/backoffice-api/internal/core/ports"
)

const claimsKey = "auth.claims"

// TokenSource extracts the raw session token from a request.
type TokenSource interface {
	Token(c echo.Context) (string, bool)
}

// Auth is the access guard: it verifies the session token and injects the
// claims into the context. Missing, invalid, expired and revoked tokens all
// fail with the same domain.ErrUnauthorized.
//
// revocations may be nil. A denylist outage lets verified tokens through.
func Auth(tokens TokenSource, verifier ports.TokenVerifier, revocations ports.RevocationStore, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := tokens.Token(c)
			if !ok {
				return reject(metrics.ReasonMissing)
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				return reject(metrics.ReasonInvalid)
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(c.Request().Context(), claims.TokenID)
				switch {
				case err != nil:
					log.Warn().Err(err).
						Str("user_id", claims.UserID).
						Msg("denylist unavailable, accepting token")
				case revoked:
					return reject(metrics.ReasonRevoked)
				}
			}

			SetClaims(c, claims)
			return next(c)
		}
	}
}

func reject(reason string) error {
	metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
	return domain.ErrUnauthorized
}

// SetClaims stores verified claims on the request context.
func SetClaims(c echo.Context, claims domain.Claims) {
	c.Set(claimsKey, claims)
}

// ClaimsFrom returns the claims injected by Auth.
func ClaimsFrom(c echo.Context) (domain.Claims, bool) {
	claims, ok := c.Get(claimsKey).(domain.Claims)
	return claims, ok && claims.UserID != ""
}
