package ports

import (
	"context"
	"time"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

// PasswordHasher is a one-way salted hash with constant-time comparison.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID string, role domain.Role) (domain.IssuedToken, error)
}

// TokenVerifier validates a token. Any failure is domain.ErrUnauthorized.
type TokenVerifier interface {
	Verify(token string) (domain.Claims, error)
}

// RevocationStore is the server-side token denylist.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuditRecorder accepts auth events without blocking the caller.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

// AuditRepository persists auth events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}
