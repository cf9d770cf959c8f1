package ports

import (
	"context"
	"time"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

// UserRepository is the Credential Store. Uniqueness of email and username is
// enforced by the store itself; Create reports a violation as domain.ErrDuplicateIdentity.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// LocationRepository resolves the weak active_location_id reference.
type LocationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Location, error)
}
