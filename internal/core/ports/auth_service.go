package ports

import (
	"context"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

// RegisterInput carries the fields accepted by the register operation.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// RequestMeta describes the caller for the audit trail.
type RequestMeta struct {
	RemoteAddr string
	UserAgent  string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token domain.IssuedToken
	User  *domain.UserView
}

// AuthService is the session lifecycle: register, login, logout, current identity.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput, meta RequestMeta) error
	Login(ctx context.Context, email, password string, meta RequestMeta) (*LoginResult, error)
	// Logout revokes token when revocation is enabled. It never fails.
	Logout(ctx context.Context, token string, meta RequestMeta)
	CurrentIdentity(ctx context.Context, claims domain.Claims) (*domain.UserView, error)
	// Identity returns the sanitized view of any user by id.
	Identity(ctx context.Context, id string) (*domain.UserView, error)
}
