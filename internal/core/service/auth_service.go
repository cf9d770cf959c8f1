package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
	"github.com/inventory-system/backoffice-api/internal/core/ports"
)

// timingPassword is hashed once at startup so that a login for an unknown
// email pays the same bcrypt cost as a wrong password.
const timingPassword = "not-a-real-password"

// AuthDeps collects the collaborators of AuthService. Locations, Revocations
// and Audit are optional.
type AuthDeps struct {
	Users       ports.UserRepository
	Locations   ports.LocationRepository
	Hasher      ports.PasswordHasher
	Issuer      ports.TokenIssuer
	Verifier    ports.TokenVerifier
	Revocations ports.RevocationStore
	Audit       ports.AuditRecorder
	Logger      zerolog.Logger
}

// AuthService implements registration, login, logout and identity lookup.
type AuthService struct {
	users       ports.UserRepository
	locations   ports.LocationRepository
	hasher      ports.PasswordHasher
	issuer      ports.TokenIssuer
	verifier    ports.TokenVerifier
	revocations ports.RevocationStore
	audit       ports.AuditRecorder
	log         zerolog.Logger
	now         func() time.Time
	dummyHash   string
}

func NewAuthService(deps AuthDeps) (*AuthService, error) {
	if deps.Users == nil || deps.Hasher == nil || deps.Issuer == nil || deps.Verifier == nil {
		return nil, errors.New("auth service: users, hasher, issuer and verifier are required")
	}

	dummy, err := deps.Hasher.Hash(timingPassword)
	if err != nil {
		return nil, fmt.Errorf("auth service: prepare timing hash: %w", err)
	}

	return &AuthService{
		users:       deps.Users,
		locations:   deps.Locations,
		hasher:      deps.Hasher,
		issuer:      deps.Issuer,
		verifier:    deps.Verifier,
		revocations: deps.Revocations,
		audit:       deps.Audit,
		log:         deps.Logger,
		now:         time.Now,
		dummyHash:   dummy,
	}, nil
}

// Register creates a Staff identity. It does not authenticate the caller.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput, meta ports.RequestMeta) error {
	username := strings.TrimSpace(in.Username)
	email := domain.NormalizeEmail(in.Email)
	if username == "" || email == "" {
		return fmt.Errorf("%w: username and email are required", domain.ErrValidation)
	}
	if len(in.Password) < MinPasswordLength || len(in.Password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be between %d and %d characters",
			domain.ErrValidation, MinPasswordLength, MaxPasswordLength)
	}

	// Fast path only; the unique index is what actually guarantees one record per email.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return domain.ErrDuplicateIdentity
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.DefaultRole,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("register: %w", err)
	}

	s.record(domain.EventRegistered, created.ID, email, meta)
	s.log.Info().Str("user_id", created.ID).Str("username", username).Msg("user registered")
	return nil
}

// Login verifies credentials, stamps last_login_at and issues a session token.
// An unknown email and a wrong password yield the same domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, meta ports.RequestMeta) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		s.hasher.Verify(password, s.dummyHash)
		s.record(domain.EventLoginFailed, "", email, meta)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.record(domain.EventLoginFailed, user.ID, email, meta)
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Deleted since the lookup: answer like an unknown email.
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record(domain.EventLoginFailed, user.ID, email, meta)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: record last login: %w", err)
	}
	user.LastLoginAt = &now
	user.UpdatedAt = now

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	loc, err := s.resolveLocation(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.record(domain.EventLoginSucceeded, user.ID, email, meta)
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")

	return &ports.LoginResult{Token: token, User: user.View(loc)}, nil
}

// Logout denylists token until it expires when revocation is configured.
// The cookie itself is cleared by the transport; this never fails.
func (s *AuthService) Logout(ctx context.Context, token string, meta ports.RequestMeta) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		s.record(domain.EventLogout, "", "", meta)
		return
	}

	if s.revocations != nil && claims.TokenID != "" {
		if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
			s.log.Warn().Err(err).Str("user_id", claims.UserID).Msg("failed to revoke token on logout")
		}
	}

	s.record(domain.EventLogout, claims.UserID, "", meta)
}

// CurrentIdentity returns the view of the identity named by verified claims.
// domain.ErrUserNotFound means the user was removed after the token was issued.
func (s *AuthService) CurrentIdentity(ctx context.Context, claims domain.Claims) (*domain.UserView, error) {
	if claims.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.Identity(ctx, claims.UserID)
}

func (s *AuthService) Identity(ctx context.Context, id string) (*domain.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("identity: %w", err)
	}

	loc, err := s.resolveLocation(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	return user.View(loc), nil
}

// resolveLocation follows the weak active_location_id reference. A dangling
// reference resolves to nil.
func (s *AuthService) resolveLocation(ctx context.Context, user *domain.User) (*domain.Location, error) {
	if s.locations == nil || user.ActiveLocationID == "" {
		return nil, nil
	}

	loc, err := s.locations.FindByID(ctx, user.ActiveLocationID)
	if err != nil {
		if errors.Is(err, domain.ErrLocationNotFound) {
			s.log.Debug().Str("user_id", user.ID).Str("location_id", user.ActiveLocationID).Msg("active location not found")
			return nil, nil
		}
		return nil, fmt.Errorf("resolve active location: %w", err)
	}
	return loc, nil
}

func (s *AuthService) record(t domain.AuthEventType, userID, email string, meta ports.RequestMeta) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuthEvent{
		Type:       t,
		UserID:     userID,
		Email:      email,
		RemoteAddr: meta.RemoteAddr,
		UserAgent:  meta.UserAgent,
		OccurredAt: s.now().UTC(),
	})
}
