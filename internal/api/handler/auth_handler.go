package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inventory-system/backoffice-api/internal/api/metrics"
	"github.com/inventory-system/backoffice-api/internal/core/domain"
	"github.com/inventory-system/backoffice-api/internal/core/ports"
)

// SessionTransport moves the session token in and out of HTTP messages.
type SessionTransport interface {
	Set(c echo.Context, token domain.IssuedToken)
	Clear(c echo.Context)
	Token(c echo.Context) (string, bool)
}

type AuthHandler struct {
	authService ports.AuthService
	session     SessionTransport
}

func NewAuthHandler(authService ports.AuthService, session SessionTransport) *AuthHandler {
	return &AuthHandler{authService: authService, session: session}
}

type registerRequest struct {
	Username  string `json:"username"   validate:"required,max=64"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"max=64"`
	LastName  string `json:"last_name"  validate:"max=64"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	return c.Validate(req)
}

// Register creates a new Staff account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  response
// @Failure      400   {object}  response
// @Failure      429   {object}  response
// @Failure      500   {object}  response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, requestMeta(c))
	metrics.RegistrationsTotal.WithLabelValues(registrationResult(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, response{Success: true, Message: "User registered successfully"})
}

// Login authenticates a user and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  response
// @Failure      400   {object}  response
// @Failure      401   {object}  response
// @Failure      429   {object}  response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, requestMeta(c))
	metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	h.session.Set(c, res.Token)
	return c.JSON(http.StatusOK, response{Success: true, User: res.User})
}

// Logout revokes the session token, if any, and expires the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, _ := h.session.Token(c)
	h.authService.Logout(c.Request().Context(), token, requestMeta(c))
	h.session.Clear(c)
	return c.JSON(http.StatusOK, response{Success: true, Message: "Logged out successfully"})
}

// Me returns the caller's sanitized identity.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response
// @Failure      401  {object}  response
// @Failure      404  {object}  response
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentIdentity(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response{Success: true, User: user})
}

func registrationResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrValidation):
		return metrics.ResultInvalid
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return metrics.ResultDuplicate
	default:
		return metrics.ResultError
	}
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidCredentials):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
