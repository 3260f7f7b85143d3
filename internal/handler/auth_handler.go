package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/identity"
	"github.com/tallyhq/tally/tally-backend/internal/middleware"
	"github.com/tallyhq/tally/tally-backend/internal/service"
)

// AuthHandler handles authentication HTTP requests. Sessions live in
// HTTP-only cookies; token material never appears in response bodies.
type AuthHandler struct {
	authService   *service.AuthService
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirmPassword"`
	Name            *string `json:"name,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RecoverRequest represents the password recovery request body
type RecoverRequest struct {
	Email string `json:"email"`
}

// SessionResponse represents the session info returned after auth calls
type SessionResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// UserResponse represents a user profile in API responses
type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// UpdateProfileRequest represents the profile update request body
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// Signup registers a new account and starts a session
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	session, err := h.authService.Signup(c.Request().Context(), service.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Name:            req.Name,
	})
	if err != nil {
		return h.mapAuthError(c, err, "signup")
	}

	middleware.SetSessionCookies(c, session, h.secureCookies)
	return c.JSON(http.StatusCreated, sessionToResponse(session))
}

// Login exchanges credentials for a session
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	session, err := h.authService.Login(c.Request().Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.mapAuthError(c, err, "login")
	}

	middleware.SetSessionCookies(c, session, h.secureCookies)
	return c.JSON(http.StatusOK, sessionToResponse(session))
}

// Refresh renews the session from the refresh-token cookie
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return NewUnauthorizedError(c, "Missing refresh token")
	}

	session, err := h.authService.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		middleware.ClearSessionCookies(c, h.secureCookies)
		return h.mapAuthError(c, err, "refresh")
	}

	middleware.SetSessionCookies(c, session, h.secureCookies)
	return c.JSON(http.StatusOK, sessionToResponse(session))
}

// Logout revokes the session and clears cookies. Cookies are cleared even
// when the provider call fails.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.AccessTokenCookie); err == nil && cookie.Value != "" {
		// Session may already be revoked upstream; ignore provider failures
		_ = h.authService.Logout(c.Request().Context(), cookie.Value)
	}

	middleware.ClearSessionCookies(c, h.secureCookies)
	return c.NoContent(http.StatusNoContent)
}

// Recover requests a password reset email. Always returns 204 so the
// endpoint cannot be used to probe for accounts.
func (h *AuthHandler) Recover(c echo.Context) error {
	var req RecoverRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "email", Message: "Must be a valid email address"},
			})
		}
		return handleUnexpectedError(c, err, "recover")
	}

	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c echo.Context) error {
	userID := middleware.GetUserID(c)

	user, err := h.authService.GetProfile(userID)
	if err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "get profile")
	}

	return c.JSON(http.StatusOK, userToResponse(user))
}

// UpdateMe updates the authenticated user's display name
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	user, err := h.authService.UpdateProfile(userID, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		}
		if errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name must be 255 characters or less"},
			})
		}
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "update profile")
	}

	return c.JSON(http.StatusOK, userToResponse(user))
}

// mapAuthError maps auth service errors to problem responses. The stable
// local vocabulary is the only thing rendered; raw provider messages stay
// in logs.
func (h *AuthHandler) mapAuthError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "email", Message: "Must be a valid email address"},
		})
	case errors.Is(err, service.ErrPasswordRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "password", Message: "Password is required"},
		})
	case errors.Is(err, service.ErrPasswordTooShort):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "password", Message: "Password does not meet the minimum length"},
		})
	case errors.Is(err, service.ErrPasswordMismatch):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "confirmPassword", Message: "Passwords do not match"},
		})
	case errors.Is(err, service.ErrEmailTaken):
		return NewConflictError(c, "An account with this email already exists")
	case errors.Is(err, service.ErrInvalidCredential), errors.Is(err, domain.ErrUnauthorized):
		return NewUnauthorizedError(c, "Invalid email or password")
	}
	return handleUnexpectedError(c, err, action)
}

func sessionToResponse(session *identity.Session) SessionResponse {
	return SessionResponse{
		UserID: session.UserID.String(),
		Email:  session.Email,
	}
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
