package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/identity"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Auth validation errors. These fire before any provider call: a request
// that fails local validation never reaches the network.
var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrPasswordRequired  = errors.New("password is required")
	ErrPasswordTooShort  = errors.New("password is too short")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrEmailTaken        = errors.New("an account with this email already exists")
)

// AuthService is the gateway between credential forms and the hosted
// identity provider. It validates input locally, delegates credential
// verification, and mirrors provider accounts into the local users table.
type AuthService struct {
	identityClient    identity.Client
	userRepo          domain.UserRepository
	minPasswordLength int
}

// NewAuthService creates a new AuthService
func NewAuthService(identityClient identity.Client, userRepo domain.UserRepository, minPasswordLength int) *AuthService {
	if minPasswordLength < 1 {
		minPasswordLength = 8
	}
	return &AuthService{
		identityClient:    identityClient,
		userRepo:          userRepo,
		minPasswordLength: minPasswordLength,
	}
}

// SignupInput holds the signup form fields
type SignupInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            *string
}

// Signup validates the form, registers the account with the provider, and
// mirrors it locally. Validation failures never reach the provider.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*identity.Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}
	if len(input.Password) < s.minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	session, err := s.identityClient.Signup(ctx, email, input.Password)
	if err != nil {
		return nil, s.mapProviderError(err)
	}

	if err := s.mirrorUser(session, input.Name); err != nil {
		return nil, err
	}
	return session, nil
}

// LoginInput holds the login form fields
type LoginInput struct {
	Email    string
	Password string
}

// Login validates the form and exchanges credentials for a session
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*identity.Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}

	session, err := s.identityClient.Login(ctx, email, input.Password)
	if err != nil {
		return nil, s.mapProviderError(err)
	}

	if err := s.mirrorUser(session, nil); err != nil {
		return nil, err
	}
	return session, nil
}

// Refresh exchanges a refresh token for a new session
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	if refreshToken == "" {
		return nil, domain.ErrUnauthorized
	}
	session, err := s.identityClient.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, s.mapProviderError(err)
	}
	return session, nil
}

// Logout revokes the session at the provider. A provider failure is not
// fatal: the caller clears cookies either way.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return s.identityClient.Logout(ctx, accessToken)
}

// RequestPasswordReset asks the provider to email a reset link. Unknown
// addresses are not distinguishable from known ones in the response.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	if err := s.identityClient.RequestPasswordReset(ctx, normalized); err != nil {
		// Swallow not-found so the endpoint cannot be used to probe accounts
		if identity.KindOf(err) == identity.KindNotFound {
			return nil
		}
		return s.mapProviderError(err)
	}
	return nil
}

// GetProfile returns the local mirror of the provider account
func (s *AuthService) GetProfile(userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile updates the local display name
func (s *AuthService) UpdateProfile(userID uuid.UUID, name string) (*domain.User, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, domain.ErrNameRequired
	}
	if len(trimmed) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	return s.userRepo.UpdateName(userID, trimmed)
}

// mirrorUser upserts the provider account into the local users table so
// foreign keys have something to reference
func (s *AuthService) mirrorUser(session *identity.Session, name *string) error {
	user, err := s.userRepo.CreateOrGet(&domain.User{
		ID:    session.UserID,
		Email: session.Email,
	})
	if err != nil {
		return err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed != "" && user.Name == nil {
			if _, err := s.userRepo.UpdateName(user.ID, trimmed); err != nil {
				return err
			}
		}
	}
	return nil
}

// mapProviderError converts normalized provider kinds into stable
// user-facing errors. Raw provider messages are never surfaced.
func (s *AuthService) mapProviderError(err error) error {
	switch identity.KindOf(err) {
	case identity.KindDuplicate:
		return ErrEmailTaken
	case identity.KindUnauthorized:
		return ErrInvalidCredential
	case identity.KindNotFound:
		return ErrInvalidCredential
	case identity.KindValidation:
		return ErrPasswordTooShort
	}
	return err
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	if !emailPattern.MatchString(trimmed) {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}
