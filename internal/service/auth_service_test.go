package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/identity"
	"github.com/tallyhq/tally/tally-backend/internal/testutil"
)

func newAuthService() (*AuthService, *testutil.MockIdentityClient, *testutil.MockUserRepository) {
	client := testutil.NewMockIdentityClient()
	userRepo := testutil.NewMockUserRepository()
	return NewAuthService(client, userRepo, 8), client, userRepo
}

func TestSignup_ValidationNeverReachesProvider(t *testing.T) {
	tests := []struct {
		name    string
		input   SignupInput
		wantErr error
	}{
		{
			name:    "missing email",
			input:   SignupInput{Email: "", Password: "password123", ConfirmPassword: "password123"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "malformed email",
			input:   SignupInput{Email: "not-an-email", Password: "password123", ConfirmPassword: "password123"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "missing password",
			input:   SignupInput{Email: "user@example.com", Password: "", ConfirmPassword: ""},
			wantErr: ErrPasswordRequired,
		},
		{
			name:    "short password",
			input:   SignupInput{Email: "user@example.com", Password: "short", ConfirmPassword: "short"},
			wantErr: ErrPasswordTooShort,
		},
		{
			name:    "password mismatch",
			input:   SignupInput{Email: "user@example.com", Password: "password123", ConfirmPassword: "password124"},
			wantErr: ErrPasswordMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, client, _ := newAuthService()

			_, err := svc.Signup(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Signup() error = %v, want %v", err, tt.wantErr)
			}
			if len(client.Calls) != 0 {
				t.Errorf("provider received %d calls, want 0", len(client.Calls))
			}
		})
	}
}

func TestSignup_MirrorsUserLocally(t *testing.T) {
	svc, client, userRepo := newAuthService()
	name := "Ana"

	session, err := svc.Signup(context.Background(), SignupInput{
		Email:           "Ana@Example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		Name:            &name,
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if len(client.Calls) != 1 || client.Calls[0] != "signup" {
		t.Errorf("provider calls = %v, want [signup]", client.Calls)
	}

	user, err := userRepo.GetByID(session.UserID)
	if err != nil {
		t.Fatalf("user was not mirrored: %v", err)
	}
	if user.Name == nil || *user.Name != "Ana" {
		t.Errorf("user name = %v, want Ana", user.Name)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, client, _ := newAuthService()
	client.SignupFn = func(email, password string) (*identity.Session, error) {
		return nil, &identity.ProviderError{Kind: identity.KindDuplicate, Message: "user already registered"}
	}

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:           "taken@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Signup() error = %v, want ErrEmailTaken", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, client, _ := newAuthService()
	client.LoginFn = func(email, password string) (*identity.Session, error) {
		return nil, &identity.ProviderError{Kind: identity.KindUnauthorized, Message: "invalid login credentials"}
	}

	_, err := svc.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "wrong-password"})
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Login() error = %v, want ErrInvalidCredential", err)
	}
}

func TestLogin_NormalizesEmail(t *testing.T) {
	svc, client, _ := newAuthService()
	var gotEmail string
	client.LoginFn = func(email, password string) (*identity.Session, error) {
		gotEmail = email
		return testutil.DefaultSession(email), nil
	}

	if _, err := svc.Login(context.Background(), LoginInput{Email: "  User@Example.COM ", Password: "password123"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if gotEmail != "user@example.com" {
		t.Errorf("provider received email %q, want user@example.com", gotEmail)
	}
}

func TestRefresh_EmptyToken(t *testing.T) {
	svc, client, _ := newAuthService()

	_, err := svc.Refresh(context.Background(), "")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Refresh() error = %v, want ErrUnauthorized", err)
	}
	if len(client.Calls) != 0 {
		t.Errorf("provider received %d calls, want 0", len(client.Calls))
	}
}

func TestLogout_EmptyTokenIsNoOp(t *testing.T) {
	svc, client, _ := newAuthService()

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Errorf("Logout() error = %v, want nil", err)
	}
	if len(client.Calls) != 0 {
		t.Errorf("provider received %d calls, want 0", len(client.Calls))
	}
}

func TestRequestPasswordReset_SwallowsUnknownAddress(t *testing.T) {
	svc, client, _ := newAuthService()
	client.RecoverFn = func(email string) error {
		return &identity.ProviderError{Kind: identity.KindNotFound, Message: "user not found"}
	}

	if err := svc.RequestPasswordReset(context.Background(), "unknown@example.com"); err != nil {
		t.Errorf("RequestPasswordReset() error = %v, want nil for unknown address", err)
	}
}

func TestRequestPasswordReset_InvalidEmail(t *testing.T) {
	svc, client, _ := newAuthService()

	err := svc.RequestPasswordReset(context.Background(), "nope")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("RequestPasswordReset() error = %v, want ErrInvalidEmail", err)
	}
	if len(client.Calls) != 0 {
		t.Errorf("provider received %d calls, want 0", len(client.Calls))
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, userRepo := newAuthService()
	session := testutil.DefaultSession("user@example.com")
	if _, err := userRepo.CreateOrGet(&domain.User{ID: session.UserID, Email: session.Email}); err != nil {
		t.Fatalf("CreateOrGet() error = %v", err)
	}

	user, err := svc.UpdateProfile(session.UserID, "  New Name  ")
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.Name == nil || *user.Name != "New Name" {
		t.Errorf("name = %v, want New Name", user.Name)
	}

	if _, err := svc.UpdateProfile(session.UserID, "   "); !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("UpdateProfile() error = %v, want ErrNameRequired", err)
	}
}
