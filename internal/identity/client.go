// Package identity is the gateway to the hosted identity provider. It owns
// signup/login/refresh/logout/recover calls and normalizes the provider's
// raw error responses into a small kind vocabulary so callers never render
// backend messages verbatim.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Session is the provider-issued session state delivered to the browser
// via cookies.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       uuid.UUID
	Email        string
}

// Client is the identity provider surface the rest of the app depends on.
type Client interface {
	Signup(ctx context.Context, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, accessToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
}

// HTTPClient talks to the provider's REST endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient creates a client for the provider at baseURL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

var _ Client = (*HTTPClient)(nil)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type recoverRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Code    string `json:"error_code"`
	Message string `json:"msg"`
}

// Signup registers a new account and returns the initial session.
func (c *HTTPClient) Signup(ctx context.Context, email, password string) (*Session, error) {
	return c.postSession(ctx, "/signup", credentialsRequest{Email: email, Password: password})
}

// Login exchanges credentials for a session.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.postSession(ctx, "/token?grant_type=password", credentialsRequest{Email: email, Password: password})
}

// Refresh exchanges a refresh token for a fresh session.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	return c.postSession(ctx, "/token?grant_type=refresh_token", refreshRequest{RefreshToken: refreshToken})
}

// Logout revokes the session behind the access token.
func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return &ProviderError{Kind: KindUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}
	return nil
}

// RequestPasswordReset asks the provider to email a reset link.
func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	body, err := json.Marshal(recoverRequest{Email: email})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/recover", bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ProviderError{Kind: KindUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}
	return nil
}

func (c *HTTPClient) postSession(ctx context.Context, path string, payload any) (*Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ProviderError{Kind: KindUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.errorFromResponse(resp)
	}

	var sr sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &ProviderError{Kind: KindUnknown, Message: fmt.Sprintf("malformed session response: %v", err)}
	}

	userID, err := uuid.Parse(sr.User.ID)
	if err != nil {
		return nil, &ProviderError{Kind: KindUnknown, Message: fmt.Sprintf("malformed user id %q", sr.User.ID)}
	}

	return &Session{
		AccessToken:  sr.AccessToken,
		RefreshToken: sr.RefreshToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(sr.ExpiresIn) * time.Second),
		UserID:       userID,
		Email:        sr.User.Email,
	}, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	return req, nil
}

func (c *HTTPClient) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var er errorResponse
	_ = json.Unmarshal(raw, &er)
	message := er.Message
	if message == "" {
		message = string(raw)
	}

	return &ProviderError{
		Kind:    classify(resp.StatusCode, er.Code),
		Message: message,
	}
}
