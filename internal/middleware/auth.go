package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/tallyhq/tally/tally-backend/internal/identity"
)

// Session cookie names. The identity provider issues the tokens; this
// service only stores and forwards them.
const (
	AccessTokenCookie  = "tally_access_token"
	RefreshTokenCookie = "tally_refresh_token"
)

// CustomClaims contains the custom claims in the provider's session JWT
type CustomClaims struct {
	Email string `json:"email"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// UserIDKey is the context key for the authenticated user ID
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for the authenticated email
	EmailKey contextKey = "email"
)

// SessionRefresher exchanges a refresh token for a new session
type SessionRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*identity.Session, error)
}

// AuthMiddleware validates provider-issued session tokens and keeps them
// fresh: when the access token is close to expiry and a refresh token is
// present, the session is renewed in-line and new cookies are set.
type AuthMiddleware struct {
	validator     *validator.Validator
	refresher     SessionRefresher
	refreshWindow time.Duration
	secureCookies bool
}

// NewAuthMiddleware creates an AuthMiddleware against the identity
// provider's JWKS.
func NewAuthMiddleware(issuerURL, audience string, refresher SessionRefresher, refreshWindow time.Duration, secureCookies bool) (*AuthMiddleware, error) {
	issuer, err := url.Parse(issuerURL)
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuer, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuer.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMiddleware{
		validator:     jwtValidator,
		refresher:     refresher,
		refreshWindow: refreshWindow,
		secureCookies: secureCookies,
	}, nil
}

// Authenticate returns an Echo middleware that requires a valid session.
// API requests get a 401 problem response when the session is missing or
// expired; page navigations are redirected to the login page with the
// original path in the redirect query parameter.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := m.establishSession(c)
			if !ok {
				if isPageNavigation(c) {
					return redirectToLogin(c)
				}
				return unauthorizedError(c, "Missing or expired session")
			}

			userID, err := uuid.Parse(claims.RegisteredClaims.Subject)
			if err != nil {
				log.Debug().Str("subject", claims.RegisteredClaims.Subject).Msg("Malformed token subject")
				return unauthorizedError(c, "Invalid session")
			}

			ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, UserIDKey, userID)
			if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
				ctx = context.WithValue(ctx, EmailKey, custom.Email)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RedirectAuthenticated returns a middleware for the login and signup pages:
// a user who already has a valid session is sent to the dashboard.
func (m *AuthMiddleware) RedirectAuthenticated(target string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := m.establishSession(c); ok {
				return c.Redirect(http.StatusFound, target)
			}
			return next(c)
		}
	}
}

// establishSession validates the current access token, refreshing it first
// when it is absent or within the refresh window. Returns false when no
// valid session could be established.
func (m *AuthMiddleware) establishSession(c echo.Context) (*validator.ValidatedClaims, bool) {
	token := extractToken(c)

	if token != "" {
		claims, err := m.validateToken(c, token)
		if err == nil {
			if m.withinRefreshWindow(claims) {
				if renewed, ok := m.refreshSession(c); ok {
					return renewed, true
				}
				// Refresh failed but the current token is still valid
			}
			return claims, true
		}
		log.Debug().Err(err).Msg("Token validation failed")
	}

	return m.refreshSession(c)
}

func (m *AuthMiddleware) validateToken(c echo.Context, token string) (*validator.ValidatedClaims, error) {
	claims, err := m.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		return nil, err
	}
	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
	}
	return validated, nil
}

func (m *AuthMiddleware) withinRefreshWindow(claims *validator.ValidatedClaims) bool {
	if m.refreshWindow <= 0 || claims.RegisteredClaims.Expiry == 0 {
		return false
	}
	expiry := time.Unix(claims.RegisteredClaims.Expiry, 0)
	return time.Until(expiry) < m.refreshWindow
}

// refreshSession exchanges the refresh-token cookie for a new session and
// installs the new cookies on the response.
func (m *AuthMiddleware) refreshSession(c echo.Context) (*validator.ValidatedClaims, bool) {
	if m.refresher == nil {
		return nil, false
	}
	cookie, err := c.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	session, err := m.refresher.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("Session refresh failed")
		return nil, false
	}

	claims, err := m.validateToken(c, session.AccessToken)
	if err != nil {
		log.Debug().Err(err).Msg("Refreshed token validation failed")
		return nil, false
	}

	SetSessionCookies(c, session, m.secureCookies)
	return claims, true
}

// ValidateSessionToken validates a raw session token and returns the user
// ID from its subject. Used by transports that cannot carry cookies, like
// the WebSocket upgrade.
func (m *AuthMiddleware) ValidateSessionToken(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
	}
	return uuid.Parse(validated.RegisteredClaims.Subject)
}

// SetSessionCookies installs the session cookies on the response
func SetSessionCookies(c echo.Context, session *identity.Session, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     AccessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    session.RefreshToken,
		Path:     "/",
		Expires:  time.Now().Add(30 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies removes the session cookies
func ClearSessionCookies(c echo.Context, secure bool) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// isPageNavigation reports whether the request is a browser page load
// rather than an API call.
func isPageNavigation(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get("Accept"), "text/html")
}

func redirectToLogin(c echo.Context) error {
	target := "/login?redirect=" + url.QueryEscape(c.Request().URL.RequestURI())
	return c.Redirect(http.StatusFound, target)
}

// GetUserID extracts the authenticated user ID from the context
func GetUserID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetEmail extracts the authenticated email from the context
func GetEmail(c echo.Context) string {
	if email, ok := c.Request().Context().Value(EmailKey).(string); ok {
		return email
	}
	return ""
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}
