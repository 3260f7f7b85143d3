package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// problemDetails is the RFC 7807 error body used for middleware-level
// failures. The handler package has its own copy for domain errors.
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// unauthorizedError writes a 401 problem response
func unauthorizedError(c echo.Context, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(http.StatusUnauthorized, problemDetails{
		Type:     "https://tally.app/errors/unauthorized",
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// tooManyRequestsError writes a 429 problem response
func tooManyRequestsError(c echo.Context, detail string) error {
	c.Response().Header().Set(echo.HeaderRetryAfter, "60")
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(http.StatusTooManyRequests, problemDetails{
		Type:     "https://tally.app/errors/rate-limited",
		Title:    "Too Many Requests",
		Status:   http.StatusTooManyRequests,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}
