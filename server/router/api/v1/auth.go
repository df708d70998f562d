package v1

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/honeypot/server/internal/errors"
)

// APIKeyHeader carries the shared caller key.
const APIKeyHeader = "x-api-key"

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Status  string      `json:"status"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func renderError(c echo.Context, err *errors.APIError) error {
	return c.JSON(err.Status, errorResponse{
		Status:  "error",
		Code:    err.Code,
		Message: err.Message,
	})
}

// requireAPIKey rejects requests whose x-api-key does not match the profile.
func (s *APIV1Service) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(APIKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.Profile.APIKey)) != 1 {
			s.Logger.Warn("rejected request with invalid api key",
				"path", c.Path(),
				"remote_ip", c.RealIP(),
			)
			return renderError(c, errors.Unauthorized("Invalid API Key"))
		}
		return next(c)
	}
}

func (s *APIV1Service) rejectRateLimited(c echo.Context) error {
	return renderError(c, errors.RateLimitExceeded("too many requests, slow down"))
}
