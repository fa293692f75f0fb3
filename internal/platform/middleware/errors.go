package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// failure is the body of every error response produced outside a save,
// matching the {success, message} shape of save results.
type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeFailure(c echo.Context, status int, msg string) error {
	if c.Response().Committed {
		return nil
	}
	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, failure{Success: false, Message: msg})
}

// ErrorHandler renders errors returned by handlers and middleware as
// {"success": false, "message": ...}. Server errors are logged.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		status := http.StatusInternalServerError
		msg := http.StatusText(status)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Int("status", status).Msg("request failed")
			msg = http.StatusText(status)
		}

		if werr := writeFailure(c, status, msg); werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}
