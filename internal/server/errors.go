package server

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/handlers"
	"github.com/nfrund/mintari/internal/middleware"
)

// setupErrorHandling installs the JSON error handler. Errors that are not
// echo.HTTPErrors reached the top of the stack unhandled and are logged
// with a stack trace before the generic 500 is written.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		logger := middleware.FromContext(c.Request().Context())

		var he *echo.HTTPError
		switch {
		case !errors.As(err, &he):
			logger.Error("Internal Server Error (Unhandled)",
				"error", err,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		case he.Code >= http.StatusInternalServerError:
			logger.Error("Request failed", "status", he.Code, "error", he.Message, "internal", he.Internal)
		}

		handlers.WriteError(err, c)
	}
}
