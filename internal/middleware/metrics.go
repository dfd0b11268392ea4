package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/metrics"
)

// Metrics records request counts and latency per route template.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(c.Request().Method, route, strconv.Itoa(responseStatus(c, err)), time.Since(start).Seconds())
			return err
		}
	}
}
