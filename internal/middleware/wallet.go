package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/flow"
)

// FlowContextKey holds the loaded *flow.Flow for downstream handlers.
const FlowContextKey = "flow"

// RequireWallet loads the session flow and rejects the request with 401
// unless a wallet is connected.
func RequireWallet(store *flow.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			f, err := store.Load(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Could not load session").SetInternal(err)
			}
			if f.WalletAddress == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Connect a wallet first"})
			}
			c.Set(FlowContextKey, f)
			return next(c)
		}
	}
}

// FlowFrom returns the flow stored by RequireWallet, or nil.
func FlowFrom(c echo.Context) *flow.Flow {
	f, _ := c.Get(FlowContextKey).(*flow.Flow)
	return f
}
