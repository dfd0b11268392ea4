package flow

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	sessionName = "mintari-flow"
	sessionKey  = "flow"
)

// SessionStore keeps a Flow in the echo-contrib session. The session
// middleware must be installed.
type SessionStore struct {
	credits int
}

func NewSessionStore(credits int) *SessionStore {
	return &SessionStore{credits: credits}
}

// Load returns the session's flow, starting a new one when the session is
// empty or holds an unreadable value.
func (s *SessionStore) Load(c echo.Context) (*Flow, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil, fmt.Errorf("load flow session: %w", err)
	}
	raw, ok := sess.Values[sessionKey].(string)
	if !ok || raw == "" {
		return New(s.credits), nil
	}
	var f Flow
	if err := json.Unmarshal([]byte(raw), &f); err != nil || f.State == "" {
		slog.WarnContext(c.Request().Context(), "Discarding unreadable flow session", "error", err)
		return New(s.credits), nil
	}
	return &f, nil
}

// Save writes f back to the session cookie.
func (s *SessionStore) Save(c echo.Context, f *Flow) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return fmt.Errorf("load flow session: %w", err)
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode flow: %w", err)
	}
	sess.Values[sessionKey] = string(data)
	return sess.Save(c.Request(), c.Response())
}
