package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const usernameKey = "session_username"

// SessionMiddleware resolves the session cookie into a username. It never
// rejects a request: missing or invalid sessions leave the caller anonymous.
type SessionMiddleware struct {
	tokens     *TokenManager
	store      SessionStore
	cookieName string
	logger     *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, store SessionStore, cookieName string, logger *zap.Logger) *SessionMiddleware {
	if cookieName == "" {
		cookieName = "SESSION"
	}
	return &SessionMiddleware{tokens: tokens, store: store, cookieName: cookieName, logger: logger}
}

// Handle attaches the session username to the request locals.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Cookies(m.cookieName)
	if raw == "" {
		return c.Next()
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		m.logger.Debug("ignoring invalid session token", zap.Error(err))
		return c.Next()
	}

	username, err := m.store.Lookup(c.UserContext(), claims.SessionID())
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("session lookup failed", zap.Error(err))
		}
		return c.Next()
	}

	c.Locals(usernameKey, username)
	return c.Next()
}

// UsernameFromContext returns the session username, or "" for anonymous requests.
func UsernameFromContext(c *fiber.Ctx) string {
	username, _ := c.Locals(usernameKey).(string)
	return username
}
