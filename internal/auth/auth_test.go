package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memorySessionStore struct {
	sessions map[string]string
	err      error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]string{}}
}

func (s *memorySessionStore) Create(_ context.Context, username string, _ time.Duration) (string, error) {
	id := "sid-" + username
	s.sessions[id] = username
	return id, nil
}

func (s *memorySessionStore) Lookup(_ context.Context, id string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	username, ok := s.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	return username, nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, exp, err := tm.GenerateToken("abc")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.SessionID())
}

func TestTokenRejectsForeignSecretAndEmptySession(t *testing.T) {
	token, _, err := NewTokenManager("other", time.Hour).GenerateToken("abc")
	require.NoError(t, err)
	_, err = NewTokenManager("secret", time.Hour).ParseToken(token)
	assert.Error(t, err)

	tm := NewTokenManager("secret", time.Hour)
	blank, _, err := tm.GenerateToken("")
	require.NoError(t, err)
	_, err = tm.ParseToken(blank)
	assert.Error(t, err)
}

func TestTokenManagerDefaultTTL(t *testing.T) {
	assert.Equal(t, 8*time.Hour, NewTokenManager("s", 0).TTL())
}

func newSessionApp(tm *TokenManager, store SessionStore) *fiber.App {
	app := fiber.New()
	app.Use(NewSessionMiddleware(tm, store, "SESSION", zap.NewNop()).Handle)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(UsernameFromContext(c))
	})
	return app
}

func whoami(t *testing.T, app *fiber.App, cookie string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "SESSION", Value: cookie})
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestSessionMiddlewareResolvesUsername(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	store := newMemorySessionStore()
	sessions := NewSessions(tm, store)

	token, _, err := sessions.Issue(context.Background(), "yamada")
	require.NoError(t, err)

	app := newSessionApp(tm, store)
	assert.Equal(t, "yamada", whoami(t, app, token))
}

func TestSessionMiddlewareStaysAnonymous(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	store := newMemorySessionStore()
	app := newSessionApp(tm, store)

	assert.Equal(t, "", whoami(t, app, ""))
	assert.Equal(t, "", whoami(t, app, "not-a-token"))

	revoked, _, err := tm.GenerateToken("sid-gone")
	require.NoError(t, err)
	assert.Equal(t, "", whoami(t, app, revoked))

	store.err = errors.New("redis down")
	store.sessions["sid-x"] = "x"
	token, _, err := tm.GenerateToken("sid-x")
	require.NoError(t, err)
	assert.Equal(t, "", whoami(t, app, token))
}

func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("EMPLOYEE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EMPLOYEE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	store := NewRedisSessionStore(client)
	ctx := context.Background()

	id, err := store.Create(ctx, "suzuki", time.Minute)
	require.NoError(t, err)

	username, err := store.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "suzuki", username)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreWithoutClient(t *testing.T) {
	store := NewRedisSessionStore(nil)
	_, err := store.Lookup(context.Background(), "x")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Create(context.Background(), "x", time.Minute)
	assert.Error(t, err)
}
