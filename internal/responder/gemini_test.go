package responder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/session"

	"github.com/arewsa/chat-for-deepruta/internal/logger"
)

func TestAuthenticatedTransportAddsToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Tiger-Token")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &AuthenticatedTransport{Token: "secret", Log: logger.Discard()}}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "secret", got)
	assert.Empty(t, req.Header.Get("X-Tiger-Token"), "original request must not be modified")
}

func TestAuthenticatedTransportWithoutToken(t *testing.T) {
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["X-Tiger-Token"]
	}))
	defer srv.Close()

	client := &http.Client{Transport: &AuthenticatedTransport{}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.False(t, present)
}

func TestGeminiImplementsForgetter(t *testing.T) {
	var r Responder = &Gemini{}
	_, ok := r.(Forgetter)
	assert.True(t, ok)

	_, ok = Responder(Echo{}).(Forgetter)
	assert.False(t, ok)
}

func TestGeminiLocksArePerChat(t *testing.T) {
	g := &Gemini{locks: make(map[string]*sync.Mutex)}

	a := g.lockFor("a")
	assert.Same(t, a, g.lockFor("a"))
	assert.NotSame(t, a, g.lockFor("b"))
	assert.Len(t, g.locks, 2)
}

func TestGeminiForgetDropsSessionAndLock(t *testing.T) {
	ctx := context.Background()
	g := &Gemini{
		sessions: session.InMemoryService(),
		log:      logger.Discard(),
		locks:    make(map[string]*sync.Mutex),
	}

	g.lockFor("a/b")
	require.NoError(t, g.ensureSession(ctx, "a/b"))
	_, err := g.sessions.Get(ctx, &session.GetRequest{AppName: appName, UserID: defaultUserID, SessionID: "a/b"})
	require.NoError(t, err)

	require.NoError(t, g.Forget(ctx, "a/b"))

	_, err = g.sessions.Get(ctx, &session.GetRequest{AppName: appName, UserID: defaultUserID, SessionID: "a/b"})
	assert.Error(t, err)
	assert.Empty(t, g.locks)

	// chat que nunca teve sessão
	assert.NoError(t, g.Forget(ctx, "never-used"))
	assert.Empty(t, g.locks)
}
