package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/chats/{chatId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chats/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	m.ObserveChat("echo", nil)
	m.ObserveChat("echo", errors.New("boom"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `chatapi_http_requests_total{method="GET",route="/api/chats/{chatId}",status="404"} 1`)
	assert.Contains(t, text, `chatapi_chat_messages_total{outcome="ok",responder="echo"} 1`)
	assert.Contains(t, text, `chatapi_chat_messages_total{outcome="error",responder="echo"} 1`)
}
