package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arewsa/chat-for-deepruta/internal/config"
	"github.com/arewsa/chat-for-deepruta/internal/handler"
	"github.com/arewsa/chat-for-deepruta/internal/logger"
	"github.com/arewsa/chat-for-deepruta/internal/server"
)

func TestHealthcheckCommand(t *testing.T) {
	srv, err := server.NewServer(context.Background(), config.Default(), logger.Discard())
	require.NoError(t, err)
	srv.SetupRouter(handler.NewHandler(srv))
	ts := httptest.NewServer(srv.Router)
	defer ts.Close()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"healthcheck", "--url", ts.URL})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, "ok: ChatForDeepRuta API работает!\n", out.String())
}

func TestHealthcheckCommandFails(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"healthcheck", "--url", ts.URL})

	assert.Error(t, root.ExecuteContext(context.Background()))
}
