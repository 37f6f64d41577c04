package auth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedCallbackServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	server := NewCallbackServer(0, state, nil)
	require.NoError(t, server.Start())
	t.Cleanup(func() {
		_ = server.Close()
	})
	return server
}

func getCallback(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestCallbackServer_Await(t *testing.T) {
	t.Run("delivers the code and releases the port", func(t *testing.T) {
		server := startedCallbackServer(t, "")
		port := server.Port()

		type result struct {
			code string
			err  error
		}
		done := make(chan result, 1)
		go func() {
			code, err := server.Await(context.Background())
			done <- result{code, err}
		}()

		status, body := getCallback(t, server.RedirectURL()+"?code=ABC123")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Authentication successful")

		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, "ABC123", res.code)

		// The port must be free again once Await has returned.
		ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		require.NoError(t, err)
		_ = ln.Close()
	})

	t.Run("fails with ErrCallbackClosed when torn down before a code", func(t *testing.T) {
		server := startedCallbackServer(t, "")
		require.NoError(t, server.Close())

		_, err := server.Await(context.Background())
		require.ErrorIs(t, err, ErrCallbackClosed)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		server := startedCallbackServer(t, "")
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := server.Await(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestCallbackServer_Handler(t *testing.T) {
	t.Run("request without code renders the failure page with 200", func(t *testing.T) {
		server := startedCallbackServer(t, "")

		status, body := getCallback(t, server.RedirectURL())
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Authentication failed")
	})

	t.Run("state mismatch is rejected", func(t *testing.T) {
		server := startedCallbackServer(t, "expected-state")

		_, body := getCallback(t, server.RedirectURL()+"?code=abc&state=wrong")
		assert.Contains(t, body, "Authentication failed")

		_, body = getCallback(t, server.RedirectURL()+"?code=abc&state=expected-state")
		assert.Contains(t, body, "Authentication successful")
	})

	t.Run("only the first code is accepted", func(t *testing.T) {
		server := startedCallbackServer(t, "")

		_, body := getCallback(t, server.RedirectURL()+"?code=first")
		assert.Contains(t, body, "Authentication successful")

		_, body = getCallback(t, server.RedirectURL()+"?code=second")
		assert.Contains(t, body, "Authentication failed")

		code, err := server.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "first", code)
	})
}

func TestCallbackServer_Start(t *testing.T) {
	t.Run("bind conflict fails fast", func(t *testing.T) {
		ln, err := net.Listen("tcp", "localhost:0")
		require.NoError(t, err)
		defer func() {
			_ = ln.Close()
		}()
		port := ln.Addr().(*net.TCPAddr).Port

		server := NewCallbackServer(port, "", nil)
		err = server.Start()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to bind callback listener")
	})

	t.Run("close before start is a no-op", func(t *testing.T) {
		server := NewCallbackServer(0, "", nil)
		require.NoError(t, server.Close())
	})
}

func TestCallbackServer_AwaitServeFailure(t *testing.T) {
	// Closing the listener out from under the server makes Serve return a
	// real error, which Await must surface as a listener failure.
	server := startedCallbackServer(t, "")
	require.NoError(t, server.ln.Close())

	_, err := server.Await(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "callback listener failed")
}
