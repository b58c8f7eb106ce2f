package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nextchat-ai/nextchat/pkg/models"
)

// dropConnection closes the client connection without writing a response.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	hj, ok := w.(http.Hijacker)
	require.True(t, ok)
	conn, _, err := hj.Hijack()
	require.NoError(t, err)
	conn.Close()
}

func assertNotLogged(t *testing.T, logs *observer.ObservedLogs, secret string) {
	t.Helper()
	require.NotZero(t, logs.Len(), "expected the failure to be logged")
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, secret)
		for k, v := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(v), secret, "field %s", k)
		}
	}
}

func assertNotInChain(t *testing.T, err error, secret string) {
	t.Helper()
	for e := err; e != nil; e = errors.Unwrap(e) {
		assert.NotContains(t, e.Error(), secret)
	}
}

func TestGeminiKeyNotLoggedOnTransportFailure(t *testing.T) {
	const key = "gemini-secret-key"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dropConnection(t, w)
	}))
	defer upstream.Close()

	core, logs := observer.New(zap.DebugLevel)
	_, err := NewGemini(WithBaseURL(upstream.URL), WithLogger(zap.New(core))).Chat(context.Background(), Request{
		Model:       "gemini-pro",
		Messages:    hello,
		Credentials: models.Credentials{APIKey: key},
	})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assertNotInChain(t, err, key)
	assertNotLogged(t, logs, key)
}

func TestBaiduTokenNotLoggedOnTransportFailure(t *testing.T) {
	const token = "baidu-access-token"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/2.0/token" {
			w.Write([]byte(`{"access_token":"` + token + `"}`))
			return
		}
		dropConnection(t, w)
	}))
	defer upstream.Close()

	core, logs := observer.New(zap.DebugLevel)
	_, err := NewBaidu(WithBaseURL(upstream.URL), WithLogger(zap.New(core))).Chat(context.Background(), Request{
		Model:       "ernie-bot",
		Messages:    hello,
		Credentials: models.Credentials{APIKey: "ak", SecretKey: "baidu-secret"},
	})

	require.Error(t, err)
	assertNotInChain(t, err, token)
	assertNotLogged(t, logs, token)
	assertNotLogged(t, logs, "baidu-secret")
}

func TestBaiduSecretNotInTokenError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dropConnection(t, w)
	}))
	defer upstream.Close()

	_, err := NewBaidu(WithBaseURL(upstream.URL)).AccessToken(context.Background(), models.Credentials{APIKey: "ak", SecretKey: "baidu-secret"})

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.False(t, strings.Contains(err.Error(), "baidu-secret"))
	assertNotInChain(t, err, "baidu-secret")
}
