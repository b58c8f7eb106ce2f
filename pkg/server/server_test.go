package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextchat-ai/nextchat/pkg/cache"
	"github.com/nextchat-ai/nextchat/pkg/config"
	"github.com/nextchat-ai/nextchat/pkg/conversation"
	"github.com/nextchat-ai/nextchat/pkg/models"
	"github.com/nextchat-ai/nextchat/pkg/provider"
	"github.com/nextchat-ai/nextchat/pkg/settings"
	"github.com/nextchat-ai/nextchat/pkg/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routeFunc func(ctx context.Context, msgs []models.Message, model string) (string, error)

func (f routeFunc) Route(ctx context.Context, msgs []models.Message, model string) (string, error) {
	return f(ctx, msgs, model)
}

type fakeImages struct {
	mu     sync.Mutex
	apiKey string
	url    string
	err    error
}

func (f *fakeImages) Generate(_ context.Context, apiKey, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKey = apiKey
	if apiKey == "" {
		return "", provider.ErrAPIKeyRequired
	}
	return f.url, f.err
}

type fixture struct {
	srv      *Server
	conv     *conversation.Store
	settings *settings.Settings
	cache    *cache.Cache
	images   *fakeImages
}

func setup(t *testing.T, route routeFunc) *fixture {
	t.Helper()
	store := memory.New()
	if route == nil {
		route = func(_ context.Context, msgs []models.Message, model string) (string, error) {
			return model + " says hi", nil
		}
	}
	f := &fixture{
		conv:     conversation.New(store, route),
		settings: settings.New(store),
		cache:    cache.New(store),
		images:   &fakeImages{url: "https://img.example/1.png"},
	}
	f.srv = New(config.Default(), f.conv, f.settings, f.cache, f.images, nil)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func TestModels(t *testing.T) {
	f := setup(t, nil)
	w := f.do(t, http.MethodGet, "/v1/models", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Models []struct {
			ID        string `json:"id"`
			Provider  string `json:"provider"`
			Supported bool   `json:"supported"`
		} `json:"models"`
		Selected string `json:"selected"`
	}
	decode(t, w, &body)
	assert.Len(t, body.Models, 18)
	assert.Equal(t, "gpt-4", body.Selected)
	assert.Equal(t, "gpt-4", body.Models[0].ID)
	assert.True(t, body.Models[0].Supported)
}

func TestSessionLifecycle(t *testing.T) {
	f := setup(t, nil)

	w := f.do(t, http.MethodPost, "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.ChatSession
	decode(t, w, &created)
	assert.Equal(t, "New Chat", created.Topic)

	w = f.do(t, http.MethodGet, "/v1/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Sessions []sessionSummary `json:"sessions"`
	}
	decode(t, w, &list)
	require.Len(t, list.Sessions, 2)
	assert.True(t, list.Sessions[1].Current)
	assert.Equal(t, created.ID, list.Sessions[1].ID)

	w = f.do(t, http.MethodGet, "/v1/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/v1/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/v1/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var eb errorBody
	decode(t, w, &eb)
	assert.Equal(t, "nextchat_error", eb.Error.Type)
	assert.Equal(t, http.StatusNotFound, eb.Error.Code)
}

func TestSendMessage(t *testing.T) {
	var gotModel string
	f := setup(t, func(_ context.Context, msgs []models.Message, model string) (string, error) {
		gotModel = model
		return "reply to " + msgs[len(msgs)-1].Content, nil
	})
	cur, _ := f.conv.Current()

	w := f.do(t, http.MethodPost, "/v1/sessions/"+cur.ID+"/messages", `{"content":"hello","attachment":"a.txt"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var msg models.ChatMessage
	decode(t, w, &msg)
	assert.Equal(t, models.RoleAssistant, msg.Role)
	assert.Equal(t, "reply to hello\n[Attached file: a.txt]", msg.Content)
	assert.Equal(t, "gpt-4", gotModel, "selected model is the default")

	w = f.do(t, http.MethodPost, "/v1/sessions/"+cur.ID+"/messages", `{"content":"again","model":"glm-4"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "glm-4", gotModel)
}

func TestSendMessageFailureIsApology(t *testing.T) {
	f := setup(t, func(context.Context, []models.Message, string) (string, error) {
		return "", &provider.TransportError{Provider: "OpenAI", Err: errors.New("boom")}
	})
	cur, _ := f.conv.Current()

	w := f.do(t, http.MethodPost, "/v1/sessions/"+cur.ID+"/messages", `{"content":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var msg models.ChatMessage
	decode(t, w, &msg)
	assert.Equal(t, conversation.Apology, msg.Content)
}

func TestSendMessageErrors(t *testing.T) {
	f := setup(t, nil)
	cur, _ := f.conv.Current()

	w := f.do(t, http.MethodPost, "/v1/sessions/nope/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/v1/sessions/"+cur.ID+"/messages", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/v1/sessions/"+cur.ID+"/messages", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageTurnInProgress(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := setup(t, func(context.Context, []models.Message, string) (string, error) {
		close(started)
		<-release
		return "late", nil
	})
	cur, _ := f.conv.Current()

	done := make(chan int)
	go func() {
		w := f.do(t, http.MethodPost, "/v1/sessions/"+cur.ID+"/messages", `{"content":"first"}`)
		done <- w.Code
	}()
	<-started

	w := f.do(t, http.MethodPost, "/v1/sessions/"+cur.ID+"/messages", `{"content":"second"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestSettings(t *testing.T) {
	f := setup(t, nil)

	w := f.do(t, http.MethodPut, "/v1/settings", `{"api_key":"sk-secret","selected_model":"qwen-max"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-secret")

	w = f.do(t, http.MethodGet, "/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		APIKeySet     bool   `json:"api_key_set"`
		SecretKeySet  bool   `json:"secret_key_set"`
		SelectedModel string `json:"selected_model"`
	}
	decode(t, w, &body)
	assert.True(t, body.APIKeySet)
	assert.False(t, body.SecretKeySet)
	assert.Equal(t, "qwen-max", body.SelectedModel)
	assert.Equal(t, "sk-secret", f.settings.APIKey())
}

func TestImage(t *testing.T) {
	f := setup(t, nil)

	w := f.do(t, http.MethodPost, "/v1/images", `{"prompt":"a cat"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var eb errorBody
	decode(t, w, &eb)
	assert.Equal(t, "API key is required for image generation", eb.Error.Message)

	require.NoError(t, f.settings.SetAPIKey(context.Background(), "sk-img"))
	w = f.do(t, http.MethodPost, "/v1/images", `{"prompt":"a cat"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		URL string `json:"url"`
	}
	decode(t, w, &body)
	assert.Equal(t, "https://img.example/1.png", body.URL)
	assert.Equal(t, "sk-img", f.images.apiKey)

	f.images.err = &provider.ImageError{Err: errors.New("upstream 500")}
	w = f.do(t, http.MethodPost, "/v1/images", `{"prompt":"a cat"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	decode(t, w, &eb)
	assert.Equal(t, "failed to generate image", eb.Error.Message)

	w = f.do(t, http.MethodPost, "/v1/images", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCacheEndpoints(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	fp := cache.Fingerprint("openai", "gpt-4", []models.Message{{Role: models.RoleUser, Content: "x"}})
	require.NoError(t, f.cache.Put(ctx, fp, "cached"))

	w := f.do(t, http.MethodGet, "/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.CacheStats
	decode(t, w, &stats)
	assert.EqualValues(t, 1, stats.Entries)

	w = f.do(t, http.MethodDelete, "/v1/cache?expired=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cleared struct {
		Removed int `json:"removed"`
	}
	decode(t, w, &cleared)
	assert.Equal(t, 0, cleared.Removed)

	w = f.do(t, http.MethodDelete, "/v1/cache", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &cleared)
	assert.Equal(t, 1, cleared.Removed)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	store := memory.New()
	cfg := config.Default()
	cfg.CORS.AllowedOrigins = []string{"https://chat.example.com"}
	srv := New(cfg, conversation.New(store, routeFunc(nil)), settings.New(store), cache.New(store), &fakeImages{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/models", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "https://chat.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
