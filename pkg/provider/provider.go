// Package provider holds one adapter per upstream LLM service. Each adapter
// translates the uniform message list into the provider's wire format,
// authenticates, and consults the response cache before going to the network.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/cache"
	"github.com/nextchat-ai/nextchat/pkg/models"
)

const (
	// ChatTimeout bounds a single chat call.
	ChatTimeout = 30 * time.Second
	// AuthTimeout bounds a credential exchange.
	AuthTimeout = 10 * time.Second
	// ImageTimeout bounds an image generation call.
	ImageTimeout = 60 * time.Second

	// Temperature is the fixed sampling temperature for providers that take one.
	Temperature = 0.7
)

// Request is a single chat call. Credentials are passed per call so a
// settings change applies to the next request only.
type Request struct {
	Model       string
	Messages    []models.Message
	Credentials models.Credentials
}

// Adapter is implemented by every provider.
type Adapter interface {
	// Name returns the provider tag used in cache fingerprints.
	Name() string
	// Chat returns the assistant reply for req.
	Chat(ctx context.Context, req Request) (string, error)
}

// TransportError is returned when a chat call fails for any reason other
// than credential exchange. Its message never includes upstream detail;
// the cause is available through Unwrap.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to get response from %s", e.Provider)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError is returned when credentials are rejected or a token exchange fails.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to get access token from %s", e.Provider)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ErrAPIKeyRequired is returned by calls that cannot run without an API key.
var ErrAPIKeyRequired = errors.New("API key is required for image generation")

// StatusError records a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// Option configures an adapter.
type Option func(*base)

// WithCache enables cache-before-call for the adapter.
func WithCache(c *cache.Cache) Option {
	return func(b *base) {
		b.cache = c
	}
}

// WithHTTPClient sets the HTTP client used for upstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(b *base) {
		if c != nil {
			b.client = c
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithBaseURL overrides the provider's default endpoint root.
func WithBaseURL(u string) Option {
	return func(b *base) {
		if u != "" {
			b.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithChatTimeout overrides ChatTimeout.
func WithChatTimeout(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			b.chatTimeout = d
		}
	}
}

// WithAuthTimeout overrides AuthTimeout.
func WithAuthTimeout(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			b.authTimeout = d
		}
	}
}

// base carries what every adapter shares.
type base struct {
	name        string
	display     string
	baseURL     string
	cache       *cache.Cache
	client      *http.Client
	logger      *zap.Logger
	chatTimeout time.Duration
	authTimeout time.Duration
}

func newBase(name, display, defaultURL string, opts []Option) base {
	b := base{
		name:        name,
		display:     display,
		baseURL:     defaultURL,
		client:      http.DefaultClient,
		logger:      zap.NewNop(),
		chatTimeout: ChatTimeout,
		authTimeout: AuthTimeout,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Name implements Adapter.
func (b *base) Name() string {
	return b.name
}

// cachedCall serves req from the cache when possible and otherwise runs call,
// writing a successful result back. Failures are logged with their cause and
// returned with a generic message.
func (b *base) cachedCall(ctx context.Context, req Request, call func(context.Context) (string, error)) (string, error) {
	fp := cache.Fingerprint(b.name, req.Model, req.Messages)
	if b.cache != nil {
		if cached, ok := b.cache.Get(ctx, fp); ok {
			b.logger.Debug("cache hit", zap.String("provider", b.name), zap.String("model", req.Model))
			return cached, nil
		}
	}

	start := time.Now()
	result, err := call(ctx)
	b.logger.Debug(b.display+" API Call",
		zap.String("model", req.Model),
		zap.Duration("took", time.Since(start)),
	)
	if err != nil {
		b.logger.Error("provider call failed",
			zap.String("provider", b.name),
			zap.String("model", req.Model),
			zap.Error(err),
		)
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return "", authErr
		}
		te := &TransportError{Provider: b.display, Err: err}
		var se *StatusError
		if errors.As(err, &se) {
			te.StatusCode = se.StatusCode
		}
		return "", te
	}

	if b.cache != nil {
		if err := b.cache.Put(ctx, fp, result); err != nil {
			b.logger.Warn("cache write failed", zap.String("provider", b.name), zap.Error(err))
		}
	}
	return result, nil
}

// postJSON sends payload as JSON to endpoint and decodes a 2xx response into out.
// A nil payload sends an empty body.
func (b *base) postJSON(ctx context.Context, timeout time.Duration, endpoint string, headers map[string]string, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		// url.Error repeats the request URL, which can carry credentials.
		var ue *url.Error
		if errors.As(err, &ue) {
			return fmt.Errorf("%s request: %w", ue.Op, ue.Err)
		}
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(respBody)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func bearer(key string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + key}
}

var errEmptyReply = errors.New("response carried no reply text")
