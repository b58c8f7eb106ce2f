// Package dispatch maps a model identifier to a provider family and routes
// chat requests to the matching adapter.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/models"
	"github.com/nextchat-ai/nextchat/pkg/provider"
)

// Family identifies a provider family.
type Family string

const (
	FamilyOpenAI Family = "openai"
	FamilyGemini Family = "gemini"
	FamilyBaidu  Family = "baidu"
	FamilyQwen   Family = "qwen"
	FamilyZhipu  Family = "zhipu"
)

// prefixes is checked in order; the first match wins.
var prefixes = []struct {
	prefix string
	family Family
}{
	{"gpt", FamilyOpenAI},
	{"gemini", FamilyGemini},
	{"ernie", FamilyBaidu},
	{"qwen", FamilyQwen},
	{"glm", FamilyZhipu},
}

// Classify returns the family serving model. ok is false when no family
// claims it.
func Classify(model string) (Family, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(model, p.prefix) {
			return p.family, true
		}
	}
	return "", false
}

// CredentialSource supplies the credentials in effect for the next call.
type CredentialSource interface {
	Credentials(ctx context.Context) models.Credentials
}

// StaticCredentials is a CredentialSource that never changes.
type StaticCredentials models.Credentials

// Credentials implements CredentialSource.
func (s StaticCredentials) Credentials(context.Context) models.Credentials {
	return models.Credentials(s)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dispatcher routes chat requests by model family.
type Dispatcher struct {
	adapters map[Family]provider.Adapter
	creds    CredentialSource
	logger   *zap.Logger
}

// New creates a Dispatcher over the given adapter table.
func New(adapters map[Family]provider.Adapter, creds CredentialSource, opts ...Option) *Dispatcher {
	if creds == nil {
		creds = StaticCredentials{}
	}
	table := make(map[Family]provider.Adapter, len(adapters))
	for f, a := range adapters {
		table[f] = a
	}
	d := &Dispatcher{
		adapters: table,
		creds:    creds,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Default creates a Dispatcher wired to the five real adapters. baseURLs
// overrides endpoint roots per family; opts apply to every adapter.
func Default(creds CredentialSource, baseURLs map[Family]string, opts []provider.Option, dopts ...Option) *Dispatcher {
	with := func(f Family) []provider.Option {
		o := append([]provider.Option{}, opts...)
		return append(o, provider.WithBaseURL(baseURLs[f]))
	}
	return New(map[Family]provider.Adapter{
		FamilyOpenAI: provider.NewOpenAI(with(FamilyOpenAI)...),
		FamilyGemini: provider.NewGemini(with(FamilyGemini)...),
		FamilyBaidu:  provider.NewBaidu(with(FamilyBaidu)...),
		FamilyQwen:   provider.NewQwen(with(FamilyQwen)...),
		FamilyZhipu:  provider.NewZhipu(with(FamilyZhipu)...),
	}, creds, dopts...)
}

// Route returns the reply for msgs from the provider serving model. Models
// with no family, and families whose credentials are missing, get a
// simulated reply without any adapter call. Adapter errors are returned
// unchanged.
func (d *Dispatcher) Route(ctx context.Context, msgs []models.Message, model string) (string, error) {
	family, ok := Classify(model)
	if !ok {
		d.logger.Debug("no provider family for model", zap.String("model", model))
		return Fallback(model), nil
	}

	creds := d.creds.Credentials(ctx)
	if sim, missing := gate(family, model, creds); missing {
		d.logger.Debug("credentials missing, simulating", zap.String("model", model), zap.String("family", string(family)))
		return sim, nil
	}

	adapter, ok := d.adapters[family]
	if !ok {
		return Fallback(model), nil
	}

	return adapter.Chat(ctx, provider.Request{
		Model:       model,
		Messages:    msgs,
		Credentials: creds,
	})
}

// Fallback is the simulated reply for a model no provider serves.
func Fallback(model string) string {
	return fmt.Sprintf("This is a simulated response from %s. In a complete implementation, this would connect to the appropriate API.", model)
}

// gate reports whether family lacks the credentials it needs, returning
// the simulated reply to use instead. OpenAI is never gated.
func gate(family Family, model string, creds models.Credentials) (string, bool) {
	switch family {
	case FamilyGemini:
		if creds.APIKey == "" {
			return fmt.Sprintf("This is a simulated response for %s. In a real application, you would need to provide a Google API key.", model), true
		}
	case FamilyBaidu:
		if creds.APIKey == "" || creds.SecretKey == "" {
			return fmt.Sprintf("This is a simulated response for %s. To use Baidu ERNIE models, please provide both API Key and Secret Key in settings.", model), true
		}
	case FamilyQwen:
		if creds.APIKey == "" {
			return fmt.Sprintf("This is a simulated response for %s. To use Alibaba Qwen models, please provide an API Key in settings.", model), true
		}
	case FamilyZhipu:
		if creds.APIKey == "" {
			return fmt.Sprintf("This is a simulated response for %s. To use Zhipu ChatGLM models, please provide an API Key in settings.", model), true
		}
	}
	return "", false
}
