package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/nextchat-ai/nextchat/pkg/models"
)

// DefaultOpenAIURL is the OpenAI API root.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// OpenAI talks to the OpenAI chat completions API through langchaingo.
type OpenAI struct {
	base
}

// NewOpenAI creates an OpenAI adapter.
func NewOpenAI(opts ...Option) *OpenAI {
	return &OpenAI{base: newBase("openai", "OpenAI", DefaultOpenAIURL, opts)}
}

// Chat implements Adapter.
func (o *OpenAI) Chat(ctx context.Context, req Request) (string, error) {
	return o.cachedCall(ctx, req, func(ctx context.Context) (string, error) {
		if req.Credentials.APIKey == "" {
			return "", errors.New("openai: missing api key")
		}

		llm, err := openai.New(
			openai.WithToken(req.Credentials.APIKey),
			openai.WithBaseURL(o.baseURL),
			openai.WithModel(req.Model),
			openai.WithHTTPClient(o.client),
		)
		if err != nil {
			return "", fmt.Errorf("init openai client: %w", err)
		}

		content := make([]llms.MessageContent, 0, len(req.Messages))
		for _, m := range req.Messages {
			content = append(content, llms.TextParts(openAIRole(m.Role), m.Content))
		}

		ctx, cancel := context.WithTimeout(ctx, o.chatTimeout)
		defer cancel()

		resp, err := llm.GenerateContent(ctx, content,
			llms.WithModel(req.Model),
			llms.WithTemperature(Temperature),
		)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errEmptyReply
		}
		return resp.Choices[0].Content, nil
	})
}

func openAIRole(r models.Role) schema.ChatMessageType {
	switch r {
	case models.RoleSystem:
		return schema.ChatMessageTypeSystem
	case models.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
