package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nextchat-ai/nextchat/pkg/models"
)

// DefaultGeminiURL is the Generative Language API root.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini talks to the Google Generative Language REST API.
type Gemini struct {
	base
}

// NewGemini creates a Gemini adapter.
func NewGemini(opts ...Option) *Gemini {
	return &Gemini{base: newBase("gemini", "Google Gemini", DefaultGeminiURL, opts)}
}

// Chat implements Adapter.
func (g *Gemini) Chat(ctx context.Context, req Request) (string, error) {
	return g.cachedCall(ctx, req, func(ctx context.Context) (string, error) {
		endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
			g.baseURL, url.PathEscape(req.Model), url.QueryEscape(req.Credentials.APIKey))

		var resp models.GeminiResponse
		if err := g.postJSON(ctx, g.chatTimeout, endpoint, nil, geminiRequest(req.Messages), &resp); err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", errEmptyReply
		}
		return resp.Candidates[0].Content.Parts[0].Text, nil
	})
}

// geminiRequest maps user turns to "user" and everything else to "model".
func geminiRequest(msgs []models.Message) models.GeminiRequest {
	contents := make([]models.GeminiContent, 0, len(msgs))
	for _, m := range msgs {
		role := "model"
		if m.Role == models.RoleUser {
			role = "user"
		}
		contents = append(contents, models.GeminiContent{
			Role:  role,
			Parts: []models.GeminiPart{{Text: m.Content}},
		})
	}
	return models.GeminiRequest{Contents: contents}
}
