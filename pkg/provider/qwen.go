package provider

import (
	"context"

	"github.com/nextchat-ai/nextchat/pkg/models"
)

// DefaultQwenURL is the DashScope API root.
const DefaultQwenURL = "https://dashscope.aliyuncs.com"

// Qwen talks to Alibaba DashScope text generation.
type Qwen struct {
	base
}

// NewQwen creates an Alibaba Qwen adapter.
func NewQwen(opts ...Option) *Qwen {
	return &Qwen{base: newBase("qwen", "Alibaba Qwen", DefaultQwenURL, opts)}
}

// Chat implements Adapter.
func (q *Qwen) Chat(ctx context.Context, req Request) (string, error) {
	return q.cachedCall(ctx, req, func(ctx context.Context) (string, error) {
		headers := bearer(req.Credentials.APIKey)
		headers["X-DashScope-SSE"] = "disable"

		body := models.QwenRequest{
			Model:      req.Model,
			Input:      models.QwenInput{Messages: copyMessages(req.Messages)},
			Parameters: models.QwenParameters{ResultFormat: "message"},
		}

		var resp models.QwenResponse
		endpoint := q.baseURL + "/api/v1/services/aigc/text-generation/generation"
		if err := q.postJSON(ctx, q.chatTimeout, endpoint, headers, body, &resp); err != nil {
			return "", err
		}
		if len(resp.Output.Choices) == 0 {
			return "", errEmptyReply
		}
		return resp.Output.Choices[0].Message.Content, nil
	})
}

func copyMessages(msgs []models.Message) []models.Message {
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}
