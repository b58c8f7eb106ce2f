package provider

import (
	"context"

	"github.com/nextchat-ai/nextchat/pkg/models"
)

// DefaultZhipuURL is the Zhipu open platform v4 root.
const DefaultZhipuURL = "https://open.bigmodel.cn/api/paas/v4"

// Zhipu talks to the Zhipu ChatGLM chat completions API.
type Zhipu struct {
	base
}

// NewZhipu creates a Zhipu ChatGLM adapter.
func NewZhipu(opts ...Option) *Zhipu {
	return &Zhipu{base: newBase("zhipu", "Zhipu ChatGLM", DefaultZhipuURL, opts)}
}

// Chat implements Adapter.
func (z *Zhipu) Chat(ctx context.Context, req Request) (string, error) {
	return z.cachedCall(ctx, req, func(ctx context.Context) (string, error) {
		body := models.ZhipuRequest{
			Model:       req.Model,
			Messages:    copyMessages(req.Messages),
			Temperature: Temperature,
		}

		var resp models.ZhipuResponse
		if err := z.postJSON(ctx, z.chatTimeout, z.baseURL+"/chat/completions", bearer(req.Credentials.APIKey), body, &resp); err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errEmptyReply
		}
		return resp.Choices[0].Message.Content, nil
	})
}
