package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/nextchat-ai/nextchat/pkg/models"
)

// DefaultBaiduURL is the Baidu AI platform root.
const DefaultBaiduURL = "https://aip.baidubce.com"

// baiduEndpoints maps model ids to Wenxin workshop chat path segments.
// Unknown ids are used as the segment unchanged.
var baiduEndpoints = map[string]string{
	"ernie-bot-4":     "completions_pro",
	"ernie-bot":       "completions",
	"ernie-bot-turbo": "eb-instant",
}

// Baidu talks to ERNIE through the Wenxin workshop API. Every call first
// exchanges the API key and secret key for an access token.
type Baidu struct {
	base
}

// NewBaidu creates a Baidu ERNIE adapter.
func NewBaidu(opts ...Option) *Baidu {
	return &Baidu{base: newBase("baidu", "Baidu ERNIE", DefaultBaiduURL, opts)}
}

// BaiduEndpoint returns the chat path segment for model.
func BaiduEndpoint(model string) string {
	if ep, ok := baiduEndpoints[model]; ok {
		return ep
	}
	return model
}

// Chat implements Adapter.
func (b *Baidu) Chat(ctx context.Context, req Request) (string, error) {
	return b.cachedCall(ctx, req, func(ctx context.Context) (string, error) {
		token, err := b.AccessToken(ctx, req.Credentials)
		if err != nil {
			return "", err
		}

		endpoint := fmt.Sprintf("%s/rpc/2.0/ai_custom/v1/wenxinworkshop/chat/%s?access_token=%s",
			b.baseURL, url.PathEscape(BaiduEndpoint(req.Model)), url.QueryEscape(token))

		var resp models.BaiduChatResponse
		if err := b.postJSON(ctx, b.chatTimeout, endpoint, nil, baiduRequest(req.Messages), &resp); err != nil {
			return "", err
		}
		if resp.ErrorCode != 0 {
			return "", fmt.Errorf("baidu error %d: %s", resp.ErrorCode, resp.ErrorMsg)
		}
		return resp.Result, nil
	})
}

// AccessToken performs the client-credentials exchange.
func (b *Baidu) AccessToken(ctx context.Context, creds models.Credentials) (string, error) {
	q := url.Values{}
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", creds.APIKey)
	q.Set("client_secret", creds.SecretKey)
	endpoint := b.baseURL + "/oauth/2.0/token?" + q.Encode()

	var resp models.BaiduTokenResponse
	if err := b.postJSON(ctx, b.authTimeout, endpoint, nil, nil, &resp); err != nil {
		return "", &AuthError{Provider: "Baidu", Err: err}
	}
	if resp.AccessToken == "" {
		cause := errors.New("token response carried no access_token")
		if resp.Error != "" {
			cause = fmt.Errorf("%s: %s", resp.Error, resp.ErrorDescription)
		}
		return "", &AuthError{Provider: "Baidu", Err: cause}
	}
	return resp.AccessToken, nil
}

// baiduRequest collapses every non-user role to "assistant".
func baiduRequest(msgs []models.Message) models.BaiduChatRequest {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		role := models.RoleAssistant
		if m.Role == models.RoleUser {
			role = models.RoleUser
		}
		out = append(out, models.Message{Role: role, Content: m.Content})
	}
	return models.BaiduChatRequest{Messages: out}
}
