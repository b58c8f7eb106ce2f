package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/models"
)

const (
	imageModel = "dall-e-3"
	imageSize  = "1024x1024"
)

// ImageClient generates images with the OpenAI images API.
type ImageClient struct {
	base
}

// NewImageClient creates an ImageClient. It shares the OpenAI base URL.
func NewImageClient(opts ...Option) *ImageClient {
	return &ImageClient{base: newBase("openai-images", "image generation", DefaultOpenAIURL, opts)}
}

// ImageError keeps the upstream cause while presenting a fixed message.
type ImageError struct {
	Err error
}

func (e *ImageError) Error() string { return "failed to generate image" }
func (e *ImageError) Unwrap() error { return e.Err }

// Generate returns the URL of a single generated image for prompt.
func (c *ImageClient) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if apiKey == "" {
		return "", ErrAPIKeyRequired
	}

	body := models.OpenAIImageRequest{
		Model:  imageModel,
		Prompt: prompt,
		N:      1,
		Size:   imageSize,
	}

	var resp models.OpenAIImageResponse
	if err := c.postJSON(ctx, ImageTimeout, c.baseURL+"/images/generations", bearer(apiKey), body, &resp); err != nil {
		c.logger.Error("image generation failed", zap.Error(err))
		return "", &ImageError{Err: err}
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		c.logger.Error("image generation failed", zap.Error(errEmptyReply))
		return "", &ImageError{Err: errEmptyReply}
	}
	return resp.Data[0].URL, nil
}
