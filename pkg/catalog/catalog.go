// Package catalog lists the models a user can pick from.
package catalog

import "github.com/nextchat-ai/nextchat/pkg/dispatch"

// Model describes one selectable model.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
}

// Supported reports whether a real adapter serves the model. Unsupported
// models get simulated replies.
func (m Model) Supported() bool {
	_, ok := dispatch.Classify(m.ID)
	return ok
}

var models = []Model{
	{"gpt-4", "GPT-4", "OpenAI", "Most capable GPT-4 model, optimized for chat at 128K context length."},
	{"gpt-4-turbo", "GPT-4 Turbo", "OpenAI", "GPT-4 Turbo with improved instruction following and JSON mode."},
	{"gpt-3.5-turbo", "GPT-3.5 Turbo", "OpenAI", "Fast and capable model optimized for chat and traditional completions."},
	{"gemini-pro", "Gemini Pro", "Google", "Google's largest and most capable multimodal model."},
	{"gemini-pro-vision", "Gemini Pro Vision", "Google", "Multimodal model that supports image and text understanding."},
	{"claude-3-opus", "Claude 3 Opus", "Anthropic", "Most powerful model, excels at highly complex tasks."},
	{"claude-3-sonnet", "Claude 3 Sonnet", "Anthropic", "Ideal balance of intelligence and speed."},
	{"ernie-bot-4", "ERNIE Bot 4", "Baidu", "Baidu's most advanced model with enhanced reasoning capabilities."},
	{"ernie-bot", "ERNIE Bot", "Baidu", "Baidu's general-purpose model with balanced performance."},
	{"ernie-bot-turbo", "ERNIE Bot Turbo", "Baidu", "Baidu's faster model with good performance."},
	{"qwen-max", "Qwen Max", "Alibaba", "Alibaba's most capable model for complex tasks."},
	{"qwen-plus", "Qwen Plus", "Alibaba", "Balanced model with good performance and cost."},
	{"qwen-turbo", "Qwen Turbo", "Alibaba", "Alibaba's faster model with good performance."},
	{"glm-4", "GLM-4", "Zhipu AI", "Zhipu AI's most advanced model with strong reasoning capabilities."},
	{"glm-3-turbo", "GLM-3 Turbo", "Zhipu AI", "Zhipu AI's efficient model with good performance."},
	{"spark3", "Spark 3.0", "Iflytek", "Iflytek's latest large model with enhanced capabilities."},
	{"kimi-chat", "Kimi Chat", "Moonshot AI", "Moonshot AI's long-context model supporting 100K tokens."},
	{"deepseek-chat", "DeepSeek Chat", "DeepSeek", "DeepSeek's chat model with strong reasoning capabilities."},
}

// All returns a copy of the catalog in display order.
func All() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Model, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
