package models

// OpenAIImageRequest is an OpenAI /v1/images/generations request.
type OpenAIImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

// OpenAIImageResponse is an OpenAI /v1/images/generations response.
type OpenAIImageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GeminiPart is a single text part of a Gemini content block.
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiContent is one turn in a Gemini conversation.
// Role is "user" or "model".
type GeminiContent struct {
	Role  string       `json:"role"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiRequest is a Gemini generateContent request.
type GeminiRequest struct {
	Contents []GeminiContent `json:"contents"`
}

// GeminiCandidate is one generated candidate.
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

// GeminiResponse is a Gemini generateContent response.
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
}

// BaiduTokenResponse is the Baidu OAuth client-credentials response.
type BaiduTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// BaiduChatRequest is a Wenxin workshop chat request. Roles are "user" or "assistant".
type BaiduChatRequest struct {
	Messages []Message `json:"messages"`
}

// BaiduChatResponse is a Wenxin workshop chat response.
type BaiduChatResponse struct {
	ID               string `json:"id"`
	Object           string `json:"object"`
	Created          int64  `json:"created"`
	Result           string `json:"result"`
	IsTruncated      bool   `json:"is_truncated"`
	NeedClearHistory bool   `json:"need_clear_history"`
	Usage            *Usage `json:"usage,omitempty"`
	ErrorCode        int    `json:"error_code,omitempty"`
	ErrorMsg         string `json:"error_msg,omitempty"`
}

// QwenInput wraps the message list of a DashScope request.
type QwenInput struct {
	Messages []Message `json:"messages"`
}

// QwenParameters holds DashScope generation parameters.
type QwenParameters struct {
	ResultFormat string `json:"result_format"`
}

// QwenRequest is a DashScope text-generation request.
type QwenRequest struct {
	Model      string         `json:"model"`
	Input      QwenInput      `json:"input"`
	Parameters QwenParameters `json:"parameters"`
}

// QwenResponse is a DashScope text-generation response.
type QwenResponse struct {
	Output struct {
		Choices []Choice `json:"choices"`
	} `json:"output"`
	Usage *struct {
		TotalTokens  int `json:"total_tokens"`
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

// ZhipuRequest is a Zhipu /chat/completions request.
type ZhipuRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// ZhipuResponse is a Zhipu /chat/completions response.
type ZhipuResponse struct {
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage from an LLM response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
