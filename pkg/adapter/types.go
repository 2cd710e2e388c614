package adapter

import "encoding/json"

// Generation statuses reported when the provider does not supply its own.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSubmitted = "submitted"
)

// TextRequest is a chat-style text generation request.
type TextRequest struct {
	Prompt       string   `json:"prompt"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"max_tokens,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
}

// ImageRequest is an image generation request.
type ImageRequest struct {
	Prompt         string   `json:"prompt"`
	Model          string   `json:"model,omitempty"`
	AspectRatio    string   `json:"aspect_ratio,omitempty"`
	ResponseFormat string   `json:"response_format,omitempty"`
	ImageURLs      []string `json:"image_urls,omitempty"`
}

// VideoRequest is a video generation request.
type VideoRequest struct {
	Prompt          string   `json:"prompt"`
	Model           string   `json:"model,omitempty"`
	AspectRatio     string   `json:"aspect_ratio,omitempty"`
	DurationSeconds *int     `json:"duration_seconds,omitempty"`
	ImageURLs       []string `json:"image_urls,omitempty"`
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage builds a Usage, summing prompt and completion when total is unknown.
func NewUsage(prompt, completion, total int) *Usage {
	if total == 0 {
		total = prompt + completion
	}
	return &Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      total,
	}
}

// ModelSummary describes one model offered by a provider.
type ModelSummary struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
	Created int64  `json:"created"`
}

// GenerationResponse is the normalized result of every adapter operation.
type GenerationResponse struct {
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	Status    string          `json:"status"`
	ID        string          `json:"id,omitempty"`
	Text      string          `json:"text,omitempty"`
	Usage     *Usage          `json:"usage,omitempty"`
	MediaURLs []string        `json:"media_urls,omitempty"`
	Raw       json.RawMessage `json:"raw"`
}
