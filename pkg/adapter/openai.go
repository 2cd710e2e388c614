package adapter

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

const defaultCompatTextModel = "gpt-4o-mini"

// OpenAIAdapter implements the Adapter interface for any vendor speaking the
// OpenAI chat/images wire format (OpenAI, Groq, Together, DeepSeek, ...).
type OpenAIAdapter struct {
	name       string
	textModel  string
	imageModel string
	client     *jsonClient
	logger     *zap.Logger
}

// chatRequest represents the OpenAI-compatible request format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// chatMessage represents a chat message.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents the OpenAI-compatible response format.
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type imagesRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imagesResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type modelsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		OwnedBy string `json:"owned_by"`
		Created int64  `json:"created"`
	} `json:"data"`
}

// NewOpenAIAdapter creates an OpenAI-compatible adapter named name that talks to baseURL.
func NewOpenAIAdapter(name, baseURL, apiKey string, opts ...Option) (*OpenAIAdapter, error) {
	if isBlank(name) {
		return nil, newError(KindConfiguration, "", "provider name is required")
	}
	if isBlank(apiKey) {
		return nil, newError(KindConfiguration, name, "API key is required")
	}
	if isBlank(baseURL) {
		return nil, newError(KindConfiguration, name, "base URL is required")
	}

	o := buildOptions(opts)
	return &OpenAIAdapter{
		name:       name,
		textModel:  firstNonEmpty(o.textModel, defaultCompatTextModel),
		imageModel: o.imageModel,
		client:     newJSONClient(name, baseURL, o, bearer(apiKey)),
		logger:     o.logger,
	}, nil
}

// Name returns the adapter identifier.
func (a *OpenAIAdapter) Name() string {
	return a.name
}

// BaseURL returns the API root the adapter targets.
func (a *OpenAIAdapter) BaseURL() string {
	return a.client.baseURL
}

// ListModels queries /v1/models and falls back to the default text model when
// the vendor does not expose a listing.
func (a *OpenAIAdapter) ListModels(ctx context.Context) ([]ModelSummary, error) {
	fallback := []ModelSummary{{ID: a.textModel, OwnedBy: a.name}}

	raw, err := a.client.get(ctx, "/v1/models")
	if err != nil {
		a.logger.Debug("model listing unavailable", zap.String("provider", a.name), zap.Error(err))
		return fallback, nil
	}

	var resp modelsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fallback, nil
	}

	models := make([]ModelSummary, 0, len(resp.Data))
	for _, m := range resp.Data {
		if m.ID == "" {
			continue
		}
		models = append(models, ModelSummary{ID: m.ID, OwnedBy: m.OwnedBy, Created: m.Created})
	}
	return models, nil
}

// GenerateText posts to /v1/chat/completions.
func (a *OpenAIAdapter) GenerateText(ctx context.Context, req TextRequest) (*GenerationResponse, error) {
	if err := requirePrompt(a.name, req.Prompt); err != nil {
		return nil, err
	}

	model := firstNonEmpty(req.Model, a.textModel)
	body := chatRequest{
		Model:       model,
		Messages:    chatMessages(req.SystemPrompt, req.Prompt),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	raw, err := a.client.post(ctx, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, upstreamDecodeError(a.name, err)
	}

	out := &GenerationResponse{
		Provider: a.name,
		Model:    model,
		Status:   StatusCompleted,
		ID:       resp.ID,
		Raw:      raw,
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	if resp.Usage != nil {
		out.Usage = NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}
	return out, nil
}

// GenerateImage posts to /v1/images/generations.
func (a *OpenAIAdapter) GenerateImage(ctx context.Context, req ImageRequest) (*GenerationResponse, error) {
	if err := requirePrompt(a.name, req.Prompt); err != nil {
		return nil, err
	}
	model := firstNonEmpty(req.Model, a.imageModel)
	if model == "" {
		return nil, newError(KindConfiguration, a.name, "no image model configured")
	}

	body := imagesRequest{
		Model:          model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           AspectToSize(req.AspectRatio),
		ResponseFormat: firstNonEmpty(req.ResponseFormat, "url"),
	}

	raw, err := a.client.post(ctx, "/v1/images/generations", body)
	if err != nil {
		return nil, err
	}

	var resp imagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, upstreamDecodeError(a.name, err)
	}

	var media []string
	for _, item := range resp.Data {
		switch {
		case item.URL != "":
			media = append(media, item.URL)
		case item.B64JSON != "":
			media = append(media, "data:image/png;base64,"+item.B64JSON)
		}
	}
	media = normalizeMedia(media)

	return &GenerationResponse{
		Provider:  a.name,
		Model:     model,
		Status:    mediaStatus(media),
		MediaURLs: media,
		Raw:       raw,
	}, nil
}

// GenerateVideo is not part of the OpenAI-compatible surface.
func (a *OpenAIAdapter) GenerateVideo(_ context.Context, _ VideoRequest) (*GenerationResponse, error) {
	return nil, unsupported(a.name, "video generation via the OpenAI-compatible API")
}

// VideoStatus is not part of the OpenAI-compatible surface.
func (a *OpenAIAdapter) VideoStatus(_ context.Context, _ string) (*GenerationResponse, error) {
	return nil, unsupported(a.name, "video status")
}

// AspectToSize maps an aspect ratio to the closest of the three fixed image sizes.
func AspectToSize(aspect string) string {
	switch aspect {
	case "16:9":
		return "1792x1024"
	case "9:16":
		return "1024x1792"
	default:
		return "1024x1024"
	}
}

func chatMessages(system, prompt string) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if !isBlank(system) {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	return append(messages, chatMessage{Role: "user", Content: prompt})
}
