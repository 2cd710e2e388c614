package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	xaiName              = "xai"
	xaiBaseURL           = "https://api.x.ai/v1"
	xaiDefaultTextModel  = "grok-3-mini-beta"
	xaiDefaultImageModel = "grok-imagine-image"
	xaiDefaultVideoModel = "grok-imagine-video"
	defaultAspectRatio   = "16:9"
	defaultVideoSeconds  = 8
)

// XAIAdapter implements the Adapter interface for xAI. Chat and model listing
// go through the typed OpenAI client; media endpoints use raw JSON calls.
type XAIAdapter struct {
	client     openai.Client
	raw        *jsonClient
	logger     *zap.Logger
	textModel  string
	imageModel string
	videoModel string
}

// NewXAIAdapter creates a new xAI adapter.
func NewXAIAdapter(apiKey string, opts ...Option) (*XAIAdapter, error) {
	if isBlank(apiKey) {
		return nil, newError(KindConfiguration, xaiName, "missing XAI_API_KEY for xai provider")
	}

	o := buildOptions(opts)
	baseURL := strings.TrimRight(firstNonEmpty(o.baseURL, xaiBaseURL), "/")

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL+"/"),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
	)

	return &XAIAdapter{
		client:     client,
		raw:        newJSONClient(xaiName, baseURL, o, bearer(apiKey)),
		logger:     o.logger,
		textModel:  firstNonEmpty(o.textModel, xaiDefaultTextModel),
		imageModel: firstNonEmpty(o.imageModel, xaiDefaultImageModel),
		videoModel: firstNonEmpty(o.videoModel, xaiDefaultVideoModel),
	}, nil
}

// Name returns the adapter identifier.
func (a *XAIAdapter) Name() string {
	return xaiName
}

// ListModels returns the models visible to the API key.
func (a *XAIAdapter) ListModels(ctx context.Context) ([]ModelSummary, error) {
	page, err := a.client.Models.List(ctx)
	if err != nil {
		return nil, sdkError(xaiName, err)
	}

	models := make([]ModelSummary, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, ModelSummary{ID: m.ID, OwnedBy: m.OwnedBy, Created: m.Created})
	}
	return models, nil
}

// GenerateText issues a chat completion and joins every returned choice.
func (a *XAIAdapter) GenerateText(ctx context.Context, req TextRequest) (*GenerationResponse, error) {
	if err := requirePrompt(xaiName, req.Prompt); err != nil {
		return nil, err
	}

	model := firstNonEmpty(req.Model, a.textModel)
	var messages []openai.ChatCompletionMessageParamUnion
	if !isBlank(req.SystemPrompt) {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, sdkError(xaiName, err)
	}

	parts := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		if choice.Message.Content != "" {
			parts = append(parts, choice.Message.Content)
		}
	}

	raw := json.RawMessage(resp.RawJSON())
	if len(raw) == 0 || !json.Valid(raw) {
		if raw, err = json.Marshal(resp); err != nil {
			return nil, fmt.Errorf("xai: failed to encode response: %w", err)
		}
	}

	return &GenerationResponse{
		Provider: xaiName,
		Model:    model,
		Status:   StatusCompleted,
		ID:       resp.ID,
		Text:     strings.Join(parts, "\n"),
		Usage: NewUsage(
			int(resp.Usage.PromptTokens),
			int(resp.Usage.CompletionTokens),
			int(resp.Usage.TotalTokens),
		),
		Raw: raw,
	}, nil
}

// GenerateImage posts to images/generations.
func (a *XAIAdapter) GenerateImage(ctx context.Context, req ImageRequest) (*GenerationResponse, error) {
	if err := requirePrompt(xaiName, req.Prompt); err != nil {
		return nil, err
	}

	model := firstNonEmpty(req.Model, a.imageModel)
	payload := map[string]any{
		"model":           model,
		"prompt":          req.Prompt,
		"aspect_ratio":    firstNonEmpty(req.AspectRatio, defaultAspectRatio),
		"response_format": firstNonEmpty(req.ResponseFormat, "url"),
	}
	if req.ImageURLs != nil {
		payload["image_urls"] = req.ImageURLs
	}

	raw, err := a.raw.post(ctx, "images/generations", payload)
	if err != nil {
		return nil, err
	}
	return normalizeJob(xaiName, model, "", raw), nil
}

// GenerateVideo submits a job to videos/generations.
func (a *XAIAdapter) GenerateVideo(ctx context.Context, req VideoRequest) (*GenerationResponse, error) {
	if err := requirePrompt(xaiName, req.Prompt); err != nil {
		return nil, err
	}

	model := firstNonEmpty(req.Model, a.videoModel)
	duration := defaultVideoSeconds
	if req.DurationSeconds != nil {
		duration = *req.DurationSeconds
	}
	payload := map[string]any{
		"model":        model,
		"prompt":       req.Prompt,
		"aspect_ratio": firstNonEmpty(req.AspectRatio, defaultAspectRatio),
		"duration":     duration,
	}
	if req.ImageURLs != nil {
		payload["image_urls"] = req.ImageURLs
	}

	raw, err := a.raw.post(ctx, "videos/generations", payload)
	if err != nil {
		return nil, err
	}

	resp := normalizeJob(xaiName, model, "", raw)
	a.logger.Info("video generation submitted",
		zap.String("id", resp.ID),
		zap.String("model", model),
		zap.String("status", resp.Status),
	)
	return resp, nil
}

// VideoStatus polls videos/{id}.
func (a *XAIAdapter) VideoStatus(ctx context.Context, id string) (*GenerationResponse, error) {
	if err := requireID(xaiName, id); err != nil {
		return nil, err
	}

	raw, err := a.raw.get(ctx, "videos/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return normalizeJob(xaiName, a.videoModel, id, raw), nil
}

// sdkError maps typed-client failures onto the adapter taxonomy.
func sdkError(provider string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &AdapterError{
			Kind:     KindUpstream,
			Provider: provider,
			Status:   apiErr.StatusCode,
			Body:     apiErr.RawJSON(),
			Err:      fmt.Errorf("%s API error (%d): %w", provider, apiErr.StatusCode, err),
		}
	}
	return upstreamTransportError(provider, err)
}
