package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const (
	claudeName             = "claude"
	claudeRootURL          = "https://api.anthropic.com"
	claudeDefaultModel     = "claude-sonnet-4-6"
	claudeDefaultMaxTokens = 1024

	// AnthropicVersion is sent on every Messages API call.
	AnthropicVersion = "2023-06-01"
)

var claudeCatalog = []ModelSummary{
	{ID: "claude-opus-4-6", OwnedBy: "anthropic"},
	{ID: "claude-sonnet-4-6", OwnedBy: "anthropic"},
	{ID: "claude-haiku-4-5-20251001", OwnedBy: "anthropic"},
}

// AnthropicAdapter implements the Adapter interface for Claude models.
//
// The Messages API differs from the OpenAI shape: system is a top-level field,
// max_tokens is mandatory, a version header is required, and text comes back
// under content[].text with input/output token counts.
type AnthropicAdapter struct {
	client    anthropic.Client
	raw       *jsonClient
	logger    *zap.Logger
	textModel string
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
	System      string        `json:"system,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicAdapter creates a new Anthropic adapter.
func NewAnthropicAdapter(apiKey string, opts ...Option) (*AnthropicAdapter, error) {
	if isBlank(apiKey) {
		return nil, newError(KindConfiguration, claudeName, "missing CLAUDE_API_KEY for claude provider")
	}

	o := buildOptions(opts)
	root := strings.TrimRight(firstNonEmpty(o.baseURL, claudeRootURL), "/")

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(root+"/"),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
	)

	headers := func(req *http.Request) {
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("anthropic-version", AnthropicVersion)
	}

	return &AnthropicAdapter{
		client:    client,
		raw:       newJSONClient(claudeName, root+"/v1", o, headers),
		logger:    o.logger,
		textModel: firstNonEmpty(o.textModel, claudeDefaultModel),
	}, nil
}

// Name returns the adapter identifier.
func (a *AnthropicAdapter) Name() string {
	return claudeName
}

// ListModels lists models through the SDK, falling back to the built-in catalog.
func (a *AnthropicAdapter) ListModels(ctx context.Context) ([]ModelSummary, error) {
	page, err := a.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		a.logger.Debug("model listing unavailable", zap.String("provider", claudeName), zap.Error(err))
		return catalog(claudeCatalog), nil
	}

	models := make([]ModelSummary, 0, len(page.Data))
	for _, m := range page.Data {
		summary := ModelSummary{ID: m.ID, OwnedBy: "anthropic"}
		if !m.CreatedAt.IsZero() {
			summary.Created = m.CreatedAt.Unix()
		}
		models = append(models, summary)
	}
	if len(models) == 0 {
		return catalog(claudeCatalog), nil
	}
	return models, nil
}

// GenerateText sends a prompt to the Messages API.
func (a *AnthropicAdapter) GenerateText(ctx context.Context, req TextRequest) (*GenerationResponse, error) {
	if err := requirePrompt(claudeName, req.Prompt); err != nil {
		return nil, err
	}

	body := buildMessagesRequest(req, a.textModel)
	raw, err := a.raw.post(ctx, "messages", body)
	if err != nil {
		return nil, err
	}

	var resp messagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, upstreamDecodeError(claudeName, err)
	}

	out := &GenerationResponse{
		Provider: claudeName,
		Model:    body.Model,
		Status:   StatusCompleted,
		ID:       resp.ID,
		Raw:      raw,
	}
	if len(resp.Content) > 0 {
		out.Text = resp.Content[0].Text
	}
	if resp.Usage != nil {
		out.Usage = NewUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens, 0)
	}
	return out, nil
}

// GenerateImage is not offered by Claude.
func (a *AnthropicAdapter) GenerateImage(_ context.Context, _ ImageRequest) (*GenerationResponse, error) {
	return nil, unsupported(claudeName, "image generation")
}

// GenerateVideo is not offered by Claude.
func (a *AnthropicAdapter) GenerateVideo(_ context.Context, _ VideoRequest) (*GenerationResponse, error) {
	return nil, unsupported(claudeName, "video generation")
}

// VideoStatus is not offered by Claude.
func (a *AnthropicAdapter) VideoStatus(_ context.Context, _ string) (*GenerationResponse, error) {
	return nil, unsupported(claudeName, "video generation")
}

func buildMessagesRequest(req TextRequest, defaultModel string) messagesRequest {
	maxTokens := claudeDefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	body := messagesRequest{
		Model:       firstNonEmpty(req.Model, defaultModel),
		MaxTokens:   maxTokens,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	}
	if !isBlank(req.SystemPrompt) {
		body.System = req.SystemPrompt
	}
	return body
}
