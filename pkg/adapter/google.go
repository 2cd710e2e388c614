package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	geminiName              = "gemini"
	geminiRootURL           = "https://generativelanguage.googleapis.com"
	geminiAPIVersion        = "v1beta"
	geminiDefaultTextModel  = "gemini-2.0-flash"
	geminiDefaultImageModel = "imagen-3.0-generate-002"
	geminiDefaultMaxTokens  = 1024
)

var geminiCatalog = []ModelSummary{
	{ID: "gemini-2.0-flash", OwnedBy: "google"},
	{ID: "gemini-2.0-flash-thinking-exp", OwnedBy: "google"},
	{ID: "imagen-3.0-generate-002", OwnedBy: "google"},
}

// GoogleAdapter implements the Adapter interface for Gemini models.
// Generation uses the REST wire format directly; model listing goes through genai.
type GoogleAdapter struct {
	client     *genai.Client
	raw        *jsonClient
	apiKey     string
	logger     *zap.Logger
	textModel  string
	imageModel string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type imagenRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
}

type imagenResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// NewGoogleAdapter creates a new Google Gemini adapter.
func NewGoogleAdapter(apiKey string, opts ...Option) (*GoogleAdapter, error) {
	if isBlank(apiKey) {
		return nil, newError(KindConfiguration, geminiName, "missing GEMINI_API_KEY for gemini provider")
	}

	o := buildOptions(opts)
	root := strings.TrimRight(firstNonEmpty(o.baseURL, geminiRootURL), "/")

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    root + "/",
			APIVersion: geminiAPIVersion,
		},
	})
	if err != nil {
		return nil, newError(KindConfiguration, geminiName, "failed to create client: %v", err)
	}

	return &GoogleAdapter{
		client:     client,
		raw:        newJSONClient(geminiName, root+"/"+geminiAPIVersion, o, nil),
		apiKey:     apiKey,
		logger:     o.logger,
		textModel:  firstNonEmpty(o.textModel, geminiDefaultTextModel),
		imageModel: firstNonEmpty(o.imageModel, geminiDefaultImageModel),
	}, nil
}

// Name returns the adapter identifier.
func (a *GoogleAdapter) Name() string {
	return geminiName
}

// ListModels lists models through genai, falling back to the built-in catalog.
func (a *GoogleAdapter) ListModels(ctx context.Context) ([]ModelSummary, error) {
	page, err := a.client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		a.logger.Debug("model listing unavailable", zap.String("provider", geminiName), zap.Error(err))
		return catalog(geminiCatalog), nil
	}

	models := make([]ModelSummary, 0, len(page.Items))
	for _, m := range page.Items {
		if m == nil || m.Name == "" {
			continue
		}
		models = append(models, ModelSummary{
			ID:      strings.TrimPrefix(m.Name, "models/"),
			OwnedBy: "google",
		})
	}
	if len(models) == 0 {
		return catalog(geminiCatalog), nil
	}
	return models, nil
}

// GenerateText calls models/{model}:generateContent.
func (a *GoogleAdapter) GenerateText(ctx context.Context, req TextRequest) (*GenerationResponse, error) {
	if err := requirePrompt(geminiName, req.Prompt); err != nil {
		return nil, err
	}

	model := firstNonEmpty(req.Model, a.textModel)
	var parts []geminiPart
	if !isBlank(req.SystemPrompt) {
		parts = append(parts, geminiPart{Text: req.SystemPrompt})
	}
	parts = append(parts, geminiPart{Text: req.Prompt})

	maxTokens := geminiDefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	body := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     req.Temperature,
		},
	}

	raw, err := a.raw.post(ctx, a.modelPath(model, "generateContent"), body)
	if err != nil {
		return nil, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, upstreamDecodeError(geminiName, err)
	}

	var text string
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		text = resp.Candidates[0].Content.Parts[0].Text
	}

	return &GenerationResponse{
		Provider: geminiName,
		Model:    model,
		Status:   StatusCompleted,
		Text:     text,
		Raw:      raw,
	}, nil
}

// GenerateImage calls models/{model}:predict and returns data URLs.
func (a *GoogleAdapter) GenerateImage(ctx context.Context, req ImageRequest) (*GenerationResponse, error) {
	if err := requirePrompt(geminiName, req.Prompt); err != nil {
		return nil, err
	}

	model := firstNonEmpty(req.Model, a.imageModel)
	body := imagenRequest{
		Instances: []imagenInstance{{Prompt: req.Prompt}},
		Parameters: imagenParameters{
			SampleCount: 1,
			AspectRatio: firstNonEmpty(req.AspectRatio, "1:1"),
		},
	}

	raw, err := a.raw.post(ctx, a.modelPath(model, "predict"), body)
	if err != nil {
		return nil, err
	}

	var resp imagenResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, upstreamDecodeError(geminiName, err)
	}

	var media []string
	for _, p := range resp.Predictions {
		if p.BytesBase64Encoded == "" {
			continue
		}
		mime := firstNonEmpty(p.MimeType, "image/png")
		media = append(media, fmt.Sprintf("data:%s;base64,%s", mime, p.BytesBase64Encoded))
	}
	media = normalizeMedia(media)

	return &GenerationResponse{
		Provider:  geminiName,
		Model:     model,
		Status:    mediaStatus(media),
		MediaURLs: media,
		Raw:       raw,
	}, nil
}

// GenerateVideo is not yet implemented for Gemini.
func (a *GoogleAdapter) GenerateVideo(_ context.Context, _ VideoRequest) (*GenerationResponse, error) {
	return nil, newError(KindUnsupportedOperation, geminiName, "video generation is not yet implemented, use the xai provider for video")
}

// VideoStatus is not yet implemented for Gemini.
func (a *GoogleAdapter) VideoStatus(_ context.Context, _ string) (*GenerationResponse, error) {
	return nil, newError(KindUnsupportedOperation, geminiName, "video status is not yet implemented")
}

func (a *GoogleAdapter) modelPath(model, method string) string {
	return fmt.Sprintf("models/%s:%s?key=%s", url.PathEscape(model), method, url.QueryEscape(a.apiKey))
}

func catalog(models []ModelSummary) []ModelSummary {
	out := make([]ModelSummary, len(models))
	copy(out, models)
	return out
}
