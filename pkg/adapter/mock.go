package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	responses       map[string]string
	defaultResponse string
	Usage           *Usage
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse}
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// ListModels returns the mock model catalog.
func (a *MockAdapter) ListModels(_ context.Context) ([]ModelSummary, error) {
	return []ModelSummary{
		{ID: "mock-1", OwnedBy: "mock"},
		{ID: "mock-image-1", OwnedBy: "mock"},
		{ID: "mock-video-1", OwnedBy: "mock"},
	}, nil
}

// GenerateText returns a deterministic completion for the prompt.
func (a *MockAdapter) GenerateText(_ context.Context, req TextRequest) (*GenerationResponse, error) {
	if err := requirePrompt(a.Name(), req.Prompt); err != nil {
		return nil, err
	}
	model := firstNonEmpty(req.Model, "mock-1")
	content, ok := a.responses[req.Prompt]
	if !ok {
		content = fmt.Sprintf("%s\n%s", a.defaultResponse, req.Prompt)
	}
	resp := &GenerationResponse{
		Provider: a.Name(),
		Model:    model,
		Status:   StatusCompleted,
		ID:       mockID("text", req.Prompt),
		Text:     content,
		Usage:    a.Usage,
	}
	resp.Raw = mockRaw(map[string]any{"id": resp.ID, "text": content})
	return resp, nil
}

// GenerateImage returns a single deterministic image URL.
func (a *MockAdapter) GenerateImage(_ context.Context, req ImageRequest) (*GenerationResponse, error) {
	if err := requirePrompt(a.Name(), req.Prompt); err != nil {
		return nil, err
	}
	id := mockID("image", req.Prompt)
	media := []string{"https://mock.invalid/images/" + id + ".png"}
	return &GenerationResponse{
		Provider:  a.Name(),
		Model:     firstNonEmpty(req.Model, "mock-image-1"),
		Status:    StatusCompleted,
		ID:        id,
		MediaURLs: media,
		Raw:       mockRaw(map[string]any{"id": id, "data": []map[string]string{{"url": media[0]}}}),
	}, nil
}

// GenerateVideo returns a submitted job whose id is derived from the prompt.
func (a *MockAdapter) GenerateVideo(_ context.Context, req VideoRequest) (*GenerationResponse, error) {
	if err := requirePrompt(a.Name(), req.Prompt); err != nil {
		return nil, err
	}
	id := mockID("video", req.Prompt)
	return &GenerationResponse{
		Provider: a.Name(),
		Model:    firstNonEmpty(req.Model, "mock-video-1"),
		Status:   StatusSubmitted,
		ID:       id,
		Raw:      mockRaw(map[string]any{"request_id": id}),
	}, nil
}

// VideoStatus reports every job as completed.
func (a *MockAdapter) VideoStatus(_ context.Context, id string) (*GenerationResponse, error) {
	if err := requireID(a.Name(), id); err != nil {
		return nil, err
	}
	media := []string{"https://mock.invalid/videos/" + id + ".mp4"}
	return &GenerationResponse{
		Provider:  a.Name(),
		Model:     "mock-video-1",
		Status:    StatusCompleted,
		ID:        id,
		MediaURLs: media,
		Raw:       mockRaw(map[string]any{"id": id, "status": StatusCompleted, "url": media[0]}),
	}, nil
}

func mockID(kind, prompt string) string {
	h := sha256.Sum256([]byte(kind + "\x00" + prompt))
	return kind + "-" + hex.EncodeToString(h[:])[:12]
}

func mockRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}
