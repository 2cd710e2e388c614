package adapter

import (
	"context"
)

// Adapter defines the interface for generation provider adapters.
type Adapter interface {
	// Name returns the adapter's identifier.
	Name() string

	// ListModels returns the models the provider exposes.
	ListModels(ctx context.Context) ([]ModelSummary, error)

	// GenerateText sends a chat-style prompt and returns the completion.
	GenerateText(ctx context.Context, req TextRequest) (*GenerationResponse, error)

	// GenerateImage submits an image generation request.
	GenerateImage(ctx context.Context, req ImageRequest) (*GenerationResponse, error)

	// GenerateVideo submits an asynchronous video generation job.
	GenerateVideo(ctx context.Context, req VideoRequest) (*GenerationResponse, error)

	// VideoStatus polls a video generation job by id.
	VideoStatus(ctx context.Context, id string) (*GenerationResponse, error)
}

// requirePrompt is shared by every adapter so empty prompts never reach the wire.
func requirePrompt(provider, prompt string) error {
	if isBlank(prompt) {
		return newError(KindValidation, provider, "prompt is required")
	}
	return nil
}

func requireID(provider, id string) error {
	if isBlank(id) {
		return newError(KindValidation, provider, "video generation id is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if !isBlank(v) {
			return v
		}
	}
	return ""
}
