package adapter

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlankPromptRejectedWithoutIO(t *testing.T) {
	t.Parallel()

	constructors := map[string]func(t *testing.T) (Adapter, error){
		"xai": func(t *testing.T) (Adapter, error) {
			return NewXAIAdapter("k", WithHTTPClient(failingClient(t)))
		},
		"openai": func(t *testing.T) (Adapter, error) {
			return NewOpenAIAdapter("openai", "https://api.openai.com", "k",
				WithHTTPClient(failingClient(t)), WithImageModel("dall-e-3"))
		},
		"gemini": func(t *testing.T) (Adapter, error) {
			return NewGoogleAdapter("k", WithHTTPClient(failingClient(t)))
		},
		"claude": func(t *testing.T) (Adapter, error) {
			return NewAnthropicAdapter("k", WithHTTPClient(failingClient(t)))
		},
		"mock": func(t *testing.T) (Adapter, error) {
			return NewMockAdapter(), nil
		},
	}

	ops := map[string]func(a Adapter, prompt string) error{
		"text": func(a Adapter, prompt string) error {
			_, err := a.GenerateText(context.Background(), TextRequest{Prompt: prompt})
			return err
		},
		"image": func(a Adapter, prompt string) error {
			_, err := a.GenerateImage(context.Background(), ImageRequest{Prompt: prompt})
			return err
		},
		"video": func(a Adapter, prompt string) error {
			_, err := a.GenerateVideo(context.Background(), VideoRequest{Prompt: prompt})
			return err
		},
	}

	// Operations the adapter does not implement report that instead.
	unsupported := map[string]bool{
		"openai/video": true,
		"gemini/video": true,
		"claude/image": true,
		"claude/video": true,
	}

	for provider, newAdapter := range constructors {
		for op, call := range ops {
			t.Run(provider+"/"+op, func(t *testing.T) {
				t.Parallel()
				a, err := newAdapter(t)
				require.NoError(t, err)

				for _, prompt := range []string{"", "  \n\t"} {
					err := call(a, prompt)
					require.Error(t, err)
					if unsupported[provider+"/"+op] {
						assert.ErrorIs(t, err, ErrUnsupportedOperation)
						continue
					}
					assert.ErrorIs(t, err, ErrValidation)
					assert.Contains(t, err.Error(), "prompt")
				}
			})
		}
	}
}

func TestMalformedSuccessBodyIsUpstreamError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		call func(t *testing.T, baseURL string) error
	}{
		{
			name: "openai text",
			body: `{"choices": "oops"}`,
			call: func(t *testing.T, baseURL string) error {
				a, err := NewOpenAIAdapter("groq", baseURL, "k")
				require.NoError(t, err)
				_, err = a.GenerateText(context.Background(), TextRequest{Prompt: "hi"})
				return err
			},
		},
		{
			name: "openai image",
			body: `{"data": "oops"}`,
			call: func(t *testing.T, baseURL string) error {
				a, err := NewOpenAIAdapter("openai", baseURL, "k", WithImageModel("dall-e-3"))
				require.NoError(t, err)
				_, err = a.GenerateImage(context.Background(), ImageRequest{Prompt: "a fox"})
				return err
			},
		},
		{
			name: "gemini text",
			body: `{"candidates": "oops"}`,
			call: func(t *testing.T, baseURL string) error {
				a, err := NewGoogleAdapter("k", WithBaseURL(baseURL))
				require.NoError(t, err)
				_, err = a.GenerateText(context.Background(), TextRequest{Prompt: "hi"})
				return err
			},
		},
		{
			name: "gemini image",
			body: `{"predictions": "oops"}`,
			call: func(t *testing.T, baseURL string) error {
				a, err := NewGoogleAdapter("k", WithBaseURL(baseURL))
				require.NoError(t, err)
				_, err = a.GenerateImage(context.Background(), ImageRequest{Prompt: "a fox"})
				return err
			},
		},
		{
			name: "claude text",
			body: `{"content": "oops"}`,
			call: func(t *testing.T, baseURL string) error {
				a, err := NewAnthropicAdapter("k", WithBaseURL(baseURL))
				require.NoError(t, err)
				_, err = a.GenerateText(context.Background(), TextRequest{Prompt: "hi"})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, _ := newUpstream(t, func(string) (int, string) {
				return http.StatusOK, tt.body
			})

			err := tt.call(t, srv.URL)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstream)
			kind, ok := KindOf(err)
			assert.True(t, ok)
			assert.Equal(t, KindUpstream, kind)
			assert.False(t, IsTransient(err))
			assert.Contains(t, err.Error(), "failed to parse response")
		})
	}
}
