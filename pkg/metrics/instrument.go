package metrics

import (
	"context"
	"time"

	"github.com/zen-systems/mediagate/pkg/adapter"
	"go.uber.org/zap"
)

// Operation labels.
const (
	OpListModels  = "list_models"
	OpText        = "text"
	OpImage       = "image"
	OpVideo       = "video"
	OpVideoStatus = "video_status"
)

// CustomProvider labels adapters whose name came from the caller.
const CustomProvider = "custom"

type instrumented struct {
	next     adapter.Adapter
	c        *Collector
	provider string
}

// Instrument wraps an adapter so that every operation is counted and timed
// under the adapter's name. A nil collector returns the adapter unchanged.
func Instrument(a adapter.Adapter, c *Collector) adapter.Adapter {
	if a == nil {
		return a
	}
	return InstrumentAs(a, c, a.Name())
}

// InstrumentAs is Instrument with an explicit provider label.
func InstrumentAs(a adapter.Adapter, c *Collector, provider string) adapter.Adapter {
	if c == nil || a == nil {
		return a
	}
	if _, ok := a.(*instrumented); ok {
		return a
	}
	return &instrumented{next: a, c: c, provider: provider}
}

func (i *instrumented) Name() string {
	return i.next.Name()
}

func (i *instrumented) ListModels(ctx context.Context) ([]adapter.ModelSummary, error) {
	start := time.Now()
	models, err := i.next.ListModels(ctx)
	i.c.RecordGeneration(i.provider, OpListModels, outcome(err), time.Since(start))
	return models, err
}

func (i *instrumented) GenerateText(ctx context.Context, req adapter.TextRequest) (*adapter.GenerationResponse, error) {
	start := time.Now()
	resp, err := i.next.GenerateText(ctx, req)
	i.observe(OpText, start, resp, err)
	return resp, err
}

func (i *instrumented) GenerateImage(ctx context.Context, req adapter.ImageRequest) (*adapter.GenerationResponse, error) {
	start := time.Now()
	resp, err := i.next.GenerateImage(ctx, req)
	i.observe(OpImage, start, resp, err)
	return resp, err
}

func (i *instrumented) GenerateVideo(ctx context.Context, req adapter.VideoRequest) (*adapter.GenerationResponse, error) {
	start := time.Now()
	resp, err := i.next.GenerateVideo(ctx, req)
	i.observe(OpVideo, start, resp, err)
	return resp, err
}

func (i *instrumented) VideoStatus(ctx context.Context, id string) (*adapter.GenerationResponse, error) {
	start := time.Now()
	resp, err := i.next.VideoStatus(ctx, id)
	i.observe(OpVideoStatus, start, resp, err)
	return resp, err
}

func (i *instrumented) observe(op string, start time.Time, resp *adapter.GenerationResponse, err error) {
	provider := i.provider
	i.c.RecordGeneration(provider, op, outcome(err), time.Since(start))
	if err != nil {
		i.c.logger.Debug("provider operation failed",
			zap.String("provider", provider),
			zap.String("operation", op),
			zap.Error(err),
		)
		return
	}
	if resp == nil {
		return
	}
	if resp.Usage != nil {
		i.c.RecordTokens(provider, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	i.c.RecordMedia(provider, op, len(resp.MediaURLs))
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	kind, _ := adapter.KindOf(err)
	return kind.String()
}
