package adapter

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 180 * time.Second

// Option configures an adapter at construction time.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *zap.Logger
	baseURL    string
	textModel  string
	imageModel string
	videoModel string
}

// WithHTTPClient sets the client used for outbound calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBaseURL overrides the provider's API root.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithTextModel sets the default text model.
func WithTextModel(m string) Option {
	return func(o *options) {
		o.textModel = m
	}
}

// WithImageModel sets the default image model.
func WithImageModel(m string) Option {
	return func(o *options) {
		o.imageModel = m
	}
}

// WithVideoModel sets the default video model.
func WithVideoModel(m string) Option {
	return func(o *options) {
		o.videoModel = m
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
