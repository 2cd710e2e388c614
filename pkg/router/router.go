// Package router builds provider adapters from configuration or from a
// per-request override and picks which one serves each call.
package router

import (
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/zen-systems/mediagate/pkg/adapter"
	"github.com/zen-systems/mediagate/pkg/config"
	"github.com/zen-systems/mediagate/pkg/metrics"
)

type family int

const (
	familyXAI family = iota
	familyOpenAI
	familyGemini
	familyClaude
	familyMock
)

// Provider describes a provider name the factory recognizes.
type Provider struct {
	Name       string
	BaseURL    string
	TextModel  string
	ImageModel string
	family     family
}

var knownProviders = map[string]Provider{
	"xai":        {Name: "xai", BaseURL: config.DefaultXAIBaseURL, family: familyXAI},
	"openai":     {Name: "openai", BaseURL: "https://api.openai.com", TextModel: "gpt-4o", ImageModel: "dall-e-3", family: familyOpenAI},
	"gemini":     {Name: "gemini", BaseURL: "https://generativelanguage.googleapis.com", family: familyGemini},
	"claude":     {Name: "claude", BaseURL: "https://api.anthropic.com", family: familyClaude},
	"groq":       {Name: "groq", BaseURL: "https://api.groq.com/openai", TextModel: "llama-3.3-70b-versatile", family: familyOpenAI},
	"together":   {Name: "together", BaseURL: "https://api.together.xyz", TextModel: "meta-llama/Llama-3.3-70B-Instruct-Turbo", family: familyOpenAI},
	"fireworks":  {Name: "fireworks", BaseURL: "https://api.fireworks.ai/inference", TextModel: "accounts/fireworks/models/llama-v3p3-70b-instruct", family: familyOpenAI},
	"mistral":    {Name: "mistral", BaseURL: "https://api.mistral.ai", TextModel: "mistral-large-latest", family: familyOpenAI},
	"perplexity": {Name: "perplexity", BaseURL: "https://api.perplexity.ai", TextModel: "llama-3.1-sonar-large-128k-online", family: familyOpenAI},
	"deepseek":   {Name: "deepseek", BaseURL: "https://api.deepseek.com", TextModel: "deepseek-chat", family: familyOpenAI},
	"mock":       {Name: "mock", family: familyMock},
}

// Option configures how adapters are built.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	httpClient *http.Client
	collector  *metrics.Collector
}

// WithLogger sets the logger handed to built adapters.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHTTPClient sets the HTTP client handed to built adapters.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithMetrics wraps every built adapter with the instrumented decorator.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.collector = c
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

func (o options) adapterOptions(provider string, extra ...adapter.Option) []adapter.Option {
	out := []adapter.Option{adapter.WithLogger(o.logger.With(zap.String("provider", provider)))}
	if o.httpClient != nil {
		out = append(out, adapter.WithHTTPClient(o.httpClient))
	}
	return append(out, extra...)
}

// Canonical trims and lowercases a provider name and resolves aliases.
func Canonical(name string) string {
	return config.CanonicalProvider(name)
}

// Lookup returns the known provider for name, after canonicalization.
func Lookup(name string) (Provider, bool) {
	p, ok := knownProviders[Canonical(name)]
	return p, ok
}

// Known returns every recognized provider, sorted by name.
func Known() []Provider {
	out := make([]Provider, 0, len(knownProviders))
	for _, p := range knownProviders {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// KeyEnv returns the environment variable holding a provider's credential.
func KeyEnv(name string) string {
	return strings.ToUpper(Canonical(name)) + "_API_KEY"
}

// Build creates the process-wide default adapter from configuration.
func Build(cfg *config.Config, opts ...Option) (adapter.Adapter, error) {
	o := buildOptions(opts)
	name := Canonical(cfg.Provider)

	p, ok := knownProviders[name]
	if !ok {
		return nil, adapter.NewError(adapter.KindUnsupportedProvider, "", "unsupported provider: %s", name)
	}

	key := cfg.APIKey(name)
	if p.family != familyMock && key == "" {
		return nil, adapter.NewError(adapter.KindConfiguration, name, "missing %s for %s provider", KeyEnv(name), name)
	}

	var extra []adapter.Option
	if p.family == familyXAI {
		extra = append(extra,
			adapter.WithBaseURL(cfg.XAI.BaseURL),
			adapter.WithTextModel(cfg.XAI.TextModel),
			adapter.WithImageModel(cfg.XAI.ImageModel),
			adapter.WithVideoModel(cfg.XAI.VideoModel),
		)
	}

	a, err := build(p, key, o, extra...)
	if err != nil {
		return nil, err
	}
	o.logger.Info("provider configured", zap.String("provider", a.Name()))
	return metrics.Instrument(a, o.collector), nil
}

// BuildDynamic creates a request-scoped adapter. Unknown names are served by a
// generic OpenAI-compatible adapter when baseURL is given.
func BuildDynamic(name, apiKey, baseURL string, opts ...Option) (adapter.Adapter, error) {
	o := buildOptions(opts)
	name = Canonical(name)
	apiKey = strings.TrimSpace(apiKey)
	baseURL = strings.TrimSpace(baseURL)

	if name == "" {
		return nil, adapter.NewError(adapter.KindUnsupportedProvider, "", "provider name is required")
	}
	if apiKey == "" {
		return nil, adapter.NewError(adapter.KindConfiguration, name, "API key is required")
	}

	if p, ok := knownProviders[name]; ok {
		a, err := build(p, apiKey, o)
		if err != nil {
			return nil, err
		}
		return metrics.Instrument(a, o.collector), nil
	}

	if baseURL == "" {
		return nil, adapter.NewError(adapter.KindUnsupportedProvider, "",
			"unknown provider %q: supply X-Provider-URL for OpenAI-compatible endpoints", name)
	}

	o.logger.Info("routing unknown provider via OpenAI-compatible adapter",
		zap.String("provider", name),
		zap.String("base_url", baseURL),
	)
	a, err := adapter.NewOpenAIAdapter(name, baseURL, apiKey, o.adapterOptions(name)...)
	if err != nil {
		return nil, err
	}
	return metrics.InstrumentAs(a, o.collector, metrics.CustomProvider), nil
}

func build(p Provider, key string, o options, extra ...adapter.Option) (adapter.Adapter, error) {
	switch p.family {
	case familyXAI:
		return adapter.NewXAIAdapter(key, o.adapterOptions(p.Name, extra...)...)
	case familyGemini:
		return adapter.NewGoogleAdapter(key, o.adapterOptions(p.Name, extra...)...)
	case familyClaude:
		return adapter.NewAnthropicAdapter(key, o.adapterOptions(p.Name, extra...)...)
	case familyMock:
		return adapter.NewMockAdapter(), nil
	default:
		extra = append([]adapter.Option{
			adapter.WithTextModel(p.TextModel),
			adapter.WithImageModel(p.ImageModel),
		}, extra...)
		return adapter.NewOpenAIAdapter(p.Name, p.BaseURL, key, o.adapterOptions(p.Name, extra...)...)
	}
}
