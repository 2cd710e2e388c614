package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// jsonClient issues raw JSON calls for endpoints no typed SDK covers.
type jsonClient struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	headers    func(req *http.Request)
}

func newJSONClient(provider, baseURL string, o options, headers func(req *http.Request)) *jsonClient {
	return &jsonClient{
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: o.httpClient,
		logger:     o.logger,
		headers:    headers,
	}
}

func bearer(apiKey string) func(req *http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

func (c *jsonClient) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *jsonClient) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("upstream POST",
		zap.String("provider", c.provider),
		zap.String("path", redactQuery(path)),
		zap.Int("payload_bytes", len(body)),
	)
	return c.do(req)
}

func (c *jsonClient) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("upstream GET",
		zap.String("provider", c.provider),
		zap.String("path", redactQuery(path)),
	)
	return c.do(req)
}

func (c *jsonClient) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Accept", "application/json")
	if c.headers != nil {
		c.headers(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = fmt.Errorf("%s %s: %w", urlErr.Op, redactQuery(urlErr.URL), urlErr.Err)
		}
		return nil, upstreamTransportError(c.provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstreamTransportError(c.provider, fmt.Errorf("failed to read response body: %w", err))
	}

	raw := asJSON(body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstreamStatusError(c.provider, resp.StatusCode, raw)
	}
	return raw, nil
}

// asJSON keeps valid JSON verbatim and wraps anything else as {"text": body}.
func asJSON(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("{}")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	wrapped, err := json.Marshal(map[string]string{"text": string(body)})
	if err != nil {
		return json.RawMessage("{}")
	}
	return wrapped
}

// redactQuery drops query strings so API keys passed as parameters never reach logs.
func redactQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
