package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zen-systems/mediagate/pkg/adapter"
)

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c := NewCollector("test", zap.NewNop())

	c.RecordHTTPRequest("GET", "/api/health", 200, 10*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/health", 204, 5*time.Millisecond)
	c.RecordHTTPRequest("POST", "/api/generate/text", 502, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("GET", "/api/health", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/api/generate/text", "5xx")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.httpRequestDuration))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "2xx", statusCode(200))
	assert.Equal(t, "3xx", statusCode(302))
	assert.Equal(t, "4xx", statusCode(404))
	assert.Equal(t, "5xx", statusCode(501))
	assert.Equal(t, "unknown", statusCode(0))
}

func TestInstrument_RecordsOutcomes(t *testing.T) {
	c := NewCollector("test", zap.NewNop())
	mock := adapter.NewMockAdapter()
	mock.Usage = adapter.NewUsage(3, 4, 0)
	a := Instrument(mock, c)

	assert.Equal(t, "mock", a.Name())
	assert.Same(t, a, Instrument(a, c))

	_, err := a.GenerateText(context.Background(), adapter.TextRequest{Prompt: "hi"})
	require.NoError(t, err)
	_, err = a.GenerateText(context.Background(), adapter.TextRequest{})
	require.ErrorIs(t, err, adapter.ErrValidation)
	_, err = a.GenerateImage(context.Background(), adapter.ImageRequest{Prompt: "cat"})
	require.NoError(t, err)
	_, err = a.ListModels(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues("mock", OpText, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues("mock", OpText, "validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues("mock", OpImage, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues("mock", OpListModels, "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.tokensUsed.WithLabelValues("mock", "prompt")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.tokensUsed.WithLabelValues("mock", "completion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mediaURLs.WithLabelValues("mock", OpImage)))
}

func TestInstrumentAs_FixedProviderLabel(t *testing.T) {
	c := NewCollector("test", zap.NewNop())
	mock := adapter.NewMockAdapter()
	mock.Usage = adapter.NewUsage(1, 1, 0)
	a := InstrumentAs(mock, c, CustomProvider)

	assert.Equal(t, "mock", a.Name())
	for _, model := range []string{"m-1", "m-2", "m-3"} {
		_, err := a.GenerateText(context.Background(), adapter.TextRequest{Prompt: "hi", Model: model})
		require.NoError(t, err)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues(CustomProvider, OpText, "success")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.generationsTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(c.tokensUsed))
}

func TestInstrument_NilCollector(t *testing.T) {
	mock := adapter.NewMockAdapter()
	assert.Same(t, adapter.Adapter(mock), Instrument(mock, nil))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("mediagate", zap.NewNop())
	c.RecordGeneration("xai", OpVideo, "success", time.Second)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `mediagate_generations_total{operation="video",outcome="success",provider="xai"} 1`))
}
