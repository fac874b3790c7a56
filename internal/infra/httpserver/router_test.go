package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appanalysis "github.com/veritaslab/aiprobe/internal/application/analysis"
	domain "github.com/veritaslab/aiprobe/internal/domain/analysis"
	"github.com/veritaslab/aiprobe/internal/domain/providers"
	"github.com/veritaslab/aiprobe/internal/domain/routing"
	memcache "github.com/veritaslab/aiprobe/internal/infra/cache/memory"
)

type fakeProvider struct {
	id     string
	result domain.Result
}

func (p *fakeProvider) Descriptor() providers.Descriptor {
	return providers.Descriptor{
		ID:           p.id,
		ContentTypes: []domain.ContentType{domain.ContentText, domain.ContentURL},
		Tasks:        providers.AllTasks(),
	}
}

func (p *fakeProvider) Available() bool { return true }

func (p *fakeProvider) Analyze(context.Context, domain.Request) domain.Result {
	res := p.result
	res.Provider = p.id
	return res
}

func newTestHandler(t *testing.T, ps ...providers.Provider) http.Handler {
	t.Helper()
	reg := providers.NewRegistry()
	for _, p := range ps {
		require.NoError(t, reg.Register(p))
	}
	router := routing.New(reg, nil, "local")
	cache := memcache.New(time.Minute)
	t.Cleanup(func() { cache.Close() })
	svc := appanalysis.NewService(reg, router, cache, nil, nil, appanalysis.Options{})
	health := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}
	return NewRouter(svc, nil, health)
}

func TestAnalyze_SingleMode(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true, Score: 81, Verdict: "likely AI-generated"}})

	body := `{"content": "some text to inspect", "content_type": "text", "task": "analyze"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.Equal(t, "openai", res.Provider)
	require.Equal(t, float64(81), res.Score)
}

func TestAnalyze_ConsensusMode(t *testing.T) {
	h := newTestHandler(t,
		&fakeProvider{id: "openai", result: domain.Result{Success: true, Score: 60}},
		&fakeProvider{id: "anthropic", result: domain.Result{Success: true, Score: 64}},
	)

	body := `{"content": "some text to inspect", "mode": "consensus"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res domain.ConsensusResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.PerProvider, 2)
	require.NotNil(t, res.AggregateScore)
	require.InDelta(t, 62, *res.AggregateScore, 0.001)
}

func TestAnalyze_InvalidContentType(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true}})

	body := `{"content": "x", "content_type": "hologram"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid content_type")
}

func TestAnalyze_EmptyContent(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true}})

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze", strings.NewReader(`{"content": ""}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_NoProviderForContentType(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true}})

	body := `{"content": "binary blob ref", "content_type": "image"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "no provider")
}

func TestAnalyze_MalformedBody(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true}})

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyses_EmptyHistory(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true}})

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/analyses?page=1&page_size=10", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestAnalysesLatest_EmptyHistory(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true}})

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/analyses/latest", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestUpload_DisabledWithoutStorage(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true}})

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/upload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeProvider{id: "openai", result: domain.Result{Success: true}})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Contains(t, payload, "analyses_total")
}
