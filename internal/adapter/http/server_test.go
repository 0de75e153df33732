package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/roster-geo-etl/internal/adapter/http"
	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
	"github.com/couchcryptid/roster-geo-etl/internal/observability"
	"github.com/couchcryptid/roster-geo-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	err   error
	ready error
}

func (l *stubLoader) Name() string { return "stub" }

func (l *stubLoader) Load(_ context.Context, _ domain.RunSummary) error { return l.err }

func (l *stubLoader) CheckReadiness(_ context.Context) error { return l.ready }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, loader *stubLoader, maxUpload int64) *httpadapter.Server {
	t.Helper()
	jp, err := gazetteer.JapanPrefectures()
	require.NoError(t, err)
	us, err := gazetteer.USPostal()
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	placement := pipeline.New(domain.ModePlacement,
		domain.NewPlacementResolver(domain.NewNormalizer(jp)),
		domain.SummaryOptions{CategoryName: domain.CategoryNamer(domain.ModePlacement, jp)},
		discardLogger(), metrics, loader)
	residence := pipeline.New(domain.ModeResidence,
		domain.NewResidenceResolver(domain.NewAddressParser(us), domain.NewPostalResolver(us)),
		domain.SummaryOptions{CategoryName: domain.CategoryNamer(domain.ModeResidence, us)},
		discardLogger(), metrics, loader)

	return httpadapter.NewServer(":0", []httpadapter.Runner{placement, residence}, maxUpload, discardLogger())
}

func post(srv http.Handler, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, &stubLoader{}, 1<<20)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(t, &stubLoader{}, 1<<20)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenSinkUnreachable(t *testing.T) {
	srv := newTestServer(t, &stubLoader{ready: fmt.Errorf("no brokers")}, 1<<20)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Contains(t, body["error"], "no brokers")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubLoader{}, 1<<20)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSummaryResidence(t *testing.T) {
	srv := newTestServer(t, &stubLoader{}, 1<<20)

	csv := "Name,Address\n" +
		"Ann,\"123 Main St, Los Angeles CA 90012\"\n" +
		"Ben,Unknown location\n"
	rec := post(srv, "/v1/summaries/residence", csv)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var summary domain.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, domain.ModeResidence, summary.Mode)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ResolvedCount)
	require.Len(t, summary.Buckets, 1)
	assert.Equal(t, "downtown-la-civic-center", summary.Buckets[0].Key)
	assert.NotEmpty(t, summary.Buckets[0].Geohash)
	require.Len(t, summary.Ranking, 1)
	assert.Equal(t, "California", summary.Ranking[0].DisplayName)
}

func TestSummaryPlacementWithLimits(t *testing.T) {
	srv := newTestServer(t, &stubLoader{}, 1<<20)

	csv := "JET Prefecture\nNagano\nOkinawa\nNagano\nN/A\n"
	rec := post(srv, "/v1/summaries/placement?top=1&top_locations=1", csv)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary domain.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.ResolvedCount)
	assert.Len(t, summary.Buckets, 2)
	require.Len(t, summary.Ranking, 1)
	assert.Equal(t, "Nagano", summary.Ranking[0].Label)
	require.Len(t, summary.TopLocations, 1)
	assert.Equal(t, 2, summary.TopLocations[0].Count)
}

func TestSummaryErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"unknown mode", "/v1/summaries/weather", "Address\n", http.StatusNotFound},
		{"bad top", "/v1/summaries/residence?top=0", "Address\n", http.StatusBadRequest},
		{"bad top_locations", "/v1/summaries/residence?top_locations=x", "Address\n", http.StatusBadRequest},
		{"empty body", "/v1/summaries/residence", "", http.StatusBadRequest},
		{"too large", "/v1/summaries/residence", "Address\n" + strings.Repeat("1 Main St, Reno NV 89501\n", 20), http.StatusRequestEntityTooLarge},
	}

	srv := newTestServer(t, &stubLoader{}, 256)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(srv, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSummaryMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubLoader{}, 1<<20)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/summaries/residence", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSummarySinkFailure(t *testing.T) {
	srv := newTestServer(t, &stubLoader{err: errors.New("sink down")}, 1<<20)

	rec := post(srv, "/v1/summaries/placement", "JET Prefecture\nNagano\n")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "sink down")
}
