package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/dashboard"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/monitoring"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/security"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

func feature(name, area string, impact, effort float64, selected bool) types.FeatureInput {
	return types.FeatureInput{
		FeatureName: name,
		MacroArea:   area,
		Impact:      types.Float(impact),
		Effort:      types.Float(effort),
		Selected:    selected,
	}
}

func testStore() *analysis.Store {
	return analysis.NewStore([]types.PersonRecord{
		{PersonName: "A", Features: []types.FeatureInput{
			feature("Wine Cellar App", "Digital Cellar & Collection Management", 5, 1, true),
			feature("Price Alerts", "Wine Investment & Financial Tools", 2, 4, false),
		}},
		{PersonName: "B", Features: []types.FeatureInput{
			feature("Wine Cellar App", "Digital Cellar & Collection Management", 3, 1, false),
			{FeatureName: "Broken"},
		}},
	}, "test-fixture")
}

type testServer struct {
	router  *gin.Engine
	session *dashboard.Session
	reloads int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := monitoring.NewLoggerTo(io.Discard, monitoring.ParseLevel("error"))
	metrics := monitoring.NewMetrics()
	ts := &testServer{session: dashboard.NewSession(testStore(), logger, metrics)}

	router, err := NewRouter(Options{
		Session: ts.session,
		Reload: func(ctx context.Context) *analysis.Store {
			ts.reloads++
			return analysis.NewStore([]types.PersonRecord{
				{PersonName: "C", Features: []types.FeatureInput{feature("Tasting Notes", "Discovery & Education", 4, 2, true)}},
			}, "reloaded")
		},
		Metrics:       metrics,
		Logger:        logger,
		EnableSwagger: true,
		Version:       "test",
	})
	require.NoError(t, err)
	ts.router = router
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type snapshotBody struct {
	State struct {
		View             string `json:"view"`
		SelectedQuadrant string `json:"selected_quadrant"`
		Scaling          struct {
			Impact bool `json:"impact"`
			Effort bool `json:"effort"`
		} `json:"scaling"`
		Filters struct {
			People []string `json:"people"`
		} `json:"filters"`
		Sort struct {
			Field string `json:"field"`
			Order string `json:"order"`
		} `json:"sort"`
	} `json:"state"`
	Weights struct {
		Impact     int  `json:"impact"`
		Effort     int  `json:"effort"`
		Preference int  `json:"preference"`
		Total      int  `json:"total"`
		Valid      bool `json:"valid"`
	} `json:"weights"`
	Counts analysis.Counts `json:"counts"`
	Matrix []struct {
		Name     string  `json:"name"`
		Score    float64 `json:"score"`
		Color    string  `json:"color"`
		Quadrant string  `json:"quadrant"`
	} `json:"matrix"`
	Table []struct {
		Rank       int      `json:"rank"`
		Name       string   `json:"name"`
		SelectedBy []string `json:"selected_by"`
	} `json:"table"`
	Quadrant *struct {
		Title    string `json:"title"`
		Features []struct {
			Name string `json:"name"`
		} `json:"features"`
	} `json:"quadrant"`
	Dataset struct {
		Source string `json:"source"`
	} `json:"dataset"`
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) snapshotBody {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var snap snapshotBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	dataset := body["dataset"].(map[string]any)
	assert.Equal(t, "test-fixture", dataset["source"])
	assert.Equal(t, float64(3), dataset["evaluations"])
	assert.Equal(t, float64(1), dataset["issues"])
	assert.NotEmpty(t, w.Header().Get(monitoring.RequestIDHeader))
}

func TestView(t *testing.T) {
	ts := newTestServer(t)

	snap := decodeSnapshot(t, ts.do(http.MethodGet, "/api/view", ""))

	assert.Equal(t, "matrix", snap.State.View)
	assert.Equal(t, 100, snap.Weights.Total)
	assert.True(t, snap.Weights.Valid)
	require.Len(t, snap.Matrix, 2)
	assert.Equal(t, "Wine Cellar App", snap.Matrix[0].Name)
	assert.InDelta(t, 70.5, snap.Matrix[0].Score, 1e-9)
	assert.Equal(t, "#6a4c93", snap.Matrix[0].Color)
	assert.Equal(t, analysis.Counts{Total: 2, Selected: 1}, snap.Counts)
	assert.Equal(t, 1, snap.Table[0].Rank)
	assert.Equal(t, []string{"A"}, snap.Table[0].SelectedBy)
}

func TestFilters(t *testing.T) {
	ts := newTestServer(t)

	snap := decodeSnapshot(t, ts.do(http.MethodPost, "/api/filters", `{"kind":"person","value":"B","included":false}`))

	assert.Equal(t, []string{"A"}, snap.State.Filters.People)
	require.Len(t, snap.Matrix, 2)
	assert.InDelta(t, 82.0, snap.Matrix[0].Score, 1e-9)

	w := ts.do(http.MethodPost, "/api/filters", `{"kind":"team","value":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/api/filters", `{"kind":"person","value":"`+strings.Repeat("x", 500)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWeights(t *testing.T) {
	ts := newTestServer(t)

	snap := decodeSnapshot(t, ts.do(http.MethodPut, "/api/weights", `{"impact":60,"effort":"-4","preference":"lots"}`))

	assert.Equal(t, 60, snap.Weights.Impact)
	assert.Equal(t, 30, snap.Weights.Effort)
	assert.Equal(t, 30, snap.Weights.Preference)
	assert.Equal(t, 120, snap.Weights.Total)
	assert.False(t, snap.Weights.Valid)
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)

	snap := decodeSnapshot(t, ts.do(http.MethodPost, "/api/events", `{"type":"set_weight","payload":{"kind":"impact","value":50}}`))
	assert.Equal(t, 50, snap.Weights.Impact)

	snap = decodeSnapshot(t, ts.do(http.MethodPost, "/api/events", `{"type":"toggle_scaling","payload":{"metric":"effort"}}`))
	assert.True(t, snap.State.Scaling.Effort)

	snap = decodeSnapshot(t, ts.do(http.MethodPost, "/api/events", `{"type":"set_weights","payload":{"weights":{"impact":"abc","effort":20,"preference":10}}}`))
	assert.Equal(t, 40, snap.Weights.Impact)
	assert.Equal(t, 20, snap.Weights.Effort)
	assert.Equal(t, 10, snap.Weights.Preference)

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown type", body: `{"type":"teleport"}`},
		{name: "malformed", body: `{"type":`},
		{name: "bad view", body: `{"type":"switch_view","payload":{"view":"chart"}}`},
		{name: "empty filter value", body: `{"type":"toggle_filter","payload":{"kind":"person","value":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, "/api/events", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
		})
	}
}

func TestViewAndQuadrants(t *testing.T) {
	ts := newTestServer(t)

	snap := decodeSnapshot(t, ts.do(http.MethodPost, "/api/quadrants/quick-wins/toggle", ""))
	require.NotNil(t, snap.Quadrant)
	assert.Equal(t, "Quick Wins - High Impact, Low Effort", snap.Quadrant.Title)
	require.Len(t, snap.Quadrant.Features, 1)
	assert.Equal(t, "Wine Cellar App", snap.Quadrant.Features[0].Name)

	snap = decodeSnapshot(t, ts.do(http.MethodPost, "/api/quadrants/quick-wins/toggle", ""))
	assert.Nil(t, snap.Quadrant)

	decodeSnapshot(t, ts.do(http.MethodPost, "/api/quadrants/fill-ins/toggle", ""))
	snap = decodeSnapshot(t, ts.do(http.MethodDelete, "/api/quadrants/selected", ""))
	assert.Empty(t, snap.State.SelectedQuadrant)

	decodeSnapshot(t, ts.do(http.MethodPost, "/api/quadrants/major-projects/toggle", ""))
	snap = decodeSnapshot(t, ts.do(http.MethodPost, "/api/view/table", ""))
	assert.Equal(t, "table", snap.State.View)
	assert.Empty(t, snap.State.SelectedQuadrant)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/view/chart", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/quadrants/north/toggle", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/scaling/score/toggle", "").Code)
}

func TestSort(t *testing.T) {
	ts := newTestServer(t)

	snap := decodeSnapshot(t, ts.do(http.MethodPost, "/api/sort", `{"field":"name","order":"asc"}`))
	assert.Equal(t, "Price Alerts", snap.Table[0].Name)
	assert.Equal(t, "Wine Cellar App", snap.Table[1].Name)

	snap = decodeSnapshot(t, ts.do(http.MethodPost, "/api/sort", `{"field":"effort"}`))
	assert.Equal(t, "effort", snap.State.Sort.Field)
	assert.Equal(t, "asc", snap.State.Sort.Order)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/sort", `{"field":"size"}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/sort", `{}`).Code)
}

func TestFeature(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/features/Price%20Alerts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quadrant":"thankless-tasks"`)

	w = ts.do(http.MethodGet, "/api/features/Teleporter", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/features/", "").Code)
}

func TestFeature_NameWithSlash(t *testing.T) {
	ts := newTestServer(t)
	ts.session.Replace(analysis.NewStore([]types.PersonRecord{
		{PersonName: "A", Features: []types.FeatureInput{
			feature("Import/Export", "Digital Cellar & Collection Management", 4, 2, true),
		}},
	}, "slashes"))

	for _, path := range []string{"/api/features/Import/Export", "/api/features/Import%2FExport"} {
		w := ts.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"name":"Import/Export"`, path)
	}
}

func TestPaletteAndIssues(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/palette", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fallback":"#667eea"`)

	w = ts.do(http.MethodGet, "/api/issues", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count  int              `json:"count"`
		Issues []analysis.Issue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "Broken", body.Issues[0].Feature)
}

func TestReload(t *testing.T) {
	ts := newTestServer(t)
	decodeSnapshot(t, ts.do(http.MethodPost, "/api/filters", `{"kind":"person","value":"B","included":false}`))

	snap := decodeSnapshot(t, ts.do(http.MethodPost, "/api/reload", ""))

	assert.Equal(t, 1, ts.reloads)
	assert.Equal(t, "reloaded", snap.Dataset.Source)
	assert.Equal(t, []string{"C"}, snap.State.Filters.People)
	require.Len(t, snap.Matrix, 1)
	assert.Equal(t, "Tasting Notes", snap.Matrix[0].Name)
}

func TestState(t *testing.T) {
	ts := newTestServer(t)
	decodeSnapshot(t, ts.do(http.MethodPost, "/api/scaling/impact/toggle", ""))

	w := ts.do(http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var state dashboard.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.True(t, state.Scaling.Impact)
	assert.Equal(t, []string{"A", "B"}, state.Filters.People())
}

func TestContentTypeRejected(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/filters", strings.NewReader("kind=person"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := security.DefaultSecurityConfig()
	cfg.MaxRequestsPerMin = 1
	metrics := monitoring.NewMetrics()

	router, err := NewRouter(Options{
		Session:  dashboard.NewSession(testStore(), nil, nil),
		Metrics:  metrics,
		Logger:   monitoring.NewLoggerTo(io.Discard, monitoring.ParseLevel("error")),
		Security: security.NewSecurityMiddleware(cfg, metrics),
	})
	require.NoError(t, err)

	var last int
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/view", nil))
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.Positive(t, metrics.RateLimitBlocks)
}

func TestMetricsAndFrontend(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodGet, "/api/view", "")

	w := ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recomputes")

	w = ts.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "'nonce-")
	assert.Contains(t, w.Body.String(), "Impact / Effort Matrix")

	w = ts.do(http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/events")
}

func TestReloadNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router, err := NewRouter(Options{
		Session: dashboard.NewSession(testStore(), nil, nil),
		Logger:  monitoring.NewLoggerTo(io.Discard, monitoring.ParseLevel("error")),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestViewCompressed(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Wine Cellar App")
}
