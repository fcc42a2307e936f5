package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claritycheck/claritycheck/internal/analyzer"
	"github.com/claritycheck/claritycheck/internal/cache"
	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/pipeline"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, _ string, vp snapshot.Viewport, _ string) (*pipeline.RenderResult, error) {
	return &pipeline.RenderResult{
		Snapshot: &snapshot.RawSnapshot{
			DOM:      "<html><body><main><p>hi</p></main></body></html>",
			Viewport: vp,
		},
		ScreenshotURL: "https://shots.example.com/page.png",
	}, nil
}

func testServer() *Server {
	cfg := config.Default()
	a := analyzer.New(cfg.Detectors, cfg.Scoring, 30*time.Second)
	keyed := cache.NewKeyed(cache.NewMemory(), time.Minute)
	units := pipeline.UnitsFrom(config.AnalysisConfig{
		Viewports: []config.ViewportConfig{{Name: "desktop", Width: 1440, Height: 900}},
		Timings:   []string{"t2"},
	})
	p := pipeline.New(stubRenderer{}, a, keyed, units)
	return New(":0", p, a, nil)
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, testServer(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyzeRequiresURL(t *testing.T) {
	rec := doRequest(t, testServer(), http.MethodPost, "/v1/analyze", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "url is required")
}

func TestAnalyzeRejectsMalformedBody(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeFullRun(t *testing.T) {
	rec := doRequest(t, testServer(), http.MethodPost, "/v1/analyze", map[string]any{
		"url":        "https://example.com",
		"text_score": 75,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var run pipeline.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	require.NotNil(t, run.Combined)
	assert.Equal(t, "https://example.com", run.Combined.URL)
	assert.Equal(t, 75.0, run.Combined.TextScore)
	require.Len(t, run.Units, 1)
	assert.Equal(t, 100, run.Units[0].Report.Score)
}

func TestAnalyzeSnapshotDirect(t *testing.T) {
	body := map[string]any{
		"snapshot": map[string]any{
			"viewport": map[string]int{"width": 1440, "height": 900},
			"elements": []map[string]any{{
				"selector": "p.faint",
				"tag":      "p",
				"text":     "dim copy",
				"styles": map[string]string{
					"color":           "#aaaaaa",
					"backgroundColor": "#ffffff",
					"fontSize":        "16px",
				},
				"bbox": map[string]float64{"x": 0, "y": 0, "width": 300, "height": 40},
			}},
		},
	}

	rec := doRequest(t, testServer(), http.MethodPost, "/v1/analyze/snapshot", body)

	require.Equal(t, http.StatusOK, rec.Code)

	var rep struct {
		Score  int `json:"score"`
		Issues []struct {
			Type     string `json:"type"`
			Severity string `json:"severity"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, "contrast", rep.Issues[0].Type)
	assert.Equal(t, "high", rep.Issues[0].Severity)
	assert.Equal(t, 94, rep.Score)
}

func TestAnalyzeSnapshotInvalidViewport(t *testing.T) {
	body := map[string]any{
		"snapshot": map[string]any{
			"viewport": map[string]int{"width": 0, "height": 900},
		},
	}

	rec := doRequest(t, testServer(), http.MethodPost, "/v1/analyze/snapshot", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnalyzeSnapshotRequiresSnapshot(t *testing.T) {
	rec := doRequest(t, testServer(), http.MethodPost, "/v1/analyze/snapshot", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
