package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trendscope/trendscope/internal/analyzer"
	"github.com/trendscope/trendscope/internal/models"
	"github.com/trendscope/trendscope/internal/sources"
)

type stubSource struct {
	platform models.Platform
	items    []models.Item
	enabled  bool
}

func (s stubSource) GetName() models.Platform { return s.platform }
func (s stubSource) IsEnabled() bool          { return s.enabled }
func (s stubSource) Search(ctx context.Context, query string, maxResults int) ([]models.Item, error) {
	if !s.enabled {
		return nil, sources.ErrDisabled
	}
	return s.items, nil
}

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunNow(ctx context.Context) (*models.Report, error) {
	args := m.Called()
	report, _ := args.Get(0).(*models.Report)
	return report, args.Error(1)
}

func newTestServer(runner WatchlistRunner) *Server {
	lang := "Go"
	repo := models.RepositoryItem{
		FullName:          "acme/tool",
		StargazersCount:   1200,
		ForksCount:        80,
		Language:          &lang,
		ContributorsCount: models.Int(12),
	}
	a := analyzer.New([]sources.Source{
		stubSource{platform: models.PlatformGitHub, items: []models.Item{repo}, enabled: true},
		stubSource{platform: models.PlatformTwitter},
		stubSource{platform: models.PlatformReddit, enabled: true},
	})
	s := NewServer(a, runner)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	rec := do(t, newTestServer(nil), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(2), body["available_platforms"])
	assert.Equal(t, "2024-06-01T00:00:00Z", body["timestamp"])
}

func TestMetrics(t *testing.T) {
	rec := do(t, newTestServer(nil), "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "total_analyses")
}

func TestAnalyze(t *testing.T) {
	rec := do(t, newTestServer(nil), "POST", "/api/v1/trending/analyze", map[string]interface{}{
		"query":     "cli tools",
		"platforms": []string{"github", "twitter"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Successfully analyzed trending topic: cli tools", resp.Message)
	require.NotNil(t, resp.Data)
	assert.Len(t, resp.Data.GitHubData, 1)
	assert.Contains(t, resp.Data.PlatformErrors[models.PlatformTwitter], "disabled")
	require.NotNil(t, resp.Data.OverallScore)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 1, resp.Summary.TotalRepos)
}

func TestAnalyze_DefaultsToGitHub(t *testing.T) {
	rec := do(t, newTestServer(nil), "POST", "/api/v1/trending/analyze", map[string]interface{}{"query": "ai"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, []models.Platform{models.PlatformGitHub}, resp.Data.Platforms)
	assert.Len(t, resp.Data.GitHubData, 1)
	assert.Empty(t, resp.Data.PlatformErrors)
}

func TestAnalyze_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"malformed json", "{"},
		{"empty query", map[string]interface{}{"query": " ", "platforms": []string{"github"}}},
		{"empty platforms", map[string]interface{}{"query": "ai", "platforms": []string{}}},
		{"max too large", map[string]interface{}{"query": "ai", "platforms": []string{"github"}, "max_results_per_platform": 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(nil), "POST", "/api/v1/trending/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestQuickAnalysis(t *testing.T) {
	rec := do(t, newTestServer(nil), "POST", "/api/v1/trending/quick-analysis?query=cli+tools", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "cli tools", data["query"])
	assert.Equal(t, float64(1), data["total_repos"])
}

func TestQuickAnalysis_BadPlatform(t *testing.T) {
	rec := do(t, newTestServer(nil), "POST", "/api/v1/trending/quick-analysis?query=ai&platforms=github,myspace", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNLPAnalysis(t *testing.T) {
	rec := do(t, newTestServer(nil), "POST", "/api/v1/trending/nlp-analysis", map[string]interface{}{
		"query":       "go cli tools with at least 100 stars",
		"max_results": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Contains(t, data["search_query"], "stars:>=100")
	assert.Contains(t, data, "suggestions")
}

func TestNLPAnalysis_EmptyQuery(t *testing.T) {
	rec := do(t, newTestServer(nil), "POST", "/api/v1/trending/nlp-analysis", map[string]interface{}{"query": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlatforms(t *testing.T) {
	rec := do(t, newTestServer(nil), "GET", "/api/v1/trending/platforms", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Platforms []PlatformInfo `json:"platforms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Platforms, 3)
	assert.True(t, body.Platforms[0].Enabled)
	assert.False(t, body.Platforms[1].Enabled)
	assert.True(t, body.Platforms[2].Enabled)
}

func TestExampleQueries(t *testing.T) {
	rec := do(t, newTestServer(nil), "GET", "/api/v1/trending/example-queries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["examples"], 5)
}

func TestTrigger(t *testing.T) {
	done := make(chan struct{})
	runner := &MockRunner{}
	runner.On("RunNow").Run(func(mock.Arguments) { close(done) }).Return(&models.Report{}, nil)

	rec := do(t, newTestServer(runner), "POST", "/trigger", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchlist run was not triggered")
	}
}

func TestTrigger_NotConfigured(t *testing.T) {
	rec := do(t, newTestServer(nil), "POST", "/trigger", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(nil), "GET", "/api/v1/trending/analyze", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
