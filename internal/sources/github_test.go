package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trendscope/trendscope/internal/models"
)

const githubSearchFixture = `{
  "total_count": 2,
  "incomplete_results": false,
  "items": [
    {
      "id": 1,
      "name": "widget",
      "full_name": "acme/widget",
      "description": "A widget",
      "html_url": "https://github.com/acme/widget",
      "stargazers_count": 500,
      "forks_count": 100,
      "language": "Go",
      "topics": ["cli", "tools"],
      "created_at": "2024-01-01T00:00:00Z",
      "updated_at": "2024-06-01T00:00:00Z",
      "open_issues_count": 12
    },
    {
      "id": 2,
      "name": "gadget",
      "full_name": "acme/gadget",
      "description": null,
      "html_url": "https://github.com/acme/gadget",
      "stargazers_count": 300,
      "forks_count": 50,
      "language": null,
      "topics": [],
      "created_at": "2024-02-01T00:00:00Z",
      "updated_at": "2024-06-01T00:00:00Z",
      "open_issues_count": 0
    }
  ]
}`

func TestGitHubSource_Search(t *testing.T) {
	var gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/repositories":
			gotQuery = r.URL.Query().Get("q")
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, "stars", r.URL.Query().Get("sort"))
			assert.Equal(t, "desc", r.URL.Query().Get("order"))
			assert.Equal(t, "20", r.URL.Query().Get("per_page"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(githubSearchFixture))
		case "/repos/acme/widget/contributors":
			assert.Equal(t, "1", r.URL.Query().Get("per_page"))
			w.Header().Set("Link", `<https://api.github.com/repositories/1/contributors?per_page=1&anon=true&page=2>; rel="next", <https://api.github.com/repositories/1/contributors?per_page=1&anon=true&page=42>; rel="last"`)
			w.Write([]byte(`[{"login":"a"}]`))
		case "/repos/acme/gadget/contributors":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	source := NewGitHubSource("secret", WithBaseURL(server.URL))
	source.now = func() time.Time { return time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC) }

	items, err := source.Search(context.Background(), "language:go cli", 20)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "language:go cli", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)

	widget, ok := items[0].(models.RepositoryItem)
	require.True(t, ok)
	assert.Equal(t, "acme/widget", widget.FullName)
	assert.Equal(t, 500, widget.StargazersCount)
	assert.Equal(t, "Go", widget.LanguageName())
	assert.Equal(t, models.Int(42), widget.ContributorsCount)
	assert.Equal(t, []string{"Go", "cli", "tools"}, widget.TechStack)
	require.NotNil(t, widget.StarsPerDay)
	assert.NotNil(t, widget.HealthScore)
	require.NotNil(t, widget.StarsPerContributor)
	assert.InDelta(t, 500.0/42.0, *widget.StarsPerContributor, 1e-9)

	gadget := items[1].(models.RepositoryItem)
	assert.False(t, gadget.ContributorsCount.Valid, "failed lookup leaves count unknown")
	assert.Nil(t, gadget.Description)
	assert.Equal(t, "", gadget.LanguageName())
	assert.Nil(t, gadget.StarsPerContributor)
}

func TestGitHubSource_SearchTruncatesAndCountsSinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search/repositories" {
			w.Write([]byte(githubSearchFixture))
			return
		}
		// no Link header means a single page
		w.Write([]byte(`[{"login":"solo"}]`))
	}))
	defer server.Close()

	items, err := NewGitHubSource("", WithBaseURL(server.URL)).Search(context.Background(), "widgets", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.Int(1), items[0].(models.RepositoryItem).ContributorsCount)
}

func TestGitHubSource_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": "nope"`))
	}))
	defer server.Close()

	_, err := NewGitHubSource("", WithBaseURL(server.URL)).Search(context.Background(), "x", 5)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGitHubSource_EmptyResultIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_count":0,"items":[]}`))
	}))
	defer server.Close()

	items, err := NewGitHubSource("", WithBaseURL(server.URL)).Search(context.Background(), "zzzz", 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}
