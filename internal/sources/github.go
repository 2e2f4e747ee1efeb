package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/trendscope/trendscope/internal/models"
	"github.com/trendscope/trendscope/internal/scoring"
)

const defaultGitHubURL = "https://api.github.com"

// GitHubSource searches repositories through the GitHub REST API.
// A token is optional; without one requests are unauthenticated.
type GitHubSource struct {
	token       string
	client      *resty.Client
	concurrency int
	now         func() time.Time
}

type githubSearchResponse struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []githubRepo `json:"items"`
}

type githubRepo struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     *string   `json:"description"`
	HTMLURL         string    `json:"html_url"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	Language        *string   `json:"language"`
	Topics          []string  `json:"topics"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	OpenIssuesCount int       `json:"open_issues_count"`
}

var lastPagePattern = regexp.MustCompile(`[?&]page=(\d+)[^>]*>;\s*rel="last"`)

// NewGitHubSource creates a new GitHub source
func NewGitHubSource(token string, opts ...Option) *GitHubSource {
	o := buildOptions(defaultGitHubURL, "", opts)
	client := o.newClient().
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &GitHubSource{
		token:       token,
		client:      client,
		concurrency: 5,
		now:         time.Now,
	}
}

func (g *GitHubSource) GetName() models.Platform {
	return models.PlatformGitHub
}

func (g *GitHubSource) IsEnabled() bool {
	return true
}

func (g *GitHubSource) Search(ctx context.Context, query string, maxResults int) ([]models.Item, error) {
	if g.token == "" {
		logrus.Debug("GitHub source running unauthenticated - lower rate limits apply")
	}

	perPage := maxResults
	if perPage > 100 {
		perPage = 100
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        query,
			"sort":     "stars",
			"order":    "desc",
			"per_page": strconv.Itoa(perPage),
		}).
		Get("/search/repositories")

	if err := checkResponse("github", resp, err); err != nil {
		return nil, err
	}

	var searchResp githubSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse GitHub response: %w: %w", ErrMalformedResponse, err)
	}

	repos := capResults(searchResp.Items, maxResults)
	logrus.Infof("GitHub returned %d repositories for '%s' (total %d)", len(repos), query, searchResp.TotalCount)

	contributors := g.fetchContributorCounts(ctx, repos)
	now := g.now()

	items := make([]models.Item, 0, len(repos))
	for i, repo := range repos {
		item := models.RepositoryItem{
			ID:                repo.ID,
			Name:              repo.Name,
			FullName:          repo.FullName,
			Description:       repo.Description,
			HTMLURL:           repo.HTMLURL,
			StargazersCount:   repo.StargazersCount,
			ForksCount:        repo.ForksCount,
			Language:          repo.Language,
			Topics:            repo.Topics,
			CreatedAt:         repo.CreatedAt,
			UpdatedAt:         repo.UpdatedAt,
			OpenIssuesCount:   repo.OpenIssuesCount,
			ContributorsCount: contributors[i],
			TechStack:         techStack(repo),
		}
		items = append(items, scoring.ComputeRepoMetrics(item, now))
	}

	return items, nil
}

// fetchContributorCounts looks up contributor counts with bounded
// concurrency. A failed lookup leaves the count unknown.
func (g *GitHubSource) fetchContributorCounts(ctx context.Context, repos []githubRepo) []models.OptionalInt {
	counts := make([]models.OptionalInt, len(repos))
	sem := make(chan struct{}, g.concurrency)
	var wg sync.WaitGroup

	for i, repo := range repos {
		wg.Add(1)
		go func(i int, fullName string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			count, err := g.contributorCount(ctx, fullName)
			if err != nil {
				logrus.Debugf("Could not get contributor count for %s: %v", fullName, err)
				return
			}
			counts[i] = models.Int(count)
		}(i, repo.FullName)
	}

	wg.Wait()
	return counts
}

// contributorCount requests one contributor per page and reads the page
// count from the Link header.
func (g *GitHubSource) contributorCount(ctx context.Context, fullName string) (int, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"per_page": "1",
			"anon":     "true",
		}).
		Get("/repos/" + fullName + "/contributors")

	if err := checkResponse("github", resp, err); err != nil {
		return 0, err
	}

	if resp.StatusCode() == http.StatusNoContent {
		return 0, nil
	}

	if match := lastPagePattern.FindStringSubmatch(resp.Header().Get("Link")); match != nil {
		return strconv.Atoi(match[1])
	}

	var contributors []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &contributors); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return len(contributors), nil
}

func techStack(repo githubRepo) []string {
	stack := make([]string, 0, len(repo.Topics)+1)
	if repo.Language != nil && *repo.Language != "" {
		stack = append(stack, *repo.Language)
	}
	return append(stack, repo.Topics...)
}
