package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/trendscope/trendscope/internal/models"
	"github.com/trendscope/trendscope/internal/query"
)

// QuickAnalyze runs a small analysis and condenses it. Platforms default to
// GitHub only.
func (a *Analyzer) QuickAnalyze(ctx context.Context, q string, platforms []models.Platform) (models.QuickSummary, error) {
	if len(platforms) == 0 {
		platforms = []models.Platform{models.PlatformGitHub}
	}

	topic, err := a.Analyze(ctx, models.AnalysisRequest{
		Query:                 q,
		Platforms:             platforms,
		MaxResultsPerPlatform: QuickMaxResults,
	})
	if err != nil {
		return models.QuickSummary{}, err
	}

	summary := GenerateSummary(topic)

	languages := summary.TopLanguages
	if len(languages) > maxPlatformLanguages {
		languages = languages[:maxPlatformLanguages]
	}

	stats := make([]models.QuickPlatformStat, 0, len(summary.PlatformStats))
	for _, ps := range summary.PlatformStats {
		keywords := ps.TrendingKeywords
		if len(keywords) > 5 {
			keywords = keywords[:5]
		}
		stats = append(stats, models.QuickPlatformStat{
			Platform:         ps.Platform,
			TotalItems:       ps.TotalItems,
			TrendingKeywords: keywords,
		})
	}

	return models.QuickSummary{
		Query:             topic.Query,
		Topic:             topic.Topic,
		OverallScore:      topic.OverallScore,
		PlatformScores:    topic.PlatformScores,
		TotalRepos:        summary.TotalRepos,
		TopLanguages:      languages,
		PlatformStats:     stats,
		AnalysisTimestamp: topic.AnalysisTimestamp,
	}, nil
}

// AnalyzeWithNLP turns a natural language repository request into GitHub
// search qualifiers and analyzes the GitHub results. A zero maxResults
// uses DefaultMaxResults.
func (a *Analyzer) AnalyzeWithNLP(ctx context.Context, naturalQuery string, maxResults int) (models.NLPAnalysis, error) {
	if strings.TrimSpace(naturalQuery) == "" {
		return models.NLPAnalysis{}, fmt.Errorf("%w: query cannot be empty", ErrInvalidRequest)
	}
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults < 1 || maxResults > MaxResultsLimit {
		return models.NLPAnalysis{}, fmt.Errorf("%w: max_results must be between 1 and %d, got %d",
			ErrInvalidRequest, MaxResultsLimit, maxResults)
	}

	parsed := query.Parse(naturalQuery)
	searchQuery := query.BuildGitHubQuery(parsed)
	if searchQuery == "" {
		return models.NLPAnalysis{}, fmt.Errorf("%w: query %q has no searchable terms", ErrInvalidRequest, naturalQuery)
	}

	label := parsed.BaseQuery
	if label == "" {
		label = strings.TrimSpace(naturalQuery)
	}

	topic := a.run(ctx, analysisJob{
		topic:       label,
		query:       strings.TrimSpace(naturalQuery),
		searchQuery: searchQuery,
		platforms:   []models.Platform{models.PlatformGitHub},
		maxResults:  maxResults,
	})

	return models.NLPAnalysis{
		TrendingTopic: topic,
		Summary:       GenerateSummary(topic),
		QueryAnalysis: query.Explain(parsed),
		SearchQuery:   searchQuery,
		ParsedFilters: parsed.Filters(),
		Suggestions:   query.Suggestions(naturalQuery),
	}, nil
}
