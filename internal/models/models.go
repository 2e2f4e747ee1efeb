package models

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies one of the external content sources
type Platform string

const (
	PlatformGitHub  Platform = "github"
	PlatformTwitter Platform = "twitter"
	PlatformReddit  Platform = "reddit"
)

// AllPlatforms lists every supported platform in canonical order.
var AllPlatforms = []Platform{PlatformGitHub, PlatformTwitter, PlatformReddit}

// Index returns the canonical position of the platform, or -1 if unknown.
func (p Platform) Index() int {
	for i, known := range AllPlatforms {
		if p == known {
			return i
		}
	}
	return -1
}

func (p Platform) Valid() bool {
	return p.Index() >= 0
}

// ParsePlatforms parses a comma separated platform list such as "github,reddit".
func ParsePlatforms(value string) ([]Platform, error) {
	var platforms []Platform
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		p := Platform(part)
		if !p.Valid() {
			return nil, fmt.Errorf("unknown platform %q", part)
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

// AnalysisRequest is the input of a trending analysis
type AnalysisRequest struct {
	Query                 string     `json:"query"`
	Platforms             []Platform `json:"platforms"`
	MaxResultsPerPlatform int        `json:"max_results_per_platform"`
}

// TrendingTopic is the assembled result of one analysis. It is built once
// and never modified after it is returned.
type TrendingTopic struct {
	Topic             string               `json:"topic"`
	Query             string               `json:"query"`
	SearchQuery       string               `json:"search_query"`
	Platforms         []Platform           `json:"platforms"`
	GitHubData        []RepositoryItem     `json:"github_data"`
	TwitterData       []SocialPost         `json:"twitter_data"`
	RedditData        []DiscussionPost     `json:"reddit_data"`
	PlatformScores    map[Platform]float64 `json:"platform_scores"`
	PlatformErrors    map[Platform]string  `json:"platform_errors,omitempty"`
	OverallScore      *float64             `json:"overall_score"`
	AnalysisTimestamp time.Time            `json:"analysis_timestamp"`
}

// LanguageStat aggregates repositories sharing a primary language
type LanguageStat struct {
	Language   string  `json:"language"`
	Count      int     `json:"count"`
	TotalStars int     `json:"total_stars"`
	TotalForks int     `json:"total_forks"`
	AvgStars   float64 `json:"avg_stars"`
}

// TopRepository ranks a repository by popularity
type TopRepository struct {
	RepoName string `json:"repo_name"`
	Score    int    `json:"score"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
	Language string `json:"language,omitempty"`
}

// PlatformStats summarizes one platform's items
type PlatformStats struct {
	Platform          Platform               `json:"platform"`
	TotalItems        int                    `json:"total_items"`
	TopLanguages      []LanguageStat         `json:"top_languages,omitempty"`
	EngagementMetrics map[string]interface{} `json:"engagement_metrics"`
	TrendingKeywords  []string               `json:"trending_keywords"`
}

// AnalysisSummary is the derived overview of a TrendingTopic
type AnalysisSummary struct {
	TotalRepos      int             `json:"total_repos"`
	TopLanguages    []LanguageStat  `json:"top_languages"`
	TopContributors []TopRepository `json:"top_contributors"`
	PlatformStats   []PlatformStats `json:"platform_stats"`
}

// QuickSummary is the condensed output of a quick analysis
type QuickSummary struct {
	Query             string               `json:"query"`
	Topic             string               `json:"topic"`
	OverallScore      *float64             `json:"overall_score"`
	PlatformScores    map[Platform]float64 `json:"platform_scores"`
	TotalRepos        int                  `json:"total_repos"`
	TopLanguages      []LanguageStat       `json:"top_languages"`
	PlatformStats     []QuickPlatformStat  `json:"platform_stats"`
	AnalysisTimestamp time.Time            `json:"analysis_timestamp"`
}

// QuickPlatformStat is the reduced per-platform entry of a QuickSummary
type QuickPlatformStat struct {
	Platform         Platform `json:"platform"`
	TotalItems       int      `json:"total_items"`
	TrendingKeywords []string `json:"trending_keywords"`
}

// NLPAnalysis is the result of analyzing a natural language repository query
type NLPAnalysis struct {
	TrendingTopic TrendingTopic          `json:"trending_topic"`
	Summary       AnalysisSummary        `json:"summary"`
	QueryAnalysis map[string]interface{} `json:"query_analysis"`
	SearchQuery   string                 `json:"search_query"`
	ParsedFilters map[string]interface{} `json:"parsed_filters"`
	Suggestions   []string               `json:"suggestions"`
}

// WatchTopic is a query analyzed on every scheduled run
type WatchTopic struct {
	Name       string     `json:"name" yaml:"name"`
	Query      string     `json:"query" yaml:"query"`
	Platforms  []Platform `json:"platforms" yaml:"platforms"`
	MaxResults int        `json:"max_results" yaml:"max_results"`
}

// TopicDigest is one watchlist entry in a report
type TopicDigest struct {
	Name           string               `json:"name"`
	Query          string               `json:"query"`
	OverallScore   *float64             `json:"overall_score"`
	PlatformScores map[Platform]float64 `json:"platform_scores"`
	PlatformErrors map[Platform]string  `json:"platform_errors,omitempty"`
	TopRepository  *TopRepository       `json:"top_repository,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// Report represents a periodic trending report
type Report struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Period      string                 `json:"period"` // "daily" or "weekly"
	TotalTopics int                    `json:"total_topics"`
	Topics      []TopicDigest          `json:"topics"`
	Summary     map[string]interface{} `json:"summary"`
}

// Alert represents an urgent notification
type Alert struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"` // "critical", "urgent", "info"
	Title     string       `json:"title"`
	Message   string       `json:"message"`
	Topic     *TopicDigest `json:"topic,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
