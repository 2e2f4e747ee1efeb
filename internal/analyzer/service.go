package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trendscope/trendscope/internal/config"
	"github.com/trendscope/trendscope/internal/expander"
	"github.com/trendscope/trendscope/internal/models"
	"github.com/trendscope/trendscope/internal/notifications"
	"github.com/trendscope/trendscope/internal/scoring"
	"github.com/trendscope/trendscope/internal/sources"
	"github.com/trendscope/trendscope/internal/storage"
)

const (
	DefaultMaxResults      = 20
	MaxResultsLimit        = 100
	QuickMaxResults        = 15
	DefaultPlatformTimeout = 30 * time.Second
)

// ErrInvalidRequest is returned before any platform is contacted when the
// analysis input is unusable.
var ErrInvalidRequest = errors.New("invalid analysis request")

// Analyzer collects items from the selected platforms concurrently and turns
// them into a scored TrendingTopic.
type Analyzer struct {
	sources         map[models.Platform]sources.Source
	weights         scoring.Weights
	platformTimeout time.Duration
	expander        expander.Expander
	now             func() time.Time

	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	reportPeriod        string
	alertThreshold      float64
	watchConcurrency    int

	metrics *Metrics
	mu      sync.RWMutex
}

// Metrics holds analysis metrics
type Metrics struct {
	TotalAnalyses    int                     `json:"total_analyses"`
	LastRun          time.Time               `json:"last_run"`
	LastRunDuration  string                  `json:"last_run_duration"`
	PlatformItems    map[models.Platform]int `json:"platform_items"`
	PlatformErrors   map[models.Platform]int `json:"platform_errors"`
	ErrorCount       int                     `json:"error_count"`
	LastWatchlistRun time.Time               `json:"last_watchlist_run"`
	StorageErrors    int                     `json:"storage_errors"`
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithWeights sets the platform weights used for the overall score.
func WithWeights(w scoring.Weights) Option {
	return func(a *Analyzer) { a.weights = w }
}

// WithPlatformTimeout bounds each platform search.
func WithPlatformTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.platformTimeout = d }
}

// WithExpander rewrites queries before they are sent to the platforms.
func WithExpander(e expander.Expander) Option {
	return func(a *Analyzer) { a.expander = e }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithStorage archives watchlist results.
func WithStorage(s storage.StorageInterface) Option {
	return func(a *Analyzer) { a.storage = s }
}

// WithNotifier delivers watchlist reports and alerts.
func WithNotifier(n notifications.NotificationInterface) Option {
	return func(a *Analyzer) { a.notificationService = n }
}

// WithReportPeriod labels watchlist reports, e.g. "daily".
func WithReportPeriod(period string) Option {
	return func(a *Analyzer) { a.reportPeriod = period }
}

// WithAlertThreshold sets the overall score that triggers an alert.
func WithAlertThreshold(threshold float64) Option {
	return func(a *Analyzer) { a.alertThreshold = threshold }
}

// WithWatchlistConcurrency limits how many watchlist topics run at once.
func WithWatchlistConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.watchConcurrency = n
		}
	}
}

// New creates an Analyzer over the given platform sources. A later source
// for the same platform replaces an earlier one.
func New(srcs []sources.Source, opts ...Option) *Analyzer {
	a := &Analyzer{
		sources:          make(map[models.Platform]sources.Source, len(srcs)),
		weights:          scoring.DefaultWeights(),
		platformTimeout:  DefaultPlatformTimeout,
		now:              time.Now,
		reportPeriod:     "weekly",
		alertThreshold:   70,
		watchConcurrency: 2,
		metrics: &Metrics{
			PlatformItems:  make(map[models.Platform]int),
			PlatformErrors: make(map[models.Platform]int),
		},
	}
	for _, src := range srcs {
		a.sources[src.GetName()] = src
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewService creates an Analyzer wired from configuration
func NewService(cfg *config.Config, storage storage.StorageInterface, notificationService notifications.NotificationInterface) *Analyzer {
	opts := []Option{
		WithWeights(cfg.Weights),
		WithPlatformTimeout(cfg.PlatformTimeout),
		WithStorage(storage),
		WithNotifier(notificationService),
		WithReportPeriod(cfg.ReportSchedule),
		WithAlertThreshold(cfg.AlertThreshold),
		WithWatchlistConcurrency(cfg.WatchlistConcurrency),
	}

	if cfg.OpenAIAPIKey != "" {
		exp, err := expander.NewOpenAIExpander(expander.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			MaxRetries: 2,
		})
		if err != nil {
			logrus.Warnf("Query expansion disabled: %v", err)
		} else {
			opts = append(opts, WithExpander(exp))
		}
	}

	return New(initializeSources(cfg), opts...)
}

func initializeSources(cfg *config.Config) []sources.Source {
	return []sources.Source{
		sources.NewGitHubSource(cfg.GitHubToken),
		sources.NewTwitterSource(cfg.TwitterBearerToken),
		sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditSubreddits),
	}
}

// Sources returns the registered sources in canonical platform order.
func (a *Analyzer) Sources() []sources.Source {
	var srcs []sources.Source
	for _, p := range models.AllPlatforms {
		if src, ok := a.sources[p]; ok {
			srcs = append(srcs, src)
		}
	}
	return srcs
}

// Enabled reports whether a platform has a source with usable credentials.
func (a *Analyzer) Enabled(p models.Platform) bool {
	src, ok := a.sources[p]
	return ok && src.IsEnabled()
}

// Analyze runs one trending analysis. Only an invalid request returns an
// error; platform failures are recorded on the result instead.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (models.TrendingTopic, error) {
	platforms, err := validateRequest(req)
	if err != nil {
		return models.TrendingTopic{}, err
	}

	query := strings.TrimSpace(req.Query)
	return a.run(ctx, analysisJob{
		topic:       query,
		query:       query,
		searchQuery: a.expandQuery(ctx, query),
		platforms:   platforms,
		maxResults:  req.MaxResultsPerPlatform,
	}), nil
}

func validateRequest(req models.AnalysisRequest) ([]models.Platform, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", ErrInvalidRequest)
	}
	if len(req.Platforms) == 0 {
		return nil, fmt.Errorf("%w: at least one platform must be selected", ErrInvalidRequest)
	}
	if req.MaxResultsPerPlatform < 1 || req.MaxResultsPerPlatform > MaxResultsLimit {
		return nil, fmt.Errorf("%w: max_results_per_platform must be between 1 and %d, got %d",
			ErrInvalidRequest, MaxResultsLimit, req.MaxResultsPerPlatform)
	}
	return normalizePlatforms(req.Platforms)
}

// normalizePlatforms removes duplicates and orders platforms canonically.
func normalizePlatforms(platforms []models.Platform) ([]models.Platform, error) {
	selected := make(map[models.Platform]bool, len(platforms))
	for _, p := range platforms {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidRequest, p)
		}
		selected[p] = true
	}

	normalized := make([]models.Platform, 0, len(selected))
	for _, p := range models.AllPlatforms {
		if selected[p] {
			normalized = append(normalized, p)
		}
	}
	return normalized, nil
}

func (a *Analyzer) expandQuery(ctx context.Context, query string) string {
	if a.expander == nil {
		return query
	}

	expanded, err := a.expander.Expand(ctx, query)
	if err != nil || strings.TrimSpace(expanded) == "" {
		logrus.Warnf("Query expansion failed for '%s', using original query: %v", query, err)
		return query
	}

	logrus.Infof("Expanded query '%s' to '%s'", query, expanded)
	return strings.TrimSpace(expanded)
}

type analysisJob struct {
	topic       string
	query       string
	searchQuery string
	platforms   []models.Platform
	maxResults  int
}

type outcome struct {
	items    []models.Item
	err      error
	duration time.Duration
}

// platformData holds one platform's validated items
type platformData struct {
	repos       []models.RepositoryItem
	posts       []models.SocialPost
	discussions []models.DiscussionPost
}

func (a *Analyzer) run(ctx context.Context, job analysisJob) models.TrendingTopic {
	start := time.Now()
	logrus.Infof("Analyzing '%s' on %d platforms", job.searchQuery, len(job.platforms))

	// one slot per platform; each goroutine writes only its own slot
	var outcomes [3]outcome
	var wg sync.WaitGroup

	for _, platform := range job.platforms {
		wg.Add(1)
		go func(p models.Platform) {
			defer wg.Done()
			outcomes[p.Index()] = a.fetch(ctx, p, job.searchQuery, job.maxResults)
		}(platform)
	}

	wg.Wait()

	topic := models.TrendingTopic{
		Topic:          job.topic,
		Query:          job.query,
		SearchQuery:    job.searchQuery,
		Platforms:      job.platforms,
		GitHubData:     []models.RepositoryItem{},
		TwitterData:    []models.SocialPost{},
		RedditData:     []models.DiscussionPost{},
		PlatformScores: make(map[models.Platform]float64),
	}
	failures := make(map[models.Platform]error)

	for _, p := range job.platforms {
		result := outcomes[p.Index()]

		var data platformData
		err := result.err
		if err == nil {
			data, err = collect(p, result.items, job.maxResults)
		}

		if err != nil {
			logrus.WithFields(logrus.Fields{
				"platform": p,
				"duration": result.duration.String(),
			}).Errorf("Error fetching from %s: %v", p, err)
			failures[p] = err
			continue
		}

		topic.GitHubData = append(topic.GitHubData, data.repos...)
		topic.TwitterData = append(topic.TwitterData, data.posts...)
		topic.RedditData = append(topic.RedditData, data.discussions...)

		score, ok := data.score(p)
		logrus.WithFields(logrus.Fields{
			"platform": p,
			"items":    len(result.items),
			"duration": result.duration.String(),
		}).Infof("Found %d items from %s", len(result.items), p)
		if ok {
			topic.PlatformScores[p] = score
		}
	}

	if len(failures) > 0 {
		topic.PlatformErrors = make(map[models.Platform]string, len(failures))
		for p, err := range failures {
			topic.PlatformErrors[p] = err.Error()
		}
	}

	topic.OverallScore = scoring.Overall(topic.PlatformScores, a.weights)
	topic.AnalysisTimestamp = a.now().UTC()

	a.updateMetrics(topic, failures, time.Since(start))

	if topic.OverallScore == nil {
		logrus.Warnf("No platform produced data for '%s'", job.query)
	} else {
		logrus.Infof("Analysis of '%s' completed in %v with overall score %.2f", job.query, time.Since(start), *topic.OverallScore)
	}

	return topic
}

// fetch runs one platform search under the per-platform timeout. It returns
// when the timeout expires even if the source ignores its context.
func (a *Analyzer) fetch(ctx context.Context, p models.Platform, query string, maxResults int) outcome {
	src, ok := a.sources[p]
	if !ok {
		return outcome{err: fmt.Errorf("no source registered for %s: %w", p, sources.ErrDisabled)}
	}

	ctx, cancel := context.WithTimeout(ctx, a.platformTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		items, err := src.Search(ctx, query, maxResults)
		done <- outcome{items: items, err: err}
	}()

	select {
	case result := <-done:
		result.duration = time.Since(start)
		return result
	case <-ctx.Done():
		return outcome{
			err:      fmt.Errorf("%s search did not finish within %v: %w", p, a.platformTimeout, ctx.Err()),
			duration: time.Since(start),
		}
	}
}

// collect validates a platform's items and sorts them into typed slices.
// Any invalid item fails the whole platform.
func collect(p models.Platform, items []models.Item, maxResults int) (platformData, error) {
	var data platformData
	if len(items) > maxResults {
		items = items[:maxResults]
	}

	for _, item := range items {
		if item == nil {
			return platformData{}, fmt.Errorf("%s source returned a nil item: %w", p, sources.ErrMalformedResponse)
		}
		if item.Platform() != p {
			return platformData{}, fmt.Errorf("%s source returned a %s item: %w", p, item.Platform(), sources.ErrMalformedResponse)
		}
		if err := item.Validate(); err != nil {
			return platformData{}, fmt.Errorf("%s source returned an invalid item: %w: %w", p, sources.ErrMalformedResponse, err)
		}

		switch v := item.(type) {
		case models.RepositoryItem:
			data.repos = append(data.repos, v)
		case models.SocialPost:
			data.posts = append(data.posts, v)
		case models.DiscussionPost:
			data.discussions = append(data.discussions, v)
		default:
			return platformData{}, fmt.Errorf("%s source returned unsupported item %T: %w", p, item, sources.ErrMalformedResponse)
		}
	}

	return data, nil
}

func (d platformData) score(p models.Platform) (float64, bool) {
	switch p {
	case models.PlatformGitHub:
		return scoring.Repositories(d.repos)
	case models.PlatformTwitter:
		return scoring.Social(d.posts)
	case models.PlatformReddit:
		return scoring.Discussion(d.discussions)
	}
	return 0, false
}

func (a *Analyzer) updateMetrics(topic models.TrendingTopic, failures map[models.Platform]error, duration time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics.TotalAnalyses++
	a.metrics.LastRun = topic.AnalysisTimestamp
	a.metrics.LastRunDuration = duration.String()
	a.metrics.PlatformItems[models.PlatformGitHub] += len(topic.GitHubData)
	a.metrics.PlatformItems[models.PlatformTwitter] += len(topic.TwitterData)
	a.metrics.PlatformItems[models.PlatformReddit] += len(topic.RedditData)

	for p := range failures {
		a.metrics.PlatformErrors[p]++
		a.metrics.ErrorCount++
	}
}

// GetMetrics returns current metrics as JSON
func (a *Analyzer) GetMetrics() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, _ := json.MarshalIndent(a.metrics, "", "  ")
	return string(data)
}
