package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/trendscope/trendscope/internal/models"
	"golang.org/x/sync/errgroup"
)

// RunWatchlist analyzes every watched topic, archives the results and sends
// a report plus an alert per topic at or above the alert threshold. A failed
// topic is recorded on its digest. Only report delivery failures are
// returned as errors.
func (a *Analyzer) RunWatchlist(ctx context.Context, topics []models.WatchTopic) (*models.Report, error) {
	start := a.now()
	logrus.Infof("Starting watchlist run for %d topics", len(topics))

	digests := make([]models.TopicDigest, len(topics))

	var g errgroup.Group
	g.SetLimit(a.watchConcurrency)
	for i, topic := range topics {
		g.Go(func() error {
			digests[i] = a.analyzeWatchTopic(ctx, topic, start.Format("2006-01-02"))
			return nil
		})
	}
	g.Wait()

	sortDigests(digests)

	report := a.generateReport(digests)
	a.archive(ctx, fmt.Sprintf("reports/%s-%s.json", report.Period, start.UTC().Format("2006-01-02-15-04-05")), report)

	a.mu.Lock()
	a.metrics.LastWatchlistRun = start
	a.mu.Unlock()

	if a.notificationService == nil {
		logrus.Warn("No notification service configured, skipping report delivery")
		return report, nil
	}

	reportErr := a.notificationService.SendReport(report)
	a.sendAlerts(report)
	if reportErr != nil {
		return report, fmt.Errorf("failed to send report: %w", reportErr)
	}

	logrus.Infof("Watchlist run completed in %v", a.now().Sub(start))
	return report, nil
}

func (a *Analyzer) analyzeWatchTopic(ctx context.Context, watch models.WatchTopic, day string) models.TopicDigest {
	name := watch.Name
	if name == "" {
		name = watch.Query
	}
	digest := models.TopicDigest{Name: name, Query: watch.Query}

	req := models.AnalysisRequest{
		Query:                 watch.Query,
		Platforms:             watch.Platforms,
		MaxResultsPerPlatform: watch.MaxResults,
	}
	if len(req.Platforms) == 0 {
		req.Platforms = models.AllPlatforms
	}
	if req.MaxResultsPerPlatform == 0 {
		req.MaxResultsPerPlatform = DefaultMaxResults
	}

	topic, err := a.Analyze(ctx, req)
	if err != nil {
		logrus.Errorf("Watchlist topic '%s' failed: %v", name, err)
		digest.Error = err.Error()
		return digest
	}

	a.archive(ctx, fmt.Sprintf("analyses/%s/%s.json", day, slugify(name)), topic)

	digest.OverallScore = topic.OverallScore
	digest.PlatformScores = topic.PlatformScores
	digest.PlatformErrors = topic.PlatformErrors
	digest.TopRepository = topRepository(topic.GitHubData)
	return digest
}

// archive stores v as JSON. Failures are logged and counted.
func (a *Analyzer) archive(ctx context.Context, filename string, v interface{}) {
	if a.storage == nil {
		return
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err == nil {
		err = a.storage.Store(ctx, filename, data)
	}
	if err != nil {
		logrus.Errorf("Failed to archive %s: %v", filename, err)
		a.mu.Lock()
		a.metrics.StorageErrors++
		a.mu.Unlock()
	}
}

// topRepository picks the most starred repository.
func topRepository(repos []models.RepositoryItem) *models.TopRepository {
	if len(repos) == 0 {
		return nil
	}

	best := repos[0]
	for _, repo := range repos[1:] {
		if repo.StargazersCount > best.StargazersCount {
			best = repo
		}
	}

	return &models.TopRepository{
		RepoName: best.FullName,
		Score:    best.StargazersCount + 2*best.ForksCount,
		Stars:    best.StargazersCount,
		Forks:    best.ForksCount,
		Language: best.LanguageName(),
	}
}

// sortDigests orders by overall score, highest first, with unscored topics
// last.
func sortDigests(digests []models.TopicDigest) {
	sort.SliceStable(digests, func(i, j int) bool {
		a, b := digests[i].OverallScore, digests[j].OverallScore
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}

func (a *Analyzer) generateReport(digests []models.TopicDigest) *models.Report {
	scored := 0
	failedPlatforms := make(map[models.Platform]int)
	var total float64

	for _, d := range digests {
		if d.OverallScore != nil {
			scored++
			total += *d.OverallScore
		}
		for p := range d.PlatformErrors {
			failedPlatforms[p]++
		}
	}

	summary := map[string]interface{}{
		"scored_topics":    scored,
		"failed_platforms": failedPlatforms,
	}
	if scored > 0 {
		summary["average_score"] = total / float64(scored)
	}

	return &models.Report{
		GeneratedAt: a.now().UTC(),
		Period:      a.reportPeriod,
		TotalTopics: len(digests),
		Topics:      digests,
		Summary:     summary,
	}
}

func (a *Analyzer) sendAlerts(report *models.Report) {
	for i := range report.Topics {
		digest := &report.Topics[i]
		if digest.OverallScore == nil || *digest.OverallScore < a.alertThreshold {
			continue
		}

		alert := &models.Alert{
			ID:        fmt.Sprintf("trend-%s-%d", slugify(digest.Name), report.GeneratedAt.Unix()),
			Type:      "urgent",
			Title:     fmt.Sprintf("%s is trending", digest.Name),
			Message:   fmt.Sprintf("Overall score %.2f reached the alert threshold of %.2f", *digest.OverallScore, a.alertThreshold),
			Topic:     digest,
			CreatedAt: report.GeneratedAt,
		}

		if err := a.notificationService.SendAlert(alert); err != nil {
			logrus.Errorf("Failed to send alert for '%s': %v", digest.Name, err)
		}
	}
}

// slugify lowercases s and joins its alphanumeric runs with dashes.
func slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return "topic"
	}
	return strings.Join(fields, "-")
}
