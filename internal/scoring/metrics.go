package scoring

import (
	"math"
	"time"

	"github.com/trendscope/trendscope/internal/models"
)

// ComputeRepoMetrics fills in the derived popularity and health metrics of a
// repository relative to now.
func ComputeRepoMetrics(repo models.RepositoryItem, now time.Time) models.RepositoryItem {
	daysOld := math.Max(math.Floor(now.Sub(repo.CreatedAt).Hours()/24), 1)
	starsPerDay := float64(repo.StargazersCount) / daysOld
	repo.StarsPerDay = &starsPerDay

	if repo.ContributorsCount.Valid && repo.ContributorsCount.Value > 0 {
		perContributor := float64(repo.StargazersCount) / float64(repo.ContributorsCount.Value)
		repo.StarsPerContributor = &perContributor
	}

	daysSinceUpdate := math.Max(math.Floor(now.Sub(repo.UpdatedAt).Hours()/24), 1)
	activity := 1 / daysSinceUpdate
	issuePenalty := float64(repo.OpenIssuesCount) / math.Max(float64(repo.StargazersCount+repo.ForksCount), 1)

	health := float64(repo.StargazersCount)*0.6 +
		float64(repo.ForksCount)*0.3 +
		activity*100 -
		issuePenalty*50
	repo.HealthScore = &health

	return repo
}
