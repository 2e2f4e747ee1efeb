// Package scoring reduces platform items to normalized trending scores.
//
// Every platform score lies in [0, 100]. A platform with no items makes no
// contribution, which callers observe through the boolean result and which
// is distinct from a score of 0.
package scoring

import (
	"fmt"
	"math"

	"github.com/trendscope/trendscope/internal/models"
)

const (
	MaxScore = 100.0
	MinScore = 0.0
)

// Weights sets how much each platform score contributes to the overall score.
type Weights struct {
	Repository float64 `json:"repository"`
	Social     float64 `json:"social"`
	Discussion float64 `json:"discussion"`
}

// DefaultWeights returns the standard 0.4 / 0.35 / 0.25 split.
func DefaultWeights() Weights {
	return Weights{Repository: 0.4, Social: 0.35, Discussion: 0.25}
}

// For returns the weight assigned to a platform.
func (w Weights) For(p models.Platform) float64 {
	switch p {
	case models.PlatformGitHub:
		return w.Repository
	case models.PlatformTwitter:
		return w.Social
	case models.PlatformReddit:
		return w.Discussion
	}
	return 0
}

func (w Weights) Validate() error {
	for _, p := range models.AllPlatforms {
		v := w.For(p)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("weight for %s must be a non-negative number, got %v", p, v)
		}
	}
	return nil
}

// Repositories scores repositories by average stars, forks and contributors.
// Unknown contributor counts count as zero.
func Repositories(repos []models.RepositoryItem) (float64, bool) {
	if len(repos) == 0 {
		return 0, false
	}

	var stars, forks, contributors float64
	for _, repo := range repos {
		stars += float64(repo.StargazersCount)
		forks += float64(repo.ForksCount)
		contributors += float64(repo.ContributorsCount.ValueOrZero())
	}

	n := float64(len(repos))
	raw := (stars/n)*0.5 + (forks/n)*0.3 + (contributors/n)*0.2
	return clamp(raw / 1000), true
}

// Social scores posts by average likes, retweets and replies. Quotes are not
// part of the engagement total.
func Social(posts []models.SocialPost) (float64, bool) {
	if len(posts) == 0 {
		return 0, false
	}

	var engagement float64
	for _, post := range posts {
		engagement += float64(post.LikeCount + post.RetweetCount + post.ReplyCount)
	}

	return clamp(engagement / float64(len(posts)) / 100), true
}

// Discussion scores threads by average net score and comment count. A heavily
// downvoted set can produce a negative raw value, which clamps to 0.
func Discussion(posts []models.DiscussionPost) (float64, bool) {
	if len(posts) == 0 {
		return 0, false
	}

	var net, comments float64
	for _, post := range posts {
		net += float64(post.Score)
		comments += float64(post.NumComments)
	}

	n := float64(len(posts))
	raw := (net/n)*0.7 + (comments/n)*0.3
	return clamp(raw / 100), true
}

// Overall combines the contributing platform scores with fixed weights.
// Missing platforms add nothing and the remaining weights are not rescaled.
// It returns nil when no platform contributed.
func Overall(scores map[models.Platform]float64, w Weights) *float64 {
	if len(scores) == 0 {
		return nil
	}

	// fixed platform order keeps the float sum reproducible
	var total float64
	for _, p := range models.AllPlatforms {
		if score, ok := scores[p]; ok {
			total += score * w.For(p)
		}
	}

	overall := clamp(total)
	return &overall
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(v, MaxScore))
}
