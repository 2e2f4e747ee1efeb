package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trendscope/trendscope/internal/models"
)

func repo(stars, forks int, contributors models.OptionalInt) models.RepositoryItem {
	return models.RepositoryItem{StargazersCount: stars, ForksCount: forks, ContributorsCount: contributors}
}

func TestRepositories(t *testing.T) {
	repos := []models.RepositoryItem{
		repo(500, 100, models.Int(10)),
		repo(300, 50, models.Int(5)),
		repo(200, 25, models.Int(3)),
	}

	score, ok := Repositories(repos)
	require.True(t, ok)
	assert.InDelta(t, 0.1853, score, 0.0001)
}

func TestRepositories_UnknownContributorsCountAsZero(t *testing.T) {
	known, _ := Repositories([]models.RepositoryItem{repo(1000, 0, models.Int(0))})
	unknown, _ := Repositories([]models.RepositoryItem{repo(1000, 0, models.OptionalInt{})})
	assert.Equal(t, known, unknown)
	assert.InDelta(t, 0.5, unknown, 1e-9)
}

func TestRepositories_CapsAtMax(t *testing.T) {
	score, ok := Repositories([]models.RepositoryItem{repo(10_000_000, 5_000_000, models.Int(4000))})
	require.True(t, ok)
	assert.Equal(t, MaxScore, score)
}

func TestSocial(t *testing.T) {
	posts := []models.SocialPost{
		{LikeCount: 3000, RetweetCount: 1000, ReplyCount: 500, QuoteCount: 10_000},
		{LikeCount: 4000, RetweetCount: 500, ReplyCount: 0},
	}

	score, ok := Social(posts)
	require.True(t, ok)
	// (4500 + 4500) / 2 / 100, quotes ignored
	assert.InDelta(t, 45.0, score, 1e-9)
}

func TestDiscussion(t *testing.T) {
	posts := []models.DiscussionPost{
		{Score: 10_000, NumComments: 0, UpvoteRatio: 0.9},
	}

	score, ok := Discussion(posts)
	require.True(t, ok)
	assert.InDelta(t, 70.0, score, 1e-9)
}

func TestDiscussion_NegativeClampsToZero(t *testing.T) {
	posts := []models.DiscussionPost{
		{Score: -5000, NumComments: 2, UpvoteRatio: 0.05},
		{Score: -3000, NumComments: 1, UpvoteRatio: 0.1},
	}

	score, ok := Discussion(posts)
	require.True(t, ok)
	assert.Equal(t, 0.0, score)
}

func TestScores_EmptyMeansNoContribution(t *testing.T) {
	_, ok := Repositories(nil)
	assert.False(t, ok)
	_, ok = Social([]models.SocialPost{})
	assert.False(t, ok)
	_, ok = Discussion(nil)
	assert.False(t, ok)

	// a real zero is still a contribution
	score, ok := Social([]models.SocialPost{{}})
	assert.True(t, ok)
	assert.Equal(t, 0.0, score)
}

func TestScores_StayInRange(t *testing.T) {
	counts := []int{0, 1, 7, 99, 1000, 123_456, math.MaxInt32}
	for _, a := range counts {
		for _, b := range counts {
			r, _ := Repositories([]models.RepositoryItem{repo(a, b, models.Int(a)), repo(b, a, models.OptionalInt{})})
			s, _ := Social([]models.SocialPost{{LikeCount: a, RetweetCount: b, ReplyCount: a}})
			d, _ := Discussion([]models.DiscussionPost{{Score: a - b, NumComments: b, UpvoteRatio: 0.5}})
			for _, v := range []float64{r, s, d} {
				assert.GreaterOrEqual(t, v, MinScore)
				assert.LessOrEqual(t, v, MaxScore)
			}
		}
	}
}

func TestScores_Deterministic(t *testing.T) {
	repos := []models.RepositoryItem{repo(42, 7, models.Int(3)), repo(9, 1, models.OptionalInt{})}
	first, _ := Repositories(repos)
	for i := 0; i < 10; i++ {
		again, _ := Repositories(repos)
		assert.Equal(t, first, again)
	}
}

func TestOverall(t *testing.T) {
	w := DefaultWeights()

	t.Run("all platforms", func(t *testing.T) {
		overall := Overall(map[models.Platform]float64{
			models.PlatformGitHub:  18.53,
			models.PlatformTwitter: 45.0,
			models.PlatformReddit:  70.0,
		}, w)
		require.NotNil(t, overall)
		assert.InDelta(t, 40.66, *overall, 0.01)
	})

	t.Run("missing platform is not renormalized", func(t *testing.T) {
		overall := Overall(map[models.Platform]float64{
			models.PlatformGitHub: 18.53,
			models.PlatformReddit: 70.0,
		}, w)
		require.NotNil(t, overall)
		assert.InDelta(t, 18.53*0.4+70.0*0.25, *overall, 1e-9)
	})

	t.Run("nothing contributed", func(t *testing.T) {
		assert.Nil(t, Overall(nil, w))
		assert.Nil(t, Overall(map[models.Platform]float64{}, w))
	})

	t.Run("zero score still present", func(t *testing.T) {
		overall := Overall(map[models.Platform]float64{models.PlatformTwitter: 0}, w)
		require.NotNil(t, overall)
		assert.Equal(t, 0.0, *overall)
	})

	t.Run("custom weights", func(t *testing.T) {
		overall := Overall(map[models.Platform]float64{models.PlatformGitHub: 50}, Weights{Repository: 1})
		require.NotNil(t, overall)
		assert.Equal(t, 50.0, *overall)
	})
	t.Run("repeated calls are bit identical", func(t *testing.T) {
		scores := map[models.Platform]float64{
			models.PlatformGitHub:  0.1,
			models.PlatformTwitter: 0.2,
			models.PlatformReddit:  0.3,
		}
		first := Overall(scores, w)
		require.NotNil(t, first)
		for i := 0; i < 100; i++ {
			assert.Equal(t, math.Float64bits(*first), math.Float64bits(*Overall(scores, w)))
		}
	})
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.Error(t, Weights{Repository: -0.1}.Validate())
	assert.Error(t, Weights{Social: math.NaN()}.Validate())
}

func TestComputeRepoMetrics(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r := models.RepositoryItem{
		StargazersCount:   1000,
		ForksCount:        200,
		OpenIssuesCount:   120,
		ContributorsCount: models.Int(50),
		CreatedAt:         now.AddDate(0, 0, -100),
		UpdatedAt:         now.AddDate(0, 0, -2),
	}

	got := ComputeRepoMetrics(r, now)

	require.NotNil(t, got.StarsPerDay)
	assert.InDelta(t, 10.0, *got.StarsPerDay, 1e-9)
	require.NotNil(t, got.StarsPerContributor)
	assert.InDelta(t, 20.0, *got.StarsPerContributor, 1e-9)
	require.NotNil(t, got.HealthScore)
	// 600 + 60 + 100/2 - (120/1200)*50
	assert.InDelta(t, 705.0, *got.HealthScore, 1e-9)
}

func TestComputeRepoMetrics_FreshRepoWithoutContributors(t *testing.T) {
	now := time.Now()
	got := ComputeRepoMetrics(models.RepositoryItem{StargazersCount: 5, CreatedAt: now, UpdatedAt: now}, now)

	require.NotNil(t, got.StarsPerDay)
	assert.Equal(t, 5.0, *got.StarsPerDay)
	assert.Nil(t, got.StarsPerContributor)
	require.NotNil(t, got.HealthScore)
	assert.InDelta(t, 5*0.6+100, *got.HealthScore, 1e-9)
}
