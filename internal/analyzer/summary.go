package analyzer

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/trendscope/trendscope/internal/models"
)

const (
	maxTopLanguages       = 10
	maxTopContributors    = 10
	maxPlatformLanguages  = 5
	maxTrendingHashtags   = 10
	maxTopPosts           = 5
	maxActiveSubreddits   = 5
	maxTrendingKeywords   = 15
	minKeywordLength      = 4
	highEngagementScore   = 100
	mediumEngagementScore = 50
)

var commonWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true, "by": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true, "they": true, "me": true,
	"him": true, "her": true, "us": true, "them": true, "my": true, "your": true, "his": true,
	"its": true, "our": true, "their": true,
}

// HashtagCount is a hashtag with the number of posts using it
type HashtagCount struct {
	Hashtag string `json:"hashtag"`
	Count   int    `json:"count"`
}

// SubredditStats aggregates the posts found in one subreddit
type SubredditStats struct {
	Subreddit      string  `json:"subreddit"`
	Count          int     `json:"count"`
	TotalScore     int     `json:"total_score"`
	TotalComments  int     `json:"total_comments"`
	AvgScore       float64 `json:"avg_score"`
	AvgComments    float64 `json:"avg_comments"`
	AvgUpvoteRatio float64 `json:"avg_upvote_ratio"`
}

// TopPost is a condensed high-scoring discussion
type TopPost struct {
	Title     string `json:"title"`
	Score     int    `json:"score"`
	Comments  int    `json:"comments"`
	Subreddit string `json:"subreddit"`
}

// Keyword is a frequent word in discussion titles and bodies
type Keyword struct {
	Keyword    string  `json:"keyword"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// GenerateSummary derives language, contributor and per-platform statistics
// from a finished analysis.
func GenerateSummary(topic models.TrendingTopic) models.AnalysisSummary {
	summary := models.AnalysisSummary{
		TotalRepos:      len(topic.GitHubData),
		TopLanguages:    []models.LanguageStat{},
		TopContributors: []models.TopRepository{},
		PlatformStats:   []models.PlatformStats{},
	}

	if len(topic.GitHubData) > 0 {
		summary.TopLanguages = TrendingLanguages(topic.GitHubData)
		summary.TopContributors = TopContributors(topic.GitHubData)
		summary.PlatformStats = append(summary.PlatformStats, githubStats(topic.GitHubData, summary.TopLanguages))
	}
	if len(topic.TwitterData) > 0 {
		summary.PlatformStats = append(summary.PlatformStats, twitterStats(topic.TwitterData))
	}
	if len(topic.RedditData) > 0 {
		summary.PlatformStats = append(summary.PlatformStats, redditStats(topic.RedditData))
	}

	return summary
}

// TrendingLanguages groups repositories by primary language, most common
// first. Repositories without a language are skipped.
func TrendingLanguages(repos []models.RepositoryItem) []models.LanguageStat {
	index := make(map[string]int)
	var stats []models.LanguageStat

	for _, repo := range repos {
		lang := repo.LanguageName()
		if lang == "" {
			continue
		}
		i, ok := index[lang]
		if !ok {
			i = len(stats)
			index[lang] = i
			stats = append(stats, models.LanguageStat{Language: lang})
		}
		stats[i].Count++
		stats[i].TotalStars += repo.StargazersCount
		stats[i].TotalForks += repo.ForksCount
	}

	for i := range stats {
		stats[i].AvgStars = float64(stats[i].TotalStars) / float64(stats[i].Count)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].TotalStars > stats[j].TotalStars
	})

	if len(stats) > maxTopLanguages {
		stats = stats[:maxTopLanguages]
	}
	if stats == nil {
		return []models.LanguageStat{}
	}
	return stats
}

// TopContributors ranks repositories with known contributors by
// stars + 2*forks.
func TopContributors(repos []models.RepositoryItem) []models.TopRepository {
	top := []models.TopRepository{}
	for _, repo := range repos {
		if !repo.ContributorsCount.Valid || repo.ContributorsCount.Value <= 0 {
			continue
		}
		top = append(top, models.TopRepository{
			RepoName: repo.FullName,
			Score:    repo.StargazersCount + 2*repo.ForksCount,
			Stars:    repo.StargazersCount,
			Forks:    repo.ForksCount,
			Language: repo.LanguageName(),
		})
	}

	sort.SliceStable(top, func(i, j int) bool { return top[i].Score > top[j].Score })

	if len(top) > maxTopContributors {
		top = top[:maxTopContributors]
	}
	return top
}

func githubStats(repos []models.RepositoryItem, languages []models.LanguageStat) models.PlatformStats {
	var totalStars, totalForks int
	keywords := []string{}
	seen := make(map[string]bool)

	for _, repo := range repos {
		totalStars += repo.StargazersCount
		totalForks += repo.ForksCount
		if lang := repo.LanguageName(); lang != "" && !seen[lang] {
			seen[lang] = true
			keywords = append(keywords, lang)
		}
	}

	if len(languages) > maxPlatformLanguages {
		languages = languages[:maxPlatformLanguages]
	}

	return models.PlatformStats{
		Platform:     models.PlatformGitHub,
		TotalItems:   len(repos),
		TopLanguages: languages,
		EngagementMetrics: map[string]interface{}{
			"total_stars": totalStars,
			"total_forks": totalForks,
			"avg_stars":   float64(totalStars) / float64(len(repos)),
		},
		TrendingKeywords: keywords,
	}
}

func twitterStats(posts []models.SocialPost) models.PlatformStats {
	var likes, retweets, replies, quotes int
	counts := make(map[string]int)

	for _, post := range posts {
		likes += post.LikeCount
		retweets += post.RetweetCount
		replies += post.ReplyCount
		quotes += post.QuoteCount
		for _, tag := range post.Hashtags {
			counts[tag]++
		}
	}

	hashtags := make([]HashtagCount, 0, len(counts))
	for tag, count := range counts {
		hashtags = append(hashtags, HashtagCount{Hashtag: tag, Count: count})
	}
	sort.Slice(hashtags, func(i, j int) bool {
		if hashtags[i].Count != hashtags[j].Count {
			return hashtags[i].Count > hashtags[j].Count
		}
		return hashtags[i].Hashtag < hashtags[j].Hashtag
	})
	if len(hashtags) > maxTrendingHashtags {
		hashtags = hashtags[:maxTrendingHashtags]
	}

	keywords := make([]string, 0, len(hashtags))
	for _, h := range hashtags {
		keywords = append(keywords, h.Hashtag)
	}

	total := likes + retweets + replies + quotes
	ratio := func(part int) float64 {
		if total == 0 {
			return 0
		}
		return float64(part) / float64(total)
	}

	return models.PlatformStats{
		Platform:   models.PlatformTwitter,
		TotalItems: len(posts),
		EngagementMetrics: map[string]interface{}{
			"total_posts":             len(posts),
			"total_likes":             likes,
			"total_retweets":          retweets,
			"total_replies":           replies,
			"total_quotes":            quotes,
			"total_engagement":        total,
			"avg_engagement_per_post": float64(total) / float64(len(posts)),
			"trending_hashtags":       hashtags,
			"engagement_trend": map[string]float64{
				"likes_ratio":    ratio(likes),
				"retweets_ratio": ratio(retweets),
				"replies_ratio":  ratio(replies),
				"quotes_ratio":   ratio(quotes),
			},
		},
		TrendingKeywords: keywords,
	}
}

func redditStats(posts []models.DiscussionPost) models.PlatformStats {
	var totalScore, totalComments int
	var totalRatio float64
	var high, medium, low int
	index := make(map[string]int)
	var subreddits []SubredditStats

	for _, post := range posts {
		totalScore += post.Score
		totalComments += post.NumComments
		totalRatio += post.UpvoteRatio

		switch {
		case post.Score > highEngagementScore:
			high++
		case post.Score >= mediumEngagementScore:
			medium++
		default:
			low++
		}

		i, ok := index[post.Subreddit]
		if !ok {
			i = len(subreddits)
			index[post.Subreddit] = i
			subreddits = append(subreddits, SubredditStats{Subreddit: post.Subreddit})
		}
		subreddits[i].Count++
		subreddits[i].TotalScore += post.Score
		subreddits[i].TotalComments += post.NumComments
		subreddits[i].AvgUpvoteRatio += post.UpvoteRatio
	}

	for i := range subreddits {
		n := float64(subreddits[i].Count)
		subreddits[i].AvgScore = float64(subreddits[i].TotalScore) / n
		subreddits[i].AvgComments = float64(subreddits[i].TotalComments) / n
		subreddits[i].AvgUpvoteRatio /= n
	}

	active := append([]SubredditStats(nil), subreddits...)
	sort.SliceStable(active, func(i, j int) bool { return active[i].Count > active[j].Count })
	if len(active) > maxActiveSubreddits {
		active = active[:maxActiveSubreddits]
	}

	ranked := append([]models.DiscussionPost(nil), posts...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > maxTopPosts {
		ranked = ranked[:maxTopPosts]
	}
	topPosts := make([]TopPost, 0, len(ranked))
	for _, post := range ranked {
		topPosts = append(topPosts, TopPost{
			Title:     post.Title,
			Score:     post.Score,
			Comments:  post.NumComments,
			Subreddit: post.Subreddit,
		})
	}

	keywords := TrendingKeywords(posts)
	words := make([]string, 0, len(keywords))
	for _, k := range keywords {
		words = append(words, k.Keyword)
	}

	n := float64(len(posts))
	return models.PlatformStats{
		Platform:   models.PlatformReddit,
		TotalItems: len(posts),
		EngagementMetrics: map[string]interface{}{
			"total_posts":            len(posts),
			"total_score":            totalScore,
			"total_comments":         totalComments,
			"avg_score_per_post":     float64(totalScore) / n,
			"avg_comments_per_post":  float64(totalComments) / n,
			"avg_upvote_ratio":       totalRatio / n,
			"subreddit_stats":        subreddits,
			"top_posts":              topPosts,
			"most_active_subreddits": active,
			"trending_keywords":      keywords,
			"engagement_trend": map[string]int{
				"high_engagement_posts":   high,
				"medium_engagement_posts": medium,
				"low_engagement_posts":    low,
			},
		},
		TrendingKeywords: words,
	}
}

// TrendingKeywords counts alphabetic words longer than three characters
// across discussion titles and bodies, skipping common words.
func TrendingKeywords(posts []models.DiscussionPost) []Keyword {
	if len(posts) == 0 {
		return []Keyword{}
	}

	counts := make(map[string]int)
	for _, post := range posts {
		text := strings.ToLower(post.Title + " " + post.Selftext)
		words := strings.FieldsFunc(text, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		for _, word := range words {
			if utf8.RuneCountInString(word) < minKeywordLength || commonWords[word] || !isAlpha(word) {
				continue
			}
			counts[word]++
		}
	}

	keywords := make([]Keyword, 0, len(counts))
	for word, count := range counts {
		keywords = append(keywords, Keyword{
			Keyword:    word,
			Count:      count,
			Percentage: float64(count) / float64(len(posts)) * 100,
		})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Keyword < keywords[j].Keyword
	})

	if len(keywords) > maxTrendingKeywords {
		keywords = keywords[:maxTrendingKeywords]
	}
	return keywords
}

func isAlpha(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
