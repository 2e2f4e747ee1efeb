package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/trendscope/trendscope/internal/models"
)

const (
	defaultRedditURL     = "https://oauth.reddit.com"
	defaultRedditAuthURL = "https://www.reddit.com/api/v1/access_token"
)

// DefaultSubreddits are searched when no list is configured
var DefaultSubreddits = []string{
	"programming", "Python", "javascript", "webdev", "MachineLearning",
	"datascience", "technology", "coding", "learnprogramming", "opensource",
}

// RedditSource implements Reddit API source
type RedditSource struct {
	clientID     string
	clientSecret string
	subreddits   []string
	client       *resty.Client
	authURL      string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	IsSelf      bool    `json:"is_self"`
	Domain      string  `json:"domain"`
}

// NewRedditSource creates a new Reddit source. A nil subreddit list falls
// back to DefaultSubreddits.
func NewRedditSource(clientID, clientSecret string, subreddits []string, opts ...Option) *RedditSource {
	o := buildOptions(defaultRedditURL, defaultRedditAuthURL, opts)
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		subreddits:   subreddits,
		client:       o.newClient(),
		authURL:      o.authURL,
	}
}

func (r *RedditSource) GetName() models.Platform {
	return models.PlatformReddit
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

func (r *RedditSource) Search(ctx context.Context, query string, maxResults int) ([]models.Item, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing credentials")
		return nil, fmt.Errorf("reddit: %w", ErrDisabled)
	}

	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}

	var posts []redditPost
	var lastErr error
	searched := 0

	for _, subreddit := range r.subreddits {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("reddit search interrupted: %w: %w", ErrNetwork, ctx.Err())
		}

		found, err := r.searchSubreddit(ctx, token, subreddit, query, maxResults)
		if err != nil {
			logrus.Errorf("Failed to search subreddit %s: %v", subreddit, err)
			lastErr = err
			continue
		}
		searched++
		posts = append(posts, found...)
	}

	if searched == 0 && lastErr != nil {
		return nil, lastErr
	}

	posts = deduplicatePosts(posts)
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Score > posts[j].Score
	})
	posts = capResults(posts, maxResults)

	items := make([]models.Item, 0, len(posts))
	for _, post := range posts {
		items = append(items, models.DiscussionPost{
			ID:          post.ID,
			Title:       post.Title,
			Selftext:    post.Selftext,
			Author:      post.Author,
			Subreddit:   post.Subreddit,
			Score:       post.Score,
			UpvoteRatio: post.UpvoteRatio,
			NumComments: post.NumComments,
			CreatedAt:   time.Unix(int64(post.Created), 0).UTC(),
			URL:         fmt.Sprintf("https://reddit.com%s", post.Permalink),
			IsSelf:      post.IsSelf,
			Domain:      post.Domain,
		})
	}

	logrus.Infof("Found %d Reddit posts for '%s' across %d subreddits", len(items), query, searched)
	return items, nil
}

// token returns a cached application token, requesting a new one when the
// cached token is missing or about to expire.
func (r *RedditSource) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && time.Now().Before(r.expiresAt) {
		return r.accessToken, nil
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.authURL)

	if err := checkResponse("reddit auth", resp, err); err != nil {
		return "", err
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil || authResp.AccessToken == "" {
		return "", fmt.Errorf("reddit token exchange returned no token: %w", ErrAuthentication)
	}

	r.accessToken = authResp.AccessToken
	r.expiresAt = time.Now().Add(time.Duration(authResp.ExpiresIn)*time.Second - time.Minute)
	return r.accessToken, nil
}

func (r *RedditSource) searchSubreddit(ctx context.Context, token, subreddit, query string, limit int) ([]redditPost, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("subreddit", subreddit).
		SetQueryParams(map[string]string{
			"q":           query,
			"restrict_sr": "1",
			"sort":        "hot",
			"t":           "week",
			"limit":       strconv.Itoa(limit),
		}).
		Get("/r/{subreddit}/search.json")

	if err := checkResponse("reddit", resp, err); err != nil {
		return nil, err
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Reddit response: %w: %w", ErrMalformedResponse, err)
	}

	posts := make([]redditPost, 0, len(searchResp.Data.Children))
	for _, child := range searchResp.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func deduplicatePosts(posts []redditPost) []redditPost {
	seen := make(map[string]bool)
	var unique []redditPost

	for _, post := range posts {
		if !seen[post.ID] {
			seen[post.ID] = true
			unique = append(unique, post)
		}
	}

	return unique
}
