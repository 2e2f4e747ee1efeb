package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/trendscope/trendscope/internal/models"
)

const defaultTwitterURL = "https://api.twitter.com"

// TwitterSource implements Twitter/X API v2 recent search
type TwitterSource struct {
	bearerToken string
	client      *resty.Client
}

type twitterSearchResponse struct {
	Data     []twitterTweet `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type twitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		LikeCount    int `json:"like_count"`
		ReplyCount   int `json:"reply_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
	Entities struct {
		Hashtags []struct {
			Tag string `json:"tag"`
		} `json:"hashtags"`
		Mentions []struct {
			Username string `json:"username"`
		} `json:"mentions"`
	} `json:"entities"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

// NewTwitterSource creates a new Twitter source
func NewTwitterSource(bearerToken string, opts ...Option) *TwitterSource {
	o := buildOptions(defaultTwitterURL, "", opts)
	return &TwitterSource{
		bearerToken: bearerToken,
		client:      o.newClient(),
	}
}

func (t *TwitterSource) GetName() models.Platform {
	return models.PlatformTwitter
}

func (t *TwitterSource) IsEnabled() bool {
	return t.bearerToken != ""
}

func (t *TwitterSource) Search(ctx context.Context, query string, maxResults int) ([]models.Item, error) {
	if !t.IsEnabled() {
		logrus.Debug("Twitter source disabled - missing bearer token")
		return nil, fmt.Errorf("twitter: %w", ErrDisabled)
	}

	// the API accepts 10..100 per page
	pageSize := maxResults
	if pageSize < 10 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(t.bearerToken).
		SetQueryParams(map[string]string{
			"query":        query + " -is:retweet",
			"max_results":  strconv.Itoa(pageSize),
			"tweet.fields": "created_at,public_metrics,entities,author_id,referenced_tweets",
			"expansions":   "author_id",
			"user.fields":  "username",
		}).
		Get("/2/tweets/search/recent")

	if err := checkResponse("twitter", resp, err); err != nil {
		if errors.Is(err, ErrRateLimited) {
			if resetTime := resp.Header().Get("x-rate-limit-reset"); resetTime != "" {
				logrus.Warnf("Twitter rate limit hit for '%s', resets at %s", query, resetTime)
			}
		}
		return nil, err
	}

	var searchResp twitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Twitter response: %w: %w", ErrMalformedResponse, err)
	}

	logrus.Infof("Twitter API returned %d tweets for '%s'", len(searchResp.Data), query)

	usernames := make(map[string]string, len(searchResp.Includes.Users))
	for _, user := range searchResp.Includes.Users {
		usernames[user.ID] = user.Username
	}

	var items []models.Item
	for _, tweet := range searchResp.Data {
		if isRetweet(tweet) {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
		if err != nil {
			logrus.Errorf("Failed to parse Twitter timestamp: %v", err)
			continue
		}

		post := models.SocialPost{
			ID:             tweet.ID,
			Text:           tweet.Text,
			AuthorID:       tweet.AuthorID,
			AuthorUsername: usernames[tweet.AuthorID],
			CreatedAt:      createdAt,
			RetweetCount:   tweet.PublicMetrics.RetweetCount,
			LikeCount:      tweet.PublicMetrics.LikeCount,
			ReplyCount:     tweet.PublicMetrics.ReplyCount,
			QuoteCount:     tweet.PublicMetrics.QuoteCount,
			Hashtags:       []string{},
			Mentions:       []string{},
		}
		for _, tag := range tweet.Entities.Hashtags {
			post.Hashtags = append(post.Hashtags, tag.Tag)
		}
		for _, mention := range tweet.Entities.Mentions {
			post.Mentions = append(post.Mentions, mention.Username)
		}

		items = append(items, post)
	}

	return capResults(items, maxResults), nil
}

func isRetweet(tweet twitterTweet) bool {
	for _, ref := range tweet.ReferencedTweets {
		if ref.Type == "retweeted" {
			return true
		}
	}
	return false
}
