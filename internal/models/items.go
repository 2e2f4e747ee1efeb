package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Item is a single piece of content returned by a platform adapter.
// The set of implementations is closed: RepositoryItem, SocialPost and
// DiscussionPost.
type Item interface {
	Platform() Platform
	Validate() error
	isItem()
}

// OptionalInt is a non-negative count that may be unknown.
type OptionalInt struct {
	Value int
	Valid bool
}

// Int returns a known OptionalInt.
func Int(v int) OptionalInt {
	return OptionalInt{Value: v, Valid: true}
}

// ValueOrZero returns the value, or 0 when unknown. Scoring treats an
// unknown count as zero.
func (o OptionalInt) ValueOrZero() int {
	if !o.Valid {
		return 0
	}
	return o.Value
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptionalInt{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Int(v)
	return nil
}

// RepositoryItem is a code repository from the code-hosting platform.
type RepositoryItem struct {
	ID                  int64       `json:"id"`
	Name                string      `json:"name"`
	FullName            string      `json:"full_name"`
	Description         *string     `json:"description"`
	HTMLURL             string      `json:"html_url"`
	StargazersCount     int         `json:"stargazers_count"`
	ForksCount          int         `json:"forks_count"`
	Language            *string     `json:"language"`
	Topics              []string    `json:"topics"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
	OpenIssuesCount     int         `json:"open_issues_count"`
	ContributorsCount   OptionalInt `json:"contributors_count"`
	TechStack           []string    `json:"tech_stack"`
	StarsPerDay         *float64    `json:"stars_per_day,omitempty"`
	HealthScore         *float64    `json:"health_score,omitempty"`
	StarsPerContributor *float64    `json:"stars_per_contributor,omitempty"`
}

func (RepositoryItem) Platform() Platform { return PlatformGitHub }
func (RepositoryItem) isItem()            {}

// LanguageName returns the primary language or "" when unknown.
func (r RepositoryItem) LanguageName() string {
	if r.Language == nil {
		return ""
	}
	return *r.Language
}

func (r RepositoryItem) Validate() error {
	switch {
	case r.StargazersCount < 0:
		return fmt.Errorf("repository %s: negative star count %d", r.FullName, r.StargazersCount)
	case r.ForksCount < 0:
		return fmt.Errorf("repository %s: negative fork count %d", r.FullName, r.ForksCount)
	case r.OpenIssuesCount < 0:
		return fmt.Errorf("repository %s: negative open issue count %d", r.FullName, r.OpenIssuesCount)
	case r.ContributorsCount.Valid && r.ContributorsCount.Value < 0:
		return fmt.Errorf("repository %s: negative contributor count %d", r.FullName, r.ContributorsCount.Value)
	}
	return nil
}

// SocialPost is a post from the microblogging platform.
type SocialPost struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	RetweetCount   int       `json:"retweet_count"`
	LikeCount      int       `json:"like_count"`
	ReplyCount     int       `json:"reply_count"`
	QuoteCount     int       `json:"quote_count"`
	Hashtags       []string  `json:"hashtags"`
	Mentions       []string  `json:"mentions"`
}

func (SocialPost) Platform() Platform { return PlatformTwitter }
func (SocialPost) isItem()            {}

func (p SocialPost) Validate() error {
	if p.LikeCount < 0 || p.RetweetCount < 0 || p.ReplyCount < 0 || p.QuoteCount < 0 {
		return fmt.Errorf("post %s: negative engagement count (likes=%d retweets=%d replies=%d quotes=%d)",
			p.ID, p.LikeCount, p.RetweetCount, p.ReplyCount, p.QuoteCount)
	}
	return nil
}

// DiscussionPost is a thread from the discussion forum. Score is the net
// vote count and may be negative.
type DiscussionPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Selftext    string    `json:"selftext"`
	Author      string    `json:"author"`
	Subreddit   string    `json:"subreddit"`
	Score       int       `json:"score"`
	UpvoteRatio float64   `json:"upvote_ratio"`
	NumComments int       `json:"num_comments"`
	CreatedAt   time.Time `json:"created_at"`
	URL         string    `json:"url"`
	IsSelf      bool      `json:"is_self"`
	Domain      string    `json:"domain"`
}

func (DiscussionPost) Platform() Platform { return PlatformReddit }
func (DiscussionPost) isItem()            {}

func (p DiscussionPost) Validate() error {
	if p.NumComments < 0 {
		return fmt.Errorf("discussion %s: negative comment count %d", p.ID, p.NumComments)
	}
	if math.IsNaN(p.UpvoteRatio) || p.UpvoteRatio < 0 || p.UpvoteRatio > 1 {
		return fmt.Errorf("discussion %s: upvote ratio %v outside [0,1]", p.ID, p.UpvoteRatio)
	}
	return nil
}
