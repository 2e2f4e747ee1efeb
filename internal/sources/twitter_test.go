package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trendscope/trendscope/internal/models"
)

const twitterFixture = `{
  "data": [
    {
      "id": "100",
      "text": "Loving #golang generics with @gopher",
      "author_id": "u1",
      "created_at": "2024-05-01T10:00:00.000Z",
      "public_metrics": {"retweet_count": 5, "reply_count": 2, "like_count": 40, "quote_count": 1},
      "entities": {"hashtags": [{"tag": "golang"}], "mentions": [{"username": "gopher"}]}
    },
    {
      "id": "101",
      "text": "RT something",
      "author_id": "u2",
      "created_at": "2024-05-01T11:00:00.000Z",
      "public_metrics": {"retweet_count": 0, "reply_count": 0, "like_count": 0, "quote_count": 0},
      "referenced_tweets": [{"type": "retweeted", "id": "99"}]
    },
    {
      "id": "102",
      "text": "bad timestamp",
      "author_id": "u2",
      "created_at": "yesterday"
    }
  ],
  "includes": {"users": [{"id": "u1", "username": "alice"}, {"id": "u2", "username": "bob"}]},
  "meta": {"result_count": 3}
}`

func TestTwitterSource_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "golang -is:retweet", r.URL.Query().Get("query"))
		assert.Equal(t, "10", r.URL.Query().Get("max_results"), "page size is raised to the API minimum")
		assert.Equal(t, "author_id", r.URL.Query().Get("expansions"))
		w.Write([]byte(twitterFixture))
	}))
	defer server.Close()

	items, err := NewTwitterSource("token", WithBaseURL(server.URL)).Search(context.Background(), "golang", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)

	post, ok := items[0].(models.SocialPost)
	require.True(t, ok)
	assert.Equal(t, "100", post.ID)
	assert.Equal(t, "alice", post.AuthorUsername)
	assert.Equal(t, 40, post.LikeCount)
	assert.Equal(t, 5, post.RetweetCount)
	assert.Equal(t, 2, post.ReplyCount)
	assert.Equal(t, 1, post.QuoteCount)
	assert.Equal(t, []string{"golang"}, post.Hashtags)
	assert.Equal(t, []string{"gopher"}, post.Mentions)
	assert.Equal(t, 2024, post.CreatedAt.Year())
}

func TestTwitterSource_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-rate-limit-reset", "1717000000")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewTwitterSource("token", WithBaseURL(server.URL)).Search(context.Background(), "golang", 20)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestTwitterSource_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewTwitterSource("bad", WithBaseURL(server.URL)).Search(context.Background(), "golang", 20)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestTwitterSource_NoMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"result_count":0}}`))
	}))
	defer server.Close()

	items, err := NewTwitterSource("token", WithBaseURL(server.URL)).Search(context.Background(), "qwertyuiop", 20)
	require.NoError(t, err)
	assert.Empty(t, items)
}
