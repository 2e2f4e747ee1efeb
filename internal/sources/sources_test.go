package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trendscope/trendscope/internal/models"
)

func TestSources_GetName(t *testing.T) {
	assert.Equal(t, models.PlatformGitHub, NewGitHubSource("").GetName())
	assert.Equal(t, models.PlatformTwitter, NewTwitterSource("token").GetName())
	assert.Equal(t, models.PlatformReddit, NewRedditSource("id", "secret", nil).GetName())
}

func TestRedditSource_IsEnabled(t *testing.T) {
	tests := []struct {
		name         string
		clientID     string
		clientSecret string
		expected     bool
	}{
		{
			name:         "Both credentials provided",
			clientID:     "client_id",
			clientSecret: "client_secret",
			expected:     true,
		},
		{
			name:         "Missing client ID",
			clientID:     "",
			clientSecret: "client_secret",
			expected:     false,
		},
		{
			name:         "Missing client secret",
			clientID:     "client_id",
			clientSecret: "",
			expected:     false,
		},
		{
			name:         "Both missing",
			clientID:     "",
			clientSecret: "",
			expected:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewRedditSource(tt.clientID, tt.clientSecret, nil)
			assert.Equal(t, tt.expected, source.IsEnabled())
		})
	}
}

func TestTwitterSource_IsEnabled(t *testing.T) {
	assert.True(t, NewTwitterSource("bearer").IsEnabled())
	assert.False(t, NewTwitterSource("").IsEnabled())
}

func TestGitHubSource_IsEnabledWithoutToken(t *testing.T) {
	assert.True(t, NewGitHubSource("").IsEnabled())
}

func TestDisabledSources_ReturnErrDisabled(t *testing.T) {
	ctx := context.Background()

	_, err := NewTwitterSource("").Search(ctx, "go", 10)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewRedditSource("", "", nil).Search(ctx, "go", 10)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestCheckResponse_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		headers  map[string]string
		expected error
	}{
		{"unauthorized", http.StatusUnauthorized, nil, ErrAuthentication},
		{"forbidden", http.StatusForbidden, nil, ErrAuthentication},
		{"forbidden rate limit", http.StatusForbidden, map[string]string{"X-RateLimit-Remaining": "0"}, ErrRateLimited},
		{"too many requests", http.StatusTooManyRequests, nil, ErrRateLimited},
		{"server error", http.StatusBadGateway, nil, ErrNetwork},
		{"unprocessable", http.StatusUnprocessableEntity, nil, ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			source := NewGitHubSource("", WithBaseURL(server.URL))
			_, err := source.Search(context.Background(), "go", 5)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}

func TestCheckResponse_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewGitHubSource("", WithBaseURL(url)).Search(context.Background(), "go", 5)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestCapResults(t *testing.T) {
	assert.Equal(t, []int{1, 2}, capResults([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1}, capResults([]int{1}, 5))
	assert.Empty(t, capResults([]int{1, 2}, 0))
}
