package sources

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/trendscope/trendscope/internal/models"
)

// Source interface defines the contract for all platform adapters.
// Search returns at most maxResults items. An empty result is not an error.
type Source interface {
	GetName() models.Platform
	Search(ctx context.Context, query string, maxResults int) ([]models.Item, error)
	IsEnabled() bool
}

const userAgent = "trendscope/1.0"

// Option configures a source's HTTP client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	authURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = u }
}

// WithAuthURL overrides the OAuth token endpoint.
func WithAuthURL(u string) Option {
	return func(o *clientOptions) { o.authURL = u }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

func buildOptions(baseURL, authURL string, opts []Option) clientOptions {
	o := clientOptions{baseURL: baseURL, authURL: authURL, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o clientOptions) newClient() *resty.Client {
	var client *resty.Client
	if o.httpClient != nil {
		client = resty.NewWithClient(o.httpClient)
	} else {
		client = resty.New()
	}
	return client.
		SetBaseURL(o.baseURL).
		SetTimeout(o.timeout).
		SetHeader("User-Agent", userAgent)
}

func capResults[T any](items []T, maxResults int) []T {
	if maxResults >= 0 && len(items) > maxResults {
		return items[:maxResults]
	}
	return items
}
