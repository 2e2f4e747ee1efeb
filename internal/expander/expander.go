// Package expander rewrites free-form topic queries into compact search
// keywords with an LLM.
package expander

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

const DefaultModel = "gpt-4o-mini"

// Expander turns a user query into search keywords
type Expander interface {
	Expand(ctx context.Context, query string) (string, error)
}

// Config configures the OpenAI expander
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// MaxRetries is the number of retries on transient failures.
	MaxRetries int
}

// OpenAIExpander expands queries with a chat completion
type OpenAIExpander struct {
	client openai.Client
	model  string
}

const systemPrompt = `Convert the user's request into optimized GitHub search keywords.
Reply with a short line of space-separated keywords only. No stopwords, no explanations.

Example:
User: show me repos about real-time chat apps with WebSockets
Output: real-time chat websocket messaging socket.io

User: show me repos where mcp is used to connect with notion
Output: notion mcp integration connector server`

// NewOpenAIExpander creates an expander backed by the OpenAI API or any
// compatible endpoint.
func NewOpenAIExpander(cfg Config) (*OpenAIExpander, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(20 * time.Second),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAIExpander{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (e *OpenAIExpander) Expand(ctx context.Context, query string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(query),
		},
		MaxCompletionTokens: openai.Int(64),
		Temperature:         openai.Float(0.2),
	}

	start := time.Now()
	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai query expansion failed with status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("openai query expansion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai query expansion returned no choices")
	}

	keywords := Clean(resp.Choices[0].Message.Content)
	if keywords == "" {
		return "", errors.New("openai query expansion returned empty content")
	}

	logrus.Debugf("Expanded query '%s' to '%s' in %v", query, keywords, time.Since(start))
	return keywords, nil
}

// Clean keeps the first non-empty line of a completion, drops an
// "Output:" prefix and surrounding quotes, and collapses whitespace.
func Clean(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "Output:"))
		line = strings.Trim(line, "\"'`")
		if line != "" {
			return strings.Join(strings.Fields(line), " ")
		}
	}
	return ""
}
