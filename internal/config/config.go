package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/trendscope/trendscope/internal/models"
	"github.com/trendscope/trendscope/internal/scoring"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	ReportSchedule string // "daily" or "weekly"
	TimeZone       string

	// Platform credentials
	GitHubToken        string
	TwitterBearerToken string
	RedditClientID     string
	RedditClientSecret string
	RedditSubreddits   []string

	// Query expansion
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Scoring
	PlatformTimeout time.Duration
	Weights         scoring.Weights

	// Archive configuration
	StorageAccount   string
	StorageContainer string
	SQLitePath       string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Watchlist
	WatchlistFile        string
	Watchlist            []models.WatchTopic
	WatchlistConcurrency int
	AlertThreshold       float64
}

// watchlistFile is the YAML layout of WATCHLIST_FILE
type watchlistFile struct {
	Topics []models.WatchTopic `yaml:"topics"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Debug:          getBoolEnv("DEBUG", false),
		ReportSchedule: getEnv("REPORT_SCHEDULE", "weekly"),
		TimeZone:       getEnv("TIMEZONE", "UTC"),

		GitHubToken:        getEnv("GITHUB_TOKEN", ""),
		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditSubreddits:   getSliceEnv("REDDIT_SUBREDDITS", nil),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		PlatformTimeout: getDurationEnv("PLATFORM_TIMEOUT", 30*time.Second),
		Weights: scoring.Weights{
			Repository: getFloatEnv("WEIGHT_REPOSITORY", 0.4),
			Social:     getFloatEnv("WEIGHT_SOCIAL", 0.35),
			Discussion: getFloatEnv("WEIGHT_DISCUSSION", 0.25),
		},

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "trendscope"),
		SQLitePath:       getEnv("SQLITE_PATH", "trendscope.db"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		WatchlistFile:        getEnv("WATCHLIST_FILE", ""),
		WatchlistConcurrency: getIntEnv("WATCHLIST_CONCURRENCY", 2),
		AlertThreshold:       getFloatEnv("ALERT_THRESHOLD", 70),
	}

	if cfg.WatchlistFile != "" {
		topics, err := LoadWatchlist(cfg.WatchlistFile)
		if err != nil {
			return nil, err
		}
		cfg.Watchlist = topics
	} else {
		for _, q := range getSliceEnv("WATCHLIST", nil) {
			cfg.Watchlist = append(cfg.Watchlist, models.WatchTopic{Name: q, Query: q})
		}
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWatchlist reads watchlist topics from a YAML file. A topic without a
// name is named after its query.
func LoadWatchlist(path string) ([]models.WatchTopic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading watchlist file %s: %w", path, err)
	}

	var file watchlistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing watchlist file %s: %w", path, err)
	}

	for i := range file.Topics {
		file.Topics[i].Query = strings.TrimSpace(file.Topics[i].Query)
		if file.Topics[i].Name == "" {
			file.Topics[i].Name = file.Topics[i].Query
		}
	}
	return file.Topics, nil
}

func (c *Config) validate() error {
	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily' or 'weekly'")
	}

	if c.PlatformTimeout <= 0 {
		return fmt.Errorf("PLATFORM_TIMEOUT must be positive, got %v", c.PlatformTimeout)
	}

	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("WEIGHT_REPOSITORY, WEIGHT_SOCIAL and WEIGHT_DISCUSSION: %w", err)
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.WatchlistConcurrency < 1 {
		return fmt.Errorf("WATCHLIST_CONCURRENCY must be at least 1, got %d", c.WatchlistConcurrency)
	}

	if c.AlertThreshold < scoring.MinScore || c.AlertThreshold > scoring.MaxScore {
		return fmt.Errorf("ALERT_THRESHOLD must be between %.0f and %.0f, got %v", scoring.MinScore, scoring.MaxScore, c.AlertThreshold)
	}

	for i, topic := range c.Watchlist {
		if topic.Query == "" {
			return fmt.Errorf("watchlist topic %d has an empty query", i+1)
		}
		for _, p := range topic.Platforms {
			if !p.Valid() {
				return fmt.Errorf("watchlist topic %q has unknown platform %q", topic.Name, p)
			}
		}
		if topic.MaxResults < 0 || topic.MaxResults > 100 {
			return fmt.Errorf("watchlist topic %q: max_results must be between 1 and 100", topic.Name)
		}
	}

	return nil
}

// NotificationsConfigured reports whether reports have somewhere to go.
func (c *Config) NotificationsConfigured() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items
	}
	return defaultValue
}
