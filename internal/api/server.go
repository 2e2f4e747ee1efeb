// Package api exposes trending analysis over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/trendscope/trendscope/internal/analyzer"
	"github.com/trendscope/trendscope/internal/models"
	"github.com/trendscope/trendscope/internal/query"
)

// WatchlistRunner runs the configured watchlist once
type WatchlistRunner interface {
	RunNow(ctx context.Context) (*models.Report, error)
}

// Server holds the HTTP handlers
type Server struct {
	analyzer *analyzer.Analyzer
	runner   WatchlistRunner
	now      func() time.Time
}

// AnalysisResponse wraps the result of a full analysis
type AnalysisResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    *models.TrendingTopic   `json:"data,omitempty"`
	Summary *models.AnalysisSummary `json:"summary,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// PlatformInfo describes an analyzable platform
type PlatformInfo struct {
	ID           models.Platform `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Capabilities []string        `json:"capabilities"`
	Enabled      bool            `json:"enabled"`
}

type nlpRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

var platformInfo = []PlatformInfo{
	{
		ID:           models.PlatformGitHub,
		Name:         "GitHub",
		Description:  "Analyze trending repositories, languages, and contributors",
		Capabilities: []string{"Repository analysis", "Language trends", "Contributor insights"},
	},
	{
		ID:           models.PlatformTwitter,
		Name:         "Twitter",
		Description:  "Analyze recent posts, engagement, and hashtags",
		Capabilities: []string{"Engagement metrics", "Hashtag trends", "Post volume"},
	},
	{
		ID:           models.PlatformReddit,
		Name:         "Reddit",
		Description:  "Analyze community discussions across developer subreddits",
		Capabilities: []string{"Community metrics", "Subreddit activity", "Trending keywords"},
	},
}

// NewServer creates the HTTP handlers. runner may be nil, which disables
// the trigger endpoint.
func NewServer(a *analyzer.Analyzer, runner WatchlistRunner) *Server {
	return &Server{analyzer: a, runner: runner, now: time.Now}
}

// Router returns the routes served by the API
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	router.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", s.metricsHandler).Methods("GET")
	router.HandleFunc("/trigger", s.triggerHandler).Methods("POST")

	trending := router.PathPrefix("/api/v1/trending").Subrouter()
	trending.HandleFunc("/analyze", s.analyzeHandler).Methods("POST")
	trending.HandleFunc("/quick-analysis", s.quickAnalysisHandler).Methods("POST")
	trending.HandleFunc("/nlp-analysis", s.nlpAnalysisHandler).Methods("POST")
	trending.HandleFunc("/platforms", s.platformsHandler).Methods("GET")
	trending.HandleFunc("/example-queries", s.exampleQueriesHandler).Methods("GET")

	return router
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Handled request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func errorStatus(err error) int {
	if errors.Is(err, analyzer.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	available := 0
	for _, p := range models.AllPlatforms {
		if s.analyzer.Enabled(p) {
			available++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "healthy",
		"service":             "Trending Analysis",
		"available_platforms": available,
		"timestamp":           s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.analyzer.GetMetrics()))
}

func (s *Server) triggerHandler(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "watchlist runs are not configured"})
		return
	}

	go func() {
		if _, err := s.runner.RunNow(context.Background()); err != nil {
			logrus.Errorf("Manual watchlist trigger failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Watchlist run triggered successfully"})
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AnalysisResponse{
			Message: "Error analyzing trending topic",
			Error:   fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}
	// omitted platforms default to GitHub; an explicit empty list is rejected
	if req.Platforms == nil {
		req.Platforms = []models.Platform{models.PlatformGitHub}
	}
	if req.MaxResultsPerPlatform == 0 {
		req.MaxResultsPerPlatform = analyzer.DefaultMaxResults
	}

	topic, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		writeJSON(w, errorStatus(err), AnalysisResponse{
			Message: "Error analyzing trending topic",
			Error:   err.Error(),
		})
		return
	}

	summary := analyzer.GenerateSummary(topic)
	writeJSON(w, http.StatusOK, AnalysisResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully analyzed trending topic: %s", topic.Query),
		Data:    &topic,
		Summary: &summary,
	})
}

func (s *Server) quickAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	platforms, err := models.ParsePlatforms(params.Get("platforms"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}

	result, err := s.analyzer.QuickAnalyze(r.Context(), params.Get("query"), platforms)
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]interface{}{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": result})
}

func (s *Server) nlpAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	var req nlpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	result, err := s.analyzer.AnalyzeWithNLP(r.Context(), req.Query, req.MaxResults)
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]interface{}{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": result})
}

func (s *Server) platformsHandler(w http.ResponseWriter, r *http.Request) {
	platforms := make([]PlatformInfo, 0, len(platformInfo))
	for _, info := range platformInfo {
		info.Enabled = s.analyzer.Enabled(info.ID)
		platforms = append(platforms, info)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"platforms": platforms})
}

func (s *Server) exampleQueriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"examples": query.Examples()})
}

