package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/trendscope/trendscope/internal/analyzer"
	"github.com/trendscope/trendscope/internal/api"
	"github.com/trendscope/trendscope/internal/notifications"
	"github.com/trendscope/trendscope/internal/scheduler"
)

func newServeCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled watchlist reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(state)
		},
	}
}

func serve(state *cliState) error {
	cfg := state.cfg
	logrus.Info("Starting trendscope")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageClient, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	notificationService := notifications.NewService(cfg)
	if !cfg.NotificationsConfigured() {
		logrus.Warn("No notification channel configured, watchlist reports will only be archived")
	}

	service := analyzer.NewService(cfg, storageClient, notificationService)

	schedulerService, err := scheduler.NewService(cfg, service)
	if err != nil {
		return err
	}
	if err := schedulerService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     api.NewServer(service, schedulerService).Router(),
		ReadTimeout: 15 * time.Second,
		// analyses wait for the slowest platform
		WriteTimeout: cfg.PlatformTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	logrus.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
	return nil
}
