// Package main provides the HTTP API server for campaign runs.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"campaign-filter-engine/internal/config"
	"campaign-filter-engine/internal/handlers"
	"campaign-filter-engine/internal/metrics"
	"campaign-filter-engine/internal/services/campaign"
	s3service "campaign-filter-engine/internal/services/s3"
	"campaign-filter-engine/internal/utils"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger first
	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	metrics.Init()

	campaigns, db, err := campaign.Setup(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to set up campaign service", zap.Error(err))
	}

	var checker handlers.HealthChecker
	if db != nil {
		defer db.Close()
		checker = db
	} else {
		logger.Warn("Server will run without restriction database")
	}

	api := handlers.NewAPI(campaigns, checker, cfg.Stage)
	if cfg.S3Bucket != "" {
		store, err := s3service.NewService(context.Background(), cfg)
		if err != nil {
			logger.Warn("S3 uploads disabled", zap.Error(err))
		} else {
			api.WithUploads(store)
		}
	}

	// Setup routes
	mux := http.NewServeMux()
	api.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Job-ID", handlers.AdditionalFilesHeader},
		AllowCredentials: true,
	})

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	logger.Info("Campaign Filter Engine API Server",
		zap.String("addr", addr),
		zap.String("stage", cfg.Stage),
		zap.Bool("database", db != nil),
	)

	// Start server (this blocks until error)
	if err := http.ListenAndServe(addr, c.Handler(mux)); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
