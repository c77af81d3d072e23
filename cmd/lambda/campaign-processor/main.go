// Campaign processor Lambda entry point, triggered by job manifests in S3.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"campaign-filter-engine/internal/config"
	"campaign-filter-engine/internal/handlers"
	"campaign-filter-engine/internal/metrics"
	"campaign-filter-engine/internal/services/campaign"
	s3service "campaign-filter-engine/internal/services/s3"
	sesService "campaign-filter-engine/internal/services/ses"
	"campaign-filter-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()
	logger := utils.GetLogger()

	metrics.Init()

	ctx := context.Background()
	campaigns, db, err := campaign.Setup(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to set up campaign service", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	store, err := s3service.NewService(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create S3 service", zap.Error(err))
	}

	var mailer handlers.Mailer
	if cfg.SESSenderEmail != "" {
		emailSvc, err := sesService.NewService(ctx, cfg)
		if err != nil {
			logger.Warn("Campaign emails disabled", zap.Error(err))
		} else {
			mailer = emailSvc
		}
	}

	handler := handlers.NewCampaignProcessorHandler(campaigns, store, mailer, cfg.PresignExpiry)
	lambda.Start(handler.Handle)
}
