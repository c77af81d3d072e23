// Package handlers exposes the campaign engine over HTTP and Lambda events.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"campaign-filter-engine/internal/config"
	"campaign-filter-engine/internal/services/database"
)

// ServiceName is reported by every health check.
const ServiceName = "campaign-filter-engine"

// HealthChecker is a dependency whose connectivity is reported by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Stage     string `json:"stage"`
	Database  string `json:"database"`
}

// CheckHealth reports service status. A nil checker means no database is
// configured, which is not a degradation.
func CheckHealth(ctx context.Context, db HealthChecker, stage string) HealthResponse {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   ServiceName,
		Version:   getEnvOrDefault("SERVICE_VERSION", "1.0.0"),
		Stage:     stage,
		Database:  "not configured",
	}

	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			response.Database = "disconnected"
			response.Status = "degraded"
		} else {
			response.Database = "connected"
		}
	}

	return response
}

// StatusCode maps the health status to an HTTP status.
func (r HealthResponse) StatusCode() int {
	if r.Status != "healthy" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// HealthHandler handles health check requests coming through API Gateway.
type HealthHandler struct {
	db    *database.DB
	stage string
}

// NewHealthHandler creates a new health handler. A database that cannot be
// reached at startup is reported as not configured.
func NewHealthHandler(ctx context.Context, cfg *config.Config) *HealthHandler {
	h := &HealthHandler{stage: cfg.Stage}
	if !cfg.HasDatabase() {
		return h
	}

	if db, err := database.New(ctx, cfg); err == nil {
		h.db = db
	}
	return h
}

// Handle processes health check requests.
func (h *HealthHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := map[string]string{
		"Access-Control-Allow-Origin": "*",
		"Content-Type":                "application/json",
	}

	var checker HealthChecker
	if h.db != nil {
		checker = h.db
	}
	response := CheckHealth(ctx, checker, h.stage)

	body, _ := json.Marshal(response)

	return events.APIGatewayProxyResponse{
		StatusCode: response.StatusCode(),
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// Close cleans up resources.
func (h *HealthHandler) Close() {
	if h.db != nil {
		h.db.Close()
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
