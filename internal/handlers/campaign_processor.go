package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/services/campaign"
	s3service "campaign-filter-engine/internal/services/s3"
	sesService "campaign-filter-engine/internal/services/ses"
	"campaign-filter-engine/internal/utils"
)

// Job kinds accepted in a manifest.
const (
	JobKindCampaign   = "campaign"
	JobKindSimulation = "simulation"
)

// ObjectStore is the part of the S3 service the processor needs.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Move(ctx context.Context, sourceKey, destKey string) error
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (*s3service.PresignedURLResult, error)
}

// Mailer sends the campaign ready email.
type Mailer interface {
	SendCampaignReady(ctx context.Context, params sesService.CampaignReadyParams) (*sesService.SendEmailResult, error)
}

// JobManifest describes one queued run. Inputs are keys in the same bucket.
type JobManifest struct {
	Kind        string          `json:"kind"`
	Inputs      []string        `json:"inputs"`
	Request     json.RawMessage `json:"request"`
	NotifyEmail string          `json:"notify_email,omitempty"`
}

// CampaignProcessResult is the result of handling one manifest.
type CampaignProcessResult struct {
	Message  string   `json:"message"`
	Manifest string   `json:"manifest"`
	JobID    string   `json:"job_id,omitempty"`
	RowsIn   int      `json:"rows_in"`
	RowsOut  int      `json:"rows_out"`
	Outputs  []string `json:"outputs,omitempty"`
	Notified bool     `json:"notified"`
	Errors   []string `json:"errors,omitempty"`
}

// CampaignProcessorHandler handles S3 events for job manifests.
type CampaignProcessorHandler struct {
	campaigns     *campaign.Service
	store         ObjectStore
	mailer        Mailer
	presignExpiry time.Duration
}

// NewCampaignProcessorHandler creates a new processor. mailer may be nil.
func NewCampaignProcessorHandler(campaigns *campaign.Service, store ObjectStore, mailer Mailer, presignExpiry time.Duration) *CampaignProcessorHandler {
	return &CampaignProcessorHandler{
		campaigns:     campaigns,
		store:         store,
		mailer:        mailer,
		presignExpiry: presignExpiry,
	}
}

// Handle processes every job manifest in the event. Keys outside jobs/ are ignored.
func (h *CampaignProcessorHandler) Handle(ctx context.Context, s3Event events.S3Event) ([]CampaignProcessResult, error) {
	logger := utils.GetLogger()
	results := make([]CampaignProcessResult, 0, len(s3Event.Records))

	for _, record := range s3Event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return results, fmt.Errorf("failed to decode S3 key: %w", err)
		}

		if !s3service.IsJobManifest(key) {
			logger.Debug("Skipping non-manifest object", utils.String("key", key))
			continue
		}

		result, err := h.process(ctx, key)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (h *CampaignProcessorHandler) process(ctx context.Context, key string) (CampaignProcessResult, error) {
	logger := utils.GetLogger().With(utils.String("manifest", key))
	logger.Info("Processing job manifest")

	raw, err := h.store.Download(ctx, key)
	if err != nil {
		return CampaignProcessResult{}, fmt.Errorf("failed to download manifest: %w", err)
	}

	var manifest JobManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return h.reject(ctx, key, fmt.Errorf("invalid manifest: %w", err)), nil
	}

	inputs, err := h.downloadInputs(ctx, manifest.Inputs)
	if err != nil {
		return CampaignProcessResult{}, err
	}

	result, notifyEmail, err := h.run(ctx, manifest, inputs)
	if err != nil {
		if isInputError(err) {
			return h.reject(ctx, key, err), nil
		}
		logger.Error("Campaign job failed", utils.Error(err))
		return CampaignProcessResult{}, err
	}

	out := CampaignProcessResult{
		Message:  "Campaign processed successfully",
		Manifest: key,
		JobID:    result.JobID,
		RowsIn:   result.RowsIn,
		RowsOut:  result.RowsOut,
		Errors:   limitErrors(result.Warnings),
	}

	links := make([]sesService.FileLink, 0, len(result.Files))
	for _, f := range result.Files {
		outputKey := s3service.OutputKey(result.JobID, f.Name)
		if err := h.store.Upload(ctx, outputKey, f.Data, s3service.CSVContentType); err != nil {
			return CampaignProcessResult{}, fmt.Errorf("failed to upload %s: %w", f.Name, err)
		}
		out.Outputs = append(out.Outputs, outputKey)
		links = append(links, sesService.FileLink{Name: f.Name, Rows: f.Rows})
	}

	if notifyEmail != "" && h.mailer != nil {
		if err := h.notify(ctx, notifyEmail, result, out.Outputs, links); err != nil {
			logger.Warn("Failed to send campaign ready email", utils.Error(err))
		} else {
			out.Notified = true
		}
	}

	h.archive(ctx, key)

	logger.Info("Job manifest processed",
		utils.String("job_id", out.JobID),
		utils.Int("rows_out", out.RowsOut),
		utils.Int("outputs", len(out.Outputs)),
		utils.Bool("notified", out.Notified),
	)

	return out, nil
}

// run dispatches the manifest to the campaign service and returns the
// effective notification address.
func (h *CampaignProcessorHandler) run(ctx context.Context, manifest JobManifest, inputs []utils.NamedContent) (*campaign.Result, string, error) {
	if len(manifest.Request) == 0 {
		return nil, "", fmt.Errorf("%w: manifest has no request", campaign.ErrInvalidRequest)
	}

	switch strings.ToLower(strings.TrimSpace(manifest.Kind)) {
	case "", JobKindCampaign:
		var req campaign.CampaignRequest
		if err := json.Unmarshal(manifest.Request, &req); err != nil {
			return nil, "", fmt.Errorf("%w: %v", campaign.ErrInvalidRequest, err)
		}
		result, err := h.campaigns.Run(ctx, inputs, req)
		return result, firstNonEmpty(manifest.NotifyEmail, req.NotifyEmail), err

	case JobKindSimulation:
		var req campaign.SimulationRequest
		if err := json.Unmarshal(manifest.Request, &req); err != nil {
			return nil, "", fmt.Errorf("%w: %v", campaign.ErrInvalidRequest, err)
		}
		result, err := h.campaigns.RunSimulations(ctx, inputs, req)
		return result, firstNonEmpty(manifest.NotifyEmail, req.NotifyEmail), err

	default:
		return nil, "", fmt.Errorf("%w: unknown job kind %q", campaign.ErrInvalidRequest, manifest.Kind)
	}
}

func (h *CampaignProcessorHandler) downloadInputs(ctx context.Context, keys []string) ([]utils.NamedContent, error) {
	inputs := make([]utils.NamedContent, 0, len(keys))
	for _, key := range keys {
		content, err := h.store.Download(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to download input %s: %w", key, err)
		}
		inputs = append(inputs, utils.NamedContent{Name: path.Base(key), Content: content})
	}
	return inputs, nil
}

func (h *CampaignProcessorHandler) notify(ctx context.Context, to string, result *campaign.Result, keys []string, links []sesService.FileLink) error {
	var expiresAt time.Time
	for i, key := range keys {
		presigned, err := h.store.PresignDownload(ctx, key, h.presignExpiry)
		if err != nil {
			return err
		}
		links[i].URL = presigned.URL
		expiresAt = presigned.ExpiresAt
	}

	_, err := h.mailer.SendCampaignReady(ctx, sesService.CampaignReadyParams{
		To:           to,
		JobID:        result.JobID,
		Agreement:    result.Agreement,
		CampaignType: string(result.CampaignType),
		RowsIn:       result.RowsIn,
		RowsOut:      result.RowsOut,
		Warnings:     len(result.Warnings),
		Files:        links,
		ExpiresAt:    expiresAt,
	})
	return err
}

// reject archives a manifest that can never succeed so it is not retried.
func (h *CampaignProcessorHandler) reject(ctx context.Context, key string, cause error) CampaignProcessResult {
	utils.GetLogger().Warn("Rejecting job manifest", utils.String("manifest", key), utils.Error(cause))
	h.archive(ctx, key)
	return CampaignProcessResult{
		Message:  "Job rejected",
		Manifest: key,
		Errors:   []string{cause.Error()},
	}
}

func (h *CampaignProcessorHandler) archive(ctx context.Context, key string) {
	if err := h.store.Move(ctx, key, s3service.ProcessedKey(key)); err != nil {
		utils.GetLogger().Warn("Failed to archive manifest", utils.String("manifest", key), utils.Error(err))
	}
}

func isInputError(err error) bool {
	return errors.Is(err, campaign.ErrInvalidRequest) ||
		errors.Is(err, models.ErrEmptyInput) ||
		errors.Is(err, models.ErrMissingColumn)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// limitErrors caps the warnings carried in the Lambda response.
func limitErrors(errs []string) []string {
	if len(errs) > 10 {
		return errs[:10]
	}
	return errs
}
