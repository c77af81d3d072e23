// Package s3service stores campaign inputs, outputs and job manifests in S3.
package s3service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appConfig "campaign-filter-engine/internal/config"
	"campaign-filter-engine/internal/utils"
)

// Key layout of the campaign bucket.
const (
	InputsPrefix    = "inputs/"
	JobsPrefix      = "jobs/"
	OutputsPrefix   = "outputs/"
	ProcessedPrefix = "processed/"
	CSVContentType  = "text/csv; charset=utf-8"
)

// Service handles S3 operations
type Service struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucketName string
}

// PresignedURLResult contains the presigned URL details
type PresignedURLResult struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewService creates a new S3 service for the configured bucket
func NewService(ctx context.Context, appCfg *appConfig.Config) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(appCfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &Service{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucketName: appCfg.S3Bucket,
	}, nil
}

// Bucket returns the bucket the service works on.
func (s *Service) Bucket() string {
	return s.bucketName
}

// InputKey returns a fresh key for an uploaded customer file.
func InputKey(fileName string, now time.Time) string {
	return InputsPrefix + now.UTC().Format("2006/01/02") + "/" + uuid.New().String() + "_" + SanitizeFileName(fileName)
}

// SanitizeFileName keeps letters, digits, dots, dashes and underscores.
func SanitizeFileName(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return -1
	}, name)
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return safe
}

// OutputKey returns the key of a campaign file produced by a job.
func OutputKey(jobID, fileName string) string {
	return OutputsPrefix + jobID + "/" + fileName
}

// ProcessedKey returns where a handled job manifest is archived.
func ProcessedKey(manifestKey string) string {
	return ProcessedPrefix + path.Base(manifestKey)
}

// IsJobManifest reports whether a key is a pending job manifest.
func IsJobManifest(key string) bool {
	return strings.HasPrefix(key, JobsPrefix) && strings.HasSuffix(strings.ToLower(key), ".json")
}

// PresignDownload creates a presigned GET URL for a campaign file
func (s *Service) PresignDownload(ctx context.Context, key string, expiry time.Duration) (*PresignedURLResult, error) {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	presignedReq, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURLResult{
		URL:       presignedReq.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// PresignUpload creates a presigned PUT URL for a customer file.
func (s *Service) PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (*PresignedURLResult, error) {
	if expiry <= 0 {
		expiry = time.Hour
	}

	presignedReq, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}

	return &PresignedURLResult{
		URL:       presignedReq.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// Download reads an object
func (s *Service) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		utils.GetLogger().Error("Failed to download file from S3",
			utils.String("bucket", s.bucketName),
			utils.String("key", key),
			utils.Error(err),
		)
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	utils.GetLogger().Info("Downloaded file from S3",
		utils.String("key", key),
		utils.Int("size", len(data)),
	)

	return data, nil
}

// Upload writes an object
func (s *Service) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		utils.GetLogger().Error("Failed to upload file to S3",
			utils.String("bucket", s.bucketName),
			utils.String("key", key),
			utils.Error(err),
		)
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	utils.GetLogger().Info("Uploaded file to S3",
		utils.String("key", key),
		utils.Int("size", len(data)),
	)

	return nil
}

// Move copies an object to a new key and deletes the original
func (s *Service) Move(ctx context.Context, sourceKey, destKey string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucketName),
		CopySource: aws.String(s.bucketName + "/" + sourceKey),
		Key:        aws.String(destKey),
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", sourceKey, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(sourceKey),
	}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", sourceKey, err)
	}

	utils.GetLogger().Info("Moved file in S3",
		utils.String("source", sourceKey),
		utils.String("destination", destKey),
	)

	return nil
}
