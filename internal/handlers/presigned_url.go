package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	s3service "campaign-filter-engine/internal/services/s3"
	"campaign-filter-engine/internal/utils"
)

// uploadURLExpiry is how long an input upload URL stays valid.
const uploadURLExpiry = time.Hour

// UploadPresigner issues upload URLs for customer files.
type UploadPresigner interface {
	PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (*s3service.PresignedURLResult, error)
}

// PresignedURLRequest represents the request for an upload URL.
type PresignedURLRequest struct {
	Filename string `json:"filename"`
}

// PresignedURLResponse contains the presigned URL data.
type PresignedURLResponse struct {
	UploadURL string `json:"upload_url"`
	S3Key     string `json:"s3_key"`
	ExpiresIn int    `json:"expires_in"`
}

// WithUploads enables POST /api/uploads/presign.
func (a *API) WithUploads(p UploadPresigner) *API {
	a.uploads = p
	return a
}

func (a *API) presignedURLHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if a.uploads == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "S3 uploads are not configured",
		})
		return
	}

	var req PresignedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = "upload_" + uuid.New().String()[:8] + ".csv"
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Only CSV files are allowed",
		})
		return
	}

	key := s3service.InputKey(filename, time.Now())
	presigned, err := a.uploads.PresignUpload(r.Context(), key, "text/csv", uploadURLExpiry)
	if err != nil {
		utils.GetLogger().Error("Failed to generate presigned URL", utils.Error(err))
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to generate upload URL",
		})
		return
	}

	utils.GetLogger().Info("Generated presigned URL", utils.String("s3Key", key))

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: PresignedURLResponse{
			UploadURL: presigned.URL,
			S3Key:     presigned.Key,
			ExpiresIn: int(uploadURLExpiry.Seconds()),
		},
	})
}
