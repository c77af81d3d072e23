package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/services/campaign"
	"campaign-filter-engine/internal/utils"
)

// maxUploadSize bounds the in-memory part of a multipart upload.
const maxUploadSize = 64 << 20

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// API serves the campaign endpoints.
type API struct {
	campaigns *campaign.Service
	db        HealthChecker
	uploads   UploadPresigner
	stage     string
}

// NewAPI creates the HTTP API. db may be nil when no database is configured.
func NewAPI(campaigns *campaign.Service, db HealthChecker, stage string) *API {
	return &API{campaigns: campaigns, db: db, stage: stage}
}

// Register mounts every route on the mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/api/health", a.healthHandler)

	mux.HandleFunc("/api/campaigns/filter", a.filterHandler)
	mux.HandleFunc("/api/campaigns/simulations", a.simulationsHandler)

	mux.HandleFunc("/api/restrictions", a.restrictionsHandler)

	// Presigned URL endpoint (for S3 job inputs)
	mux.HandleFunc("/api/uploads/presign", a.presignedURLHandler)
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := CheckHealth(r.Context(), a.db, a.stage)

	writeJSON(w, health.StatusCode(), Response{
		Success: health.StatusCode() == http.StatusOK,
		Message: "Campaign Filter Engine API is running",
		Data:    health,
	})
}

func (a *API) filterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req campaign.CampaignRequest
	inputs, err := readUpload(r, &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	result, err := a.campaigns.Run(r.Context(), inputs, req)
	if err != nil {
		writeRunError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeFile(w, result)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Campaign processed: %d of %d customers selected", result.RowsOut, result.RowsIn),
		Data:    result,
	})
}

func (a *API) simulationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req campaign.SimulationRequest
	inputs, err := readUpload(r, &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	result, err := a.campaigns.RunSimulations(r.Context(), inputs, req)
	if err != nil {
		writeRunError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeFile(w, result)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Simulations processed: %d of %d customers selected", result.RowsOut, result.RowsIn),
		Data:    result,
	})
}

func (a *API) restrictionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	agreement := r.URL.Query().Get("agreement")
	ct, err := models.ParseCampaignType(r.URL.Query().Get("campaign_type"))
	if err != nil || strings.TrimSpace(agreement) == "" {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "agreement and a valid campaign_type are required",
		})
		return
	}

	rs := a.campaigns.Restrictions().Resolve(r.Context(), agreement, ct)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"agreement":     strings.ToLower(strings.TrimSpace(agreement)),
			"campaign_type": ct,
			"restrictions":  rs.MarshalView(),
		},
	})
}

// readUpload parses a multipart body holding one or more "files" parts and a
// JSON "request" field decoded into req.
func readUpload(r *http.Request, req interface{}) ([]utils.NamedContent, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	raw := r.FormValue("request")
	if raw == "" {
		return nil, errors.New("request field is required")
	}
	if err := json.Unmarshal([]byte(raw), req); err != nil {
		return nil, fmt.Errorf("invalid request field: %w", err)
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, errors.New("no files provided")
	}

	inputs := make([]utils.NamedContent, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", header.Filename, err)
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Filename, err)
		}
		inputs = append(inputs, utils.NamedContent{Name: header.Filename, Content: content})
	}

	return inputs, nil
}

func writeRunError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, campaign.ErrInvalidRequest), errors.Is(err, models.ErrEmptyInput):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrMissingColumn):
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, Response{Success: false, Error: err.Error()})
}

// AdditionalFilesHeader lists the output files a CSV response did not carry.
const AdditionalFilesHeader = "X-Additional-Files"

// writeFile streams the first output file of a run. The names of the others
// go in AdditionalFilesHeader.
func writeFile(w http.ResponseWriter, result *campaign.Result) {
	if len(result.Files) == 0 {
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "No files produced"})
		return
	}

	file := result.Files[0]
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("X-Job-ID", result.JobID)
	if len(result.Files) > 1 {
		rest := make([]string, 0, len(result.Files)-1)
		for _, f := range result.Files[1:] {
			rest = append(rest, f.Name)
		}
		w.Header().Set(AdditionalFilesHeader, strings.Join(rest, ","))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
