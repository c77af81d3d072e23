// Package campaign runs campaigns end to end: parse, restrict, compute, export.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"campaign-filter-engine/internal/metrics"
	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/services/engine"
	"campaign-filter-engine/internal/services/export"
	"campaign-filter-engine/internal/services/restrictions"
	"campaign-filter-engine/internal/utils"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid campaign request")

// Service wires the table loader, restriction lookup, engine and exporter.
type Service struct {
	engine       *engine.Engine
	restrictions *restrictions.Service
	validate     *validator.Validate
	now          func() time.Time
}

// Result summarizes one run.
type Result struct {
	JobID          string              `json:"job_id"`
	CampaignType   models.CampaignType `json:"campaign_type"`
	Agreement      string              `json:"agreement"`
	RowsIn         int                 `json:"rows_in"`
	RowsOut        int                 `json:"rows_out"`
	Files          []export.File       `json:"files"`
	Warnings       []string            `json:"warnings,omitempty"`
	Restrictions   map[string][]string `json:"restrictions,omitempty"`
	ProcessingTime time.Duration       `json:"-"`
	Frame          models.Frame        `json:"-"`
}

// NewService creates a campaign service.
func NewService(eng *engine.Engine, rs *restrictions.Service, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		engine:       eng,
		restrictions: rs,
		validate:     validator.New(),
		now:          now,
	}
}

// Restrictions returns the restriction lookup the service uses.
func (s *Service) Restrictions() *restrictions.Service {
	return s.restrictions
}

// Validate checks a request before any file is read.
func (s *Service) Validate(req interface{}) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Run executes a campaign over the uploaded files.
func (s *Service) Run(ctx context.Context, inputs []utils.NamedContent, req CampaignRequest) (*Result, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	params, err := req.ToParams(now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	table, warnings, err := loadTable(inputs)
	if err != nil {
		return nil, err
	}
	if params.AgreementCode == "" {
		params.AgreementCode = agreementFromTable(table)
	}

	rs := s.restrictions.Resolve(ctx, params.AgreementCode, params.CampaignType)
	params = params.WithRestrictions(rs)

	result := &Result{
		JobID:        uuid.New().String(),
		CampaignType: params.CampaignType,
		Agreement:    params.AgreementCode,
		RowsIn:       table.Len(),
		Warnings:     warnings,
		Restrictions: rs.MarshalView(),
	}

	log := utils.JobLogger(result.JobID,
		zap.String("campaign_type", string(params.CampaignType)),
		zap.String("agreement", params.AgreementCode),
	)

	startTime := time.Now()
	run, err := s.engine.Run(table, params, req.Configs)
	if err != nil {
		recordOutcome(params.CampaignType, err)
		log.Error("Campaign run failed", zap.Error(err))
		return nil, err
	}

	files, err := export.Build(run.Frame, params.AgreementCode, params.CampaignType, now)
	if err != nil {
		recordOutcome(params.CampaignType, err)
		return nil, err
	}

	result.RowsOut = run.RowsOut
	result.Files = files
	result.Frame = run.Frame
	result.ProcessingTime = time.Since(startTime)

	recordSuccess(params.CampaignType, result)
	log.Info("Campaign files ready",
		zap.Int("rows_in", result.RowsIn),
		zap.Int("rows_out", result.RowsOut),
		zap.Int("files", len(files)),
		zap.Int("warnings", len(warnings)),
	)

	return result, nil
}

// RunSimulations builds a Benefit campaign from pre-simulated offers.
func (s *Service) RunSimulations(ctx context.Context, inputs []utils.NamedContent, req SimulationRequest) (*Result, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	table, warnings, err := loadTable(inputs)
	if err != nil {
		return nil, err
	}

	params := req.ToParams()
	if params.AgreementCode == "" {
		params.AgreementCode = agreementFromTable(table)
	}
	result := &Result{
		JobID:        uuid.New().String(),
		CampaignType: models.CampaignBenefit,
		Agreement:    params.AgreementCode,
		RowsIn:       table.Len(),
		Warnings:     warnings,
	}

	startTime := time.Now()
	run, err := s.engine.RunSimulations(table, params)
	if err != nil {
		recordOutcome(models.CampaignBenefit, err)
		utils.JobLogger(result.JobID).Error("Simulation run failed", zap.Error(err))
		return nil, err
	}

	file, err := export.BuildSimulation(run.Frame, params.AgreementCode, params.Team, s.now())
	if err != nil {
		recordOutcome(models.CampaignBenefit, err)
		return nil, err
	}

	result.RowsOut = run.RowsOut
	result.Files = []export.File{file}
	result.Frame = run.Frame
	result.ProcessingTime = time.Since(startTime)

	recordSuccess(models.CampaignBenefit, result)
	return result, nil
}

// agreementFromTable reads the agreement of a run whose request left it out
// from the first Convenio value of the customer table.
func agreementFromTable(t *models.Table) string {
	agreement := strings.ToLower(t.FirstValue(models.ColAgreement))
	if agreement != "" {
		utils.GetLogger().Info("Agreement taken from customer table", utils.String("agreement", agreement))
	}
	return agreement
}

func loadTable(inputs []utils.NamedContent) (*models.Table, []string, error) {
	if len(inputs) == 0 {
		return nil, nil, models.ErrEmptyInput
	}

	table, parseErrors := utils.NewTableParser().ParseAll(inputs)
	warnings := make([]string, 0, len(parseErrors))
	for _, e := range parseErrors {
		warnings = append(warnings, e.Error())
	}

	if table == nil {
		return nil, warnings, fmt.Errorf("%w: %s", models.ErrEmptyInput, errors.Join(parseErrors...))
	}
	return table, warnings, nil
}

func recordOutcome(ct models.CampaignType, err error) {
	outcome := metrics.OutcomeError
	if errors.Is(err, models.ErrMissingColumn) {
		outcome = metrics.OutcomeMissingColumn
	}
	metrics.CampaignRuns.WithLabelValues(string(ct), outcome).Inc()
}

func recordSuccess(ct models.CampaignType, result *Result) {
	metrics.CampaignRuns.WithLabelValues(string(ct), metrics.OutcomeSuccess).Inc()
	metrics.CampaignRowsOutput.WithLabelValues(string(ct)).Add(float64(result.RowsOut))
	metrics.CampaignRunDuration.WithLabelValues(string(ct)).Observe(result.ProcessingTime.Seconds())
}
