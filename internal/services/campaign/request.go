package campaign

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/services/engine"
)

// CampaignRequest is the JSON description of a campaign run.
type CampaignRequest struct {
	CampaignType        string                     `json:"campaign_type" validate:"required"`
	AgreementCode       string                     `json:"agreement_code"`
	MinimumCommission   decimal.Decimal            `json:"minimum_commission"`
	MarginThreshold     decimal.NullDecimal        `json:"margin_threshold"`
	MaxAge              int                        `json:"max_age" validate:"gte=0,lte=120"`
	ExcludedLotations   []string                   `json:"excluded_lotations"`
	ExcludedBondTypes   []string                   `json:"excluded_bond_types"`
	ExcludedDepartments []string                   `json:"excluded_departments"`
	Team                string                     `json:"team"`
	AIRoutingPercent    int                        `json:"ai_routing_percent" validate:"gte=0,lte=100"`
	Configs             []models.BankProductConfig `json:"configs" validate:"dive"`
	NotifyEmail         string                     `json:"notify_email,omitempty" validate:"omitempty,email"`
}

// ToParams converts the request into engine parameters.
func (r CampaignRequest) ToParams(now time.Time) (models.CampaignParams, error) {
	ct, err := models.ParseCampaignType(r.CampaignType)
	if err != nil {
		return models.CampaignParams{}, fmt.Errorf("%w: %q", err, r.CampaignType)
	}

	params := models.CampaignParams{
		CampaignType:        ct,
		AgreementCode:       strings.TrimSpace(r.AgreementCode),
		MinimumCommission:   r.MinimumCommission,
		MarginThreshold:     r.MarginThreshold,
		ExcludedLotations:   r.ExcludedLotations,
		ExcludedBondTypes:   r.ExcludedBondTypes,
		ExcludedDepartments: r.ExcludedDepartments,
		Team:                strings.TrimSpace(r.Team),
		AIRoutingPercent:    r.AIRoutingPercent,
	}

	if r.MaxAge > 0 {
		cutoff := engine.AgeCutoff(now, r.MaxAge)
		params.AgeCutoff = &cutoff
	}

	return params, nil
}

// SimulationRequest is the JSON description of a simulation run.
type SimulationRequest struct {
	AgreementCode             string          `json:"agreement_code"`
	Team                      string          `json:"team"`
	CommissionRate            decimal.Decimal `json:"commission_rate"`
	MinimumCommission         decimal.Decimal `json:"minimum_commission"`
	RequireOutstandingBalance bool            `json:"require_outstanding_balance"`
	AIRoutingPercent          int             `json:"ai_routing_percent" validate:"gte=0,lte=100"`
	NotifyEmail               string          `json:"notify_email,omitempty" validate:"omitempty,email"`
}

// ToParams converts the request into simulation parameters. The commission
// rate is a fraction of the released amount.
func (r SimulationRequest) ToParams() models.SimulationParams {
	return models.SimulationParams{
		AgreementCode:             strings.TrimSpace(r.AgreementCode),
		Team:                      strings.TrimSpace(r.Team),
		CommissionRate:            r.CommissionRate,
		MinimumCommission:         r.MinimumCommission,
		RequireOutstandingBalance: r.RequireOutstandingBalance,
		AIRoutingPercent:          r.AIRoutingPercent,
	}
}
