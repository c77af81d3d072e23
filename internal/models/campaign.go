// Package models defines the data structures for the campaign filter engine.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CampaignType is the product family a campaign offers.
type CampaignType string

const (
	CampaignNew         CampaignType = "new"
	CampaignBenefit     CampaignType = "benefit"
	CampaignCard        CampaignType = "card"
	CampaignBenefitCard CampaignType = "benefit_card"
)

// ValidCampaignTypes returns all valid campaign types.
func ValidCampaignTypes() []CampaignType {
	return []CampaignType{
		CampaignNew,
		CampaignBenefit,
		CampaignCard,
		CampaignBenefitCard,
	}
}

// IsValid checks if the campaign type is valid.
func (c CampaignType) IsValid() bool {
	for _, valid := range ValidCampaignTypes() {
		if c == valid {
			return true
		}
	}
	return false
}

// LabelSlug is the token used inside the campaign label column.
func (c CampaignType) LabelSlug() string {
	switch c {
	case CampaignNew:
		return "novo"
	case CampaignBenefit:
		return "benef"
	case CampaignCard:
		return "cartao"
	case CampaignBenefitCard:
		return "benef-cartao"
	default:
		return "campanha"
	}
}

// ProductSlug is the token used for file names and restriction lookups.
func (c CampaignType) ProductSlug() string {
	switch c {
	case CampaignNew:
		return "novo"
	case CampaignBenefit:
		return "beneficio"
	case CampaignCard:
		return "cartao"
	case CampaignBenefitCard:
		return "benef-cartao"
	default:
		return "campanha"
	}
}

// ParseCampaignType accepts both the API names and the labels used by the operations team.
func ParseCampaignType(s string) (CampaignType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "")

	aliases := map[string]CampaignType{
		"new":              CampaignNew,
		"novo":             CampaignNew,
		"benefit":          CampaignBenefit,
		"benefício":        CampaignBenefit,
		"beneficio":        CampaignBenefit,
		"benef":            CampaignBenefit,
		"card":             CampaignCard,
		"cartão":           CampaignCard,
		"cartao":           CampaignCard,
		"benefit_card":     CampaignBenefitCard,
		"benefit&card":     CampaignBenefitCard,
		"benefício&cartão": CampaignBenefitCard,
		"beneficio&cartao": CampaignBenefitCard,
		"benef-cartao":     CampaignBenefitCard,
	}

	if ct, ok := aliases[normalized]; ok {
		return ct, nil
	}
	return "", ErrUnknownCampaignType
}

// ConditionMode selects how a configuration's condition value is compared.
type ConditionMode string

const (
	ConditionSingleValue ConditionMode = "single_value"
	ConditionKeywords    ConditionMode = "keywords"
)

// ApplyToAll is the condition column value that matches every unclaimed row.
const ApplyToAll = "apply_to_all"

// SafetyMarginMode is the kind of haircut applied to an available margin.
type SafetyMarginMode string

const (
	SafetyMarginDisabled   SafetyMarginMode = ""
	SafetyMarginPercentage SafetyMarginMode = "percentage"
	SafetyMarginFixed      SafetyMarginMode = "fixed"
)

// SafetyMargin is a haircut applied before computing a release.
type SafetyMargin struct {
	Mode  SafetyMarginMode `json:"mode,omitempty" yaml:"mode" validate:"omitempty,oneof=percentage fixed"`
	Value decimal.Decimal  `json:"value" yaml:"value"`
}

// Enabled reports whether the haircut does anything.
func (s SafetyMargin) Enabled() bool {
	return s.Mode == SafetyMarginPercentage || s.Mode == SafetyMarginFixed
}

// ProductChoice routes a configuration in the combined campaign.
type ProductChoice string

const (
	ProductChoiceBenefit ProductChoice = "benefit"
	ProductChoiceCard    ProductChoice = "card"
)

// BankProductConfig describes one offer rule. Configurations are applied in list order.
type BankProductConfig struct {
	ConditionColumn        string              `json:"condition_column" validate:"required"`
	ConditionMode          ConditionMode       `json:"condition_mode,omitempty" validate:"omitempty,oneof=single_value keywords"`
	ConditionValue         string              `json:"condition_value,omitempty"`
	BankCode               string              `json:"bank_code" validate:"required"`
	Coefficient            decimal.Decimal     `json:"coefficient"`
	Coefficient2           decimal.NullDecimal `json:"coefficient_2"`
	InstallmentCoefficient decimal.Decimal     `json:"installment_coefficient"`
	CommissionRate         decimal.Decimal     `json:"commission_rate"`
	Term                   int                 `json:"term" validate:"gte=0"`
	SafetyMargin           SafetyMargin        `json:"safety_margin"`
	ProductChoice          ProductChoice       `json:"product_choice,omitempty" validate:"omitempty,oneof=benefit card"`
	UsePurchaseMargin      bool                `json:"use_purchase_margin,omitempty"`
}

// InstallmentDivisor returns the installment coefficient, defaulting to 1.
func (c BankProductConfig) InstallmentDivisor() decimal.Decimal {
	if c.InstallmentCoefficient.IsZero() {
		return decimal.NewFromInt(1)
	}
	return c.InstallmentCoefficient
}

// CampaignParams are the global parameters of one campaign run.
type CampaignParams struct {
	CampaignType        CampaignType
	AgreementCode       string
	MinimumCommission   decimal.Decimal
	MarginThreshold     decimal.NullDecimal
	AgeCutoff           *time.Time
	ExcludedLotations   []string
	ExcludedBondTypes   []string
	ExcludedDepartments []string
	Team                string
	AIRoutingPercent    int
}

// WithRestrictions returns a copy of the params with the restriction lists merged in.
func (p CampaignParams) WithRestrictions(rs RestrictionSet) CampaignParams {
	p.ExcludedLotations = mergeUnique(p.ExcludedLotations, rs.Values(RestrictionLotation))
	p.ExcludedBondTypes = mergeUnique(p.ExcludedBondTypes, rs.Values(RestrictionBondType))
	p.ExcludedDepartments = mergeUnique(p.ExcludedDepartments, rs.Values(RestrictionDepartment))
	return p
}

// SimulationParams are the parameters of the simulation extraction path.
type SimulationParams struct {
	AgreementCode             string
	Team                      string
	CommissionRate            decimal.Decimal // fraction, not percent
	MinimumCommission         decimal.Decimal
	RequireOutstandingBalance bool
	AIRoutingPercent          int
}

// SimulationBankCode is the bank stamped on every simulation offer.
const SimulationBankCode = "243"

func mergeUnique(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
