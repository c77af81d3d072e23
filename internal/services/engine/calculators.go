package engine

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/utils"
)

var (
	defaultNewThreshold     = decimal.Zero
	defaultCeilingThreshold = decimal.NewFromInt(999999)
)

// round2 is the rounding applied to every derived money value. Ties go to
// the even digit.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

func equalMargins(a, b decimal.NullDecimal) bool {
	return a.Valid && b.Valid && a.Decimal.Equal(b.Decimal)
}

// marginSource picks the margin and coefficient a configuration uses for a
// row. applies is false when the row is claimed but gets no release.
type marginSource func(r *models.CustomerRecord, cfg models.BankProductConfig) (margin, coef decimal.NullDecimal, applies bool)

func loanSource(r *models.CustomerRecord, cfg models.BankProductConfig) (decimal.NullDecimal, decimal.NullDecimal, bool) {
	return r.LoanAvailable, decimal.NewNullDecimal(cfg.Coefficient), true
}

func cardSource(r *models.CustomerRecord, cfg models.BankProductConfig) (decimal.NullDecimal, decimal.NullDecimal, bool) {
	return r.CardAvailable, decimal.NewNullDecimal(cfg.Coefficient), true
}

func benefitSource(basis string) marginSource {
	switch basis {
	case BenefitBasisCombined:
		return func(r *models.CustomerRecord, cfg models.BankProductConfig) (decimal.NullDecimal, decimal.NullDecimal, bool) {
			bothUnused := equalMargins(r.BenefitWithdrawalAvailable, r.BenefitWithdrawalTotal) &&
				equalMargins(r.BenefitPurchaseAvailable, r.BenefitPurchaseTotal)
			if bothUnused {
				margin := decimal.NewNullDecimal(r.BenefitWithdrawalAvailable.Decimal.Add(r.BenefitPurchaseAvailable.Decimal))
				return margin, decimal.NewNullDecimal(cfg.Coefficient), true
			}
			return r.BenefitWithdrawalAvailable, cfg.Coefficient2, true
		}
	case BenefitBasisPurchaseToggle:
		return func(r *models.CustomerRecord, cfg models.BankProductConfig) (decimal.NullDecimal, decimal.NullDecimal, bool) {
			coef := decimal.NewNullDecimal(cfg.Coefficient)
			withdrawalUnused := equalMargins(r.BenefitWithdrawalTotal, r.BenefitWithdrawalAvailable)
			purchaseUnused := equalMargins(r.BenefitPurchaseTotal, r.BenefitPurchaseAvailable)
			if cfg.UsePurchaseMargin {
				return r.BenefitPurchaseAvailable, coef, purchaseUnused && withdrawalUnused
			}
			return r.BenefitWithdrawalAvailable, coef, !purchaseUnused && withdrawalUnused
		}
	default:
		return func(r *models.CustomerRecord, cfg models.BankProductConfig) (decimal.NullDecimal, decimal.NullDecimal, bool) {
			return r.BenefitWithdrawalAvailable, decimal.NewNullDecimal(cfg.Coefficient), true
		}
	}
}

// productPass describes one product's configuration loop.
type productPass struct {
	product          models.Product
	configs          []models.BankProductConfig
	configIndexes    []int
	source           marginSource
	allOrNothing     bool
	zeroFor          map[string]bool
	installmentBasis string
}

// run claims rows for the product, configuration by configuration, in order.
// The table is modified in place, so callers pass a private copy.
func (p productPass) run(t *models.Table, ledger *models.ClaimLedger) {
	ledger.Track(p.product)

	for n, cfg := range p.configs {
		idx := p.configIndexes[n]
		mask := MatchCondition(t, cfg, ledger, p.product)
		matched := 0

		for i := range t.Rows {
			if !mask[i] {
				continue
			}
			r := &t.Rows[i]
			*r.Offer(p.product) = p.computeOffer(r, cfg)
			ledger.Claim(p.product, r.RowID, idx)
			matched++
		}

		utils.GetLogger().Debug("Configuration applied",
			zap.String("product", string(p.product)),
			zap.Int("config", idx),
			zap.String("bank", cfg.BankCode),
			utils.Decimal("coefficient", cfg.Coefficient),
			zap.Int("matched", matched),
		)
	}
}

func (p productPass) computeOffer(r *models.CustomerRecord, cfg models.BankProductConfig) models.Offer {
	margin, coef, applies := p.source(r, cfg)
	adjusted := adjustMargin(margin, cfg.SafetyMargin)

	var released decimal.NullDecimal
	if applies && adjusted.Valid && coef.Valid {
		released = decimal.NewNullDecimal(round2(adjusted.Decimal.Mul(coef.Decimal)))
	}
	if applies && p.allOrNothing && !equalMargins(r.CardTotal, r.CardAvailable) {
		released = decimal.NewNullDecimal(decimal.Zero)
	}
	if p.zeroFor[r.Registration] {
		released = decimal.NewNullDecimal(decimal.Zero)
	}

	offer := models.Offer{Released: released, Bank: cfg.BankCode, Term: cfg.Term}

	switch {
	case p.installmentBasis == InstallmentBasisMargin:
		if adjusted.Valid {
			offer.Installment = decimal.NewNullDecimal(round2(adjusted.Decimal))
		}
	case released.Valid:
		offer.Installment = decimal.NewNullDecimal(round2(released.Decimal.Div(cfg.InstallmentDivisor())))
	}

	if released.Valid {
		rate := cfg.CommissionRate.Div(hundred)
		offer.Commission = decimal.NewNullDecimal(round2(released.Decimal.Mul(rate)))
	}

	return offer
}

// trackUsage stores the used amount of a product on every row and returns
// the registrations with a positive usage.
func trackUsage(t *models.Table, product models.Product) map[string]bool {
	used := make(map[string]bool)
	for i := range t.Rows {
		r := &t.Rows[i]
		var total, available decimal.NullDecimal
		if product == models.ProductCard {
			total, available = r.CardTotal, r.CardAvailable
		} else {
			total, available = r.BenefitWithdrawalTotal, r.BenefitWithdrawalAvailable
		}

		var amount decimal.NullDecimal
		if total.Valid && available.Valid {
			amount = decimal.NewNullDecimal(total.Decimal.Sub(available.Decimal))
		}
		if product == models.ProductCard {
			r.CardUsed = amount
		} else {
			r.BenefitUsed = amount
		}

		if amount.Valid && amount.Decimal.IsPositive() && r.Registration != "" {
			used[r.Registration] = true
		}
	}

	if product == models.ProductCard {
		t.AddColumns(models.ColCardUsed)
	} else {
		t.AddColumns(models.ColBenefitUsed)
	}
	return used
}

func filterByThreshold(t *models.Table, params models.CampaignParams) *models.Table {
	if params.CampaignType == models.CampaignNew {
		minimum := defaultNewThreshold
		if params.MarginThreshold.Valid {
			minimum = params.MarginThreshold.Decimal
		}
		return t.Filter(func(r *models.CustomerRecord) bool {
			return r.LoanAvailable.Valid && r.LoanAvailable.Decimal.GreaterThanOrEqual(minimum)
		})
	}

	ceiling := defaultCeilingThreshold
	if params.MarginThreshold.Valid {
		ceiling = params.MarginThreshold.Decimal
	}
	return t.Filter(func(r *models.CustomerRecord) bool {
		return r.LoanAvailable.Valid && r.LoanAvailable.Decimal.LessThan(ceiling)
	})
}

func filterByCommission(t *models.Table, commission func(r *models.CustomerRecord) decimal.NullDecimal, minimum decimal.Decimal) *models.Table {
	return t.Filter(func(r *models.CustomerRecord) bool {
		c := commission(r)
		return c.Valid && c.Decimal.GreaterThanOrEqual(minimum)
	})
}

// sortDescending orders rows by key, highest first, nulls last. Equal keys
// keep their relative order.
func sortDescending(t *models.Table, key func(r *models.CustomerRecord) decimal.NullDecimal) {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := key(&t.Rows[i]), key(&t.Rows[j])
		if !a.Valid {
			return false
		}
		if !b.Valid {
			return true
		}
		return a.Decimal.GreaterThan(b.Decimal)
	})
}

// PrimaryValue returns the column a campaign type is ranked by.
func PrimaryValue(ct models.CampaignType) func(r *models.CustomerRecord) decimal.NullDecimal {
	switch ct {
	case models.CampaignNew:
		return func(r *models.CustomerRecord) decimal.NullDecimal { return r.Loan.Released }
	case models.CampaignCard:
		return func(r *models.CustomerRecord) decimal.NullDecimal { return r.Card.Released }
	case models.CampaignBenefit:
		return func(r *models.CustomerRecord) decimal.NullDecimal { return r.Benefit.Released }
	default:
		return func(r *models.CustomerRecord) decimal.NullDecimal { return r.TotalCommission }
	}
}

// RequiredColumns lists the input columns a campaign cannot run without.
func RequiredColumns(ct models.CampaignType, rules *CompiledRuleSet) []string {
	cols := []string{models.ColLoanAvailable}
	benefit := []string{models.ColBenefitWithdrawalTotal, models.ColBenefitWithdrawalAvailable}
	if rules.BenefitBasis != BenefitBasisWithdrawal {
		benefit = append(benefit, models.ColBenefitPurchaseTotal, models.ColBenefitPurchaseAvailable)
	}
	card := []string{models.ColCardTotal, models.ColCardAvailable}

	switch ct {
	case models.CampaignBenefit:
		cols = append(cols, benefit...)
	case models.CampaignCard:
		cols = append(cols, card...)
	case models.CampaignBenefitCard:
		cols = append(cols, benefit...)
		cols = append(cols, card...)
	}
	return cols
}
