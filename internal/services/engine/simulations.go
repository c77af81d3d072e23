package engine

import (
	"fmt"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/utils"
)

var (
	simulationTermPattern  = regexp.MustCompile(`(\d+)x:`)
	simulationOfferPattern = regexp.MustCompile(`(?P<prazo>\d+)x: (?P<valor>[\d.,]+) \(parcela: (?P<parcela>[\d.,]+)\)`)
)

// SimulationSeparator splits the candidate offers of a Simulacoes cell.
const SimulationSeparator = "|"

// SimulatedOffer is one parsed "<term>x: <amount> (parcela: <installment>)" entry.
type SimulatedOffer struct {
	Term        int
	Released    decimal.NullDecimal
	Installment decimal.NullDecimal
}

// BestSimulation returns the candidate with the highest term. On equal terms
// the first one wins. ok is false when no candidate with a positive term parses.
func BestSimulation(cell string) (offer SimulatedOffer, ok bool) {
	best, bestTerm := "", 0
	for _, candidate := range strings.Split(cell, SimulationSeparator) {
		m := simulationTermPattern.FindStringSubmatch(candidate)
		if m == nil {
			continue
		}
		term, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if term > bestTerm {
			best, bestTerm = candidate, term
		}
	}
	if bestTerm == 0 {
		return SimulatedOffer{}, false
	}

	m := simulationOfferPattern.FindStringSubmatch(best)
	if m == nil {
		return SimulatedOffer{}, false
	}
	term, err := strconv.Atoi(m[simulationOfferPattern.SubexpIndex("prazo")])
	if err != nil {
		return SimulatedOffer{}, false
	}

	return SimulatedOffer{
		Term:        term,
		Released:    utils.ParseDecimal(m[simulationOfferPattern.SubexpIndex("valor")]),
		Installment: utils.ParseDecimal(m[simulationOfferPattern.SubexpIndex("parcela")]),
	}, true
}

// RunSimulations builds a Benefit campaign out of pre-simulated offers.
// Errors follow the same contract as Run.
func (e *Engine) RunSimulations(t *models.Table, params models.SimulationParams) (result *Result, err error) {
	startTime := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			utils.GetLogger().Error("Simulation extraction failed", zap.Any("panic", rec))
			result = nil
			err = fmt.Errorf("%w: %v\n%s", models.ErrComputation, rec, debug.Stack())
		}
	}()

	result = &Result{Frame: models.EmptyPublishedFrame(), RowsIn: t.Len()}

	required := []string{models.ColSimulations}
	if params.RequireOutstandingBalance {
		required = append(required, models.ColOutstandingBalance)
	}
	if missing := missingColumns(t, required); len(missing) > 0 {
		return result, &models.MissingColumnsError{Columns: missing}
	}

	extracted := ExtractSimulations(t, params)
	result.Preprocessed = extracted.Len()
	result.Eligible = extracted.Len()
	result.Calculated = extracted.Len()

	result.Frame = e.Finalize(extracted.ToFrame(), Label{
		Agreement:    params.AgreementCode,
		CampaignType: models.CampaignBenefit,
		Team:         params.Team,
	}, params.AIRoutingPercent)
	result.RowsOut = result.Frame.Len()
	result.ProcessingTime = time.Since(startTime)

	utils.GetLogger().Info("Simulation run complete",
		zap.String("agreement", params.AgreementCode),
		zap.Int("rows_in", result.RowsIn),
		zap.Int("rows_out", result.RowsOut),
		zap.Duration("processing_time", result.ProcessingTime),
	)

	return result, nil
}

// ExtractSimulations parses the Simulacoes column into Benefit offers and
// applies the simulation filters. Rows keep their input order.
func ExtractSimulations(t *models.Table, params models.SimulationParams) *models.Table {
	out := t.Clone()
	hasName := out.Has(models.ColName)

	for i := range out.Rows {
		r := &out.Rows[i]
		r.DocumentNumber = utils.DigitsOnly(r.DocumentNumber)
		if hasName {
			r.Name = utils.TitleCase(r.Name)
		}

		offer, ok := BestSimulation(r.Simulations)
		if !ok {
			continue
		}
		r.Benefit = models.Offer{
			Released:    offer.Released,
			Installment: offer.Installment,
			Bank:        models.SimulationBankCode,
			Term:        offer.Term,
		}
	}

	out = out.Filter(func(r *models.CustomerRecord) bool {
		released := r.Benefit.Released
		if !released.Valid || !released.Decimal.IsPositive() {
			return false
		}
		return !(r.BenefitWithdrawalAvailable.Valid && r.BenefitWithdrawalAvailable.Decimal.IsNegative())
	})

	if params.RequireOutstandingBalance {
		out = out.Filter(func(r *models.CustomerRecord) bool {
			return r.OutstandingBalance.Valid && r.OutstandingBalance.Decimal.IsPositive()
		})
	}

	for i := range out.Rows {
		r := &out.Rows[i]
		r.Benefit.Commission = decimal.NewNullDecimal(round2(r.Benefit.Released.Decimal.Mul(params.CommissionRate)))
	}
	out = filterByCommission(out, func(r *models.CustomerRecord) decimal.NullDecimal {
		return r.Benefit.Commission
	}, params.MinimumCommission)

	out.AddColumns(models.ProductBenefit.Columns().List()...)

	utils.GetLogger().Debug("Simulations extracted",
		zap.Int("passed", out.Len()),
		zap.Int("dropped", t.Len()-out.Len()),
	)

	return out
}
