package engine

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/utils"
)

// Engine runs the campaign pipeline: preprocess, calculate, finalize.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	rules *RulesBook
	now   func() time.Time
	seed  uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for campaign labels.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRoutingSeed sets the seed of the AI-routing sample.
func WithRoutingSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// New creates an engine over a rules book.
func New(rules *RulesBook, opts ...Option) *Engine {
	e := &Engine{rules: rules, now: time.Now, seed: DefaultRoutingSeed}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rules book the engine looks agreements up in.
func (e *Engine) Rules() *RulesBook {
	return e.rules
}

// Result contains the output of one run and its stage counts.
type Result struct {
	Frame          models.Frame
	RowsIn         int
	Preprocessed   int
	Eligible       int
	Calculated     int
	RowsOut        int
	ProcessingTime time.Duration
}

// Run computes the campaign for a table. A missing required column yields an
// empty published frame and an error wrapping models.ErrMissingColumn. Any
// unexpected failure is returned as models.ErrComputation with no output.
func (e *Engine) Run(t *models.Table, params models.CampaignParams, configs []models.BankProductConfig) (result *Result, err error) {
	startTime := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			utils.GetLogger().Error("Campaign computation failed",
				zap.Any("panic", rec),
				zap.String("campaign_type", string(params.CampaignType)),
			)
			result = nil
			err = fmt.Errorf("%w: %v\n%s", models.ErrComputation, rec, debug.Stack())
		}
	}()

	result = &Result{Frame: models.EmptyPublishedFrame(), RowsIn: t.Len()}

	calculated, stats, err := e.calculate(t, params, configs)
	if err != nil {
		return result, err
	}
	result.Preprocessed = stats.preprocessed
	result.Eligible = stats.eligible
	result.Calculated = calculated.Len()

	frame := e.Finalize(calculated.ToFrame(), Label{
		Agreement:    params.AgreementCode,
		CampaignType: params.CampaignType,
		Team:         params.Team,
	}, params.AIRoutingPercent)
	result.Frame = frame
	result.RowsOut = frame.Len()
	result.ProcessingTime = time.Since(startTime)

	utils.GetLogger().Info("Campaign run complete",
		zap.String("campaign_type", string(params.CampaignType)),
		zap.String("agreement", params.AgreementCode),
		zap.Int("rows_in", result.RowsIn),
		zap.Int("rows_out", result.RowsOut),
		zap.Duration("processing_time", result.ProcessingTime),
	)

	return result, nil
}

// Calculate runs preprocessing and the product calculator, returning the
// ranked table with its working columns.
func (e *Engine) Calculate(t *models.Table, params models.CampaignParams, configs []models.BankProductConfig) (*models.Table, error) {
	out, _, err := e.calculate(t, params, configs)
	return out, err
}

type stageStats struct {
	preprocessed int
	eligible     int
}

func (e *Engine) calculate(t *models.Table, params models.CampaignParams, configs []models.BankProductConfig) (*models.Table, stageStats, error) {
	var stats stageStats
	if !params.CampaignType.IsValid() {
		return nil, stats, fmt.Errorf("%w: %q", models.ErrUnknownCampaignType, params.CampaignType)
	}

	rules := e.rules.Lookup(params.AgreementCode, params.CampaignType)
	if missing := missingColumns(t, RequiredColumns(params.CampaignType, rules)); len(missing) > 0 {
		return nil, stats, &models.MissingColumnsError{Columns: missing}
	}

	log := utils.GetLogger().With(
		zap.String("campaign_type", string(params.CampaignType)),
		zap.String("agreement", params.AgreementCode),
		zap.String("rules", rules.Agreement),
	)

	log.Info("Starting campaign pipeline",
		zap.Int("rows", t.Len()),
		zap.Int("configs", len(configs)),
		utils.Decimal("minimum_commission", params.MinimumCommission),
	)

	// Stage 1: cleanup and universal exclusions
	work := Preprocess(t, params)
	stats.preprocessed = work.Len()
	log.Info("Stage 1 complete: preprocess",
		zap.Int("passed", work.Len()),
		zap.Int("dropped", t.Len()-work.Len()),
	)

	// Usage is measured before carve-outs so that a registration with a used
	// product is still known when only some of its rows survive.
	zeroFor := make(map[models.Product]map[string]bool)
	for _, p := range usageTracked(params.CampaignType) {
		used := trackUsage(work, p)
		if rules.ZeroesIfUsed(p) {
			zeroFor[p] = used
		}
	}

	// Stage 2: agreement carve-outs and the margin threshold
	before := work.Len()
	work, err := rules.ApplyCarveOuts(work)
	if err != nil {
		return nil, stats, err
	}
	work = filterByThreshold(work, params)
	stats.eligible = work.Len()
	log.Info("Stage 2 complete: eligibility",
		zap.Int("passed", work.Len()),
		zap.Int("dropped", before-work.Len()),
	)

	// Stage 3: offers
	before = work.Len()
	work = e.applyConfigs(work, params, configs, rules, zeroFor)
	log.Info("Stage 3 complete: offers",
		zap.Int("passed", work.Len()),
		zap.Int("dropped", before-work.Len()),
	)

	sortDescending(work, PrimaryValue(params.CampaignType))
	return work, stats, nil
}

// applyConfigs runs the product passes of a campaign type and the
// minimum-commission filter. work must be private to the caller.
func (e *Engine) applyConfigs(work *models.Table, params models.CampaignParams, configs []models.BankProductConfig, rules *CompiledRuleSet, zeroFor map[models.Product]map[string]bool) *models.Table {
	ledger := models.NewClaimLedger()
	work.Claims = ledger

	passFor := func(p models.Product, source marginSource, selected []int) productPass {
		pass := productPass{
			product:          p,
			source:           source,
			zeroFor:          zeroFor[p],
			installmentBasis: InstallmentBasisReleased,
		}
		for _, idx := range selected {
			pass.configs = append(pass.configs, configs[idx])
			pass.configIndexes = append(pass.configIndexes, idx)
		}
		return pass
	}

	all := make([]int, len(configs))
	for i := range configs {
		all[i] = i
	}

	switch params.CampaignType {
	case models.CampaignNew:
		pass := passFor(models.ProductLoan, loanSource, all)
		pass.installmentBasis = rules.InstallmentBasis
		pass.run(work, ledger)
		work.AddColumns(models.ProductLoan.Columns().List()...)
		return filterSingle(work, models.ProductLoan, len(configs), params)

	case models.CampaignBenefit:
		sortDescending(work, func(r *models.CustomerRecord) decimal.NullDecimal { return r.BenefitWithdrawalAvailable })
		pass := passFor(models.ProductBenefit, benefitSource(rules.BenefitBasis), all)
		pass.run(work, ledger)
		work.AddColumns(models.ProductBenefit.Columns().List()...)
		return filterSingle(work, models.ProductBenefit, len(configs), params)

	case models.CampaignCard:
		pass := passFor(models.ProductCard, cardSource, all)
		pass.allOrNothing = rules.CardAllOrNothing
		pass.run(work, ledger)
		work.AddColumns(models.ProductCard.Columns().List()...)
		return filterSingle(work, models.ProductCard, len(configs), params)

	default:
		var benefitIdx, cardIdx []int
		for i, cfg := range configs {
			switch cfg.ProductChoice {
			case models.ProductChoiceBenefit:
				benefitIdx = append(benefitIdx, i)
			case models.ProductChoiceCard:
				cardIdx = append(cardIdx, i)
			}
		}

		for i := range work.Rows {
			work.Rows[i].Benefit = models.ZeroOffer()
			work.Rows[i].Card = models.ZeroOffer()
		}

		benefit := passFor(models.ProductBenefit, benefitSource(rules.BenefitBasis), benefitIdx)
		benefit.run(work, ledger)
		card := passFor(models.ProductCard, cardSource, cardIdx)
		card.allOrNothing = rules.CardAllOrNothing
		card.run(work, ledger)

		work.AddColumns(models.ProductBenefit.Columns().List()...)
		work.AddColumns(models.ProductCard.Columns().List()...)
		work.AddColumns(models.ColTotalCommission)

		for i := range work.Rows {
			r := &work.Rows[i]
			if r.Benefit.Commission.Valid && r.Card.Commission.Valid {
				r.TotalCommission = decimal.NullDecimal{
					Decimal: round2(r.Benefit.Commission.Decimal.Add(r.Card.Commission.Decimal)),
					Valid:   true,
				}
			} else {
				r.TotalCommission = decimal.NullDecimal{}
			}
		}

		return filterByCommission(work, func(r *models.CustomerRecord) decimal.NullDecimal { return r.TotalCommission }, params.MinimumCommission)
	}
}

// filterSingle applies the minimum commission of a single-product campaign.
// A run without configurations has no commission to filter on.
func filterSingle(work *models.Table, p models.Product, configCount int, params models.CampaignParams) *models.Table {
	if configCount == 0 {
		return work
	}
	return filterByCommission(work, func(r *models.CustomerRecord) decimal.NullDecimal {
		return r.Offer(p).Commission
	}, params.MinimumCommission)
}

func usageTracked(ct models.CampaignType) []models.Product {
	switch ct {
	case models.CampaignBenefit:
		return []models.Product{models.ProductBenefit}
	case models.CampaignCard:
		return []models.Product{models.ProductCard}
	case models.CampaignBenefitCard:
		return []models.Product{models.ProductBenefit, models.ProductCard}
	}
	return nil
}

func missingColumns(t *models.Table, required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}
