package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-filter-engine/internal/models"
)

var fixedNow = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

func num(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.NullDecimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.True(t, got.Valid, msgAndArgs...)
	assert.True(t, d(want).Equal(got.Decimal), "want %s, got %s", want, got.Decimal.String())
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	rules, err := DefaultRulesBook()
	require.NoError(t, err)
	return New(rules, WithClock(func() time.Time { return fixedNow }))
}

func newTable(columns []string, rows ...models.CustomerRecord) *models.Table {
	for i := range rows {
		rows[i].RowID = i + 1
	}
	return models.NewTable(columns, rows)
}

func applyToAll(bank string, coefficient, rate string) models.BankProductConfig {
	return models.BankProductConfig{
		ConditionColumn: models.ApplyToAll,
		BankCode:        bank,
		Coefficient:     d(coefficient),
		CommissionRate:  d(rate),
		Term:            84,
	}
}

var loanColumns = []string{models.ColDocument, models.ColName, models.ColRegistration, models.ColLoanTotal, models.ColLoanAvailable}

func TestCalculate_NewCampaign(t *testing.T) {
	e := newTestEngine(t)
	table := newTable(loanColumns, models.CustomerRecord{
		DocumentNumber: "111", Name: "ANA", LoanTotal: num("1000"), LoanAvailable: num("1000"),
	})
	params := models.CampaignParams{
		CampaignType:    models.CampaignNew,
		MarginThreshold: num("0"),
	}
	configs := []models.BankProductConfig{applyToAll("001", "0.02", "5")}

	out, err := e.Calculate(table, params, configs)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	loan := out.Rows[0].Loan
	assertDecimal(t, "20.00", loan.Released)
	assertDecimal(t, "1.00", loan.Commission)
	assertDecimal(t, "1000", loan.Installment)
	assert.Equal(t, "001", loan.Bank)
	assert.Equal(t, 84, loan.Term)

	params.MinimumCommission = d("2.00")
	out, err = e.Calculate(table, params, configs)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestCalculate_InputTableUntouched(t *testing.T) {
	e := newTestEngine(t)
	table := newTable(loanColumns, models.CustomerRecord{
		DocumentNumber: "111.222.333-44", Name: "ANA LIMA", LoanAvailable: num("500"),
	})

	_, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignNew},
		[]models.BankProductConfig{applyToAll("001", "0.5", "10")})
	require.NoError(t, err)

	assert.Equal(t, "111.222.333-44", table.Rows[0].DocumentNumber)
	assert.Equal(t, "ANA LIMA", table.Rows[0].Name)
	assert.False(t, table.Rows[0].Loan.Released.Valid)
	assert.Nil(t, table.Claims)
}

func TestCalculate_MarginThreshold(t *testing.T) {
	e := newTestEngine(t)
	rows := func() *models.Table {
		return newTable(loanColumns,
			models.CustomerRecord{DocumentNumber: "1", LoanAvailable: num("400")},
			models.CustomerRecord{DocumentNumber: "2", LoanAvailable: num("600")},
			models.CustomerRecord{DocumentNumber: "3"},
		)
	}
	configs := []models.BankProductConfig{applyToAll("001", "1", "1")}

	out, err := e.Calculate(rows(), models.CampaignParams{CampaignType: models.CampaignNew, MarginThreshold: num("500")}, configs)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "2", out.Rows[0].DocumentNumber)

	cardTable := rows()
	cardTable.AddColumns(models.ColCardTotal, models.ColCardAvailable)
	for i := range cardTable.Rows {
		cardTable.Rows[i].CardTotal = num("10")
		cardTable.Rows[i].CardAvailable = num("10")
	}
	out, err = e.Calculate(cardTable, models.CampaignParams{CampaignType: models.CampaignCard, MarginThreshold: num("500")}, configs)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "1", out.Rows[0].DocumentNumber)
}

func TestCalculate_AtMostOneClaim(t *testing.T) {
	e := newTestEngine(t)
	table := newTable(append(loanColumns, models.ColLotation),
		models.CustomerRecord{DocumentNumber: "1", Lotation: "SECRETARIA DA SAUDE", LoanAvailable: num("100")},
		models.CustomerRecord{DocumentNumber: "2", Lotation: "EDUCACAO", LoanAvailable: num("200")},
		models.CustomerRecord{DocumentNumber: "3", Lotation: "SAUDE MENTAL", LoanAvailable: num("300")},
	)
	configs := []models.BankProductConfig{
		{
			ConditionColumn: models.ColLotation,
			ConditionMode:   models.ConditionKeywords,
			ConditionValue:  "saude",
			BankCode:        "AAA",
			Coefficient:     d("2"),
			CommissionRate:  d("10"),
		},
		applyToAll("BBB", "3", "10"),
		applyToAll("CCC", "4", "10"),
	}

	out, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignNew}, configs)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	byDoc := make(map[string]models.CustomerRecord)
	for _, r := range out.Rows {
		byDoc[r.DocumentNumber] = r
		idx, ok := out.Claims.ClaimedBy(models.ProductLoan, r.RowID)
		require.True(t, ok)
		assert.Equal(t, configs[idx].BankCode, r.Loan.Bank)
	}

	assert.Equal(t, "AAA", byDoc["1"].Loan.Bank)
	assertDecimal(t, "200", byDoc["1"].Loan.Released)
	assert.Equal(t, "BBB", byDoc["2"].Loan.Bank)
	assertDecimal(t, "600", byDoc["2"].Loan.Released)
	assert.Equal(t, "AAA", byDoc["3"].Loan.Bank)
	assert.Equal(t, 3, out.Claims.Count(models.ProductLoan))
}

func TestCalculate_CommissionMonotonicInCoefficient(t *testing.T) {
	e := newTestEngine(t)
	previous := decimal.NewFromInt(-1)

	for _, coef := range []string{"0.01", "0.015", "0.02", "0.5", "1", "2.75"} {
		table := newTable(loanColumns, models.CustomerRecord{DocumentNumber: "1", LoanAvailable: num("1234.56")})
		out, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignNew},
			[]models.BankProductConfig{applyToAll("001", coef, "3")})
		require.NoError(t, err)
		require.Equal(t, 1, out.Len())

		released := out.Rows[0].Loan.Released.Decimal
		assert.True(t, released.GreaterThanOrEqual(previous), "coefficient %s decreased release", coef)
		previous = released
	}
}

func TestCalculate_SortedDescendingNullsLast(t *testing.T) {
	e := newTestEngine(t)
	table := newTable(loanColumns,
		models.CustomerRecord{DocumentNumber: "1", LoanAvailable: num("100")},
		models.CustomerRecord{DocumentNumber: "2", LoanAvailable: num("300")},
		models.CustomerRecord{DocumentNumber: "3", LoanAvailable: num("200")},
	)

	out, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignNew},
		[]models.BankProductConfig{applyToAll("001", "1", "1")})
	require.NoError(t, err)

	var docs []string
	for _, r := range out.Rows {
		docs = append(docs, r.DocumentNumber)
	}
	assert.Equal(t, []string{"2", "3", "1"}, docs)
}

func TestSortDescending_Stable(t *testing.T) {
	table := newTable(loanColumns,
		models.CustomerRecord{DocumentNumber: "a"},
		models.CustomerRecord{DocumentNumber: "b", LoanAvailable: num("5")},
		models.CustomerRecord{DocumentNumber: "c", LoanAvailable: num("5")},
		models.CustomerRecord{DocumentNumber: "d", LoanAvailable: num("9")},
	)
	sortDescending(table, func(r *models.CustomerRecord) decimal.NullDecimal { return r.LoanAvailable })

	var docs []string
	for _, r := range table.Rows {
		docs = append(docs, r.DocumentNumber)
	}
	assert.Equal(t, []string{"d", "b", "c", "a"}, docs)
}

func TestCalculate_NewCarveOuts(t *testing.T) {
	e := newTestEngine(t)

	t.Run("govsp drops whole registration with negative margin", func(t *testing.T) {
		table := newTable(loanColumns,
			models.CustomerRecord{DocumentNumber: "1", Registration: "9", LoanAvailable: num("-5")},
			models.CustomerRecord{DocumentNumber: "2", Registration: "9", LoanAvailable: num("100")},
			models.CustomerRecord{DocumentNumber: "3", Registration: "7", LoanAvailable: num("100")},
		)
		out, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignNew, AgreementCode: "GOVSP"},
			[]models.BankProductConfig{applyToAll("001", "1", "1")})
		require.NoError(t, err)
		require.Equal(t, 1, out.Len())
		assert.Equal(t, "3", out.Rows[0].DocumentNumber)
	})

	t.Run("govmt requires non-negative compulsory margin", func(t *testing.T) {
		table := newTable(append(loanColumns, models.ColCompulsoryAvailable),
			models.CustomerRecord{DocumentNumber: "1", LoanAvailable: num("100"), CompulsoryAvailable: num("-1")},
			models.CustomerRecord{DocumentNumber: "2", LoanAvailable: num("100"), CompulsoryAvailable: num("0")},
			models.CustomerRecord{DocumentNumber: "3", LoanAvailable: num("100")},
		)
		out, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignNew, AgreementCode: "govmt"},
			[]models.BankProductConfig{applyToAll("001", "1", "1")})
		require.NoError(t, err)
		require.Equal(t, 1, out.Len())
		assert.Equal(t, "2", out.Rows[0].DocumentNumber)
	})
}

func TestCalculate_SafetyMarginFeedsRelease(t *testing.T) {
	e := newTestEngine(t)
	table := newTable(loanColumns, models.CustomerRecord{DocumentNumber: "1", LoanAvailable: num("1000")})
	cfg := applyToAll("001", "0.02", "5")
	cfg.SafetyMargin = models.SafetyMargin{Mode: models.SafetyMarginPercentage, Value: d("10")}

	out, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignNew}, []models.BankProductConfig{cfg})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assertDecimal(t, "18.00", out.Rows[0].Loan.Released)
	assertDecimal(t, "900", out.Rows[0].Loan.Installment)
	assertDecimal(t, "0.90", out.Rows[0].Loan.Commission)
}

var cardColumns = []string{models.ColDocument, models.ColRegistration, models.ColLotation, models.ColLoanAvailable, models.ColCardTotal, models.ColCardAvailable}

func TestCalculate_CardAllOrNothing(t *testing.T) {
	e := newTestEngine(t)
	table := newTable(cardColumns,
		models.CustomerRecord{DocumentNumber: "1", LoanAvailable: num("10"), CardTotal: num("500"), CardAvailable: num("400")},
		models.CustomerRecord{DocumentNumber: "2", LoanAvailable: num("10"), CardTotal: num("500"), CardAvailable: num("500")},
	)
	cfg := applyToAll("341", "27.5", "4")
	cfg.InstallmentCoefficient = d("2")

	out, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignCard}, []models.BankProductConfig{cfg})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	assert.Equal(t, "2", out.Rows[0].DocumentNumber)
	assertDecimal(t, "13750", out.Rows[0].Card.Released)
	assertDecimal(t, "6875", out.Rows[0].Card.Installment)
	assertDecimal(t, "550", out.Rows[0].Card.Commission)

	assert.Equal(t, "1", out.Rows[1].DocumentNumber)
	assertDecimal(t, "0", out.Rows[1].Card.Released)
	assertDecimal(t, "0", out.Rows[1].Card.Commission)
}

func TestCalculate_CardGovspZeroesUsedRegistration(t *testing.T) {
	e := newTestEngine(t)
	table := newTable(cardColumns,
		models.CustomerRecord{DocumentNumber: "1", Registration: "R1", LoanAvailable: num("10"), CardTotal: num("100"), CardAvailable: num("100")},
		models.CustomerRecord{DocumentNumber: "2", Registration: "R1", Lotation: "ALESP", LoanAvailable: num("10"), CardTotal: num("100"), CardAvailable: num("50")},
		models.CustomerRecord{DocumentNumber: "3", Registration: "R2", LoanAvailable: num("10"), CardTotal: num("100"), CardAvailable: num("100")},
		models.CustomerRecord{DocumentNumber: "4", Registration: "R3", Lotation: "ALESP", LoanAvailable: num("10"), CardTotal: num("100"), CardAvailable: num("100")},
	)

	out, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignCard, AgreementCode: "govsp"},
		[]models.BankProductConfig{applyToAll("341", "2", "10")})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	assert.Equal(t, "3", out.Rows[0].DocumentNumber)
	assertDecimal(t, "200", out.Rows[0].Card.Released)
	assert.Equal(t, "1", out.Rows[1].DocumentNumber)
	assertDecimal(t, "0", out.Rows[1].Card.Released)
	assert.True(t, out.Has(models.ColCardUsed))
}

var benefitColumns = []string{
	models.ColDocument, models.ColRegistration, models.ColLotation, models.ColLoanAvailable,
	models.ColBenefitWithdrawalTotal, models.ColBenefitWithdrawalAvailable,
	models.ColBenefitPurchaseTotal, models.ColBenefitPurchaseAvailable,
}

func benefitRow(doc, wTotal, wAvail string) models.CustomerRecord {
	return models.CustomerRecord{
		DocumentNumber:             doc,
		LoanAvailable:              num("10"),
		BenefitWithdrawalTotal:     num(wTotal),
		BenefitWithdrawalAvailable: num(wAvail),
	}
}

func TestCalculate_BenefitDefaultRequiresUnusedWithdrawal(t *testing.T) {
	e := newTestEngine(t)
	table := newTable(benefitColumns,
		benefitRow("1", "100", "100"),
		benefitRow("2", "100", "60"),
		benefitRow("3", "300", "300"),
	)

	out, err := e.Calculate(table, models.CampaignParams{CampaignType: models.CampaignBenefit},
		[]models.BankProductConfig{applyToAll("243", "10", "5")})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "3", out.Rows[0].DocumentNumber)
	assertDecimal(t, "3000", out.Rows[0].Benefit.Released)
	assertDecimal(t, "150", out.Rows[0].Benefit.Commission)
	assert.Equal(t, "1", out.Rows[1].DocumentNumber)
}

func TestCalculate_BenefitGovspZeroIfUsed(t *testing.T) {
	e := newTestEngine(t)
	used := benefitRow("2", "200", "100")
	used.Registration = "R1"
	unused := benefitRow("1", "100", "100")
	unused.Registration = "R1"
	clean := benefitRow("3", "50", "50")
	clean.Registration = "R2"
	alesp := benefitRow("4", "50", "50")
	alesp.Lotation = "ALESP"

	out, err := e.Calculate(newTable(benefitColumns, unused, used, clean, alesp),
		models.CampaignParams{CampaignType: models.CampaignBenefit, AgreementCode: "govsp"},
		[]models.BankProductConfig{applyToAll("243", "2", "10")})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	assert.Equal(t, "3", out.Rows[0].DocumentNumber)
	assertDecimal(t, "100", out.Rows[0].Benefit.Released)
	assert.Equal(t, "1", out.Rows[1].DocumentNumber)
	assertDecimal(t, "0", out.Rows[1].Benefit.Released)
	assertDecimal(t, "0", out.Rows[1].Benefit.Installment)
}

func TestCalculate_BenefitCombinedBasis(t *testing.T) {
	e := newTestEngine(t)
	full := benefitRow("1", "100", "100")
	full.BenefitPurchaseTotal, full.BenefitPurchaseAvailable = num("50"), num("50")
	partial := benefitRow("2", "100", "100")
	partial.BenefitPurchaseTotal, partial.BenefitPurchaseAvailable = num("50"), num("20")

	cfg := applyToAll("243", "1", "10")
	cfg.Coefficient2 = num("0.5")

	out, err := e.Calculate(newTable(benefitColumns, full, partial),
		models.CampaignParams{CampaignType: models.CampaignBenefit, AgreementCode: "goval"},
		[]models.BankProductConfig{cfg})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assertDecimal(t, "150", out.Rows[0].Benefit.Released)
	assertDecimal(t, "50", out.Rows[1].Benefit.Released)

	cfg.Coefficient2 = decimal.NullDecimal{}
	out, err = e.Calculate(newTable(benefitColumns, full, partial),
		models.CampaignParams{CampaignType: models.CampaignBenefit, AgreementCode: "goval"},
		[]models.BankProductConfig{cfg})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "1", out.Rows[0].DocumentNumber)
}

func TestCalculate_BenefitPurchaseToggle(t *testing.T) {
	e := newTestEngine(t)
	rows := func() *models.Table {
		bothUnused := benefitRow("1", "100", "100")
		bothUnused.BenefitPurchaseTotal, bothUnused.BenefitPurchaseAvailable = num("40"), num("40")
		purchaseUsed := benefitRow("2", "100", "100")
		purchaseUsed.BenefitPurchaseTotal, purchaseUsed.BenefitPurchaseAvailable = num("40"), num("10")
		return newTable(benefitColumns, bothUnused, purchaseUsed)
	}
	params := models.CampaignParams{CampaignType: models.CampaignBenefit, AgreementCode: "govam"}

	purchase := applyToAll("243", "1", "10")
	purchase.UsePurchaseMargin = true
	out, err := e.Calculate(rows(), params, []models.BankProductConfig{purchase})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "1", out.Rows[0].DocumentNumber)
	assertDecimal(t, "40", out.Rows[0].Benefit.Released)

	withdrawal := applyToAll("243", "1", "10")
	out, err = e.Calculate(rows(), params, []models.BankProductConfig{withdrawal})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "2", out.Rows[0].DocumentNumber)
	assertDecimal(t, "100", out.Rows[0].Benefit.Released)
}

func TestCalculate_BenefitCard(t *testing.T) {
	e := newTestEngine(t)
	columns := append(append([]string{}, benefitColumns...), models.ColCardTotal, models.ColCardAvailable)

	row := func(doc, card string) models.CustomerRecord {
		r := benefitRow(doc, "100", "100")
		r.CardTotal, r.CardAvailable = num(card), num(card)
		return r
	}
	benefitCfg := applyToAll("243", "1", "10")
	benefitCfg.ProductChoice = models.ProductChoiceBenefit
	cardCfg := applyToAll("341", "2", "10")
	cardCfg.ProductChoice = models.ProductChoiceCard

	out, err := e.Calculate(newTable(columns, row("1", "50"), row("2", "10")),
		models.CampaignParams{CampaignType: models.CampaignBenefitCard, MinimumCommission: d("15")},
		[]models.BankProductConfig{benefitCfg, cardCfg})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	r := out.Rows[0]
	assert.Equal(t, "1", r.DocumentNumber)
	assertDecimal(t, "100", r.Benefit.Released)
	assertDecimal(t, "10", r.Benefit.Commission)
	assertDecimal(t, "100", r.Card.Released)
	assertDecimal(t, "10", r.Card.Commission)
	assertDecimal(t, "20", r.TotalCommission)
	assert.Equal(t, "243", r.Benefit.Bank)
	assert.Equal(t, "341", r.Card.Bank)

	frame := out.ToFrame()
	assert.NotEqual(t, -1, frame.Index(models.ColClaimedBenefit))
	assert.NotEqual(t, -1, frame.Index(models.ColClaimedCard))
	assert.Equal(t, -1, frame.Index(models.ColClaimed))
}

func TestCalculate_BenefitCardOnlyCardConfigs(t *testing.T) {
	e := newTestEngine(t)
	columns := append(append([]string{}, benefitColumns...), models.ColCardTotal, models.ColCardAvailable)
	r := benefitRow("1", "100", "100")
	r.CardTotal, r.CardAvailable = num("50"), num("50")

	cardCfg := applyToAll("341", "2", "10")
	cardCfg.ProductChoice = models.ProductChoiceCard

	out, err := e.Calculate(newTable(columns, r), models.CampaignParams{CampaignType: models.CampaignBenefitCard},
		[]models.BankProductConfig{cardCfg})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assertDecimal(t, "0", out.Rows[0].Benefit.Released)
	assertDecimal(t, "10", out.Rows[0].TotalCommission)
	assert.False(t, out.Claims.IsClaimed(models.ProductBenefit, out.Rows[0].RowID))

	frame := out.ToFrame()
	assert.Equal(t, []string{"0"}, frame.Column(models.ProductBenefit.Columns().Term))
	assert.Equal(t, []string{"84"}, frame.Column(models.ProductCard.Columns().Term))
}

func TestCalculate_BenefitCardWithoutConfigs(t *testing.T) {
	e := newTestEngine(t)
	columns := append(append([]string{}, benefitColumns...), models.ColCardTotal, models.ColCardAvailable)
	r := benefitRow("1", "100", "100")
	r.CardTotal, r.CardAvailable = num("50"), num("50")

	out, err := e.Calculate(newTable(columns, r), models.CampaignParams{CampaignType: models.CampaignBenefitCard}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assertDecimal(t, "0", out.Rows[0].TotalCommission)

	out, err = e.Calculate(newTable(columns, r),
		models.CampaignParams{CampaignType: models.CampaignBenefitCard, MinimumCommission: d("10")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestRun_MissingColumn(t *testing.T) {
	e := newTestEngine(t)
	table := newTable([]string{models.ColDocument}, models.CustomerRecord{DocumentNumber: "1"})

	result, err := e.Run(table, models.CampaignParams{CampaignType: models.CampaignCard}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMissingColumn))

	var missing *models.MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []string{models.ColLoanAvailable, models.ColCardTotal, models.ColCardAvailable}, missing.Columns)

	require.NotNil(t, result)
	assert.Equal(t, models.PublishedHeaders(), result.Frame.Columns)
	assert.Equal(t, 0, result.Frame.Len())
}

func TestRun_RecoversFromPanic(t *testing.T) {
	e := New(nil)
	table := newTable(loanColumns, models.CustomerRecord{DocumentNumber: "1", LoanAvailable: num("1")})

	result, err := e.Run(table, models.CampaignParams{CampaignType: models.CampaignNew}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrComputation))
	assert.Nil(t, result)
}

func TestRun_UnknownCampaignType(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Run(newTable(loanColumns), models.CampaignParams{CampaignType: "loan"}, nil)
	assert.True(t, errors.Is(err, models.ErrUnknownCampaignType))
}

func TestRun_PublishedOutput(t *testing.T) {
	e := newTestEngine(t)
	table := newTable(loanColumns,
		models.CustomerRecord{DocumentNumber: "123.456.789-00", Name: "ANA LIMA", LoanTotal: num("1000"), LoanAvailable: num("1000")},
		models.CustomerRecord{DocumentNumber: "12345678900", Name: "ANA LIMA", LoanTotal: num("1000"), LoanAvailable: num("500")},
	)

	result, err := e.Run(table, models.CampaignParams{
		CampaignType:  models.CampaignNew,
		AgreementCode: "govsp",
		Team:          "equipe1",
	}, []models.BankProductConfig{applyToAll("001", "0.02", "5")})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowsIn)
	assert.Equal(t, 2, result.Calculated)
	assert.Equal(t, 1, result.RowsOut)

	frame := result.Frame
	assert.Equal(t, models.PublishedHeaders(), frame.Columns)
	assert.Equal(t, []string{"12345678900"}, frame.Column(models.ColDocument))
	assert.Equal(t, []string{"Ana Lima"}, frame.Column(models.ColName))
	assert.Equal(t, []string{"20.00"}, frame.Column("Valor_Liberado_Emprestimo"))
	assert.Equal(t, []string{"1.00"}, frame.Column("Comissao_Emprestimo"))
	assert.Equal(t, []string{"84"}, frame.Column("Prazo_Emprestimo"))
	assert.Equal(t, []string{""}, frame.Column("Valor_Liberado_Cartao"))
	assert.Equal(t, []string{"govsp_05032024_novo_equipe1"}, frame.Column(models.ColCampaign))

	for _, col := range models.WorkingColumns {
		assert.Equal(t, -1, frame.Index(col))
	}
}
