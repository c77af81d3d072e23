package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/services/campaign"
	"campaign-filter-engine/internal/services/engine"
	"campaign-filter-engine/internal/services/restrictions"
)

type stubRestrictions struct {
	rows []models.RestrictionRow
}

func (s stubRestrictions) ListRestrictions(context.Context, string, string) ([]models.RestrictionRow, error) {
	return s.rows, nil
}

func newTestCampaigns(t *testing.T, rows ...models.RestrictionRow) *campaign.Service {
	t.Helper()
	rules, err := engine.DefaultRulesBook()
	require.NoError(t, err)

	clock := func() time.Time { return time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC) }
	return campaign.NewService(
		engine.New(rules, engine.WithClock(clock)),
		restrictions.NewService(stubRestrictions{rows: rows}, time.Minute),
		clock,
	)
}

const loanCSV = "CPF;Nome;Lotacao;MG_Emprestimo_Total;MG_Emprestimo_Disponivel\n" +
	"111.111.111-11;ANA SOUZA;SEDUC;1.000,00;1.000,00\n" +
	"222.222.222-22;BRUNO LIMA;ALESP;2.000,00;2.000,00\n"

const newCampaignRequest = `{
	"campaign_type": "new",
	"agreement_code": "govsp",
	"team": "mesa",
	"configs": [{"condition_column": "apply_to_all", "bank_code": "001", "coefficient": "0.02", "commission_rate": "5", "term": 96}]
}`
