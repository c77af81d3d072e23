package campaign

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/services/engine"
	"campaign-filter-engine/internal/services/restrictions"
	"campaign-filter-engine/internal/utils"
)

var fixedNow = time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)

type stubStore struct {
	rows []models.RestrictionRow
}

func (s stubStore) ListRestrictions(context.Context, string, string) ([]models.RestrictionRow, error) {
	return s.rows, nil
}

func newTestService(t *testing.T, rows ...models.RestrictionRow) *Service {
	t.Helper()
	rules, err := engine.DefaultRulesBook()
	require.NoError(t, err)

	clock := func() time.Time { return fixedNow }
	eng := engine.New(rules, engine.WithClock(clock))
	return NewService(eng, restrictions.NewService(stubStore{rows: rows}, time.Minute), clock)
}

const loanCSV = `CPF;Nome;Matricula;Lotacao;MG_Emprestimo_Total;MG_Emprestimo_Disponivel
111.111.111-11;ANA SOUZA;1;SEDUC;1.000,00;1.000,00
222.222.222-22;BRUNO LIMA;2;ALESP;2.000,00;2.000,00
333.333.333-33;CARLA DIAS;3;SESAU;1.500,00;900,00
`

func TestService_RunNewCampaign(t *testing.T) {
	svc := newTestService(t, models.RestrictionRow{Kind: "lotacao", Value: "ALESP"})

	req := CampaignRequest{
		CampaignType:  "Novo",
		AgreementCode: "govsp",
		Team:          "mesa",
		Configs: []models.BankProductConfig{{
			ConditionColumn: models.ApplyToAll,
			BankCode:        "001",
			Coefficient:     decimal.RequireFromString("0.02"),
			CommissionRate:  decimal.NewFromInt(5),
			Term:            96,
		}},
	}

	result, err := svc.Run(context.Background(), []utils.NamedContent{{Name: "base.csv", Content: []byte(loanCSV)}}, req)
	require.NoError(t, err)

	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, models.CampaignNew, result.CampaignType)
	assert.Equal(t, 3, result.RowsIn)
	assert.Equal(t, 2, result.RowsOut)
	assert.Equal(t, []string{"ALESP"}, result.Restrictions["lotation"])

	require.Len(t, result.Files, 2)
	assert.Equal(t, "govsp_novo_20240305_sem_emprestimo.csv", result.Files[0].Name)
	assert.Equal(t, 1, result.Files[0].Rows)
	assert.Equal(t, "govsp_novo_20240305_com_emprestimo.csv", result.Files[1].Name)
	assert.Equal(t, 1, result.Files[1].Rows)

	content := string(result.Files[0].Data)
	assert.True(t, strings.HasPrefix(content, strings.Join(models.PublishedHeaders(), ";")+"\n"))
	assert.Contains(t, content, "11111111111;Ana Souza;")
	assert.Contains(t, content, ";001;96;")
	assert.Contains(t, content, "govsp_05032024_novo_mesa")
}

func TestService_RunValidation(t *testing.T) {
	svc := newTestService(t)
	inputs := []utils.NamedContent{{Name: "base.csv", Content: []byte(loanCSV)}}

	tests := []struct {
		name string
		req  CampaignRequest
	}{
		{"missing type", CampaignRequest{}},
		{"unknown type", CampaignRequest{CampaignType: "consignado"}},
		{"routing above 100", CampaignRequest{CampaignType: "new", AIRoutingPercent: 120}},
		{"config without bank", CampaignRequest{CampaignType: "new", Configs: []models.BankProductConfig{{ConditionColumn: models.ApplyToAll}}}},
		{"bad condition mode", CampaignRequest{CampaignType: "new", Configs: []models.BankProductConfig{{ConditionColumn: "Lotacao", ConditionMode: "regex", BankCode: "1"}}}},
		{"bad email", CampaignRequest{CampaignType: "new", NotifyEmail: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Run(context.Background(), inputs, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest), err.Error())
		})
	}
}

func TestService_RunInputErrors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Run(context.Background(), nil, CampaignRequest{CampaignType: "card"})
	assert.True(t, errors.Is(err, models.ErrEmptyInput))

	_, err = svc.Run(context.Background(), []utils.NamedContent{{Name: "empty.csv"}}, CampaignRequest{CampaignType: "card"})
	assert.True(t, errors.Is(err, models.ErrEmptyInput))

	_, err = svc.Run(context.Background(), []utils.NamedContent{{Name: "base.csv", Content: []byte(loanCSV)}}, CampaignRequest{CampaignType: "card"})
	assert.True(t, errors.Is(err, models.ErrMissingColumn))
}

func TestService_RunSimulations(t *testing.T) {
	svc := newTestService(t)
	csv := "CPF;Nome;Simulacoes\n" +
		"111.111.111-11;ANA SOUZA;\"12x: 16.000,50 (parcela: 450,00)|6x: 5000.00 (parcela: 900.00)\"\n" +
		"222.222.222-22;BRUNO LIMA;sem oferta\n"

	result, err := svc.RunSimulations(context.Background(), []utils.NamedContent{{Name: "sim.csv", Content: []byte(csv)}}, SimulationRequest{
		AgreementCode:  "govsp",
		Team:           "mesa",
		CommissionRate: decimal.RequireFromString("0.1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowsIn)
	assert.Equal(t, 1, result.RowsOut)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "GOVSP_BENEFICIO_SIMULACAO_MESA_05032024.csv", result.Files[0].Name)
	assert.Equal(t, []string{"16000.50"}, result.Frame.Column("Valor_Liberado_Beneficio"))
	assert.Equal(t, []string{"1600.05"}, result.Frame.Column("Comissao_Beneficio"))
}

func TestService_AgreementFromTable(t *testing.T) {
	svc := newTestService(t, models.RestrictionRow{Kind: "lotacao", Value: "ALESP"})
	csv := "CPF;Nome;Matricula;Convenio;Lotacao;MG_Emprestimo_Total;MG_Emprestimo_Disponivel\n" +
		"111.111.111-11;ANA SOUZA;1;;SEDUC;1.000,00;1.000,00\n" +
		"222.222.222-22;BRUNO LIMA;2;GOVSP;ALESP;2.000,00;2.000,00\n" +
		"333.333.333-33;CARLA DIAS;3;GOVSP;SESAU;1.500,00;900,00\n"
	inputs := []utils.NamedContent{{Name: "base.csv", Content: []byte(csv)}}

	result, err := svc.Run(context.Background(), inputs, CampaignRequest{
		CampaignType: "new",
		Configs: []models.BankProductConfig{{
			ConditionColumn: models.ApplyToAll,
			BankCode:        "001",
			Coefficient:     decimal.RequireFromString("0.02"),
			CommissionRate:  decimal.NewFromInt(5),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "govsp", result.Agreement)
	assert.Equal(t, 2, result.RowsOut)
	assert.Equal(t, []string{"ALESP"}, result.Restrictions["lotation"])
	require.NotEmpty(t, result.Files)
	assert.Equal(t, "govsp_novo_20240305_sem_emprestimo.csv", result.Files[0].Name)

	// An explicit agreement wins over the table.
	result, err = svc.Run(context.Background(), inputs, CampaignRequest{CampaignType: "new", AgreementCode: "prefrj"})
	require.NoError(t, err)
	assert.Equal(t, "prefrj", result.Agreement)

	simCSV := "CPF;Nome;Convenio;Simulacoes\n" +
		"111.111.111-11;ANA SOUZA;govsp;6x: 100,00 (parcela: 20,00)\n"
	sim, err := svc.RunSimulations(context.Background(), []utils.NamedContent{{Name: "sim.csv", Content: []byte(simCSV)}}, SimulationRequest{
		Team:           "mesa",
		CommissionRate: decimal.RequireFromString("0.1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "govsp", sim.Agreement)
	require.Len(t, sim.Files, 1)
	assert.Equal(t, "GOVSP_BENEFICIO_SIMULACAO_MESA_05032024.csv", sim.Files[0].Name)
}

func TestCampaignRequest_ToParams(t *testing.T) {
	params, err := CampaignRequest{
		CampaignType:  " Benefício & Cartão ",
		AgreementCode: " goval ",
		MaxAge:        70,
	}.ToParams(fixedNow)
	require.NoError(t, err)

	assert.Equal(t, models.CampaignBenefitCard, params.CampaignType)
	assert.Equal(t, "goval", params.AgreementCode)
	require.NotNil(t, params.AgeCutoff)
	assert.Equal(t, time.Date(1954, time.March, 5, 0, 0, 0, 0, time.UTC), *params.AgeCutoff)

	params, err = CampaignRequest{CampaignType: "card"}.ToParams(fixedNow)
	require.NoError(t, err)
	assert.Nil(t, params.AgeCutoff)
}
