package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/utils"
)

func TestTableParser_SemicolonFile(t *testing.T) {
	content := []byte("CPF;Nome_Cliente;Matricula;MG_Emprestimo_Disponivel;FONE1\n" +
		"123.456.789-00;MARIA SILVA;001;1.500,75;11999990000\n" +
		"987.654.321-00;JOAO SOUZA;002;;11888880000\n")

	parser := utils.NewTableParser()
	table, errs := parser.Parse(content)

	require.Empty(t, errs)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, []string{"CPF", "Nome_Cliente", "Matricula", "MG_Emprestimo_Disponivel", "FONE1"}, table.Columns)

	first := table.Rows[0]
	assert.Equal(t, "123.456.789-00", first.DocumentNumber)
	assert.Equal(t, "MARIA SILVA", first.Name)
	assert.Equal(t, "001", first.Registration)
	require.True(t, first.LoanAvailable.Valid)
	assert.Equal(t, "1500.75", first.LoanAvailable.Decimal.String())
	assert.Equal(t, "11999990000", first.Extra["FONE1"])

	assert.False(t, table.Rows[1].LoanAvailable.Valid, "empty margin should be null")
	assert.NotEqual(t, first.RowID, table.Rows[1].RowID)
}

func TestTableParser_ColumnAliases(t *testing.T) {
	content := []byte("cpf,nome,lotacao,vinculo,mg_cartao_total\n1,ana,SEDUC,EFETIVO,500\n")

	table, errs := utils.NewTableParser().Parse(content)

	require.Empty(t, errs)
	assert.Equal(t, []string{models.ColDocument, models.ColName, models.ColLotation, models.ColBondType, models.ColCardTotal}, table.Columns)
	assert.Equal(t, "SEDUC", table.Rows[0].Lotation)
	assert.Equal(t, "EFETIVO", table.Rows[0].BondType)
	assert.Equal(t, "500", table.Rows[0].CardTotal.Decimal.String())
}

func TestTableParser_Latin1Fallback(t *testing.T) {
	// "JOSÉ" encoded as ISO-8859-1
	content := []byte("CPF;Nome_Cliente\n1;JOS\xc9\n")

	table, errs := utils.NewTableParser().Parse(content)

	require.Empty(t, errs)
	assert.Equal(t, "JOSÉ", table.Rows[0].Name)
}

func TestTableParser_EmptyFile(t *testing.T) {
	table, errs := utils.NewTableParser().Parse([]byte("   "))

	assert.Nil(t, table)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], utils.ErrEmptyCSV)
}

func TestTableParser_HeaderOnly(t *testing.T) {
	table, errs := utils.NewTableParser().Parse([]byte("CPF;Nome_Cliente\n"))

	assert.Nil(t, table)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], utils.ErrNoDataRows)
}

func TestTableParser_ParseAllConcatenates(t *testing.T) {
	parser := utils.NewTableParser()
	table, errs := parser.ParseAll([]utils.NamedContent{
		{Name: "a.csv", Content: []byte("CPF;Lotacao\n1;A\n2;B\n")},
		{Name: "b.csv", Content: []byte("CPF,Secretaria\n3,SEFAZ\n")},
		{Name: "empty.csv", Content: []byte("")},
	})

	require.NotNil(t, table)
	require.Len(t, errs, 1, "only the empty file should report")
	assert.ErrorIs(t, errs[0], utils.ErrEmptyCSV)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{models.ColDocument, models.ColLotation, models.ColDepartment}, table.Columns)
	assert.Equal(t, "SEFAZ", table.Rows[2].Department)

	ids := map[int]bool{}
	for _, r := range table.Rows {
		ids[r.RowID] = true
	}
	assert.Len(t, ids, 3, "row ids must be unique across files")
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', utils.DetectDelimiter("a;b;c"))
	assert.Equal(t, ',', utils.DetectDelimiter("a,b,c"))
	assert.Equal(t, ',', utils.DetectDelimiter("single"))
}
