package models

// Input columns, named as they appear in the customer files.
const (
	ColDocument                   = "CPF"
	ColName                       = "Nome_Cliente"
	ColBirthDate                  = "Data_Nascimento"
	ColRegistration               = "Matricula"
	ColAgreement                  = "Convenio"
	ColLotation                   = "Lotacao"
	ColDepartment                 = "Secretaria"
	ColBondType                   = "Vinculo_Servidor"
	ColSimulations                = "Simulacoes"
	ColLoanTotal                  = "MG_Emprestimo_Total"
	ColLoanAvailable              = "MG_Emprestimo_Disponivel"
	ColBenefitWithdrawalTotal     = "MG_Beneficio_Saque_Total"
	ColBenefitWithdrawalAvailable = "MG_Beneficio_Saque_Disponivel"
	ColBenefitPurchaseTotal       = "MG_Beneficio_Compra_Total"
	ColBenefitPurchaseAvailable   = "MG_Beneficio_Compra_Disponivel"
	ColCardTotal                  = "MG_Cartao_Total"
	ColCardAvailable              = "MG_Cartao_Disponivel"
	ColCompulsoryAvailable        = "MG_Compulsoria_Disponivel"
	ColOutstandingBalance         = "Saldo_Devedor"
)

// ColCampaign is the campaign label stamped by the finalizer.
const ColCampaign = "Campanha"

// Working columns. They never reach the published output.
const (
	ColClaimed         = "tratado"
	ColClaimedBenefit  = "tratado_beneficio"
	ColClaimedCard     = "tratado_cartao"
	ColTotalCommission = "comissao_total"
	ColBenefitUsed     = "margem_beneficio_usado"
	ColCardUsed        = "margem_cartao_usado"
)

// WorkingColumns lists every internal column.
var WorkingColumns = []string{
	ColClaimed,
	ColClaimedBenefit,
	ColClaimedCard,
	ColTotalCommission,
	ColBenefitUsed,
	ColCardUsed,
}

// Product names a computed offer family. Its value is the column suffix.
type Product string

const (
	ProductLoan    Product = "emprestimo"
	ProductBenefit Product = "beneficio"
	ProductCard    Product = "cartao"
)

// OfferColumns are the computed columns of one product, in published order.
type OfferColumns struct {
	Released    string
	Installment string
	Commission  string
	Bank        string
	Term        string
}

// Columns returns the computed column names for a product.
func (p Product) Columns() OfferColumns {
	suffix := string(p)
	return OfferColumns{
		Released:    "valor_liberado_" + suffix,
		Installment: "valor_parcela_" + suffix,
		Commission:  "comissao_" + suffix,
		Bank:        "banco_" + suffix,
		Term:        "prazo_" + suffix,
	}
}

// List returns the offer columns in order.
func (o OfferColumns) List() []string {
	return []string{o.Released, o.Installment, o.Commission, o.Bank, o.Term}
}

// NumericColumns are the margin columns parsed as decimals.
var NumericColumns = []string{
	ColLoanTotal,
	ColLoanAvailable,
	ColBenefitWithdrawalTotal,
	ColBenefitWithdrawalAvailable,
	ColBenefitPurchaseTotal,
	ColBenefitPurchaseAvailable,
	ColCardTotal,
	ColCardAvailable,
	ColCompulsoryAvailable,
	ColOutstandingBalance,
}

// TextColumns are the categorical and free-text columns with a dedicated field.
var TextColumns = []string{
	ColDocument,
	ColName,
	ColBirthDate,
	ColRegistration,
	ColAgreement,
	ColLotation,
	ColDepartment,
	ColBondType,
	ColSimulations,
}

// PublishedColumn pairs an internal column with its published header.
type PublishedColumn struct {
	Internal  string
	Published string
}

// PublishedSchema is the output column order of every campaign file.
var PublishedSchema = buildPublishedSchema()

func buildPublishedSchema() []PublishedColumn {
	same := func(names ...string) []PublishedColumn {
		cols := make([]PublishedColumn, len(names))
		for i, n := range names {
			cols[i] = PublishedColumn{Internal: n, Published: n}
		}
		return cols
	}

	schema := same(
		ColDocument, ColName, ColBirthDate, ColRegistration, ColAgreement,
		ColLotation, ColDepartment, ColBondType,
		"FONE1", "FONE2", "FONE3", "FONE4",
		ColLoanTotal, ColLoanAvailable,
		ColBenefitWithdrawalTotal, ColBenefitWithdrawalAvailable,
		ColBenefitPurchaseTotal, ColBenefitPurchaseAvailable,
		ColCardTotal, ColCardAvailable,
		ColOutstandingBalance,
	)

	for _, p := range []Product{ProductLoan, ProductBenefit, ProductCard} {
		oc := p.Columns()
		suffix := publishedSuffix(p)
		schema = append(schema,
			PublishedColumn{oc.Released, "Valor_Liberado_" + suffix},
			PublishedColumn{oc.Installment, "Valor_Parcela_" + suffix},
			PublishedColumn{oc.Commission, "Comissao_" + suffix},
			PublishedColumn{oc.Bank, "Banco_" + suffix},
			PublishedColumn{oc.Term, "Prazo_" + suffix},
		)
	}

	return append(schema, PublishedColumn{ColCampaign, ColCampaign})
}

func publishedSuffix(p Product) string {
	switch p {
	case ProductLoan:
		return "Emprestimo"
	case ProductBenefit:
		return "Beneficio"
	default:
		return "Cartao"
	}
}

// PublishedHeaders returns the published header row.
func PublishedHeaders() []string {
	headers := make([]string, len(PublishedSchema))
	for i, c := range PublishedSchema {
		headers[i] = c.Published
	}
	return headers
}
