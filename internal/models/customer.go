package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Offer holds the values one configuration computed for a product.
type Offer struct {
	Released    decimal.NullDecimal
	Installment decimal.NullDecimal
	Commission  decimal.NullDecimal
	Bank        string
	Term        int

	// zeroFilled marks an offer no configuration computed; its term prints as 0.
	zeroFilled bool
}

// ZeroOffer is the starting value of combined-campaign offers.
func ZeroOffer() Offer {
	zero := decimal.NewNullDecimal(decimal.Zero)
	return Offer{Released: zero, Installment: zero, Commission: zero, zeroFilled: true}
}

// CustomerRecord is one row of the customer table.
type CustomerRecord struct {
	RowID int

	DocumentNumber string
	Name           string
	BirthDate      string
	Registration   string
	AgreementCode  string
	Lotation       string
	Department     string
	BondType       string
	Simulations    string

	LoanTotal                  decimal.NullDecimal
	LoanAvailable              decimal.NullDecimal
	BenefitWithdrawalTotal     decimal.NullDecimal
	BenefitWithdrawalAvailable decimal.NullDecimal
	BenefitPurchaseTotal       decimal.NullDecimal
	BenefitPurchaseAvailable   decimal.NullDecimal
	CardTotal                  decimal.NullDecimal
	CardAvailable              decimal.NullDecimal
	CompulsoryAvailable        decimal.NullDecimal
	OutstandingBalance         decimal.NullDecimal

	// Extra holds passthrough columns. The map is shared between table copies
	// and must be treated as read-only.
	Extra map[string]string

	Loan            Offer
	Benefit         Offer
	Card            Offer
	TotalCommission decimal.NullDecimal
	BenefitUsed     decimal.NullDecimal
	CardUsed        decimal.NullDecimal
}

func (r *CustomerRecord) numberField(col string) *decimal.NullDecimal {
	switch col {
	case ColLoanTotal:
		return &r.LoanTotal
	case ColLoanAvailable:
		return &r.LoanAvailable
	case ColBenefitWithdrawalTotal:
		return &r.BenefitWithdrawalTotal
	case ColBenefitWithdrawalAvailable:
		return &r.BenefitWithdrawalAvailable
	case ColBenefitPurchaseTotal:
		return &r.BenefitPurchaseTotal
	case ColBenefitPurchaseAvailable:
		return &r.BenefitPurchaseAvailable
	case ColCardTotal:
		return &r.CardTotal
	case ColCardAvailable:
		return &r.CardAvailable
	case ColCompulsoryAvailable:
		return &r.CompulsoryAvailable
	case ColOutstandingBalance:
		return &r.OutstandingBalance
	case ColTotalCommission:
		return &r.TotalCommission
	case ColBenefitUsed:
		return &r.BenefitUsed
	case ColCardUsed:
		return &r.CardUsed
	}
	return nil
}

func (r *CustomerRecord) textField(col string) *string {
	switch col {
	case ColDocument:
		return &r.DocumentNumber
	case ColName:
		return &r.Name
	case ColBirthDate:
		return &r.BirthDate
	case ColRegistration:
		return &r.Registration
	case ColAgreement:
		return &r.AgreementCode
	case ColLotation:
		return &r.Lotation
	case ColDepartment:
		return &r.Department
	case ColBondType:
		return &r.BondType
	case ColSimulations:
		return &r.Simulations
	}
	return nil
}

// IsNumeric reports whether col is one of the decimal columns.
func IsNumeric(col string) bool {
	var probe CustomerRecord
	return probe.numberField(col) != nil
}

// Number returns a numeric column. Unknown columns read as null.
func (r *CustomerRecord) Number(col string) decimal.NullDecimal {
	if f := r.numberField(col); f != nil {
		return *f
	}
	return decimal.NullDecimal{}
}

// SetNumber writes a numeric column and reports whether col is numeric.
func (r *CustomerRecord) SetNumber(col string, v decimal.NullDecimal) bool {
	f := r.numberField(col)
	if f == nil {
		return false
	}
	*f = v
	return true
}

// SetText writes a text column, falling back to Extra for passthrough columns.
func (r *CustomerRecord) SetText(col, v string) {
	if f := r.textField(col); f != nil {
		*f = v
		return
	}
	if r.Extra == nil {
		r.Extra = make(map[string]string)
	}
	r.Extra[col] = v
}

// Value returns the textual value of any column and whether it is non-null.
func (r *CustomerRecord) Value(col string) (string, bool) {
	if f := r.textField(col); f != nil {
		return *f, *f != ""
	}
	if f := r.numberField(col); f != nil {
		if !f.Valid {
			return "", false
		}
		return f.Decimal.String(), true
	}
	if o, field, ok := r.offerField(col); ok {
		return formatOfferField(o, field)
	}
	v, ok := r.Extra[col]
	return v, ok && v != ""
}

func (r *CustomerRecord) offer(p Product) *Offer {
	switch p {
	case ProductLoan:
		return &r.Loan
	case ProductBenefit:
		return &r.Benefit
	case ProductCard:
		return &r.Card
	}
	return nil
}

// Offer returns a pointer to the computed offer of a product.
func (r *CustomerRecord) Offer(p Product) *Offer {
	return r.offer(p)
}

func (r *CustomerRecord) offerField(col string) (*Offer, string, bool) {
	for _, p := range []Product{ProductLoan, ProductBenefit, ProductCard} {
		oc := p.Columns()
		switch col {
		case oc.Released:
			return r.offer(p), "released", true
		case oc.Installment:
			return r.offer(p), "installment", true
		case oc.Commission:
			return r.offer(p), "commission", true
		case oc.Bank:
			return r.offer(p), "bank", true
		case oc.Term:
			return r.offer(p), "term", true
		}
	}
	return nil, "", false
}

func formatOfferField(o *Offer, field string) (string, bool) {
	money := func(d decimal.NullDecimal) (string, bool) {
		if !d.Valid {
			return "", false
		}
		return d.Decimal.StringFixed(2), true
	}

	switch field {
	case "released":
		return money(o.Released)
	case "installment":
		return money(o.Installment)
	case "commission":
		return money(o.Commission)
	case "bank":
		return o.Bank, o.Bank != ""
	case "term":
		if o.Term == 0 {
			if o.zeroFilled {
				return "0", true
			}
			return "", false
		}
		return strconv.Itoa(o.Term), true
	}
	return "", false
}
