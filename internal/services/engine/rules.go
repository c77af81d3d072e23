package engine

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"campaign-filter-engine/internal/models"
)

//go:embed rules.yaml
var defaultRules []byte

// WildcardAgreement is the fallback agreement of the rules table.
const WildcardAgreement = "*"

// Benefit margin bases.
const (
	BenefitBasisWithdrawal     = "withdrawal"
	BenefitBasisCombined       = "combined"
	BenefitBasisPurchaseToggle = "purchase_toggle"
)

// Installment bases.
const (
	InstallmentBasisReleased = "released"
	InstallmentBasisMargin   = "margin"
)

// GroupByRegistration drops a whole registration when one of its rows fails.
const GroupByRegistration = "registration"

// CarveOut is one eligibility predicate of an agreement.
type CarveOut struct {
	Name    string `yaml:"name"`
	Keep    string `yaml:"keep"`
	GroupBy string `yaml:"group_by"`
}

// RuleSet holds the business rules of one (agreement, campaign) pair.
type RuleSet struct {
	Agreement        string     `yaml:"agreement"`
	Campaign         string     `yaml:"campaign"`
	CarveOuts        []CarveOut `yaml:"carve_outs"`
	ZeroIfUsed       []string   `yaml:"zero_if_used"`
	CardAllOrNothing bool       `yaml:"card_all_or_nothing"`
	BenefitBasis     string     `yaml:"benefit_basis"`
	InstallmentBasis string     `yaml:"installment_basis"`
}

type rulesFile struct {
	Rules []RuleSet `yaml:"rules"`
}

type compiledCarveOut struct {
	CarveOut
	program cel.Program
}

// CompiledRuleSet is a RuleSet whose predicates are ready to evaluate.
type CompiledRuleSet struct {
	RuleSet
	carveOuts []compiledCarveOut
}

// ZeroesIfUsed reports whether a product's release is zeroed for
// registrations that already use it.
func (s *CompiledRuleSet) ZeroesIfUsed(p models.Product) bool {
	for _, z := range s.ZeroIfUsed {
		if usageProducts[z] == p {
			return true
		}
	}
	return false
}

var usageProducts = map[string]models.Product{
	"benefit": models.ProductBenefit,
	"card":    models.ProductCard,
}

type ruleKey struct {
	agreement string
	campaign  models.CampaignType
}

// RulesBook is the registry of agreement rules. It is read-only once built.
type RulesBook struct {
	env  *cel.Env
	sets map[ruleKey]*CompiledRuleSet
}

// rowVariables are the CEL variables available to carve-out expressions.
func rowVariables() []cel.EnvOption {
	opts := []cel.EnvOption{
		cel.Variable("lotation", cel.StringType),
		cel.Variable("department", cel.StringType),
		cel.Variable("bond_type", cel.StringType),
		cel.Variable("agreement", cel.StringType),
		cel.Variable("registration", cel.StringType),
	}
	for name := range numericVariables {
		opts = append(opts, cel.Variable(name, cel.DoubleType))
	}
	return opts
}

var numericVariables = map[string]string{
	"loan_total":                   models.ColLoanTotal,
	"loan_available":               models.ColLoanAvailable,
	"benefit_withdrawal_total":     models.ColBenefitWithdrawalTotal,
	"benefit_withdrawal_available": models.ColBenefitWithdrawalAvailable,
	"benefit_purchase_total":       models.ColBenefitPurchaseTotal,
	"benefit_purchase_available":   models.ColBenefitPurchaseAvailable,
	"card_total":                   models.ColCardTotal,
	"card_available":               models.ColCardAvailable,
	"compulsory_available":         models.ColCompulsoryAvailable,
	"outstanding_balance":          models.ColOutstandingBalance,
}

// NewRulesBook parses and compiles a YAML rules document.
func NewRulesBook(data []byte) (*RulesBook, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: failed to parse rules: %v", models.ErrInvalidRule, err)
	}

	env, err := cel.NewEnv(rowVariables()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	book := &RulesBook{env: env, sets: make(map[ruleKey]*CompiledRuleSet)}
	for _, rs := range file.Rules {
		compiled, err := book.compile(rs)
		if err != nil {
			return nil, err
		}
		key := ruleKey{agreement: normalizeAgreement(rs.Agreement), campaign: models.CampaignType(rs.Campaign)}
		if _, dup := book.sets[key]; dup {
			return nil, fmt.Errorf("%w: duplicate entry for %s/%s", models.ErrInvalidRule, rs.Agreement, rs.Campaign)
		}
		book.sets[key] = compiled
	}

	return book, nil
}

// DefaultRulesBook compiles the embedded rules.
func DefaultRulesBook() (*RulesBook, error) {
	return NewRulesBook(defaultRules)
}

// LoadRulesBook reads rules from path, or the embedded rules when path is empty.
func LoadRulesBook(path string) (*RulesBook, error) {
	if path == "" {
		return DefaultRulesBook()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return NewRulesBook(data)
}

func (b *RulesBook) compile(rs RuleSet) (*CompiledRuleSet, error) {
	ct := models.CampaignType(rs.Campaign)
	if !ct.IsValid() {
		return nil, fmt.Errorf("%w: unknown campaign %q", models.ErrInvalidRule, rs.Campaign)
	}
	if rs.Agreement == "" {
		return nil, fmt.Errorf("%w: entry for %s has no agreement", models.ErrInvalidRule, rs.Campaign)
	}

	switch rs.BenefitBasis {
	case "":
		rs.BenefitBasis = BenefitBasisWithdrawal
	case BenefitBasisWithdrawal, BenefitBasisCombined, BenefitBasisPurchaseToggle:
	default:
		return nil, fmt.Errorf("%w: unknown benefit_basis %q", models.ErrInvalidRule, rs.BenefitBasis)
	}

	switch rs.InstallmentBasis {
	case "":
		rs.InstallmentBasis = InstallmentBasisReleased
	case InstallmentBasisReleased, InstallmentBasisMargin:
	default:
		return nil, fmt.Errorf("%w: unknown installment_basis %q", models.ErrInvalidRule, rs.InstallmentBasis)
	}

	for _, z := range rs.ZeroIfUsed {
		if _, ok := usageProducts[z]; !ok {
			return nil, fmt.Errorf("%w: zero_if_used supports benefit and card, got %q", models.ErrInvalidRule, z)
		}
	}

	compiled := &CompiledRuleSet{RuleSet: rs}
	for _, co := range rs.CarveOuts {
		if co.GroupBy != "" && co.GroupBy != GroupByRegistration {
			return nil, fmt.Errorf("%w: carve-out %s: unknown group_by %q", models.ErrInvalidRule, co.Name, co.GroupBy)
		}

		ast, issues := b.env.Compile(co.Keep)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("%w: failed to compile carve-out %s: %v", models.ErrInvalidRule, co.Name, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("%w: carve-out %s must return bool, got %s", models.ErrInvalidRule, co.Name, ast.OutputType())
		}

		program, err := b.env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create program for carve-out %s: %w", co.Name, err)
		}
		compiled.carveOuts = append(compiled.carveOuts, compiledCarveOut{CarveOut: co, program: program})
	}

	return compiled, nil
}

// Lookup returns the rules of an agreement, falling back to the wildcard
// entry and then to an empty rule set.
func (b *RulesBook) Lookup(agreement string, ct models.CampaignType) *CompiledRuleSet {
	if rs, ok := b.sets[ruleKey{normalizeAgreement(agreement), ct}]; ok {
		return rs
	}
	if rs, ok := b.sets[ruleKey{WildcardAgreement, ct}]; ok {
		return rs
	}
	return &CompiledRuleSet{RuleSet: RuleSet{
		Agreement:        WildcardAgreement,
		Campaign:         string(ct),
		BenefitBasis:     BenefitBasisWithdrawal,
		InstallmentBasis: InstallmentBasisReleased,
	}}
}

// ApplyCarveOuts drops the rows that fail any carve-out, in declaration order.
func (s *CompiledRuleSet) ApplyCarveOuts(t *models.Table) (*models.Table, error) {
	out := t
	for _, co := range s.carveOuts {
		keep := make([]bool, out.Len())
		failedGroups := make(map[string]bool)

		for i := range out.Rows {
			ok, err := co.evaluate(&out.Rows[i])
			if err != nil {
				return nil, fmt.Errorf("carve-out %s: %w", co.Name, err)
			}
			keep[i] = ok
			if !ok && co.GroupBy == GroupByRegistration && out.Rows[i].Registration != "" {
				failedGroups[out.Rows[i].Registration] = true
			}
		}

		idx := 0
		out = out.Filter(func(r *models.CustomerRecord) bool {
			k := keep[idx]
			idx++
			if co.GroupBy == GroupByRegistration && failedGroups[r.Registration] {
				return false
			}
			return k
		})
	}
	return out, nil
}

func (co compiledCarveOut) evaluate(r *models.CustomerRecord) (bool, error) {
	val, _, err := co.program.Eval(rowActivation(r))
	if err != nil {
		return false, err
	}
	b, ok := val.(types.Bool)
	if !ok {
		return false, fmt.Errorf("unexpected result type %T", val)
	}
	return bool(b), nil
}

func rowActivation(r *models.CustomerRecord) map[string]any {
	act := map[string]any{
		"lotation":     r.Lotation,
		"department":   r.Department,
		"bond_type":    r.BondType,
		"agreement":    r.AgreementCode,
		"registration": r.Registration,
	}
	for name, col := range numericVariables {
		act[name] = floatOrNaN(r.Number(col))
	}
	return act
}

func floatOrNaN(d decimal.NullDecimal) float64 {
	if !d.Valid {
		return math.NaN()
	}
	return d.Decimal.InexactFloat64()
}

func normalizeAgreement(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
