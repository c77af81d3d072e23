package engine

import (
	"strings"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/utils"
)

// MatchCondition returns, aligned with the table rows, which rows the
// configuration applies to. Rows already claimed for the product never match.
//
// A condition on a column that is absent, entirely null, or given without a
// value does not narrow the match.
func MatchCondition(t *models.Table, cfg models.BankProductConfig, ledger *models.ClaimLedger, product models.Product) []bool {
	mask := make([]bool, t.Len())
	for i := range t.Rows {
		mask[i] = !ledger.IsClaimed(product, t.Rows[i].RowID)
	}

	col := cfg.ConditionColumn
	if col == "" || col == models.ApplyToAll {
		return mask
	}
	if !t.Has(col) || t.AllNull(col) || strings.TrimSpace(cfg.ConditionValue) == "" {
		return mask
	}

	var matches func(value string) bool
	if cfg.ConditionMode == models.ConditionKeywords {
		keywords := utils.SplitKeywords(cfg.ConditionValue)
		if len(keywords) == 0 {
			return mask
		}
		for i, k := range keywords {
			keywords[i] = strings.ToLower(k)
		}
		matches = func(value string) bool {
			lowered := strings.ToLower(value)
			for _, k := range keywords {
				if strings.Contains(lowered, k) {
					return true
				}
			}
			return false
		}
	} else {
		matches = func(value string) bool {
			return value == cfg.ConditionValue
		}
	}

	for i := range t.Rows {
		if !mask[i] {
			continue
		}
		value, ok := t.Rows[i].Value(col)
		mask[i] = ok && matches(value)
	}

	return mask
}
