package engine

import (
	"strings"
	"time"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/utils"
)

// birthDateLayouts are tried in order; day comes first.
var birthDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/06",
}

// ParseBirthDate parses a day-first date. The second result is false when no
// layout fits.
func ParseBirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range birthDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// Preprocess applies the cleanup and universal exclusions shared by every
// campaign type. The input table is left untouched.
func Preprocess(t *models.Table, params models.CampaignParams) *models.Table {
	out := t.Clone()

	hasName := out.Has(models.ColName)
	hasDocument := out.Has(models.ColDocument)
	for i := range out.Rows {
		r := &out.Rows[i]
		if hasName {
			r.Name = utils.TitleCase(r.Name)
		}
		if hasDocument {
			r.DocumentNumber = utils.StripDocumentPunctuation(r.DocumentNumber)
		}
	}

	out = excludeValues(out, models.ColLotation, params.ExcludedLotations)
	out = excludeValues(out, models.ColBondType, params.ExcludedBondTypes)
	out = excludeValues(out, models.ColDepartment, params.ExcludedDepartments)

	// A birth date column with no values at all carries no age information.
	if params.AgeCutoff != nil && out.Has(models.ColBirthDate) && !out.AllNull(models.ColBirthDate) {
		cutoff := truncateToDay(*params.AgeCutoff)
		out = out.Filter(func(r *models.CustomerRecord) bool {
			born, ok := ParseBirthDate(r.BirthDate)
			return ok && !born.Before(cutoff)
		})
	}

	return out
}

func excludeValues(t *models.Table, col string, excluded []string) *models.Table {
	if len(excluded) == 0 || !t.Has(col) {
		return t
	}
	set := make(map[string]struct{}, len(excluded))
	for _, v := range excluded {
		set[v] = struct{}{}
	}
	return t.Filter(func(r *models.CustomerRecord) bool {
		value, _ := r.Value(col)
		_, drop := set[value]
		return !drop
	})
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AgeCutoff returns the earliest birth date allowed for a maximum age.
func AgeCutoff(now time.Time, maxAge int) time.Time {
	return truncateToDay(now.AddDate(-maxAge, 0, 0))
}
