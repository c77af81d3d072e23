package database

import (
	"context"
	"fmt"
	"strings"

	"campaign-filter-engine/internal/models"
)

// AllProducts is the product value of restrictions that apply to every campaign.
const AllProducts = "todos"

// RestrictionRepository reads exclusion lists from the restricoes table.
type RestrictionRepository struct {
	db *DB
}

// NewRestrictionRepository creates a new restriction repository.
func NewRestrictionRepository(db *DB) *RestrictionRepository {
	return &RestrictionRepository{db: db}
}

// ListRestrictions returns the raw restriction rows of an agreement for a
// product slug, including the rows registered for every product.
func (r *RestrictionRepository) ListRestrictions(ctx context.Context, agreement, product string) ([]models.RestrictionRow, error) {
	query := `
		SELECT tipo_restricao, valor_restrito
		FROM restricoes
		WHERE convenio = $1 AND produto = ANY($2)
		ORDER BY tipo_restricao, valor_restrito`

	products := []string{strings.ToLower(product), AllProducts}

	rows, err := r.db.QueryContext(ctx, query, strings.ToLower(strings.TrimSpace(agreement)), products)
	if err != nil {
		return nil, fmt.Errorf("failed to query restrictions: %w", err)
	}
	defer rows.Close()

	var result []models.RestrictionRow
	for rows.Next() {
		var row models.RestrictionRow
		if err := rows.Scan(&row.Kind, &row.Value); err != nil {
			return nil, fmt.Errorf("failed to scan restriction: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restrictions: %w", err)
	}

	return result, nil
}

// CountByAgreement returns how many restrictions each agreement has.
func (r *RestrictionRepository) CountByAgreement(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT convenio, COUNT(*) FROM restricoes GROUP BY convenio ORDER BY convenio`)
	if err != nil {
		return nil, fmt.Errorf("failed to count restrictions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var agreement string
		var count int
		if err := rows.Scan(&agreement, &count); err != nil {
			return nil, fmt.Errorf("failed to scan restriction count: %w", err)
		}
		counts[agreement] = count
	}

	return counts, rows.Err()
}
