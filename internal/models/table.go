package models

import "strings"

// Table is the in-memory customer table. Pipeline stages never mutate a table
// they receive; they clone or filter it into a new one.
type Table struct {
	Rows    []CustomerRecord
	Columns []string
	Claims  *ClaimLedger
}

// NewTable builds a table with the given column order.
func NewTable(columns []string, rows []CustomerRecord) *Table {
	t := &Table{Rows: rows}
	t.AddColumns(columns...)
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Has reports whether the column is present.
func (t *Table) Has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// AllNull reports whether every row has a null value in col.
func (t *Table) AllNull(col string) bool {
	for i := range t.Rows {
		if _, ok := t.Rows[i].Value(col); ok {
			return false
		}
	}
	return true
}

// FirstValue returns the first non-empty value of col, or "".
func (t *Table) FirstValue(col string) string {
	for i := range t.Rows {
		if v, ok := t.Rows[i].Value(col); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// AddColumns appends the columns that are not present yet.
func (t *Table) AddColumns(cols ...string) {
	for _, c := range cols {
		if !t.Has(c) {
			t.Columns = append(t.Columns, c)
		}
	}
}

// Clone returns a copy whose rows, columns and ledger can be changed freely.
func (t *Table) Clone() *Table {
	rows := make([]CustomerRecord, len(t.Rows))
	copy(rows, t.Rows)
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return &Table{Rows: rows, Columns: cols, Claims: t.Claims.Clone()}
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(r *CustomerRecord) bool) *Table {
	out := &Table{
		Rows:    make([]CustomerRecord, 0, len(t.Rows)),
		Columns: append([]string(nil), t.Columns...),
		Claims:  t.Claims.Clone(),
	}
	for i := range t.Rows {
		if keep(&t.Rows[i]) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// claimColumns maps each tracked product to its working column name.
func (t *Table) claimColumns() ([]Product, []string) {
	if t.Claims == nil {
		return nil, nil
	}
	if t.Claims.Tracks(ProductBenefit) && t.Claims.Tracks(ProductCard) {
		return []Product{ProductBenefit, ProductCard}, []string{ColClaimedBenefit, ColClaimedCard}
	}
	for _, p := range []Product{ProductLoan, ProductBenefit, ProductCard} {
		if t.Claims.Tracks(p) {
			return []Product{p}, []string{ColClaimed}
		}
	}
	return nil, nil
}

// ToFrame renders the table, working columns included, as a string frame.
func (t *Table) ToFrame() Frame {
	products, claimCols := t.claimColumns()

	columns := make([]string, 0, len(t.Columns)+len(claimCols))
	for _, c := range t.Columns {
		if c == ColClaimed || c == ColClaimedBenefit || c == ColClaimedCard {
			continue
		}
		columns = append(columns, c)
	}
	columns = append(columns, claimCols...)

	frame := Frame{Columns: columns, Rows: make([][]string, len(t.Rows))}
	dataCols := len(columns) - len(claimCols)

	for i := range t.Rows {
		r := &t.Rows[i]
		cells := make([]string, len(columns))
		for j := 0; j < dataCols; j++ {
			cells[j], _ = r.Value(columns[j])
		}
		for k, p := range products {
			cells[dataCols+k] = boolCell(t.Claims.IsClaimed(p, r.RowID))
		}
		frame.Rows[i] = cells
	}

	return frame
}

func boolCell(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
