package models

// Frame is a rendered table: ordered headers and string cells.
type Frame struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// EmptyPublishedFrame returns a frame with the published header and no rows.
func EmptyPublishedFrame() Frame {
	return Frame{Columns: PublishedHeaders(), Rows: [][]string{}}
}

// Len returns the number of rows.
func (f Frame) Len() int {
	return len(f.Rows)
}

// Index returns the position of a column or -1.
func (f Frame) Index(col string) int {
	for i, c := range f.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Column returns every value of a column, or nil when it does not exist.
func (f Frame) Column(col string) []string {
	idx := f.Index(col)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values
}

// Subset returns a frame with the given rows, sharing cells with f.
func (f Frame) Subset(rows []int) Frame {
	out := Frame{Columns: f.Columns, Rows: make([][]string, 0, len(rows))}
	for _, i := range rows {
		out.Rows = append(out.Rows, f.Rows[i])
	}
	return out
}
