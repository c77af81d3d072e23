package utils

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"campaign-filter-engine/internal/models"
)

// TableParser errors
var (
	ErrEmptyCSV   = errors.New("CSV content is empty")
	ErrNoDataRows = errors.New("CSV file contains no data rows")
)

// ColumnAliases maps alternative column names (lowercased) to the canonical names.
var ColumnAliases = map[string]string{
	// document aliases
	"cpf":             models.ColDocument,
	"documento":       models.ColDocument,
	"document_number": models.ColDocument,
	"nr_cpf":          models.ColDocument,

	// name aliases
	"nome":         models.ColName,
	"nome_cliente": models.ColName,
	"cliente":      models.ColName,
	"name":         models.ColName,

	"data_nascimento": models.ColBirthDate,
	"dt_nascimento":   models.ColBirthDate,
	"nascimento":      models.ColBirthDate,
	"birth_date":      models.ColBirthDate,

	"matricula":    models.ColRegistration,
	"registration": models.ColRegistration,

	"convenio":       models.ColAgreement,
	"agreement_code": models.ColAgreement,

	"lotacao":  models.ColLotation,
	"lotation": models.ColLotation,

	"secretaria": models.ColDepartment,
	"department": models.ColDepartment,

	"vinculo_servidor": models.ColBondType,
	"vinculo":          models.ColBondType,
	"bond_type":        models.ColBondType,

	"simulacoes":  models.ColSimulations,
	"simulations": models.ColSimulations,

	"saldo_devedor":       models.ColOutstandingBalance,
	"outstanding_balance": models.ColOutstandingBalance,
}

func init() {
	// canonical margin names are accepted in any case
	for _, col := range models.NumericColumns {
		ColumnAliases[strings.ToLower(col)] = col
	}
}

// NamedContent is one uploaded file.
type NamedContent struct {
	Name    string
	Content []byte
}

// TableParser turns delimited customer files into a single table. Row IDs are
// unique across every file parsed by the same parser.
type TableParser struct {
	nextRowID int
}

// NewTableParser creates a new parser instance.
func NewTableParser() *TableParser {
	return &TableParser{}
}

// ParseAll parses and concatenates several files. Columns keep the order in
// which they first appear.
func (p *TableParser) ParseAll(files []NamedContent) (*models.Table, []error) {
	combined := models.NewTable(nil, nil)
	var parseErrors []error

	for _, f := range files {
		t, errs := p.Parse(f.Content)
		for _, e := range errs {
			parseErrors = append(parseErrors, fmt.Errorf("%s: %w", f.Name, e))
		}
		if t == nil {
			continue
		}
		combined.AddColumns(t.Columns...)
		combined.Rows = append(combined.Rows, t.Rows...)
	}

	if combined.Len() == 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return combined, parseErrors
}

// Parse parses one file. Per-line problems are collected and the line skipped.
func (p *TableParser) Parse(content []byte) (*models.Table, []error) {
	text := DecodeContent(content)
	if strings.TrimSpace(text) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	headerLine := text
	if idx := strings.IndexAny(text, "\r\n"); idx >= 0 {
		headerLine = text[:idx]
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = DetectDelimiter(headerLine)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = CanonicalColumn(h)
	}

	var rows []models.CustomerRecord
	var parseErrors []error
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		rows = append(rows, p.parseRow(columns, record))
	}

	if len(rows) == 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return models.NewTable(columns, rows), parseErrors
}

func (p *TableParser) parseRow(columns, record []string) models.CustomerRecord {
	r := models.CustomerRecord{RowID: p.nextRowID}
	p.nextRowID++

	for i, col := range columns {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])
		if models.IsNumeric(col) {
			r.SetNumber(col, ParseDecimal(value))
			continue
		}
		r.SetText(col, value)
	}

	return r
}

// CanonicalColumn maps a raw header to its canonical name. Unknown headers
// are kept as written, trimmed.
func CanonicalColumn(header string) string {
	trimmed := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	if canonical, ok := ColumnAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// DetectDelimiter picks ";" when the header has more semicolons than commas.
func DetectDelimiter(headerLine string) rune {
	if strings.Count(headerLine, ";") > strings.Count(headerLine, ",") {
		return ';'
	}
	return ','
}

// DecodeContent returns the content as UTF-8, decoding it as Latin-1 when it
// is not valid UTF-8.
func DecodeContent(content []byte) string {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if utf8.Valid(content) {
		return string(content)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(decoded)
}
