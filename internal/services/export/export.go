// Package export serializes finalized campaign frames into delivery files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/utils"
)

// Separator is the field delimiter of every exported file.
const Separator = ';'

// Suffixes of the two files a New campaign is split into.
const (
	SuffixNeverBorrowed = "_sem_emprestimo"
	SuffixBorrowing     = "_com_emprestimo"
)

// File is one exported campaign file.
type File struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Data []byte `json:"-"`
}

// Bytes returns the size of the file content.
func (f File) Bytes() int {
	return len(f.Data)
}

// WriteCSV writes the frame as UTF-8, semicolon separated, header first.
func WriteCSV(w io.Writer, f models.Frame) error {
	writer := csv.NewWriter(w)
	writer.Comma = Separator

	if err := writer.Write(f.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range f.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// FileName returns "{agreement}_{slug}_{yyyyMMdd}.csv".
func FileName(agreement string, ct models.CampaignType, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s.csv", namePart(agreement, strings.ToLower), ct.ProductSlug(), date.Format("20060102"))
}

// SimulationFileName returns "{AGREEMENT}_BENEFICIO_SIMULACAO_{TEAM}_{ddMMyyyy}.csv".
func SimulationFileName(agreement, team string, date time.Time) string {
	return fmt.Sprintf("%s_BENEFICIO_SIMULACAO_%s_%s.csv",
		namePart(agreement, strings.ToUpper), namePart(team, strings.ToUpper), date.Format("02012006"))
}

func namePart(s string, caseFn func(string) string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		s = "geral"
	}
	return caseFn(strings.ReplaceAll(s, " ", "_"))
}

// SplitByLoanUsage partitions a published frame into customers whose loan
// margin is untouched (total equals available) and the rest.
func SplitByLoanUsage(f models.Frame) (neverBorrowed, borrowing models.Frame) {
	totalIdx := f.Index(models.ColLoanTotal)
	availIdx := f.Index(models.ColLoanAvailable)

	var untouched, used []int
	for i, row := range f.Rows {
		if totalIdx >= 0 && availIdx >= 0 && sameAmount(row[totalIdx], row[availIdx]) {
			untouched = append(untouched, i)
		} else {
			used = append(used, i)
		}
	}

	return f.Subset(untouched), f.Subset(used)
}

func sameAmount(a, b string) bool {
	x, y := utils.ParseDecimal(a), utils.ParseDecimal(b)
	return x.Valid && y.Valid && x.Decimal.Equal(y.Decimal)
}

// Build renders the delivery files of a campaign. New campaigns produce the
// never-borrowed and borrowing files; the other types produce one file.
func Build(f models.Frame, agreement string, ct models.CampaignType, date time.Time) ([]File, error) {
	name := FileName(agreement, ct, date)
	if ct != models.CampaignNew {
		file, err := render(name, f)
		if err != nil {
			return nil, err
		}
		return []File{file}, nil
	}

	base := strings.TrimSuffix(name, ".csv")
	never, borrowing := SplitByLoanUsage(f)

	var files []File
	for _, part := range []struct {
		suffix string
		frame  models.Frame
	}{
		{SuffixNeverBorrowed, never},
		{SuffixBorrowing, borrowing},
	} {
		file, err := render(base+part.suffix+".csv", part.frame)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// BuildSimulation renders the single file of a simulation run.
func BuildSimulation(f models.Frame, agreement, team string, date time.Time) (File, error) {
	return render(SimulationFileName(agreement, team, date), f)
}

func render(name string, f models.Frame) (File, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, f); err != nil {
		return File{}, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return File{Name: name, Rows: f.Len(), Data: buf.Bytes()}, nil
}

// WriteFiles writes every file into dir, creating it when needed, and returns
// the written paths.
func WriteFiles(dir string, files []File) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.Name)
		if err := os.WriteFile(p, f.Data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
