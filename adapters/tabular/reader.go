package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gutcheck/domain/core"
	"gutcheck/domain/taxonomy"
)

var barcodePattern = regexp.MustCompile(`^barcode\d+$`)

// requiredColumns are the lineage columns every abundance table must
// carry alongside species and at least one barcode column.
var requiredColumns = []string{"species", "phylum", "class", "order", "family", "genus"}

// Reader imports abundance tables from CSV or xlsx files through one
// interface; the format is chosen by extension.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader for the given abundance table file.
func NewReader(filePath string) *Reader {
	fileType := "csv"
	if strings.ToLower(filepath.Ext(filePath)) == ".xlsx" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// Read parses and validates the abundance table. Missing required
// columns, non-integer or negative counts fail with an InputError
// naming the offending row and column.
func (r *Reader) Read() (*Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.NewInputError(r.filePath, "abundance table not found")
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		rows, err = r.readCSVRows()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewInputError(r.filePath, "table must have a header row and at least one data row")
	}
	return parseRows(r.filePath, rows)
}

func (r *Reader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, core.NewInputError(r.filePath, "failed to open xlsx: "+err.Error())
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, core.NewInputError(r.filePath, "failed to read sheet "+sheet+": "+err.Error())
	}
	return rows, nil
}

func (r *Reader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, core.NewInputError(r.filePath, "failed to open: "+err.Error())
	}
	defer file.Close()

	cr := csv.NewReader(file)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, core.NewInputError(r.filePath, "failed to parse CSV: "+err.Error())
	}
	return rows, nil
}

func parseRows(source string, rows [][]string) (*Table, error) {
	header := make(map[string]int)
	var barcodes []string
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		header[name] = i
		if barcodePattern.MatchString(name) {
			barcodes = append(barcodes, name)
		}
	}

	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("%w: %q in %s", core.ErrMissingColumn, col, source)
		}
	}
	if len(barcodes) == 0 {
		return nil, core.NewInputError(source, "no barcode<N> count columns present")
	}

	cell := func(row []string, col string) string {
		i := header[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	table := &Table{Barcodes: barcodes}
	seen := make(map[string]bool)
	for n, row := range rows[1:] {
		species := cell(row, "species")
		if species == "" {
			return nil, core.NewInputError(source, fmt.Sprintf("row %d: empty species", n+2))
		}
		if seen[species] {
			return nil, core.NewInputError(source, fmt.Sprintf("row %d: duplicate species %q", n+2, species))
		}
		seen[species] = true

		tr := Row{
			Species: species,
			Lineage: taxonomy.Lineage{
				Phylum:  cell(row, "phylum"),
				Class:   cell(row, "class"),
				Order:   cell(row, "order"),
				Family:  cell(row, "family"),
				Genus:   cell(row, "genus"),
				Species: species,
			},
			Counts: make(map[string]int, len(barcodes)),
		}
		for _, bc := range barcodes {
			raw := cell(row, bc)
			if raw == "" {
				raw = "0"
			}
			count, err := strconv.Atoi(raw)
			if err != nil {
				return nil, core.NewInputError(source, fmt.Sprintf("row %d, column %s: %q is not an integer", n+2, bc, raw))
			}
			if count < 0 {
				return nil, fmt.Errorf("%w: row %d, column %s in %s", core.ErrNegativeCount, n+2, bc, source)
			}
			tr.Counts[bc] = count
		}
		table.Rows = append(table.Rows, tr)
	}
	return table, nil
}
