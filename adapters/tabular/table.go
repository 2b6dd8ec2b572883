package tabular

import (
	"sort"

	"gutcheck/domain/abundance"
	"gutcheck/domain/core"
	"gutcheck/domain/taxonomy"
)

// Row is one species of an imported abundance table, with the integer
// count for every barcode column present in the file.
type Row struct {
	Species string
	Lineage taxonomy.Lineage
	Counts  map[string]int
}

// Table is a parsed abundance table: one row per species, one count
// column per barcode.
type Table struct {
	Barcodes []string
	Rows     []Row
}

// SampleAbundances extracts one barcode's column as a per-sample
// abundance list with percentages over that barcode's total.
func (t *Table) SampleAbundances(barcode string) ([]abundance.SpeciesAbundance, error) {
	if !contains(t.Barcodes, barcode) {
		return nil, core.NewInputError(barcode, "barcode column not present in table")
	}
	total := 0
	for _, r := range t.Rows {
		total += r.Counts[barcode]
	}
	if total == 0 {
		return nil, core.NewZeroAbundanceError(barcode)
	}
	rows := make([]abundance.SpeciesAbundance, 0, len(t.Rows))
	for _, r := range t.Rows {
		n := r.Counts[barcode]
		if n == 0 {
			continue
		}
		rows = append(rows, abundance.SpeciesAbundance{
			Species: r.Species,
			Lineage: r.Lineage,
			Count:   n,
			Percent: 100 * float64(n) / float64(total),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Species < rows[j].Species
	})
	return rows, nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
