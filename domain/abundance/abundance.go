package abundance

import (
	"sort"

	"gutcheck/domain/core"
	"gutcheck/domain/taxonomy"
)

// SpeciesAbundance is one row of a sample's abundance table: one row
// per species per sample, count >= 0, percent in [0,100].
type SpeciesAbundance struct {
	Species string           `json:"species"`
	Lineage taxonomy.Lineage `json:"lineage"`
	Count   int              `json:"count"`
	Percent float64          `json:"percent"`
}

// Aggregate tallies classified hits for one sample into an abundance
// table sorted by descending count (species name breaks ties so output
// order never depends on map iteration). Unclassified reads must not be
// passed in; percentages are computed over the classified total only.
func Aggregate(sampleID string, hits []taxonomy.Hit) ([]SpeciesAbundance, error) {
	counts := make(map[string]int)
	lineages := make(map[string]taxonomy.Lineage)
	total := 0
	for _, h := range hits {
		counts[h.Lineage.Species]++
		lineages[h.Lineage.Species] = h.Lineage
		total++
	}
	if total == 0 {
		return nil, core.NewZeroAbundanceError(sampleID)
	}

	rows := make([]SpeciesAbundance, 0, len(counts))
	for sp, n := range counts {
		rows = append(rows, SpeciesAbundance{
			Species: sp,
			Lineage: lineages[sp],
			Count:   n,
			Percent: 100 * float64(n) / float64(total),
		})
	}
	sortRows(rows)
	return rows, nil
}

// Recompute rescales percentages against the sum of the given rows'
// counts, returning a new slice in canonical order. Used after curation
// narrows the table to the finalized include set.
func Recompute(sampleID string, rows []SpeciesAbundance) ([]SpeciesAbundance, error) {
	total := 0
	for _, r := range rows {
		total += r.Count
	}
	if total == 0 {
		return nil, core.NewZeroAbundanceError(sampleID)
	}
	out := make([]SpeciesAbundance, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].Percent = 100 * float64(out[i].Count) / float64(total)
	}
	sortRows(out)
	return out, nil
}

func sortRows(rows []SpeciesAbundance) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Species < rows[j].Species
	})
}
