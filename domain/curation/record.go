package curation

import (
	"gutcheck/domain/abundance"
	"gutcheck/domain/core"
)

// ReviewedRow is one row of a reviewer-edited curation artifact as it
// comes back across the import boundary.
type ReviewedRow struct {
	Species  string
	Decision Decision
	Notes    string
}

// ApplyReview maps reviewer decisions back onto the record. Decisions
// override auto-assigned tiers only for manual-review rows; decisions
// on other rows are reported back so callers can warn. A row naming a
// species absent from the record fails the whole import.
func (rec Record) ApplyReview(rows []ReviewedRow) (Record, []string, error) {
	byName := make(map[string]int, len(rec.Entries))
	for i, e := range rec.Entries {
		byName[e.Abundance.Species] = i
	}

	out := Record{SampleID: rec.SampleID, Database: rec.Database, Entries: make([]Entry, len(rec.Entries))}
	copy(out.Entries, rec.Entries)

	var ignored []string
	for _, row := range rows {
		i, ok := byName[row.Species]
		if !ok {
			return Record{}, nil, core.NewReviewImportError(row.Species)
		}
		if row.Decision == DecisionNone {
			continue
		}
		if out.Entries[i].Tier != TierManualReview {
			ignored = append(ignored, row.Species)
			continue
		}
		out.Entries[i].Decision = row.Decision
		out.Entries[i].Notes = row.Notes
	}
	return out, ignored, nil
}

// Finalized returns the abundance rows that survive curation: every
// auto-include row plus manual-review rows the reviewer accepted.
// Percentages are recomputed over the surviving counts.
func (rec Record) Finalized() ([]abundance.SpeciesAbundance, error) {
	var kept []abundance.SpeciesAbundance
	for _, e := range rec.Entries {
		switch e.Tier {
		case TierAutoInclude:
			kept = append(kept, e.Abundance)
		case TierManualReview:
			if e.Decision == DecisionYes {
				kept = append(kept, e.Abundance)
			}
		}
	}
	return abundance.Recompute(rec.SampleID, kept)
}

// TierCounts summarizes how many entries landed in each tier.
func (rec Record) TierCounts() map[Tier]int {
	out := make(map[Tier]int, 3)
	for _, e := range rec.Entries {
		out[e.Tier]++
	}
	return out
}
