package review

import (
	"fmt"
	"strings"

	"gutcheck/domain/core"
	"gutcheck/domain/curation"
)

// artifactRow is the fixed-column shape of the human-editable curation
// artifact. Reviewers touch only the decision and notes columns.
type artifactRow struct {
	Species  string  `csv:"species"`
	Phylum   string  `csv:"phylum"`
	Genus    string  `csv:"genus"`
	Count    int     `csv:"count"`
	Percent  float64 `csv:"percent"`
	Tier     string  `csv:"tier"`
	Decision string  `csv:"decision"`
	Notes    string  `csv:"notes"`
}

var artifactHeader = []string{"species", "phylum", "genus", "count", "percent", "tier", "decision", "notes"}

func toRows(rec curation.Record) []artifactRow {
	rows := make([]artifactRow, 0, len(rec.Entries))
	for _, e := range rec.Entries {
		rows = append(rows, artifactRow{
			Species:  e.Abundance.Species,
			Phylum:   e.Abundance.Lineage.Phylum,
			Genus:    e.Abundance.Lineage.Genus,
			Count:    e.Abundance.Count,
			Percent:  e.Abundance.Percent,
			Tier:     string(e.Tier),
			Decision: string(e.Decision),
			Notes:    e.Notes,
		})
	}
	return rows
}

func parseDecision(raw string) (curation.Decision, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return curation.DecisionNone, nil
	case "YES":
		return curation.DecisionYes, nil
	case "NO":
		return curation.DecisionNo, nil
	default:
		return curation.DecisionNone, fmt.Errorf("%w: decision %q is not YES or NO", core.ErrReviewImport, raw)
	}
}

func toReviewed(rows []artifactRow) ([]curation.ReviewedRow, error) {
	out := make([]curation.ReviewedRow, 0, len(rows))
	for _, r := range rows {
		decision, err := parseDecision(r.Decision)
		if err != nil {
			return nil, err
		}
		out = append(out, curation.ReviewedRow{
			Species:  r.Species,
			Decision: decision,
			Notes:    strings.TrimSpace(r.Notes),
		})
	}
	return out, nil
}
