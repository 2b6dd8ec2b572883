package curation

import (
	"gutcheck/domain/abundance"
)

// Tier is the curation bucket assigned to a species abundance row.
// Tiers are disjoint and exhaustive: every row gets exactly one.
type Tier string

const (
	TierAutoInclude  Tier = "auto-include"
	TierManualReview Tier = "manual-review"
	TierAutoExclude  Tier = "auto-exclude"
)

// Decision is the reviewer verdict re-imported from the review
// boundary. Only manual-review rows carry a meaningful decision.
type Decision string

const (
	DecisionNone Decision = ""
	DecisionYes  Decision = "YES"
	DecisionNo   Decision = "NO"
)

// Entry pairs one abundance row with its assigned tier and any
// reviewer decision applied at the import boundary.
type Entry struct {
	Abundance abundance.SpeciesAbundance `json:"abundance"`
	Tier      Tier                       `json:"tier"`
	Decision  Decision                   `json:"decision,omitempty"`
	Notes     string                     `json:"notes,omitempty"`
}

// Record is the curated view of one sample's abundance table against
// one database's rules. It is created here and mutated only by the
// review import boundary before scoring.
type Record struct {
	SampleID string  `json:"sample_id"`
	Database string  `json:"database"`
	Entries  []Entry `json:"entries"`
}

// ApplyFilter assigns exactly one tier to every abundance row via the
// fixed precedence:
//
//  1. excluded genus with no matching allow-pattern  -> auto-exclude
//  2. abundance below the configured minimum         -> auto-exclude
//  3. require_manual_review set, or moderate band    -> manual-review
//  4. otherwise                                      -> auto-include
//
// The function is pure: identical (rows, rules) inputs always produce
// identical records. Invalid rules fail before any row is examined.
func ApplyFilter(sampleID string, rows []abundance.SpeciesAbundance, rules Rules) (Record, error) {
	if err := rules.Validate(); err != nil {
		return Record{}, err
	}

	rec := Record{
		SampleID: sampleID,
		Database: rules.Database,
		Entries:  make([]Entry, 0, len(rows)),
	}
	for _, row := range rows {
		rec.Entries = append(rec.Entries, Entry{
			Abundance: row,
			Tier:      tierFor(row, rules),
		})
	}
	return rec, nil
}

func tierFor(row abundance.SpeciesAbundance, rules Rules) Tier {
	if rules.genusExcluded(row.Lineage.Genus) && !rules.patternAllows(row.Lineage.Text()) {
		return TierAutoExclude
	}
	if row.Percent < *rules.MinAbundance {
		return TierAutoExclude
	}
	// require_manual_review forces review only for rows that already
	// survived the exclusion and minimum-abundance checks.
	if rules.RequireManualReview || rules.inModerateBand(row.Percent) {
		return TierManualReview
	}
	return TierAutoInclude
}
