package curation

import (
	"reflect"
	"testing"

	"gutcheck/domain/abundance"
	"gutcheck/domain/core"
	"gutcheck/domain/taxonomy"
)

func row(species, genus string, percent float64) abundance.SpeciesAbundance {
	return abundance.SpeciesAbundance{
		Species: species,
		Lineage: taxonomy.Lineage{
			Phylum:  "Bacillota",
			Genus:   genus,
			Species: species,
		},
		Count:   int(percent * 100),
		Percent: percent,
	}
}

func rules(mutate func(*Rules)) Rules {
	min := 0.1
	r := Rules{Database: "equine_gut", Path: "/refs/equine.fasta", MinAbundance: &min}
	if mutate != nil {
		mutate(&r)
	}
	return r
}

func TestApplyFilterPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		row   abundance.SpeciesAbundance
		rules Rules
		want  Tier
	}{
		{
			name: "excluded genus is hard exclusion regardless of abundance",
			row:  row("Phytophthora infestans", "Phytophthora", 5.0),
			rules: rules(func(r *Rules) {
				r.ExcludeGenera = []string{"Phytophthora"}
			}),
			want: TierAutoExclude,
		},
		{
			name: "allow pattern overrides genus exclusion",
			row:  row("Streptococcus equinus", "Streptococcus", 5.0),
			rules: rules(func(r *Rules) {
				r.ExcludeGenera = []string{"Streptococcus"}
				r.IncludePatterns = []string{"equi"}
			}),
			want: TierAutoInclude,
		},
		{
			name:  "below minimum abundance",
			row:   row("Blautia hansenii", "Blautia", 0.05),
			rules: rules(nil),
			want:  TierAutoExclude,
		},
		{
			name: "require_manual_review forces review above the minimum",
			row:  row("Blautia hansenii", "Blautia", 0.6),
			rules: rules(func(r *Rules) {
				min := 0.5
				r.MinAbundance = &min
				r.RequireManualReview = true
			}),
			want: TierManualReview,
		},
		{
			name: "moderate band routes to review without the flag",
			row:  row("Blautia hansenii", "Blautia", 0.3),
			rules: rules(func(r *Rules) {
				r.Moderate = &ModerateBand{Low: 0.1, High: 0.5}
			}),
			want: TierManualReview,
		},
		{
			name:  "clean abundant species auto-includes",
			row:   row("Blautia hansenii", "Blautia", 12.0),
			rules: rules(nil),
			want:  TierAutoInclude,
		},
		{
			name: "exclusion beats review flag",
			row:  row("Phytophthora infestans", "Phytophthora", 5.0),
			rules: rules(func(r *Rules) {
				r.ExcludeGenera = []string{"Phytophthora"}
				r.RequireManualReview = true
			}),
			want: TierAutoExclude,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ApplyFilter("s1", []abundance.SpeciesAbundance{tt.row}, tt.rules)
			if err != nil {
				t.Fatalf("ApplyFilter: %v", err)
			}
			if got := rec.Entries[0].Tier; got != tt.want {
				t.Errorf("tier = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFilterIsPure(t *testing.T) {
	rows := []abundance.SpeciesAbundance{
		row("Blautia hansenii", "Blautia", 12.0),
		row("Phytophthora infestans", "Phytophthora", 5.0),
		row("Rare species", "Rare", 0.01),
	}
	r := rules(func(r *Rules) {
		r.ExcludeGenera = []string{"Phytophthora"}
	})

	first, err := ApplyFilter("s1", rows, r)
	if err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := ApplyFilter("s1", rows, r)
		if err != nil {
			t.Fatalf("ApplyFilter: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("identical inputs produced different records")
		}
	}
}

func TestApplyFilterPartitionsExhaustively(t *testing.T) {
	rows := []abundance.SpeciesAbundance{
		row("A species", "A", 12.0),
		row("B species", "B", 0.01),
		row("C species", "C", 0.3),
		row("Phytophthora infestans", "Phytophthora", 5.0),
	}
	r := rules(func(r *Rules) {
		r.ExcludeGenera = []string{"Phytophthora"}
		r.Moderate = &ModerateBand{Low: 0.1, High: 0.5}
	})

	rec, err := ApplyFilter("s1", rows, r)
	if err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	if len(rec.Entries) != len(rows) {
		t.Fatalf("want %d entries, got %d", len(rows), len(rec.Entries))
	}
	valid := map[Tier]bool{TierAutoInclude: true, TierManualReview: true, TierAutoExclude: true}
	for _, e := range rec.Entries {
		if !valid[e.Tier] {
			t.Errorf("species %s has invalid tier %q", e.Abundance.Species, e.Tier)
		}
	}
}

func TestApplyFilterRejectsInvalidRulesBeforeProcessing(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
	}{
		{"missing min_abundance", Rules{Database: "d"}},
		{"negative min_abundance", rules(func(r *Rules) { min := -1.0; r.MinAbundance = &min })},
		{"blank exclusion genus", rules(func(r *Rules) { r.ExcludeGenera = []string{" "} })},
		{"blank include pattern", rules(func(r *Rules) { r.IncludePatterns = []string{""} })},
		{"inverted moderate band", rules(func(r *Rules) { r.Moderate = &ModerateBand{Low: 2, High: 1} })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyFilter("s1", []abundance.SpeciesAbundance{row("A", "A", 1)}, tt.rules)
			if !core.IsConfigError(err) {
				t.Fatalf("want ConfigError, got %v", err)
			}
		})
	}
}
