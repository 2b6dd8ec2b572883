package abundance

import (
	"math"
	"testing"

	"gutcheck/domain/core"
	"gutcheck/domain/taxonomy"
)

func hit(species, genus, phylum string) taxonomy.Hit {
	return taxonomy.Hit{
		ReadID: "r",
		Lineage: taxonomy.Lineage{
			Phylum:  phylum,
			Genus:   genus,
			Species: species,
		},
		Confidence: 0.9,
	}
}

func TestAggregate(t *testing.T) {
	hits := []taxonomy.Hit{
		hit("Blautia hansenii", "Blautia", "Bacillota"),
		hit("Blautia hansenii", "Blautia", "Bacillota"),
		hit("Blautia hansenii", "Blautia", "Bacillota"),
		hit("Bacteroides fragilis", "Bacteroides", "Bacteroidota"),
	}

	rows, err := Aggregate("s1", hits)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 species, got %d", len(rows))
	}
	if rows[0].Species != "Blautia hansenii" || rows[0].Count != 3 {
		t.Errorf("want Blautia hansenii x3 first, got %s x%d", rows[0].Species, rows[0].Count)
	}
	if math.Abs(rows[0].Percent-75.0) > 1e-9 {
		t.Errorf("want 75%%, got %v", rows[0].Percent)
	}
	if math.Abs(rows[1].Percent-25.0) > 1e-9 {
		t.Errorf("want 25%%, got %v", rows[1].Percent)
	}
}

func TestAggregateSortsDeterministically(t *testing.T) {
	hits := []taxonomy.Hit{
		hit("Zeta species", "Zeta", "Bacillota"),
		hit("Alpha species", "Alpha", "Bacillota"),
		hit("Mid species", "Mid", "Bacillota"),
	}

	// All counts equal: order must fall back to species name.
	for i := 0; i < 20; i++ {
		rows, err := Aggregate("s1", hits)
		if err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
		if rows[0].Species != "Alpha species" || rows[1].Species != "Mid species" || rows[2].Species != "Zeta species" {
			t.Fatalf("iteration %d: non-deterministic order %v %v %v", i, rows[0].Species, rows[1].Species, rows[2].Species)
		}
	}
}

func TestAggregateZeroAbundance(t *testing.T) {
	_, err := Aggregate("s1", nil)
	if !core.IsZeroAbundanceError(err) {
		t.Fatalf("want ZeroAbundanceError, got %v", err)
	}
}

func TestRecompute(t *testing.T) {
	rows := []SpeciesAbundance{
		{Species: "A", Count: 30, Percent: 30},
		{Species: "B", Count: 10, Percent: 10},
	}
	out, err := Recompute("s1", rows)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if math.Abs(out[0].Percent-75.0) > 1e-9 || math.Abs(out[1].Percent-25.0) > 1e-9 {
		t.Errorf("want 75/25, got %v/%v", out[0].Percent, out[1].Percent)
	}
	// Input must stay untouched.
	if rows[0].Percent != 30 {
		t.Errorf("input mutated: %v", rows[0].Percent)
	}
}

func TestRecomputeZeroTotal(t *testing.T) {
	_, err := Recompute("s1", []SpeciesAbundance{{Species: "A", Count: 0}})
	if !core.IsZeroAbundanceError(err) {
		t.Fatalf("want ZeroAbundanceError, got %v", err)
	}
}
