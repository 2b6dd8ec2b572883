package dysbiosis

import (
	"math"
	"testing"

	"gutcheck/domain/abundance"
	"gutcheck/domain/core"
	"gutcheck/domain/taxonomy"
)

func phylumRow(phylum string, percent float64) abundance.SpeciesAbundance {
	return abundance.SpeciesAbundance{
		Species: phylum + " representative",
		Lineage: taxonomy.Lineage{Phylum: phylum, Species: phylum + " representative"},
		Count:   int(percent * 10),
		Percent: percent,
	}
}

var scenarioRanges = []ReferenceRange{
	{Phylum: "Actinomycetota", Lower: 0.1, Upper: 8.0},
	{Phylum: "Bacillota", Lower: 20.0, Upper: 70.0},
	{Phylum: "Bacteroidota", Lower: 4.0, Upper: 40.0},
	{Phylum: "Pseudomonadota", Lower: 2.0, Upper: 35.0},
}

func TestScoreClinicalScenario(t *testing.T) {
	finalized := []abundance.SpeciesAbundance{
		phylumRow("Actinomycetota", 11.5),
		phylumRow("Bacillota", 62.2),
		phylumRow("Bacteroidota", 3.5),
		phylumRow("Pseudomonadota", 18.9),
	}

	res, err := Score("s1", finalized, scenarioRanges)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(res.Score-4.0) > 1e-9 {
		t.Errorf("score = %v, want 4.0", res.Score)
	}
	if res.Category != CategoryNormal {
		t.Errorf("category = %v, want normal", res.Category)
	}

	wantDev := map[string]float64{
		"Actinomycetota": 3.5,
		"Bacillota":      0,
		"Bacteroidota":   0.5,
		"Pseudomonadota": 0,
	}
	for _, d := range res.Breakdown {
		if math.Abs(d.Deviation-wantDev[d.Phylum]) > 1e-9 {
			t.Errorf("%s deviation = %v, want %v", d.Phylum, d.Deviation, wantDev[d.Phylum])
		}
	}
}

func TestScoreMonotonicity(t *testing.T) {
	// Pushing a phylum further outside its range must never lower the
	// score.
	prev := -1.0
	for pct := 8.0; pct <= 40.0; pct += 0.5 {
		finalized := []abundance.SpeciesAbundance{
			phylumRow("Actinomycetota", pct),
			phylumRow("Bacillota", 50.0),
		}
		res, err := Score("s1", finalized, scenarioRanges)
		if err != nil {
			t.Fatalf("Score at %v: %v", pct, err)
		}
		if res.Score < prev {
			t.Fatalf("score decreased from %v to %v at pct %v", prev, res.Score, pct)
		}
		prev = res.Score
	}
}

func TestScoreUnrangedPhylumContributesNoDeviation(t *testing.T) {
	finalized := []abundance.SpeciesAbundance{
		phylumRow("Bacillota", 50.0),
		phylumRow("Mycoplasmatota", 50.0), // not in the range table
	}
	res, err := Score("s1", finalized, scenarioRanges)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for _, d := range res.Breakdown {
		if d.Phylum == "Mycoplasmatota" {
			t.Errorf("unranged phylum appeared in breakdown")
		}
	}
	// Its only effect is through the other phyla's percentages, which
	// the caller fixed here, so only Bacteroidota/Pseudomonadota/
	// Actinomycetota absences contribute.
	want := 0.1 + 4.0 + 2.0
	if math.Abs(res.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", res.Score, want)
	}
}

func TestScoreZeroAbundance(t *testing.T) {
	if _, err := Score("s1", nil, scenarioRanges); !core.IsZeroAbundanceError(err) {
		t.Fatalf("want ZeroAbundanceError, got %v", err)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		score float64
		want  Category
	}{
		{0, CategoryNormal},
		{20, CategoryNormal},
		{20.5, CategoryMild},
		{50, CategoryMild},
		{50.5, CategorySevere},
		{120, CategorySevere},
	}
	for _, tt := range tests {
		if got := Categorize(tt.score); got != tt.want {
			t.Errorf("Categorize(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestDefaultReferenceRangesCoverClinicalTable(t *testing.T) {
	want := map[string][2]float64{
		"Actinomycetota": {0.1, 8.0},
		"Bacillota":      {20.0, 70.0},
		"Bacteroidota":   {4.0, 40.0},
		"Pseudomonadota": {2.0, 35.0},
		"Fibrobacterota": {0.1, 5.0},
	}
	if len(DefaultReferenceRanges) != len(want) {
		t.Fatalf("want %d ranges, got %d", len(want), len(DefaultReferenceRanges))
	}
	for _, rr := range DefaultReferenceRanges {
		bounds, ok := want[rr.Phylum]
		if !ok {
			t.Errorf("unexpected phylum %s", rr.Phylum)
			continue
		}
		if rr.Lower != bounds[0] || rr.Upper != bounds[1] {
			t.Errorf("%s = [%v,%v], want [%v,%v]", rr.Phylum, rr.Lower, rr.Upper, bounds[0], bounds[1])
		}
	}
}
