package dysbiosis

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"gutcheck/domain/abundance"
	"gutcheck/domain/core"
)

// ReferenceRange is the clinically expected percentage interval for
// one phylum, bounds inclusive.
type ReferenceRange struct {
	Phylum string  `json:"phylum" yaml:"phylum"`
	Lower  float64 `json:"lower" yaml:"lower"`
	Upper  float64 `json:"upper" yaml:"upper"`
}

// DefaultReferenceRanges is the fixed clinical table for equine gut
// microbiome composition.
var DefaultReferenceRanges = []ReferenceRange{
	{Phylum: "Actinomycetota", Lower: 0.1, Upper: 8.0},
	{Phylum: "Bacillota", Lower: 20.0, Upper: 70.0},
	{Phylum: "Bacteroidota", Lower: 4.0, Upper: 40.0},
	{Phylum: "Pseudomonadota", Lower: 2.0, Upper: 35.0},
	{Phylum: "Fibrobacterota", Lower: 0.1, Upper: 5.0},
}

// Category buckets a dysbiosis score for clinical interpretation.
type Category string

const (
	CategoryNormal Category = "normal"
	CategoryMild   Category = "mild"
	CategorySevere Category = "severe"
)

// Categorize applies the fixed score boundaries: normal <= 20,
// mild (20, 50], severe > 50.
func Categorize(score float64) Category {
	switch {
	case score <= 20:
		return CategoryNormal
	case score <= 50:
		return CategoryMild
	default:
		return CategorySevere
	}
}

// PhylumDeviation is the per-phylum contribution to the score.
type PhylumDeviation struct {
	Phylum    string  `json:"phylum"`
	Percent   float64 `json:"percent"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Deviation float64 `json:"deviation"`
}

// Result is the immutable outcome of scoring one finalized sample.
type Result struct {
	SampleID  string            `json:"sample_id"`
	Score     float64           `json:"score"`
	Category  Category          `json:"category"`
	Breakdown []PhylumDeviation `json:"breakdown"`
}

// Score aggregates finalized abundances by phylum and measures the
// deviation of each ranged phylum from its reference interval:
// deviation = max(0, lower-pct, pct-upper). Phyla absent from the
// range table contribute zero deviation but their abundance still
// counts toward the total; ranged phyla absent from the sample are
// scored at 0%. Fails with ZeroAbundanceError on an empty finalized
// table.
func Score(sampleID string, finalized []abundance.SpeciesAbundance, ranges []ReferenceRange) (Result, error) {
	if len(finalized) == 0 {
		return Result{}, core.NewZeroAbundanceError(sampleID)
	}

	byPhylum := make(map[string]float64)
	totalPct := 0.0
	for _, row := range finalized {
		byPhylum[row.Lineage.Phylum] += row.Percent
		totalPct += row.Percent
	}
	if totalPct == 0 {
		return Result{}, core.NewZeroAbundanceError(sampleID)
	}

	breakdown := make([]PhylumDeviation, 0, len(ranges))
	deviations := make([]float64, 0, len(ranges))
	for _, rr := range ranges {
		pct := byPhylum[rr.Phylum]
		dev := 0.0
		if d := rr.Lower - pct; d > dev {
			dev = d
		}
		if d := pct - rr.Upper; d > dev {
			dev = d
		}
		breakdown = append(breakdown, PhylumDeviation{
			Phylum:    rr.Phylum,
			Percent:   pct,
			Lower:     rr.Lower,
			Upper:     rr.Upper,
			Deviation: dev,
		})
		deviations = append(deviations, dev)
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Phylum < breakdown[j].Phylum })

	score := floats.Sum(deviations)
	return Result{
		SampleID:  sampleID,
		Score:     score,
		Category:  Categorize(score),
		Breakdown: breakdown,
	}, nil
}
