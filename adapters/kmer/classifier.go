package kmer

import (
	"context"
	"strings"

	"gutcheck/domain/taxonomy"
)

// Classifier is the in-process k-mer consensus engine. It scans every
// overlapping k-mer of a read against the shared index, votes per
// candidate taxon, and assigns the majority candidate when the vote is
// both unambiguous and confident enough. It implements
// ports.Classifier and holds no per-read state, so a single value is
// safe for concurrent use.
type Classifier struct {
	index         *Index
	minConfidence float64
}

// NewClassifier wires a classifier to a built index.
func NewClassifier(index *Index, minConfidence float64) *Classifier {
	return &Classifier{index: index, minConfidence: minConfidence}
}

// Classify produces exactly one Classification for the read.
// Confidence is votes-for-winner over total k-mers in the read. A tie
// for the top vote is reported as ambiguous rather than broken by
// iteration order, so results are reproducible across runs.
func (c *Classifier) Classify(ctx context.Context, r taxonomy.Read) (taxonomy.Classification, error) {
	if err := ctx.Err(); err != nil {
		return taxonomy.Classification{}, err
	}

	seq := strings.ToUpper(r.Sequence)
	k := c.index.K()
	total := len(seq) - k + 1
	if total <= 0 {
		return taxonomy.Classification{Reason: taxonomy.ReasonTooShort}, nil
	}

	votes := make(map[int32]int)
	for i := 0; i < total; i++ {
		for _, id := range c.index.Lookup(seq[i : i+k]) {
			votes[id]++
		}
	}

	best := int32(-1)
	bestVotes := 0
	tied := false
	for id, n := range votes {
		switch {
		case n > bestVotes:
			best, bestVotes, tied = id, n, false
		case n == bestVotes:
			tied = true
		}
	}

	if bestVotes == 0 {
		return taxonomy.Classification{Reason: taxonomy.ReasonLowConfidence}, nil
	}
	if tied {
		return taxonomy.Classification{Reason: taxonomy.ReasonAmbiguous}, nil
	}
	confidence := float64(bestVotes) / float64(total)
	if confidence < c.minConfidence {
		return taxonomy.Classification{Reason: taxonomy.ReasonLowConfidence}, nil
	}

	return taxonomy.Classification{Hit: &taxonomy.Hit{
		ReadID:     r.ID,
		Lineage:    c.index.Lineage(best),
		Confidence: confidence,
		ReadLength: len(seq),
	}}, nil
}
