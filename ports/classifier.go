package ports

import (
	"context"

	"gutcheck/domain/taxonomy"
)

// Classifier assigns a taxon to a single read, or explains why it
// stays unclassified. Implementations include the in-process k-mer
// consensus engine and an out-of-process high-performance tool; callers
// must depend only on this contract, never on a specific algorithm.
type Classifier interface {
	Classify(ctx context.Context, r taxonomy.Read) (taxonomy.Classification, error)
}
