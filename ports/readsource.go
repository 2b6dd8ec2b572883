package ports

import (
	"context"

	"gutcheck/domain/run"
	"gutcheck/domain/taxonomy"
)

// ReadSource yields validated reads from one sequencing source.
// Stream applies the configured length and quality filters, invoking
// emit once per read that passes; dropped and malformed records are
// counted, not raised. Stats is valid after Stream returns.
type ReadSource interface {
	Stream(ctx context.Context, emit func(taxonomy.Read) error) error
	Stats() run.SourceStats
}
