package seqio

import (
	"bufio"
	"context"
	"errors"
	"io/fs"

	"github.com/montanaflynn/stats"

	"gutcheck/domain/core"
	"gutcheck/domain/run"
	"gutcheck/domain/taxonomy"
	apperrors "gutcheck/internal/errors"
)

// Options are the read validation thresholds.
type Options struct {
	MinLength      int
	MinMeanQuality float64
}

// Source streams validated reads from one FASTA/FASTQ file (optionally
// gzipped) and accumulates per-source statistics as it goes. It
// implements ports.ReadSource.
type Source struct {
	path string
	opts Options

	total     int
	passed    int
	short     int
	lowQual   int
	malformed int
	lengths   []float64
	quals     []float64
}

// New creates a source for path with the given thresholds.
func New(path string, opts Options) *Source {
	return &Source{path: path, opts: opts}
}

// Stream parses the source and emits each read that passes the length
// and quality filters. Reads failing a threshold are counted and
// skipped; malformed records are counted separately. FASTA sources
// carry no quality, so only the length filter applies to them.
func (s *Source) Stream(ctx context.Context, emit func(taxonomy.Read) error) error {
	rc, err := openReader(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.NewInputError(s.path, "read source does not exist")
		}
		return apperrors.TransientIO("opening read source "+s.path, err)
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	format, err := sniffFormat(br)
	if err != nil {
		return core.NewInputError(s.path, err.Error())
	}

	accept := func(r taxonomy.Read) error {
		s.total++
		if len(r.Sequence) < s.opts.MinLength {
			s.short++
			return nil
		}
		if r.Quality != "" && r.MeanQuality() < s.opts.MinMeanQuality {
			s.lowQual++
			return nil
		}
		s.passed++
		s.lengths = append(s.lengths, float64(len(r.Sequence)))
		if r.Quality != "" {
			s.quals = append(s.quals, r.MeanQuality())
		}
		return emit(r)
	}

	switch format {
	case "fastq":
		return StreamFastq(ctx, br, func(rec FastqRecord) error {
			return accept(taxonomy.Read{ID: rec.ID, Sequence: rec.Seq, Quality: rec.Quality, Source: s.path})
		}, func(string) {
			s.total++
			s.malformed++
		})
	default:
		return StreamFasta(ctx, br, func(rec FastaRecord) error {
			return accept(taxonomy.Read{ID: rec.ID, Sequence: rec.Seq, Source: s.path})
		})
	}
}

// Stats summarizes the source after Stream has returned.
func (s *Source) Stats() run.SourceStats {
	out := run.SourceStats{
		Source:         s.path,
		TotalReads:     s.total,
		Passed:         s.passed,
		DroppedShort:   s.short,
		DroppedQuality: s.lowQual,
		Malformed:      s.malformed,
	}
	if len(s.lengths) > 0 {
		out.MeanLength, _ = stats.Mean(s.lengths)
		out.MedianLength, _ = stats.Median(s.lengths)
	}
	if len(s.quals) > 0 {
		out.MeanQuality, _ = stats.Mean(s.quals)
		out.QualityP10, _ = stats.Percentile(s.quals, 10)
	}
	return out
}
