package app

import (
	"context"

	"gutcheck/domain/abundance"
	"gutcheck/domain/curation"
	"gutcheck/domain/dysbiosis"
	"gutcheck/domain/run"
	"gutcheck/domain/taxonomy"
	"gutcheck/internal"
	"gutcheck/ports"
)

// SourceFactory builds a read source for one sample's path. It keeps
// the app layer free of any concrete I/O adapter.
type SourceFactory func(path string) ports.ReadSource

// Pipeline runs the per-sample stages Reading through Scoring. All of
// its fields are read-only after construction, so one Pipeline is
// shared by every worker of a batch.
type Pipeline struct {
	newSource  SourceFactory
	classifier ports.Classifier
	rules      curation.Rules
	ranges     []dysbiosis.ReferenceRange
	log        *internal.Logger
}

// NewPipeline wires a pipeline. The rules must already be validated.
func NewPipeline(newSource SourceFactory, classifier ports.Classifier, rules curation.Rules, ranges []dysbiosis.ReferenceRange, log *internal.Logger) *Pipeline {
	if log == nil {
		log = internal.NewDefaultLogger("Pipeline")
	}
	return &Pipeline{
		newSource:  newSource,
		classifier: classifier,
		rules:      rules,
		ranges:     ranges,
		log:        log,
	}
}

// SampleResult is the successful output of one sample's pipeline.
type SampleResult struct {
	Record       curation.Record
	Result       dysbiosis.Result
	Stats        run.SourceStats
	Unclassified map[taxonomy.UnclassifiedReason]int
}

// RunSample drives one sample through Reading -> Classifying ->
// Aggregating -> Filtering -> Scoring, reporting each transition via
// onState. Any stage error aborts the sample with partial results
// discarded; cancellation is checked between reads and at every stage
// boundary.
func (p *Pipeline) RunSample(ctx context.Context, spec run.SampleSpec, onState func(run.SampleState)) (*SampleResult, error) {
	if onState == nil {
		onState = func(run.SampleState) {}
	}

	onState(run.StateReading)
	src := p.newSource(spec.Path)
	var reads []taxonomy.Read
	err := src.Stream(ctx, func(r taxonomy.Read) error {
		reads = append(reads, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats := src.Stats()
	p.log.Debug("sample %s: %d/%d reads passed filters", spec.ID, stats.Passed, stats.TotalReads)

	onState(run.StateClassifying)
	var hits []taxonomy.Hit
	unclassified := make(map[taxonomy.UnclassifiedReason]int)
	for _, r := range reads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cls, err := p.classifier.Classify(ctx, r)
		if err != nil {
			return nil, err
		}
		if cls.Classified() {
			hits = append(hits, *cls.Hit)
		} else {
			unclassified[cls.Reason]++
		}
	}

	onState(run.StateAggregating)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := abundance.Aggregate(spec.ID, hits)
	if err != nil {
		return nil, err
	}

	onState(run.StateFiltering)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, err := curation.ApplyFilter(spec.ID, rows, p.rules)
	if err != nil {
		return nil, err
	}

	onState(run.StateScoring)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := p.ScoreRecord(record)
	if err != nil {
		return nil, err
	}

	return &SampleResult{
		Record:       record,
		Result:       result,
		Stats:        stats,
		Unclassified: unclassified,
	}, nil
}

// ScoreRecord recomputes the finalized abundances of a curation record
// (auto-include plus reviewer-accepted rows) and scores them against
// the reference ranges.
func (p *Pipeline) ScoreRecord(record curation.Record) (dysbiosis.Result, error) {
	finalized, err := record.Finalized()
	if err != nil {
		return dysbiosis.Result{}, err
	}
	return dysbiosis.Score(record.SampleID, finalized, p.ranges)
}
