package app

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"gutcheck/domain/run"
	"gutcheck/internal"
	"gutcheck/internal/errors"
	"gutcheck/ports"
)

// BatchOrchestrator fans a batch of samples across a bounded worker
// pool. Workers share only the read-only pipeline (index, rules,
// ranges); one sample's failure never touches its siblings.
type BatchOrchestrator struct {
	pipeline   *Pipeline
	repository ports.ResultRepository // nil disables persistence
	workers    int64
	maxRetries int
	retryBase  time.Duration
	log        *internal.Logger
}

// NewBatchOrchestrator wires an orchestrator over a shared pipeline.
func NewBatchOrchestrator(pipeline *Pipeline, repository ports.ResultRepository, workers, maxRetries int, retryBase time.Duration, log *internal.Logger) *BatchOrchestrator {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = internal.NewDefaultLogger("BatchOrchestrator")
	}
	return &BatchOrchestrator{
		pipeline:   pipeline,
		repository: repository,
		workers:    int64(workers),
		maxRetries: maxRetries,
		retryBase:  retryBase,
		log:        log,
	}
}

// Run processes every sample and always returns a full summary: each
// sample ends Done or Failed with a machine-readable error kind, never
// a silent partial batch. Outcomes accumulate in completion order.
func (o *BatchOrchestrator) Run(ctx context.Context, database string, samples []run.SampleSpec) (*run.Summary, error) {
	summary := &run.Summary{
		BatchID:   run.NewBatchID(),
		Database:  database,
		StartedAt: time.Now(),
	}

	sem := semaphore.NewWeighted(o.workers)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	results := make(map[string]*SampleResult, len(samples))
	for _, spec := range samples {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Batch cancelled: record the remaining samples as failed
			// so the summary still covers every sample.
			mu.Lock()
			summary.Outcomes = append(summary.Outcomes, run.Outcome{
				SampleID:   spec.ID,
				State:      run.StateFailed,
				ErrKind:    errors.CodeInternalError,
				ErrMessage: err.Error(),
			})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(spec run.SampleSpec) {
			defer wg.Done()
			defer sem.Release(1)

			outcome, result := o.runSample(ctx, spec)
			mu.Lock()
			summary.Outcomes = append(summary.Outcomes, outcome)
			if result != nil {
				results[spec.ID] = result
			}
			mu.Unlock()
		}(spec)
	}
	wg.Wait()

	for _, out := range summary.Outcomes {
		if out.State == run.StateDone {
			summary.Done++
		} else {
			summary.Failed++
		}
	}
	summary.FinishedAt = time.Now()
	o.log.Info("batch %s finished: %d done, %d failed", summary.BatchID, summary.Done, summary.Failed)

	o.persist(ctx, summary, results)
	return summary, nil
}

// runSample executes one sample with bounded retries. Only transient
// I/O errors are retried; deterministic failures (malformed input,
// zero abundance) fail immediately.
func (o *BatchOrchestrator) runSample(ctx context.Context, spec run.SampleSpec) (run.Outcome, *SampleResult) {
	started := time.Now()
	state := run.StatePending
	onState := func(s run.SampleState) { state = s }

	var (
		res      *SampleResult
		err      error
		attempts int
	)
	for attempts = 1; ; attempts++ {
		res, err = o.pipeline.RunSample(ctx, spec, onState)
		if err == nil || !errors.Retryable(err) || attempts > o.maxRetries {
			break
		}
		backoff := o.retryBase << (attempts - 1)
		o.log.Warn("sample %s: transient failure (attempt %d), retrying in %s: %v", spec.ID, attempts, backoff, err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			err = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}

	outcome := run.Outcome{
		SampleID: spec.ID,
		Attempts: attempts,
		Duration: time.Since(started),
	}
	if err != nil {
		o.log.Warn("sample %s failed at %s: %v", spec.ID, state, err)
		outcome.State = run.StateFailed
		outcome.ErrKind = errors.KindOf(err)
		outcome.ErrMessage = err.Error()
		return outcome, nil
	}

	outcome.State = run.StateDone
	outcome.Score = res.Result.Score
	outcome.Category = string(res.Result.Category)
	outcome.Stats = &res.Stats
	return outcome, res
}

// persist stores the summary and per-sample results when a repository
// is configured. Storage trouble is logged, not propagated: by the
// time we are here every sample already has its terminal state.
func (o *BatchOrchestrator) persist(ctx context.Context, summary *run.Summary, results map[string]*SampleResult) {
	if o.repository == nil {
		return
	}
	if err := o.repository.SaveSummary(ctx, summary); err != nil {
		o.log.Error("persisting batch summary: %v", err)
		return
	}
	for id, res := range results {
		if err := o.repository.SaveResult(ctx, summary.BatchID, &res.Result); err != nil {
			o.log.Error("persisting result for sample %s: %v", id, err)
		}
	}
}
