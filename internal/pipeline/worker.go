package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/bestiary/internal/statblock"
)

// Sink receives finished records. *pathstore.Client is the production sink.
type Sink interface {
	PutRecord(ctx context.Context, identity string, record any) (string, error)
}

// Worker processes one batch job at a time.
type Worker struct {
	extractor *Extractor
	sink      Sink
	metrics   *Metrics
	log       *slog.Logger

	batchWorkers       int
	maxConcurrentStore int
}

// NewWorker returns a worker. A nil sink keeps records in the job only.
func NewWorker(ex *Extractor, sink Sink, metrics *Metrics, log *slog.Logger, batchWorkers, maxStore int) *Worker {
	if maxStore <= 0 {
		maxStore = 1
	}
	return &Worker{
		extractor:          ex,
		sink:               sink,
		metrics:            metrics,
		log:                log,
		batchWorkers:       batchWorkers,
		maxConcurrentStore: maxStore,
	}
}

// Process runs extraction for a job and stores the resulting records.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	batch, err := w.extractor.RunBatch(ctx, job.Documents(), w.batchWorkers, job.RecordResult)
	job.SetBatch(batch)
	if err != nil {
		log.Warn("batch interrupted", "error", err, "processed", batch.Summary.Total)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusCancelled, "parsing")
		return
	}
	log.Info("parsing complete",
		"succeeded", batch.Summary.Succeeded,
		"failed", batch.Summary.Failed,
		"skipped", batch.Summary.Skipped,
	)

	if w.sink == nil || batch.Summary.Succeeded == 0 {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 2: Store records.
	job.SetStatus(StatusStoring, "storing")
	stored, hadErrors := w.store(ctx, job, batch)
	job.AddStored(stored)
	log.Info("storage complete", "stored", stored, "total", batch.Summary.Succeeded)

	switch {
	case hadErrors && stored > 0:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, "storing")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

// store writes every record of the batch with bounded concurrency.
func (w *Worker) store(ctx context.Context, job *Job, batch *Batch) (int, bool) {
	log := w.log.With("job_id", job.ID)

	type storeResult struct {
		identity string
		key      string
		err      error
	}
	records := make([]Result, 0, batch.Summary.Succeeded)
	for _, r := range batch.Results {
		if r.Record != nil {
			records = append(records, r)
		}
	}
	results := make(chan storeResult, len(records))
	sem := make(chan struct{}, w.maxConcurrentStore)

	for _, r := range records {
		sem <- struct{}{}
		go func(identity string, rec *statblock.Record) {
			defer func() { <-sem }()
			var key string
			err := withRetry(ctx, func() error {
				var err error
				key, err = w.sink.PutRecord(ctx, identity, rec)
				w.metrics.RecordSinkWrite(ctx, err)
				return err
			}, func(attempt int, err error) {
				log.Warn("retryable store error", "doc", identity, "attempt", attempt, "error", err)
			})
			results <- storeResult{identity: identity, key: key, err: err}
		}(r.Identity, r.Record)
	}

	stored := 0
	hadErrors := false
	for range records {
		r := <-results
		if r.err != nil {
			log.Error("store failed", "doc", r.identity, "key", r.key, "error", r.err)
			job.AddError(fmt.Sprintf("store %s: %s", r.identity, r.err))
			hadErrors = true
			continue
		}
		stored++
	}
	return stored, hadErrors
}
