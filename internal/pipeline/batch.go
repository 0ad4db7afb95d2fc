package pipeline

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/bestiary/internal/statblock"
)

// Summary counts the outcomes of a batch.
type Summary struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Excluded  int            `json:"excluded"`
	Failures  []ParseFailure `json:"failures"`
}

// Add folds one result into the summary.
func (s *Summary) Add(r Result) {
	s.Total++
	switch r.Outcome {
	case OutcomeParsed:
		s.Succeeded++
	case OutcomeFailed:
		s.Failed++
		if r.Failure != nil {
			s.Failures = append(s.Failures, *r.Failure)
		}
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeExcluded:
		s.Excluded++
	}
}

// Batch holds the results of one run, sorted by identity.
type Batch struct {
	Results []Result
	Summary Summary
}

// Records returns the extracted records keyed by identity.
func (b *Batch) Records() map[string]*statblock.Record {
	out := make(map[string]*statblock.Record, b.Summary.Succeeded)
	for _, r := range b.Results {
		if r.Record != nil {
			out[r.Identity] = r.Record
		}
	}
	return out
}

// RunBatch processes docs with at most workers documents in flight.
// progress, when set, is called once per finished document from the worker
// goroutines and must be safe for concurrent use.
//
// Cancelling ctx stops dispatch: documents already in flight finish and are
// included, the rest are omitted, and ctx's error is returned alongside the
// partial batch.
func (e *Extractor) RunBatch(ctx context.Context, docs []Document, workers int, progress func(Result)) (*Batch, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]*Result, len(docs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, d := range docs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r := e.Process(ctx, d)
			results[i] = &r
			if progress != nil {
				progress(r)
			}
			return nil
		})
	}
	g.Wait() // documents fail inside their Result, never as a group error

	b := &Batch{Results: make([]Result, 0, len(docs))}
	b.Summary.Failures = []ParseFailure{}
	for _, r := range results {
		if r != nil {
			b.Results = append(b.Results, *r)
		}
	}
	slices.SortStableFunc(b.Results, func(x, y Result) int {
		return strings.Compare(x.Identity, y.Identity)
	})
	for _, r := range b.Results {
		b.Summary.Add(r)
	}
	e.log.Info("batch complete",
		"total", b.Summary.Total,
		"succeeded", b.Summary.Succeeded,
		"failed", b.Summary.Failed,
		"skipped", b.Summary.Skipped,
		"excluded", b.Summary.Excluded,
	)
	return b, ctx.Err()
}
