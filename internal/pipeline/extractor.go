// Package pipeline isolates per-document extraction failures and runs
// statblock extraction over whole corpora, synchronously or as queued jobs.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/parser"
	"github.com/dgallion1/bestiary/internal/quirks"
	"github.com/dgallion1/bestiary/internal/statblock"
)

// Failure kinds.
const (
	FailureStructure = "structure_mismatch"
	FailureInternal  = "internal_error"
	FailureInput     = "input_error"
)

// Outcome is what happened to one document.
type Outcome string

const (
	OutcomeParsed Outcome = "parsed"
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped marks a known-bad document; it is never parsed.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeExcluded marks a legacy-ruleset record dropped from output.
	OutcomeExcluded Outcome = "excluded"
)

// ParseFailure describes why one document produced no record.
type ParseFailure struct {
	Identity string `json:"url"`
	Stage    string `json:"stage,omitempty"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Stack    string `json:"-"`
}

// Document is one raw page awaiting extraction. Filename selects the
// parser by extension; without one, ContentType decides and anything but
// markdown is HTML.
type Document struct {
	Identity    string
	Filename    string
	ContentType string
	Data        []byte
}

// Result is the outcome of processing one Document.
type Result struct {
	Identity string            `json:"url"`
	Outcome  Outcome           `json:"outcome"`
	Record   *statblock.Record `json:"record,omitempty"`
	Failure  *ParseFailure     `json:"failure,omitempty"`
	Duration time.Duration     `json:"-"`
}

// ExtractorConfig wires an Extractor. Only Parser is required.
type ExtractorConfig struct {
	Parser        *statblock.Parser
	KnownBad      *quirks.KnownBad
	IncludeLegacy bool
	Metrics       *Metrics
	Stats         *ParseStats
}

// Extractor turns raw pages into records, one document at a time. A failure
// in one document never affects another. Safe for concurrent use.
type Extractor struct {
	parser        *statblock.Parser
	knownBad      *quirks.KnownBad
	includeLegacy bool
	metrics       *Metrics
	stats         *ParseStats
	log           *slog.Logger
}

func NewExtractor(cfg ExtractorConfig, log *slog.Logger) *Extractor {
	p := cfg.Parser
	if p == nil {
		p = statblock.New(nil, nil)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		parser:        p,
		knownBad:      cfg.KnownBad,
		includeLegacy: cfg.IncludeLegacy,
		metrics:       cfg.Metrics,
		stats:         cfg.Stats,
		log:           log,
	}
}

// Stats returns the rolling parse statistics, or nil when none are kept.
func (e *Extractor) Stats() *ParseStats { return e.stats }

// Extract runs the field pipeline over one linearized document.
func (e *Extractor) Extract(doc *doctree.Document) (*statblock.Record, *ParseFailure) {
	rec, err := e.parser.Parse(doc)
	if err == nil {
		return rec, nil
	}
	return nil, classify(doc.Identity, err)
}

func classify(identity string, err error) *ParseFailure {
	var sm *cursor.StructureMismatch
	if errors.As(err, &sm) {
		return &ParseFailure{Identity: identity, Stage: sm.Stage, Kind: FailureStructure, Message: err.Error()}
	}
	var ie *statblock.InternalError
	if errors.As(err, &ie) {
		return &ParseFailure{Identity: identity, Stage: ie.Stage, Kind: FailureInternal, Message: err.Error(), Stack: ie.Stack}
	}
	return &ParseFailure{Identity: identity, Kind: FailureInternal, Message: err.Error()}
}

// Process linearizes and extracts one raw document.
func (e *Extractor) Process(ctx context.Context, d Document) Result {
	log := e.log.With("doc", d.Identity)

	if e.knownBad.Contains(d.Identity) {
		log.Debug("known-bad document, skipping")
		r := Result{Identity: d.Identity, Outcome: OutcomeSkipped}
		e.metrics.RecordResult(ctx, r)
		return r
	}

	start := time.Now()
	r := e.process(d)
	r.Duration = time.Since(start)

	if f := r.Failure; f != nil {
		switch f.Kind {
		case FailureStructure:
			log.Warn("structure mismatch", "stage", f.Stage, "error", f.Message)
		default:
			log.Error("extraction failed", "stage", f.Stage, "kind", f.Kind, "error", f.Message)
		}
	}
	e.stats.Record(r.Duration, r.Failure != nil)
	e.metrics.RecordResult(ctx, r)
	return r
}

func (e *Extractor) process(d Document) Result {
	p := parser.ForContentType(d.ContentType)
	if d.Filename != "" {
		var err error
		if p, err = parser.ForFile(d.Filename); err != nil {
			return failed(d.Identity, err)
		}
	}
	doc, err := p.Parse(bytes.NewReader(d.Data), d.Identity)
	if err != nil {
		return failed(d.Identity, err)
	}

	rec, fail := e.Extract(doc)
	if fail != nil {
		return Result{Identity: d.Identity, Outcome: OutcomeFailed, Failure: fail}
	}
	return e.accept(d.Identity, rec)
}

// accept drops legacy-ruleset records unless they are wanted.
func (e *Extractor) accept(identity string, rec *statblock.Record) Result {
	if rec.Legacy && !e.includeLegacy {
		return Result{Identity: identity, Outcome: OutcomeExcluded}
	}
	return Result{Identity: identity, Outcome: OutcomeParsed, Record: rec}
}

func failed(identity string, err error) Result {
	return Result{
		Identity: identity,
		Outcome:  OutcomeFailed,
		Failure:  &ParseFailure{Identity: identity, Stage: "linearize", Kind: FailureInput, Message: err.Error()},
	}
}
