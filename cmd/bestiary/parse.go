package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/bestiary/internal/pipeline"
)

// defaultClassTable is looked up in the corpus directory when --class-table
// is not given.
const defaultClassTable = "class_hds.json"

type parseOptions struct {
	dataDir       string
	out           string
	classTable    string
	quirks        string
	knownBad      string
	workers       int
	includeLegacy bool
	strict        bool
	verbose       bool
}

func parseCmd() *cobra.Command {
	var opts parseOptions
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a cached corpus into records",
		Long: `Parse every page of a cached corpus and write the records as one JSON
object keyed by page URL.

Example:
  bestiary parse --data ./data
  bestiary parse --data ./data --out monsters.json --known-bad bad.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dataDir == "" {
				return fmt.Errorf("--data flag is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runParse(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataDir, "data", "", "corpus directory holding urls.txt and <i>.html")
	f.StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	f.StringVar(&opts.classTable, "class-table", "", "class table (.json or .csv), default <data>/"+defaultClassTable+" when present")
	f.StringVar(&opts.quirks, "quirks", "", "YAML file of extra page quirks")
	f.StringVar(&opts.knownBad, "known-bad", "", "file listing page URLs to skip")
	f.IntVar(&opts.workers, "workers", runtime.NumCPU(), "parallel parse workers")
	f.BoolVar(&opts.includeLegacy, "include-legacy", false, "keep 3.5 legacy statblocks")
	f.BoolVar(&opts.strict, "strict", false, "exit non-zero when any page fails")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every failure")
	return cmd
}

func runParse(ctx context.Context, opts parseOptions, stdout, stderr io.Writer) error {
	level := slog.LevelError
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	classTable := opts.classTable
	if classTable == "" {
		if p := filepath.Join(opts.dataDir, defaultClassTable); fileExists(p) {
			classTable = p
		}
	}

	parser, knownBad, err := pipeline.Resources{
		ClassTable: classTable,
		Quirks:     opts.quirks,
		KnownBad:   opts.knownBad,
	}.Load()
	if err != nil {
		return err
	}
	docs, err := pipeline.LoadCorpus(opts.dataDir)
	if err != nil {
		return err
	}

	ex := pipeline.NewExtractor(pipeline.ExtractorConfig{
		Parser:        parser,
		KnownBad:      knownBad,
		IncludeLegacy: opts.includeLegacy,
	}, log)

	start := time.Now()
	batch, runErr := ex.RunBatch(ctx, docs, opts.workers, nil)

	if err := writeRecords(opts.out, stdout, batch.Records()); err != nil {
		return err
	}
	printSummary(stderr, batch.Summary, time.Since(start))

	if runErr != nil {
		return fmt.Errorf("interrupted after %d of %d pages: %w", batch.Summary.Total, len(docs), runErr)
	}
	if opts.strict && batch.Summary.Failed > 0 {
		return errors.New("some pages failed to parse")
	}
	return nil
}

// writeRecords encodes the records as one JSON object. Map keys encode in
// sorted order, so the output is stable across runs.
func writeRecords(path string, stdout io.Writer, records any) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, s pipeline.Summary, elapsed time.Duration) {
	fmt.Fprintf(w, "Parsed %d of %d pages in %s (failed %d, skipped %d, excluded %d)\n",
		s.Succeeded, s.Total, elapsed.Round(time.Millisecond), s.Failed, s.Skipped, s.Excluded)
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %s: %s at %s: %s\n", f.Identity, f.Kind, f.Stage, f.Message)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
