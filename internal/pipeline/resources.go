package pipeline

import (
	"fmt"

	"github.com/dgallion1/bestiary/internal/lookup"
	"github.com/dgallion1/bestiary/internal/quirks"
	"github.com/dgallion1/bestiary/internal/statblock"
)

// Resources names the files an Extractor is built from. Empty paths mean
// an empty class table, the built-in quirks only, and no known-bad list.
type Resources struct {
	ClassTable string
	Quirks     string
	KnownBad   string
}

// Load reads the class table, merges the quirks overlay over the built-in
// registry and reads the known-bad list.
func (r Resources) Load() (*statblock.Parser, *quirks.KnownBad, error) {
	classes := lookup.NewTable()
	if r.ClassTable != "" {
		t, err := lookup.LoadFile(r.ClassTable)
		if err != nil {
			return nil, nil, fmt.Errorf("class table: %w", err)
		}
		classes = t
	}

	registry := quirks.Builtin()
	if r.Quirks != "" {
		extra, err := quirks.LoadFile(r.Quirks)
		if err != nil {
			return nil, nil, fmt.Errorf("quirks: %w", err)
		}
		if registry, err = registry.With(extra...); err != nil {
			return nil, nil, fmt.Errorf("quirks: %w", err)
		}
	}

	var knownBad *quirks.KnownBad
	if r.KnownBad != "" {
		kb, err := quirks.ReadKnownBadFile(r.KnownBad)
		if err != nil {
			return nil, nil, fmt.Errorf("known-bad list: %w", err)
		}
		knownBad = kb
	}
	return statblock.New(classes, registry), knownBad, nil
}
