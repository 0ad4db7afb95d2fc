// Package quirks is the registry of per-document overrides for statblocks
// that the general grammar cannot read as published.
package quirks

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fields an override can patch. Each is consulted at exactly one point in
// the extractor pipeline.
const (
	// Race/class line holds only a race; the alignment line follows it.
	RaceOnly = "race_class.race_only"
	// A race-only line follows the alignment line instead of preceding it.
	RaceAfterAlignment = "race_class.after_alignment"
	// An extra unlinked "<name> <page>" citation line follows XP.
	ExtraSourceLine = "sources.extra_line"
	// Text trimmed from the hp parenthetical before it is parsed.
	HPParenthetical = "hp.parenthetical"
	// Hit die size used for a class (Target) or every class (empty Target).
	ClassHitDie = "hp.class_hit_die"
	// Replacement text for the Resist line.
	Resist = "defense.resist"
	// Text trimmed from the melee line.
	Melee = "offense.melee"
	// Split attack groups on every "or", not only after a parenthetical.
	AttackSplitAnyOr = "offense.attack_split_any_or"
	// Damage parenthetical may begin with "touch".
	AttackTouchPrefix = "offense.attack_touch_prefix"
	// "(x or y)" damage is read as two alternative attacks.
	AttackAlternativeDamage = "offense.attack_alternative_damage"
	// Do not split damage entries on "and".
	AttackNoAndSplit = "offense.attack_no_and_split"
	// Split damage entries on "/" before a non-digit.
	AttackSlashSplit = "offense.attack_slash_split"
	// Skill entry (Value) that legitimately carries no bonus.
	SkillWithoutBonus = "statistics.skill_without_bonus"
	// Racial modifiers are one entry despite containing commas.
	RacialModsUnsplit = "statistics.racial_mods_unsplit"
)

var knownFields = []string{
	RaceOnly, RaceAfterAlignment, ExtraSourceLine, HPParenthetical, ClassHitDie,
	Resist, Melee, AttackSplitAnyOr, AttackTouchPrefix, AttackAlternativeDamage,
	AttackNoAndSplit, AttackSlashSplit, SkillWithoutBonus, RacialModsUnsplit,
}

// Override patches one field of one document. A document is matched by its
// exact identity or by its exact statblock name.
type Override struct {
	Document   string `yaml:"document,omitempty" json:"document,omitempty"`
	Statblock  string `yaml:"statblock,omitempty" json:"statblock,omitempty"`
	Field      string `yaml:"field" json:"field"`
	Target     string `yaml:"target,omitempty" json:"target,omitempty"`
	Value      string `yaml:"value,omitempty" json:"value,omitempty"`
	TrimSuffix string `yaml:"trim_suffix,omitempty" json:"trim_suffix,omitempty"`
	Note       string `yaml:"note,omitempty" json:"note,omitempty"`
}

// Apply returns the patched form of s: Value replaces it outright,
// otherwise TrimSuffix is removed from its end.
func (o Override) Apply(s string) string {
	if o.Value != "" {
		return o.Value
	}
	if o.TrimSuffix != "" {
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), o.TrimSuffix))
	}
	return s
}

func (o Override) validate() error {
	if o.Document == "" && o.Statblock == "" {
		return fmt.Errorf("override for %q names neither document nor statblock", o.Field)
	}
	if !slices.Contains(knownFields, o.Field) {
		return fmt.Errorf("override for %s%s: unknown field %q", o.Document, o.Statblock, o.Field)
	}
	return nil
}

// Registry is the read-only set of overrides for a run.
type Registry struct {
	entries []Override
}

// New builds a registry from entries. Later entries take precedence over
// earlier ones for the same document and field.
func New(entries ...Override) (*Registry, error) {
	for _, o := range entries {
		if err := o.validate(); err != nil {
			return nil, err
		}
	}
	return &Registry{entries: slices.Clone(entries)}, nil
}

// With returns a registry holding r's entries followed by extra.
func (r *Registry) With(extra ...Override) (*Registry, error) {
	return New(append(slices.Clone(r.entries), extra...)...)
}

// Entries lists every override, for auditing.
func (r *Registry) Entries() []Override { return slices.Clone(r.entries) }

func (r *Registry) Len() int { return len(r.entries) }

// Lookup returns the override of field for a document, matched by identity
// first and statblock name second.
func (r *Registry) Lookup(identity, statblock, field string) (Override, bool) {
	all := r.LookupAll(identity, statblock, field)
	if len(all) == 0 {
		return Override{}, false
	}
	return all[0], true
}

// LookupAll returns every override of field for a document, most specific
// and most recently added first.
func (r *Registry) LookupAll(identity, statblock, field string) []Override {
	if r == nil {
		return nil
	}
	var byDoc, byName []Override
	for i := len(r.entries) - 1; i >= 0; i-- {
		o := r.entries[i]
		if o.Field != field {
			continue
		}
		switch {
		case o.Document != "" && o.Document == identity:
			byDoc = append(byDoc, o)
		case o.Document == "" && o.Statblock != "" && o.Statblock == statblock:
			byName = append(byName, o)
		}
	}
	return append(byDoc, byName...)
}

// Has reports whether field is overridden for a document.
func (r *Registry) Has(identity, statblock, field string) bool {
	_, ok := r.Lookup(identity, statblock, field)
	return ok
}

// File is the YAML overlay format.
//
//	overrides:
//	  - statblock: "Queen of Staves"
//	    field: defense.resist
//	    value: "fire 5"
//	    note: "printed as Resist 5 fire"
type File struct {
	Overrides []Override `yaml:"overrides"`
}

// LoadFile reads a YAML overlay from disk.
func LoadFile(path string) ([]Override, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("quirks: open %q: %w", path, err)
	}
	defer f.Close()

	entries, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("quirks: parse %q: %w", path, err)
	}
	return entries, nil
}

// Load parses a YAML overlay. Unknown keys are rejected.
func Load(r io.Reader) ([]Override, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("quirks: decode yaml: %w", err)
	}
	for _, o := range file.Overrides {
		if err := o.validate(); err != nil {
			return nil, fmt.Errorf("quirks: %w", err)
		}
	}
	return file.Overrides, nil
}
