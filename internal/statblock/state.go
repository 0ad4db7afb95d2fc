package statblock

import (
	"strings"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/quirks"
)

// state is the per-document extraction context.
type state struct {
	p   *Parser
	c   *cursor.Cursor
	rec *Record

	// Skill lines repeated from the senses line, checked against the
	// skills section.
	perception string
	listen     string
	spot       string
}

func (s *state) quirk(field string) (quirks.Override, bool) {
	return s.p.quirks.Lookup(s.rec.Identity, s.rec.Title2, field)
}

func (s *state) hasQuirk(field string) bool {
	return s.p.quirks.Has(s.rec.Identity, s.rec.Title2, field)
}

func (s *state) mismatch(field, text, reason string) error {
	return &FieldMismatch{Field: field, Text: text, Reason: reason}
}

// fail reports a broken mandatory element at the current position.
func (s *state) fail(expected string) error {
	return s.c.Mismatch(expected)
}

// labelled consumes a bold label and returns the text run that follows it
// up to any node in stop, trimmed.
func (s *state) labelled(label string, stop ...string) (string, error) {
	if _, err := s.c.Expect(cursor.IsBold(label)); err != nil {
		return "", err
	}
	return strings.TrimSpace(s.c.Collect(stop...)), nil
}

// Gate helpers for the stage table.

func atLabel(labels ...string) func(*state) bool {
	return func(s *state) bool { return s.c.AtLabel(labels...) }
}

func atSection(title string) func(*state) bool {
	return func(s *state) bool {
		n := s.c.Peek()
		return n.Level == 3 && n.Text == title
	}
}

func withQuirk(field string) func(*state) bool {
	return func(s *state) bool { return s.hasQuirk(field) }
}

// section consumes a mandatory h3 section heading.
func section(title string) func(*state) error {
	return func(s *state) error {
		s.c.SkipOptionalBreak()
		_, err := s.c.Expect(cursor.IsHeading(3, title))
		return err
	}
}

func optionalBreak(s *state) error {
	s.c.SkipOptionalBreak()
	return nil
}

// lineStops ends a field at the next line break or section heading.
var lineStops = []string{doctree.TagBreak, doctree.TagH1, doctree.TagH2, doctree.TagH3}
