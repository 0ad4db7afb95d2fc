// Package statblock extracts structured records from linearized statblock
// documents.
package statblock

import (
	"errors"
	"fmt"
	"regexp"
	"runtime/debug"
	"strconv"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/lookup"
	"github.com/dgallion1/bestiary/internal/quirks"
)

// Parser runs the field extractor pipeline. It holds only read-only
// tables and is safe for concurrent use.
type Parser struct {
	classes *lookup.Table
	quirks  *quirks.Registry

	// Compiled from the class table.
	classLine  *regexp.Regexp
	classEntry *regexp.Regexp
}

// New returns a parser. A nil table or registry is treated as empty.
func New(classes *lookup.Table, registry *quirks.Registry) *Parser {
	if classes == nil {
		classes = lookup.NewTable()
	}
	if registry == nil {
		registry, _ = quirks.New()
	}
	names := classes.ClassPattern()
	block := names + ` (?:of [\w' -]+ )?(?:\([^)]+?\) )?\d+`
	return &Parser{
		classes:    classes,
		quirks:     registry,
		classLine:  regexp.MustCompile(`(?i)(?:^|\s+)` + block + `(?:/` + block + `)*$`),
		classEntry: regexp.MustCompile(`(?i)^(` + names + `) (?:of ([\w' -]+) )?(?:\(([^)]+?)\) )?(\d+)$`),
	}
}

// Parse extracts one record. Errors are *cursor.StructureMismatch when the
// document does not fit the statblock layout, or *InternalError when
// extraction panicked.
func (p *Parser) Parse(doc *doctree.Document) (*Record, error) {
	return p.parse(doc, pipeline)
}

func (p *Parser) parse(doc *doctree.Document, stages []stage) (rec *Record, err error) {
	s := &state{
		p:   p,
		c:   cursor.New(doc),
		rec: &Record{Identity: doc.Identity},
	}
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = &InternalError{
				Document: doc.Identity,
				Stage:    s.c.Stage(),
				Value:    r,
				Stack:    string(debug.Stack()),
			}
		}
	}()

	if err := s.run(stages); err != nil {
		return nil, err
	}
	return s.rec, nil
}

// stage is one entry of the extractor table. when gates the stage on a
// lookahead test; a nil when always runs. repeat re-runs the stage while
// when holds. skip recovers from a FieldMismatch in an optional stage by
// moving past the field's text.
type stage struct {
	name     string
	when     func(*state) bool
	optional bool
	repeat   bool
	run      func(*state) error
	skip     func(*state)
}

func (s *state) run(stages []stage) error {
	for _, st := range stages {
		s.c.SetStage(st.name)
		for {
			if st.when != nil && !st.when(s) {
				break
			}
			start := s.c.Pos()
			if err := st.run(s); err != nil {
				var fm *FieldMismatch
				if !errors.As(err, &fm) {
					return err
				}
				if !st.optional {
					return &cursor.StructureMismatch{
						Document: s.rec.Identity,
						Stage:    st.name,
						Expected: fm.Reason,
						Actual:   strconv.Quote(fm.Text),
						Position: s.c.Pos(),
					}
				}
				s.diagnose("%s: %s", st.name, fm.Error())
				s.c.Seek(start)
				skip := st.skip
				if skip == nil {
					skip = skipField
				}
				skip(s)
			}
			if !st.repeat || s.c.Pos() == start {
				break
			}
		}
	}
	return nil
}

// skipField moves past a label and its text, up to the next break,
// heading or bold label.
func skipField(s *state) {
	s.c.Advance(1)
	s.c.Collect(doctree.TagBreak, doctree.TagBold, doctree.TagH1, doctree.TagH2, doctree.TagH3)
}

func (s *state) diagnose(format string, args ...any) {
	s.rec.Diagnostics = append(s.rec.Diagnostics, fmt.Sprintf(format, args...))
}
