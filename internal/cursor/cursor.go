// Package cursor walks a linearized statblock document one node at a time.
package cursor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
)

// Cursor is a position in one document's node sequence. It is owned by a
// single extraction and never shared.
type Cursor struct {
	identity string
	nodes    []*doctree.Node
	pos      int
	stage    string
}

// New returns a cursor at the start of doc. A missing end sentinel is
// appended to a private copy of the node slice.
func New(doc *doctree.Document) *Cursor {
	nodes := doc.Nodes
	if len(nodes) == 0 || !nodes[len(nodes)-1].IsEnd() {
		nodes = append(slices.Clip(nodes), doctree.End())
	}
	return &Cursor{identity: doc.Identity, nodes: nodes}
}

func (c *Cursor) Identity() string { return c.identity }

// Stage names the extractor currently driving the cursor; it is carried
// into every StructureMismatch.
func (c *Cursor) Stage() string         { return c.stage }
func (c *Cursor) SetStage(stage string) { c.stage = stage }

func (c *Cursor) Pos() int { return c.pos }

// Seek moves to an absolute position, clamped to the sentinel.
func (c *Cursor) Seek(pos int) { c.pos = c.clamp(pos) }

func (c *Cursor) clamp(i int) int {
	switch {
	case i < 0:
		return 0
	case i >= len(c.nodes):
		return len(c.nodes) - 1
	}
	return i
}

// Peek returns the current node.
func (c *Cursor) Peek() *doctree.Node { return c.nodes[c.pos] }

// PeekAt returns the node offset positions away from the current one.
// Offsets past either end yield the first node or the sentinel.
func (c *Cursor) PeekAt(offset int) *doctree.Node { return c.nodes[c.clamp(c.pos+offset)] }

// Advance moves forward n nodes, stopping at the sentinel.
func (c *Cursor) Advance(n int) { c.pos = c.clamp(c.pos + n) }

// Next returns the current node and advances past it.
func (c *Cursor) Next() *doctree.Node {
	n := c.Peek()
	c.Advance(1)
	return n
}

func (c *Cursor) AtEnd() bool { return c.Peek().IsEnd() }

// Remaining returns the nodes from the current position up to, not
// including, the sentinel.
func (c *Cursor) Remaining() []*doctree.Node { return c.nodes[c.pos : len(c.nodes)-1] }

// Expect checks the current node against p and advances past it.
func (c *Cursor) Expect(p Predicate) (*doctree.Node, error) {
	n := c.Peek()
	if !p.Match(n) {
		return nil, c.Mismatch(p.Desc)
	}
	c.Advance(1)
	return n, nil
}

// Mismatch builds a StructureMismatch at the current position.
func (c *Cursor) Mismatch(expected string) *StructureMismatch {
	return &StructureMismatch{
		Document: c.identity,
		Stage:    c.stage,
		Expected: expected,
		Actual:   c.Peek().Describe(),
		Position: c.pos,
	}
}

// SkipBreak requires a line break and moves past it and any blank text
// run that follows.
func (c *Cursor) SkipBreak() error {
	if _, err := c.Expect(IsBreak); err != nil {
		return err
	}
	c.SkipBlank()
	return nil
}

// SkipOptionalBreak is SkipBreak without the requirement. It reports
// whether a break was consumed.
func (c *Cursor) SkipOptionalBreak() bool {
	if !c.Peek().IsBreak() {
		return false
	}
	c.Advance(1)
	c.SkipBlank()
	return true
}

// SkipBlank moves past one whitespace-only text run.
func (c *Cursor) SkipBlank() {
	if c.Peek().IsBlank() {
		c.Advance(1)
	}
}

// Set is a set of node tags. doctree.TagText stands for text runs.
type Set []string

func (s Set) Has(n *doctree.Node) bool { return slices.Contains(s, n.Tag) }

// Sets used throughout the extractors.
var (
	SupOnly  = Set{doctree.TagSup}
	NoTags   = Set{}
	Sections = Set{doctree.TagH1, doctree.TagH2, doctree.TagH3}
)

// Stops combines tag sets.
func Stops(sets ...Set) Set {
	var out Set
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

// CollectText accumulates text from the current position until a node in
// stop (or the sentinel). Spans are recursed into, breaks become "\n",
// nodes in omit are skipped, and nodes in annotate are wrapped in
// grammar markers. The stopping node is not consumed.
func (c *Cursor) CollectText(stop, omit, annotate Set) string {
	var sb strings.Builder
	for !c.AtEnd() && !stop.Has(c.Peek()) {
		collectNode(&sb, c.Next(), stop, omit, annotate)
	}
	return sb.String()
}

// Collect is CollectText with the common defaults: superscripts omitted,
// nothing annotated.
func (c *Cursor) Collect(stop ...string) string {
	return c.CollectText(Set(stop), SupOnly, NoTags)
}

func collectNode(sb *strings.Builder, n *doctree.Node, stop, omit, annotate Set) {
	if omit.Has(n) {
		return
	}
	var s string
	switch {
	case n.IsText():
		s = n.Text
	case n.IsBreak():
		s = "\n"
	case len(n.Children) > 0:
		var inner strings.Builder
		for _, child := range n.Children {
			if stop.Has(child) {
				break
			}
			collectNode(&inner, child, stop, omit, annotate)
		}
		s = inner.String()
	default:
		s = n.PlainText()
	}
	if annotate.Has(n) {
		s = grammar.Mark(s)
	}
	sb.WriteString(s)
}

// StructureMismatch reports that a mandatory grammar element was not found
// where the statblock layout requires it.
type StructureMismatch struct {
	Document string
	Stage    string
	Expected string
	Actual   string
	Position int
}

func (e *StructureMismatch) Error() string {
	return fmt.Sprintf("%s: %s: expected %s at node %d, found %s",
		e.Document, e.Stage, e.Expected, e.Position, e.Actual)
}
