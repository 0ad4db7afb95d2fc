package statblock

import (
	"slices"
	"strings"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
)

// sweepFootnotes lifts footnote lines ("* applies only in hybrid form")
// out of the node stream into Record.Footnotes. A footnote line is a break
// followed by text starting with a glyph and a space, or by a superscript
// holding only a glyph; it runs to the next break or heading. The cursor
// is rebuilt over the remaining nodes so the document itself is untouched.
func sweepFootnotes(s *state) error {
	nodes := s.c.Remaining()
	out := make([]*doctree.Node, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		glyph := ""
		if n.IsBreak() && i+1 < len(nodes) {
			glyph = footnoteGlyph(nodes[i+1])
		}
		if glyph == "" {
			out = append(out, n)
			continue
		}

		var sb strings.Builder
		j := i + 1
		for ; j < len(nodes) && !isLineEnd(nodes[j]); j++ {
			sb.WriteString(nodes[j].PlainText())
		}
		line := strings.TrimSpace(sb.String())
		text := strings.TrimSpace(strings.TrimPrefix(line, glyph))
		if text == "" {
			return s.mismatch("footnote", line, "footnote without text")
		}
		if _, dup := s.rec.Footnotes[glyph]; dup {
			return s.mismatch("footnote", line, "footnote glyph "+glyph+" declared twice")
		}
		if s.rec.Footnotes == nil {
			s.rec.Footnotes = make(map[string]string)
		}
		s.rec.Footnotes[glyph] = text
		i = j - 1
	}

	stage := s.c.Stage()
	s.c = cursor.New(&doctree.Document{Identity: s.rec.Identity, Nodes: out})
	s.c.SetStage(stage)
	return nil
}

func footnoteGlyph(n *doctree.Node) string {
	switch n.Tag {
	case doctree.TagText:
		t := strings.TrimSpace(n.Text)
		for _, g := range grammar.FootnoteGlyphs {
			if strings.HasPrefix(t, g+" ") {
				return g
			}
		}
	case doctree.TagSup:
		t := strings.TrimSpace(n.PlainText())
		if slices.Contains(grammar.FootnoteGlyphs, t) {
			return t
		}
	}
	return ""
}

func isLineEnd(n *doctree.Node) bool {
	return n.IsBreak() || n.IsEnd() || (n.IsHeading() && n.Level <= 3)
}

// skipPreamble moves to the statblock title: an h1 followed by the h2 CR
// line, optionally with an italic description between them. Pages that
// open with lore sections carry their own h1 first.
func skipPreamble(s *state) error {
	for !s.c.AtEnd() {
		if s.c.Peek().Level == 1 {
			next := s.c.PeekAt(1)
			if next.Level == 2 || (next.Tag == doctree.TagItalic && s.c.PeekAt(2).Level == 2) {
				break
			}
		}
		s.c.Advance(1)
	}
	s.rec.SecondStatblock = countStatblocks(s.c.Remaining()) > 1
	return nil
}

// countStatblocks counts h2 title lines directly followed, before any
// other heading, by a Defense section.
func countStatblocks(nodes []*doctree.Node) int {
	count := 0
	inBlock := false
	for _, n := range nodes {
		switch {
		case !n.IsHeading():
		case inBlock && n.Level == 3 && n.Text == "Defense":
			count++
			inBlock = false
		case inBlock && n.Level <= 3:
			inBlock = false
		case n.Level == 2:
			inBlock = true
		}
	}
	return count
}
