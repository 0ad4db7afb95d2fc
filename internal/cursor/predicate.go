package cursor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/bestiary/internal/doctree"
)

// Predicate is a named node test used by Expect.
type Predicate struct {
	Desc  string
	Match func(*doctree.Node) bool
}

var (
	IsBreak = Predicate{Desc: "line break", Match: (*doctree.Node).IsBreak}
	IsText  = Predicate{Desc: "text", Match: (*doctree.Node).IsText}
)

// IsTag matches any node with the given tag.
func IsTag(tag string) Predicate {
	return Predicate{
		Desc:  "<" + tag + ">",
		Match: func(n *doctree.Node) bool { return n.Tag == tag },
	}
}

// IsBold matches a bold span whose trimmed text is one of labels. With no
// labels any bold span matches.
func IsBold(labels ...string) Predicate {
	desc := "bold label"
	if len(labels) > 0 {
		desc = fmt.Sprintf("bold %q", strings.Join(labels, "|"))
	}
	return Predicate{
		Desc: desc,
		Match: func(n *doctree.Node) bool {
			if n.Tag != doctree.TagBold {
				return false
			}
			return len(labels) == 0 || slices.Contains(labels, strings.TrimSpace(n.PlainText()))
		},
	}
}

// IsHeading matches a heading of the given level. A non-empty text must
// match the heading text exactly.
func IsHeading(level int, text string) Predicate {
	desc := fmt.Sprintf("h%d", level)
	if text != "" {
		desc += fmt.Sprintf(" %q", text)
	}
	return Predicate{
		Desc: desc,
		Match: func(n *doctree.Node) bool {
			return n.Level == level && (text == "" || n.Text == text)
		},
	}
}

// Label returns the trimmed text of a bold span, and whether n is one.
func Label(n *doctree.Node) (string, bool) {
	if n.Tag != doctree.TagBold {
		return "", false
	}
	return strings.TrimSpace(n.PlainText()), true
}

// PeekLabel returns the bold label at the current position, if any.
func (c *Cursor) PeekLabel() (string, bool) { return Label(c.Peek()) }

// AtLabel reports whether the current node is a bold span with one of
// the given labels.
func (c *Cursor) AtLabel(labels ...string) bool {
	return IsBold(labels...).Match(c.Peek())
}
