package doctree

import (
	"strings"
	"unicode/utf8"
)

// Node tags. Element nodes use their lowercase HTML tag name; the two
// synthetic tags start with '#' so they can never collide with markup.
const (
	TagText   = "#text"
	TagEnd    = "#end"
	TagBreak  = "br"
	TagBold   = "b"
	TagItalic = "i"
	TagSup    = "sup"
	TagStrike = "s"
	TagAnchor = "a"
	TagH1     = "h1"
	TagH2     = "h2"
	TagH3     = "h3"
)

// Node is one content node of a linearized statblock document.
// Text runs carry Text; spans, anchors and headings carry Children.
// Nodes are never mutated after the node stream is produced.
type Node struct {
	Tag      string  // Discriminator, see the Tag* constants
	Text     string  // Text run content, or heading plain text
	Level    int     // Heading level (1-6), 0 otherwise
	Class    string  // Class attribute of headings
	Href     string  // Anchor target
	Src      string  // Image source for img elements
	Children []*Node // Inline children of spans, anchors, headings and opaque blocks
}

// Document is one statblock page ready for extraction.
type Document struct {
	Identity string  // Canonical source URL
	Nodes    []*Node // Linearized content, terminated by an end sentinel
}

// Text returns a text run node.
func Text(s string) *Node { return &Node{Tag: TagText, Text: s} }

// Break returns a line break node.
func Break() *Node { return &Node{Tag: TagBreak} }

// End returns the terminal sentinel node.
func End() *Node { return &Node{Tag: TagEnd} }

// Span returns an inline span of the given tag.
func Span(tag string, children ...*Node) *Node {
	return &Node{Tag: tag, Children: children}
}

// Bold is shorthand for a bold span holding one text run.
func Bold(s string) *Node { return Span(TagBold, Text(s)) }

// Anchor returns a link node.
func Anchor(text, href string) *Node {
	return &Node{Tag: TagAnchor, Href: href, Children: []*Node{Text(text)}}
}

// Heading returns a section heading node.
func Heading(level int, class, text string) *Node {
	return &Node{
		Tag:      "h" + string(rune('0'+level)),
		Level:    level,
		Class:    class,
		Text:     text,
		Children: []*Node{Text(text)},
	}
}

// IsText reports whether n is a text run.
func (n *Node) IsText() bool { return n.Tag == TagText }

// IsBreak reports whether n is a line break.
func (n *Node) IsBreak() bool { return n.Tag == TagBreak }

// IsEnd reports whether n is the end sentinel.
func (n *Node) IsEnd() bool { return n.Tag == TagEnd }

// IsHeading reports whether n is a section heading.
func (n *Node) IsHeading() bool { return n.Level > 0 }

// IsBlank reports whether n is a whitespace-only text run.
func (n *Node) IsBlank() bool {
	return n.Tag == TagText && strings.TrimSpace(n.Text) == ""
}

// PlainText returns the concatenated text of n and its descendants.
// Breaks contribute nothing, matching how markup renders label text.
func (n *Node) PlainText() string {
	switch {
	case n.Tag == TagText:
		return n.Text
	case n.IsHeading() && len(n.Children) == 0:
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.PlainText())
	}
	return sb.String()
}

// Find returns the first descendant (including n) satisfying match.
func (n *Node) Find(match func(*Node) bool) *Node {
	if match(n) {
		return n
	}
	for _, c := range n.Children {
		if f := c.Find(match); f != nil {
			return f
		}
	}
	return nil
}

// Describe renders a short human-readable description of n for diagnostics.
func (n *Node) Describe() string {
	switch {
	case n == nil:
		return "<nil>"
	case n.Tag == TagText:
		return "text " + quoteShort(n.Text)
	case n.Tag == TagEnd:
		return "end of document"
	case n.Tag == TagBreak:
		return "<br>"
	default:
		return "<" + n.Tag + "> " + quoteShort(n.PlainText())
	}
}

func quoteShort(s string) string {
	if utf8.RuneCountInString(s) > 60 {
		s = string([]rune(s)[:60]) + "..."
	}
	return "\"" + s + "\""
}
