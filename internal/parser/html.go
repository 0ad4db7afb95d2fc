package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/bestiary/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles statblock pages rendered as HTML.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, identity string) (*doctree.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	doc, err := html.Parse(strings.NewReader(Clean(string(raw))))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &doctree.Document{
		Identity: identity,
		Nodes:    Linearize(contentRoot(doc)),
	}, nil
}

var (
	strayWhitespace = regexp.MustCompile(`[\r\n\x{00AD}]+`)
	pairedBreak     = regexp.MustCompile(`<\s*br\s*/?\s*>\s*<\s*/\s*br\s*>`)
	anyBreak        = regexp.MustCompile(`<\s*/?\s*br\s*/?\s*>`)
	dashVariants    = regexp.MustCompile(`[−—–‐‑‒―]|&ndash;|&mdash;`)
)

// Clean normalizes raw markup before tree construction: stray line
// terminators and soft hyphens, malformed break tags, dash variants and
// curly apostrophes.
func Clean(raw string) string {
	raw = cleanStrayWhitespace(raw)
	raw = pairedBreak.ReplaceAllString(raw, "<br/>")
	raw = anyBreak.ReplaceAllString(raw, "<br/>")
	raw = dashVariants.ReplaceAllString(raw, "-")
	return strings.ReplaceAll(raw, "’", "'")
}

// cleanStrayWhitespace deletes runs of \r, \n and soft hyphens that border
// real whitespace and replaces the remaining runs with a single space.
func cleanStrayWhitespace(s string) string {
	locs := strayWhitespace.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		sb.WriteString(s[last:loc[0]])
		before, _ := utf8.DecodeLastRuneInString(s[:loc[0]])
		after, _ := utf8.DecodeRuneInString(s[loc[1]:])
		if !unicode.IsSpace(before) && !unicode.IsSpace(after) {
			sb.WriteByte(' ')
		}
		last = loc[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// contentRoot finds the statblock container: the first span inside a table
// cell under #main. Pages without that layout fall back to <body>.
func contentRoot(doc *html.Node) *html.Node {
	if main := findElement(doc, func(n *html.Node) bool { return attr(n, "id") == "main" }); main != nil {
		if span := findElement(main, func(n *html.Node) bool { return n.Data == "span" && hasAncestor(n, "td") }); span != nil {
			return span
		}
	}
	if body := findElement(doc, func(n *html.Node) bool { return n.Data == "body" }); body != nil {
		return body
	}
	return doc
}

// Linearize flattens the children of root into an ordered node sequence.
// Inline spans keep their children; block containers are dissolved. The
// returned slice always ends with the end sentinel.
func Linearize(root *html.Node) []*doctree.Node {
	l := &linearizer{synthetic: make(map[*doctree.Node]bool)}
	var out []*doctree.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		l.walk(c, &out)
	}
	out = l.tidy(out)
	return append(out, doctree.End())
}

type linearizer struct {
	// Breaks inserted at block ends, as opposed to breaks from markup.
	synthetic map[*doctree.Node]bool
}

func (l *linearizer) walk(n *html.Node, out *[]*doctree.Node) {
	switch n.Type {
	case html.TextNode:
		*out = append(*out, doctree.Text(n.Data))
		return
	case html.ElementNode:
	default:
		l.walkChildren(n, out)
		return
	}

	switch tag := strings.ToLower(n.Data); tag {
	case "script", "style", "nav", "footer", "header", "head", "title", "noscript":
		return
	case "br":
		*out = append(*out, doctree.Break())
	case "h1", "h2", "h3", "h4", "h5", "h6":
		*out = append(*out, l.heading(n, int(tag[1]-'0')))
	case "b", "strong":
		*out = append(*out, l.span(doctree.TagBold, n))
	case "i", "em":
		*out = append(*out, l.span(doctree.TagItalic, n))
	case "s", "strike", "del":
		*out = append(*out, l.span(doctree.TagStrike, n))
	case "sup":
		*out = append(*out, l.superscripts(n)...)
	case "a":
		a := l.span(doctree.TagAnchor, n)
		a.Href = strings.TrimSpace(attr(n, "href"))
		*out = append(*out, a)
	case "img":
		*out = append(*out, &doctree.Node{Tag: "img", Src: attr(n, "src")})
	case "ul", "ol", "table", "hr":
		*out = append(*out, l.span(tag, n))
	case "p", "div", "li", "blockquote", "tr":
		l.walkChildren(n, out)
		l.blockBreak(out)
	default:
		l.walkChildren(n, out)
	}
}

func (l *linearizer) walkChildren(n *html.Node, out *[]*doctree.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		l.walk(c, out)
	}
}

func (l *linearizer) span(tag string, n *html.Node) *doctree.Node {
	node := &doctree.Node{Tag: tag}
	l.walkChildren(n, &node.Children)
	return node
}

func (l *linearizer) heading(n *html.Node, level int) *doctree.Node {
	h := &doctree.Node{
		Tag:   n.Data,
		Level: level,
		Class: attr(n, "class"),
	}
	l.walkChildren(n, &h.Children)
	h.Text = strings.TrimSpace(h.PlainText())
	return h
}

var supSeparator = regexp.MustCompile(`[;,] `)

// superscripts splits a superscript listing several footnote markers
// ("B, M") into one superscript node per marker.
func (l *linearizer) superscripts(n *html.Node) []*doctree.Node {
	sup := l.span(doctree.TagSup, n)
	text := sup.PlainText()
	if !supSeparator.MatchString(text) {
		return []*doctree.Node{sup}
	}
	var out []*doctree.Node
	for _, part := range supSeparator.Split(text, -1) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, doctree.Span(doctree.TagSup, doctree.Text(part)))
	}
	return out
}

func (l *linearizer) blockBreak(out *[]*doctree.Node) {
	if len(*out) == 0 || (*out)[len(*out)-1].IsBreak() {
		return
	}
	br := doctree.Break()
	l.synthetic[br] = true
	*out = append(*out, br)
}

// tidy drops whitespace-only runs and synthetic breaks that sit against a
// heading or the end of the content, where they carry no meaning.
func (l *linearizer) tidy(nodes []*doctree.Node) []*doctree.Node {
	out := make([]*doctree.Node, 0, len(nodes))
	for i, n := range nodes {
		droppable := n.IsBlank() || l.synthetic[n]
		if droppable {
			next := nextMeaningful(nodes, i+1, l.synthetic)
			prevHeading := len(out) > 0 && out[len(out)-1].IsHeading()
			if next == nil || next.IsHeading() || (prevHeading && n.IsBlank()) {
				continue
			}
		}
		out = append(out, n)
	}
	if len(out) > 0 && out[0].IsBlank() {
		out = out[1:]
	}
	return out
}

func nextMeaningful(nodes []*doctree.Node, from int, synthetic map[*doctree.Node]bool) *doctree.Node {
	for _, n := range nodes[from:] {
		if n.IsBlank() || synthetic[n] {
			continue
		}
		return n
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAncestor(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findElement(c, match); f != nil {
			return f
		}
	}
	return nil
}
