package lookup

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// DefaultAliases names classes whose hit die is inherited from another
// class and that have no reference page of their own.
var DefaultAliases = map[string]string{
	"Geokineticist":   "Kineticist",
	"Hydrokineticist": "Kineticist",
	"Abjurer":         "Wizard",
	"Conjurer":        "Wizard",
	"Diviner":         "Wizard",
	"Enchanter":       "Wizard",
	"Evoker":          "Wizard",
	"Illusionist":     "Wizard",
	"Necromancer":     "Wizard",
	"Transmuter":      "Wizard",
}

// NoDiceClasses have reference pages but no hit die.
var NoDiceClasses = []string{"Familiar"}

// Builder derives a Table from saved class reference pages.
type Builder struct {
	entries map[string]HitDie
	order   []string
}

func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]HitDie)}
}

func (b *Builder) add(e HitDie) {
	if _, ok := b.entries[e.Name]; !ok {
		b.order = append(b.order, e.Name)
	}
	b.entries[e.Name] = e
}

var (
	hitDieLine  = regexp.MustCompile(`Hit Die: d(\d+)\.`)
	hdParenthes = regexp.MustCompile(`\(d(\d+)\)`)
)

// AddClassPage reads the hit die from one class page. Ordinary classes
// state "Hit Die: dN."; companion-style classes use a bold "HD" label
// followed by "(dN)".
func (b *Builder) AddClassPage(name string, r io.Reader) error {
	name = strings.TrimSpace(name)
	for _, nd := range NoDiceClasses {
		if strings.EqualFold(nd, name) {
			b.add(HitDie{Name: name, Kind: NoDice})
			return nil
		}
	}

	doc, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("parse class page %q: %w", name, err)
	}

	scope := doc
	if label := findByID(doc, "MainContent_DataListTypes_LabelName_0"); label != nil {
		scope = label
	}
	if m := hitDieLine.FindStringSubmatch(textContent(scope)); m != nil {
		size, _ := strconv.Atoi(m[1])
		b.add(HitDie{Name: name, Size: size, Kind: Class})
		return nil
	}

	if size, ok := boldHD(doc); ok {
		b.add(HitDie{Name: name, Size: size, Kind: Class})
		return nil
	}
	return fmt.Errorf("class page %q: no hit die found", name)
}

// boldHD finds the first <b>HD</b> directly inside a span (table headers
// also use the label) and reads the die from the text after it.
func boldHD(n *html.Node) (int, bool) {
	if n.Type == html.ElementNode && n.Data == "b" && strings.TrimSpace(textContent(n)) == "HD" &&
		n.Parent != nil && n.Parent.Data == "span" && n.NextSibling != nil {
		if m := hdParenthes.FindStringSubmatch(textContent(n.NextSibling)); m != nil {
			size, _ := strconv.Atoi(m[1])
			return size, true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if size, ok := boldHD(c); ok {
			return size, true
		}
	}
	return 0, false
}

// AddMythicPaths reads the mythic path index page: every link inside an
// h1 under #main names a path.
func (b *Builder) AddMythicPaths(r io.Reader) (int, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("parse mythic paths page: %w", err)
	}
	main := findByID(doc, "main")
	if main == nil {
		return 0, fmt.Errorf("mythic paths page: no #main element")
	}
	n := 0
	for c := main.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "h1" {
			continue
		}
		forEachElement(c, "a", func(a *html.Node) {
			if name := strings.TrimSpace(textContent(a)); name != "" {
				b.add(HitDie{Name: name, Kind: Mythic})
				n++
			}
		})
	}
	return n, nil
}

// AddAliases copies the entry of each base class to its alias. Every base
// must already be present.
func (b *Builder) AddAliases(aliases map[string]string) error {
	for alias, base := range aliases {
		e, ok := b.entries[base]
		if !ok {
			return fmt.Errorf("alias %q: base class %q not in table", alias, base)
		}
		e.Name = alias
		b.add(e)
	}
	return nil
}

// Table returns the built table.
func (b *Builder) Table() *Table {
	entries := make([]HitDie, 0, len(b.order))
	for _, name := range b.order {
		entries = append(entries, b.entries[name])
	}
	return NewTable(entries...)
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findByID(c, id); f != nil {
			return f
		}
	}
	return nil
}

func forEachElement(n *html.Node, tag string, fn func(*html.Node)) {
	if n.Type == html.ElementNode && n.Data == tag {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		forEachElement(c, tag, fn)
	}
}

// textContent recursively extracts all text from an HTML node.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
