package parser

import (
	"strings"
	"testing"
)

const page = `<html><body><div id="main"><table><tr><td><span>
<h1 class="title">Goblin</h1><i>Small humanoid.</i>
<h2 class="title">Goblin CR 1/3</h2>
<b>Source</b> <a href="Source.aspx?ID=1">Bestiary pg. 156</a><br/>
<b>XP</b> 135<br></br>
<b>Init</b> +6; <b>Senses</b> darkvision 60 ft.; Perception −1
<h3 class="framing">Defense</h3>
</span></td></tr></table></div></body></html>`

func TestHTMLParser_ContentRoot(t *testing.T) {
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(page), "https://example.org/Goblin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nodes := doc.Nodes
	if nodes[0].Level != 1 || nodes[0].Class != "title" {
		t.Fatalf("first node = %s, want h1.title", nodes[0].Describe())
	}
	last := nodes[len(nodes)-2]
	if last.Level != 3 || last.Text != "Defense" {
		t.Errorf("node before end = %s, want Defense heading", last.Describe())
	}
	for _, n := range nodes {
		if n.Tag == "a" && n.Href != "Source.aspx?ID=1" {
			t.Errorf("anchor href = %q", n.Href)
		}
		if n.IsText() && strings.Contains(n.Text, "−") {
			t.Errorf("dash variant survived cleanup: %q", n.Text)
		}
	}
}

func TestHTMLParser_PairedBreakCollapses(t *testing.T) {
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(page), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	breaks := 0
	for _, n := range doc.Nodes {
		if n.IsBreak() {
			breaks++
		}
	}
	if breaks != 2 {
		t.Errorf("expected 2 breaks, got %d", breaks)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a\nb", "a b"},
		{"a \nb", "a b"},
		{"a\r\n b", "a b"},
		{"x<br>y", "x<br/>y"},
		{"x<br></br>y", "x<br/>y"},
		{"x< br / >y", "x<br/>y"},
		{"10–20", "10-20"},
		{"a &mdash; b", "a - b"},
		{"it’s", "it's"},
		{"soft\u00adhyphen", "soft hyphen"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTMLParser_FallsBackToBody(t *testing.T) {
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(`<p><b>XP</b> 400</p>`), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Nodes) < 3 || doc.Nodes[0].Tag != "b" {
		t.Fatalf("nodes = %d, first = %s", len(doc.Nodes), doc.Nodes[0].Describe())
	}
	if doc.Nodes[len(doc.Nodes)-2].IsBreak() {
		t.Error("synthetic break before end should be dropped")
	}
}
