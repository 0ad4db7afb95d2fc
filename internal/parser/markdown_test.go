package parser

import (
	"fmt"
	"strings"
	"testing"
)

func TestMarkdownParser_FieldLines(t *testing.T) {
	input := `# Goblin

*This creature stands barely three feet tall.*

## Goblin CR 1/3

**Source** [Bestiary pg. 156](Source.aspx?ID=1)
**XP** 135
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "Goblin.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Identity != "Goblin.md" {
		t.Errorf("identity = %q", doc.Identity)
	}

	nodes := doc.Nodes
	if !nodes[len(nodes)-1].IsEnd() {
		t.Fatalf("last node should be the end sentinel, got %s", nodes[len(nodes)-1].Describe())
	}
	if nodes[0].Level != 1 || nodes[0].Text != "Goblin" {
		t.Fatalf("first node = %s, want h1 Goblin", nodes[0].Describe())
	}
	if nodes[1].Tag != "i" {
		t.Fatalf("second node = %s, want italic description", nodes[1].Describe())
	}
	if nodes[2].Level != 2 || nodes[2].Text != "Goblin CR 1/3" {
		t.Fatalf("third node = %s, want h2 title", nodes[2].Describe())
	}

	var bolds []string
	var breaks int
	for _, n := range nodes {
		switch {
		case n.Tag == "b":
			bolds = append(bolds, n.PlainText())
		case n.IsBreak():
			breaks++
		}
	}
	if strings.Join(bolds, ",") != "Source,XP" {
		t.Errorf("bold labels = %v", bolds)
	}
	if breaks != 1 {
		t.Errorf("expected exactly 1 break between field lines, got %d", breaks)
	}
}

func TestMarkdownParser_InlineHTML(t *testing.T) {
	input := "**Feats** Power Attack<sup>B, M</sup>\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sups []string
	for _, n := range doc.Nodes {
		if n.Tag == "sup" {
			sups = append(sups, n.PlainText())
		}
	}
	if len(sups) != 2 || sups[0] != "B" || sups[1] != "M" {
		t.Errorf("superscripts = %q, want [B M]", sups)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"page.html", "*parser.HTMLParser", false},
		{"PAGE.HTM", "*parser.HTMLParser", false},
		{"notes.md", "*parser.MarkdownParser", false},
		{"scan.pdf", "", true},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ForFile(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ForFile(%q): %v", tt.name, err)
			continue
		}
		if got := fmt.Sprintf("%T", p); got != tt.want {
			t.Errorf("ForFile(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}
