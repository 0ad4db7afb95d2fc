package statblock

import (
	"strings"
	"testing"

	"github.com/dgallion1/bestiary/internal/doctree"
)

func h3(text string) *doctree.Node { return doctree.Heading(3, "framing", text) }

func TestReadEcology(t *testing.T) {
	s := newTestState(
		h3("Ecology"),
		doctree.Bold("Environment"), doctree.Text(" temperate forest"), doctree.Break(),
		doctree.Bold("Organization"), doctree.Text(" solitary or gang (2-4)"), doctree.Break(),
		doctree.Bold("Treasure"), doctree.Text(" standard (longsword, chain shirt)"), doctree.Break(),
		h3("Special Abilities"),
	)
	if err := readEcology(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eco := s.rec.Ecology
	if eco.Environment != "temperate forest" || eco.Organization != "solitary or gang (2-4)" {
		t.Errorf("ecology = %+v", eco)
	}
	if eco.TreasureType != "standard" || strings.Join(eco.Treasure, "|") != "longsword|chain shirt" {
		t.Errorf("treasure = %q %q", eco.TreasureType, eco.Treasure)
	}
	if eco.Advancement != nil {
		t.Errorf("advancement = %+v, want none outside 3.5 statblocks", eco.Advancement)
	}
	if !atSection("Special Abilities")(s) {
		t.Errorf("cursor at %s", s.c.Peek().Describe())
	}
}

func TestReadEcology_NPCGear(t *testing.T) {
	s := newTestState(
		h3("Ecology"),
		doctree.Bold("Environment"), doctree.Text(" any urban"), doctree.Break(),
		doctree.Bold("Treasure"), doctree.Text(" NPC Gear (dagger, other treasure)"), doctree.Break(),
	)
	if err := readEcology(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eco := s.rec.Ecology; eco.TreasureType != "NPC Gear" || len(eco.Treasure) != 2 {
		t.Errorf("ecology = %+v", eco)
	}
}

func TestEcologyStage_MissingEnvironment(t *testing.T) {
	var st stage
	for _, p := range pipeline {
		if p.name == "ecology" {
			st = p
		}
	}
	s := newTestState(
		h3("Ecology"),
		doctree.Bold("Organization"), doctree.Text(" solitary"), doctree.Break(),
		h3("Special Abilities"),
	)
	if err := s.run([]stage{st}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.rec.Ecology != nil {
		t.Errorf("ecology = %+v, want none", s.rec.Ecology)
	}
	if len(s.rec.Diagnostics) != 1 || !strings.HasPrefix(s.rec.Diagnostics[0], "ecology: ") {
		t.Errorf("diagnostics = %q", s.rec.Diagnostics)
	}
	if !atSection("Special Abilities")(s) {
		t.Errorf("cursor at %s", s.c.Peek().Describe())
	}
}

func TestParseAdvancement(t *testing.T) {
	s := newTestState()
	adv, err := s.parseAdvancement("1-3 HD (Small); 4-6 HD (Medium), 7+ HD (Large) or by character class; Favored Class fighter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(adv) != 4 {
		t.Fatalf("advancement = %+v", adv)
	}
	if a := adv[0]; a.Type != "size" || a.Size != "Small" || *a.HDMin != 1 || *a.HDMax != 3 {
		t.Errorf("first = %+v", a)
	}
	if a := adv[2]; a.Size != "Large" || *a.HDMin != 7 || a.HDMax != nil {
		t.Errorf("open-ended = %+v", a)
	}
	if a := adv[3]; a.Type != "class" || a.FavoredClass != "fighter" {
		t.Errorf("class = %+v", a)
	}

	if _, err := s.parseAdvancement("grows with age"); err == nil {
		t.Error("expected mismatch for free text")
	}
}

func TestReadSpecialAbilities(t *testing.T) {
	s := newTestState(
		h3("Special Abilities"),
		doctree.Bold("Ferocity (Ex)"), doctree.Text(" A goblin fights on"), doctree.Break(),
		doctree.Text("while it still stands."), doctree.Break(),
		doctree.Bold("Poison (Ex)"), doctree.Text(" Bite-injury; "), doctree.Bold("save"), doctree.Text(" Fort DC 14"),
		h3("Description"),
	)
	if err := readSpecialAbilities(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sa := s.rec.SpecialAbilities
	if got := sa["Ferocity (Ex)"]; got != "A goblin fights on\nwhile it still stands." {
		t.Errorf("ferocity = %q", got)
	}
	if got := sa["Poison (Ex)"]; got != "Bite-injury; save Fort DC 14" {
		t.Errorf("poison = %q", got)
	}
	if len(sa) != 2 {
		t.Errorf("abilities = %v", sa)
	}
}

func TestParagraphEnd(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*doctree.Node
		want  int
	}{
		{"heading", []*doctree.Node{doctree.Text("a"), h3("Description")}, 1},
		{"label after break", []*doctree.Node{doctree.Text("a"), doctree.Break(), doctree.Text(" "), doctree.Bold("Next")}, 3},
		{"inline bold", []*doctree.Node{doctree.Text("a "), doctree.Bold("save"), doctree.Text(" b")}, 3},
		{"double break", []*doctree.Node{doctree.Text("a"), doctree.Break(), doctree.Break(), doctree.Text("b")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paragraphEnd(tt.nodes); got != tt.want {
				t.Errorf("paragraphEnd = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReadDescription(t *testing.T) {
	s := newTestState(
		h3("Description"), doctree.Break(),
		doctree.Text(" Goblins are a race of "), doctree.Span(doctree.TagItalic, doctree.Text("wicked")), doctree.Text(" creatures. "),
		doctree.Heading(1, "title", "Goblin Chief"),
	)
	if err := readDescription(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.rec.DescLong != "Goblins are a race of wicked creatures." {
		t.Errorf("description = %q", s.rec.DescLong)
	}
	if s.c.Peek().Level != 1 {
		t.Errorf("cursor at %s, want next title", s.c.Peek().Describe())
	}
}

func TestReadEcology_TreasureAmounts(t *testing.T) {
	s := newTestState(
		h3("Ecology"),
		doctree.Bold("Environment"), doctree.Text(" any"), doctree.Break(),
		doctree.Bold("Treasure"), doctree.Text(" standard (ring of protection +1, 2,500 gp)"), doctree.Break(),
	)
	if err := readEcology(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.rec.Ecology.Treasure; strings.Join(got, "|") != "ring of protection +1|2,500 gp" {
		t.Errorf("treasure = %q", got)
	}
}
