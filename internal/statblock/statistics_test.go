package statblock

import (
	"errors"
	"testing"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
)

func scoreNodes(labels ...string) []*doctree.Node {
	var nodes []*doctree.Node
	for i, l := range labels {
		v := " 10, "
		if i == len(labels)-1 {
			v = " 10"
		}
		nodes = append(nodes, doctree.Bold(l), doctree.Text(v))
	}
	return append(nodes, doctree.Break())
}

func TestReadAbilityScores(t *testing.T) {
	s := newTestState(
		doctree.Bold("Str"), doctree.Text(" 15, "),
		doctree.Bold("Dex"), doctree.Text(" 12, "),
		doctree.Bold("Con"), doctree.Text(" -, "),
		doctree.Bold("Int"), doctree.Text(" 8, "),
		doctree.Bold("Wis"), doctree.Text(" 11, "),
		doctree.Bold("Cha"), doctree.Text(" 6"),
		doctree.Break(),
	)
	if err := readAbilityScores(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	as := s.rec.AbilityScores
	if as.STR.Value != 15 || as.DEX.Value != 12 || as.CHA.Value != 6 {
		t.Errorf("scores = %+v", as)
	}
	if !as.CON.IsNull() {
		t.Errorf("CON = %+v, want null", as.CON)
	}
	if !s.c.AtEnd() {
		t.Errorf("cursor at %s, want end", s.c.Peek().Describe())
	}
}

func TestReadAbilityScores_Order(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
	}{
		{"swapped", []string{"Str", "Con", "Dex", "Int", "Wis", "Cha"}},
		{"seventh score", []string{"Str", "Dex", "Con", "Int", "Wis", "Cha", "Luck"}},
		{"missing charisma", []string{"Str", "Dex", "Con", "Int", "Wis"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(scoreNodes(tt.labels...)...)
			err := readAbilityScores(s)
			var sm *cursor.StructureMismatch
			if !errors.As(err, &sm) {
				t.Fatalf("error = %v, want StructureMismatch", err)
			}
		})
	}
}

func TestReadCombatManeuvers(t *testing.T) {
	s := newTestState(
		doctree.Bold("Base Atk"), doctree.Text(" +4; "),
		doctree.Bold("CMB"), doctree.Text(" -; "),
		doctree.Bold("CMD"), doctree.Text(" 18 (22 vs. trip)"),
		doctree.Break(),
	)
	if err := readCombatManeuvers(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.rec.BAB.Value != 4 {
		t.Errorf("BAB = %+v", s.rec.BAB)
	}
	if s.rec.CMB == nil || !s.rec.CMB.IsNull() {
		t.Errorf("CMB = %+v, want null", s.rec.CMB)
	}
	if s.rec.CMD == nil || s.rec.CMD.Value != 18 || s.rec.CMDOther != "22 vs. trip" {
		t.Errorf("CMD = %+v (%q)", s.rec.CMD, s.rec.CMDOther)
	}
}

func TestReadCombatManeuvers_Grapple(t *testing.T) {
	s := newTestState(
		doctree.Bold("Base Atk"), doctree.Text(" +2; "),
		doctree.Bold("Grapple"), doctree.Text(" +5"),
		doctree.Break(),
	)
	s.rec.Legacy = true
	if err := readCombatManeuvers(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.rec.Grapple == nil || s.rec.Grapple.Value != 5 || s.rec.CMB != nil {
		t.Errorf("grapple = %+v, CMB = %+v", s.rec.Grapple, s.rec.CMB)
	}
}

func TestReadCombatManeuvers_BadModifier(t *testing.T) {
	s := newTestState(
		doctree.Bold("Base Atk"), doctree.Text(" +4; "),
		doctree.Bold("CMB"), doctree.Text(" plenty; "),
		doctree.Bold("CMD"), doctree.Text(" 18"),
	)
	var fm *FieldMismatch
	if err := readCombatManeuvers(s); !errors.As(err, &fm) || fm.Field != "CMB" {
		t.Errorf("error = %v, want CMB mismatch", err)
	}
}

func TestReadFeats(t *testing.T) {
	s := newTestState(
		doctree.Bold("Feats"),
		doctree.Text(" Alertness, Power Attack"),
		doctree.Span(doctree.TagSup, doctree.Text("B")),
		doctree.Text(", Spell Focus (conjuration, enchantment)"),
		doctree.Span(doctree.TagSup, doctree.Text("M")),
		doctree.Break(),
	)
	if err := readFeats(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Feat{
		{Name: "Alertness"},
		{Name: "Power Attack", Bonus: true},
		{Name: "Spell Focus (conjuration)", Mythic: true},
		{Name: "Spell Focus (enchantment)", Mythic: true},
	}
	if len(s.rec.Feats) != len(want) {
		t.Fatalf("feats = %+v", s.rec.Feats)
	}
	for i, f := range s.rec.Feats {
		w := want[i]
		if f.Name != w.Name || f.Bonus != w.Bonus || f.Mythic != w.Mythic || len(f.Superscripts) != 0 {
			t.Errorf("feat %d = %+v, want %+v", i, f, w)
		}
	}
}

func TestReadLanguages(t *testing.T) {
	s := newTestState(doctree.Bold("Languages"), doctree.Text(" Common, Goblin; telepathy 100 ft."), doctree.Break())
	if err := readLanguages(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Common", "Goblin", "telepathy 100 ft."}
	if len(s.rec.Languages) != len(want) {
		t.Fatalf("languages = %q", s.rec.Languages)
	}
	for i := range want {
		if s.rec.Languages[i] != want[i] {
			t.Errorf("language %d = %q, want %q", i, s.rec.Languages[i], want[i])
		}
	}
}

func TestGearStage(t *testing.T) {
	s := newTestState(
		doctree.Bold("Combat Gear"), doctree.Text(" potion of cure light wounds; "),
		doctree.Bold("Other Gear"), doctree.Text(" leather armor, 12 gp"),
		doctree.Break(),
	)
	err := s.run([]stage{{name: "gear", when: atGear, optional: true, repeat: true, run: readGear}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.rec.Gear["combat"]; len(got) != 1 || got[0] != "potion of cure light wounds" {
		t.Errorf("combat gear = %q", got)
	}
	if got := s.rec.Gear["other"]; len(got) != 2 || got[1] != "12 gp" {
		t.Errorf("other gear = %q", got)
	}
	if !s.c.Peek().IsBreak() {
		t.Errorf("cursor at %s, want break", s.c.Peek().Describe())
	}
}

func TestReadGear_ThousandsSeparator(t *testing.T) {
	s := newTestState(
		doctree.Bold("Other Gear"), doctree.Text(" +1 longsword, 1,200 gp"), doctree.Break(),
	)
	if err := readGear(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.rec.Gear["other"]; len(got) != 2 || got[1] != "1,200 gp" {
		t.Errorf("other gear = %q", got)
	}
}
