package statblock

import (
	"strings"
	"testing"

	"github.com/dgallion1/bestiary/internal/doctree"
)

func sup(s string) *doctree.Node { return doctree.Span(doctree.TagSup, doctree.Text(s)) }

func TestReadSpellBlock_Prepared(t *testing.T) {
	s := newTestState(
		doctree.Bold("Cleric Spells Prepared"), doctree.Text(" (CL 5th; concentration +8)"), doctree.Break(),
		doctree.Text("3rd-dispel magic, prayer"), sup("D"), doctree.Break(),
		doctree.Text("1st (4/day, 2 remaining)-bless, quickened magic missile"), doctree.Break(),
		doctree.Text("0 (at will)-guidance, light"), doctree.Break(),
		doctree.Bold("D"), doctree.Text(" domain spell; "),
		doctree.Bold("Domains"), doctree.Text(" Good, Sun"), doctree.Break(),
	)
	if err := readSpellBlock(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.c.AtEnd() {
		t.Errorf("cursor at %s, want end", s.c.Peek().Describe())
	}
	sb := s.rec.Spells
	if sb == nil || len(sb.Sources) != 1 {
		t.Fatalf("spells = %+v", sb)
	}

	src := sb.Sources[0]
	if src.Name != "Cleric" || src.Type != "prepared" || src.CL != 5 {
		t.Errorf("source = %+v", src)
	}
	if src.Concentration == nil || *src.Concentration != 8 {
		t.Errorf("concentration = %v", src.Concentration)
	}
	if strings.Join(src.Domains, ",") != "good,sun" {
		t.Errorf("domains = %q", src.Domains)
	}
	if at := src.Slots[0]; at.IsInt || at.Text != "at-will" {
		t.Errorf("level 0 slots = %+v", at)
	}
	if src.Slots[1].Value != 4 || src.SlotsRemaining[1] != 2 {
		t.Errorf("level 1 slots = %+v, remaining %v", src.Slots[1], src.SlotsRemaining)
	}
	if _, ok := src.Slots[3]; ok {
		t.Errorf("level 3 slots = %+v, want none", src.Slots[3])
	}

	var names []string
	for _, sp := range sb.Entries {
		names = append(names, sp.Name)
	}
	if got := strings.Join(names, ","); got != "dispel magic,prayer,bless,magic missile,guidance,light" {
		t.Fatalf("entries = %s", got)
	}
	prayer := sb.Entries[1]
	if !prayer.Domain || prayer.Level == nil || *prayer.Level != 3 || prayer.Source != "Cleric" {
		t.Errorf("prayer = %+v", prayer)
	}
	if mm := sb.Entries[3]; len(mm.Metamagic) != 1 || mm.Metamagic[0] != "quickened" {
		t.Errorf("magic missile = %+v", mm)
	}
}

func TestParseSpell(t *testing.T) {
	tests := []struct {
		entry string
		kind  string
		check func(t *testing.T, sp Spell)
	}{
		{"fireball (DC 17)", blockSpells, func(t *testing.T, sp Spell) {
			if sp.DC == nil || *sp.DC != 17 || sp.ParenText != "" {
				t.Errorf("spell = %+v", sp)
			}
		}},
		{"fireball (DC 17) (DC 18)", blockSpells, func(t *testing.T, sp Spell) {
			if sp.DC != nil || sp.ParenText != "DC 17" || sp.ParenText2 != "DC 18" {
				t.Errorf("spell = %+v", sp)
			}
		}},
		{"magic missile (2)", blockSpells, func(t *testing.T, sp Spell) {
			if sp.Count == nil || *sp.Count != 2 {
				t.Errorf("spell = %+v", sp)
			}
		}},
		{"fly (CL 12th)", blockSpellLike, func(t *testing.T, sp Spell) {
			if sp.CL == nil || *sp.CL != 12 {
				t.Errorf("spell = %+v", sp)
			}
		}},
		{"d. magic", blockSpells, func(t *testing.T, sp Spell) {
			if sp.Name != "detect magic" {
				t.Errorf("name = %q", sp.Name)
			}
		}},
		{"silent image", blockSpells, func(t *testing.T, sp Spell) {
			if sp.Name != "silent image" || sp.Metamagic != nil {
				t.Errorf("spell = %+v", sp)
			}
		}},
		{"summon (level 4, 1 babau 35%)", blockSpellLike, func(t *testing.T, sp Spell) {
			if sp.Level == nil || *sp.Level != 4 || len(sp.Summons) != 1 {
				t.Fatalf("spell = %+v", sp)
			}
			sum := sp.Summons[0]
			if sum.Name != "babau" || sum.Chance != "35%" || sum.Amount == nil || sum.Amount.Value != 1 {
				t.Errorf("summon = %+v", sum)
			}
		}},
		{"summon (level 3, 1d4 dretches or 1 hezrou, 40%)", blockSpellLike, func(t *testing.T, sp Spell) {
			if len(sp.Summons) != 2 {
				t.Fatalf("summons = %+v", sp.Summons)
			}
			if d := sp.Summons[0]; d.Amount == nil || d.Amount.Text != "1d4" || d.Chance != "40%" {
				t.Errorf("first = %+v", d)
			}
			if h := sp.Summons[1]; h.Name != "hezrou" || h.Chance != "40%" {
				t.Errorf("second = %+v", h)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			sp, err := newTestState().parseSpell(tt.entry, Spell{}, tt.kind)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, sp)
		})
	}
}

func TestReadSpellBlock_SpellLike(t *testing.T) {
	s := newTestState(
		doctree.Bold("Spell-Like Abilities"), doctree.Text(" (CL 10th)"), doctree.Break(),
		doctree.Text("At will-detect magic (DC 12)"), doctree.Break(),
		doctree.Text("1/day-summon (level 4, 1 babau 35%)"), doctree.Break(),
	)
	if err := readSpellBlock(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sla := s.rec.SpellLikeAbilities
	if sla == nil || len(sla.Sources) != 1 || len(sla.Entries) != 2 {
		t.Fatalf("spell-like abilities = %+v", sla)
	}
	if src := sla.Sources[0]; src.Name != "default" || src.CL != 10 {
		t.Errorf("source = %+v", src)
	}
	if e := sla.Entries[0]; e.Freq != "At will" || e.Name != "detect magic" || e.Source != "default" {
		t.Errorf("first = %+v", e)
	}
	if e := sla.Entries[1]; e.Freq != "1/day" || len(e.Summons) != 1 {
		t.Errorf("second = %+v", e)
	}
}

func TestSoleClass(t *testing.T) {
	s := newTestState()
	if got := s.soleClass(); got != "?" {
		t.Errorf("no class = %q, want ?", got)
	}
	s.rec.RaceClass = &RaceClass{Class: []ClassLevel{{Name: "sorcerer", Level: 5}}}
	if got := s.soleClass(); got != "Sorcerer" {
		t.Errorf("one class = %q, want Sorcerer", got)
	}
	s.rec.RaceClass.Class = append(s.rec.RaceClass.Class, ClassLevel{Name: "fighter", Level: 2})
	if got := s.soleClass(); got != "?" {
		t.Errorf("two classes = %q, want ?", got)
	}
}

func TestReadSpellBlock_BadHeader(t *testing.T) {
	s := newTestState(doctree.Bold("Wizard Spells Known"), doctree.Text(" CL 5th"), doctree.Break())
	if _, ok := readSpellBlock(s).(*FieldMismatch); !ok {
		t.Error("expected FieldMismatch")
	}
}

func TestSpellcastingStage_SkipsUnreadableBlock(t *testing.T) {
	var st stage
	for _, p := range pipeline {
		if p.name == "spellcasting" {
			st = p
		}
	}
	s := newTestState(
		doctree.Bold("Wizard Spells Known"), doctree.Text(" CL 5th"), doctree.Break(),
		doctree.Text("1st-magic missile"), doctree.Break(),
		doctree.Bold("Spell-Like Abilities"), doctree.Text(" (CL 3rd)"), doctree.Break(),
		doctree.Text("At will-light"), doctree.Break(),
	)
	if err := s.run([]stage{st}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.rec.Spells != nil {
		t.Errorf("spells = %+v, want none", s.rec.Spells)
	}
	if sla := s.rec.SpellLikeAbilities; sla == nil || len(sla.Entries) != 1 || sla.Entries[0].Name != "light" {
		t.Errorf("spell-like abilities = %+v", sla)
	}
	if len(s.rec.Diagnostics) != 1 || !strings.HasPrefix(s.rec.Diagnostics[0], "spellcasting: ") {
		t.Errorf("diagnostics = %q", s.rec.Diagnostics)
	}
}

func TestReadWildTalents(t *testing.T) {
	s := newTestState(
		doctree.Bold("Kineticist Wild Talents Known"), doctree.Break(),
		doctree.Text("Defense-flesh of stone"), doctree.Break(),
		doctree.Text("Infusions-kinetic blade, extended range"), doctree.Break(),
	)
	if err := readSpellBlock(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wt := s.rec.KineticistWildTalents
	if len(wt["Defense"]) != 1 || len(wt["Infusions"]) != 2 || wt["Infusions"][1] != "extended range" {
		t.Errorf("wild talents = %v", wt)
	}
}

func TestReadPsychicMagic(t *testing.T) {
	s := newTestState(
		doctree.Bold("Psychic Magic"), doctree.Text(" (CL 8th; concentration +10)"), doctree.Break(),
		doctree.Text("12 PE-detect thoughts (2 PE, DC 14), mind thrust II (3 PE)"), doctree.Break(),
	)
	if err := readSpellBlock(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pm := s.rec.PsychicMagic
	if pm == nil || pm.PE.Value != 12 || len(pm.Entries) != 2 || len(pm.Sources) != 1 {
		t.Fatalf("psychic magic = %+v", pm)
	}
	dt := pm.Entries[0]
	if dt.Name != "detect thoughts" || dt.PE == nil || *dt.PE != 2 || dt.DC == nil || *dt.DC != 14 {
		t.Errorf("detect thoughts = %+v", dt)
	}
	if mt := pm.Entries[1]; mt.Name != "mind thrust II" || mt.PE == nil || *mt.PE != 3 {
		t.Errorf("mind thrust = %+v", mt)
	}
}
