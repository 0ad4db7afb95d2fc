package statblock

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
	"github.com/dgallion1/bestiary/internal/quirks"
)

func TestReadSources(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*doctree.Node
		want  []Source
	}{
		{
			name: "one citation",
			nodes: []*doctree.Node{
				doctree.Bold("Source"), doctree.Text(" "),
				doctree.Anchor("Bestiary pg. 156", "PathfinderRPGBestiary"), doctree.Break(),
			},
			want: []Source{{Name: "Bestiary", Page: 156, Link: "PathfinderRPGBestiary"}},
		},
		{
			name: "two citations",
			nodes: []*doctree.Node{
				doctree.Bold("Source"), doctree.Text(" "),
				doctree.Anchor("Bestiary pg. 156", "PathfinderRPGBestiary"), doctree.Text(", "),
				doctree.Anchor("Bestiary 5 pg. 12", " PathfinderRPGBestiary5 "), doctree.Break(),
			},
			want: []Source{
				{Name: "Bestiary", Page: 156, Link: "PathfinderRPGBestiary"},
				{Name: "Bestiary 5", Page: 12, Link: "PathfinderRPGBestiary5"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(append(tt.nodes, doctree.Bold("XP"))...)
			if err := readSources(s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(s.rec.Sources, tt.want) {
				t.Errorf("sources = %+v, want %+v", s.rec.Sources, tt.want)
			}
			if !s.c.AtLabel("XP") {
				t.Errorf("cursor stopped at %s, want the XP label", s.c.Peek().Describe())
			}
		})
	}
}

func TestReadSources_NoCitation(t *testing.T) {
	s := newTestState(doctree.Bold("Source"), doctree.Text(" Bestiary pg. 156"), doctree.Break())
	err := readSources(s)
	var sm *cursor.StructureMismatch
	if !errors.As(err, &sm) {
		t.Fatalf("expected StructureMismatch, got %v", err)
	}
}

func TestReadSources_BadCitation(t *testing.T) {
	s := newTestState(doctree.Bold("Source"), doctree.Text(" "), doctree.Anchor("Bestiary", "x"), doctree.Break())
	if _, ok := readSources(s).(*FieldMismatch); !ok {
		t.Fatal("expected FieldMismatch for a citation without a page")
	}
}

func TestReadExtraSource(t *testing.T) {
	p := New(testClasses(), quirks.Builtin())
	s := newTestStateWith(p, doctree.Text("Tome of Horrors Complete 442"), doctree.Break(), doctree.Text("LE Medium outsider"))
	s.rec.Title2 = "Nupperibo"
	s.rec.Sources = []Source{{Name: "Bestiary 2", Page: 90, Link: "PathfinderRPGBestiary2"}}

	if !withQuirk(quirks.ExtraSourceLine)(s) {
		t.Fatal("extra source stage should run for this statblock")
	}
	if err := readExtraSource(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Source{
		{Name: "Bestiary 2", Page: 90, Link: "PathfinderRPGBestiary2"},
		{Name: "Tome of Horrors Complete", Page: 442},
	}
	if !reflect.DeepEqual(s.rec.Sources, want) {
		t.Errorf("sources = %+v, want %+v", s.rec.Sources, want)
	}

	other := newTestStateWith(p, doctree.Text("Tome of Horrors Complete 442"))
	other.rec.Title2 = "Lemure"
	if withQuirk(quirks.ExtraSourceLine)(other) {
		t.Error("extra source stage should not run for other statblocks")
	}
}

func TestReadExtraSource_NoPage(t *testing.T) {
	s := newTestState(doctree.Text("Tome of Horrors Complete"), doctree.Break())
	if _, ok := readExtraSource(s).(*FieldMismatch); !ok {
		t.Fatal("expected FieldMismatch")
	}
}

func TestReadRaceClass(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		sources []Source
		want    RaceClass
	}{
		{
			name: "race and class",
			line: "Goblin warrior 1",
			want: RaceClass{Race: "Goblin", Class: []ClassLevel{{Name: "warrior", Level: 1}}},
		},
		{
			name: "prefixes and deity",
			line: "Old advanced human cleric of Sarenrae 5",
			want: RaceClass{
				Prefix: []string{"old", "advanced"},
				Race:   "Human",
				Class:  []ClassLevel{{Name: "cleric", Level: 5, Deity: "Sarenrae"}},
			},
		},
		{
			name: "archetype and multiclass",
			line: "Half-elf fighter (archer) 6/wizard 2",
			want: RaceClass{
				Race: "Half-elf",
				Class: []ClassLevel{
					{Name: "fighter", Level: 6, Archetype: "archer"},
					{Name: "wizard", Level: 2},
				},
			},
		},
		{
			name: "source with bare page",
			line: "Young red dragon (Bestiary 4 12, 14)",
			want: RaceClass{
				Prefix:  []string{"young"},
				Race:    "Red dragon",
				Sources: []RaceSource{{Name: "Bestiary 4", Page: 12}, {Name: "Bestiary 4", Page: 14}},
			},
		},
		{
			name:    "see page",
			line:    "Variant ghoul (see page 20)",
			sources: []Source{{Name: "Bestiary 6", Page: 50}},
			want: RaceClass{
				Prefix:  []string{"variant"},
				Race:    "Ghoul",
				Sources: []RaceSource{{Name: "Bestiary 6", Page: 20}},
			},
		},
		{
			name: "variant inside the race",
			line: "Dwarf variant fighter 3",
			want: RaceClass{
				Prefix: []string{"variant"},
				Race:   "Dwarf variant",
				Class:  []ClassLevel{{Name: "fighter", Level: 3}},
			},
		},
		{
			name: "augmented",
			line: "Human vampire wizard 9 (augmented humanoid)",
			want: RaceClass{Race: "Human vampire (augmented humanoid)", Class: []ClassLevel{{Name: "wizard", Level: 9}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(
				doctree.Text(tt.line), doctree.Break(),
				doctree.Text("NE Small humanoid (goblinoid)"), doctree.Break(),
				doctree.Bold("Init"),
			)
			s.rec.Sources = tt.sources
			if err := readRaceClass(s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := tt.want
			want.Raw = tt.line
			if !reflect.DeepEqual(*s.rec.RaceClass, want) {
				t.Errorf("race/class = %+v, want %+v", *s.rec.RaceClass, want)
			}
			if s.rec.Alignment.Raw != "NE" || s.rec.Size != "Small" || s.rec.Type != "humanoid" {
				t.Errorf("alignment line = %+v %q %q", s.rec.Alignment, s.rec.Size, s.rec.Type)
			}
			if !s.c.AtLabel("Init") {
				t.Errorf("cursor stopped at %s, want the Init label", s.c.Peek().Describe())
			}
		})
	}
}

func TestReadRaceClass_Mismatch(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"deity on a martial class", "Human fighter of Iomedae 3"},
		{"bare page without a book", "Human (14)"},
		{"unreadable citation", "Human (Bestiary)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(
				doctree.Text(tt.line), doctree.Break(),
				doctree.Text("LN Medium humanoid (human)"), doctree.Break(),
			)
			if _, ok := readRaceClass(s).(*FieldMismatch); !ok {
				t.Fatal("expected FieldMismatch")
			}
		})
	}
}

func TestReadRaceClass_AlignmentOnly(t *testing.T) {
	s := newTestState(doctree.Text("Always CE Huge dragon (evil, fire)"), doctree.Break(), doctree.Bold("Init"))
	if err := readRaceClass(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.rec.RaceClass != nil {
		t.Errorf("race/class = %+v, want none", s.rec.RaceClass)
	}
	if s.rec.Alignment != (Alignment{Raw: "Always CE", Cleaned: "CE"}) {
		t.Errorf("alignment = %+v", s.rec.Alignment)
	}
	if !reflect.DeepEqual(s.rec.Subtypes, []string{"evil", "fire"}) {
		t.Errorf("subtypes = %q", s.rec.Subtypes)
	}
}

func TestReadRaceClass_RaceOnly(t *testing.T) {
	s := newTestStateWith(New(testClasses(), quirks.Builtin()),
		doctree.Text("Unique mummified cleric 12"), doctree.Break(),
		doctree.Text("LE Medium undead"), doctree.Break(),
		doctree.Bold("Init"),
	)
	s.rec.Title2 = "The Moldering Emperor"
	if err := readRaceClass(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := RaceClass{Raw: "Unique mummified cleric 12", Race: "Unique mummified cleric 12"}
	if !reflect.DeepEqual(*s.rec.RaceClass, want) {
		t.Errorf("race/class = %+v, want %+v", *s.rec.RaceClass, want)
	}
	if s.rec.Alignment.Raw != "LE" || s.rec.Type != "undead" {
		t.Errorf("alignment = %+v, type = %q", s.rec.Alignment, s.rec.Type)
	}
}

func TestReadRaceClass_RaceAfterAlignment(t *testing.T) {
	nodes := func(race string) []*doctree.Node {
		return []*doctree.Node{
			doctree.Text("CE Large outsider (chaotic, demon, evil, extraplanar)"), doctree.Break(),
			doctree.Anchor(race, "MonsterDisplay.aspx?ItemName=Marilith"), doctree.Break(),
			doctree.Bold("Init"),
		}
	}
	p := New(testClasses(), quirks.Builtin())

	s := newTestStateWith(p, nodes("unique marilith")...)
	s.rec.Title2 = "Ugash-Iram"
	if err := readRaceClass(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := RaceClass{Raw: "unique marilith", Prefix: []string{"unique"}, Race: "Marilith"}
	if !reflect.DeepEqual(*s.rec.RaceClass, want) {
		t.Errorf("race/class = %+v, want %+v", *s.rec.RaceClass, want)
	}
	if s.rec.Size != "Large" || len(s.rec.Subtypes) != 4 {
		t.Errorf("size = %q, subtypes = %q", s.rec.Size, s.rec.Subtypes)
	}
	if !s.c.AtLabel("Init") {
		t.Errorf("cursor stopped at %s, want the Init label", s.c.Peek().Describe())
	}

	s = newTestStateWith(p, nodes("marilith")...)
	s.rec.Title2 = "Ugash-Iram"
	if _, ok := readRaceClass(s).(*FieldMismatch); !ok {
		t.Error("expected FieldMismatch for a race line without a prefix")
	}
}

func TestReadInitiative(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Initiative
	}{
		{"plain", " +6; ", Initiative{Bonus: 6}},
		{"negative", " -1;", Initiative{Bonus: -1}},
		{"dual", " +8/-12, dual initiative;", Initiative{Bonus: 8, Secondary: intPtr(-12), Ability: "dual initiative"}},
		{"conditional", " +2 (+6 in darkness);", Initiative{Bonus: 2, Other: map[string]int{"in darkness": 6}}},
		{"ability", " +3; uncanny initiative;", Initiative{Bonus: 3, Ability: "uncanny initiative"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(doctree.Bold("Init"), doctree.Text(tt.text), doctree.Bold("Senses"))
			if err := readInitiative(s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(s.rec.Initiative, tt.want) {
				t.Errorf("initiative = %+v, want %+v", s.rec.Initiative, tt.want)
			}
		})
	}
}

func TestReadInitiative_MissingSemicolon(t *testing.T) {
	s := newTestState(doctree.Bold("Init"), doctree.Text(" +7"), doctree.Bold("Senses"))
	if _, ok := readInitiative(s).(*FieldMismatch); !ok {
		t.Fatal("expected FieldMismatch")
	}
}

func TestReadAuras(t *testing.T) {
	radius := func(v int) *grammar.IntOrText {
		r := grammar.Int(v)
		return &r
	}
	s := newTestState(
		doctree.Bold("Aura"),
		doctree.Text(" frightful presence (30 ft., DC 15), stench (30 ft., DC 14 Fort, 10 rounds), cold (10 feet, Will DC 18 negates, 1d4 rounds), unholy aura (40-ft. radius; shaken), despair"),
		doctree.Break(),
	)
	if err := readAuras(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Aura{
		{Name: "frightful presence", Radius: radius(30), DC: intPtr(15)},
		{Name: "stench", Radius: radius(30), DC: intPtr(14), DCType: "Fort", Duration: "10 rounds"},
		{Name: "cold", Radius: radius(10), DC: intPtr(18), DCType: "Will", Duration: "1d4 rounds"},
		{Name: "unholy aura", Radius: radius(40), Other: []string{"shaken"}},
		{Name: "despair"},
	}
	if !reflect.DeepEqual(s.rec.Auras, want) {
		t.Errorf("auras = %+v, want %+v", s.rec.Auras, want)
	}
}
