package statblock

import (
	"reflect"
	"testing"

	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/quirks"
)

func intPtr(v int) *int { return &v }

func TestReadDR(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []DR
	}{
		{
			name: "single",
			text: " 5/cold iron",
			want: []DR{{Amount: 5, Bypass: "cold iron"}},
		},
		{
			name: "joined by and",
			text: " 10/magic and 5/cold iron",
			want: []DR{{Amount: 10, Bypass: "magic"}, {Amount: 5, Bypass: "cold iron"}},
		},
		{
			name: "repeated label",
			text: " 10/good, DR 5/silver;",
			want: []DR{{Amount: 10, Bypass: "good"}, {Amount: 5, Bypass: "silver"}},
		},
		{
			name: "max absorb",
			text: " 10/magic (100 hp)",
			want: []DR{{Amount: 10, Bypass: "magic", MaxAbsorb: intPtr(100)}},
		},
		{
			name: "max absorb with condition",
			text: " 10/adamantine (stoneskin, 120 points)",
			want: []DR{{Amount: 10, Bypass: "adamantine", MaxAbsorb: intPtr(120), Other: "stoneskin"}},
		},
		{
			name: "other parenthetical",
			text: " 5/evil (only in daylight)",
			want: []DR{{Amount: 5, Bypass: "evil", Other: "only in daylight"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(doctree.Bold("DR"), doctree.Text(tt.text), doctree.Break())
			if err := readDR(s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(s.rec.DR, tt.want) {
				t.Errorf("DR = %+v, want %+v", s.rec.DR, tt.want)
			}
		})
	}
}

func TestReadDR_BadEntry(t *testing.T) {
	s := newTestState(doctree.Bold("DR"), doctree.Text(" varies"), doctree.Break())
	err := readDR(s)
	if _, ok := err.(*FieldMismatch); !ok {
		t.Fatalf("expected FieldMismatch, got %v", err)
	}
}

func TestReadImmunities(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single", " fire", []string{"fire"}},
		{"trailing and", " fire, sleep, and paralysis", []string{"fire", "sleep", "paralysis"}},
		{"trailing semicolon", " cold, poison;", []string{"cold", "poison"}},
		{"bracketed commas", " mind-affecting effects, energy (cold, fire)", []string{"mind-affecting effects", "energy (cold, fire)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(doctree.Bold("Immune"), doctree.Text(tt.text), doctree.Break())
			if err := readImmunities(s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(s.rec.Immunities, tt.want) {
				t.Errorf("immunities = %q, want %q", s.rec.Immunities, tt.want)
			}
		})
	}
}

func TestReadResistances(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Resistances
	}{
		{
			name: "energy",
			text: " cold 10, fire 10",
			want: Resistances{Energy: map[string]int{"cold": 10, "fire": 10}},
		},
		{
			name: "joined by and",
			text: " acid 10 and electricity 5",
			want: Resistances{Energy: map[string]int{"acid": 10, "electricity": 5}},
		},
		{
			name: "qualifier",
			text: " Cold 10, fire 10 (only in daylight)",
			want: Resistances{
				Energy:     map[string]int{"cold": 10, "fire": 10},
				Qualifiers: map[string]string{"fire": "only in daylight"},
			},
		},
		{
			name: "custom entry and ability",
			text: " sonic 5, see text; channel resistance +4",
			want: Resistances{
				Energy:  map[string]int{"sonic": 5},
				Custom:  []string{"see text"},
				Ability: "channel resistance +4",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(doctree.Bold("Resist"), doctree.Text(tt.text), doctree.Break())
			if err := readResistances(s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(*s.rec.Resistances, tt.want) {
				t.Errorf("resistances = %+v, want %+v", *s.rec.Resistances, tt.want)
			}
		})
	}
}

func TestReadResistances_ReversedEntryOverride(t *testing.T) {
	nodes := []*doctree.Node{doctree.Bold("Resist"), doctree.Text(" 5 fire"), doctree.Break()}

	s := newTestStateWith(New(testClasses(), quirks.Builtin()), nodes...)
	s.rec.Title2 = "Queen of Staves"
	if err := readResistances(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.rec.Resistances.Energy; !reflect.DeepEqual(got, map[string]int{"fire": 5}) {
		t.Errorf("energy = %v, want fire 5", got)
	}

	// Without the override the reversed entry is kept verbatim.
	s = newTestState(nodes...)
	if err := readResistances(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r := s.rec.Resistances; r.Energy != nil || !reflect.DeepEqual(r.Custom, []string{"5 fire"}) {
		t.Errorf("resistances = %+v", r)
	}
}

func TestReadWeaknesses(t *testing.T) {
	s := newTestState(
		doctree.Bold("Weaknesses"), doctree.Text(" vulnerability to cold, light sensitivity"), doctree.Break(),
		h3("Offense"),
	)
	if err := readWeaknesses(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"vulnerability to cold", "light sensitivity"}
	if !reflect.DeepEqual(s.rec.Weaknesses, want) {
		t.Errorf("weaknesses = %q, want %q", s.rec.Weaknesses, want)
	}
	if n := s.c.Peek(); n.Level != 3 {
		t.Errorf("cursor stopped at %s, want the section heading", n.Describe())
	}
}
