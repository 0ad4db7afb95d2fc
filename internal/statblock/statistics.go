package statblock

import (
	"regexp"
	"strings"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
)

var abilityNames = []string{"STR", "DEX", "CON", "INT", "WIS", "CHA"}

// readAbilityScores requires the six scores exactly once each, in
// canonical order.
func readAbilityScores(s *state) error {
	as := &s.rec.AbilityScores
	slots := []*grammar.IntOrText{&as.STR, &as.DEX, &as.CON, &as.INT, &as.WIS, &as.CHA}
	n := 0
	for {
		label, ok := s.c.PeekLabel()
		if !ok {
			break
		}
		if n == len(abilityNames) {
			return s.fail("line break after " + abilityNames[n-1])
		}
		if strings.ToUpper(label) != abilityNames[n] {
			return s.fail("bold " + abilityNames[n])
		}
		s.c.Advance(1)
		v := grammar.CleanTrailing(s.c.Collect(fieldStops...), ',')
		// "." appears as a misprinted dash.
		if v != "-" && v != "." {
			*slots[n] = grammar.ParseIntLenient(v)
		}
		n++
	}
	if n != len(abilityNames) {
		return s.fail("bold " + abilityNames[n])
	}
	return s.c.SkipBreak()
}

var maneuver = regexp.MustCompile(`^(-|[+-]?\d+)(?:\s*\(([^)]+)\))?$`)

// readCombatManeuvers reads Base Atk with CMB and CMD, or with Grapple on
// 3.5 statblocks.
func readCombatManeuvers(s *state) error {
	text, err := s.labelled("Base Atk", doctree.TagBold)
	if err != nil {
		return err
	}
	s.rec.BAB = grammar.ParseIntLenient(grammar.CleanTrailing(text, ';'))

	if s.rec.Legacy {
		text, err := s.labelled("Grapple", doctree.TagBreak, doctree.TagBold, doctree.TagH1, doctree.TagH2, doctree.TagH3)
		if err != nil {
			return err
		}
		g := grammar.ParseIntLenient(text)
		s.rec.Grapple = &g
		s.c.SkipOptionalBreak()
		return nil
	}

	text, err = s.labelled("CMB", doctree.TagBold)
	if err != nil {
		return err
	}
	if s.rec.CMB, s.rec.CMBOther, err = s.maneuver("CMB", text); err != nil {
		return err
	}
	text, err = s.labelled("CMD", lineStops...)
	if err != nil {
		return err
	}
	if s.rec.CMD, s.rec.CMDOther, err = s.maneuver("CMD", text); err != nil {
		return err
	}
	s.c.SkipOptionalBreak()
	return nil
}

func (s *state) maneuver(field, text string) (*grammar.IntOrText, string, error) {
	text = grammar.CleanTrailing(text, ';')
	m := maneuver.FindStringSubmatch(text)
	if m == nil {
		return nil, "", s.mismatch(field, text, "combat maneuver modifier")
	}
	v := &grammar.IntOrText{}
	if m[1] != "-" {
		*v = grammar.ParseIntLenient(m[1])
	}
	return v, strings.TrimSpace(m[2]), nil
}

var featEntry = regexp.MustCompile(`^(.+?)(?: \((.+?)\))?$`)

// readFeats reads the feat list. A parenthetical listing several choices
// ("Spell Focus (conjuration, enchantment)") yields one feat per choice.
func readFeats(s *state) error {
	if _, err := s.c.Expect(cursor.IsBold("Feats")); err != nil {
		return err
	}
	text := s.c.CollectText(cursor.Stops(cursor.Sections, cursor.Set{doctree.TagBreak}), cursor.NoTags, cursor.SupOnly)
	var feats []Feat
	for _, entry := range grammar.SplitCommas(strings.TrimSpace(text)) {
		name, marks := grammar.ExtractMarkers(grammar.StripFootnotes(entry))
		var f Feat
		for _, mark := range marks {
			switch mark {
			case "B":
				f.Bonus = true
			case "M":
				f.Mythic = true
			default:
				f.Superscripts = append(f.Superscripts, mark)
			}
		}
		m := featEntry.FindStringSubmatch(name)
		if m == nil {
			return s.mismatch("feats", entry, "feat name")
		}
		if m[2] == "" {
			f.Name = m[1]
			feats = append(feats, f)
			continue
		}
		for _, choice := range grammar.SplitCommas(m[2]) {
			g := f
			g.Superscripts = append([]string(nil), f.Superscripts...)
			g.Name = m[1] + " (" + choice + ")"
			feats = append(feats, g)
		}
	}
	s.rec.Feats = feats
	s.c.SkipOptionalBreak()
	return nil
}

var languageSep = regexp.MustCompile(`[,;] `)

func readLanguages(s *state) error {
	text, err := s.labelled("Languages", doctree.TagH3, doctree.TagBreak)
	if err != nil {
		return err
	}
	s.rec.Languages = grammar.SplitTopLevel(text, languageSep)
	s.c.SkipOptionalBreak()
	return nil
}

func readSpecialQualities(s *state) error {
	text, err := s.labelled("SQ", doctree.TagH3, doctree.TagBreak)
	if err != nil {
		return err
	}
	s.rec.SpecialQualities = grammar.SplitCommas(grammar.StripFootnotes(text))
	s.c.SkipOptionalBreak()
	return nil
}

var gearKinds = map[string]string{
	"Gear":        "gear",
	"Combat Gear": "combat",
	"Other Gear":  "other",
}

func atGear(s *state) bool {
	label, ok := s.c.PeekLabel()
	_, known := gearKinds[label]
	return ok && known
}

func readGear(s *state) error {
	label, _ := s.c.PeekLabel()
	text, err := s.labelled(label, fieldStops...)
	if err != nil {
		return err
	}
	if s.rec.Gear == nil {
		s.rec.Gear = make(map[string][]string)
	}
	s.rec.Gear[gearKinds[label]] = grammar.SplitCommas(grammar.StripFootnotes(grammar.CleanTrailing(text, ';')))
	return nil
}

func readBoon(s *state) error {
	text, err := s.labelled("Boon", lineStops...)
	if err != nil {
		return err
	}
	s.rec.NPCBoon = text
	s.c.SkipOptionalBreak()
	return nil
}

// skipBreaks consumes up to two optional breaks; statistics lines are
// sometimes double spaced.
func skipBreaks(s *state) error {
	s.c.SkipOptionalBreak()
	s.c.SkipOptionalBreak()
	return nil
}
