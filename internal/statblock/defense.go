package statblock

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
	"github.com/dgallion1/bestiary/internal/lookup"
	"github.com/dgallion1/bestiary/internal/quirks"
)

// fieldStops ends an inline field at the next label, break or section.
var fieldStops = []string{doctree.TagBold, doctree.TagBreak, doctree.TagH3}

var (
	acLine      = regexp.MustCompile(`^(-?\d+)[,;]\s+touch\s+([-+]?\d+)[,;]\s+flat-?footed\s+([-+]?\d+)(?:\s*;?\s*\((.+?)\))?(?:;?\s*(.+))?\.?$`)
	acComponent = regexp.MustCompile(`^([+-]\d+)\s+(.+)$`)
	acSep       = regexp.MustCompile(`[,;] `)
)

func readAC(s *state) error {
	text, err := s.labelled("AC", doctree.TagBreak)
	if err != nil {
		return err
	}
	m := acLine.FindStringSubmatch(text)
	if m == nil {
		return s.mismatch("AC", text, "armor class, touch and flat-footed")
	}
	ac := AC{Other: grammar.UnwrapParens(m[5])}
	ac.AC, _ = strconv.Atoi(m[1])
	ac.Touch, _ = grammar.ParseInt(m[2])
	ac.FlatFooted, _ = grammar.ParseInt(m[3])
	for _, entry := range grammar.SplitTopLevel(m[4], acSep) {
		cm := acComponent.FindStringSubmatch(entry)
		if cm == nil {
			ac.ComponentsOther = append(ac.ComponentsOther, entry)
			continue
		}
		if ac.Components == nil {
			ac.Components = make(map[string]int)
		}
		ac.Components[strings.ToLower(strings.TrimSpace(cm[2]))], _ = grammar.ParseInt(cm[1])
	}
	s.rec.AC = ac
	return s.c.SkipBreak()
}

var (
	hpLine      = regexp.MustCompile(`^(\d+)(?:\s+each)?\s*\((.+?)(?: plus (.+?))?\)(?:[;,] (.+))?$`)
	hpAbility   = regexp.MustCompile(`^(fast healing|regeneration)\s+(\d+)(?:\s*\((.+?)\))?$`)
	hitDiceLine = regexp.MustCompile(`^(?:(\d+) HD[;,] )?((?:\d+d\d+\+)+)?(\d+d\d+)(?:\+?([+-]\d+))?(?: HD)?$`)
	diceBlock   = regexp.MustCompile(`^(\d+)d(\d+)`)
)

func readHP(s *state) error {
	text, err := s.labelled("hp", doctree.TagBreak)
	if err != nil {
		return err
	}
	text = grammar.StripFootnotes(text)
	m := hpLine.FindStringSubmatch(text)
	if m == nil {
		return s.mismatch("hp", text, "hit points with a dice parenthetical")
	}
	hp := HP{Long: m[2], Plus: strings.TrimSpace(m[3])}
	hp.Total, _ = strconv.Atoi(m[1])
	if trailer := strings.TrimSpace(m[4]); trailer != "" {
		if am := hpAbility.FindStringSubmatch(trailer); am != nil {
			v, _ := strconv.Atoi(am[2])
			weakness := strings.TrimSpace(am[3])
			if am[1] == "fast healing" {
				hp.FastHealing, hp.FastHealingWeakness = &v, weakness
			} else {
				hp.Regeneration, hp.RegenerationWeakness = &v, weakness
			}
		} else {
			hp.Other = trailer
		}
	}

	if err := s.hitDice(&hp); err != nil {
		return err
	}
	s.rec.HP = hp
	return s.c.SkipBreak()
}

// hitDice reads the hp parenthetical and apportions its dice between the
// declared classes and the creature's racial hit dice.
func (s *state) hitDice(hp *HP) error {
	long := hp.Long
	if o, ok := s.quirk(quirks.HPParenthetical); ok {
		long = o.Apply(long)
	}
	m := hitDiceLine.FindStringSubmatch(long)
	if m == nil {
		return s.mismatch("hp", long, "hit dice expression")
	}
	if m[4] != "" {
		hp.BonusHP, _ = strconv.Atoi(m[4])
	}

	blocks := []string{m[3]}
	if m[2] != "" {
		parts := strings.Split(m[2], "+")
		blocks = append(parts[:len(parts)-1], blocks...)
	}
	total := make(map[int]int)
	for _, b := range blocks {
		bm := diceBlock.FindStringSubmatch(b)
		if bm == nil {
			return s.mismatch("hp", b, "dice block")
		}
		num, _ := strconv.Atoi(bm[1])
		die, _ := strconv.Atoi(bm[2])
		total[die] += num
	}

	var declared *int
	if m[1] != "" {
		n, _ := strconv.Atoi(m[1])
		declared = &n
	}

	var classes []lookup.ClassLevel
	if rc := s.rec.RaceClass; rc != nil {
		for _, c := range rc.Class {
			classes = append(classes, lookup.ClassLevel{Name: c.Name, Level: c.Level})
		}
	}
	a := lookup.Apportion(total, declared, classes, s.p.classes, s.dieOverride)
	for _, name := range a.MythicPaths {
		for i := range s.rec.RaceClass.Class {
			if s.rec.RaceClass.Class[i].Name == name {
				s.rec.RaceClass.Class[i].MythicPath = true
			}
		}
	}
	for _, reason := range a.Reasons {
		s.diagnose("hit dice: %s", reason)
	}
	hp.HD = HitDice{Class: a.Class, Racial: a.Racial, Num: a.Num, Inconsistent: a.Inconsistent}
	return nil
}

func (s *state) dieOverride(class string) (int, bool) {
	size, found := 0, false
	for _, o := range s.p.quirks.LookupAll(s.rec.Identity, s.rec.Title2, quirks.ClassHitDie) {
		if o.Target != "" && !strings.EqualFold(o.Target, class) {
			continue
		}
		if n, err := strconv.Atoi(o.Value); err == nil {
			size, found = n, true
		}
	}
	return size, found
}

var saveLine = regexp.MustCompile(`^([+-]?\s*\d+)\s*(?:\((.+?)\))?\s*(?:;\s+)?(.+?)?$`)

func readSaves(s *state) error {
	saves := Saves{}
	for _, save := range []struct {
		label string
		value *int
		other *string
	}{
		{"Fort", &saves.Fort, &saves.FortOther},
		{"Ref", &saves.Ref, &saves.RefOther},
		{"Will", &saves.Will, &saves.WillOther},
	} {
		text, err := s.labelled(save.label, fieldStops...)
		if err != nil {
			return err
		}
		text = grammar.CleanTrailing(text, ',')
		m := saveLine.FindStringSubmatch(text)
		if m == nil {
			return s.mismatch(save.label, text, "saving throw bonus")
		}
		*save.value, _ = grammar.ParseInt(m[1])
		*save.other = strings.TrimSpace(m[2])
		if rest := strings.TrimSpace(m[3]); rest != "" {
			// Only the last save may carry a note covering all three.
			if save.label != "Will" {
				return s.mismatch(save.label, text, "save bonus without trailing text")
			}
			saves.Other = rest
		}
	}
	s.rec.Saves = saves
	s.c.SkipOptionalBreak()
	return nil
}

func readDefensiveAbilities(s *state) error {
	text, err := s.labelled("Defensive Abilities", fieldStops...)
	if err != nil {
		return err
	}
	s.rec.DefensiveAbilities = grammar.SplitCommas(grammar.StripFootnotes(grammar.CleanTrailing(text, ';')))
	return nil
}

var (
	drSep   = regexp.MustCompile(`((?:,|\s+and)(?:\s+DR)?\s+)\d+/`)
	drEntry = regexp.MustCompile(`^(\d+)/\s*(.+?)\s*(?:\((?:(?:(.+?), )?(\d+) (?:hp|hit points|points)|(.+?))?\))?$`)
)

func readDR(s *state) error {
	text, err := s.labelled("DR", fieldStops...)
	if err != nil {
		return err
	}
	for _, entry := range grammar.SplitTopLevel(grammar.CleanTrailing(text, ';'), drSep) {
		m := drEntry.FindStringSubmatch(entry)
		if m == nil {
			return s.mismatch("DR", entry, `"<amount>/<bypass>" entry`)
		}
		dr := DR{Bypass: m[2], Other: m[3]}
		dr.Amount, _ = strconv.Atoi(m[1])
		if m[4] != "" {
			v, _ := strconv.Atoi(m[4])
			dr.MaxAbsorb = &v
		}
		if dr.Other == "" {
			dr.Other = m[5]
		}
		s.rec.DR = append(s.rec.DR, dr)
	}
	return nil
}

func readImmunities(s *state) error {
	text, err := s.labelled("Immune", fieldStops...)
	if err != nil {
		return err
	}
	s.rec.Immunities = grammar.TrimLeadingAnd(grammar.SplitCommas(grammar.CleanTrailing(text, ';')))
	return nil
}

var (
	resistAbility = regexp.MustCompile(`^(.+); (.+)$`)
	resistSep     = regexp.MustCompile(`(?:,?\s+and\s+|,)`)
	resistEntry   = regexp.MustCompile(`^(.+?)\s+(\d+)(?:\s*\((.+?)\))?$`)
)

func readResistances(s *state) error {
	text, err := s.labelled("Resist", fieldStops...)
	if err != nil {
		return err
	}
	text = grammar.CleanTrailing(text, ';')
	res := &Resistances{}
	if m := resistAbility.FindStringSubmatch(text); m != nil {
		res.Ability = strings.TrimSpace(m[2])
		text = strings.TrimSpace(m[1])
	}
	if o, ok := s.quirk(quirks.Resist); ok {
		text = o.Apply(text)
	}
	for _, entry := range grammar.SplitTopLevel(text, resistSep) {
		m := resistEntry.FindStringSubmatch(entry)
		if m == nil {
			res.Custom = append(res.Custom, entry)
			continue
		}
		kind := strings.ToLower(m[1])
		if res.Energy == nil {
			res.Energy = make(map[string]int)
		}
		res.Energy[kind], _ = strconv.Atoi(m[2])
		if m[3] != "" {
			if res.Qualifiers == nil {
				res.Qualifiers = make(map[string]string)
			}
			res.Qualifiers[kind] = strings.TrimSpace(m[3])
		}
	}
	s.rec.Resistances = res
	return nil
}

func readSR(s *state) error {
	text, err := s.labelled("SR", fieldStops...)
	if err != nil {
		return err
	}
	sr := grammar.ParseIntLenient(grammar.CleanTrailing(text, ';'))
	s.rec.SR = &sr
	return nil
}

func readWeaknesses(s *state) error {
	text, err := s.labelled("Weaknesses", doctree.TagH3)
	if err != nil {
		return err
	}
	s.rec.Weaknesses = grammar.SplitCommas(text)
	return nil
}
