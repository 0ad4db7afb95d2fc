package statblock

import (
	"cmp"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/dgallion1/bestiary/internal/grammar"
	"github.com/dgallion1/bestiary/internal/quirks"
)

var (
	modernSkillNames = []string{
		"Acrobatics", "Appraise", "Bluff", "Climb", `Craft(?: \(.+?\))?`, "Diplomacy",
		"Disable Device", "Disguise", "Escape Artist", "Fly", "Handle Animal", "Heal",
		"Intimidation", "Intimidate", `Knowledge(?: \(.+?\))?`, "Linguistics", "Perception",
		`Perform(?: \(.+?\))?`, `Profession(?: \(.+?\))?`, "Ride", "Sense Motive",
		"Sleight of Hand", "Spellcraft", "Stealth", "Survival", "Swim", "Use Magic Device",
	}
	legacySkillNames = []string{
		"Appraise", "Balance", "Bluff", "Climb", "Concentration", `Craft(?: \(.+?\))?`,
		"Decipher Script", "Diplomacy", "Disable Device", "Disguise", "Escape Artist",
		"Forgery", "Gather Information", "Handle Animal", "Heal", "Hide", "Intimidate",
		"Jump", `Knowledge(?: \(.+?\))?`, "Listen", "Move Silently", "Open Lock",
		`Perform(?: \(.+?\))?`, `Profession(?: \(.+?\))?`, "Ride", "Search", "Sense Motive",
		"Sleight Of Hand", "Speak Language", "Spellcraft", "Spot", "Survival", "Swim",
		"Tumble", "Use Magic Device", "Use Rope",
	}

	// Abbreviated and misspelled skill names, mapped to the canonical name.
	skillAliases = map[string]string{
		"Dip.":            "Diplomacy",
		"Know.":           "Knowledge",
		"Knowl.":          "Knowledge",
		"Ling.":           "Linguistics",
		"Per.":            "Perception",
		"Percep.":         "Perception",
		"Percept.":        "Perception",
		"S. Motive":       "Sense Motive",
		"Handle Animals":  "Handle Animal",
		"Acrobatic":       "Acrobatics",
		"Decipher script": "Decipher Script",
		"Surivival":       "Survival",
	}

	modernSkills = newSkillGrammar(modernSkillNames, skillAliases)
	legacySkills = newSkillGrammar(legacySkillNames, func() map[string]string {
		m := maps.Clone(skillAliases)
		m["Intimidate"] = "Intimidation"
		return m
	}())
)

// skillGrammar holds the entry patterns of one edition's skill list.
type skillGrammar struct {
	aliases    map[string]string
	aliasOrder []string

	standard     *regexp.Regexp // Acrobatics +13 (+17 when jumping)
	pair         *regexp.Regexp // +4 Stealth and Survival in deserts
	bonusFirst   *regexp.Regexp // +8 Stealth (+16 in forests)
	bonusInParen *regexp.Regexp // Acrobatics (+4 when jumping)
	list         *regexp.Regexp // +8 Bluff, Diplomacy, and Sense Motive vs. its creator
	checks       *regexp.Regexp // +8 on vision-based Perception checks
}

func newSkillGrammar(names []string, aliases map[string]string) *skillGrammar {
	all := slices.Clone(names)
	for alias, skill := range aliases {
		for _, n := range names {
			if strings.HasPrefix(n, skill) {
				all = append(all, regexp.QuoteMeta(alias)+n[len(skill):])
				break
			}
		}
	}
	slices.SortFunc(all, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	sk := "(?:" + strings.Join(all, "|") + ")"
	return &skillGrammar{
		aliases:      aliases,
		aliasOrder:   slices.Sorted(maps.Keys(aliases)),
		standard:     regexp.MustCompile(`^(` + sk + `)\s+([+-]\d+)(?:\s+\((.+?)\))?$`),
		pair:         regexp.MustCompile(`^([+-]\d+)\s+(` + sk + `) and (?:([+-]\d+)\s+)?(` + sk + `)\s+(.+?)$`),
		bonusFirst:   regexp.MustCompile(`^([+-]\d+)\s+(?:on )?(` + sk + `)(?:(?:(?:\s+(.+?))?\s+\((?:improves to )?([+-]\d+\s+[^)]+?)\))|\s+(.+?))?$`),
		bonusInParen: regexp.MustCompile(`^(` + sk + `)\s+\(([+-]\d+)\s+([^)]+?)\)$`),
		list:         regexp.MustCompile(`^([+-]\d+)\s+((?:` + sk + `, )+and ` + sk + `)\s+(.+)$`),
		checks:       regexp.MustCompile(`^([+-]\d+) (on .+?) (` + sk + `) checks$`),
	}
}

// skillSet maps a skill name to its modifiers.
type skillSet map[string]*Skill

func (m skillSet) skill(name string) *Skill {
	sk, ok := m[name]
	if !ok {
		sk = &Skill{}
		m[name] = sk
	}
	return sk
}

// set records a bonus under a circumstance; "" is the unconditional value.
func (sk *Skill) set(category string, bonus int) {
	if category == "" {
		sk.Value = &bonus
		return
	}
	if sk.Conditional == nil {
		sk.Conditional = make(map[string]int)
	}
	sk.Conditional[category] = bonus
}

func (sk *Skill) has(category string) bool {
	if category == "" {
		return sk.Value != nil
	}
	_, ok := sk.Conditional[category]
	return ok
}

// merge folds other into m; later values win.
func (m skillSet) merge(other skillSet) {
	for name, o := range other {
		sk := m.skill(name)
		if o.Value != nil {
			sk.Value = o.Value
		}
		for c, v := range o.Conditional {
			sk.set(c, v)
		}
		if o.Other != "" {
			sk.Other = o.Other
		}
		sk.Mismatch = sk.Mismatch || o.Mismatch
	}
}

var (
	racialSplit   = regexp.MustCompile(`^(.+?);?\s*Racial +Modifiers?\s*(.+?)$`)
	skillSep      = regexp.MustCompile(`,`)
	bonusEntry    = regexp.MustCompile(`^([+-]\d+) (.+)$`)
	bonusSep      = regexp.MustCompile(`(,\s*)[+-]\d+`)
	skillListSep  = regexp.MustCompile(`, (?:and )?`)
	specialtySep  = regexp.MustCompile(`(?:,? and|,? plus|,) +`)
	specialtyName = regexp.MustCompile(`^(.+?) \((.+?)\)$`)
)

func readSkills(s *state) error {
	text, err := s.labelled("Skills", lineStops...)
	if err != nil {
		return err
	}
	text = grammar.CleanTrailing(text, ';')
	racial := ""
	if m := racialSplit.FindStringSubmatch(text); m != nil {
		text, racial = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}

	g := modernSkills
	if s.rec.Legacy {
		g = legacySkills
	}
	skills := Skills{Entries: make(map[string]*Skill)}
	entries := grammar.SplitTopLevel(text, skillSep)

	// The senses line repeats Perception (or Listen and Spot); the
	// senses value is authoritative.
	conflict := func(name, fromSenses string) error {
		if fromSenses == "" {
			return nil
		}
		var found []string
		for _, e := range entries {
			if strings.HasPrefix(e, name) {
				found = append(found, e)
			}
		}
		switch {
		case len(found) > 1:
			return s.mismatch("skills", text, "a single "+name+" entry")
		case len(found) == 1 && found[0] != fromSenses:
			skillSet(skills.Entries).skill(name).Mismatch = true
			s.diagnose("skills: %s differs from senses (%q vs %q)", name, found[0], fromSenses)
			entries = append(entries, fromSenses)
		case len(found) == 0:
			entries = append(entries, fromSenses)
		}
		return nil
	}
	if s.rec.Legacy {
		if err := conflict("Listen", s.listen); err != nil {
			return err
		}
		if err := conflict("Spot", s.spot); err != nil {
			return err
		}
	} else if err := conflict("Perception", s.perception); err != nil {
		return err
	}

	for _, e := range entries {
		e = grammar.StripFootnotes(e)
		parsed, err := s.parseSkillEntry(g, e, true)
		if err != nil {
			return err
		}
		if parsed == nil {
			skills.Unparsed = append(skills.Unparsed, e)
			s.diagnose("skills: unreadable entry %q", e)
			continue
		}
		skillSet(skills.Entries).merge(parsed)
	}

	if racial != "" {
		mods := skillSet{}
		parts := grammar.SplitCommas(racial)
		if s.hasQuirk(quirks.RacialModsUnsplit) {
			parts = []string{racial}
		}
		for _, e := range parts {
			parsed, err := s.parseSkillEntry(g, e, false)
			if err != nil {
				return err
			}
			if parsed == nil {
				if skills.RacialOther != "" {
					return s.mismatch("racial modifiers", e, "one unreadable modifier")
				}
				skills.RacialOther = e
				continue
			}
			mods.merge(parsed)
		}
		if len(mods) > 0 {
			skills.RacialMods = mods
		}
	}
	s.rec.Skills = skills
	s.c.SkipOptionalBreak()
	return nil
}

// parseSkillEntry reads one skill or racial modifier entry. Skill lines
// admit only the standard form. A nil result means no form matched.
func (s *state) parseSkillEntry(g *skillGrammar, entry string, skillLine bool) (skillSet, error) {
	out, err := s.matchSkillEntry(g, entry, skillLine)
	if out == nil || err != nil {
		return nil, err
	}

	normalized := skillSet{}
	for _, name := range slices.Sorted(maps.Keys(out)) {
		sk := out[name]
		if canonical := g.canonical(name); canonical != name {
			if _, dup := out[canonical]; dup {
				return nil, s.mismatch("skills", entry, "one entry per skill")
			}
			name = canonical
		}
		// "+2 Stealth (+4 Stealth underground)" repeats the name.
		for _, c := range slices.Sorted(maps.Keys(sk.Conditional)) {
			v := sk.Conditional[c]
			if rest, ok := strings.CutPrefix(c, name+" "); ok {
				if sk.has(rest) {
					return nil, s.mismatch("skills", entry, "distinct circumstances")
				}
				delete(sk.Conditional, c)
				sk.set(strings.TrimSpace(rest), v)
			}
		}
		// Craft (armorsmithing and weaponsmithing) is one entry per specialty.
		if m := specialtyName.FindStringSubmatch(name); m != nil {
			for _, t := range grammar.SplitTopLevel(m[2], specialtySep) {
				normalized.merge(skillSet{m[1] + " (" + t + ")": cloneSkill(sk)})
			}
			continue
		}
		normalized.merge(skillSet{name: sk})
	}
	return normalized, nil
}

// canonical expands an abbreviated or misspelled skill name, keeping any
// specialty suffix.
func (g *skillGrammar) canonical(name string) string {
	if c, ok := g.aliases[name]; ok {
		return c
	}
	for _, alias := range g.aliasOrder {
		if rest, ok := strings.CutPrefix(name, alias+" ("); ok {
			return g.aliases[alias] + " (" + rest
		}
	}
	return name
}

func cloneSkill(sk *Skill) *Skill {
	c := *sk
	c.Conditional = maps.Clone(sk.Conditional)
	return &c
}

func (s *state) matchSkillEntry(g *skillGrammar, entry string, skillLine bool) (skillSet, error) {
	if o, ok := s.quirk(quirks.SkillWithoutBonus); ok && o.Value == entry {
		return skillSet{entry: &Skill{}}, nil
	}

	if m := g.standard.FindStringSubmatch(entry); m != nil {
		sk := &Skill{}
		v, _ := grammar.ParseInt(m[2])
		sk.set("", v)
		for _, p := range grammar.SplitCommas(m[3]) {
			bm := bonusEntry.FindStringSubmatch(p)
			if bm == nil {
				if sk.Other != "" {
					return nil, s.mismatch("skills", entry, "one unreadable note")
				}
				sk.Other = p
				continue
			}
			cat := strings.TrimSpace(bm[2])
			if sk.has(cat) {
				return nil, s.mismatch("skills", entry, "distinct circumstances")
			}
			b, _ := grammar.ParseInt(bm[1])
			sk.set(cat, b)
		}
		return skillSet{strings.TrimSpace(m[1]): sk}, nil
	}
	if skillLine {
		return nil, nil
	}

	if m := g.pair.FindStringSubmatch(entry); m != nil {
		b1, _ := grammar.ParseInt(m[1])
		b2 := b1
		if m[3] != "" {
			b2, _ = grammar.ParseInt(m[3])
		}
		s1, s2 := strings.TrimSpace(m[2]), strings.TrimSpace(m[4])
		if s1 == s2 {
			return nil, s.mismatch("racial modifiers", entry, "two different skills")
		}
		cat := grammar.UnwrapParens(m[5])
		out := skillSet{}
		out.skill(s1).set(cat, b1)
		out.skill(s2).set(cat, b2)
		return out, nil
	}

	if m := g.bonusFirst.FindStringSubmatch(entry); m != nil {
		b, _ := grammar.ParseInt(m[1])
		cat := m[3]
		if cat == "" {
			cat = m[5]
		}
		sk := &Skill{}
		sk.set(grammar.UnwrapParens(cat), b)
		if m[4] != "" {
			for _, p := range grammar.SplitTopLevel(m[4], bonusSep) {
				bm := bonusEntry.FindStringSubmatch(p)
				if bm == nil {
					return nil, s.mismatch("racial modifiers", p, "signed bonus")
				}
				pc := strings.TrimSpace(bm[2])
				if sk.has(pc) {
					return nil, s.mismatch("racial modifiers", entry, "distinct circumstances")
				}
				pb, _ := grammar.ParseInt(bm[1])
				sk.set(pc, pb)
			}
		}
		return skillSet{strings.TrimSpace(m[2]): sk}, nil
	}

	if m := g.bonusInParen.FindStringSubmatch(entry); m != nil {
		b, _ := grammar.ParseInt(m[2])
		sk := &Skill{}
		sk.set(strings.TrimSpace(m[3]), b)
		return skillSet{strings.TrimSpace(m[1]): sk}, nil
	}

	if m := g.list.FindStringSubmatch(entry); m != nil {
		b, _ := grammar.ParseInt(m[1])
		cat := strings.TrimSpace(m[3])
		out := skillSet{}
		for _, name := range grammar.SplitTopLevel(m[2], skillListSep) {
			out.skill(name).set(cat, b)
		}
		return out, nil
	}

	if m := g.checks.FindStringSubmatch(entry); m != nil {
		b, _ := grammar.ParseInt(m[1])
		out := skillSet{}
		out.skill(strings.TrimSpace(m[3])).set(strings.TrimSpace(m[2])+" checks", b)
		return out, nil
	}
	return nil, nil
}
