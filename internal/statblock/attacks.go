package statblock

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
	"github.com/dgallion1/bestiary/internal/quirks"
)

var (
	// Alternative attack sequences: "or" after a closing parenthetical.
	attackGroupSep = regexp.MustCompile(`\)([;,]?\s+or\s+)`)
	anyOrSep       = regexp.MustCompile(`[;,]?\s+or\s+`)
	attackEntrySep = regexp.MustCompile(`(?:, ?| and )`)

	attackEntry    = regexp.MustCompile(`^(\d+(?:d\d+(?:[+-]\d+)?)?)?\s*(.*?)\s*((?:[+-]\d+/)*[+-]\d+)?(?:\s+(?:(?:melee|ranged|(incorporeal))\s+)?(touch)?(?: attack)?)?\s*(?:\(([^)]+)\)\s*(?:\(([^)]+)\)| plus (.+?))?)?$`)
	attackBonusSep = regexp.MustCompile(`/`)

	alternativeDamage = regexp.MustCompile(`^(.+?) \((.+?) or (.+?)\)$`)
	touchPrefix       = regexp.MustCompile(`^touch (.+)$`)

	critAfterComma = regexp.MustCompile(`^(.+?), (\d+ *- *\d+)$`)
	critPure       = regexp.MustCompile(`^(.*?)/(?:(\d+ *- *\d+)(?:/\s*[×x] *(\d))?|[×x] *(\d)) *$`)
	critWithPost   = regexp.MustCompile(`^(.*?)/(?:(\d+ *- *\d+)(?:/\s*[×x] *(\d))?|[×x] *(\d)) *(?: ([^/].*?))?$`)

	damageSep       = regexp.MustCompile(`(?:,?\s+plus\s+|;\s+|,?\s+and\s+|,\s+)`)
	damageSepNoAnd  = regexp.MustCompile(`(?:,?\s+plus\s+|;\s+|,\s+)`)
	damageSepTight  = regexp.MustCompile(`(?:,?\s+plus\s+|;\s+|,?\s+and\s+)`)
	damageSepBare   = regexp.MustCompile(`(?:,?\s+plus\s+|;\s+)`)
	slashBeforeWord = regexp.MustCompile(`(/)\D`)
	// Lists that must not be split on commas.
	commaList = regexp.MustCompile(`, or |push, \d+ ft`)

	damageEntry = regexp.MustCompile(`^((?:\d+d\d+|[\d.]+)(?: *[+-] *(?:\d+d\d+|[\d.]+))*(?:/(?:\d+d\d+[+-]\d+))?)(.*?)(?: *vs\. (.+?))?$`)
	perClause   = regexp.MustCompile(`^( per [^/]+?)(/.*)$`)
	bleedEntry  = regexp.MustCompile(`^bleed (\d+(?:d\d+)?)`)
	effectDC    = regexp.MustCompile(`\bDC (\d+)`)
)

// readAttacks reads a Melee or Ranged line into alternative groups.
func readAttacks(label string, dst func(*Attacks) *[][]Attack) func(*state) error {
	return func(s *state) error {
		text, err := s.labelled(label, doctree.TagH3, doctree.TagBold)
		if err != nil {
			return err
		}
		text = grammar.StripFootnotes(text)
		// No melee attack at all.
		if text == "---" {
			return nil
		}
		if label == "Melee" {
			if o, ok := s.quirk(quirks.Melee); ok {
				text = o.Apply(text)
			}
		}
		groups, err := s.parseAttackLine(text)
		if err != nil {
			return err
		}
		*dst(&s.rec.Attacks) = groups
		return nil
	}
}

func (s *state) parseAttackLine(text string) ([][]Attack, error) {
	sep := attackGroupSep
	if s.hasQuirk(quirks.AttackSplitAnyOr) {
		sep = anyOrSep
	}
	groups := grammar.SplitTopLevel(text, sep)
	var out [][]Attack
	// Groups may grow while iterating: an alternative damage parenthetical
	// becomes a group of its own.
	for i := 0; i < len(groups); i++ {
		var group []Attack
		for _, entry := range grammar.SplitTopLevel(groups[i], attackEntrySep) {
			a, extra, err := s.parseAttack(entry, group)
			if err != nil {
				return nil, err
			}
			if extra != "" {
				groups = append(groups, extra)
			}
			group = append(group, a)
		}
		out = append(out, group)
	}
	return out, nil
}

// parseAttack reads one attack. prev holds the attacks already read in the
// same group, for entries that omit a repeated weapon name.
func (s *state) parseAttack(entry string, prev []Attack) (Attack, string, error) {
	m := attackEntry.FindStringSubmatch(entry)
	if m == nil {
		return Attack{}, "", s.mismatch("attack", entry, "attack entry")
	}
	a := Attack{
		Text:        entry,
		Name:        m[2],
		Touch:       m[5] != "",
		Incorporeal: m[4] != "",
		Restriction: strings.TrimSpace(m[7]),
	}
	if m[1] != "" {
		c := grammar.ParseIntLenient(m[1])
		a.Count = &c
	}
	if a.Name == "" {
		switch {
		case a.Touch:
			a.Name = "touch"
		case len(prev) > 0:
			a.Name = prev[len(prev)-1].Name
		}
	}
	if a.Incorporeal && !a.Touch {
		return Attack{}, "", s.mismatch("attack", entry, "incorporeal touch attack")
	}
	for _, b := range grammar.SplitTopLevel(m[3], attackBonusSep) {
		v, err := grammar.ParseInt(b)
		if err != nil {
			return Attack{}, "", s.mismatch("attack", entry, "attack bonus")
		}
		a.Bonus = append(a.Bonus, v)
	}

	p := strings.TrimSpace(m[6])
	if p == "" {
		return a, "", nil
	}
	extra := ""
	if s.hasQuirk(quirks.AttackTouchPrefix) {
		if tm := touchPrefix.FindStringSubmatch(p); tm != nil {
			p = strings.TrimSpace(tm[1])
			a.Touch = true
		}
	}
	if s.hasQuirk(quirks.AttackAlternativeDamage) {
		if am := alternativeDamage.FindStringSubmatch(entry); am != nil {
			p = strings.TrimSpace(am[2])
			extra = strings.TrimSpace(am[1]) + " (" + strings.TrimSpace(am[3]) + ")"
		}
	}

	entries, err := s.parseDamage(p, m[8])
	if err != nil {
		return Attack{}, "", err
	}
	a.Entries = entries
	return a, extra, nil
}

// parseDamage splits a damage parenthetical into damage and effect
// entries. post is effect text printed after the parenthetical.
func (s *state) parseDamage(p, post string) ([]Damage, error) {
	// A single crit block may follow all the pluses and apply to every
	// damage entry.
	p, commonRange, commonMult, _ := parseCritBlock(p, true)

	noAnd := s.hasQuirk(quirks.AttackNoAndSplit)
	noComma := commaList.MatchString(p)
	var sep *regexp.Regexp
	switch {
	case noAnd && noComma:
		sep = damageSepBare
	case noAnd:
		sep = damageSepNoAnd
	case noComma:
		sep = damageSepTight
	default:
		sep = damageSep
	}
	parts := grammar.SplitTopLevel(p, sep)
	if s.hasQuirk(quirks.AttackSlashSplit) {
		var split []string
		for _, part := range parts {
			split = append(split, grammar.SplitTopLevel(part, slashBeforeWord)...)
		}
		parts = split
	}
	if post = strings.TrimSpace(post); post != "" {
		parts = append(parts, post)
	}

	var out []Damage
	for _, part := range parts {
		d, err := s.parseDamageEntry(part, commonRange, commonMult)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *state) parseDamageEntry(part, commonRange string, commonMult *int) (Damage, error) {
	m := damageEntry.FindStringSubmatch(part)
	if m == nil {
		if bm := bleedEntry.FindStringSubmatch(part); bm != nil {
			return Damage{Damage: bm[1], Type: "bleed"}, nil
		}
		d := Damage{Effect: part}
		if dm := effectDC.FindStringSubmatch(part); dm != nil {
			dc, _ := strconv.Atoi(dm[1])
			d.DC = &dc
		}
		return d, nil
	}

	d := Damage{Damage: m[1], AppliesAgainst: strings.TrimSpace(m[3])}
	leftover := strings.TrimSpace(m[2])
	if pm := perClause.FindStringSubmatch(m[2]); pm != nil {
		d.Damage += pm[1]
		leftover = strings.TrimSpace(pm[2])
	}

	typ, critRange, critMult, post := parseCritBlock(leftover, false)
	if post != "" {
		if typ != "" {
			return Damage{}, s.mismatch("attack", part, "damage type on one side of the crit block")
		}
		typ = post
	}
	d.Type = typ
	if commonRange != "" || commonMult != nil {
		if critRange != "" || critMult != nil {
			return Damage{}, s.mismatch("attack", part, "a single crit block")
		}
		critRange, critMult = commonRange, commonMult
	}
	d.CritRange = strings.ReplaceAll(critRange, " ", "")
	d.CritMultiplier = critMult
	return d, nil
}

// parseCritBlock splits a "/19-20/x3" crit block off s. A pure block ends
// the text; otherwise a damage type may follow it and is returned as post.
func parseCritBlock(s string, pure bool) (rest, critRange string, mult *int, post string) {
	if pure {
		if m := critAfterComma.FindStringSubmatch(s); m != nil {
			return strings.TrimSpace(m[1]), m[2], nil, ""
		}
	}
	re := critWithPost
	if pure {
		re = critPure
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return s, "", nil, ""
	}
	multText := m[3]
	if multText == "" {
		multText = m[4]
	}
	if multText != "" {
		v, _ := strconv.Atoi(multText)
		mult = &v
	}
	if !pure {
		post = strings.TrimSpace(m[5])
	}
	return strings.TrimSpace(m[1]), m[2], mult, post
}
