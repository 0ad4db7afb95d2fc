package statblock

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
)

// Kinds of spell-related blocks in the offense section.
const (
	blockSpells     = "spells"
	blockSpellLike  = "spell-like abilities"
	blockKineticist = "kineticist wild talents"
	blockPsychic    = "psychic magic"
)

func spellBlockKind(label string) string {
	switch {
	case strings.Contains(label, "Spells") || strings.Contains(label, "Extracts"):
		return blockSpells
	case strings.HasSuffix(label, "Spell-Like Abilities"):
		return blockSpellLike
	case label == "Kineticist Wild Talents Known":
		return blockKineticist
	case label == "Psychic Magic" || label == "Psychic Magic (Sp)":
		return blockPsychic
	}
	return ""
}

func atSpellBlock(s *state) bool {
	label, ok := s.c.PeekLabel()
	return ok && spellBlockKind(label) != ""
}

// skipSpellBlock recovers from an unreadable block by moving to the next
// block label at the start of a line, or the next section.
func skipSpellBlock(s *state) {
	s.c.Advance(1)
	for !s.c.AtEnd() && !s.c.Peek().IsHeading() {
		if s.c.PeekAt(-1).IsBreak() && atSpellBlock(s) {
			return
		}
		s.c.Advance(1)
	}
}

var (
	spellsLabel = regexp.MustCompile(`^(?:([\w ]+) )?(?:Spells|Extracts) (Prepared|Known)$`)
	titleCase   = cases.Title(language.English)
)

// readSpellBlock reads one spell-related block. Blocks of the same kind
// merge: each contributes a source and its entries.
func readSpellBlock(s *state) error {
	label, _ := s.c.PeekLabel()
	s.c.Advance(1)

	switch kind := spellBlockKind(label); kind {
	case blockKineticist:
		return s.readWildTalents()
	case blockPsychic:
		return s.readPsychicMagic()
	case blockSpellLike:
		name := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(label, "Spell-Like Abilities")))
		if name == "" {
			name = "default"
		}
		src := SpellSource{Name: name}
		entries, block, err := s.readSpellLines(&src, kind)
		if err != nil {
			return err
		}
		if s.rec.SpellLikeAbilities == nil {
			s.rec.SpellLikeAbilities = &SpellBlock{}
		}
		s.rec.SpellLikeAbilities.merge(src, entries, block)
		return nil
	default:
		m := spellsLabel.FindStringSubmatch(label)
		if m == nil {
			return s.mismatch("spells", label, `"<class> Spells Known|Prepared" label`)
		}
		src := SpellSource{Name: m[1], Type: strings.ToLower(m[2])}
		if src.Name == "" {
			src.Name = s.soleClass()
		}
		entries, block, err := s.readSpellLines(&src, kind)
		if err != nil {
			return err
		}
		if err := s.readImplements(&src); err != nil {
			return err
		}
		if s.rec.Spells == nil {
			s.rec.Spells = &SpellBlock{}
		}
		s.rec.Spells.merge(src, entries, block)
		return nil
	}
}

// soleClass names the caster class when the label omits it: the only
// declared class, or "?" when there is none or several.
func (s *state) soleClass() string {
	if rc := s.rec.RaceClass; rc != nil && len(rc.Class) == 1 {
		return titleCase.String(rc.Class[0].Name)
	}
	return "?"
}

func (b *SpellBlock) merge(src SpellSource, entries []Spell, from SpellBlock) {
	b.Sources = append(b.Sources, src)
	b.Entries = append(b.Entries, entries...)
	b.Varies = b.Varies || from.Varies
	if from.SymbolsSpecial != nil {
		b.SymbolsSpecial = from.SymbolsSpecial
	}
}

var (
	spellHeader   = regexp.MustCompile(`^\((.+)\)$`)
	headerSep     = regexp.MustCompile(`[;,]`)
	headerCL      = regexp.MustCompile(`(?i)^(?:CL|caster level)\s+(\d+)(?:\w{2})?$`)
	concentration = regexp.MustCompile(`(?i)^conc(?:entration|\.):?\s+([+-]\d+)$`)
	failureChance = regexp.MustCompile(`(?i)^(?:(?:(\d+%) (?:arcane )?spell failure(?: chance)?)|(?:arcane )?spell failure(?: chance)? (\d+%))$`)
	dcAbility     = regexp.MustCompile(`(?i)^(?:save DCs are )?(\w+)-based$`)
	touchModifier = regexp.MustCompile(`(?i)^([+-]\d+) (ranged|touch|ranged touch)?$`)
)

// readSpellHeader reads the "(CL 10th; concentration +15)" line after a
// block label.
func (s *state) readSpellHeader(src *SpellSource) error {
	text := strings.TrimSpace(s.c.Collect(doctree.TagBreak))
	m := spellHeader.FindStringSubmatch(text)
	if m == nil {
		return s.mismatch("spells", text, "parenthesized caster level header")
	}
	parts := grammar.SplitTopLevel(m[1], headerSep)
	if len(parts) == 0 {
		return s.mismatch("spells", text, "caster level")
	}
	cl := headerCL.FindStringSubmatch(parts[0])
	if cl == nil {
		return s.mismatch("spells", parts[0], "caster level")
	}
	src.CL, _ = strconv.Atoi(cl[1])

	for _, part := range parts[1:] {
		if pm := concentration.FindStringSubmatch(part); pm != nil {
			v, _ := grammar.ParseInt(pm[1])
			src.Concentration = &v
			continue
		}
		if pm := failureChance.FindStringSubmatch(part); pm != nil {
			src.FailureChance = pm[1] + pm[2]
			continue
		}
		if pm := dcAbility.FindStringSubmatch(part); pm != nil {
			src.DCAbility = pm[1]
			continue
		}
		if pm := touchModifier.FindStringSubmatch(part); pm != nil {
			v, _ := grammar.ParseInt(pm[1])
			if pm[2] == "touch" {
				src.TouchMelee = &v
			} else {
				src.TouchRanged = &v
			}
			continue
		}
		return s.mismatch("spells", part, "caster level header entry")
	}
	return s.c.SkipBreak()
}

var (
	spellLine   = regexp.MustCompile(`(?i)^(\d+)(?:\w{2})?\s*(?:\((?:(at[ -]will)|(\d+)(?:/day(?:, (\d+) remaining)?)?)\))?\s*-`)
	symbolLine  = regexp.MustCompile(`(?i)^(.+?-)any (.+?) of the following: (.+?); all symbols last for (.+?) maximum$`)
	abilityLine = regexp.MustCompile(`(?i)^([^-]*?at-will[^-]*?|.+?)\s*-\s*(.+)$`)
)

// readSpellLines reads the header, the spell lines and the trailing
// domain/bloodline/school lines of a spells or spell-like block.
func (s *state) readSpellLines(src *SpellSource, kind string) ([]Spell, SpellBlock, error) {
	var (
		entries []Spell
		block   SpellBlock
	)
	if err := s.readSpellHeader(src); err != nil {
		return nil, block, err
	}

	for s.c.Peek().IsText() {
		line := strings.TrimSpace(s.c.CollectText(cursor.Stops(cursor.Sections, cursor.Set{doctree.TagBreak}), cursor.NoTags, cursor.SupOnly))
		s.c.SkipOptionalBreak()
		if line == "Varies" {
			block.Varies = true
			break
		}

		var (
			base   Spell
			list   string
			symbol bool
		)
		if kind == blockSpells {
			m := spellLine.FindStringSubmatchIndex(line)
			if m == nil {
				return nil, block, s.mismatch("spells", line, `"<level> - <spells>" line`)
			}
			level, _ := strconv.Atoi(line[m[2]:m[3]])
			base.Level = &level
			switch {
			case m[4] >= 0:
				src.setSlots(level, grammar.IntOrText{Text: "at-will"})
			case m[6] >= 0:
				n, _ := strconv.Atoi(line[m[6]:m[7]])
				src.setSlots(level, grammar.Int(n))
				if m[8] >= 0 {
					if src.SlotsRemaining == nil {
						src.SlotsRemaining = make(map[int]int)
					}
					src.SlotsRemaining[level], _ = strconv.Atoi(line[m[8]:m[9]])
				}
			}
			list = line[m[1]:]
		} else {
			if sm := symbolLine.FindStringSubmatch(line); sm != nil {
				block.SymbolsSpecial = &SymbolsSpecial{MaxDuration: sm[4], NumSelected: sm[2]}
				line = sm[1] + sm[3]
				symbol = true
			}
			m := abilityLine.FindStringSubmatch(line)
			if m == nil {
				return nil, block, s.mismatch("spell-like abilities", line, `"<frequency> - <abilities>" line`)
			}
			base.Freq = m[1]
			list = m[2]
		}
		base.Source = src.Name
		base.SymbolsSpecial = symbol

		for _, entry := range grammar.SplitCommas(list) {
			sp, err := s.parseSpell(entry, base, kind)
			if err != nil {
				return nil, block, err
			}
			entries = append(entries, sp)
		}
	}

	if err := s.readSpellTrailers(src); err != nil {
		return nil, block, err
	}
	return entries, block, nil
}

func (src *SpellSource) setSlots(level int, v grammar.IntOrText) {
	if src.Slots == nil {
		src.Slots = make(map[int]grammar.IntOrText)
	}
	src.Slots[level] = v
}

var (
	spellEntry = regexp.MustCompile(`^([^)(]+?)\s*(?:\(([^)]+)\))?\s*(?:\(([^)]+)\))?$`)
	parenSep   = regexp.MustCompile(`[;,] `)
	parenDC    = regexp.MustCompile(`^DC\s+(\d+)$`)
	parenCL    = regexp.MustCompile(`^CL (\d+)(?:\w{2})?$`)
	digits     = regexp.MustCompile(`^\d+$`)

	summonLevel  = regexp.MustCompile(`^level (\d+), (.+)$`)
	summonChance = regexp.MustCompile(`^(.+?), (\d+%)$`)
	summonSep    = regexp.MustCompile(`(?:,? or|,)`)
	summonEntry  = regexp.MustCompile(`^(?:(\d+(?:d\d+)?) )?(.+?)(?: (\d+%))?$`)
)

// Spell names misprinted in the source pages.
var spellNames = map[string]string{
	"cure mod. wounds":      "cure moderate wounds",
	"d. magic":              "detect magic",
	"d. poison":             "detect poison",
	"g. teleport":           "greater teleport",
	"geas":                  "geas/quest",
	"r. magic":              "read magic",
	"barrier blade":         "blade barrier",
	"dancing light":         "dancing lights",
	"deathward":             "death ward",
	"fires of judgment":     "fire of judgment",
	"force cage":            "forcecage",
	"magic circle vs. evil": "magic circle against evil",
	"meld with stone":       "meld into stone",
	"order's wraith":        "order's wrath",
	"prestigiditation":      "prestidigitation",
	"purify food & drink":   "purify food and drink",
	"purify food and water": "purify food and drink",
	"purify food or drink":  "purify food and drink",
	"mage  armor":           "mage armor",
}

var metamagicPrefixes = []string{"empowered", "enlarged", "extended", "maximized", "merciful", "quickened", "stilled", "reach", "silent", "widened"}

// parseSpell reads one comma-separated spell entry. base carries the
// line's level or frequency.
func (s *state) parseSpell(entry string, base Spell, kind string) (Spell, error) {
	text, marks := grammar.ExtractMarkers(entry)
	sp := base
	for _, mark := range marks {
		switch mark {
		case "D":
			sp.Domain = true
		case "S":
			sp.Spirit = true
		case "M":
			sp.Mythic = true
		default:
			sp.Superscripts = append(sp.Superscripts, mark)
		}
	}

	m := spellEntry.FindStringSubmatch(text)
	if m == nil {
		return Spell{}, s.mismatch(kind, text, "spell name with up to two parentheticals")
	}
	name := grammar.StripFootnotes(m[1])
	if fixed, ok := spellNames[name]; ok {
		name = fixed
	}
	sp.Metamagic, name = splitMetamagic(name)
	sp.Name = name

	paren, paren2 := strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
	if paren == "" && paren2 == "" {
		return sp, nil
	}

	if kind == blockSpellLike && paren != "" && strings.HasPrefix(strings.ToLower(name), "summon") && strings.HasPrefix(paren, "level ") {
		if paren2 != "" {
			return Spell{}, s.mismatch(kind, text, "single summon parenthetical")
		}
		return s.parseSummon(sp, paren)
	}

	orig := sp
	orig.ParenText, orig.ParenText2 = paren, paren2
	parts := grammar.SplitTopLevel(paren, parenSep)
	parts = append(parts, grammar.SplitTopLevel(paren2, parenSep)...)
	for _, part := range parts {
		if dm := parenDC.FindStringSubmatch(part); dm != nil {
			if sp.DC != nil {
				return orig, nil
			}
			v, _ := strconv.Atoi(dm[1])
			sp.DC = &v
			continue
		}
		if kind == blockSpells && digits.MatchString(part) {
			if sp.Count != nil {
				return orig, nil
			}
			v, _ := strconv.Atoi(part)
			sp.Count = &v
			continue
		}
		if kind == blockSpellLike {
			if cm := parenCL.FindStringSubmatch(part); cm != nil {
				if sp.CL != nil {
					return orig, nil
				}
				v, _ := strconv.Atoi(cm[1])
				sp.CL = &v
				continue
			}
		}
		// A second unclassified part means the parenthetical is prose;
		// keep it verbatim.
		if sp.Other != "" {
			return orig, nil
		}
		sp.Other = part
	}
	return sp, nil
}

func splitMetamagic(name string) ([]string, string) {
	var applied []string
	for {
		word, rest, ok := strings.Cut(name, " ")
		if !ok || name == "silent table" || name == "silent image" {
			return applied, name
		}
		known := false
		for _, p := range metamagicPrefixes {
			if word == p {
				known = true
				break
			}
		}
		if !known {
			return applied, name
		}
		applied = append(applied, word)
		name = rest
	}
}

func (s *state) parseSummon(sp Spell, paren string) (Spell, error) {
	m := summonLevel.FindStringSubmatch(paren)
	if m == nil {
		return Spell{}, s.mismatch("summon", paren, `"level <n>, <creatures>" parenthetical`)
	}
	level, _ := strconv.Atoi(m[1])
	sp.Level = &level
	list := strings.TrimSpace(m[2])
	common := ""
	if cm := summonChance.FindStringSubmatch(list); cm != nil {
		list, common = strings.TrimSpace(cm[1]), cm[2]
	}
	for _, part := range grammar.SplitTopLevel(list, summonSep) {
		em := summonEntry.FindStringSubmatch(part)
		if em == nil {
			return Spell{}, s.mismatch("summon", part, "summoned creature")
		}
		sum := Summon{Name: strings.TrimSpace(em[2]), Chance: em[3]}
		if em[1] != "" {
			v := grammar.ParseIntLenient(em[1])
			sum.Amount = &v
		}
		if common != "" {
			if sum.Chance != "" {
				return Spell{}, s.mismatch("summon", part, "one success chance")
			}
			sum.Chance = common
		}
		sp.Summons = append(sp.Summons, sum)
	}
	return sp, nil
}

// skipLegend moves past a bold marker legend such as "D Domain spell;".
func (s *state) skipLegend(marker string, texts ...string) error {
	if !s.c.AtLabel(marker) {
		return nil
	}
	s.c.Advance(1)
	n := s.c.Peek()
	got := strings.ToLower(strings.TrimSpace(n.Text))
	for _, t := range texts {
		if n.IsText() && got == t {
			s.c.Advance(1)
			s.c.SkipOptionalBreak()
			return nil
		}
	}
	return s.mismatch("spells", n.Text, marker+" legend")
}

func (s *state) trailer(labels ...string) (string, bool) {
	if !s.c.AtLabel(labels...) {
		return "", false
	}
	s.c.Advance(1)
	text := strings.TrimSpace(s.c.Collect(fieldStops...))
	s.c.SkipOptionalBreak()
	return text, true
}

func (s *state) readSpellTrailers(src *SpellSource) error {
	if err := s.skipLegend("D", "domain spell;"); err != nil {
		return err
	}
	if t, ok := s.trailer("Domain", "Domains"); ok {
		src.Domains = grammar.SplitCommas(strings.ToLower(grammar.StripFootnotes(grammar.CleanTrailing(t, ';'))))
	}
	if t, ok := s.trailer("Bloodline"); ok {
		src.Bloodline = strings.ToLower(grammar.StripFootnotes(grammar.CleanTrailing(t, ';')))
	}
	if t, ok := s.trailer("Inquisition"); ok {
		src.Inquisition = strings.ToLower(grammar.StripFootnotes(grammar.CleanTrailing(t, ';')))
	}
	if err := s.skipLegend("M", "mythic spell", "mythic spells"); err != nil {
		return err
	}
	if err := s.skipLegend("S", "spirit magic spell;"); err != nil {
		return err
	}
	if t, ok := s.trailer("Spirit"); ok {
		src.Spirit = strings.ToLower(t)
	}
	if t, ok := s.trailer("Opposition Schools", "Prohibited Schools"); ok {
		src.OppositionSchools = grammar.SplitCommas(strings.ToLower(t))
	}
	if t, ok := s.trailer("Patron"); ok {
		src.Patron = strings.ToLower(t)
	}
	if t, ok := s.trailer("Mystery"); ok {
		src.Mystery = strings.ToLower(t)
	}
	if t, ok := s.trailer("Psychic Discipline"); ok {
		src.PsychicDiscipline = strings.ToLower(t)
	}
	if n := s.c.Peek(); n.Tag == doctree.TagSup && strings.TrimSpace(n.PlainText()) == "M" {
		src.MythicRestriction = strings.TrimSpace(s.c.Collect(fieldStops...))
		s.c.SkipOptionalBreak()
	}
	return nil
}

var implementLine = regexp.MustCompile(`(?i)^(.+?) \((.+?), (\d+) points\)-Resonant (.+); Focus (.+)$`)

// readImplements reads an occultist's implement schools.
func (s *state) readImplements(src *SpellSource) error {
	if !s.c.AtLabel("Implements") {
		return nil
	}
	s.c.Advance(1)
	if err := s.c.SkipBreak(); err != nil {
		return err
	}
	for s.c.Peek().Tag == doctree.TagBold {
		line := strings.TrimSpace(s.c.Collect(doctree.TagH3, doctree.TagBreak))
		s.c.SkipOptionalBreak()
		m := implementLine.FindStringSubmatch(line)
		if m == nil {
			return s.mismatch("implements", line, "implement school line")
		}
		points, _ := strconv.Atoi(m[3])
		src.Implements = append(src.Implements, Implement{
			School:        strings.TrimSpace(m[1]),
			Slot:          strings.TrimSpace(m[2]),
			Points:        points,
			ResonantPower: strings.TrimSpace(m[4]),
			FocusPowers:   grammar.SplitCommas(m[5]),
		})
	}
	return nil
}

var dashedLine = regexp.MustCompile(`^(.+?)\s*-\s*(.+)$`)

func (s *state) readWildTalents() error {
	if s.rec.KineticistWildTalents != nil {
		return s.mismatch(blockKineticist, "", "a single wild talents block")
	}
	if err := s.c.SkipBreak(); err != nil {
		return err
	}
	talents := make(map[string][]string)
	for s.c.Peek().IsText() {
		line := strings.TrimSpace(s.c.Collect(doctree.TagH3, doctree.TagBreak))
		m := dashedLine.FindStringSubmatch(line)
		if m == nil {
			return s.mismatch(blockKineticist, line, `"<kind> - <talents>" line`)
		}
		talents[m[1]] = grammar.SplitCommas(m[2])
		s.c.SkipOptionalBreak()
	}
	s.rec.KineticistWildTalents = talents
	return nil
}

var (
	peCost       = regexp.MustCompile(`^(\d+) PE$`)
	psychicEntry = regexp.MustCompile(`^(.+?)\s*(?:\(([^)]+)\))?$`)
)

func (s *state) readPsychicMagic() error {
	src := SpellSource{Name: "default"}
	if err := s.readSpellHeader(&src); err != nil {
		return err
	}
	line := strings.TrimSpace(s.c.CollectText(cursor.Stops(cursor.Sections, cursor.Set{doctree.TagBreak}), cursor.NoTags, cursor.SupOnly))
	m := dashedLine.FindStringSubmatch(line)
	if m == nil {
		return s.mismatch(blockPsychic, line, `"<PE> - <spells>" line`)
	}

	pm := s.rec.PsychicMagic
	if pm == nil {
		pm = &PsychicMagic{}
	}
	pm.PE = grammar.IntOrText{Text: m[1]}
	if cm := peCost.FindStringSubmatch(m[1]); cm != nil {
		n, _ := strconv.Atoi(cm[1])
		pm.PE = grammar.Int(n)
	}

	var entries []PsychicSpell
	for _, entry := range grammar.SplitCommas(m[2]) {
		text, marks := grammar.ExtractMarkers(entry)
		em := psychicEntry.FindStringSubmatch(text)
		if em == nil {
			return s.mismatch(blockPsychic, text, "psychic spell")
		}
		ps := PsychicSpell{Name: em[1], Superscripts: marks}
		for _, part := range grammar.SplitTopLevel(em[2], parenSep) {
			switch {
			case strings.HasSuffix(part, " PE"):
				v, err := grammar.ParseInt(strings.TrimSuffix(part, " PE"))
				if err != nil {
					return s.mismatch(blockPsychic, part, "PE cost")
				}
				ps.PE = &v
			case strings.HasPrefix(part, "DC "):
				v, err := grammar.ParseInt(strings.TrimPrefix(part, "DC "))
				if err != nil {
					return s.mismatch(blockPsychic, part, "save DC")
				}
				ps.DC = &v
			case ps.Other != "":
				return s.mismatch(blockPsychic, part, "one unclassified note")
			default:
				ps.Other = part
			}
		}
		entries = append(entries, ps)
	}
	s.c.SkipOptionalBreak()
	if err := s.skipLegend("M", "mythic spell-like ability"); err != nil {
		return err
	}

	pm.Sources = append(pm.Sources, src)
	pm.Entries = append(pm.Entries, entries...)
	s.rec.PsychicMagic = pm
	return nil
}
