package statblock

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
	"github.com/dgallion1/bestiary/internal/quirks"
)

func readTitle(s *state) error {
	h, err := s.c.Expect(cursor.IsHeading(1, ""))
	if err != nil {
		return err
	}
	s.rec.Title1 = h.Text
	s.rec.Legacy = h.Find(isLegacyMarker) != nil
	if s.c.Peek().Tag == doctree.TagItalic {
		s.rec.DescShort = strings.TrimSpace(s.c.Next().PlainText())
	}
	return nil
}

// isLegacyMarker finds the 3.5 edition badge image in a title.
func isLegacyMarker(n *doctree.Node) bool {
	return n.Tag == "img" && strings.Contains(strings.ReplaceAll(n.Src, `\`, "/"), "ThreeFiveSymbol")
}

var crLine = regexp.MustCompile(`^(.+) CR ([0-9/-]+?)(?:/MR (\d+))?$`)

func readChallengeRating(s *state) error {
	h, err := s.c.Expect(cursor.IsHeading(2, ""))
	if err != nil {
		return err
	}
	m := crLine.FindStringSubmatch(h.Text)
	if m == nil {
		return s.mismatch("CR", h.Text, `"<name> CR <rating>" line`)
	}
	s.rec.Title2 = m[1]
	// A dash means no rating.
	if cr := m[2]; strings.Trim(cr, "-") != "" {
		v, err := grammar.ParseFraction(cr)
		if err != nil {
			return s.mismatch("CR", cr, "challenge rating")
		}
		s.rec.CR = &v
	}
	if m[3] != "" {
		mr, _ := strconv.Atoi(m[3])
		s.rec.MR = &mr
	}
	return nil
}

var citation = regexp.MustCompile(`^(.+?) pg\. (\d+)`)

func readSources(s *state) error {
	if _, err := s.c.Expect(cursor.IsBold("Source")); err != nil {
		return err
	}
	if s.c.Peek().IsText() {
		s.c.Advance(1)
	}
	for s.c.Peek().Tag == doctree.TagAnchor {
		a := s.c.Next()
		text := a.PlainText()
		m := citation.FindStringSubmatch(text)
		if m == nil {
			return s.mismatch("sources", text, `"<book> pg. <page>" citation`)
		}
		page, _ := strconv.Atoi(m[2])
		if page < 1 {
			return s.mismatch("sources", text, "page number of at least 1")
		}
		s.rec.Sources = append(s.rec.Sources, Source{
			Name: strings.TrimSpace(m[1]),
			Page: page,
			Link: strings.TrimSpace(a.Href),
		})
		if s.c.Peek().IsText() {
			s.c.Advance(1)
		}
	}
	if len(s.rec.Sources) == 0 {
		return s.fail("source citation link")
	}
	return s.c.SkipBreak()
}

func readXP(s *state) error {
	if _, err := s.c.Expect(cursor.IsBold("XP")); err != nil {
		return err
	}
	xp := &grammar.IntOrText{}
	if s.c.Peek().IsText() {
		text := grammar.StripFootnotes(s.c.Next().Text)
		if text != "" {
			n, err := grammar.ParseInt(text)
			if err != nil {
				return s.mismatch("XP", text, "experience points")
			}
			*xp = grammar.Int(n)
		}
	}
	s.rec.XP = xp
	return s.c.SkipBreak()
}

var unlinkedCitation = regexp.MustCompile(`^(.+?) (\d+)$`)

// readExtraSource reads an unlinked "<book> <page>" citation line.
func readExtraSource(s *state) error {
	line := strings.TrimSpace(s.c.Collect(doctree.TagBreak))
	m := unlinkedCitation.FindStringSubmatch(line)
	if m == nil {
		return s.mismatch("sources", line, `"<book> <page>" line`)
	}
	page, _ := strconv.Atoi(m[2])
	s.rec.Sources = append(s.rec.Sources, Source{Name: strings.TrimSpace(m[1]), Page: page})
	return s.c.SkipBreak()
}

// readRaceClass reads the optional race/class line and the alignment line.
// A race/class line is recognized by the alignment line that follows it:
// without one, the Init label comes next.
func readRaceClass(s *state) error {
	line := strings.TrimSpace(s.c.Collect(doctree.TagBreak))
	if err := s.c.SkipBreak(); err != nil {
		return err
	}

	switch {
	case s.hasQuirk(quirks.RaceOnly):
		s.rec.RaceClass = &RaceClass{Raw: line, Race: line}
		line = strings.TrimSpace(s.c.Collect(doctree.TagBreak))
		if err := s.c.SkipBreak(); err != nil {
			return err
		}
	case s.c.Peek().IsText():
		rc, err := s.parseRaceClass(line)
		if err != nil {
			return err
		}
		s.rec.RaceClass = rc
		line = strings.TrimSpace(s.c.Collect(doctree.TagBreak))
		if err := s.c.SkipBreak(); err != nil {
			return err
		}
	case s.c.Peek().Tag == doctree.TagAnchor && s.hasQuirk(quirks.RaceAfterAlignment):
		raw := strings.TrimSpace(s.c.Collect(doctree.TagBreak))
		rc := &RaceClass{Raw: raw}
		rest := stripPrefixes(rc, raw)
		if len(rc.Prefix) == 0 {
			return s.mismatch("race", raw, "race line with a prefix")
		}
		rc.Race = capitalize(rest)
		s.rec.RaceClass = rc
		if err := s.c.SkipBreak(); err != nil {
			return err
		}
	}
	return s.parseAlignment(line)
}

const augmentedSuffix = " (augmented humanoid)"

var (
	racePrefixes = func() []string {
		p := []string{"male", "female", "advanced", "unique", "variant", "young", "adult", "middle-aged", "old", "venerable"}
		slices.SortStableFunc(p, func(a, b string) int { return len(b) - len(a) })
		return p
	}()
	trailingParens = regexp.MustCompile(`^(.+?) \(([^)]+?)\)$`)
	deityClasses   = []string{"antipaladin", "cleric", "druid", "inquisitor", "paladin", "warpriest"}
)

func (s *state) parseRaceClass(line string) (*RaceClass, error) {
	rc := &RaceClass{Raw: line}
	suffix := ""
	if strings.HasSuffix(line, augmentedSuffix) {
		suffix = augmentedSuffix
		line = strings.TrimSuffix(line, augmentedSuffix)
	}
	line = stripPrefixes(rc, line)
	if strings.Contains(strings.ToLower(line), "variant") && !slices.Contains(rc.Prefix, "variant") {
		rc.Prefix = append(rc.Prefix, "variant")
	}

	if m := trailingParens.FindStringSubmatch(line); m != nil {
		line = strings.TrimSpace(m[1])
		for _, src := range strings.Split(m[2], ", ") {
			if page, err := strconv.Atoi(src); err == nil {
				if len(rc.Sources) == 0 {
					return nil, s.mismatch("race sources", m[2], "book name before a bare page number")
				}
				rc.Sources = append(rc.Sources, RaceSource{Name: rc.Sources[len(rc.Sources)-1].Name, Page: page})
				continue
			}
			sm := unlinkedCitation.FindStringSubmatch(src)
			if sm == nil {
				return nil, s.mismatch("race sources", src, `"<book> <page>" citation`)
			}
			name := strings.TrimSpace(sm[1])
			if name == "see page" && len(s.rec.Sources) > 0 {
				name = s.rec.Sources[0].Name
			}
			page, _ := strconv.Atoi(sm[2])
			rc.Sources = append(rc.Sources, RaceSource{Name: name, Page: page})
		}
	}

	if line != "" && unicode.IsDigit(rune(line[len(line)-1])) {
		if s.p.classes.Len() == 0 {
			s.diagnose("race/class: no class table loaded, class levels kept in race")
		} else {
			classes, rest, err := s.parseClasses(line)
			if err != nil {
				return nil, err
			}
			rc.Class = classes
			line = rest
		}
	}
	if line != "" {
		rc.Race = capitalize(line) + suffix
	}
	return rc, nil
}

// parseClasses splits trailing "<class> <level>" blocks, joined by "/",
// off a race line.
func (s *state) parseClasses(line string) ([]ClassLevel, string, error) {
	loc := s.p.classLine.FindStringIndex(line)
	if loc == nil {
		return nil, "", s.mismatch("class", line, "class levels")
	}
	var out []ClassLevel
	for _, block := range strings.Split(strings.TrimSpace(line[loc[0]:]), "/") {
		m := s.p.classEntry.FindStringSubmatch(block)
		if m == nil {
			return nil, "", s.mismatch("class", block, `"<class> <level>" block`)
		}
		level, _ := strconv.Atoi(m[4])
		cl := ClassLevel{Name: strings.TrimSpace(m[1]), Level: level}
		if m[2] != "" {
			if !slices.Contains(deityClasses, strings.ToLower(cl.Name)) {
				return nil, "", s.mismatch("class", block, "deity only for divine classes")
			}
			cl.Deity = strings.TrimSpace(m[2])
		}
		cl.Archetype = strings.TrimSpace(m[3])
		out = append(out, cl)
	}
	return out, strings.TrimSpace(line[:loc[0]]), nil
}

// stripPrefixes removes leading descriptors ("advanced", "young") from a
// race line and records them on rc.
func stripPrefixes(rc *RaceClass, line string) string {
	for {
		found := false
		for _, p := range racePrefixes {
			if strings.HasPrefix(strings.ToLower(line), p+" ") {
				rc.Prefix = append(rc.Prefix, p)
				line = line[len(p)+1:]
				found = true
				break
			}
		}
		if !found {
			return strings.TrimSpace(line)
		}
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// sizeNames is the size category alternation, smallest first.
const sizeNames = "Fine|Diminutive|Tiny|Small|Medium|Large|Huge|Gargantuan|Colossal"

var alignmentLine = regexp.MustCompile(`^(.+) (` + sizeNames + `) ([^(]+)(?: \((.+)\))?$`)

func (s *state) parseAlignment(line string) error {
	line = grammar.StripFootnotes(line)
	m := alignmentLine.FindStringSubmatch(line)
	if m == nil {
		return s.mismatch("alignment", line, "alignment, size and type line")
	}
	s.rec.Alignment = Alignment{Raw: m[1], Cleaned: strings.ReplaceAll(m[1], "Always ", "")}
	s.rec.Size = m[2]
	s.rec.Type = strings.TrimSpace(m[3])
	if m[4] != "" {
		s.rec.Subtypes = grammar.SplitCommas(m[4])
	}
	return nil
}

var initiativeLine = regexp.MustCompile(`^([+-]\s*\d+)(?:/([+-]\s*\d+))?\s*(?:\(([+-]\s*\d+)\s+(.+?)\))?\s*(?:[,;]\s*(.+?)\s*)?;$`)

func readInitiative(s *state) error {
	text, err := s.labelled("Init", doctree.TagBold)
	if err != nil {
		return err
	}
	m := initiativeLine.FindStringSubmatch(text)
	if m == nil {
		return s.mismatch("initiative", text, "initiative modifier")
	}
	in := Initiative{Ability: m[5]}
	in.Bonus, _ = grammar.ParseInt(m[1])
	if m[2] != "" {
		v, _ := grammar.ParseInt(m[2])
		in.Secondary = &v
	}
	if m[3] != "" {
		v, _ := grammar.ParseInt(m[3])
		in.Other = map[string]int{m[4]: v}
	}
	s.rec.Initiative = in
	return nil
}

var (
	sensesLine       = regexp.MustCompile(`^(?:(.+)[;,])?\s*(Perception\s+[+-]\s*\d+.*?)$`)
	legacySensesLine = regexp.MustCompile(`^(?:(.+)[;,])?\s*(Listen\s+[+-]\s*\d+.*?),\s*(Spot\s+[+-]\s*\d+.*?)$`)
	senseRange       = regexp.MustCompile(`^(.+?)\s+(\d+)\s*ft\s*\.?\s*(?:\((.+?)\))?$`)
	senseSep         = regexp.MustCompile(`[,;]`)
)

func readSenses(s *state) error {
	text, err := s.labelled("Senses", doctree.TagH3, doctree.TagBreak)
	if err != nil {
		return err
	}
	var list string
	if s.rec.Legacy {
		m := legacySensesLine.FindStringSubmatch(text)
		if m == nil {
			return s.mismatch("senses", text, "senses ending in Listen and Spot")
		}
		list, s.listen, s.spot = m[1], m[2], m[3]
	} else {
		m := sensesLine.FindStringSubmatch(text)
		if m == nil {
			return s.mismatch("senses", text, "senses ending in Perception")
		}
		list, s.perception = m[1], m[2]
	}

	if list != "" {
		senses := &Senses{}
		for _, entry := range grammar.SplitTopLevel(list, senseSep) {
			entry = grammar.StripFootnotes(entry)
			if m := senseRange.FindStringSubmatch(entry); m != nil {
				name := strings.ToLower(m[1])
				if senses.Ranges == nil {
					senses.Ranges = make(map[string]int)
				}
				senses.Ranges[name], _ = strconv.Atoi(m[2])
				if m[3] != "" {
					if senses.Qualifiers == nil {
						senses.Qualifiers = make(map[string]string)
					}
					senses.Qualifiers[name] = strings.TrimSpace(m[3])
				}
				continue
			}
			senses.Special = append(senses.Special, strings.ToLower(entry))
		}
		s.rec.Senses = senses
	}
	s.c.SkipOptionalBreak()
	return nil
}

var (
	auraEntry    = regexp.MustCompile(`^(.+?)(?:\s+\((.+?)\))?$`)
	auraRadius   = regexp.MustCompile(`^(\d+)[ -](?:ft\.?|feet)(?: radius)?$`)
	auraDC       = regexp.MustCompile(`^DC (\d+)(?: (Fort|Ref|Will))?$|^(Fort|Ref|Will) DC (\d+) negates$`)
	auraDuration = regexp.MustCompile(`^\d+(?:d\d+)? (?:round|minute|hour|day)s?$`)
)

func readAuras(s *state) error {
	text, err := s.labelled("Aura", doctree.TagH3, doctree.TagBreak)
	if err != nil {
		return err
	}
	for _, entry := range grammar.SplitCommas(text) {
		m := auraEntry.FindStringSubmatch(entry)
		if m == nil {
			return s.mismatch("aura", entry, "aura name")
		}
		aura := Aura{Name: grammar.StripFootnotes(m[1])}
		for _, part := range grammar.SplitTopLevel(m[2], senseSep) {
			if rm := auraRadius.FindStringSubmatch(part); rm != nil {
				r := grammar.ParseIntLenient(rm[1])
				aura.Radius = &r
				continue
			}
			if dm := auraDC.FindStringSubmatch(part); dm != nil {
				dc, typ := dm[1], dm[2]
				if dc == "" {
					dc, typ = dm[4], dm[3]
				}
				v, _ := strconv.Atoi(dc)
				aura.DC = &v
				aura.DCType = typ
				continue
			}
			if auraDuration.MatchString(part) {
				aura.Duration = part
				continue
			}
			aura.Other = append(aura.Other, part)
		}
		s.rec.Auras = append(s.rec.Auras, aura)
	}
	return nil
}
