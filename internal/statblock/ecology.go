package statblock

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/bestiary/internal/cursor"
	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
)

var (
	treasureTypes = []string{"none", "incidental", "half", "standard", "double", "triple", "NPC Gear"}
	treasureLine  = regexp.MustCompile(`(?i)^(` + strings.Join(treasureTypes, "|") + `)(?:\s+\((.+?)\))?$`)

	advancementGroupSep = regexp.MustCompile(`\)(;)`)
	advancementSep      = regexp.MustCompile(`,| or`)
	advancementSize     = regexp.MustCompile(`(?i)^(\d+)(?:-(\d+)|\+) (?:HD )?\((` + sizeNames + `)\)$`)
	advancementClass    = regexp.MustCompile(`(?i)^by character class(?:; Favored Class (.+))?$`)
)

// readEcology reads the Ecology section. Environment is required once the
// section heading is present.
func readEcology(s *state) error {
	s.c.Advance(1)
	eco := &Ecology{}
	if !s.c.AtLabel("Environment") {
		return s.mismatch("ecology", s.c.Peek().Describe(), "Environment line")
	}
	s.c.Advance(1)
	eco.Environment = strings.TrimSpace(s.c.Collect(doctree.TagH3, doctree.TagBreak))
	s.c.SkipOptionalBreak()

	if s.c.AtLabel("Organization") {
		s.c.Advance(1)
		eco.Organization = strings.TrimSpace(s.c.Collect(doctree.TagH3, doctree.TagBreak))
		s.c.SkipOptionalBreak()
	}

	if s.c.AtLabel("Treasure") {
		s.c.Advance(1)
		text := strings.TrimSpace(s.c.Collect(doctree.TagH3, doctree.TagBreak))
		if m := treasureLine.FindStringSubmatch(text); m != nil {
			for _, t := range treasureTypes {
				if strings.EqualFold(t, m[1]) {
					eco.TreasureType = t
				}
			}
			if m[2] != "" {
				eco.Treasure = grammar.SplitCommas(grammar.StripFootnotes(m[2]))
			}
		} else {
			eco.Treasure = grammar.SplitCommas(grammar.StripFootnotes(text))
		}
		s.c.SkipOptionalBreak()
	}

	if s.rec.Legacy && s.c.AtLabel("Advancement") {
		s.c.Advance(1)
		text := strings.TrimSpace(s.c.Collect(doctree.TagH3, doctree.TagBreak))
		if text != "none" {
			adv, err := s.parseAdvancement(text)
			if err != nil {
				return err
			}
			eco.Advancement = adv
		}
		s.c.SkipOptionalBreak()
	}
	s.rec.Ecology = eco
	return nil
}

func (s *state) parseAdvancement(text string) ([]Advancement, error) {
	var out []Advancement
	for _, group := range grammar.SplitTopLevel(text, advancementGroupSep) {
		for _, entry := range grammar.SplitTopLevel(group, advancementSep) {
			if m := advancementSize.FindStringSubmatch(entry); m != nil {
				a := Advancement{Type: "size", Size: m[3]}
				lo, _ := strconv.Atoi(m[1])
				a.HDMin = &lo
				if m[2] != "" {
					hi, _ := strconv.Atoi(m[2])
					a.HDMax = &hi
				}
				out = append(out, a)
				continue
			}
			if m := advancementClass.FindStringSubmatch(entry); m != nil {
				out = append(out, Advancement{Type: "class", FavoredClass: strings.TrimSpace(m[1])})
				continue
			}
			return nil, s.mismatch("advancement", entry, "size or class advancement")
		}
	}
	return out, nil
}

// readSpecialAbilities reads the bold-labelled paragraphs of the Special
// Abilities section. A paragraph ends at the next label that starts a
// line, or at the next section heading.
func readSpecialAbilities(s *state) error {
	s.c.Advance(1)
	if _, ok := s.c.PeekLabel(); !ok {
		return s.fail("special ability label")
	}
	abilities := make(map[string]string)
	for {
		label, ok := s.c.PeekLabel()
		if !ok {
			break
		}
		s.c.Advance(1)
		rem := s.c.Remaining()
		end := paragraphEnd(rem)
		var sb strings.Builder
		for _, n := range rem[:end] {
			switch {
			case n.IsText():
				sb.WriteString(n.Text)
			case n.IsBreak():
				sb.WriteString("\n")
			default:
				sb.WriteString(n.PlainText())
			}
		}
		abilities[label] = strings.TrimSpace(sb.String())
		s.c.Advance(end)
	}
	s.rec.SpecialAbilities = abilities
	return nil
}

// paragraphEnd returns the index in nodes where the current special
// ability's text stops. Without a label or heading to stop at, the text
// runs to the first double break.
func paragraphEnd(nodes []*doctree.Node) int {
	for j, n := range nodes {
		if cursor.Sections.Has(n) {
			return j
		}
		if n.Tag != doctree.TagBold {
			continue
		}
		k := j - 1
		for k >= 0 && nodes[k].IsBlank() {
			k--
		}
		if k >= 0 && (nodes[k].IsBreak() || nodes[k].Level == 3 || nodes[k].Tag == "ul") {
			return j
		}
	}
	for j := 1; j < len(nodes); j++ {
		if nodes[j-1].IsBreak() && nodes[j].IsBreak() {
			return j - 1
		}
	}
	return len(nodes)
}

// readDescription takes everything up to the next page-level heading as
// the long description.
func readDescription(s *state) error {
	if atSection("Description")(s) {
		s.c.Advance(1)
	}
	for s.c.Peek().IsBreak() {
		s.c.SkipOptionalBreak()
	}
	s.rec.DescLong = strings.TrimSpace(s.c.Collect(doctree.TagH1, doctree.TagH2))
	return nil
}

// skipSection recovers from an unreadable optional section by moving to
// the next heading.
func skipSection(s *state) {
	s.c.Advance(1)
	for !s.c.AtEnd() && !s.c.Peek().IsHeading() {
		s.c.Advance(1)
	}
}
