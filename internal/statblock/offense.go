package statblock

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/dgallion1/bestiary/internal/grammar"
)

var (
	speedEntry           = regexp.MustCompile(`^\s*(?:(.+?)\s+)?(\d+)\s*ft\s*\.\s*(?:\((.+?)\))?$`)
	flyManeuverabilities = []string{"clumsy", "poor", "average", "good", "perfect"}
)

// readSpeed reads the movement modes. A second semicolon-separated part
// lists speeds under other conditions (in armor, in another form).
func readSpeed(s *state) error {
	text, err := s.labelled("Speed", doctree.TagBreak)
	if err != nil {
		return err
	}
	parts := grammar.Split(text, "; ")
	if len(parts) == 0 || len(parts) > 2 {
		return s.mismatch("speed", text, "at most one alternate speed set")
	}
	sp := Speeds{Modes: make(map[string]int)}
	if len(parts) == 2 {
		sp.Alternate = parts[1]
	}
	for i, entry := range grammar.SplitCommas(parts[0]) {
		m := speedEntry.FindStringSubmatch(entry)
		if m == nil {
			sp.Other = append(sp.Other, entry)
			continue
		}
		mode := strings.ToLower(m[1])
		switch {
		case mode == "" && i > 0:
			return s.mismatch("speed", entry, "named movement mode")
		case mode == "":
			mode = "base"
		}
		sp.Modes[mode], _ = strconv.Atoi(m[2])
		q := strings.TrimSpace(m[3])
		switch {
		case q == "":
		case mode == "fly" && isManeuverability(q):
			sp.FlyManeuverability = strings.ToLower(q)
		default:
			if sp.Qualifiers == nil {
				sp.Qualifiers = make(map[string]string)
			}
			sp.Qualifiers[mode] = q
		}
	}
	s.rec.Speeds = sp
	return s.c.SkipBreak()
}

func isManeuverability(q string) bool {
	for _, m := range flyManeuverabilities {
		if strings.EqualFold(q, m) {
			return true
		}
	}
	return false
}

var (
	spaceLine = regexp.MustCompile(`^(?:(\d+)|(2\s*-?\s*1/2)|(1/2))\s*(?:ft\.?|feet)$`)
	reachLine = regexp.MustCompile(`^(?:(\d+)|(2\s*-?\s*1/2)|(1/2))\s*(?:ft\.?|feet)(?:\s*\(?([^)]+)\)?)?$`)
)

func distance(m []string) *float64 {
	var v float64
	switch {
	case m[2] != "":
		v = 2.5
	case m[3] != "":
		v = 0.5
	default:
		n, _ := strconv.Atoi(m[1])
		v = float64(n)
	}
	return &v
}

func readSpace(s *state) error {
	text, err := s.labelled("Space", fieldStops...)
	if err != nil {
		return err
	}
	text = grammar.CleanTrailing(text, ',')
	m := spaceLine.FindStringSubmatch(text)
	if m == nil {
		return s.mismatch("space", text, "distance in feet")
	}
	s.rec.Space = distance(m)
	return nil
}

func readReach(s *state) error {
	text, err := s.labelled("Reach", fieldStops...)
	if err != nil {
		return err
	}
	text = grammar.CleanTrailing(text, ',')
	m := reachLine.FindStringSubmatch(text)
	if m == nil {
		return s.mismatch("reach", text, "distance in feet")
	}
	s.rec.Reach = distance(m)
	s.rec.ReachOther = strings.TrimSpace(m[4])
	return nil
}

func readSpecialAttacks(s *state) error {
	text, err := s.labelled("Special Attacks", doctree.TagH3, doctree.TagBreak)
	if err != nil {
		return err
	}
	s.rec.Attacks.Special = grammar.SplitCommas(grammar.StripFootnotes(text))
	s.c.SkipOptionalBreak()
	return nil
}

// readTactics reads the labelled paragraphs of a Tactics section.
func readTactics(s *state) error {
	s.c.Advance(1)
	s.c.SkipBlank()
	tactics := make(map[string]string)
	for {
		label, ok := s.c.PeekLabel()
		if !ok {
			break
		}
		s.c.Advance(1)
		tactics[label] = strings.TrimSpace(s.c.Collect(doctree.TagH3, doctree.TagBreak))
		// Paragraphs are sometimes double spaced.
		s.c.SkipOptionalBreak()
		s.c.SkipOptionalBreak()
		s.c.SkipBlank()
	}
	s.rec.Tactics = tactics
	return nil
}
