// Package grammar holds the small text routines shared by every statblock
// field extractor: integer parsing, bracket-aware splitting, footnote and
// marker handling.
package grammar

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseInt parses a signed integer, tolerating thousands separators and a
// space between the sign and the digits ("+ 3", "1,234").
func ParseInt(s string) (int, error) {
	t := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if len(t) > 1 && (t[0] == '+' || t[0] == '-') {
		t = t[:1] + strings.TrimLeft(t[1:], " ")
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("parse integer %q: %w", s, err)
	}
	return n, nil
}

// IntOrText is an integer field that may legitimately hold placeholder
// text instead ("-", "—"). The zero value is null.
type IntOrText struct {
	Value int
	Text  string
	IsInt bool
}

// Int wraps n.
func Int(n int) IntOrText { return IntOrText{Value: n, IsInt: true} }

// ParseIntLenient parses s like ParseInt and falls back to the trimmed
// original text when it is not an integer.
func ParseIntLenient(s string) IntOrText {
	if n, err := ParseInt(s); err == nil {
		return Int(n)
	}
	return IntOrText{Text: strings.TrimSpace(s)}
}

// IsNull reports whether v holds neither an integer nor text.
func (v IntOrText) IsNull() bool { return !v.IsInt && v.Text == "" }

func (v IntOrText) String() string {
	if v.IsInt {
		return strconv.Itoa(v.Value)
	}
	return v.Text
}

func (v IntOrText) MarshalJSON() ([]byte, error) {
	switch {
	case v.IsInt:
		return json.Marshal(v.Value)
	case v.Text == "":
		return []byte("null"), nil
	}
	return json.Marshal(v.Text)
}

func (v *IntOrText) UnmarshalJSON(data []byte) error {
	*v = IntOrText{}
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &v.Value); err == nil {
		v.IsInt = true
		return nil
	}
	return json.Unmarshal(data, &v.Text)
}

// CommaSep requires whitespace after the comma so thousands separators
// ("1,200 gp") stay inside their entry.
var (
	CommaSep     = regexp.MustCompile(`,\s+`)
	SemicolonSep = regexp.MustCompile(`;\s*`)
)

// SplitTopLevel splits s at matches of sep that sit outside any (...) or
// [...] group. When sep has a capture group, only the group's span is
// removed, so a separator can require context it does not consume
// (`\)(\s+or\s+)` keeps the closing paren). Parts are trimmed; empty parts
// are dropped.
func SplitTopLevel(s string, sep *regexp.Regexp) []string {
	depth := nesting(s)
	var out []string
	last := 0
	for _, m := range sep.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[0], m[1]
		if len(m) >= 4 && m[2] >= 0 {
			start, end = m[2], m[3]
		}
		if start < last || depth[start] != 0 {
			continue
		}
		out = appendPart(out, s[last:start])
		last = end
	}
	return appendPart(out, s[last:])
}

// Split is SplitTopLevel on a literal separator.
func Split(s, sep string) []string {
	return SplitTopLevel(s, regexp.MustCompile(regexp.QuoteMeta(sep)))
}

// SplitCommas splits a comma list outside brackets.
func SplitCommas(s string) []string { return SplitTopLevel(s, CommaSep) }

func appendPart(out []string, part string) []string {
	if part = strings.TrimSpace(part); part != "" {
		out = append(out, part)
	}
	return out
}

// nesting returns the bracket depth in effect at every byte offset of s
// (plus one trailing entry for len(s)).
func nesting(s string) []int {
	depth := make([]int, len(s)+1)
	d := 0
	for i := 0; i < len(s); i++ {
		depth[i] = d
		switch s[i] {
		case '(', '[':
			d++
		case ')', ']':
			if d > 0 {
				d--
			}
		}
	}
	depth[len(s)] = d
	return depth
}

// TrimLeadingAnd removes the "and " joining the final entry of a list.
func TrimLeadingAnd(parts []string) []string {
	if n := len(parts); n > 0 {
		parts[n-1] = strings.TrimPrefix(strings.TrimSpace(parts[n-1]), "and ")
	}
	return parts
}

// FootnoteGlyphs are stripped from field text. Longer glyphs come first.
var FootnoteGlyphs = []string{"**", "*", "†"}

var footnotePattern = func() *regexp.Regexp {
	quoted := make([]string, len(FootnoteGlyphs))
	for i, g := range FootnoteGlyphs {
		quoted[i] = regexp.QuoteMeta(g)
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}()

// StripFootnotes removes footnote glyphs and trims the result.
func StripFootnotes(s string) string {
	return strings.TrimSpace(footnotePattern.ReplaceAllString(s, ""))
}

// UnwrapParens removes one pair of parentheses enclosing all of s.
func UnwrapParens(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := nesting(s)
	for i := 1; i < len(s)-1; i++ {
		if depth[i] == 0 {
			// "(a) or (b)": the first pair closes early.
			return s
		}
	}
	return strings.TrimSpace(s[1 : len(s)-1])
}

// CleanTrailing trims s and one trailing occurrence of ch.
func CleanTrailing(s string, ch byte) string {
	s = strings.TrimSpace(s)
	if s != "" && s[len(s)-1] == ch {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}

// Marker delimiters wrapped around annotated nodes by cursor.CollectText.
const (
	MarkOpen  = "⟦"
	MarkClose = "⟧"
)

var markerPattern = regexp.MustCompile(`\s*⟦([^⟧]*)⟧`)

// Mark wraps s in marker delimiters.
func Mark(s string) string { return MarkOpen + s + MarkClose }

// ExtractMarkers removes every marker from s, returning the remaining text
// and the trimmed marker contents in order.
func ExtractMarkers(s string) (string, []string) {
	var marks []string
	for _, m := range markerPattern.FindAllStringSubmatch(s, -1) {
		marks = append(marks, strings.TrimSpace(m[1]))
	}
	return strings.TrimSpace(markerPattern.ReplaceAllString(s, "")), marks
}

var fraction = regexp.MustCompile(`^(\d+)/(\d+)$`)

// ParseFraction parses an integer or simple fraction ("1/3") as a float.
func ParseFraction(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if m := fraction.FindStringSubmatch(s); m != nil {
		num, _ := strconv.Atoi(m[1])
		den, _ := strconv.Atoi(m[2])
		if den == 0 {
			return 0, fmt.Errorf("parse fraction %q: zero denominator", s)
		}
		return float64(num) / float64(den), nil
	}
	n, err := ParseInt(s)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

// ParseSigned parses an explicit-sign modifier ("+4", "-1").
func ParseSigned(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}
	n, err := ParseInt(s)
	return n, err == nil
}
