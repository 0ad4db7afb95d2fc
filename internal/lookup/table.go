// Package lookup holds the class hit-die table used to apportion a
// creature's hit dice between class levels and racial dice.
package lookup

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Kind distinguishes ordinary classes from entries that grant no dice.
type Kind int

const (
	Class  Kind = iota
	Mythic      // mythic paths grant no hit dice
	NoDice      // classes without a hit die (e.g. Familiar)
)

// HitDie is one table entry.
type HitDie struct {
	Name string
	Size int
	Kind Kind
}

// Table maps class names (case-insensitively) to hit dice. It is built once
// and read concurrently afterwards.
type Table struct {
	entries map[string]HitDie

	once    sync.Once
	pattern string
}

// NewTable builds a table from entries.
func NewTable(entries ...HitDie) *Table {
	t := &Table{entries: make(map[string]HitDie, len(entries))}
	for _, e := range entries {
		t.entries[strings.ToLower(e.Name)] = e
	}
	return t
}

func (t *Table) Len() int { return len(t.entries) }

// Get looks up a class by name, ignoring case.
func (t *Table) Get(name string) (HitDie, bool) {
	hd, ok := t.entries[strings.ToLower(strings.TrimSpace(name))]
	return hd, ok
}

// Entries returns all entries sorted by name.
func (t *Table) Entries() []HitDie {
	out := make([]HitDie, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b HitDie) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// ClassPattern returns a regexp alternation of every class name, longest
// first so that "arcane archer" wins over "archer". Names are lowercased;
// match case-insensitively.
func (t *Table) ClassPattern() string {
	t.once.Do(func() {
		names := make([]string, 0, len(t.entries))
		for name := range t.entries {
			names = append(names, regexp.QuoteMeta(name))
		}
		slices.SortFunc(names, func(a, b string) int {
			if c := cmp.Compare(len(b), len(a)); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		if len(names) == 0 {
			// Matches nothing.
			t.pattern = `(?:\b\B)`
			return
		}
		t.pattern = "(?:" + strings.Join(names, "|") + ")"
	})
	return t.pattern
}

// ReadJSON parses a {"Name": die} object. A null die marks a class without
// hit dice; 0 marks a mythic path.
func ReadJSON(r io.Reader) (*Table, error) {
	var raw map[string]*int
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode class table: %w", err)
	}
	entries := make([]HitDie, 0, len(raw))
	for name, die := range raw {
		entries = append(entries, entryFor(name, die))
	}
	return NewTable(entries...), nil
}

// WriteJSON writes the table in the ReadJSON format.
func (t *Table) WriteJSON(w io.Writer) error {
	raw := make(map[string]*int, len(t.entries))
	for _, e := range t.entries {
		raw[e.Name] = e.die()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(raw)
}

// ReadCSV parses name,die rows. An empty die column marks a class without
// hit dice. A header row starting with "name" is skipped.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 2

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse class table csv: %w", err)
	}
	var entries []HitDie
	for i, rec := range records {
		if i == 0 && strings.EqualFold(rec[0], "name") {
			continue
		}
		var die *int
		if s := strings.TrimSpace(rec[1]); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("class table csv line %d: die %q: %w", i+1, s, err)
			}
			die = &n
		}
		entries = append(entries, entryFor(strings.TrimSpace(rec[0]), die))
	}
	return NewTable(entries...), nil
}

// WriteCSV writes the table in the ReadCSV format.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "die"}); err != nil {
		return err
	}
	for _, e := range t.Entries() {
		die := ""
		if d := e.die(); d != nil {
			die = strconv.Itoa(*d)
		}
		if err := cw.Write([]string{e.Name, die}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadFile reads a .json or .csv class table.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open class table %q: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(f)
	}
	return ReadJSON(f)
}

// SaveFile writes the table as .json or .csv by extension.
func (t *Table) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create class table %q: %w", path, err)
	}
	write := t.WriteJSON
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		write = t.WriteCSV
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write class table %q: %w", path, err)
	}
	return f.Close()
}

func entryFor(name string, die *int) HitDie {
	switch {
	case die == nil:
		return HitDie{Name: name, Kind: NoDice}
	case *die == 0:
		return HitDie{Name: name, Kind: Mythic}
	}
	return HitDie{Name: name, Size: *die, Kind: Class}
}

func (e HitDie) die() *int {
	switch e.Kind {
	case NoDice:
		return nil
	case Mythic:
		zero := 0
		return &zero
	}
	size := e.Size
	return &size
}
