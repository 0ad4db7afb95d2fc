package lookup

import (
	"fmt"
	"maps"
	"slices"
)

// ClassLevel is one declared class of a statblock.
type ClassLevel struct {
	Name  string
	Level int
}

// Dice is a count of one die size.
type Dice struct {
	Die int `json:"die"`
	Num int `json:"num"`
}

// ClassDice is the share of hit dice attributed to one class.
type ClassDice struct {
	Name string `json:"name"`
	Die  int    `json:"die"`
	Num  int    `json:"num"`
}

// Apportionment splits a statblock's hit dice into class and racial parts.
type Apportionment struct {
	Class        []ClassDice
	Racial       *Dice
	Num          int
	MythicPaths  []string
	Inconsistent bool
	Reasons      []string
}

// DieOverride substitutes the die size of a class; ok=false keeps the
// table's size.
type DieOverride func(class string) (size int, ok bool)

// Apportion subtracts each declared class's levels from the dice-by-size
// totals. At most one die size may remain; it is the racial portion. Any
// other outcome, or a declared dice count that does not match the sum, marks
// the result inconsistent instead of failing. declared may be nil.
func Apportion(total map[int]int, declared *int, classes []ClassLevel, table *Table, override DieOverride) Apportionment {
	var a Apportionment
	remaining := maps.Clone(total)
	if remaining == nil {
		remaining = map[int]int{}
	}

	for _, c := range classes {
		hd, ok := table.Get(c.Name)
		switch {
		case !ok:
			a.flag("class %q not in hit-die table", c.Name)
			continue
		case hd.Kind == Mythic:
			a.MythicPaths = append(a.MythicPaths, c.Name)
			continue
		case hd.Kind == NoDice:
			a.flag("class %q has no hit die", c.Name)
			continue
		}
		die := hd.Size
		if override != nil {
			if size, ok := override(c.Name); ok {
				die = size
			}
		}
		remaining[die] -= c.Level
		if remaining[die] == 0 {
			delete(remaining, die)
		}
		a.Class = append(a.Class, ClassDice{Name: c.Name, Die: die, Num: c.Level})
	}

	sizes := slices.Sorted(maps.Keys(remaining))
	for _, die := range sizes {
		if remaining[die] < 0 {
			a.flag("class levels exceed d%d hit dice by %d", die, -remaining[die])
		}
	}
	switch {
	case len(sizes) > 1:
		a.flag("%d die sizes remain after class levels: %v", len(sizes), sizes)
	case len(sizes) == 1 && remaining[sizes[0]] > 0:
		a.Racial = &Dice{Die: sizes[0], Num: remaining[sizes[0]]}
	}

	for _, c := range a.Class {
		a.Num += c.Num
	}
	if a.Racial != nil {
		a.Num += a.Racial.Num
	}
	if declared != nil && *declared != a.Num {
		a.flag("declared %d HD but dice sum to %d", *declared, a.Num)
	}
	return a
}

func (a *Apportionment) flag(format string, args ...any) {
	a.Inconsistent = true
	a.Reasons = append(a.Reasons, fmt.Sprintf(format, args...))
}
