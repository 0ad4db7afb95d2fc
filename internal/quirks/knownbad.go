package quirks

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// KnownBad is the set of document identities skipped before extraction
// because their source is corrupt.
type KnownBad struct {
	ids map[string]bool
}

// NewKnownBad builds a set from identities.
func NewKnownBad(ids ...string) *KnownBad {
	k := &KnownBad{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			k.ids[id] = true
		}
	}
	return k
}

// ReadKnownBad parses a line list. Blank lines and lines starting with #
// are ignored.
func ReadKnownBad(r io.Reader) (*KnownBad, error) {
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read known-bad list: %w", err)
	}
	return NewKnownBad(ids...), nil
}

// ReadKnownBadFile reads a known-bad list from disk.
func ReadKnownBadFile(path string) (*KnownBad, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open known-bad list %q: %w", path, err)
	}
	defer f.Close()
	return ReadKnownBad(f)
}

// Contains reports whether identity is on the list. A nil set is empty.
func (k *KnownBad) Contains(identity string) bool {
	return k != nil && k.ids[identity]
}

func (k *KnownBad) Len() int {
	if k == nil {
		return 0
	}
	return len(k.ids)
}
