package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CorpusURLs is the list file of a cached corpus. Line i names the page
// saved as <i>.html next to it.
const CorpusURLs = "urls.txt"

// LoadCorpus reads a cached corpus directory into documents, in list order.
// Blank lines keep their index but yield no document.
func LoadCorpus(dir string) ([]Document, error) {
	f, err := os.Open(filepath.Join(dir, CorpusURLs))
	if err != nil {
		return nil, fmt.Errorf("open corpus list: %w", err)
	}
	defer f.Close()

	var docs []Document
	sc := bufio.NewScanner(f)
	for i := 0; sc.Scan(); i++ {
		identity := strings.TrimRight(sc.Text(), " \t\r")
		if identity == "" {
			continue
		}
		name := strconv.Itoa(i) + ".html"
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read page %d (%s): %w", i, identity, err)
		}
		docs = append(docs, Document{Identity: identity, Filename: name, Data: data})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read corpus list: %w", err)
	}
	return docs, nil
}
