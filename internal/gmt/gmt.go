// Package gmt reads the tab-separated GMT gene set format: one set per
// line as name, description, then member symbols.
package gmt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// GeneSet is one parsed GMT line. The description field frequently holds
// a URL in public exports; callers decide how to treat it.
type GeneSet struct {
	Name        string
	Description string
	Genes       []string
}

// Parse reads GMT records from r. Blank lines and lines starting with
// '#' are skipped. Member symbols are deduplicated per line, keeping
// their order and casing. A line with fewer than three fields, an empty
// set name, or no symbols is an error naming the line number.
func Parse(r io.Reader) ([]GeneSet, error) {
	scanner := bufio.NewScanner(r)
	// large sets run to tens of thousands of symbols on one line
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var sets []GeneSet
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("gmt: line %d: want name, description, and at least one symbol, got %d fields", lineNo, len(fields))
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			return nil, fmt.Errorf("gmt: line %d: empty set name", lineNo)
		}

		set := GeneSet{Name: name, Description: strings.TrimSpace(fields[1])}
		seen := make(map[string]struct{}, len(fields)-2)
		for _, f := range fields[2:] {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			set.Genes = append(set.Genes, f)
		}
		if len(set.Genes) == 0 {
			return nil, fmt.Errorf("gmt: line %d: set %s has no symbols", lineNo, name)
		}

		sets = append(sets, set)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gmt: %w", err)
	}
	return sets, nil
}

// ParseFile reads GMT records from the file at path.
func ParseFile(path string) ([]GeneSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sets, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sets, nil
}
