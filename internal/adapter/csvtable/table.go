// Package csvtable reads the warning time-series and population tables from
// delimited text files.
//
// Both tables are header-addressed: columns are located by name rather than
// position, so upstream exports can reorder or append columns freely. Cell
// values are trimmed before parsing. Delimiters and column names default to
// the ASAP and WorldPop export conventions and can be overridden per source.
package csvtable

import (
	"fmt"
	"strings"
)

// columnIndex maps each required column name to its position in the header.
func columnIndex(header []string, names ...string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.TrimSpace(h)] = i
	}

	out := make(map[string]int, len(names))
	for _, name := range names {
		i, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("header is missing column %q", name)
		}
		out[name] = i
	}
	return out, nil
}

// field returns the trimmed cell at position i, or "" when the row is short.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
