// Package location maps field paths back to line and column positions in the
// JSON text they were parsed from.
package location

import (
	"strconv"

	"github.com/buger/jsonparser"

	"github.com/gofhir/modelvalidator/pkg/issue"
	"github.com/gofhir/modelvalidator/pkg/pool"
)

// Find returns the position of the value at path ("address.city",
// "allergies[2]") in data. When the path does not exist, the closest existing
// ancestor is returned instead, so a missing field points at its enclosing
// object. It returns nil for an empty path or unparsable data.
func Find(data []byte, path string) *issue.Location {
	if len(data) == 0 || path == "" {
		return nil
	}
	keys := keysFor(path)
	for n := len(keys); n > 0; n-- {
		if off, ok := valueOffset(data, keys[:n]); ok {
			return at(data, off)
		}
	}
	if off, ok := rootOffset(data); ok {
		return at(data, off)
	}
	return nil
}

// Locator returns a lookup function for issue.Report.EnrichLocations.
func Locator(data []byte) func(path string) *issue.Location {
	return func(path string) *issue.Location {
		return Find(data, path)
	}
}

// keysFor converts a field path into jsonparser keys; indexes use its "[n]" form.
func keysFor(path string) []string {
	segs := pool.SplitPath(path)
	keys := make([]string, len(segs))
	for i, seg := range segs {
		if seg.IsIndex {
			keys[i] = "[" + strconv.Itoa(seg.Index) + "]"
		} else {
			keys[i] = seg.Name
		}
	}
	return keys
}

// valueOffset returns the byte offset where the value at keys starts.
func valueOffset(data []byte, keys []string) (int, bool) {
	value, typ, end, err := jsonparser.Get(data, keys...)
	if err != nil {
		return 0, false
	}
	start := end - len(value)
	if typ == jsonparser.String {
		// value excludes the surrounding quotes
		start -= 2
	}
	if start < 0 {
		return 0, false
	}
	return start, true
}

func rootOffset(data []byte) (int, bool) {
	for i, c := range data {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return i, true
		default:
			return 0, false
		}
	}
	return 0, false
}

// at converts a byte offset to a 1-indexed line and column.
func at(data []byte, offset int) *issue.Location {
	line, col := 1, 1
	for i := 0; i < offset && i < len(data); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &issue.Location{Line: line, Column: col}
}
