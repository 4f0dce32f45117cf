package dump

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every *FormatError via errors.Is.
	ErrFormat = errors.New("dump format error")
	// ErrMalformedRow matches every *MalformedRowError via errors.Is.
	ErrMalformedRow = errors.New("malformed row")
)

// FormatError reports a structural marker missing from a dump. A missing
// table is a data-integrity problem, never an empty result.
type FormatError struct {
	Table  string
	Marker string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("table %q: marker %q not found in dump", e.Table, e.Marker)
}

// Is makes errors.Is(err, ErrFormat) work.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// MalformedRowError reports a row tuple that does not split into the
// expected number of fields.
type MalformedRowError struct {
	Line   int    // 1-based line number within the segment
	Text   string // the offending line
	Fields int    // number of fields the split produced
	Want   int    // minimum number of fields required
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("line %d: row has %d fields, need at least %d: %s", e.Line, e.Fields, e.Want, truncate(e.Text, 80))
}

// Is makes errors.Is(err, ErrMalformedRow) work.
func (e *MalformedRowError) Is(target error) bool {
	return target == ErrMalformedRow
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
