package dump

import (
	"strings"

	"github.com/dbsmedya/goalias/internal/logger"
	"github.com/dbsmedya/goalias/internal/types"
)

// fieldDelimiter separates the fields of a row: a comma followed by the
// opening quote of the next value.
const fieldDelimiter = ",'"

// minFields is the smallest row shape accepted: id, one column, key.
const minFields = 3

// MalformedRowPolicy decides what happens to a row that does not split into
// enough fields.
type MalformedRowPolicy string

const (
	// PolicyAbort stops parsing at the first malformed row.
	PolicyAbort MalformedRowPolicy = "abort"
	// PolicySkip drops malformed rows and keeps going.
	PolicySkip MalformedRowPolicy = "skip"
)

// ParsePolicy maps a config value to a policy; anything but "skip" aborts.
func ParsePolicy(s string) MalformedRowPolicy {
	if s == string(PolicySkip) {
		return PolicySkip
	}
	return PolicyAbort
}

// ParseResult is the output of Parser.Parse.
type ParseResult struct {
	Entries []types.ParsedEntry
	Skipped []*MalformedRowError // only populated under PolicySkip
}

// Parser turns a segment into parsed entries.
type Parser struct {
	keyField int
	policy   MalformedRowPolicy
	logger   *logger.Logger
}

// NewParser creates a parser reading the natural key from field keyField.
func NewParser(keyField int, policy MalformedRowPolicy, log *logger.Logger) *Parser {
	if log == nil {
		log = logger.NewNop()
	}
	if policy == "" {
		policy = PolicyAbort
	}
	return &Parser{
		keyField: keyField,
		policy:   policy,
		logger:   log,
	}
}

// Parse returns one entry per non-blank line, in line order. Duplicate keys
// are kept; the reconciler decides what they mean.
func (p *Parser) Parse(segment string) (*ParseResult, error) {
	result := &ParseResult{}

	for i, line := range strings.Split(segment, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := parseRow(line, p.keyField)
		if err != nil {
			err.Line = i + 1
			if p.policy != PolicySkip {
				return nil, err
			}
			p.logger.Warnw("Skipping malformed row",
				"line", err.Line,
				"fields", err.Fields,
				"want", err.Want,
			)
			result.Skipped = append(result.Skipped, err)
			continue
		}

		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// ParseTuples parses a segment under PolicyAbort.
func ParseTuples(segment string, keyField int) ([]types.ParsedEntry, error) {
	result, err := NewParser(keyField, PolicyAbort, nil).Parse(segment)
	if err != nil {
		return nil, err
	}
	return result.Entries, nil
}

// parseRow splits one tuple line. The row terminator ("),", ");" or ")") is
// dropped first so a key in the last column comes out clean.
func parseRow(line string, keyField int) (types.ParsedEntry, *MalformedRowError) {
	want := minFields
	if keyField+1 > want {
		want = keyField + 1
	}

	row := strings.TrimRight(line, " \t")
	row = strings.TrimSuffix(row, ",")
	row = strings.TrimSuffix(row, ";")
	row = strings.TrimSuffix(row, ")")

	fields := strings.Split(row, fieldDelimiter)
	if len(fields) < want || keyField < 1 {
		return types.ParsedEntry{}, &MalformedRowError{Text: line, Fields: len(fields), Want: want}
	}

	return types.ParsedEntry{
		ID:  strings.Trim(fields[0], " \t('"),
		Key: strings.Trim(fields[keyField], "'"),
	}, nil
}
