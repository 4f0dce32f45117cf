// Package report renders a reconciled dataset for human inspection.
package report

import (
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/goalias/internal/reconcile"
	"github.com/dbsmedya/goalias/internal/types"
)

// Column widths are cosmetic; nothing parses this output.
const (
	oldWidth = 3
	newWidth = 6
)

// WarningText precedes the line of every incomplete entry.
const WarningText = "X WATCH OUT! There is something missing here! This entry will be skipped."

// LineKind tells the printer how to style a line.
type LineKind int

const (
	LineNormal LineKind = iota
	LineWarning
)

// Line is one line of report output.
type Line struct {
	Kind LineKind
	Text string
}

// Header returns the section title printed above a kind's report.
func Header(kind types.RecordKind) string {
	return "IDs of all " + kind.Plural()
}

// Report renders every entry of ds in dataset order. Incomplete entries get
// a warning line right before their normal line. ds is not modified.
func Report(ds *reconcile.Dataset) []Line {
	lines := make([]Line, 0, ds.Len()+ds.IncompleteCount())
	ds.Each(func(key string, e reconcile.Entry) bool {
		if !e.Complete() {
			lines = append(lines, Line{Kind: LineWarning, Text: WarningText})
		}
		lines = append(lines, Line{Kind: LineNormal, Text: FormatEntry(key, e)})
		return true
	})
	return lines
}

// FormatEntry renders "old => new | key" with both identifiers right-aligned.
func FormatEntry(key string, e reconcile.Entry) string {
	return runewidth.FillLeft(e.Old, oldWidth) + " => " + runewidth.FillLeft(e.New, newWidth) + " | " + key
}

// Texts strips the styling from lines.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
