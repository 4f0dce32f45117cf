package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"

	"github.com/dbsmedya/goalias/internal/dump"
	"github.com/dbsmedya/goalias/internal/replay"
	"github.com/dbsmedya/goalias/internal/report"
	"github.com/dbsmedya/goalias/internal/verifier"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var (
	headerStyle  = color.New(color.OpBold, color.OpUnderscore)
	warningStyle = color.New(color.FgRed, color.OpBlink)
	okStyle      = color.New(color.FgGreen)
	failStyle    = color.New(color.FgRed)
	mutedStyle   = color.New(color.FgGray)
)

// printHeader prints an underlined section title followed by a blank line
func printHeader(title string) {
	fmt.Fprintln(outputWriter, headerStyle.Sprint(title))
	fmt.Fprintln(outputWriter)
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", len(title)+2))
}

// printReport prints the mapping lines of one dataset
func printReport(lines []report.Line) {
	for _, l := range lines {
		if l.Kind == report.LineWarning {
			fmt.Fprintln(outputWriter, warningStyle.Sprint(l.Text))
			continue
		}
		fmt.Fprintln(outputWriter, l.Text)
	}
}

// printVerification prints the verification summary of one dataset
func printVerification(vr *verifier.VerifyResult) {
	fmt.Fprintln(outputWriter)
	if vr.Method == verifier.MethodSkip {
		fmt.Fprintln(outputWriter, mutedStyle.Sprint("  Verification: skipped"))
		return
	}

	fmt.Fprintf(outputWriter, "  Rows:       %d old, %d new\n", vr.OldRows, vr.NewRows)
	fmt.Fprintf(outputWriter, "  Keys:       %d (%d complete, %d incomplete)\n", vr.Keys, vr.Complete, vr.Incomplete)
	if vr.Digest != "" {
		fmt.Fprintf(outputWriter, "  Digest:     %s=%s\n", vr.Kind, vr.Digest)
	}
	if vr.Passed() {
		fmt.Fprintf(outputWriter, "  Verification: %s\n", okStyle.Sprint("PASSED"))
		return
	}
	fmt.Fprintf(outputWriter, "  Verification: %s (%d issue(s))\n", failStyle.Sprint("ISSUES"), len(vr.Issues))
	for _, issue := range vr.Issues {
		fmt.Fprintf(outputWriter, "    - %s\n", issue)
	}
}

// printSkippedRows lists rows dropped under the skip policy
func printSkippedRows(rows []*dump.MalformedRowError) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(outputWriter, "  Skipped malformed rows: %d\n", len(rows))
	for _, r := range rows {
		fmt.Fprintf(outputWriter, "    - %v\n", r)
	}
}

// printOutcome prints the status line of one replayed entry
func printOutcome(o replay.Outcome) {
	switch o.Status {
	case replay.StatusFailed:
		fmt.Fprintln(outputWriter, failStyle.Sprint(o.StatusLine()))
	case replay.StatusSkipped:
		fmt.Fprintln(outputWriter, mutedStyle.Sprint(o.StatusLine()))
	default:
		fmt.Fprintln(outputWriter, o.StatusLine())
	}
}
