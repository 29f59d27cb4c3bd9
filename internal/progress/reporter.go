// Package progress reports batch price estimation: one file at a time,
// one tick per CSV row, and a priced/with-warnings tally when a file ends.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives batch estimation progress.
type Reporter interface {
	StartFile(name string, rows int)
	// Row is called once per row; priced is false when the row had warnings.
	Row(priced bool)
	FinishFile(priced, rejected int)
}

// NewReporter returns a CIReporter when running under CI and a
// TerminalReporter otherwise. Both write to stderr.
func NewReporter(description string) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{description: description, out: os.Stderr}
	}
	return &TerminalReporter{description: description, out: os.Stderr}
}

// TerminalReporter draws one progress bar per file.
type TerminalReporter struct {
	description string
	out         io.Writer
	bar         *progressbar.ProgressBar
}

func (r *TerminalReporter) StartFile(name string, rows int) {
	r.bar = progressbar.NewOptions(rows,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(fmt.Sprintf("%s %s", r.description, name)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Row(bool) {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *TerminalReporter) FinishFile(priced, rejected int) {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	r.bar = nil
	if rejected > 0 {
		fmt.Fprintf(r.out, "%d priced, %d with warnings\n", priced, rejected)
	}
}

// CIReporter prints one line per file, which keeps CI logs short.
type CIReporter struct {
	description string
	out         io.Writer
	name        string
}

func (r *CIReporter) StartFile(name string, rows int) {
	r.name = name
	fmt.Fprintf(r.out, "%s %s: %d rows\n", r.description, name, rows)
}

func (r *CIReporter) Row(bool) {}

func (r *CIReporter) FinishFile(priced, rejected int) {
	fmt.Fprintf(r.out, "%s %s: %d priced, %d with warnings\n", r.description, r.name, priced, rejected)
}

// Nop discards all progress.
type Nop struct{}

func (Nop) StartFile(string, int) {}
func (Nop) Row(bool)              {}
func (Nop) FinishFile(int, int)   {}
