// cmd/admissionctl/output.go
package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"admission-workers/internal/selection"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

// table writes tab-separated rows with a styled header and a rule.
type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
		rules[i] = strings.Repeat("─", len([]rune(h)))
	}
	fmt.Fprintln(t.w, strings.Join(styled, "\t"))
	fmt.Fprintln(t.w, strings.Join(rules, "\t"))
	return t
}

func (t *table) row(cols ...interface{}) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

func printSummary(out io.Writer, s *selection.Summary) error {
	mode := "committed"
	if s.DryRun {
		mode = mutedStyle.Render("dry run, nothing written")
	}
	fmt.Fprintf(out, "%s round selection (%s)\n", s.Round, mode)
	if s.RunID != "" {
		fmt.Fprintf(out, "run: %s\n", s.RunID)
	}
	fmt.Fprintf(out, "candidates: %d  passed: %d  failed: %d  unselected: %d\n\n", s.Candidates, s.PassedCount, s.FailedCount, s.Unselected)

	t := newTable(out, "Category", "Candidates", "Target", "Regional cap", "Admitted", "Other region", "Deferred", "Failed")
	for _, c := range s.Counts() {
		t.row(c.Label, c.Candidates, c.Target, c.RegionalCap, c.Admitted, c.OtherRegionAdmitted, c.Deferred, c.Failed)
	}
	return t.flush()
}
