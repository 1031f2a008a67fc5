package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

var (
	greenCheck = color.GreenString("✓")
	redCross   = color.RedString("✗")

	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

// BeQuietError signals that the failure was already reported and the
// root command should not log it again.
type BeQuietError struct{}

func (BeQuietError) Error() string { return "" }

func applyTableFormat(t table.Writer) {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.StyleDefault)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
