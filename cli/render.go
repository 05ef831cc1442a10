package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"

	"github.com/diskwatch/diskwatch/classify"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var stderrOut = colorable.NewColorableStderr()

var riskColor = map[classify.RiskLevel]*color.Color{
	classify.RiskLow:    color.New(color.FgGreen),
	classify.RiskMedium: color.New(color.FgYellow),
	classify.RiskHigh:   color.New(color.FgRed, color.Bold),
}

// printItemLine writes a colored, human-readable line for one cleanup item
// outcome to stderr, leaving the JSON report on stdout/--output untouched.
func printItemLine(path string, outcome store.ItemOutcome, level classify.RiskLevel, reason string) {
	c, ok := riskColor[level]
	if !ok {
		c = color.New()
	}

	fmt.Fprintf(stderrOut, "%-12s %s  %s (%s)\n", outcome, c.Sprint(level), path, reason)
}

// humanizeAge renders a relative age string (e.g. "3 months ago") for the
// old command's report rows.
func humanizeAge(t time.Time) string {
	return humanize.Time(t)
}
