package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"devchunk/internal/buildpipeline"
	"devchunk/internal/ui"
)

var (
	summaryHeader  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	summaryWritten = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	summaryReused  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	summaryKind    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	warnColor      = color.New(color.FgYellow)
)

func printBuildSummary(out io.Writer, res buildpipeline.BuildResult, width int) {
	kindWidth := len("chunk list")
	for _, a := range res.Artifacts {
		kindWidth = max(kindWidth, runewidth.StringWidth(a.Kind))
	}
	const statusWidth, sizeWidth = 7, 9
	urlWidth := max(width-statusWidth-kindWidth-sizeWidth-8, 24)

	fmt.Fprintln(out, summaryHeader.Render(fmt.Sprintf("  %-*s %-*s %*s  %s", statusWidth, "status", kindWidth, "kind", sizeWidth, "size", "url")))
	for _, a := range res.Artifacts {
		status := summaryWritten.Render(fmt.Sprintf("%-*s", statusWidth, "written"))
		if a.Reused {
			status = summaryReused.Render(fmt.Sprintf("%-*s", statusWidth, "reused"))
		}
		kind := summaryKind.Render(padRight(a.Kind, kindWidth))
		fmt.Fprintf(out, "  %s %s %*s  %s\n", status, kind, sizeWidth, humanSize(a.Size), ui.Truncate(a.URL, urlWidth))
	}

	fmt.Fprintf(out, "\n%d groups, %d artifacts: %d written, %d reused\n", len(res.Groups), len(res.Artifacts), res.Written, res.Reused)
	if len(res.Cycles) > 0 {
		warnColor.Fprintf(out, "warning: import cycle through %s\n", strings.Join(res.Cycles, ", "))
	}
}

func padRight(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func stdoutWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 120
	}
	return w
}
