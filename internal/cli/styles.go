package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/linuxmatters/sigcond/internal/processor"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#0077AA") // sigcond blue
	errorColor   = lipgloss.Color("#A40000") // Red
	okColor      = lipgloss.Color("#00AA00") // Green
	mutedColor   = lipgloss.Color("#888888") // Gray
	textColor    = lipgloss.Color("#FFFFFF") // White
)

// Styles
var (
	// Title style - bold blue with chart emoji
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// Error message style
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	// Success marker style
	OKStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(okColor)

	// Key-value pair styles
	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("sigcond 📈"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintResult prints a one-trace summary for --plain mode.
func PrintResult(w io.Writer, r *processor.ProcessingResult) {
	fmt.Fprintf(w, "%s %s → %s\n", OKStyle.Render("✓"), filepath.Base(r.InputPath), filepath.Base(r.OutputPath))
	printKV(w, "Chain", fmt.Sprint(r.Chain))
	if r.Calibrated {
		printKV(w, "Baseline", fmt.Sprintf("%d (calibrated, %s gap)", r.BaselineLevel, r.CalibrationGap))
	} else {
		printKV(w, "Baseline", fmt.Sprint(r.BaselineLevel))
	}
	if r.Output != nil {
		printKV(w, "Samples", humanize.Comma(int64(r.Output.Samples)))
		printKV(w, "Output", fmt.Sprintf("%d - %d (mean %.1f)", r.Output.Min, r.Output.Max, r.Output.Mean))
	}
	printKV(w, "Clamped", humanize.Comma(int64(r.Clamped)))
	printKV(w, "Elapsed", (r.AnalysisTime + r.CalibrationTime + r.ProcessingTime).String())
}

func printKV(w io.Writer, key, value string) {
	fmt.Fprintf(w, "   %s %s\n", KeyStyle.Render(fmt.Sprintf("%-9s", key+":")), ValueStyle.Render(value))
}
