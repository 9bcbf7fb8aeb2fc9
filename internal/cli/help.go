package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/sigcond/internal/config"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFA500")).
				MarginTop(1)

	helpTermStyle = lipgloss.NewStyle().
			Foreground(okColor).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// ungrouped is the section title for flags without a group tag.
const ungrouped = "Flags"

// helpRow is one term and its description.
type helpRow struct {
	term       string
	help       string
	defaultVal string
}

// helpSection is a titled block of rows. Terms are padded to the widest
// term across every section so descriptions share one column.
type helpSection struct {
	title string
	rows  []helpRow
}

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// Flags are listed under their kong group, in declaration order.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render("sigcond 📈"))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render("Analog sensor signal conditioner"))
		sb.WriteString("\n")

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString(fmt.Sprintf("\n  %s [flags] [traces] ...\n", ctx.Model.Name))

		sections := append(argumentSections(ctx), flagSections(ctx)...)
		sections = append(sections, helpSection{
			title: "Environment",
			rows: []helpRow{{
				term: config.EnvPrefix + "_<SECTION>_<KEY>",
				help: "Override any config key, e.g. " + config.EnvPrefix + "_AMP_GAIN=4",
			}},
		})

		width := 0
		for _, s := range sections {
			for _, r := range s.rows {
				width = max(width, len(r.term))
			}
		}
		for _, s := range sections {
			writeHelpSection(&sb, s, width)
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

func writeHelpSection(sb *strings.Builder, s helpSection, width int) {
	if len(s.rows) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(s.title + ":"))
	sb.WriteString("\n")
	for _, r := range s.rows {
		line := "  " + helpTermStyle.Render(fmt.Sprintf("%-*s", width, r.term))
		if r.help != "" {
			line += "  " + r.help
		}
		if r.defaultVal != "" {
			line += " " + helpDefaultStyle.Render("(default: "+r.defaultVal+")")
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteString("\n")
	}
}

func argumentSections(ctx *kong.Context) []helpSection {
	section := helpSection{title: "Arguments"}
	for _, arg := range ctx.Model.Node.Positional {
		section.rows = append(section.rows, helpRow{term: arg.Summary(), help: arg.Help})
	}
	return []helpSection{section}
}

// flagSections groups flags by their kong group. Help comes first, then
// ungrouped flags, then each group in the order it is first declared.
func flagSections(ctx *kong.Context) []helpSection {
	general := helpSection{
		title: ungrouped,
		rows:  []helpRow{{term: "-h, --help", help: "Show context-sensitive help."}},
	}
	var (
		groups []*helpSection
		byKey  = map[string]*helpSection{}
	)

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		row := helpRow{term: flagTerm(f), help: f.Help, defaultVal: f.Default}
		if f.Group == nil {
			general.rows = append(general.rows, row)
			continue
		}
		s, ok := byKey[f.Group.Key]
		if !ok {
			s = &helpSection{title: f.Group.Title}
			byKey[f.Group.Key] = s
			groups = append(groups, s)
		}
		s.rows = append(s.rows, row)
	}

	sections := []helpSection{general}
	for _, s := range groups {
		sections = append(sections, *s)
	}
	return sections
}

// flagTerm renders "-c, --config=PATH". Boolean flags take no value.
func flagTerm(f *kong.Flag) string {
	term := "--" + f.Name
	if f.Short != 0 {
		term = fmt.Sprintf("-%c, %s", f.Short, term)
	}
	if !f.IsBool() {
		term += "=" + strings.ToUpper(f.FormatPlaceHolder())
	}
	return term
}
