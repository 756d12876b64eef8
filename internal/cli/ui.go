package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kabelplan/pkg/pipeline"
)

// Terminal palette (ANSI 256).
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders headings such as the view title.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue renders values next to labels.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleWarning renders warnings and degraded counts.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	styleTableCell   = lipgloss.NewStyle().Padding(0, 1)
)

// status marks one kind of line printed by the CLI.
type status struct {
	icon  string
	style lipgloss.Style
}

var (
	statusSuccess = status{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	statusError   = status{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	statusWarning = status{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	statusInfo    = status{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

func (s status) print(msg string) {
	fmt.Println(s.style.Render(s.icon) + " " + msg)
}

func printSuccess(format string, args ...any) { statusSuccess.print(fmt.Sprintf(format, args...)) }

func printError(format string, args ...any) { statusError.print(fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	statusWarning.print(StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) { statusInfo.print(fmt.Sprintf(format, args...)) }

// printDetail prints an indented, dimmed line below a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

// printKeyValue prints a labelled value.
func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printStats prints diagram statistics on one line. Dropped links and
// fallback routes only appear when non-zero.
func printStats(st pipeline.Stats, cached bool) {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d devices", st.Devices)),
		StyleDim.Render(fmt.Sprintf("%d cables", st.Cables)),
	}
	if st.Dropped > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d dropped", st.Dropped)))
	}
	if st.Fallbacks > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d fallback routes", st.Fallbacks)))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleComputed.Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// renderTable draws rows under headers with a rounded border. The first
// column is highlighted.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleTableHeader
			case col == 0:
				return styleTableCell.Foreground(colorCyan)
			default:
				return styleTableCell.Foreground(colorWhite)
			}
		}).
		Render()
}
