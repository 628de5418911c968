package styles

import "github.com/charmbracelet/lipgloss"

// Monokai Pro color palette
const (
	// Base colors
	Background = "#2D2A2E"
	Foreground = "#FCFCFA"

	// Accent colors
	Red     = "#FF6188" // Errors, Do
	Orange  = "#FC9867" // Warnings, Delegate
	Yellow  = "#FFD866" // Highlights, selection
	Green   = "#A9DC76" // Success, Done
	Cyan    = "#78DCE8" // Info, Schedule
	Blue    = "#AB9DF2" // Links, references
	Magenta = "#FF6188" // Titles, emphasis

	// UI colors
	Comment = "#727072" // Dim text, help, Eliminate
	Border  = "#5B595C" // Borders, separators
)

// Common styles
var (
	SuccessStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	WarningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	DimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Magenta))
	HighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Yellow)).Bold(true)
	HelpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	LinkStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(Blue))

	// Cell styles
	CellStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Border)).
			Padding(0, 1)

	FocusedCellStyle = CellStyle.
				BorderForeground(lipgloss.Color(Yellow))

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Background)).
			Background(lipgloss.Color(Yellow))

	NormalTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Foreground))

	DoneTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Comment))

	StrikethroughStyle = DoneTextStyle.Strikethrough(true)
)

// SectionColor returns the accent used for a section heading.
func SectionColor(section string) lipgloss.Color {
	switch section {
	case "q1":
		return lipgloss.Color(Red)
	case "q2":
		return lipgloss.Color(Cyan)
	case "q3":
		return lipgloss.Color(Orange)
	case "q4":
		return lipgloss.Color(Comment)
	case "done":
		return lipgloss.Color(Green)
	default:
		return lipgloss.Color(Foreground)
	}
}

// HeadingStyle returns a bold heading in the section's color.
func HeadingStyle(section string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(SectionColor(section))
}
