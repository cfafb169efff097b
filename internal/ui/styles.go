package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette. ApplyTheme swaps in the light variants.
var (
	ColorPrimary  color.Color
	ColorDim      color.Color
	ColorText     color.Color
	ColorBorder   color.Color
	ColorError    color.Color
	ColorSuccess  color.Color
	ColorActive   color.Color
	ColorCodeFG   color.Color
	ColorCodeBG   color.Color
	ColorAgentTag color.Color
)

// Styles.
var (
	HeaderStyle   lipgloss.Style
	FooterStyle   lipgloss.Style
	DimStyle      lipgloss.Style
	ErrorStyle    lipgloss.Style
	SuccessStyle  lipgloss.Style
	ActiveStyle   lipgloss.Style
	AgentStyle    lipgloss.Style
	CodeStyle     lipgloss.Style
	CodeLabel     lipgloss.Style
	BorderStyle   lipgloss.Style
	TextareaStyle lipgloss.Style
)

var darkTheme = true

func init() {
	ApplyTheme("dark")
}

// DarkTheme reports whether the dark palette is in use.
func DarkTheme() bool {
	return darkTheme
}

// ApplyTheme selects the "dark" or "light" palette and rebuilds the styles.
// Anything other than "light" is dark.
func ApplyTheme(theme string) {
	darkTheme = theme != "light"
	pick := lipgloss.LightDark(darkTheme)

	ColorPrimary = pick(lipgloss.Color("#6D28D9"), lipgloss.Color("#7C3AED"))
	ColorDim = pick(lipgloss.Color("#6B7280"), lipgloss.Color("#6B7280"))
	ColorText = pick(lipgloss.Color("#111827"), lipgloss.Color("#E5E7EB"))
	ColorBorder = pick(lipgloss.Color("#D1D5DB"), lipgloss.Color("#374151"))
	ColorError = pick(lipgloss.Color("#DC2626"), lipgloss.Color("#EF4444"))
	ColorSuccess = pick(lipgloss.Color("#059669"), lipgloss.Color("#10B981"))
	ColorActive = pick(lipgloss.Color("#0891B2"), lipgloss.Color("#06B6D4"))
	ColorCodeFG = pick(lipgloss.Color("#0F172A"), lipgloss.Color("#A5F3FC"))
	ColorCodeBG = pick(lipgloss.Color("#E2E8F0"), lipgloss.Color("#1E293B"))
	ColorAgentTag = pick(lipgloss.Color("#4338CA"), lipgloss.Color("#A78BFA"))

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	FooterStyle = lipgloss.NewStyle().
		Foreground(ColorDim)

	DimStyle = lipgloss.NewStyle().
		Foreground(ColorDim)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(ColorError)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	ActiveStyle = lipgloss.NewStyle().
		Foreground(ColorActive).
		Bold(true)

	AgentStyle = lipgloss.NewStyle().
		Foreground(ColorAgentTag).
		Bold(true)

	CodeStyle = lipgloss.NewStyle().
		Foreground(ColorCodeFG).
		Background(ColorCodeBG).
		Padding(0, 1)

	CodeLabel = lipgloss.NewStyle().
		Foreground(ColorDim).
		Background(ColorCodeBG)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	TextareaStyle = lipgloss.NewStyle().
		Foreground(ColorText)
}
