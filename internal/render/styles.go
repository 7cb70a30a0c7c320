// Package render turns rollup and economics rows into terminal tables
// and chart fragments shared by the CLI and the dashboard.
package render

import "github.com/charmbracelet/lipgloss"

// Color definitions for the winnow theme.
var (
	Primary = lipgloss.Color("36")  // Teal
	Subtle  = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// HeaderStyle styles table header rows.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// TotalStyle styles the synthetic totals line.
var TotalStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextPrimary)

// MutedStyle is used for hints and empty-state notices.
var MutedStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success markers.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for degraded-mode warnings.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)
