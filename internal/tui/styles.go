package tui

import (
	"github.com/andy/timeledger/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	// Colors
	primaryColor = lipgloss.Color("39")  // Blue
	accentColor  = lipgloss.Color("205") // Pink
	mutedColor   = lipgloss.Color("241") // Gray
	successColor = lipgloss.Color("76")  // Green
	warningColor = lipgloss.Color("214") // Orange
	errorColor   = lipgloss.Color("196") // Red
	gridColor    = lipgloss.Color("237")

	// Base styles
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtitleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("117")) // Bright cyan
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	statusStyle   = lipgloss.NewStyle().Foreground(successColor)
	focusStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	// Layout
	borderColor = lipgloss.Color("63") // Soft purple

	// Header/Footer
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true) // Bright yellow

	// Calendar
	gutterStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	dayHeaderStyle = lipgloss.NewStyle().Bold(true)
	todayStyle     = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	hourLineStyle  = lipgloss.NewStyle().Foreground(gridColor)
	previewStyle   = lipgloss.NewStyle().Background(lipgloss.Color("238")).Foreground(lipgloss.Color("255"))

	// Timer specific
	timerRunningStyle = lipgloss.NewStyle().Bold(true).Foreground(successColor)
	timerPausedStyle  = lipgloss.NewStyle().Bold(true).Foreground(warningColor)
	timerValueStyle   = lipgloss.NewStyle().Foreground(accentColor)
)

// blockStyle paints a block in its client's color with legible text
func blockStyle(hex string) lipgloss.Style {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(domain.DefaultClientColor)
	}
	fg := lipgloss.Color("#ffffff")
	if l, _, _ := c.Lab(); l > 0.65 {
		fg = lipgloss.Color("#111111")
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Foreground(fg)
}

// lockedStyle dims a block whose entry is on an invoice
func lockedStyle(hex string) lipgloss.Style {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(domain.DefaultClientColor)
	}
	gray, _ := colorful.Hex("#3a3a3a")
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.BlendLab(gray, 0.6).Clamped().Hex())).
		Foreground(lipgloss.Color("250"))
}
