package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header      lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	label       lipgloss.Style
	value       lipgloss.Style
	user        lipgloss.Style
	assistant   lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	up          lipgloss.Style
	down        lipgloss.Style
	inputPanel  lipgloss.Style
	help        lipgloss.Style
}

func newTheme() theme {
	purple := lipgloss.Color("#9945ff")
	green := lipgloss.Color("#14f195")
	red := lipgloss.Color("#ff5c7a")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return theme{
		header: lipgloss.NewStyle().
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 1),
		panelTitle:  lipgloss.NewStyle().Foreground(green).Bold(true),
		label:       lipgloss.NewStyle().Foreground(muted),
		value:       lipgloss.NewStyle().Foreground(text),
		user:        lipgloss.NewStyle().Foreground(green).Bold(true),
		assistant:   lipgloss.NewStyle().Foreground(purple).Bold(true),
		status:      lipgloss.NewStyle().Foreground(green).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(red).Bold(true),
		up:          lipgloss.NewStyle().Foreground(green),
		down:        lipgloss.NewStyle().Foreground(red),
		inputPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(green).
			Padding(0, 1),
		help: lipgloss.NewStyle().Foreground(muted),
	}
}
