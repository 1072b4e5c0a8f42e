package ui

import "github.com/charmbracelet/lipgloss"

const (
	headingColorConstant = "#00B7EB"
	successColorConstant = "#00FA9A"
	warningColorConstant = "#FFB347"
	failureColorConstant = "#FF4C4C"
	mutedColorConstant   = "#8A8A8A"
)

type palette struct {
	heading lipgloss.Style
	label   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func newPalette(renderer *lipgloss.Renderer) palette {
	return palette{
		heading: renderer.NewStyle().Foreground(lipgloss.Color(headingColorConstant)).Bold(true),
		label:   renderer.NewStyle().Bold(true),
		success: renderer.NewStyle().Foreground(lipgloss.Color(successColorConstant)),
		warning: renderer.NewStyle().Foreground(lipgloss.Color(warningColorConstant)),
		failure: renderer.NewStyle().Foreground(lipgloss.Color(failureColorConstant)).Bold(true),
		muted:   renderer.NewStyle().Foreground(lipgloss.Color(mutedColorConstant)),
	}
}
