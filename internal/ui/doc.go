// Package ui renders gst command output and collects interactive input.
//
// Renderer styles reports, status, and mapping listings with lipgloss and
// degrades to plain text when the output is not a terminal. Prompter is
// implemented by FormPrompter, which draws huh forms, and by
// NonInteractivePrompter, which answers with defaults for scripted runs.
package ui
