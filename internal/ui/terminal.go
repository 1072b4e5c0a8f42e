package ui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether file is attached to a terminal.
func IsInteractive(file *os.File) bool {
	if file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// NewPrompter returns a form based prompter when both input and output are
// terminals and a non-interactive prompter otherwise.
func NewPrompter(input *os.File, output io.Writer, renderer *Renderer, assumeYes bool) Prompter {
	outputFile, outputIsFile := output.(*os.File)
	if IsInteractive(input) && outputIsFile && IsInteractive(outputFile) {
		return NewFormPrompter(input, output, renderer, assumeYes)
	}
	return NonInteractivePrompter{AssumeYes: assumeYes}
}
