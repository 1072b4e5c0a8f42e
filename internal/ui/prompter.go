package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/temirov/gstree/internal/subtrees"
)

const (
	pathsTitleConstant                  = "Path(s) to sync (comma-separated)"
	pathsPlaceholderConstant            = "packages/studio,packages/web"
	repositoryNameTitleConstant         = "Repo name"
	ownerTitleConstant                  = "Create repo under"
	personalOwnerTemplateConstant       = "%s (personal)"
	confirmPlanTitleConstant            = "Proceed?"
	affirmativeLabelConstant            = "Yes"
	negativeLabelConstant               = "No"
	promptCancelledMessageConstant      = "prompt cancelled"
	confirmationRequiredMessageConstant = "confirmation required; rerun in a terminal or pass --yes"
	inputRequiredTemplateConstant       = "%s: input required; pass it as an argument when not running in a terminal"
)

var (
	// ErrPromptCancelled indicates the user aborted an interactive prompt.
	ErrPromptCancelled = errors.New(promptCancelledMessageConstant)
	// ErrConfirmationRequired indicates a confirmation could not be collected without a terminal.
	ErrConfirmationRequired = errors.New(confirmationRequiredMessageConstant)
)

// InputRequiredError reports a value that could only have been collected interactively.
type InputRequiredError struct {
	Field string
}

// Error describes the missing input.
func (inputError InputRequiredError) Error() string {
	return fmt.Sprintf(inputRequiredTemplateConstant, inputError.Field)
}

// Prompter collects the interactive input of every gst command.
type Prompter interface {
	subtrees.Prompter
	Text(title string, placeholder string, validate func(input string) error) (string, error)
	Confirm(title string, initial bool) (bool, error)
}

// FormPrompter asks questions through terminal forms.
type FormPrompter struct {
	input     io.Reader
	output    io.Writer
	renderer  *Renderer
	assumeYes bool
}

// NewFormPrompter constructs a FormPrompter reading from input and drawing on output.
// When assumeYes is set confirmations are answered without asking.
func NewFormPrompter(input io.Reader, output io.Writer, renderer *Renderer, assumeYes bool) *FormPrompter {
	if renderer == nil {
		renderer = NewRenderer(output)
	}
	return &FormPrompter{input: input, output: output, renderer: renderer, assumeYes: assumeYes}
}

// Paths asks for the comma separated directories to publish.
func (prompter *FormPrompter) Paths(validate func(input string) error) (string, error) {
	return prompter.Text(pathsTitleConstant, pathsPlaceholderConstant, validate)
}

// RepositoryName asks for the name of the repository to create, prefilled with suggested.
func (prompter *FormPrompter) RepositoryName(suggested string, validate func(input string) error) (string, error) {
	value := suggested
	field := huh.NewInput().Title(repositoryNameTitleConstant).Placeholder(suggested).Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}
	if runError := prompter.run(field); runError != nil {
		return "", runError
	}
	return value, nil
}

// SelectOwner asks which account the repository is created under.
func (prompter *FormPrompter) SelectOwner(options []subtrees.OwnerOption, initial string) (string, error) {
	if len(options) == 1 {
		return options[0].Login, nil
	}

	selectOptions := make([]huh.Option[string], 0, len(options))
	for _, option := range options {
		label := option.Login
		if option.Personal {
			label = fmt.Sprintf(personalOwnerTemplateConstant, option.Login)
		}
		selectOptions = append(selectOptions, huh.NewOption(label, option.Login))
	}

	value := initial
	field := huh.NewSelect[string]().Title(ownerTitleConstant).Options(selectOptions...).Value(&value)
	if runError := prompter.run(field); runError != nil {
		return "", runError
	}
	return value, nil
}

// ConfirmPlan shows the plan and asks whether to proceed.
func (prompter *FormPrompter) ConfirmPlan(plan subtrees.InitPlan) (bool, error) {
	if prompter.assumeYes {
		fmt.Fprintln(prompter.output, prompter.renderer.Plan(plan))
		return true, nil
	}

	confirmed := true
	field := huh.NewConfirm().
		Title(confirmPlanTitleConstant).
		Description(prompter.renderer.Plan(plan)).
		Affirmative(affirmativeLabelConstant).
		Negative(negativeLabelConstant).
		Value(&confirmed)
	if runError := prompter.run(field); runError != nil {
		return false, runError
	}
	return confirmed, nil
}

// Text asks for a single line of input.
func (prompter *FormPrompter) Text(title string, placeholder string, validate func(input string) error) (string, error) {
	var value string
	field := huh.NewInput().Title(title).Placeholder(placeholder).Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}
	if runError := prompter.run(field); runError != nil {
		return "", runError
	}
	return value, nil
}

// Confirm asks a yes or no question.
func (prompter *FormPrompter) Confirm(title string, initial bool) (bool, error) {
	if prompter.assumeYes {
		return true, nil
	}

	confirmed := initial
	field := huh.NewConfirm().Title(title).Affirmative(affirmativeLabelConstant).Negative(negativeLabelConstant).Value(&confirmed)
	if runError := prompter.run(field); runError != nil {
		return false, runError
	}
	return confirmed, nil
}

func (prompter *FormPrompter) run(fields ...huh.Field) error {
	form := huh.NewForm(huh.NewGroup(fields...)).WithInput(prompter.input).WithOutput(prompter.output)
	if runError := form.Run(); runError != nil {
		if errors.Is(runError, huh.ErrUserAborted) {
			return ErrPromptCancelled
		}
		return runError
	}
	return nil
}

// NonInteractivePrompter answers prompts with defaults when no terminal is attached.
type NonInteractivePrompter struct {
	// AssumeYes accepts confirmations instead of failing.
	AssumeYes bool
}

// Paths cannot be defaulted.
func (prompter NonInteractivePrompter) Paths(func(input string) error) (string, error) {
	return "", InputRequiredError{Field: pathsTitleConstant}
}

// RepositoryName accepts the suggested name.
func (prompter NonInteractivePrompter) RepositoryName(suggested string, validate func(input string) error) (string, error) {
	if validate != nil {
		if validationError := validate(suggested); validationError != nil {
			return "", validationError
		}
	}
	return suggested, nil
}

// SelectOwner accepts the initial owner.
func (prompter NonInteractivePrompter) SelectOwner(options []subtrees.OwnerOption, initial string) (string, error) {
	if len(initial) == 0 && len(options) > 0 {
		return options[0].Login, nil
	}
	return initial, nil
}

// ConfirmPlan proceeds only when AssumeYes is set.
func (prompter NonInteractivePrompter) ConfirmPlan(subtrees.InitPlan) (bool, error) {
	if !prompter.AssumeYes {
		return false, ErrConfirmationRequired
	}
	return true, nil
}

// Text cannot be defaulted.
func (prompter NonInteractivePrompter) Text(title string, _ string, _ func(input string) error) (string, error) {
	return "", InputRequiredError{Field: title}
}

// Confirm returns true under AssumeYes and initial otherwise.
func (prompter NonInteractivePrompter) Confirm(_ string, initial bool) (bool, error) {
	if prompter.AssumeYes {
		return true, nil
	}
	return initial, nil
}
