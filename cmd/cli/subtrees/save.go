package subtrees

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/gstree/internal/subtrees"
)

const (
	saveUseConstant                  = "save [message]"
	saveAliasConstant                = "s"
	saveShortDescriptionConstant     = "Commit pending changes, then push the main repository and every subtree"
	saveHeadingConstant              = "Saving everything"
	saveCompletionConstant           = "All saved"
	commitUseConstant                = "commit [message]"
	commitAliasConstant              = "c"
	commitShortDescriptionConstant   = "Stage and commit every change in the main repository"
	commitMessageTitleConstant       = "Commit message"
	commitMessagePlaceholderConstant = "feat: add new feature"
	messageRequiredPromptConstant    = "Message is required"
)

var errMessagePromptRequired = errors.New(messageRequiredPromptConstant)

func (builder *CommandBuilder) buildSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     saveUseConstant,
		Aliases: []string{saveAliasConstant},
		Short:   saveShortDescriptionConstant,
		Args:    cobra.MaximumNArgs(1),
		RunE:    builder.runSave,
	}
}

func (builder *CommandBuilder) buildCommitCommand() *cobra.Command {
	return &cobra.Command{
		Use:     commitUseConstant,
		Aliases: []string{commitAliasConstant},
		Short:   commitShortDescriptionConstant,
		Args:    cobra.MaximumNArgs(1),
		RunE:    builder.runCommit,
	}
}

func (builder *CommandBuilder) runSave(command *cobra.Command, arguments []string) error {
	runtime, runtimeError := builder.newRuntime(command, false)
	if runtimeError != nil {
		return runtimeError
	}

	message := firstArgument(arguments)
	runtime.renderer.Heading(saveHeadingConstant)

	report, saveError := runtime.service.Save(commandContext(command), message)
	if errors.Is(saveError, subtrees.ErrMessageRequired) {
		promptedMessage, promptError := runtime.prompter.Text(commitMessageTitleConstant, commitMessagePlaceholderConstant, requireMessage)
		if promptError != nil {
			return promptError
		}
		report, saveError = runtime.service.Save(commandContext(command), promptedMessage)
	}
	if saveError != nil {
		return saveError
	}

	runtime.renderer.Report(report, saveCompletionConstant)
	return nil
}

func (builder *CommandBuilder) runCommit(command *cobra.Command, arguments []string) error {
	runtime, runtimeError := builder.newRuntime(command, false)
	if runtimeError != nil {
		return runtimeError
	}

	message := firstArgument(arguments)
	if len(message) == 0 {
		promptedMessage, promptError := runtime.prompter.Text(commitMessageTitleConstant, commitMessagePlaceholderConstant, requireMessage)
		if promptError != nil {
			return promptError
		}
		message = promptedMessage
	}

	entry, commitError := runtime.service.Commit(commandContext(command), message)
	if commitError != nil {
		return commitError
	}
	runtime.renderer.Entry(entry)
	return nil
}

func requireMessage(input string) error {
	if len(strings.TrimSpace(input)) == 0 {
		return errMessagePromptRequired
	}
	return nil
}

func firstArgument(arguments []string) string {
	if len(arguments) == 0 {
		return ""
	}
	return strings.TrimSpace(arguments[0])
}
