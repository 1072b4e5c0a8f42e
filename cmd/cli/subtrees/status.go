package subtrees

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	statusUseConstant                     = "status"
	statusAliasConstant                   = "st"
	statusShortDescriptionConstant        = "Show git status and tracked subtrees"
	listUseConstant                       = "list"
	listAliasConstant                     = "ls"
	listShortDescriptionConstant          = "List tracked subtrees"
	removeUseConstant                     = "remove <name>"
	removeAliasConstant                   = "rm"
	removeShortDescriptionConstant        = "Stop tracking a subtree"
	removeForceFlagNameConstant           = "force"
	removeForceFlagShorthandConstant      = "f"
	removeForceFlagUsageConstant          = "Also delete the subtree directory"
	removeHeadingTemplateConstant         = "Removing subtree %q"
	deleteDirectoryPromptTemplateConstant = "Also delete directory %q?"
)

func (builder *CommandBuilder) buildStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     statusUseConstant,
		Aliases: []string{statusAliasConstant},
		Short:   statusShortDescriptionConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.RunStatus,
	}
}

func (builder *CommandBuilder) buildListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     listUseConstant,
		Aliases: []string{listAliasConstant},
		Short:   listShortDescriptionConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.runList,
	}
}

func (builder *CommandBuilder) buildRemoveCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     removeUseConstant,
		Aliases: []string{removeAliasConstant},
		Short:   removeShortDescriptionConstant,
		Args:    cobra.ExactArgs(1),
		RunE:    builder.runRemove,
	}
	command.Flags().BoolP(removeForceFlagNameConstant, removeForceFlagShorthandConstant, false, removeForceFlagUsageConstant)
	addAssumeYesFlag(command)
	return command
}

// RunStatus prints the branch, pending changes, and tracked subtrees. The root
// command runs it when no subcommand is given.
func (builder *CommandBuilder) RunStatus(command *cobra.Command, _ []string) error {
	runtime, runtimeError := builder.newRuntime(command, false)
	if runtimeError != nil {
		return runtimeError
	}

	summary, statusError := runtime.service.Status(commandContext(command))
	if statusError != nil {
		return statusError
	}
	runtime.renderer.Status(summary)
	return nil
}

func (builder *CommandBuilder) runList(command *cobra.Command, _ []string) error {
	runtime, runtimeError := builder.newRuntime(command, false)
	if runtimeError != nil {
		return runtimeError
	}

	mappings, listError := runtime.service.List(commandContext(command))
	if listError != nil {
		return listError
	}
	runtime.renderer.Mappings(mappings)
	return nil
}

func (builder *CommandBuilder) runRemove(command *cobra.Command, arguments []string) error {
	force, _ := command.Flags().GetBool(removeForceFlagNameConstant)
	runtime, runtimeError := builder.newRuntime(command, assumeYesRequested(command))
	if runtimeError != nil {
		return runtimeError
	}

	name := firstArgument(arguments)
	deleteDirectories := false
	if mapping, found := runtime.store.Find(name); found {
		runtime.renderer.Heading(fmt.Sprintf(removeHeadingTemplateConstant, name))
		if force && anyDirectoryExists(runtime.manifestRoot, mapping.Prefixes()) {
			confirmed, confirmError := runtime.prompter.Confirm(fmt.Sprintf(deleteDirectoryPromptTemplateConstant, joinPrefixes(mapping.Prefixes())), false)
			if confirmError != nil {
				if isCancellation(confirmError) {
					return nil
				}
				return confirmError
			}
			deleteDirectories = confirmed
		}
	}

	result, removeError := runtime.service.Remove(commandContext(command), name, deleteDirectories)
	if removeError != nil {
		return removeError
	}
	runtime.renderer.Removed(result)
	return nil
}

func anyDirectoryExists(root string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if information, statError := os.Stat(filepath.Join(root, filepath.FromSlash(prefix))); statError == nil && information.IsDir() {
			return true
		}
	}
	return false
}
