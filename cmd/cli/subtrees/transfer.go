package subtrees

import (
	"github.com/spf13/cobra"

	"github.com/temirov/gstree/internal/subtrees"
)

const (
	pullUseConstant              = "pull [name]"
	pullShortDescriptionConstant = "Pull remote changes into one or all tracked subtrees"
	pullLongDescriptionConstant  = "pull fetches each tracked remote and merges it into its prefix. Without a name every mapping is pulled and failures are reported without stopping the run."
	pullHeadingConstant          = "Pulling"
	pushUseConstant              = "push [name]"
	pushShortDescriptionConstant = "Push local changes of one or all tracked subtrees"
	pushLongDescriptionConstant  = "push publishes the contents of each tracked prefix to its remote. Without a name every mapping is pushed and failures are reported without stopping the run."
	pushHeadingConstant          = "Pushing"
	syncUseConstant              = "sync"
	syncShortDescriptionConstant = "Pull then push the main repository and every subtree"
	syncHeadingConstant          = "Syncing everything"
	syncCompletionConstant       = "All synced"
	doneCompletionConstant       = "Done"
)

func (builder *CommandBuilder) buildPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   pullUseConstant,
		Short: pullShortDescriptionConstant,
		Long:  pullLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.runTransfer(command, arguments, subtrees.OperationPull)
		},
	}
}

func (builder *CommandBuilder) buildPushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   pushUseConstant,
		Short: pushShortDescriptionConstant,
		Long:  pushLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.runTransfer(command, arguments, subtrees.OperationPush)
		},
	}
}

func (builder *CommandBuilder) buildSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   syncUseConstant,
		Short: syncShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runSync,
	}
}

func (builder *CommandBuilder) runTransfer(command *cobra.Command, arguments []string, operation subtrees.OperationKind) error {
	runtime, runtimeError := builder.newRuntime(command, false)
	if runtimeError != nil {
		return runtimeError
	}

	name := ""
	if len(arguments) > 0 {
		name = arguments[0]
	}

	execute := runtime.service.Push
	heading := pushHeadingConstant
	if operation == subtrees.OperationPull {
		execute = runtime.service.Pull
		heading = pullHeadingConstant
	}

	if len(name) == 0 {
		runtime.renderer.Heading(heading)
	}

	report, transferError := execute(commandContext(command), name)
	if len(name) > 0 {
		if len(report.Entries) > 0 {
			runtime.renderer.Entry(report.Entries[0])
		}
		return transferError
	}
	if transferError != nil {
		return transferError
	}

	if len(report.Entries) == 0 {
		runtime.renderer.NoMappings()
	}
	runtime.renderer.Report(report, doneCompletionConstant)
	return nil
}

func (builder *CommandBuilder) runSync(command *cobra.Command, _ []string) error {
	runtime, runtimeError := builder.newRuntime(command, false)
	if runtimeError != nil {
		return runtimeError
	}

	runtime.renderer.Heading(syncHeadingConstant)
	report, syncError := runtime.service.Sync(commandContext(command))
	if syncError != nil {
		return syncError
	}

	runtime.renderer.Report(report, syncCompletionConstant)
	return nil
}
