package subtrees

import (
	"context"
	"errors"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gstree/internal/execshell"
	"github.com/temirov/gstree/internal/githubcli"
	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/scratch"
	"github.com/temirov/gstree/internal/strategy"
	"github.com/temirov/gstree/internal/subtrees"
	"github.com/temirov/gstree/internal/ui"
	"github.com/temirov/gstree/internal/utils"
	pathutils "github.com/temirov/gstree/internal/utils/path"
)

const (
	assumeYesFlagNameConstant        = "yes"
	assumeYesFlagShorthandConstant   = "y"
	assumeYesFlagUsageConstant       = "Answer yes to confirmations and skip prompts that have defaults"
	manifestResolvedMessageConstant  = "manifest resolved"
	logFieldManifestPathConstant     = "manifest_path"
	logFieldWorkingDirectoryConstant = "working_directory"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider yields the subtrees configuration loaded by the application.
type ConfigurationProvider func() CommandConfiguration

// PrompterFactory creates the prompter used by a command invocation.
type PrompterFactory func(command *cobra.Command, renderer *ui.Renderer, assumeYes bool) ui.Prompter

// CommandExecutor runs git and gh; execshell.ShellExecutor in production.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandBuilder assembles the gst commands over shared dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        ConfigurationProvider
	Executor                     CommandExecutor
	EnvironmentLookup            githubcli.EnvironmentLookup
	PrompterFactory              PrompterFactory
	WorkingDirectory             string
}

// Build constructs every gst subcommand.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	commandFactories := []func() *cobra.Command{
		builder.buildInitCommand,
		builder.buildAddCommand,
		builder.buildPullCommand,
		builder.buildPushCommand,
		builder.buildSyncCommand,
		builder.buildSaveCommand,
		builder.buildCommitCommand,
		builder.buildStatusCommand,
		builder.buildListCommand,
		builder.buildRemoveCommand,
	}

	commands := make([]*cobra.Command, 0, len(commandFactories))
	for _, factory := range commandFactories {
		commands = append(commands, factory())
	}
	return commands, nil
}

// commandRuntime bundles the services resolved for one command invocation.
type commandRuntime struct {
	logger        *zap.Logger
	service       *subtrees.Service
	initializer   *subtrees.Initializer
	store         *manifest.Store
	manifestRoot  string
	defaultBranch string
	renderer      *ui.Renderer
	prompter      ui.Prompter
}

func (builder *CommandBuilder) newRuntime(command *cobra.Command, assumeYes bool) (*commandRuntime, error) {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()
	if validationError := configuration.validate(); validationError != nil {
		return nil, validationError
	}

	workingDirectory, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return nil, workingDirectoryError
	}

	executor, executorError := builder.resolveExecutor(command, logger)
	if executorError != nil {
		return nil, executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return nil, managerError
	}

	executionContext := commandContext(command)
	manifestRoot := resolveManifestRoot(executionContext, repositoryManager, workingDirectory)
	store := manifest.NewStore(osfs.New(manifestRoot), configuration.ManifestFile, logger)
	logger.Debug(manifestResolvedMessageConstant, zap.String(logFieldManifestPathConstant, store.Path()), zap.String(logFieldWorkingDirectoryConstant, workingDirectory))

	allocator := scratch.NewAllocator(pathutils.NewHomeExpander().Expand(configuration.ScratchRoot), logger)

	selector, selectorError := strategy.NewSelector(strategy.Dependencies{
		VersionControl:    repositoryManager,
		Scratch:           allocator,
		Logger:            logger,
		WorkingDirectory:  workingDirectory,
		RemoteProtocol:    configuration.RemoteProtocol,
		NativeSubtreePush: configuration.NativeSubtreePush,
	})
	if selectorError != nil {
		return nil, selectorError
	}

	service, serviceError := subtrees.NewService(subtrees.ServiceDependencies{
		Repositories:     repositoryManager,
		Store:            store,
		Selector:         selector,
		Logger:           logger,
		WorkingDirectory: workingDirectory,
		RemoteProtocol:   configuration.RemoteProtocol,
	})
	if serviceError != nil {
		return nil, serviceError
	}

	host, hostError := githubcli.NewClient(executor, builder.EnvironmentLookup)
	if hostError != nil {
		return nil, hostError
	}

	renderer := ui.NewRenderer(command.OutOrStdout())
	prompter := builder.resolvePrompter(command, renderer, assumeYes)

	initializer, initializerError := subtrees.NewInitializer(subtrees.InitializerDependencies{
		Repositories:     repositoryManager,
		Store:            store,
		Host:             host,
		Prompter:         prompter,
		Scratch:          allocator,
		Logger:           logger,
		WorkingDirectory: workingDirectory,
		DefaultBranch:    configuration.DefaultBranch,
		DefaultMode:      configuration.DefaultMode,
		RemoteProtocol:   configuration.RemoteProtocol,
	})
	if initializerError != nil {
		return nil, initializerError
	}

	return &commandRuntime{
		logger:        logger,
		service:       service,
		initializer:   initializer,
		store:         store,
		manifestRoot:  manifestRoot,
		defaultBranch: configuration.DefaultBranch,
		renderer:      renderer,
		prompter:      prompter,
	}, nil
}

// resolveManifestRoot places the manifest at the top of the working tree, or
// in the working directory when it is not inside a repository.
func resolveManifestRoot(executionContext context.Context, repositoryManager *gitrepo.RepositoryManager, workingDirectory string) string {
	isRepository, checkError := repositoryManager.IsRepository(executionContext, workingDirectory)
	if checkError != nil || !isRepository {
		return workingDirectory
	}
	repositoryRoot, rootError := repositoryManager.RepositoryRoot(executionContext, workingDirectory)
	if rootError != nil || len(repositoryRoot) == 0 {
		return workingDirectory
	}
	return repositoryRoot
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().sanitize()
}

func (builder *CommandBuilder) resolveWorkingDirectory() (string, error) {
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory, nil
	}
	return os.Getwd()
}

func (builder *CommandBuilder) resolveExecutor(command *cobra.Command, logger *zap.Logger) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	commandRunner := execshell.NewOSCommandRunnerWithWriters(utils.NewFlushingWriter(command.OutOrStdout()), utils.NewFlushingWriter(command.ErrOrStderr()))
	return execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
}

func (builder *CommandBuilder) resolvePrompter(command *cobra.Command, renderer *ui.Renderer, assumeYes bool) ui.Prompter {
	if builder.PrompterFactory != nil {
		if prompter := builder.PrompterFactory(command, renderer, assumeYes); prompter != nil {
			return prompter
		}
	}
	inputFile, inputIsFile := command.InOrStdin().(*os.File)
	if !inputIsFile {
		return ui.NonInteractivePrompter{AssumeYes: assumeYes}
	}
	return ui.NewPrompter(inputFile, command.OutOrStdout(), renderer, assumeYes)
}

func commandContext(command *cobra.Command) context.Context {
	if command == nil || command.Context() == nil {
		return context.Background()
	}
	return command.Context()
}

func addAssumeYesFlag(command *cobra.Command) {
	command.Flags().BoolP(assumeYesFlagNameConstant, assumeYesFlagShorthandConstant, false, assumeYesFlagUsageConstant)
}

func assumeYesRequested(command *cobra.Command) bool {
	assumeYes, flagError := command.Flags().GetBool(assumeYesFlagNameConstant)
	if flagError != nil {
		return false
	}
	return assumeYes
}

// isCancellation reports whether an error only means the user backed out.
func isCancellation(err error) bool {
	return errors.Is(err, ui.ErrPromptCancelled) || errors.Is(err, subtrees.ErrInitCancelled)
}
