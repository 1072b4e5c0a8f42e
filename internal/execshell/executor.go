package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	commandGitStringConstant                = "git"
	commandGitHubStringConstant             = "gh"
	loggerNotConfiguredMessageConstant      = "shell executor logger not configured"
	runnerNotConfiguredMessageConstant      = "shell executor command runner not configured"
	commandFailedTemplateConstant           = "%s command exited with code %d"
	commandFailedWithOutputTemplateConstant = "%s command exited with code %d: %s"
	commandExecutionErrorTemplateConstant   = "%s command execution failed: %v"
)

// CommandName identifies an executable supported by the shell executor.
type CommandName string

// Supported command names.
const (
	CommandGit    CommandName = CommandName(commandGitStringConstant)
	CommandGitHub CommandName = CommandName(commandGitHubStringConstant)
)

// CommandDetails describes arguments and process settings for a command invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	// PassthroughOutput mirrors child output to the terminal while still capturing it.
	PassthroughOutput bool
}

// ShellCommand combines a command name with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran but returned a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including its diagnostic output.
func (failedError CommandFailedError) Error() string {
	diagnostic := failedError.Diagnostic()
	if len(diagnostic) == 0 {
		return fmt.Sprintf(commandFailedTemplateConstant, failedError.Command.Name, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, failedError.Command.Name, failedError.Result.ExitCode, diagnostic)
}

// Diagnostic returns the captured standard error, falling back to standard output.
func (failedError CommandFailedError) Diagnostic() string {
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		return trimmedStandardError
	}
	return strings.TrimSpace(failedError.Result.StandardOutput)
}

// CommandExecutionError reports a command that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, executionError.Command.Name, executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs commands through a CommandRunner and reports lifecycle events.
type ShellExecutor struct {
	runner   CommandRunner
	observer CommandEventObserver
}

// NewShellExecutor constructs a ShellExecutor. Human-readable logging switches
// command events from structured fields to formatted sentences.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	var observer CommandEventObserver = newStructuredCommandEventLogger(logger)
	if humanReadableLogging {
		observer = newConsoleCommandEventLogger(logger)
	}

	return &ShellExecutor{runner: runner, observer: observer}, nil
}

// Execute runs the provided command and converts non-zero exits into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.observer.CommandStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.observer.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observer.CommandCompleted(command, executionResult)
	if executionResult.ExitCode != 0 {
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitHubCLI runs gh with the provided details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}
