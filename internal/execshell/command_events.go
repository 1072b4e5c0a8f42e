package execshell

import (
	"go.uber.org/zap"
)

const (
	structuredCommandStartedMessageConstant   = "shell command started"
	structuredCommandCompletedMessageConstant = "shell command completed"
	structuredCommandFailedMessageConstant    = "shell command failed"
	structuredCommandErrorMessageConstant     = "shell command execution error"
	logFieldCommandNameConstant               = "command"
	logFieldArgumentsConstant                 = "arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "stderr"
)

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// structuredCommandEventLogger emits command events as structured zap fields.
type structuredCommandEventLogger struct {
	logger *zap.Logger
}

func newStructuredCommandEventLogger(logger *zap.Logger) structuredCommandEventLogger {
	return structuredCommandEventLogger{logger: logger}
}

func (eventLogger structuredCommandEventLogger) CommandStarted(command ShellCommand) {
	eventLogger.logger.Debug(structuredCommandStartedMessageConstant, commandFields(command)...)
}

func (eventLogger structuredCommandEventLogger) CommandCompleted(command ShellCommand, result ExecutionResult) {
	fields := append(commandFields(command), zap.Int(logFieldExitCodeConstant, result.ExitCode))
	if result.ExitCode == 0 {
		eventLogger.logger.Debug(structuredCommandCompletedMessageConstant, fields...)
		return
	}
	fields = append(fields, zap.String(logFieldStandardErrorConstant, result.StandardError))
	eventLogger.logger.Warn(structuredCommandFailedMessageConstant, fields...)
}

func (eventLogger structuredCommandEventLogger) CommandExecutionFailed(command ShellCommand, failure error) {
	eventLogger.logger.Error(structuredCommandErrorMessageConstant, append(commandFields(command), zap.Error(failure))...)
}

func commandFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}
}

// consoleCommandEventLogger renders command events as sentences built by CommandMessageFormatter.
type consoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter CommandMessageFormatter
}

func newConsoleCommandEventLogger(logger *zap.Logger) consoleCommandEventLogger {
	return consoleCommandEventLogger{logger: logger, formatter: CommandMessageFormatter{}}
}

func (eventLogger consoleCommandEventLogger) CommandStarted(command ShellCommand) {
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command))
}

func (eventLogger consoleCommandEventLogger) CommandCompleted(command ShellCommand, result ExecutionResult) {
	if result.ExitCode == 0 {
		eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(command))
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(command, result))
}

func (eventLogger consoleCommandEventLogger) CommandExecutionFailed(command ShellCommand, failure error) {
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure))
}
