package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	prefixFlagPrefixConstant                = "--prefix="
)

const (
	gitRevParseSubcommandNameConstant  = "rev-parse"
	gitGitDirFlagConstant              = "--git-dir"
	gitShowToplevelFlagConstant        = "--show-toplevel"
	gitStatusSubcommandNameConstant    = "status"
	gitBranchSubcommandNameConstant    = "branch"
	gitShowCurrentFlagConstant         = "--show-current"
	gitForceMoveFlagConstant           = "-M"
	gitAddSubcommandNameConstant       = "add"
	gitCommitSubcommandNameConstant    = "commit"
	gitMessageFlagConstant             = "-m"
	gitPushSubcommandNameConstant      = "push"
	gitPullSubcommandNameConstant      = "pull"
	gitCloneSubcommandNameConstant     = "clone"
	gitInitSubcommandNameConstant      = "init"
	gitRemoteSubcommandNameConstant    = "remote"
	gitRemoteGetURLSubcommandConstant  = "get-url"
	gitRemoteAddSubcommandConstant     = "add"
	gitSubtreeSubcommandNameConstant   = "subtree"
	gitSubtreeAddSubcommandConstant    = "add"
	gitSubtreePullSubcommandConstant   = "pull"
	gitSubtreePushSubcommandConstant   = "push"
	gitBranchFlagConstant              = "--branch"
	gitDepthFlagConstant               = "--depth"
	gitSetUpstreamFlagConstant         = "-u"
	gitSubtreeArgumentOffsetConstant   = 2
	gitCloneMinimumPositionalsConstant = 2
)

const (
	gitRepositoryCheckStartTemplateConstant            = "Checking whether %s is a Git repository"
	gitRepositoryCheckSuccessTemplateConstant          = "%s is a Git repository"
	gitRepositoryCheckFailureTemplateConstant          = "%s is not a Git repository (exit code %d%s)"
	gitRepositoryCheckExecutionFailureTemplateConstant = "Could not inspect %s: %s"
	gitRepositoryRootStartTemplateConstant             = "Resolving repository root from %s"
	gitRepositoryRootSuccessTemplateConstant           = "Repository root for %s is %s"
	gitRepositoryRootFailureTemplateConstant           = "Failed to resolve repository root from %s (exit code %d%s)"
	gitRepositoryRootExecutionFailureTemplateConstant  = "Unable to resolve repository root from %s: %s"
	gitStatusStartTemplateConstant                     = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant                   = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant                   = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant          = "Unable to review working tree status in %s: %s"
	gitCurrentBranchStartTemplateConstant              = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant            = "Current branch in %s is %s"
	gitCurrentBranchDetachedTemplateConstant           = "%s is in a detached HEAD state"
	gitCurrentBranchFailureTemplateConstant            = "Failed to identify current branch in %s (exit code %d%s)"
	gitCurrentBranchExecutionFailureTemplateConstant   = "Unable to identify current branch in %s: %s"
	gitBranchRenameStartTemplateConstant               = "Renaming current branch in %s to %s"
	gitBranchRenameSuccessTemplateConstant             = "Current branch in %s is now %s"
	gitBranchRenameFailureTemplateConstant             = "Failed to rename current branch in %s to %s (exit code %d%s)"
	gitBranchRenameExecutionFailureTemplateConstant    = "Unable to rename current branch in %s to %s: %s"
	gitAddStartTemplateConstant                        = "Staging %s in %s"
	gitAddSuccessTemplateConstant                      = "Staged %s in %s"
	gitAddFailureTemplateConstant                      = "Failed to stage %s in %s (exit code %d%s)"
	gitAddExecutionFailureTemplateConstant             = "Unable to stage %s in %s: %s"
	gitCommitStartTemplateConstant                     = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant                   = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant                   = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant          = "Unable to create commit in %s with message %q: %s"
	gitPushStartTemplateConstant                       = "Pushing %s from %s"
	gitPushSuccessTemplateConstant                     = "Pushed %s from %s"
	gitPushFailureTemplateConstant                     = "Failed to push %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant            = "Unable to push %s from %s: %s"
	gitPullStartTemplateConstant                       = "Pulling upstream changes into %s"
	gitPullSuccessTemplateConstant                     = "Pulled upstream changes into %s"
	gitPullFailureTemplateConstant                     = "Failed to pull upstream changes into %s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant            = "Unable to pull upstream changes into %s: %s"
	gitCloneStartTemplateConstant                      = "Cloning %s (%s) into %s"
	gitCloneSuccessTemplateConstant                    = "Cloned %s (%s) into %s"
	gitCloneFailureTemplateConstant                    = "Failed to clone %s (%s) into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant           = "Unable to clone %s (%s) into %s: %s"
	gitInitStartTemplateConstant                       = "Initializing repository in %s"
	gitInitSuccessTemplateConstant                     = "Initialized repository in %s"
	gitInitFailureTemplateConstant                     = "Failed to initialize repository in %s (exit code %d%s)"
	gitInitExecutionFailureTemplateConstant            = "Unable to initialize repository in %s: %s"
	gitRemoteLookupStartTemplateConstant               = "Checking %s remote for %s"
	gitRemoteLookupSuccessTemplateConstant             = "%s remote for %s points to %s"
	gitRemoteLookupFailureTemplateConstant             = "Failed to read %s remote for %s (exit code %d%s)"
	gitRemoteLookupExecutionFailureTemplateConstant    = "Unable to read %s remote for %s: %s"
	gitRemoteAddStartTemplateConstant                  = "Adding %s remote %s in %s"
	gitRemoteAddSuccessTemplateConstant                = "Added %s remote %s in %s"
	gitRemoteAddFailureTemplateConstant                = "Failed to add %s remote %s in %s (exit code %d%s)"
	gitRemoteAddExecutionFailureTemplateConstant       = "Unable to add %s remote %s in %s: %s"
	gitSubtreeStartTemplateConstant                    = "Running subtree %s for %s against %s (%s)"
	gitSubtreeSuccessTemplateConstant                  = "Subtree %s for %s against %s (%s) completed"
	gitSubtreeFailureTemplateConstant                  = "Subtree %s for %s against %s (%s) failed (exit code %d%s)"
	gitSubtreeExecutionFailureTemplateConstant         = "Unable to run subtree %s for %s against %s (%s): %s"
)

const (
	githubVersionFlagConstant            = "--version"
	githubAuthSubcommandNameConstant     = "auth"
	githubAPISubcommandNameConstant      = "api"
	githubRepoSubcommandNameConstant     = "repo"
	githubRepoCreateSubcommandConstant   = "create"
	githubRepoViewSubcommandConstant     = "view"
	githubPrivateFlagConstant            = "--private"
	githubPrivateVisibilityLabelConstant = "private"
	githubPublicVisibilityLabelConstant  = "public"
	githubCurrentRepositoryLabelConstant = "current repository"
)

const (
	githubAvailabilityStartTemplateConstant            = "Checking GitHub CLI availability"
	githubAvailabilitySuccessTemplateConstant          = "GitHub CLI is available"
	githubAvailabilityFailureTemplateConstant          = "GitHub CLI is unavailable (exit code %d%s)"
	githubAvailabilityExecutionFailureTemplateConstant = "GitHub CLI could not be executed: %s"
	githubAuthStartTemplateConstant                    = "Checking GitHub CLI authentication"
	githubAuthSuccessTemplateConstant                  = "GitHub CLI is authenticated"
	githubAuthFailureTemplateConstant                  = "GitHub CLI is not authenticated (exit code %d%s)"
	githubAuthExecutionFailureTemplateConstant         = "Unable to check GitHub CLI authentication: %s"
	githubAPIStartTemplateConstant                     = "Querying GitHub endpoint %s"
	githubAPISuccessTemplateConstant                   = "Queried GitHub endpoint %s"
	githubAPIFailureTemplateConstant                   = "Failed to query GitHub endpoint %s (exit code %d%s)"
	githubAPIExecutionFailureTemplateConstant          = "Unable to query GitHub endpoint %s: %s"
	githubRepoCreateStartTemplateConstant              = "Creating %s repository %s"
	githubRepoCreateSuccessTemplateConstant            = "Created %s repository %s"
	githubRepoCreateFailureTemplateConstant            = "Failed to create %s repository %s (exit code %d%s)"
	githubRepoCreateExecutionFailureTemplateConstant   = "Unable to create %s repository %s: %s"
	githubRepoViewStartTemplateConstant                = "Retrieving repository details for %s"
	githubRepoViewSuccessTemplateConstant              = "Retrieved repository details for %s"
	githubRepoViewFailureTemplateConstant              = "Failed to retrieve repository details for %s (exit code %d%s)"
	githubRepoViewExecutionFailureTemplateConstant     = "Unable to retrieve repository details for %s: %s"
)

// stageTemplates holds the four lifecycle templates for a single command family.
type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGitHub:
		return formatter.describeGitHubMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(arguments[0]) {
	case gitRevParseSubcommandNameConstant:
		if containsArgument(arguments, gitShowToplevelFlagConstant) {
			if stage == messageStageSuccess {
				return fmt.Sprintf(gitRepositoryRootSuccessTemplateConstant, workingDirectory, formatter.ensureValue(strings.TrimSpace(result.StandardOutput)))
			}
			return formatter.renderStage(stageTemplates{
				start:            gitRepositoryRootStartTemplateConstant,
				failure:          gitRepositoryRootFailureTemplateConstant,
				executionFailure: gitRepositoryRootExecutionFailureTemplateConstant,
			}, stage, result, failure, workingDirectory)
		}
		if containsArgument(arguments, gitGitDirFlagConstant) {
			return formatter.renderStage(stageTemplates{
				start:            gitRepositoryCheckStartTemplateConstant,
				success:          gitRepositoryCheckSuccessTemplateConstant,
				failure:          gitRepositoryCheckFailureTemplateConstant,
				executionFailure: gitRepositoryCheckExecutionFailureTemplateConstant,
			}, stage, result, failure, workingDirectory)
		}
	case gitStatusSubcommandNameConstant:
		return formatter.renderStage(stageTemplates{
			start:            gitStatusStartTemplateConstant,
			success:          gitStatusSuccessTemplateConstant,
			failure:          gitStatusFailureTemplateConstant,
			executionFailure: gitStatusExecutionFailureTemplateConstant,
		}, stage, result, failure, workingDirectory)
	case gitBranchSubcommandNameConstant:
		return formatter.describeGitBranchMessage(command, result, failure, stage)
	case gitAddSubcommandNameConstant:
		target := formatter.ensureValue(strings.Join(arguments[1:], commandArgumentsJoinSeparatorConstant))
		return formatter.renderStage(stageTemplates{
			start:            gitAddStartTemplateConstant,
			success:          gitAddSuccessTemplateConstant,
			failure:          gitAddFailureTemplateConstant,
			executionFailure: gitAddExecutionFailureTemplateConstant,
		}, stage, result, failure, target, workingDirectory)
	case gitCommitSubcommandNameConstant:
		message := formatter.ensureValue(findFlagValue(arguments, gitMessageFlagConstant))
		return formatter.renderStage(stageTemplates{
			start:            gitCommitStartTemplateConstant,
			success:          gitCommitSuccessTemplateConstant,
			failure:          gitCommitFailureTemplateConstant,
			executionFailure: gitCommitExecutionFailureTemplateConstant,
		}, stage, result, failure, workingDirectory, message)
	case gitPushSubcommandNameConstant:
		target := formatter.describePushTarget(arguments[1:])
		return formatter.renderStage(stageTemplates{
			start:            gitPushStartTemplateConstant,
			success:          gitPushSuccessTemplateConstant,
			failure:          gitPushFailureTemplateConstant,
			executionFailure: gitPushExecutionFailureTemplateConstant,
		}, stage, result, failure, target, workingDirectory)
	case gitPullSubcommandNameConstant:
		return formatter.renderStage(stageTemplates{
			start:            gitPullStartTemplateConstant,
			success:          gitPullSuccessTemplateConstant,
			failure:          gitPullFailureTemplateConstant,
			executionFailure: gitPullExecutionFailureTemplateConstant,
		}, stage, result, failure, workingDirectory)
	case gitCloneSubcommandNameConstant:
		return formatter.describeGitCloneMessage(command, result, failure, stage)
	case gitInitSubcommandNameConstant:
		return formatter.renderStage(stageTemplates{
			start:            gitInitStartTemplateConstant,
			success:          gitInitSuccessTemplateConstant,
			failure:          gitInitFailureTemplateConstant,
			executionFailure: gitInitExecutionFailureTemplateConstant,
		}, stage, result, failure, workingDirectory)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteMessage(command, result, failure, stage)
	case gitSubtreeSubcommandNameConstant:
		return formatter.describeGitSubtreeMessage(command, result, failure, stage)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	if containsArgument(arguments, gitShowCurrentFlagConstant) {
		if stage == messageStageSuccess {
			branchName := strings.TrimSpace(result.StandardOutput)
			if len(branchName) == 0 {
				return fmt.Sprintf(gitCurrentBranchDetachedTemplateConstant, workingDirectory)
			}
			return fmt.Sprintf(gitCurrentBranchSuccessTemplateConstant, workingDirectory, branchName)
		}
		return formatter.renderStage(stageTemplates{
			start:            gitCurrentBranchStartTemplateConstant,
			failure:          gitCurrentBranchFailureTemplateConstant,
			executionFailure: gitCurrentBranchExecutionFailureTemplateConstant,
		}, stage, result, failure, workingDirectory)
	}

	if containsArgument(arguments, gitForceMoveFlagConstant) {
		branchName := formatter.ensureValue(findFlagValue(arguments, gitForceMoveFlagConstant))
		return formatter.renderStage(stageTemplates{
			start:            gitBranchRenameStartTemplateConstant,
			success:          gitBranchRenameSuccessTemplateConstant,
			failure:          gitBranchRenameFailureTemplateConstant,
			executionFailure: gitBranchRenameExecutionFailureTemplateConstant,
		}, stage, result, failure, workingDirectory, branchName)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitCloneMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments[1:]
	positionals := extractPositionalArguments(arguments, gitBranchFlagConstant, gitDepthFlagConstant)
	if len(positionals) < gitCloneMinimumPositionalsConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	branchName := formatter.ensureValue(findFlagValue(arguments, gitBranchFlagConstant))
	return formatter.renderStage(stageTemplates{
		start:            gitCloneStartTemplateConstant,
		success:          gitCloneSuccessTemplateConstant,
		failure:          gitCloneFailureTemplateConstant,
		executionFailure: gitCloneExecutionFailureTemplateConstant,
	}, stage, result, failure, positionals[0], branchName, positionals[1])
}

func (formatter CommandMessageFormatter) describeGitRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.ensureValue(argumentAtIndex(arguments, 2))

	switch strings.TrimSpace(argumentAtIndex(arguments, 1)) {
	case gitRemoteGetURLSubcommandConstant:
		if stage == messageStageSuccess {
			return fmt.Sprintf(gitRemoteLookupSuccessTemplateConstant, remoteName, workingDirectory, formatter.ensureValue(strings.TrimSpace(result.StandardOutput)))
		}
		return formatter.renderStage(stageTemplates{
			start:            gitRemoteLookupStartTemplateConstant,
			failure:          gitRemoteLookupFailureTemplateConstant,
			executionFailure: gitRemoteLookupExecutionFailureTemplateConstant,
		}, stage, result, failure, remoteName, workingDirectory)
	case gitRemoteAddSubcommandConstant:
		remoteURL := formatter.ensureValue(argumentAtIndex(arguments, 3))
		return formatter.renderStage(stageTemplates{
			start:            gitRemoteAddStartTemplateConstant,
			success:          gitRemoteAddSuccessTemplateConstant,
			failure:          gitRemoteAddFailureTemplateConstant,
			executionFailure: gitRemoteAddExecutionFailureTemplateConstant,
		}, stage, result, failure, remoteName, remoteURL, workingDirectory)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitSubtreeMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	action := strings.TrimSpace(argumentAtIndex(arguments, 1))
	switch action {
	case gitSubtreeAddSubcommandConstant, gitSubtreePullSubcommandConstant, gitSubtreePushSubcommandConstant:
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	prefix := fallbackUnknownValueLabelConstant
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if strings.HasPrefix(trimmed, prefixFlagPrefixConstant) {
			prefix = formatter.ensureValue(strings.TrimPrefix(trimmed, prefixFlagPrefixConstant))
		}
	}

	positionals := extractPositionalArguments(arguments[gitSubtreeArgumentOffsetConstant:], gitMessageFlagConstant)
	remote := formatter.ensureValue(argumentAtIndex(positionals, 0))
	branch := formatter.ensureValue(argumentAtIndex(positionals, 1))

	return formatter.renderStage(stageTemplates{
		start:            gitSubtreeStartTemplateConstant,
		success:          gitSubtreeSuccessTemplateConstant,
		failure:          gitSubtreeFailureTemplateConstant,
		executionFailure: gitSubtreeExecutionFailureTemplateConstant,
	}, stage, result, failure, action, prefix, remote, branch)
}

func (formatter CommandMessageFormatter) describeGitHubMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(arguments[0]) {
	case githubVersionFlagConstant:
		return formatter.renderStage(stageTemplates{
			start:            githubAvailabilityStartTemplateConstant,
			success:          githubAvailabilitySuccessTemplateConstant,
			failure:          githubAvailabilityFailureTemplateConstant,
			executionFailure: githubAvailabilityExecutionFailureTemplateConstant,
		}, stage, result, failure)
	case githubAuthSubcommandNameConstant:
		return formatter.renderStage(stageTemplates{
			start:            githubAuthStartTemplateConstant,
			success:          githubAuthSuccessTemplateConstant,
			failure:          githubAuthFailureTemplateConstant,
			executionFailure: githubAuthExecutionFailureTemplateConstant,
		}, stage, result, failure)
	case githubAPISubcommandNameConstant:
		endpoint := formatter.ensureValue(argumentAtIndex(arguments, 1))
		return formatter.renderStage(stageTemplates{
			start:            githubAPIStartTemplateConstant,
			success:          githubAPISuccessTemplateConstant,
			failure:          githubAPIFailureTemplateConstant,
			executionFailure: githubAPIExecutionFailureTemplateConstant,
		}, stage, result, failure, endpoint)
	case githubRepoSubcommandNameConstant:
		switch strings.TrimSpace(argumentAtIndex(arguments, 1)) {
		case githubRepoCreateSubcommandConstant:
			visibility := githubPublicVisibilityLabelConstant
			if containsArgument(arguments, githubPrivateFlagConstant) {
				visibility = githubPrivateVisibilityLabelConstant
			}
			repository := formatter.ensureValue(argumentAtIndex(arguments, 2))
			return formatter.renderStage(stageTemplates{
				start:            githubRepoCreateStartTemplateConstant,
				success:          githubRepoCreateSuccessTemplateConstant,
				failure:          githubRepoCreateFailureTemplateConstant,
				executionFailure: githubRepoCreateExecutionFailureTemplateConstant,
			}, stage, result, failure, visibility, repository)
		case githubRepoViewSubcommandConstant:
			repository := githubCurrentRepositoryLabelConstant
			candidate := strings.TrimSpace(argumentAtIndex(arguments, 2))
			if len(candidate) > 0 && !strings.HasPrefix(candidate, "-") {
				repository = candidate
			}
			return formatter.renderStage(stageTemplates{
				start:            githubRepoViewStartTemplateConstant,
				success:          githubRepoViewSuccessTemplateConstant,
				failure:          githubRepoViewFailureTemplateConstant,
				executionFailure: githubRepoViewExecutionFailureTemplateConstant,
			}, stage, result, failure, repository)
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

// renderStage formats the template for the requested stage. Failure templates
// receive the exit code and stderr suffix after the subject values; execution
// failure templates receive the failure description.
func (formatter CommandMessageFormatter) renderStage(templates stageTemplates, stage messageStage, result ExecutionResult, failure error, subjects ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjects...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjects...)
	case messageStageFailure:
		failureArguments := append(append([]any{}, subjects...), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, failureArguments...)
	case messageStageExecutionFailure:
		failureArguments := append(append([]any{}, subjects...), formatter.describeFailure(failure))
		return fmt.Sprintf(templates.executionFailure, failureArguments...)
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return commandLabel
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	workingDirectorySuffix := emptyStringConstant
	if trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describePushTarget(arguments []string) string {
	positionals := extractPositionalArguments(arguments)
	if len(positionals) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return strings.Join(positionals, commandArgumentsJoinSeparatorConstant)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func containsArgument(arguments []string, target string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == target {
			return true
		}
	}
	return false
}

func argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return arguments[index]
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}

// extractPositionalArguments drops flags and the values of the listed value-taking flags.
func extractPositionalArguments(arguments []string, valueFlags ...string) []string {
	positionals := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			if containsArgument(valueFlags, trimmed) {
				index++
			}
			continue
		}
		positionals = append(positionals, trimmed)
	}
	return positionals
}
