package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/gstree/internal/execshell"
)

const (
	gitRevParseSubcommandConstant            = "rev-parse"
	gitGitDirFlagConstant                    = "--git-dir"
	gitShowToplevelFlagConstant              = "--show-toplevel"
	gitStatusSubcommandConstant              = "status"
	gitPorcelainFlagConstant                 = "--porcelain"
	gitBranchSubcommandConstant              = "branch"
	gitShowCurrentFlagConstant               = "--show-current"
	gitForceMoveFlagConstant                 = "-M"
	gitAddSubcommandConstant                 = "add"
	gitAllFlagConstant                       = "-A"
	gitCommitSubcommandConstant              = "commit"
	gitMessageFlagConstant                   = "-m"
	gitPushSubcommandConstant                = "push"
	gitSetUpstreamFlagConstant               = "-u"
	gitPullSubcommandConstant                = "pull"
	gitCloneSubcommandConstant               = "clone"
	gitDepthFlagConstant                     = "--depth"
	gitShallowDepthConstant                  = "1"
	gitBranchFlagConstant                    = "--branch"
	gitInitSubcommandConstant                = "init"
	gitRemoteSubcommandConstant              = "remote"
	gitRemoteAddSubcommandConstant           = "add"
	gitRemoteGetURLSubcommandConstant        = "get-url"
	gitSubtreeSubcommandConstant             = "subtree"
	gitSubtreeAddSubcommandConstant          = "add"
	gitSubtreePullSubcommandConstant         = "pull"
	gitSubtreePushSubcommandConstant         = "push"
	gitSubtreePrefixFlagTemplateConstant     = "--prefix=%s"
	gitSquashFlagConstant                    = "--squash"
	gitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant   = "0"
	isRepositoryOperationConstant            = OperationName("rev-parse --git-dir")
	repositoryRootOperationConstant          = OperationName("rev-parse --show-toplevel")
	currentStatusOperationConstant           = OperationName("status")
	currentBranchOperationConstant           = OperationName("branch --show-current")
	stageAllOperationConstant                = OperationName("add")
	commitOperationConstant                  = OperationName("commit")
	pushOperationConstant                    = OperationName("push")
	pullOperationConstant                    = OperationName("pull")
	cloneOperationConstant                   = OperationName("clone")
	initOperationConstant                    = OperationName("init")
	renameBranchOperationConstant            = OperationName("branch -M")
	addRemoteOperationConstant               = OperationName("remote add")
	getRemoteURLOperationConstant            = OperationName("remote get-url")
	subtreeAddOperationConstant              = OperationName("subtree add")
	subtreePullOperationConstant             = OperationName("subtree pull")
	subtreePushOperationConstant             = OperationName("subtree push")
	subtreeRequestFieldTemplateConstant      = "subtree %s: %s"
	subtreePrefixFieldNameConstant           = "prefix"
	subtreeRemoteFieldNameConstant           = "remote"
)

const (
	// OriginRemoteName is the remote registered for repositories created by gstree.
	OriginRemoteName = "origin"
	// DefaultBranchName is used when an operation does not name a branch.
	DefaultBranchName = "main"
)

// GitExecutor is the subset of execshell.ShellExecutor used by RepositoryManager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// SubtreeRequest describes the prefix, remote, and branch of a git subtree operation.
type SubtreeRequest struct {
	Prefix    string
	RemoteURL string
	Branch    string
	// Message overrides the merge commit message of add and pull when set.
	Message string
}

// RepositoryManager runs git operations against repositories on disk.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsRepository reports whether repositoryPath is inside a git working tree.
// A failing rev-parse means "not a repository"; only execution failures are errors.
func (manager *RepositoryManager) IsRepository(executionContext context.Context, repositoryPath string) (bool, error) {
	_, executionError := manager.captureGit(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitGitDirFlagConstant)
	if executionError == nil {
		return true, nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) {
		return false, nil
	}
	return false, newOperationError(isRepositoryOperationConstant, repositoryPath, executionError)
}

// RepositoryRoot returns the top-level directory of the working tree containing repositoryPath.
func (manager *RepositoryManager) RepositoryRoot(executionContext context.Context, repositoryPath string) (string, error) {
	output, executionError := manager.captureGit(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitShowToplevelFlagConstant)
	if executionError != nil {
		return "", newOperationError(repositoryRootOperationConstant, repositoryPath, executionError)
	}
	return output, nil
}

// CurrentStatus returns the porcelain status, which is empty for a clean working tree.
func (manager *RepositoryManager) CurrentStatus(executionContext context.Context, repositoryPath string) (string, error) {
	output, executionError := manager.captureGit(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if executionError != nil {
		return "", newOperationError(currentStatusOperationConstant, repositoryPath, executionError)
	}
	return output, nil
}

// CurrentBranch returns the checked out branch name, empty when HEAD is detached.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	output, executionError := manager.captureGit(executionContext, repositoryPath, gitBranchSubcommandConstant, gitShowCurrentFlagConstant)
	if executionError != nil {
		return "", newOperationError(currentBranchOperationConstant, repositoryPath, executionError)
	}
	return output, nil
}

// CommitAll stages every change and records a commit with message.
func (manager *RepositoryManager) CommitAll(executionContext context.Context, repositoryPath string, message string) error {
	if _, stageError := manager.captureGit(executionContext, repositoryPath, gitAddSubcommandConstant, gitAllFlagConstant); stageError != nil {
		return newOperationError(stageAllOperationConstant, repositoryPath, stageError)
	}
	if _, commitError := manager.captureGit(executionContext, repositoryPath, gitCommitSubcommandConstant, gitMessageFlagConstant, message); commitError != nil {
		return newOperationError(commitOperationConstant, repositoryPath, commitError)
	}
	return nil
}

// Push pushes the current branch to its configured upstream.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string) error {
	if executionError := manager.passthroughGit(executionContext, repositoryPath, gitPushSubcommandConstant); executionError != nil {
		return newOperationError(pushOperationConstant, repositoryPath, executionError)
	}
	return nil
}

// Pull merges upstream changes into the current branch.
func (manager *RepositoryManager) Pull(executionContext context.Context, repositoryPath string) error {
	if executionError := manager.passthroughGit(executionContext, repositoryPath, gitPullSubcommandConstant); executionError != nil {
		return newOperationError(pullOperationConstant, repositoryPath, executionError)
	}
	return nil
}

// PushBranch pushes branch to origin.
func (manager *RepositoryManager) PushBranch(executionContext context.Context, repositoryPath string, branch string) error {
	if executionError := manager.passthroughGit(executionContext, repositoryPath, gitPushSubcommandConstant, OriginRemoteName, branch); executionError != nil {
		return newOperationError(pushOperationConstant, repositoryPath, executionError)
	}
	return nil
}

// PushUpstream pushes branch to remoteName and records it as the upstream.
func (manager *RepositoryManager) PushUpstream(executionContext context.Context, repositoryPath string, remoteName string, branch string) error {
	if executionError := manager.passthroughGit(executionContext, repositoryPath, gitPushSubcommandConstant, gitSetUpstreamFlagConstant, remoteName, branch); executionError != nil {
		return newOperationError(pushOperationConstant, repositoryPath, executionError)
	}
	return nil
}

// CloneShallow clones the tip of branch from remoteURL into destination.
// An empty branch clones the remote default branch.
func (manager *RepositoryManager) CloneShallow(executionContext context.Context, remoteURL string, branch string, destination string) error {
	arguments := []string{gitCloneSubcommandConstant, gitDepthFlagConstant, gitShallowDepthConstant}
	if trimmedBranch := strings.TrimSpace(branch); len(trimmedBranch) > 0 {
		arguments = append(arguments, gitBranchFlagConstant, trimmedBranch)
	}
	arguments = append(arguments, remoteURL, destination)

	if _, executionError := manager.runGit(executionContext, execshell.CommandDetails{Arguments: arguments}, false); executionError != nil {
		return newOperationError(cloneOperationConstant, destination, executionError)
	}
	return nil
}

// InitializeRepository creates an empty repository in repositoryPath.
func (manager *RepositoryManager) InitializeRepository(executionContext context.Context, repositoryPath string) error {
	if _, executionError := manager.captureGit(executionContext, repositoryPath, gitInitSubcommandConstant); executionError != nil {
		return newOperationError(initOperationConstant, repositoryPath, executionError)
	}
	return nil
}

// RenameBranch renames the current branch, replacing any branch with the target name.
func (manager *RepositoryManager) RenameBranch(executionContext context.Context, repositoryPath string, branch string) error {
	if _, executionError := manager.captureGit(executionContext, repositoryPath, gitBranchSubcommandConstant, gitForceMoveFlagConstant, branch); executionError != nil {
		return newOperationError(renameBranchOperationConstant, repositoryPath, executionError)
	}
	return nil
}

// AddRemote registers remoteURL under remoteName.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	if _, executionError := manager.captureGit(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, remoteName, remoteURL); executionError != nil {
		return newOperationError(addRemoteOperationConstant, repositoryPath, executionError)
	}
	return nil
}

// GetRemoteURL returns the URL configured for remoteName.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	output, executionError := manager.captureGit(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, remoteName)
	if executionError != nil {
		return "", newOperationError(getRemoteURLOperationConstant, repositoryPath, executionError)
	}
	return output, nil
}

// SubtreeAdd imports the remote branch under the request prefix as a squashed subtree.
func (manager *RepositoryManager) SubtreeAdd(executionContext context.Context, repositoryPath string, request SubtreeRequest) error {
	return manager.runSubtree(executionContext, repositoryPath, subtreeAddOperationConstant, gitSubtreeAddSubcommandConstant, request, true)
}

// SubtreePull squash-merges the remote branch into the request prefix.
func (manager *RepositoryManager) SubtreePull(executionContext context.Context, repositoryPath string, request SubtreeRequest) error {
	return manager.runSubtree(executionContext, repositoryPath, subtreePullOperationConstant, gitSubtreePullSubcommandConstant, request, true)
}

// SubtreePush splits the request prefix history and pushes it to the remote branch.
func (manager *RepositoryManager) SubtreePush(executionContext context.Context, repositoryPath string, request SubtreeRequest) error {
	return manager.runSubtree(executionContext, repositoryPath, subtreePushOperationConstant, gitSubtreePushSubcommandConstant, request, false)
}

func (manager *RepositoryManager) runSubtree(executionContext context.Context, repositoryPath string, operation OperationName, action string, request SubtreeRequest, squash bool) error {
	if len(strings.TrimSpace(request.Prefix)) == 0 {
		return fmt.Errorf(subtreeRequestFieldTemplateConstant, subtreePrefixFieldNameConstant, requiredValueMessageConstant)
	}
	if len(strings.TrimSpace(request.RemoteURL)) == 0 {
		return fmt.Errorf(subtreeRequestFieldTemplateConstant, subtreeRemoteFieldNameConstant, requiredValueMessageConstant)
	}

	arguments := []string{
		gitSubtreeSubcommandConstant,
		action,
		fmt.Sprintf(gitSubtreePrefixFlagTemplateConstant, request.Prefix),
		request.RemoteURL,
		resolveBranch(request.Branch),
	}
	if squash {
		arguments = append(arguments, gitSquashFlagConstant)
		if len(request.Message) > 0 {
			arguments = append(arguments, gitMessageFlagConstant, request.Message)
		}
	}

	if executionError := manager.passthroughGit(executionContext, repositoryPath, arguments...); executionError != nil {
		operationError := newOperationError(operation, repositoryPath, executionError)
		operationError.Kind = classifySubtreeFailure(operationError.Diagnostic)
		return operationError
	}
	return nil
}

func (manager *RepositoryManager) captureGit(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return "", ErrRepositoryPathRequired
	}
	result, executionError := manager.runGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath}, false)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

func (manager *RepositoryManager) passthroughGit(executionContext context.Context, repositoryPath string, arguments ...string) error {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return ErrRepositoryPathRequired
	}
	_, executionError := manager.runGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath}, true)
	return executionError
}

// runGit disables terminal prompts unless output is passed through to the user.
func (manager *RepositoryManager) runGit(executionContext context.Context, details execshell.CommandDetails, passthrough bool) (execshell.ExecutionResult, error) {
	details.PassthroughOutput = passthrough
	if !passthrough {
		if details.EnvironmentVariables == nil {
			details.EnvironmentVariables = map[string]string{}
		}
		details.EnvironmentVariables[gitTerminalPromptEnvironmentNameConstant] = gitTerminalPromptDisabledValueConstant
	}
	return manager.executor.ExecuteGit(executionContext, details)
}

func resolveBranch(branch string) string {
	trimmedBranch := strings.TrimSpace(branch)
	if len(trimmedBranch) == 0 {
		return DefaultBranchName
	}
	return trimmedBranch
}
