package strategy

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/mirror"
)

const (
	subtreePushScratchPurposeConstant = "push"
	subtreePulledMessageConstant      = "subtree pulled"
	subtreePushedMessageConstant      = "subtree pushed"
)

// Subtree synchronizes a single prefix with git subtree merges on pull and a
// clone-and-mirror push.
type Subtree struct {
	dependencies Dependencies
}

// NewSubtree constructs the Subtree strategy.
func NewSubtree(dependencies Dependencies) (*Subtree, error) {
	validatedDependencies, validationError := validateDependencies(dependencies)
	if validationError != nil {
		return nil, validationError
	}
	return &Subtree{dependencies: validatedDependencies}, nil
}

// Pull squash-merges the remote branch into the prefix.
func (strategy *Subtree) Pull(executionContext context.Context, mapping manifest.Mapping) (Result, error) {
	prefix, prefixError := singlePrefix(mapping)
	if prefixError != nil {
		return Result{}, prefixError
	}

	repositoryRoot, rootError := strategy.dependencies.VersionControl.RepositoryRoot(executionContext, strategy.dependencies.WorkingDirectory)
	if rootError != nil {
		return Result{}, rootError
	}

	request := gitrepo.SubtreeRequest{
		Prefix:    prefix,
		RemoteURL: remoteForInvocation(strategy.dependencies, mapping),
		Branch:    mapping.EffectiveBranch(),
		Message:   SyncMessage([]string{prefix}),
	}
	if pullError := strategy.dependencies.VersionControl.SubtreePull(executionContext, repositoryRoot, request); pullError != nil {
		return Result{}, pullError
	}

	strategy.dependencies.Logger.Debug(subtreePulledMessageConstant, zap.String(logFieldMappingConstant, mapping.Name), zap.String(logFieldBranchConstant, request.Branch))
	return Result{MappingName: mapping.Name, Outcome: OutcomeSynchronized, Prefixes: []string{prefix}}, nil
}

// Push publishes the current contents of the prefix to the remote branch.
// Files ignored by .gitignore are neither sent nor removed from the remote.
func (strategy *Subtree) Push(executionContext context.Context, mapping manifest.Mapping) (Result, error) {
	prefix, prefixError := singlePrefix(mapping)
	if prefixError != nil {
		return Result{}, prefixError
	}

	repositoryRoot, rootError := strategy.dependencies.VersionControl.RepositoryRoot(executionContext, strategy.dependencies.WorkingDirectory)
	if rootError != nil {
		return Result{}, rootError
	}

	remoteURL := remoteForInvocation(strategy.dependencies, mapping)
	branch := mapping.EffectiveBranch()

	if strategy.dependencies.NativeSubtreePush {
		request := gitrepo.SubtreeRequest{Prefix: prefix, RemoteURL: remoteURL, Branch: branch}
		if pushError := strategy.dependencies.VersionControl.SubtreePush(executionContext, repositoryRoot, request); pushError != nil {
			return Result{}, pushError
		}
		return Result{MappingName: mapping.Name, Outcome: OutcomeSynchronized, Prefixes: []string{prefix}}, nil
	}

	var outcome Outcome
	runError := strategy.dependencies.Scratch.Run(subtreePushScratchPurposeConstant, func(cloneDirectory string) error {
		if cloneError := strategy.dependencies.VersionControl.CloneShallow(executionContext, remoteURL, branch, cloneDirectory); cloneError != nil {
			return cloneError
		}

		mirrorOptions := mirror.Options{RespectIgnoreFile: true, DeleteExtraneous: true}
		if mirrorError := mirror.Directories(filepath.Join(repositoryRoot, filepath.FromSlash(prefix)), cloneDirectory, mirrorOptions); mirrorError != nil {
			return mirrorError
		}

		var publishError error
		outcome, publishError = commitAndPushClone(executionContext, strategy.dependencies, cloneDirectory, branch, SyncMessage([]string{prefix}))
		return publishError
	})
	if runError != nil {
		return Result{}, runError
	}

	strategy.dependencies.Logger.Debug(subtreePushedMessageConstant, zap.String(logFieldMappingConstant, mapping.Name), zap.String(logFieldOutcomeConstant, string(outcome)))
	return Result{MappingName: mapping.Name, Outcome: outcome, Prefixes: []string{prefix}}, nil
}

func singlePrefix(mapping manifest.Mapping) (string, error) {
	prefixes := mapping.Prefixes()
	if len(prefixes) != 1 {
		return "", ErrSubtreeSinglePrefix
	}
	return prefixes[0], nil
}
