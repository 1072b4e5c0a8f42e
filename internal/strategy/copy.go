package strategy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/mirror"
	"github.com/temirov/gstree/internal/scratch"
)

const (
	copyPullScratchPurposeConstant     = "pull"
	copyPushScratchPurposeConstant     = "push"
	stagingScratchPurposeConstant      = "incoming"
	backupScratchPurposeConstant       = "previous"
	parentDirectoryPermissionsConstant = 0o755
	replaceErrorTemplateConstant       = "replace %s: %w"
	restoreErrorTemplateConstant       = "replace %s: %w (restoring previous contents failed: %v)"
	removePrefixErrorTemplateConstant  = "clear %s in clone: %w"
	prefixSkippedMessageConstant       = "prefix absent from remote, skipped"
	copyPulledMessageConstant          = "copy mapping pulled"
	copyPushedMessageConstant          = "copy mapping pushed"
	logFieldPrefixConstant             = "prefix"
)

// Copy synchronizes one or more prefixes by copying directories between the
// parent repository and a fresh clone of the remote.
type Copy struct {
	dependencies Dependencies
}

// NewCopy constructs the Copy strategy.
func NewCopy(dependencies Dependencies) (*Copy, error) {
	validatedDependencies, validationError := validateDependencies(dependencies)
	if validationError != nil {
		return nil, validationError
	}
	return &Copy{dependencies: validatedDependencies}, nil
}

// Pull replaces every local prefix that exists in the remote with the remote copy.
// Prefixes the remote does not contain are left untouched.
func (strategy *Copy) Pull(executionContext context.Context, mapping manifest.Mapping) (Result, error) {
	repositoryRoot, rootError := strategy.dependencies.VersionControl.RepositoryRoot(executionContext, strategy.dependencies.WorkingDirectory)
	if rootError != nil {
		return Result{}, rootError
	}

	transferredPrefixes := make([]string, 0)
	runError := strategy.dependencies.Scratch.Run(copyPullScratchPurposeConstant, func(cloneDirectory string) error {
		if cloneError := strategy.dependencies.VersionControl.CloneShallow(executionContext, remoteForInvocation(strategy.dependencies, mapping), mapping.EffectiveBranch(), cloneDirectory); cloneError != nil {
			return cloneError
		}

		for _, prefix := range mapping.Prefixes() {
			sourceDirectory := filepath.Join(cloneDirectory, filepath.FromSlash(prefix))
			if !directoryExists(sourceDirectory) {
				strategy.dependencies.Logger.Debug(prefixSkippedMessageConstant, zap.String(logFieldMappingConstant, mapping.Name), zap.String(logFieldPrefixConstant, prefix))
				continue
			}
			if replaceError := strategy.replaceDirectory(sourceDirectory, filepath.Join(repositoryRoot, filepath.FromSlash(prefix))); replaceError != nil {
				return replaceError
			}
			transferredPrefixes = append(transferredPrefixes, prefix)
		}
		return nil
	})
	if runError != nil {
		return Result{}, runError
	}

	outcome := OutcomeSynchronized
	if len(transferredPrefixes) == 0 {
		outcome = OutcomeUnchanged
	}
	strategy.dependencies.Logger.Debug(copyPulledMessageConstant, zap.String(logFieldMappingConstant, mapping.Name), zap.Strings(logFieldPrefixesConstant, transferredPrefixes))
	return Result{MappingName: mapping.Name, Outcome: outcome, Prefixes: transferredPrefixes}, nil
}

// Push makes the remote copy of every prefix match the local directory and
// records all differences as a single commit. A prefix missing locally is
// removed from the remote.
func (strategy *Copy) Push(executionContext context.Context, mapping manifest.Mapping) (Result, error) {
	repositoryRoot, rootError := strategy.dependencies.VersionControl.RepositoryRoot(executionContext, strategy.dependencies.WorkingDirectory)
	if rootError != nil {
		return Result{}, rootError
	}

	prefixes := mapping.Prefixes()
	branch := mapping.EffectiveBranch()

	var outcome Outcome
	runError := strategy.dependencies.Scratch.Run(copyPushScratchPurposeConstant, func(cloneDirectory string) error {
		if cloneError := strategy.dependencies.VersionControl.CloneShallow(executionContext, remoteForInvocation(strategy.dependencies, mapping), branch, cloneDirectory); cloneError != nil {
			return cloneError
		}

		for _, prefix := range prefixes {
			clonePrefixDirectory := filepath.Join(cloneDirectory, filepath.FromSlash(prefix))
			if removeError := os.RemoveAll(clonePrefixDirectory); removeError != nil {
				return fmt.Errorf(removePrefixErrorTemplateConstant, prefix, removeError)
			}
		}

		for _, prefix := range prefixes {
			localDirectory := filepath.Join(repositoryRoot, filepath.FromSlash(prefix))
			if !directoryExists(localDirectory) {
				continue
			}
			mirrorOptions := mirror.Options{RespectIgnoreFile: true}
			if mirrorError := mirror.Directories(localDirectory, filepath.Join(cloneDirectory, filepath.FromSlash(prefix)), mirrorOptions); mirrorError != nil {
				return mirrorError
			}
		}

		var publishError error
		outcome, publishError = commitAndPushClone(executionContext, strategy.dependencies, cloneDirectory, branch, SyncMessage(prefixes))
		return publishError
	})
	if runError != nil {
		return Result{}, runError
	}

	strategy.dependencies.Logger.Debug(copyPushedMessageConstant, zap.String(logFieldMappingConstant, mapping.Name), zap.String(logFieldOutcomeConstant, string(outcome)))
	return Result{MappingName: mapping.Name, Outcome: outcome, Prefixes: prefixes}, nil
}

// replaceDirectory swaps destinationDirectory for a copy of sourceDirectory.
// The copy is staged next to the destination first, so a failed copy leaves
// the destination untouched and a failed swap restores it.
func (strategy *Copy) replaceDirectory(sourceDirectory string, destinationDirectory string) error {
	parentDirectory := filepath.Dir(destinationDirectory)
	if createError := os.MkdirAll(parentDirectory, parentDirectoryPermissionsConstant); createError != nil {
		return fmt.Errorf(replaceErrorTemplateConstant, destinationDirectory, createError)
	}

	siblingAllocator := scratch.NewAllocator(parentDirectory, strategy.dependencies.Logger)

	stagingDirectory, stagingError := siblingAllocator.Acquire(stagingScratchPurposeConstant)
	if stagingError != nil {
		return fmt.Errorf(replaceErrorTemplateConstant, destinationDirectory, stagingError)
	}
	defer stagingDirectory.Release()

	stagedPath := filepath.Join(stagingDirectory.Path, filepath.Base(destinationDirectory))
	if mirrorError := mirror.Directories(sourceDirectory, stagedPath, mirror.Options{}); mirrorError != nil {
		return fmt.Errorf(replaceErrorTemplateConstant, destinationDirectory, mirrorError)
	}
	if chmodError := os.Chmod(stagedPath, replacementPermissions(sourceDirectory, destinationDirectory)); chmodError != nil {
		return fmt.Errorf(replaceErrorTemplateConstant, destinationDirectory, chmodError)
	}

	if !pathExists(destinationDirectory) {
		if renameError := os.Rename(stagedPath, destinationDirectory); renameError != nil {
			return fmt.Errorf(replaceErrorTemplateConstant, destinationDirectory, renameError)
		}
		return nil
	}

	backupHolder, backupError := siblingAllocator.Acquire(backupScratchPurposeConstant)
	if backupError != nil {
		return fmt.Errorf(replaceErrorTemplateConstant, destinationDirectory, backupError)
	}
	defer backupHolder.Release()

	backupPath := filepath.Join(backupHolder.Path, filepath.Base(destinationDirectory))
	if renameError := os.Rename(destinationDirectory, backupPath); renameError != nil {
		return fmt.Errorf(replaceErrorTemplateConstant, destinationDirectory, renameError)
	}
	if renameError := os.Rename(stagedPath, destinationDirectory); renameError != nil {
		if restoreError := os.Rename(backupPath, destinationDirectory); restoreError != nil {
			return fmt.Errorf(restoreErrorTemplateConstant, destinationDirectory, renameError, restoreError)
		}
		return fmt.Errorf(replaceErrorTemplateConstant, destinationDirectory, renameError)
	}
	return nil
}

// replacementPermissions keeps the mode of the directory being replaced, or
// takes the incoming directory's mode when there is nothing to replace.
func replacementPermissions(sourceDirectory string, destinationDirectory string) fs.FileMode {
	for _, candidate := range []string{destinationDirectory, sourceDirectory} {
		if info, statError := os.Stat(candidate); statError == nil && info.IsDir() {
			return info.Mode().Perm()
		}
	}
	return parentDirectoryPermissionsConstant
}

func directoryExists(directoryPath string) bool {
	info, statError := os.Stat(directoryPath)
	return statError == nil && info.IsDir()
}

func pathExists(entryPath string) bool {
	_, statError := os.Lstat(entryPath)
	return !errors.Is(statError, fs.ErrNotExist)
}
