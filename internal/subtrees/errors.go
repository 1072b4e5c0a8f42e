package subtrees

import (
	"errors"
	"fmt"
)

const (
	notARepositoryMessageConstant            = "not a git repository"
	mappingNotFoundMessageConstant           = "not found"
	mappingAlreadyExistsMessageConstant      = "already tracked"
	messageRequiredMessageConstant           = "commit message required"
	initCancelledMessageConstant             = "initialization cancelled"
	remoteRequiredMessageConstant            = "host CLI disabled; pass --remote with an existing repository URL"
	invalidRepositoryNameMessageConstant     = "repository name may only contain letters, digits, '.', '_' and '-'"
	pathsRequiredMessageConstant             = "at least one path is required"
	mappingNameTemplateConstant              = "%q %w"
	pathNotFoundTemplateConstant             = "path %q does not exist in %s"
	dependencyMissingTemplateConstant        = "subtrees %s not configured"
	repositoryManagerDependencyConstant      = "repository manager"
	manifestStoreDependencyConstant          = "manifest store"
	strategySelectorDependencyConstant       = "strategy selector"
	repositoryHostDependencyConstant         = "repository host"
	prompterDependencyConstant               = "prompter"
	scratchAllocatorDependencyConstant       = "scratch allocator"
	localModificationsHintConstant           = "Commit your changes first: git add -A && git commit -m \"your message\""
	subtreeNotRegisteredHintTemplateConstant = "Subtree not registered. Try: gst rm %s && gst init %s"
)

var (
	// ErrNotARepository indicates the working directory is outside a git working tree.
	ErrNotARepository = errors.New(notARepositoryMessageConstant)
	// ErrMappingNotFound indicates a named mapping is absent from the manifest.
	ErrMappingNotFound = errors.New(mappingNotFoundMessageConstant)
	// ErrMappingAlreadyExists indicates a mapping name is already tracked.
	ErrMappingAlreadyExists = errors.New(mappingAlreadyExistsMessageConstant)
	// ErrMessageRequired indicates a commit was requested without a message.
	ErrMessageRequired = errors.New(messageRequiredMessageConstant)
	// ErrInitCancelled indicates the user declined the initialization plan.
	ErrInitCancelled = errors.New(initCancelledMessageConstant)
	// ErrRemoteRequired indicates init cannot create a repository because the host CLI is disabled.
	ErrRemoteRequired = errors.New(remoteRequiredMessageConstant)
	// ErrInvalidRepositoryName indicates a repository name with unsupported characters.
	ErrInvalidRepositoryName = errors.New(invalidRepositoryNameMessageConstant)
	// ErrPathsRequired indicates init was given no paths.
	ErrPathsRequired = errors.New(pathsRequiredMessageConstant)
)

// PathNotFoundError reports a requested path that is missing from the repository.
type PathNotFoundError struct {
	Path           string
	RepositoryRoot string
}

// Error describes the missing path.
func (pathError PathNotFoundError) Error() string {
	return fmt.Sprintf(pathNotFoundTemplateConstant, pathError.Path, pathError.RepositoryRoot)
}

func mappingNotFound(name string) error {
	return fmt.Errorf(mappingNameTemplateConstant, name, ErrMappingNotFound)
}

func mappingAlreadyExists(name string) error {
	return fmt.Errorf(mappingNameTemplateConstant, name, ErrMappingAlreadyExists)
}

func dependencyMissing(dependencyName string) error {
	return fmt.Errorf(dependencyMissingTemplateConstant, dependencyName)
}
