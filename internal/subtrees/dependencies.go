package subtrees

import (
	"context"

	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/strategy"
)

// RepositoryManager exposes the git operations run against the parent repository
// and the scratch repositories created during init.
type RepositoryManager interface {
	IsRepository(executionContext context.Context, repositoryPath string) (bool, error)
	RepositoryRoot(executionContext context.Context, repositoryPath string) (string, error)
	CurrentStatus(executionContext context.Context, repositoryPath string) (string, error)
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	CommitAll(executionContext context.Context, repositoryPath string, message string) error
	Push(executionContext context.Context, repositoryPath string) error
	Pull(executionContext context.Context, repositoryPath string) error
	SubtreeAdd(executionContext context.Context, repositoryPath string, request gitrepo.SubtreeRequest) error
	InitializeRepository(executionContext context.Context, repositoryPath string) error
	RenameBranch(executionContext context.Context, repositoryPath string, branch string) error
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	PushUpstream(executionContext context.Context, repositoryPath string, remoteName string, branch string) error
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
}

// ManifestStore persists mappings.
type ManifestStore interface {
	Load() manifest.Manifest
	Find(name string) (manifest.Mapping, bool)
	Upsert(mapping manifest.Mapping) error
	Delete(name string) (bool, error)
	UseHostCLI() bool
}

// StrategySelector resolves the synchronization strategy of a mapping mode.
type StrategySelector interface {
	ForMode(mode manifest.Mode) (strategy.Strategy, error)
}

// RepositoryHost creates and describes remote repositories.
type RepositoryHost interface {
	EnsureAvailableAndAuthenticated(executionContext context.Context) error
	CurrentUser(executionContext context.Context) (string, error)
	Organizations(executionContext context.Context) []string
	CreateRepository(executionContext context.Context, owner string, name string, private bool) error
	DefaultVisibilityIsPrivate(executionContext context.Context, workingDirectory string) bool
}

// ScratchRunner provides temporary directories that are removed after use.
type ScratchRunner interface {
	Run(purpose string, action func(directoryPath string) error) error
}

// OwnerOption is an account a new repository can be created under.
type OwnerOption struct {
	Login    string
	Personal bool
}

// Prompter collects the interactive choices of gst init.
type Prompter interface {
	// Paths asks for comma separated paths; validate rejects unusable input.
	Paths(validate func(input string) error) (string, error)
	RepositoryName(suggested string, validate func(input string) error) (string, error)
	SelectOwner(options []OwnerOption, initial string) (string, error)
	ConfirmPlan(plan InitPlan) (bool, error)
}
