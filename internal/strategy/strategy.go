package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/scratch"
)

const (
	syncMessageTemplateConstant          = "📦 SYNC: %s"
	syncMessageSeparatorConstant         = ", "
	versionControlMissingMessageConstant = "strategy version control not configured"
	scratchMissingMessageConstant        = "strategy scratch allocator not configured"
	unsupportedModeTemplateConstant      = "no strategy for mode %q"
	logFieldMappingConstant              = "mapping"
	logFieldPrefixesConstant             = "prefixes"
	logFieldBranchConstant               = "branch"
	logFieldOutcomeConstant              = "outcome"
)

// Outcome describes what a strategy run changed.
type Outcome string

// Outcome enumerations.
const (
	OutcomeSynchronized Outcome = Outcome("synchronized")
	OutcomeUnchanged    Outcome = Outcome("unchanged")
)

var (
	// ErrVersionControlNotConfigured indicates strategies were built without a git adapter.
	ErrVersionControlNotConfigured = errors.New(versionControlMissingMessageConstant)
	// ErrScratchNotConfigured indicates strategies were built without a scratch allocator.
	ErrScratchNotConfigured = errors.New(scratchMissingMessageConstant)
	// ErrSubtreeSinglePrefix is returned by the Subtree strategy for multi-prefix mappings.
	ErrSubtreeSinglePrefix = manifest.ErrSubtreeSinglePrefix
)

// Result summarizes one pull or push of a mapping.
type Result struct {
	MappingName string
	Outcome     Outcome
	// Prefixes lists the local directories that took part in the transfer.
	Prefixes []string
}

// Strategy moves content between a mapping's local prefixes and its remote.
type Strategy interface {
	Pull(executionContext context.Context, mapping manifest.Mapping) (Result, error)
	Push(executionContext context.Context, mapping manifest.Mapping) (Result, error)
}

// VersionControl is the subset of gitrepo.RepositoryManager used by strategies.
type VersionControl interface {
	RepositoryRoot(executionContext context.Context, repositoryPath string) (string, error)
	CurrentStatus(executionContext context.Context, repositoryPath string) (string, error)
	CommitAll(executionContext context.Context, repositoryPath string, message string) error
	PushBranch(executionContext context.Context, repositoryPath string, branch string) error
	CloneShallow(executionContext context.Context, remoteURL string, branch string, destination string) error
	SubtreePull(executionContext context.Context, repositoryPath string, request gitrepo.SubtreeRequest) error
	SubtreePush(executionContext context.Context, repositoryPath string, request gitrepo.SubtreeRequest) error
}

// Dependencies configures the strategies.
type Dependencies struct {
	VersionControl VersionControl
	Scratch        *scratch.Allocator
	Logger         *zap.Logger
	// WorkingDirectory is any directory inside the parent repository.
	WorkingDirectory string
	// RemoteProtocol is the protocol git is invoked with; empty means HTTPS.
	RemoteProtocol gitrepo.RemoteProtocol
	// NativeSubtreePush makes the Subtree strategy push with git subtree push.
	NativeSubtreePush bool
}

// Selector resolves the strategy for a mapping mode.
type Selector struct {
	subtree *Subtree
	copy    *Copy
}

// NewSelector builds both strategies over shared dependencies.
func NewSelector(dependencies Dependencies) (*Selector, error) {
	subtreeStrategy, subtreeError := NewSubtree(dependencies)
	if subtreeError != nil {
		return nil, subtreeError
	}
	copyStrategy, copyError := NewCopy(dependencies)
	if copyError != nil {
		return nil, copyError
	}
	return &Selector{subtree: subtreeStrategy, copy: copyStrategy}, nil
}

// ForMode returns the strategy registered for mode.
func (selector *Selector) ForMode(mode manifest.Mode) (Strategy, error) {
	switch mode {
	case manifest.ModeSubtree:
		return selector.subtree, nil
	case manifest.ModeCopy:
		return selector.copy, nil
	default:
		return nil, fmt.Errorf(unsupportedModeTemplateConstant, mode)
	}
}

// SyncMessage formats the commit message recorded for synchronized prefixes.
func SyncMessage(prefixes []string) string {
	return fmt.Sprintf(syncMessageTemplateConstant, strings.Join(prefixes, syncMessageSeparatorConstant))
}

func validateDependencies(dependencies Dependencies) (Dependencies, error) {
	if dependencies.VersionControl == nil {
		return Dependencies{}, ErrVersionControlNotConfigured
	}
	if dependencies.Scratch == nil {
		return Dependencies{}, ErrScratchNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if len(dependencies.RemoteProtocol) == 0 {
		dependencies.RemoteProtocol = gitrepo.RemoteProtocolHTTPS
	}
	return dependencies, nil
}

func remoteForInvocation(dependencies Dependencies, mapping manifest.Mapping) string {
	return gitrepo.ConvertRemoteURL(mapping.Remote, dependencies.RemoteProtocol)
}

// commitAndPushClone records every change in the clone and pushes it, reporting
// OutcomeUnchanged without committing when the clone is clean.
func commitAndPushClone(executionContext context.Context, dependencies Dependencies, cloneDirectory string, branch string, message string) (Outcome, error) {
	status, statusError := dependencies.VersionControl.CurrentStatus(executionContext, cloneDirectory)
	if statusError != nil {
		return "", statusError
	}
	if len(status) == 0 {
		return OutcomeUnchanged, nil
	}
	if commitError := dependencies.VersionControl.CommitAll(executionContext, cloneDirectory, message); commitError != nil {
		return "", commitError
	}
	if pushError := dependencies.VersionControl.PushBranch(executionContext, cloneDirectory, branch); pushError != nil {
		return "", pushError
	}
	return OutcomeSynchronized, nil
}
