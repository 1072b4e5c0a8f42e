package subtrees

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gstree/internal/githubcli"
	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/mirror"
)

const (
	pathListSeparatorConstant            = ","
	repositoryNamePartSeparatorConstant  = "-"
	pathSeparatorConstant                = "/"
	initialCommitMessageConstant         = "📦 NEW: initial commit"
	subtreeCommitMessageTemplateConstant = "📦 NEW: %s subtree"
	initScratchPurposeConstant           = "init"
	webURLTemplateConstant               = "https://%s/%s/%s"
	creatingRepositoryMessageConstant    = "creating remote repository"
	publishingMessageConstant            = "publishing initial commit"
	registeringSubtreeMessageConstant    = "registering subtree"
	mappingInitializedMessageConstant    = "mapping initialized"
	logFieldOwnerConstant                = "owner"
	logFieldRepositoryConstant           = "repository"
	logFieldModeConstant                 = "mode"
)

var repositoryNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Visibility selects the visibility of a repository created by init.
type Visibility string

// Visibility enumerations. VisibilityDefault mirrors the parent repository.
const (
	VisibilityDefault Visibility = Visibility("")
	VisibilityPrivate Visibility = Visibility("private")
	VisibilityPublic  Visibility = Visibility("public")
)

// InitRequest describes a new mapping to publish.
type InitRequest struct {
	// Paths are repository relative directories; empty prompts for them.
	Paths          []string
	Branch         string
	Mode           manifest.Mode
	Owner          string
	RepositoryName string
	Visibility     Visibility
	// RemoteURL publishes to an existing empty repository instead of creating one.
	RemoteURL string
}

// InitPlan is the summary confirmed by the user before anything is created.
type InitPlan struct {
	Owner            string
	RepositoryName   string
	Private          bool
	Mode             manifest.Mode
	Paths            []string
	RemoteURL        string
	Branch           string
	CreateRepository bool
}

// InitResult describes the mapping created by Initialize.
type InitResult struct {
	Mapping manifest.Mapping
	// WebURL links to the published repository when it can be derived from the remote.
	WebURL string
}

// InitializerDependencies configures an Initializer.
type InitializerDependencies struct {
	Repositories     RepositoryManager
	Store            ManifestStore
	Host             RepositoryHost
	Prompter         Prompter
	Scratch          ScratchRunner
	Logger           *zap.Logger
	WorkingDirectory string
	DefaultBranch    string
	DefaultMode      manifest.Mode
	RemoteProtocol   gitrepo.RemoteProtocol
}

// Initializer publishes local directories as a new remote repository and tracks them.
type Initializer struct {
	dependencies InitializerDependencies
}

// NewInitializer validates dependencies and constructs an Initializer.
func NewInitializer(dependencies InitializerDependencies) (*Initializer, error) {
	switch {
	case dependencies.Repositories == nil:
		return nil, dependencyMissing(repositoryManagerDependencyConstant)
	case dependencies.Store == nil:
		return nil, dependencyMissing(manifestStoreDependencyConstant)
	case dependencies.Host == nil:
		return nil, dependencyMissing(repositoryHostDependencyConstant)
	case dependencies.Prompter == nil:
		return nil, dependencyMissing(prompterDependencyConstant)
	case dependencies.Scratch == nil:
		return nil, dependencyMissing(scratchAllocatorDependencyConstant)
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if len(strings.TrimSpace(dependencies.DefaultBranch)) == 0 {
		dependencies.DefaultBranch = manifest.DefaultBranchName
	}
	if len(dependencies.DefaultMode) == 0 {
		dependencies.DefaultMode = manifest.ModeCopy
	}
	if len(dependencies.RemoteProtocol) == 0 {
		dependencies.RemoteProtocol = gitrepo.RemoteProtocolHTTPS
	}
	return &Initializer{dependencies: dependencies}, nil
}

// Initialize validates the request, confirms the plan, creates the remote,
// publishes the directories as its initial commit, and records the mapping.
// Every validation runs before the remote is created.
func (initializer *Initializer) Initialize(executionContext context.Context, request InitRequest) (InitResult, error) {
	repositories := initializer.dependencies.Repositories
	repositoryRoot, rootError := ensureRepository(executionContext, repositories, initializer.dependencies.WorkingDirectory)
	if rootError != nil {
		return InitResult{}, rootError
	}

	explicitRemote := strings.TrimSpace(request.RemoteURL)
	if len(explicitRemote) == 0 {
		if !initializer.dependencies.Store.UseHostCLI() {
			return InitResult{}, ErrRemoteRequired
		}
		if hostError := initializer.dependencies.Host.EnsureAvailableAndAuthenticated(executionContext); hostError != nil {
			return InitResult{}, hostError
		}
	}

	paths, pathsError := initializer.resolvePaths(repositoryRoot, request.Paths)
	if pathsError != nil {
		return InitResult{}, pathsError
	}

	mode := request.Mode
	if len(mode) == 0 {
		mode = initializer.dependencies.DefaultMode
	}
	if mode == manifest.ModeSubtree && len(paths) > 1 {
		return InitResult{}, manifest.ErrSubtreeSinglePrefix
	}

	repositoryName, nameError := initializer.resolveRepositoryName(repositoryRoot, paths, request.RepositoryName)
	if nameError != nil {
		return InitResult{}, nameError
	}

	mappingName := MappingNameForPaths(paths)
	if _, exists := initializer.dependencies.Store.Find(mappingName); exists {
		return InitResult{}, mappingAlreadyExists(mappingName)
	}

	branch := strings.TrimSpace(request.Branch)
	if len(branch) == 0 {
		branch = initializer.dependencies.DefaultBranch
	}

	plan := InitPlan{RepositoryName: repositoryName, Mode: mode, Paths: paths, Branch: branch}
	if len(explicitRemote) > 0 {
		plan.RemoteURL = explicitRemote
		plan.Owner = gitrepo.OwnerFromRemote(explicitRemote)
	} else if hostError := initializer.planHostRepository(executionContext, repositoryRoot, request, &plan); hostError != nil {
		return InitResult{}, hostError
	}

	confirmed, confirmError := initializer.dependencies.Prompter.ConfirmPlan(plan)
	if confirmError != nil {
		return InitResult{}, confirmError
	}
	if !confirmed {
		return InitResult{}, ErrInitCancelled
	}

	if plan.CreateRepository {
		initializer.dependencies.Logger.Info(creatingRepositoryMessageConstant, zap.String(logFieldOwnerConstant, plan.Owner), zap.String(logFieldRepositoryConstant, plan.RepositoryName))
		if createError := initializer.dependencies.Host.CreateRepository(executionContext, plan.Owner, plan.RepositoryName, plan.Private); createError != nil {
			return InitResult{}, createError
		}
	}

	invocationRemote := gitrepo.ConvertRemoteURL(plan.RemoteURL, initializer.dependencies.RemoteProtocol)
	storedRemote := plan.RemoteURL
	if plan.CreateRepository {
		storedRemote = invocationRemote
	}
	mapping := manifest.Mapping{Name: mappingName, Remote: storedRemote, Prefix: paths[0], Branch: branch, Mode: mode}

	var stageError error
	if mode == manifest.ModeSubtree {
		stageError = initializer.stageSubtree(executionContext, repositoryRoot, mapping, invocationRemote)
	} else {
		mapping.PrefixList = paths
		stageError = initializer.stageCopy(executionContext, repositoryRoot, paths, invocationRemote, branch)
	}
	if stageError != nil {
		return InitResult{}, stageError
	}

	if upsertError := initializer.dependencies.Store.Upsert(mapping); upsertError != nil {
		return InitResult{}, upsertError
	}

	initializer.dependencies.Logger.Info(mappingInitializedMessageConstant, zap.String(logFieldMappingConstant, mapping.Name), zap.String(logFieldModeConstant, string(mode)), zap.String(logFieldRemoteConstant, mapping.Remote))
	return InitResult{Mapping: mapping, WebURL: webURL(plan.RemoteURL)}, nil
}

// MappingNameForPaths joins the final element of each path with dashes.
func MappingNameForPaths(paths []string) string {
	baseNames := make([]string, 0, len(paths))
	for _, prefix := range paths {
		baseNames = append(baseNames, path.Base(prefix))
	}
	return strings.Join(baseNames, repositoryNamePartSeparatorConstant)
}

// RepositoryNameForPaths prefixes the dash separated paths with the repository directory name.
func RepositoryNameForPaths(repositoryRoot string, paths []string) string {
	flattenedPaths := make([]string, 0, len(paths))
	for _, prefix := range paths {
		flattenedPaths = append(flattenedPaths, strings.ReplaceAll(prefix, pathSeparatorConstant, repositoryNamePartSeparatorConstant))
	}
	return filepath.Base(repositoryRoot) + repositoryNamePartSeparatorConstant + strings.Join(flattenedPaths, repositoryNamePartSeparatorConstant)
}

// ValidateRepositoryName rejects names GitHub would not accept.
func ValidateRepositoryName(name string) error {
	if !repositoryNamePattern.MatchString(name) {
		return ErrInvalidRepositoryName
	}
	return nil
}

func (initializer *Initializer) resolvePaths(repositoryRoot string, requested []string) ([]string, error) {
	validatePaths := func(input string) error {
		_, validationError := existingPaths(repositoryRoot, splitPathList(input))
		return validationError
	}

	if len(requested) == 0 {
		input, promptError := initializer.dependencies.Prompter.Paths(validatePaths)
		if promptError != nil {
			return nil, promptError
		}
		requested = splitPathList(input)
	}
	return existingPaths(repositoryRoot, requested)
}

func (initializer *Initializer) resolveRepositoryName(repositoryRoot string, paths []string, requested string) (string, error) {
	name := strings.TrimSpace(requested)
	if len(name) == 0 {
		promptedName, promptError := initializer.dependencies.Prompter.RepositoryName(RepositoryNameForPaths(repositoryRoot, paths), ValidateRepositoryName)
		if promptError != nil {
			return "", promptError
		}
		name = strings.TrimSpace(promptedName)
	}
	if validationError := ValidateRepositoryName(name); validationError != nil {
		return "", validationError
	}
	return name, nil
}

// planHostRepository resolves owner and visibility of the repository to create.
func (initializer *Initializer) planHostRepository(executionContext context.Context, repositoryRoot string, request InitRequest, plan *InitPlan) error {
	host := initializer.dependencies.Host
	owner := strings.TrimSpace(request.Owner)
	if len(owner) == 0 {
		user, userError := host.CurrentUser(executionContext)
		if userError != nil {
			return userError
		}
		options := []OwnerOption{{Login: user, Personal: true}}
		for _, organization := range host.Organizations(executionContext) {
			options = append(options, OwnerOption{Login: organization})
		}

		selectedOwner, selectError := initializer.dependencies.Prompter.SelectOwner(options, initializer.ownerHint(executionContext, repositoryRoot, options, user))
		if selectError != nil {
			return selectError
		}
		owner = selectedOwner
	}

	switch request.Visibility {
	case VisibilityPrivate:
		plan.Private = true
	case VisibilityPublic:
		plan.Private = false
	default:
		plan.Private = host.DefaultVisibilityIsPrivate(executionContext, repositoryRoot)
	}

	plan.Owner = owner
	plan.CreateRepository = true
	plan.RemoteURL = githubcli.HTTPSURL(owner, plan.RepositoryName)
	return nil
}

// ownerHint prefers the owner of the origin remote when it is one of the options.
func (initializer *Initializer) ownerHint(executionContext context.Context, repositoryRoot string, options []OwnerOption, fallback string) string {
	originURL, originError := initializer.dependencies.Repositories.GetRemoteURL(executionContext, repositoryRoot, gitrepo.OriginRemoteName)
	if originError != nil {
		return fallback
	}
	originOwner := gitrepo.OwnerFromRemote(originURL)
	for _, option := range options {
		if option.Login == originOwner {
			return originOwner
		}
	}
	return fallback
}

func (initializer *Initializer) stageCopy(executionContext context.Context, repositoryRoot string, paths []string, remoteURL string, branch string) error {
	return initializer.dependencies.Scratch.Run(initScratchPurposeConstant, func(scratchDirectory string) error {
		for _, prefix := range paths {
			mirrorOptions := mirror.Options{RespectIgnoreFile: true}
			if mirrorError := mirror.Directories(filepath.Join(repositoryRoot, filepath.FromSlash(prefix)), filepath.Join(scratchDirectory, filepath.FromSlash(prefix)), mirrorOptions); mirrorError != nil {
				return mirrorError
			}
		}
		return initializer.publishInitialCommit(executionContext, scratchDirectory, remoteURL, branch)
	})
}

// stageSubtree publishes the prefix, replaces the local directory with a
// subtree import of the new remote, and commits the removal first so git
// subtree add sees a clean tree.
func (initializer *Initializer) stageSubtree(executionContext context.Context, repositoryRoot string, mapping manifest.Mapping, remoteURL string) error {
	prefixDirectory := filepath.Join(repositoryRoot, filepath.FromSlash(mapping.Prefix))

	publishError := initializer.dependencies.Scratch.Run(initScratchPurposeConstant, func(scratchDirectory string) error {
		if mirrorError := mirror.Directories(prefixDirectory, scratchDirectory, mirror.Options{RespectIgnoreFile: true}); mirrorError != nil {
			return mirrorError
		}
		return initializer.publishInitialCommit(executionContext, scratchDirectory, remoteURL, mapping.Branch)
	})
	if publishError != nil {
		return publishError
	}

	initializer.dependencies.Logger.Info(registeringSubtreeMessageConstant, zap.String(logFieldPrefixConstant, mapping.Prefix))
	repositories := initializer.dependencies.Repositories
	if removeError := os.RemoveAll(prefixDirectory); removeError != nil {
		return removeError
	}

	changes, statusError := repositories.CurrentStatus(executionContext, repositoryRoot)
	if statusError != nil {
		return statusError
	}
	if len(changes) > 0 {
		if commitError := repositories.CommitAll(executionContext, repositoryRoot, subtreeCommitMessage(mapping.Name)); commitError != nil {
			return commitError
		}
	}

	subtreeRequest := gitrepo.SubtreeRequest{Prefix: mapping.Prefix, RemoteURL: remoteURL, Branch: mapping.Branch}
	return repositories.SubtreeAdd(executionContext, repositoryRoot, subtreeRequest)
}

func (initializer *Initializer) publishInitialCommit(executionContext context.Context, scratchDirectory string, remoteURL string, branch string) error {
	initializer.dependencies.Logger.Info(publishingMessageConstant, zap.String(logFieldRemoteConstant, remoteURL))
	repositories := initializer.dependencies.Repositories
	if initError := repositories.InitializeRepository(executionContext, scratchDirectory); initError != nil {
		return initError
	}
	if commitError := repositories.CommitAll(executionContext, scratchDirectory, initialCommitMessageConstant); commitError != nil {
		return commitError
	}
	if renameError := repositories.RenameBranch(executionContext, scratchDirectory, branch); renameError != nil {
		return renameError
	}
	if remoteError := repositories.AddRemote(executionContext, scratchDirectory, gitrepo.OriginRemoteName, remoteURL); remoteError != nil {
		return remoteError
	}
	return repositories.PushUpstream(executionContext, scratchDirectory, gitrepo.OriginRemoteName, branch)
}

func splitPathList(input string) []string {
	paths := make([]string, 0)
	for _, segment := range strings.Split(input, pathListSeparatorConstant) {
		if trimmedSegment := strings.TrimSpace(segment); len(trimmedSegment) > 0 {
			paths = append(paths, trimmedSegment)
		}
	}
	return paths
}

// existingPaths normalizes requested paths and requires each to be a directory under repositoryRoot.
func existingPaths(repositoryRoot string, requested []string) ([]string, error) {
	paths := make([]string, 0, len(requested))
	for _, requestedPath := range requested {
		for _, segment := range splitPathList(requestedPath) {
			normalizedPath := manifest.NormalizePrefix(segment)
			if len(normalizedPath) == 0 {
				return nil, PathNotFoundError{Path: segment, RepositoryRoot: repositoryRoot}
			}
			info, statError := os.Stat(filepath.Join(repositoryRoot, filepath.FromSlash(normalizedPath)))
			if statError != nil || !info.IsDir() {
				return nil, PathNotFoundError{Path: normalizedPath, RepositoryRoot: repositoryRoot}
			}
			paths = append(paths, normalizedPath)
		}
	}
	if len(paths) == 0 {
		return nil, ErrPathsRequired
	}
	return paths, nil
}

func subtreeCommitMessage(mappingName string) string {
	return fmt.Sprintf(subtreeCommitMessageTemplateConstant, mappingName)
}

func webURL(remoteURL string) string {
	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil {
		return ""
	}
	return fmt.Sprintf(webURLTemplateConstant, parsedRemote.Host, parsedRemote.Owner, parsedRemote.Repository)
}
