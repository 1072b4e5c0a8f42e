package subtrees

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/strategy"
)

const (
	removeDirectoryErrorTemplateConstant = "delete %s: %w"
	mappingFailedMessageConstant         = "mapping operation failed"
	mainRepositorySkippedMessageConstant = "main repository step skipped"
	mappingRemovedMessageConstant        = "mapping removed"
	mappingAddedMessageConstant          = "mapping added"
	logFieldMappingConstant              = "mapping"
	logFieldOperationConstant            = "operation"
	logFieldDirectoryConstant            = "directory"
	logFieldPrefixConstant               = "prefix"
	logFieldRemoteConstant               = "remote"
)

// ServiceDependencies configures a Service.
type ServiceDependencies struct {
	Repositories RepositoryManager
	Store        ManifestStore
	Selector     StrategySelector
	Logger       *zap.Logger
	// WorkingDirectory is the directory gst was invoked from.
	WorkingDirectory string
	// RemoteProtocol is the protocol git is invoked with by Add; empty means HTTPS.
	RemoteProtocol gitrepo.RemoteProtocol
}

// Service runs the day to day gst commands against the manifest mappings.
type Service struct {
	repositories     RepositoryManager
	store            ManifestStore
	selector         StrategySelector
	logger           *zap.Logger
	workingDirectory string
	remoteProtocol   gitrepo.RemoteProtocol
}

// StatusSummary describes the parent repository and its mappings.
type StatusSummary struct {
	Branch   string
	Changes  string
	Mappings []manifest.Mapping
}

// AddRequest registers an existing remote as a subtree.
type AddRequest struct {
	Name   string
	Remote string
	Prefix string
	Branch string
}

// RemoveResult reports what Remove deleted.
type RemoveResult struct {
	Mapping            manifest.Mapping
	DeletedDirectories []string
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Repositories == nil {
		return nil, dependencyMissing(repositoryManagerDependencyConstant)
	}
	if dependencies.Store == nil {
		return nil, dependencyMissing(manifestStoreDependencyConstant)
	}
	if dependencies.Selector == nil {
		return nil, dependencyMissing(strategySelectorDependencyConstant)
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	remoteProtocol := dependencies.RemoteProtocol
	if len(remoteProtocol) == 0 {
		remoteProtocol = gitrepo.RemoteProtocolHTTPS
	}
	return &Service{
		repositories:     dependencies.Repositories,
		store:            dependencies.Store,
		selector:         dependencies.Selector,
		logger:           logger,
		workingDirectory: dependencies.WorkingDirectory,
		remoteProtocol:   remoteProtocol,
	}, nil
}

// Pull pulls the named mapping, or every mapping in manifest order when name is empty.
// Bulk pulls continue past failures and record them in the report; a failure of
// a single named mapping is also returned as the error.
func (service *Service) Pull(executionContext context.Context, name string) (Report, error) {
	return service.transfer(executionContext, name, OperationPull)
}

// Push pushes the named mapping, or every mapping in manifest order when name is empty.
func (service *Service) Push(executionContext context.Context, name string) (Report, error) {
	return service.transfer(executionContext, name, OperationPush)
}

// Sync pulls the main repository and every mapping, then pushes the main
// repository and every mapping. Item failures are recorded, never returned.
func (service *Service) Sync(executionContext context.Context) (Report, error) {
	repositoryRoot, rootError := service.requireRepository(executionContext)
	if rootError != nil {
		return Report{}, rootError
	}

	mappings := service.store.Load().Subtrees
	report := Report{}

	report.add(service.mainRepositoryStep(OperationPull, service.repositories.Pull(executionContext, repositoryRoot)))
	for _, mapping := range mappings {
		report.add(service.runMapping(executionContext, mapping, OperationPull))
	}

	report.add(service.mainRepositoryStep(OperationPush, service.repositories.Push(executionContext, repositoryRoot)))
	for _, mapping := range mappings {
		report.add(service.runMapping(executionContext, mapping, OperationPush))
	}
	return report, nil
}

// Save commits pending changes with message, then pushes the main repository and every mapping.
// A dirty working tree requires a message; a failed commit stops the save.
func (service *Service) Save(executionContext context.Context, message string) (Report, error) {
	repositoryRoot, rootError := service.requireRepository(executionContext)
	if rootError != nil {
		return Report{}, rootError
	}

	report := Report{}
	commitEntry, commitError := service.commitPending(executionContext, repositoryRoot, message)
	if commitError != nil {
		return report, commitError
	}
	report.add(commitEntry)

	report.add(service.mainRepositoryStep(OperationPush, service.repositories.Push(executionContext, repositoryRoot)))
	for _, mapping := range service.store.Load().Subtrees {
		report.add(service.runMapping(executionContext, mapping, OperationPush))
	}
	return report, nil
}

// Commit stages and commits every change in the parent repository.
func (service *Service) Commit(executionContext context.Context, message string) (Entry, error) {
	if len(strings.TrimSpace(message)) == 0 {
		return Entry{}, ErrMessageRequired
	}
	repositoryRoot, rootError := service.requireRepository(executionContext)
	if rootError != nil {
		return Entry{}, rootError
	}
	return service.commitPending(executionContext, repositoryRoot, message)
}

// Status reports the current branch, pending changes, and tracked mappings.
func (service *Service) Status(executionContext context.Context) (StatusSummary, error) {
	repositoryRoot, rootError := service.requireRepository(executionContext)
	if rootError != nil {
		return StatusSummary{}, rootError
	}

	branch, branchError := service.repositories.CurrentBranch(executionContext, repositoryRoot)
	if branchError != nil {
		return StatusSummary{}, branchError
	}
	changes, statusError := service.repositories.CurrentStatus(executionContext, repositoryRoot)
	if statusError != nil {
		return StatusSummary{}, statusError
	}
	return StatusSummary{Branch: branch, Changes: changes, Mappings: service.store.Load().Subtrees}, nil
}

// List returns the tracked mappings in manifest order.
func (service *Service) List(executionContext context.Context) ([]manifest.Mapping, error) {
	if _, rootError := service.requireRepository(executionContext); rootError != nil {
		return nil, rootError
	}
	return service.store.Load().Subtrees, nil
}

// Remove stops tracking the named mapping, optionally deleting its local directories first.
func (service *Service) Remove(executionContext context.Context, name string, deleteDirectories bool) (RemoveResult, error) {
	repositoryRoot, rootError := service.requireRepository(executionContext)
	if rootError != nil {
		return RemoveResult{}, rootError
	}

	mapping, found := service.store.Find(name)
	if !found {
		return RemoveResult{}, mappingNotFound(name)
	}

	result := RemoveResult{Mapping: mapping, DeletedDirectories: []string{}}
	if deleteDirectories {
		for _, prefix := range mapping.Prefixes() {
			directoryPath := filepath.Join(repositoryRoot, filepath.FromSlash(prefix))
			if _, statError := os.Stat(directoryPath); statError != nil {
				continue
			}
			if removeError := os.RemoveAll(directoryPath); removeError != nil {
				return result, fmt.Errorf(removeDirectoryErrorTemplateConstant, prefix, removeError)
			}
			result.DeletedDirectories = append(result.DeletedDirectories, prefix)
		}
	}

	if _, deleteError := service.store.Delete(name); deleteError != nil {
		return result, deleteError
	}
	service.logger.Info(mappingRemovedMessageConstant, zap.String(logFieldMappingConstant, name), zap.Strings(logFieldDirectoryConstant, result.DeletedDirectories))
	return result, nil
}

// Add imports an existing remote under a prefix with git subtree and tracks it.
// An already tracked name is rejected before git runs.
func (service *Service) Add(executionContext context.Context, request AddRequest) (manifest.Mapping, error) {
	repositoryRoot, rootError := service.requireRepository(executionContext)
	if rootError != nil {
		return manifest.Mapping{}, rootError
	}

	mapping := manifest.Mapping{
		Name:   strings.TrimSpace(request.Name),
		Remote: strings.TrimSpace(request.Remote),
		Prefix: manifest.NormalizePrefix(request.Prefix),
		Branch: strings.TrimSpace(request.Branch),
		Mode:   manifest.ModeSubtree,
	}
	if len(mapping.Branch) == 0 {
		mapping.Branch = manifest.DefaultBranchName
	}
	if validationError := mapping.Validate(); validationError != nil {
		return manifest.Mapping{}, validationError
	}
	if _, exists := service.store.Find(mapping.Name); exists {
		return manifest.Mapping{}, mappingAlreadyExists(mapping.Name)
	}

	subtreeRequest := gitrepo.SubtreeRequest{
		Prefix:    mapping.Prefix,
		RemoteURL: gitrepo.ConvertRemoteURL(mapping.Remote, service.remoteProtocol),
		Branch:    mapping.Branch,
	}
	if addError := service.repositories.SubtreeAdd(executionContext, repositoryRoot, subtreeRequest); addError != nil {
		return manifest.Mapping{}, addError
	}

	if upsertError := service.store.Upsert(mapping); upsertError != nil {
		return manifest.Mapping{}, upsertError
	}
	service.logger.Info(mappingAddedMessageConstant, zap.String(logFieldMappingConstant, mapping.Name), zap.String(logFieldPrefixConstant, mapping.Prefix), zap.String(logFieldRemoteConstant, mapping.Remote))
	return mapping, nil
}

func (service *Service) transfer(executionContext context.Context, name string, operation OperationKind) (Report, error) {
	if _, rootError := service.requireRepository(executionContext); rootError != nil {
		return Report{}, rootError
	}

	report := Report{}
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		for _, mapping := range service.store.Load().Subtrees {
			report.add(service.runMapping(executionContext, mapping, operation))
		}
		return report, nil
	}

	mapping, found := service.store.Find(trimmedName)
	if !found {
		return report, mappingNotFound(trimmedName)
	}
	entry := service.runMapping(executionContext, mapping, operation)
	report.add(entry)
	if entry.Status == StatusFailed {
		return report, entry.Error
	}
	return report, nil
}

func (service *Service) runMapping(executionContext context.Context, mapping manifest.Mapping, operation OperationKind) Entry {
	entry := Entry{Name: mapping.Name, Operation: operation, Prefixes: mapping.Prefixes()}

	selectedStrategy, selectError := service.selector.ForMode(mapping.EffectiveMode())
	if selectError != nil {
		return service.failedEntry(entry, mapping, selectError)
	}

	var result strategy.Result
	var runError error
	switch operation {
	case OperationPull:
		result, runError = selectedStrategy.Pull(executionContext, mapping)
	default:
		result, runError = selectedStrategy.Push(executionContext, mapping)
	}
	if runError != nil {
		return service.failedEntry(entry, mapping, runError)
	}

	entry.Status = StatusSucceeded
	if result.Outcome == strategy.OutcomeUnchanged {
		entry.Status = StatusUnchanged
	}
	if result.Prefixes != nil {
		entry.Prefixes = result.Prefixes
	}
	return entry
}

func (service *Service) failedEntry(entry Entry, mapping manifest.Mapping, failure error) Entry {
	entry.Status = StatusFailed
	entry.Error = failure
	entry.Hint = failureHint(failure, mapping)
	service.logger.Warn(mappingFailedMessageConstant, zap.String(logFieldMappingConstant, mapping.Name), zap.String(logFieldOperationConstant, string(entry.Operation)), zap.Error(failure))
	return entry
}

func (service *Service) mainRepositoryStep(operation OperationKind, stepError error) Entry {
	entry := Entry{Name: MainRepositoryEntryName, Operation: operation, Status: StatusSucceeded}
	if stepError != nil {
		entry.Status = StatusSkipped
		entry.Error = stepError
		service.logger.Debug(mainRepositorySkippedMessageConstant, zap.String(logFieldOperationConstant, string(operation)), zap.Error(stepError))
	}
	return entry
}

func (service *Service) commitPending(executionContext context.Context, repositoryRoot string, message string) (Entry, error) {
	entry := Entry{Name: MainRepositoryEntryName, Operation: OperationCommit}

	changes, statusError := service.repositories.CurrentStatus(executionContext, repositoryRoot)
	if statusError != nil {
		return entry, statusError
	}
	if len(changes) == 0 {
		entry.Status = StatusUnchanged
		return entry, nil
	}
	if len(strings.TrimSpace(message)) == 0 {
		return entry, ErrMessageRequired
	}
	if commitError := service.repositories.CommitAll(executionContext, repositoryRoot, message); commitError != nil {
		return entry, commitError
	}
	entry.Status = StatusSucceeded
	return entry, nil
}

// requireRepository confirms the working directory is inside a git working tree
// and returns the top-level directory.
func (service *Service) requireRepository(executionContext context.Context) (string, error) {
	return ensureRepository(executionContext, service.repositories, service.workingDirectory)
}

func ensureRepository(executionContext context.Context, repositories RepositoryManager, workingDirectory string) (string, error) {
	isRepository, checkError := repositories.IsRepository(executionContext, workingDirectory)
	if checkError != nil {
		return "", checkError
	}
	if !isRepository {
		return "", ErrNotARepository
	}
	return repositories.RepositoryRoot(executionContext, workingDirectory)
}
