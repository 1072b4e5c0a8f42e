package gitrepo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/gstree/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant        = "git repository manager executor not configured"
	repositoryPathRequiredMessageConstant       = "repository path required"
	localModificationsMessageConstant           = "working tree has local modifications"
	subtreeNotRegisteredMessageConstant         = "subtree prefix was never added"
	localModificationsPatternConstant           = "working tree has modifications"
	subtreeNotRegisteredPatternConstant         = "was never added"
	subtreeMissingPrefixPatternConstant         = "use 'git subtree add'"
	operationErrorTemplateConstant              = "git %s failed in %s: %s"
	operationErrorWithoutDetailTemplateConstant = "git %s failed in %s"
	classifiedOperationErrorTemplateConstant    = "git %s failed in %s: %s: %s"
	requiredValueMessageConstant                = "value required"
)

var (
	// ErrExecutorNotConfigured indicates the manager was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrRepositoryPathRequired indicates an operation was invoked without a repository path.
	ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)
	// ErrLocalModifications indicates a subtree operation refused to run on a dirty working tree.
	ErrLocalModifications = errors.New(localModificationsMessageConstant)
	// ErrSubtreeNotRegistered indicates a subtree pull or push on a prefix that was never subtree-added.
	ErrSubtreeNotRegistered = errors.New(subtreeNotRegisteredMessageConstant)
)

// OperationName identifies a git operation performed by RepositoryManager.
type OperationName string

// OperationError reports a failed git invocation together with its diagnostic output.
type OperationError struct {
	Operation      OperationName
	RepositoryPath string
	Diagnostic     string
	Kind           error
	Cause          error
}

// Error describes the failure, leading with the classified kind when one is known.
func (operationError OperationError) Error() string {
	if operationError.Kind != nil {
		return fmt.Sprintf(classifiedOperationErrorTemplateConstant, operationError.Operation, operationError.RepositoryPath, operationError.Kind, operationError.Diagnostic)
	}
	if len(operationError.Diagnostic) == 0 {
		return fmt.Sprintf(operationErrorWithoutDetailTemplateConstant, operationError.Operation, operationError.RepositoryPath)
	}
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.RepositoryPath, operationError.Diagnostic)
}

// Unwrap exposes the classified kind and the underlying execution error.
func (operationError OperationError) Unwrap() []error {
	unwrapped := make([]error, 0, 2)
	if operationError.Kind != nil {
		unwrapped = append(unwrapped, operationError.Kind)
	}
	if operationError.Cause != nil {
		unwrapped = append(unwrapped, operationError.Cause)
	}
	return unwrapped
}

func newOperationError(operation OperationName, repositoryPath string, cause error) OperationError {
	return OperationError{
		Operation:      operation,
		RepositoryPath: repositoryPath,
		Diagnostic:     diagnosticText(cause),
		Cause:          cause,
	}
}

func diagnosticText(cause error) string {
	var failedError execshell.CommandFailedError
	if errors.As(cause, &failedError) {
		return failedError.Diagnostic()
	}
	if cause == nil {
		return ""
	}
	return strings.TrimSpace(cause.Error())
}

// classifySubtreeFailure maps git subtree diagnostics onto sentinel kinds.
// git only reports these conditions as free text, so matching stays here.
func classifySubtreeFailure(diagnostic string) error {
	normalizedDiagnostic := strings.ToLower(diagnostic)
	switch {
	case strings.Contains(normalizedDiagnostic, localModificationsPatternConstant):
		return ErrLocalModifications
	case strings.Contains(normalizedDiagnostic, subtreeNotRegisteredPatternConstant),
		strings.Contains(normalizedDiagnostic, subtreeMissingPrefixPatternConstant):
		return ErrSubtreeNotRegistered
	default:
		return nil
	}
}
