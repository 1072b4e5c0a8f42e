package githubcli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/temirov/gstree/internal/execshell"
)

const (
	versionFlagConstant                     = "--version"
	authSubcommandConstant                  = "auth"
	statusSubcommandConstant                = "status"
	apiSubcommandConstant                   = "api"
	repoSubcommandConstant                  = "repo"
	createSubcommandConstant                = "create"
	viewSubcommandConstant                  = "view"
	queryFlagConstant                       = "-q"
	jsonFlagConstant                        = "--json"
	privateFlagConstant                     = "--private"
	publicFlagConstant                      = "--public"
	confirmFlagConstant                     = "--confirm"
	userEndpointConstant                    = "user"
	organizationsEndpointConstant           = "user/orgs"
	loginQueryConstant                      = ".login"
	organizationLoginsQueryConstant         = ".[].login"
	isPrivateFieldConstant                  = "isPrivate"
	isPrivateQueryConstant                  = ".isPrivate"
	repositoryIdentifierTemplateConstant    = "%s/%s"
	httpsURLTemplateConstant                = "https://github.com/%s/%s.git"
	sshURLTemplateConstant                  = "git@github.com:%s/%s.git"
	ownerFieldNameConstant                  = "owner"
	repositoryNameFieldNameConstant         = "repository_name"
	requiredValueMessageConstant            = "value required"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	hostUnavailableMessageConstant          = "GitHub CLI (gh) is not installed"
	hostUnauthenticatedMessageConstant      = "GitHub CLI is not authenticated"
	hostUnavailableHintConstant             = "Install it from https://cli.github.com/ and then run: gh auth login"
	hostUnauthenticatedHintConstant         = "Run: gh auth login"
	hostErrorTemplateConstant               = "%s: %v"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	emptyLoginMessageConstant               = "empty login"
	currentUserOperationNameConstant        = OperationName("CurrentUser")
	organizationsOperationNameConstant      = OperationName("Organizations")
	createRepositoryOperationNameConstant   = OperationName("CreateRepository")
	visibilityOperationNameConstant         = OperationName("DefaultVisibility")
)

// Environment variables that authenticate gh without a stored login.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// EnvironmentLookup resolves environment variables; os.LookupEnv in production.
type EnvironmentLookup func(key string) (string, bool)

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor          GitHubCommandExecutor
	environmentLookup EnvironmentLookup
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrHostUnavailable indicates the gh executable could not be run.
	ErrHostUnavailable = errors.New(hostUnavailableMessageConstant)
	// ErrHostUnauthenticated indicates gh runs but has no usable credentials.
	ErrHostUnauthenticated = errors.New(hostUnauthenticatedMessageConstant)
)

// HostError reports an unusable repository host together with a remediation hint.
type HostError struct {
	Kind  error
	Hint  string
	Cause error
}

// Error describes the host failure.
func (hostError HostError) Error() string {
	if hostError.Cause == nil {
		return hostError.Kind.Error()
	}
	return fmt.Sprintf(hostErrorTemplateConstant, hostError.Kind, hostError.Cause)
}

// Unwrap exposes the host failure kind and the underlying execution error.
func (hostError HostError) Unwrap() []error {
	unwrapped := []error{hostError.Kind}
	if hostError.Cause != nil {
		unwrapped = append(unwrapped, hostError.Cause)
	}
	return unwrapped
}

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates gh produced output that could not be interpreted.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying decoding error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client. A nil environmentLookup reads the process environment.
func NewClient(executor GitHubCommandExecutor, environmentLookup EnvironmentLookup) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	return &Client{executor: executor, environmentLookup: environmentLookup}, nil
}

// EnsureAvailableAndAuthenticated verifies gh can be executed and holds credentials.
// A token exported in the environment satisfies authentication without consulting gh.
func (client *Client) EnsureAvailableAndAuthenticated(executionContext context.Context) error {
	if _, versionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: []string{versionFlagConstant}}); versionError != nil {
		return HostError{Kind: ErrHostUnavailable, Hint: hostUnavailableHintConstant, Cause: versionError}
	}

	if _, hasToken := client.resolveToken(); hasToken {
		return nil
	}

	if _, statusError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: []string{authSubcommandConstant, statusSubcommandConstant}}); statusError != nil {
		return HostError{Kind: ErrHostUnauthenticated, Hint: hostUnauthenticatedHintConstant, Cause: statusError}
	}
	return nil
}

// CurrentUser returns the login of the authenticated account.
func (client *Client) CurrentUser(executionContext context.Context) (string, error) {
	result, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{apiSubcommandConstant, userEndpointConstant, queryFlagConstant, loginQueryConstant},
	})
	if executionError != nil {
		return "", OperationError{Operation: currentUserOperationNameConstant, Cause: executionError}
	}

	login := strings.TrimSpace(result.StandardOutput)
	if len(login) == 0 {
		return "", ResponseDecodingError{Operation: currentUserOperationNameConstant, Cause: errors.New(emptyLoginMessageConstant)}
	}
	return login, nil
}

// Organizations lists the organizations the authenticated account belongs to.
// Lookup failures yield an empty list so callers can still offer the personal account.
func (client *Client) Organizations(executionContext context.Context) []string {
	result, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{apiSubcommandConstant, organizationsEndpointConstant, queryFlagConstant, organizationLoginsQueryConstant},
	})
	if executionError != nil {
		return []string{}
	}

	organizations := make([]string, 0)
	for _, line := range strings.Split(result.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		organizations = append(organizations, trimmedLine)
	}
	return organizations
}

// CreateRepository creates owner/name on GitHub with the requested visibility.
func (client *Client) CreateRepository(executionContext context.Context, owner string, name string, private bool) error {
	trimmedOwner := strings.TrimSpace(owner)
	if len(trimmedOwner) == 0 {
		return InvalidInputError{FieldName: ownerFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return InvalidInputError{FieldName: repositoryNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	visibilityFlag := publicFlagConstant
	if private {
		visibilityFlag = privateFlagConstant
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			createSubcommandConstant,
			fmt.Sprintf(repositoryIdentifierTemplateConstant, trimmedOwner, trimmedName),
			visibilityFlag,
			confirmFlagConstant,
		},
	})
	if executionError != nil {
		return OperationError{Operation: createRepositoryOperationNameConstant, Cause: executionError}
	}
	return nil
}

// DefaultVisibilityIsPrivate reports whether the repository in workingDirectory is private.
// Any failure, including a repository unknown to GitHub, is treated as private.
func (client *Client) DefaultVisibilityIsPrivate(executionContext context.Context, workingDirectory string) bool {
	result, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments:        []string{repoSubcommandConstant, viewSubcommandConstant, jsonFlagConstant, isPrivateFieldConstant, queryFlagConstant, isPrivateQueryConstant},
		WorkingDirectory: workingDirectory,
	})
	if executionError != nil {
		return true
	}

	isPrivate, parseError := strconv.ParseBool(strings.TrimSpace(result.StandardOutput))
	if parseError != nil {
		return true
	}
	return isPrivate
}

// HTTPSURL formats the HTTPS clone URL of owner/name.
func HTTPSURL(owner string, name string) string {
	return fmt.Sprintf(httpsURLTemplateConstant, owner, name)
}

// SSHURL formats the SSH clone URL of owner/name.
func SSHURL(owner string, name string) string {
	return fmt.Sprintf(sshURLTemplateConstant, owner, name)
}

func (client *Client) resolveToken() (string, bool) {
	for _, key := range tokenPreference {
		value, exists := client.environmentLookup(key)
		if !exists {
			continue
		}
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) > 0 {
			return trimmedValue, true
		}
	}
	return "", false
}
