package subtrees

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/subtrees"
)

const (
	initUseConstant                      = "init [paths]"
	initShortDescriptionConstant         = "Publish local path(s) as a new repository and track them"
	initLongDescriptionConstant          = "init creates a repository from one or more comma separated paths, pushes their contents as its initial commit, and records the mapping. Copy mode is the default; --subtree registers a single path with git subtree."
	initBranchFlagNameConstant           = "branch"
	initBranchFlagShorthandConstant      = "b"
	initBranchFlagUsageConstant          = "Branch of the new repository (default from configuration)"
	initPublicFlagNameConstant           = "public"
	initPublicFlagUsageConstant          = "Create a public repository"
	initPrivateFlagNameConstant          = "private"
	initPrivateFlagShorthandConstant     = "p"
	initPrivateFlagUsageConstant         = "Create a private repository"
	initOrgFlagNameConstant              = "org"
	initOrgFlagShorthandConstant         = "o"
	initOrgFlagUsageConstant             = "Account or organization that owns the new repository"
	initSubtreeFlagNameConstant          = "subtree"
	initSubtreeFlagUsageConstant         = "Use git subtree mode instead of copy mode"
	initNameFlagNameConstant             = "name"
	initNameFlagUsageConstant            = "Name of the repository to create"
	initRemoteFlagNameConstant           = "remote"
	initRemoteFlagUsageConstant          = "Publish to an existing empty repository instead of creating one"
	initHeadingConstant                  = "Create synced repo"
	cancelledMessageConstant             = "Cancelled."
	conflictingVisibilityMessageConstant = "--public and --private cannot be combined"
	pathArgumentSeparatorConstant        = ","
	prefixJoinSeparatorConstant          = ", "
)

var errConflictingVisibility = errors.New(conflictingVisibilityMessageConstant)

func (builder *CommandBuilder) buildInitCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   initUseConstant,
		Short: initShortDescriptionConstant,
		Long:  initLongDescriptionConstant,
		RunE:  builder.runInit,
	}

	flags := command.Flags()
	flags.StringP(initBranchFlagNameConstant, initBranchFlagShorthandConstant, "", initBranchFlagUsageConstant)
	flags.Bool(initPublicFlagNameConstant, false, initPublicFlagUsageConstant)
	flags.BoolP(initPrivateFlagNameConstant, initPrivateFlagShorthandConstant, false, initPrivateFlagUsageConstant)
	flags.StringP(initOrgFlagNameConstant, initOrgFlagShorthandConstant, "", initOrgFlagUsageConstant)
	flags.Bool(initSubtreeFlagNameConstant, false, initSubtreeFlagUsageConstant)
	flags.String(initNameFlagNameConstant, "", initNameFlagUsageConstant)
	flags.String(initRemoteFlagNameConstant, "", initRemoteFlagUsageConstant)
	addAssumeYesFlag(command)

	return command
}

func (builder *CommandBuilder) runInit(command *cobra.Command, arguments []string) error {
	request, requestError := parseInitRequest(command, arguments)
	if requestError != nil {
		return requestError
	}

	runtime, runtimeError := builder.newRuntime(command, assumeYesRequested(command))
	if runtimeError != nil {
		return runtimeError
	}

	runtime.renderer.Heading(initHeadingConstant)
	result, initError := runtime.initializer.Initialize(commandContext(command), request)
	if initError != nil {
		if isCancellation(initError) {
			runtime.renderer.Notice(cancelledMessageConstant)
			return nil
		}
		return initError
	}

	runtime.renderer.InitResult(result)
	return nil
}

func parseInitRequest(command *cobra.Command, arguments []string) (subtrees.InitRequest, error) {
	flags := command.Flags()
	branch, _ := flags.GetString(initBranchFlagNameConstant)
	public, _ := flags.GetBool(initPublicFlagNameConstant)
	private, _ := flags.GetBool(initPrivateFlagNameConstant)
	owner, _ := flags.GetString(initOrgFlagNameConstant)
	subtreeMode, _ := flags.GetBool(initSubtreeFlagNameConstant)
	repositoryName, _ := flags.GetString(initNameFlagNameConstant)
	remoteURL, _ := flags.GetString(initRemoteFlagNameConstant)

	request := subtrees.InitRequest{
		Paths:          splitPathArguments(arguments),
		Branch:         strings.TrimSpace(branch),
		Owner:          strings.TrimSpace(owner),
		RepositoryName: strings.TrimSpace(repositoryName),
		RemoteURL:      strings.TrimSpace(remoteURL),
		Visibility:     subtrees.VisibilityDefault,
	}

	switch {
	case public && private:
		return subtrees.InitRequest{}, errConflictingVisibility
	case public:
		request.Visibility = subtrees.VisibilityPublic
	case private:
		request.Visibility = subtrees.VisibilityPrivate
	}

	if subtreeMode {
		request.Mode = manifest.ModeSubtree
	}
	return request, nil
}

// splitPathArguments accepts paths as separate arguments, comma separated, or both.
func splitPathArguments(arguments []string) []string {
	var paths []string
	for _, argument := range arguments {
		for _, candidate := range strings.Split(argument, pathArgumentSeparatorConstant) {
			if trimmed := strings.TrimSpace(candidate); len(trimmed) > 0 {
				paths = append(paths, trimmed)
			}
		}
	}
	return paths
}

func joinPrefixes(prefixes []string) string {
	return strings.Join(prefixes, prefixJoinSeparatorConstant)
}
