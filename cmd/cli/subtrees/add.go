package subtrees

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/gstree/internal/subtrees"
	"github.com/temirov/gstree/internal/ui"
)

const (
	addUseConstant                      = "add [name] [remote] [prefix]"
	addShortDescriptionConstant         = "Add an existing external repository as a subtree"
	addBranchFlagNameConstant           = "branch"
	addBranchFlagShorthandConstant      = "b"
	addBranchFlagUsageConstant          = "Branch to track (default from configuration)"
	addHeadingConstant                  = "Add a new subtree"
	addNameTitleConstant                = "Subtree name (e.g., studio)"
	addNamePlaceholderConstant          = "studio"
	addRemoteTitleConstant              = "Remote repository URL"
	addRemotePlaceholderConstant        = "git@github.com:org/repo.git"
	addPrefixTitleConstant              = "Local path prefix"
	addPrefixDefaultTemplateConstant    = "packages/%s"
	addBranchTitleConstant              = "Branch to track"
	nameRequiredMessageConstant         = "Name is required"
	subtreeExistsMessageConstant        = "Subtree already exists"
	remoteRequiredPromptMessageConstant = "Remote URL is required"
)

var (
	errNameRequired         = errors.New(nameRequiredMessageConstant)
	errSubtreeExists        = errors.New(subtreeExistsMessageConstant)
	errRemoteRequiredPrompt = errors.New(remoteRequiredPromptMessageConstant)
)

func (builder *CommandBuilder) buildAddCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   addUseConstant,
		Short: addShortDescriptionConstant,
		Args:  cobra.MaximumNArgs(3),
		RunE:  builder.runAdd,
	}
	command.Flags().StringP(addBranchFlagNameConstant, addBranchFlagShorthandConstant, "", addBranchFlagUsageConstant)
	return command
}

func (builder *CommandBuilder) runAdd(command *cobra.Command, arguments []string) error {
	runtime, runtimeError := builder.newRuntime(command, false)
	if runtimeError != nil {
		return runtimeError
	}

	runtime.renderer.Heading(addHeadingConstant)
	request, requestError := collectAddRequest(command, arguments, runtime)
	if requestError != nil {
		if isCancellation(requestError) {
			runtime.renderer.Notice(cancelledMessageConstant)
			return nil
		}
		return requestError
	}

	mapping, addError := runtime.service.Add(commandContext(command), request)
	if addError != nil {
		return addError
	}
	runtime.renderer.Added(mapping)
	return nil
}

// collectAddRequest takes each value from its argument and prompts for the missing ones.
// A branch prompt that cannot be answered falls back to the configured default.
func collectAddRequest(command *cobra.Command, arguments []string, runtime *commandRuntime) (subtrees.AddRequest, error) {
	request := subtrees.AddRequest{}
	if len(arguments) > 0 {
		request.Name = strings.TrimSpace(arguments[0])
	}
	if len(arguments) > 1 {
		request.Remote = strings.TrimSpace(arguments[1])
	}
	if len(arguments) > 2 {
		request.Prefix = strings.TrimSpace(arguments[2])
	}

	if len(request.Name) == 0 {
		name, promptError := runtime.prompter.Text(addNameTitleConstant, addNamePlaceholderConstant, func(input string) error {
			if len(strings.TrimSpace(input)) == 0 {
				return errNameRequired
			}
			if _, exists := runtime.store.Find(strings.TrimSpace(input)); exists {
				return errSubtreeExists
			}
			return nil
		})
		if promptError != nil {
			return subtrees.AddRequest{}, promptError
		}
		request.Name = strings.TrimSpace(name)
	}

	if len(request.Remote) == 0 {
		remote, promptError := runtime.prompter.Text(addRemoteTitleConstant, addRemotePlaceholderConstant, func(input string) error {
			if len(strings.TrimSpace(input)) == 0 {
				return errRemoteRequiredPrompt
			}
			return nil
		})
		if promptError != nil {
			return subtrees.AddRequest{}, promptError
		}
		request.Remote = strings.TrimSpace(remote)
	}

	defaultPrefix := fmt.Sprintf(addPrefixDefaultTemplateConstant, request.Name)
	if len(request.Prefix) == 0 {
		prefix, promptError := runtime.prompter.Text(addPrefixTitleConstant, defaultPrefix, nil)
		if promptError != nil {
			return subtrees.AddRequest{}, promptError
		}
		request.Prefix = strings.TrimSpace(prefix)
		if len(request.Prefix) == 0 {
			request.Prefix = defaultPrefix
		}
	}

	branch, _ := command.Flags().GetString(addBranchFlagNameConstant)
	request.Branch = strings.TrimSpace(branch)
	if !command.Flags().Changed(addBranchFlagNameConstant) {
		promptedBranch, promptError := runtime.prompter.Text(addBranchTitleConstant, runtime.defaultBranch, nil)
		var inputRequired ui.InputRequiredError
		switch {
		case errors.As(promptError, &inputRequired):
			promptedBranch = ""
		case promptError != nil:
			return subtrees.AddRequest{}, promptError
		}
		request.Branch = strings.TrimSpace(promptedBranch)
	}
	if len(request.Branch) == 0 {
		request.Branch = runtime.defaultBranch
	}
	return request, nil
}
