package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/subtrees"
)

const (
	successSymbolConstant                 = "✓"
	failureSymbolConstant                 = "✗"
	warningSymbolConstant                 = "!"
	bulletSymbolConstant                  = "●"
	arrowSymbolConstant                   = "→"
	mainRepositoryLabelConstant           = "Main repo"
	pulledVerbConstant                    = "pulled"
	pushedVerbConstant                    = "pushed"
	committedMessageConstant              = "Committed"
	nothingToCommitMessageConstant        = "Nothing to commit"
	upToDateTemplateConstant              = "%s already up to date"
	nothingToPushTemplateConstant         = "%s has nothing to push"
	succeededTemplateConstant             = "%s %s"
	skippedTemplateConstant               = "%s %s skipped"
	failedTemplateConstant                = "%s failed"
	completedWithFailuresTemplateConstant = "%s with %d failure(s)"
	indentConstant                        = "  "
	branchLabelConstant                   = "Branch:"
	changesLabelConstant                  = "Changes:"
	subtreesLabelConstant                 = "Subtrees:"
	cleanTreeMessageConstant              = "Working tree clean"
	trackedCountTemplateConstant          = "(%d tracked)"
	mappingLineTemplateConstant           = "%s %s %s"
	trackedHeadingConstant                = "Tracked Subtrees"
	prefixLabelConstant                   = "prefix:"
	remoteLabelConstant                   = "remote:"
	branchFieldLabelConstant              = "branch:"
	modeLabelConstant                     = "mode:"
	noSubtreesMessageConstant             = "No subtrees configured. Use \"gst init <path>\" or \"gst add\" to add one."
	noReposConfiguredMessageConstant      = "No repos configured. Use \"gst init <path>\" first."
	planRepositoryLabelConstant           = "Repo:"
	planModeLabelConstant                 = "Mode:"
	planPathsLabelConstant                = "Paths:"
	planBranchLabelConstant               = "Branch:"
	planRemoteLabelConstant               = "Remote:"
	planRepositoryTemplateConstant        = "github.com/%s/%s"
	privateVisibilityConstant             = "(private)"
	publicVisibilityConstant              = "(public)"
	copyModeDescriptionConstant           = "copy (no git subtree)"
	subtreeModeDescriptionConstant        = "git subtree"
	pathJoinSeparatorConstant             = ", "
	pushedToTemplateConstant              = "Pushed to %s"
	trackingAsTemplateConstant            = "Tracking as %q"
	pullUsageTemplateConstant             = "gst pull %s   # pull changes"
	pushUsageTemplateConstant             = "gst push %s   # push changes"
	addedTemplateConstant                 = "Added subtree %q at %s"
	removedTemplateConstant               = "Removed %q from tracking"
	deletedTemplateConstant               = "Deleted %s"
	labelValueTemplateConstant            = "%s %s"
)

// Renderer writes styled, human readable command output.
type Renderer struct {
	output  io.Writer
	palette palette
}

// NewRenderer constructs a Renderer whose color profile follows output.
func NewRenderer(output io.Writer) *Renderer {
	if output == nil {
		output = io.Discard
	}
	return &Renderer{output: output, palette: newPalette(lipgloss.NewRenderer(output))}
}

// Heading prints a title surrounded by blank lines.
func (renderer *Renderer) Heading(title string) {
	fmt.Fprintln(renderer.output)
	fmt.Fprintln(renderer.output, renderer.palette.heading.Render(title))
	fmt.Fprintln(renderer.output)
}

// Notice prints a muted informational line.
func (renderer *Renderer) Notice(message string) {
	fmt.Fprintln(renderer.output, renderer.palette.muted.Render(message))
}

// Failure prints an error line.
func (renderer *Renderer) Failure(message string) {
	fmt.Fprintln(renderer.output, renderer.palette.failure.Render(message))
}

// NoMappings prints the message shown when a bulk operation has nothing to do.
func (renderer *Renderer) NoMappings() {
	renderer.Notice(noReposConfiguredMessageConstant)
}

// Report prints one line per entry followed by completion, or a failure
// summary when any entry failed.
func (renderer *Renderer) Report(report subtrees.Report, completion string) {
	for _, entry := range report.Entries {
		renderer.entry(entry)
	}
	fmt.Fprintln(renderer.output)
	if failureCount := report.Count(subtrees.StatusFailed); failureCount > 0 {
		fmt.Fprintln(renderer.output, renderer.palette.warning.Render(fmt.Sprintf(completedWithFailuresTemplateConstant, warningSymbolConstant+" "+completion, failureCount)))
	} else {
		fmt.Fprintln(renderer.output, renderer.palette.success.Render(successSymbolConstant+" "+completion))
	}
	fmt.Fprintln(renderer.output)
}

// Entry prints a single report entry.
func (renderer *Renderer) Entry(entry subtrees.Entry) {
	renderer.entry(entry)
}

func (renderer *Renderer) entry(entry subtrees.Entry) {
	label := entry.Name
	if entry.Name == subtrees.MainRepositoryEntryName {
		label = mainRepositoryLabelConstant
	}

	switch entry.Status {
	case subtrees.StatusSucceeded:
		if entry.Operation == subtrees.OperationCommit {
			renderer.line(renderer.palette.success, successSymbolConstant, committedMessageConstant)
			return
		}
		renderer.line(renderer.palette.success, successSymbolConstant, fmt.Sprintf(succeededTemplateConstant, label, operationVerb(entry.Operation)))
	case subtrees.StatusUnchanged:
		renderer.line(renderer.palette.muted, successSymbolConstant, unchangedMessage(entry, label))
	case subtrees.StatusSkipped:
		renderer.line(renderer.palette.warning, warningSymbolConstant, fmt.Sprintf(skippedTemplateConstant, label, entry.Operation))
	case subtrees.StatusFailed:
		renderer.line(renderer.palette.failure, failureSymbolConstant, fmt.Sprintf(failedTemplateConstant, label))
		if len(entry.Hint) > 0 {
			fmt.Fprintln(renderer.output, indentConstant+renderer.palette.warning.Render(entry.Hint))
		} else if entry.Error != nil {
			fmt.Fprintln(renderer.output, indentConstant+renderer.palette.muted.Render(entry.Error.Error()))
		}
	}
}

func (renderer *Renderer) line(style lipgloss.Style, symbol string, message string) {
	fmt.Fprintln(renderer.output, style.Render(symbol)+" "+message)
}

func operationVerb(operation subtrees.OperationKind) string {
	if operation == subtrees.OperationPull {
		return pulledVerbConstant
	}
	return pushedVerbConstant
}

func unchangedMessage(entry subtrees.Entry, label string) string {
	switch entry.Operation {
	case subtrees.OperationCommit:
		return nothingToCommitMessageConstant
	case subtrees.OperationPull:
		return fmt.Sprintf(upToDateTemplateConstant, label)
	default:
		return fmt.Sprintf(nothingToPushTemplateConstant, label)
	}
}

// Status prints the branch, pending changes, and tracked mappings.
func (renderer *Renderer) Status(summary subtrees.StatusSummary) {
	fmt.Fprintln(renderer.output)
	fmt.Fprintln(renderer.output, renderer.palette.heading.Render(branchLabelConstant)+" "+summary.Branch)
	fmt.Fprintln(renderer.output)

	if changes := strings.TrimRight(summary.Changes, "\n"); len(changes) > 0 {
		fmt.Fprintln(renderer.output, renderer.palette.warning.Bold(true).Render(changesLabelConstant))
		fmt.Fprintln(renderer.output, changes)
	} else {
		fmt.Fprintln(renderer.output, renderer.palette.success.Render(successSymbolConstant+" "+cleanTreeMessageConstant))
	}

	if len(summary.Mappings) > 0 {
		fmt.Fprintln(renderer.output)
		fmt.Fprintln(renderer.output, renderer.palette.heading.Render(subtreesLabelConstant)+" "+renderer.palette.muted.Render(fmt.Sprintf(trackedCountTemplateConstant, len(summary.Mappings))))
		for _, mapping := range summary.Mappings {
			prefixes := renderer.palette.muted.Render(arrowSymbolConstant + " " + strings.Join(mapping.Prefixes(), pathJoinSeparatorConstant))
			fmt.Fprintln(renderer.output, indentConstant+fmt.Sprintf(mappingLineTemplateConstant, renderer.palette.success.Render(bulletSymbolConstant), mapping.Name, prefixes))
		}
	}
	fmt.Fprintln(renderer.output)
}

// Mappings prints every tracked mapping with its prefix, remote, branch, and mode.
func (renderer *Renderer) Mappings(mappings []manifest.Mapping) {
	if len(mappings) == 0 {
		fmt.Fprintln(renderer.output, renderer.palette.warning.Render(noSubtreesMessageConstant))
		return
	}

	renderer.Heading(trackedHeadingConstant)
	for _, mapping := range mappings {
		fmt.Fprintln(renderer.output, indentConstant+renderer.palette.success.Render(bulletSymbolConstant)+" "+renderer.palette.label.Render(mapping.Name))
		renderer.field(prefixLabelConstant, strings.Join(mapping.Prefixes(), pathJoinSeparatorConstant))
		renderer.field(remoteLabelConstant, mapping.Remote)
		renderer.field(branchFieldLabelConstant, mapping.EffectiveBranch())
		renderer.field(modeLabelConstant, mapping.EffectiveMode().String())
		fmt.Fprintln(renderer.output)
	}
}

func (renderer *Renderer) field(label string, value string) {
	fmt.Fprintln(renderer.output, indentConstant+indentConstant+fmt.Sprintf(labelValueTemplateConstant, renderer.palette.muted.Render(label), value))
}

// Plan formats the summary shown before init creates anything.
func (renderer *Renderer) Plan(plan subtrees.InitPlan) string {
	visibility := publicVisibilityConstant
	if plan.Private {
		visibility = privateVisibilityConstant
	}
	mode := copyModeDescriptionConstant
	if plan.Mode == manifest.ModeSubtree {
		mode = subtreeModeDescriptionConstant
	}

	lines := make([]string, 0, 5)
	if plan.CreateRepository {
		lines = append(lines, renderer.planLine(planRepositoryLabelConstant, fmt.Sprintf(planRepositoryTemplateConstant, plan.Owner, plan.RepositoryName)+" "+renderer.palette.muted.Render(visibility)))
	} else {
		lines = append(lines, renderer.planLine(planRemoteLabelConstant, plan.RemoteURL))
	}
	lines = append(lines,
		renderer.planLine(planModeLabelConstant, mode),
		renderer.planLine(planPathsLabelConstant, strings.Join(plan.Paths, pathJoinSeparatorConstant)),
		renderer.planLine(planBranchLabelConstant, plan.Branch),
	)
	return strings.Join(lines, "\n")
}

func (renderer *Renderer) planLine(label string, value string) string {
	return indentConstant + fmt.Sprintf(labelValueTemplateConstant, renderer.palette.label.Render(label), value)
}

// InitResult prints where the mapping was published and how to use it.
func (renderer *Renderer) InitResult(result subtrees.InitResult) {
	location := result.WebURL
	if len(location) == 0 {
		location = result.Mapping.Remote
	}
	fmt.Fprintln(renderer.output)
	fmt.Fprintln(renderer.output, renderer.palette.success.Render(successSymbolConstant+" "+fmt.Sprintf(pushedToTemplateConstant, location)))
	fmt.Fprintln(renderer.output)
	renderer.Notice(indentConstant + fmt.Sprintf(trackingAsTemplateConstant, result.Mapping.Name))
	renderer.Notice(indentConstant + fmt.Sprintf(pullUsageTemplateConstant, result.Mapping.Name))
	renderer.Notice(indentConstant + fmt.Sprintf(pushUsageTemplateConstant, result.Mapping.Name))
	fmt.Fprintln(renderer.output)
}

// Added confirms a subtree registered by add.
func (renderer *Renderer) Added(mapping manifest.Mapping) {
	fmt.Fprintln(renderer.output, renderer.palette.success.Render(successSymbolConstant+" "+fmt.Sprintf(addedTemplateConstant, mapping.Name, mapping.Prefix)))
}

// Removed confirms a mapping removed from tracking and lists deleted directories.
func (renderer *Renderer) Removed(result subtrees.RemoveResult) {
	for _, directory := range result.DeletedDirectories {
		renderer.Notice(fmt.Sprintf(deletedTemplateConstant, directory))
	}
	fmt.Fprintln(renderer.output, renderer.palette.success.Render(successSymbolConstant+" "+fmt.Sprintf(removedTemplateConstant, result.Mapping.Name)))
}
