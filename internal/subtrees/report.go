package subtrees

import (
	"errors"
	"fmt"

	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
)

// MainRepositoryEntryName labels report entries about the parent repository itself.
const MainRepositoryEntryName = "main repo"

// OperationKind names the action recorded by a report entry.
type OperationKind string

// Operation kinds.
const (
	OperationPull   OperationKind = OperationKind("pull")
	OperationPush   OperationKind = OperationKind("push")
	OperationCommit OperationKind = OperationKind("commit")
)

// EntryStatus is the result of one report entry.
type EntryStatus string

// Entry statuses.
const (
	StatusSucceeded EntryStatus = EntryStatus("succeeded")
	StatusUnchanged EntryStatus = EntryStatus("unchanged")
	StatusFailed    EntryStatus = EntryStatus("failed")
	StatusSkipped   EntryStatus = EntryStatus("skipped")
)

// Entry records the outcome of one operation on one mapping or on the main repository.
type Entry struct {
	Name      string
	Operation OperationKind
	Status    EntryStatus
	Prefixes  []string
	Error     error
	// Hint suggests a remediation for a recognized failure.
	Hint string
}

// Report aggregates entries in execution order.
type Report struct {
	Entries []Entry
}

func (report *Report) add(entry Entry) {
	report.Entries = append(report.Entries, entry)
}

// Count returns how many entries ended with status.
func (report Report) Count(status EntryStatus) int {
	count := 0
	for _, entry := range report.Entries {
		if entry.Status == status {
			count++
		}
	}
	return count
}

// HasFailures reports whether any entry failed.
func (report Report) HasFailures() bool {
	return report.Count(StatusFailed) > 0
}

// failureHint maps classified failures onto the suggestions shown to the user.
func failureHint(failure error, mapping manifest.Mapping) string {
	switch {
	case errors.Is(failure, gitrepo.ErrLocalModifications):
		return localModificationsHintConstant
	case errors.Is(failure, gitrepo.ErrSubtreeNotRegistered):
		return fmt.Sprintf(subtreeNotRegisteredHintTemplateConstant, mapping.Name, mapping.Prefix)
	default:
		return ""
	}
}
