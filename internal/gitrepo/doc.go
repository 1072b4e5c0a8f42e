// Package gitrepo wraps the git executable for gstree.
//
// RepositoryManager exposes the repository, clone, and subtree operations the
// synchronization strategies need. Every failing invocation is reported as an
// OperationError that carries git's diagnostic text; subtree failures are
// additionally classified into ErrLocalModifications or ErrSubtreeNotRegistered
// so callers can match them with errors.Is instead of inspecting output.
package gitrepo
