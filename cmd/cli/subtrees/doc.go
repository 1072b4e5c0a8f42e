// Package subtrees builds the gst cobra commands. Each command resolves its
// dependencies per invocation, runs one internal/subtrees operation, and
// renders the outcome through internal/ui.
package subtrees
