// Package manifest persists the set of tracked subtree mappings.
//
// Manifest is the in-memory value with pure Find, Upsert, and Delete helpers.
// Store loads and saves it as indented JSON on a go-billy filesystem, falling
// back to defaults whenever the file is missing or unreadable. Every mutation
// rewrites the whole file; concurrent invocations are last writer wins.
package manifest
