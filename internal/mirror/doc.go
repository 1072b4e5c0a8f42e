// Package mirror synchronizes one directory tree onto another.
//
// Mirror copies files, directories, and symlinks from a source go-billy
// filesystem to a destination, optionally honouring every .gitignore found in
// the source tree and deleting destination entries the source no longer has.
// Ignored entries and .git directories in the destination are always kept.
package mirror
