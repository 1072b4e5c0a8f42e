package mirror

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const (
	gitDirectoryNameConstant          = ".git"
	rootDirectoryConstant             = ""
	relativePathSeparatorConstant     = "/"
	directoryPermissionsConstant      = 0o755
	ownerDirectoryPermissionsConstant = 0o700
	operationErrorTemplateConstant    = "mirror %s %s: %v"
	readIgnoreOperationConstant       = Operation("read ignore patterns")
	readDirectoryOperationConstant    = Operation("read directory")
	createDirectoryOperationConstant  = Operation("create directory")
	copyFileOperationConstant         = Operation("copy file")
	copySymlinkOperationConstant      = Operation("copy symlink")
	removeOperationConstant           = Operation("remove")
	sourceDirectoryOperationConstant  = Operation("open source")
	unsupportedEntryOperationConstant = Operation("copy entry")
	unsupportedEntryMessageConstant   = "unsupported file type"
	fileCopyFlagsConstant             = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
)

// Options controls ignore handling and deletion during a mirror.
type Options struct {
	// RespectIgnoreFile skips source entries matched by .gitignore files found in the source tree.
	RespectIgnoreFile bool
	// DeleteExtraneous removes destination entries that are absent from the source.
	// Entries matched by the ignore rules and .git directories are never removed.
	DeleteExtraneous bool
}

// Operation names the step of a mirror failure.
type Operation string

// OperationError reports a filesystem failure while mirroring.
type OperationError struct {
	Operation Operation
	Path      string
	Cause     error
}

// Error describes the failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Path, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// Directories mirrors sourceDirectory onto destinationDirectory on the local disk,
// creating the destination when it does not exist.
func Directories(sourceDirectory string, destinationDirectory string, options Options) error {
	sourceInfo, statError := os.Stat(sourceDirectory)
	if statError != nil {
		return OperationError{Operation: sourceDirectoryOperationConstant, Path: sourceDirectory, Cause: statError}
	}
	if !sourceInfo.IsDir() {
		return OperationError{Operation: sourceDirectoryOperationConstant, Path: sourceDirectory, Cause: errors.New(unsupportedEntryMessageConstant)}
	}
	if createError := os.MkdirAll(destinationDirectory, directoryPermissionsConstant); createError != nil {
		return OperationError{Operation: createDirectoryOperationConstant, Path: destinationDirectory, Cause: createError}
	}
	return Mirror(osfs.New(sourceDirectory), osfs.New(destinationDirectory), options)
}

// Mirror makes destination match source. The .git directory is neither copied
// nor deleted at any depth, and .gitignore files themselves are copied.
func Mirror(source billy.Filesystem, destination billy.Filesystem, options Options) error {
	var matcher gitignore.Matcher
	if options.RespectIgnoreFile {
		patterns, readError := gitignore.ReadPatterns(source, nil)
		if readError != nil {
			return OperationError{Operation: readIgnoreOperationConstant, Path: source.Root(), Cause: readError}
		}
		matcher = gitignore.NewMatcher(patterns)
	}

	session := &mirrorSession{
		source:       source,
		destination:  destination,
		matcher:      matcher,
		copiedPaths:  map[string]struct{}{},
		deleteOthers: options.DeleteExtraneous,
	}

	if copyError := session.copyDirectory(nil); copyError != nil {
		return copyError
	}
	if session.deleteOthers {
		return session.pruneDirectory(nil)
	}
	return nil
}

type mirrorSession struct {
	source       billy.Filesystem
	destination  billy.Filesystem
	matcher      gitignore.Matcher
	copiedPaths  map[string]struct{}
	deleteOthers bool
}

func (session *mirrorSession) excluded(pathComponents []string, isDirectory bool) bool {
	if pathComponents[len(pathComponents)-1] == gitDirectoryNameConstant {
		return true
	}
	return session.matcher != nil && session.matcher.Match(pathComponents, isDirectory)
}

func (session *mirrorSession) copyDirectory(directoryComponents []string) error {
	directoryPath := joinComponents(session.source, directoryComponents)
	entries, readError := session.source.ReadDir(directoryPath)
	if readError != nil {
		return OperationError{Operation: readDirectoryOperationConstant, Path: directoryPath, Cause: readError}
	}

	for _, entry := range entries {
		entryComponents := appendComponent(directoryComponents, entry.Name())
		if session.excluded(entryComponents, entry.IsDir()) {
			continue
		}

		entryPath := joinComponents(session.destination, entryComponents)
		session.copiedPaths[relativeKey(entryComponents)] = struct{}{}

		switch {
		case entry.Mode()&os.ModeSymlink != 0:
			if copyError := session.copySymlink(entryComponents, entryPath); copyError != nil {
				return copyError
			}
		case entry.IsDir():
			if replaceError := session.clearConflictingEntry(entryPath, true); replaceError != nil {
				return replaceError
			}
			if createError := session.destination.MkdirAll(entryPath, entry.Mode().Perm()|ownerDirectoryPermissionsConstant); createError != nil {
				return OperationError{Operation: createDirectoryOperationConstant, Path: entryPath, Cause: createError}
			}
			if copyError := session.copyDirectory(entryComponents); copyError != nil {
				return copyError
			}
		case entry.Mode().IsRegular():
			if copyError := session.copyFile(entryComponents, entryPath, entry); copyError != nil {
				return copyError
			}
		default:
			return OperationError{Operation: unsupportedEntryOperationConstant, Path: entryPath, Cause: errors.New(unsupportedEntryMessageConstant)}
		}
	}
	return nil
}

// clearConflictingEntry removes a destination entry whose type differs from the incoming one.
func (session *mirrorSession) clearConflictingEntry(entryPath string, wantDirectory bool) error {
	existingInfo, statError := session.destination.Lstat(entryPath)
	if statError != nil {
		return nil
	}
	isDirectory := existingInfo.IsDir()
	isSymlink := existingInfo.Mode()&os.ModeSymlink != 0
	if isDirectory == wantDirectory && !isSymlink {
		return nil
	}
	if removeError := util.RemoveAll(session.destination, entryPath); removeError != nil {
		return OperationError{Operation: removeOperationConstant, Path: entryPath, Cause: removeError}
	}
	return nil
}

func (session *mirrorSession) copyFile(entryComponents []string, entryPath string, entry os.FileInfo) error {
	if replaceError := session.clearConflictingEntry(entryPath, false); replaceError != nil {
		return replaceError
	}

	sourcePath := joinComponents(session.source, entryComponents)
	sourceFile, openError := session.source.Open(sourcePath)
	if openError != nil {
		return OperationError{Operation: copyFileOperationConstant, Path: sourcePath, Cause: openError}
	}
	defer sourceFile.Close()

	destinationFile, createError := session.destination.OpenFile(entryPath, fileCopyFlagsConstant, entry.Mode().Perm())
	if createError != nil {
		return OperationError{Operation: copyFileOperationConstant, Path: entryPath, Cause: createError}
	}
	if _, copyError := io.Copy(destinationFile, sourceFile); copyError != nil {
		destinationFile.Close()
		return OperationError{Operation: copyFileOperationConstant, Path: entryPath, Cause: copyError}
	}
	if closeError := destinationFile.Close(); closeError != nil {
		return OperationError{Operation: copyFileOperationConstant, Path: entryPath, Cause: closeError}
	}

	if changer, supportsChange := session.destination.(billy.Change); supportsChange {
		if chmodError := changer.Chmod(entryPath, entry.Mode().Perm()); chmodError != nil {
			return OperationError{Operation: copyFileOperationConstant, Path: entryPath, Cause: chmodError}
		}
		if chtimesError := changer.Chtimes(entryPath, entry.ModTime(), entry.ModTime()); chtimesError != nil {
			return OperationError{Operation: copyFileOperationConstant, Path: entryPath, Cause: chtimesError}
		}
	}
	return nil
}

func (session *mirrorSession) copySymlink(entryComponents []string, entryPath string) error {
	sourcePath := joinComponents(session.source, entryComponents)
	target, readError := session.source.Readlink(sourcePath)
	if readError != nil {
		return OperationError{Operation: copySymlinkOperationConstant, Path: sourcePath, Cause: readError}
	}

	if existingTarget, existingError := session.destination.Readlink(entryPath); existingError == nil && existingTarget == target {
		return nil
	}
	if _, statError := session.destination.Lstat(entryPath); statError == nil {
		if removeError := util.RemoveAll(session.destination, entryPath); removeError != nil {
			return OperationError{Operation: removeOperationConstant, Path: entryPath, Cause: removeError}
		}
	}
	if linkError := session.destination.Symlink(target, entryPath); linkError != nil {
		return OperationError{Operation: copySymlinkOperationConstant, Path: entryPath, Cause: linkError}
	}
	return nil
}

func (session *mirrorSession) pruneDirectory(directoryComponents []string) error {
	directoryPath := joinComponents(session.destination, directoryComponents)
	entries, readError := session.destination.ReadDir(directoryPath)
	if readError != nil {
		return OperationError{Operation: readDirectoryOperationConstant, Path: directoryPath, Cause: readError}
	}

	for _, entry := range entries {
		entryComponents := appendComponent(directoryComponents, entry.Name())
		isDirectory := entry.IsDir() && entry.Mode()&os.ModeSymlink == 0

		if _, copied := session.copiedPaths[relativeKey(entryComponents)]; copied {
			if isDirectory {
				if pruneError := session.pruneDirectory(entryComponents); pruneError != nil {
					return pruneError
				}
			}
			continue
		}
		if session.excluded(entryComponents, isDirectory) {
			continue
		}

		entryPath := joinComponents(session.destination, entryComponents)
		if removeError := util.RemoveAll(session.destination, entryPath); removeError != nil {
			return OperationError{Operation: removeOperationConstant, Path: entryPath, Cause: removeError}
		}
	}
	return nil
}

func appendComponent(components []string, name string) []string {
	extended := make([]string, 0, len(components)+1)
	extended = append(extended, components...)
	return append(extended, name)
}

func joinComponents(filesystem billy.Filesystem, components []string) string {
	if len(components) == 0 {
		return rootDirectoryConstant
	}
	return filesystem.Join(components...)
}

func relativeKey(components []string) string {
	return strings.Join(components, relativePathSeparatorConstant)
}
