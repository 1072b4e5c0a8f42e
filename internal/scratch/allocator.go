package scratch

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

const (
	directoryPatternTemplateConstant    = "gstree-%s-*"
	defaultPurposeConstant              = "work"
	acquireErrorTemplateConstant        = "allocate %s scratch directory: %w"
	scratchAcquiredMessageConstant      = "scratch directory acquired"
	scratchReleasedMessageConstant      = "scratch directory released"
	scratchReleaseFailedMessageConstant = "scratch directory cleanup failed"
	logFieldScratchPathConstant         = "scratch_path"
	logFieldPurposeConstant             = "purpose"
)

// Allocator creates uniquely named directories beneath a root directory.
type Allocator struct {
	rootDirectory string
	logger        *zap.Logger
}

// NewAllocator constructs an Allocator. An empty root selects the operating
// system temporary directory.
func NewAllocator(rootDirectory string, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{rootDirectory: strings.TrimSpace(rootDirectory), logger: logger}
}

// Directory is an acquired scratch directory.
type Directory struct {
	Path    string
	purpose string
	logger  *zap.Logger
}

// Acquire creates a new empty directory whose name records purpose.
func (allocator *Allocator) Acquire(purpose string) (Directory, error) {
	trimmedPurpose := strings.TrimSpace(purpose)
	if len(trimmedPurpose) == 0 {
		trimmedPurpose = defaultPurposeConstant
	}

	directoryPath, creationError := os.MkdirTemp(allocator.rootDirectory, fmt.Sprintf(directoryPatternTemplateConstant, trimmedPurpose))
	if creationError != nil {
		return Directory{}, fmt.Errorf(acquireErrorTemplateConstant, trimmedPurpose, creationError)
	}

	allocator.logger.Debug(scratchAcquiredMessageConstant, zap.String(logFieldScratchPathConstant, directoryPath), zap.String(logFieldPurposeConstant, trimmedPurpose))
	return Directory{Path: directoryPath, purpose: trimmedPurpose, logger: allocator.logger}, nil
}

// Release removes the directory and everything beneath it. Failures are logged, not returned.
func (directory Directory) Release() {
	if len(directory.Path) == 0 {
		return
	}
	if removalError := os.RemoveAll(directory.Path); removalError != nil {
		directory.logger.Warn(scratchReleaseFailedMessageConstant, zap.String(logFieldScratchPathConstant, directory.Path), zap.Error(removalError))
		return
	}
	directory.logger.Debug(scratchReleasedMessageConstant, zap.String(logFieldScratchPathConstant, directory.Path), zap.String(logFieldPurposeConstant, directory.purpose))
}

// Run acquires a directory, invokes action with its path, and releases it afterwards
// whether or not action succeeded.
func (allocator *Allocator) Run(purpose string, action func(directoryPath string) error) error {
	directory, acquireError := allocator.Acquire(purpose)
	if acquireError != nil {
		return acquireError
	}
	defer directory.Release()

	return action(directory.Path)
}
