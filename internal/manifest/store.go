package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"
)

const (
	// DefaultFileName is the manifest file name in the working directory root.
	DefaultFileName = ".gstree.json"

	manifestFilePermissionsConstant          = 0o644
	manifestIndentConstant                   = "  "
	manifestTrailingNewlineConstant          = "\n"
	storeErrorTemplateConstant               = "manifest %s %s: %v"
	storeWriteOperationConstant              = StoreOperation("write")
	storeEncodeOperationConstant             = StoreOperation("encode")
	manifestUnreadableMessageConstant        = "manifest unreadable, using defaults"
	manifestMalformedMessageConstant         = "manifest malformed, using defaults"
	manifestUnknownModeMessageConstant       = "unknown mapping mode, treating as copy"
	manifestSavedMessageConstant             = "manifest saved"
	logFieldManifestPathConstant             = "manifest_path"
	logFieldMappingCountConstant             = "mapping_count"
	logFieldMappingNameConstant              = "mapping"
	manifestMappingRemovedMessageConstant    = "mapping removed from manifest"
	manifestMappingUpsertedMessageConstant   = "mapping recorded in manifest"
	manifestHostToggleChangedMessageConstant = "host cli usage updated"
	logFieldUseHostCLIConstant               = "use_host_cli"
)

// StoreOperation names the step of a manifest store failure.
type StoreOperation string

// StoreError reports a manifest file that could not be encoded or written.
type StoreError struct {
	Path      string
	Operation StoreOperation
	Cause     error
}

// Error describes the store failure.
func (storeError StoreError) Error() string {
	return fmt.Sprintf(storeErrorTemplateConstant, storeError.Operation, storeError.Path, storeError.Cause)
}

// Unwrap exposes the underlying cause.
func (storeError StoreError) Unwrap() error {
	return storeError.Cause
}

// Store reads and writes the manifest file on a filesystem.
type Store struct {
	filesystem billy.Filesystem
	fileName   string
	logger     *zap.Logger
}

// NewStore constructs a Store for fileName within filesystem. An empty file
// name selects DefaultFileName.
func NewStore(filesystem billy.Filesystem, fileName string, logger *zap.Logger) *Store {
	if len(fileName) == 0 {
		fileName = DefaultFileName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{filesystem: filesystem, fileName: fileName, logger: logger}
}

// Path returns the manifest location within the store filesystem.
func (store *Store) Path() string {
	return store.filesystem.Join(store.filesystem.Root(), store.fileName)
}

// Load returns the persisted manifest, or DefaultManifest when the file is missing or unreadable.
func (store *Store) Load() Manifest {
	contents, readError := util.ReadFile(store.filesystem, store.fileName)
	if readError != nil {
		if !errors.Is(readError, os.ErrNotExist) {
			store.logger.Warn(manifestUnreadableMessageConstant, zap.String(logFieldManifestPathConstant, store.Path()), zap.Error(readError))
		}
		return DefaultManifest()
	}

	loaded, unrecognizedModes, decodeError := decodeManifest(contents)
	if decodeError != nil {
		store.logger.Warn(manifestMalformedMessageConstant, zap.String(logFieldManifestPathConstant, store.Path()), zap.Error(decodeError))
		return DefaultManifest()
	}
	for _, mappingName := range unrecognizedModes {
		store.logger.Warn(manifestUnknownModeMessageConstant, zap.String(logFieldManifestPathConstant, store.Path()), zap.String(logFieldMappingNameConstant, mappingName))
	}
	return loaded
}

// Save writes the full manifest as two-space indented JSON followed by a newline.
func (store *Store) Save(manifest Manifest) error {
	if manifest.Subtrees == nil {
		manifest.Subtrees = []Mapping{}
	}

	encoded, encodeError := json.MarshalIndent(manifest, "", manifestIndentConstant)
	if encodeError != nil {
		return StoreError{Path: store.Path(), Operation: storeEncodeOperationConstant, Cause: encodeError}
	}
	encoded = append(encoded, manifestTrailingNewlineConstant...)

	if writeError := util.WriteFile(store.filesystem, store.fileName, encoded, manifestFilePermissionsConstant); writeError != nil {
		return StoreError{Path: store.Path(), Operation: storeWriteOperationConstant, Cause: writeError}
	}

	store.logger.Debug(manifestSavedMessageConstant, zap.String(logFieldManifestPathConstant, store.Path()), zap.Int(logFieldMappingCountConstant, len(manifest.Subtrees)))
	return nil
}

// Find returns the persisted mapping with the provided name.
func (store *Store) Find(name string) (Mapping, bool) {
	return store.Load().Find(name)
}

// List returns the persisted mappings in manifest order.
func (store *Store) List() []Mapping {
	return store.Load().Subtrees
}

// Upsert validates the mapping and records it, replacing any mapping with the same name in place.
func (store *Store) Upsert(mapping Mapping) error {
	if validationError := mapping.Validate(); validationError != nil {
		return validationError
	}

	manifest := store.Load()
	manifest.Upsert(mapping)
	if saveError := store.Save(manifest); saveError != nil {
		return saveError
	}

	store.logger.Debug(manifestMappingUpsertedMessageConstant, zap.String(logFieldMappingNameConstant, mapping.Name))
	return nil
}

// Delete removes the named mapping. Absent names report false without writing.
func (store *Store) Delete(name string) (bool, error) {
	manifest := store.Load()
	if !manifest.Delete(name) {
		return false, nil
	}
	if saveError := store.Save(manifest); saveError != nil {
		return false, saveError
	}

	store.logger.Debug(manifestMappingRemovedMessageConstant, zap.String(logFieldMappingNameConstant, name))
	return true, nil
}

// UseHostCLI reports whether repository creation may call the host CLI.
func (store *Store) UseHostCLI() bool {
	return store.Load().UseHostCLI
}

// SetUseHostCLI persists the host CLI toggle.
func (store *Store) SetUseHostCLI(enabled bool) error {
	manifest := store.Load()
	manifest.UseHostCLI = enabled
	if saveError := store.Save(manifest); saveError != nil {
		return saveError
	}

	store.logger.Debug(manifestHostToggleChangedMessageConstant, zap.Bool(logFieldUseHostCLIConstant, enabled))
	return nil
}
