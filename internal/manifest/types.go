package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	// DefaultBranchName is used when a mapping does not declare a branch.
	DefaultBranchName = "main"

	modeCopyStringConstant                   = "copy"
	modeSubtreeStringConstant                = "subtree"
	unknownModeTemplateConstant              = "unknown mapping mode %q (expected copy or subtree)"
	mappingNameRequiredMessageConstant       = "mapping name required"
	mappingRemoteRequiredMessageConstant     = "mapping remote required"
	mappingPrefixRequiredMessageConstant     = "mapping prefix required"
	mappingPrefixListMismatchMessageConstant = "first entry of prefixes must match prefix"
	subtreeSinglePrefixMessageConstant       = "subtree mode supports exactly one prefix"
	invalidMappingTemplateConstant           = "mapping %q: %w"
	currentDirectoryPrefixConstant           = "./"
	currentDirectoryConstant                 = "."
	pathSeparatorConstant                    = "/"
	windowsPathSeparatorConstant             = "\\"
)

// Mode selects the synchronization strategy of a mapping.
type Mode string

// Supported modes.
const (
	ModeCopy    Mode = Mode(modeCopyStringConstant)
	ModeSubtree Mode = Mode(modeSubtreeStringConstant)
)

var (
	// ErrMappingNameRequired indicates a mapping without a name.
	ErrMappingNameRequired = errors.New(mappingNameRequiredMessageConstant)
	// ErrMappingRemoteRequired indicates a mapping without a remote URL.
	ErrMappingRemoteRequired = errors.New(mappingRemoteRequiredMessageConstant)
	// ErrMappingPrefixRequired indicates a mapping without a local prefix.
	ErrMappingPrefixRequired = errors.New(mappingPrefixRequiredMessageConstant)
	// ErrSubtreeSinglePrefix indicates a subtree mapping that lists more than one prefix.
	ErrSubtreeSinglePrefix = errors.New(subtreeSinglePrefixMessageConstant)
	// ErrPrefixListMismatch indicates a prefix list whose first entry differs from Prefix.
	ErrPrefixListMismatch = errors.New(mappingPrefixListMismatchMessageConstant)
)

// ParseMode converts textual input into a Mode. Empty input yields ModeCopy.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", modeCopyStringConstant:
		return ModeCopy, nil
	case modeSubtreeStringConstant:
		return ModeSubtree, nil
	default:
		return "", fmt.Errorf(unknownModeTemplateConstant, value)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (mode *Mode) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*mode = ""
		return nil
	}
	parsedMode, parseError := ParseMode(string(text))
	if parseError != nil {
		return parseError
	}
	*mode = parsedMode
	return nil
}

// String returns the textual mode.
func (mode Mode) String() string {
	return string(mode)
}

// Mapping associates one or more local directories with a remote repository branch.
type Mapping struct {
	Name       string   `json:"name"`
	Remote     string   `json:"remote"`
	Prefix     string   `json:"prefix"`
	PrefixList []string `json:"prefixes,omitempty"`
	Branch     string   `json:"branch"`
	Mode       Mode     `json:"mode,omitempty"`
}

// Prefixes returns the ordered local directories of the mapping.
func (mapping Mapping) Prefixes() []string {
	if len(mapping.PrefixList) == 0 {
		return []string{mapping.Prefix}
	}
	return append([]string{}, mapping.PrefixList...)
}

// EffectiveBranch returns the configured branch or DefaultBranchName.
func (mapping Mapping) EffectiveBranch() string {
	trimmedBranch := strings.TrimSpace(mapping.Branch)
	if len(trimmedBranch) == 0 {
		return DefaultBranchName
	}
	return trimmedBranch
}

// EffectiveMode returns the stored mode, treating an absent mode as ModeCopy.
func (mapping Mapping) EffectiveMode() Mode {
	if mapping.Mode == ModeSubtree {
		return ModeSubtree
	}
	return ModeCopy
}

// Validate checks the structural invariants of the mapping.
func (mapping Mapping) Validate() error {
	if len(strings.TrimSpace(mapping.Name)) == 0 {
		return ErrMappingNameRequired
	}
	if len(strings.TrimSpace(mapping.Remote)) == 0 {
		return fmt.Errorf(invalidMappingTemplateConstant, mapping.Name, ErrMappingRemoteRequired)
	}
	if len(strings.TrimSpace(mapping.Prefix)) == 0 {
		return fmt.Errorf(invalidMappingTemplateConstant, mapping.Name, ErrMappingPrefixRequired)
	}
	for _, prefix := range mapping.PrefixList {
		if len(strings.TrimSpace(prefix)) == 0 {
			return fmt.Errorf(invalidMappingTemplateConstant, mapping.Name, ErrMappingPrefixRequired)
		}
	}
	if len(mapping.PrefixList) > 0 && mapping.PrefixList[0] != mapping.Prefix {
		return fmt.Errorf(invalidMappingTemplateConstant, mapping.Name, ErrPrefixListMismatch)
	}
	if mapping.EffectiveMode() == ModeSubtree && len(mapping.Prefixes()) != 1 {
		return fmt.Errorf(invalidMappingTemplateConstant, mapping.Name, ErrSubtreeSinglePrefix)
	}
	return nil
}

// NormalizePrefix converts user supplied directory input into the slash separated,
// repository relative form stored in the manifest.
func NormalizePrefix(prefix string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(prefix), windowsPathSeparatorConstant, pathSeparatorConstant)
	if len(normalized) == 0 {
		return ""
	}
	normalized = path.Clean(normalized)
	normalized = strings.TrimPrefix(normalized, currentDirectoryPrefixConstant)
	normalized = strings.TrimPrefix(normalized, pathSeparatorConstant)
	if normalized == currentDirectoryConstant {
		return ""
	}
	return normalized
}

// Manifest is the persisted state of the tool.
type Manifest struct {
	UseHostCLI bool      `json:"useHostCli"`
	Subtrees   []Mapping `json:"subtrees"`
}

// DefaultManifest returns the manifest used when nothing has been persisted.
func DefaultManifest() Manifest {
	return Manifest{UseHostCLI: true, Subtrees: []Mapping{}}
}

type manifestDocument struct {
	UseHostCLI       *bool             `json:"useHostCli"`
	LegacyUseHostCLI *bool             `json:"useGhCli"`
	Subtrees         []mappingDocument `json:"subtrees"`
}

// mappingDocument reads the mode as plain text so an unrecognized mode
// affects only its own mapping.
type mappingDocument struct {
	Mapping
	Mode string `json:"mode"`
}

// UnmarshalJSON decodes the manifest, applying defaults and accepting the legacy useGhCli key.
// A mapping with an unrecognized mode is kept and treated as ModeCopy.
func (manifest *Manifest) UnmarshalJSON(data []byte) error {
	decoded, _, decodeError := decodeManifest(data)
	if decodeError != nil {
		return decodeError
	}
	*manifest = decoded
	return nil
}

// decodeManifest returns the manifest together with the names of mappings
// whose mode was not recognized.
func decodeManifest(data []byte) (Manifest, []string, error) {
	var document manifestDocument
	if decodeError := json.Unmarshal(data, &document); decodeError != nil {
		return Manifest{}, nil, decodeError
	}

	decoded := DefaultManifest()
	switch {
	case document.UseHostCLI != nil:
		decoded.UseHostCLI = *document.UseHostCLI
	case document.LegacyUseHostCLI != nil:
		decoded.UseHostCLI = *document.LegacyUseHostCLI
	}

	var unrecognizedModes []string
	if document.Subtrees != nil {
		decoded.Subtrees = make([]Mapping, 0, len(document.Subtrees))
		for _, entry := range document.Subtrees {
			mapping := entry.Mapping
			if parseError := mapping.Mode.UnmarshalText([]byte(entry.Mode)); parseError != nil {
				mapping.Mode = ModeCopy
				unrecognizedModes = append(unrecognizedModes, mapping.Name)
			}
			decoded.Subtrees = append(decoded.Subtrees, mapping)
		}
	}
	return decoded, unrecognizedModes, nil
}

// Find returns the mapping with the provided name.
func (manifest Manifest) Find(name string) (Mapping, bool) {
	for _, mapping := range manifest.Subtrees {
		if mapping.Name == name {
			return mapping, true
		}
	}
	return Mapping{}, false
}

// Upsert replaces the mapping with the same name in place or appends it.
func (manifest *Manifest) Upsert(mapping Mapping) {
	for index := range manifest.Subtrees {
		if manifest.Subtrees[index].Name == mapping.Name {
			manifest.Subtrees[index] = mapping
			return
		}
	}
	manifest.Subtrees = append(manifest.Subtrees, mapping)
}

// Delete removes the mapping with the provided name and reports whether one was removed.
func (manifest *Manifest) Delete(name string) bool {
	for index := range manifest.Subtrees {
		if manifest.Subtrees[index].Name == name {
			manifest.Subtrees = append(manifest.Subtrees[:index], manifest.Subtrees[index+1:]...)
			return true
		}
	}
	return false
}
