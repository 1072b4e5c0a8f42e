package subtrees

import (
	"fmt"
	"strings"

	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
)

const (
	configurationManifestFileKeyConstant      = "manifest_file"
	configurationDefaultBranchKeyConstant     = "default_branch"
	configurationDefaultModeKeyConstant       = "default_mode"
	configurationScratchRootKeyConstant       = "scratch_root"
	configurationRemoteProtocolKeyConstant    = "remote_protocol"
	configurationNativeSubtreePushKeyConstant = "native_subtree_push"
	configurationKeySeparatorConstant         = "."
	unsupportedRemoteProtocolTemplateConstant = "unsupported remote protocol %q (expected https or ssh)"
)

// CommandConfiguration captures the persisted settings shared by every gst command.
type CommandConfiguration struct {
	ManifestFile      string                 `mapstructure:"manifest_file"`
	DefaultBranch     string                 `mapstructure:"default_branch"`
	DefaultMode       manifest.Mode          `mapstructure:"default_mode"`
	ScratchRoot       string                 `mapstructure:"scratch_root"`
	RemoteProtocol    gitrepo.RemoteProtocol `mapstructure:"remote_protocol"`
	NativeSubtreePush bool                   `mapstructure:"native_subtree_push"`
}

// DefaultCommandConfiguration returns the settings used when nothing is configured.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		ManifestFile:   manifest.DefaultFileName,
		DefaultBranch:  manifest.DefaultBranchName,
		DefaultMode:    manifest.ModeCopy,
		RemoteProtocol: gitrepo.RemoteProtocolHTTPS,
	}
}

// DefaultConfigurationValues exposes the defaults keyed beneath rootKey for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationManifestFileKeyConstant:      defaults.ManifestFile,
		rootKey + configurationKeySeparatorConstant + configurationDefaultBranchKeyConstant:     defaults.DefaultBranch,
		rootKey + configurationKeySeparatorConstant + configurationDefaultModeKeyConstant:       string(defaults.DefaultMode),
		rootKey + configurationKeySeparatorConstant + configurationScratchRootKeyConstant:       defaults.ScratchRoot,
		rootKey + configurationKeySeparatorConstant + configurationRemoteProtocolKeyConstant:    string(defaults.RemoteProtocol),
		rootKey + configurationKeySeparatorConstant + configurationNativeSubtreePushKeyConstant: defaults.NativeSubtreePush,
	}
}

// sanitize trims values and restores defaults for blank settings.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.ManifestFile = strings.TrimSpace(configuration.ManifestFile)
	if len(sanitized.ManifestFile) == 0 {
		sanitized.ManifestFile = defaults.ManifestFile
	}
	sanitized.DefaultBranch = strings.TrimSpace(configuration.DefaultBranch)
	if len(sanitized.DefaultBranch) == 0 {
		sanitized.DefaultBranch = defaults.DefaultBranch
	}
	if len(sanitized.DefaultMode) == 0 {
		sanitized.DefaultMode = defaults.DefaultMode
	}
	sanitized.ScratchRoot = strings.TrimSpace(configuration.ScratchRoot)
	sanitized.RemoteProtocol = gitrepo.RemoteProtocol(strings.ToLower(strings.TrimSpace(string(configuration.RemoteProtocol))))
	if len(sanitized.RemoteProtocol) == 0 {
		sanitized.RemoteProtocol = defaults.RemoteProtocol
	}
	return sanitized
}

func (configuration CommandConfiguration) validate() error {
	switch configuration.RemoteProtocol {
	case gitrepo.RemoteProtocolHTTPS, gitrepo.RemoteProtocolSSH:
		return nil
	default:
		return fmt.Errorf(unsupportedRemoteProtocolTemplateConstant, configuration.RemoteProtocol)
	}
}
