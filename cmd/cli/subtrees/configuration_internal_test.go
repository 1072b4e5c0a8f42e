package subtrees

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
)

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    CommandConfiguration
		expected CommandConfiguration
	}{
		{
			name:     "blank_values_restore_defaults",
			input:    CommandConfiguration{ManifestFile: "  ", DefaultBranch: "", RemoteProtocol: " "},
			expected: DefaultCommandConfiguration(),
		},
		{
			name: "values_are_trimmed",
			input: CommandConfiguration{
				ManifestFile:      " subtrees.json ",
				DefaultBranch:     " trunk ",
				DefaultMode:       manifest.ModeSubtree,
				ScratchRoot:       " ~/scratch ",
				RemoteProtocol:    " SSH ",
				NativeSubtreePush: true,
			},
			expected: CommandConfiguration{
				ManifestFile:      "subtrees.json",
				DefaultBranch:     "trunk",
				DefaultMode:       manifest.ModeSubtree,
				ScratchRoot:       "~/scratch",
				RemoteProtocol:    gitrepo.RemoteProtocolSSH,
				NativeSubtreePush: true,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, testCase.input.sanitize())
		})
	}
}

func TestCommandConfigurationValidate(testInstance *testing.T) {
	require.NoError(testInstance, DefaultCommandConfiguration().validate())
	require.NoError(testInstance, CommandConfiguration{RemoteProtocol: gitrepo.RemoteProtocolSSH}.validate())
	require.EqualError(testInstance, CommandConfiguration{RemoteProtocol: "ftp"}.validate(), "unsupported remote protocol \"ftp\" (expected https or ssh)")
}

func TestDefaultConfigurationValues(testInstance *testing.T) {
	values := DefaultConfigurationValues("tools.subtrees")
	require.Equal(testInstance, map[string]any{
		"tools.subtrees.manifest_file":       manifest.DefaultFileName,
		"tools.subtrees.default_branch":      "main",
		"tools.subtrees.default_mode":        "copy",
		"tools.subtrees.scratch_root":        "",
		"tools.subtrees.remote_protocol":     "https",
		"tools.subtrees.native_subtree_push": false,
	}, values)
}

func TestSplitPathArguments(testInstance *testing.T) {
	require.Equal(testInstance, []string{"packages/studio", "packages/web", "shared"}, splitPathArguments([]string{"packages/studio, packages/web", "shared", " , "}))
	require.Nil(testInstance, splitPathArguments(nil))
}
