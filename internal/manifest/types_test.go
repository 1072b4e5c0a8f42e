package manifest_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gstree/internal/manifest"
)

func TestParseMode(testInstance *testing.T) {
	testCases := []struct {
		name         string
		input        string
		expectedMode manifest.Mode
		expectError  bool
	}{
		{name: "empty_defaults_to_copy", input: "", expectedMode: manifest.ModeCopy},
		{name: "copy", input: "copy", expectedMode: manifest.ModeCopy},
		{name: "subtree_mixed_case", input: " Subtree ", expectedMode: manifest.ModeSubtree},
		{name: "unknown", input: "rsync", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			mode, parseError := manifest.ParseMode(testCase.input)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedMode, mode)
		})
	}
}

func TestMappingDecodingRejectsUnknownMode(testInstance *testing.T) {
	var mapping manifest.Mapping
	decodeError := json.Unmarshal([]byte(`{"name":"a","remote":"r","prefix":"p","branch":"main","mode":"mirror"}`), &mapping)
	require.Error(testInstance, decodeError)
}

func TestManifestDecodingTreatsUnknownModeAsCopy(testInstance *testing.T) {
	var document manifest.Manifest
	decodeError := json.Unmarshal([]byte(`{"subtrees":[{"name":"a","remote":"r","prefix":"p","branch":"main","mode":"mirror"},{"name":"b","remote":"r","prefix":"q","branch":"main","mode":"Subtree"}]}`), &document)
	require.NoError(testInstance, decodeError)

	require.True(testInstance, document.UseHostCLI)
	require.Len(testInstance, document.Subtrees, 2)
	require.Equal(testInstance, manifest.ModeCopy, document.Subtrees[0].Mode)
	require.Equal(testInstance, "p", document.Subtrees[0].Prefix)
	require.Equal(testInstance, manifest.ModeSubtree, document.Subtrees[1].Mode)
}

func TestMappingDefaults(testInstance *testing.T) {
	mapping := manifest.Mapping{Name: "docs", Remote: "r", Prefix: "docs"}

	require.Equal(testInstance, manifest.DefaultBranchName, mapping.EffectiveBranch())
	require.Equal(testInstance, manifest.ModeCopy, mapping.EffectiveMode())
	require.Equal(testInstance, []string{"docs"}, mapping.Prefixes())
	require.NoError(testInstance, mapping.Validate())
}

func TestNormalizePrefix(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "packages/studio", expected: "packages/studio"},
		{name: "trailing_slash", input: "packages/studio/", expected: "packages/studio"},
		{name: "leading_dot", input: "./packages/studio", expected: "packages/studio"},
		{name: "backslashes", input: "packages\\studio", expected: "packages/studio"},
		{name: "current_directory", input: ".", expected: ""},
		{name: "blank", input: "  ", expected: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, manifest.NormalizePrefix(testCase.input))
		})
	}
}

func TestManifestDeleteRemovesExactlyOneEntry(testInstance *testing.T) {
	document := manifest.DefaultManifest()
	document.Upsert(manifest.Mapping{Name: "a", Remote: "r", Prefix: "a"})
	document.Upsert(manifest.Mapping{Name: "b", Remote: "r", Prefix: "b"})
	document.Upsert(manifest.Mapping{Name: "c", Remote: "r", Prefix: "c"})

	require.True(testInstance, document.Delete("b"))
	require.Len(testInstance, document.Subtrees, 2)
	_, exists := document.Find("b")
	require.False(testInstance, exists)
	require.False(testInstance, document.Delete("b"))
	require.Len(testInstance, document.Subtrees, 2)
}
