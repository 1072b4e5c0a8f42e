package docs_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gstree/cmd/cli"
	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	jsonFenceStartConstant           = "```json"
	fenceEndConstant                 = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	manifestMarkerConstant           = "\"subtrees\""
	readmeSnippetTemporaryPattern    = "readme-config-*.yaml"
	parentDirectoryReferenceConstant = ".."
	readmeEnvironmentPrefixConstant  = "GSTREE_README_TEST"
	missingMarkerMessageConstant     = "README example missing marker"
	missingStartFenceMessageConstant = "README example missing fence start"
	missingEndFenceMessageConstant   = "README example missing fence end"
	defaultTempDirectoryRootConstant = ""
)

func readReadme(testInstance *testing.T) string {
	testInstance.Helper()
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	contentBytes, readError := os.ReadFile(filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant))
	require.NoError(testInstance, readError)
	return string(contentBytes)
}

// fencedSnippet returns the body of the fenced block opened by fenceStart that contains marker.
func fencedSnippet(testInstance *testing.T, contentText string, fenceStart string, marker string) string {
	testInstance.Helper()
	markerIndex := strings.Index(contentText, marker)
	require.NotEqual(testInstance, -1, markerIndex, missingMarkerMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:markerIndex], fenceStart)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	fenceEndRelativeIndex := strings.Index(contentText[markerIndex:], fenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)

	return strings.TrimSpace(contentText[fenceStartIndex+len(fenceStart) : markerIndex+fenceEndRelativeIndex])
}

func TestReadmeConfigurationMatchesEmbeddedDefaults(testInstance *testing.T) {
	snippetContent := fencedSnippet(testInstance, readReadme(testInstance), yamlFenceStartConstant, configHeaderMarkerConstant)

	var readmeDocument map[string]any
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &readmeDocument))

	embeddedContent, _ := cli.EmbeddedDefaultConfiguration()
	var embeddedDocument map[string]any
	require.NoError(testInstance, yaml.Unmarshal(embeddedContent, &embeddedDocument))

	require.Equal(testInstance, embeddedDocument, readmeDocument)
}

func TestReadmeConfigurationLoads(testInstance *testing.T) {
	snippetContent := fencedSnippet(testInstance, readReadme(testInstance), yamlFenceStartConstant, configHeaderMarkerConstant)

	tempFile, tempFileError := os.CreateTemp(defaultTempDirectoryRootConstant, readmeSnippetTemporaryPattern)
	require.NoError(testInstance, tempFileError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, os.Remove(tempFile.Name()))
	})

	_, writeError := tempFile.WriteString(snippetContent)
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, tempFile.Close())

	loader := utils.NewConfigurationLoader("config", "yaml", readmeEnvironmentPrefixConstant, nil)
	var applicationConfiguration cli.ApplicationConfiguration
	_, loadError := loader.LoadConfiguration(tempFile.Name(), nil, &applicationConfiguration)
	require.NoError(testInstance, loadError)

	require.Equal(testInstance, manifest.ModeCopy, applicationConfiguration.Tools.Subtrees.DefaultMode)
	require.Equal(testInstance, gitrepo.RemoteProtocolHTTPS, applicationConfiguration.Tools.Subtrees.RemoteProtocol)
	require.Equal(testInstance, manifest.DefaultFileName, applicationConfiguration.Tools.Subtrees.ManifestFile)
}

func TestReadmeManifestExampleIsValid(testInstance *testing.T) {
	snippetContent := fencedSnippet(testInstance, readReadme(testInstance), jsonFenceStartConstant, manifestMarkerConstant)

	var document manifest.Manifest
	require.NoError(testInstance, json.Unmarshal([]byte(snippetContent), &document))
	require.True(testInstance, document.UseHostCLI)
	require.NotEmpty(testInstance, document.Subtrees)
	for _, mapping := range document.Subtrees {
		require.NoError(testInstance, mapping.Validate())
	}
}
