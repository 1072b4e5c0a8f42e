package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	subtreescmd "github.com/temirov/gstree/cmd/cli/subtrees"
	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
)

const (
	testConfigurationFileNameConstant      = "config.yaml"
	testConfigurationContentConstant       = "common:\n  log_level: info\ntools:\n  subtrees:\n    manifest_file: subtrees.json\n    remote_protocol: ssh\n    native_subtree_push: true\n"
	testDefaultModeEnvironmentNameConstant = "GSTREE_TOOLS_SUBTREES_DEFAULT_MODE"
)

func isolateConfiguration(t *testing.T) {
	t.Helper()
	temporaryHome := t.TempDir()
	t.Setenv("HOME", temporaryHome)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(temporaryHome, ".config"))
}

func TestInitializeConfigurationDefaults(t *testing.T) {
	isolateConfiguration(t)
	application := newApplication(subtreescmd.CommandBuilder{})

	require.NoError(t, application.initializeConfiguration(application.rootCommand))

	require.Equal(t, "error", application.configuration.Common.LogLevel)
	require.Equal(t, "console", application.configuration.Common.LogFormat)
	require.Empty(t, application.configuration.Common.LogFile)
	require.True(t, application.humanReadableLoggingEnabled())

	subtreesConfiguration := application.configuration.Tools.Subtrees
	require.Equal(t, ".gstree.json", subtreesConfiguration.ManifestFile)
	require.Equal(t, "main", subtreesConfiguration.DefaultBranch)
	require.Equal(t, manifest.ModeCopy, subtreesConfiguration.DefaultMode)
	require.Equal(t, gitrepo.RemoteProtocolHTTPS, subtreesConfiguration.RemoteProtocol)
	require.False(t, subtreesConfiguration.NativeSubtreePush)
}

func TestInitializeConfigurationSources(t *testing.T) {
	testCases := []struct {
		name        string
		environment map[string]string
		configFile  string
		logLevel    string
		verify      func(t *testing.T, configuration ApplicationConfiguration)
	}{
		{
			name:        "environment_override",
			environment: map[string]string{testDefaultModeEnvironmentNameConstant: "subtree"},
			verify: func(t *testing.T, configuration ApplicationConfiguration) {
				require.Equal(t, manifest.ModeSubtree, configuration.Tools.Subtrees.DefaultMode)
			},
		},
		{
			name:       "configuration_file",
			configFile: testConfigurationContentConstant,
			verify: func(t *testing.T, configuration ApplicationConfiguration) {
				require.Equal(t, "info", configuration.Common.LogLevel)
				require.Equal(t, "subtrees.json", configuration.Tools.Subtrees.ManifestFile)
				require.Equal(t, gitrepo.RemoteProtocolSSH, configuration.Tools.Subtrees.RemoteProtocol)
				require.True(t, configuration.Tools.Subtrees.NativeSubtreePush)
				require.Equal(t, "main", configuration.Tools.Subtrees.DefaultBranch)
			},
		},
		{
			name:       "log_level_flag_wins",
			configFile: testConfigurationContentConstant,
			logLevel:   "debug",
			verify: func(t *testing.T, configuration ApplicationConfiguration) {
				require.Equal(t, "debug", configuration.Common.LogLevel)
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			isolateConfiguration(t)
			for name, value := range testCase.environment {
				t.Setenv(name, value)
			}

			application := newApplication(subtreescmd.CommandBuilder{})
			if len(testCase.configFile) > 0 {
				configurationPath := filepath.Join(t.TempDir(), testConfigurationFileNameConstant)
				require.NoError(t, os.WriteFile(configurationPath, []byte(testCase.configFile), 0o644))
				application.configurationFilePath = configurationPath
			}
			if len(testCase.logLevel) > 0 {
				require.NoError(t, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, testCase.logLevel))
			}

			require.NoError(t, application.initializeConfiguration(application.rootCommand))
			testCase.verify(t, application.configuration)
		})
	}
}

func TestInitializeConfigurationRejectsUnknownMode(t *testing.T) {
	isolateConfiguration(t)
	t.Setenv(testDefaultModeEnvironmentNameConstant, "mirror")

	application := newApplication(subtreescmd.CommandBuilder{})
	initializationError := application.initializeConfiguration(application.rootCommand)
	require.ErrorContains(t, initializationError, "unknown mapping mode")
}

func TestInitializeConfigurationRejectsUnknownLogLevel(t *testing.T) {
	isolateConfiguration(t)
	application := newApplication(subtreescmd.CommandBuilder{})
	require.NoError(t, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "verbose"))

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.ErrorContains(t, initializationError, "unable to create logger")
}

func TestApplicationRegistersSubcommands(t *testing.T) {
	application := newApplication(subtreescmd.CommandBuilder{})

	registered := map[string]bool{}
	for _, command := range application.rootCommand.Commands() {
		registered[command.Name()] = true
		for _, alias := range command.Aliases {
			registered[alias] = true
		}
	}

	for _, name := range []string{"init", "add", "pull", "push", "sync", "save", "s", "commit", "c", "status", "st", "list", "ls", "remove", "rm"} {
		require.True(t, registered[name], name)
	}
	for _, flagName := range []string{configFileFlagNameConstant, logLevelFlagNameConstant, logFormatFlagNameConstant} {
		require.NotNil(t, application.rootCommand.PersistentFlags().Lookup(flagName), flagName)
	}
}

func TestApplicationVersionFlagPrintsVersion(t *testing.T) {
	application := newApplication(subtreescmd.CommandBuilder{})

	output := &bytes.Buffer{}
	application.rootCommand.SetOut(output)
	application.rootCommand.SetArgs([]string{"--version"})

	require.NoError(t, application.Execute())
	require.Equal(t, "gst version: dev\n", output.String())
}
