package strategy_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gstree/internal/execshell"
	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/scratch"
	"github.com/temirov/gstree/internal/strategy"
)

const (
	integrationGitExecutableConstant     = "git"
	integrationBranchConstant            = "main"
	integrationPrefixConstant            = "packages/lib"
	integrationMissingPrefixConstant     = "packages/other"
	integrationUserNameConstant          = "Integration User"
	integrationUserEmailConstant         = "integration@example.com"
	integrationSeedFileConstant          = "README.md"
	integrationLibraryFileConstant       = "packages/lib/lib.go"
	integrationNewFileConstant           = "packages/lib/x.txt"
	integrationStaleFileConstant         = "packages/lib/stale.txt"
	integrationLibraryContentsConstant   = "package lib"
	integrationDirectoryModeConstant     = 0o755
	integrationSubtreeUsageConstant      = "git subtree"
	integrationCommitCountFlagConstant   = "--count"
	integrationRemoteDirectoryConstant   = "remote.git"
	integrationSeedDirectoryConstant     = "seed"
	integrationParentDirectoryConstant   = "parent"
	integrationScratchDirectoryConstant  = "scratch"
	integrationSeedCommitMessageConstant = "seed"
)

type gitIntegrationFixture struct {
	remotePath string
	parentPath string
	scratchDir string
	manager    *gitrepo.RepositoryManager
}

func requireGitExecutable(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(integrationGitExecutableConstant); lookupError != nil {
		testInstance.Skip("git executable not available")
	}
}

func requireGitSubtree(testInstance *testing.T) {
	testInstance.Helper()
	output, _ := exec.Command(integrationGitExecutableConstant, "subtree", "-h").CombinedOutput()
	if !strings.Contains(string(output), integrationSubtreeUsageConstant) {
		testInstance.Skip("git subtree not available")
	}
}

func runGitCommand(testInstance *testing.T, workingDirectory string, arguments ...string) string {
	testInstance.Helper()
	command := exec.Command(integrationGitExecutableConstant, arguments...)
	command.Dir = workingDirectory
	outputBytes, runError := command.CombinedOutput()
	require.NoError(testInstance, runError, string(outputBytes))
	return strings.TrimSpace(string(outputBytes))
}

// newGitIntegrationFixture creates a bare remote seeded with remoteFiles on
// main and a parent repository holding parentFiles in a single commit.
func newGitIntegrationFixture(testInstance *testing.T, remoteFiles map[string]string, parentFiles map[string]string) gitIntegrationFixture {
	testInstance.Helper()
	requireGitExecutable(testInstance)

	rootDirectory := testInstance.TempDir()
	testInstance.Setenv("HOME", rootDirectory)
	testInstance.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	testInstance.Setenv("GIT_AUTHOR_NAME", integrationUserNameConstant)
	testInstance.Setenv("GIT_AUTHOR_EMAIL", integrationUserEmailConstant)
	testInstance.Setenv("GIT_COMMITTER_NAME", integrationUserNameConstant)
	testInstance.Setenv("GIT_COMMITTER_EMAIL", integrationUserEmailConstant)

	remotePath := filepath.Join(rootDirectory, integrationRemoteDirectoryConstant)
	runGitCommand(testInstance, rootDirectory, "init", "--bare", "--initial-branch="+integrationBranchConstant, remotePath)

	seedPath := filepath.Join(rootDirectory, integrationSeedDirectoryConstant)
	runGitCommand(testInstance, rootDirectory, "init", "--initial-branch="+integrationBranchConstant, seedPath)
	require.NoError(testInstance, writeTree(seedPath, remoteFiles))
	runGitCommand(testInstance, seedPath, "add", "-A")
	runGitCommand(testInstance, seedPath, "commit", "-m", integrationSeedCommitMessageConstant)
	runGitCommand(testInstance, seedPath, "push", remotePath, integrationBranchConstant)

	parentPath := filepath.Join(rootDirectory, integrationParentDirectoryConstant)
	runGitCommand(testInstance, rootDirectory, "init", "--initial-branch="+integrationBranchConstant, parentPath)
	require.NoError(testInstance, writeTree(parentPath, parentFiles))
	runGitCommand(testInstance, parentPath, "add", "-A")
	runGitCommand(testInstance, parentPath, "commit", "-m", integrationSeedCommitMessageConstant)

	executor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunnerWithWriters(nil, nil), false)
	require.NoError(testInstance, executorError)
	manager, managerError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, managerError)

	scratchDirectory := filepath.Join(rootDirectory, integrationScratchDirectoryConstant)
	require.NoError(testInstance, os.Mkdir(scratchDirectory, integrationDirectoryModeConstant))

	return gitIntegrationFixture{remotePath: remotePath, parentPath: parentPath, scratchDir: scratchDirectory, manager: manager}
}

func (fixture gitIntegrationFixture) strategyFor(testInstance *testing.T, mode manifest.Mode) strategy.Strategy {
	testInstance.Helper()
	selector, selectorError := strategy.NewSelector(strategy.Dependencies{
		VersionControl:   fixture.manager,
		Scratch:          scratch.NewAllocator(fixture.scratchDir, zap.NewNop()),
		Logger:           zap.NewNop(),
		WorkingDirectory: fixture.parentPath,
	})
	require.NoError(testInstance, selectorError)
	selected, modeError := selector.ForMode(mode)
	require.NoError(testInstance, modeError)
	return selected
}

func (fixture gitIntegrationFixture) mapping(mode manifest.Mode, prefix string) manifest.Mapping {
	return manifest.Mapping{
		Name:   testMappingNameConstant,
		Remote: fixture.remotePath,
		Prefix: prefix,
		Branch: integrationBranchConstant,
		Mode:   mode,
	}
}

func (fixture gitIntegrationFixture) remoteCommitCount(testInstance *testing.T) string {
	testInstance.Helper()
	return runGitCommand(testInstance, fixture.remotePath, "rev-list", integrationCommitCountFlagConstant, integrationBranchConstant)
}

func TestCopyPushAgainstGitRemote(testInstance *testing.T) {
	fixture := newGitIntegrationFixture(testInstance,
		map[string]string{
			integrationSeedFileConstant:    "remote readme",
			integrationLibraryFileConstant: integrationLibraryContentsConstant,
		},
		map[string]string{
			integrationSeedFileConstant:    "parent readme",
			integrationLibraryFileConstant: integrationLibraryContentsConstant,
		},
	)
	copyStrategy := fixture.strategyFor(testInstance, manifest.ModeCopy)
	mapping := fixture.mapping(manifest.ModeCopy, integrationPrefixConstant)

	unchangedResult, unchangedError := copyStrategy.Push(context.Background(), mapping)
	require.NoError(testInstance, unchangedError)
	require.Equal(testInstance, strategy.OutcomeUnchanged, unchangedResult.Outcome)
	require.Equal(testInstance, "1", fixture.remoteCommitCount(testInstance))

	require.NoError(testInstance, writeTree(fixture.parentPath, map[string]string{integrationNewFileConstant: "new"}))

	pushedResult, pushError := copyStrategy.Push(context.Background(), mapping)
	require.NoError(testInstance, pushError)
	require.Equal(testInstance, strategy.OutcomeSynchronized, pushedResult.Outcome)
	require.Equal(testInstance, "2", fixture.remoteCommitCount(testInstance))

	changedFiles := runGitCommand(testInstance, fixture.remotePath, "diff-tree", "--no-commit-id", "--name-only", "-r", integrationBranchConstant)
	require.Equal(testInstance, integrationNewFileConstant, changedFiles)
	headMessage := runGitCommand(testInstance, fixture.remotePath, "log", "-1", "--format=%s", integrationBranchConstant)
	require.Equal(testInstance, strategy.SyncMessage([]string{integrationPrefixConstant}), headMessage)
	require.Equal(testInstance, "remote readme", runGitCommand(testInstance, fixture.remotePath, "show", integrationBranchConstant+":"+integrationSeedFileConstant))
}

func TestCopyPullAgainstGitRemote(testInstance *testing.T) {
	fixture := newGitIntegrationFixture(testInstance,
		map[string]string{integrationLibraryFileConstant: "package lib // remote"},
		map[string]string{
			integrationSeedFileConstant:    "parent readme",
			integrationLibraryFileConstant: integrationLibraryContentsConstant,
			integrationStaleFileConstant:   "stale",
		},
	)
	prefixDirectory := filepath.Join(fixture.parentPath, filepath.FromSlash(integrationPrefixConstant))
	require.NoError(testInstance, os.Chmod(prefixDirectory, integrationDirectoryModeConstant))

	pullResult, pullError := fixture.strategyFor(testInstance, manifest.ModeCopy).Pull(context.Background(), fixture.mapping(manifest.ModeCopy, integrationPrefixConstant))
	require.NoError(testInstance, pullError)
	require.Equal(testInstance, strategy.OutcomeSynchronized, pullResult.Outcome)

	contents, readError := os.ReadFile(filepath.Join(prefixDirectory, "lib.go"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "package lib // remote", string(contents))
	require.NoFileExists(testInstance, filepath.Join(fixture.parentPath, filepath.FromSlash(integrationStaleFileConstant)))
	require.NoDirExists(testInstance, filepath.Join(prefixDirectory, ".git"))

	prefixInfo, statError := os.Stat(prefixDirectory)
	require.NoError(testInstance, statError)
	require.Equal(testInstance, os.FileMode(integrationDirectoryModeConstant), prefixInfo.Mode().Perm())

	parentEntries, listError := os.ReadDir(filepath.Dir(prefixDirectory))
	require.NoError(testInstance, listError)
	require.Len(testInstance, parentEntries, 1)
}

func TestSubtreePullAgainstGitRemoteClassifiesFailures(testInstance *testing.T) {
	testCases := []struct {
		name         string
		prefix       string
		dirtyFiles   map[string]string
		expectedKind error
	}{
		{
			name:         "dirty_working_tree",
			prefix:       integrationPrefixConstant,
			dirtyFiles:   map[string]string{integrationSeedFileConstant: "edited"},
			expectedKind: gitrepo.ErrLocalModifications,
		},
		{
			name:         "missing_prefix",
			prefix:       integrationMissingPrefixConstant,
			expectedKind: gitrepo.ErrSubtreeNotRegistered,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newGitIntegrationFixture(testInstance,
				map[string]string{"lib.go": integrationLibraryContentsConstant},
				map[string]string{
					integrationSeedFileConstant:    "parent readme",
					integrationLibraryFileConstant: integrationLibraryContentsConstant,
				},
			)
			requireGitSubtree(testInstance)
			require.NoError(testInstance, writeTree(fixture.parentPath, testCase.dirtyFiles))

			_, pullError := fixture.strategyFor(testInstance, manifest.ModeSubtree).Pull(context.Background(), fixture.mapping(manifest.ModeSubtree, testCase.prefix))
			require.ErrorIs(testInstance, pullError, testCase.expectedKind)

			var operationError gitrepo.OperationError
			require.ErrorAs(testInstance, pullError, &operationError)
			require.NotEmpty(testInstance, operationError.Diagnostic)
		})
	}
}
