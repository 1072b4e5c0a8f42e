package subtrees_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gstree/internal/githubcli"
	"github.com/temirov/gstree/internal/gitrepo"
	"github.com/temirov/gstree/internal/manifest"
	"github.com/temirov/gstree/internal/scratch"
	"github.com/temirov/gstree/internal/subtrees"
)

const (
	testRepositoryDirectoryNameConstant = "app"
	testStudioRepositoryNameConstant    = "app-packages-studio"
	testHostUserConstant                = "octocat"
	testHostOrganizationConstant        = "acme"
	testOriginRemoteConstant            = "git@github.com:acme/app.git"
	testInitialCommitMessageConstant    = "📦 NEW: initial commit"
	testStudioWebURLConstant            = "https://github.com/acme/app-packages-studio"
	testPromptedPathsConstant           = "packages/studio, packages/web"
)

type stubRepositoryHost struct {
	user                string
	organizations       []string
	ensureError         error
	defaultPrivate      bool
	calls               []string
	createdRepositories []string
	createdVisibilities []bool
}

func (host *stubRepositoryHost) EnsureAvailableAndAuthenticated(context.Context) error {
	host.calls = append(host.calls, "ensure")
	return host.ensureError
}

func (host *stubRepositoryHost) CurrentUser(context.Context) (string, error) {
	host.calls = append(host.calls, "user")
	return host.user, nil
}

func (host *stubRepositoryHost) Organizations(context.Context) []string {
	host.calls = append(host.calls, "organizations")
	return host.organizations
}

func (host *stubRepositoryHost) CreateRepository(_ context.Context, owner string, name string, private bool) error {
	host.calls = append(host.calls, "create")
	host.createdRepositories = append(host.createdRepositories, owner+"/"+name)
	host.createdVisibilities = append(host.createdVisibilities, private)
	return nil
}

func (host *stubRepositoryHost) DefaultVisibilityIsPrivate(context.Context, string) bool {
	host.calls = append(host.calls, "visibility")
	return host.defaultPrivate
}

type stubPrompter struct {
	pathsPrompted   int
	pathsInput      string
	repositoryName  string
	owner           string
	declined        bool
	pathsValidation error
	suggestedName   string
	ownerOptions    []subtrees.OwnerOption
	ownerInitial    string
	confirmedPlans  []subtrees.InitPlan
}

func (prompter *stubPrompter) Paths(validate func(input string) error) (string, error) {
	prompter.pathsPrompted++
	prompter.pathsValidation = validate(prompter.pathsInput)
	if prompter.pathsValidation != nil {
		return "", prompter.pathsValidation
	}
	return prompter.pathsInput, nil
}

func (prompter *stubPrompter) RepositoryName(suggested string, validate func(input string) error) (string, error) {
	prompter.suggestedName = suggested
	if len(prompter.repositoryName) > 0 {
		return prompter.repositoryName, validate(prompter.repositoryName)
	}
	return suggested, nil
}

func (prompter *stubPrompter) SelectOwner(options []subtrees.OwnerOption, initial string) (string, error) {
	prompter.ownerOptions = options
	prompter.ownerInitial = initial
	if len(prompter.owner) > 0 {
		return prompter.owner, nil
	}
	return initial, nil
}

func (prompter *stubPrompter) ConfirmPlan(plan subtrees.InitPlan) (bool, error) {
	prompter.confirmedPlans = append(prompter.confirmedPlans, plan)
	return !prompter.declined, nil
}

type initializerFixture struct {
	repositoryRoot string
	scratchRoot    string
	repositories   *stubRepositoryManager
	store          *manifest.Store
	host           *stubRepositoryHost
	prompter       *stubPrompter
}

func newInitializerFixture(testInstance *testing.T) *initializerFixture {
	testInstance.Helper()
	repositoryRoot := filepath.Join(testInstance.TempDir(), testRepositoryDirectoryNameConstant)
	writeTestFile(testInstance, filepath.Join(repositoryRoot, "packages", "studio", "index.ts"), "export const studio = true\n")
	writeTestFile(testInstance, filepath.Join(repositoryRoot, "packages", "studio", ".gitignore"), "dist/\n")
	writeTestFile(testInstance, filepath.Join(repositoryRoot, "packages", "studio", "dist", "bundle.js"), "built\n")
	writeTestFile(testInstance, filepath.Join(repositoryRoot, "packages", "web", "main.go"), "package main\n")

	repositories := newStubRepositoryManager(repositoryRoot)
	repositories.originURL = testOriginRemoteConstant

	return &initializerFixture{
		repositoryRoot: repositoryRoot,
		scratchRoot:    testInstance.TempDir(),
		repositories:   repositories,
		store:          manifest.NewStore(memfs.New(), manifest.DefaultFileName, nil),
		host: &stubRepositoryHost{
			user:           testHostUserConstant,
			organizations:  []string{testHostOrganizationConstant},
			defaultPrivate: true,
		},
		prompter: &stubPrompter{},
	}
}

func (fixture *initializerFixture) initializer(testInstance *testing.T) *subtrees.Initializer {
	testInstance.Helper()
	initializer, initializerError := subtrees.NewInitializer(subtrees.InitializerDependencies{
		Repositories:     fixture.repositories,
		Store:            fixture.store,
		Host:             fixture.host,
		Prompter:         fixture.prompter,
		Scratch:          scratch.NewAllocator(fixture.scratchRoot, zap.NewNop()),
		WorkingDirectory: fixture.repositoryRoot,
	})
	require.NoError(testInstance, initializerError)
	return initializer
}

func writeTestFile(testInstance *testing.T, filePath string, contents string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, os.WriteFile(filePath, []byte(contents), 0o644))
}

func requireScratchEmpty(testInstance *testing.T, scratchRoot string) {
	testInstance.Helper()
	entries, readError := os.ReadDir(scratchRoot)
	require.NoError(testInstance, readError)
	require.Empty(testInstance, entries)
}

func TestInitializeCopyModeCreatesRepository(testInstance *testing.T) {
	fixture := newInitializerFixture(testInstance)

	result, initError := fixture.initializer(testInstance).Initialize(context.Background(), subtrees.InitRequest{Paths: []string{"./packages/studio/"}})
	require.NoError(testInstance, initError)

	expectedRemote := "https://github.com/acme/app-packages-studio.git"
	expectedMapping := manifest.Mapping{
		Name:       testStudioNameConstant,
		Remote:     expectedRemote,
		Prefix:     testStudioPrefixConstant,
		PrefixList: []string{testStudioPrefixConstant},
		Branch:     testBranchNameConstant,
		Mode:       manifest.ModeCopy,
	}
	require.Equal(testInstance, expectedMapping, result.Mapping)
	require.Equal(testInstance, testStudioWebURLConstant, result.WebURL)

	require.Equal(testInstance, testStudioRepositoryNameConstant, fixture.prompter.suggestedName)
	require.Equal(testInstance, []subtrees.OwnerOption{{Login: testHostUserConstant, Personal: true}, {Login: testHostOrganizationConstant}}, fixture.prompter.ownerOptions)
	require.Equal(testInstance, testHostOrganizationConstant, fixture.prompter.ownerInitial)
	require.Len(testInstance, fixture.prompter.confirmedPlans, 1)
	require.True(testInstance, fixture.prompter.confirmedPlans[0].CreateRepository)

	require.Equal(testInstance, []string{"acme/app-packages-studio"}, fixture.host.createdRepositories)
	require.Equal(testInstance, []bool{true}, fixture.host.createdVisibilities)

	require.Equal(testInstance, []string{testInitialCommitMessageConstant}, fixture.repositories.commitMessages)
	publishedFiles := fixture.repositories.commitSnapshots[0]
	require.Contains(testInstance, publishedFiles, "packages/studio/index.ts")
	require.Contains(testInstance, publishedFiles, "packages/studio/.gitignore")
	require.NotContains(testInstance, publishedFiles, "packages/studio/dist/bundle.js")
	require.NotContains(testInstance, publishedFiles, "packages/web/main.go")

	require.Equal(testInstance, []string{testBranchNameConstant}, fixture.repositories.renamedBranches)
	require.Equal(testInstance, []string{"origin " + expectedRemote}, fixture.repositories.addedRemotes)
	require.Equal(testInstance, []string{"origin " + testBranchNameConstant}, fixture.repositories.upstreamBranches)
	require.Empty(testInstance, fixture.repositories.subtreeRequests)

	storedMapping, found := fixture.store.Find(testStudioNameConstant)
	require.True(testInstance, found)
	require.Equal(testInstance, expectedMapping, storedMapping)

	_, statError := os.Stat(filepath.Join(fixture.repositoryRoot, "packages", "studio", "index.ts"))
	require.NoError(testInstance, statError)
	requireScratchEmpty(testInstance, fixture.scratchRoot)
}

func TestInitializePromptsForMultiplePaths(testInstance *testing.T) {
	fixture := newInitializerFixture(testInstance)
	fixture.prompter.pathsInput = testPromptedPathsConstant
	fixture.prompter.owner = testHostUserConstant

	result, initError := fixture.initializer(testInstance).Initialize(context.Background(), subtrees.InitRequest{Visibility: subtrees.VisibilityPublic})
	require.NoError(testInstance, initError)
	require.NoError(testInstance, fixture.prompter.pathsValidation)

	require.Equal(testInstance, "studio-web", result.Mapping.Name)
	require.Equal(testInstance, []string{testStudioPrefixConstant, testWebPrefixConstant}, result.Mapping.PrefixList)
	require.Equal(testInstance, "app-packages-studio-packages-web", fixture.prompter.suggestedName)
	require.Equal(testInstance, []string{"octocat/app-packages-studio-packages-web"}, fixture.host.createdRepositories)
	require.Equal(testInstance, []bool{false}, fixture.host.createdVisibilities)
	require.NotContains(testInstance, fixture.host.calls, "visibility")

	publishedFiles := fixture.repositories.commitSnapshots[0]
	require.Contains(testInstance, publishedFiles, "packages/studio/index.ts")
	require.Contains(testInstance, publishedFiles, "packages/web/main.go")
}

func TestInitializeSubtreeModeReplacesDirectory(testInstance *testing.T) {
	fixture := newInitializerFixture(testInstance)
	fixture.repositories.status = "D  packages/web/main.go"

	result, initError := fixture.initializer(testInstance).Initialize(context.Background(), subtrees.InitRequest{
		Paths:          []string{testWebPrefixConstant},
		Mode:           manifest.ModeSubtree,
		RepositoryName: testWebNameConstant,
		RemoteURL:      testWebRemoteConstant,
	})
	require.NoError(testInstance, initError)

	require.Equal(testInstance, manifest.Mapping{Name: testWebNameConstant, Remote: testWebRemoteConstant, Prefix: testWebPrefixConstant, Branch: testBranchNameConstant, Mode: manifest.ModeSubtree}, result.Mapping)
	require.Empty(testInstance, fixture.host.calls)
	require.False(testInstance, fixture.prompter.confirmedPlans[0].CreateRepository)
	require.Equal(testInstance, testHostOrganizationConstant, fixture.prompter.confirmedPlans[0].Owner)

	require.Equal(testInstance, []string{testInitialCommitMessageConstant, "📦 NEW: web subtree"}, fixture.repositories.commitMessages)
	require.Contains(testInstance, fixture.repositories.commitSnapshots[0], "main.go")
	require.Equal(testInstance, fixture.repositories.repositoryRoot, fixture.repositories.commitDirectories[1])
	require.Equal(testInstance, []gitrepo.SubtreeRequest{{Prefix: testWebPrefixConstant, RemoteURL: "https://github.com/acme/web.git", Branch: testBranchNameConstant}}, fixture.repositories.subtreeRequests)

	_, statError := os.Stat(filepath.Join(fixture.repositoryRoot, "packages", "web"))
	require.True(testInstance, os.IsNotExist(statError))
	requireScratchEmpty(testInstance, fixture.scratchRoot)
}

func TestInitializeRejectsBeforeCreatingRepository(testInstance *testing.T) {
	testCases := []struct {
		name              string
		request           subtrees.InitRequest
		configure         func(testInstance *testing.T, fixture *initializerFixture)
		expectedError     error
		expectPathError   bool
		expectedHostCalls []string
	}{
		{
			name:              "subtree_with_multiple_paths",
			request:           subtrees.InitRequest{Paths: []string{testStudioPrefixConstant, testWebPrefixConstant}, Mode: manifest.ModeSubtree},
			expectedError:     manifest.ErrSubtreeSinglePrefix,
			expectedHostCalls: []string{"ensure"},
		},
		{
			name:              "missing_path",
			request:           subtrees.InitRequest{Paths: []string{"packages/missing"}},
			expectPathError:   true,
			expectedHostCalls: []string{"ensure"},
		},
		{
			name:    "mapping_already_tracked",
			request: subtrees.InitRequest{Paths: []string{testStudioPrefixConstant}},
			configure: func(testInstance *testing.T, fixture *initializerFixture) {
				require.NoError(testInstance, fixture.store.Upsert(studioMapping()))
			},
			expectedError:     subtrees.ErrMappingAlreadyExists,
			expectedHostCalls: []string{"ensure"},
		},
		{
			name:              "invalid_repository_name",
			request:           subtrees.InitRequest{Paths: []string{testStudioPrefixConstant}, RepositoryName: "bad name"},
			expectedError:     subtrees.ErrInvalidRepositoryName,
			expectedHostCalls: []string{"ensure"},
		},
		{
			name:    "host_disabled_without_remote",
			request: subtrees.InitRequest{Paths: []string{testStudioPrefixConstant}},
			configure: func(testInstance *testing.T, fixture *initializerFixture) {
				require.NoError(testInstance, fixture.store.SetUseHostCLI(false))
			},
			expectedError: subtrees.ErrRemoteRequired,
		},
		{
			name:    "host_unavailable",
			request: subtrees.InitRequest{Paths: []string{testStudioPrefixConstant}},
			configure: func(_ *testing.T, fixture *initializerFixture) {
				fixture.host.ensureError = githubcli.HostError{Kind: githubcli.ErrHostUnavailable}
			},
			expectedError:     githubcli.ErrHostUnavailable,
			expectedHostCalls: []string{"ensure"},
		},
		{
			name:    "plan_declined",
			request: subtrees.InitRequest{Paths: []string{testStudioPrefixConstant}},
			configure: func(_ *testing.T, fixture *initializerFixture) {
				fixture.prompter.declined = true
			},
			expectedError:     subtrees.ErrInitCancelled,
			expectedHostCalls: []string{"ensure", "user", "organizations", "visibility"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newInitializerFixture(testInstance)
			if testCase.configure != nil {
				testCase.configure(testInstance, fixture)
			}

			_, initError := fixture.initializer(testInstance).Initialize(context.Background(), testCase.request)
			require.Error(testInstance, initError)
			if testCase.expectPathError {
				var pathError subtrees.PathNotFoundError
				require.True(testInstance, errors.As(initError, &pathError))
				require.Equal(testInstance, "packages/missing", pathError.Path)
			} else {
				require.ErrorIs(testInstance, initError, testCase.expectedError)
			}

			require.Equal(testInstance, testCase.expectedHostCalls, fixture.host.calls)
			require.Empty(testInstance, fixture.host.createdRepositories)
			require.NotContains(testInstance, fixture.repositories.calls, "init")
			require.Empty(testInstance, fixture.repositories.commitMessages)
			requireScratchEmpty(testInstance, fixture.scratchRoot)
		})
	}
}

func TestInitializeChecksHostBeforePrompting(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configure     func(testInstance *testing.T, fixture *initializerFixture)
		expectedError error
	}{
		{
			name: "host_unauthenticated",
			configure: func(_ *testing.T, fixture *initializerFixture) {
				fixture.host.ensureError = githubcli.HostError{Kind: githubcli.ErrHostUnauthenticated}
			},
			expectedError: githubcli.ErrHostUnauthenticated,
		},
		{
			name: "host_disabled_without_remote",
			configure: func(testInstance *testing.T, fixture *initializerFixture) {
				require.NoError(testInstance, fixture.store.SetUseHostCLI(false))
			},
			expectedError: subtrees.ErrRemoteRequired,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newInitializerFixture(testInstance)
			fixture.prompter.pathsInput = testPromptedPathsConstant
			testCase.configure(testInstance, fixture)

			_, initError := fixture.initializer(testInstance).Initialize(context.Background(), subtrees.InitRequest{})
			require.ErrorIs(testInstance, initError, testCase.expectedError)

			require.Zero(testInstance, fixture.prompter.pathsPrompted)
			require.Empty(testInstance, fixture.prompter.suggestedName)
			require.Nil(testInstance, fixture.prompter.ownerOptions)
			require.Empty(testInstance, fixture.prompter.confirmedPlans)
		})
	}
}

func TestInitializeRequiresRepository(testInstance *testing.T) {
	fixture := newInitializerFixture(testInstance)
	fixture.repositories.notRepository = true

	_, initError := fixture.initializer(testInstance).Initialize(context.Background(), subtrees.InitRequest{Paths: []string{testStudioPrefixConstant}})
	require.ErrorIs(testInstance, initError, subtrees.ErrNotARepository)
}

func TestRepositoryNaming(testInstance *testing.T) {
	testCases := []struct {
		name                   string
		paths                  []string
		expectedMappingName    string
		expectedRepositoryName string
	}{
		{name: "single_path", paths: []string{testStudioPrefixConstant}, expectedMappingName: "studio", expectedRepositoryName: "app-packages-studio"},
		{name: "multiple_paths", paths: []string{"docs", "packages/web"}, expectedMappingName: "docs-web", expectedRepositoryName: "app-docs-packages-web"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedMappingName, subtrees.MappingNameForPaths(testCase.paths))
			require.Equal(testInstance, testCase.expectedRepositoryName, subtrees.RepositoryNameForPaths("/workspace/app", testCase.paths))
		})
	}

	require.NoError(testInstance, subtrees.ValidateRepositoryName("app-packages_studio.v2"))
	require.ErrorIs(testInstance, subtrees.ValidateRepositoryName("app/studio"), subtrees.ErrInvalidRepositoryName)
}
