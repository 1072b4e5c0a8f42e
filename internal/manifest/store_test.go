package manifest_test

import (
	"errors"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gstree/internal/manifest"
)

const (
	testStudioMappingNameConstant   = "studio"
	testStudioRemoteConstant        = "git@github.com:org/studio.git"
	testStudioPrefixConstant        = "packages/studio"
	testLibraryMappingNameConstant  = "library"
	testLibraryRemoteConstant       = "https://github.com/org/library.git"
	testLibraryPrefixConstant       = "lib"
	testMissingMappingNameConstant  = "absent"
	testMalformedManifestConstant   = "{not json"
	testLegacyManifestConstant      = `{"useGhCli": false, "subtrees": [{"name": "studio", "remote": "git@github.com:org/studio.git", "prefix": "packages/studio", "branch": "main"}]}`
	testExpectedSavedJSONConstant   = "{\n  \"useHostCli\": true,\n  \"subtrees\": [\n    {\n      \"name\": \"studio\",\n      \"remote\": \"git@github.com:org/studio.git\",\n      \"prefix\": \"packages/studio\",\n      \"branch\": \"main\",\n      \"mode\": \"copy\"\n    }\n  ]\n}\n"
	testWriteFailureMessageConstant = "read-only filesystem"
	testUnknownModeManifestConstant = `{"useHostCli": true, "subtrees": [{"name": "studio", "remote": "git@github.com:org/studio.git", "prefix": "packages/studio", "branch": "main", "mode": "mirror"}, {"name": "library", "remote": "https://github.com/org/library.git", "prefix": "lib", "branch": "main", "mode": "subtree"}]}`
)

type failingWriteFilesystem struct {
	billy.Filesystem
}

func (filesystem failingWriteFilesystem) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		return nil, errors.New(testWriteFailureMessageConstant)
	}
	return filesystem.Filesystem.OpenFile(filename, flag, perm)
}

func studioMapping() manifest.Mapping {
	return manifest.Mapping{
		Name:   testStudioMappingNameConstant,
		Remote: testStudioRemoteConstant,
		Prefix: testStudioPrefixConstant,
		Branch: manifest.DefaultBranchName,
		Mode:   manifest.ModeCopy,
	}
}

func libraryMapping() manifest.Mapping {
	return manifest.Mapping{
		Name:   testLibraryMappingNameConstant,
		Remote: testLibraryRemoteConstant,
		Prefix: testLibraryPrefixConstant,
		Branch: manifest.DefaultBranchName,
		Mode:   manifest.ModeSubtree,
	}
}

func TestStoreLoadReturnsDefaults(testInstance *testing.T) {
	testCases := []struct {
		name            string
		fileContents    string
		writeFile       bool
		expectWarning   bool
		expectedDefault manifest.Manifest
	}{
		{
			name:            "missing_file",
			expectedDefault: manifest.DefaultManifest(),
		},
		{
			name:            "malformed_file",
			fileContents:    testMalformedManifestConstant,
			writeFile:       true,
			expectWarning:   true,
			expectedDefault: manifest.DefaultManifest(),
		},
		{
			name:            "null_subtrees",
			fileContents:    `{"subtrees": null}`,
			writeFile:       true,
			expectedDefault: manifest.DefaultManifest(),
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			filesystem := memfs.New()
			if testCase.writeFile {
				require.NoError(testInstance, util.WriteFile(filesystem, manifest.DefaultFileName, []byte(testCase.fileContents), 0o644))
			}

			observerCore, observerLogs := observer.New(zap.DebugLevel)
			store := manifest.NewStore(filesystem, "", zap.New(observerCore))

			loaded := store.Load()
			require.Equal(testInstance, testCase.expectedDefault, loaded)
			require.True(testInstance, loaded.UseHostCLI)
			require.NotNil(testInstance, loaded.Subtrees)

			warnings := observerLogs.FilterLevelExact(zap.WarnLevel).All()
			if testCase.expectWarning {
				require.Len(testInstance, warnings, 1)
			} else {
				require.Empty(testInstance, warnings)
			}
		})
	}
}

func TestStoreLoadAcceptsLegacyHostToggle(testInstance *testing.T) {
	filesystem := memfs.New()
	require.NoError(testInstance, util.WriteFile(filesystem, manifest.DefaultFileName, []byte(testLegacyManifestConstant), 0o644))

	loaded := manifest.NewStore(filesystem, "", zap.NewNop()).Load()

	require.False(testInstance, loaded.UseHostCLI)
	require.Len(testInstance, loaded.Subtrees, 1)
	require.Equal(testInstance, manifest.ModeCopy, loaded.Subtrees[0].EffectiveMode())
	require.Equal(testInstance, []string{testStudioPrefixConstant}, loaded.Subtrees[0].Prefixes())
}

func TestStoreLoadKeepsMappingsWithUnknownMode(testInstance *testing.T) {
	filesystem := memfs.New()
	require.NoError(testInstance, util.WriteFile(filesystem, manifest.DefaultFileName, []byte(testUnknownModeManifestConstant), 0o644))

	observerCore, observerLogs := observer.New(zap.DebugLevel)
	store := manifest.NewStore(filesystem, "", zap.New(observerCore))

	require.Equal(testInstance, []manifest.Mapping{studioMapping(), libraryMapping()}, store.Load().Subtrees)

	warnings := observerLogs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(testInstance, warnings, 1)
	require.Equal(testInstance, testStudioMappingNameConstant, warnings[0].ContextMap()["mapping"])

	addedMapping := manifest.Mapping{Name: "docs", Remote: testLibraryRemoteConstant, Prefix: "docs", Branch: manifest.DefaultBranchName, Mode: manifest.ModeCopy}
	require.NoError(testInstance, store.Upsert(addedMapping))

	persisted := manifest.NewStore(filesystem, "", zap.NewNop()).List()
	require.Equal(testInstance, []manifest.Mapping{studioMapping(), libraryMapping(), addedMapping}, persisted)
}

func TestStoreSaveWritesIndentedJSON(testInstance *testing.T) {
	filesystem := memfs.New()
	store := manifest.NewStore(filesystem, "", zap.NewNop())

	require.NoError(testInstance, store.Upsert(studioMapping()))

	contents, readError := util.ReadFile(filesystem, manifest.DefaultFileName)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, testExpectedSavedJSONConstant, string(contents))
}

func TestStoreUpsertThenFindRoundTrips(testInstance *testing.T) {
	testCases := []struct {
		name    string
		mapping manifest.Mapping
	}{
		{name: "copy_mapping", mapping: studioMapping()},
		{name: "subtree_mapping", mapping: libraryMapping()},
		{
			name: "multi_prefix_copy_mapping",
			mapping: manifest.Mapping{
				Name:       "shared",
				Remote:     "https://github.com/org/shared.git",
				Prefix:     "packages/a",
				PrefixList: []string{"packages/a", "packages/b"},
				Branch:     "develop",
				Mode:       manifest.ModeCopy,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			store := manifest.NewStore(memfs.New(), "", zap.NewNop())
			require.NoError(testInstance, store.Upsert(testCase.mapping))

			found, exists := store.Find(testCase.mapping.Name)
			require.True(testInstance, exists)
			require.Equal(testInstance, testCase.mapping, found)
		})
	}
}

func TestStoreUpsertReplacesInPlace(testInstance *testing.T) {
	store := manifest.NewStore(memfs.New(), "", zap.NewNop())
	require.NoError(testInstance, store.Upsert(studioMapping()))
	require.NoError(testInstance, store.Upsert(libraryMapping()))

	replacement := studioMapping()
	replacement.Branch = "release"
	require.NoError(testInstance, store.Upsert(replacement))

	mappings := store.List()
	require.Len(testInstance, mappings, 2)
	require.Equal(testInstance, replacement, mappings[0])
	require.Equal(testInstance, libraryMapping(), mappings[1])
}

func TestStoreUpsertRejectsInvalidMappings(testInstance *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(mapping *manifest.Mapping)
		expectedError error
	}{
		{
			name:          "missing_name",
			mutate:        func(mapping *manifest.Mapping) { mapping.Name = "" },
			expectedError: manifest.ErrMappingNameRequired,
		},
		{
			name:          "missing_prefix",
			mutate:        func(mapping *manifest.Mapping) { mapping.Prefix = "" },
			expectedError: manifest.ErrMappingPrefixRequired,
		},
		{
			name:          "missing_remote",
			mutate:        func(mapping *manifest.Mapping) { mapping.Remote = " " },
			expectedError: manifest.ErrMappingRemoteRequired,
		},
		{
			name: "subtree_with_two_prefixes",
			mutate: func(mapping *manifest.Mapping) {
				mapping.Mode = manifest.ModeSubtree
				mapping.PrefixList = []string{testStudioPrefixConstant, "packages/other"}
			},
			expectedError: manifest.ErrSubtreeSinglePrefix,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			filesystem := memfs.New()
			store := manifest.NewStore(filesystem, "", zap.NewNop())

			mapping := studioMapping()
			testCase.mutate(&mapping)

			upsertError := store.Upsert(mapping)
			require.ErrorIs(testInstance, upsertError, testCase.expectedError)

			_, statError := filesystem.Stat(manifest.DefaultFileName)
			require.ErrorIs(testInstance, statError, os.ErrNotExist)
		})
	}
}

func TestStoreDelete(testInstance *testing.T) {
	testCases := []struct {
		name            string
		target          string
		expectedRemoved bool
		expectedNames   []string
	}{
		{
			name:            "absent_name",
			target:          testMissingMappingNameConstant,
			expectedRemoved: false,
			expectedNames:   []string{testStudioMappingNameConstant, testLibraryMappingNameConstant},
		},
		{
			name:            "present_name",
			target:          testStudioMappingNameConstant,
			expectedRemoved: true,
			expectedNames:   []string{testLibraryMappingNameConstant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			store := manifest.NewStore(memfs.New(), "", zap.NewNop())
			require.NoError(testInstance, store.Upsert(studioMapping()))
			require.NoError(testInstance, store.Upsert(libraryMapping()))

			removed, deleteError := store.Delete(testCase.target)
			require.NoError(testInstance, deleteError)
			require.Equal(testInstance, testCase.expectedRemoved, removed)

			remainingNames := make([]string, 0)
			for _, mapping := range store.List() {
				remainingNames = append(remainingNames, mapping.Name)
			}
			require.Equal(testInstance, testCase.expectedNames, remainingNames)
		})
	}
}

func TestStoreSaveReportsWriteFailures(testInstance *testing.T) {
	store := manifest.NewStore(failingWriteFilesystem{Filesystem: memfs.New()}, "", zap.NewNop())

	saveError := store.Save(manifest.DefaultManifest())
	require.Error(testInstance, saveError)

	var storeError manifest.StoreError
	require.ErrorAs(testInstance, saveError, &storeError)
	require.Contains(testInstance, storeError.Error(), testWriteFailureMessageConstant)
}

func TestStoreSetUseHostCLIPersists(testInstance *testing.T) {
	filesystem := memfs.New()
	store := manifest.NewStore(filesystem, "", zap.NewNop())
	require.NoError(testInstance, store.SetUseHostCLI(false))

	reloaded := manifest.NewStore(filesystem, manifest.DefaultFileName, zap.NewNop())
	require.False(testInstance, reloaded.UseHostCLI())
}
