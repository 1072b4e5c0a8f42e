package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gstree/internal/gitrepo"
)

func TestConvertRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name        string
		remote      string
		protocol    gitrepo.RemoteProtocol
		expectedURL string
	}{
		{name: "scp_to_https", remote: "git@github.com:org/studio.git", protocol: gitrepo.RemoteProtocolHTTPS, expectedURL: "https://github.com/org/studio.git"},
		{name: "ssh_scheme_to_https", remote: "ssh://git@github.com/org/studio.git", protocol: gitrepo.RemoteProtocolHTTPS, expectedURL: "https://github.com/org/studio.git"},
		{name: "https_without_suffix", remote: "https://github.com/org/studio", protocol: gitrepo.RemoteProtocolHTTPS, expectedURL: "https://github.com/org/studio.git"},
		{name: "https_to_ssh", remote: "https://github.com/org/studio.git", protocol: gitrepo.RemoteProtocolSSH, expectedURL: "git@github.com:org/studio.git"},
		{name: "local_path_unchanged", remote: " /srv/git/studio.git ", protocol: gitrepo.RemoteProtocolHTTPS, expectedURL: "/srv/git/studio.git"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedURL, gitrepo.ConvertRemoteURL(testCase.remote, testCase.protocol))
		})
	}
}

func TestNormalizeToHTTPS(testInstance *testing.T) {
	require.Equal(testInstance, "https://github.com/org/studio.git", gitrepo.NormalizeToHTTPS("git@github.com:org/studio.git"))
}

func TestOwnerFromRemote(testInstance *testing.T) {
	testCases := []struct {
		name          string
		remote        string
		expectedOwner string
	}{
		{name: "scp", remote: "git@github.com:acme/app.git", expectedOwner: "acme"},
		{name: "https", remote: "https://github.com/octocat/app.git", expectedOwner: "octocat"},
		{name: "unparseable", remote: "file:///tmp/app", expectedOwner: ""},
		{name: "empty", remote: "", expectedOwner: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedOwner, gitrepo.OwnerFromRemote(testCase.remote))
		})
	}
}

func TestParseRemoteURLRejectsEmptyInput(testInstance *testing.T) {
	_, parseError := gitrepo.ParseRemoteURL("  ")
	require.Error(testInstance, parseError)

	var remoteError gitrepo.RemoteURLParseError
	require.ErrorAs(testInstance, parseError, &remoteError)
}
