// Package githubcli drives the GitHub CLI for repository creation during gst init.
//
// The client checks that gh is installed and authenticated, discovers the
// account and its organizations, and creates repositories. Commands run
// through execshell so tests substitute a recording executor.
package githubcli
