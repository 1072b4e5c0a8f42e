// Package cli constructs the gst command-line interface, wiring the Cobra
// command hierarchy, the Viper configuration loader, and zap logging. The
// root command shows the status; every other command comes from
// cmd/cli/subtrees.
package cli
