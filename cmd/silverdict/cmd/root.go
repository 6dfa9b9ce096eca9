// Package cmd provides the CLI commands for silverdict.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/silverdict-go/silverdict/pkg/version"
)

var resourcesRoot string

// NewRootCmd creates the root command for the silverdict CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "silverdict",
		Short: "Multi-format dictionary lookup engine",
		Long: `silverdict ingests MDX, StarDict, and DSL dictionaries into a
shared SQLite-backed index and serves suggestions, article lookups, and
full-text search over HTTP.`,
		Version: version.Version,
	}
	cmd.SetVersionTemplate(version.String() + "\n")

	defaultRoot, err := defaultResourcesRoot()
	if err != nil {
		defaultRoot = "."
	}
	cmd.PersistentFlags().StringVar(&resourcesRoot, "resources", defaultRoot, "resources root directory (settings, index database, logs, resource cache)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newRebuildNGramsCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

func defaultResourcesRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".silverdict"), nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
