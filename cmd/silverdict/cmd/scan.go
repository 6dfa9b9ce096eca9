package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/silverdict-go/silverdict/internal/enginelog"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <directory>",
		Short: "Scan a directory for new dictionaries and register them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cleanup, err := enginelog.Setup(enginelog.DefaultConfig(resourcesRoot))
			if err != nil {
				return err
			}
			defer cleanup()

			catalog, store, err := openCatalogAndStore(resourcesRoot, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			added, err := catalog.Scan(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %d new dictionaries\n", len(added))
			for _, d := range added {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s) %s\n", d.ID, d.Format, d.DisplayName)
			}
			return nil
		},
	}
}
