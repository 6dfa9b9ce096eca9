package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/silverdict-go/silverdict/internal/enginelog"
)

func newRebuildNGramsCmd() *cobra.Command {
	var includeKeys bool

	cmd := &cobra.Command{
		Use:   "rebuild-ngrams",
		Short: "Rebuild the n-gram substring index from the entries table",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cleanup, err := enginelog.Setup(enginelog.DefaultConfig(resourcesRoot))
			if err != nil {
				return err
			}
			defer cleanup()

			_, store, err := openCatalogAndStore(resourcesRoot, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.RebuildNGramTable(cmd.Context(), includeKeys); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "n-gram index rebuilt")
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeKeys, "include-keys", false, "build n-grams from original headwords instead of simplified keys")

	return cmd
}
