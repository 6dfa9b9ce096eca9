package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/silverdict-go/silverdict/internal/enginelog"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Sanity-check the resources root and registered dictionaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "resources root: %s\n", resourcesRoot)

			logger, cleanup, err := enginelog.Setup(enginelog.DefaultConfig(resourcesRoot))
			if err != nil {
				fmt.Fprintf(out, "  logging: FAIL (%v)\n", err)
				return nil
			}
			defer cleanup()
			fmt.Fprintln(out, "  logging: ok")

			catalog, store, err := openCatalogAndStore(resourcesRoot, logger)
			if err != nil {
				fmt.Fprintf(out, "  catalog/index: FAIL (%v)\n", err)
				return nil
			}
			defer store.Close()
			fmt.Fprintln(out, "  catalog/index: ok")

			dicts := catalog.Dictionaries()
			fmt.Fprintf(out, "  dictionaries: %d registered\n", len(dicts))

			missing := 0
			for _, d := range dicts {
				if _, err := os.Stat(d.SourcePath); err != nil {
					missing++
					fmt.Fprintf(out, "    MISSING SOURCE: %s (%s) -> %s\n", d.ID, d.DisplayName, d.SourcePath)
				}
			}
			if missing == 0 && len(dicts) > 0 {
				fmt.Fprintln(out, "    all source files present")
			}

			groups := catalog.Groups()
			fmt.Fprintf(out, "  groups: %d defined\n", len(groups))
			for _, g := range groups {
				fmt.Fprintf(out, "    %s: %d members, langs=%v\n", g.Name, len(catalog.GroupMembers(g.Name)), g.Langs)
			}

			return nil
		},
	}
}
