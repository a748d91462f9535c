package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/netherland/pkg/types"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored cores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppConfig()
			if err != nil {
				return exitError(exitUserError, err)
			}
			store, err := app.openStore()
			if err != nil {
				return exitError(exitSysError, err)
			}
			defer store.Detach()

			cores, err := store.ListCores()
			if err != nil {
				return storeError(err)
			}
			if flags.jsonMode {
				if cores == nil {
					cores = []types.CoreRecord{}
				}
				return writeJSON(cmd, cores)
			}
			if len(cores) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cores")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTEPS\tLAYERS\tELEVATION\tUPDATED")
			for _, c := range cores {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4f\t%s\n",
					c.ID, c.Name, c.Steps, c.Layers, c.Elevation, c.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}
