package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "show <core-id>",
		Short: "Show a stored core's layers",
		Args:  cobra.ExactArgs(1),
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

			id := args[0]
			if !history {
				c, rec, err := store.LoadCore(id)
				if err != nil {
					return storeError(err)
				}
				return printCore(cmd, id, rec.Name, c)
			}

			steps, err := store.History(id)
			if err != nil {
				return storeError(err)
			}
			if flags.jsonMode {
				return writeJSON(cmd, steps)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tDEPOSITION\tSUBSTEPS\tLAYERS\tELEVATION\tAPPLIED")
			for _, s := range steps {
				fmt.Fprintf(w, "%d\t%.4f\t%d\t%d\t%.4f\t%s\n",
					s.Step, s.Input.Deposition, s.Input.SubstepCount(), s.Layers, s.Elevation,
					s.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "show the applied timesteps instead of the layers")
	return cmd
}
