package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/netherland/internal/sqlite"
)

func newExportCmd() *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "export <core-id> <out.jsonl>",
		Short: "Write a stored core's layers to a JSONL file",
		Long: "Write a stored core's layers, bottom first, one JSON object per line.\n" +
			"With --history the applied timesteps are written instead.",
		Args: cobra.ExactArgs(2),
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

			id, out := args[0], args[1]
			var n int
			if history {
				steps, err := store.History(id)
				if err != nil {
					return storeError(err)
				}
				if err := sqlite.WriteHistory(out, steps); err != nil {
					return exitError(exitSysError, err)
				}
				n = len(steps)
			} else {
				c, _, err := store.LoadCore(id)
				if err != nil {
					return storeError(err)
				}
				if err := sqlite.WriteLayers(out, c.Layers()); err != nil {
					return exitError(exitSysError, err)
				}
				n = c.Len()
			}

			if flags.jsonMode {
				return writeJSON(cmd, map[string]any{"core_id": id, "path": out, "records": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "export the applied timesteps instead of the layers")
	return cmd
}
