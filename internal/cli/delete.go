package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <core-id>",
		Short: "Delete a stored core and its history",
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

			if err := store.DeleteCore(args[0]); err != nil {
				return storeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
