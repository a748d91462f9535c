package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/netherland/pkg/netherland"
)

const modulePath = "github.com/mesh-intelligence/netherland"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the netherland version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.jsonMode {
				return writeJSON(cmd, map[string]string{"version": netherland.Version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "netherland v%s\nmodule: %s\n", netherland.Version, modulePath)
			return nil
		},
	}
}
