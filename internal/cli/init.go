package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/netherland/internal/core"
	"github.com/mesh-intelligence/netherland/internal/paths"
)

func newInitCmd() *cobra.Command {
	var (
		name          string
		constantsFile string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a core from constants",
		Long: "Create the configuration and data directories if needed, build a new\n" +
			"single-layer core from the constants file, store it, and print its ID.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppConfig()
			if err != nil {
				return exitError(exitUserError, err)
			}

			if err := os.MkdirAll(app.configDir, 0o755); err != nil {
				return exitError(exitSysError, fmt.Errorf("create config directory: %w", err))
			}
			if err := writeConfigIfMissing(paths.ConfigFile(app.configDir), flags.dataDir); err != nil {
				return exitError(exitSysError, fmt.Errorf("write config: %w", err))
			}
			if constantsFile == "" {
				if err := writeConstantsIfMissing(app.constantsPath); err != nil {
					return exitError(exitSysError, fmt.Errorf("write constants: %w", err))
				}
			}

			c, err := app.loadConstants(constantsFile)
			if err != nil {
				return exitError(exitUserError, err)
			}
			built, err := core.Build(c)
			if err != nil {
				return exitError(exitUserError, err)
			}

			store, err := app.openStore()
			if err != nil {
				return exitError(exitSysError, err)
			}
			defer store.Detach()

			id, err := store.CreateCore(name, built)
			if err != nil {
				return exitError(exitSysError, fmt.Errorf("store core: %w", err))
			}
			logger.Info("core created", zap.String("id", id), zap.String("name", name))

			if flags.jsonMode {
				return writeJSON(cmd, map[string]any{
					"core_id":   id,
					"name":      name,
					"elevation": built.Elevation(),
					"layers":    built.Layers(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "core", "name for the new core")
	cmd.Flags().StringVar(&constantsFile, "constants", "", "constants file (default: the configured constants file)")
	return cmd
}
