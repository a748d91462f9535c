package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/netherland/internal/core"
	"github.com/mesh-intelligence/netherland/internal/ensemble"
	"github.com/mesh-intelligence/netherland/internal/sqlite"
	"github.com/mesh-intelligence/netherland/pkg/types"
)

// ensembleRow is one line of ensemble output.
type ensembleRow struct {
	Name      string  `json:"name"`
	CoreID    string  `json:"core_id,omitempty"`
	Applied   int     `json:"applied"`
	Layers    int     `json:"layers"`
	Elevation float64 `json:"elevation"`
	Error     string  `json:"error,omitempty"`
}

func newEnsembleCmd() *cobra.Command {
	var (
		limit         int
		constantsFile string
		noSave        bool
	)
	cmd := &cobra.Command{
		Use:   "ensemble <series.jsonl>...",
		Short: "Run independent cores in parallel, one per input series",
		Long: "Build one core per JSONL input series from the same constants and step\n" +
			"them concurrently. Each core is stored with its history unless --no-save is set.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppConfig()
			if err != nil {
				return exitError(exitUserError, err)
			}
			c, err := app.loadConstants(constantsFile)
			if err != nil {
				return exitError(exitUserError, err)
			}

			members := make([]ensemble.Member, len(args))
			for i, path := range args {
				inputs, err := sqlite.ReadInputs(path)
				if err != nil {
					return exitError(exitUserError, err)
				}
				built, err := core.Build(c)
				if err != nil {
					return exitError(exitUserError, err)
				}
				members[i] = ensemble.Member{
					Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
					Core:   built,
					Inputs: inputs,
				}
			}

			ids := make([]string, len(members))
			opts := []ensemble.Option{ensemble.WithLimit(limit)}
			if !noSave {
				store, err := app.openStore()
				if err != nil {
					return exitError(exitSysError, err)
				}
				defer store.Detach()

				for i, m := range members {
					if ids[i], err = store.CreateCore(m.Name, m.Core); err != nil {
						return exitError(exitSysError, fmt.Errorf("store core %s: %w", m.Name, err))
					}
				}
				opts = append(opts, ensemble.WithStepFunc(func(i int, c *core.Core, in types.TimestepInput) error {
					return store.SaveStep(ids[i], c, in)
				}))
			}

			runner := ensemble.NewRunner(app.engine(), opts...)
			results, runErr := runner.Run(cmd.Context(), members)
			logger.Info("ensemble finished", zap.Int("members", len(members)), zap.Error(runErr))

			rows := make([]ensembleRow, len(results))
			for i, r := range results {
				rows[i] = ensembleRow{
					Name:      r.Name,
					CoreID:    ids[i],
					Applied:   r.Applied,
					Layers:    r.Layers,
					Elevation: r.Elevation,
				}
				if r.Err != nil {
					rows[i].Error = r.Err.Error()
				}
			}
			if err := printEnsemble(cmd, rows); err != nil {
				return err
			}
			if runErr != nil {
				return stepError(runErr)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum cores stepped at once (default: GOMAXPROCS)")
	cmd.Flags().StringVar(&constantsFile, "constants", "", "constants file (default: the configured constants file)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the cores")
	return cmd
}

func printEnsemble(cmd *cobra.Command, rows []ensembleRow) error {
	if flags.jsonMode {
		return writeJSON(cmd, rows)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCORE\tAPPLIED\tLAYERS\tELEVATION\tERROR")
	for _, r := range rows {
		id := r.CoreID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4f\t%s\n", r.Name, id, r.Applied, r.Layers, r.Elevation, r.Error)
	}
	return w.Flush()
}
