package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/netherland/internal/sqlite"
	"github.com/mesh-intelligence/netherland/pkg/types"
)

// inputFlags holds the per-timestep forcing flags of the step command.
type inputFlags struct {
	deposition          float64
	biomassAtSurface    float64
	biomassAboveSurface float64
	litter              float64
	litterFraction      float64
	substeps            int
	years               float64
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Float64VarP(&f.deposition, "deposition", "d", 0, "sediment change [cm]; negative values erode")
	fs.Float64Var(&f.biomassAtSurface, "biomass-at-surface", 0, "live below ground biomass at the surface [g/cm2]")
	fs.Float64Var(&f.biomassAboveSurface, "biomass-above-surface", 0, "stem volume, converted with sv_to_ro")
	fs.Float64Var(&f.litter, "litter", 0, "litter input [g]")
	fs.Float64Var(&f.litterFraction, "litter-fraction", 0, "share of above ground production shed as litter")
	fs.IntVar(&f.substeps, "substeps", 1, "number of equal sub-timesteps")
	fs.Float64Var(&f.years, "years", 1, "timestep length [yr]")
	cmd.MarkFlagsMutuallyExclusive("biomass-at-surface", "biomass-above-surface")
	cmd.MarkFlagsOneRequired("biomass-at-surface", "biomass-above-surface")
	cmd.MarkFlagsMutuallyExclusive("litter", "litter-fraction")
	cmd.MarkFlagsOneRequired("litter", "litter-fraction")
}

// input builds a TimestepInput from the flags that were set.
func (f *inputFlags) input(cmd *cobra.Command) types.TimestepInput {
	in := types.TimestepInput{
		Deposition: f.deposition,
		Substeps:   f.substeps,
		Years:      f.years,
	}
	fs := cmd.Flags()
	if fs.Changed("biomass-at-surface") {
		in.BiomassAtSurface = types.Float(f.biomassAtSurface)
	}
	if fs.Changed("biomass-above-surface") {
		in.BiomassAboveSurface = types.Float(f.biomassAboveSurface)
	}
	if fs.Changed("litter") {
		in.Litter = types.Float(f.litter)
	}
	if fs.Changed("litter-fraction") {
		in.LitterFraction = types.Float(f.litterFraction)
	}
	return in
}

func newStepCmd() *cobra.Command {
	var f inputFlags
	cmd := &cobra.Command{
		Use:   "step <core-id>",
		Short: "Apply one timestep to a stored core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := f.input(cmd)
			if err := in.Validate(); err != nil {
				return exitError(exitUserError, err)
			}
			return applyInputs(cmd, args[0], []types.TimestepInput{in})
		},
	}
	f.register(cmd)
	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <core-id> <series.jsonl>",
		Short: "Apply a JSONL series of timesteps to a stored core",
		Long: "Apply every timestep in a JSONL file, one input object per line, to a\n" +
			"stored core. Each applied step is saved; the first failing step stops the run.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := sqlite.ReadInputs(args[1])
			if err != nil {
				return exitError(exitUserError, err)
			}
			return applyInputs(cmd, args[0], inputs)
		},
	}
}

// applyInputs loads a core, steps it through inputs saving each step, and
// prints the final state.
func applyInputs(cmd *cobra.Command, id string, inputs []types.TimestepInput) error {
	app, err := loadAppConfig()
	if err != nil {
		return exitError(exitUserError, err)
	}
	store, err := app.openStore()
	if err != nil {
		return exitError(exitSysError, err)
	}
	defer store.Detach()

	c, rec, err := store.LoadCore(id)
	if err != nil {
		return storeError(err)
	}

	e := app.engine()
	for i, in := range inputs {
		if err := e.Step(c, in); err != nil {
			return stepError(fmt.Errorf("input %d: %w", i+1, err))
		}
		if err := store.SaveStep(id, c, in); err != nil {
			return storeError(fmt.Errorf("save step %d: %w", c.Steps(), err))
		}
		logger.Debug("step saved",
			zap.String("core", id), zap.Int("step", c.Steps()), zap.Float64("elevation", c.Elevation()))
	}
	return printCore(cmd, id, rec.Name, c)
}
