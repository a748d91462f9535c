package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/netherland/internal/core"
	"github.com/mesh-intelligence/netherland/pkg/types"
)

// writeJSON writes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return exitError(exitSysError, fmt.Errorf("encode output: %w", err))
	}
	return nil
}

// storeError maps a store failure to an exit code: unknown cores are user
// errors, everything else is a system error.
func storeError(err error) error {
	if errors.Is(err, types.ErrCoreNotFound) {
		return exitError(exitUserError, err)
	}
	return exitError(exitSysError, err)
}

// stepError maps an engine failure to an exit code. Invalid input and
// erosion past the bottom layer are user errors.
func stepError(err error) error {
	switch {
	case errors.Is(err, types.ErrInvalidTimestepInput),
		errors.Is(err, types.ErrExhaustedErosion),
		errors.Is(err, types.ErrNegativeStock):
		return exitError(exitUserError, err)
	}
	return exitError(exitSysError, err)
}

// coreView is the JSON shape of a core for show and step output.
type coreView struct {
	ID        string        `json:"core_id"`
	Name      string        `json:"name,omitempty"`
	Steps     int           `json:"steps"`
	Elevation float64       `json:"elevation"`
	RootZone  float64       `json:"root_zone_biomass"`
	Budget    types.Budget  `json:"budget"`
	Layers    []types.Layer `json:"layers"`
}

func viewOf(id, name string, c *core.Core) coreView {
	return coreView{
		ID:        id,
		Name:      name,
		Steps:     c.Steps(),
		Elevation: c.Elevation(),
		RootZone:  c.RootZoneBiomass(),
		Budget:    c.Budget(),
		Layers:    c.Layers(),
	}
}

// printCore writes a core summary and its layers, top first.
func printCore(cmd *cobra.Command, id, name string, c *core.Core) error {
	if flags.jsonMode {
		return writeJSON(cmd, viewOf(id, name, c))
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "core %s (%s): %d steps, %d layers, elevation %.4f cm, root zone biomass %.6f cm\n",
		id, name, c.Steps(), c.Len(), c.Elevation(), c.RootZoneBiomass())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\ttop\tbottom\tbiomass\tlabile\trefractory\tinorganic\t")
	layers := c.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.6f\t%.6f\t%.6f\t%.6f\t\n",
			i, l.Top, l.Bottom, l.Biomass.Amount, l.Labile.Amount, l.Refractory.Amount, l.Inorganic.Amount)
	}
	return w.Flush()
}
