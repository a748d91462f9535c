// Package core holds the sediment column of one cell and the engine that
// advances it one timestep at a time.
//
// A Core is an index arena of layers. Index 0 is the bottom layer created by
// Build; its elevations never change and removal logic never targets it. The
// top cursor marks the shallowest live layer; only that layer is eroded, and
// new layers are written just above it.
package core

import (
	"fmt"
	"math"

	"github.com/mesh-intelligence/netherland/pkg/types"
)

// Core is an ordered stack of layers, bottom first. A Core is owned by one
// caller and is not safe for concurrent mutation.
type Core struct {
	constants types.Constants
	layers    []types.Layer
	top       int
	steps     int
	budget    types.Budget
}

// Build returns a Core holding the single bottom layer [DB, DU] described by
// c. The bottom layer starts without live biomass. Its labile and refractory
// stocks split the column depth by FC, and its inorganic stock is the
// inorganic fraction of that depth.
func Build(c types.Constants) (*Core, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	depth := c.Depth()
	bottom := types.Layer{
		Top:        c.DU,
		Bottom:     c.DB,
		Biomass:    types.Stock{Kind: types.Biomass},
		Labile:     types.Stock{Kind: types.Labile, Amount: depth * c.FL()},
		Refractory: types.Stock{Kind: types.Refractory, Amount: depth * c.FC},
		Inorganic:  types.Stock{Kind: types.Inorganic, Amount: depth * c.FI()},
		Anchor:     c.DU,
		LiveTop:    c.DU,
		LiveBottom: c.DU,
	}
	return &Core{
		constants: c,
		layers:    []types.Layer{bottom},
	}, nil
}

// Restore rebuilds a Core from stored state. The layers must be ordered
// bottom first and contiguous.
func Restore(c types.Constants, layers []types.Layer, steps int, budget types.Budget) (*Core, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("restore core: no layers")
	}
	for i, l := range layers {
		if !(l.Top > l.Bottom) {
			return nil, fmt.Errorf("restore core: layer %d has thickness %g", i, l.Thickness())
		}
		if i > 0 && layers[i-1].Top != l.Bottom {
			return nil, fmt.Errorf("restore core: layer %d bottom %g does not meet layer %d top %g",
				i, l.Bottom, i-1, layers[i-1].Top)
		}
		for _, k := range types.Kinds {
			if s := l.Stock(k); s.Amount < 0 {
				return nil, fmt.Errorf("restore core: layer %d: %w: %s %g", i, types.ErrNegativeStock, k, s.Amount)
			}
		}
	}
	stored := make([]types.Layer, len(layers))
	copy(stored, layers)
	return &Core{
		constants: c,
		layers:    stored,
		top:       len(stored) - 1,
		steps:     steps,
		budget:    budget,
	}, nil
}

// Constants returns the constants the core was built with.
func (c *Core) Constants() types.Constants { return c.constants }

// Len returns the number of live layers.
func (c *Core) Len() int { return c.top + 1 }

// Steps returns the number of completed timesteps.
func (c *Core) Steps() int { return c.steps }

// Budget returns the cumulative inputs and outputs of the core.
func (c *Core) Budget() types.Budget { return c.budget }

// Layers returns a copy of the live layers, bottom first.
func (c *Core) Layers() []types.Layer {
	out := make([]types.Layer, c.top+1)
	copy(out, c.layers[:c.top+1])
	return out
}

// Layer returns the layer at index i, bottom first.
func (c *Core) Layer(i int) types.Layer {
	return c.layers[i]
}

// Bottom returns the immutable bottom layer.
func (c *Core) Bottom() types.Layer { return c.layers[0] }

// Top returns the shallowest layer.
func (c *Core) Top() types.Layer { return c.layers[c.top] }

// Elevation returns the surface elevation, the top of the shallowest layer.
func (c *Core) Elevation() float64 { return c.layers[c.top].Top }

// Totals returns the sum of each stock over all layers, indexed by Kind.
func (c *Core) Totals() [4]float64 {
	var totals [4]float64
	for i := 0; i <= c.top; i++ {
		l := c.layers[i]
		for _, k := range types.Kinds {
			totals[k] += l.Stock(k).Amount
		}
	}
	return totals
}

// Mass returns the sum of all stocks in the core.
func (c *Core) Mass() float64 {
	var total float64
	for _, v := range c.Totals() {
		total += v
	}
	return total
}

// RootZoneBiomass returns the live biomass held within the maximum root
// depth of the surface.
func (c *Core) RootZoneBiomass() float64 {
	cut := c.Elevation() - c.constants.RD
	var total float64
	for i := c.top; i >= 0; i-- {
		l := c.layers[i]
		if l.Top <= cut {
			break
		}
		total += l.Biomass.Amount
	}
	return total
}

// Clone returns a deep copy of the core.
func (c *Core) Clone() *Core {
	layers := make([]types.Layer, c.top+1, len(c.layers)+1)
	copy(layers, c.layers[:c.top+1])
	return &Core{
		constants: c.constants,
		layers:    layers,
		top:       c.top,
		steps:     c.steps,
		budget:    c.budget,
	}
}

// push writes l just above the top cursor, reusing a freed slot if there is
// one.
func (c *Core) push(l types.Layer) {
	c.top++
	if c.top < len(c.layers) {
		c.layers[c.top] = l
		return
	}
	c.layers = append(c.layers, l)
}

// pop drops the top layer. The bottom layer is never popped.
func (c *Core) pop() types.Layer {
	if c.top == 0 {
		panic("core: pop of the bottom layer")
	}
	l := c.layers[c.top]
	c.top--
	return l
}

// mergeAbove folds layers first..top into a single layer. The merged layer
// carries the summed stocks and a root profile re-anchored at its top.
func (c *Core) mergeAbove(first int) {
	if first >= c.top || first < 1 {
		return
	}
	merged := c.layers[first]
	for i := first + 1; i <= c.top; i++ {
		l := c.layers[i]
		for _, k := range types.Kinds {
			merged.Stock(k).Amount += l.Stock(k).Amount
		}
		merged.Top = l.Top
	}
	merged.Anchor = merged.Top
	merged.LiveTop = merged.Top
	merged.LiveBottom = merged.Top
	if merged.Biomass.Amount > 0 {
		merged.LiveBottom = math.Max(merged.Bottom, merged.Top-c.constants.RD)
	}
	c.layers[first] = merged
	c.top = first
}
