// Package biomass computes live below ground biomass: its exponential
// distribution with depth, its integral over a layer, turnover into
// inanimate organic material, and the share of a layer's biomass on either
// side of an elevation.
package biomass

import (
	"math"

	"github.com/mesh-intelligence/netherland/pkg/types"
)

// Model evaluates biomass functions for one set of constants.
type Model struct {
	c types.Constants
}

// New returns a Model bound to c.
func New(c types.Constants) Model {
	return Model{c: c}
}

// Distribution returns biomass density [g/cm2] at depth below the surface,
// ro*exp(-k1*depth). Biomass does not grow below the maximum root depth.
func (m Model) Distribution(ro, depth float64) float64 {
	if depth < 0 || depth > m.c.RD {
		return 0
	}
	return ro * math.Exp(-m.c.K1*depth)
}

// Integrate returns the biomass [g] over the cell between two depths below
// the surface, clipped to the root zone [0, RD].
func (m Model) Integrate(ro, top, bottom float64) float64 {
	top = math.Max(top, 0)
	bottom = math.Min(bottom, m.c.RD)
	if bottom <= top || ro == 0 {
		return 0
	}
	k1 := m.c.K1
	return ro / k1 * (math.Exp(-k1*top) - math.Exp(-k1*bottom)) * m.c.SA
}

// IntegrateLength is Integrate expressed as a depth-equivalent length [cm]
// using the organic bulk density.
func (m Model) IntegrateLength(ro, top, bottom float64) float64 {
	return m.c.GramsToCm(m.Integrate(ro, top, bottom), true)
}

// Turnover returns the biomass converted to inanimate material over dt
// years at the constant rate k2.
func (m Model) Turnover(stock, dt float64) float64 {
	return stock * m.c.K2 * dt
}

// Split divides a biomass flux into labile, refractory and inorganic
// parts. Biomass is wholly organic unless BiomassAsh is set, in which case
// a k3 share goes to inorganic. The parts always sum to flux.
func (m Model) Split(flux float64) (labile, refractory, inorganic float64) {
	organic := flux
	if m.c.BiomassAsh {
		inorganic = flux * m.c.K3
		organic = flux - inorganic
	}
	refractory = organic * m.c.FC
	labile = organic - refractory
	return labile, refractory, inorganic
}

// SurfaceBiomass resolves a timestep's biomass input to live biomass at the
// surface [g/cm2]; stem volume is converted with SVToRO. The input must
// have been validated.
func (m Model) SurfaceBiomass(in types.TimestepInput) float64 {
	if in.BiomassAtSurface != nil {
		return *in.BiomassAtSurface
	}
	return *in.BiomassAboveSurface * m.c.SVToRO
}

// LitterGrams resolves a timestep's litter input to grams shed over the
// cell, before transport. The fraction form applies to above ground
// production, which is WAToRL times the surface biomass over the cell area.
func (m Model) LitterGrams(in types.TimestepInput) float64 {
	if in.Litter != nil {
		return *in.Litter
	}
	return *in.LitterFraction * m.SurfaceBiomass(in) * m.c.SA * m.c.WAToRL
}

// RetainedLitter is the litter kept in the cell after transport, as a
// depth-equivalent length [cm] of organic material.
func (m Model) RetainedLitter(in types.TimestepInput) float64 {
	return m.c.GramsToCm(m.c.B*m.LitterGrams(in), true)
}

// profile returns the cumulative profile weight at elevation z for a layer
// anchored at anchor. It increases with z.
func (m Model) profile(anchor, z float64) float64 {
	return math.Exp(-m.c.K1 * (anchor - z))
}

// FractionBelow returns the share of a layer's live biomass lying below
// elevation cut.
func (m Model) FractionBelow(l types.Layer, cut float64) float64 {
	if !l.HasLiveSpan() || cut <= l.LiveBottom {
		return 0
	}
	if cut >= l.LiveTop {
		return 1
	}
	lo := m.profile(l.Anchor, l.LiveBottom)
	hi := m.profile(l.Anchor, l.LiveTop)
	return (m.profile(l.Anchor, cut) - lo) / (hi - lo)
}

// FractionAbove returns the share of a layer's live biomass lying above
// elevation cut.
func (m Model) FractionAbove(l types.Layer, cut float64) float64 {
	if !l.HasLiveSpan() {
		return 0
	}
	return 1 - m.FractionBelow(l, cut)
}
