package types

import (
	"fmt"
	"math"
)

// Constants is the physical parameter set of one simulation run. It is
// supplied once and never mutated while a core is stepped.
type Constants struct {
	// Core section.
	B  float64 `json:"b"`  // Net litter transport over the cell [dmls]; 0 no retention, 1 balanced.
	SA float64 `json:"sa"` // Cell surface area [cm2].

	// Layer section.
	DU float64 `json:"du"` // Initial top elevation [cm].
	DB float64 `json:"db"` // Initial bottom elevation [cm].

	// Stocks section.
	BI     float64 `json:"bi"`       // Bulk density of inorganic matter [g/cm3].
	BO     float64 `json:"bo"`       // Bulk density of organic matter [g/cm3].
	FO     float64 `json:"fo"`       // Organic fraction of deposited sediment [dmls].
	K      float64 `json:"k"`        // Labile decay constant [1/yr].
	FC     float64 `json:"fc"`       // Refractory fraction of organic material [dmls].
	RO     float64 `json:"ro"`       // Live below ground biomass at the surface [g/cm2].
	RD     float64 `json:"rd"`       // Maximum root depth [cm].
	K1     float64 `json:"k1"`       // Biomass depth distribution parameter [1/cm].
	K2     float64 `json:"k2"`       // Biomass turnover rate [1/yr].
	K3     float64 `json:"k3"`       // Inorganic ash fraction of plant matter [dmls].
	SVToRO float64 `json:"sv_to_ro"` // Stem volume to surface biomass conversion [dmls].
	WAToRL float64 `json:"wa_to_rl"` // Above ground production per unit below ground biomass [dmls].

	// BiomassAsh routes a K3 share of biomass turnover and removal to the
	// inorganic pool. Off by default: biomass is treated as wholly organic.
	BiomassAsh bool `json:"biomass_ash"`
}

// FI returns the inorganic fraction of deposited sediment.
func (c Constants) FI() float64 { return 1 - c.FO }

// FL returns the labile fraction of organic material.
func (c Constants) FL() float64 { return 1 - c.FC }

// Depth returns the thickness of the initial layer [cm].
func (c Constants) Depth() float64 { return c.DU - c.DB }

// GramsToCm3 converts a weight [g] to a volume [cm3] using the organic or
// inorganic bulk density.
func (c Constants) GramsToCm3(grams float64, organic bool) float64 {
	if organic {
		return grams / c.BO
	}
	return grams / c.BI
}

// GramsToCm converts a weight [g] to a depth-equivalent length [cm] over the
// cell area.
func (c Constants) GramsToCm(grams float64, organic bool) float64 {
	return c.GramsToCm3(grams, organic) / c.SA
}

// Validate checks every constant against its physical domain. Failures wrap
// ErrInvalidConfiguration and name the offending key.
func (c Constants) Validate() error {
	for _, kv := range []struct {
		key string
		val float64
	}{
		{"b", c.B}, {"sa", c.SA}, {"du", c.DU}, {"db", c.DB},
		{"bi", c.BI}, {"bo", c.BO}, {"fo", c.FO}, {"k", c.K}, {"fc", c.FC},
		{"ro", c.RO}, {"rd", c.RD}, {"k1", c.K1}, {"k2", c.K2}, {"k3", c.K3},
		{"sv_to_ro", c.SVToRO}, {"wa_to_rl", c.WAToRL},
	} {
		if math.IsNaN(kv.val) || math.IsInf(kv.val, 0) {
			return invalid(kv.key, kv.val, "must be finite")
		}
	}

	switch {
	case c.B < 0:
		return invalid("b", c.B, "litter transport factor must be non-negative")
	case c.SA <= 0:
		return invalid("sa", c.SA, "surface area must be greater than 0")
	case c.DU <= c.DB:
		return fmt.Errorf("%w: du %g must be greater than db %g", ErrInvalidConfiguration, c.DU, c.DB)
	case c.BO <= 0:
		return invalid("bo", c.BO, "organic bulk density must be greater than 0")
	case c.BI <= 0:
		return invalid("bi", c.BI, "inorganic bulk density must be greater than 0")
	case c.FO < 0 || c.FO > 1:
		return invalid("fo", c.FO, "organic fraction must be within [0, 1]")
	case c.K <= 0:
		return invalid("k", c.K, "labile decay constant must be greater than 0")
	case c.FC < 0 || c.FC > 1:
		return invalid("fc", c.FC, "refractory fraction must be within [0, 1]")
	case c.RO < 0:
		return invalid("ro", c.RO, "surface biomass must be non-negative")
	case c.RD <= 0:
		return invalid("rd", c.RD, "maximum root depth must be greater than 0")
	case c.Depth() < c.RD:
		return fmt.Errorf("%w: initial layer depth %g (du %g - db %g) must be at least the maximum root depth %g",
			ErrInvalidConfiguration, c.Depth(), c.DU, c.DB, c.RD)
	case c.K1 <= 0 || c.K1 >= 1:
		return invalid("k1", c.K1, "biomass distribution parameter must be within (0, 1)")
	case c.K2 <= 0:
		return invalid("k2", c.K2, "biomass turnover rate must be greater than 0")
	case c.K3 < 0 || c.K3 > 1:
		return invalid("k3", c.K3, "ash fraction must be within [0, 1]")
	case c.SVToRO <= 0:
		return invalid("sv_to_ro", c.SVToRO, "stem volume conversion must be greater than 0")
	case c.WAToRL <= 0:
		return invalid("wa_to_rl", c.WAToRL, "above to below ground ratio must be greater than 0")
	}
	return nil
}

func invalid(key string, val float64, msg string) error {
	return fmt.Errorf("%w: %s = %g: %s", ErrInvalidConfiguration, key, val, msg)
}
