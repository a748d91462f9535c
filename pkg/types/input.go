package types

import (
	"fmt"
	"math"
)

// TimestepInput holds the exogenous forcing for one timestep. Exactly one of
// BiomassAtSurface / BiomassAboveSurface and exactly one of Litter /
// LitterFraction must be set.
type TimestepInput struct {
	// Deposition is the signed sediment change [cm]; negative values erode.
	Deposition float64 `json:"deposition"`

	// BiomassAtSurface is live below ground biomass at the surface [g/cm2].
	BiomassAtSurface *float64 `json:"biomass_at_surface,omitempty"`
	// BiomassAboveSurface is stem volume, converted with SVToRO.
	BiomassAboveSurface *float64 `json:"biomass_above_surface,omitempty"`

	// Litter is the litter input [g].
	Litter *float64 `json:"litter,omitempty"`
	// LitterFraction is the share of above ground production shed as litter.
	LitterFraction *float64 `json:"litter_fraction,omitempty"`

	// Substeps splits the timestep into equal sub-timesteps. Zero means 1.
	Substeps int `json:"substeps,omitempty"`
	// Years is the timestep length [yr]. Zero means 1.
	Years float64 `json:"years,omitempty"`
}

// Float returns a pointer to v, for filling the either/or input fields.
func Float(v float64) *float64 { return &v }

// SubstepCount returns the number of sub-timesteps, defaulting to 1.
func (in TimestepInput) SubstepCount() int {
	if in.Substeps == 0 {
		return 1
	}
	return in.Substeps
}

// Duration returns the timestep length [yr], defaulting to 1.
func (in TimestepInput) Duration() float64 {
	if in.Years == 0 {
		return 1
	}
	return in.Years
}

// Validate checks the either/or pairs and the numeric domains. Failures wrap
// ErrInvalidTimestepInput.
func (in TimestepInput) Validate() error {
	if !finite(in.Deposition) {
		return fmt.Errorf("%w: deposition %g is not finite", ErrInvalidTimestepInput, in.Deposition)
	}
	if err := exactlyOne("biomass_at_surface", in.BiomassAtSurface, "biomass_above_surface", in.BiomassAboveSurface); err != nil {
		return err
	}
	if err := exactlyOne("litter", in.Litter, "litter_fraction", in.LitterFraction); err != nil {
		return err
	}
	for _, f := range []struct {
		key string
		val *float64
	}{
		{"biomass_at_surface", in.BiomassAtSurface},
		{"biomass_above_surface", in.BiomassAboveSurface},
		{"litter", in.Litter},
		{"litter_fraction", in.LitterFraction},
	} {
		if f.val == nil {
			continue
		}
		if !finite(*f.val) || *f.val < 0 {
			return fmt.Errorf("%w: %s = %g must be finite and non-negative", ErrInvalidTimestepInput, f.key, *f.val)
		}
	}
	if in.SubstepCount() < 1 {
		return fmt.Errorf("%w: substeps %d must be at least 1", ErrInvalidTimestepInput, in.Substeps)
	}
	if !finite(in.Years) || in.Duration() <= 0 {
		return fmt.Errorf("%w: years %g must be positive", ErrInvalidTimestepInput, in.Years)
	}
	return nil
}

// Change classifies the deposition amount.
func (in TimestepInput) Change() SedimentChange {
	return ClassifyChange(in.Deposition)
}

func exactlyOne(aKey string, a *float64, bKey string, b *float64) error {
	switch {
	case a != nil && b != nil:
		return fmt.Errorf("%w: only one of %s and %s may be set", ErrInvalidTimestepInput, aKey, bKey)
	case a == nil && b == nil:
		return fmt.Errorf("%w: one of %s or %s is required", ErrInvalidTimestepInput, aKey, bKey)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ChangeKind tags a sediment change.
type ChangeKind int

const (
	Neutral ChangeKind = iota
	Deposit
	Erode
)

func (k ChangeKind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Erode:
		return "erode"
	default:
		return "neutral"
	}
}

// SedimentChange is the tagged outcome of a deposition amount. Amount is
// always non-negative; Kind carries the direction.
type SedimentChange struct {
	Kind   ChangeKind
	Amount float64
}

// ClassifyChange maps a signed deposition amount to its variant.
func ClassifyChange(deposition float64) SedimentChange {
	switch {
	case deposition > 0:
		return SedimentChange{Kind: Deposit, Amount: deposition}
	case deposition < 0:
		return SedimentChange{Kind: Erode, Amount: -deposition}
	default:
		return SedimentChange{Kind: Neutral}
	}
}

// Scale divides the change evenly over n sub-timesteps.
func (s SedimentChange) Scale(n int) SedimentChange {
	return SedimentChange{Kind: s.Kind, Amount: s.Amount / float64(n)}
}
