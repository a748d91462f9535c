package types

import (
	"fmt"
	"math"
)

// Kind identifies the material held by a stock.
type Kind int

// Stock kinds, in the order layers report them.
const (
	Biomass Kind = iota
	Labile
	Refractory
	Inorganic
)

// Kinds lists every stock kind in reporting order.
var Kinds = [...]Kind{Biomass, Labile, Refractory, Inorganic}

var kindNames = map[Kind]string{
	Biomass:    "biomass",
	Labile:     "labile",
	Refractory: "refractory",
	Inorganic:  "inorganic",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Organic reports whether the kind belongs to the organic category.
// Live biomass counts as organic.
func (k Kind) Organic() bool {
	return k != Inorganic
}

// Stock is a single pool of one material kind. Amount is a depth-equivalent
// length [cm] and is never negative.
type Stock struct {
	Kind   Kind    `json:"kind"`
	Amount float64 `json:"amount"`
}

// NewStock returns a stock of the given kind. A negative or non-finite
// amount yields ErrNegativeStock.
func NewStock(kind Kind, amount float64) (Stock, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Stock{}, fmt.Errorf("%w: new %s stock %g", ErrNegativeStock, kind, amount)
	}
	return Stock{Kind: kind, Amount: amount}, nil
}

// Add changes the amount by delta. The stock is left unchanged and
// ErrNegativeStock is returned if the result would be below zero.
func (s *Stock) Add(delta float64) error {
	next := s.Amount + delta
	if next < 0 || math.IsNaN(next) {
		return fmt.Errorf("%w: %s %g %+g", ErrNegativeStock, s.Kind, s.Amount, delta)
	}
	s.Amount = next
	return nil
}

// Budget accumulates material that has entered or left a core, by route.
// Eroded and Deposited are indexed by Kind. All amounts are in cm.
type Budget struct {
	Deposited   [4]float64 `json:"deposited"`
	Litter      float64    `json:"litter"`
	Mineralized float64    `json:"mineralized"`
	Eroded      [4]float64 `json:"eroded"`
}

// In returns all material added to the core by new layers and litter.
func (b Budget) In() float64 {
	total := b.Litter
	for _, v := range b.Deposited {
		total += v
	}
	return total
}

// Out returns all material that has left the core.
func (b Budget) Out() float64 {
	total := b.Mineralized
	for _, v := range b.Eroded {
		total += v
	}
	return total
}
