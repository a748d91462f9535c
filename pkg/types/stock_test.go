package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "biomass", Biomass.String())
	assert.Equal(t, "labile", Labile.String())
	assert.Equal(t, "refractory", Refractory.String())
	assert.Equal(t, "inorganic", Inorganic.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestKindOrganic(t *testing.T) {
	assert.True(t, Biomass.Organic())
	assert.True(t, Labile.Organic())
	assert.True(t, Refractory.Organic())
	assert.False(t, Inorganic.Organic())
}

func TestNewStock(t *testing.T) {
	s, err := NewStock(Labile, 2.5)
	require.NoError(t, err)
	assert.Equal(t, Stock{Kind: Labile, Amount: 2.5}, s)

	_, err = NewStock(Labile, -0.1)
	assert.ErrorIs(t, err, ErrNegativeStock)

	_, err = NewStock(Labile, math.NaN())
	assert.ErrorIs(t, err, ErrNegativeStock)
}

func TestStockAdd(t *testing.T) {
	s := Stock{Kind: Refractory, Amount: 1}

	require.NoError(t, s.Add(0.5))
	assert.Equal(t, 1.5, s.Amount)

	require.NoError(t, s.Add(-1.5))
	assert.Equal(t, 0.0, s.Amount)

	err := s.Add(-0.001)
	assert.ErrorIs(t, err, ErrNegativeStock)
	assert.Equal(t, 0.0, s.Amount, "amount must not change on error")
}

func TestLayerAccessors(t *testing.T) {
	l := Layer{
		Top: 2, Bottom: 0,
		Biomass:    Stock{Kind: Biomass, Amount: 0.1},
		Labile:     Stock{Kind: Labile, Amount: 1},
		Refractory: Stock{Kind: Refractory, Amount: 0.25},
		Inorganic:  Stock{Kind: Inorganic, Amount: 0.5},
	}

	assert.Equal(t, 2.0, l.Thickness())
	assert.InDelta(t, 1.75, l.Inanimate(), 1e-12)
	assert.InDelta(t, 1.35, l.Organic(), 1e-12)
	assert.InDelta(t, 1.85, l.Total(), 1e-12)
	for _, k := range Kinds {
		assert.Equal(t, k, l.Stock(k).Kind)
	}
	assert.False(t, l.HasLiveSpan())
}

func TestBudgetTotals(t *testing.T) {
	b := Budget{Mineralized: 1, Litter: 0.5}
	b.Eroded[Labile] = 0.5
	b.Eroded[Inorganic] = 0.25
	b.Deposited[Biomass] = 0.1
	b.Deposited[Inorganic] = 2
	assert.InDelta(t, 1.75, b.Out(), 1e-12)
	assert.InDelta(t, 2.6, b.In(), 1e-12)
}
