// Tests for the transition engine: phase order, layer lifecycle, erosion
// policies, sub-stepping, and the conservation properties of a step.
package core

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/netherland/internal/biomass"
	"github.com/mesh-intelligence/netherland/pkg/types"
)

const tol = 1e-9

func neutral() types.TimestepInput {
	return types.TimestepInput{
		BiomassAtSurface: types.Float(0.0105),
		Litter:           types.Float(0),
	}
}

func deposit(d float64) types.TimestepInput {
	in := neutral()
	in.Deposition = d
	return in
}

// checkInvariants asserts contiguity, bottom invariance, non-negative stocks
// and that no live biomass sits below the root zone.
func checkInvariants(t *testing.T, c *Core) {
	t.Helper()
	cst := c.Constants()
	layers := c.Layers()
	require.NotEmpty(t, layers)
	assert.Equal(t, cst.DB, layers[0].Bottom, "bottom elevation moved")
	assert.Equal(t, cst.DU, layers[0].Top, "bottom layer top moved")
	cut := c.Elevation() - cst.RD
	for i, l := range layers {
		assert.Greater(t, l.Top, l.Bottom, "layer %d thickness", i)
		if i > 0 {
			assert.Equal(t, layers[i-1].Top, l.Bottom, "layer %d not contiguous", i)
		}
		for _, k := range types.Kinds {
			assert.GreaterOrEqual(t, l.Stock(k).Amount, 0.0, "layer %d %s", i, k)
		}
		if l.HasLiveSpan() {
			assert.GreaterOrEqual(t, l.LiveBottom, cut-tol, "layer %d holds biomass below the root zone", i)
		}
	}
}

func TestStep_ZeroDepositionKeepsLayerCount(t *testing.T) {
	c := build(t)
	e := NewEngine()

	require.NoError(t, e.Step(c, neutral()))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Steps())
	bottom := c.Bottom()
	assert.InDelta(t, 24.0*math.Exp(-0.38), bottom.Labile.Amount, tol)
	assert.InDelta(t, 6.0, bottom.Refractory.Amount, tol)
	assert.InDelta(t, 5.1, bottom.Inorganic.Amount, tol)
	assert.InDelta(t, 24.0*(1-math.Exp(-0.38)), c.Budget().Mineralized, tol)
	checkInvariants(t, c)
}

func TestStep_NewLayerIsSuperadditive(t *testing.T) {
	c := build(t)
	e := NewEngine()

	require.NoError(t, e.Step(c, deposit(0.5)))

	require.Equal(t, 2, c.Len())
	top := c.Top()
	assert.Equal(t, 0.0, top.Bottom)
	assert.InDelta(t, 0.5, top.Top, tol)
	assert.InDelta(t, 0.5*0.83*0.8, top.Labile.Amount, tol)
	assert.InDelta(t, 0.5*0.83*0.2, top.Refractory.Amount, tol)
	assert.InDelta(t, 0.5*0.17, top.Inorganic.Amount, tol)

	want := biomass.New(reference()).IntegrateLength(0.0105, 0, 0.5)
	assert.InDelta(t, want, top.Biomass.Amount, tol)
	assert.Greater(t, top.Total(), 0.5)
	assert.Equal(t, top.Top, top.Anchor)
	assert.Equal(t, top.Top, top.LiveTop)
	assert.Equal(t, top.Bottom, top.LiveBottom)
	checkInvariants(t, c)
}

func TestStep_NoBiomassNoLiveSpan(t *testing.T) {
	c := build(t)
	in := deposit(1)
	in.BiomassAtSurface = types.Float(0)

	require.NoError(t, NewEngine().Step(c, in))

	top := c.Top()
	assert.Equal(t, 0.0, top.Biomass.Amount)
	assert.False(t, top.HasLiveSpan())
	assert.InDelta(t, 1.0, top.Total(), tol)
}

func TestStep_TransitionConservesOrganicMass(t *testing.T) {
	c := build(t)
	e := NewEngine()
	require.NoError(t, e.Step(c, deposit(2)))

	before := c.Totals()
	mineralizedBefore := c.Budget().Mineralized
	require.NoError(t, e.Step(c, neutral()))
	after := c.Totals()

	organicBefore := before[types.Biomass] + before[types.Labile] + before[types.Refractory]
	organicAfter := after[types.Biomass] + after[types.Labile] + after[types.Refractory]
	mineralized := c.Budget().Mineralized - mineralizedBefore

	assert.Less(t, after[types.Biomass], before[types.Biomass])
	assert.InDelta(t, organicBefore, organicAfter+mineralized, tol)
	assert.Equal(t, before[types.Inorganic], after[types.Inorganic])
}

func TestStep_NoInorganicFromBiology(t *testing.T) {
	c := build(t)
	e := NewEngine()
	require.NoError(t, e.Step(c, deposit(5)))
	inorganic := c.Totals()[types.Inorganic]

	in := neutral()
	in.Litter = types.Float(0.5)
	for i := 0; i < 20; i++ {
		require.NoError(t, e.Step(c, in))
		assert.Equal(t, inorganic, c.Totals()[types.Inorganic], "step %d", c.Steps())
	}
}

func TestStep_BiomassAshRoutesShareToInorganic(t *testing.T) {
	cst := reference()
	cst.BiomassAsh = true
	c, err := Build(cst)
	require.NoError(t, err)
	e := NewEngine()
	require.NoError(t, e.Step(c, deposit(5)))

	before := c.Totals()
	require.NoError(t, e.Step(c, neutral()))
	after := c.Totals()

	turned := before[types.Biomass] - after[types.Biomass]
	assert.InDelta(t, turned*cst.K3, after[types.Inorganic]-before[types.Inorganic], tol)
}

func TestStep_Litter(t *testing.T) {
	tests := []struct {
		name string
		in   types.TimestepInput
	}{
		{
			name: "absolute",
			in: types.TimestepInput{
				BiomassAtSurface: types.Float(0),
				Litter:           types.Float(0.07182),
			},
		},
		{
			name: "fraction of above ground production",
			in: types.TimestepInput{
				BiomassAtSurface: types.Float(0.14364),
				LitterFraction:   types.Float(0.5),
			},
		},
		{
			name: "stem volume",
			in: types.TimestepInput{
				BiomassAboveSurface: types.Float(0.14364),
				LitterFraction:      types.Float(0.5),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := build(t)
			require.NoError(t, NewEngine().Step(c, tt.in))

			bottom := c.Bottom()
			assert.InDelta(t, 24.0*math.Exp(-0.38)+0.8, bottom.Labile.Amount, 1e-6)
			assert.InDelta(t, 6.2, bottom.Refractory.Amount, 1e-6)
			assert.InDelta(t, 5.1, bottom.Inorganic.Amount, tol)
			assert.Equal(t, 0.0, bottom.Biomass.Amount)
			assert.InDelta(t, 1.0, c.Budget().Litter, 1e-6)
		})
	}
}

func TestStep_LitterGoesToNewLayer(t *testing.T) {
	c := build(t)
	in := deposit(1)
	in.Litter = types.Float(0.07182)

	require.NoError(t, NewEngine().Step(c, in))

	top := c.Top()
	assert.InDelta(t, 0.83*0.8+0.8, top.Labile.Amount, 1e-6)
	assert.InDelta(t, 0.83*0.2+0.2, top.Refractory.Amount, 1e-6)
	assert.InDelta(t, 6.0, c.Bottom().Refractory.Amount, tol)
}

func TestStep_RemovalReclaimsStrandedBiomass(t *testing.T) {
	c := build(t)
	e := NewEngine()
	require.NoError(t, e.Step(c, deposit(20)))
	first := c.Top()
	require.True(t, first.HasLiveSpan())
	assert.Equal(t, 0.0, first.LiveBottom)

	require.NoError(t, e.Step(c, deposit(20)))

	require.Equal(t, 3, c.Len())
	buried := c.Layer(1)
	assert.InDelta(t, 10.0, buried.LiveBottom, tol)
	assert.InDelta(t, 20.0, buried.LiveTop, tol)

	m := biomass.New(reference())
	remaining := first.Biomass.Amount * (1 - 0.6)
	stranded := remaining * m.FractionBelow(types.Layer{
		Biomass: types.Stock{Amount: 1}, Anchor: 20, LiveTop: 20, LiveBottom: 0,
	}, 10)
	assert.InDelta(t, remaining-stranded, buried.Biomass.Amount, tol)
	checkInvariants(t, c)
}

func TestStep_BiomassLeavesRootZoneEntirely(t *testing.T) {
	c := build(t)
	e := NewEngine()
	require.NoError(t, e.Step(c, deposit(5)))
	require.NoError(t, e.Step(c, deposit(40)))

	buried := c.Layer(1)
	assert.False(t, buried.HasLiveSpan())
	assert.Equal(t, 0.0, buried.Biomass.Amount)
	checkInvariants(t, c)
}

func TestStep_Erosion(t *testing.T) {
	tests := []struct {
		name      string
		erode     float64
		layers    int
		elevation float64
	}{
		{name: "partial top layer", erode: 0.4, layers: 3, elevation: 1.6},
		{name: "exactly one layer", erode: 1.0, layers: 2, elevation: 1.0},
		{name: "across layers", erode: 1.5, layers: 2, elevation: 0.5},
		{name: "down to the bottom layer", erode: 2.0, layers: 1, elevation: 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := build(t)
			e := NewEngine()
			require.NoError(t, e.Step(c, deposit(1)))
			require.NoError(t, e.Step(c, deposit(1)))

			require.NoError(t, e.Step(c, deposit(-tt.erode)))

			assert.Equal(t, tt.layers, c.Len())
			assert.InDelta(t, tt.elevation, c.Elevation(), tol)
			assert.InDelta(t, tt.erode*0.17, c.Budget().Eroded[types.Inorganic], tol)
			checkInvariants(t, c)
		})
	}
}

func TestStep_ErosionToLayerBottomRemovesLayer(t *testing.T) {
	c := build(t)
	e := NewEngine()
	require.NoError(t, e.Step(c, deposit(0.03)))
	require.NoError(t, e.Step(c, deposit(0.01)))

	require.NoError(t, e.Step(c, deposit(-0.01)))

	assert.Equal(t, 2, c.Len())
	assert.InDelta(t, 0.03, c.Elevation(), tol)
	checkInvariants(t, c)
	_, err := Restore(c.Constants(), c.Layers(), c.Steps(), c.Budget())
	require.NoError(t, err)
}

func TestStep_DecimalSeriesKeepLayersRestorable(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for run := 0; run < 300; run++ {
		opts := []Option{WithErosionPolicy(ErosionClamp)}
		if run%2 == 1 {
			opts = append(opts, WithLayerPolicy(LayerPerSubstep))
		}
		e := NewEngine(opts...)
		c := build(t)
		for step := 0; step < 20; step++ {
			in := deposit(float64(rng.IntN(9)-3) / 100)
			in.Substeps = 1 + rng.IntN(5)
			require.NoError(t, e.Step(c, in), "run %d step %d", run, step)
			_, err := Restore(c.Constants(), c.Layers(), c.Steps(), c.Budget())
			require.NoError(t, err, "run %d step %d", run, step)
		}
		checkInvariants(t, c)
	}
}

func TestStep_PartialErosionCutsLiveSpan(t *testing.T) {
	c := build(t)
	e := NewEngine()
	require.NoError(t, e.Step(c, deposit(1)))
	before := c.Top()

	in := deposit(-0.25)
	in.BiomassAtSurface = types.Float(0)
	require.NoError(t, e.Step(c, in))

	top := c.Top()
	assert.InDelta(t, 0.75, top.Top, tol)
	assert.InDelta(t, 0.75, top.LiveTop, tol)
	assert.Equal(t, 1.0, top.Anchor)
	assert.InDelta(t, before.Inorganic.Amount*0.75, top.Inorganic.Amount, tol)
	assert.Less(t, top.Biomass.Amount, before.Biomass.Amount*0.4)
	assert.Greater(t, c.Budget().Eroded[types.Biomass], 0.0)
}

func TestStep_ExhaustedErosionRejected(t *testing.T) {
	c := build(t)
	e := NewEngine()
	require.NoError(t, e.Step(c, deposit(1)))
	layers := c.Layers()
	budget := c.Budget()

	err := e.Step(c, deposit(-1.5))

	require.ErrorIs(t, err, types.ErrExhaustedErosion)
	assert.Equal(t, layers, c.Layers(), "failed step mutated the core")
	assert.Equal(t, budget, c.Budget())
	assert.Equal(t, 1, c.Steps())
}

func TestStep_ExhaustedErosionOnBareCore(t *testing.T) {
	c := build(t)
	err := NewEngine().Step(c, deposit(-0.1))
	require.ErrorIs(t, err, types.ErrExhaustedErosion)
	assert.Equal(t, 0, c.Steps())
}

func TestStep_ExhaustedErosionClamped(t *testing.T) {
	obs, logs := observer.New(zap.WarnLevel)
	c := build(t)
	e := NewEngine(WithErosionPolicy(ErosionClamp), WithLogger(zap.New(obs)))
	require.NoError(t, e.Step(c, deposit(1)))

	require.NoError(t, e.Step(c, deposit(-3)))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0.0, c.Elevation())
	assert.Equal(t, 1, logs.FilterMessage("erosion clamped at bottom layer").Len())
	checkInvariants(t, c)
}

func TestStep_NegativeStockWhenTurnoverExceedsBiomass(t *testing.T) {
	c := build(t)
	e := NewEngine()
	require.NoError(t, e.Step(c, deposit(1)))
	layers := c.Layers()

	in := neutral()
	in.Years = 2
	err := e.Step(c, in)
	require.ErrorIs(t, err, types.ErrNegativeStock)
	assert.Equal(t, layers, c.Layers())

	in.Substeps = 2
	require.NoError(t, e.Step(c, in))
}

func TestStep_InvalidInput(t *testing.T) {
	c := build(t)
	err := NewEngine().Step(c, types.TimestepInput{Deposition: 1})
	require.ErrorIs(t, err, types.ErrInvalidTimestepInput)
	assert.Equal(t, 1, c.Len())
}

func TestStep_LayerPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   LayerPolicy
		substeps int
		added    int
	}{
		{name: "per timestep, one substep", policy: LayerPerTimestep, substeps: 1, added: 1},
		{name: "per timestep, four substeps", policy: LayerPerTimestep, substeps: 4, added: 1},
		{name: "per substep, one substep", policy: LayerPerSubstep, substeps: 1, added: 1},
		{name: "per substep, four substeps", policy: LayerPerSubstep, substeps: 4, added: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := build(t)
			e := NewEngine(WithLayerPolicy(tt.policy))
			in := deposit(1)
			in.Substeps = tt.substeps

			require.NoError(t, e.Step(c, in))

			assert.Equal(t, 1+tt.added, c.Len())
			assert.InDelta(t, 1.0, c.Elevation(), tol)
			assert.InDelta(t, 0.17, c.Totals()[types.Inorganic]-5.1, tol)
			checkInvariants(t, c)
		})
	}
}

func TestStep_SubstepConvergence(t *testing.T) {
	total := func(substeps int) (float64, int) {
		c := build(t)
		e := NewEngine()
		for i := 0; i < 5; i++ {
			in := deposit(0.4)
			in.Substeps = substeps
			require.NoError(t, e.Step(c, in))
		}
		return c.Mass(), c.Len()
	}

	m1, n1 := total(1)
	m2, n2 := total(2)
	m64, n64 := total(64)
	m128, n128 := total(128)

	assert.Equal(t, n1, n2)
	assert.Equal(t, n1, n64)
	assert.Equal(t, n1, n128)
	assert.Less(t, math.Abs(m64-m128), math.Abs(m1-m2))
	assert.InDelta(t, m64, m128, 1e-2)
}

func TestStep_SubstepsDoNotChangeDecay(t *testing.T) {
	var labile []float64
	for _, n := range []int{1, 3, 10} {
		c := build(t)
		in := neutral()
		in.Substeps = n
		require.NoError(t, NewEngine().Step(c, in))
		labile = append(labile, c.Bottom().Labile.Amount)
	}
	assert.InDelta(t, labile[0], labile[1], tol)
	assert.InDelta(t, labile[0], labile[2], tol)
}

func TestStep_MassBalance(t *testing.T) {
	c := build(t)
	e := NewEngine(WithErosionPolicy(ErosionClamp))
	initial := c.Mass()

	series := []float64{0.5, 0.3, 0, -0.2, 1.2, -0.1, 0, 0.8, -3, 0.6}
	for _, d := range series {
		in := deposit(d)
		in.Litter = types.Float(0.01)
		in.Substeps = 3
		require.NoError(t, e.Step(c, in))
		checkInvariants(t, c)

		b := c.Budget()
		assert.InDelta(t, initial+b.In(), c.Mass()+b.Out(), 1e-9, "step %d", c.Steps())
	}
	assert.Equal(t, len(series), c.Steps())
}

func TestParsePolicies(t *testing.T) {
	p, err := ParseErosionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ErosionReject, p)
	p, err = ParseErosionPolicy("clamp")
	require.NoError(t, err)
	assert.Equal(t, ErosionClamp, p)
	assert.Equal(t, "clamp", p.String())
	_, err = ParseErosionPolicy("ignore")
	assert.ErrorIs(t, err, types.ErrInvalidConfiguration)

	l, err := ParseLayerPolicy("substep")
	require.NoError(t, err)
	assert.Equal(t, LayerPerSubstep, l)
	assert.Equal(t, "substep", l.String())
	l, err = ParseLayerPolicy("")
	require.NoError(t, err)
	assert.Equal(t, LayerPerTimestep, l)
	_, err = ParseLayerPolicy("yearly")
	assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
}

func TestNewEngine_Options(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, ErosionReject, e.ErosionPolicy())
	assert.Equal(t, LayerPerTimestep, e.LayerPolicy())

	e = NewEngine(WithErosionPolicy(ErosionClamp), WithLayerPolicy(LayerPerSubstep), WithLogger(nil))
	assert.Equal(t, ErosionClamp, e.ErosionPolicy())
	assert.Equal(t, LayerPerSubstep, e.LayerPolicy())
	assert.NotNil(t, e.logger)
}
