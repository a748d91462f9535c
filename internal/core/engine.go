package core

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/netherland/internal/biomass"
	"github.com/mesh-intelligence/netherland/internal/decomposition"
	"github.com/mesh-intelligence/netherland/pkg/types"
)

// ErosionPolicy selects what Step does when erosion demand exceeds the
// material above the bottom layer.
type ErosionPolicy int

const (
	// ErosionReject fails the step with ErrExhaustedErosion.
	ErosionReject ErosionPolicy = iota
	// ErosionClamp erodes down to the bottom layer and logs a warning.
	ErosionClamp
)

// Erosion policy names as used in configuration.
const (
	ErosionRejectName = "reject"
	ErosionClampName  = "clamp"
)

// ParseErosionPolicy maps a configuration name to a policy. The empty
// string selects ErosionReject.
func ParseErosionPolicy(name string) (ErosionPolicy, error) {
	switch name {
	case "", ErosionRejectName:
		return ErosionReject, nil
	case ErosionClampName:
		return ErosionClamp, nil
	}
	return 0, fmt.Errorf("%w: erosion policy %q (want %s or %s)",
		types.ErrInvalidConfiguration, name, ErosionRejectName, ErosionClampName)
}

func (p ErosionPolicy) String() string {
	if p == ErosionClamp {
		return ErosionClampName
	}
	return ErosionRejectName
}

// LayerPolicy selects how many layers a depositing timestep creates when it
// is split into sub-timesteps.
type LayerPolicy int

const (
	// LayerPerTimestep merges the layers created by the sub-timesteps of one
	// timestep, so a depositing timestep always adds exactly one layer.
	LayerPerTimestep LayerPolicy = iota
	// LayerPerSubstep keeps one layer per depositing sub-timestep.
	LayerPerSubstep
)

// Layer policy names as used in configuration.
const (
	LayerPerTimestepName = "timestep"
	LayerPerSubstepName  = "substep"
)

// ParseLayerPolicy maps a configuration name to a policy. The empty string
// selects LayerPerTimestep.
func ParseLayerPolicy(name string) (LayerPolicy, error) {
	switch name {
	case "", LayerPerTimestepName:
		return LayerPerTimestep, nil
	case LayerPerSubstepName:
		return LayerPerSubstep, nil
	}
	return 0, fmt.Errorf("%w: layer policy %q (want %s or %s)",
		types.ErrInvalidConfiguration, name, LayerPerTimestepName, LayerPerSubstepName)
}

func (p LayerPolicy) String() string {
	if p == LayerPerSubstep {
		return LayerPerSubstepName
	}
	return LayerPerTimestepName
}

// Engine advances cores one timestep at a time. An Engine holds no per-core
// state and may be shared by goroutines stepping different cores.
type Engine struct {
	logger  *zap.Logger
	erosion ErosionPolicy
	layers  LayerPolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for step and phase records.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithErosionPolicy sets the erosion policy.
func WithErosionPolicy(p ErosionPolicy) Option {
	return func(e *Engine) { e.erosion = p }
}

// WithLayerPolicy sets the layer policy.
func WithLayerPolicy(p LayerPolicy) Option {
	return func(e *Engine) { e.layers = p }
}

// NewEngine returns an Engine that rejects exhausted erosion and creates one
// layer per depositing timestep, unless options say otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ErosionPolicy returns the engine's erosion policy.
func (e *Engine) ErosionPolicy() ErosionPolicy { return e.erosion }

// LayerPolicy returns the engine's layer policy.
func (e *Engine) LayerPolicy() LayerPolicy { return e.layers }

// substep carries the per-sub-timestep forcing, already divided by the
// number of sub-timesteps where the quantity is a total.
type substep struct {
	dt     float64
	change types.SedimentChange
	ro     float64
	litter float64
}

// Step applies one timestep to c. The input is split into Substeps equal
// sub-timesteps and each runs the five phases in order: transition,
// deposition or erosion, removal, new layer, litter.
//
// Step is transactional: on error c is left exactly as it was.
func (e *Engine) Step(c *Core, in types.TimestepInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	model := biomass.New(c.constants)
	n := in.SubstepCount()
	sub := substep{
		dt:     in.Duration() / float64(n),
		change: in.Change().Scale(n),
		ro:     model.SurfaceBiomass(in),
		litter: model.RetainedLitter(in) / float64(n),
	}

	work := c.Clone()
	firstNew := work.top + 1
	step := c.steps + 1

	for i := 0; i < n; i++ {
		if err := e.substep(work, model, sub); err != nil {
			e.logger.Debug("step failed",
				zap.Int("step", step), zap.Int("substep", i+1), zap.Error(err))
			return fmt.Errorf("step %d substep %d: %w", step, i+1, err)
		}
	}

	if e.layers == LayerPerTimestep && work.top > firstNew {
		e.logger.Debug("merging sub-timestep layers",
			zap.Int("step", step), zap.Int("layers", work.top-firstNew+1))
		work.mergeAbove(firstNew)
	}
	work.steps = step

	e.logger.Debug("step applied",
		zap.Int("step", step),
		zap.Stringer("change", sub.change.Kind),
		zap.Float64("deposition", in.Deposition),
		zap.Int("substeps", n),
		zap.Int("layers", work.Len()),
		zap.Float64("elevation", work.Elevation()),
	)
	*c = *work
	return nil
}

func (e *Engine) substep(c *Core, m biomass.Model, sub substep) error {
	if err := e.transition(c, m, sub.dt); err != nil {
		return fmt.Errorf("transition: %w", err)
	}

	var pending float64
	switch sub.change.Kind {
	case types.Deposit:
		pending = sub.change.Amount
	case types.Erode:
		if err := e.erode(c, m, sub.change.Amount); err != nil {
			return fmt.Errorf("erosion: %w", err)
		}
	case types.Neutral:
	}

	if err := e.remove(c, m, c.Elevation()+pending-c.constants.RD); err != nil {
		return fmt.Errorf("removal: %w", err)
	}

	if sub.change.Kind == types.Deposit {
		if err := e.deposit(c, m, pending, sub.ro); err != nil {
			return fmt.Errorf("new layer: %w", err)
		}
	}

	if err := e.addLitter(c, sub.litter); err != nil {
		return fmt.Errorf("litter: %w", err)
	}
	return nil
}

// transition decays labile material and turns biomass over into inanimate
// material in every layer.
func (e *Engine) transition(c *Core, m biomass.Model, dt float64) error {
	for i := 0; i <= c.top; i++ {
		l := &c.layers[i]

		lost := decomposition.Decompose(l.Labile.Amount, c.constants.K, dt)
		if err := l.Labile.Add(-lost); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		c.budget.Mineralized += lost

		flux := m.Turnover(l.Biomass.Amount, dt)
		if err := l.Biomass.Add(-flux); err != nil {
			return fmt.Errorf("layer %d turnover: %w", i, err)
		}
		if err := bury(l, m, flux); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// erode lowers the surface by amount cm. Erosion is measured by thickness,
// not by the top layer's inanimate stock: layers lying wholly above the
// target elevation are removed, and the layer containing it is cut there
// with its stocks reduced by the removed share of its thickness. The bottom
// layer is never eroded.
func (e *Engine) erode(c *Core, m biomass.Model, amount float64) error {
	floor := c.layers[0].Top
	removable := c.Elevation() - floor
	target := c.Elevation() - amount
	if amount > removable {
		if e.erosion == ErosionReject {
			return fmt.Errorf("%w: demand %g cm exceeds %g cm above the bottom layer",
				types.ErrExhaustedErosion, amount, removable)
		}
		e.logger.Warn("erosion clamped at bottom layer",
			zap.Float64("demand", amount), zap.Float64("removable", removable))
	}
	target = math.Max(target, floor)

	// A cut never lands on a layer's bottom; such layers go whole.
	for c.top > 0 && c.layers[c.top].Bottom >= target {
		removed := c.pop()
		for _, k := range types.Kinds {
			c.budget.Eroded[k] += removed.Stock(k).Amount
		}
	}

	l := &c.layers[c.top]
	if c.top == 0 || target >= l.Top {
		return nil
	}
	share := (l.Top - target) / l.Thickness()
	for _, k := range []types.Kind{types.Labile, types.Refractory, types.Inorganic} {
		s := l.Stock(k)
		if err := take(s, s.Amount*share, &c.budget.Eroded[k]); err != nil {
			return err
		}
	}
	above := l.Biomass.Amount * m.FractionAbove(*l, target)
	if err := take(&l.Biomass, above, &c.budget.Eroded[types.Biomass]); err != nil {
		return err
	}
	l.Top = target
	l.LiveTop = math.Min(l.LiveTop, target)
	l.LiveBottom = math.Min(l.LiveBottom, target)
	return nil
}

// remove converts biomass lying below elevation cut into inanimate material
// and shrinks each affected live span to end at cut.
func (e *Engine) remove(c *Core, m biomass.Model, cut float64) error {
	for i := c.top; i >= 0; i-- {
		l := &c.layers[i]
		f := m.FractionBelow(*l, cut)
		if f == 0 {
			continue
		}
		stranded := l.Biomass.Amount
		if f < 1 {
			stranded *= f
			l.LiveBottom = cut
		} else {
			l.LiveBottom = l.LiveTop
		}
		if err := l.Biomass.Add(-stranded); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if err := bury(l, m, stranded); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// deposit writes a new layer of thickness d on top of the column. Its
// inanimate stocks come from the deposited sediment and its biomass is
// integrated over the new root zone on top of that.
func (e *Engine) deposit(c *Core, m biomass.Model, d, ro float64) error {
	cst := c.constants
	base := c.Elevation()
	top := base + d
	if !(top > base) {
		e.logger.Warn("deposition below elevation resolution skipped",
			zap.Float64("deposition", d), zap.Float64("elevation", base))
		return nil
	}

	organic := d * cst.FO
	l := types.Layer{
		Top:        top,
		Bottom:     base,
		Biomass:    types.Stock{Kind: types.Biomass},
		Labile:     types.Stock{Kind: types.Labile},
		Refractory: types.Stock{Kind: types.Refractory},
		Inorganic:  types.Stock{Kind: types.Inorganic},
		Anchor:     top,
		LiveTop:    top,
		LiveBottom: top,
	}
	amounts := [4]float64{
		types.Biomass:    m.IntegrateLength(ro, 0, d),
		types.Labile:     organic * cst.FL(),
		types.Refractory: organic * cst.FC,
		types.Inorganic:  d * cst.FI(),
	}
	for _, k := range types.Kinds {
		s, err := types.NewStock(k, amounts[k])
		if err != nil {
			return err
		}
		*l.Stock(k) = s
		c.budget.Deposited[k] += s.Amount
	}
	if l.Biomass.Amount > 0 {
		l.LiveBottom = math.Max(base, top-cst.RD)
	}
	c.push(l)
	return nil
}

// addLitter adds retained litter [cm] to the top layer's labile and
// refractory stocks.
func (e *Engine) addLitter(c *Core, litter float64) error {
	if litter == 0 {
		return nil
	}
	l := &c.layers[c.top]
	refractory := litter * c.constants.FC
	if err := l.Refractory.Add(refractory); err != nil {
		return err
	}
	if err := l.Labile.Add(litter - refractory); err != nil {
		return err
	}
	c.budget.Litter += litter
	return nil
}

// bury adds a biomass flux to the layer's inanimate stocks.
func bury(l *types.Layer, m biomass.Model, flux float64) error {
	labile, refractory, inorganic := m.Split(flux)
	if err := l.Labile.Add(labile); err != nil {
		return err
	}
	if err := l.Refractory.Add(refractory); err != nil {
		return err
	}
	return l.Inorganic.Add(inorganic)
}

// take moves amount out of s and into sink.
func take(s *types.Stock, amount float64, sink *float64) error {
	if err := s.Add(-amount); err != nil {
		return err
	}
	*sink += amount
	return nil
}
