package types

// Layer is a depth-bounded slice of a core created by one deposition event.
//
// Live biomass inside the layer follows the exponential root profile it was
// created with: density is proportional to exp(-k1*(Anchor-z)) for elevations
// z in [LiveBottom, LiveTop]. Anchor is the surface elevation at creation.
// An empty span (LiveTop == LiveBottom) holds no biomass.
type Layer struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`

	Biomass    Stock `json:"biomass"`
	Labile     Stock `json:"labile"`
	Refractory Stock `json:"refractory"`
	Inorganic  Stock `json:"inorganic"`

	Anchor     float64 `json:"anchor"`
	LiveTop    float64 `json:"live_top"`
	LiveBottom float64 `json:"live_bottom"`
}

// Thickness returns Top - Bottom [cm].
func (l Layer) Thickness() float64 {
	return l.Top - l.Bottom
}

// Stock returns a pointer to the layer's stock of the given kind.
func (l *Layer) Stock(kind Kind) *Stock {
	switch kind {
	case Biomass:
		return &l.Biomass
	case Labile:
		return &l.Labile
	case Refractory:
		return &l.Refractory
	default:
		return &l.Inorganic
	}
}

// Inanimate returns the sum of the labile, refractory and inorganic stocks.
func (l Layer) Inanimate() float64 {
	return l.Labile.Amount + l.Refractory.Amount + l.Inorganic.Amount
}

// Organic returns the sum of the biomass, labile and refractory stocks.
func (l Layer) Organic() float64 {
	return l.Biomass.Amount + l.Labile.Amount + l.Refractory.Amount
}

// Total returns the sum of all four stocks.
func (l Layer) Total() float64 {
	return l.Biomass.Amount + l.Inanimate()
}

// HasLiveSpan reports whether the layer still carries a biomass profile.
func (l Layer) HasLiveSpan() bool {
	return l.LiveTop > l.LiveBottom && l.Biomass.Amount > 0
}
