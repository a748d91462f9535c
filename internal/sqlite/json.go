package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/netherland/pkg/types"
)

// Column values that hold JSON documents: constants and budget on cores,
// input on steps.

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeJSON(column, data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}

func parseTime(column, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", column, err)
	}
	return t, nil
}

// layerRow is a layers table row.
type layerRow struct {
	top, bottom                            float64
	biomass, labile, refractory, inorganic float64
	anchor, liveTop, liveBottom            float64
}

func rowFromLayer(l types.Layer) layerRow {
	return layerRow{
		top:        l.Top,
		bottom:     l.Bottom,
		biomass:    l.Biomass.Amount,
		labile:     l.Labile.Amount,
		refractory: l.Refractory.Amount,
		inorganic:  l.Inorganic.Amount,
		anchor:     l.Anchor,
		liveTop:    l.LiveTop,
		liveBottom: l.LiveBottom,
	}
}

func (r layerRow) layer() types.Layer {
	return types.Layer{
		Top:        r.top,
		Bottom:     r.bottom,
		Biomass:    types.Stock{Kind: types.Biomass, Amount: r.biomass},
		Labile:     types.Stock{Kind: types.Labile, Amount: r.labile},
		Refractory: types.Stock{Kind: types.Refractory, Amount: r.refractory},
		Inorganic:  types.Stock{Kind: types.Inorganic, Amount: r.inorganic},
		Anchor:     r.anchor,
		LiveTop:    r.liveTop,
		LiveBottom: r.liveBottom,
	}
}

func (r *layerRow) scanArgs() []any {
	return []any{
		&r.top, &r.bottom,
		&r.biomass, &r.labile, &r.refractory, &r.inorganic,
		&r.anchor, &r.liveTop, &r.liveBottom,
	}
}
