package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimestepInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   TimestepInput
		wantErr bool
	}{
		{
			name:  "surface biomass and absolute litter",
			input: TimestepInput{Deposition: 1, BiomassAtSurface: Float(0.01), Litter: Float(0)},
		},
		{
			name:  "stem volume and litter fraction",
			input: TimestepInput{Deposition: -1, BiomassAboveSurface: Float(2), LitterFraction: Float(0.1), Substeps: 4},
		},
		{
			name:    "both biomass forms",
			input:   TimestepInput{BiomassAtSurface: Float(1), BiomassAboveSurface: Float(1), Litter: Float(0)},
			wantErr: true,
		},
		{
			name:    "neither biomass form",
			input:   TimestepInput{Litter: Float(0)},
			wantErr: true,
		},
		{
			name:    "both litter forms",
			input:   TimestepInput{BiomassAtSurface: Float(1), Litter: Float(1), LitterFraction: Float(0.1)},
			wantErr: true,
		},
		{
			name:    "neither litter form",
			input:   TimestepInput{BiomassAtSurface: Float(1)},
			wantErr: true,
		},
		{
			name:    "negative substeps",
			input:   TimestepInput{BiomassAtSurface: Float(1), Litter: Float(0), Substeps: -2},
			wantErr: true,
		},
		{
			name:    "infinite deposition",
			input:   TimestepInput{Deposition: math.Inf(1), BiomassAtSurface: Float(1), Litter: Float(0)},
			wantErr: true,
		},
		{
			name:    "NaN deposition",
			input:   TimestepInput{Deposition: math.NaN(), BiomassAtSurface: Float(1), Litter: Float(0)},
			wantErr: true,
		},
		{
			name:    "negative biomass",
			input:   TimestepInput{BiomassAtSurface: Float(-1), Litter: Float(0)},
			wantErr: true,
		},
		{
			name:    "negative years",
			input:   TimestepInput{BiomassAtSurface: Float(1), Litter: Float(0), Years: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimestepInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTimestepInputDefaults(t *testing.T) {
	in := TimestepInput{}
	assert.Equal(t, 1, in.SubstepCount())
	assert.Equal(t, 1.0, in.Duration())

	in = TimestepInput{Substeps: 5, Years: 0.5}
	assert.Equal(t, 5, in.SubstepCount())
	assert.Equal(t, 0.5, in.Duration())
}

func TestClassifyChange(t *testing.T) {
	assert.Equal(t, SedimentChange{Kind: Deposit, Amount: 2}, ClassifyChange(2))
	assert.Equal(t, SedimentChange{Kind: Erode, Amount: 1.5}, ClassifyChange(-1.5))
	assert.Equal(t, SedimentChange{Kind: Neutral}, ClassifyChange(0))

	scaled := ClassifyChange(-3).Scale(4)
	assert.Equal(t, Erode, scaled.Kind)
	assert.InDelta(t, 0.75, scaled.Amount, 1e-12)

	assert.Equal(t, "deposit", Deposit.String())
	assert.Equal(t, "erode", Erode.String())
	assert.Equal(t, "neutral", Neutral.String())
}
