package binning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/twopoint/internal/config"
)

func TestNew_Linear(t *testing.T) {
	b, err := New(config.SpaceFourier, Linear, 0, 0.1, 10)
	require.NoError(t, err)

	require.Len(t, b.Edges, 11)
	require.Len(t, b.Centres, 10)
	assert.Equal(t, 0.0, b.Edges[0])
	assert.Equal(t, 0.1, b.Edges[10])
	assert.InDelta(t, 0.005, b.Centres[0], 1e-15)
	assert.InDelta(t, 0.095, b.Centres[9], 1e-15)
	assert.InDelta(t, 0.01, b.Width(3), 1e-15)
	assert.Equal(t, "k", b.Label())
}

func TestNew_Logarithmic(t *testing.T) {
	b, err := New(config.SpaceConfig, Logarithmic, 1, 1000, 3)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1, 10, 100, 1000}, b.Edges, 1e-9)
	assert.InDelta(t, math.Sqrt(10), b.Centres[0], 1e-12)
	assert.Equal(t, "r", b.Label())
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name     string
		scheme   Scheme
		min, max float64
		num      int
	}{
		{"zero bins", Linear, 0, 1, 0},
		{"reversed", Linear, 1, 0, 4},
		{"negative", Linear, -1, 1, 4},
		{"log from zero", Logarithmic, 0, 1, 4},
		{"unknown scheme", Scheme("sqrt"), 0, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(config.SpaceConfig, tt.scheme, tt.min, tt.max, tt.num)
			assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
		})
	}
}

func TestIndex(t *testing.T) {
	b, err := New(config.SpaceConfig, Linear, 0, 10, 5)
	require.NoError(t, err)

	tests := []struct {
		v    float64
		want int
	}{
		{-0.1, -1},
		{0, 0},
		{1.99, 0},
		{2, 1},
		{9.5, 4},
		{10, 4},
		{10.01, -1},
		{math.NaN(), -1},
	}
	for _, tt := range tests {
		if got := b.Index(tt.v); got != tt.want {
			t.Errorf("Index(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestFromSettings(t *testing.T) {
	s := &config.Settings{
		StatisticType: "2pcf",
		BinScheme:     "lin",
		Range:         [2]float64{0.5, 200.5},
		NumBins:       20,
	}
	b, err := FromSettings(s)
	require.NoError(t, err)

	assert.Equal(t, config.SpaceConfig, b.Space)
	assert.Equal(t, 20, b.Num)
	assert.InDelta(t, 5.5, b.Centres[0], 1e-12)
}
