package config

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/twopoint/internal/monitoring"
)

func captureWarnings(t *testing.T) *[]string {
	t.Helper()
	var got []string
	original := monitoring.Warnf
	monitoring.SetWarnLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Warnf = original })
	return &got
}

func TestBuilder_RequiresInput(t *testing.T) {
	_, err := NewBuilder().Build()
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewBuilder().WithDegree(2).Build()
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestBuilder_SamplingOnly_WarnsForEveryDefault(t *testing.T) {
	warnings := captureWarnings(t)

	s, err := NewBuilder().
		WithSampling(SamplingOverrides{
			BoxSize: &Vec3{X: 100, Y: 100, Z: 100},
			NGrid:   &IntVec3{X: 32, Y: 32, Z: 32},
		}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, [3]float64{100, 100, 100}, s.BoxSize)
	assert.Equal(t, [3]int{32, 32, 32}, s.NGrid)
	assert.NotContains(t, s.UsedDefaults, "boxsize")
	assert.NotContains(t, s.UsedDefaults, "ngrid")
	assert.Contains(t, s.UsedDefaults, "alignment")
	assert.Contains(t, s.UsedDefaults, "norm_convention")
	assert.Len(t, *warnings, len(s.UsedDefaults))
}

func TestBuilder_OverridesTakePrecedence(t *testing.T) {
	captureWarnings(t)

	base := &Params{
		Alignment:  ptrString("centre"),
		Assignment: ptrString("cic"),
		Degrees:    &Degrees{ELL: ptrInt(0)},
	}
	s, err := NewBuilder().
		WithParams(base).
		WithSampling(SamplingOverrides{
			Alignment: ptrString("pad"),
			PadScale:  ptrString("grid"),
			Interlace: ptrBool(false),
		}).
		WithDegree(4).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "pad", s.Alignment)
	assert.Equal(t, "grid", s.PadScale)
	assert.Equal(t, DefaultGridPadFactor, s.PadFactor)
	assert.Equal(t, "cic", s.Assignment)
	assert.Equal(t, 4, s.Degree)
	assert.NotContains(t, s.UsedDefaults, "interlace")

	// The caller's Params are untouched.
	assert.Equal(t, "centre", *base.Alignment)
	assert.Equal(t, 0, *base.Degrees.ELL)
}

func TestBuilder_WithStatistic(t *testing.T) {
	captureWarnings(t)

	s, err := NewBuilder().
		WithParams(&Params{StatisticType: ptrString("powspec")}).
		WithStatistic("2pcf", "sim").
		Build()
	require.NoError(t, err)
	assert.Equal(t, "2pcf", s.StatisticType)
	assert.Equal(t, "sim", s.CatalogueType)
	assert.Equal(t, SpaceConfig, s.Space())
	assert.Equal(t, defaultConfigRange, s.Range)
}

func TestBuilder_InvalidValues(t *testing.T) {
	captureWarnings(t)

	tests := []struct {
		name   string
		params *Params
	}{
		{"norm convention", &Params{NormConvention: ptrString("volume")}},
		{"save format", &Params{Save: ptrString("hdf5")}},
		{"alignment", &Params{Alignment: ptrString("corner")}},
		{"assignment", &Params{Assignment: ptrString("sph")}},
		{"negative box", &Params{BoxSize: &Vec3{X: -1, Y: 1, Z: 1}}},
		{"zero grid", &Params{NGrid: &IntVec3{X: 0, Y: 8, Z: 8}}},
		{"reversed range", &Params{Range: []float64{2, 1}}},
		{"log from zero", &Params{Binning: ptrString("log"), Range: []float64{0, 1}}},
		{"imputation", &Params{NZImputation: ptrString("sometimes")}},
		{"negative degree", &Params{Degrees: &Degrees{ELL: ptrInt(-1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder().WithParams(tt.params).Build()
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestBuilder_HighDegrees(t *testing.T) {
	captureWarnings(t)

	for _, ell := range []int{9, 12, 20} {
		t.Run(fmt.Sprint(ell), func(t *testing.T) {
			s, err := NewBuilder().WithParams(&Params{}).WithDegree(ell).Build()
			require.NoError(t, err)
			assert.Equal(t, ell, s.Degree)
		})
	}
}

func TestSettings_Geometry(t *testing.T) {
	s := &Settings{BoxSize: [3]float64{100, 200, 300}, NGrid: [3]int{10, 20, 30}}
	assert.Equal(t, 6e6, s.Volume())
	assert.Equal(t, 6000, s.NMesh())
	assert.Equal(t, [3]float64{10, 10, 10}, s.CellSize())
}
