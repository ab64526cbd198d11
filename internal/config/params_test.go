package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyParams_Defaults(t *testing.T) {
	p := &Params{}

	if got := p.GetAlignment(); got != "centre" {
		t.Errorf("GetAlignment() = %q, want centre", got)
	}
	if got := p.GetBoxSize(); got != [3]float64{1000, 1000, 1000} {
		t.Errorf("GetBoxSize() = %v", got)
	}
	if got := p.GetNGrid(); got != [3]int{64, 64, 64} {
		t.Errorf("GetNGrid() = %v", got)
	}
	if got := p.GetNormConvention(); got != "particle" {
		t.Errorf("GetNormConvention() = %q, want particle", got)
	}
	if got := p.GetPadFactor(); got != DefaultBoxPadFactor {
		t.Errorf("GetPadFactor() = %v, want %v", got, DefaultBoxPadFactor)
	}
	if got := p.GetOutputTag(); got != "" {
		t.Errorf("GetOutputTag() = %q, want empty", got)
	}
	if got := p.GetRange(); got != defaultFourierRange {
		t.Errorf("GetRange() = %v, want %v", got, defaultFourierRange)
	}
}

func TestGetPadFactor_DependsOnScale(t *testing.T) {
	p := &Params{PadScale: ptrString("grid")}
	assert.Equal(t, DefaultGridPadFactor, p.GetPadFactor())

	p.PadFactor = ptrFloat64(1.5)
	assert.Equal(t, 1.5, p.GetPadFactor())
}

func TestGetRange_ConfigSpaceDefault(t *testing.T) {
	p := &Params{StatisticType: ptrString("2pcf")}
	assert.Equal(t, defaultConfigRange, p.GetRange())
}

func TestGetCatalogueFiles_JoinDirectory(t *testing.T) {
	p := &Params{
		Directories: &Directories{Catalogues: ptrString("/data/cats")},
		Files: &Files{
			DataCatalogue: ptrString("gal.dat"),
			RandCatalogue: ptrString("/abs/ran.dat"),
		},
	}
	assert.Equal(t, "/data/cats/gal.dat", p.GetDataCatalogueFile())
	assert.Equal(t, "/abs/ran.dat", p.GetRandCatalogueFile())

	empty := &Params{}
	assert.Empty(t, empty.GetDataCatalogueFile())
}

func TestParseParams_YAML(t *testing.T) {
	src := `
catalogue_type: sim
statistic_type: 2pcf
degrees:
  ELL: 2
boxsize: {x: 500., y: 600., z: 700.}
ngrid: {x: 32, y: 32, z: 16}
interlace: true
range: [1., 101.]
tags:
  output: _run1
`
	p, err := ParseParams([]byte(src), false)
	require.NoError(t, err)

	assert.Equal(t, "sim", p.GetCatalogueType())
	assert.Equal(t, 2, p.GetDegree())
	assert.Equal(t, [3]float64{500, 600, 700}, p.GetBoxSize())
	assert.Equal(t, [3]int{32, 32, 16}, p.GetNGrid())
	assert.True(t, p.GetInterlace())
	assert.Equal(t, [2]float64{1, 101}, p.GetRange())
	assert.Equal(t, "_run1", p.GetOutputTag())
}

func TestParseParams_JSON(t *testing.T) {
	src := `{"norm_convention": "mesh", "num_bins": 12, "save": "gob"}`
	p, err := ParseParams([]byte(src), true)
	require.NoError(t, err)

	assert.Equal(t, "mesh", p.GetNormConvention())
	assert.Equal(t, 12, p.GetNumBins())
	assert.Equal(t, "gob", p.GetSave())
}

func TestParseParams_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		isJSON bool
	}{
		{"bad yaml", "boxsize: [unterminated", false},
		{"bad json", "{", true},
		{"range arity", "range: [1., 2., 3.]", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParams([]byte(tt.src), tt.isJSON)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadParams(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "params.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("alignment: pad\n"), 0644))
	p, err := LoadParams(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "pad", p.GetAlignment())

	txtPath := filepath.Join(tmpDir, "params.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("alignment: pad\n"), 0644))
	_, err = LoadParams(txtPath)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = LoadParams(filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadParams_ExampleFile(t *testing.T) {
	p, err := LoadParams(filepath.Join("..", "..", "config", "measurement.example.yaml"))
	require.NoError(t, err)

	s := Resolve(p)
	require.NoError(t, s.Validate())
	assert.Equal(t, "pad", s.Alignment)
	assert.Equal(t, "grid", s.PadScale)
	assert.Equal(t, "catalogues/galaxies.dat", filepath.ToSlash(filepath.Clean(s.DataCatalogueFile)))
	assert.Empty(t, s.UsedDefaults)
}

func TestClone_DoesNotAlias(t *testing.T) {
	orig := &Params{
		BoxSize: &Vec3{X: 1, Y: 2, Z: 3},
		Range:   []float64{1, 2},
	}
	c := orig.Clone()
	c.BoxSize.X = 99
	c.Range[0] = 99

	assert.Equal(t, 1.0, orig.BoxSize.X)
	assert.Equal(t, 1.0, orig.Range[0])
}
