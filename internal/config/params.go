// Package config loads measurement parameter files and resolves them, along
// with any override fragments, into the concrete Settings a measurement runs
// with.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Documented defaults. Every value resolved from one of these is reported as
// a warning by Builder.Build.
const (
	DefaultCatalogueType  = "survey"
	DefaultStatisticType  = "powspec"
	DefaultDegree         = 0
	DefaultBoxSize        = 1000.
	DefaultNGrid          = 64
	DefaultAlignment      = "centre"
	DefaultPadScale       = "box"
	DefaultBoxPadFactor   = 0.02 // fraction of the box size
	DefaultGridPadFactor  = 3.   // number of grid cells
	DefaultAssignment     = "tsc"
	DefaultNormConvention = "particle"
	DefaultBinScheme      = "lin"
	DefaultNumBins        = 20
	DefaultSave           = "txt"
	DefaultNZImputation   = "whole"
	DefaultVerbose        = 20
	DefaultMeasurementDir = "."
)

var (
	defaultFourierRange = [2]float64{0.005, 0.105}
	defaultConfigRange  = [2]float64{0.5, 200.5}
)

// Vec3 is a per-axis float parameter such as the box size.
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// Array returns the components in x, y, z order.
func (v Vec3) Array() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// IntVec3 is a per-axis integer parameter such as the grid resolution.
type IntVec3 struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	Z int `yaml:"z" json:"z"`
}

// Array returns the components in x, y, z order.
func (v IntVec3) Array() [3]int { return [3]int{v.X, v.Y, v.Z} }

// Directories groups input and output locations.
type Directories struct {
	Catalogues   *string `yaml:"catalogues,omitempty" json:"catalogues,omitempty"`
	Measurements *string `yaml:"measurements,omitempty" json:"measurements,omitempty"`
}

// Files names the catalogue files relative to Directories.Catalogues.
type Files struct {
	DataCatalogue *string `yaml:"data_catalogue,omitempty" json:"data_catalogue,omitempty"`
	RandCatalogue *string `yaml:"rand_catalogue,omitempty" json:"rand_catalogue,omitempty"`
}

// Degrees holds the multipole degree of the two-point statistic.
type Degrees struct {
	ELL *int `yaml:"ELL,omitempty" json:"ELL,omitempty"`
}

// Tags holds free-form labels attached to outputs.
type Tags struct {
	Output *string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Params represents a measurement parameter file. Every field is optional;
// omitted fields resolve to the documented defaults through the Get*
// accessors, so partial files are safe.
type Params struct {
	Directories      *Directories `yaml:"directories,omitempty" json:"directories,omitempty"`
	Files            *Files       `yaml:"files,omitempty" json:"files,omitempty"`
	CatalogueColumns []string     `yaml:"catalogue_columns,omitempty" json:"catalogue_columns,omitempty"`

	CatalogueType *string  `yaml:"catalogue_type,omitempty" json:"catalogue_type,omitempty"`
	StatisticType *string  `yaml:"statistic_type,omitempty" json:"statistic_type,omitempty"`
	Degrees       *Degrees `yaml:"degrees,omitempty" json:"degrees,omitempty"`

	// Sampling
	BoxSize    *Vec3    `yaml:"boxsize,omitempty" json:"boxsize,omitempty"`
	NGrid      *IntVec3 `yaml:"ngrid,omitempty" json:"ngrid,omitempty"`
	Alignment  *string  `yaml:"alignment,omitempty" json:"alignment,omitempty"`
	PadScale   *string  `yaml:"padscale,omitempty" json:"padscale,omitempty"`
	PadFactor  *float64 `yaml:"padfactor,omitempty" json:"padfactor,omitempty"`
	Assignment *string  `yaml:"assignment,omitempty" json:"assignment,omitempty"`
	Interlace  *bool    `yaml:"interlace,omitempty" json:"interlace,omitempty"`

	NormConvention *string `yaml:"norm_convention,omitempty" json:"norm_convention,omitempty"`

	// Binning
	Binning *string   `yaml:"binning,omitempty" json:"binning,omitempty"`
	Range   []float64 `yaml:"range,omitempty" json:"range,omitempty"`
	NumBins *int      `yaml:"num_bins,omitempty" json:"num_bins,omitempty"`

	// Output
	Save *string `yaml:"save,omitempty" json:"save,omitempty"`
	Tags *Tags   `yaml:"tags,omitempty" json:"tags,omitempty"`

	NZImputation *string `yaml:"nz_imputation,omitempty" json:"nz_imputation,omitempty"`
	Verbose      *int    `yaml:"verbose,omitempty" json:"verbose,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// LoadParams loads Params from a YAML (.yaml, .yml) or JSON (.json) file.
// The file must be under the max file size.
func LoadParams(path string) (*Params, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		return nil, fmt.Errorf("%w: parameter file must have .yaml, .yml or .json extension, got %q", ErrInvalidConfiguration, ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat parameter file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("parameter file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	return ParseParams(data, ext == ".json")
}

// ParseParams decodes parameter file contents.
func ParseParams(data []byte, isJSON bool) (*Params, error) {
	p := &Params{}
	if isJSON {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("%w: failed to parse parameter JSON: %v", ErrInvalidConfiguration, err)
		}
	} else {
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("%w: failed to parse parameter YAML: %v", ErrInvalidConfiguration, err)
		}
	}
	if p.Range != nil && len(p.Range) != 2 {
		return nil, fmt.Errorf("%w: range must have exactly two entries, got %d", ErrInvalidConfiguration, len(p.Range))
	}
	return p, nil
}

// Clone returns a deep copy so overrides never alias the caller's Params.
func (p *Params) Clone() *Params {
	if p == nil {
		return &Params{}
	}
	c := *p
	if p.Directories != nil {
		d := *p.Directories
		c.Directories = &d
	}
	if p.Files != nil {
		f := *p.Files
		c.Files = &f
	}
	if p.Degrees != nil {
		d := *p.Degrees
		c.Degrees = &d
	}
	if p.BoxSize != nil {
		b := *p.BoxSize
		c.BoxSize = &b
	}
	if p.NGrid != nil {
		g := *p.NGrid
		c.NGrid = &g
	}
	if p.Tags != nil {
		t := *p.Tags
		c.Tags = &t
	}
	if p.CatalogueColumns != nil {
		c.CatalogueColumns = append([]string(nil), p.CatalogueColumns...)
	}
	if p.Range != nil {
		c.Range = append([]float64(nil), p.Range...)
	}
	return &c
}

// GetCatalogueDir returns the catalogue directory or "" (paths used as given).
func (p *Params) GetCatalogueDir() string {
	if p.Directories == nil || p.Directories.Catalogues == nil {
		return ""
	}
	return *p.Directories.Catalogues
}

// GetMeasurementDir returns the output directory or the default.
func (p *Params) GetMeasurementDir() string {
	if p.Directories == nil || p.Directories.Measurements == nil {
		return DefaultMeasurementDir
	}
	return *p.Directories.Measurements
}

// GetDataCatalogueFile returns the data-source catalogue path, joined with
// the catalogue directory when one is set.
func (p *Params) GetDataCatalogueFile() string {
	if p.Files == nil || p.Files.DataCatalogue == nil || *p.Files.DataCatalogue == "" {
		return ""
	}
	return joinCatalogue(p.GetCatalogueDir(), *p.Files.DataCatalogue)
}

// GetRandCatalogueFile returns the random-source catalogue path, joined with
// the catalogue directory when one is set.
func (p *Params) GetRandCatalogueFile() string {
	if p.Files == nil || p.Files.RandCatalogue == nil || *p.Files.RandCatalogue == "" {
		return ""
	}
	return joinCatalogue(p.GetCatalogueDir(), *p.Files.RandCatalogue)
}

func joinCatalogue(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// GetCatalogueType returns the catalogue_type value or the default.
func (p *Params) GetCatalogueType() string {
	if p.CatalogueType == nil {
		return DefaultCatalogueType
	}
	return *p.CatalogueType
}

// GetStatisticType returns the statistic_type value or the default.
func (p *Params) GetStatisticType() string {
	if p.StatisticType == nil {
		return DefaultStatisticType
	}
	return *p.StatisticType
}

// GetDegree returns the multipole degree or the default.
func (p *Params) GetDegree() int {
	if p.Degrees == nil || p.Degrees.ELL == nil {
		return DefaultDegree
	}
	return *p.Degrees.ELL
}

// GetBoxSize returns the box size or the default cube.
func (p *Params) GetBoxSize() [3]float64 {
	if p.BoxSize == nil {
		return [3]float64{DefaultBoxSize, DefaultBoxSize, DefaultBoxSize}
	}
	return p.BoxSize.Array()
}

// GetNGrid returns the grid resolution or the default.
func (p *Params) GetNGrid() [3]int {
	if p.NGrid == nil {
		return [3]int{DefaultNGrid, DefaultNGrid, DefaultNGrid}
	}
	return p.NGrid.Array()
}

// GetAlignment returns the alignment value or the default.
func (p *Params) GetAlignment() string {
	if p.Alignment == nil {
		return DefaultAlignment
	}
	return *p.Alignment
}

// GetPadScale returns the padscale value or the default.
func (p *Params) GetPadScale() string {
	if p.PadScale == nil {
		return DefaultPadScale
	}
	return *p.PadScale
}

// GetPadFactor returns the padfactor value or the default for the resolved
// pad scale.
func (p *Params) GetPadFactor() float64 {
	if p.PadFactor == nil {
		if p.GetPadScale() == "grid" {
			return DefaultGridPadFactor
		}
		return DefaultBoxPadFactor
	}
	return *p.PadFactor
}

// GetAssignment returns the assignment scheme or the default.
func (p *Params) GetAssignment() string {
	if p.Assignment == nil {
		return DefaultAssignment
	}
	return *p.Assignment
}

// GetInterlace returns the interlace flag or the default (off).
func (p *Params) GetInterlace() bool {
	if p.Interlace == nil {
		return false
	}
	return *p.Interlace
}

// GetNormConvention returns the norm_convention value or the default.
func (p *Params) GetNormConvention() string {
	if p.NormConvention == nil {
		return DefaultNormConvention
	}
	return *p.NormConvention
}

// GetBinScheme returns the binning scheme or the default.
func (p *Params) GetBinScheme() string {
	if p.Binning == nil {
		return DefaultBinScheme
	}
	return *p.Binning
}

// GetRange returns the binning range or the default for the statistic's
// space (wavenumber for powspec, separation otherwise).
func (p *Params) GetRange() [2]float64 {
	if len(p.Range) == 2 {
		return [2]float64{p.Range[0], p.Range[1]}
	}
	if SpaceOf(p.GetStatisticType()) == SpaceFourier {
		return defaultFourierRange
	}
	return defaultConfigRange
}

// GetNumBins returns num_bins or the default.
func (p *Params) GetNumBins() int {
	if p.NumBins == nil {
		return DefaultNumBins
	}
	return *p.NumBins
}

// GetSave returns the save format string or the default.
func (p *Params) GetSave() string {
	if p.Save == nil {
		return DefaultSave
	}
	return *p.Save
}

// GetOutputTag returns the output tag or "".
func (p *Params) GetOutputTag() string {
	if p.Tags == nil || p.Tags.Output == nil {
		return ""
	}
	return *p.Tags.Output
}

// GetNZImputation returns the nz imputation policy or the default.
func (p *Params) GetNZImputation() string {
	if p.NZImputation == nil {
		return DefaultNZImputation
	}
	return *p.NZImputation
}

// GetVerbose returns the verbosity level or the default.
func (p *Params) GetVerbose() int {
	if p.Verbose == nil {
		return DefaultVerbose
	}
	return *p.Verbose
}
