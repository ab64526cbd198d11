package config

import (
	"fmt"

	"github.com/banshee-data/twopoint/internal/monitoring"
)

// SamplingOverrides is a partial set of mesh sampling parameters applied on
// top of a full parameter set. Nil fields leave the underlying value alone.
type SamplingOverrides struct {
	BoxSize    *Vec3
	NGrid      *IntVec3
	Alignment  *string
	PadScale   *string
	PadFactor  *float64
	Assignment *string
	Interlace  *bool
}

// Builder amalgamates an optional full parameter set with optional override
// fragments. Fields left unspecified by every input resolve to defaults and
// are reported through monitoring.Warnf.
type Builder struct {
	params   *Params
	sampling *SamplingOverrides
	degree   *int
	extra    []func(*Params)
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithParams sets the base parameter set. The Builder works on a copy.
func (b *Builder) WithParams(p *Params) *Builder {
	b.params = p
	return b
}

// WithSampling sets sampling parameter overrides.
func (b *Builder) WithSampling(s SamplingOverrides) *Builder {
	b.sampling = &s
	return b
}

// WithDegree overrides the multipole degree.
func (b *Builder) WithDegree(ell int) *Builder {
	b.degree = &ell
	return b
}

// WithStatistic pins the statistic and catalogue type, which the measurement
// entry points know regardless of what the parameter file says.
func (b *Builder) WithStatistic(statistic, catalogueType string) *Builder {
	b.extra = append(b.extra, func(p *Params) {
		p.StatisticType = ptrString(statistic)
		p.CatalogueType = ptrString(catalogueType)
	})
	return b
}

// Build resolves the Settings. It fails with ErrInvalidConfiguration when
// neither a parameter set nor sampling parameters were supplied, or when the
// resolved values do not validate.
func (b *Builder) Build() (*Settings, error) {
	if b.params == nil && b.sampling == nil {
		return nil, fmt.Errorf("%w: either a parameter set or sampling parameters must be supplied", ErrInvalidConfiguration)
	}

	p := b.params.Clone()
	if s := b.sampling; s != nil {
		if s.BoxSize != nil {
			v := *s.BoxSize
			p.BoxSize = &v
		}
		if s.NGrid != nil {
			v := *s.NGrid
			p.NGrid = &v
		}
		if s.Alignment != nil {
			p.Alignment = ptrString(*s.Alignment)
		}
		if s.PadScale != nil {
			p.PadScale = ptrString(*s.PadScale)
		}
		if s.PadFactor != nil {
			p.PadFactor = ptrFloat64(*s.PadFactor)
		}
		if s.Assignment != nil {
			p.Assignment = ptrString(*s.Assignment)
		}
		if s.Interlace != nil {
			p.Interlace = ptrBool(*s.Interlace)
		}
	}
	if b.degree != nil {
		p.Degrees = &Degrees{ELL: ptrInt(*b.degree)}
	}
	for _, apply := range b.extra {
		apply(p)
	}

	s := Resolve(p)
	for _, name := range s.UsedDefaults {
		monitoring.Warnf("parameter %q not set; using default value %v", name, s.valueOf(name))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Resolve turns Params into Settings, recording which fields fell back to a
// default. It does not validate.
func Resolve(p *Params) *Settings {
	if p == nil {
		p = &Params{}
	}
	s := &Settings{
		CatalogueDir:      p.GetCatalogueDir(),
		MeasurementDir:    p.GetMeasurementDir(),
		DataCatalogueFile: p.GetDataCatalogueFile(),
		RandCatalogueFile: p.GetRandCatalogueFile(),
		CatalogueColumns:  append([]string(nil), p.CatalogueColumns...),
		CatalogueType:     p.GetCatalogueType(),
		StatisticType:     p.GetStatisticType(),
		Degree:            p.GetDegree(),
		BoxSize:           p.GetBoxSize(),
		NGrid:             p.GetNGrid(),
		Alignment:         p.GetAlignment(),
		PadScale:          p.GetPadScale(),
		PadFactor:         p.GetPadFactor(),
		Assignment:        p.GetAssignment(),
		Interlace:         p.GetInterlace(),
		NormConvention:    p.GetNormConvention(),
		BinScheme:         p.GetBinScheme(),
		Range:             p.GetRange(),
		NumBins:           p.GetNumBins(),
		Save:              p.GetSave(),
		OutputTag:         p.GetOutputTag(),
		NZImputation:      p.GetNZImputation(),
		Verbose:           p.GetVerbose(),
	}

	defaulted := []struct {
		name  string
		unset bool
	}{
		{"directories.measurements", p.Directories == nil || p.Directories.Measurements == nil},
		{"catalogue_type", p.CatalogueType == nil},
		{"statistic_type", p.StatisticType == nil},
		{"degrees.ELL", p.Degrees == nil || p.Degrees.ELL == nil},
		{"boxsize", p.BoxSize == nil},
		{"ngrid", p.NGrid == nil},
		{"alignment", p.Alignment == nil},
		{"padscale", p.PadScale == nil},
		{"padfactor", p.PadFactor == nil},
		{"assignment", p.Assignment == nil},
		{"interlace", p.Interlace == nil},
		{"norm_convention", p.NormConvention == nil},
		{"binning", p.Binning == nil},
		{"range", len(p.Range) != 2},
		{"num_bins", p.NumBins == nil},
		{"save", p.Save == nil},
		{"nz_imputation", p.NZImputation == nil},
	}
	for _, d := range defaulted {
		if d.unset {
			s.UsedDefaults = append(s.UsedDefaults, d.name)
		}
	}
	return s
}

// valueOf returns the resolved value of a parameter for warning messages.
func (s *Settings) valueOf(name string) interface{} {
	switch name {
	case "directories.measurements":
		return s.MeasurementDir
	case "catalogue_type":
		return s.CatalogueType
	case "statistic_type":
		return s.StatisticType
	case "degrees.ELL":
		return s.Degree
	case "boxsize":
		return s.BoxSize
	case "ngrid":
		return s.NGrid
	case "alignment":
		return s.Alignment
	case "padscale":
		return s.PadScale
	case "padfactor":
		return s.PadFactor
	case "assignment":
		return s.Assignment
	case "interlace":
		return s.Interlace
	case "norm_convention":
		return s.NormConvention
	case "binning":
		return s.BinScheme
	case "range":
		return s.Range
	case "num_bins":
		return s.NumBins
	case "save":
		return s.Save
	case "nz_imputation":
		return s.NZImputation
	}
	return nil
}
