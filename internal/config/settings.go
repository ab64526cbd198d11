package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfiguration is returned for unrecognised options, malformed
// parameter files and amalgamation calls lacking all required inputs.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Space identifies the domain a statistic is binned in.
type Space string

const (
	SpaceFourier Space = "fourier"
	SpaceConfig  Space = "config"
)

// SpaceOf maps a statistic type to its binning space.
func SpaceOf(statistic string) Space {
	if statistic == "powspec" {
		return SpaceFourier
	}
	return SpaceConfig
}

// Settings is a fully resolved parameter set. It is produced by Builder and
// is what the measurement pipeline consumes.
type Settings struct {
	CatalogueDir      string
	MeasurementDir    string
	DataCatalogueFile string
	RandCatalogueFile string
	CatalogueColumns  []string

	CatalogueType string `validate:"oneof=survey random sim"`
	StatisticType string `validate:"oneof=powspec 2pcf 2pcf-win"`
	Degree        int    `validate:"gte=0"`

	BoxSize    [3]float64 `validate:"dive,gt=0"`
	NGrid      [3]int     `validate:"dive,gt=0"`
	Alignment  string     `validate:"oneof=centre pad"`
	PadScale   string     `validate:"oneof=box grid"`
	PadFactor  float64    `validate:"gte=0"`
	Assignment string     `validate:"oneof=ngp cic tsc pcs"`
	Interlace  bool

	NormConvention string `validate:"oneof=particle mesh"`

	BinScheme string `validate:"oneof=lin log"`
	Range     [2]float64
	NumBins   int `validate:"gt=0"`

	Save      string `validate:"oneof=off txt gob"`
	OutputTag string

	NZImputation string `validate:"oneof=whole partial never"`
	Verbose      int

	// UsedDefaults lists the parameter names resolved from a default value.
	UsedDefaults []string `validate:"-"`
}

var validate = validator.New()

// Validate checks option values and ranges. Every failure wraps
// ErrInvalidConfiguration.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s=%v fails %q", fe.Namespace(), fe.Value(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if s.Range[0] >= s.Range[1] {
		return fmt.Errorf("%w: range must be increasing, got %v", ErrInvalidConfiguration, s.Range)
	}
	if s.Range[0] < 0 {
		return fmt.Errorf("%w: range must be non-negative, got %v", ErrInvalidConfiguration, s.Range)
	}
	if s.BinScheme == "log" && s.Range[0] <= 0 {
		return fmt.Errorf("%w: logarithmic binning needs a positive lower bound, got %v", ErrInvalidConfiguration, s.Range[0])
	}
	return nil
}

// Space returns the binning space of the configured statistic.
func (s *Settings) Space() Space { return SpaceOf(s.StatisticType) }

// Volume returns the box volume.
func (s *Settings) Volume() float64 {
	return s.BoxSize[0] * s.BoxSize[1] * s.BoxSize[2]
}

// NMesh returns the total number of mesh cells.
func (s *Settings) NMesh() int {
	return s.NGrid[0] * s.NGrid[1] * s.NGrid[2]
}

// CellSize returns the grid cell size per axis.
func (s *Settings) CellSize() [3]float64 {
	var h [3]float64
	for i := range h {
		h[i] = s.BoxSize[i] / float64(s.NGrid[i])
	}
	return h
}
