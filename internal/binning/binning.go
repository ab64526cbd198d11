// Package binning defines the fixed partitions of wavenumber or separation
// over which two-point statistics are tabulated.
package binning

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/twopoint/internal/config"
)

// Scheme is the spacing of bin edges.
type Scheme string

const (
	Linear      Scheme = "lin"
	Logarithmic Scheme = "log"
)

// Binning is an ordered set of Num contiguous bins.
type Binning struct {
	Space   config.Space
	Scheme  Scheme
	Min     float64
	Max     float64
	Num     int
	Edges   []float64 // len Num+1, increasing
	Centres []float64 // len Num
}

// New builds a binning over [min, max] with num bins.
func New(space config.Space, scheme Scheme, min, max float64, num int) (*Binning, error) {
	if num <= 0 {
		return nil, fmt.Errorf("%w: number of bins must be positive, got %d", config.ErrInvalidConfiguration, num)
	}
	if !(min < max) || min < 0 {
		return nil, fmt.Errorf("%w: invalid bin range [%g, %g]", config.ErrInvalidConfiguration, min, max)
	}

	b := &Binning{
		Space:   space,
		Scheme:  scheme,
		Min:     min,
		Max:     max,
		Num:     num,
		Edges:   make([]float64, num+1),
		Centres: make([]float64, num),
	}

	switch scheme {
	case Linear:
		floats.Span(b.Edges, min, max)
		for i := 0; i < num; i++ {
			b.Centres[i] = (b.Edges[i] + b.Edges[i+1]) / 2
		}
	case Logarithmic:
		if min <= 0 {
			return nil, fmt.Errorf("%w: logarithmic binning needs a positive lower bound, got %g", config.ErrInvalidConfiguration, min)
		}
		floats.LogSpan(b.Edges, min, max)
		for i := 0; i < num; i++ {
			b.Centres[i] = math.Sqrt(b.Edges[i] * b.Edges[i+1])
		}
	default:
		return nil, fmt.Errorf("%w: unknown binning scheme %q", config.ErrInvalidConfiguration, scheme)
	}
	return b, nil
}

// FromSettings derives the binning from resolved parameters.
func FromSettings(s *config.Settings) (*Binning, error) {
	return New(s.Space(), Scheme(s.BinScheme), s.Range[0], s.Range[1], s.NumBins)
}

// Index returns the bin containing v, or -1 when v lies outside [Min, Max).
// The last bin is closed on the right so Max itself is binned.
func (b *Binning) Index(v float64) int {
	if v < b.Min || v > b.Max || math.IsNaN(v) {
		return -1
	}
	if v == b.Max {
		return b.Num - 1
	}
	// First edge strictly greater than v.
	i := sort.SearchFloat64s(b.Edges, v)
	if i < len(b.Edges) && b.Edges[i] == v {
		return i
	}
	return i - 1
}

// Width returns the width of bin i.
func (b *Binning) Width(i int) float64 {
	return b.Edges[i+1] - b.Edges[i]
}

// Label names the binned coordinate ("k" or "r").
func (b *Binning) Label() string {
	if b.Space == config.SpaceFourier {
		return "k"
	}
	return "r"
}
