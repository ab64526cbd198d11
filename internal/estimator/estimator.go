// Package estimator implements the mesh-based two-point estimators: power
// spectrum and correlation function multipoles for survey-like catalogues
// with local lines of sight, periodic simulation boxes with a global line
// of sight, and the survey window.
package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/twopoint/internal/binning"
	"github.com/banshee-data/twopoint/internal/catalogue"
	"github.com/banshee-data/twopoint/internal/config"
	"github.com/banshee-data/twopoint/internal/measurement"
	"github.com/banshee-data/twopoint/internal/mesh"
)

// Input carries everything an estimator needs. Catalogues must already be
// aligned in the measurement box.
type Input struct {
	Data *catalogue.Catalogue
	Rand *catalogue.Catalogue

	// LOSData and LOSRand are per-particle unit lines of sight, required by
	// the survey estimators.
	LOSData [][3]float64
	LOSRand [][3]float64

	Settings *config.Settings
	Binning  *binning.Binning

	Alpha float64
	Norm  float64
}

// Algorithm computes one kind of binned two-point measurement.
type Algorithm interface {
	Compute(in Input) (*measurement.Result, error)
}

// source is a set of particles painted onto one mesh with signed, scaled
// weights.
type source struct {
	pos [][3]float64
	w   []float64
	los [][3]float64
}

func newSource(c *catalogue.Catalogue, los [][3]float64, scale float64) (source, error) {
	if c == nil {
		return source{}, fmt.Errorf("%w: catalogue is nil", catalogue.ErrMissingField)
	}
	if los != nil && len(los) != c.NTotal() {
		return source{}, fmt.Errorf("%w: %d lines of sight for %d particles in %s",
			catalogue.ErrLengthMismatch, len(los), c.NTotal(), c)
	}
	s := source{
		pos: make([][3]float64, c.NTotal()),
		w:   make([]float64, c.NTotal()),
		los: los,
	}
	ws, wc := c.WS(), c.WC()
	for i := range s.pos {
		s.pos[i] = c.Position(i)
		s.w[i] = scale * ws[i] * wc[i]
	}
	return s, nil
}

func concat(sources []source) ([][3]float64, []float64) {
	var pos [][3]float64
	var w []float64
	for _, s := range sources {
		pos = append(pos, s.pos...)
		w = append(w, s.w...)
	}
	return pos, w
}

func fieldOptions(s *config.Settings) (mesh.FieldOptions, error) {
	scheme, err := mesh.ParseScheme(s.Assignment)
	if err != nil {
		return mesh.FieldOptions{}, fmt.Errorf("%w: %v", config.ErrInvalidConfiguration, err)
	}
	return mesh.FieldOptions{
		NGrid:     s.NGrid,
		BoxSize:   s.BoxSize,
		Scheme:    scheme,
		Interlace: s.Interlace,
	}, nil
}

func checkInput(in Input) error {
	if in.Settings == nil || in.Binning == nil {
		return fmt.Errorf("%w: estimator needs settings and binning", config.ErrInvalidConfiguration)
	}
	if in.Settings.Degree < 0 {
		return fmt.Errorf("%w: negative degree %d", config.ErrInvalidConfiguration, in.Settings.Degree)
	}
	return nil
}

func unit(v [3]float64) [3]float64 {
	n := mesh.Norm(v)
	if n == 0 {
		return [3]float64{}
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

// binAccumulator collects per-bin sums of complex values and the magnitudes
// of the vectors that fell into each bin.
type binAccumulator struct {
	b      *binning.Binning
	sums   [][]complex128
	counts []int
	mags   [][]float64
}

func newBinAccumulator(b *binning.Binning, nvalues int) *binAccumulator {
	acc := &binAccumulator{
		b:      b,
		sums:   make([][]complex128, nvalues),
		counts: make([]int, b.Num),
		mags:   make([][]float64, b.Num),
	}
	for i := range acc.sums {
		acc.sums[i] = make([]complex128, b.Num)
	}
	return acc
}

// bin returns the bin index of magnitude mag, or -1.
func (a *binAccumulator) bin(mag float64) int { return a.b.Index(mag) }

func (a *binAccumulator) add(bin int, mag float64, values ...complex128) {
	a.counts[bin]++
	a.mags[bin] = append(a.mags[bin], mag)
	for i, v := range values {
		a.sums[i][bin] += v
	}
}

// averages returns the effective magnitude and the mean of each value per
// bin. Empty bins report the bin centre and zero.
func (a *binAccumulator) averages() ([]float64, [][]complex128) {
	eff := make([]float64, a.b.Num)
	means := make([][]complex128, len(a.sums))
	for i := range means {
		means[i] = make([]complex128, a.b.Num)
	}
	for bin := 0; bin < a.b.Num; bin++ {
		if a.counts[bin] == 0 {
			eff[bin] = a.b.Centres[bin]
			continue
		}
		eff[bin] = stat.Mean(a.mags[bin], nil)
		n := complex(float64(a.counts[bin]), 0)
		for i := range a.sums {
			means[i][bin] = a.sums[i][bin] / n
		}
	}
	return eff, means
}
