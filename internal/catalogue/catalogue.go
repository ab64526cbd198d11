package catalogue

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/twopoint/internal/monitoring"
)

var (
	// ErrMissingField is returned when a mandatory coordinate column is absent
	// or when nz is missing where a computation requires it.
	ErrMissingField = errors.New("missing catalogue field")

	// ErrLengthMismatch is returned when particle columns differ in length.
	ErrLengthMismatch = errors.New("catalogue column lengths differ")

	// ErrEmptyCatalogue is returned for catalogues without particles.
	ErrEmptyCatalogue = errors.New("catalogue has no particles")

	// ErrDegenerateLineOfSight is returned when a particle sits exactly at
	// the coordinate origin.
	ErrDegenerateLineOfSight = errors.New("particle at the origin has no line of sight")
)

// Axes names the coordinate axes in storage order.
var Axes = [3]string{"x", "y", "z"}

// Bounds holds the (min, max) extent of particle coordinates per axis.
type Bounds [3][2]float64

// Min returns the minimum corner.
func (b Bounds) Min() [3]float64 { return [3]float64{b[0][0], b[1][0], b[2][0]} }

// Max returns the maximum corner.
func (b Bounds) Max() [3]float64 { return [3]float64{b[0][1], b[1][1], b[2][1]} }

// Mid returns the midpoint of the extent on each axis.
func (b Bounds) Mid() [3]float64 {
	return [3]float64{
		(b[0][0] + b[0][1]) / 2,
		(b[1][0] + b[1][1]) / 2,
		(b[2][0] + b[2][1]) / 2,
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("{x: (%g, %g), y: (%g, %g), z: (%g, %g)}",
		b[0][0], b[0][1], b[1][0], b[1][1], b[2][0], b[2][1])
}

// Catalogue is a table of particles: Cartesian position, mean number density
// nz (which may be absent per particle), systematic weight ws and clustering
// weight wc.
type Catalogue struct {
	pos     [3][]float64
	nz      []float64
	nzValid []bool
	ws      []float64
	wc      []float64

	bounds Bounds
	ntotal int
	wtotal float64
	source string
}

// Option configures optional catalogue columns.
type Option func(*Catalogue) error

// WithNZ sets nz for every particle. NaN entries are treated as missing.
func WithNZ(nz []float64) Option {
	return func(c *Catalogue) error {
		if len(nz) != c.ntotal {
			return fmt.Errorf("%w: nz has %d entries, want %d", ErrLengthMismatch, len(nz), c.ntotal)
		}
		c.nz = append([]float64(nil), nz...)
		for i, v := range c.nz {
			c.nzValid[i] = !math.IsNaN(v)
		}
		return nil
	}
}

// WithMaskedNZ sets nz values together with an explicit validity mask.
func WithMaskedNZ(nz []float64, valid []bool) Option {
	return func(c *Catalogue) error {
		if len(nz) != c.ntotal || len(valid) != c.ntotal {
			return fmt.Errorf("%w: nz/mask have %d/%d entries, want %d", ErrLengthMismatch, len(nz), len(valid), c.ntotal)
		}
		c.nz = append([]float64(nil), nz...)
		for i := range valid {
			c.nzValid[i] = valid[i] && !math.IsNaN(nz[i])
		}
		return nil
	}
}

// WithUniformNZ sets the same nz for every particle.
func WithUniformNZ(v float64) Option {
	return func(c *Catalogue) error {
		for i := range c.nz {
			c.nz[i] = v
			c.nzValid[i] = true
		}
		return nil
	}
}

// WithWS sets systematic weights (default 1).
func WithWS(ws []float64) Option {
	return func(c *Catalogue) error {
		if len(ws) != c.ntotal {
			return fmt.Errorf("%w: ws has %d entries, want %d", ErrLengthMismatch, len(ws), c.ntotal)
		}
		c.ws = append([]float64(nil), ws...)
		return nil
	}
}

// WithWC sets clustering weights (default 1).
func WithWC(wc []float64) Option {
	return func(c *Catalogue) error {
		if len(wc) != c.ntotal {
			return fmt.Errorf("%w: wc has %d entries, want %d", ErrLengthMismatch, len(wc), c.ntotal)
		}
		c.wc = append([]float64(nil), wc...)
		return nil
	}
}

// WithSource records where the catalogue came from, for identification in
// logs and output headers.
func WithSource(source string) Option {
	return func(c *Catalogue) error {
		c.source = source
		return nil
	}
}

// New creates a catalogue from coordinate columns. Coordinates are copied.
// Without WithNZ (or WithUniformNZ) every nz is missing, which is fine for
// geometry and lines of sight but fails normalisation.
func New(x, y, z []float64, opts ...Option) (*Catalogue, error) {
	if len(x) != len(y) || len(x) != len(z) {
		return nil, fmt.Errorf("%w: x/y/z have %d/%d/%d entries", ErrLengthMismatch, len(x), len(y), len(z))
	}
	n := len(x)
	if n == 0 {
		return nil, ErrEmptyCatalogue
	}

	c := &Catalogue{
		pos: [3][]float64{
			append([]float64(nil), x...),
			append([]float64(nil), y...),
			append([]float64(nil), z...),
		},
		nz:      make([]float64, n),
		nzValid: make([]bool, n),
		ws:      ones(n),
		wc:      ones(n),
		ntotal:  n,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if !c.HasNZ() {
		monitoring.Warnf("catalogue nz field is missing for %d of %d particles (%s), which may raise errors in some computations",
			c.NZMissing(), c.ntotal, c)
	}

	c.wtotal = floats.Sum(c.ws)
	c.calcBounds(true)
	monitoring.Logf("Catalogue initialised: %d particles with total systematic weights %.2f (%s).", c.ntotal, c.wtotal, c)
	return c, nil
}

func ones(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

// String identifies the catalogue by its source, or by address when it was
// built from arrays.
func (c *Catalogue) String() string {
	if c.source != "" {
		return fmt.Sprintf("ParticleCatalogue(source=%s)", c.source)
	}
	return fmt.Sprintf("ParticleCatalogue(address=%p)", c)
}

// Source returns the recorded source, if any.
func (c *Catalogue) Source() string { return c.source }

// NTotal returns the number of particles.
func (c *Catalogue) NTotal() int { return c.ntotal }

// WTotal returns the total systematic weight.
func (c *Catalogue) WTotal() float64 { return c.wtotal }

// Bounds returns the current coordinate extents.
func (c *Catalogue) Bounds() Bounds { return c.bounds }

// Coord returns the coordinate column for axis 0, 1 or 2. The slice is
// owned by the catalogue and must not be modified.
func (c *Catalogue) Coord(axis int) []float64 { return c.pos[axis] }

// Position returns the position of particle i.
func (c *Catalogue) Position(i int) [3]float64 {
	return [3]float64{c.pos[0][i], c.pos[1][i], c.pos[2][i]}
}

// WS returns the systematic weights. Must not be modified.
func (c *Catalogue) WS() []float64 { return c.ws }

// WC returns the clustering weights. Must not be modified.
func (c *Catalogue) WC() []float64 { return c.wc }

// NZ returns the nz column with missing entries reported as zero. Use HasNZ
// or NZAt to check presence first.
func (c *Catalogue) NZ() []float64 {
	out := make([]float64, c.ntotal)
	for i, v := range c.nz {
		if c.nzValid[i] {
			out[i] = v
		}
	}
	return out
}

// NZAt returns nz of particle i and whether it is present.
func (c *Catalogue) NZAt(i int) (float64, bool) {
	return c.nz[i], c.nzValid[i]
}

// HasNZ reports whether every particle has nz.
func (c *Catalogue) HasNZ() bool {
	return c.NZMissing() == 0
}

// NZMissing counts particles without nz.
func (c *Catalogue) NZMissing() int {
	missing := 0
	for _, ok := range c.nzValid {
		if !ok {
			missing++
		}
	}
	return missing
}

// NZAbsentOrZero reports whether nz carries no information at all: every
// entry is missing or zero.
func (c *Catalogue) NZAbsentOrZero() bool {
	for i, ok := range c.nzValid {
		if ok && c.nz[i] != 0 {
			return false
		}
	}
	return true
}

// SetUniformNZ overwrites nz of every particle.
func (c *Catalogue) SetUniformNZ(v float64) {
	for i := range c.nz {
		c.nz[i] = v
		c.nzValid[i] = true
	}
}

// FillMissingNZ sets nz only where it is missing and returns how many
// particles were filled.
func (c *Catalogue) FillMissingNZ(v float64) int {
	filled := 0
	for i, ok := range c.nzValid {
		if !ok {
			c.nz[i] = v
			c.nzValid[i] = true
			filled++
		}
	}
	return filled
}

// RequireNZ returns ErrMissingField naming the computation when any nz is
// missing.
func (c *Catalogue) RequireNZ(computation string) error {
	if missing := c.NZMissing(); missing > 0 {
		return fmt.Errorf("%w: cannot calculate %s because of %d missing 'nz' value(s) in %s",
			ErrMissingField, computation, missing, c)
	}
	return nil
}

// calcBounds recomputes coordinate extents. init selects the log wording for
// freshly loaded coordinates.
func (c *Catalogue) calcBounds(init bool) {
	for axis := range c.pos {
		c.bounds[axis] = [2]float64{floats.Min(c.pos[axis]), floats.Max(c.pos[axis])}
	}
	if init {
		monitoring.Logf("Original extents of particle coordinates: %s (%s).", c.bounds, c)
	} else {
		monitoring.Logf("Offset extents of particle coordinates: %s (%s).", c.bounds, c)
	}
}
