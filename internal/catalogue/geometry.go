package catalogue

import (
	"fmt"
	"math"
)

// OffsetCoords shifts the coordinate origin to origin, i.e. subtracts it
// from every particle position.
func (c *Catalogue) OffsetCoords(origin [3]float64) {
	c.shift(origin)
	c.calcBounds(false)
}

func (c *Catalogue) shift(origin [3]float64) {
	for axis := range c.pos {
		o := origin[axis]
		if o == 0 {
			continue
		}
		col := c.pos[axis]
		for i := range col {
			col[i] -= o
		}
	}
}

// applyOffset offsets c and, if ref is a different catalogue, ref too.
func (c *Catalogue) applyOffset(origin [3]float64, ref *Catalogue) {
	c.OffsetCoords(origin)
	if ref != nil && ref != c {
		ref.OffsetCoords(origin)
	}
}

// Centre moves the midpoint of the catalogue extents to the box centre. When
// ref is non-nil the offset is computed from ref's extents and applied to
// both catalogues.
func (c *Catalogue) Centre(boxsize [3]float64, ref *Catalogue) {
	src := c
	if ref != nil {
		src = ref
	}
	mid := src.bounds.Mid()
	var origin [3]float64
	for axis := range origin {
		origin[axis] = mid[axis] - boxsize[axis]/2
	}
	c.applyOffset(origin, ref)
}

// CentrePair centres data and rand in the box using the extents of rand.
func CentrePair(data, rand *Catalogue, boxsize [3]float64) {
	data.Centre(boxsize, rand)
}

// BoxifyForTransform places the minimum corner of the (reference) catalogue
// ngridPad grid cells from the box origin on each axis.
func (c *Catalogue) BoxifyForTransform(boxsize [3]float64, ngrid [3]int, ngridPad float64, ref *Catalogue) error {
	src := c
	if ref != nil {
		src = ref
	}
	lo := src.bounds.Min()
	var origin [3]float64
	for axis := range origin {
		if ngrid[axis] <= 0 {
			return fmt.Errorf("grid cell number must be positive on axis %s: %d", Axes[axis], ngrid[axis])
		}
		origin[axis] = lo[axis] - ngridPad*boxsize[axis]/float64(ngrid[axis])
	}
	c.applyOffset(origin, ref)
	return nil
}

// PadInBox places the minimum corner of the (reference) catalogue a fraction
// boxsizePad of the box length from the box origin on each axis.
func (c *Catalogue) PadInBox(boxsize [3]float64, boxsizePad float64, ref *Catalogue) {
	src := c
	if ref != nil {
		src = ref
	}
	lo := src.bounds.Min()
	var origin [3]float64
	for axis := range origin {
		origin[axis] = lo[axis] - boxsizePad*boxsize[axis]
	}
	c.applyOffset(origin, ref)
}

// Periodise wraps every coordinate into [0, L) on each axis.
func (c *Catalogue) Periodise(boxsize [3]float64) {
	for axis := range c.pos {
		l := boxsize[axis]
		col := c.pos[axis]
		for i, v := range col {
			col[i] = wrap(v, l)
		}
	}
	c.calcBounds(false)
}

func wrap(v, l float64) float64 {
	r := math.Mod(v, l)
	if r < 0 {
		r += l
	}
	// r+l can round up to l for tiny negative r.
	if r >= l {
		r = 0
	}
	return r
}

// LinesOfSight returns the unit vector from the coordinate origin to each
// particle.
func (c *Catalogue) LinesOfSight() ([][3]float64, error) {
	los := make([][3]float64, c.ntotal)
	for i := range los {
		p := c.Position(i)
		norm := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		if norm == 0 {
			return nil, fmt.Errorf("%w: particle %d in %s", ErrDegenerateLineOfSight, i, c)
		}
		los[i] = [3]float64{p[0] / norm, p[1] / norm, p[2] / norm}
	}
	return los, nil
}
