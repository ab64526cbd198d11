// Package mesh provides the gridded density field used by the two-point
// estimators: particle assignment, interlacing, 3-D Fourier transforms and
// the assignment window corrections.
package mesh

import (
	"fmt"
	"math"
)

// Grid is a complex-valued field sampled on an N0 x N1 x N2 mesh spanning a
// periodic box. Node (i, j, k) sits at (i*H0, j*H1, k*H2). Values are stored
// row-major with the last axis fastest.
type Grid struct {
	N    [3]int
	Box  [3]float64
	Data []complex128
}

// NewGrid allocates a zeroed grid.
func NewGrid(n [3]int, box [3]float64) (*Grid, error) {
	for a := 0; a < 3; a++ {
		if n[a] <= 0 {
			return nil, fmt.Errorf("mesh: grid cell number must be positive, got %v", n)
		}
		if !(box[a] > 0) {
			return nil, fmt.Errorf("mesh: box size must be positive, got %v", box)
		}
	}
	return &Grid{N: n, Box: box, Data: make([]complex128, n[0]*n[1]*n[2])}, nil
}

// Size returns the number of cells.
func (g *Grid) Size() int { return len(g.Data) }

// CellSize returns the cell edge length per axis.
func (g *Grid) CellSize() [3]float64 {
	return [3]float64{
		g.Box[0] / float64(g.N[0]),
		g.Box[1] / float64(g.N[1]),
		g.Box[2] / float64(g.N[2]),
	}
}

// CellVolume returns the volume of one cell.
func (g *Grid) CellVolume() float64 {
	h := g.CellSize()
	return h[0] * h[1] * h[2]
}

// Volume returns the box volume.
func (g *Grid) Volume() float64 { return g.Box[0] * g.Box[1] * g.Box[2] }

// Index returns the flat index of node (i, j, k).
func (g *Grid) Index(i, j, k int) int { return (i*g.N[1]+j)*g.N[2] + k }

// Reset zeroes the field.
func (g *Grid) Reset() {
	for i := range g.Data {
		g.Data[i] = 0
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := *g
	c.Data = append([]complex128(nil), g.Data...)
	return &c
}

// freq maps an index to its signed frequency index in (-n/2, n/2].
func freq(i, n int) int {
	if i > n/2 {
		return i - n
	}
	return i
}

// WaveVector returns the wavevector of Fourier-space node (i, j, k).
func (g *Grid) WaveVector(i, j, k int) [3]float64 {
	idx := [3]int{i, j, k}
	var kv [3]float64
	for a := 0; a < 3; a++ {
		kv[a] = 2 * math.Pi / g.Box[a] * float64(freq(idx[a], g.N[a]))
	}
	return kv
}

// Separation returns the minimum-image separation vector of
// configuration-space node (i, j, k) from the origin.
func (g *Grid) Separation(i, j, k int) [3]float64 {
	idx := [3]int{i, j, k}
	h := g.CellSize()
	var r [3]float64
	for a := 0; a < 3; a++ {
		r[a] = h[a] * float64(freq(idx[a], g.N[a]))
	}
	return r
}

// Each calls fn for every node with its flat index.
func (g *Grid) Each(fn func(i, j, k, idx int)) {
	idx := 0
	for i := 0; i < g.N[0]; i++ {
		for j := 0; j < g.N[1]; j++ {
			for k := 0; k < g.N[2]; k++ {
				fn(i, j, k, idx)
				idx++
			}
		}
	}
}

// SquareIntegral returns the volume integral of |field|^2 over the box.
func (g *Grid) SquareIntegral() float64 {
	var sum float64
	for _, v := range g.Data {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return sum * g.CellVolume()
}

// Scale multiplies every value by s.
func (g *Grid) Scale(s complex128) {
	for i := range g.Data {
		g.Data[i] *= s
	}
}

func norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Norm returns the Euclidean length of v.
func Norm(v [3]float64) float64 { return norm3(v) }
