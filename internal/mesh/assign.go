package mesh

import (
	"fmt"
	"math"
)

// Scheme is a mass assignment scheme.
type Scheme int

const (
	NGP Scheme = iota + 1
	CIC
	TSC
	PCS
)

var schemeNames = map[Scheme]string{NGP: "ngp", CIC: "cic", TSC: "tsc", PCS: "pcs"}

// ParseScheme converts a scheme name to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	for s, n := range schemeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("mesh: unknown assignment scheme %q", name)
}

func (s Scheme) String() string { return schemeNames[s] }

// Order is the number of nodes per axis a particle contributes to, which is
// also the power of the sinc window.
func (s Scheme) Order() int { return int(s) }

// kernel returns the first node touched and the weights of the Order()
// consecutive nodes for a particle at loc, in units of the cell size.
func (s Scheme) kernel(loc float64) (int, [4]float64) {
	var w [4]float64
	switch s {
	case NGP:
		w[0] = 1
		return int(math.Floor(loc)), w
	case CIC:
		i := math.Floor(loc)
		d := loc - i
		w[0], w[1] = 1-d, d
		return int(i), w
	case TSC:
		i := math.Floor(loc + 0.5)
		d := loc - i
		w[0] = 0.5 * (0.5 - d) * (0.5 - d)
		w[1] = 0.75 - d*d
		w[2] = 0.5 * (0.5 + d) * (0.5 + d)
		return int(i) - 1, w
	case PCS:
		i := math.Floor(loc)
		d := loc - i
		for n, dist := range [4]float64{1 + d, d, 1 - d, 2 - d} {
			w[n] = pcs(dist)
		}
		return int(i) - 1, w
	}
	return 0, w
}

func pcs(d float64) float64 {
	d = math.Abs(d)
	switch {
	case d < 1:
		return (4 - 6*d*d + 3*d*d*d) / 6
	case d < 2:
		return (2 - d) * (2 - d) * (2 - d) / 6
	}
	return 0
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Assign adds the weighted number density of the particles to the grid.
// shift is added to every position (in cell units) before assignment, which
// is how the interlaced copy is built. A nil weight means unit weights.
func (g *Grid) Assign(positions [][3]float64, weights []float64, scheme Scheme, shift float64) error {
	if weights != nil && len(weights) != len(positions) {
		return fmt.Errorf("mesh: %d weights for %d particles", len(weights), len(positions))
	}
	if _, ok := schemeNames[scheme]; !ok {
		return fmt.Errorf("mesh: invalid assignment scheme %d", scheme)
	}
	h := g.CellSize()
	invVol := 1 / g.CellVolume()
	order := scheme.Order()

	var start [3]int
	var kw [3][4]float64
	for p, pos := range positions {
		w := invVol
		if weights != nil {
			w *= weights[p]
		}
		for a := 0; a < 3; a++ {
			start[a], kw[a] = scheme.kernel(pos[a]/h[a] + shift)
		}
		for di := 0; di < order; di++ {
			i := wrapIndex(start[0]+di, g.N[0])
			for dj := 0; dj < order; dj++ {
				j := wrapIndex(start[1]+dj, g.N[1])
				wij := w * kw[0][di] * kw[1][dj]
				for dk := 0; dk < order; dk++ {
					k := wrapIndex(start[2]+dk, g.N[2])
					g.Data[g.Index(i, j, k)] += complex(wij*kw[2][dk], 0)
				}
			}
		}
	}
	return nil
}
