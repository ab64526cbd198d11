package mesh

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT performs an in-place forward discrete Fourier transform with kernel
// exp(-i k.x). The result is not scaled.
func (g *Grid) FFT() { g.transform(false) }

// IFFT performs an in-place inverse discrete Fourier transform with kernel
// exp(+i k.x). The result is not scaled by 1/N.
func (g *Grid) IFFT() { g.transform(true) }

func (g *Grid) transform(inverse bool) {
	strides := [3]int{g.N[1] * g.N[2], g.N[2], 1}
	for a := 0; a < 3; a++ {
		n := g.N[a]
		if n == 1 {
			continue
		}
		plan := fourier.NewCmplxFFT(n)
		line := make([]complex128, n)
		out := make([]complex128, n)
		stride := strides[a]

		// Every line along axis a starts at a node whose index on axis a
		// is zero.
		for base := 0; base < len(g.Data); base++ {
			if (base/stride)%n != 0 {
				continue
			}
			for m := 0; m < n; m++ {
				line[m] = g.Data[base+m*stride]
			}
			if inverse {
				plan.Sequence(out, line)
			} else {
				plan.Coefficients(out, line)
			}
			for m := 0; m < n; m++ {
				g.Data[base+m*stride] = out[m]
			}
		}
	}
}

// Interlace combines a transformed field with the transform of the same
// particles assigned with a half-cell shift, suppressing the leading
// aliasing contribution. Both grids must already be in Fourier space.
func (g *Grid) Interlace(shifted *Grid) {
	h := g.CellSize()
	g.Each(func(i, j, k, idx int) {
		kv := g.WaveVector(i, j, k)
		phase := (kv[0]*h[0] + kv[1]*h[1] + kv[2]*h[2]) / 2
		g.Data[idx] = (g.Data[idx] + shifted.Data[idx]*cmplx.Exp(complex(0, phase))) / 2
	})
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}

// Window returns the Fourier-space assignment window W(k) of scheme on this
// grid.
func (g *Grid) Window(kv [3]float64, scheme Scheme) float64 {
	h := g.CellSize()
	w := 1.0
	for a := 0; a < 3; a++ {
		w *= math.Pow(sinc(kv[a]*h[a]/2), float64(scheme.Order()))
	}
	return w
}

// Compensate divides a Fourier-space field by the assignment window.
func (g *Grid) Compensate(scheme Scheme) {
	g.Each(func(i, j, k, idx int) {
		g.Data[idx] /= complex(g.Window(g.WaveVector(i, j, k), scheme), 0)
	})
}

// ShotFunction returns the aliased shot-noise sum over images divided by
// the squared window, which scales the Poisson shot noise of a compensated
// field. Interlacing cancels the leading images, and the function is taken
// as one.
func (g *Grid) ShotFunction(kv [3]float64, scheme Scheme, interlaced bool) float64 {
	if interlaced || scheme == NGP {
		return 1
	}
	h := g.CellSize()
	c := 1.0
	for a := 0; a < 3; a++ {
		s := math.Sin(kv[a] * h[a] / 2)
		s2 := s * s
		switch scheme {
		case CIC:
			c *= 1 - 2./3.*s2
		case TSC:
			c *= 1 - s2 + 2./15.*s2*s2
		case PCS:
			c *= 1 - 4./3.*s2 + 2./5.*s2*s2 - 4./315.*s2*s2*s2
		}
	}
	w := g.Window(kv, scheme)
	return c / (w * w)
}
