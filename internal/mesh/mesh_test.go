package mesh

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(t *testing.T, n int, l float64) *Grid {
	t.Helper()
	g, err := NewGrid([3]int{n, n, n}, [3]float64{l, l, l})
	require.NoError(t, err)
	return g
}

func TestNewGrid_Invalid(t *testing.T) {
	_, err := NewGrid([3]int{8, 0, 8}, [3]float64{1, 1, 1})
	assert.Error(t, err)
	_, err = NewGrid([3]int{8, 8, 8}, [3]float64{1, -1, 1})
	assert.Error(t, err)
}

func TestParseScheme(t *testing.T) {
	for _, name := range []string{"ngp", "cic", "tsc", "pcs"} {
		s, err := ParseScheme(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.String())
	}
	_, err := ParseScheme("sph")
	assert.Error(t, err)
	assert.Equal(t, 3, TSC.Order())
}

func TestAssign_ConservesWeight(t *testing.T) {
	positions := [][3]float64{
		{0, 0, 0},
		{99.9, 50.1, 12.3},
		{33.3, 66.6, 99.99},
		{-0.4, 100.2, 7},
	}
	weights := []float64{1, 2, 0.5, 1.5}
	for _, s := range []Scheme{NGP, CIC, TSC, PCS} {
		t.Run(s.String(), func(t *testing.T) {
			g := newTestGrid(t, 10, 100)
			require.NoError(t, g.Assign(positions, weights, s, 0))
			var sum float64
			for _, v := range g.Data {
				assert.GreaterOrEqual(t, real(v), 0.0)
				sum += real(v)
			}
			assert.InDelta(t, 5.0, sum*g.CellVolume(), 1e-9)
		})
	}
}

func TestAssign_TSCOnNode(t *testing.T) {
	g := newTestGrid(t, 8, 8)
	require.NoError(t, g.Assign([][3]float64{{3, 3, 3}}, nil, TSC, 0))
	assert.InDelta(t, 0.75*0.75*0.75, real(g.Data[g.Index(3, 3, 3)]), 1e-15)
	assert.InDelta(t, 0.125*0.75*0.75, real(g.Data[g.Index(2, 3, 3)]), 1e-15)
	assert.InDelta(t, 0.125*0.125*0.125, real(g.Data[g.Index(4, 4, 2)]), 1e-15)
}

func TestAssign_CICWraps(t *testing.T) {
	g := newTestGrid(t, 4, 4)
	require.NoError(t, g.Assign([][3]float64{{3.5, 0, 0}}, nil, CIC, 0))
	assert.InDelta(t, 0.5, real(g.Data[g.Index(3, 0, 0)]), 1e-15)
	assert.InDelta(t, 0.5, real(g.Data[g.Index(0, 0, 0)]), 1e-15)
}

func TestAssign_Errors(t *testing.T) {
	g := newTestGrid(t, 4, 4)
	assert.Error(t, g.Assign([][3]float64{{1, 1, 1}}, []float64{1, 2}, CIC, 0))
	assert.Error(t, g.Assign([][3]float64{{1, 1, 1}}, nil, Scheme(9), 0))
}

func TestFFT_RoundTrip(t *testing.T) {
	g, err := NewGrid([3]int{4, 6, 8}, [3]float64{1, 2, 3})
	require.NoError(t, err)
	for i := range g.Data {
		g.Data[i] = complex(math.Sin(float64(i)), float64(i%5))
	}
	orig := append([]complex128(nil), g.Data...)

	g.FFT()
	g.IFFT()
	n := complex(float64(g.Size()), 0)
	for i := range orig {
		assert.InDelta(t, 0, cmplx.Abs(g.Data[i]/n-orig[i]), 1e-12)
	}
}

func TestFFT_DeltaAndPlaneWave(t *testing.T) {
	g := newTestGrid(t, 8, 8)
	g.Data[0] = 1
	g.FFT()
	for _, v := range g.Data {
		assert.InDelta(t, 0, cmplx.Abs(v-1), 1e-12)
	}

	g.Reset()
	g.Each(func(i, j, k, idx int) {
		g.Data[idx] = complex(math.Cos(2*math.Pi*2*float64(j)/8), 0)
	})
	g.FFT()
	half := float64(g.Size()) / 2
	g.Each(func(i, j, k, idx int) {
		want := 0.0
		if i == 0 && k == 0 && (j == 2 || j == 6) {
			want = half
		}
		assert.InDelta(t, want, real(g.Data[idx]), 1e-9)
		assert.InDelta(t, 0, imag(g.Data[idx]), 1e-9)
	})
}

func TestWaveVectorAndSeparation(t *testing.T) {
	g := newTestGrid(t, 8, 16)
	kv := g.WaveVector(1, 4, 7)
	assert.InDelta(t, 2*math.Pi/16, kv[0], 1e-15)
	assert.InDelta(t, 2*math.Pi/16*4, kv[1], 1e-15)
	assert.InDelta(t, -2*math.Pi/16, kv[2], 1e-15)

	r := g.Separation(1, 4, 7)
	assert.Equal(t, [3]float64{2, 8, -2}, r)
}

func TestWindowAndShotFunction(t *testing.T) {
	g := newTestGrid(t, 16, 100)
	zero := [3]float64{}
	for _, s := range []Scheme{NGP, CIC, TSC, PCS} {
		assert.Equal(t, 1.0, g.Window(zero, s))
		assert.InDelta(t, 1.0, g.ShotFunction(zero, s, false), 1e-15)
		assert.Equal(t, 1.0, g.ShotFunction(g.WaveVector(3, 1, 2), s, true))
	}
	// Compensated aliased shot noise grows towards the Nyquist frequency.
	kv := g.WaveVector(7, 0, 0)
	assert.Greater(t, g.ShotFunction(kv, CIC, false), 1.0)
	assert.Greater(t, g.ShotFunction(kv, PCS, false), g.ShotFunction(kv, TSC, false))
}

func TestFourierField_SingleParticle(t *testing.T) {
	x0 := [3]float64{13.7, 42.1, 77.7}
	for _, interlace := range []bool{false, true} {
		for _, s := range []Scheme{CIC, TSC, PCS} {
			opts := FieldOptions{NGrid: [3]int{16, 16, 16}, BoxSize: [3]float64{100, 100, 100}, Scheme: s, Interlace: interlace}
			f, err := FourierField(opts, [][3]float64{x0}, []float64{2})
			require.NoError(t, err)

			assert.InDelta(t, 2, real(f.Data[0]), 1e-9)
			for _, node := range [][3]int{{1, 0, 0}, {0, 15, 0}, {0, 0, 1}} {
				kv := f.WaveVector(node[0], node[1], node[2])
				want := 2 * cmplx.Exp(complex(0, -(kv[0]*x0[0] + kv[1]*x0[1] + kv[2]*x0[2])))
				got := f.Data[f.Index(node[0], node[1], node[2])]
				assert.InDelta(t, 0, cmplx.Abs(got-want), 0.05, "scheme %s interlace %v node %v", s, interlace, node)
			}
		}
	}
}

func TestSquareIntegral(t *testing.T) {
	g := newTestGrid(t, 4, 2)
	for i := range g.Data {
		g.Data[i] = 2
	}
	// 64 cells of volume 1/8 with |f|^2 = 4.
	assert.InDelta(t, 32, g.SquareIntegral(), 1e-12)
}
