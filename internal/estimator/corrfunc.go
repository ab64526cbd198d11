package estimator

import (
	"fmt"
	"math/cmplx"

	"github.com/banshee-data/twopoint/internal/catalogue"
	"github.com/banshee-data/twopoint/internal/measurement"
	"github.com/banshee-data/twopoint/internal/mesh"
)

// CorrfuncSurvey measures two-point correlation function multipoles of a
// data catalogue against its random catalogue.
type CorrfuncSurvey struct{}

// CorrfuncBox measures correlation function multipoles in a periodic box
// with the line of sight along z.
type CorrfuncBox struct{}

// CorrfuncWindow measures the correlation function multipoles of the
// random catalogue alone, i.e. of the survey window.
type CorrfuncWindow struct{}

// Compute implements Algorithm.
func (CorrfuncSurvey) Compute(in Input) (*measurement.Result, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	if in.LOSData == nil || in.LOSRand == nil {
		return nil, fmt.Errorf("%w: survey correlation function needs lines of sight", catalogue.ErrMissingField)
	}
	data, err := newSource(in.Data, in.LOSData, 1)
	if err != nil {
		return nil, err
	}
	rand, err := newSource(in.Rand, in.LOSRand, -in.Alpha)
	if err != nil {
		return nil, err
	}
	return corrfuncLocal(in, measurement.KindCorrfunc, []source{data, rand})
}

// Compute implements Algorithm.
func (CorrfuncWindow) Compute(in Input) (*measurement.Result, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	if in.LOSRand == nil {
		return nil, fmt.Errorf("%w: window correlation function needs lines of sight", catalogue.ErrMissingField)
	}
	rand, err := newSource(in.Rand, in.LOSRand, in.Alpha)
	if err != nil {
		return nil, err
	}
	return corrfuncLocal(in, measurement.KindCorrfuncWindow, []source{rand})
}

func corrfuncLocal(in Input, kind measurement.Kind, sources []source) (*measurement.Result, error) {
	f0, terms, shot, opts, err := localFields(in, sources)
	if err != nil {
		return nil, err
	}
	xi, err := mesh.NewGrid(opts.NGrid, opts.BoxSize)
	if err != nil {
		return nil, err
	}
	vol := f0.Volume()

	for t, m := range terms {
		q := f0
		if m.pow != ([3]int{}) {
			if q, err = momentField(opts, sources, m); err != nil {
				return nil, err
			}
		}
		cross := q.Clone()
		cross.Each(func(i, j, k, idx int) {
			kv := cross.WaveVector(i, j, k)
			sn := shot[t] * cross.ShotFunction(kv, opts.Scheme, opts.Interlace)
			cross.Data[idx] = q.Data[idx]*cmplx.Conj(f0.Data[idx]) - complex(sn, 0)
		})
		cross.IFFT()
		cross.Each(func(i, j, k, idx int) {
			rhat := unit(cross.Separation(i, j, k))
			xi.Data[idx] += complex(m.coeff*m.eval(rhat)/vol, 0) * cross.Data[idx]
		})
	}
	return binCorrfunc(in, kind, xi), nil
}

// binCorrfunc averages (2 ell + 1) norm xi(r) over the cells in each
// separation bin.
func binCorrfunc(in Input, kind measurement.Kind, xi *mesh.Grid) *measurement.Result {
	prefactor := complex(float64(2*in.Settings.Degree+1)*in.Norm, 0)
	acc := newBinAccumulator(in.Binning, 1)
	xi.Each(func(i, j, k, idx int) {
		rmag := mesh.Norm(xi.Separation(i, j, k))
		bin := acc.bin(rmag)
		if bin < 0 {
			return
		}
		acc.add(bin, rmag, prefactor*xi.Data[idx])
	})

	r := measurement.NewCorrfunc(kind, in.Settings.Degree, in.Binning.Num)
	eff, means := acc.averages()
	copy(r.RBin, in.Binning.Centres)
	copy(r.REff, eff)
	copy(r.NPairs, acc.counts)
	copy(r.Xi, means[0])
	return r
}

// Compute implements Algorithm.
func (CorrfuncBox) Compute(in Input) (*measurement.Result, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	data, err := newSource(in.Data, nil, 1)
	if err != nil {
		return nil, err
	}
	opts, err := fieldOptions(in.Settings)
	if err != nil {
		return nil, err
	}
	f, err := mesh.FourierField(opts, data.pos, data.w)
	if err != nil {
		return nil, err
	}
	var sumW2 float64
	for _, w := range data.w {
		sumW2 += w * w
	}

	f.Each(func(i, j, k, idx int) {
		if idx == 0 {
			f.Data[idx] = 0
			return
		}
		kv := f.WaveVector(i, j, k)
		power := real(f.Data[idx])*real(f.Data[idx]) + imag(f.Data[idx])*imag(f.Data[idx])
		f.Data[idx] = complex(power-sumW2*f.ShotFunction(kv, opts.Scheme, opts.Interlace), 0)
	})
	f.IFFT()

	ell := in.Settings.Degree
	vol := f.Volume()
	f.Each(func(i, j, k, idx int) {
		rhat := unit(f.Separation(i, j, k))
		f.Data[idx] *= complex(legendre(ell, rhat[2])/vol, 0)
	})
	return binCorrfunc(in, measurement.KindCorrfunc, f), nil
}
