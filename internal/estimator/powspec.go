package estimator

import (
	"fmt"
	"math/cmplx"

	"github.com/banshee-data/twopoint/internal/catalogue"
	"github.com/banshee-data/twopoint/internal/measurement"
	"github.com/banshee-data/twopoint/internal/mesh"
)

// PowspecSurvey measures power spectrum multipoles of a data catalogue
// against its random catalogue with per-particle lines of sight.
type PowspecSurvey struct{}

// PowspecBox measures power spectrum multipoles of a periodic box with the
// line of sight along z.
type PowspecBox struct{}

// Compute implements Algorithm.
func (PowspecSurvey) Compute(in Input) (*measurement.Result, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	if in.LOSData == nil || in.LOSRand == nil {
		return nil, fmt.Errorf("%w: survey power spectrum needs lines of sight", catalogue.ErrMissingField)
	}
	data, err := newSource(in.Data, in.LOSData, 1)
	if err != nil {
		return nil, err
	}
	rand, err := newSource(in.Rand, in.LOSRand, -in.Alpha)
	if err != nil {
		return nil, err
	}
	return powspecLocal(in, []source{data, rand})
}

// localFields builds the unweighted field F_0 and, for each monomial of the
// Legendre expansion, the shot-noise moment sum_p w_p^2 los_p^pow.
func localFields(in Input, sources []source) (*mesh.Grid, []moment, []float64, mesh.FieldOptions, error) {
	opts, err := fieldOptions(in.Settings)
	if err != nil {
		return nil, nil, nil, opts, err
	}
	pos, w := concat(sources)
	f0, err := mesh.FourierField(opts, pos, w)
	if err != nil {
		return nil, nil, nil, opts, err
	}
	terms := moments(in.Settings.Degree)
	shot := make([]float64, len(terms))
	for t, m := range terms {
		for _, s := range sources {
			for p, wp := range s.w {
				shot[t] += wp * wp * m.eval(s.los[p])
			}
		}
	}
	return f0, terms, shot, opts, nil
}

// momentField returns the Fourier field of the particles weighted by the
// monomial los^pow of each particle's line of sight.
func momentField(opts mesh.FieldOptions, sources []source, m moment) (*mesh.Grid, error) {
	var pos [][3]float64
	var w []float64
	for _, s := range sources {
		pos = append(pos, s.pos...)
		for p, wp := range s.w {
			w = append(w, wp*m.eval(s.los[p]))
		}
	}
	return mesh.FourierField(opts, pos, w)
}

func powspecLocal(in Input, sources []source) (*measurement.Result, error) {
	ell := in.Settings.Degree
	f0, terms, shot, opts, err := localFields(in, sources)
	if err != nil {
		return nil, err
	}

	// F_ell(k) = sum_m coeff_m khat^pow_m Q_m(k).
	fl := f0
	if ell != 0 {
		fl, err = mesh.NewGrid(opts.NGrid, opts.BoxSize)
		if err != nil {
			return nil, err
		}
		for _, m := range terms {
			q := f0
			if m.pow != ([3]int{}) {
				if q, err = momentField(opts, sources, m); err != nil {
					return nil, err
				}
			}
			q.Each(func(i, j, k, idx int) {
				khat := unit(q.WaveVector(i, j, k))
				fl.Data[idx] += complex(m.coeff*m.eval(khat), 0) * q.Data[idx]
			})
		}
	}

	prefactor := float64(2*ell+1) * in.Norm
	acc := newBinAccumulator(in.Binning, 2)
	f0.Each(func(i, j, k, idx int) {
		if idx == 0 {
			return
		}
		kv := f0.WaveVector(i, j, k)
		kmag := mesh.Norm(kv)
		bin := acc.bin(kmag)
		if bin < 0 {
			return
		}
		khat := unit(kv)
		var sn float64
		for t, m := range terms {
			sn += m.coeff * m.eval(khat) * shot[t]
		}
		sn *= f0.ShotFunction(kv, opts.Scheme, opts.Interlace)
		acc.add(bin, kmag,
			complex(prefactor, 0)*fl.Data[idx]*cmplx.Conj(f0.Data[idx]),
			complex(prefactor*sn, 0),
		)
	})
	return powspecResult(in, acc), nil
}

func powspecResult(in Input, acc *binAccumulator) *measurement.Result {
	r := measurement.NewPowspec(in.Settings.Degree, in.Binning.Num)
	eff, means := acc.averages()
	copy(r.KBin, in.Binning.Centres)
	copy(r.KEff, eff)
	copy(r.NModes, acc.counts)
	copy(r.PkRaw, means[0])
	copy(r.PkShot, means[1])
	return r
}

// Compute implements Algorithm.
func (PowspecBox) Compute(in Input) (*measurement.Result, error) {
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

	ell := in.Settings.Degree
	prefactor := float64(2*ell+1) * in.Norm
	acc := newBinAccumulator(in.Binning, 2)
	f.Each(func(i, j, k, idx int) {
		if idx == 0 {
			return
		}
		kv := f.WaveVector(i, j, k)
		kmag := mesh.Norm(kv)
		bin := acc.bin(kmag)
		if bin < 0 {
			return
		}
		l := legendre(ell, kv[2]/kmag)
		power := real(f.Data[idx])*real(f.Data[idx]) + imag(f.Data[idx])*imag(f.Data[idx])
		sn := sumW2 * f.ShotFunction(kv, opts.Scheme, opts.Interlace)
		acc.add(bin, kmag, complex(prefactor*power*l, 0), complex(prefactor*sn*l, 0))
	})
	return powspecResult(in, acc), nil
}
