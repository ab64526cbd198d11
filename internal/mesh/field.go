package mesh

// FieldOptions describes how particles are painted onto a mesh.
type FieldOptions struct {
	NGrid     [3]int
	BoxSize   [3]float64
	Scheme    Scheme
	Interlace bool
}

// DensityField assigns weighted particles to a configuration-space grid.
func DensityField(opts FieldOptions, positions [][3]float64, weights []float64) (*Grid, error) {
	g, err := NewGrid(opts.NGrid, opts.BoxSize)
	if err != nil {
		return nil, err
	}
	if err := g.Assign(positions, weights, opts.Scheme, 0); err != nil {
		return nil, err
	}
	return g, nil
}

// FourierField returns the continuous Fourier transform of the weighted
// particle field, sum_p w_p exp(-i k.x_p), as estimated on the mesh: the
// assigned density is transformed, optionally interlaced, scaled by the cell
// volume and compensated for the assignment window.
func FourierField(opts FieldOptions, positions [][3]float64, weights []float64) (*Grid, error) {
	g, err := DensityField(opts, positions, weights)
	if err != nil {
		return nil, err
	}
	g.FFT()
	if opts.Interlace {
		shifted, err := NewGrid(opts.NGrid, opts.BoxSize)
		if err != nil {
			return nil, err
		}
		if err := shifted.Assign(positions, weights, opts.Scheme, 0.5); err != nil {
			return nil, err
		}
		shifted.FFT()
		g.Interlace(shifted)
	}
	g.Scale(complex(g.CellVolume(), 0))
	g.Compensate(opts.Scheme)
	return g, nil
}
