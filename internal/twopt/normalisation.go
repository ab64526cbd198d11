package twopt

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/twopoint/internal/catalogue"
	"github.com/banshee-data/twopoint/internal/config"
	"github.com/banshee-data/twopoint/internal/mesh"
	"github.com/banshee-data/twopoint/internal/monitoring"
)

// Normalisation conventions.
const (
	ConventionParticle = "particle"
	ConventionMesh     = "mesh"
)

// Alpha returns the ratio of total systematic weights of data to randoms,
// or 1 without a random catalogue.
func Alpha(data, rand *catalogue.Catalogue) float64 {
	if data == nil || rand == nil {
		return 1
	}
	return data.WTotal() / rand.WTotal()
}

// clusteringWeights returns ws*wc per particle.
func clusteringWeights(c *catalogue.Catalogue) []float64 {
	w := make([]float64, c.NTotal())
	floats.MulTo(w, c.WS(), c.WC())
	return w
}

// ParticleNormalisation returns 1 / (alpha sum nz ws wc^2).
func ParticleNormalisation(c *catalogue.Catalogue, alpha float64) (float64, error) {
	if err := c.RequireNZ("particle-based normalisation"); err != nil {
		return 0, err
	}
	w := clusteringWeights(c)
	floats.Mul(w, c.WC())
	return 1 / (alpha * floats.Dot(c.NZ(), w)), nil
}

// ParticleShotNoise returns alpha^2 sum ws^2 wc^2.
func ParticleShotNoise(c *catalogue.Catalogue, alpha float64) (float64, error) {
	if err := c.RequireNZ("particle-based shot noise"); err != nil {
		return 0, err
	}
	w := clusteringWeights(c)
	return alpha * alpha * floats.Dot(w, w), nil
}

// shotNoise is the particle shot noise of the reference catalogue c. Under
// the mesh convention nz is not otherwise needed, so a catalogue without it
// yields NaN with a warning instead of an error.
func shotNoise(convention string, c *catalogue.Catalogue, alpha float64) (float64, error) {
	shot, err := ParticleShotNoise(c, alpha)
	if err != nil {
		if convention == ConventionMesh && errors.Is(err, catalogue.ErrMissingField) {
			monitoring.Warnf("shot noise unavailable: %v", err)
			return math.NaN(), nil
		}
		return 0, err
	}
	return shot, nil
}

// MeshNormalisation returns 1 / (alpha^2 integral n^2 dV), where n is the
// weighted number density of c assigned to the measurement mesh.
func MeshNormalisation(c *catalogue.Catalogue, s *config.Settings, alpha float64) (float64, error) {
	scheme, err := mesh.ParseScheme(s.Assignment)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", config.ErrInvalidConfiguration, err)
	}
	positions := make([][3]float64, c.NTotal())
	for i := range positions {
		positions[i] = c.Position(i)
	}
	field, err := mesh.DensityField(mesh.FieldOptions{NGrid: s.NGrid, BoxSize: s.BoxSize, Scheme: scheme},
		positions, clusteringWeights(c))
	if err != nil {
		return 0, err
	}
	return 1 / (alpha * alpha * field.SquareIntegral()), nil
}

// Normalisations computes the normalisation factor under the requested
// convention and the alternative one. The used factor must succeed; an
// alternative that cannot be computed is reported as NaN with a warning.
func Normalisations(convention string, c *catalogue.Catalogue, s *config.Settings, alpha float64) (used, alt float64, err error) {
	particle := func() (float64, error) { return ParticleNormalisation(c, alpha) }
	meshBased := func() (float64, error) { return MeshNormalisation(c, s, alpha) }

	var usedFn, altFn func() (float64, error)
	switch convention {
	case ConventionParticle:
		usedFn, altFn = particle, meshBased
	case ConventionMesh:
		usedFn, altFn = meshBased, particle
	default:
		return 0, 0, fmt.Errorf("%w: unrecognised normalisation convention %q", config.ErrInvalidConfiguration, convention)
	}

	if used, err = usedFn(); err != nil {
		return 0, 0, err
	}
	if alt, err = altFn(); err != nil {
		monitoring.Warnf("alternative normalisation factor unavailable: %v", err)
		return used, math.NaN(), nil
	}
	return used, alt, nil
}
