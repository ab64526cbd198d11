package twopt

import (
	"fmt"

	"github.com/banshee-data/twopoint/internal/catalogue"
	"github.com/banshee-data/twopoint/internal/config"
	"github.com/banshee-data/twopoint/internal/monitoring"
)

// align places c in the box per the alignment policy. With a non-nil ref the
// offset comes from ref and is applied to both.
func align(s *config.Settings, c, ref *catalogue.Catalogue) error {
	switch s.Alignment {
	case "centre":
		c.Centre(s.BoxSize, ref)
	case "pad":
		switch s.PadScale {
		case "box":
			c.PadInBox(s.BoxSize, s.PadFactor, ref)
		case "grid":
			return c.BoxifyForTransform(s.BoxSize, s.NGrid, s.PadFactor, ref)
		default:
			return fmt.Errorf("%w: unrecognised padding scale %q", config.ErrInvalidConfiguration, s.PadScale)
		}
	default:
		return fmt.Errorf("%w: unrecognised box alignment %q", config.ErrInvalidConfiguration, s.Alignment)
	}
	return nil
}

// imputeNZ fills nz of a periodic-box catalogue with the mean density N/V
// according to policy.
func imputeNZ(c *catalogue.Catalogue, policy string, volume float64) error {
	density := float64(c.NTotal()) / volume
	switch policy {
	case "never":
		return nil
	case "whole", "partial":
		if c.NZAbsentOrZero() {
			c.SetUniformNZ(density)
			monitoring.Warnf("catalogue 'nz' field is absent or zero; imputed uniform value %g for %s", density, c)
			return nil
		}
		if policy == "partial" {
			if filled := c.FillMissingNZ(density); filled > 0 {
				monitoring.Warnf("imputed 'nz' value %g for %d particles with missing values in %s", density, filled, c)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: unrecognised nz imputation policy %q", config.ErrInvalidConfiguration, policy)
}
