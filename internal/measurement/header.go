package measurement

import (
	"fmt"
	"strings"

	"github.com/banshee-data/twopoint/internal/catalogue"
)

// CatalogueSummary records the catalogue a measurement was made from.
type CatalogueSummary struct {
	Role   string
	Source string
	NTotal int
	WTotal float64
	Bounds catalogue.Bounds
}

// Summarise captures the identifying properties of c.
func Summarise(role string, c *catalogue.Catalogue) CatalogueSummary {
	return CatalogueSummary{
		Role:   role,
		Source: c.String(),
		NTotal: c.NTotal(),
		WTotal: c.WTotal(),
		Bounds: c.Bounds(),
	}
}

// Header is the provenance written ahead of a saved measurement.
type Header struct {
	Program    string
	Kind       Kind
	Degree     int
	Catalogues []CatalogueSummary

	BoxSize    [3]float64
	NGrid      [3]int
	Alignment  string
	PadScale   string
	PadFactor  float64
	Assignment string
	Interlace  bool

	Alpha          float64
	NormConvention string
	Norm           float64
	NormAlt        float64
	ShotNoise      float64

	BinScheme string
	Range     [2]float64
	NumBins   int
}

func altConvention(convention string) string {
	if convention == "mesh" {
		return "particle"
	}
	return "mesh"
}

// Lines renders the header, one entry per line and without comment
// markers.
func (h *Header) Lines() []string {
	lines := []string{
		fmt.Sprintf("Program: %s", h.Program),
		fmt.Sprintf("Measurement: %s, degree %d", h.Kind, h.Degree),
	}
	for _, c := range h.Catalogues {
		lines = append(lines,
			fmt.Sprintf("Catalogue source (%s): %s", c.Role, c.Source),
			fmt.Sprintf("Catalogue size (%s): ntotal = %d, wtotal = %.3f", c.Role, c.NTotal, c.WTotal),
			fmt.Sprintf("Catalogue particle extents (%s): %s", c.Role, c.Bounds),
		)
	}
	alignment := h.Alignment
	if alignment == "pad" {
		alignment = fmt.Sprintf("pad (%s scale, factor %g)", h.PadScale, h.PadFactor)
	}
	lines = append(lines,
		fmt.Sprintf("Box size: [%.3f, %.3f, %.3f]", h.BoxSize[0], h.BoxSize[1], h.BoxSize[2]),
		fmt.Sprintf("Box alignment: %s", alignment),
		fmt.Sprintf("Mesh number: [%d, %d, %d]", h.NGrid[0], h.NGrid[1], h.NGrid[2]),
		fmt.Sprintf("Mesh assignment and interlacing: %s, %t", h.Assignment, h.Interlace),
		fmt.Sprintf("Alpha contrast: %.9e", h.Alpha),
		fmt.Sprintf("Normalisation factor: %.9e (%s-based, used), %.9e (%s-based, alternative)",
			h.Norm, h.NormConvention, h.NormAlt, altConvention(h.NormConvention)),
		fmt.Sprintf("Shot noise: %.9e", h.ShotNoise),
		fmt.Sprintf("Data binning: %s, range [%g, %g], %d bins", h.BinScheme, h.Range[0], h.Range[1], h.NumBins),
	)

	cols := Columns(h.Kind, h.Degree)
	legend := make([]string, len(cols))
	for i, c := range cols {
		legend[i] = fmt.Sprintf("[%d] %s", i, c)
	}
	lines = append(lines, strings.Join(legend, ", "))
	return lines
}
