// Package measurement holds two-point measurement results and their
// persistence: tabulation, provenance headers, text and archive formats.
package measurement

import (
	"fmt"

	"github.com/banshee-data/twopoint/internal/config"
)

// Kind identifies the statistic a Result holds.
type Kind string

const (
	KindPowspec        Kind = "powspec"
	KindCorrfunc       Kind = "2pcf"
	KindCorrfuncWindow Kind = "2pcf-win"
)

// ParseKind maps a statistic type name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPowspec, KindCorrfunc, KindCorrfuncWindow:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown statistic type %q", config.ErrInvalidConfiguration, s)
}

// Prefix returns the output file prefix.
func (k Kind) Prefix() string {
	switch k {
	case KindPowspec:
		return "pk"
	case KindCorrfunc:
		return "xi"
	case KindCorrfuncWindow:
		return "xiw"
	}
	return string(k)
}

// Fourier reports whether the statistic is binned in wavenumber.
func (k Kind) Fourier() bool { return k == KindPowspec }

// Result is a binned multipole measurement. Fourier-space results fill the
// K*/NModes/Pk* columns; configuration-space results fill R*/NPairs/Xi.
type Result struct {
	Kind   Kind
	Degree int

	KBin   []float64
	KEff   []float64
	NModes []int
	PkRaw  []complex128
	PkShot []complex128

	RBin   []float64
	REff   []float64
	NPairs []int
	Xi     []complex128
}

// NewPowspec allocates a power spectrum result with n bins.
func NewPowspec(degree, n int) *Result {
	return &Result{
		Kind:   KindPowspec,
		Degree: degree,
		KBin:   make([]float64, n),
		KEff:   make([]float64, n),
		NModes: make([]int, n),
		PkRaw:  make([]complex128, n),
		PkShot: make([]complex128, n),
	}
}

// NewCorrfunc allocates a correlation function result with n bins.
func NewCorrfunc(kind Kind, degree, n int) *Result {
	return &Result{
		Kind:   kind,
		Degree: degree,
		RBin:   make([]float64, n),
		REff:   make([]float64, n),
		NPairs: make([]int, n),
		Xi:     make([]complex128, n),
	}
}

// Len returns the number of bins.
func (r *Result) Len() int {
	if r.Kind.Fourier() {
		return len(r.KBin)
	}
	return len(r.RBin)
}

// Validate checks that every column of the result has n entries.
func (r *Result) Validate(n int) error {
	var lengths map[string]int
	if r.Kind.Fourier() {
		lengths = map[string]int{
			"kbin": len(r.KBin), "keff": len(r.KEff), "nmodes": len(r.NModes),
			"pk_raw": len(r.PkRaw), "pk_shot": len(r.PkShot),
		}
	} else {
		lengths = map[string]int{
			"rbin": len(r.RBin), "reff": len(r.REff), "npairs": len(r.NPairs), "xi": len(r.Xi),
		}
	}
	for name, l := range lengths {
		if l != n {
			return fmt.Errorf("measurement: column %s has %d entries, want %d", name, l, n)
		}
	}
	return nil
}

// Row is one bin of a Result in output column order.
type Row struct {
	Bin    float64
	Eff    float64
	Count  int
	Values []complex128
}

// Table returns the result row-major in fixed column order: bin centre,
// effective value, count, then pk_raw and pk_shot (or xi).
func Table(r *Result) []Row {
	rows := make([]Row, r.Len())
	for i := range rows {
		if r.Kind.Fourier() {
			rows[i] = Row{Bin: r.KBin[i], Eff: r.KEff[i], Count: r.NModes[i], Values: []complex128{r.PkRaw[i], r.PkShot[i]}}
		} else {
			rows[i] = Row{Bin: r.RBin[i], Eff: r.REff[i], Count: r.NPairs[i], Values: []complex128{r.Xi[i]}}
		}
	}
	return rows
}

// Columns returns the column legend matching Table.
func Columns(kind Kind, degree int) []string {
	if kind.Fourier() {
		return []string{
			"k_cen", "k_eff", "nmodes",
			fmt.Sprintf("Re{pk%d_raw}", degree), fmt.Sprintf("Im{pk%d_raw}", degree),
			fmt.Sprintf("Re{pk%d_shot}", degree), fmt.Sprintf("Im{pk%d_shot}", degree),
		}
	}
	return []string{
		"r_cen", "r_eff", "npairs",
		fmt.Sprintf("Re{xi%d}", degree), fmt.Sprintf("Im{xi%d}", degree),
	}
}
