package measurement

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/twopoint/internal/catalogue"
	"github.com/banshee-data/twopoint/internal/config"
	"github.com/banshee-data/twopoint/internal/fsutil"
	"github.com/banshee-data/twopoint/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func samplePowspec() *Result {
	r := NewPowspec(2, 3)
	for i := 0; i < 3; i++ {
		r.KBin[i] = 0.01 + 0.02*float64(i)
		r.KEff[i] = r.KBin[i] * 1.0123456789
		r.NModes[i] = 10 * (i + 1)
		r.PkRaw[i] = complex(12345.678912*float64(i+1), -0.000123456789)
		r.PkShot[i] = complex(-987.654321, 1e-12)
	}
	return r
}

func sampleCorrfunc() *Result {
	r := NewCorrfunc(KindCorrfuncWindow, 0, 2)
	r.RBin = []float64{10, 30}
	r.REff = []float64{10.5, 29.75}
	r.NPairs = []int{123456, 7}
	r.Xi = []complex128{complex(0.123456789123, 0), complex(-4.5e-5, 2e-9)}
	return r
}

func sampleHeader(kind Kind, degree int) *Header {
	return &Header{
		Program: "twopoint test",
		Kind:    kind,
		Degree:  degree,
		Catalogues: []CatalogueSummary{{
			Role: "data", Source: "ParticleCatalogue(source=galaxies.dat)", NTotal: 1000, WTotal: 998.5,
			Bounds: catalogue.Bounds{{0, 1}, {0, 2}, {0, 3}},
		}},
		BoxSize:        [3]float64{1000, 1000, 1000},
		NGrid:          [3]int{64, 64, 64},
		Alignment:      "pad",
		PadScale:       "grid",
		PadFactor:      3,
		Assignment:     "tsc",
		Interlace:      true,
		Alpha:          0.1,
		NormConvention: "particle",
		Norm:           1.5e-6,
		NormAlt:        math.NaN(),
		ShotNoise:      120.5,
		BinScheme:      "lin",
		Range:          [2]float64{0.005, 0.105},
		NumBins:        3,
	}
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

var approx = cmp.Options{
	cmpopts.EquateApprox(1e-9, 0),
	cmp.Comparer(func(a, b complex128) bool {
		return closeTo(real(a), real(b)) && closeTo(imag(a), imag(b))
	}),
}

func TestParseKindAndPrefix(t *testing.T) {
	for kind, prefix := range map[Kind]string{KindPowspec: "pk", KindCorrfunc: "xi", KindCorrfuncWindow: "xiw"} {
		got, err := ParseKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, got)
		assert.Equal(t, prefix, kind.Prefix())
	}
	_, err := ParseKind("bispec")
	assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "pk0", Filename(KindPowspec, 0, ""))
	assert.Equal(t, "xi2_tag", Filename(KindCorrfunc, 2, "_tag"))
	assert.Equal(t, "xiw4-x", Filename(KindCorrfuncWindow, 4, "-x"))
	assert.Equal(t, "pk0_.._out", Filename(KindPowspec, 0, "/../out"))
}

func TestParseSaveFormat(t *testing.T) {
	tests := []struct {
		in   string
		want SaveFormat
		ext  string
	}{
		{"off", SaveOff, ""},
		{"txt", SaveText, ".txt"},
		{"gob", SaveArchive, ".gob.gz"},
	}
	for _, tt := range tests {
		got, err := ParseSaveFormat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.ext, got.Extension())
		assert.Equal(t, tt.in, got.String())
	}
	_, err := ParseSaveFormat("npz")
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

func TestValidate(t *testing.T) {
	r := samplePowspec()
	assert.NoError(t, r.Validate(3))
	r.PkShot = r.PkShot[:2]
	assert.Error(t, r.Validate(3))
}

func TestTable(t *testing.T) {
	rows := Table(sampleCorrfunc())
	require.Len(t, rows, 2)
	assert.Equal(t, Row{Bin: 30, Eff: 29.75, Count: 7, Values: []complex128{complex(-4.5e-5, 2e-9)}}, rows[1])
}

func TestFormatText_Layout(t *testing.T) {
	data, err := FormatText(samplePowspec(), sampleHeader(KindPowspec, 2))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	var header, body []string
	for _, l := range lines {
		if strings.HasPrefix(l, "# ") {
			header = append(header, l)
		} else {
			body = append(body, l)
		}
	}
	require.Len(t, body, 3)
	assert.Contains(t, header, "# Measurement: powspec, degree 2")
	assert.Contains(t, header, "# Box alignment: pad (grid scale, factor 3)")
	assert.Contains(t, strings.Join(header, "\n"), "(particle-based, used), NaN (mesh-based, alternative)")
	assert.Equal(t, "# [0] k_cen, [1] k_eff, [2] nmodes, [3] Re{pk2_raw}, [4] Im{pk2_raw}, [5] Re{pk2_shot}, [6] Im{pk2_shot}", header[len(header)-1])

	fields := strings.Split(body[0], "\t")
	require.Len(t, fields, 7)
	assert.Equal(t, "1.000000000e-02", fields[0])
	assert.Equal(t, "        10", fields[2])
}

func TestText_RoundTrip(t *testing.T) {
	for _, r := range []*Result{samplePowspec(), sampleCorrfunc()} {
		data, err := FormatText(r, sampleHeader(r.Kind, r.Degree))
		require.NoError(t, err)
		got, err := ReadText(data)
		require.NoError(t, err)
		if diff := cmp.Diff(r, got, approx, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestReadText_Errors(t *testing.T) {
	_, err := ReadText([]byte("1\t2\t3\n"))
	assert.Error(t, err)
	_, err = ReadText([]byte("# Measurement: powspec, degree 0\n1\t2\t3\n"))
	assert.Error(t, err)
	_, err = ReadText([]byte("# Measurement: bispec, degree 0\n"))
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

func TestArchive_RoundTrip(t *testing.T) {
	r := samplePowspec()
	h := sampleHeader(KindPowspec, 2)
	blob, err := EncodeArchive(r, h)
	require.NoError(t, err)

	gotR, gotH, err := ReadArchive(blob)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(r, gotR, cmpopts.EquateEmpty()))
	assert.Empty(t, cmp.Diff(h, gotH, cmpopts.EquateNaNs()))

	_, _, err = ReadArchive(nil)
	assert.Error(t, err)
	_, _, err = ReadArchive([]byte("not gzip"))
	assert.Error(t, err)
}

func TestWriter_Save(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs, "out")

	path, err := w.Save(SaveOff, samplePowspec(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Empty(t, mfs.Files(""))

	path, err = w.Save(SaveText, samplePowspec(), sampleHeader(KindPowspec, 2), "_run")
	require.NoError(t, err)
	assert.Equal(t, "out/pk2_run.txt", path)

	path, err = w.Save(SaveArchive, sampleCorrfunc(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "out/xiw0.gob.gz", path)
	assert.Equal(t, []string{"out/pk2_run.txt", "out/xiw0.gob.gz"}, mfs.Files("out/"))

	blob, err := mfs.ReadFile(path)
	require.NoError(t, err)
	got, _, err := ReadArchive(blob)
	require.NoError(t, err)
	assert.Equal(t, []int{123456, 7}, got.NPairs)
}

func TestWriter_InvalidResultWritesNothing(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs, "out")
	r := samplePowspec()
	r.NModes = r.NModes[:1]

	_, err := w.Save(SaveText, r, nil, "")
	assert.Error(t, err)
	assert.Empty(t, mfs.Files(""))
}
