package catalogue

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/twopoint/internal/fsutil"
	"github.com/banshee-data/twopoint/internal/monitoring"
)

// Field names recognised in catalogue files.
const (
	FieldX  = "x"
	FieldY  = "y"
	FieldZ  = "z"
	FieldNZ = "nz"
	FieldWS = "ws"
	FieldWC = "wc"
)

// ReadOptions controls how an ASCII catalogue file is parsed.
type ReadOptions struct {
	// Names lists the file columns in order. When empty, the first
	// non-blank line of the file (optionally '#'-prefixed) is the header.
	Names []string
	// NameMapping renames file columns to catalogue fields, e.g.
	// {"nbar": "nz"}.
	NameMapping map[string]string
	// Comma selects comma delimiting; whitespace is used otherwise.
	Comma bool
	// Volume, if positive, imputes nz = N/Volume when the nz column is
	// absent.
	Volume float64
	// FS is the filesystem to read from; defaults to the OS.
	FS fsutil.FileSystem
}

// ReadFile loads a catalogue from an ASCII file.
func ReadFile(path string, opts ReadOptions) (*Catalogue, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalogue file: %w", err)
	}
	defer f.Close()
	return read(f, path, opts)
}

// Read loads a catalogue from r.
func Read(r io.Reader, opts ReadOptions) (*Catalogue, error) {
	return read(r, "", opts)
}

func read(r io.Reader, source string, opts ReadOptions) (*Catalogue, error) {
	names := opts.mapNames(append([]string(nil), opts.Names...))
	columns := map[string][]float64{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if len(names) == 0 {
			names = opts.mapNames(opts.splitLine(strings.TrimSpace(strings.TrimPrefix(line, "#"))))
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := opts.splitLine(line)
		if len(fields) != len(names) {
			return nil, fmt.Errorf("%w: line %d has %d values, header has %d columns",
				ErrLengthMismatch, lineNo, len(fields), len(names))
		}
		for i, s := range fields {
			v, err := parseValue(s)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", lineNo, names[i], err)
			}
			columns[names[i]] = append(columns[names[i]], v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: catalogue has no header or column names", ErrMissingField)
	}
	for _, name := range []string{FieldX, FieldY, FieldZ} {
		if !contains(names, name) {
			return nil, fmt.Errorf("%w: catalogue has no %q column (columns: %v)", ErrMissingField, name, names)
		}
	}
	x, y, z := columns[FieldX], columns[FieldY], columns[FieldZ]
	if len(x) == 0 {
		return nil, ErrEmptyCatalogue
	}

	var catOpts []Option
	if source != "" {
		catOpts = append(catOpts, WithSource(source))
	}
	if nz, ok := columns[FieldNZ]; ok {
		catOpts = append(catOpts, WithNZ(nz))
	} else if opts.Volume > 0 {
		density := float64(len(x)) / opts.Volume
		monitoring.Logf("Catalogue 'nz' field is absent; imputed uniform value %g from volume %g.", density, opts.Volume)
		catOpts = append(catOpts, WithUniformNZ(density))
	}
	if ws, ok := columns[FieldWS]; ok {
		catOpts = append(catOpts, WithWS(ws))
	}
	if wc, ok := columns[FieldWC]; ok {
		catOpts = append(catOpts, WithWC(wc))
	}
	return New(x, y, z, catOpts...)
}

func (o ReadOptions) mapNames(names []string) []string {
	for i, n := range names {
		if mapped, ok := o.NameMapping[n]; ok {
			names[i] = mapped
		}
	}
	return names
}

func (o ReadOptions) splitLine(line string) []string {
	if !o.Comma {
		return strings.Fields(line)
	}
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseValue accepts float literals plus the null markers written by common
// catalogue tools, which become NaN.
func parseValue(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "", "none", "null", "--":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
