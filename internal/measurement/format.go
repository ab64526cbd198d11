package measurement

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/twopoint/internal/config"
	"github.com/banshee-data/twopoint/internal/fsutil"
)

// SaveFormat selects how a measurement is persisted.
type SaveFormat int

const (
	SaveOff SaveFormat = iota
	SaveText
	SaveArchive
)

// ParseSaveFormat maps a save option to a SaveFormat.
func ParseSaveFormat(s string) (SaveFormat, error) {
	switch s {
	case "off", "":
		return SaveOff, nil
	case "txt":
		return SaveText, nil
	case "gob":
		return SaveArchive, nil
	}
	return SaveOff, fmt.Errorf("%w: unrecognised save format %q", config.ErrInvalidConfiguration, s)
}

func (f SaveFormat) String() string {
	switch f {
	case SaveText:
		return "txt"
	case SaveArchive:
		return "gob"
	}
	return "off"
}

// Extension returns the file extension, including the leading dot.
func (f SaveFormat) Extension() string {
	switch f {
	case SaveText:
		return ".txt"
	case SaveArchive:
		return ".gob.gz"
	}
	return ""
}

// Filename returns the base output name {prefix}{degree}{tag}. The tag is
// sanitised so it cannot introduce path separators.
func Filename(kind Kind, degree int, tag string) string {
	return fmt.Sprintf("%s%d%s", kind.Prefix(), degree, fsutil.SanitizeName(tag))
}

// FormatText renders the header as '# ' comment lines followed by one
// tab-delimited row per bin.
func FormatText(r *Result, h *Header) ([]byte, error) {
	if err := r.Validate(r.Len()); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if h != nil {
		for _, line := range h.Lines() {
			buf.WriteString("# ")
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	} else {
		fmt.Fprintf(&buf, "# Measurement: %s, degree %d\n", r.Kind, r.Degree)
	}
	for _, row := range Table(r) {
		fmt.Fprintf(&buf, "%.9e\t%.9e\t%10d", row.Bin, row.Eff, row.Count)
		for _, v := range row.Values {
			fmt.Fprintf(&buf, "\t% .9e\t% .9e", real(v), imag(v))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ReadText parses a measurement written by FormatText.
func ReadText(data []byte) (*Result, error) {
	var r *Result
	kind, degree := Kind(""), 0
	var rows [][]string

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
			if rest, ok := strings.CutPrefix(body, "Measurement: "); ok {
				name, deg, ok := strings.Cut(rest, ", degree ")
				if !ok {
					return nil, fmt.Errorf("measurement: malformed header %q", body)
				}
				d, err := strconv.Atoi(strings.TrimSpace(deg))
				if err != nil {
					return nil, fmt.Errorf("measurement: malformed header %q: %w", body, err)
				}
				degree = d
				k, err := ParseKind(name)
				if err != nil {
					return nil, err
				}
				kind = k
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if kind == "" {
		return nil, fmt.Errorf("measurement: no measurement header found")
	}

	if kind.Fourier() {
		r = NewPowspec(degree, len(rows))
	} else {
		r = NewCorrfunc(kind, degree, len(rows))
	}
	want := len(Columns(kind, degree))
	for i, fields := range rows {
		if len(fields) != want {
			return nil, fmt.Errorf("measurement: row %d has %d columns, want %d", i, len(fields), want)
		}
		v := make([]float64, want)
		var count int
		for c, f := range fields {
			f = strings.TrimSpace(f)
			var err error
			if c == 2 {
				count, err = strconv.Atoi(f)
			} else {
				v[c], err = strconv.ParseFloat(f, 64)
			}
			if err != nil {
				return nil, fmt.Errorf("measurement: row %d column %d: %w", i, c, err)
			}
		}
		if kind.Fourier() {
			r.KBin[i], r.KEff[i], r.NModes[i] = v[0], v[1], count
			r.PkRaw[i] = complex(v[3], v[4])
			r.PkShot[i] = complex(v[5], v[6])
		} else {
			r.RBin[i], r.REff[i], r.NPairs[i] = v[0], v[1], count
			r.Xi[i] = complex(v[3], v[4])
		}
	}
	return r, nil
}

// archive is the gob payload of an archived measurement.
type archive struct {
	Result Result
	Header Header
	Text   string
}

// EncodeArchive gob-encodes the result and header and gzip-compresses them.
func EncodeArchive(r *Result, h *Header) ([]byte, error) {
	a := archive{Result: *r}
	if h != nil {
		a.Header = *h
		a.Text = strings.Join(h.Lines(), "\n")
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(a); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadArchive decodes a blob written by EncodeArchive.
func ReadArchive(blob []byte) (*Result, *Header, error) {
	if len(blob) == 0 {
		return nil, nil, fmt.Errorf("empty measurement archive")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var a archive
	if err := gob.NewDecoder(gz).Decode(&a); err != nil {
		return nil, nil, fmt.Errorf("failed to decode measurement: %w", err)
	}
	return &a.Result, &a.Header, nil
}
