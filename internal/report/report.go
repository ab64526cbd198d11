// Package report renders saved measurements as plots: a static PNG through
// gonum/plot or an interactive HTML chart through go-echarts.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/twopoint/internal/fsutil"
	"github.com/banshee-data/twopoint/internal/measurement"
	"github.com/banshee-data/twopoint/internal/monitoring"
)

// Format is a plot output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

// ParseFormat accepts "png" or "html", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown plot format %q", s)
}

// Series is one curve of a measurement, evaluated on non-empty bins only.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Curves extracts the plotted curves of r. Power spectra give the raw and
// shot-subtracted real parts against k_eff; correlation functions give the
// real part against r_eff. Bins with no modes or pairs are dropped.
func Curves(r *measurement.Result) []Series {
	rows := measurement.Table(r)
	if r.Kind.Fourier() {
		raw := Series{Name: fmt.Sprintf("P%d raw", r.Degree)}
		sub := Series{Name: fmt.Sprintf("P%d - shot", r.Degree)}
		for _, row := range rows {
			if row.Count == 0 {
				continue
			}
			raw.X = append(raw.X, row.Eff)
			raw.Y = append(raw.Y, real(row.Values[0]))
			sub.X = append(sub.X, row.Eff)
			sub.Y = append(sub.Y, real(row.Values[0]-row.Values[1]))
		}
		return []Series{raw, sub}
	}
	xi := Series{Name: fmt.Sprintf("xi%d", r.Degree)}
	if r.Kind == measurement.KindCorrfuncWindow {
		xi.Name = fmt.Sprintf("Q%d", r.Degree)
	}
	for _, row := range rows {
		if row.Count == 0 {
			continue
		}
		xi.X = append(xi.X, row.Eff)
		xi.Y = append(xi.Y, real(row.Values[0]))
	}
	return []Series{xi}
}

func axisLabels(r *measurement.Result) (x, y string) {
	switch r.Kind {
	case measurement.KindPowspec:
		return "k", fmt.Sprintf("P_%d(k)", r.Degree)
	case measurement.KindCorrfuncWindow:
		return "r", fmt.Sprintf("Q_%d(r)", r.Degree)
	}
	return "r", fmt.Sprintf("xi_%d(r)", r.Degree)
}

func title(r *measurement.Result, h *measurement.Header) string {
	t := fmt.Sprintf("%s multipole ell = %d", r.Kind, r.Degree)
	if h != nil && len(h.Catalogues) > 0 {
		t += fmt.Sprintf(" (%s)", h.Catalogues[0].Source)
	}
	return t
}

// WritePNG renders r to w as a 14x6 inch PNG line plot.
func WritePNG(w io.Writer, r *measurement.Result, h *measurement.Header) error {
	p := plot.New()
	p.Title.Text = title(r, h)
	p.X.Label.Text, p.Y.Label.Text = axisLabels(r)

	for i, s := range Curves(r) {
		if len(s.X) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.X))
		for j := range s.X {
			pts[j] = plotter.XY{X: s.X[j], Y: s.Y[j]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// WriteHTML renders r to w as a self-contained go-echarts line chart.
func WriteHTML(w io.Writer, r *measurement.Result, h *measurement.Header) error {
	xName, yName := axisLabels(r)
	subtitle := ""
	if h != nil {
		subtitle = h.Program
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "twopoint measurement", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title(r, h), Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yName, NameLocation: "middle", NameGap: 50}),
	)
	for _, s := range Curves(r) {
		data := make([]opts.LineData, len(s.X))
		for j := range s.X {
			data[j] = opts.LineData{Value: []interface{}{s.X[j], s.Y[j]}}
		}
		line.AddSeries(s.Name, data)
	}
	return line.Render(w)
}

// Save renders r in the given format to path.
func Save(fsys fsutil.FileSystem, path string, format Format, r *measurement.Result, h *measurement.Header) error {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatPNG:
		err = WritePNG(&buf, r, h)
	case FormatHTML:
		err = WriteHTML(&buf, r, h)
	default:
		err = fmt.Errorf("unknown plot format %q", format)
	}
	if err != nil {
		return fmt.Errorf("rendering %s plot: %w", format, err)
	}
	if err := fsutil.WriteAtomic(fsys, path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	monitoring.Logf("Plot saved to %s.", path)
	return nil
}

// PathFor returns the plot path next to a saved measurement.
func PathFor(measurementPath string, format Format) string {
	for _, ext := range []string{".gob.gz", ".txt"} {
		if strings.HasSuffix(measurementPath, ext) {
			return strings.TrimSuffix(measurementPath, ext) + "." + string(format)
		}
	}
	return measurementPath + "." + string(format)
}
