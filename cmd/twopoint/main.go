// Command twopoint measures power spectrum and correlation function
// multipoles of particle catalogues described by a parameter file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/banshee-data/twopoint/internal/catalogue"
	"github.com/banshee-data/twopoint/internal/config"
	"github.com/banshee-data/twopoint/internal/measurement"
	"github.com/banshee-data/twopoint/internal/monitoring"
	"github.com/banshee-data/twopoint/internal/registry"
	"github.com/banshee-data/twopoint/internal/report"
	"github.com/banshee-data/twopoint/internal/twopt"
	"github.com/banshee-data/twopoint/internal/version"
)

type options struct {
	params      string
	registry    string
	metrics     string
	plot        string
	listRuns    bool
	limit       int
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("twopoint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.StringVar(&o.params, "params", "", "Parameter file (.yaml, .yml or .json)")
	fs.StringVar(&o.registry, "registry", "", "SQLite run registry to record the measurement in")
	fs.StringVar(&o.metrics, "metrics", "", "Write Prometheus metrics to this textfile")
	fs.StringVar(&o.plot, "plot", "", "Also plot the measurement (png or html)")
	fs.BoolVar(&o.listRuns, "list-runs", false, "List runs in the registry and exit")
	fs.IntVar(&o.limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	fs.BoolVar(&o.showVersion, "version", false, "Print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case o.showVersion:
	case o.listRuns:
		if o.registry == "" {
			return nil, fmt.Errorf("-list-runs requires -registry")
		}
	case o.params == "":
		return nil, fmt.Errorf("-params is required")
	}
	if o.plot != "" {
		if _, err := report.ParseFormat(o.plot); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout); err != nil {
		log.Fatalf("twopoint: %v", err)
	}
}

func run(ctx context.Context, o *options, stdout io.Writer) error {
	if o.showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	if o.listRuns {
		return listRuns(ctx, o, stdout)
	}

	params, err := config.LoadParams(o.params)
	if err != nil {
		return err
	}
	monitoring.SetVerbosity(config.Resolve(params).Verbose)
	req, err := buildRequest(params)
	if err != nil {
		return err
	}
	metrics := monitoring.NewMetrics()
	req.Metrics = metrics

	result, err := twopt.Measure(ctx, req)
	if o.metrics != "" {
		// Failed measurements are still counted.
		if werr := metrics.WriteTextfile(o.metrics); werr != nil {
			monitoring.Warnf("failed to write metrics: %v", werr)
		}
	}
	if err != nil {
		return err
	}

	if o.registry != "" {
		reg, err := registry.Open(o.registry, nil)
		if err != nil {
			return fmt.Errorf("opening run registry: %w", err)
		}
		defer reg.Close()
		if _, err := reg.RecordRun(ctx, result); err != nil {
			return err
		}
	}

	if o.plot != "" {
		format, _ := report.ParseFormat(o.plot)
		path := result.Path
		if path == "" {
			path = filepath.Join(result.Settings.MeasurementDir,
				measurement.Filename(result.Result.Kind, result.Result.Degree, result.Settings.OutputTag))
		}
		if err := report.Save(nil, report.PathFor(path, format), format, result.Result, result.Header); err != nil {
			return err
		}
	}
	return nil
}

// buildRequest reads the catalogues the parameter file names for its
// catalogue type.
func buildRequest(p *config.Params) (twopt.Request, error) {
	s := config.Resolve(p)
	kind, err := measurement.ParseKind(s.StatisticType)
	if err != nil {
		return twopt.Request{}, err
	}
	req := twopt.Request{
		Statistic:     kind,
		CatalogueType: s.CatalogueType,
		Options:       twopt.Options{Params: p},
	}

	needData, needRand := false, false
	switch s.CatalogueType {
	case twopt.CatalogueSurvey:
		needData, needRand = true, true
	case twopt.CatalogueRandom:
		needRand = true
	case twopt.CatalogueSim:
		needData = true
	default:
		return twopt.Request{}, fmt.Errorf("%w: unrecognised catalogue type %q", config.ErrInvalidConfiguration, s.CatalogueType)
	}
	if needData {
		if req.Data, err = readCatalogue("data", s.DataCatalogueFile, s.CatalogueColumns, s.Volume()); err != nil {
			return twopt.Request{}, err
		}
	}
	if needRand {
		if req.Rand, err = readCatalogue("random", s.RandCatalogueFile, s.CatalogueColumns, s.Volume()); err != nil {
			return twopt.Request{}, err
		}
	}
	return req, nil
}

// readCatalogue loads one catalogue file. Without an nz column the box
// volume gives a uniform nz = N/volume.
func readCatalogue(role, path string, columns []string, volume float64) (*catalogue.Catalogue, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no %s catalogue file configured", config.ErrInvalidConfiguration, role)
	}
	done := monitoring.Stage(fmt.Sprintf("Reading %s catalogue %s", role, path))
	defer done()
	return catalogue.ReadFile(path, catalogue.ReadOptions{
		Names:  columns,
		Comma:  strings.EqualFold(filepath.Ext(path), ".csv"),
		Volume: volume,
	})
}

func listRuns(ctx context.Context, o *options, stdout io.Writer) error {
	reg, err := registry.Open(o.registry, nil)
	if err != nil {
		return fmt.Errorf("opening run registry: %w", err)
	}
	defer reg.Close()

	runs, err := reg.ListRuns(ctx, o.limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tSTATISTIC\tCATALOGUES\tELL\tALPHA\tNORM\tSHOT NOISE\tOUTPUT")
	for _, r := range runs {
		out := r.Path
		if out == "" {
			out = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.4g\t%.4e\t%.4e\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Statistic, r.CatalogueType,
			r.Degree, r.Alpha, r.Norm, r.ShotNoise, out)
	}
	return tw.Flush()
}
