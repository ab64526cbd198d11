package twopt

import (
	"context"
	"fmt"

	"github.com/banshee-data/twopoint/internal/binning"
	"github.com/banshee-data/twopoint/internal/catalogue"
	"github.com/banshee-data/twopoint/internal/config"
	"github.com/banshee-data/twopoint/internal/estimator"
	"github.com/banshee-data/twopoint/internal/measurement"
	"github.com/banshee-data/twopoint/internal/monitoring"
	"github.com/banshee-data/twopoint/internal/timeutil"
	"github.com/banshee-data/twopoint/internal/version"
)

// Catalogue types.
const (
	CatalogueSurvey = "survey"
	CatalogueRandom = "random"
	CatalogueSim    = "sim"
)

// Options are the inputs shared by every measurement entry point. At least
// one of Params and Sampling must be set.
type Options struct {
	Params   *config.Params
	Sampling *config.SamplingOverrides
	Degree   *int

	// Binning overrides the binning derived from the parameters.
	Binning *binning.Binning

	// LOSData and LOSRand override the lines of sight computed from the
	// aligned particle positions.
	LOSData [][3]float64
	LOSRand [][3]float64

	// Writer persists the result when the save format is not off. Defaults
	// to an OS writer in the measurement directory.
	Writer *measurement.Writer

	Metrics *monitoring.Metrics
	Clock   timeutil.Clock

	// Algorithm replaces the estimator chosen for the statistic.
	Algorithm estimator.Algorithm
}

// Request names one measurement.
type Request struct {
	Statistic     measurement.Kind
	CatalogueType string
	Data          *catalogue.Catalogue
	Rand          *catalogue.Catalogue
	Options
}

// Run is a completed measurement with its provenance.
type Run struct {
	Result    *measurement.Result
	Header    *measurement.Header
	Settings  *config.Settings
	Alpha     float64
	Norm      float64
	NormAlt   float64
	ShotNoise float64
	// Path is where the result was saved, empty when saving is off.
	Path string
}

// ComputePowspec measures power spectrum multipoles of a survey-like data
// catalogue against its random catalogue.
func ComputePowspec(ctx context.Context, data, rand *catalogue.Catalogue, opts Options) (*measurement.Result, error) {
	return resultOf(Measure(ctx, Request{Statistic: measurement.KindPowspec, CatalogueType: CatalogueSurvey, Data: data, Rand: rand, Options: opts}))
}

// ComputeCorrfunc measures correlation function multipoles of a survey-like
// data catalogue against its random catalogue.
func ComputeCorrfunc(ctx context.Context, data, rand *catalogue.Catalogue, opts Options) (*measurement.Result, error) {
	return resultOf(Measure(ctx, Request{Statistic: measurement.KindCorrfunc, CatalogueType: CatalogueSurvey, Data: data, Rand: rand, Options: opts}))
}

// ComputeCorrfuncWindow measures the window correlation function multipoles
// of a random catalogue.
func ComputeCorrfuncWindow(ctx context.Context, rand *catalogue.Catalogue, opts Options) (*measurement.Result, error) {
	return resultOf(Measure(ctx, Request{Statistic: measurement.KindCorrfuncWindow, CatalogueType: CatalogueRandom, Rand: rand, Options: opts}))
}

// ComputePowspecInBox measures power spectrum multipoles of a periodic
// simulation box.
func ComputePowspecInBox(ctx context.Context, data *catalogue.Catalogue, opts Options) (*measurement.Result, error) {
	return resultOf(Measure(ctx, Request{Statistic: measurement.KindPowspec, CatalogueType: CatalogueSim, Data: data, Options: opts}))
}

// ComputeCorrfuncInBox measures correlation function multipoles of a
// periodic simulation box.
func ComputeCorrfuncInBox(ctx context.Context, data *catalogue.Catalogue, opts Options) (*measurement.Result, error) {
	return resultOf(Measure(ctx, Request{Statistic: measurement.KindCorrfunc, CatalogueType: CatalogueSim, Data: data, Options: opts}))
}

func resultOf(run *Run, err error) (*measurement.Result, error) {
	if err != nil {
		return nil, err
	}
	return run.Result, nil
}

// selectAlgorithm maps a statistic and catalogue type to an estimator.
func selectAlgorithm(kind measurement.Kind, catalogueType string) (estimator.Algorithm, error) {
	switch {
	case kind == measurement.KindPowspec && catalogueType == CatalogueSurvey:
		return estimator.PowspecSurvey{}, nil
	case kind == measurement.KindCorrfunc && catalogueType == CatalogueSurvey:
		return estimator.CorrfuncSurvey{}, nil
	case kind == measurement.KindCorrfuncWindow && catalogueType == CatalogueRandom:
		return estimator.CorrfuncWindow{}, nil
	case kind == measurement.KindPowspec && catalogueType == CatalogueSim:
		return estimator.PowspecBox{}, nil
	case kind == measurement.KindCorrfunc && catalogueType == CatalogueSim:
		return estimator.CorrfuncBox{}, nil
	}
	return nil, fmt.Errorf("%w: no estimator for statistic %q on %q catalogues",
		config.ErrInvalidConfiguration, kind, catalogueType)
}

// Measure runs one measurement end to end. Nothing is saved unless every
// stage succeeds.
func Measure(ctx context.Context, req Request) (run *Run, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clock := req.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := clock.Now()
	defer func() {
		req.Metrics.ObserveMeasurement(string(req.Statistic), req.CatalogueType, clock.Since(start), err)
	}()

	// Stage 1: parameters.
	b := config.NewBuilder().WithStatistic(string(req.Statistic), req.CatalogueType)
	if req.Params != nil {
		b.WithParams(req.Params)
	}
	if req.Sampling != nil {
		b.WithSampling(*req.Sampling)
	}
	if req.Degree != nil {
		b.WithDegree(*req.Degree)
	}
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	format, err := measurement.ParseSaveFormat(s.Save)
	if err != nil {
		return nil, err
	}
	algo := req.Algorithm
	if algo == nil {
		if algo, err = selectAlgorithm(req.Statistic, req.CatalogueType); err != nil {
			return nil, err
		}
	}

	// Stage 2: binning.
	bins := req.Binning
	if bins == nil {
		if bins, err = binning.FromSettings(s); err != nil {
			return nil, err
		}
	} else if bins.Space != s.Space() {
		return nil, fmt.Errorf("%w: %s-space binning supplied for %s", config.ErrInvalidConfiguration, bins.Space, req.Statistic)
	}

	// Stage 3: alignment, lines of sight and normalisation.
	in := estimator.Input{Data: req.Data, Rand: req.Rand, Settings: s, Binning: bins}
	var normCat *catalogue.Catalogue
	switch req.CatalogueType {
	case CatalogueSurvey:
		if req.Data == nil || req.Rand == nil {
			return nil, fmt.Errorf("%w: survey measurements need data and random catalogues", catalogue.ErrMissingField)
		}
		if err := align(s, req.Data, req.Rand); err != nil {
			return nil, err
		}
		if in.LOSData, err = linesOfSight(req.Data, req.LOSData); err != nil {
			return nil, err
		}
		if in.LOSRand, err = linesOfSight(req.Rand, req.LOSRand); err != nil {
			return nil, err
		}
		in.Alpha = Alpha(req.Data, req.Rand)
		normCat = req.Rand
	case CatalogueRandom:
		if req.Rand == nil {
			return nil, fmt.Errorf("%w: window measurements need a random catalogue", catalogue.ErrMissingField)
		}
		if err := align(s, req.Rand, nil); err != nil {
			return nil, err
		}
		if in.LOSRand, err = linesOfSight(req.Rand, req.LOSRand); err != nil {
			return nil, err
		}
		in.Alpha = 1
		normCat = req.Rand
	case CatalogueSim:
		if req.Data == nil {
			return nil, fmt.Errorf("%w: box measurements need a data catalogue", catalogue.ErrMissingField)
		}
		req.Data.Periodise(s.BoxSize)
		if err := imputeNZ(req.Data, s.NZImputation, s.Volume()); err != nil {
			return nil, err
		}
		in.Alpha = 1
		normCat = req.Data
	default:
		return nil, fmt.Errorf("%w: unrecognised catalogue type %q", config.ErrInvalidConfiguration, req.CatalogueType)
	}

	norm, normAlt, err := Normalisations(s.NormConvention, normCat, s, in.Alpha)
	if err != nil {
		return nil, err
	}
	in.Norm = norm
	shot, err := shotNoise(s.NormConvention, normCat, in.Alpha)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("Alpha contrast: %.6e.", in.Alpha)
	monitoring.Logf("Normalisation factors: %.6e (%s, used), %.6e (alternative).", norm, s.NormConvention, normAlt)
	monitoring.Logf("Shot noise: %.6e.", shot)

	// Stage 4: estimator.
	if req.Data != nil {
		req.Metrics.AddParticles("data", req.Data.NTotal())
	}
	if req.Rand != nil {
		req.Metrics.AddParticles("random", req.Rand.NTotal())
	}
	done := monitoring.Stage(fmt.Sprintf("Measuring %s multipole ell = %d", req.Statistic, s.Degree))
	res, err := algo.Compute(in)
	done()
	if err != nil {
		return nil, err
	}
	if err := res.Validate(bins.Num); err != nil {
		return nil, err
	}

	run = &Run{
		Result:    res,
		Settings:  s,
		Alpha:     in.Alpha,
		Norm:      norm,
		NormAlt:   normAlt,
		ShotNoise: shot,
	}
	run.Header = header(run, req, bins)

	if format != measurement.SaveOff {
		w := req.Writer
		if w == nil {
			w = measurement.NewWriter(nil, s.MeasurementDir)
		}
		if run.Path, err = w.Save(format, res, run.Header, s.OutputTag); err != nil {
			return nil, err
		}
	}
	return run, nil
}

func linesOfSight(c *catalogue.Catalogue, supplied [][3]float64) ([][3]float64, error) {
	if supplied != nil {
		if len(supplied) != c.NTotal() {
			return nil, fmt.Errorf("%w: %d lines of sight supplied for %d particles in %s",
				catalogue.ErrLengthMismatch, len(supplied), c.NTotal(), c)
		}
		return supplied, nil
	}
	return c.LinesOfSight()
}

func header(run *Run, req Request, bins *binning.Binning) *measurement.Header {
	s := run.Settings
	h := &measurement.Header{
		Program:        version.String(),
		Kind:           run.Result.Kind,
		Degree:         s.Degree,
		BoxSize:        s.BoxSize,
		NGrid:          s.NGrid,
		Alignment:      s.Alignment,
		PadScale:       s.PadScale,
		PadFactor:      s.PadFactor,
		Assignment:     s.Assignment,
		Interlace:      s.Interlace,
		Alpha:          run.Alpha,
		NormConvention: s.NormConvention,
		Norm:           run.Norm,
		NormAlt:        run.NormAlt,
		ShotNoise:      run.ShotNoise,
		BinScheme:      string(bins.Scheme),
		Range:          [2]float64{bins.Min, bins.Max},
		NumBins:        bins.Num,
	}
	if req.CatalogueType == CatalogueSim {
		h.Alignment = "periodic"
	}
	if req.Data != nil {
		h.Catalogues = append(h.Catalogues, measurement.Summarise("data", req.Data))
	}
	if req.Rand != nil {
		h.Catalogues = append(h.Catalogues, measurement.Summarise("random", req.Rand))
	}
	return h
}
