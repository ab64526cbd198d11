// Package registry keeps a SQLite record of completed measurements: what was
// measured, from which catalogues, with which normalisation, and where the
// result was saved.
package registry

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/twopoint/internal/monitoring"
	"github.com/banshee-data/twopoint/internal/timeutil"
	"github.com/banshee-data/twopoint/internal/twopt"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoRun is returned when a run identifier is not in the registry.
var ErrNoRun = errors.New("run not found")

// Registry is a handle on the run database.
type Registry struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Record is one stored measurement run.
type Record struct {
	ID            string
	CreatedAt     time.Time
	Statistic     string
	CatalogueType string
	Degree        int
	NumBins       int
	Alpha         float64
	Norm          float64
	NormAlt       float64 // NaN when the alternative could not be computed
	ShotNoise     float64 // NaN when nz was unavailable
	Path          string
	Header        string
	DataSource    string
	RandSource    string
}

// Open opens (creating if necessary) the registry at path and brings its
// schema up to date. A nil clock uses the wall clock.
func Open(path string, clock timeutil.Clock) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	r := &Registry{db: db, clock: clock}
	if err := r.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// MigrateUp runs all pending migrations. It is a no-op at the latest version.
func (r *Registry) MigrateUp() error {
	m, err := r.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the shared connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the schema version and dirty flag, or 0 when no
// migration has been applied.
func (r *Registry) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := r.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (r *Registry) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// RecordRun stores a completed measurement and returns its new identifier.
func (r *Registry) RecordRun(ctx context.Context, run *twopt.Run) (string, error) {
	if run == nil || run.Result == nil || run.Settings == nil {
		return "", fmt.Errorf("cannot record an incomplete run")
	}
	rec := Record{
		ID:            uuid.NewString(),
		CreatedAt:     r.clock.Now().UTC(),
		Statistic:     string(run.Result.Kind),
		CatalogueType: run.Settings.CatalogueType,
		Degree:        run.Result.Degree,
		NumBins:       run.Result.Len(),
		Alpha:         run.Alpha,
		Norm:          run.Norm,
		NormAlt:       run.NormAlt,
		ShotNoise:     run.ShotNoise,
		Path:          run.Path,
	}
	if run.Header != nil {
		rec.Header = strings.Join(run.Header.Lines(), "\n")
		for _, c := range run.Header.Catalogues {
			switch c.Role {
			case "data":
				rec.DataSource = c.Source
			case "random":
				rec.RandSource = c.Source
			}
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, statistic, catalogue_type, degree, num_bins,
			alpha, norm, norm_alt, shot_noise, output_path, header, data_source, rand_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.Format(time.RFC3339Nano), rec.Statistic, rec.CatalogueType,
		rec.Degree, rec.NumBins, rec.Alpha, rec.Norm, nullable(rec.NormAlt), nullable(rec.ShotNoise),
		rec.Path, rec.Header, rec.DataSource, rec.RandSource)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	monitoring.Logf("Recorded run %s.", rec.ID)
	return rec.ID, nil
}

// nullable stores NaN as NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

const selectRuns = `
	SELECT run_id, created_at, statistic, catalogue_type, degree, num_bins,
		alpha, norm, norm_alt, shot_noise, output_path, header, data_source, rand_source
	FROM runs`

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (r *Registry) ListRuns(ctx context.Context, limit int) ([]Record, error) {
	query := selectRuns + " ORDER BY created_at DESC, rowid DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetRun looks up one run by identifier.
func (r *Registry) GetRun(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, selectRuns+" WHERE run_id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNoRun, id)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec     Record
		created string
		normAlt sql.NullFloat64
		shot    sql.NullFloat64
	)
	err := s.Scan(&rec.ID, &created, &rec.Statistic, &rec.CatalogueType, &rec.Degree,
		&rec.NumBins, &rec.Alpha, &rec.Norm, &normAlt, &shot, &rec.Path,
		&rec.Header, &rec.DataSource, &rec.RandSource)
	if err != nil {
		return Record{}, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Record{}, fmt.Errorf("bad timestamp for run %s: %w", rec.ID, err)
	}
	rec.NormAlt, rec.ShotNoise = math.NaN(), math.NaN()
	if normAlt.Valid {
		rec.NormAlt = normAlt.Float64
	}
	if shot.Valid {
		rec.ShotNoise = shot.Float64
	}
	return rec, nil
}
