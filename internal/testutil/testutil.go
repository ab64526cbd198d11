// Package testutil provides shared test fixtures: synthetic particle
// catalogues and log capture.
package testutil

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/banshee-data/twopoint/internal/catalogue"
	"github.com/banshee-data/twopoint/internal/monitoring"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// UniformCatalogue returns n particles drawn uniformly from the box
// [lo, lo+box) with a fixed seed, so fixtures are reproducible.
func UniformCatalogue(t testing.TB, n int, lo, box [3]float64, seed int64, opts ...catalogue.Option) *catalogue.Catalogue {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	var cols [3][]float64
	for a := range cols {
		cols[a] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for a := range cols {
			cols[a][i] = lo[a] + rng.Float64()*box[a]
		}
	}
	opts = append([]catalogue.Option{catalogue.WithSource(fmt.Sprintf("uniform-%d-seed%d", n, seed))}, opts...)
	c, err := catalogue.New(cols[0], cols[1], cols[2], opts...)
	AssertNoError(t, err)
	return c
}

// LogCapture records formatted progress and warning messages.
type LogCapture struct {
	mu       sync.Mutex
	Logs     []string
	Warnings []string
}

// CaptureLogs redirects the monitoring loggers for the duration of the test.
func CaptureLogs(t testing.TB) *LogCapture {
	t.Helper()
	c := &LogCapture{}
	oldLog := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.Logs = append(c.Logs, fmt.Sprintf(format, v...))
	})
	monitoring.SetWarnLogger(func(format string, v ...interface{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.Warnings = append(c.Warnings, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() {
		monitoring.SetLogger(oldLog)
		monitoring.SetWarnLogger(nil)
	})
	return c
}

// WarningCount returns the number of captured warnings.
func (c *LogCapture) WarningCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Warnings)
}
