// Package monitoring holds the diagnostic logging hooks and the measurement
// metrics shared by the twopoint pipeline.
package monitoring

import "log"

// Logf is the package-level progress logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Warnf reports conditions the caller should know about but that do not abort
// a measurement, such as a parameter resolved from its default value.
var Warnf func(format string, v ...interface{}) = defaultWarnf

func defaultWarnf(format string, v ...interface{}) {
	log.Printf("[warning] "+format, v...)
}

// SetLogger replaces the progress logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetWarnLogger replaces the warning logger. Passing nil restores the default
// log.Printf based implementation; warnings are never silently dropped.
func SetWarnLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Warnf = defaultWarnf
		return
	}
	Warnf = f
}

// Stage emits the coarse entering/exiting markers around a blocking step.
// The returned function logs the exit marker and is meant to be deferred.
func Stage(name string) func() {
	Logf("%s...", name)
	return func() { Logf("... %s done.", name) }
}

// Verbosity levels, numbered as in the parameter file's verbose field.
const (
	LevelDebug   = 10
	LevelInfo    = 20
	LevelWarning = 30
)

// SetVerbosity mutes the loggers whose level is below level. Progress
// messages are info level and warnings are warning level; levels at or
// below info leave both loggers untouched.
func SetVerbosity(level int) {
	if level > LevelInfo {
		SetLogger(nil)
	}
	if level > LevelWarning {
		SetWarnLogger(func(string, ...interface{}) {})
	}
}
