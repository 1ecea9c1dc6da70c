// Package voxlog provides the structured diagnostic logging used by the
// scene reader's "semantic anomalies are tolerated, not fatal" path
// (spec §7). It wraps go.uber.org/zap the way avatar29A-midgard-ro's
// internal/logger package does, trimmed to a library's needs: no file
// sink, just a package-level logger an embedder can swap out.
package voxlog

import "go.uber.org/zap"

var sugar = newDefault()

func newDefault() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}

// SetLogger replaces the package-level logger. Passing nil restores a
// no-op logger, useful in tests that don't want parser diagnostics on
// stderr.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		sugar = zap.NewNop().Sugar()
		return
	}
	sugar = l
}

// Warnw logs a semantic-anomaly diagnostic with structured fields. It
// never aborts a parse; callers continue with a best-effort scene per
// spec §7.
func Warnw(msg string, keysAndValues ...interface{}) {
	sugar.Warnw(msg, keysAndValues...)
}
