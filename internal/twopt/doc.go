// Package twopt is the measurement orchestrator. Each entry point resolves
// the sampling settings, aligns the catalogues in the measurement box,
// computes lines of sight and normalisation, runs the estimator and
// optionally saves the result.
//
// Catalogues are modified in place by alignment. Calls are synchronous; the
// context is only checked before work starts.
package twopt
