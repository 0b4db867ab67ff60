// Package runstore persists benchmark runs and their per-variant metrics
// in a local sqlite database.
//
// Responsibilities:
//   - schema lifecycle via embedded golang-migrate migrations
//   - insert and read of runs (one row per benchmark invocation) and
//     metrics (one row per sampling variant measured within a run)
//
// Key types: Store, Run, Metric. Open applies pending migrations before
// returning, so callers never see a stale schema.
package runstore
