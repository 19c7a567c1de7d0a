// Package store persists the latest spread row per underlying to Postgres.
//
// The table holds exactly one row per symbol, upserted on each flush. This is
// deliberately not a time-series history; older values are overwritten.
// The store is optional and disabled by default.
package store
