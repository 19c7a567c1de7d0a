// Package catalog loads the static instrument snapshot and the tracked
// underlying list, and resolves near/next/far futures chains.
//
// The instrument snapshot is the broker's full tradable-instrument JSON dump,
// loaded once per process. The underlying list is a one-column CSV
// ("underlying_symbol" header) produced by the list generator.
package catalog
