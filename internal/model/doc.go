// Package model defines shared data types used across futspread.
//
// Conventions:
//   - Prices: *float64, nil until first observation. Arithmetic over quotes
//     must propagate nil, never substitute zero.
//   - Expiries: int64 milliseconds since Unix epoch (broker instrument file).
//   - Timestamps: time.Time, local receive time.
package model
