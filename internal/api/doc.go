// Package api provides the broker REST client.
//
// Endpoints used:
//   - GET  /market-quote/quotes  - full quotes for up to ~500 instrument keys
//   - POST /charges/margin       - combined margin for a two-leg spread
//   - GET  /charges/brokerage    - brokerage charges for a single order
//
// All requests carry the bearer access token obtained out-of-band (the login
// flow is not part of this service).
package api
