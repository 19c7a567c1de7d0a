// Package feed implements the push market-data feed.
//
// The feed:
//   - Holds one WebSocket connection to the broker's streaming endpoint
//   - Subscribes the full-mode channel for the configured instrument keys
//   - Decodes live_feed messages and writes top-of-book into the state cache
//   - Reconnects with exponential backoff on disconnect or staleness
package feed
