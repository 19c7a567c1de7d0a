package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MaxKeysPerQuoteRequest is the broker's per-request instrument limit.
const MaxKeysPerQuoteRequest = 490

// interBatchPause throttles consecutive quote batches.
const interBatchPause = 100 * time.Millisecond

// GetQuotes fetches full quotes for up to MaxKeysPerQuoteRequest instrument
// keys in a single request. The result is keyed as the broker keys it (long
// form); use APIQuote.CacheKey to get the feed-compatible key.
func (c *Client) GetQuotes(ctx context.Context, keys []string) (map[string]APIQuote, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if len(keys) > MaxKeysPerQuoteRequest {
		return nil, fmt.Errorf("too many instrument keys: %d > %d", len(keys), MaxKeysPerQuoteRequest)
	}

	query := url.Values{}
	query.Set("instrument_key", strings.Join(keys, ","))

	var resp quotesResponse
	if err := c.get(ctx, "/market-quote/quotes", query, &resp); err != nil {
		return nil, fmt.Errorf("get quotes: %w", err)
	}

	return resp.Data, nil
}

// GetAllQuotes fetches quotes for an arbitrary number of keys, batching
// requests and pausing briefly between batches. Failed batches are logged and
// skipped; partial data is returned.
func (c *Client) GetAllQuotes(ctx context.Context, keys []string) (map[string]APIQuote, error) {
	all := make(map[string]APIQuote, len(keys))

	for i := 0; i < len(keys); i += MaxKeysPerQuoteRequest {
		end := i + MaxKeysPerQuoteRequest
		if end > len(keys) {
			end = len(keys)
		}

		batch, err := c.GetQuotes(ctx, keys[i:end])
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			c.logger.Warn("quote batch failed",
				"batch_start", i,
				"batch_size", end-i,
				"err", err,
			)
			continue
		}

		for k, q := range batch {
			all[k] = q
		}

		if end < len(keys) {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(interBatchPause):
			}
		}
	}

	return all, nil
}

// CacheKey returns the key under which this quote should be stored: the
// instrument token when present (matches streaming feed keys), otherwise the
// response key passed in.
func (q *APIQuote) CacheKey(responseKey string) string {
	if q.InstrumentToken != "" {
		return q.InstrumentToken
	}
	return responseKey
}

// TopOfBook returns the best bid, best ask and last price, nil where the
// depth side is empty or the value is absent.
func (q *APIQuote) TopOfBook() (bid, ask, ltp *float64) {
	if len(q.Depth.Buy) > 0 {
		bid = q.Depth.Buy[0].Price
	}
	if len(q.Depth.Sell) > 0 {
		ask = q.Depth.Sell[0].Price
	}
	return bid, ask, q.LastPrice
}
