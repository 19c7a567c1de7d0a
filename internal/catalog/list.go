package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
)

// IndexSymbols are index underlyings excluded from the stock futures list.
var IndexSymbols = map[string]struct{}{
	"NIFTY":      {},
	"NIFTYNXT50": {},
	"MIDCPNIFTY": {},
	"FINNIFTY":   {},
	"BANKNIFTY":  {},
}

// NearestExpiry returns the earliest expiry at or after now (ms since epoch)
// among the reference symbol's futures, or 0 if none exists.
func NearestExpiry(instruments []Instrument, cfg Config, refSymbol string, nowMS int64) int64 {
	var nearest int64
	for _, inst := range instruments {
		if inst.Segment != cfg.Segment || inst.InstrumentType != cfg.InstrumentType {
			continue
		}
		if inst.UnderlyingSymbol != refSymbol {
			continue
		}
		if inst.Expiry < nowMS {
			continue
		}
		if nearest == 0 || inst.Expiry < nearest {
			nearest = inst.Expiry
		}
	}
	return nearest
}

// UnderlyingsForExpiry returns the sorted, deduplicated underlying symbols of
// all futures expiring exactly at expiry, excluding the skip set.
func UnderlyingsForExpiry(instruments []Instrument, cfg Config, expiry int64, skip map[string]struct{}) []string {
	seen := make(map[string]struct{})
	for _, inst := range instruments {
		if inst.Segment != cfg.Segment || inst.InstrumentType != cfg.InstrumentType {
			continue
		}
		if inst.Expiry != expiry {
			continue
		}
		if _, skipped := skip[inst.UnderlyingSymbol]; skipped {
			continue
		}
		if inst.UnderlyingSymbol == "" {
			continue
		}
		seen[inst.UnderlyingSymbol] = struct{}{}
	}

	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// WriteUnderlyingsCSV writes the one-column underlying list consumed by
// LoadUnderlyings.
func WriteUnderlyingsCSV(path string, symbols []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create underlyings csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"underlying_symbol"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, sym := range symbols {
		if err := w.Write([]string{sym}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
