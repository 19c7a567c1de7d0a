package costs

import (
	"context"
	"log/slog"
	"time"

	"github.com/kmehta/futspread/internal/api"
	"github.com/kmehta/futspread/internal/catalog"
)

// PrecalcConfig holds precalc runner settings.
type PrecalcConfig struct {
	ROIPercent float64       // Annual financing rate for carry
	Pause      time.Duration // Pause between symbols (rate limiting)
}

// DefaultPrecalcConfig returns sensible defaults.
func DefaultPrecalcConfig() PrecalcConfig {
	return PrecalcConfig{
		ROIPercent: DefaultROIPercent,
		Pause:      100 * time.Millisecond,
	}
}

// Precalc fetches margin, round-trip charges and carry for every underlying
// with at least a near and next contract. Broker failures on a symbol leave
// its values nil; the symbol is still emitted.
func Precalc(ctx context.Context, cfg PrecalcConfig, client *api.Client, cat *catalog.Catalog, underlyings []string, logger *slog.Logger) ([]Row, error) {
	if logger == nil {
		logger = slog.Default()
	}

	prices := fetchLastPrices(ctx, client, cat, underlyings, logger)

	rows := make([]Row, 0, len(underlyings))

	for _, sym := range underlyings {
		if ctx.Err() != nil {
			return rows, ctx.Err()
		}

		chain := cat.FuturesChain(sym)
		if len(chain) < 2 {
			continue
		}
		near, next := chain[0], chain[1]

		lotSize := near.LotSize
		if lotSize == 0 {
			lotSize = 1
		}

		margin, err := client.GetSpreadMargin(ctx, near.InstrumentKey, next.InstrumentKey, lotSize)
		if err != nil {
			logger.Warn("margin fetch failed", "symbol", sym, "err", err)
		}

		forward, reverse := roundTripCharges(ctx, client, chargeLeg{near.InstrumentKey, prices[near.InstrumentKey]},
			chargeLeg{next.InstrumentKey, prices[next.InstrumentKey]}, lotSize, logger)

		row := Row{
			Symbol:         sym,
			LotSize:        lotSize,
			Margin:         margin,
			ChargesForward: forward,
			ChargesReverse: reverse,
			Charges:        SumCharges(forward, reverse),
			CostOfCarry:    CostOfCarry(margin, near.Expiry, cfg.ROIPercent, time.Now()),
		}
		rows = append(rows, row)

		logger.Info("precalc symbol done",
			"symbol", sym,
			"lot_size", lotSize,
			"margin", deref(margin),
			"charges", deref(row.Charges),
			"carry", deref(row.CostOfCarry),
		)

		if cfg.Pause > 0 {
			select {
			case <-ctx.Done():
				return rows, ctx.Err()
			case <-time.After(cfg.Pause):
			}
		}
	}

	return rows, nil
}

// fetchLastPrices polls last prices for every near/next contract up front,
// batched, so the brokerage calls carry a real trade price. Failures degrade
// to an empty map and a zero price downstream.
func fetchLastPrices(ctx context.Context, client *api.Client, cat *catalog.Catalog, underlyings []string, logger *slog.Logger) map[string]float64 {
	var keys []string
	for _, sym := range underlyings {
		chain := cat.FuturesChain(sym)
		if len(chain) < 2 {
			continue
		}
		keys = append(keys, chain[0].InstrumentKey, chain[1].InstrumentKey)
	}

	prices := make(map[string]float64, len(keys))
	quotes, err := client.GetAllQuotes(ctx, keys)
	if err != nil {
		logger.Warn("price poll failed, brokerage computed at price 0", "err", err)
		return prices
	}

	for key, q := range quotes {
		_, _, ltp := q.TopOfBook()
		if ltp != nil {
			prices[q.CacheKey(key)] = *ltp
		}
	}
	return prices
}

// chargeLeg is one contract of a brokerage round trip.
type chargeLeg struct {
	key   string
	price float64
}

// roundTripCharges fetches forward (buy near / sell next) and reverse
// (sell near / buy next) brokerage totals. A failed leg counts as zero
// within its direction.
func roundTripCharges(ctx context.Context, client *api.Client, near, next chargeLeg, lotSize int, logger *slog.Logger) (forward, reverse *float64) {
	leg := func(l chargeLeg, txn string) *float64 {
		total, err := client.GetBrokerage(ctx, l.key, lotSize, txn, l.price)
		if err != nil {
			logger.Warn("brokerage fetch failed", "key", l.key, "txn", txn, "err", err)
			return nil
		}
		return total
	}

	forward = SumCharges(leg(near, "BUY"), leg(next, "SELL"))
	reverse = SumCharges(leg(near, "SELL"), leg(next, "BUY"))
	return forward, reverse
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
