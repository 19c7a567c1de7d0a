package model

import "time"

// -----------------------------------------------------------------------------
// Market State Types
// -----------------------------------------------------------------------------

// Quote is the latest observed top-of-book state for one instrument.
// All price fields are nil until the first observation arrives; a quote with
// every field nil means "never seen".
type Quote struct {
	Bid       *float64  // Best bid price
	Ask       *float64  // Best ask price
	LTP       *float64  // Last traded price
	UpdatedAt time.Time // Local time of last write (zero if never written)
}

// Leg is one contract of a spread row: the resolved instrument plus its
// latest quote.
type Leg struct {
	InstrumentKey string // Broker instrument key (empty if contract missing)
	TradingSymbol string // Display symbol (e.g. "RELIANCE25SEPFUT")
	Expiry        int64  // Expiry (ms since epoch), 0 if contract missing
	Quote         Quote
}

// Costs holds precalculated per-underlying trading costs for a two-leg
// calendar spread. Loaded from the precalc cache, absent values are nil.
type Costs struct {
	Symbol      string
	LotSize     int
	Margin      *float64 // Combined margin for BUY near / SELL next
	Charges     *float64 // Round-trip brokerage (forward + reverse)
	CostOfCarry *float64 // Margin financing cost to near expiry
	GeneratedAt time.Time
}

// SpreadRow is one dashboard row: an underlying, its three nearest futures
// contracts, the six directional spreads and their percentage forms, and the
// precalculated costs. Derived on each refresh, never persisted as history.
type SpreadRow struct {
	Symbol string

	Near Leg
	Next Leg
	Far  Leg

	// Directional spreads, counterparty bid minus own ask. Nil when either
	// operand is missing.
	NearBuyNextSell *float64
	NearSellNextBuy *float64
	NextBuyFarSell  *float64
	NextSellFarBuy  *float64
	NearBuyFarSell  *float64
	NearSellFarBuy  *float64

	// Percentage forms, normalized by the near contract's LTP.
	NearBuyNextSellPct *float64
	NearSellNextBuyPct *float64
	NextBuyFarSellPct  *float64
	NextSellFarBuyPct  *float64
	NearBuyFarSellPct  *float64
	NearSellFarBuyPct  *float64

	LotSize       int
	Margin        *float64
	ChargesPerLot *float64
	CarryPerLot   *float64
}

// Float returns a pointer to v. Convenience for building nullable prices.
func Float(v float64) *float64 {
	return &v
}
