// Package spread computes calendar-spread metrics from quote snapshots.
//
// All functions are pure. A missing operand (nil bid/ask/LTP) propagates to a
// nil result; spreads are never defaulted to zero.
package spread

import (
	"math"

	"github.com/kmehta/futspread/internal/model"
)

// Set holds the six directional spreads between the near, next and far
// contracts of one underlying, plus their percentage forms.
//
// Naming: "NearBuyNextSell" is the spread captured by buying the near
// contract and selling the next, i.e. next.bid - near.ask.
type Set struct {
	NearBuyNextSell *float64
	NearSellNextBuy *float64
	NextBuyFarSell  *float64
	NextSellFarBuy  *float64
	NearBuyFarSell  *float64
	NearSellFarBuy  *float64

	NearBuyNextSellPct *float64
	NearSellNextBuyPct *float64
	NextBuyFarSellPct  *float64
	NextSellFarBuyPct  *float64
	NearBuyFarSellPct  *float64
	NearSellFarBuyPct  *float64
}

// Diff returns a-b rounded to 4 decimals, or nil if either operand is nil.
func Diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return model.Float(round(*a-*b, 4))
}

// Compute derives the spread set from three quote snapshots.
//
// Each spread is counterparty bid minus own ask. Percentages are
// 100 * spread / near LTP, rounded to 2 decimals; a nil or zero near LTP
// falls back to a divisor of 1 so the percentage degrades to the absolute
// value instead of dividing by zero.
func Compute(near, next, far model.Quote) Set {
	s := Set{
		NearBuyNextSell: Diff(next.Bid, near.Ask),
		NearSellNextBuy: Diff(near.Bid, next.Ask),
		NextBuyFarSell:  Diff(far.Bid, next.Ask),
		NextSellFarBuy:  Diff(next.Bid, far.Ask),
		NearBuyFarSell:  Diff(far.Bid, near.Ask),
		NearSellFarBuy:  Diff(near.Bid, far.Ask),
	}

	base := 1.0
	if near.LTP != nil && *near.LTP != 0 {
		base = *near.LTP
	}

	s.NearBuyNextSellPct = pct(s.NearBuyNextSell, base)
	s.NearSellNextBuyPct = pct(s.NearSellNextBuy, base)
	s.NextBuyFarSellPct = pct(s.NextBuyFarSell, base)
	s.NextSellFarBuyPct = pct(s.NextSellFarBuy, base)
	s.NearBuyFarSellPct = pct(s.NearBuyFarSell, base)
	s.NearSellFarBuyPct = pct(s.NearSellFarBuy, base)

	return s
}

func pct(d *float64, base float64) *float64 {
	if d == nil {
		return nil
	}
	return model.Float(round(*d/base*100, 2))
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
