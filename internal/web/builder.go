// Package web serves the live spread dashboard: an HTML table with interval
// refresh, a JSON row API, and a health endpoint.
package web

import (
	"sort"

	"github.com/kmehta/futspread/internal/catalog"
	"github.com/kmehta/futspread/internal/costs"
	"github.com/kmehta/futspread/internal/model"
	"github.com/kmehta/futspread/internal/spread"
	"github.com/kmehta/futspread/internal/state"
)

// TableBuilder derives the spread table from the current market state. Rows
// are recomputed from scratch on every call; nothing is cached between
// refresh ticks.
type TableBuilder struct {
	underlyings []string
	cat         *catalog.Catalog
	cache       *state.Cache
	costs       *costs.Cache
}

// NewTableBuilder creates a builder over the given underlyings.
func NewTableBuilder(underlyings []string, cat *catalog.Catalog, cache *state.Cache, costsCache *costs.Cache) *TableBuilder {
	sorted := make([]string, len(underlyings))
	copy(sorted, underlyings)
	sort.Strings(sorted)

	return &TableBuilder{
		underlyings: sorted,
		cat:         cat,
		cache:       cache,
		costs:       costsCache,
	}
}

// BuildRows computes one SpreadRow per underlying, in symbol order. The
// market state is snapshotted once per call so a full table render takes a
// single lock acquisition.
func (b *TableBuilder) BuildRows() []model.SpreadRow {
	quotes := b.cache.Snapshot()

	rows := make([]model.SpreadRow, 0, len(b.underlyings))
	for _, sym := range b.underlyings {
		rows = append(rows, b.buildRow(sym, quotes))
	}
	return rows
}

func (b *TableBuilder) buildRow(symbol string, quotes map[string]model.Quote) model.SpreadRow {
	chain := b.cat.FuturesChain(symbol)

	leg := func(i int) model.Leg {
		if i >= len(chain) {
			return model.Leg{}
		}
		return model.Leg{
			InstrumentKey: chain[i].InstrumentKey,
			TradingSymbol: chain[i].TradingSymbol,
			Expiry:        chain[i].Expiry,
			Quote:         quotes[chain[i].InstrumentKey],
		}
	}

	near, next, far := leg(0), leg(1), leg(2)
	set := spread.Compute(near.Quote, next.Quote, far.Quote)
	c := b.costs.Lookup(symbol)

	lotSize := c.LotSize
	if lotSize == 0 {
		lotSize = b.cat.LotSize(symbol)
	}

	return model.SpreadRow{
		Symbol: symbol,

		Near: near,
		Next: next,
		Far:  far,

		NearBuyNextSell: set.NearBuyNextSell,
		NearSellNextBuy: set.NearSellNextBuy,
		NextBuyFarSell:  set.NextBuyFarSell,
		NextSellFarBuy:  set.NextSellFarBuy,
		NearBuyFarSell:  set.NearBuyFarSell,
		NearSellFarBuy:  set.NearSellFarBuy,

		NearBuyNextSellPct: set.NearBuyNextSellPct,
		NearSellNextBuyPct: set.NearSellNextBuyPct,
		NextBuyFarSellPct:  set.NextBuyFarSellPct,
		NextSellFarBuyPct:  set.NextSellFarBuyPct,
		NearBuyFarSellPct:  set.NearBuyFarSellPct,
		NearSellFarBuyPct:  set.NearSellFarBuyPct,

		LotSize:       lotSize,
		Margin:        c.Margin,
		ChargesPerLot: costs.PerLot(c.Charges, lotSize),
		CarryPerLot:   costs.PerLot(c.CostOfCarry, lotSize),
	}
}
