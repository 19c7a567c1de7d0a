package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Instrument is one entry of the broker instrument snapshot. Immutable after
// load.
type Instrument struct {
	InstrumentKey    string `json:"instrument_key"`
	Segment          string `json:"segment"`           // e.g. "NSE_FO"
	InstrumentType   string `json:"instrument_type"`   // "FUT", "CE", "PE", "EQ"
	UnderlyingSymbol string `json:"underlying_symbol"` // e.g. "RELIANCE"
	TradingSymbol    string `json:"trading_symbol"`    // e.g. "RELIANCE25SEPFUT"
	Expiry           int64  `json:"expiry"`            // ms since epoch, 0 for non-derivatives
	LotSize          int    `json:"lot_size"`
}

// Contract is a resolved futures contract within a chain.
type Contract struct {
	InstrumentKey string
	TradingSymbol string
	Expiry        int64
	LotSize       int
}

// Catalog indexes the instrument snapshot by underlying symbol for the
// configured segment and instrument type.
type Catalog struct {
	segment        string
	instrumentType string

	// Futures per underlying, sorted by ascending expiry.
	chains map[string][]Contract
	total  int
}

// Config selects which instruments the catalog indexes.
type Config struct {
	Segment        string // e.g. "NSE_FO"
	InstrumentType string // e.g. "FUT"
}

// DefaultConfig returns the NSE futures segment defaults.
func DefaultConfig() Config {
	return Config{
		Segment:        "NSE_FO",
		InstrumentType: "FUT",
	}
}

// LoadInstruments reads the instrument snapshot JSON file.
func LoadInstruments(path string) ([]Instrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instruments file: %w", err)
	}

	var instruments []Instrument
	if err := json.Unmarshal(data, &instruments); err != nil {
		return nil, fmt.Errorf("parse instruments json: %w", err)
	}

	return instruments, nil
}

// New builds a catalog from an instrument snapshot.
func New(cfg Config, instruments []Instrument) *Catalog {
	c := &Catalog{
		segment:        cfg.Segment,
		instrumentType: cfg.InstrumentType,
		chains:         make(map[string][]Contract),
	}

	for _, inst := range instruments {
		if inst.Segment != cfg.Segment || inst.InstrumentType != cfg.InstrumentType {
			continue
		}
		if inst.UnderlyingSymbol == "" || inst.InstrumentKey == "" {
			continue
		}
		c.chains[inst.UnderlyingSymbol] = append(c.chains[inst.UnderlyingSymbol], Contract{
			InstrumentKey: inst.InstrumentKey,
			TradingSymbol: inst.TradingSymbol,
			Expiry:        inst.Expiry,
			LotSize:       inst.LotSize,
		})
		c.total++
	}

	for sym := range c.chains {
		chain := c.chains[sym]
		sort.Slice(chain, func(i, j int) bool {
			return chain[i].Expiry < chain[j].Expiry
		})
	}

	return c
}

// Len returns the number of indexed contracts.
func (c *Catalog) Len() int {
	return c.total
}

// FuturesChain returns up to the three nearest-expiry futures contracts for
// the symbol, ordered near, next, far. Fewer than three may exist.
func (c *Catalog) FuturesChain(symbol string) []Contract {
	chain := c.chains[symbol]
	if len(chain) > 3 {
		chain = chain[:3]
	}
	out := make([]Contract, len(chain))
	copy(out, chain)
	return out
}

// LotSize returns the near-contract lot size for the symbol, or 0 if the
// symbol has no futures.
func (c *Catalog) LotSize(symbol string) int {
	chain := c.chains[symbol]
	if len(chain) == 0 {
		return 0
	}
	return chain[0].LotSize
}

// SubscribeKeys returns the deduplicated instrument keys for the chains of
// the given underlyings, preserving first-seen order.
func (c *Catalog) SubscribeKeys(underlyings []string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, sym := range underlyings {
		for _, fut := range c.FuturesChain(sym) {
			if _, ok := seen[fut.InstrumentKey]; ok {
				continue
			}
			seen[fut.InstrumentKey] = struct{}{}
			keys = append(keys, fut.InstrumentKey)
		}
	}
	return keys
}

// LoadUnderlyings reads the one-column underlying CSV. Duplicate symbols are
// dropped, first occurrence wins, order preserved.
func LoadUnderlyings(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open underlyings csv: %w", err)
	}
	defer f.Close()

	return readUnderlyings(f)
}

func readUnderlyings(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse underlyings csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Locate the underlying_symbol column; default to the first.
	col := 0
	start := 0
	for i, name := range records[0] {
		if name == "underlying_symbol" {
			col = i
			start = 1
			break
		}
	}

	seen := make(map[string]struct{})
	var symbols []string
	for _, rec := range records[start:] {
		if col >= len(rec) {
			continue
		}
		sym := rec[col]
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}

	return symbols, nil
}
