package costs

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/kmehta/futspread/internal/model"
)

var cacheHeader = []string{"Symbol", "Lot_Size", "Margin", "Charges_f", "Charges_r", "Charges", "Cost_of_Carry"}

// Row is one precalculated cache entry.
type Row struct {
	Symbol         string
	LotSize        int
	Margin         *float64
	ChargesForward *float64
	ChargesReverse *float64
	Charges        *float64
	CostOfCarry    *float64
}

// Cache is the loaded precalc cache, indexed by symbol.
type Cache struct {
	rows        map[string]Row
	GeneratedAt time.Time
}

// Lookup returns the costs for a symbol. Missing symbols yield a Costs with
// nil values, which the spread table renders as unknown.
func (c *Cache) Lookup(symbol string) model.Costs {
	if c == nil {
		return model.Costs{Symbol: symbol}
	}
	row, ok := c.rows[symbol]
	if !ok {
		return model.Costs{Symbol: symbol}
	}
	return model.Costs{
		Symbol:      symbol,
		LotSize:     row.LotSize,
		Margin:      row.Margin,
		Charges:     row.Charges,
		CostOfCarry: row.CostOfCarry,
		GeneratedAt: c.GeneratedAt,
	}
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rows)
}

// Age returns how old the cache file is.
func (c *Cache) Age(now time.Time) time.Duration {
	if c == nil || c.GeneratedAt.IsZero() {
		return 0
	}
	return now.Sub(c.GeneratedAt)
}

// LoadCache reads the precalc CSV. The file's modification time is taken as
// the generation time.
func LoadCache(path string) (*Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open costs cache: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat costs cache: %w", err)
	}

	rows, err := readRows(f)
	if err != nil {
		return nil, err
	}

	return &Cache{
		rows:        rows,
		GeneratedAt: info.ModTime(),
	}, nil
}

func readRows(r io.Reader) (map[string]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse costs cache: %w", err)
	}
	if len(records) == 0 {
		return map[string]Row{}, nil
	}

	// Map header names to columns so column order is not load-bearing.
	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	rows := make(map[string]Row, len(records)-1)
	for _, rec := range records[1:] {
		sym := field(rec, "Symbol")
		if sym == "" {
			continue
		}
		lot, _ := strconv.Atoi(field(rec, "Lot_Size"))
		rows[sym] = Row{
			Symbol:         sym,
			LotSize:        lot,
			Margin:         parseFloat(field(rec, "Margin")),
			ChargesForward: parseFloat(field(rec, "Charges_f")),
			ChargesReverse: parseFloat(field(rec, "Charges_r")),
			Charges:        parseFloat(field(rec, "Charges")),
			CostOfCarry:    parseFloat(field(rec, "Cost_of_Carry")),
		}
	}

	return rows, nil
}

// WriteCache writes the precalc CSV.
func WriteCache(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create costs cache: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cacheHeader); err != nil {
		return fmt.Errorf("write cache header: %w", err)
	}
	for _, row := range rows {
		rec := []string{
			row.Symbol,
			strconv.Itoa(row.LotSize),
			formatFloat(row.Margin),
			formatFloat(row.ChargesForward),
			formatFloat(row.ChargesReverse),
			formatFloat(row.Charges),
			formatFloat(row.CostOfCarry),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write cache row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	return nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return model.Float(v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
