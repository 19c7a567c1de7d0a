package costs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kmehta/futspread/internal/model"
)

func TestCostOfCarry(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// 30 full days left: 100000 * 12% * 30/365 = 986.30
	expiry := now.AddDate(0, 0, 30).UnixMilli()
	got := CostOfCarry(model.Float(100000), expiry, 12.0, now)
	if got == nil || *got != 986.3 {
		t.Errorf("CostOfCarry = %v, want 986.3", got)
	}
}

func TestCostOfCarry_FractionalDaysTruncated(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// 2 days 18 hours left counts as 2 days.
	expiry := now.Add(66 * time.Hour).UnixMilli()
	got := CostOfCarry(model.Float(36500), expiry, 10.0, now)
	// 36500 * 10% * 2/365 = 20
	if got == nil || *got != 20 {
		t.Errorf("CostOfCarry = %v, want 20", got)
	}
}

func TestCostOfCarry_PastExpiry(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	expiry := now.AddDate(0, 0, -5).UnixMilli()
	got := CostOfCarry(model.Float(100000), expiry, 12.0, now)
	if got == nil || *got != 0 {
		t.Errorf("CostOfCarry past expiry = %v, want 0", got)
	}
}

func TestCostOfCarry_NilInputs(t *testing.T) {
	now := time.Now()

	if got := CostOfCarry(nil, now.UnixMilli(), 12.0, now); got != nil {
		t.Errorf("nil margin: got %v, want nil", *got)
	}
	if got := CostOfCarry(model.Float(100000), 0, 12.0, now); got != nil {
		t.Errorf("zero expiry: got %v, want nil", *got)
	}
}

func TestPerLot(t *testing.T) {
	if got := PerLot(model.Float(1000), 250); got == nil || *got != 4 {
		t.Errorf("PerLot = %v, want 4", got)
	}
	if got := PerLot(model.Float(1000), 0); got == nil || *got != 1000 {
		t.Errorf("PerLot zero lot = %v, want 1000 (divisor guarded to 1)", got)
	}
	if got := PerLot(nil, 250); got != nil {
		t.Errorf("PerLot nil = %v, want nil", *got)
	}
}

func TestSumCharges(t *testing.T) {
	if got := SumCharges(model.Float(43.72), model.Float(41.18)); got == nil || *got != 84.9 {
		t.Errorf("SumCharges = %v, want 84.9", got)
	}
	if got := SumCharges(model.Float(43.72), nil); got == nil || *got != 43.72 {
		t.Errorf("SumCharges one leg = %v, want 43.72", got)
	}
	if got := SumCharges(nil, nil); got != nil {
		t.Errorf("SumCharges both nil = %v, want nil", *got)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "margin_charges_cache.csv")

	rows := []Row{
		{
			Symbol:         "RELIANCE",
			LotSize:        250,
			Margin:         model.Float(185000.5),
			ChargesForward: model.Float(43.72),
			ChargesReverse: model.Float(41.18),
			Charges:        model.Float(84.9),
			CostOfCarry:    model.Float(986.3),
		},
		{
			// Margin lookup failed at precalc time: blanks survive the round trip.
			Symbol:  "TCS",
			LotSize: 175,
		},
	}

	if err := WriteCache(path, rows); err != nil {
		t.Fatalf("WriteCache failed: %v", err)
	}

	cache, err := LoadCache(path)
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}

	c := cache.Lookup("RELIANCE")
	if c.LotSize != 250 {
		t.Errorf("LotSize = %d, want 250", c.LotSize)
	}
	if c.Margin == nil || *c.Margin != 185000.5 {
		t.Errorf("Margin = %v, want 185000.5", c.Margin)
	}
	if c.Charges == nil || *c.Charges != 84.9 {
		t.Errorf("Charges = %v, want 84.9", c.Charges)
	}
	if c.CostOfCarry == nil || *c.CostOfCarry != 986.3 {
		t.Errorf("CostOfCarry = %v, want 986.3", c.CostOfCarry)
	}

	blank := cache.Lookup("TCS")
	if blank.Margin != nil || blank.Charges != nil || blank.CostOfCarry != nil {
		t.Errorf("blank row = %+v, want nil costs", blank)
	}
	if blank.LotSize != 175 {
		t.Errorf("blank LotSize = %d, want 175", blank.LotSize)
	}
}

func TestCacheLookup_MissingSymbol(t *testing.T) {
	cache := &Cache{rows: map[string]Row{}}

	c := cache.Lookup("UNKNOWN")
	if c.Symbol != "UNKNOWN" {
		t.Errorf("Symbol = %q", c.Symbol)
	}
	if c.Margin != nil || c.Charges != nil || c.CostOfCarry != nil {
		t.Error("missing symbol must yield nil costs")
	}
}

func TestCacheLookup_NilCache(t *testing.T) {
	var cache *Cache

	c := cache.Lookup("RELIANCE")
	if c.Margin != nil {
		t.Error("nil cache must yield nil costs")
	}
	if cache.Len() != 0 {
		t.Errorf("nil cache Len = %d, want 0", cache.Len())
	}
}

func TestCacheAge(t *testing.T) {
	gen := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	cache := &Cache{GeneratedAt: gen}

	if got := cache.Age(gen.Add(2 * time.Hour)); got != 2*time.Hour {
		t.Errorf("Age = %v, want 2h", got)
	}

	var nilCache *Cache
	if got := nilCache.Age(time.Now()); got != 0 {
		t.Errorf("nil cache Age = %v, want 0", got)
	}
}

func TestReadRows_ColumnOrderIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.csv")
	data := "Margin,Symbol,Lot_Size,Charges,Charges_f,Charges_r,Cost_of_Carry\n" +
		"185000,RELIANCE,250,84.9,43.72,41.18,986.3\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cache, err := LoadCache(path)
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}

	c := cache.Lookup("RELIANCE")
	if c.Margin == nil || *c.Margin != 185000 {
		t.Errorf("Margin = %v, want 185000", c.Margin)
	}
	if c.LotSize != 250 {
		t.Errorf("LotSize = %d, want 250", c.LotSize)
	}
}
