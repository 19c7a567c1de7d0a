package costs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kmehta/futspread/internal/api"
	"github.com/kmehta/futspread/internal/catalog"
)

func precalcCatalog() *catalog.Catalog {
	farOut := time.Now().AddDate(0, 1, 0).UnixMilli()
	return catalog.New(catalog.DefaultConfig(), []catalog.Instrument{
		{InstrumentKey: "NSE_FO|1", Segment: "NSE_FO", InstrumentType: "FUT", UnderlyingSymbol: "RELIANCE", Expiry: farOut, LotSize: 250},
		{InstrumentKey: "NSE_FO|2", Segment: "NSE_FO", InstrumentType: "FUT", UnderlyingSymbol: "RELIANCE", Expiry: farOut + 1, LotSize: 250},
		// Single contract: no spread to margin, symbol skipped.
		{InstrumentKey: "NSE_FO|3", Segment: "NSE_FO", InstrumentType: "FUT", UnderlyingSymbol: "TCS", Expiry: farOut, LotSize: 175},
	})
}

func TestPrecalc(t *testing.T) {
	var brokeragePrices []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/market-quote/quotes":
			json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data": map[string]any{
					"NSE_FO:RELIANCE25SEPFUT": map[string]any{
						"instrument_token": "NSE_FO|1",
						"last_price":       2855.4,
					},
					"NSE_FO:RELIANCE25OCTFUT": map[string]any{
						"instrument_token": "NSE_FO|2",
						"last_price":       2872.1,
					},
				},
			})
		case "/charges/margin":
			json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data":   map[string]any{"final_margin": 92500.0},
			})
		case "/charges/brokerage":
			brokeragePrices = append(brokeragePrices, r.URL.Query().Get("price"))
			json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data":   map[string]any{"charges": map[string]any{"total": 10.0}},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "t")
	cfg := PrecalcConfig{ROIPercent: 12.0, Pause: 0}

	rows, err := Precalc(context.Background(), cfg, client, precalcCatalog(), []string{"RELIANCE", "TCS"}, nil)
	if err != nil {
		t.Fatalf("Precalc failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1 (TCS has no next contract)", len(rows))
	}

	row := rows[0]
	if row.Symbol != "RELIANCE" || row.LotSize != 250 {
		t.Errorf("row = %+v", row)
	}
	if row.Margin == nil || *row.Margin != 92500 {
		t.Errorf("Margin = %v, want 92500", row.Margin)
	}
	// Two legs per direction at 10 each.
	if row.ChargesForward == nil || *row.ChargesForward != 20 {
		t.Errorf("ChargesForward = %v, want 20", row.ChargesForward)
	}
	if row.Charges == nil || *row.Charges != 40 {
		t.Errorf("Charges = %v, want 40", row.Charges)
	}
	if row.CostOfCarry == nil {
		t.Error("CostOfCarry = nil, want value")
	}

	// Brokerage calls carry the polled last price for the right contract.
	wantPrices := map[string]int{"2855.4": 2, "2872.1": 2}
	for _, p := range brokeragePrices {
		wantPrices[p]--
	}
	for price, n := range wantPrices {
		if n != 0 {
			t.Errorf("brokerage price %s seen wrong number of times (off by %d): %v", price, n, brokeragePrices)
		}
	}
}

func TestPrecalc_BrokerFailureLeavesNils(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "t")
	cfg := PrecalcConfig{ROIPercent: 12.0, Pause: 0}

	rows, err := Precalc(context.Background(), cfg, client, precalcCatalog(), []string{"RELIANCE"}, nil)
	if err != nil {
		t.Fatalf("Precalc failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1 (symbol emitted despite failures)", len(rows))
	}

	row := rows[0]
	if row.Margin != nil || row.Charges != nil || row.CostOfCarry != nil {
		t.Errorf("row = %+v, want nil costs after broker failures", row)
	}
}
