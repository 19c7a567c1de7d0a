package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetSpreadMargin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/charges/margin" {
			t.Errorf("path = %q", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Instruments []MarginLeg `json:"instruments"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if len(req.Instruments) != 2 {
			t.Fatalf("legs = %d, want 2", len(req.Instruments))
		}
		if req.Instruments[0].TransactionType != "BUY" || req.Instruments[1].TransactionType != "SELL" {
			t.Errorf("leg directions = %q/%q, want BUY/SELL",
				req.Instruments[0].TransactionType, req.Instruments[1].TransactionType)
		}
		if req.Instruments[0].Quantity != 250 {
			t.Errorf("quantity = %d, want 250", req.Instruments[0].Quantity)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"required_margin": 185000.0,
				"final_margin":    92500.0,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")

	margin, err := client.GetSpreadMargin(context.Background(), "NSE_FO|1", "NSE_FO|2", 250)
	if err != nil {
		t.Fatalf("GetSpreadMargin failed: %v", err)
	}
	if margin == nil || *margin != 92500 {
		t.Errorf("margin = %v, want final_margin 92500", margin)
	}
}

func TestGetSpreadMargin_FallsBackToRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"required_margin": 185000.0},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")

	margin, err := client.GetSpreadMargin(context.Background(), "A", "B", 1)
	if err != nil {
		t.Fatalf("GetSpreadMargin failed: %v", err)
	}
	if margin == nil || *margin != 185000 {
		t.Errorf("margin = %v, want 185000", margin)
	}
}

func TestGetBrokerage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("instrument_token") != "NSE_FO|1" {
			t.Errorf("instrument_token = %q", q.Get("instrument_token"))
		}
		if q.Get("transaction_type") != "SELL" {
			t.Errorf("transaction_type = %q", q.Get("transaction_type"))
		}
		if q.Get("product") != ProductDelivery {
			t.Errorf("product = %q", q.Get("product"))
		}

		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"charges": map[string]any{"total": 43.72},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")

	total, err := client.GetBrokerage(context.Background(), "NSE_FO|1", 250, "SELL", 2855.1)
	if err != nil {
		t.Fatalf("GetBrokerage failed: %v", err)
	}
	if total == nil || *total != 43.72 {
		t.Errorf("total = %v, want 43.72", total)
	}
}

func TestGetSpreadMargin_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")

	if _, err := client.GetSpreadMargin(context.Background(), "A", "B", 1); err == nil {
		t.Fatal("expected error for non-success status")
	}
}
