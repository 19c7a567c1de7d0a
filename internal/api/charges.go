package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ProductDelivery is the carry-forward product code used for futures legs.
const ProductDelivery = "D"

// GetSpreadMargin fetches the combined margin for buying the near contract
// and selling the next, both at lot size. Returns the broker's final margin,
// falling back to required margin, nil if the broker reports neither.
func (c *Client) GetSpreadMargin(ctx context.Context, nearKey, nextKey string, lotSize int) (*float64, error) {
	req := marginRequest{
		Instruments: []MarginLeg{
			{InstrumentKey: nearKey, Quantity: lotSize, TransactionType: "BUY", Product: ProductDelivery},
			{InstrumentKey: nextKey, Quantity: lotSize, TransactionType: "SELL", Product: ProductDelivery},
		},
	}

	var resp marginResponse
	if err := c.post(ctx, "/charges/margin", req, &resp); err != nil {
		return nil, fmt.Errorf("get spread margin: %w", err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("get spread margin: status %q", resp.Status)
	}

	if resp.Data.FinalMargin != nil {
		return resp.Data.FinalMargin, nil
	}
	return resp.Data.RequiredMargin, nil
}

// GetBrokerage fetches total brokerage charges for a single order.
func (c *Client) GetBrokerage(ctx context.Context, instrumentKey string, quantity int, transactionType string, price float64) (*float64, error) {
	query := url.Values{}
	query.Set("instrument_token", instrumentKey)
	query.Set("quantity", strconv.Itoa(quantity))
	query.Set("product", ProductDelivery)
	query.Set("transaction_type", transactionType)
	query.Set("price", strconv.FormatFloat(price, 'f', -1, 64))

	var resp brokerageResponse
	if err := c.get(ctx, "/charges/brokerage", query, &resp); err != nil {
		return nil, fmt.Errorf("get brokerage: %w", err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("get brokerage: status %q", resp.Status)
	}

	return resp.Data.Charges.Total, nil
}
