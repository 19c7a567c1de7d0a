package api

// quotesResponse is the wire envelope for GET /market-quote/quotes.
type quotesResponse struct {
	Status string              `json:"status"`
	Data   map[string]APIQuote `json:"data"`
}

// APIQuote is one instrument's full quote on the wire. The response map is
// keyed by a long form ("NSE_FO:RELIANCE25SEPFUT") while the streaming feed
// keys by instrument token ("NSE_FO|53179"); InstrumentToken bridges the two.
type APIQuote struct {
	InstrumentToken string   `json:"instrument_token"`
	LastPrice       *float64 `json:"last_price"`
	Depth           APIDepth `json:"depth"`
}

// APIDepth is the five-level order book depth; only the top level is used.
type APIDepth struct {
	Buy  []APIDepthLevel `json:"buy"`
	Sell []APIDepthLevel `json:"sell"`
}

// APIDepthLevel is one price level of the depth.
type APIDepthLevel struct {
	Quantity int      `json:"quantity"`
	Price    *float64 `json:"price"`
	Orders   int      `json:"orders"`
}

// marginRequest is the wire body for POST /charges/margin.
type marginRequest struct {
	Instruments []MarginLeg `json:"instruments"`
}

// MarginLeg is one leg of a margin calculation.
type MarginLeg struct {
	InstrumentKey   string `json:"instrument_key"`
	Quantity        int    `json:"quantity"`
	TransactionType string `json:"transaction_type"` // "BUY" or "SELL"
	Product         string `json:"product"`          // "D" for delivery/carry-forward
}

// marginResponse is the wire envelope for POST /charges/margin.
type marginResponse struct {
	Status string `json:"status"`
	Data   struct {
		RequiredMargin *float64 `json:"required_margin"`
		FinalMargin    *float64 `json:"final_margin"`
	} `json:"data"`
}

// brokerageResponse is the wire envelope for GET /charges/brokerage.
type brokerageResponse struct {
	Status string `json:"status"`
	Data   struct {
		Charges struct {
			Total *float64 `json:"total"`
		} `json:"charges"`
	} `json:"data"`
}
