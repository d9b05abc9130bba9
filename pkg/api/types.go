package api

// API request/response types for the REST control surface.

// ==============================
// REST Request Types
// ==============================

// PlaceOrderRequest is the payload for POST /api/v1/orders.
type PlaceOrderRequest struct {
	ID     string `json:"id"`
	UserID string `json:"userId"` // hex Ethereum address
	PairID string `json:"pairId"` // e.g. "ETH_USDC"
	Side   string `json:"side"`   // "buy" or "sell"
	Amount uint64 `json:"amount"`
	Price  uint64 `json:"price"`
}

// CancelOrderRequest is the payload for POST /api/v1/orders/cancel.
type CancelOrderRequest struct {
	PairID  string `json:"pairId"`
	OrderID string `json:"orderId"`
}

// DepositRequest is the payload for POST /api/v1/deposit and /withdraw.
type DepositRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
	Amount uint64 `json:"amount"`
}

// ==============================
// REST Response Types
// ==============================

// SubmitOrderResponse is the response from order submission.
type SubmitOrderResponse struct {
	Status  string `json:"status"` // "submitted", "rejected"
	OrderID string `json:"orderId"`
	Message string `json:"message,omitempty"`
}

// OrderInfo represents an order (open or historical).
type OrderInfo struct {
	ID        string `json:"id"`
	PairID    string `json:"pairId"`
	Side      string `json:"side"`
	Price     uint64 `json:"price"`
	Amount    uint64 `json:"amount"`
	Filled    uint64 `json:"filled"`
	Remaining uint64 `json:"remaining"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"createdAt"`
}

// OrderbookSnapshot is the current top of book for a pair.
type OrderbookSnapshot struct {
	PairID string  `json:"pairId"`
	Bid    *uint64 `json:"bid,omitempty"`
	Ask    *uint64 `json:"ask,omitempty"`
}

// BalanceResponse is the free/frozen balance for one user/token.
type BalanceResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
	Free   uint64 `json:"free"`
	Frozen uint64 `json:"frozen"`
}

// ChainStatus reports the block builder's progress.
type ChainStatus struct {
	LatestBlockNum string `json:"latestBlockNum"`
	PendingTraces  int    `json:"pendingTraces"`
}

// ErrorResponse is the standard error envelope for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
