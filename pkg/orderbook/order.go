// Package orderbook implements the price-time priority matching engine:
// per-pair buy/sell priority queues, lazy cancellation, and matched-trace
// emission.
package orderbook

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Side is the direction of an order.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	switch str {
	case "buy":
		*s = Buy
	case "sell":
		*s = Sell
	default:
		return fmt.Errorf("orderbook: unknown side %q", str)
	}
	return nil
}

// Status is the lifecycle state of an Order.
type Status int8

const (
	Pending Status = iota
	PartiallyFilled
	Filled
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	switch str {
	case "pending":
		*s = Pending
	case "partially_filled":
		*s = PartiallyFilled
	case "filled":
		*s = Filled
	case "cancelled":
		*s = Cancelled
	default:
		return fmt.Errorf("orderbook: unknown status %q", str)
	}
	return nil
}

// Order is a resting or incoming limit order. Field order and JSON tags are
// pinned: they are hashed verbatim into a block's txns root, so changing
// either changes every downstream commitment.
type Order struct {
	ID           string         `json:"id"`
	UserID       common.Address `json:"user_id"`
	PairID       string         `json:"pair_id"`
	BaseToken    string         `json:"token_a"`
	QuoteToken   string         `json:"token_b"`
	Amount       uint64         `json:"amount"`
	FilledAmount uint64         `json:"filled_amount"`
	Price        uint64         `json:"price"`
	Side         Side           `json:"side"`
	Status       Status         `json:"status"`
	CreatedAt    int64          `json:"created_at"`
	UpdatedAt    int64          `json:"updated_at"`
}

// RemainingAmount returns Amount - FilledAmount.
func (o *Order) RemainingAmount() uint64 {
	return o.Amount - o.FilledAmount
}

// Fill records a partial or complete fill, advancing FilledAmount and Status.
// updatedAt is the caller-supplied wall-clock seconds.
func (o *Order) Fill(amount uint64, updatedAt int64) {
	o.FilledAmount += amount
	if o.FilledAmount >= o.Amount {
		o.Status = Filled
	} else if o.FilledAmount > 0 {
		o.Status = PartiallyFilled
	}
	o.UpdatedAt = updatedAt
}

// Clone returns a value copy of the order, used to snapshot it into a
// MatchedTrace at the moment of match.
func (o *Order) Clone() Order {
	return *o
}

// MatchedTrace is the authoritative, append-only record of a single match
// event: value-copied snapshots of both orders at match time plus the
// quantity traded. Field order is pinned (buy_order, sell_order,
// matched_amount) for the canonical txns-root bytes.
type MatchedTrace struct {
	BuyOrder      Order  `json:"buy_order"`
	SellOrder     Order  `json:"sell_order"`
	MatchedAmount uint64 `json:"matched_amount"`
}
