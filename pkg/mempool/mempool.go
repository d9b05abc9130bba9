// Package mempool is the admission surface in front of the matching
// engine: it is where a PlaceOrder freezes the funds an order could
// consume, and where a CancelOrder releases whatever of that freeze is
// still outstanding. One OrderBook per trading pair is created lazily on
// first use of that pair.
package mempool

import (
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zkclob/engine/pkg/orderbook"
	"github.com/zkclob/engine/pkg/pairid"
	"github.com/zkclob/engine/pkg/state"
	"github.com/zkclob/engine/pkg/tracebuffer"
	"github.com/zkclob/engine/pkg/xerrors"
)

// Mempool is the single admission point for orders and cancels across all
// trading pairs. Lock hierarchy: Mempool is always acquired before the
// per-pair OrderBook it dispatches into, and State is acquired either
// alone or before Mempool — never nested inside a Book or TraceBuffer
// critical section.
type Mempool struct {
	mu     sync.Mutex
	books  map[string]*orderbook.OrderBook
	state  *state.Store
	traces *tracebuffer.Buffer
}

func New(st *state.Store, traces *tracebuffer.Buffer) *Mempool {
	return &Mempool{
		books:  make(map[string]*orderbook.OrderBook),
		state:  st,
		traces: traces,
	}
}

func (m *Mempool) bookFor(pairID string) *orderbook.OrderBook {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[pairID]
	if !ok {
		b = orderbook.New(pairID)
		m.books[pairID] = b
	}
	return b
}

// PlaceOrder freezes the funds the order could consume, then admits it
// into the pair's book. A buy freezes amount*price of the quote token; a
// sell freezes amount of the base token. Matched traces produced during
// admission are pushed onto the trace buffer for the block builder to
// pick up; they are not settled here — settlement happens once per block,
// from the exact same trace slice, so the block's state root only ever
// reflects committed blocks.
func (m *Mempool) PlaceOrder(o *orderbook.Order, now int64) error {
	base, quote, err := pairid.Split(o.PairID)
	if err != nil {
		return err
	}
	o.BaseToken = base
	o.QuoteToken = quote

	switch o.Side {
	case orderbook.Buy:
		if o.Price != 0 && o.Amount > math.MaxUint64/o.Price {
			return fmt.Errorf("%w: %d * %d", xerrors.ErrOverflow, o.Amount, o.Price)
		}
		needed := o.Amount * o.Price
		if !m.state.Freeze(o.UserID, quote, needed) {
			return fmt.Errorf("%w: need %d %s", xerrors.ErrInsufficientBalance, needed, quote)
		}
	case orderbook.Sell:
		if !m.state.Freeze(o.UserID, base, o.Amount) {
			return fmt.Errorf("%w: need %d %s", xerrors.ErrInsufficientBalance, o.Amount, base)
		}
	}

	book := m.bookFor(o.PairID)
	traces := book.AddOrder(o, now)
	m.traces.Append(traces...)
	return nil
}

// CancelOrder marks an order cancelled and releases whatever of its
// original freeze has not yet been consumed by a fill. Because settlement
// always unfreezes exactly the filled portion, the amount still frozen at
// any moment is RemainingAmount()*Price (buy, quote) or RemainingAmount()
// (sell, base) — recomputed here rather than tracked separately.
func (m *Mempool) CancelOrder(pairID, orderID string, now int64) error {
	book := m.bookFor(pairID)
	o, err := book.Cancel(orderID, now)
	if err != nil {
		return err
	}

	switch o.Side {
	case orderbook.Buy:
		remaining := o.RemainingAmount() * o.Price
		if remaining > 0 {
			m.state.Unfreeze(o.UserID, o.QuoteToken, remaining)
		}
	case orderbook.Sell:
		remaining := o.RemainingAmount()
		if remaining > 0 {
			m.state.Unfreeze(o.UserID, o.BaseToken, remaining)
		}
	}
	return nil
}

// GetOrder looks up an order by pair and id.
func (m *Mempool) GetOrder(pairID, orderID string) *orderbook.Order {
	return m.bookFor(pairID).GetOrder(orderID)
}

// BestBidAsk returns the top of book for a pair.
func (m *Mempool) BestBidAsk(pairID string) (bid uint64, bidOK bool, ask uint64, askOK bool) {
	book := m.bookFor(pairID)
	bid, bidOK = book.BestBid()
	ask, askOK = book.BestAsk()
	return
}

// Deposit credits a user's free balance for a token, e.g. from a bridge.
func (m *Mempool) Deposit(user common.Address, token string, amount uint64) error {
	if !m.state.Add(user, token, amount) {
		return fmt.Errorf("%w: deposit overflow", xerrors.ErrOverflow)
	}
	return nil
}

// Withdraw debits a user's free balance for a token.
func (m *Mempool) Withdraw(user common.Address, token string, amount uint64) error {
	if !m.state.Sub(user, token, amount) {
		return fmt.Errorf("%w: withdraw", xerrors.ErrInsufficientBalance)
	}
	return nil
}
