package orderbook

import (
	"container/heap"
	"sync"

	"github.com/zkclob/engine/pkg/xerrors"
)

// OrderBook is the price-time priority matching engine for a single trading
// pair. One instance guards one buy heap, one sell heap, and the order map
// that backs both of them. Cancellation is lazy: Cancel flips Status and
// leaves the heap untouched; stale entries are skipped lazily on pop.
type OrderBook struct {
	mu sync.Mutex

	pairID string

	bids buyHeap
	asks sellHeap

	orders map[string]*Order
}

func New(pairID string) *OrderBook {
	return &OrderBook{
		pairID: pairID,
		orders: make(map[string]*Order),
	}
}

// GetOrder returns the order by id, or nil if unknown.
func (b *OrderBook) GetOrder(id string) *Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return nil
	}
	clone := o.Clone()
	return &clone
}

// Cancel marks an order Cancelled in place, without touching its heap.
// Returns xerrors.ErrOrderNotFound or xerrors.ErrAlreadyCancelled.
func (b *OrderBook) Cancel(id string, now int64) (*Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return nil, xerrors.ErrOrderNotFound
	}
	if o.Status == Cancelled {
		return nil, xerrors.ErrAlreadyCancelled
	}
	o.Status = Cancelled
	o.UpdatedAt = now
	clone := o.Clone()
	return &clone, nil
}

// AddOrder admits a new order into the book and runs it against the
// opposite side until it rests, fills, or exhausts the opposite book.
// now is the wall-clock second used for CreatedAt/UpdatedAt stamps.
// Returns the matched traces produced, in match order.
func (b *OrderBook) AddOrder(o *Order, now int64) []MatchedTrace {
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == 0 {
		o.Status = Pending
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.orders[o.ID] = o

	var traces []MatchedTrace
	if o.Side == Buy {
		traces = b.matchBuy(o, now)
		if o.RemainingAmount() > 0 {
			heap.Push(&b.bids, entry{order: o})
		}
	} else {
		traces = b.matchSell(o, now)
		if o.RemainingAmount() > 0 {
			heap.Push(&b.asks, entry{order: o})
		}
	}
	return traces
}

func (b *OrderBook) matchBuy(taker *Order, now int64) []MatchedTrace {
	var traces []MatchedTrace
	for taker.RemainingAmount() > 0 {
		maker := b.peekAsk()
		if maker == nil {
			break
		}
		if maker.Price > taker.Price {
			break
		}

		amount := taker.RemainingAmount()
		if r := maker.RemainingAmount(); r < amount {
			amount = r
		}

		maker.Fill(amount, now)
		taker.Fill(amount, now)

		traces = append(traces, MatchedTrace{
			BuyOrder:      taker.Clone(),
			SellOrder:     maker.Clone(),
			MatchedAmount: amount,
		})

		if maker.RemainingAmount() == 0 {
			heap.Pop(&b.asks)
		}
	}
	return traces
}

func (b *OrderBook) matchSell(taker *Order, now int64) []MatchedTrace {
	var traces []MatchedTrace
	for taker.RemainingAmount() > 0 {
		maker := b.peekBid()
		if maker == nil {
			break
		}
		if maker.Price < taker.Price {
			break
		}

		amount := taker.RemainingAmount()
		if r := maker.RemainingAmount(); r < amount {
			amount = r
		}

		maker.Fill(amount, now)
		taker.Fill(amount, now)

		traces = append(traces, MatchedTrace{
			BuyOrder:      maker.Clone(),
			SellOrder:     taker.Clone(),
			MatchedAmount: amount,
		})

		if maker.RemainingAmount() == 0 {
			heap.Pop(&b.bids)
		}
	}
	return traces
}

// peekAsk returns the best resting ask, skipping (and popping) any
// cancelled or fully-filled entries left behind by lazy cancellation.
func (b *OrderBook) peekAsk() *Order {
	for b.asks.Len() > 0 {
		top := b.asks[0].order
		if top.Status == Cancelled || top.RemainingAmount() == 0 {
			heap.Pop(&b.asks)
			continue
		}
		return top
	}
	return nil
}

func (b *OrderBook) peekBid() *Order {
	for b.bids.Len() > 0 {
		top := b.bids[0].order
		if top.Status == Cancelled || top.RemainingAmount() == 0 {
			heap.Pop(&b.bids)
			continue
		}
		return top
	}
	return nil
}

// BestBid returns the highest live resting buy price and true, or false if
// the bid side is empty.
func (b *OrderBook) BestBid() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.peekBid()
	if o == nil {
		return 0, false
	}
	return o.Price, true
}

// BestAsk returns the lowest live resting sell price and true, or false if
// the ask side is empty.
func (b *OrderBook) BestAsk() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.peekAsk()
	if o == nil {
		return 0, false
	}
	return o.Price, true
}

// PairID returns the trading pair this book serves.
func (b *OrderBook) PairID() string {
	return b.pairID
}
