// Package exchange wires the mempool, trace buffer, state store and block
// builder into the single entry point the control surface talks to.
package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/zkclob/engine/pkg/blockbuilder"
	"github.com/zkclob/engine/pkg/blockstore"
	"github.com/zkclob/engine/pkg/mempool"
	"github.com/zkclob/engine/pkg/orderbook"
	"github.com/zkclob/engine/pkg/state"
	"github.com/zkclob/engine/pkg/tracebuffer"
	"github.com/zkclob/engine/params"
)

// Exchange is the process-level handle: one state store, one mempool
// dispatching into per-pair order books, one trace buffer, and the
// block-builder loop draining it into the durable chain.
type Exchange struct {
	State   *state.Store
	Mempool *mempool.Mempool
	Chain   *blockstore.Store
	Builder *blockbuilder.Builder

	log *zap.SugaredLogger
}

// New opens the block store at cfg.Node.DataDir and wires the rest of the
// stack on top of it. Callers must call Run to start the block-builder
// loop and Close to release the block store.
func New(cfg params.Config, log *zap.SugaredLogger) (*Exchange, error) {
	chain, err := blockstore.Open(cfg.Node.DataDir)
	if err != nil {
		return nil, fmt.Errorf("exchange: open block store: %w", err)
	}

	st := state.New()
	traces := tracebuffer.New()
	mp := mempool.New(st, traces)

	builder, err := blockbuilder.New(st, traces, chain, log, cfg.Builder.PollInterval, cfg.Builder.MaxBlockAge, cfg.Builder.MaxBatch)
	if err != nil {
		chain.Close()
		return nil, fmt.Errorf("exchange: init block builder: %w", err)
	}

	return &Exchange{
		State:   st,
		Mempool: mp,
		Chain:   chain,
		Builder: builder,
		log:     log,
	}, nil
}

// Run starts the block-builder loop and blocks until ctx is cancelled.
func (e *Exchange) Run(ctx context.Context) {
	e.log.Infow("exchange_started")
	e.Builder.Run(ctx)
}

// Close releases the underlying block store.
func (e *Exchange) Close() error {
	return e.Chain.Close()
}

// Deposit credits a user's free balance.
func (e *Exchange) Deposit(user common.Address, token string, amount uint64) error {
	return e.Mempool.Deposit(user, token, amount)
}

// Withdraw debits a user's free balance.
func (e *Exchange) Withdraw(user common.Address, token string, amount uint64) error {
	return e.Mempool.Withdraw(user, token, amount)
}

// PlaceOrder admits a new order, stamping its admission time from the
// wall clock.
func (e *Exchange) PlaceOrder(o *orderbook.Order) error {
	return e.Mempool.PlaceOrder(o, time.Now().Unix())
}

// CancelOrder cancels a resting order and unfreezes its remainder.
func (e *Exchange) CancelOrder(pairID, orderID string) error {
	return e.Mempool.CancelOrder(pairID, orderID, time.Now().Unix())
}

// GetOrder looks up an order by pair and id.
func (e *Exchange) GetOrder(pairID, orderID string) *orderbook.Order {
	return e.Mempool.GetOrder(pairID, orderID)
}

// GetOrderbook returns the best bid/ask for a pair.
func (e *Exchange) GetOrderbook(pairID string) (bid uint64, bidOK bool, ask uint64, askOK bool) {
	return e.Mempool.BestBidAsk(pairID)
}

// GetBalance returns a user's free and frozen balance for a token.
func (e *Exchange) GetBalance(user common.Address, token string) (free, frozen uint64) {
	return e.State.GetBalance(user, token), e.State.GetFrozen(user, token)
}
