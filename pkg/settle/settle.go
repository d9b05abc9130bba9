// Package settle applies matched traces to account balances. It is the one
// routine both the live block builder and the re-execution oracle call, so
// that a block replayed from its traces always lands on the same state
// root it was built with.
package settle

import (
	"fmt"

	"github.com/zkclob/engine/pkg/orderbook"
	"github.com/zkclob/engine/pkg/state"
	"github.com/zkclob/engine/pkg/xerrors"
)

// Apply settles every trace in order against store. Trade price is always
// the maker's (seller's) price. For the matched amount m:
//
//   - base: unfreeze m from the seller, transfer m seller -> buyer.
//   - quote: unfreeze m*buyPrice from the buyer (this always covers
//     m*tradePrice since tradePrice <= buyPrice for a crossed book), then
//     transfer m*tradePrice buyer -> seller. Any (buyPrice-tradePrice)*m
//     left over from the unfreeze lands back in the buyer's free balance,
//     refunding improved-price execution automatically.
//
// Traces are trusted: they were only ever produced by a matching engine
// that already checked balances at admission time. A settlement step that
// still fails indicates corrupted state and is reported, not silently
// skipped, so a bad block never produces a wrong root.
func Apply(store *state.Store, traces []orderbook.MatchedTrace) error {
	for i, tr := range traces {
		if err := applyOne(store, tr); err != nil {
			return fmt.Errorf("settle: trace %d (buy=%s sell=%s): %w", i, tr.BuyOrder.ID, tr.SellOrder.ID, err)
		}
	}
	return nil
}

func applyOne(store *state.Store, tr orderbook.MatchedTrace) error {
	buy := tr.BuyOrder
	sell := tr.SellOrder
	m := tr.MatchedAmount
	tradePrice := sell.Price

	base := buy.BaseToken
	quote := buy.QuoteToken

	if !store.Unfreeze(sell.UserID, base, m) {
		return fmt.Errorf("%w: seller base unfreeze", xerrors.ErrInsufficientBalance)
	}
	if !store.Sub(sell.UserID, base, m) {
		return fmt.Errorf("%w: seller base debit", xerrors.ErrInsufficientBalance)
	}
	if !store.Add(buy.UserID, base, m) {
		return fmt.Errorf("%w: buyer base credit overflow", xerrors.ErrOverflow)
	}

	quoteFrozen := m * buy.Price
	quoteOwed := m * tradePrice
	if !store.Unfreeze(buy.UserID, quote, quoteFrozen) {
		return fmt.Errorf("%w: buyer quote unfreeze", xerrors.ErrInsufficientBalance)
	}
	if !store.Sub(buy.UserID, quote, quoteOwed) {
		return fmt.Errorf("%w: buyer quote debit", xerrors.ErrInsufficientBalance)
	}
	if !store.Add(sell.UserID, quote, quoteOwed) {
		return fmt.Errorf("%w: seller quote credit overflow", xerrors.ErrOverflow)
	}

	return nil
}
