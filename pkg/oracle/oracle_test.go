package oracle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/zkclob/engine/pkg/block"
	"github.com/zkclob/engine/pkg/orderbook"
	"github.com/zkclob/engine/pkg/settle"
	"github.com/zkclob/engine/pkg/state"
)

var (
	buyer  = common.BytesToAddress([]byte{1})
	seller = common.BytesToAddress([]byte{2})
)

func fundedState(t *testing.T) *state.Store {
	t.Helper()
	s := state.New()
	s.Add(buyer, "USDC", 1000)
	s.Freeze(buyer, "USDC", 1000)
	s.Add(seller, "ETH", 10)
	s.Freeze(seller, "ETH", 10)
	return s
}

func buildBlock(t *testing.T, s *state.Store, num uint64) *block.Block {
	t.Helper()
	tr := orderbook.MatchedTrace{
		BuyOrder:      orderbook.Order{UserID: buyer, BaseToken: "ETH", QuoteToken: "USDC", Price: 100, Amount: 10, FilledAmount: 10},
		SellOrder:     orderbook.Order{UserID: seller, BaseToken: "ETH", QuoteToken: "USDC", Price: 100, Amount: 10, FilledAmount: 10},
		MatchedAmount: 10,
	}
	txns := []orderbook.MatchedTrace{tr}

	if err := settle.Apply(s, txns); err != nil {
		t.Fatalf("settle: %v", err)
	}
	txnsRoot, err := block.CalculateTxnsRoot(txns)
	if err != nil {
		t.Fatalf("txns root: %v", err)
	}
	stateRoot, _ := s.CalculateStateRoot()

	return &block.Block{
		BlockNum:  uint256.NewInt(num),
		Txns:      txns,
		TxnsRoot:  txnsRoot,
		StateRoot: stateRoot,
	}
}

func TestVerifyReplaysToMatchingRoot(t *testing.T) {
	live := fundedState(t)
	prevRoot, _ := live.CalculateStateRoot()
	blk := buildBlock(t, live, 1)

	replay := fundedState(t)
	pi, err := Verify(replay, prevRoot, []*block.Block{blk})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pi == ([32]byte{}) {
		t.Fatal("expected non-zero public input hash")
	}

	replayRoot, _ := replay.CalculateStateRoot()
	if replayRoot != blk.StateRoot {
		t.Fatal("expected replayed state root to match block's recorded root")
	}
}

func TestVerifyDetectsStateRootMismatch(t *testing.T) {
	live := fundedState(t)
	prevRoot, _ := live.CalculateStateRoot()
	blk := buildBlock(t, live, 1)
	blk.StateRoot[0] ^= 0xFF // corrupt

	replay := fundedState(t)
	if _, err := Verify(replay, prevRoot, []*block.Block{blk}); err == nil {
		t.Fatal("expected state root mismatch to be detected")
	}
}

func TestVerifyDetectsTxnsRootMismatch(t *testing.T) {
	live := fundedState(t)
	prevRoot, _ := live.CalculateStateRoot()
	blk := buildBlock(t, live, 1)
	blk.TxnsRoot[0] ^= 0xFF

	replay := fundedState(t)
	if _, err := Verify(replay, prevRoot, []*block.Block{blk}); err == nil {
		t.Fatal("expected txns root mismatch to be detected")
	}
}

func TestVerifyRejectsEmptyRange(t *testing.T) {
	replay := fundedState(t)
	var zero [32]byte
	if _, err := Verify(replay, zero, nil); err == nil {
		t.Fatal("expected error for empty block range")
	}
}

func TestVerifyRejectsOverCap(t *testing.T) {
	replay := fundedState(t)
	blocks := make([]*block.Block, MaxProveBlocks+1)
	var zero [32]byte
	if _, err := Verify(replay, zero, blocks); err == nil {
		t.Fatal("expected error for over-cap replay span")
	}
}
