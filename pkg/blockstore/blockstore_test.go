package blockstore

import (
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/zkclob/engine/pkg/block"
	"github.com/zkclob/engine/pkg/orderbook"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "blocks"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetBlock(t *testing.T) {
	s := openTestStore(t)

	b := &block.Block{
		BlockNum: uint256.NewInt(1),
		Txns: []orderbook.MatchedTrace{
			{MatchedAmount: 10},
		},
		TxnsRoot:  [32]byte{1, 2, 3},
		StateRoot: [32]byte{4, 5, 6},
	}
	if err := s.SaveBlock(b); err != nil {
		t.Fatalf("SaveBlock: %v", err)
	}

	got, ok, err := s.GetBlock(uint256.NewInt(1))
	if err != nil || !ok {
		t.Fatalf("GetBlock: ok=%v err=%v", ok, err)
	}
	if got.BlockNum.Cmp(b.BlockNum) != 0 {
		t.Fatalf("block num mismatch: %s vs %s", got.BlockNum, b.BlockNum)
	}
	if got.TxnsRoot != b.TxnsRoot || got.StateRoot != b.StateRoot {
		t.Fatal("roots did not round-trip")
	}
	if len(got.Txns) != 1 || got.Txns[0].MatchedAmount != 10 {
		t.Fatalf("txns did not round-trip: %+v", got.Txns)
	}
}

func TestGetBlockMissing(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.GetBlock(uint256.NewInt(99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected missing block")
	}
}

func TestLatestBlockNumAdvances(t *testing.T) {
	s := openTestStore(t)

	if _, ok, _ := s.LatestBlockNum(); ok {
		t.Fatal("expected empty store to report no latest block")
	}

	s.SaveBlock(&block.Block{BlockNum: uint256.NewInt(1), StateRoot: [32]byte{1}})
	s.SaveBlock(&block.Block{BlockNum: uint256.NewInt(2), StateRoot: [32]byte{2}})

	latest, ok, err := s.LatestBlockNum()
	if err != nil || !ok {
		t.Fatalf("LatestBlockNum: ok=%v err=%v", ok, err)
	}
	if latest.Cmp(uint256.NewInt(2)) != 0 {
		t.Fatalf("expected latest 2, got %s", latest)
	}
}

func TestGetRangeSkipsMissing(t *testing.T) {
	s := openTestStore(t)
	s.SaveBlock(&block.Block{BlockNum: uint256.NewInt(1), StateRoot: [32]byte{1}})
	s.SaveBlock(&block.Block{BlockNum: uint256.NewInt(3), StateRoot: [32]byte{3}})

	blocks, err := s.GetRange(uint256.NewInt(1), uint256.NewInt(3))
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks (1 and 3), got %d", len(blocks))
	}
}
