package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	alice = common.BytesToAddress([]byte{1})
	bob   = common.BytesToAddress([]byte{2})
)

func TestAddSub(t *testing.T) {
	s := New()
	if !s.Add(alice, "USDC", 100) {
		t.Fatal("expected Add to succeed")
	}
	if got := s.GetBalance(alice, "USDC"); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if !s.Sub(alice, "USDC", 40) {
		t.Fatal("expected Sub to succeed")
	}
	if got := s.GetBalance(alice, "USDC"); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	if s.Sub(alice, "USDC", 1000) {
		t.Fatal("expected Sub of more than balance to fail")
	}
}

func TestFreezeUnfreeze(t *testing.T) {
	s := New()
	s.Add(alice, "USDC", 100)

	if !s.Freeze(alice, "USDC", 60) {
		t.Fatal("expected Freeze to succeed")
	}
	if got := s.GetBalance(alice, "USDC"); got != 40 {
		t.Fatalf("expected free 40, got %d", got)
	}
	if got := s.GetFrozen(alice, "USDC"); got != 60 {
		t.Fatalf("expected frozen 60, got %d", got)
	}
	if s.Freeze(alice, "USDC", 1000) {
		t.Fatal("expected Freeze beyond free balance to fail")
	}

	if !s.Unfreeze(alice, "USDC", 20) {
		t.Fatal("expected Unfreeze to succeed")
	}
	if got := s.GetBalance(alice, "USDC"); got != 60 {
		t.Fatalf("expected free 60 after unfreeze, got %d", got)
	}
	if got := s.GetFrozen(alice, "USDC"); got != 40 {
		t.Fatalf("expected frozen 40 after unfreeze, got %d", got)
	}
	if s.Unfreeze(alice, "USDC", 1000) {
		t.Fatal("expected Unfreeze beyond frozen balance to fail")
	}
}

func TestStateRootDeterministicAndOrderIndependent(t *testing.T) {
	s1 := New()
	s1.Add(alice, "USDC", 100)
	s1.Add(bob, "ETH", 5)

	s2 := New()
	s2.Add(bob, "ETH", 5)
	s2.Add(alice, "USDC", 100)

	r1, ok1 := s1.CalculateStateRoot()
	r2, ok2 := s2.CalculateStateRoot()
	if !ok1 || !ok2 {
		t.Fatal("expected non-empty root")
	}
	if r1 != r2 {
		t.Fatal("expected identical roots regardless of insertion order")
	}
}

func TestStateRootChangesWithBalance(t *testing.T) {
	s := New()
	s.Add(alice, "USDC", 100)
	r1, _ := s.CalculateStateRoot()

	s.Add(alice, "USDC", 1)
	r2, _ := s.CalculateStateRoot()

	if r1 == r2 {
		t.Fatal("expected root to change after balance mutation")
	}
}

func TestEmptyStateRoot(t *testing.T) {
	s := New()
	if _, ok := s.CalculateStateRoot(); ok {
		t.Fatal("expected empty store to report no root")
	}
}
