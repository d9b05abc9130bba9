package mempool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zkclob/engine/pkg/orderbook"
	"github.com/zkclob/engine/pkg/state"
	"github.com/zkclob/engine/pkg/tracebuffer"
)

var (
	alice = common.BytesToAddress([]byte{1})
	bob   = common.BytesToAddress([]byte{2})
)

func newTestMempool() (*Mempool, *state.Store, *tracebuffer.Buffer) {
	st := state.New()
	tb := tracebuffer.New()
	return New(st, tb), st, tb
}

func TestPlaceOrderFreezesQuoteForBuy(t *testing.T) {
	m, st, _ := newTestMempool()
	st.Add(alice, "USDC", 1000)

	o := &orderbook.Order{ID: "o1", UserID: alice, PairID: "ETH_USDC", Side: orderbook.Buy, Amount: 5, Price: 100}
	if err := m.PlaceOrder(o, 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := st.GetBalance(alice, "USDC"); got != 500 {
		t.Fatalf("expected 500 free USDC remaining, got %d", got)
	}
	if got := st.GetFrozen(alice, "USDC"); got != 500 {
		t.Fatalf("expected 500 frozen USDC, got %d", got)
	}
}

func TestPlaceOrderInsufficientBalance(t *testing.T) {
	m, _, _ := newTestMempool()
	o := &orderbook.Order{ID: "o1", UserID: alice, PairID: "ETH_USDC", Side: orderbook.Buy, Amount: 5, Price: 100}
	if err := m.PlaceOrder(o, 1000); err == nil {
		t.Fatal("expected insufficient balance error")
	}
}

func TestPlaceOrderMatchProducesTrace(t *testing.T) {
	m, st, tb := newTestMempool()
	st.Add(alice, "ETH", 10)
	st.Add(bob, "USDC", 1000)

	sell := &orderbook.Order{ID: "s1", UserID: alice, PairID: "ETH_USDC", Side: orderbook.Sell, Amount: 10, Price: 100}
	if err := m.PlaceOrder(sell, 1000); err != nil {
		t.Fatalf("place sell: %v", err)
	}
	buy := &orderbook.Order{ID: "b1", UserID: bob, PairID: "ETH_USDC", Side: orderbook.Buy, Amount: 10, Price: 100}
	if err := m.PlaceOrder(buy, 1001); err != nil {
		t.Fatalf("place buy: %v", err)
	}

	if tb.Len() != 1 {
		t.Fatalf("expected 1 trace in buffer, got %d", tb.Len())
	}
}

func TestCancelOrderUnfreezesRemainder(t *testing.T) {
	m, st, _ := newTestMempool()
	st.Add(alice, "USDC", 1000)

	o := &orderbook.Order{ID: "o1", UserID: alice, PairID: "ETH_USDC", Side: orderbook.Buy, Amount: 5, Price: 100}
	if err := m.PlaceOrder(o, 1000); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := m.CancelOrder("ETH_USDC", "o1", 1001); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := st.GetBalance(alice, "USDC"); got != 1000 {
		t.Fatalf("expected full balance restored, got %d", got)
	}
	if got := st.GetFrozen(alice, "USDC"); got != 0 {
		t.Fatalf("expected no frozen balance left, got %d", got)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	m, _, _ := newTestMempool()
	if err := m.CancelOrder("ETH_USDC", "nope", 1000); err == nil {
		t.Fatal("expected error for unknown order")
	}
}

func TestDepositWithdraw(t *testing.T) {
	m, st, _ := newTestMempool()
	if err := m.Deposit(alice, "USDC", 500); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := st.GetBalance(alice, "USDC"); got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}
	if err := m.Withdraw(alice, "USDC", 200); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := st.GetBalance(alice, "USDC"); got != 300 {
		t.Fatalf("expected 300, got %d", got)
	}
	if err := m.Withdraw(alice, "USDC", 10000); err == nil {
		t.Fatal("expected insufficient balance error")
	}
}
