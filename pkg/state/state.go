// Package state holds per-user, per-token balances and commits them to a
// SHA3-256 Merkle root. The root is the state commitment both the live
// block builder and the re-execution oracle must reproduce bit-for-bit.
package state

import (
	"encoding/binary"
	"math"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Balance is a single user/token ledger entry. Free is spendable; Frozen is
// reserved against a resting order and released back to Free on cancel or
// moved to the counterparty on settlement.
type Balance struct {
	Free   uint64
	Frozen uint64
}

// Store is the account ledger. One Store backs one exchange instance; the
// block builder and the oracle each hold their own Store and must end up
// with identical roots after replaying the same blocks.
type Store struct {
	mu       sync.RWMutex
	balances map[common.Address]map[string]*Balance
}

func New() *Store {
	return &Store{
		balances: make(map[common.Address]map[string]*Balance),
	}
}

func (s *Store) entry(user common.Address, token string) *Balance {
	byToken, ok := s.balances[user]
	if !ok {
		byToken = make(map[string]*Balance)
		s.balances[user] = byToken
	}
	b, ok := byToken[token]
	if !ok {
		b = &Balance{}
		byToken[token] = b
	}
	return b
}

// GetBalance returns the free balance for user/token.
func (s *Store) GetBalance(user common.Address, token string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if byToken, ok := s.balances[user]; ok {
		if b, ok := byToken[token]; ok {
			return b.Free
		}
	}
	return 0
}

// GetFrozen returns the frozen balance for user/token.
func (s *Store) GetFrozen(user common.Address, token string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if byToken, ok := s.balances[user]; ok {
		if b, ok := byToken[token]; ok {
			return b.Frozen
		}
	}
	return 0
}

// Add credits the free balance. Returns false if it would overflow uint64,
// leaving the balance unchanged.
func (s *Store) Add(user common.Address, token string, amount uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.entry(user, token)
	if b.Free > math.MaxUint64-amount {
		return false
	}
	b.Free += amount
	return true
}

// Sub debits the free balance. Returns false (balance unchanged) if the
// free balance is insufficient.
func (s *Store) Sub(user common.Address, token string, amount uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.entry(user, token)
	if b.Free < amount {
		return false
	}
	b.Free -= amount
	return true
}

// Freeze moves amount from free to frozen. Returns false (unchanged) if the
// free balance is insufficient.
func (s *Store) Freeze(user common.Address, token string, amount uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.entry(user, token)
	if b.Free < amount {
		return false
	}
	b.Free -= amount
	b.Frozen += amount
	return true
}

// Unfreeze moves amount from frozen back to free. Returns false (unchanged)
// if the frozen balance is insufficient.
func (s *Store) Unfreeze(user common.Address, token string, amount uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.entry(user, token)
	if b.Frozen < amount {
		return false
	}
	b.Frozen -= amount
	b.Free += amount
	return true
}

// leaf deterministically encodes all of one user's balances for hashing:
// the length-prefixed address, then for each token in the given order the
// length-prefixed token symbol (lengths as 4-byte big-endian) followed by
// free and frozen as fixed 8-byte little-endian integers.
func leaf(user common.Address, tokens []string, byToken map[string]*Balance) []byte {
	addr := user.Bytes()

	buf := make([]byte, 0, 4+len(addr))

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(addr)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, addr...)

	var u64Buf [8]byte
	for _, token := range tokens {
		tok := []byte(token)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(tok)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, tok...)

		binary.LittleEndian.PutUint64(u64Buf[:], byToken[token].Free)
		buf = append(buf, u64Buf[:]...)
		binary.LittleEndian.PutUint64(u64Buf[:], byToken[token].Frozen)
		buf = append(buf, u64Buf[:]...)
	}

	return buf
}

// CalculateStateRoot hashes each user's balances into one leaf of a SHA3-256
// Merkle tree and returns the root. Leaves are sorted by user address bytes,
// and tokens within a leaf by symbol, for determinism across
// independently-built Stores holding the same balances. Returns
// (zero, false) for an empty store.
func (s *Store) CalculateStateRoot() ([32]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]common.Address, 0, len(s.balances))
	for u := range s.balances {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return string(users[i].Bytes()) < string(users[j].Bytes())
	})

	var leaves [][32]byte
	for _, u := range users {
		tokens := make([]string, 0, len(s.balances[u]))
		for tok := range s.balances[u] {
			tokens = append(tokens, tok)
		}
		sort.Strings(tokens)
		leaves = append(leaves, sha3.Sum256(leaf(u, tokens, s.balances[u])))
	}

	if len(leaves) == 0 {
		return [32]byte{}, false
	}
	return merkleRoot(leaves), true
}

// merkleRoot builds a bottom-up SHA3-256 tree over the given leaf hashes,
// duplicating the last node at any level with an odd count.
func merkleRoot(level [][32]byte) [32]byte {
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][32]byte, len(level)/2)
		for i := range next {
			var buf [64]byte
			copy(buf[:32], level[2*i][:])
			copy(buf[32:], level[2*i+1][:])
			next[i] = sha3.Sum256(buf[:])
		}
		level = next
	}
	return level[0]
}
