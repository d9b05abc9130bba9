// Package blockstore is the durable, append-only block log backing the
// exchange. Blocks are addressed by block number and written with
// pebble.Sync so a committed block survives a crash.
package blockstore

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/holiman/uint256"

	"github.com/zkclob/engine/pkg/block"
	"github.com/zkclob/engine/pkg/xerrors"
)

// keys: blk:<16-byte-BE-blocknum> -> gob envelope, latest_block_num -> 16-byte-BE-blocknum
const keyLatest = "latest_block_num"

func kBlock(blockNum *uint256.Int) []byte {
	k := block.KeyBytes(blockNum)
	return append([]byte("blk:"), k[:]...)
}

type Store struct {
	db *pebble.DB
}

func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", xerrors.ErrBlockStoreIO, path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBlock durably writes b and advances the latest-block-number pointer.
// Sync'd so a crash between these two writes is safe to observe: the
// pointer only ever lags a saved block, never points past one.
func (s *Store) SaveBlock(b *block.Block) error {
	env := envelope{
		BlockNum:  b.BlockNum.Bytes(),
		Txns:      b.Txns,
		TxnsRoot:  b.TxnsRoot,
		StateRoot: b.StateRoot,
	}
	val, err := encodeGob(env)
	if err != nil {
		return fmt.Errorf("%w: encode block %s: %v", xerrors.ErrSerialisation, b.BlockNum, err)
	}
	if err := s.db.Set(kBlock(b.BlockNum), val, pebble.Sync); err != nil {
		return fmt.Errorf("%w: save block %s: %v", xerrors.ErrBlockStoreIO, b.BlockNum, err)
	}

	key := block.KeyBytes(b.BlockNum)
	if err := s.db.Set([]byte(keyLatest), key[:], pebble.Sync); err != nil {
		return fmt.Errorf("%w: advance latest pointer: %v", xerrors.ErrBlockStoreIO, err)
	}
	return nil
}

// GetBlock loads the block at blockNum. Returns (nil, false, nil) if absent.
func (s *Store) GetBlock(blockNum *uint256.Int) (*block.Block, bool, error) {
	val, closer, err := s.db.Get(kBlock(blockNum))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get block %s: %v", xerrors.ErrBlockStoreIO, blockNum, err)
	}
	defer closer.Close()

	env, err := decodeGob(val)
	if err != nil {
		return nil, false, fmt.Errorf("%w: decode block %s: %v", xerrors.ErrSerialisation, blockNum, err)
	}
	b := &block.Block{
		BlockNum:  new(uint256.Int).SetBytes(env.BlockNum),
		Txns:      env.Txns,
		TxnsRoot:  env.TxnsRoot,
		StateRoot: env.StateRoot,
	}
	return b, true, nil
}

// GetRange loads blocks [from, to], inclusive, in ascending order. Missing
// block numbers within the range are skipped rather than erroring, so a
// caller can request an optimistic upper bound.
func (s *Store) GetRange(from, to *uint256.Int) ([]*block.Block, error) {
	var out []*block.Block
	cur := new(uint256.Int).Set(from)
	one := uint256.NewInt(1)
	for cur.Cmp(to) <= 0 {
		b, ok, err := s.GetBlock(cur)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, b)
		}
		cur = new(uint256.Int).Add(cur, one)
	}
	return out, nil
}

// LatestBlockNum returns the most recently saved block number, or
// (nil, false, nil) if the store is empty.
func (s *Store) LatestBlockNum() (*uint256.Int, bool, error) {
	val, closer, err := s.db.Get([]byte(keyLatest))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get latest pointer: %v", xerrors.ErrBlockStoreIO, err)
	}
	defer closer.Close()

	var padded [32]byte
	copy(padded[16:], val)
	return new(uint256.Int).SetBytes32(padded[:]), true, nil
}
