// Package oracle is the deterministic re-execution path: given a starting
// state and an ordered run of blocks, it replays settlement exactly as the
// live block builder did and asserts the resulting roots match. It is pure
// — no wall-clock reads, no goroutines — so the same inputs always
// reproduce the same public-input hash, the quantity a prover ultimately
// commits to.
package oracle

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/zkclob/engine/pkg/block"
	"github.com/zkclob/engine/pkg/settle"
	"github.com/zkclob/engine/pkg/state"
	"github.com/zkclob/engine/pkg/xerrors"
)

// MaxProveBlocks caps a single replay span. A prover's circuit has a fixed
// trace budget; a request spanning more blocks must be split by the
// caller into multiple proofs.
const MaxProveBlocks = 4096

// Verify replays blocks in order against preState, mutating it in place, and
// returns the public-input hash sha3(prev_state_root || post_state_root ||
// da_hash), where prev_state_root and post_state_root are the recorded
// StateRoot of the first and last block respectively (not the caller's
// prevStateRoot, which is only asserted against the pre-state and never
// itself committed), and da_hash is sha3 of the concatenated per-block
// txns roots. It fails closed: any settlement error, or any block whose
// recorded roots don't match what replay computes, aborts the whole
// batch rather than returning a partial or best-effort result.
func Verify(preState *state.Store, prevStateRoot [32]byte, blocks []*block.Block) ([32]byte, error) {
	if len(blocks) == 0 {
		return [32]byte{}, fmt.Errorf("%w: empty block range", xerrors.ErrOracleAssertionFailed)
	}
	if len(blocks) > MaxProveBlocks {
		return [32]byte{}, fmt.Errorf("%w: %d blocks exceeds cap of %d", xerrors.ErrOracleCapExceeded, len(blocks), MaxProveBlocks)
	}

	if root, ok := preState.CalculateStateRoot(); ok && root != prevStateRoot {
		return [32]byte{}, fmt.Errorf("%w: pre-state root mismatch", xerrors.ErrOracleAssertionFailed)
	}

	daHash := sha3.New256()

	for i, blk := range blocks {
		if err := settle.Apply(preState, blk.Txns); err != nil {
			return [32]byte{}, fmt.Errorf("replay block %s: %w", blk.BlockNum, err)
		}

		txnsRoot, err := block.CalculateTxnsRoot(blk.Txns)
		if err != nil {
			return [32]byte{}, fmt.Errorf("recompute txns root for block %s: %w", blk.BlockNum, err)
		}
		if txnsRoot != blk.TxnsRoot {
			return [32]byte{}, fmt.Errorf("%w: txns root mismatch at block %s (index %d)", xerrors.ErrOracleAssertionFailed, blk.BlockNum, i)
		}

		postRoot, _ := preState.CalculateStateRoot()
		if postRoot != blk.StateRoot {
			return [32]byte{}, fmt.Errorf("%w: state root mismatch at block %s (index %d)", xerrors.ErrOracleAssertionFailed, blk.BlockNum, i)
		}

		daHash.Write(txnsRoot[:])
	}

	h := sha3.New256()
	h.Write(blocks[0].StateRoot[:])
	h.Write(blocks[len(blocks)-1].StateRoot[:])
	h.Write(daHash.Sum(nil))

	var pi [32]byte
	copy(pi[:], h.Sum(nil))
	return pi, nil
}
