// Package block defines the committed unit of the exchange: a batch of
// matched traces plus the roots that commit to them and to the resulting
// account state.
package block

import (
	"encoding/json"

	"github.com/holiman/uint256"
	"github.com/zkclob/engine/pkg/orderbook"
	"golang.org/x/crypto/sha3"
)

// Block is one committed batch. BlockNum is a uint256 because Go has no
// native 128-bit integer; it is compacted to its low 16 bytes wherever it
// is used as a storage key.
type Block struct {
	BlockNum  *uint256.Int             `json:"block_num"`
	Txns      []orderbook.MatchedTrace `json:"txns"`
	TxnsRoot  [32]byte                 `json:"txns_root"`
	StateRoot [32]byte                 `json:"state_root"`
}

// CalculateTxnsRoot hashes the canonical JSON encoding of each trace, in
// order, into a single SHA3-256 digest over the concatenation. This is not
// a Merkle tree: trace order is part of the commitment, so a flat running
// hash over the ordered encodings is sufficient and matches how the traces
// are replayed (in order, never addressed individually).
func CalculateTxnsRoot(txns []orderbook.MatchedTrace) ([32]byte, error) {
	h := sha3.New256()
	for _, tx := range txns {
		b, err := json.Marshal(tx)
		if err != nil {
			return [32]byte{}, err
		}
		h.Write(b)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// KeyBytes returns the 16-byte big-endian key used to address this block
// number in the durable block store.
func KeyBytes(blockNum *uint256.Int) [16]byte {
	full := blockNum.Bytes32()
	var out [16]byte
	copy(out[:], full[16:32])
	return out
}
