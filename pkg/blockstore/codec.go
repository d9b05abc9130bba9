package blockstore

import (
	"bytes"
	"encoding/gob"

	"github.com/zkclob/engine/pkg/orderbook"
)

// envelope is the on-disk gob encoding of a block. BlockNum is stored as a
// plain byte slice rather than the block package's *uint256.Int so the
// codec has no dependency on that type's internals; the roots keep their
// [32]byte form, which gob encodes natively.
type envelope struct {
	BlockNum  []byte
	Txns      []orderbook.MatchedTrace
	TxnsRoot  [32]byte
	StateRoot [32]byte
}

func encodeGob(v envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(b []byte) (envelope, error) {
	var out envelope
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&out)
	return out, err
}
