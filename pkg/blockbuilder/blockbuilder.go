// Package blockbuilder runs the batching loop that turns pending matched
// traces into durable, state-root-committed blocks.
package blockbuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/zkclob/engine/pkg/block"
	"github.com/zkclob/engine/pkg/blockstore"
	"github.com/zkclob/engine/pkg/settle"
	"github.com/zkclob/engine/pkg/state"
	"github.com/zkclob/engine/pkg/tracebuffer"
)

// Builder polls the trace buffer and cuts a block whenever the oldest
// pending trace has aged past MaxBlockAge, or MaxBatch traces have
// accumulated, whichever comes first.
type Builder struct {
	PollInterval time.Duration
	MaxBlockAge  time.Duration
	MaxBatch     int

	store  *state.Store
	traces *tracebuffer.Buffer
	chain  *blockstore.Store
	log    *zap.SugaredLogger

	nextBlockNum       *uint256.Int
	oldestPendingSince time.Time
}

func New(st *state.Store, traces *tracebuffer.Buffer, chain *blockstore.Store, log *zap.SugaredLogger, pollInterval, maxBlockAge time.Duration, maxBatch int) (*Builder, error) {
	next := uint256.NewInt(1)
	if latest, ok, err := chain.LatestBlockNum(); err != nil {
		return nil, fmt.Errorf("blockbuilder: read latest block num: %w", err)
	} else if ok {
		next = new(uint256.Int).AddUint64(latest, 1)
	}

	return &Builder{
		PollInterval: pollInterval,
		MaxBlockAge:  maxBlockAge,
		MaxBatch:     maxBatch,
		store:        st,
		traces:       traces,
		chain:        chain,
		log:          log,
		nextBlockNum: next,
	}, nil
}

// Run blocks until ctx is cancelled, cutting blocks on the timer/size
// trigger described above.
func (b *Builder) Run(ctx context.Context) {
	ticker := time.NewTicker(b.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Infow("blockbuilder_stopped")
			return
		case <-ticker.C:
			b.tick()
		}
	}
}

func (b *Builder) tick() {
	n := b.traces.Len()
	if n == 0 {
		b.oldestPendingSince = time.Time{}
		return
	}
	if b.oldestPendingSince.IsZero() {
		b.oldestPendingSince = time.Now()
	}

	aged := time.Since(b.oldestPendingSince) >= b.MaxBlockAge
	full := n >= b.MaxBatch
	if !aged && !full {
		return
	}

	if err := b.cutBlock(); err != nil {
		b.log.Errorw("cut_block_failed", "err", err)
		return
	}
	b.oldestPendingSince = time.Time{}
}

// cutBlock drains the trace buffer, settles it against state, computes the
// txns and state roots, and persists the block. Settlement here calls the
// exact routine the re-execution oracle calls, so a live block and its
// replay always land on the same state root.
func (b *Builder) cutBlock() error {
	traces := b.traces.DrainAll()
	if len(traces) == 0 {
		return nil
	}

	if err := settle.Apply(b.store, traces); err != nil {
		return fmt.Errorf("settle traces for block %s: %w", b.nextBlockNum, err)
	}

	txnsRoot, err := block.CalculateTxnsRoot(traces)
	if err != nil {
		return fmt.Errorf("compute txns root: %w", err)
	}
	stateRoot, _ := b.store.CalculateStateRoot()

	blk := &block.Block{
		BlockNum:  new(uint256.Int).Set(b.nextBlockNum),
		Txns:      traces,
		TxnsRoot:  txnsRoot,
		StateRoot: stateRoot,
	}
	if err := b.chain.SaveBlock(blk); err != nil {
		return fmt.Errorf("save block %s: %w", b.nextBlockNum, err)
	}

	b.log.Infow("block_built", "block_num", b.nextBlockNum.String(), "num_traces", len(traces))
	b.nextBlockNum = new(uint256.Int).AddUint64(b.nextBlockNum, 1)
	return nil
}
