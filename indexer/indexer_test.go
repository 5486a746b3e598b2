package indexer

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/require"

	"github.com/dotlake/treasuryd/chain"
	"github.com/dotlake/treasuryd/runtime"
	"github.com/dotlake/treasuryd/state"
)

const bareValueV0Hash = "47b59f698451e50cce59979f0121e842fa3f8b2bcef2e388222dbd69849514f9"

// stubSource hands out pre-built batches, one per Next call.
type stubSource struct {
	batches []*chain.Batch
}

func (s *stubSource) Next(ctx context.Context, from uint64) (*chain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func u128le(v int64) []byte {
	out := make([]byte, 16)
	raw := big.NewInt(v).Bytes()
	for i, b := range raw {
		out[len(raw)-1-i] = b
	}
	return out
}

func balanceBlock(height uint64, eventID, name string, amount int64) chain.Block {
	return chain.Block{
		Height: height,
		Time:   time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(height) * 6 * time.Second),
		Items: []chain.Item{{Event: &chain.EventRecord{
			ID: eventID, Name: name, Hash: bareValueV0Hash, Data: u128le(amount),
		}}},
	}
}

func newTestIndexer(t *testing.T, source chain.Source) (*Indexer, *state.StateDB) {
	t.Helper()
	logger := cmtlog.NewNopLogger()
	stateDB, err := state.NewMemStateDB(logger)
	require.NoError(t, err)
	t.Cleanup(func() { stateDB.Close() })

	ix, err := NewIndexer(logger, filepath.Join(t.TempDir(), "index.db"), source, stateDB, 0)
	require.NoError(t, err)
	t.Cleanup(func() { ix.db.Close() })
	return ix, stateDB
}

func TestIndexerReplaysDump(t *testing.T) {
	source := &stubSource{batches: []*chain.Batch{
		{Blocks: []chain.Block{
			balanceBlock(1, "1-0", chain.EventDepositName, 100),
			balanceBlock(2, "2-0", chain.EventBurntName, 30),
		}},
		{Blocks: []chain.Block{
			balanceBlock(5, "5-0", chain.EventDepositName, 7),
		}},
	}}
	ix, stateDB := newTestIndexer(t, source)

	require.NoError(t, ix.Start(context.Background()))
	require.Equal(t, uint64(5), ix.Height())

	h, err := stateDB.State().Height()
	require.NoError(t, err)
	require.Equal(t, uint64(5), h)

	tr, err := ix.getTreasury()
	require.NoError(t, err)
	require.Equal(t, "77", tr.Balance)

	hbs, total, err := ix.getHistoricalBalances(0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(3), total)
	require.Equal(t, "100", hbs[0].Balance)
	require.Equal(t, "70", hbs[1].Balance)
	require.Equal(t, "77", hbs[2].Balance)

	var height Height
	require.NoError(t, ix.db.First(&height, "id = ?", 1).Error)
	require.Equal(t, uint64(5), height.Height)
}

func TestIndexerRollsBackFailedBatch(t *testing.T) {
	bad := balanceBlock(3, "3-0", chain.EventDepositName, 1)
	bad.Items[0].Event.Hash = "deadbeef"

	source := &stubSource{batches: []*chain.Batch{
		{Blocks: []chain.Block{balanceBlock(1, "1-0", chain.EventDepositName, 100)}},
		{Blocks: []chain.Block{
			balanceBlock(2, "2-0", chain.EventDepositName, 50),
			bad,
		}},
	}}
	ix, stateDB := newTestIndexer(t, source)

	err := ix.Start(context.Background())
	require.ErrorIs(t, err, runtime.ErrUnknownSchemaVersion)

	// The failed batch left no trace; the first one is intact.
	require.Equal(t, uint64(1), ix.Height())
	tr, err1 := stateDB.State().Treasury().Get()
	require.NoError(t, err1)
	require.Zero(t, big.NewInt(100).Cmp(tr.Balance))
}

func TestIndexerResumesFromCommittedHeight(t *testing.T) {
	logger := cmtlog.NewNopLogger()
	stateDB, err := state.NewMemStateDB(logger)
	require.NoError(t, err)
	t.Cleanup(func() { stateDB.Close() })
	dbPath := filepath.Join(t.TempDir(), "index.db")

	source := &stubSource{batches: []*chain.Batch{
		{Blocks: []chain.Block{balanceBlock(7, "7-0", chain.EventDepositName, 10)}},
	}}
	ix, err := NewIndexer(logger, dbPath, source, stateDB, 0)
	require.NoError(t, err)
	require.NoError(t, ix.Start(context.Background()))
	require.NoError(t, ix.db.Close())

	// A fresh indexer over the same tree picks up where the last run stopped.
	ix2, err := NewIndexer(logger, dbPath, &stubSource{}, stateDB, 0)
	require.NoError(t, err)
	t.Cleanup(func() { ix2.db.Close() })
	require.Equal(t, uint64(7), ix2.Height())
}

func TestIndexerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix, _ := newTestIndexer(t, &stubSource{batches: []*chain.Batch{
		{Blocks: []chain.Block{balanceBlock(1, "1-0", chain.EventDepositName, 1)}},
	}})
	require.NoError(t, ix.Start(ctx))
	require.Zero(t, ix.Height())
}
