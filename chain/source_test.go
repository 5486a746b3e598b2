package chain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/require"
)

func writeDump(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocks.jsonl")
	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFileSourceReplay(t *testing.T) {
	path := writeDump(t,
		`{"height":1,"hash":"0xaa","timestamp":1622505600000,"items":[{"kind":"event","id":"1-0","name":"treasury.Deposit","spec":"ff","data":"0x0100000000000000000000000000000000"}]}`,
		`{"height":2,"hash":"0xbb","timestamp":1622505606000,"items":[]}`,
		`{"height":3,"hash":"0xcc","timestamp":1622505612000,"items":[{"kind":"call","id":"3-1","name":"treasury.approve_proposal","spec":"ee","data":"0x04"}]}`,
	)
	src, err := NewFileSource(cmtlog.NewNopLogger(), path, 2)
	require.NoError(t, err)

	batch, err := src.Next(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, batch.Blocks, 2)
	require.Equal(t, uint64(1), batch.Blocks[0].Height)
	require.Equal(t, time.UnixMilli(1622505600000).UTC(), batch.Blocks[0].Time)
	require.Len(t, batch.Blocks[0].Items, 1)
	require.NotNil(t, batch.Blocks[0].Items[0].Event)
	require.Equal(t, "treasury.Deposit", batch.Blocks[0].Items[0].Event.Name)

	batch, err = src.Next(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, batch.Blocks, 1)
	require.NotNil(t, batch.Blocks[0].Items[0].Call)

	batch, err = src.Next(context.Background(), 4)
	require.NoError(t, err)
	require.Nil(t, batch)
}

func TestFileSourceSkipsBelowFrom(t *testing.T) {
	path := writeDump(t,
		`{"height":1,"hash":"0xaa","timestamp":1,"items":[]}`,
		`{"height":2,"hash":"0xbb","timestamp":2,"items":[]}`,
		`{"height":3,"hash":"0xcc","timestamp":3,"items":[]}`,
	)
	src, err := NewFileSource(cmtlog.NewNopLogger(), path, 10)
	require.NoError(t, err)

	batch, err := src.Next(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, batch.Blocks, 1)
	require.Equal(t, uint64(3), batch.Blocks[0].Height)
}

func TestFileSourceCorrelatedCall(t *testing.T) {
	path := writeDump(t,
		`{"height":9,"hash":"0xaa","timestamp":9,"items":[{"kind":"event","id":"9-0","name":"treasury.Proposed","spec":"ff","data":"0x07000000","call":{"id":"9-2","name":"treasury.propose_spend","spec":"ee","data":"0x0401"}}]}`,
	)
	src, err := NewFileSource(cmtlog.NewNopLogger(), path, 1)
	require.NoError(t, err)

	batch, err := src.Next(context.Background(), 1)
	require.NoError(t, err)
	ev := batch.Blocks[0].Items[0].Event
	require.NotNil(t, ev.Call)
	require.Equal(t, "treasury.propose_spend", ev.Call.Name)
	require.Equal(t, []byte{0x04, 0x01}, ev.Call.Data)
}

func TestFileSourceBadPayload(t *testing.T) {
	path := writeDump(t,
		`{"height":1,"hash":"0xaa","timestamp":1,"items":[{"kind":"event","id":"1-0","name":"treasury.Deposit","spec":"ff","data":"zz"}]}`,
	)
	_, err := NewFileSource(cmtlog.NewNopLogger(), path, 1)
	require.Error(t, err)
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := NewFileSource(cmtlog.NewNopLogger(), filepath.Join(t.TempDir(), "nope.jsonl"), 1)
	require.Error(t, err)
}

func TestFileSourceCanceledContext(t *testing.T) {
	path := writeDump(t, `{"height":1,"hash":"0xaa","timestamp":1,"items":[]}`)
	src, err := NewFileSource(cmtlog.NewNopLogger(), path, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}
