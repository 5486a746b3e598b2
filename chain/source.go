package chain

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Source yields batches of blocks at or above the given height, in ascending
// order. A nil batch with nil error means the stream is exhausted.
type Source interface {
	Next(ctx context.Context, from uint64) (*Batch, error)
}

// blockLine is the on-disk shape of one block in a dump file: one JSON object
// per line, payloads hex encoded the way the archive serves them.
type blockLine struct {
	Height uint64     `json:"height"`
	Hash   string     `json:"hash"`
	Time   int64      `json:"timestamp"`
	Items  []itemLine `json:"items"`
}

type itemLine struct {
	Kind string    `json:"kind"` // "event" or "call"
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Spec string    `json:"spec"` // metadata fingerprint
	Data string    `json:"data"` // 0x-prefixed payload
	Call *itemLine `json:"call,omitempty"`
}

// FileSource replays a block dump from disk. It exists for offline runs and
// fixtures; the live archive client satisfies the same Source interface.
type FileSource struct {
	logger    cmtlog.Logger
	path      string
	batchSize int

	blocks []Block
	pos    int
}

func NewFileSource(logger cmtlog.Logger, path string, batchSize int) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &FileSource{
		logger:    logger.With("module", "source"),
		path:      path,
		batchSize: batchSize,
	}
	rd := bufio.NewReader(f)
	for {
		line, err := rd.ReadBytes('\n')
		if len(line) > 1 {
			var bl blockLine
			if err1 := json.Unmarshal(line, &bl); err1 != nil {
				return nil, err1
			}
			blk, err1 := bl.toBlock()
			if err1 != nil {
				return nil, err1
			}
			s.blocks = append(s.blocks, blk)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	s.logger.Info("loaded block dump", "path", path, "blocks", len(s.blocks))
	return s, nil
}

func (s *FileSource) Next(ctx context.Context, from uint64) (batch *Batch, err error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	for s.pos < len(s.blocks) && s.blocks[s.pos].Height < from {
		s.pos++
	}
	if s.pos >= len(s.blocks) {
		return nil, nil
	}
	end := s.pos + s.batchSize
	if end > len(s.blocks) {
		end = len(s.blocks)
	}
	batch = &Batch{Blocks: s.blocks[s.pos:end]}
	s.pos = end
	return batch, nil
}

func (bl *blockLine) toBlock() (blk Block, err error) {
	blk.Height = bl.Height
	blk.Hash = common.HexToHash(bl.Hash)
	blk.Time = time.UnixMilli(bl.Time).UTC()
	for _, it := range bl.Items {
		item, err1 := it.toItem()
		if err1 != nil {
			return blk, err1
		}
		blk.Items = append(blk.Items, item)
	}
	return blk, nil
}

func (il *itemLine) toItem() (item Item, err error) {
	dat, err := hexutil.Decode(il.Data)
	if err != nil {
		return item, err
	}
	if il.Kind == "call" {
		item.Call = &CallRecord{ID: il.ID, Name: il.Name, Hash: il.Spec, Data: dat}
		return item, nil
	}
	ev := &EventRecord{ID: il.ID, Name: il.Name, Hash: il.Spec, Data: dat}
	if il.Call != nil {
		cdat, err1 := hexutil.Decode(il.Call.Data)
		if err1 != nil {
			return item, err1
		}
		ev.Call = &CallRecord{ID: il.Call.ID, Name: il.Call.Name, Hash: il.Call.Spec, Data: cdat}
	}
	item.Event = ev
	return item, nil
}
