package indexer

import (
	"context"
	"errors"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"github.com/dotlake/treasuryd/chain"
	"github.com/dotlake/treasuryd/ledger"
	"github.com/dotlake/treasuryd/state"
)

// Indexer drives the pipeline: it pulls batches from the source, applies
// every item in order through the reducer, commits the state tree once per
// batch and mirrors the applied outcomes into the sqlite read models.
type Indexer struct {
	logger  cmtlog.Logger
	db      *gorm.DB
	stateDB *state.StateDB
	reducer *ledger.Reducer
	source  chain.Source

	// height of the last fully committed block.
	height uint64
}

func NewIndexer(logger cmtlog.Logger, dbPath string, source chain.Source, stateDB *state.StateDB, prefix uint16) (*Indexer, error) {
	logger = logger.With("module", "indexer")
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Treasury{}, &Proposal{}, &HistoricalBalance{}, &Height{}).Error; err != nil {
		return nil, err
	}

	st := stateDB.State()
	height, err := st.Height()
	if err != nil {
		return nil, err
	}
	ix := &Indexer{
		logger:  logger,
		db:      db,
		stateDB: stateDB,
		reducer: ledger.NewReducer(logger, st, prefix),
		source:  source,
		height:  height,
	}
	logger.Info("indexer ready", "height", height)
	return ix, nil
}

// Height returns the last fully committed block height.
func (ix *Indexer) Height() uint64 {
	return ix.height
}

// Start replays batches until the source is exhausted or the context ends.
// Any error is fatal for the run: continuing past an undecodable event would
// corrupt the balance arithmetic.
func (ix *Indexer) Start(ctx context.Context) (err error) {
	for {
		batch, err := ix.source.Next(ctx, ix.height+1)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			ix.logger.Error("fetch batch fail", "err", err)
			return err
		}
		if batch == nil || len(batch.Blocks) == 0 {
			ix.logger.Info("source exhausted", "height", ix.height)
			return nil
		}
		if err = ix.applyBatch(batch); err != nil {
			ix.logger.Error("apply batch fail", "err", err)
			return err
		}
	}
}

// applyBatch applies one batch in received order. The state tree only moves
// forward when every item landed; a failed batch is rolled back whole.
func (ix *Indexer) applyBatch(batch *chain.Batch) (err error) {
	st := ix.stateDB.State()
	outs := make([]*ledger.Outcome, 0, len(batch.Blocks))
	last := ix.height
	for _, blk := range batch.Blocks {
		for _, item := range blk.Items {
			out, err1 := ix.reducer.Apply(item, blk.Time)
			if err1 != nil {
				st.Rollback()
				return err1
			}
			if out != nil {
				outs = append(outs, out)
			}
		}
		last = blk.Height
	}
	if err = st.SetHeight(last); err != nil {
		st.Rollback()
		return err
	}
	if err = st.Commit(); err != nil {
		st.Rollback()
		return err
	}
	ix.height = last
	ix.mirror(outs, last)
	return nil
}

// mirror copies applied outcomes into the read models. The state tree is the
// source of truth; a failed mirror write is logged, not fatal.
func (ix *Indexer) mirror(outs []*ledger.Outcome, height uint64) {
	for _, out := range outs {
		if out.Treasury != nil {
			row := Treasury{Id: out.Treasury.ID, Balance: out.Treasury.Balance.String()}
			if err := ix.db.Save(&row).Error; err != nil {
				ix.logger.Error("save treasury fail", "err", err)
			}
		}
		if out.Proposal != nil {
			row := Proposal{
				Id:          out.Proposal.ID,
				Beneficiary: out.Proposal.Beneficiary,
				Status:      string(out.Proposal.Status),
			}
			if out.Proposal.Value != nil {
				row.Value = out.Proposal.Value.String()
			}
			if err := ix.db.Save(&row).Error; err != nil {
				ix.logger.Error("save proposal fail", "err", err)
			}
		}
		if out.Snapshot != nil {
			row := HistoricalBalance{
				Id:         out.Snapshot.ID,
				Balance:    out.Snapshot.Balance.String(),
				Timestamp:  out.Snapshot.Time.UnixMilli(),
				TreasuryId: out.Snapshot.TreasuryID,
			}
			if err := ix.db.Save(&row).Error; err != nil {
				ix.logger.Error("save historical balance fail", "err", err)
			}
		}
	}
	h := Height{Id: 1, Height: height}
	if err := ix.db.Save(&h).Error; err != nil {
		ix.logger.Error("save height fail", "err", err)
	}
}

func (ix *Indexer) getTreasury() (t Treasury, err error) {
	err = ix.db.First(&t, "id = ?", ledger.TreasuryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Treasury{Id: ledger.TreasuryID, Balance: "0"}, nil
	}
	return t, err
}

func (ix *Indexer) getProposalById(id string) (p Proposal, err error) {
	err = ix.db.First(&p, "id = ?", id).Error
	return p, err
}

func (ix *Indexer) getProposals(page, pageSize int) (ps []Proposal, total uint64, err error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 0 {
		page = 0
	}
	if err = ix.db.Model(&Proposal{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err = ix.db.Order("id").Offset(page * pageSize).Limit(pageSize).Find(&ps).Error
	return ps, total, err
}

func (ix *Indexer) getHistoricalBalances(page, pageSize int) (hbs []HistoricalBalance, total uint64, err error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	if page < 0 {
		page = 0
	}
	if err = ix.db.Model(&HistoricalBalance{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err = ix.db.Order("timestamp").Offset(page * pageSize).Limit(pageSize).Find(&hbs).Error
	return hbs, total, err
}
