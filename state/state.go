package state

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/dotlake/treasuryd/ledger"
)

var (
	KeyHeight   = "s"
	KeyTreasury = "t"
	KeyProposal = "p%s"
	KeyBalance  = "b%s"
)

// State exposes the ledger repositories over one iavl working tree. All
// writes land in the working version; Commit persists them as a whole and
// Rollback discards them, which is what makes a batch atomic.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	return &State{
		logger: logger,
		db:     db,
	}
}

func (s *State) Treasury() ledger.TreasuryRepo {
	return treasuryRepo{s}
}

func (s *State) Proposals() ledger.ProposalRepo {
	return proposalRepo{s}
}

func (s *State) Balances() ledger.BalanceRepo {
	return balanceRepo{s}
}

// HistoricalBalances returns the full snapshot timeline in block-time order.
func (s *State) HistoricalBalances() ([]*ledger.HistoricalBalance, error) {
	return balanceRepo{s}.List()
}

// Height returns the last committed block height, zero for a fresh tree.
func (s *State) Height() (height uint64, err error) {
	val, err := s.get([]byte(KeyHeight))
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, nil
	}
	return new(big.Int).SetBytes(val).Uint64(), nil
}

func (s *State) SetHeight(height uint64) (err error) {
	_, err = s.db.Set([]byte(KeyHeight), new(big.Int).SetUint64(height).Bytes())
	return
}

// Commit persists the working tree as the next version.
func (s *State) Commit() (err error) {
	_, ver, err := s.db.SaveVersion()
	if err != nil {
		return err
	}
	s.logger.Debug("state committed", "version", ver)
	return nil
}

// Rollback discards everything applied since the last Commit.
func (s *State) Rollback() {
	s.db.Rollback()
}

func (s *State) get(key []byte) (val []byte, err error) {
	val, err = s.db.Get(key)
	if err != nil {
		if err != leveldb.ErrNotFound {
			return nil, err
		}
		return nil, nil
	}
	return val, nil
}

type treasuryRepo struct {
	st *State
}

// Get returns the singleton treasury row, a zero-balance instance when none
// was ever written.
func (r treasuryRepo) Get() (t *ledger.Treasury, err error) {
	val, err := r.st.get([]byte(KeyTreasury))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return &ledger.Treasury{ID: ledger.TreasuryID, Balance: big.NewInt(0)}, nil
	}
	t = new(ledger.Treasury)
	if err = json.Unmarshal(val, t); err != nil {
		return nil, err
	}
	if t.Balance == nil {
		t.Balance = big.NewInt(0)
	}
	return t, nil
}

func (r treasuryRepo) Put(t *ledger.Treasury) (err error) {
	val, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = r.st.db.Set([]byte(KeyTreasury), val)
	return
}

type proposalRepo struct {
	st *State
}

// Get returns the proposal with the given index, or a default Proposed
// instance with empty value and beneficiary when unseen.
func (r proposalRepo) Get(id string) (p *ledger.Proposal, err error) {
	key := fmt.Sprintf(KeyProposal, id)
	val, err := r.st.get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return &ledger.Proposal{ID: id, Status: ledger.StatusProposed}, nil
	}
	p = new(ledger.Proposal)
	err = json.Unmarshal(val, p)
	return p, err
}

func (r proposalRepo) Put(p *ledger.Proposal) (err error) {
	key := fmt.Sprintf(KeyProposal, p.ID)
	val, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = r.st.db.Set([]byte(key), val)
	return
}

type balanceRepo struct {
	st *State
}

// Put upserts a snapshot by its event id. Replaying an event overwrites the
// same key, so snapshots never duplicate.
func (r balanceRepo) Put(hb *ledger.HistoricalBalance) (err error) {
	key := fmt.Sprintf(KeyBalance, hb.ID)
	val, err := json.Marshal(hb)
	if err != nil {
		return err
	}
	_, err = r.st.db.Set([]byte(key), val)
	return
}

// List returns every snapshot in the tree ordered by block time.
func (r balanceRepo) List() (hbs []*ledger.HistoricalBalance, err error) {
	start := []byte(fmt.Sprintf(KeyBalance, ""))
	end := PrefixEndBytes(start)
	it, err := r.st.db.Iterator(start, end, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		hb := new(ledger.HistoricalBalance)
		if err = json.Unmarshal(it.Value(), hb); err != nil {
			return nil, err
		}
		hbs = append(hbs, hb)
	}
	sort.Slice(hbs, func(i, j int) bool {
		return hbs[i].Time.Before(hbs[j].Time)
	})
	return hbs, nil
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
