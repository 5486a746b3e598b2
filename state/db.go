package state

import (
	"sync"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
)

// StateDB owns the iavl tree backing the aggregates. The pipeline is the
// single writer; the mutex only guards it against API readers.
type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "statedb")
	ldb, err := dbm.NewDB("treasury", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return open(ldb, dir, logger)
}

// NewMemStateDB backs the tree with an in-memory store. Tests and dry runs
// use it.
func NewMemStateDB(logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "statedb")
	return open(dbm.NewMemDB(), "", logger)
}

func open(ldb dbm.DB, dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	db = &StateDB{
		dir:    dir,
		logger: logger,
		db:     tdb,
		state:  newState(tdb, logger),
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}
