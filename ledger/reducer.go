package ledger

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/dotlake/treasuryd/chain"
	"github.com/dotlake/treasuryd/runtime"
	"github.com/dotlake/treasuryd/ss58"
)

// Outcome reports what one applied item changed, so the caller can mirror it
// into read models. Skipped marks events dropped for incomplete data.
type Outcome struct {
	Treasury *Treasury
	Proposal *Proposal
	Snapshot *HistoricalBalance
	Skipped  bool
}

type eventHandler func(ev *chain.EventRecord, tag runtime.Tag, at time.Time) (*Outcome, error)
type callHandler func(call *chain.CallRecord, tag runtime.Tag, at time.Time) (*Outcome, error)

// Reducer applies normalized treasury events and calls to the aggregates.
// Application is strictly sequential; the ordering of absolute sets
// (Spending, Rollover) against deltas (Awarded, Burnt, Deposit) is
// load-bearing.
type Reducer struct {
	logger cmtlog.Logger
	store  Store
	prefix uint16

	eventHandlers map[string]eventHandler
	callHandlers  map[string]callHandler
}

func NewReducer(logger cmtlog.Logger, store Store, prefix uint16) *Reducer {
	r := &Reducer{
		logger: logger.With("module", "reducer"),
		store:  store,
		prefix: prefix,
	}
	r.eventHandlers = map[string]eventHandler{
		chain.EventProposedName: r.applyProposed,
		chain.EventSpendingName: r.applySpending,
		chain.EventAwardedName:  r.applyAwarded,
		chain.EventRejectedName: r.applyRejected,
		chain.EventBurntName:    r.applyBurnt,
		chain.EventRolloverName: r.applyRollover,
		chain.EventDepositName:  r.applyDeposit,
	}
	r.callHandlers = map[string]callHandler{
		chain.CallApproveProposalName: r.applyApproveProposal,
	}
	return r
}

// Apply routes one unit of work to its handler. A nil outcome means the item
// was not one this pipeline tracks. Errors are fatal for the run except
// where a handler downgraded them already.
func (r *Reducer) Apply(item chain.Item, at time.Time) (out *Outcome, err error) {
	switch {
	case item.Event != nil:
		h, ok := r.eventHandlers[item.Event.Name]
		if !ok {
			return nil, nil
		}
		tag, err := runtime.Resolve(item.Event.Identity())
		if err != nil {
			return nil, err
		}
		return h(item.Event, tag, at)
	case item.Call != nil:
		h, ok := r.callHandlers[item.Call.Name]
		if !ok {
			return nil, nil
		}
		tag, err := runtime.Resolve(item.Call.Identity())
		if err != nil {
			return nil, err
		}
		return h(item.Call, tag, at)
	}
	return nil, nil
}

// applyProposed records a new proposal. The event only names the index; the
// amount and beneficiary come from the correlated propose_spend call. When
// correlation fails the proposal is still recorded, with unknown value and
// the sentinel beneficiary, and processing continues.
func (r *Reducer) applyProposed(ev *chain.EventRecord, tag runtime.Tag, at time.Time) (out *Outcome, err error) {
	dec, err := runtime.DecodeProposed(ev.Data, tag)
	if err != nil {
		return nil, err
	}
	r.logger.Info("found new proposal", "index", dec.ProposalIndex)

	p, err := r.store.Proposals().Get(proposalID(dec.ProposalIndex))
	if err != nil {
		return nil, err
	}
	call, cerr := runtime.CorrelateProposeSpend(ev)
	if cerr != nil {
		r.logger.Info("propose_spend call unavailable, recording partial proposal",
			"index", dec.ProposalIndex, "err", cerr)
	} else {
		p.Value = call.Value
		addr, ok := ss58.Encode(call.Beneficiary.Raw, r.prefix)
		if !ok {
			addr = BeneficiaryUnknown
		}
		p.Beneficiary = addr
	}
	if p.Beneficiary == "" {
		p.Beneficiary = BeneficiaryUnknown
	}
	// Status stays untouched when an approval was observed first; there is
	// no transition back from Approved or a terminal state.
	if err = r.store.Proposals().Put(p); err != nil {
		return nil, err
	}
	r.logger.Info("saved proposal", "index", dec.ProposalIndex, "status", p.Status)
	return &Outcome{Proposal: p}, nil
}

// applySpending sets the balance to the reported remaining budget. Absolute
// set, not a delta.
func (r *Reducer) applySpending(ev *chain.EventRecord, tag runtime.Tag, at time.Time) (out *Outcome, err error) {
	dec, err := runtime.DecodeSpending(ev.Data, tag)
	if err != nil {
		return nil, err
	}
	t, err := r.store.Treasury().Get()
	if err != nil {
		return nil, err
	}
	t.Balance = new(big.Int).Set(dec.BudgetRemaining)
	if err = r.store.Treasury().Put(t); err != nil {
		return nil, err
	}
	hb, err := r.snapshot(ev.ID, t, at)
	if err != nil {
		return nil, err
	}
	return &Outcome{Treasury: t, Snapshot: hb}, nil
}

// applyAwarded moves a proposal to Awarded and subtracts the award from the
// balance. A proposal with no known value is skipped entirely: acting on it
// would fabricate a terminal state from incomplete data.
func (r *Reducer) applyAwarded(ev *chain.EventRecord, tag runtime.Tag, at time.Time) (out *Outcome, err error) {
	dec, err := runtime.DecodeAwarded(ev.Data, tag)
	if err != nil {
		return nil, err
	}
	p, err := r.store.Proposals().Get(proposalID(dec.ProposalIndex))
	if err != nil {
		return nil, err
	}
	if !p.KnownValue() {
		r.logger.Info("skipping awarded event, proposal has no known value",
			"index", dec.ProposalIndex)
		return &Outcome{Skipped: true}, nil
	}
	if p.Status != StatusRejected {
		p.Status = StatusAwarded
	}
	if err = r.store.Proposals().Put(p); err != nil {
		return nil, err
	}
	r.logger.Info("saved proposal", "index", dec.ProposalIndex, "status", p.Status)

	t, err := r.store.Treasury().Get()
	if err != nil {
		return nil, err
	}
	t.Balance = new(big.Int).Sub(t.Balance, dec.Award)
	if err = r.store.Treasury().Put(t); err != nil {
		return nil, err
	}
	hb, err := r.snapshot(ev.ID, t, at)
	if err != nil {
		return nil, err
	}
	return &Outcome{Treasury: t, Proposal: p, Snapshot: hb}, nil
}

// applyRejected moves a proposal to Rejected. The balance is untouched: the
// slashed deposit reaches the treasury later through a Deposit event emitted
// by the chain itself.
func (r *Reducer) applyRejected(ev *chain.EventRecord, tag runtime.Tag, at time.Time) (out *Outcome, err error) {
	dec, err := runtime.DecodeRejected(ev.Data, tag)
	if err != nil {
		return nil, err
	}
	p, err := r.store.Proposals().Get(proposalID(dec.ProposalIndex))
	if err != nil {
		return nil, err
	}
	if !p.KnownValue() {
		r.logger.Info("skipping rejected event, proposal has no known value",
			"index", dec.ProposalIndex)
		return &Outcome{Skipped: true}, nil
	}
	if p.Status != StatusAwarded {
		p.Status = StatusRejected
	}
	if err = r.store.Proposals().Put(p); err != nil {
		return nil, err
	}
	r.logger.Info("saved proposal", "index", dec.ProposalIndex, "status", p.Status)
	return &Outcome{Proposal: p}, nil
}

func (r *Reducer) applyBurnt(ev *chain.EventRecord, tag runtime.Tag, at time.Time) (out *Outcome, err error) {
	dec, err := runtime.DecodeBurnt(ev.Data, tag)
	if err != nil {
		return nil, err
	}
	t, err := r.store.Treasury().Get()
	if err != nil {
		return nil, err
	}
	t.Balance = new(big.Int).Sub(t.Balance, dec.BurntFunds)
	if err = r.store.Treasury().Put(t); err != nil {
		return nil, err
	}
	hb, err := r.snapshot(ev.ID, t, at)
	if err != nil {
		return nil, err
	}
	return &Outcome{Treasury: t, Snapshot: hb}, nil
}

// applyRollover sets the balance to the amount rolled over into the next
// spend period. Absolute set, like Spending.
func (r *Reducer) applyRollover(ev *chain.EventRecord, tag runtime.Tag, at time.Time) (out *Outcome, err error) {
	dec, err := runtime.DecodeRollover(ev.Data, tag)
	if err != nil {
		return nil, err
	}
	t, err := r.store.Treasury().Get()
	if err != nil {
		return nil, err
	}
	t.Balance = new(big.Int).Set(dec.RolloverBalance)
	if err = r.store.Treasury().Put(t); err != nil {
		return nil, err
	}
	hb, err := r.snapshot(ev.ID, t, at)
	if err != nil {
		return nil, err
	}
	return &Outcome{Treasury: t, Snapshot: hb}, nil
}

func (r *Reducer) applyDeposit(ev *chain.EventRecord, tag runtime.Tag, at time.Time) (out *Outcome, err error) {
	dec, err := runtime.DecodeDeposit(ev.Data, tag)
	if err != nil {
		return nil, err
	}
	t, err := r.store.Treasury().Get()
	if err != nil {
		return nil, err
	}
	t.Balance = new(big.Int).Add(t.Balance, dec.Value)
	if err = r.store.Treasury().Put(t); err != nil {
		return nil, err
	}
	hb, err := r.snapshot(ev.ID, t, at)
	if err != nil {
		return nil, err
	}
	return &Outcome{Treasury: t, Snapshot: hb}, nil
}

// applyApproveProposal handles the approve_proposal extrinsic. The proposal
// may not have been seen yet; it is created with defaults and filled in when
// the Proposed event arrives.
func (r *Reducer) applyApproveProposal(call *chain.CallRecord, tag runtime.Tag, at time.Time) (out *Outcome, err error) {
	dec, err := runtime.DecodeApproveProposal(call.Data, tag)
	if err != nil {
		return nil, err
	}
	p, err := r.store.Proposals().Get(proposalID(dec.ProposalID))
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		r.logger.Info("ignoring approval for settled proposal",
			"index", dec.ProposalID, "status", p.Status)
		return &Outcome{Skipped: true}, nil
	}
	p.Status = StatusApproved
	if err = r.store.Proposals().Put(p); err != nil {
		return nil, err
	}
	r.logger.Info("saved proposal", "index", dec.ProposalID, "status", p.Status)
	return &Outcome{Proposal: p}, nil
}

func (r *Reducer) snapshot(eventID string, t *Treasury, at time.Time) (hb *HistoricalBalance, err error) {
	hb = &HistoricalBalance{
		ID:         eventID,
		Balance:    new(big.Int).Set(t.Balance),
		Time:       at,
		TreasuryID: t.ID,
	}
	if err = r.store.Balances().Put(hb); err != nil {
		return nil, fmt.Errorf("append balance snapshot: %w", err)
	}
	return hb, nil
}

func proposalID(index uint32) string {
	return strconv.FormatUint(uint64(index), 10)
}
