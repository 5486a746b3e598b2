package chain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Event and call names this pipeline consumes. Anything else coming from the
// source is ignored.
const (
	EventProposedName = "treasury.Proposed"
	EventSpendingName = "treasury.Spending"
	EventAwardedName  = "treasury.Awarded"
	EventRejectedName = "treasury.Rejected"
	EventBurntName    = "treasury.Burnt"
	EventRolloverName = "treasury.Rollover"
	EventDepositName  = "treasury.Deposit"

	CallProposeSpendName    = "treasury.propose_spend"
	CallApproveProposalName = "treasury.approve_proposal"
)

// Identity names a payload together with the metadata fingerprint in effect
// at its block height. The fingerprint decides which wire layout applies.
type Identity struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// CallRecord is a submitted extrinsic, either observed standalone (the
// approve_proposal path) or attached to an event as its originating call.
type CallRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hash string `json:"hash"`
	Data []byte `json:"data"`
}

func (c *CallRecord) Identity() Identity {
	return Identity{Name: c.Name, Hash: c.Hash}
}

// EventRecord is a runtime event plus the facts the core needs about it: a
// unique id, the fingerprint of its layout and, when the source exposes it,
// the extrinsic that produced it.
type EventRecord struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Hash string      `json:"hash"`
	Data []byte      `json:"data"`
	Call *CallRecord `json:"call,omitempty"`
}

func (e *EventRecord) Identity() Identity {
	return Identity{Name: e.Name, Hash: e.Hash}
}

// Item is one unit of work inside a block. Exactly one of Event or Call is
// set; items are applied in the order they appear.
type Item struct {
	Event *EventRecord `json:"event,omitempty"`
	Call  *CallRecord  `json:"call,omitempty"`
}

type Block struct {
	Height uint64      `json:"height"`
	Hash   common.Hash `json:"hash"`
	Time   time.Time   `json:"time"`
	Items  []Item      `json:"items"`
}

// Batch is a contiguous run of blocks. A batch is applied and committed as a
// whole before the next one is requested.
type Batch struct {
	Blocks []Block `json:"blocks"`
}
