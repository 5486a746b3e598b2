package ledger

import (
	"math/big"
	"time"
)

// TreasuryID is the fixed storage key of the singleton Treasury row. It is a
// design invariant of the gateway, not a business identifier: there is
// exactly one treasury and every mutation is read-modify-write against it.
const TreasuryID = "1"

// BeneficiaryUnknown is substituted whenever the beneficiary could not be
// recovered or its address failed to encode.
const BeneficiaryUnknown = "None"

type Status string

const (
	StatusProposed Status = "Proposed"
	StatusApproved Status = "Approved"
	StatusAwarded  Status = "Awarded"
	StatusRejected Status = "Rejected"
)

// Terminal reports whether no further lifecycle transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusAwarded || s == StatusRejected
}

type Treasury struct {
	ID      string   `json:"id"`
	Balance *big.Int `json:"balance"`
}

type Proposal struct {
	ID          string   `json:"id"`
	Value       *big.Int `json:"value,omitempty"`
	Beneficiary string   `json:"beneficiary"`
	Status      Status   `json:"status"`
}

// KnownValue reports whether the requested amount was ever recovered from
// the propose_spend call. Awarded and Rejected refuse to act without it.
func (p *Proposal) KnownValue() bool {
	return p.Value != nil && p.Value.Sign() != 0
}

// HistoricalBalance is one append-only snapshot of the treasury balance,
// keyed by the id of the event that produced it so replays stay idempotent.
type HistoricalBalance struct {
	ID         string    `json:"id"`
	Balance    *big.Int  `json:"balance"`
	Time       time.Time `json:"time"`
	TreasuryID string    `json:"treasuryId"`
}

// Per-entity repositories. Get returns a default-valued instance when the id
// is absent; Put upserts. Writes must be visible to later reads within the
// same run.

type TreasuryRepo interface {
	Get() (*Treasury, error)
	Put(*Treasury) error
}

type ProposalRepo interface {
	Get(id string) (*Proposal, error)
	Put(*Proposal) error
}

type BalanceRepo interface {
	Put(*HistoricalBalance) error
}

// Store is the persistence gateway the reducer writes through.
type Store interface {
	Treasury() TreasuryRepo
	Proposals() ProposalRepo
	Balances() BalanceRepo
}
