package runtime

import (
	"fmt"
	"math/big"
)

// Normalized event records. Downstream code only ever sees these; the
// version-specific layouts stop at this file.

type Proposed struct {
	ProposalIndex uint32
}

type Spending struct {
	BudgetRemaining *big.Int
}

type Awarded struct {
	ProposalIndex uint32
	Award         *big.Int
	Account       []byte
}

type Rejected struct {
	ProposalIndex uint32
	Slashed       *big.Int
}

type Burnt struct {
	BurntFunds *big.Int
}

type Rollover struct {
	RolloverBalance *big.Int
}

type Deposit struct {
	Value *big.Int
}

func unhandledTag(name string, tag Tag) error {
	return fmt.Errorf("%w: no %s decoder for tag %s", ErrUnknownSchemaVersion, name, tag)
}

// DecodeProposed handles treasury.Proposed. V0 carries a bare index, V9170
// wraps it in a named field; both are a single u32 on the wire.
func DecodeProposed(dat []byte, tag Tag) (ev Proposed, err error) {
	r := newReader(dat)
	switch tag {
	case TagV0, TagV9170:
		ev.ProposalIndex, err = r.u32()
	default:
		err = unhandledTag("Proposed", tag)
	}
	return ev, err
}

// DecodeSpending handles treasury.Spending: the remaining budget after a
// spend period, reported as an absolute value.
func DecodeSpending(dat []byte, tag Tag) (ev Spending, err error) {
	r := newReader(dat)
	switch tag {
	case TagV0, TagV9170:
		ev.BudgetRemaining, err = r.u128()
	default:
		err = unhandledTag("Spending", tag)
	}
	return ev, err
}

// DecodeAwarded handles treasury.Awarded. V0 is a positional tuple, V9170 a
// named struct whose account is a 32-byte AccountId32.
func DecodeAwarded(dat []byte, tag Tag) (ev Awarded, err error) {
	r := newReader(dat)
	switch tag {
	case TagV0, TagV9170:
		if ev.ProposalIndex, err = r.u32(); err != nil {
			return ev, err
		}
		if ev.Award, err = r.u128(); err != nil {
			return ev, err
		}
		ev.Account, err = r.bytes(32)
	default:
		err = unhandledTag("Awarded", tag)
	}
	return ev, err
}

// DecodeRejected handles treasury.Rejected: the proposal index and the
// slashed deposit.
func DecodeRejected(dat []byte, tag Tag) (ev Rejected, err error) {
	r := newReader(dat)
	switch tag {
	case TagV0, TagV9170:
		if ev.ProposalIndex, err = r.u32(); err != nil {
			return ev, err
		}
		ev.Slashed, err = r.u128()
	default:
		err = unhandledTag("Rejected", tag)
	}
	return ev, err
}

func DecodeBurnt(dat []byte, tag Tag) (ev Burnt, err error) {
	r := newReader(dat)
	switch tag {
	case TagV0, TagV9170:
		ev.BurntFunds, err = r.u128()
	default:
		err = unhandledTag("Burnt", tag)
	}
	return ev, err
}

func DecodeRollover(dat []byte, tag Tag) (ev Rollover, err error) {
	r := newReader(dat)
	switch tag {
	case TagV0, TagV9170:
		ev.RolloverBalance, err = r.u128()
	default:
		err = unhandledTag("Rollover", tag)
	}
	return ev, err
}

func DecodeDeposit(dat []byte, tag Tag) (ev Deposit, err error) {
	r := newReader(dat)
	switch tag {
	case TagV0, TagV9170:
		ev.Value, err = r.u128()
	default:
		err = unhandledTag("Deposit", tag)
	}
	return ev, err
}
