package runtime

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrUnsupportedBeneficiary marks a propose_spend whose beneficiary is an
	// index reference into the on-chain address lookup. The pipeline cannot
	// resolve those; the proposal is recorded with partial data instead.
	ErrUnsupportedBeneficiary = errors.New("unsupported beneficiary reference")
)

// MultiAddress variant bytes, stable since the V28 upgrade introduced the
// enum.
const (
	multiAddrID        = 0
	multiAddrIndex     = 1
	multiAddrRaw       = 2
	multiAddrAddress32 = 3
	multiAddrAddress20 = 4
)

// Beneficiary is either raw account bytes or an unresolvable index reference.
// The address codec consumes the raw form; the index form surfaces as
// ErrUnsupportedBeneficiary before a Beneficiary is ever built.
type Beneficiary struct {
	Raw []byte
}

// ProposeSpend is the normalized treasury.propose_spend call: the requested
// amount and the account meant to receive it.
type ProposeSpend struct {
	Value       *big.Int
	Beneficiary Beneficiary
}

// ApproveProposal is the normalized treasury.approve_proposal call. Its
// layout never changed across upgrades.
type ApproveProposal struct {
	ProposalID uint32
}

// DecodeProposeSpend handles the three propose_spend layouts. V0 carries the
// beneficiary as bare account bytes; V28 and V9110 wrap it in a MultiAddress
// union whose Index variant is rejected.
func DecodeProposeSpend(dat []byte, tag Tag) (call ProposeSpend, err error) {
	r := newReader(dat)
	switch tag {
	case TagV0:
		if call.Value, err = r.compact(); err != nil {
			return call, err
		}
		call.Beneficiary.Raw, err = r.bytes(32)
	case TagV28, TagV9110:
		if call.Value, err = r.compact(); err != nil {
			return call, err
		}
		call.Beneficiary, err = decodeMultiAddress(r)
	default:
		err = unhandledTag("propose_spend", tag)
	}
	return call, err
}

func decodeMultiAddress(r *reader) (b Beneficiary, err error) {
	variant, err := r.byte()
	if err != nil {
		return b, err
	}
	switch variant {
	case multiAddrID, multiAddrAddress32:
		b.Raw, err = r.bytes(32)
	case multiAddrAddress20:
		b.Raw, err = r.bytes(20)
	case multiAddrRaw:
		b.Raw, err = r.varBytes()
	case multiAddrIndex:
		err = ErrUnsupportedBeneficiary
	default:
		err = fmt.Errorf("unknown multiaddress variant %d", variant)
	}
	return b, err
}

// DecodeApproveProposal handles treasury.approve_proposal.
func DecodeApproveProposal(dat []byte, tag Tag) (call ApproveProposal, err error) {
	r := newReader(dat)
	switch tag {
	case TagV0:
		call.ProposalID, err = r.compactU32()
	default:
		err = unhandledTag("approve_proposal", tag)
	}
	return call, err
}
