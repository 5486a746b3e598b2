package runtime

import (
	"errors"

	"github.com/dotlake/treasuryd/chain"
)

var (
	// ErrMissingCausalCall means the event's unit of work exposes no usable
	// propose_spend extrinsic. Batch-wrapped calls land here: the originating
	// extrinsic is the wrapper, which this pipeline does not unwrap.
	ErrMissingCausalCall = errors.New("missing causal call")
)

// CorrelateProposeSpend recovers the requested amount and beneficiary for a
// treasury.Proposed event from the extrinsic that produced it. The event
// body never carries either field.
func CorrelateProposeSpend(ev *chain.EventRecord) (call ProposeSpend, err error) {
	if ev.Call == nil || ev.Call.Name != chain.CallProposeSpendName {
		return call, ErrMissingCausalCall
	}
	tag, err := Resolve(ev.Call.Identity())
	if err != nil {
		return call, err
	}
	return DecodeProposeSpend(ev.Call.Data, tag)
}
