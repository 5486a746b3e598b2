package runtime

import (
	"errors"
	"fmt"

	"github.com/dotlake/treasuryd/chain"
)

// Tag identifies one of the wire layouts a runtime upgrade introduced for the
// treasury pallet. The set is closed: decoding dispatches on it exhaustively.
type Tag string

const (
	TagV0    Tag = "V0"
	TagV28   Tag = "V28"
	TagV9110 Tag = "V9110"
	TagV9170 Tag = "V9170"
)

var (
	// ErrUnknownSchemaVersion means the metadata fingerprint matches no layout
	// we know. Guessing a shape would silently corrupt financial state, so the
	// caller must stop the run.
	ErrUnknownSchemaVersion = errors.New("unknown schema version")
)

// registry maps a (name, metadata hash) identity to the layout tag in effect.
// The hashes come from the chain metadata at each upgrade height.
var registry = map[chain.Identity]Tag{
	{Name: chain.EventProposedName, Hash: "0a0f30b1ade5af5fade6413c605719d59be71340cf4884f65ee9858eb1c38f6c"}: TagV0,
	{Name: chain.EventProposedName, Hash: "e9ffb62c9cf38a8abb0e419c0655e66f4415cc9c0faa1066316d07cb033b8ff6"}: TagV9170,

	{Name: chain.EventSpendingName, Hash: "47b59f698451e50cce59979f0121e842fa3f8b2bcef2e388222dbd69849514f9"}: TagV0,
	{Name: chain.EventSpendingName, Hash: "b9f599ccbbe2e4fd1004f47546e1a3100bc78745b24ac47ac03ed16ca6266290"}: TagV9170,

	{Name: chain.EventAwardedName, Hash: "86708250ac506876b8d63d9c97b4ca0fa73f0199c633da6fb2a8956aaab8c743"}: TagV0,
	{Name: chain.EventAwardedName, Hash: "998b846fdf605dfbbe27d46b36b246537b990ed6d4deb2f0177d539b9dab3878"}: TagV9170,

	{Name: chain.EventRejectedName, Hash: "a0e51e81445baa317309351746e010ed2435e30ff7e53fbb2cf59283f3b9c536"}: TagV0,
	{Name: chain.EventRejectedName, Hash: "f9b7fb646bc37c38ad87edfaa08a0ca293b38294934c1114934c7a8fe00b6b79"}: TagV9170,

	{Name: chain.EventBurntName, Hash: "47b59f698451e50cce59979f0121e842fa3f8b2bcef2e388222dbd69849514f9"}: TagV0,
	{Name: chain.EventBurntName, Hash: "9d1d11cb2e24085666bf949195a4030bd6e80ff41274d0386073977e7cd59a87"}: TagV9170,

	{Name: chain.EventRolloverName, Hash: "47b59f698451e50cce59979f0121e842fa3f8b2bcef2e388222dbd69849514f9"}: TagV0,
	{Name: chain.EventRolloverName, Hash: "c9e720e2b3ada12c617b4dcb70771c3afafb9e294bf362df01a9e129683a92dd"}: TagV9170,

	{Name: chain.EventDepositName, Hash: "47b59f698451e50cce59979f0121e842fa3f8b2bcef2e388222dbd69849514f9"}: TagV0,
	{Name: chain.EventDepositName, Hash: "d74027ad27459f17d7446fef449271d1b0dc12b852c175623e871d009a661493"}: TagV9170,

	{Name: chain.CallProposeSpendName, Hash: "98e9af32f46010396e58ac70ce7c017f7e95d81b05c03d5e5aeb94ce27732909"}: TagV0,
	{Name: chain.CallProposeSpendName, Hash: "c9f0fb5ad91e84a77c5f948f4140d239e238788ae3191c594dc1e6592472d5a7"}: TagV28,
	{Name: chain.CallProposeSpendName, Hash: "ffef9f31e8ae5085e7c0a55a685daef52218f0bf7083015ac904dafceedf09ee"}: TagV9110,

	{Name: chain.CallApproveProposalName, Hash: "d31c3c178e65331a6ccd6f8dca07268f945f39b38e51421afd1c9e1f5bc0f6c8"}: TagV0,
}

// Resolve returns the layout tag for an event or call identity.
func Resolve(id chain.Identity) (Tag, error) {
	tag, ok := registry[id]
	if !ok {
		return "", fmt.Errorf("%w: %s %s", ErrUnknownSchemaVersion, id.Name, id.Hash)
	}
	return tag, nil
}

// KnownIdentities lists every registered identity. Tests use it to prove the
// decoders cover the whole registry.
func KnownIdentities() []chain.Identity {
	ids := make([]chain.Identity, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}
