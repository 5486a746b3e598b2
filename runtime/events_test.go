package runtime

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeProposed(t *testing.T) {
	for _, tag := range []Tag{TagV0, TagV9170} {
		ev, err := DecodeProposed(encU32(17), tag)
		require.NoError(t, err, tag)
		require.Equal(t, uint32(17), ev.ProposalIndex)
	}

	_, err := DecodeProposed(encU32(17), TagV28)
	require.ErrorIs(t, err, ErrUnknownSchemaVersion)

	_, err = DecodeProposed([]byte{0x01}, TagV0)
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestDecodeSpending(t *testing.T) {
	budget := big.NewInt(987654321)
	ev, err := DecodeSpending(encU128(budget), TagV9170)
	require.NoError(t, err)
	require.Zero(t, budget.Cmp(ev.BudgetRemaining))
}

func TestDecodeAwarded(t *testing.T) {
	award := new(big.Int).Lsh(big.NewInt(1), 70) // beyond u64
	account := bytes.Repeat([]byte{0x5e}, 32)

	payload := encU32(3)
	payload = append(payload, encU128(award)...)
	payload = append(payload, account...)

	for _, tag := range []Tag{TagV0, TagV9170} {
		ev, err := DecodeAwarded(payload, tag)
		require.NoError(t, err, tag)
		require.Equal(t, uint32(3), ev.ProposalIndex)
		require.Zero(t, award.Cmp(ev.Award))
		require.Equal(t, account, ev.Account)
	}

	_, err := DecodeAwarded(payload[:20], TagV0)
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestDecodeRejected(t *testing.T) {
	payload := append(encU32(9), encU128(big.NewInt(5000))...)
	ev, err := DecodeRejected(payload, TagV0)
	require.NoError(t, err)
	require.Equal(t, uint32(9), ev.ProposalIndex)
	require.Zero(t, big.NewInt(5000).Cmp(ev.Slashed))
}

func TestDecodeBalanceEvents(t *testing.T) {
	v := big.NewInt(42424242)
	payload := encU128(v)

	burnt, err := DecodeBurnt(payload, TagV0)
	require.NoError(t, err)
	require.Zero(t, v.Cmp(burnt.BurntFunds))

	roll, err := DecodeRollover(payload, TagV9170)
	require.NoError(t, err)
	require.Zero(t, v.Cmp(roll.RolloverBalance))

	dep, err := DecodeDeposit(payload, TagV0)
	require.NoError(t, err)
	require.Zero(t, v.Cmp(dep.Value))
}
