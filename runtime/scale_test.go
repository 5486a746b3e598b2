package runtime

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// encCompact mirrors the SCALE compact encoding so tests can build payloads.
func encCompact(v *big.Int) []byte {
	switch {
	case v.Cmp(big.NewInt(1<<6)) < 0:
		return []byte{byte(v.Uint64() << 2)}
	case v.Cmp(big.NewInt(1<<14)) < 0:
		out := make([]byte, 2)
		binary.LittleEndian.PutUint16(out, uint16(v.Uint64()<<2|1))
		return out
	case v.Cmp(big.NewInt(1<<30)) < 0:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, uint32(v.Uint64()<<2|2))
		return out
	default:
		raw := v.Bytes()
		le := make([]byte, len(raw))
		for i, b := range raw {
			le[len(raw)-1-i] = b
		}
		return append([]byte{byte(len(le)-4)<<2 | 3}, le...)
	}
}

func encU32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func encU128(v *big.Int) []byte {
	out := make([]byte, 16)
	raw := v.Bytes()
	for i, b := range raw {
		out[len(raw)-1-i] = b
	}
	return out
}

func TestReaderU32(t *testing.T) {
	r := newReader(encU32(7432))
	v, err := r.u32()
	require.NoError(t, err)
	require.Equal(t, uint32(7432), v)

	_, err = r.u32()
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestReaderU128(t *testing.T) {
	want, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	r := newReader(encU128(want))
	v, err := r.u128()
	require.NoError(t, err)
	require.Zero(t, want.Cmp(v))
}

func TestReaderCompact(t *testing.T) {
	cases := []string{
		"0",
		"1",
		"63",
		"64",
		"300",
		"16383",
		"16384",
		"1073741823",
		"1073741824",
		"4294967296",
		"340282366920938463463374607431768211455", // max u128
	}
	for _, c := range cases {
		want, ok := new(big.Int).SetString(c, 10)
		require.True(t, ok)
		r := newReader(encCompact(want))
		v, err := r.compact()
		require.NoError(t, err, c)
		require.Zero(t, want.Cmp(v), c)
		require.Zero(t, r.remaining(), c)
	}
}

func TestReaderCompactShort(t *testing.T) {
	r := newReader([]byte{0x01}) // two-byte mode, second byte missing
	_, err := r.compact()
	require.ErrorIs(t, err, ErrShortPayload)

	r = newReader(nil)
	_, err = r.compact()
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestReaderVarBytes(t *testing.T) {
	payload := append(encCompact(big.NewInt(3)), 0xaa, 0xbb, 0xcc)
	r := newReader(payload)
	v, err := r.varBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0xbb, 0xcc}, v)
}
