package runtime

import (
	"encoding/binary"
	"errors"
	"math/big"
)

var (
	ErrShortPayload   = errors.New("payload too short")
	ErrBadCompactMode = errors.New("malformed compact integer")
)

// reader walks a SCALE payload. The treasury pallet only ever uses a handful
// of primitives: u32, u128, compact integers, fixed byte arrays and
// length-prefixed byte strings.
type reader struct {
	dat []byte
	off int
}

func newReader(dat []byte) *reader {
	return &reader{dat: dat}
}

func (r *reader) remaining() int {
	return len(r.dat) - r.off
}

func (r *reader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, ErrShortPayload
	}
	b := r.dat[r.off]
	r.off++
	return b, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, ErrShortPayload
	}
	out := make([]byte, n)
	copy(out, r.dat[r.off:r.off+n])
	r.off += n
	return out, nil
}

func (r *reader) u32() (uint32, error) {
	raw, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

// u128 reads a little-endian 16-byte balance.
func (r *reader) u128() (*big.Int, error) {
	raw, err := r.bytes(16)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
	return new(big.Int).SetBytes(raw), nil
}

// compact reads a SCALE compact-encoded unsigned integer.
func (r *reader) compact() (*big.Int, error) {
	b0, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch b0 & 0x03 {
	case 0:
		return big.NewInt(int64(b0 >> 2)), nil
	case 1:
		b1, err := r.byte()
		if err != nil {
			return nil, err
		}
		v := (uint64(b0) | uint64(b1)<<8) >> 2
		return new(big.Int).SetUint64(v), nil
	case 2:
		rest, err := r.bytes(3)
		if err != nil {
			return nil, err
		}
		v := (uint64(b0) | uint64(rest[0])<<8 | uint64(rest[1])<<16 | uint64(rest[2])<<24) >> 2
		return new(big.Int).SetUint64(v), nil
	default:
		n := int(b0>>2) + 4
		if n > 67 {
			return nil, ErrBadCompactMode
		}
		raw, err := r.bytes(n)
		if err != nil {
			return nil, err
		}
		for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
			raw[i], raw[j] = raw[j], raw[i]
		}
		return new(big.Int).SetBytes(raw), nil
	}
}

// compactU32 is compact() narrowed to indices.
func (r *reader) compactU32() (uint32, error) {
	v, err := r.compact()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() || v.Uint64() > 0xffffffff {
		return 0, ErrBadCompactMode
	}
	return uint32(v.Uint64()), nil
}

// varBytes reads a compact-length-prefixed byte string.
func (r *reader) varBytes() ([]byte, error) {
	n, err := r.compactU32()
	if err != nil {
		return nil, err
	}
	return r.bytes(int(n))
}
