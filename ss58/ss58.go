// Package ss58 encodes raw account bytes into SS58 addresses. Encoding is
// total: malformed input yields ok=false, never a panic or an error chain,
// so callers can substitute a sentinel and move on.
package ss58

import (
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// PolkadotPrefix is the network prefix of the relay chain this indexer
	// follows by default.
	PolkadotPrefix uint16 = 0

	checksumLen = 2
	maxPrefix   = 0x3fff
)

var checksumPreamble = []byte("SS58PRE")

// Encode returns the SS58 address for a 32-byte account id under the given
// network prefix. ok is false for any other input length or an out-of-range
// prefix.
func Encode(raw []byte, prefix uint16) (addr string, ok bool) {
	if len(raw) != 32 || prefix > maxPrefix {
		return "", false
	}

	var ident []byte
	if prefix < 64 {
		ident = []byte{byte(prefix)}
	} else {
		// Two-byte form: 14 identifier bits shuffled per the SS58 spec.
		ident = []byte{
			byte(prefix&0x00fc)>>2 | 0x40,
			byte(prefix>>8) | byte(prefix&0x0003)<<6,
		}
	}

	body := make([]byte, 0, len(ident)+len(raw)+checksumLen)
	body = append(body, ident...)
	body = append(body, raw...)

	h, err := blake2b.New512(nil)
	if err != nil {
		return "", false
	}
	h.Write(checksumPreamble)
	h.Write(body)
	sum := h.Sum(nil)

	body = append(body, sum[:checksumLen]...)
	return base58.Encode(body), true
}
