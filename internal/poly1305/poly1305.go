// Package poly1305 implements the Poly1305 one-time authenticator
// (RFC 7539 §2.5), from scratch using a big.Int accumulator reduced modulo
// 2^130-5.
package poly1305

import (
	"math/big"
)

// TagSize is the size in bytes of a Poly1305 tag.
const TagSize = 16

// KeySize is the size in bytes of a Poly1305 one-time key (r || s).
const KeySize = 32

var p1305 = func() *big.Int {
	// 2^130 - 5
	n := new(big.Int).Lsh(big.NewInt(1), 130)
	return n.Sub(n, big.NewInt(5))
}()

// Sum computes the Poly1305 tag of msg under the given 32-byte one-time
// key (key = r (16 bytes, clamped) || s (16 bytes)).
func Sum(key []byte, msg []byte) [TagSize]byte {
	if len(key) != KeySize {
		panic("poly1305: bad key length")
	}

	// clamp r per RFC 7539 §2.5.1, in its little-endian wire order.
	rBytes := make([]byte, 16)
	copy(rBytes, key[:16])
	rBytes[3] &= 0x0f
	rBytes[7] &= 0x0f
	rBytes[11] &= 0x0f
	rBytes[15] &= 0x0f
	rBytes[4] &= 0xfc
	rBytes[8] &= 0xfc
	rBytes[12] &= 0xfc
	reverse(rBytes)
	r := new(big.Int).SetBytes(rBytes)

	sBytes := make([]byte, 16)
	copy(sBytes, key[16:32])
	reverse(sBytes)
	s := new(big.Int).SetBytes(sBytes)

	acc := new(big.Int)
	block := make([]byte, 17)

	for len(msg) > 0 {
		n := 16
		if len(msg) < 16 {
			n = len(msg)
		}
		for i := range block {
			block[i] = 0
		}
		// little-endian block with an appended 0x01 byte, per RFC 7539.
		copy(block[:n], msg[:n])
		block[n] = 0x01

		le := make([]byte, n+1)
		copy(le, block[:n+1])
		reverse(le)
		c := new(big.Int).SetBytes(le)

		acc.Add(acc, c)
		acc.Mul(acc, r)
		acc.Mod(acc, p1305)

		msg = msg[n:]
	}

	acc.Add(acc, s)

	var tagBytes [16]byte
	// reduce mod 2^128 by taking the low 128 bits, little-endian.
	mod128 := new(big.Int).Lsh(big.NewInt(1), 128)
	acc.Mod(acc, mod128)
	b := acc.Bytes()
	// b is big-endian, right-aligned; place into the high end then reverse.
	copy(tagBytes[16-len(b):], b)
	reverse(tagBytes[:])

	return tagBytes
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
