// Package chachapoly implements the ChaCha20-Poly1305 AEAD construction of
// RFC 7539 §2.8 / RFC 7905, built on this module's own chacha20 and
// poly1305 packages rather than golang.org/x/crypto/chacha20poly1305.
package chachapoly

import (
	"crypto/subtle"

	"github.com/paymentlogs/mintls/internal/chacha20"
	"github.com/paymentlogs/mintls/internal/poly1305"
)

// KeySize is the AEAD key size in bytes.
const KeySize = chacha20.KeySize

// NonceSize is the AEAD nonce size in bytes.
const NonceSize = chacha20.NonceSize

// Overhead is the size in bytes of the authentication tag appended to the
// ciphertext.
const Overhead = poly1305.TagSize

// AEAD seals and opens messages under a single fixed 32-byte key.
type AEAD struct {
	key [KeySize]byte
}

// New returns an AEAD bound to the given 32-byte key.
func New(key []byte) *AEAD {
	if len(key) != KeySize {
		panic("chachapoly: bad key length")
	}
	a := &AEAD{}
	copy(a.key[:], key)
	return a
}

func pad16(n int) int {
	if n%16 == 0 {
		return 0
	}
	return 16 - n%16
}

func leUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}

// otk derives the one-time Poly1305 key from ChaCha20 block 0 under nonce.
func (a *AEAD) otk(nonce []byte) []byte {
	c := chacha20.New(a.key[:], nonce, 0)
	return c.KeyStream(64)[:32]
}

func macInput(aad, ciphertext []byte) []byte {
	buf := make([]byte, 0, len(aad)+pad16(len(aad))+len(ciphertext)+pad16(len(ciphertext))+16)
	buf = append(buf, aad...)
	buf = append(buf, make([]byte, pad16(len(aad)))...)
	buf = append(buf, ciphertext...)
	buf = append(buf, make([]byte, pad16(len(ciphertext)))...)
	buf = append(buf, leUint64(uint64(len(aad)))...)
	buf = append(buf, leUint64(uint64(len(ciphertext)))...)
	return buf
}

// Seal encrypts and authenticates plaintext under nonce and aad, returning
// ciphertext || tag.
func (a *AEAD) Seal(nonce, aad, plaintext []byte) []byte {
	if len(nonce) != NonceSize {
		panic("chachapoly: bad nonce length")
	}

	otk := a.otk(nonce)

	enc := chacha20.New(a.key[:], nonce, 1)
	ciphertext := make([]byte, len(plaintext))
	enc.XORKeyStream(ciphertext, plaintext)

	tag := poly1305.Sum(otk, macInput(aad, ciphertext))

	out := make([]byte, len(ciphertext)+Overhead)
	copy(out, ciphertext)
	copy(out[len(ciphertext):], tag[:])
	return out
}

// ErrAuth is returned by Open when the authentication tag does not match.
type ErrAuth struct{}

func (ErrAuth) Error() string { return "chachapoly: message authentication failed" }

// Open verifies and decrypts sealed (ciphertext || tag) under nonce and
// aad. The tag comparison is constant-time.
func (a *AEAD) Open(nonce, aad, sealed []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		panic("chachapoly: bad nonce length")
	}
	if len(sealed) < Overhead {
		return nil, ErrAuth{}
	}

	ciphertext := sealed[:len(sealed)-Overhead]
	gotTag := sealed[len(sealed)-Overhead:]

	otk := a.otk(nonce)
	wantTag := poly1305.Sum(otk, macInput(aad, ciphertext))

	if subtle.ConstantTimeCompare(wantTag[:], gotTag) != 1 {
		return nil, ErrAuth{}
	}

	dec := chacha20.New(a.key[:], nonce, 1)
	plaintext := make([]byte, len(ciphertext))
	dec.XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}
