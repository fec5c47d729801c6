package chacha20

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 7539 §2.3.2 test vector.
func TestBlockVector(t *testing.T) {
	key, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	nonce, err := hex.DecodeString("000000090000004a00000000")
	require.NoError(t, err)

	c := New(key, nonce, 1)
	var block [BlockSize]byte
	c.block(1, &block)

	want, err := hex.DecodeString(
		"10f1e7e4d13b5915500fdd1fa32071c4c7d1f4c733c068030422aa9ac3d46c4" +
			"ed2826446079faa0914c2d705d98b02a2b5129cd1de164eb9cbd083e8a2503c4e")
	require.NoError(t, err)

	assert.Equal(t, want, block[:])
}

func TestXORKeyStreamRoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	nonce := make([]byte, NonceSize)
	for i := range key {
		key[i] = byte(i)
	}
	for i := range nonce {
		nonce[i] = byte(i + 1)
	}

	plaintext := []byte("the quick brown fox jumps over the lazy dog, twice for good measure")

	enc := New(key, nonce, 0)
	ciphertext := make([]byte, len(plaintext))
	enc.XORKeyStream(ciphertext, plaintext)

	dec := New(key, nonce, 0)
	roundTrip := make([]byte, len(ciphertext))
	dec.XORKeyStream(roundTrip, ciphertext)

	assert.Equal(t, plaintext, roundTrip)
	assert.NotEqual(t, plaintext, ciphertext)
}
