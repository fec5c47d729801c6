package mintls

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 4231 test case 1.
func TestHMACSHA256Vector(t *testing.T) {
	key := bytes.Repeat([]byte{0x0b}, 20)
	data := []byte("Hi There")

	want, err := hex.DecodeString("b0344c61d8db38535ca8afceaf0bf12b881dc200c9833da726e9376c2e32cff7")
	require.NoError(t, err)

	got := hmacSHA256(key, data)
	assert.Equal(t, want, got)
}

// The widely-reproduced P_SHA256 known-answer test circulated on the IETF
// TLS list for RFC 5246 §5 (100 bytes of output under the label
// "test label").
func TestPSHA256KnownAnswer(t *testing.T) {
	secret, err := hex.DecodeString("9bbe436ba940f017b17652849a71db35")
	require.NoError(t, err)
	seed, err := hex.DecodeString("a0ba9f936cda311827a6f796ffd5198c")
	require.NoError(t, err)

	want, err := hex.DecodeString(
		"e3f229ba727be17b8d122620557cd453c2aab21d07c3d495329b52d4e61edb5a" +
			"6b301791e90d35c9c9a46b4e14baf9af0fa022f7077def17abfd3797c0564bab" +
			"4fbc91666e9def9b97fca6699366c42e339d8eab9dbdb6a8d8f8570bc6e0dff9" +
			"33a676a70680c8f814eb7ae95fc8777736ae01e1d16ef0dff97c44538d5c2f9b")
	require.NoError(t, err)

	got := prf(secret, "test label", seed, 100)
	assert.Equal(t, want, got)
}

func TestPRFDeterministic(t *testing.T) {
	secret := []byte("secret")
	seed := []byte("seed-value")

	a := prf(secret, "master secret", seed, 48)
	b := prf(secret, "master secret", seed, 48)
	assert.Equal(t, a, b)

	c := prf(secret, "key expansion", seed, 48)
	assert.NotEqual(t, a, c)

	d := prf([]byte("other-secret"), "master secret", seed, 48)
	assert.NotEqual(t, a, d)
}

func TestPRFLongerOutputIsPrefixStable(t *testing.T) {
	secret := []byte("s3cr3t")
	seed := []byte("some-seed")

	short := prf(secret, "client finished", seed, 12)
	long := prf(secret, "client finished", seed, 48)

	assert.Equal(t, short, long[:12])
}
