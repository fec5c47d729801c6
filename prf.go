package mintls

import (
	"bytes"

	"github.com/paymentlogs/mintls/internal/sha256"
)

// hmacSHA256 computes HMAC-SHA-256(key, data) per RFC 2104, built directly
// on this module's own sha256 package rather than crypto/hmac, so the
// handshake's trust chain of primitives stays entirely in-house.
func hmacSHA256(key, data []byte) []byte {
	const blockSize = sha256.BlockSize

	if len(key) > blockSize {
		sum := sha256.Sum256(key)
		key = sum[:]
	}
	padded := make([]byte, blockSize)
	copy(padded, key)

	ipad := make([]byte, blockSize)
	opad := make([]byte, blockSize)
	for i := 0; i < blockSize; i++ {
		ipad[i] = padded[i] ^ 0x36
		opad[i] = padded[i] ^ 0x5c
	}

	inner := sha256.New()
	inner.Write(ipad)
	inner.Write(data)
	innerSum := inner.Sum(nil)

	outer := sha256.New()
	outer.Write(opad)
	outer.Write(innerSum)
	return outer.Sum(nil)
}

// prfSHA256 implements P_SHA256(secret, seed), the TLS 1.2 PRF expansion
// function (RFC 5246 §5), truncated to n bytes:
//
//	A(0) = seed
//	A(i) = HMAC(secret, A(i-1))
//	P_SHA256(secret, seed) = HMAC(secret, A(1) || seed) || HMAC(secret, A(2) || seed) || ...
func prfSHA256(secret, seed []byte, n int) []byte {
	out := make([]byte, 0, n)
	a := seed
	for len(out) < n {
		a = hmacSHA256(secret, a)
		out = append(out, hmacSHA256(secret, concat(a, seed))...)
	}
	return out[:n]
}

func concat(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.Write(p)
	}
	return buf.Bytes()
}

// prf computes P_SHA256(secret, label || seed)(n), the labeled PRF used
// throughout the TLS 1.2 key schedule.
func prf(secret []byte, label string, seed []byte, n int) []byte {
	return prfSHA256(secret, concat([]byte(label), seed), n)
}
