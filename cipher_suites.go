// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls

import (
	"io"

	"github.com/paymentlogs/mintls/internal/p256"
)

// keyAgreement implements the client side of a TLS key agreement
// protocol: turning the server's ServerKeyExchange parameters into a
// shared secret, and producing the bytes this client sends back in its
// own ClientKeyExchange.
//
// This client only ever negotiates one suite, so there is exactly one
// implementation (ecdheRSAKeyAgreement) below; the interface boundary is
// kept anyway so handshake_client.go doesn't read like it could never
// grow a second suite.
type keyAgreement interface {
	// processServerKeyExchange parses the ServerKeyExchange body, derives
	// the shared premaster secret using a freshly generated ephemeral
	// scalar, and returns that secret along with the client's own public
	// point to send back.
	processServerKeyExchange(rand io.Reader, ske *serverKeyExchangeMsg) (premasterSecret, clientPublic []byte, err error)
}

// cipherSuite describes the single suite this client offers and accepts:
// TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256.
type cipherSuite struct {
	id     uint16
	keyLen int
	ka     func() keyAgreement
}

var pinnedCipherSuite = &cipherSuite{
	id:     cipherSuiteECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	keyLen: writeKeyLen,
	ka:     func() keyAgreement { return &ecdheRSAKeyAgreement{} },
}

// ecdheRSAKeyAgreement implements keyAgreement for
// TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256. The server's signature over
// its ephemeral key is present on the wire but is never verified here:
// this client performs no trust-chain validation.
type ecdheRSAKeyAgreement struct{}

func (ka *ecdheRSAKeyAgreement) processServerKeyExchange(rand io.Reader, ske *serverKeyExchangeMsg) (premasterSecret, clientPublic []byte, err error) {
	if ske.curveID != curveSecp256r1 {
		return nil, nil, newError(IllegalParameter, "unsupported named curve %#04x", ske.curveID)
	}
	if len(ske.publicKey) != p256.PointSize || ske.publicKey[0] != 0x04 {
		return nil, nil, newError(DecodeError, "malformed ECDHE public point")
	}

	scalar, err := p256.GenerateScalar(rand)
	if err != nil {
		return nil, nil, wrapError(InternalError, err, "sampling ephemeral P-256 scalar")
	}

	secret, err := p256.SharedSecret(ske.publicKey, scalar)
	if err != nil {
		return nil, nil, wrapError(DecodeError, err, "computing ECDHE shared secret")
	}

	clientPublic = p256.ScalarBaseMult(scalar)
	return secret, clientPublic, nil
}
