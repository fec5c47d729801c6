// Package mintls implements the core of a minimal TLS 1.2 client: a single
// pinned cipher suite (ECDHE over P-256, server RSA authentication,
// ChaCha20-Poly1305, SHA-256), the record layer, the handshake state
// machine, and the DER/X.509 decoding needed to read the server's leaf
// certificate. Certificate trust validation, hostname matching, session
// resumption, renegotiation, and additional cipher suites are out of
// scope; see DESIGN.md.
package mintls

// protocolVersion is the two-byte {major, minor} TLS version field. This
// client only ever emits and accepts {3, 3} (TLS 1.2).
type protocolVersion struct {
	major, minor uint8
}

var tlsVersion12 = protocolVersion{3, 3}

func (v protocolVersion) isTLS12() bool {
	return v.major == 3 && v.minor == 3
}

// contentType is the TLS record-layer content type (RFC 5246 §6.2.1).
type contentType uint8

const (
	contentTypeChangeCipherSpec contentType = 20
	contentTypeAlert            contentType = 21
	contentTypeHandshake        contentType = 22
	contentTypeApplicationData  contentType = 23
)

// handshakeType is the 1-byte handshake message type (RFC 5246 §7.4).
type handshakeType uint8

const (
	handshakeTypeClientHello       handshakeType = 1
	handshakeTypeServerHello       handshakeType = 2
	handshakeTypeCertificate       handshakeType = 11
	handshakeTypeServerKeyExchange handshakeType = 12
	handshakeTypeServerHelloDone   handshakeType = 14
	handshakeTypeClientKeyExchange handshakeType = 16
	handshakeTypeFinished          handshakeType = 20
)

// The single pinned cipher suite and its associated wire constants.
const (
	cipherSuiteECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256 uint16 = 0xCCA8

	curveSecp256r1 uint16 = 0x0017

	ecPointFormatUncompressed uint8 = 0

	compressionMethodNull uint8 = 0
)

// extension type identifiers used by this client (RFC 4492 / RFC 5246).
const (
	extensionSupportedEllipticCurves uint16 = 10
	extensionECPointFormats          uint16 = 11
)

const (
	// maxPlaintextRecordLen is the largest allowed plaintext payload
	// (2^14 bytes, RFC 5246 §6.2.1).
	maxPlaintextRecordLen = 1 << 14
	// maxCiphertextRecordLen is the largest allowed record payload once
	// AEAD sealed (2^14 + 2048 bytes, RFC 5246 §6.2.3).
	maxCiphertextRecordLen = 1<<14 + 2048

	// recordHeaderLen is the size of the 5-byte record header: 1 content
	// type byte, 2 version bytes, 2 length bytes.
	recordHeaderLen = 5

	// masterSecretLen, writeKeyLen and verifyDataLen are fixed by the pinned
	// suite.
	masterSecretLen = 48
	writeKeyLen     = 32
	verifyDataLen   = 12

	clientRandomLen = 32
)
