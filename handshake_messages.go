package mintls

import "encoding/binary"

// marshalHandshakeMessage prepends the 4-byte handshake header (1-byte
// type, 3-byte big-endian length) to body, producing the raw bytes that go
// on the wire and into the transcript hash.
func marshalHandshakeMessage(ht handshakeType, body []byte) []byte {
	out := make([]byte, 4+len(body))
	out[0] = byte(ht)
	out[1] = byte(len(body) >> 16)
	out[2] = byte(len(body) >> 8)
	out[3] = byte(len(body))
	copy(out[4:], body)
	return out
}

// clientHelloMsg is the ClientHello this client always sends: one cipher
// suite offered, the supported_elliptic_curves and ec_point_formats
// extensions naming P-256 and uncompressed points.
type clientHelloMsg struct {
	random []byte // 32 bytes, the client_random handshake input
}

func (m *clientHelloMsg) marshal() []byte {
	body := make([]byte, 0, 2+32+1+2+2+1+1+2+6+2+5)
	body = append(body, tlsVersion12.major, tlsVersion12.minor)
	body = append(body, m.random...)
	body = append(body, 0) // session_id: empty

	body = append(body, 0, 2) // cipher_suites length
	body = append(body, byte(cipherSuiteECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256>>8), byte(cipherSuiteECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256&0xff))

	body = append(body, 1, compressionMethodNull) // compression_methods

	curvesExt := []byte{
		byte(extensionSupportedEllipticCurves >> 8), byte(extensionSupportedEllipticCurves),
		0, 4, // extension_data length
		0, 2, // elliptic_curve_list length
		byte(curveSecp256r1 >> 8), byte(curveSecp256r1),
	}
	pointFmtExt := []byte{
		byte(extensionECPointFormats >> 8), byte(extensionECPointFormats),
		0, 2, // extension_data length
		1, ecPointFormatUncompressed, // ec_point_format_list length + format
	}
	extensions := append(curvesExt, pointFmtExt...)

	body = append(body, byte(len(extensions)>>8), byte(len(extensions)))
	body = append(body, extensions...)

	return marshalHandshakeMessage(handshakeTypeClientHello, body)
}

// serverHelloMsg is the server's ServerHello. This client ignores session
// ID resumption and only checks that the server selected the one suite
// it offered.
type serverHelloMsg struct {
	random      []byte
	sessionID   []byte
	cipherSuite uint16
}

func (m *serverHelloMsg) unmarshal(body []byte) error {
	if len(body) < 2+32+1 {
		return newError(DecodeError, "ServerHello too short")
	}
	vers := protocolVersion{body[0], body[1]}
	if !vers.isTLS12() {
		return newError(IllegalParameter, "server selected version %d.%d", vers.major, vers.minor)
	}
	m.random = append([]byte(nil), body[2:34]...)

	sessIDLen := int(body[34])
	p := 35
	if len(body) < p+sessIDLen+2+1 {
		return newError(DecodeError, "ServerHello truncated at session_id")
	}
	m.sessionID = append([]byte(nil), body[p:p+sessIDLen]...)
	p += sessIDLen

	m.cipherSuite = binary.BigEndian.Uint16(body[p : p+2])
	p += 2
	if body[p] != compressionMethodNull {
		return newError(IllegalParameter, "server selected compression method %d", body[p])
	}
	p++

	// Remaining bytes, if any, are the optional extensions block; this
	// client does not need anything from it.
	_ = p
	return nil
}

// certificateMsg carries the server's certificate_list: a chain of DER
// certificates, of which only the leaf (first entry) is decoded.
type certificateMsg struct {
	certificates [][]byte
}

func (m *certificateMsg) unmarshal(body []byte) error {
	if len(body) < 3 {
		return newError(DecodeError, "Certificate message too short")
	}
	listLen := int(body[0])<<16 | int(body[1])<<8 | int(body[2])
	if 3+listLen != len(body) {
		return newError(DecodeError, "Certificate message length mismatch")
	}
	p := 3
	end := 3 + listLen
	var certs [][]byte
	for p < end {
		if end-p < 3 {
			return newError(DecodeError, "Certificate entry truncated")
		}
		certLen := int(body[p])<<16 | int(body[p+1])<<8 | int(body[p+2])
		p += 3
		if end-p < certLen {
			return newError(DecodeError, "Certificate entry exceeds list bounds")
		}
		certs = append(certs, append([]byte(nil), body[p:p+certLen]...))
		p += certLen
	}
	if len(certs) == 0 {
		return newError(DecodeError, "Certificate message carries no certificates")
	}
	m.certificates = certs
	return nil
}

// serverKeyExchangeMsg carries the server's ephemeral ECDHE public point
// plus an opaque signature over it (RFC 4492 §5.4). The signature is
// parsed only far enough to know its length; it is never cryptographically
// checked.
type serverKeyExchangeMsg struct {
	curveID    uint16
	publicKey  []byte
	sigHashAlg uint16
	signature  []byte
}

const (
	ecCurveTypeNamed uint8 = 3
)

func (m *serverKeyExchangeMsg) unmarshal(body []byte) error {
	if len(body) < 1+2+1 {
		return newError(DecodeError, "ServerKeyExchange too short")
	}
	if body[0] != ecCurveTypeNamed {
		return newError(IllegalParameter, "unsupported EC curve type %d", body[0])
	}
	m.curveID = binary.BigEndian.Uint16(body[1:3])

	pubLen := int(body[3])
	p := 4
	if len(body) < p+pubLen {
		return newError(DecodeError, "ServerKeyExchange truncated at public point")
	}
	m.publicKey = append([]byte(nil), body[p:p+pubLen]...)
	p += pubLen

	if len(body) < p+2+2 {
		return newError(DecodeError, "ServerKeyExchange truncated at signature header")
	}
	m.sigHashAlg = binary.BigEndian.Uint16(body[p : p+2])
	p += 2
	sigLen := int(binary.BigEndian.Uint16(body[p : p+2]))
	p += 2
	if len(body) < p+sigLen {
		return newError(DecodeError, "ServerKeyExchange truncated at signature")
	}
	m.signature = append([]byte(nil), body[p:p+sigLen]...)
	p += sigLen

	if p != len(body) {
		return newError(DecodeError, "ServerKeyExchange has trailing bytes")
	}
	return nil
}

// serverHelloDoneMsg has an empty body (RFC 5246 §7.4.5).
type serverHelloDoneMsg struct{}

func (m *serverHelloDoneMsg) unmarshal(body []byte) error {
	if len(body) != 0 {
		return newError(DecodeError, "ServerHelloDone carries a non-empty body")
	}
	return nil
}

// clientKeyExchangeMsg carries the client's own ECDHE public point
// (RFC 4492 §5.7, explicit encoding).
type clientKeyExchangeMsg struct {
	publicKey []byte
}

func (m *clientKeyExchangeMsg) marshal() []byte {
	body := make([]byte, 0, 1+len(m.publicKey))
	body = append(body, byte(len(m.publicKey)))
	body = append(body, m.publicKey...)
	return marshalHandshakeMessage(handshakeTypeClientKeyExchange, body)
}

// finishedMsg carries the 12-byte verify_data (RFC 5246 §7.4.9).
type finishedMsg struct {
	verifyData []byte
}

func (m *finishedMsg) marshal() []byte {
	return marshalHandshakeMessage(handshakeTypeFinished, m.verifyData)
}

func (m *finishedMsg) unmarshal(body []byte) error {
	if len(body) != verifyDataLen {
		return newError(DecodeError, "Finished verify_data has length %d, want %d", len(body), verifyDataLen)
	}
	m.verifyData = append([]byte(nil), body...)
	return nil
}
