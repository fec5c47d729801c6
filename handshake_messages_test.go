package mintls

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientHelloMarshal(t *testing.T) {
	ch := &clientHelloMsg{random: bytes.Repeat([]byte{0x11}, clientRandomLen)}
	raw := ch.marshal()

	assert.Equal(t, byte(handshakeTypeClientHello), raw[0])
	length := int(raw[1])<<16 | int(raw[2])<<8 | int(raw[3])
	assert.Equal(t, len(raw)-4, length)

	body := raw[4:]
	assert.Equal(t, tlsVersion12.major, body[0])
	assert.Equal(t, tlsVersion12.minor, body[1])
	assert.Equal(t, ch.random, body[2:34])
	assert.Equal(t, byte(0), body[34]) // empty session id
}

func TestServerHelloUnmarshal(t *testing.T) {
	body := []byte{3, 3}
	body = append(body, bytes.Repeat([]byte{0x22}, 32)...)
	body = append(body, 0) // session id len
	body = append(body, byte(cipherSuiteECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256>>8), byte(cipherSuiteECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256&0xff))
	body = append(body, compressionMethodNull)

	sh := &serverHelloMsg{}
	require.NoError(t, sh.unmarshal(body))
	assert.Equal(t, bytes.Repeat([]byte{0x22}, 32), sh.random)
	assert.Equal(t, cipherSuiteECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256, sh.cipherSuite)
}

func TestServerHelloUnmarshalRejectsWrongVersion(t *testing.T) {
	body := []byte{3, 0}
	body = append(body, bytes.Repeat([]byte{0x22}, 32)...)
	body = append(body, 0, 0, 0, 0)

	sh := &serverHelloMsg{}
	err := sh.unmarshal(body)
	require.Error(t, err)
	assert.Equal(t, IllegalParameter, err.(*Error).Kind)
}

func TestCertificateMessageRoundTrip(t *testing.T) {
	cert1 := []byte("fake-der-cert-one")
	cert2 := []byte("fake-der-cert-two")

	var body []byte
	var list []byte
	for _, c := range [][]byte{cert1, cert2} {
		list = append(list, byte(len(c)>>16), byte(len(c)>>8), byte(len(c)))
		list = append(list, c...)
	}
	body = append(body, byte(len(list)>>16), byte(len(list)>>8), byte(len(list)))
	body = append(body, list...)

	cm := &certificateMsg{}
	require.NoError(t, cm.unmarshal(body))
	require.Len(t, cm.certificates, 2)
	assert.Equal(t, cert1, cm.certificates[0])
	assert.Equal(t, cert2, cm.certificates[1])
}

func TestServerKeyExchangeUnmarshal(t *testing.T) {
	pub := append([]byte{0x04}, bytes.Repeat([]byte{0x55}, 64)...)
	sig := []byte("signature-bytes")

	body := []byte{3} // named_curve
	body = append(body, byte(curveSecp256r1>>8), byte(curveSecp256r1))
	body = append(body, byte(len(pub)))
	body = append(body, pub...)
	body = append(body, 0x04, 0x01) // sig_hash_alg, arbitrary
	body = append(body, byte(len(sig)>>8), byte(len(sig)))
	body = append(body, sig...)

	ske := &serverKeyExchangeMsg{}
	require.NoError(t, ske.unmarshal(body))
	assert.Equal(t, curveSecp256r1, ske.curveID)
	assert.Equal(t, pub, ske.publicKey)
	assert.Equal(t, sig, ske.signature)
}

func TestClientKeyExchangeMarshal(t *testing.T) {
	pub := append([]byte{0x04}, bytes.Repeat([]byte{0x99}, 64)...)
	cke := &clientKeyExchangeMsg{publicKey: pub}
	raw := cke.marshal()

	assert.Equal(t, byte(handshakeTypeClientKeyExchange), raw[0])
	body := raw[4:]
	assert.Equal(t, byte(len(pub)), body[0])
	assert.Equal(t, pub, body[1:])
}

func TestFinishedRoundTrip(t *testing.T) {
	vd := bytes.Repeat([]byte{0x7}, verifyDataLen)
	fin := &finishedMsg{verifyData: vd}
	raw := fin.marshal()

	got := &finishedMsg{}
	require.NoError(t, got.unmarshal(raw[4:]))
	assert.Equal(t, vd, got.verifyData)
}

func TestFinishedUnmarshalRejectsWrongLength(t *testing.T) {
	got := &finishedMsg{}
	err := got.unmarshal(bytes.Repeat([]byte{0x1}, 11))
	require.Error(t, err)
	assert.Equal(t, DecodeError, err.(*Error).Kind)
}
