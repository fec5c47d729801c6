package x509min

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The helpers below hand-encode DER the standard way (short-form lengths
// below 128 bytes, long form above; the outer certificate Sequence of every
// fixture needs the long form) so this test exercises ParseCertificate
// against an independently built wire encoding rather than bytes produced
// by der.go itself.

func tlv(tag byte, content []byte) []byte {
	out := []byte{tag}
	out = append(out, encLen(len(content))...)
	out = append(out, content...)
	return out
}

func encLen(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var b []byte
	for v := n; v > 0; v >>= 8 {
		b = append([]byte{byte(v)}, b...)
	}
	return append([]byte{byte(0x80 | len(b))}, b...)
}

func seq(children ...[]byte) []byte {
	var content []byte
	for _, c := range children {
		content = append(content, c...)
	}
	return tlv(0x30, content)
}

func set(children ...[]byte) []byte {
	var content []byte
	for _, c := range children {
		content = append(content, c...)
	}
	return tlv(0x31, content)
}

func integer(b []byte) []byte { return tlv(0x02, b) }
func oid(arcs ...uint64) []byte {
	content := []byte{byte(arcs[0]*40 + arcs[1])}
	for _, a := range arcs[2:] {
		content = append(content, base128(a)...)
	}
	return tlv(0x06, content)
}
func base128(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var groups []byte
	for v > 0 {
		groups = append([]byte{byte(v & 0x7f)}, groups...)
		v >>= 7
	}
	for i := 0; i < len(groups)-1; i++ {
		groups[i] |= 0x80
	}
	return groups
}
func null() []byte               { return tlv(0x05, nil) }
func utf8String(s string) []byte { return tlv(0x0c, []byte(s)) }
func printableString(s string) []byte { return tlv(0x13, []byte(s)) }
func utcTime(s string) []byte    { return tlv(0x17, []byte(s)) }
func bitString(unused byte, b []byte) []byte {
	return tlv(0x03, append([]byte{unused}, b...))
}
func octetString(b []byte) []byte { return tlv(0x04, b) }
func explicitCtx(tag byte, inner []byte) []byte {
	return tlv(0xA0|tag, inner)
}
func implicitCtxPrimitive(tag byte, content []byte) []byte {
	return tlv(0x80|tag, content)
}

func attr(oidArcs []uint64, value []byte) []byte {
	return seq(oid(oidArcs...), value)
}

var rsaEncryption = []uint64{1, 2, 840, 113549, 1, 1, 1}
var sha256WithRSA = []uint64{1, 2, 840, 113549, 1, 1, 11}
var commonName = []uint64{2, 5, 4, 3}

func algID(arcs []uint64) []byte {
	return seq(oid(arcs...), null())
}

func buildCertificate(version int, exts []byte) []byte {
	var versionField []byte
	if version != 1 {
		versionField = explicitCtx(0, integer([]byte{byte(version - 1)}))
	}

	name := seq(set(attr(commonName, printableString("example.test"))))

	tbs := []byte{}
	tbs = append(tbs, versionField...)
	tbs = append(tbs, integer([]byte{0x01})...)
	tbs = append(tbs, algID(sha256WithRSA)...)
	tbs = append(tbs, name...) // issuer
	tbs = append(tbs, seq(utcTime("250101000000Z"), utcTime("260101000000Z"))...) // validity
	tbs = append(tbs, name...)                                                   // subject
	tbs = append(tbs, seq(algID(rsaEncryption), bitString(0, []byte{0x00, 0x01, 0x02}))...) // SPKI
	if version == 3 && exts != nil {
		tbs = append(tbs, explicitCtx(3, seq(exts))...)
	}
	tbsSeq := seq(tbs)

	cert := seq(tbsSeq, algID(sha256WithRSA), bitString(0, []byte{0xAA, 0xBB}))
	return cert
}

func TestParseCertificateV1(t *testing.T) {
	raw := buildCertificate(1, nil)
	cert, err := ParseCertificate(raw)
	require.NoError(t, err)

	assert.Equal(t, V1, cert.TBSCertificate.Version)
	assert.Equal(t, []byte{0x01}, cert.TBSCertificate.SerialNumber)
	require.Len(t, cert.TBSCertificate.Issuer.Attributes, 1)
	assert.Equal(t, "example.test", cert.TBSCertificate.Issuer.Attributes[0].Value)
	assert.Equal(t, []byte("250101000000Z"), cert.TBSCertificate.Validity.NotBeforeRaw)
	assert.True(t, cert.TBSCertificate.Validity.NotBefore.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cert.TBSCertificate.Validity.NotAfter.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, cert.TBSCertificate.SubjectPublicKeyInfo.SubjectPublicKey)
	assert.Equal(t, []byte{0xAA, 0xBB}, cert.SignatureValue)

	require.NoError(t, cert.TBSCertificate.Validity.CheckValidity(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Error(t, cert.TBSCertificate.Validity.CheckValidity(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Error(t, cert.TBSCertificate.Validity.CheckValidity(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestUTCTimeTwoDigitYearRule(t *testing.T) {
	// RFC 5280 §4.1.2.5.1: YY >= 50 maps to 19YY, otherwise 20YY.
	t19, err := parseUTCTime([]byte("500101000000Z"))
	require.NoError(t, err)
	assert.True(t, t19.Equal(time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)))

	t20, err := parseUTCTime([]byte("490101000000Z"))
	require.NoError(t, err)
	assert.True(t, t20.Equal(time.Date(2049, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, err = parseUTCTime([]byte("2501010000Z"))
	assert.Error(t, err, "UTCTime without seconds must be rejected")
}

func TestParseCertificateV3WithExtension(t *testing.T) {
	ext := seq(oid(2, 5, 29, 17), octetString([]byte{0x30, 0x00}))
	raw := buildCertificate(3, ext)
	cert, err := ParseCertificate(raw)
	require.NoError(t, err)

	assert.Equal(t, V3, cert.TBSCertificate.Version)
	require.Len(t, cert.TBSCertificate.Extensions, 1)
	assert.Equal(t, []uint64{2, 5, 29, 17}, cert.TBSCertificate.Extensions[0].ID)
	assert.False(t, cert.TBSCertificate.Extensions[0].Critical)
}

func TestParseCertificateRejectsSignatureAlgorithmMismatch(t *testing.T) {
	name := seq(set(attr(commonName, printableString("example.test"))))
	tbs := seq(
		integer([]byte{0x01}),
		algID(sha256WithRSA),
		name,
		seq(utcTime("250101000000Z"), utcTime("260101000000Z")),
		name,
		seq(algID(rsaEncryption), bitString(0, []byte{0x00})),
	)
	cert := seq(tbs, algID(rsaEncryption), bitString(0, []byte{0xAA}))

	_, err := ParseCertificate(cert)
	assert.Error(t, err)
}

func TestParseCertificateRejectsTrailingBytes(t *testing.T) {
	raw := buildCertificate(1, nil)
	raw = append(raw, 0x00)

	_, err := ParseCertificate(raw)
	assert.Error(t, err)
}
