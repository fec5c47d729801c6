// Package x509min decodes just enough of an X.509 leaf certificate (RFC
// 5280) to hand a TLS client its subject, validity window, and public key
// material. It never validates a signature or a trust chain.
package x509min

import (
	"fmt"
	"time"

	"github.com/paymentlogs/mintls/internal/der"
)

// AlgorithmIdentifier is an OID plus DER-opaque parameters. Only the
// signature/public-key algorithms this client cares about are named; any
// other OID is kept as-is in OID for equality comparisons (the
// signatureAlgorithm/tbsCertificate.signature cross-check only needs OID
// equality, never semantic understanding of the algorithm).
type AlgorithmIdentifier struct {
	OID    []uint64
	Params der.Element // Null in every algorithm this client expects; kept raw otherwise
}

func (a AlgorithmIdentifier) equalOID(b AlgorithmIdentifier) bool {
	if len(a.OID) != len(b.OID) {
		return false
	}
	for i := range a.OID {
		if a.OID[i] != b.OID[i] {
			return false
		}
	}
	return true
}

// Well-known OIDs this client recognizes (RFC 3279, RFC 4055); unrecognized
// OIDs are preserved in AlgorithmIdentifier.OID without error.
var (
	OIDRSAEncryption           = []uint64{1, 2, 840, 113549, 1, 1, 1}
	OIDSHA256WithRSAEncryption = []uint64{1, 2, 840, 113549, 1, 1, 11}
	OIDSHA384WithRSAEncryption = []uint64{1, 2, 840, 113549, 1, 1, 12}
	OIDSHA512WithRSAEncryption = []uint64{1, 2, 840, 113549, 1, 1, 13}
)

func parseAlgorithmIdentifier(e der.Element) (AlgorithmIdentifier, error) {
	if e.Kind != der.KindSequence || len(e.Children) < 1 {
		return AlgorithmIdentifier{}, fmt.Errorf("x509: AlgorithmIdentifier must be a non-empty Sequence")
	}
	oidElem := e.Children[0]
	if oidElem.Kind != der.KindObjectIdentifier {
		return AlgorithmIdentifier{}, fmt.Errorf("x509: AlgorithmIdentifier.algorithm must be an OID")
	}
	ai := AlgorithmIdentifier{OID: oidElem.OID}
	if len(e.Children) >= 2 {
		ai.Params = e.Children[1]
	}
	return ai, nil
}

// AttributeTypeAndValue is one entry of a Name's RDNSequence (RFC 5280
// §4.1.2.4): an attribute OID and its value rendered as a string when the
// DER string kind supports it.
type AttributeTypeAndValue struct {
	Type  []uint64
	Value string
}

// Name is a parsed RDNSequence: an ordered list of (possibly
// multi-valued) relative distinguished names, flattened here into a
// single slice since this client never needs to reconstruct RDN grouping.
type Name struct {
	Attributes []AttributeTypeAndValue
}

func parseName(e der.Element) (Name, error) {
	if e.Kind != der.KindSequence {
		return Name{}, fmt.Errorf("x509: Name must be a Sequence (RDNSequence)")
	}
	var n Name
	for _, rdn := range e.Children {
		if rdn.Kind != der.KindSet {
			return Name{}, fmt.Errorf("x509: RelativeDistinguishedName must be a Set")
		}
		for _, atv := range rdn.Children {
			if atv.Kind != der.KindSequence || len(atv.Children) != 2 {
				return Name{}, fmt.Errorf("x509: AttributeTypeAndValue must be a 2-element Sequence")
			}
			typeElem, valueElem := atv.Children[0], atv.Children[1]
			if typeElem.Kind != der.KindObjectIdentifier {
				return Name{}, fmt.Errorf("x509: AttributeType must be an OID")
			}
			n.Attributes = append(n.Attributes, AttributeTypeAndValue{
				Type:  typeElem.OID,
				Value: stringValue(valueElem),
			})
		}
	}
	return n, nil
}

func stringValue(e der.Element) string {
	switch e.Kind {
	case der.KindUTF8String, der.KindPrintableString, der.KindIA5String:
		return e.Str
	default:
		return ""
	}
}

// Validity is the certificate's notBefore/notAfter window. Per spec.md
// §4.5 item 5, only UTCTime is parsed into a comparable time.Time; a
// GeneralizedTime bound (dates at or after 2050) decodes without error but
// leaves the corresponding time.Time zero, with the raw content bytes kept
// in NotBeforeRaw/NotAfterRaw for callers that want them anyway.
type Validity struct {
	NotBefore, NotAfter       time.Time
	NotBeforeRaw, NotAfterRaw []byte
}

func parseValidity(e der.Element) (Validity, error) {
	if e.Kind != der.KindSequence || len(e.Children) != 2 {
		return Validity{}, fmt.Errorf("x509: Validity must be a 2-element Sequence")
	}
	nb, nbRaw, err := parseTime(e.Children[0])
	if err != nil {
		return Validity{}, fmt.Errorf("x509: notBefore: %w", err)
	}
	na, naRaw, err := parseTime(e.Children[1])
	if err != nil {
		return Validity{}, fmt.Errorf("x509: notAfter: %w", err)
	}
	return Validity{NotBefore: nb, NotAfter: na, NotBeforeRaw: nbRaw, NotAfterRaw: naRaw}, nil
}

// parseTime decodes a Time CHOICE { utcTime UTCTime, generalTime
// GeneralizedTime }. Only UTCTime is turned into a time.Time; a
// GeneralizedTime value is accepted and its raw bytes returned, but t is
// left zero.
func parseTime(e der.Element) (t time.Time, raw []byte, err error) {
	switch e.Kind {
	case der.KindUTCTime:
		t, err = parseUTCTime(e.Bytes)
		if err != nil {
			return time.Time{}, nil, err
		}
		return t, e.Bytes, nil
	case der.KindGeneralizedTime:
		return time.Time{}, e.Bytes, nil
	default:
		return time.Time{}, nil, fmt.Errorf("x509: Time must be UTCTime or GeneralizedTime")
	}
}

// parseUTCTime decodes an RFC 5280 §4.1.2.5.1 UTCTime: the fixed-width
// "YYMMDDHHMMSSZ" profile (seconds and the trailing Z are both mandatory in
// a certificate, unlike generic ASN.1 UTCTime). The two-digit year YY is
// mapped to 19YY for YY >= 50 and 20YY otherwise.
func parseUTCTime(b []byte) (time.Time, error) {
	if len(b) != 13 || b[12] != 'Z' {
		return time.Time{}, fmt.Errorf("der: UTCTime must be 13 bytes in the form YYMMDDHHMMSSZ")
	}
	for _, c := range b[:12] {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("der: UTCTime contains a non-digit")
		}
	}

	yy := twoDigits(b[0:2])
	month := twoDigits(b[2:4])
	day := twoDigits(b[4:6])
	hour := twoDigits(b[6:8])
	minute := twoDigits(b[8:10])
	second := twoDigits(b[10:12])

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 60 {
		return time.Time{}, fmt.Errorf("der: UTCTime field out of range")
	}

	year := 1900 + yy
	if yy < 50 {
		year = 2000 + yy
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

func twoDigits(b []byte) int {
	return int(b[0]-'0')*10 + int(b[1]-'0')
}

// CheckValidity reports whether now falls strictly after NotBefore and
// strictly before NotAfter,
// mirroring the original client's check_validity_time: expired if now has
// reached NotAfter, not yet valid if NotBefore has not yet passed. It
// returns an error if either bound is a GeneralizedTime this core does not
// parse (NotBefore/NotAfter left zero by parseTime above).
func (v Validity) CheckValidity(now time.Time) error {
	if v.NotBefore.IsZero() || v.NotAfter.IsZero() {
		return fmt.Errorf("x509: validity period uses GeneralizedTime, which this core does not parse into a comparable time")
	}
	if !now.Before(v.NotAfter) {
		return fmt.Errorf("x509: certificate has expired: notAfter %s", v.NotAfter)
	}
	if !v.NotBefore.Before(now) {
		return fmt.Errorf("x509: certificate is not yet valid: notBefore %s", v.NotBefore)
	}
	return nil
}

// SubjectPublicKeyInfo carries the raw public key bits; this client never
// needs to interpret them since the RSA signature over the handshake is
// not verified.
type SubjectPublicKeyInfo struct {
	Algorithm        AlgorithmIdentifier
	SubjectPublicKey []byte // BitString content without its leading unused-bit count byte; the count is in UnusedBits below
	UnusedBits       uint8
}

func parseSubjectPublicKeyInfo(e der.Element) (SubjectPublicKeyInfo, error) {
	if e.Kind != der.KindSequence || len(e.Children) != 2 {
		return SubjectPublicKeyInfo{}, fmt.Errorf("x509: SubjectPublicKeyInfo must be a 2-element Sequence")
	}
	alg, err := parseAlgorithmIdentifier(e.Children[0])
	if err != nil {
		return SubjectPublicKeyInfo{}, err
	}
	bs := e.Children[1]
	if bs.Kind != der.KindBitString {
		return SubjectPublicKeyInfo{}, fmt.Errorf("x509: subjectPublicKey must be a BitString")
	}
	return SubjectPublicKeyInfo{Algorithm: alg, SubjectPublicKey: bs.Bytes, UnusedBits: bs.UnusedBits}, nil
}

// Extension is one v3 certificate extension (RFC 5280 §4.2).
type Extension struct {
	ID       []uint64
	Critical bool
	Value    []byte
}

func parseExtensions(e der.Element) ([]Extension, error) {
	if e.Kind != der.KindSequence {
		return nil, fmt.Errorf("x509: Extensions must be a Sequence")
	}
	var exts []Extension
	for _, ext := range e.Children {
		if ext.Kind != der.KindSequence || len(ext.Children) < 2 {
			return nil, fmt.Errorf("x509: Extension must be a Sequence of at least 2 elements")
		}
		idElem := ext.Children[0]
		if idElem.Kind != der.KindObjectIdentifier {
			return nil, fmt.Errorf("x509: Extension.extnID must be an OID")
		}
		i := 1
		critical := false
		if ext.Children[i].Kind == der.KindBoolean {
			critical = ext.Children[i].Bool
			i++
		}
		if i >= len(ext.Children) || ext.Children[i].Kind != der.KindOctetString {
			return nil, fmt.Errorf("x509: Extension.extnValue must be an OctetString")
		}
		exts = append(exts, Extension{ID: idElem.OID, Critical: critical, Value: ext.Children[i].Bytes})
	}
	return exts, nil
}

// CertVersion is the certificate format version (v1, v2, v3 per RFC 5280
// §4.1.2.1). The wire encoding is 0-indexed; CertVersion adds 1 so v1 == 1.
type CertVersion int

const (
	V1 CertVersion = 1
	V2 CertVersion = 2
	V3 CertVersion = 3
)

// TbsCertificate is the signed body of a Certificate.
type TbsCertificate struct {
	Version              CertVersion
	SerialNumber         []byte
	Signature            AlgorithmIdentifier
	Issuer               Name
	Validity             Validity
	Subject              Name
	SubjectPublicKeyInfo SubjectPublicKeyInfo
	IssuerUniqueID       []byte      // nil if absent
	SubjectUniqueID      []byte      // nil if absent
	Extensions           []Extension // nil if absent

	Span [2]int // [start, end) of the tbsCertificate SEQUENCE in the source buffer
}

func parseTbsCertificate(e der.Element) (TbsCertificate, error) {
	children := e.Children
	i := 0
	next := func() (der.Element, bool) {
		if i < len(children) {
			return children[i], true
		}
		return der.Element{}, false
	}

	tbs := TbsCertificate{Version: V1, Span: [2]int{e.Start, e.End}}

	if c, ok := next(); ok && c.Kind == der.KindUnknownConstructed && c.Class == der.ClassContextSpecific && c.Tag == 0 {
		if len(c.Children) != 1 || c.Children[0].Kind != der.KindInteger || len(c.Children[0].Bytes) != 1 {
			return TbsCertificate{}, fmt.Errorf("x509: malformed [0] version field")
		}
		if c.Children[0].Bytes[0] > 2 {
			return TbsCertificate{}, fmt.Errorf("x509: unknown certificate version %d", c.Children[0].Bytes[0])
		}
		tbs.Version = CertVersion(c.Children[0].Bytes[0] + 1)
		i++
	}

	c, ok := next()
	if !ok || c.Kind != der.KindInteger {
		return TbsCertificate{}, fmt.Errorf("x509: serialNumber must be an Integer")
	}
	tbs.SerialNumber = c.Bytes
	i++

	c, ok = next()
	if !ok {
		return TbsCertificate{}, fmt.Errorf("x509: tbsCertificate missing signature")
	}
	sig, err := parseAlgorithmIdentifier(c)
	if err != nil {
		return TbsCertificate{}, err
	}
	tbs.Signature = sig
	i++

	c, ok = next()
	if !ok {
		return TbsCertificate{}, fmt.Errorf("x509: tbsCertificate missing issuer")
	}
	issuer, err := parseName(c)
	if err != nil {
		return TbsCertificate{}, err
	}
	tbs.Issuer = issuer
	i++

	c, ok = next()
	if !ok {
		return TbsCertificate{}, fmt.Errorf("x509: tbsCertificate missing validity")
	}
	validity, err := parseValidity(c)
	if err != nil {
		return TbsCertificate{}, err
	}
	tbs.Validity = validity
	i++

	c, ok = next()
	if !ok {
		return TbsCertificate{}, fmt.Errorf("x509: tbsCertificate missing subject")
	}
	subject, err := parseName(c)
	if err != nil {
		return TbsCertificate{}, err
	}
	tbs.Subject = subject
	i++

	c, ok = next()
	if !ok {
		return TbsCertificate{}, fmt.Errorf("x509: tbsCertificate missing subjectPublicKeyInfo")
	}
	spki, err := parseSubjectPublicKeyInfo(c)
	if err != nil {
		return TbsCertificate{}, err
	}
	tbs.SubjectPublicKeyInfo = spki
	i++

	if tbs.Version == V1 {
		if i != len(children) {
			return TbsCertificate{}, fmt.Errorf("x509: v1 certificate has trailing tbsCertificate fields")
		}
		return tbs, nil
	}

	if c, ok := next(); ok && c.Kind == der.KindUnknownPrimitive && c.Class == der.ClassContextSpecific && c.Tag == 1 {
		tbs.IssuerUniqueID = c.Bytes
		i++
	}
	if c, ok := next(); ok && c.Kind == der.KindUnknownPrimitive && c.Class == der.ClassContextSpecific && c.Tag == 2 {
		tbs.SubjectUniqueID = c.Bytes
		i++
	}
	if tbs.Version == V3 {
		if c, ok := next(); ok && c.Kind == der.KindUnknownConstructed && c.Class == der.ClassContextSpecific && c.Tag == 3 {
			if len(c.Children) != 1 || c.Children[0].Kind != der.KindSequence {
				return TbsCertificate{}, fmt.Errorf("x509: malformed [3] extensions field")
			}
			exts, err := parseExtensions(c.Children[0])
			if err != nil {
				return TbsCertificate{}, err
			}
			tbs.Extensions = exts
			i++
		}
	}

	if i != len(children) {
		return TbsCertificate{}, fmt.Errorf("x509: tbsCertificate has unconsumed trailing fields")
	}
	return tbs, nil
}

// Certificate is a decoded X.509 leaf certificate.
type Certificate struct {
	TBSCertificate     TbsCertificate
	SignatureAlgorithm AlgorithmIdentifier
	SignatureValue     []byte
}

// ParseCertificate decodes a single DER-encoded X.509 certificate. It does
// not verify the signature or any trust chain.
func ParseCertificate(raw []byte) (*Certificate, error) {
	root, err := der.ReadElement(raw)
	if err != nil {
		return nil, err
	}
	if root.End != len(raw) {
		return nil, fmt.Errorf("x509: trailing bytes after certificate")
	}
	if root.Kind != der.KindSequence || len(root.Children) != 3 {
		return nil, fmt.Errorf("x509: Certificate must be a 3-element Sequence")
	}

	tbs, err := parseTbsCertificate(root.Children[0])
	if err != nil {
		return nil, err
	}

	sigAlg, err := parseAlgorithmIdentifier(root.Children[1])
	if err != nil {
		return nil, err
	}
	if !tbs.Signature.equalOID(sigAlg) {
		return nil, fmt.Errorf("x509: signatureAlgorithm does not match tbsCertificate.signature")
	}

	sigVal := root.Children[2]
	if sigVal.Kind != der.KindBitString || sigVal.UnusedBits != 0 {
		return nil, fmt.Errorf("x509: signatureValue must be a whole-byte BitString")
	}

	return &Certificate{
		TBSCertificate:     tbs,
		SignatureAlgorithm: sigAlg,
		SignatureValue:     sigVal.Bytes,
	}, nil
}
