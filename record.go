package mintls

import (
	"encoding/binary"
	"io"

	"github.com/paymentlogs/mintls/internal/chachapoly"
)

// aeadDirection owns one direction's sequence number and, once installed,
// the ChaCha20-Poly1305 context used to seal or open that direction's
// records.
type aeadDirection struct {
	aead *chachapoly.AEAD
	seq  uint64
}

func (d *aeadDirection) reset(aead *chachapoly.AEAD) {
	d.aead = aead
	d.seq = 0
}

// nonce produces the 12-byte ChaCha20-Poly1305 nonce for the current
// sequence number: the implicit IV for this suite is zero, so the nonce
// is simply the big-endian sequence number right-aligned into 12 bytes.
func (d *aeadDirection) nonce() []byte {
	n := make([]byte, 12)
	binary.BigEndian.PutUint64(n[4:], d.seq)
	return n
}

func (d *aeadDirection) seqBytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, d.seq)
	return b
}

// advance increments the sequence number by one, failing fatally on
// 64-bit overflow.
func (d *aeadDirection) advance() error {
	if d.seq == ^uint64(0) {
		return newError(InternalError, "sequence number overflow")
	}
	d.seq++
	return nil
}

// aad builds the AEAD associated data: seq(8) || content type(1) ||
// version(2) || length(2).
func aad(seq []byte, ct contentType, vers protocolVersion, length int) []byte {
	out := make([]byte, 0, 13)
	out = append(out, seq...)
	out = append(out, byte(ct))
	out = append(out, vers.major, vers.minor)
	out = append(out, byte(length>>8), byte(length))
	return out
}

// recordLayer frames the byte stream into TLS records, applying AEAD
// sealing/opening once a direction's encryptor/decryptor is installed.
type recordLayer struct {
	rw io.ReadWriter

	write aeadDirection
	read  aeadDirection

	haveReadFirstRecord bool

	// handshakeBuf accumulates reassembled handshake-content-type payload
	// bytes not yet consumed by readHandshakeMessage.
	handshakeBuf []byte
}

func newRecordLayer(rw io.ReadWriter) *recordLayer {
	return &recordLayer{rw: rw}
}

func (r *recordLayer) installEncryptor(aead *chachapoly.AEAD) {
	r.write.reset(aead)
}

func (r *recordLayer) installDecryptor(aead *chachapoly.AEAD) {
	r.read.reset(aead)
}

// writeRecord frames and emits a single record. The core never
// fragments an outbound payload: it limits each call to
// maxPlaintextRecordLen bytes.
func (r *recordLayer) writeRecord(ct contentType, payload []byte) error {
	if len(payload) > maxPlaintextRecordLen {
		return newError(InternalError, "outbound payload exceeds one record (%d bytes)", len(payload))
	}

	body := payload
	if r.write.aead != nil {
		seq := r.write.seqBytes()
		nonce := r.write.nonce()
		a := aad(seq, ct, tlsVersion12, len(payload))
		body = r.write.aead.Seal(nonce, a, payload)
	}

	header := make([]byte, recordHeaderLen)
	header[0] = byte(ct)
	header[1] = tlsVersion12.major
	header[2] = tlsVersion12.minor
	binary.BigEndian.PutUint16(header[3:], uint16(len(body)))

	if _, err := r.rw.Write(header); err != nil {
		return wrapError(IoFailure, err, "writing record header")
	}
	if _, err := r.rw.Write(body); err != nil {
		return wrapError(IoFailure, err, "writing record body")
	}

	if r.write.aead != nil {
		if err := r.write.advance(); err != nil {
			return err
		}
	}
	return nil
}

// readRecord reads and, if a decryptor is installed, opens exactly one
// record. Alerts are never returned to the caller as data:
// every received alert is treated as fatal and surfaced
// as an *Error of Kind AlertReceived.
func (r *recordLayer) readRecord() (contentType, []byte, error) {
	var header [recordHeaderLen]byte
	if _, err := io.ReadFull(r.rw, header[:]); err != nil {
		return 0, nil, wrapError(IoFailure, err, "reading record header")
	}

	ct := contentType(header[0])
	vers := protocolVersion{header[1], header[2]}
	length := int(binary.BigEndian.Uint16(header[3:5]))

	maxLen := maxPlaintextRecordLen
	if r.read.aead != nil {
		maxLen = maxCiphertextRecordLen
	}
	if length > maxLen {
		return 0, nil, newError(DecodeError, "record length %d exceeds limit %d", length, maxLen)
	}

	if !vers.isTLS12() {
		// Spec.md §4.2: a version mismatch on the very first record may be
		// lenient (some servers send {3,0} in the initial ServerHello
		// record header); thereafter it is fatal.
		if r.haveReadFirstRecord {
			return 0, nil, newError(IllegalParameter, "unexpected record version %d.%d", vers.major, vers.minor)
		}
	}
	r.haveReadFirstRecord = true

	body := make([]byte, length)
	if _, err := io.ReadFull(r.rw, body); err != nil {
		return 0, nil, wrapError(IoFailure, err, "reading record body")
	}

	if ct == contentTypeChangeCipherSpec {
		// Never AEAD-protected; installation of the pending decryptor is
		// the caller's responsibility (handshake_client.go).
		return ct, body, nil
	}

	if r.read.aead != nil {
		seq := r.read.seqBytes()
		nonce := r.read.nonce()
		a := aad(seq, ct, tlsVersion12, length-chachapoly.Overhead)
		plaintext, err := r.read.aead.Open(nonce, a, body)
		if err != nil {
			return 0, nil, wrapError(BadRecordMac, err, "opening record")
		}
		if err := r.read.advance(); err != nil {
			return 0, nil, err
		}
		body = plaintext
	}

	if ct == contentTypeAlert {
		al, ok := unmarshalAlert(body)
		if !ok {
			return 0, nil, newError(DecodeError, "malformed alert record")
		}
		return 0, nil, newError(AlertReceived, "peer sent alert level=%d description=%d", al.level, al.description)
	}

	return ct, body, nil
}

// readHandshakeMessage returns the next logical handshake message (type,
// body, and the full raw bytes including the 4-byte header, for transcript
// hashing). It transparently reassembles
// a message fragmented across multiple handshake-content-type records, and
// is fatal if any other content type interleaves with a partially-received
// message.
func (r *recordLayer) readHandshakeMessage() (handshakeType, []byte, []byte, error) {
	for {
		if msgLen, ok := r.pendingMessageLen(); ok && len(r.handshakeBuf) >= 4+msgLen {
			raw := r.handshakeBuf[:4+msgLen]
			body := raw[4:]
			ht := handshakeType(raw[0])
			r.handshakeBuf = r.handshakeBuf[4+msgLen:]
			out := make([]byte, len(raw))
			copy(out, raw)
			return ht, append([]byte(nil), body...), out, nil
		}

		ct, payload, err := r.readRecord()
		if err != nil {
			return 0, nil, nil, err
		}
		if ct != contentTypeHandshake {
			if len(r.handshakeBuf) > 0 {
				return 0, nil, nil, newError(UnexpectedMessage, "content type %d interleaved with a partial handshake message", ct)
			}
			return 0, nil, nil, newError(UnexpectedMessage, "expected handshake record, got content type %d", ct)
		}
		r.handshakeBuf = append(r.handshakeBuf, payload...)
	}
}

func (r *recordLayer) pendingMessageLen() (int, bool) {
	if len(r.handshakeBuf) < 4 {
		return 0, false
	}
	length := int(r.handshakeBuf[1])<<16 | int(r.handshakeBuf[2])<<8 | int(r.handshakeBuf[3])
	return length, true
}

// readChangeCipherSpec reads exactly one record and requires it to be a
// (single-byte, value 1) ChangeCipherSpec message.
func (r *recordLayer) readChangeCipherSpec() error {
	ct, body, err := r.readRecord()
	if err != nil {
		return err
	}
	if ct != contentTypeChangeCipherSpec {
		return newError(UnexpectedMessage, "expected change_cipher_spec, got content type %d", ct)
	}
	if len(body) != 1 || body[0] != 1 {
		return newError(DecodeError, "malformed change_cipher_spec body")
	}
	return nil
}

func (r *recordLayer) writeChangeCipherSpec() error {
	return r.writeRecord(contentTypeChangeCipherSpec, []byte{1})
}

func (r *recordLayer) writeAlert(a alert) error {
	return r.writeRecord(contentTypeAlert, a.marshal())
}
