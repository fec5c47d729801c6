package mintls

import (
	"io"
	"net"
	"sync"

	"github.com/paymentlogs/mintls/internal/x509min"
)

// Conn is a single-threaded TLS 1.2 client connection: a byte-stream
// read/write surface tunneled through the record layer once the handshake
// has installed both directions' AEAD contexts. It is not safe for
// concurrent use by multiple goroutines.
type Conn struct {
	transport io.ReadWriteCloser
	rl        *recordLayer
	config    *Config

	peerCertificate *x509min.Certificate

	mu      sync.Mutex
	pending []byte // leftover application-data plaintext from the last record
	closed  bool
}

// Dial performs the handshake over transport and returns an established
// Conn, or the first error encountered. config may be nil to use defaults.
func Dial(transport io.ReadWriteCloser, config *Config) (*Conn, error) {
	rl := newRecordLayer(transport)
	hs := newClientHandshakeState(rl, config)

	leaf, err := hs.handshake()
	if err != nil {
		transport.Close()
		return nil, err
	}

	return &Conn{
		transport:       transport,
		rl:              rl,
		config:          config,
		peerCertificate: leaf,
	}, nil
}

// DialTCP is a convenience wrapper around net.Dial("tcp", addr) plus Dial.
func DialTCP(addr string, config *Config) (*Conn, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, wrapError(IoFailure, err, "dialing "+addr)
	}
	return Dial(nc, config)
}

// PeerCertificate returns the server's decoded leaf certificate. Trust
// validation and hostname matching are the caller's responsibility, if
// wanted at all; this client performs neither.
func (c *Conn) PeerCertificate() *x509min.Certificate {
	return c.peerCertificate
}

// Write sends b as a single ApplicationData record. This client never
// fragments outbound application data (see record.go's writeRecord), so a
// write larger than maxPlaintextRecordLen is rejected rather than silently
// split across multiple records; callers with more data than that must
// chunk it themselves before calling Write.
func (c *Conn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, newError(IoFailure, "write on closed connection")
	}
	if len(b) > maxPlaintextRecordLen {
		return 0, newError(InternalError, "write of %d bytes exceeds one record (%d bytes); caller must chunk", len(b), maxPlaintextRecordLen)
	}

	if err := c.rl.writeRecord(contentTypeApplicationData, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Read fills p from the connection's internal plaintext buffer, reading
// and decrypting additional ApplicationData records from the transport as
// needed. Any handshake or change_cipher_spec record encountered here is
// fatal with UnexpectedMessage: neither content type is expected once the
// connection is established. An alert record is fatal with AlertReceived
// (see recordLayer.readRecord).
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, newError(IoFailure, "read on closed connection")
	}

	for len(c.pending) == 0 {
		ct, payload, err := c.rl.readRecord()
		if err != nil {
			return 0, err
		}
		if ct != contentTypeApplicationData {
			return 0, newError(UnexpectedMessage, "unexpected content type %d on established connection", ct)
		}
		c.pending = payload
	}

	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Close sends a best-effort fatal close_notify alert and closes the
// transport.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.rl.writeAlert(alert{level: alertLevelFatal, description: alertCloseNotify})
	return c.transport.Close()
}
