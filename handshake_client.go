package mintls

import (
	"crypto/rand"
	"crypto/subtle"
	"io"

	"go.uber.org/zap"

	"github.com/paymentlogs/mintls/internal/chachapoly"
	"github.com/paymentlogs/mintls/internal/sha256"
	"github.com/paymentlogs/mintls/internal/x509min"
)

// clientHandshakeState drives the client side of the handshake state
// machine: START -> WAIT_SH -> WAIT_CERT -> WAIT_SKE -> WAIT_SHD ->
// WAIT_CCS_OUT -> WAIT_CCS_IN -> WAIT_FIN -> ESTABLISHED.
// Each state's work lives in its own method below, called in sequence by
// handshake(); there is no branching state table because this client only
// ever negotiates one path.
type clientHandshakeState struct {
	rl     *recordLayer
	rand   io.Reader
	config *Config

	transcript *sha256.Digest

	clientRandom []byte
	serverRandom []byte

	leaf *x509min.Certificate

	masterSecret []byte
}

// Config carries everything a Dial needs beyond the transport: the
// randomness source (nil defaults to crypto/rand.Reader) and a logger for
// handshake progress (nil defaults to a no-op logger, see log.go).
type Config struct {
	Rand   io.Reader
	Logger *Logger
}

func (c *Config) rand() io.Reader {
	if c != nil && c.Rand != nil {
		return c.Rand
	}
	return rand.Reader
}

func (c *Config) logger() *Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return nopLogger()
}

func newClientHandshakeState(rl *recordLayer, config *Config) *clientHandshakeState {
	return &clientHandshakeState{
		rl:         rl,
		rand:       config.rand(),
		config:     config,
		transcript: sha256.New(),
	}
}

// handshake runs the full client handshake to completion, leaving rl with
// an installed ChaCha20-Poly1305 encryptor and decryptor on success. On any
// error it attempts to send a matching fatal alert (best-effort; the send
// error, if any, is discarded since the handshake has already failed).
func (hs *clientHandshakeState) handshake() (*x509min.Certificate, error) {
	if err := hs.run(); err != nil {
		if desc, ok := alertForKind(errKind(err)); ok {
			_ = hs.rl.writeAlert(alert{level: alertLevelFatal, description: desc})
			hs.config.logger().Error("handshake failed, sent fatal alert",
				zap.Uint8("alert_description", uint8(desc)),
				zap.Error(err))
		}
		return nil, err
	}
	return hs.leaf, nil
}

func (hs *clientHandshakeState) run() error {
	log := hs.config.logger()

	if err := hs.sendClientHello(); err != nil {
		return err
	}
	log.Debug("sent ClientHello")

	ske, err := hs.readServerHelloThroughServerKeyExchange()
	if err != nil {
		return err
	}
	log.Debug("received ServerHello, Certificate, ServerKeyExchange")

	if err := hs.readServerHelloDone(); err != nil {
		return err
	}
	log.Debug("received ServerHelloDone")

	premaster, clientPublic, err := pinnedCipherSuite.ka().processServerKeyExchange(hs.rand, ske)
	if err != nil {
		return err
	}

	if err := hs.sendClientKeyExchange(clientPublic); err != nil {
		return err
	}
	log.Debug("sent ClientKeyExchange")

	hs.deriveMasterSecret(premaster)

	clientWriteKey, serverWriteKey := hs.deriveTrafficKeys()

	if err := hs.rl.writeChangeCipherSpec(); err != nil {
		return wrapError(IoFailure, err, "writing change_cipher_spec")
	}
	hs.rl.installEncryptor(chachapoly.New(clientWriteKey))
	log.Debug("sent ChangeCipherSpec, installed write key")

	if err := hs.sendFinished(); err != nil {
		return err
	}
	log.Debug("sent Finished")

	if err := hs.rl.readChangeCipherSpec(); err != nil {
		return err
	}
	hs.rl.installDecryptor(chachapoly.New(serverWriteKey))
	log.Debug("received ChangeCipherSpec, installed read key")

	if err := hs.readAndVerifyFinished(); err != nil {
		return err
	}
	log.Debug("verified server Finished; handshake established")

	return nil
}

func errKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return InternalError
}

// writeHandshake marshals and sends a handshake message, folding its raw
// wire bytes into the transcript hash.
func (hs *clientHandshakeState) writeHandshake(raw []byte) error {
	hs.transcript.Write(raw)
	return hs.rl.writeRecord(contentTypeHandshake, raw)
}

// readHandshake pulls the next logical handshake message, requiring it to
// have the given type, and folds its raw bytes into the transcript hash.
func (hs *clientHandshakeState) readHandshake(want handshakeType) ([]byte, error) {
	ht, body, raw, err := hs.rl.readHandshakeMessage()
	if err != nil {
		return nil, err
	}
	if ht != want {
		return nil, newError(UnexpectedMessage, "expected handshake type %d, got %d", want, ht)
	}
	hs.transcript.Write(raw)
	return body, nil
}

func (hs *clientHandshakeState) sendClientHello() error {
	hs.clientRandom = make([]byte, clientRandomLen)
	if _, err := io.ReadFull(hs.rand, hs.clientRandom); err != nil {
		return wrapError(InternalError, err, "sampling client_random")
	}
	ch := &clientHelloMsg{random: hs.clientRandom}
	return hs.writeHandshake(ch.marshal())
}

func (hs *clientHandshakeState) readServerHelloThroughServerKeyExchange() (*serverKeyExchangeMsg, error) {
	shBody, err := hs.readHandshake(handshakeTypeServerHello)
	if err != nil {
		return nil, err
	}
	sh := &serverHelloMsg{}
	if err := sh.unmarshal(shBody); err != nil {
		return nil, err
	}
	if sh.cipherSuite != pinnedCipherSuite.id {
		return nil, newError(IllegalParameter, "server selected unsupported cipher suite %#04x", sh.cipherSuite)
	}
	hs.serverRandom = sh.random

	certBody, err := hs.readHandshake(handshakeTypeCertificate)
	if err != nil {
		return nil, err
	}
	cm := &certificateMsg{}
	if err := cm.unmarshal(certBody); err != nil {
		return nil, err
	}
	leaf, err := x509min.ParseCertificate(cm.certificates[0])
	if err != nil {
		return nil, wrapError(DecodeError, err, "parsing leaf certificate")
	}
	hs.leaf = leaf

	skeBody, err := hs.readHandshake(handshakeTypeServerKeyExchange)
	if err != nil {
		return nil, err
	}
	ske := &serverKeyExchangeMsg{}
	if err := ske.unmarshal(skeBody); err != nil {
		return nil, err
	}
	return ske, nil
}

func (hs *clientHandshakeState) readServerHelloDone() error {
	body, err := hs.readHandshake(handshakeTypeServerHelloDone)
	if err != nil {
		return err
	}
	shd := &serverHelloDoneMsg{}
	return shd.unmarshal(body)
}

func (hs *clientHandshakeState) sendClientKeyExchange(clientPublic []byte) error {
	cke := &clientKeyExchangeMsg{publicKey: clientPublic}
	return hs.writeHandshake(cke.marshal())
}

// deriveMasterSecret computes master_secret = PRF(pre_master_secret,
// "master secret", client_random || server_random)[0:48] (RFC 5246 §8.1).
func (hs *clientHandshakeState) deriveMasterSecret(premaster []byte) {
	seed := concat(hs.clientRandom, hs.serverRandom)
	hs.masterSecret = prf(premaster, "master secret", seed, masterSecretLen)
}

// deriveTrafficKeys computes key_block = PRF(master_secret,
// "key expansion", server_random || client_random)[0:2*keyLen] and splits
// it into the client and server write keys. ChaCha20-Poly1305 per RFC 7905
// needs no separate MAC keys or IVs: the nonce is derived purely from the
// record sequence number.
func (hs *clientHandshakeState) deriveTrafficKeys() (clientWriteKey, serverWriteKey []byte) {
	seed := concat(hs.serverRandom, hs.clientRandom)
	keyLen := pinnedCipherSuite.keyLen
	keyBlock := prf(hs.masterSecret, "key expansion", seed, 2*keyLen)
	return keyBlock[:keyLen], keyBlock[keyLen:]
}

func (hs *clientHandshakeState) sendFinished() error {
	verifyData := prf(hs.masterSecret, "client finished", hs.transcript.Sum(nil), verifyDataLen)
	fin := &finishedMsg{verifyData: verifyData}
	return hs.writeHandshake(fin.marshal())
}

func (hs *clientHandshakeState) readAndVerifyFinished() error {
	expected := prf(hs.masterSecret, "server finished", hs.transcript.Sum(nil), verifyDataLen)

	body, err := hs.readHandshake(handshakeTypeFinished)
	if err != nil {
		return err
	}
	fin := &finishedMsg{}
	if err := fin.unmarshal(body); err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(expected, fin.verifyData) != 1 {
		return newError(DecryptError, "server Finished verify_data mismatch")
	}
	return nil
}
