package mintls

// alertLevel is the TLS alert level (RFC 5246 §7.2).
type alertLevel uint8

const (
	alertLevelWarning alertLevel = 1
	alertLevelFatal   alertLevel = 2
)

// alertDescription is the TLS alert description (RFC 5246 §7.2).
type alertDescription uint8

const (
	alertCloseNotify          alertDescription = 0
	alertUnexpectedMessage    alertDescription = 10
	alertBadRecordMac         alertDescription = 20
	alertDecryptError         alertDescription = 51
	alertIllegalParameter     alertDescription = 47
	alertDecodeError          alertDescription = 50
	alertInternalError        alertDescription = 80
	alertHandshakeFailure     alertDescription = 40
	alertProtocolVersion      alertDescription = 70
)

// alert is a single TLS alert message: one level byte, one description
// byte (RFC 5246 §7.2).
type alert struct {
	level       alertLevel
	description alertDescription
}

func (a alert) marshal() []byte {
	return []byte{byte(a.level), byte(a.description)}
}

func unmarshalAlert(b []byte) (alert, bool) {
	if len(b) != 2 {
		return alert{}, false
	}
	return alert{level: alertLevel(b[0]), description: alertDescription(b[1])}, true
}

// alertForKind maps an internal error Kind to the fatal alert the client
// sends before closing. IoFailure and AlertReceived have
// no outbound mapping: the transport is already gone, or the peer already
// knows what it sent.
func alertForKind(k Kind) (alertDescription, bool) {
	switch k {
	case UnexpectedMessage:
		return alertUnexpectedMessage, true
	case BadRecordMac:
		return alertBadRecordMac, true
	case DecryptError:
		return alertDecryptError, true
	case IllegalParameter:
		return alertIllegalParameter, true
	case DecodeError:
		return alertDecodeError, true
	case InternalError:
		return alertInternalError, true
	default:
		return 0, false
	}
}
