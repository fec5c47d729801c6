package mintls

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a TLS error and determines which outbound alert, if
// any, it maps to (see alert.go).
type Kind int

const (
	// IoFailure indicates the underlying transport read or write failed.
	IoFailure Kind = iota
	// UnexpectedMessage indicates a handshake message arrived in a state
	// that does not expect it.
	UnexpectedMessage
	// BadRecordMac indicates AEAD tag verification failed on a received
	// record.
	BadRecordMac
	// DecryptError indicates the peer's Finished verify_data did not
	// match.
	DecryptError
	// IllegalParameter indicates a negotiated value (version, cipher
	// suite, extension) was not the one this client supports.
	IllegalParameter
	// DecodeError indicates a DER or handshake message parse failure.
	DecodeError
	// InternalError indicates a CSPRNG failure or an invariant violation
	// in this implementation.
	InternalError
	// AlertReceived indicates the peer sent a TLS alert.
	AlertReceived
)

func (k Kind) String() string {
	switch k {
	case IoFailure:
		return "io_failure"
	case UnexpectedMessage:
		return "unexpected_message"
	case BadRecordMac:
		return "bad_record_mac"
	case DecryptError:
		return "decrypt_error"
	case IllegalParameter:
		return "illegal_parameter"
	case DecodeError:
		return "decode_error"
	case InternalError:
		return "internal_error"
	case AlertReceived:
		return "alert_received"
	default:
		return "unknown"
	}
}

// Error is the error type surfaced by every exported operation in this
// package. It carries the classification needed to pick an outbound alert
// and wraps the underlying cause with github.com/pkg/errors so that %+v
// formatting yields a stack trace for diagnostic logging.
type Error struct {
	Kind  Kind
	cause error
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: pkgerrors.WithStack(fmt.Errorf(format, args...))}
}

func wrapError(kind Kind, err error, context string) *Error {
	return &Error{Kind: kind, cause: pkgerrors.Wrap(err, context)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("mintls: %s: %s", e.Kind, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Format supports %+v to print the captured stack trace alongside the
// message, per pkg/errors convention.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "mintls: %s: %+v", e.Kind, e.cause)
		return
	}
	fmt.Fprint(s, e.Error())
}
