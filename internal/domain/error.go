package domain

import (
	"errors"
	"fmt"
)

var (
	// Verification and setup failures. Every *Error matches exactly one of these via errors.Is.
	ErrConfiguration    = errors.New("invalid configuration")
	ErrInvalidIdentity  = errors.New("invalid identity")
	ErrResponseOutdated = errors.New("response outdated")
	ErrNonceReused      = errors.New("nonce is already used")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnknownResult    = errors.New("unknown transaction result")

	// Common adapter errors
	ErrInvalidArgument = errors.New("invalid argument")
)

// Kind classifies a failure of the signed exchange.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindAuthentication
	KindStaleness
	KindReplay
	KindSignatureMismatch
	KindUnknownResult
)

var kindSentinels = map[Kind]error{
	KindConfiguration:     ErrConfiguration,
	KindAuthentication:    ErrInvalidIdentity,
	KindStaleness:         ErrResponseOutdated,
	KindReplay:            ErrNonceReused,
	KindSignatureMismatch: ErrInvalidSignature,
	KindUnknownResult:     ErrUnknownResult,
}

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindStaleness:
		return "staleness"
	case KindReplay:
		return "replay"
	case KindSignatureMismatch:
		return "signature_mismatch"
	case KindUnknownResult:
		return "unknown_result"
	default:
		return "unknown"
	}
}

// Error is returned by the signed exchange. Field names the offending input field,
// Reason is safe to log: it never carries the secret or the expected signature.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := kindSentinels[e.Kind]
	if msg == nil {
		msg = errors.New("verification failed")
	}
	s := msg.Error()
	if e.Field != "" {
		s += fmt.Sprintf(" (%s)", e.Field)
	}
	if e.Reason != "" {
		s += ": " + e.Reason
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match on the kind's sentinel, e.g. errors.Is(err, ErrInvalidSignature).
func (e *Error) Is(target error) bool {
	if s, ok := kindSentinels[e.Kind]; ok && s == target {
		return true
	}
	return false
}

// NewError builds an *Error of the given kind.
func NewError(kind Kind, field, reason string) *Error {
	return &Error{Kind: kind, Field: field, Reason: reason}
}

// KindOf extracts the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
