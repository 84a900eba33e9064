package model

import (
	"sort"

	"everypay-integration/internal/domain"
)

// StatusCode is the verified outcome of a payment as reported to the integrator.
// The numeric values are fixed by the gateway protocol.
type StatusCode int

const (
	StatusSuccess   StatusCode = 1
	StatusCancelled StatusCode = 2
	StatusFailed    StatusCode = 3
)

func (s StatusCode) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transaction results reported by the gateway.
const (
	ResultCompleted = "completed"
	ResultCancelled = "cancelled"
	ResultFailed    = "failed"
)

var resultStatuses = map[string]StatusCode{
	ResultCompleted: StatusSuccess,
	ResultCancelled: StatusCancelled,
	ResultFailed:    StatusFailed,
}

// StatusForResult maps a transaction_result value to its StatusCode.
func StatusForResult(result string) (StatusCode, bool) {
	s, ok := resultStatuses[result]
	return s, ok
}

// Credential identifies the merchant towards the gateway.
type Credential struct {
	Identifier string
	Secret     []byte
}

// NewCredential copies secret so later mutation of the caller's slice has no effect.
// Empty values are reported as domain.KindConfiguration errors.
func NewCredential(identifier string, secret []byte) (Credential, error) {
	if identifier == "" {
		return Credential{}, domain.NewError(domain.KindConfiguration, FieldAPIUsername, "api username is empty")
	}
	if len(secret) == 0 {
		return Credential{}, domain.NewError(domain.KindConfiguration, "", "api secret is empty")
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return Credential{Identifier: identifier, Secret: s}, nil
}

// Fields is a flat name -> value mapping exchanged with the gateway.
type Fields map[string]string

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Keys returns the field names in ascending byte order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether name is present, even with an empty value.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}
