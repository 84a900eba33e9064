// Package exchange signs outbound payment requests for the hosted gateway and
// authenticates the gateway's callback and return payloads.
package exchange

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"everypay-integration/internal/domain"
	"everypay-integration/internal/domain/model"
	"everypay-integration/internal/domain/ports/repository"
)

// DefaultLocale is used by BuildRequest when no locale is given.
const DefaultLocale = "en"

// SignedExchange builds and verifies signed gateway field sets for one merchant
// credential. It holds no mutable state and is safe for concurrent use.
type SignedExchange struct {
	cred    model.Credential
	version Version
	window  time.Duration
	now     func() time.Time
	nonce   func() string
	nonces  repository.NonceStore
}

// Option configures a SignedExchange.
type Option func(*SignedExchange)

// WithVersion selects the protocol revision. It also resets the freshness window to the
// revision's default unless WithWindow is applied after it.
func WithVersion(v Version) Option {
	return func(e *SignedExchange) {
		e.version = v
		e.window = v.DefaultWindow()
	}
}

// WithWindow overrides the freshness tolerance for inbound timestamps.
func WithWindow(d time.Duration) Option {
	return func(e *SignedExchange) { e.window = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *SignedExchange) { e.now = now }
}

// WithNonceGenerator replaces the outbound nonce source.
func WithNonceGenerator(gen func() string) Option {
	return func(e *SignedExchange) { e.nonce = gen }
}

// WithNonceStore sets the replay guard. It is required.
func WithNonceStore(s repository.NonceStore) Option {
	return func(e *SignedExchange) { e.nonces = s }
}

// New returns a SignedExchange for cred. Defaults: VersionSortedManifest, its window,
// wall clock and ULID nonces.
func New(cred model.Credential, opts ...Option) (*SignedExchange, error) {
	if cred.Identifier == "" {
		return nil, domain.NewError(domain.KindConfiguration, model.FieldAPIUsername, "api username is empty")
	}
	if len(cred.Secret) == 0 {
		return nil, domain.NewError(domain.KindConfiguration, "", "api secret is empty")
	}
	e := &SignedExchange{
		cred:    cred,
		version: VersionSortedManifest,
		window:  VersionSortedManifest.DefaultWindow(),
		now:     time.Now,
		nonce:   newULID,
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.version.valid() {
		return nil, domain.NewError(domain.KindConfiguration, "", fmt.Sprintf("unsupported protocol %s", e.version))
	}
	if e.window <= 0 {
		return nil, domain.NewError(domain.KindConfiguration, "", "freshness window must be positive")
	}
	if e.nonces == nil {
		return nil, domain.NewError(domain.KindConfiguration, "", "nonce store is required")
	}
	return e, nil
}

func newULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Identifier returns the configured api username.
func (e *SignedExchange) Identifier() string { return e.cred.Identifier }

// Version returns the protocol revision in use.
func (e *SignedExchange) Version() Version { return e.version }

// Window returns the freshness tolerance.
func (e *SignedExchange) Window() time.Duration { return e.window }

// BuildRequest returns a copy of fields completed with the merchant identity, a fresh
// nonce, the current timestamp, the transaction type and the hmac. With
// includeFieldManifest the signed names are also listed under hmac_fields. locale is
// attached after signing and is not covered by the hmac.
func (e *SignedExchange) BuildRequest(fields model.Fields, locale string, includeFieldManifest bool) model.Fields {
	if locale == "" {
		locale = DefaultLocale
	}
	out := fields.Clone()
	delete(out, model.FieldHMAC)
	delete(out, model.FieldLocale)
	delete(out, model.FieldHMACFields)

	out[model.FieldAPIUsername] = e.cred.Identifier
	out[model.FieldNonce] = e.nonce()
	out[model.FieldTimestamp] = strconv.FormatInt(e.now().Unix(), 10)
	out[model.FieldTransactionType] = model.TransactionTypeAuthorisation

	if includeFieldManifest {
		out[model.FieldHMACFields] = e.version.buildManifest(out)
	}
	out[model.FieldHMAC] = Sign(e.cred.Secret, out)
	out[model.FieldLocale] = locale
	return out
}

// VerifyResponse authenticates a gateway payload and returns its status. Checks run in
// a fixed order and the first failure is returned as a *domain.Error: identity,
// freshness, nonce replay, signature, transaction result. The nonce is recorded only
// once the payload is fully accepted.
func (e *SignedExchange) VerifyResponse(ctx context.Context, fields model.Fields) (model.StatusCode, error) {
	if err := e.checkIdentity(fields); err != nil {
		return 0, err
	}
	if err := e.checkFreshness(fields); err != nil {
		return 0, err
	}

	nonce := fields[model.FieldNonce]
	seen, err := e.nonces.Seen(ctx, nonce)
	if err != nil {
		return 0, fmt.Errorf("nonce lookup: %w", err)
	}
	if seen {
		return 0, domain.NewError(domain.KindReplay, model.FieldNonce, "")
	}

	if err := e.checkSignature(fields); err != nil {
		return 0, err
	}

	result := fields[model.FieldTransactionResult]
	status, ok := model.StatusForResult(result)
	if !ok {
		return 0, domain.NewError(domain.KindUnknownResult, model.FieldTransactionResult, strconv.Quote(result))
	}

	if err := e.nonces.Mark(ctx, nonce, e.nonceTTL()); err != nil {
		if domain.KindOf(err) == domain.KindReplay {
			return 0, err
		}
		if errors.Is(err, domain.ErrNonceReused) {
			return 0, domain.NewError(domain.KindReplay, model.FieldNonce, "claimed concurrently")
		}
		return 0, fmt.Errorf("nonce mark: %w", err)
	}
	return status, nil
}

// Decode verifies fields and extracts the payment outcome.
func (e *SignedExchange) Decode(ctx context.Context, fields model.Fields) (model.Outcome, error) {
	status, err := e.VerifyResponse(ctx, fields)
	if err != nil {
		return model.Outcome{}, err
	}
	return model.OutcomeFromFields(status, fields), nil
}

// SignResponse signs fields the way the gateway does for this protocol revision.
// Integration tests and sandboxes use it to fabricate callbacks.
func (e *SignedExchange) SignResponse(fields model.Fields) model.Fields {
	out := fields.Clone()
	delete(out, model.FieldHMAC)
	if e.version != VersionFixedSubset && !out.Has(model.FieldHMACFields) {
		out[model.FieldHMACFields] = e.version.buildManifest(out)
	}
	subset, _ := e.signedSubset(out)
	out[model.FieldHMAC] = Sign(e.cred.Secret, subset)
	return out
}

func (e *SignedExchange) checkIdentity(fields model.Fields) error {
	got := fields[model.FieldAPIUsername]
	if subtle.ConstantTimeCompare([]byte(got), []byte(e.cred.Identifier)) != 1 {
		return domain.NewError(domain.KindAuthentication, model.FieldAPIUsername, "")
	}
	return nil
}

func (e *SignedExchange) checkFreshness(fields model.Fields) error {
	raw := fields[model.FieldTimestamp]
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return domain.NewError(domain.KindStaleness, model.FieldTimestamp, "not a unix timestamp")
	}
	now := e.now().Unix()
	oldest := now - int64(e.window/time.Second)
	if ts > now {
		return domain.NewError(domain.KindStaleness, model.FieldTimestamp, "timestamp is in the future")
	}
	if ts < oldest {
		return domain.NewError(domain.KindStaleness, model.FieldTimestamp, "")
	}
	return nil
}

func (e *SignedExchange) checkSignature(fields model.Fields) error {
	subset, ok := e.signedSubset(fields)
	if !ok {
		return domain.NewError(domain.KindSignatureMismatch, model.FieldHMACFields, "field manifest is missing")
	}
	if !signaturesEqual(Sign(e.cred.Secret, subset), fields[model.FieldHMAC]) {
		return domain.NewError(domain.KindSignatureMismatch, model.FieldHMAC, "")
	}
	return nil
}

func (e *SignedExchange) signedSubset(fields model.Fields) (model.Fields, bool) {
	if e.version == VersionFixedSubset {
		return fixedSubset(fields), true
	}
	return manifestSubset(fields)
}

// nonceTTL keeps accepted nonces for as long as a payload carrying them could still pass
// the freshness check.
func (e *SignedExchange) nonceTTL() time.Duration {
	return e.window + time.Minute
}
