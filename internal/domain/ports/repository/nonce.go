package repository

import (
	"context"
	"time"
)

// NonceStore remembers gateway nonces that were already accepted.
// Implementations must make Mark an atomic insert-if-absent: when the nonce is already
// present Mark returns an error matching domain.ErrNonceReused, preferably a
// *domain.Error of kind domain.KindReplay.
type NonceStore interface {
	Seen(ctx context.Context, nonce string) (bool, error)
	Mark(ctx context.Context, nonce string, ttl time.Duration) error
}
