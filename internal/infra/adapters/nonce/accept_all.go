package nonce

import (
	"context"
	"time"

	"everypay-integration/internal/domain/ports/repository"
)

var _ repository.NonceStore = AcceptAll{}

// AcceptAll never reports a nonce as seen. Wiring it disables replay protection;
// it exists for sandboxes where the gateway reuses fixtures.
type AcceptAll struct{}

func (AcceptAll) Seen(context.Context, string) (bool, error)        { return false, nil }
func (AcceptAll) Mark(context.Context, string, time.Duration) error { return nil }
