package redis

import (
	"context"
	"fmt"
	"time"

	"everypay-integration/internal/domain"
	"everypay-integration/internal/domain/model"
	"everypay-integration/internal/domain/ports/repository"
	"everypay-integration/internal/infra/metrics"
)

var _ repository.NonceStore = (*NonceStore)(nil)

// NonceStore keeps accepted gateway nonces as expiring keys so every instance behind a
// load balancer shares one replay guard.
type NonceStore struct {
	client RedisClient
	prefix string
}

func NewNonceStore(client RedisClient, prefix string) *NonceStore {
	if prefix == "" {
		prefix = "gateway_nonce"
	}
	return &NonceStore{client: client, prefix: prefix}
}

func (s *NonceStore) key(nonce string) string {
	return fmt.Sprintf("%s:%s", s.prefix, nonce)
}

func (s *NonceStore) Seen(ctx context.Context, nonce string) (bool, error) {
	ok, err := s.client.Exists(ctx, s.key(nonce))
	if err != nil {
		return false, fmt.Errorf("redis EXISTS: %w", err)
	}
	metrics.IncNonceLookup("redis", ok)
	return ok, nil
}

// Mark relies on SET NX so two instances racing on the same callback cannot both win.
func (s *NonceStore) Mark(ctx context.Context, nonce string, ttl time.Duration) error {
	set, err := s.client.SetNX(ctx, s.key(nonce), time.Now().Unix(), ttl)
	if err != nil {
		return fmt.Errorf("redis SETNX: %w", err)
	}
	if !set {
		return domain.NewError(domain.KindReplay, model.FieldNonce, "claimed concurrently")
	}
	return nil
}
