package nonce

import (
	"context"
	"sync"
	"time"

	"everypay-integration/internal/domain"
	"everypay-integration/internal/domain/model"
	"everypay-integration/internal/domain/ports/repository"
	"everypay-integration/internal/infra/metrics"
)

var _ repository.NonceStore = (*MemoryStore)(nil)

// MemoryStore is a process-local NonceStore. It is only replay-safe when a single
// instance verifies callbacks; expired entries are dropped by Purge.
type MemoryStore struct {
	mu     sync.Mutex
	now    func() time.Time
	expiry map[string]time.Time // nonce -> expiry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:    time.Now,
		expiry: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Seen(ctx context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expiry[nonce]
	seen := ok && s.now().Before(exp)
	metrics.IncNonceLookup("memory", seen)
	return seen, nil
}

func (s *MemoryStore) Mark(ctx context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.expiry[nonce]; ok && now.Before(exp) {
		return domain.NewError(domain.KindReplay, model.FieldNonce, "")
	}
	s.expiry[nonce] = now.Add(ttl)
	return nil
}

// Purge removes expired nonces and returns how many were dropped.
func (s *MemoryStore) Purge(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, exp := range s.expiry {
		if !now.Before(exp) {
			delete(s.expiry, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of tracked nonces, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}
