//go:build !integration

package redis

import (
	"context"
	"sync"
	"time"
)

// fakeClient is an in-memory RedisClient. Expirations are recorded, not enforced.
type fakeClient struct {
	mu      sync.Mutex
	vals    map[string]interface{}
	counter map[string]int64
	ttl     map[string]time.Duration
	err     error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		vals:    map[string]interface{}{},
		counter: map[string]int64{},
		ttl:     map[string]time.Duration{},
	}
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.err }

func (f *fakeClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.vals[key]; ok {
		return false, nil
	}
	f.vals[key] = value
	f.ttl[key] = expiration
	return true, nil
}

func (f *fakeClient) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.vals[key]
	return ok, nil
}

func (f *fakeClient) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counter[key]++
	return f.counter[key], nil
}

func (f *fakeClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttl[key] = expiration
	return f.err
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.vals, k)
		delete(f.counter, k)
	}
	return f.err
}

func (f *fakeClient) Close() error { return nil }
