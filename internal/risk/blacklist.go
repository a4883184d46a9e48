package risk

import (
	"context"
	"regexp"
	"sync"
)

// BlacklistStore is the injected source of blocked entities. A hit is a
// terminal signal: scoring short-circuits to a critical assessment.
// Implementations must be safe for concurrent readers and writers.
type BlacklistStore interface {
	IsIPBlocked(ctx context.Context, ip string) (bool, error)
	IsDeviceBlocked(ctx context.Context, deviceID string) (bool, error)
	IsEmailBlocked(ctx context.Context, email string) (bool, error)

	AddIP(ctx context.Context, ip string) error
	AddDevice(ctx context.Context, deviceID string) error
	AddEmailPattern(ctx context.Context, pattern string) error
}

// MemoryBlacklist is a process-local BlacklistStore for tests and
// credential-less development. Production uses the Redis-backed store so
// entries survive restarts and are shared across instances.
type MemoryBlacklist struct {
	mu       sync.RWMutex
	ips      map[string]bool
	devices  map[string]bool
	patterns []*regexp.Regexp
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		ips:     make(map[string]bool),
		devices: make(map[string]bool),
	}
}

func (b *MemoryBlacklist) IsIPBlocked(_ context.Context, ip string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ips[ip], nil
}

func (b *MemoryBlacklist) IsDeviceBlocked(_ context.Context, deviceID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.devices[deviceID], nil
}

func (b *MemoryBlacklist) IsEmailBlocked(_ context.Context, email string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, p := range b.patterns {
		if p.MatchString(email) {
			return true, nil
		}
	}
	return false, nil
}

func (b *MemoryBlacklist) AddIP(_ context.Context, ip string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ips[ip] = true
	return nil
}

func (b *MemoryBlacklist) AddDevice(_ context.Context, deviceID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[deviceID] = true
	return nil
}

func (b *MemoryBlacklist) AddEmailPattern(_ context.Context, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.patterns = append(b.patterns, re)
	return nil
}
