package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const (
	keyPrefix = "session:"

	// memcached treats relative expirations above 30 days as unix timestamps.
	maxRelativeExp = 30 * 24 * 60 * 60
)

// MemcachedStore implements Store on memcached. State is stored as JSON.
type MemcachedStore struct {
	client *memcache.Client
	expSec int32
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// use package defaults if zero.
func NewMemcachedStore(addrs string, ttl, timeout time.Duration, maxIdleConns int) (*MemcachedStore, error) {
	servers := ParseAddrs(addrs)
	if len(servers) == 0 {
		return nil, errors.New("memcached: no server addresses")
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}

	expSec := int32(ttl.Seconds())
	if expSec <= 0 || expSec > maxRelativeExp {
		expSec = 24 * 60 * 60
	}
	return &MemcachedStore{client: client, expSec: expSec}, nil
}

// ParseAddrs splits a comma-separated server list, dropping blanks.
func ParseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (s *MemcachedStore) Get(ctx context.Context, id string) (State, bool, error) {
	if err := ctx.Err(); err != nil {
		return State{}, false, err
	}
	item, err := s.client.Get(keyPrefix + id)
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("memcached get: %w", err)
	}
	var st State
	if err := json.Unmarshal(item.Value, &st); err != nil {
		return State{}, false, fmt.Errorf("decode session: %w", err)
	}
	return st, true, nil
}

func (s *MemcachedStore) Save(ctx context.Context, id string, state State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(&memcache.Item{
		Key:        keyPrefix + id,
		Value:      raw,
		Expiration: s.expSec,
	}); err != nil {
		return fmt.Errorf("memcached set: %w", err)
	}
	return nil
}

// Ping checks that every memcached server is reachable. Used by the health check.
func (s *MemcachedStore) Ping() error {
	return s.client.Ping()
}

// Close releases idle connections. Call during shutdown.
func (s *MemcachedStore) Close() error {
	return s.client.Close()
}
