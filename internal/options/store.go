// Package options provides a Redis backed key-value option store. It holds
// the legacy mirror of menu restrictions kept for backward compatibility
// with older deployments that read options instead of the relational store.
package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "option:"

// Store reads and writes named options as JSON blobs.
type Store struct {
	client *redis.Client
}

// NewStore constructs a Store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get unmarshals the option into target. Missing options leave target
// untouched and return false.
func (s *Store) Get(ctx context.Context, name string, target any) (bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("options: get %s: %w", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("options: decode %s: %w", name, err)
	}
	return true, nil
}

// Set stores the option as JSON with no expiry.
func (s *Store) Set(ctx context.Context, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("options: encode %s: %w", name, err)
	}
	if err := s.client.Set(ctx, keyPrefix+name, data, 0).Err(); err != nil {
		return fmt.Errorf("options: set %s: %w", name, err)
	}
	return nil
}

// Acquire takes a named once-per-interval marker. It returns true when the
// caller won the marker, false when another process already holds it.
func (s *Store) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+"marker:"+name, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("options: acquire marker %s: %w", name, err)
	}
	return ok, nil
}

// Delete removes the option. Deleting a missing option is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, keyPrefix+name).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("options: delete %s: %w", name, err)
	}
	return nil
}
