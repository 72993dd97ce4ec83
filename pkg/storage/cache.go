// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements ports.CacheStore over a *redis.Client. Locking uses
// SET NX EX, the same atomic "only set if absent, with a TTL" primitive used
// throughout the corpus for debounce cursors and mutual-exclusion locks.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore parses url (a redis:// or rediss:// connection string) and
// verifies connectivity with a ping.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// SetIfNotExists acquires key atomically for ttl, returning false without
// error if another holder already owns it.
func (s *RedisStore) SetIfNotExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

// Release deletes key, e.g. to release a lock before its TTL expires.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Get returns (value, true, nil) when key exists, ("", false, nil) on a
// cache miss, and a non-nil error only for a real Redis failure.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return val, true, nil
}

// Set writes key unconditionally, with ttl of 0 meaning no expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func logKey(repoID string) string {
	return "indexlog:" + repoID
}

// AppendLog pushes line onto repoID's fire-and-forget progress buffer.
func (s *RedisStore) AppendLog(ctx context.Context, repoID string, line string) error {
	if err := s.client.RPush(ctx, logKey(repoID), line).Err(); err != nil {
		return fmt.Errorf("rpush log %s: %w", repoID, err)
	}
	return nil
}

// DrainLog atomically reads and clears repoID's progress buffer, used by the
// archival pass once the owning workflow reaches a terminal state.
func (s *RedisStore) DrainLog(ctx context.Context, repoID string) ([]string, error) {
	key := logKey(repoID)
	lines, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange log %s: %w", repoID, err)
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("del log %s: %w", repoID, err)
	}
	return lines, nil
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
