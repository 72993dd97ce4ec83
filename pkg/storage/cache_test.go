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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStore_SetIfNotExistsIsMutuallyExclusive(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	acquired, err := store.SetIfNotExists(ctx, "lock:repo-1", "worker-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = store.SetIfNotExists(ctx, "lock:repo-1", "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, store.Release(ctx, "lock:repo-1"))

	acquired, err = store.SetIfNotExists(ctx, "lock:repo-1", "worker-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestRedisStore_GetMiss(t *testing.T) {
	store := newTestRedisStore(t)
	_, found, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_SetAndGet(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "cursor:repo-1", "abc123", time.Hour))
	val, found, err := store.Get(ctx, "cursor:repo-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "abc123", val)
}

func TestRedisStore_AppendAndDrainLog(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendLog(ctx, "repo-1", "line one"))
	require.NoError(t, store.AppendLog(ctx, "repo-1", "line two"))

	lines, err := store.DrainLog(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"line one", "line two"}, lines)

	lines, err = store.DrainLog(ctx, "repo-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
