// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipelinerun tracks one full or incremental indexing run's
// progress against ports.RelationalStore, and archives the fire-and-forget
// progress lines ports.CacheStore.AppendLog buffers during the run into a
// structured log once the run reaches a terminal status.
//
// pkg/workflows calls Tracker from inside activities rather than talking to
// ports.RelationalStore/ports.CacheStore directly, so the run-bookkeeping
// policy — what gets logged, when the cache buffer gets drained, which
// statuses count as terminal — lives in one place instead of being
// duplicated across every activity that touches a PipelineRun.
package pipelinerun
