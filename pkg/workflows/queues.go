// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflows

import "time"

const (
	// QueueHeavy carries the steps that call an LLM or embedding provider
	// (embedRepo, justifyRepo) — capacity-limited on purpose so a worker
	// operator can size it independently of the cheap bookkeeping queue.
	QueueHeavy = "cartograph-heavy"

	// QueueLight carries clone/parse/graph-sync/pattern-detection and all
	// pipeline-run/status bookkeeping.
	QueueLight = "cartograph-light"
)

// Signal and query names, shared between the workflow side (SetQueryHandler
// / GetSignalChannel) and the client side (SignalWorkflow / QueryWorkflow).
const (
	SignalPush     = "push"
	SignalCancel   = "cancel"
	QueryProgress  = "getProgress"
	QueryIncrement = "getIncrementalProgress"
	QueryEmbed     = "getEmbedProgress"
	QueryJustify   = "getJustifyProgress"
)

// DebounceWindow is how long IncrementalIndexWorkflow waits after the
// last push signal before starting a reindex cycle ('s
// debounce loop).
const DebounceWindow = 30 * time.Second

// defaultActivityTimeout bounds a single activity attempt; individual
// activities override it where a step is known to run long (embedding a
// large repo, justifying a large level).
const defaultActivityTimeout = 5 * time.Minute

// heartbeatTimeout is how long a long-running activity may go without
// calling activity.RecordHeartbeat before Temporal considers it dead.
const heartbeatTimeout = 30 * time.Second
