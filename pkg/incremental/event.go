// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package incremental

import (
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// RunStats accumulates the counters one incremental cycle produces, so
// the final IndexEvent can be assembled in a single place regardless of
// which step contributed which counter.
type RunStats struct {
	FilesChanged      int
	EntitiesAdded     int
	EntitiesUpdated   int
	EntitiesDeleted   int
	EdgesRepaired     int
	EmbeddingsUpdated int
	CascadeStatus     graph.CascadeStatus
	CascadeEntities   int
	ExtractionErrors  []string
}

// BuildIndexEvent assembles the immutable log record for one incremental
// cycle.
func BuildIndexEvent(orgID, repoID, pushSHA, commitMessage, workflowID string, eventType graph.IndexEventType, stats RunStats, duration time.Duration) graph.IndexEvent {
	return graph.IndexEvent{
		OrgID:             orgID,
		RepoID:            repoID,
		PushSHA:           pushSHA,
		CommitMessage:     commitMessage,
		EventType:         eventType,
		FilesChanged:      stats.FilesChanged,
		EntitiesAdded:     stats.EntitiesAdded,
		EntitiesUpdated:   stats.EntitiesUpdated,
		EntitiesDeleted:   stats.EntitiesDeleted,
		EdgesRepaired:     stats.EdgesRepaired,
		EmbeddingsUpdated: stats.EmbeddingsUpdated,
		CascadeStatus:     stats.CascadeStatus,
		CascadeEntities:   stats.CascadeEntities,
		DurationMS:        duration.Milliseconds(),
		WorkflowID:        workflowID,
		ExtractionErrors:  stats.ExtractionErrors,
		CreatedAt:         time.Now(),
	}
}
