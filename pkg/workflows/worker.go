// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflows

import (
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// NewWorkers builds the two pollers cmd/cartograph's worker command runs:
// one on QueueHeavy for the LLM/embedding activities, one on QueueLight for
// everything else. Both workflows and activities are registered on both —
// an activity only ever receives tasks on the queue its ActivityOptions
// names (heavyActivityOptions/lightActivityOptions), so registering it on
// the other queue too is harmless, and it keeps this wiring from having to
// track which activity belongs to which queue by hand.
func NewWorkers(c client.Client, activities *Activities) (heavy worker.Worker, light worker.Worker) {
	heavy = worker.New(c, QueueHeavy, worker.Options{})
	light = worker.New(c, QueueLight, worker.Options{})

	for _, w := range []worker.Worker{heavy, light} {
		w.RegisterActivity(activities)

		w.RegisterWorkflow(IndexRepoWorkflow)
		w.RegisterWorkflow(IncrementalIndexWorkflow)
		w.RegisterWorkflow(EmbedRepoWorkflow)
		w.RegisterWorkflow(DiscoverOntologyWorkflow)
		w.RegisterWorkflow(JustifyRepoWorkflow)
		w.RegisterWorkflow(GenerateHealthReportWorkflow)
		w.RegisterWorkflow(SyncLocalGraphWorkflow)
		w.RegisterWorkflow(DetectPatternsWorkflow)
		w.RegisterWorkflow(ReconciliationWorkflow)
	}

	return heavy, light
}

// RunWorkers starts both pollers and blocks until either returns, which
// only happens on an unrecoverable connection error or process interrupt
// (worker.InterruptCh). The caller (cmd/cartograph's worker command) is
// expected to run this in the foreground of a long-lived process.
func RunWorkers(heavy worker.Worker, light worker.Worker) error {
	errCh := make(chan error, 2)
	go func() { errCh <- heavy.Run(worker.InterruptCh()) }()
	go func() { errCh <- light.Run(worker.InterruptCh()) }()
	return <-errCh
}
