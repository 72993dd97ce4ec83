// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflows

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/incremental"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// IncrementalIndexWorkflowInput is the input to IncrementalIndexWorkflow.
type IncrementalIndexWorkflowInput struct {
	OrgID             string
	RepoID            string
	RepoDir           string
	WorkflowID        string
	FallbackThreshold int
	CascadeMaxDepth   int
}

// IncrementalIndexWorkflow is the long-lived per-repo debounce loop:
// every push signal resets a DebounceWindow timer; once the timer fires
// with no further signal, it runs one pkg/incremental cycle over every
// push SHA accumulated since the last cycle, then goes back to waiting.
// It runs forever until explicitly canceled ('s debounce
// loop) — callers start it once per repo with signal-with-start so a
// push against a not-yet-running workflow still starts one.
func IncrementalIndexWorkflow(ctx workflow.Context, input IncrementalIndexWorkflowInput) error {
	var a *Activities
	lightCtx := workflow.WithActivityOptions(ctx, lightActivityOptions())

	pushChan := workflow.GetSignalChannel(ctx, SignalPush)
	cancelChan := workflow.GetSignalChannel(ctx, SignalCancel)

	var pending []ports.PushSignal
	lastSHA := ""
	canceled := false
	cycle := 0

	progress := ports.Progress{Step: "waiting"}
	if err := workflow.SetQueryHandler(ctx, QueryIncrement, func() (ports.Progress, error) { return progress, nil }); err != nil {
		return err
	}

	for !canceled {
		selector := workflow.NewSelector(ctx)

		selector.AddReceive(pushChan, func(c workflow.ReceiveChannel, more bool) {
			var sig ports.PushSignal
			c.Receive(ctx, &sig)
			pending = append(pending, sig)
			progress.Step = "debouncing"
		})
		selector.AddReceive(cancelChan, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, nil)
			canceled = true
		})

		if len(pending) > 0 {
			timerCtx, cancelTimer := workflow.WithCancel(ctx)
			timerFuture := workflow.NewTimer(timerCtx, DebounceWindow)
			fired := false
			selector.AddFuture(timerFuture, func(f workflow.Future) {
				fired = true
			})
			selector.Select(ctx)
			if !fired {
				cancelTimer()
				continue
			}
			cancelTimer()
		} else {
			selector.Select(ctx)
			continue
		}

		if canceled {
			break
		}

		last := pending[len(pending)-1]
		cycle++
		runID := fmt.Sprintf("%s-cycle-%d", input.WorkflowID, cycle)
		req := incremental.Request{
			OrgID:             input.OrgID,
			RepoID:            input.RepoID,
			RepoDir:           input.RepoDir,
			BaseSHA:           lastSHA,
			HeadSHA:           last.PushSHA,
			PushSHA:           last.PushSHA,
			CommitMessage:     last.CommitMessage,
			WorkflowID:        runID,
			FallbackThreshold: input.FallbackThreshold,
			CascadeMaxDepth:   input.CascadeMaxDepth,
		}

		run := graph.PipelineRun{
			ID: runID, OrgID: input.OrgID, RepoID: input.RepoID, WorkflowID: input.WorkflowID,
			RunKind: "incremental", Status: graph.RepoStatusIndexing, StartedAt: workflow.Now(ctx),
		}
		_ = workflow.ExecuteActivity(lightCtx, a.StartPipelineRunActivity, StartPipelineRunRequest{Run: run}).Get(ctx, nil)

		progress.Step = "running"
		var result incremental.Result
		err := workflow.ExecuteActivity(lightCtx, a.RunIncrementalActivity, req).Get(ctx, &result)
		status := graph.RepoStatusReady
		errMsg := ""
		if err != nil {
			progress.LastError = err.Error()
			errMsg = err.Error()
			status = graph.RepoStatusError
		} else {
			lastSHA = last.PushSHA
			progress.LastError = ""
		}
		_ = workflow.ExecuteActivity(lightCtx, a.FinishPipelineRunActivity, FinishPipelineRunRequest{
			RunID: runID, RepoID: input.RepoID, Status: status, ErrorMessage: errMsg,
		}).Get(ctx, nil)

		pending = nil
		progress.Step = "waiting"
		progress.Percent = 100
	}

	return nil
}
