// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package errclass maps this repo's failure categories onto Temporal's
// retryable/non-retryable error distinction, the same way
// internal/errors maps CLI failures onto exit codes: one small table
// naming what went wrong, translated into the vocabulary the next layer
// up (Temporal's retry policy, the CLI's exit code) actually understands.
package errclass

import (
	"errors"

	"go.temporal.io/sdk/temporal"
)

// Category is one of the failure classes this package distinguishes.
type Category string

const (
	// CategoryInputValidation covers a malformed repo URL, an unsupported
	// ref, or a config value that fails validation before any I/O starts.
	// Retrying cannot help, so it is always non-retryable.
	CategoryInputValidation Category = "input_validation"

	// CategoryGraphIO covers CozoDB/Postgres/Redis errors: connection
	// resets, lock contention, transient unavailability. Retryable.
	CategoryGraphIO Category = "graph_io"

	// CategoryLLM covers provider timeouts, rate limits, and malformed
	// structured-output responses. Retryable — pkg/llm.StructuredChat
	// already retries once inline for a parse failure; this is the
	// outer retry for everything that survives past that.
	CategoryLLM Category = "llm"

	// CategoryGit covers clone/diff failures against the configured git
	// host. Retryable, since most failures are transient network errors.
	CategoryGit Category = "git"

	// CategoryQuarantine is not really a failure: an oversized or
	// unparseable file is recorded and the pipeline continues. Activities
	// never raise this category as an error; it exists so callers can
	// tell a planned quarantine apart from an actual failure when reading
	// a PipelineStep's ErrorMessage.
	CategoryQuarantine Category = "quarantine"
)

// retryable reports whether Category should be retried by Temporal's
// default activity retry policy.
func retryable(c Category) bool {
	switch c {
	case CategoryInputValidation:
		return false
	default:
		return true
	}
}

// Wrap converts err into a temporal.ApplicationError tagged with
// category, so the workflow's retry policy and any getProgress query can
// both see why an activity failed without inspecting error strings.
func Wrap(category Category, err error) error {
	if err == nil {
		return nil
	}
	if retryable(category) {
		return temporal.NewApplicationErrorWithCause(err.Error(), string(category), err)
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), string(category), err)
}

// CategoryOf extracts the Category tag from an error Wrap produced, or
// "" if err wasn't one of ours.
func CategoryOf(err error) Category {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return Category(appErr.Type())
	}
	return ""
}
