// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines if and how progress should be displayed.
type ProgressConfig struct {
	// Enabled indicates whether a progress spinner should be shown.
	// Disabled when --debug is set (the text log handler already streams
	// progress) or when stderr is not a TTY.
	Enabled bool

	Writer io.Writer
}

// NewProgressConfig decides whether to show a spinner: only when stderr is
// an interactive terminal and the caller hasn't asked for verbose logging
// instead.
func NewProgressConfig(debug bool) ProgressConfig {
	return ProgressConfig{
		Enabled: !debug && isatty.IsTerminal(os.Stderr.Fd()),
		Writer:  os.Stderr,
	}
}

// NewSpinner creates an indeterminate progress spinner for the indexing
// run, whose duration isn't known ahead of time. Returns nil when progress
// is disabled, which every caller must treat as "do nothing".
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
}
