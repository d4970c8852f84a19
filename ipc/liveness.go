// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ipc

import (
	"context"

	"github.com/gpuhud/hud/internal/procwatch"
)

// WatchLiveness runs a ~10 Hz signal-0 liveness probe against session's
// peer pid (spec §4.1 "Liveness") and marks the session dead the moment
// the peer process is gone. Blocks until the session is marked dead or ctx
// is cancelled; intended to run in its own goroutine per session.
func WatchLiveness(ctx context.Context, session *Session) {
	procwatch.Watch(ctx, session.Pid, procwatch.DefaultInterval, session.MarkDead)
}
