// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ipc

import (
	"github.com/gpuhud/hud/internal/hlog"
)

// Reap removes dead sessions from sessions under lock and closes each,
// returning the pids collected (spec §4.1: "a reaper task later collects
// dead sessions under a lock"). Call periodically from the fabric's own
// goroutine; never from a per-session worker, so one slow session can
// never block another's reap.
func Reap(sessions *SessionTable) []int32 {
	var collected []int32
	sessions.RemoveDead(func(s *Session) {
		collected = append(collected, s.Pid)
		if err := s.Close(); err != nil {
			hlog.Logger().Debug("ipc: error closing reaped session", "pid", s.Pid, "error", err)
		}
	})
	return collected
}
