// Package procwatch probes peer-process liveness for IPC sessions (spec
// §4.1 "Liveness": a periodic signal-0 style existence check at ~10 Hz).
package procwatch

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultInterval is the ~10 Hz cadence named in spec §4.1.
const DefaultInterval = 100 * time.Millisecond

// Alive reports whether pid still exists, using kill(pid, 0): no signal is
// delivered, only existence and permission are checked.
func Alive(pid int32) bool {
	err := unix.Kill(int(pid), 0)
	return err == nil || err == unix.EPERM
}

// Watch polls pid at interval until ctx is cancelled or the process is
// observed gone, then invokes onDead exactly once and returns. interval <=
// 0 uses DefaultInterval.
//
// Watch is meant to run in its own goroutine, one per session; it returns
// promptly on ctx cancellation so a session torn down for other reasons
// (on_disconnect) doesn't leave a watcher goroutine behind.
func Watch(ctx context.Context, pid int32, interval time.Duration, onDead func()) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !Alive(pid) {
				onDead()
				return
			}
		}
	}
}
