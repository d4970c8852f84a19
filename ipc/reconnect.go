// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ipc

import (
	"context"
	"math/rand"
	"time"

	"github.com/gpuhud/hud/internal/hlog"
)

// ReconnectConfig bounds the backoff a client uses when the server is not
// yet listening, or disappears and comes back (e.g. restarted by a service
// manager). The spec names reconnection only in passing; this shape
// mirrors the jittered exponential backoff the rest of this stack already
// uses for transient-failure retries.
type ReconnectConfig struct {
	Initial time.Duration
	Max     time.Duration
}

// DefaultReconnectConfig starts at 100ms and caps at 5s, reasonable for a
// socket that may appear moments after the client starts probing it.
var DefaultReconnectConfig = ReconnectConfig{
	Initial: 100 * time.Millisecond,
	Max:     5 * time.Second,
}

// RunReconnecting dials path and runs the resulting Client's read loop in
// a loop, reconnecting with jittered exponential backoff whenever the
// connection is refused or drops, until ctx is cancelled. onClient is
// called with each freshly dialed Client before Run starts, so the caller
// can (re)install OnDmabuf/OnFence/OnConfig and resend any state the new
// connection needs re-established (the server has no memory of a client
// across a reconnect: a fresh on_connect is indistinguishable from a first
// connect).
func RunReconnecting(ctx context.Context, cfg ReconnectConfig, path string, requestedRenderMinor int64, onClient func(*Client)) {
	if cfg.Initial <= 0 {
		cfg = DefaultReconnectConfig
	}
	backoff := cfg.Initial

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		client, err := Dial(path, requestedRenderMinor)
		if err != nil {
			hlog.Logger().Debug("ipc: reconnect: dial failed", "error", err, "backoff", backoff)
			if !sleepCtx(ctx, jitter(backoff)) {
				return
			}
			backoff = nextBackoff(backoff, cfg.Max)
			continue
		}

		backoff = cfg.Initial
		if onClient != nil {
			onClient(client)
		}
		err = client.Run(ctx)
		_ = client.Close()
		if err != nil {
			hlog.Logger().Debug("ipc: reconnect: session ended", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
		if !sleepCtx(ctx, jitter(backoff)) {
			return
		}
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		next = max
	}
	return next
}

// jitter returns d plus up to 20% extra, so many clients racing to
// reconnect to a just-restarted server don't all retry in lockstep.
func jitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/5+1))
}

// sleepCtx waits for d or ctx cancellation, reporting whether it completed
// the full sleep (false means the caller should stop, not retry).
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
