// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ipc

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRunReconnectingDialsOnceServerAppears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "control.sock")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientCh := make(chan *Client, 1)
	go RunReconnecting(ctx, ReconnectConfig{Initial: 10 * time.Millisecond, Max: 50 * time.Millisecond}, path, 0, func(c *Client) {
		select {
		case clientCh <- c:
		default:
		}
	})

	// The server isn't listening yet; give RunReconnecting a couple of
	// failed dial attempts before it appears.
	time.Sleep(30 * time.Millisecond)

	f, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer f.Close()
	go f.Serve(ctx)

	select {
	case <-clientCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for RunReconnecting to dial once the server appeared")
	}
}

func TestNextBackoffCapsAtMax(t *testing.T) {
	max := 1 * time.Second
	b := 900 * time.Millisecond
	if got := nextBackoff(b, max); got != max {
		t.Fatalf("nextBackoff = %v, want capped at %v", got, max)
	}
}

func TestJitterNeverShrinksBelowInput(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 20; i++ {
		if got := jitter(d); got < d {
			t.Fatalf("jitter(%v) = %v, want >= input", d, got)
		}
	}
}
