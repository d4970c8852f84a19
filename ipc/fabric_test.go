// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ipc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gpuhud/hud/wire"
)

func TestFabricHandshakeRegistersSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "control.sock")
	f, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer f.Close()

	connected := make(chan int64, 1)
	f.OnConnect = func(s *Session, requestedMinor int64) {
		connected <- requestedMinor
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Serve(ctx)

	client, err := Dial(path, 128)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	select {
	case minor := <-connected:
		if minor != 128 {
			t.Fatalf("requestedRenderMinor = %d, want 128", minor)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnConnect")
	}
}

func TestFabricDeliversDmabufAndFence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "control.sock")
	f, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer f.Close()

	sessionCh := make(chan *Session, 1)
	f.OnConnect = func(s *Session, _ int64) { sessionCh <- s }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Serve(ctx)

	client, err := Dial(path, 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	dmabufCh := make(chan wire.DmabufInfo, 1)
	fenceCh := make(chan struct{}, 1)
	client.OnDmabuf = func(info wire.DmabufInfo) { dmabufCh <- info }
	client.OnFence = func() { fenceCh <- struct{}{} }
	go client.Run(ctx)

	var session *Session
	select {
	case session = <-sessionCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session")
	}

	gbmFds := make([]int, 2)
	if err := unix.Pipe(gbmFds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(gbmFds[1])
	opaqueFds := make([]int, 2)
	if err := unix.Pipe(opaqueFds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(opaqueFds[1])

	info := wire.DmabufInfo{Width: 1920, Height: 1080, Fourcc: 0x34325258, HasGBM: true}
	if err := session.SendDmabuf(info, gbmFds[0], opaqueFds[0]); err != nil {
		t.Fatalf("SendDmabuf: %v", err)
	}
	unix.Close(gbmFds[0])
	unix.Close(opaqueFds[0])

	select {
	case got := <-dmabufCh:
		if got.Width != 1920 || got.Height != 1080 {
			t.Fatalf("dmabuf info = %+v", got)
		}
		if !client.NeedsImport() {
			t.Fatal("expected NeedsImport to be true after receiving a dmabuf")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dmabuf")
	}

	fenceFds := make([]int, 2)
	if err := unix.Pipe(fenceFds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if err := session.SendFence(fenceFds[0]); err != nil {
		t.Fatalf("SendFence: %v", err)
	}
	unix.Write(fenceFds[1], []byte{1})
	defer unix.Close(fenceFds[1])

	select {
	case <-fenceCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fence")
	}
}

func TestFabricReceivesFrameSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "control.sock")
	f, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer f.Close()

	samplesCh := make(chan wire.FrameSamples, 1)
	f.OnFrameSamples = func(_ *Session, samples wire.FrameSamples) { samplesCh <- samples }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Serve(ctx)

	client, err := Dial(path, 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	go client.Run(ctx)

	want := wire.FrameSamples{Samples: []wire.FrameSample{{Seq: 1, TNs: 1000}, {Seq: 2, TNs: 2000}}}
	if err := client.SendFrameSamples(want); err != nil {
		t.Fatalf("SendFrameSamples: %v", err)
	}

	select {
	case got := <-samplesCh:
		if len(got.Samples) != 2 || got.Samples[1].Seq != 2 {
			t.Fatalf("samples = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame_samples")
	}
}
