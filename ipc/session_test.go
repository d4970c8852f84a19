// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ipc

import (
	"net"
	"os"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/gpuhud/hud/internal/syncfile"
)

func socketpairConns(t *testing.T) (a, b *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	toConn := func(fd int) *net.UnixConn {
		f := os.NewFile(uintptr(fd), "sp")
		c, err := net.FileConn(f)
		f.Close()
		if err != nil {
			t.Fatalf("FileConn: %v", err)
		}
		uc, ok := c.(*net.UnixConn)
		if !ok {
			t.Fatalf("FileConn did not return *net.UnixConn")
		}
		return uc
	}
	a = toConn(fds[0])
	b = toConn(fds[1])
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

func pipeSyncfile(t *testing.T) (f *syncfile.File, signal func()) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() { unix.Close(fds[1]) })
	return syncfile.New(fds[0]), func() {
		if _, err := unix.Write(fds[1], []byte{0}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func TestNewSessionStartsInStateNew(t *testing.T) {
	a, _ := socketpairConns(t)
	s := NewSession(42, a)
	if s.State() != StateNew {
		t.Fatalf("State() = %v, want StateNew", s.State())
	}
	if s.Pid != 42 {
		t.Fatalf("Pid = %d, want 42", s.Pid)
	}
}

func TestSetStateTransitions(t *testing.T) {
	a, _ := socketpairConns(t)
	s := NewSession(1, a)
	for _, want := range []State{StateWaitingForReady, StateRender, StateExportFence, StateWaitingForRelease} {
		s.SetState(want)
		if got := s.State(); got != want {
			t.Fatalf("State() = %v, want %v", got, want)
		}
	}
}

func TestReadyFrameFirstIterationUnconditional(t *testing.T) {
	a, _ := socketpairConns(t)
	s := NewSession(1, a)
	ready, err := s.ReadyFrame()
	if err != nil {
		t.Fatalf("ReadyFrame: %v", err)
	}
	if !ready {
		t.Fatal("expected first ReadyFrame call to report ready with no release held")
	}
}

func TestReadyFrameWaitsForUnsignalledRelease(t *testing.T) {
	a, _ := socketpairConns(t)
	s := NewSession(1, a)
	s.ReadyFrame() // consume the unconditional first iteration

	f, signal := pipeSyncfile(t)
	s.SetRelease(f)

	ready, err := s.ReadyFrame()
	if err != nil {
		t.Fatalf("ReadyFrame: %v", err)
	}
	if ready {
		t.Fatal("expected not ready before release signals")
	}

	signal()
	ready, err = s.ReadyFrame()
	if err != nil {
		t.Fatalf("ReadyFrame: %v", err)
	}
	if !ready {
		t.Fatal("expected ready after release signals")
	}
}

func TestSetAcquireClosesPrevious(t *testing.T) {
	a, _ := socketpairConns(t)
	s := NewSession(1, a)

	f1, _ := pipeSyncfile(t)
	fd1 := f1.FD()
	s.SetAcquire(f1)

	f2, _ := pipeSyncfile(t)
	s.SetAcquire(f2)

	// fd1 should now be closed; closing it again should fail with EBADF.
	if err := unix.Close(fd1); err == nil {
		t.Fatal("expected fd1 to already be closed by SetAcquire")
	}
}

func TestMarkDeadIsIdempotent(t *testing.T) {
	a, _ := socketpairConns(t)
	s := NewSession(1, a)
	s.MarkDead()
	s.MarkDead()
	if !s.Dead() {
		t.Fatal("expected session to be dead")
	}
	if s.State() != StateDead {
		t.Fatalf("State() = %v, want StateDead", s.State())
	}
}

func TestSessionTableAddGetRemoveDead(t *testing.T) {
	a, _ := socketpairConns(t)
	table := NewSessionTable()
	s := NewSession(7, a)
	table.Add(s)

	got, ok := table.Get(7)
	if !ok || got != s {
		t.Fatal("expected Get to find the added session")
	}

	if _, ok := table.Get(8); ok {
		t.Fatal("expected Get for unknown pid to report not found")
	}

	s.MarkDead()
	var removed []int32
	table.RemoveDead(func(dead *Session) { removed = append(removed, dead.Pid) })
	if len(removed) != 1 || removed[0] != 7 {
		t.Fatalf("removed = %v, want [7]", removed)
	}
	if _, ok := table.Get(7); ok {
		t.Fatal("expected session to be gone after RemoveDead")
	}
}

func TestClearPendingResetsFlags(t *testing.T) {
	a, _ := socketpairConns(t)
	s := NewSession(1, a)
	s.MarkDmabufPending()
	s.MarkFencePending()

	dmabuf, fence := s.ClearPending()
	if !dmabuf || !fence {
		t.Fatalf("ClearPending = (%v, %v), want (true, true)", dmabuf, fence)
	}

	dmabuf, fence = s.ClearPending()
	if dmabuf || fence {
		t.Fatalf("ClearPending after clear = (%v, %v), want (false, false)", dmabuf, fence)
	}
}
