// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package ipc implements the per-client IPC fabric: a server-side listener
// accepting co-tenant client connections, one worker per session, and the
// client-side counterpart that dials in and exchanges frames. Every frame
// is wire-encoded (see the wire package) and FD-carrying messages ride
// alongside their frame bytes via internal/fdpass's SCM_RIGHTS transfer.
package ipc

import (
	"net"
	"sync"

	"github.com/gpuhud/hud/internal/syncfile"
)

// State is a client session's position in the per-tick render protocol.
type State int32

const (
	StateNew State = iota
	StateWaitingForReady
	StateRender
	StateExportFence
	StateWaitingForRelease
	StateDead
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateWaitingForReady:
		return "waiting_for_ready"
	case StateRender:
		return "render"
	case StateExportFence:
		return "export_fence"
	case StateWaitingForRelease:
		return "waiting_for_release"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Session is one server-side client connection: its state machine
// position, the handles it currently owns, and the lock protecting them.
// The fabric owns exactly one Session per connected client; sessions never
// talk to each other.
type Session struct {
	mu   sync.Mutex
	Pid  int32
	conn *net.UnixConn

	state State
	// initialFence gates the very first RENDER: no release has been
	// exchanged yet so the first iteration is allowed unconditionally
	// (spec §4.4).
	initialFence bool

	// acquire is the server's currently exported render-done sync-file.
	// At most one is live; a new one is only installed after the old one
	// has been sent and closed (spec §4.4 backpressure).
	acquire *syncfile.File

	// release is the client's most recently received release sync-file.
	// A newly received one deduplicates against (closes) any still held.
	release *syncfile.File

	sendDmabuf bool
	sendFence bool

	dead bool
}

// NewSession wraps conn as a fresh session in State New.
func NewSession(pid int32, conn *net.UnixConn) *Session {
	return &Session{Pid: pid, conn: conn, state: StateNew, initialFence: true}
}

// Conn returns the underlying connection, valid until the session is
// marked dead and reaped.
func (s *Session) Conn() *net.UnixConn { return s.conn }

// State returns the session's current protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState drives the session's protocol state forward (spec §4.4's
// NEW → WAITING_FOR_READY → RENDER → EXPORT_FENCE → WAITING_FOR_RELEASE
// cycle); callers outside this package are expected to follow that order.
func (s *Session) SetState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
}

// ReadyFrame implements the spec's non-blocking ready_frame(): true iff no
// release is outstanding (first iteration) or the held release sync-file
// has signalled, in which case it is consumed (closed) as a side effect.
func (s *Session) ReadyFrame() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialFence {
		s.initialFence = false
		return true, nil
	}
	if s.release == nil {
		return false, nil
	}
	signalled, err := s.release.Poll()
	if err != nil {
		return false, err
	}
	if signalled {
		s.release = nil
	}
	return signalled, nil
}

// SetAcquire installs a newly exported acquire sync-file, closing any
// previous one first (spec §4.4: "exactly one is live at a time").
func (s *Session) SetAcquire(f *syncfile.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquire != nil {
		_ = s.acquire.Close()
	}
	s.acquire = f
}

// SetRelease installs a newly received release sync-file, deduplicating
// against (closing) any release already held (spec §4.1 release_fence).
func (s *Session) SetRelease(f *syncfile.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.release != nil {
		_ = s.release.Close()
	}
	s.release = f
}

// MarkDmabufPending / MarkFencePending / ClearPending track the per-tick
// send_dmabuf / send_fence flags (spec §4.2 step 5).
func (s *Session) MarkDmabufPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendDmabuf = true
}

func (s *Session) MarkFencePending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendFence = true
}

func (s *Session) ClearPending() (sendDmabuf, sendFence bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sendDmabuf, sendFence = s.sendDmabuf, s.sendFence
	s.sendDmabuf, s.sendFence = false, false
	return
}

// MarkDead marks the session dead; the reaper collects it after its
// worker joins (spec §4.1 on_disconnect).
func (s *Session) MarkDead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return
	}
	s.dead = true
	s.state = StateDead
}

// Dead reports whether the session has been marked dead.
func (s *Session) Dead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dead
}

// Close releases the session's held sync-files and connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquire != nil {
		_ = s.acquire.Close()
		s.acquire = nil
	}
	if s.release != nil {
		_ = s.release.Close()
		s.release = nil
	}
	return s.conn.Close()
}
