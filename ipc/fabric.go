// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ipc

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/gpuhud/hud/internal/hlog"
	"github.com/gpuhud/hud/wire"
)

// SessionTable is the registry of live sessions, guarded by a single
// RWMutex (the teacher's backend-registry shape, carried here as a
// per-client session registry instead of a per-backend one).
type SessionTable struct {
	mu       sync.RWMutex
	sessions map[int32]*Session
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[int32]*Session)}
}

func (t *SessionTable) Add(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.Pid] = s
}

func (t *SessionTable) Get(pid int32) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[pid]
	return s, ok
}

// Each calls fn for every currently registered session.
func (t *SessionTable) Each(fn func(*Session)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.sessions {
		fn(s)
	}
}

// RemoveDead removes every session marked dead, calling onRemoved for each
// before it is dropped from the table.
func (t *SessionTable) RemoveDead(onRemoved func(*Session)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for pid, s := range t.sessions {
		if s.Dead() {
			delete(t.sessions, pid)
			onRemoved(s)
		}
	}
}

// Fabric is the server-side IPC endpoint: it listens on a well-known Unix
// socket, accepts unauthenticated local connections, and spawns one worker
// per client session (spec §4.1). It is not a routing layer: sessions
// never observe each other.
type Fabric struct {
	listener *net.UnixListener
	sessions *SessionTable

	// OnConnect is invoked once register_client succeeds for a new
	// session, letting the caller (server.Server) seed its per-client
	// pipeline state.
	OnConnect func(session *Session, requestedRenderMinor int64)
	// OnFrameSamples / OnReleaseFence deliver the two inbound message
	// kinds a session worker can receive from its peer.
	OnFrameSamples  func(*Session, wire.FrameSamples)
	OnReleaseFence  func(*Session, int)
}

// SocketPath returns the well-known control-socket path this module's
// fabric listens on: $XDG_RUNTIME_DIR/hud/control.sock, falling back to
// /tmp when XDG_RUNTIME_DIR is unset (headless test environments).
func SocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = "/tmp"
	}
	return dir + "/hud/control.sock"
}

// Listen creates the fabric's listening socket at path, removing any stale
// socket file left behind by a previous crashed server.
func Listen(path string) (*Fabric, error) {
	_ = os.Remove(path)
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: resolve %s: %w", path, err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen %s: %w", path, err)
	}
	return &Fabric{listener: ln, sessions: NewSessionTable()}, nil
}

// Sessions returns the fabric's session table.
func (f *Fabric) Sessions() *SessionTable { return f.sessions }

// Serve accepts connections until ctx is cancelled, spawning one worker
// goroutine per accepted session.
func (f *Fabric) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = f.listener.Close()
	}()

	for {
		conn, err := f.listener.AcceptUnix()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("ipc: accept: %w", err)
			}
		}
		go f.handleSession(ctx, conn)
	}
}

// Close closes the listening socket, unblocking Serve.
func (f *Fabric) Close() error {
	return f.listener.Close()
}

func (f *Fabric) handleSession(ctx context.Context, conn *net.UnixConn) {
	onConnect, requestedMinor, err := recvHandshake(conn)
	if err != nil {
		hlog.Logger().Debug("ipc: handshake failed", "error", err)
		_ = conn.Close()
		return
	}

	session := NewSession(onConnect.Pid, conn)
	f.sessions.Add(session)
	session.SetState(StateWaitingForReady)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go WatchLiveness(sessionCtx, session)

	if f.OnConnect != nil {
		f.OnConnect(session, requestedMinor)
	}

	f.readLoop(session)
}

// recvHandshake reads the client's register_client on_connect frame.
func recvHandshake(conn *net.UnixConn) (wire.OnConnect, int64, error) {
	kind, payload, err := wire.ReadFrame(conn)
	if err != nil {
		return wire.OnConnect{}, 0, err
	}
	if kind != wire.KindOnConnect {
		return wire.OnConnect{}, 0, fmt.Errorf("ipc: expected on_connect, got %s", kind)
	}
	m, err := wire.UnmarshalOnConnect(payload)
	if err != nil {
		return wire.OnConnect{}, 0, err
	}
	return m, m.RequestedRenderMinor, nil
}

// readLoop processes inbound frame_samples and release_fence messages
// until the peer disconnects or the session is marked dead (spec §4.1
// on_disconnect).
func (f *Fabric) readLoop(session *Session) {
	defer session.MarkDead()

	for {
		if session.Dead() {
			return
		}
		kind, payload, fds, err := recvMessage(session.Conn())
		if err != nil {
			return
		}
		switch kind {
		case wire.KindFrameSamples:
			samples, err := wire.UnmarshalFrameSamples(payload)
			if err != nil {
				hlog.Logger().Debug("ipc: malformed frame_samples", "pid", session.Pid, "error", err)
				continue
			}
			if f.OnFrameSamples != nil {
				f.OnFrameSamples(session, samples)
			}
		case wire.KindReleaseFence:
			if len(fds) != 1 {
				hlog.Logger().Debug("ipc: release_fence without exactly one fd", "pid", session.Pid, "n", len(fds))
				continue
			}
			if f.OnReleaseFence != nil {
				f.OnReleaseFence(session, fds[0])
			}
		default:
			hlog.Logger().Debug("ipc: unexpected message kind from client", "pid", session.Pid, "kind", kind)
		}
	}
}
