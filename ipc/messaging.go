// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ipc

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/gpuhud/hud/internal/fdpass"
	"github.com/gpuhud/hud/wire"
)

// recvMessage reads one framed message from conn, recovering any FDs sent
// alongside it as SCM_RIGHTS ancillary data.
func recvMessage(conn *net.UnixConn) (wire.Kind, []byte, []int, error) {
	buf, fds, err := fdpass.Recv(conn, 16<<20)
	if err != nil {
		return 0, nil, nil, err
	}
	kind, payload, err := wire.DecodeFrame(buf)
	if err != nil {
		_ = fdpass.CloseAll(fds)
		return 0, nil, nil, err
	}
	return kind, payload, fds, nil
}

// sendMessage writes one framed message to conn, attaching fds as
// SCM_RIGHTS ancillary data when present.
func sendMessage(conn *net.UnixConn, kind wire.Kind, payload []byte, fds ...int) error {
	return fdpass.Send(conn, wire.EncodeFrame(kind, payload), fds...)
}

// SendDmabuf transfers the buffer descriptor to the session's client
// (spec §4.1 send_dmabuf). Both fds are duped defensively before sending
// so a send failure never leaves the caller's own descriptor closed out
// from under it.
func (s *Session) SendDmabuf(info wire.DmabufInfo, gbmFD, opaqueFD int) error {
	dupGbm, err := fdpass.DupDefensive(gbmFD)
	if err != nil {
		return fmt.Errorf("ipc: dup gbm fd: %w", err)
	}
	dupOpaque, err := fdpass.DupDefensive(opaqueFD)
	if err != nil {
		_ = unix.Close(dupGbm)
		return fmt.Errorf("ipc: dup opaque fd: %w", err)
	}
	info.GbmFD, info.OpaqueFD = dupGbm, dupOpaque
	err = sendMessage(s.conn, wire.KindDmabuf, info.Marshal(), dupGbm, dupOpaque)
	_ = unix.Close(dupGbm)
	_ = unix.Close(dupOpaque)
	return err
}

// SendFence transfers an acquire sync-file to the client (spec §4.1
// send_fence: "The FD is closed in the sender after successful send").
func (s *Session) SendFence(acquireFD int) error {
	err := sendMessage(s.conn, wire.KindFence, nil, acquireFD)
	_ = unix.Close(acquireFD)
	return err
}

// SendConfig sends a configuration payload to the client (spec §4.1
// config). server.Server does not call it.
func (s *Session) SendConfig(payload wire.ConfigPayload) error {
	return sendMessage(s.conn, wire.KindConfig, wire.MarshalConfigPayload(payload))
}
