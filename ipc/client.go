// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ipc

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/gpuhud/hud/internal/fdpass"
	"github.com/gpuhud/hud/internal/hlog"
	"github.com/gpuhud/hud/internal/syncfile"
	"github.com/gpuhud/hud/wire"
)

// Client is the overlay-side counterpart to Fabric: it dials the server's
// control socket, registers itself, and exchanges the handful of message
// kinds a client ever sees (spec §4.1). One Client serves one overlaid
// process.
type Client struct {
	conn *net.UnixConn

	mu       sync.Mutex
	acquire  *syncfile.File
	needsImport bool

	// OnDmabuf / OnFence / OnConfig are invoked from the read loop goroutine
	// as each message arrives. Callers must not block them for long; the
	// read loop serves every inbound kind and a slow handler delays the
	// others.
	OnDmabuf func(wire.DmabufInfo)
	OnFence  func()
	OnConfig func(wire.ConfigPayload)
}

// Dial connects to the server at path, sends the on_connect handshake, and
// returns a Client ready to run. requestedRenderMinor is the DRM render
// node the overlaid process would prefer the server render onto (spec
// §4.2 device_selector); 0 means no preference.
func Dial(path string, requestedRenderMinor int64) (*Client, error) {
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: resolve %s: %w", path, err)
	}
	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("ipc: dial %s: %w", path, err)
	}
	c := &Client{conn: conn, needsImport: true}
	payload := wire.MarshalOnConnect(wire.OnConnect{
		Pid:                  int32(os.Getpid()),
		RequestedRenderMinor: requestedRenderMinor,
	})
	if err := wire.WriteFrame(conn, wire.KindOnConnect, payload); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ipc: send on_connect: %w", err)
	}
	return c, nil
}

// Close closes the underlying connection and any fence still held.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.acquire != nil {
		_ = c.acquire.Close()
		c.acquire = nil
	}
	c.mu.Unlock()
	return c.conn.Close()
}

// NeedsImport reports whether the client has a dma-buf descriptor it has
// not yet imported into its own Vulkan context (spec §4.3 needs_import).
func (c *Client) NeedsImport() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsImport
}

// ClearNeedsImport is called once the client has imported the
// most recently received dma-buf.
func (c *Client) ClearNeedsImport() {
	c.mu.Lock()
	c.needsImport = false
	c.mu.Unlock()
}

// ReadyFrame reports whether the server's most recently sent acquire fence
// has signalled (or none is held, which also means ready: the overlay
// composites using stale contents rather than stalling). Consumes the fence
// on a signalled poll, mirroring Session.ReadyFrame on the other end of the
// fabric.
func (c *Client) ReadyFrame() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.acquire == nil {
		return true, nil
	}
	signalled, err := c.acquire.Poll()
	if err != nil {
		return false, err
	}
	if signalled {
		c.acquire = nil
	}
	return signalled, nil
}

// SendFrameSamples reports a batch of presentation timestamps to the server
// (spec §4.1 frame_samples).
func (c *Client) SendFrameSamples(samples wire.FrameSamples) error {
	return wire.WriteFrame(c.conn, wire.KindFrameSamples, wire.MarshalFrameSamples(samples))
}

// SendReleaseFence hands the server back the sync-file for a dma-buf it is
// now done reading from (spec §4.1 release_fence). The fd is closed here
// after a successful send; on failure the caller still owns it and must
// close it.
func (c *Client) SendReleaseFence(releaseFD int) error {
	if err := sendMessage(c.conn, wire.KindReleaseFence, nil, releaseFD); err != nil {
		return err
	}
	return unix.Close(releaseFD)
}

// Run processes inbound messages until ctx is cancelled or the server
// disconnects. Intended to run in its own goroutine; OnDmabuf/OnFence/
// OnConfig fire from this goroutine.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = c.conn.Close()
	}()

	for {
		kind, payload, fds, err := recvMessage(c.conn)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("ipc: client read: %w", err)
			}
		}
		switch kind {
		case wire.KindDmabuf:
			c.handleDmabuf(payload, fds)
		case wire.KindFence:
			c.handleFence(fds)
		case wire.KindConfig:
			c.handleConfig(payload)
		default:
			hlog.Logger().Debug("ipc: client received unexpected message kind", "kind", kind)
			_ = fdpass.CloseAll(fds)
		}
	}
}

func (c *Client) handleDmabuf(payload []byte, fds []int) {
	info, err := wire.UnmarshalDmabufInfo(payload)
	if err != nil {
		hlog.Logger().Debug("ipc: malformed dmabuf message", "error", err)
		_ = fdpass.CloseAll(fds)
		return
	}
	if info.HasGBM {
		if len(fds) != 2 {
			hlog.Logger().Debug("ipc: dmabuf message missing fds", "n", len(fds))
			_ = fdpass.CloseAll(fds)
			return
		}
		info.GbmFD, info.OpaqueFD = fds[0], fds[1]
	} else if len(fds) == 2 {
		_ = fdpass.CloseAll(fds[:1])
		info.OpaqueFD = fds[1]
	}

	c.mu.Lock()
	c.needsImport = true
	c.mu.Unlock()

	if c.OnDmabuf != nil {
		c.OnDmabuf(info)
	}
}

func (c *Client) handleFence(fds []int) {
	if len(fds) != 1 {
		hlog.Logger().Debug("ipc: fence message without exactly one fd", "n", len(fds))
		_ = fdpass.CloseAll(fds)
		return
	}
	c.mu.Lock()
	if c.acquire != nil {
		_ = c.acquire.Close()
	}
	c.acquire = syncfile.New(fds[0])
	c.mu.Unlock()

	if c.OnFence != nil {
		c.OnFence()
	}
}

func (c *Client) handleConfig(payload []byte) {
	cfg, err := wire.UnmarshalConfigPayload(payload)
	if err != nil {
		hlog.Logger().Debug("ipc: malformed config message", "error", err)
		return
	}
	if c.OnConfig != nil {
		c.OnConfig(cfg)
	}
}
