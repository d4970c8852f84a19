// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package client

import (
	"sync"

	"github.com/gpuhud/hud/internal/fdpass"
	"github.com/gpuhud/hud/internal/vk"
	"github.com/gpuhud/hud/ipc"
	"github.com/gpuhud/hud/wire"
)

// Interceptor is the layer-facing entry point: it owns the connection to
// the server (ipc.Client), the per-swapchain tracking table (Overlay), and
// the one shared imported frame every tracked swapchain composites from
// (spec §9: "OnSwapchainCreated / OnSwapchainDestroyed / OnQueuePresent").
// A real Vulkan layer wires these three methods directly to
// vkCreateSwapchainKHR / vkDestroySwapchainKHR / vkQueuePresentKHR; see
// cmd/hud-shim.
type Interceptor struct {
	dispatch    Dispatch
	device      vk.Device
	queueFamily uint32
	ipcClient   *ipc.Client
	overlay     *Overlay
	vertSPV     []byte
	fragSPV     []byte

	// OffsetX / OffsetY shift where the composited frame lands within the
	// swapchain image (spec §4.3 push-constant "pixel offset"); both
	// default to 0 (top-left).
	OffsetX, OffsetY float32

	mu          sync.Mutex
	pending     *wire.DmabufInfo
	imp         *DmabufImport
	releaseFence vk.Fence
	releaseSema  vk.Semaphore
}

// NewInterceptor returns a ready-to-use Interceptor bound to dispatch and
// device. ipcClient may be nil; call Attach once a Client is dialed (or on
// every reconnect, via ipc.RunReconnecting's onClient callback) to wire its
// OnDmabuf callback to this interceptor's re-import bookkeeping. vertSPV /
// fragSPV are the composite pipeline's compiled shader stages (see
// client.BuildOverlayPipeline).
func NewInterceptor(dispatch Dispatch, device vk.Device, queueFamily uint32, ipcClient *ipc.Client, vertSPV, fragSPV []byte) *Interceptor {
	it := &Interceptor{
		dispatch:    dispatch,
		device:      device,
		queueFamily: queueFamily,
		overlay:     NewOverlay(),
		vertSPV:     vertSPV,
		fragSPV:     fragSPV,
	}
	if ipcClient != nil {
		it.Attach(ipcClient)
	}
	return it
}

// Attach binds ipcClient as this interceptor's active connection, wiring
// its OnDmabuf callback. The server has no memory of a client across a
// reconnect, so every freshly dialed Client needs this rewiring.
func (it *Interceptor) Attach(ipcClient *ipc.Client) {
	it.mu.Lock()
	it.ipcClient = ipcClient
	it.mu.Unlock()
	ipcClient.OnDmabuf = it.onDmabuf
}

func (it *Interceptor) onDmabuf(info wire.DmabufInfo) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.pending != nil {
		closeDmabufFDs(*it.pending)
	}
	it.pending = &info
}

func closeDmabufFDs(info wire.DmabufInfo) {
	fds := make([]int, 0, 2)
	if info.GbmFD >= 0 {
		fds = append(fds, info.GbmFD)
	}
	if info.OpaqueFD >= 0 {
		fds = append(fds, info.OpaqueFD)
	}
	_ = fdpass.CloseAll(fds)
}

// OnSwapchainCreated registers a freshly created swapchain's images for
// composite tracking (spec §9).
func (it *Interceptor) OnSwapchainCreated(swap vk.Swapchain, format vk.Format, extent vk.Extent2D, images []vk.Image) error {
	sd, err := NewSwapchainData(it.dispatch, it.device, format, extent, images)
	if err != nil {
		return err
	}
	it.overlay.Track(swap, sd)
	return nil
}

// OnSwapchainDestroyed releases a swapchain's composite state (spec §9).
func (it *Interceptor) OnSwapchainDestroyed(swap vk.Swapchain) {
	it.overlay.Untrack(swap)
}

// Close tears down every tracked swapchain and the current import, if any.
func (it *Interceptor) Close() {
	it.overlay.Close()
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.imp != nil {
		_ = it.imp.Destroy()
		it.imp = nil
	}
	if it.releaseSema != 0 {
		_ = it.dispatch.DestroySemaphore(it.device, it.releaseSema)
		it.releaseSema = 0
	}
	if it.releaseFence != 0 {
		_ = it.dispatch.DestroyFence(it.device, it.releaseFence)
		it.releaseFence = 0
	}
	if it.pending != nil {
		closeDmabufFDs(*it.pending)
		it.pending = nil
	}
}
