// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package server implements the per-client render pipeline: device
// selection, the GBM/dma-buf render target, and the per-tick sequence
// that produces one overlay image per client and hands its sync-file and
// buffer descriptor over the IPC fabric (spec §4.2).
package server

import (
	"sync"

	"github.com/gpuhud/hud/internal/vk"
	"github.com/gpuhud/hud/metrics"
)

// ClientResources holds one client's mutable pipeline state, protected by
// a single mutex acquired briefly for reads and flag flips and never held
// across a Vulkan submission (spec §5: "Client-resources mutex protects
// mutable fields of ClientResources... Never held across Vulkan
// submission.").
type ClientResources struct {
	mu sync.Mutex

	requestedMinor int64
	target         *RenderTarget
	pacingFence    *vk.ExportableFence

	reinitDmabuf bool
	firstBuild   bool
	dmabufEnabled bool

	samples    *metrics.SampleWindow
	frametimes *metrics.FrametimeRing
	fps        *metrics.Smoother
	frametime  *metrics.Smoother
}

// NewClientResources creates the resource set for a newly connected
// client. requestedMinor is the DRM render-minor the client asked for
// (0 meaning no preference); dmabufEnabled is the server's choice of
// render-target path for this client, derived from the selected device's
// DmabufCapable flag (which device selection always leaves false).
func NewClientResources(requestedMinor int64, dmabufEnabled bool) *ClientResources {
	return &ClientResources{
		requestedMinor: requestedMinor,
		firstBuild:     true,
		dmabufEnabled:  dmabufEnabled,
		samples:        metrics.NewSampleWindow(500*1_000_000, 512),
		frametimes:     metrics.NewFrametimeRing(256),
		fps:            metrics.NewSmoother(0.2, 5.0),
		frametime:      metrics.NewSmoother(0.2, 5.0),
	}
}

// Target returns the currently built render target, or nil before the
// first successful build.
func (r *ClientResources) Target() *RenderTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// SetTarget installs a newly built render target, replacing (but not
// destroying — the caller owns teardown order) the previous one.
func (r *ClientResources) SetTarget(t *RenderTarget) {
	r.mu.Lock()
	r.target = t
	r.mu.Unlock()
}

// NeedsReinit reports whether the next tick must tear down and rebuild the
// dma-buf-backed objects (spec §4.2 "Resize policy").
func (r *ClientResources) NeedsReinit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reinitDmabuf
}

// MarkReinit requests a rebuild on the next tick.
func (r *ClientResources) MarkReinit() {
	r.mu.Lock()
	r.reinitDmabuf = true
	r.mu.Unlock()
}

// ClearReinit consumes the reinit request, reporting whether one was
// pending.
func (r *ClientResources) ClearReinit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := r.reinitDmabuf
	r.reinitDmabuf = false
	return pending
}

// ConsumeFirstBuild reports whether this is the first successful build
// since init or reinit, clearing the flag as a side effect (spec §4.2
// step 5: "send_dmabuf = true iff this is the first successful build
// after init or after reinit").
func (r *ClientResources) ConsumeFirstBuild() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	first := r.firstBuild
	r.firstBuild = false
	return first
}

// MarkRebuilt resets ConsumeFirstBuild's flag after a reinit completes, so
// the next successful build is again treated as a first build.
func (r *ClientResources) MarkRebuilt() {
	r.mu.Lock()
	r.firstBuild = true
	r.mu.Unlock()
}

// EnsurePacingFence returns the client's pacing fence, creating a fresh
// pre-signalled one on first use (spec §3 "one fence per image (created
// pre-signalled)").
func (r *ClientResources) EnsurePacingFence(cmds *vk.Commands, device vk.Device) (*vk.ExportableFence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pacingFence != nil {
		return r.pacingFence, nil
	}
	f, err := vk.CreateExportableFence(cmds, device)
	if err != nil {
		return nil, err
	}
	r.pacingFence = f
	return f, nil
}

// DmabufEnabled reports whether this client's render target uses the
// dma-buf path, or only the opaque-FD fallback (spec §4.2 device
// selection / §4.7 "Unsupported DMA-BUF import").
func (r *ClientResources) DmabufEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dmabufEnabled
}

// Samples returns the client's frame-presentation sample window.
func (r *ClientResources) Samples() *metrics.SampleWindow { return r.samples }

// Frametimes returns the client's frametime ring.
func (r *ClientResources) Frametimes() *metrics.FrametimeRing { return r.frametimes }

// SmoothFPS pushes a freshly computed FPS value through the sanity-band
// smoother (spec §4.4 "values outside a sanity band are coerced").
func (r *ClientResources) SmoothFPS(v float64) float64 { return r.fps.Push(v) }

// SmoothFrametime pushes a freshly computed frametime value through its
// own sanity-band smoother.
func (r *ClientResources) SmoothFrametime(v float64) float64 { return r.frametime.Push(v) }

// Close tears down the client's Vulkan/GBM objects in dependency order.
// Safe to call once the pipeline has decided the client session is done.
func (r *ClientResources) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	if r.pacingFence != nil {
		if err := r.pacingFence.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.pacingFence = nil
	}
	if r.target != nil {
		if err := r.target.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.target = nil
	}
	return firstErr
}
