// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package server

import (
	"github.com/gpuhud/hud/internal/vk"
	"github.com/gpuhud/hud/metrics"
)

// DrawTarget is what a Drawer renders into: the source image of a render
// target, plus the extent it was built at. A Drawer never sees the dma-buf
// or opaque destination images directly; those only receive the finished
// frame via the pipeline's copy step (spec §4.2 steps 1-5).
type DrawTarget struct {
	Image  vk.Image
	View   vk.ImageView
	Width  uint32
	Height uint32
}

// Drawer rasterizes one HudTable snapshot, laid out per layout, into
// target's source image. Font atlas construction and glyph rasterization
// are out of scope for this module (spec §1 Non-goals); Drawer is the seam
// a real text/shape renderer plugs into, and CommandBuffer is expected to
// hold whatever that renderer recorded by the time Draw returns.
type Drawer interface {
	Draw(cmdBuf vk.CommandBuffer, target DrawTarget, table *metrics.HudTable, layout metrics.Layout) error
}

// NullDrawer is a Drawer that records nothing, leaving the source image's
// contents whatever the previous tick left behind (or undefined, on the
// first tick). It is the Drawer cmd/hud-server passes to the server; this
// module has no Drawer that rasterizes glyphs, so the pipeline runs end to
// end without drawing any text.
type NullDrawer struct{}

// Draw implements Drawer by doing nothing.
func (NullDrawer) Draw(vk.CommandBuffer, DrawTarget, *metrics.HudTable, metrics.Layout) error {
	return nil
}
