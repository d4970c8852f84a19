// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"fmt"
	"sync"
)

// RenderPassCache caches one VkRenderPass per color format
// (load-op-load, store-op-store, single color attachment — spec §4.3
// "a single render pass that loads-op-load and store-op-stores the
// swapchain color attachment") plus one VkFramebuffer per distinct
// VkImageView it is asked to target. Unlike the teacher's RenderPassCache,
// there is no per-configuration key: every render pass this cache creates
// has the same attachment shape, so only the format varies.
type RenderPassCache struct {
	device Device
	cmds   *Commands

	mu           sync.RWMutex
	renderPasses map[Format]RenderPass
	framebuffers map[fbKey]Framebuffer
}

type fbKey struct {
	renderPass RenderPass
	view       ImageView
	width      uint32
	height     uint32
}

func NewRenderPassCache(device Device, cmds *Commands) *RenderPassCache {
	return &RenderPassCache{
		device:       device,
		cmds:         cmds,
		renderPasses: make(map[Format]RenderPass),
		framebuffers: make(map[fbKey]Framebuffer),
	}
}

// GetOrCreateRenderPass returns the cached render pass for a color format,
// creating it on first use.
func (c *RenderPassCache) GetOrCreateRenderPass(colorFormat Format) (RenderPass, error) {
	c.mu.RLock()
	if rp, ok := c.renderPasses[colorFormat]; ok {
		c.mu.RUnlock()
		return rp, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if rp, ok := c.renderPasses[colorFormat]; ok {
		return rp, nil
	}

	colorAttachment := AttachmentDescription{
		Format:         colorFormat,
		Samples:        1,
		LoadOp:         AttachmentLoadOpLoad,
		StoreOp:        AttachmentStoreOpStore,
		StencilLoadOp:  AttachmentLoadOpLoad,
		StencilStoreOp: AttachmentStoreOpStore,
		InitialLayout:  ImageLayoutColorAttachmentOptimal,
		FinalLayout:    ImageLayoutColorAttachmentOptimal,
	}
	colorRef := AttachmentReference{Attachment: 0, Layout: ImageLayoutColorAttachmentOptimal}
	subpass := SubpassDescription{
		PipelineBindPoint:    PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    &colorRef,
	}
	info := RenderPassCreateInfo{
		SType:           StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    &colorAttachment,
		SubpassCount:    1,
		PSubpasses:      &subpass,
	}

	var rp RenderPass
	result, err := c.cmds.CreateRenderPass(c.device, &info, &rp)
	if err != nil {
		return 0, err
	}
	if result.IsError() {
		return 0, fmt.Errorf("vk: vkCreateRenderPass: %d", result)
	}
	c.renderPasses[colorFormat] = rp
	return rp, nil
}

// GetOrCreateFramebuffer returns a cached single-attachment framebuffer
// targeting view, creating it on first use.
func (c *RenderPassCache) GetOrCreateFramebuffer(rp RenderPass, view ImageView, width, height uint32) (Framebuffer, error) {
	key := fbKey{renderPass: rp, view: view, width: width, height: height}

	c.mu.RLock()
	if fb, ok := c.framebuffers[key]; ok {
		c.mu.RUnlock()
		return fb, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if fb, ok := c.framebuffers[key]; ok {
		return fb, nil
	}

	info := FramebufferCreateInfo{
		SType:           StructureTypeFramebufferCreateInfo,
		RenderPass:      rp,
		AttachmentCount: 1,
		PAttachments:    &view,
		Width:           width,
		Height:          height,
		Layers:          1,
	}
	var fb Framebuffer
	result, err := c.cmds.CreateFramebuffer(c.device, &info, &fb)
	if err != nil {
		return 0, err
	}
	if result.IsError() {
		return 0, fmt.Errorf("vk: vkCreateFramebuffer: %d", result)
	}
	c.framebuffers[key] = fb
	return fb, nil
}

// InvalidateFramebuffer drops any cached framebuffer targeting view,
// destroying it. Called when a swapchain image view is recreated.
func (c *RenderPassCache) InvalidateFramebuffer(view ImageView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, fb := range c.framebuffers {
		if key.view == view {
			_ = c.cmds.DestroyFramebuffer(c.device, fb)
			delete(c.framebuffers, key)
		}
	}
}

// Destroy releases every cached render pass and framebuffer.
func (c *RenderPassCache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fb := range c.framebuffers {
		_ = c.cmds.DestroyFramebuffer(c.device, fb)
	}
	c.framebuffers = nil
	for _, rp := range c.renderPasses {
		_ = c.cmds.DestroyRenderPass(c.device, rp)
	}
	c.renderPasses = nil
}
