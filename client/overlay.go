// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package client

import (
	"fmt"
	"sync"

	"github.com/gpuhud/hud/internal/vk"
)

// SwapchainData is the per-swapchain state the composite pass needs,
// mirroring the original's `swapchain_data`: one render pass and one
// framebuffer per swapchain image, a command pool/buffer/fence per image,
// one "overlay done" semaphore per image, and the lazily-built
// OverlayPipeline (spec §4.3 "per-present sequence").
type SwapchainData struct {
	dispatch Dispatch
	device   vk.Device

	Format vk.Format
	Extent vk.Extent2D

	images []vk.Image
	views  []vk.ImageView
	fb     []vk.Framebuffer
	rp     vk.RenderPass

	cmdPool   vk.CommandPool
	cmd       []vk.CommandBuffer
	cmdFences []vk.Fence

	overlayDone []vk.Semaphore

	Pipe *OverlayPipeline
}

// NewSwapchainData builds the render pass and one image view/framebuffer
// per swapchain image. The render pass loads (rather than clears) and
// stores the color attachment, since the composite pass draws atop
// whatever the application already presented into these images (spec §4.3
// "a single render pass that loads-op-load and store-op-stores the
// swapchain color attachment").
func NewSwapchainData(dispatch Dispatch, device vk.Device, format vk.Format, extent vk.Extent2D, images []vk.Image) (*SwapchainData, error) {
	sd := &SwapchainData{dispatch: dispatch, device: device, Format: format, Extent: extent, images: images}

	attachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        1,
		LoadOp:         vk.AttachmentLoadOpLoad,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpLoad,
		InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
	}
	colorRef := vk.AttachmentReference{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    &colorRef,
	}
	rpInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    &attachment,
		SubpassCount:    1,
		PSubpasses:      &subpass,
	}
	result, err := dispatch.CreateRenderPass(device, &rpInfo, &sd.rp)
	if err != nil || result.IsError() {
		return nil, fmt.Errorf("vkCreateRenderPass: result=%v err=%w", result, err)
	}

	sd.views = make([]vk.ImageView, len(images))
	sd.fb = make([]vk.Framebuffer, len(images))
	for i, img := range images {
		view, err := createImageView(dispatch, device, img, format)
		if err != nil {
			sd.destroyImagesAndRenderPass()
			return nil, err
		}
		sd.views[i] = view

		fbInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      sd.rp,
			AttachmentCount: 1,
			PAttachments:    &sd.views[i],
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}
		var fb vk.Framebuffer
		result, err = dispatch.CreateFramebuffer(device, &fbInfo, &fb)
		if err != nil || result.IsError() {
			sd.destroyImagesAndRenderPass()
			return nil, fmt.Errorf("vkCreateFramebuffer: result=%v err=%w", result, err)
		}
		sd.fb[i] = fb
	}

	return sd, nil
}

// EnsureCommandResources lazily allocates the per-image command pool,
// buffers, fences, and "overlay done" semaphores (spec §4.3
// "cmd_resources"): reallocated only when the image count changes.
func (sd *SwapchainData) EnsureCommandResources(queueFamily uint32) error {
	if sd.cmdPool == 0 {
		info := vk.CommandPoolCreateInfo{
			SType:            vk.StructureTypeCommandPoolCreateInfo,
			Flags:            vk.CommandPoolCreateResetCommandBufferBit,
			QueueFamilyIndex: queueFamily,
		}
		result, err := sd.dispatch.CreateCommandPool(sd.device, &info, &sd.cmdPool)
		if err != nil || result.IsError() {
			return fmt.Errorf("vkCreateCommandPool: result=%v err=%w", result, err)
		}
	}

	if len(sd.cmd) != len(sd.images) {
		sd.cmd = make([]vk.CommandBuffer, len(sd.images))
		allocInfo := vk.CommandBufferAllocateInfo{
			SType:              vk.StructureTypeCommandBufferAllocateInfo,
			CommandPool:        sd.cmdPool,
			Level:              vk.CommandBufferLevelPrimary,
			CommandBufferCount: uint32(len(sd.cmd)),
		}
		result, err := sd.dispatch.AllocateCommandBuffers(sd.device, &allocInfo, &sd.cmd[0])
		if err != nil || result.IsError() {
			sd.cmd = nil
			return fmt.Errorf("vkAllocateCommandBuffers: result=%v err=%w", result, err)
		}
	}

	if len(sd.cmdFences) != len(sd.cmd) {
		fences := make([]vk.Fence, len(sd.cmd))
		copy(fences, sd.cmdFences)
		sd.cmdFences = fences
	}
	for i, f := range sd.cmdFences {
		if f != 0 {
			continue
		}
		info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo, Flags: vk.FenceCreateSignaledBit}
		var fence vk.Fence
		result, err := sd.dispatch.CreateFence(sd.device, &info, &fence)
		if err != nil || result.IsError() {
			return fmt.Errorf("vkCreateFence: result=%v err=%w", result, err)
		}
		sd.cmdFences[i] = fence
	}

	if len(sd.overlayDone) != len(sd.images) {
		semas := make([]vk.Semaphore, len(sd.images))
		copy(semas, sd.overlayDone)
		sd.overlayDone = semas
	}
	for i, s := range sd.overlayDone {
		if s != 0 {
			continue
		}
		info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
		var sema vk.Semaphore
		result, err := sd.dispatch.CreateSemaphore(sd.device, &info, &sema)
		if err != nil || result.IsError() {
			return fmt.Errorf("vkCreateSemaphore (overlay_done): result=%v err=%w", result, err)
		}
		sd.overlayDone[i] = sema
	}

	return nil
}

// CommandBuffer and Fence return the per-image resources a present needs.
func (sd *SwapchainData) CommandBuffer(index int) vk.CommandBuffer { return sd.cmd[index] }
func (sd *SwapchainData) Fence(index int) vk.Fence                 { return sd.cmdFences[index] }
func (sd *SwapchainData) OverlayDone(index int) vk.Semaphore       { return sd.overlayDone[index] }
func (sd *SwapchainData) Image(index int) vk.Image                { return sd.images[index] }
func (sd *SwapchainData) Framebuffer(index int) vk.Framebuffer     { return sd.fb[index] }
func (sd *SwapchainData) RenderPass() vk.RenderPass                { return sd.rp }

func (sd *SwapchainData) destroyImagesAndRenderPass() {
	for _, fb := range sd.fb {
		if fb != 0 {
			_ = sd.dispatch.DestroyFramebuffer(sd.device, fb)
		}
	}
	for _, v := range sd.views {
		if v != 0 {
			_ = sd.dispatch.DestroyImageView(sd.device, v)
		}
	}
	if sd.rp != 0 {
		_ = sd.dispatch.DestroyRenderPass(sd.device, sd.rp)
	}
}

// Close releases every object this swapchain's state owns: the overlay
// pipeline first, then the overlay-done semaphores, the framebuffers, image
// views and render pass, the command fences, and last the command pool.
func (sd *SwapchainData) Close() {
	if sd.Pipe != nil {
		sd.Pipe.Destroy()
	}
	for _, s := range sd.overlayDone {
		if s != 0 {
			_ = sd.dispatch.DestroySemaphore(sd.device, s)
		}
	}
	sd.destroyImagesAndRenderPass()
	for _, f := range sd.cmdFences {
		if f != 0 {
			_ = sd.dispatch.DestroyFence(sd.device, f)
		}
	}
	if sd.cmdPool != 0 {
		_ = sd.dispatch.DestroyCommandPool(sd.device, sd.cmdPool)
	}
}

// Overlay tracks every intercepted swapchain's composite state, keyed by
// its handle (spec §9 "a per-swapchain tracking table"). A plain mutex-
// guarded map matches the original's `std::unordered_map<VkSwapchainKHR, ...>`
// 1:1 ownership model more directly than a shared render-pass cache would.
type Overlay struct {
	mu         sync.Mutex
	swapchains map[vk.Swapchain]*SwapchainData
}

// NewOverlay returns an empty overlay tracker.
func NewOverlay() *Overlay {
	return &Overlay{swapchains: make(map[vk.Swapchain]*SwapchainData)}
}

// Get returns the tracked state for swap, or nil if it is not (yet, or any
// longer) intercepted.
func (o *Overlay) Get(swap vk.Swapchain) *SwapchainData {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.swapchains[swap]
}

// Track registers sd under swap, replacing and closing any prior entry.
func (o *Overlay) Track(swap vk.Swapchain, sd *SwapchainData) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if old, ok := o.swapchains[swap]; ok && old != sd {
		old.Close()
	}
	o.swapchains[swap] = sd
}

// Untrack removes and closes the state for swap, if any (spec §9
// "OnSwapchainDestroyed").
func (o *Overlay) Untrack(swap vk.Swapchain) {
	o.mu.Lock()
	sd, ok := o.swapchains[swap]
	delete(o.swapchains, swap)
	o.mu.Unlock()
	if ok {
		sd.Close()
	}
}

// Close tears down every tracked swapchain's state.
func (o *Overlay) Close() {
	o.mu.Lock()
	swaps := o.swapchains
	o.swapchains = make(map[vk.Swapchain]*SwapchainData)
	o.mu.Unlock()
	for _, sd := range swaps {
		sd.Close()
	}
}
