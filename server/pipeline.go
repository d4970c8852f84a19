// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package server

import (
	"fmt"
	"unsafe"

	"github.com/gpuhud/hud/internal/gbm"
	"github.com/gpuhud/hud/internal/vk"
	"github.com/gpuhud/hud/metrics"
)

// queueFamilyIgnored is VK_QUEUE_FAMILY_IGNORED.
const queueFamilyIgnored uint32 = 0xFFFFFFFF

// pacingTimeoutNs bounds how long a tick waits on the previous tick's
// pacing fence before giving up (spec §4.6 "Failure semantics": a stuck
// pacing fence must not hang the pipeline forever).
const pacingTimeoutNs uint64 = 2_000_000_000

// TickResult reports what a Pipeline.Tick produced, mirroring the flags
// the fabric sends alongside a frame (spec §4.2 step 5).
type TickResult struct {
	// ReinitNeeded is true when the tick aborted because the requested
	// extent no longer matches the built render target; the next Tick
	// tears down and rebuilds the target at the new extent (spec §4.2
	// "Resize policy").
	ReinitNeeded bool

	// SendDmabuf is true on the first successful build after init or
	// reinit, telling the caller to hand the dma-buf descriptor to the
	// client again.
	SendDmabuf bool

	// SendFence is true whenever a fence sync-fd was produced this tick.
	SendFence bool

	// FenceFD is the exported sync-file descriptor for this tick's frame,
	// valid only when SendFence is true. The caller owns closing it once
	// handed to the fabric.
	FenceFD int
}

// Pipeline runs the per-client render sequence: draw into the source
// image, copy into whichever destination images are active, and export a
// sync-fd the client waits on before sampling the frame (spec §4.2 steps
// 1-5).
type Pipeline struct {
	cmds   *vk.Commands
	device vk.Device
	queue  vk.Queue

	gbmDevice *gbm.Device

	cmdPool vk.CommandPool
	cmdBuf  vk.CommandBuffer

	drawer    Drawer
	resources *ClientResources
}

// NewPipeline creates the command pool and buffer a client's pipeline
// reuses across ticks, and wires in drawer as the frame's rasterizer.
func NewPipeline(cmds *vk.Commands, device vk.Device, queue vk.Queue, graphicsFamily uint32, gbmDevice *gbm.Device, drawer Drawer, resources *ClientResources) (*Pipeline, error) {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateResetCommandBufferBit,
		QueueFamilyIndex: graphicsFamily,
	}
	var pool vk.CommandPool
	result, err := cmds.CreateCommandPool(device, &poolInfo, &pool)
	if err != nil {
		return nil, fmt.Errorf("server: vkCreateCommandPool: %w", err)
	}
	if result.IsError() {
		return nil, fmt.Errorf("server: vkCreateCommandPool: %d", result)
	}

	bufInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	var cmdBuf vk.CommandBuffer
	result, err = cmds.AllocateCommandBuffers(device, &bufInfo, &cmdBuf)
	if err != nil {
		_ = cmds.DestroyCommandPool(device, pool)
		return nil, fmt.Errorf("server: vkAllocateCommandBuffers: %w", err)
	}
	if result.IsError() {
		_ = cmds.DestroyCommandPool(device, pool)
		return nil, fmt.Errorf("server: vkAllocateCommandBuffers: %d", result)
	}

	return &Pipeline{
		cmds:      cmds,
		device:    device,
		queue:     queue,
		gbmDevice: gbmDevice,
		cmdPool:   pool,
		cmdBuf:    cmdBuf,
		drawer:    drawer,
		resources: resources,
	}, nil
}

// Tick runs one full pass: snapshot already taken by the caller as table,
// check for a pending resize, draw, copy into the active destination
// images, and submit with an exported sync-fd (spec §4.2 steps 1-5).
func (p *Pipeline) Tick(table *metrics.HudTable, layout metrics.Layout) (TickResult, error) {
	target := p.resources.Target()
	width, height := uint32(layout.Width), uint32(layout.Height)

	// A size mismatch against the already-built target aborts this tick
	// without drawing; the next tick observes the pending reinit flag and
	// rebuilds before proceeding (spec §4.2 "Resize policy").
	if target != nil && !p.resources.NeedsReinit() && (target.Width != width || target.Height != height) {
		p.resources.MarkReinit()
		return TickResult{ReinitNeeded: true}, nil
	}

	if p.resources.ClearReinit() || target == nil {
		if err := p.rebuild(width, height); err != nil {
			return TickResult{}, fmt.Errorf("server: rebuild render target: %w", err)
		}
		p.resources.MarkRebuilt()
		target = p.resources.Target()
	}

	pacingFence, err := p.resources.EnsurePacingFence(p.cmds, p.device)
	if err != nil {
		return TickResult{}, fmt.Errorf("server: ensure pacing fence: %w", err)
	}
	if err := pacingFence.Wait(pacingTimeoutNs); err != nil {
		return TickResult{}, fmt.Errorf("server: wait pacing fence: %w", err)
	}
	if err := pacingFence.Reset(); err != nil {
		return TickResult{}, fmt.Errorf("server: reset pacing fence: %w", err)
	}

	if err := p.record(target, table, layout); err != nil {
		return TickResult{}, fmt.Errorf("server: record command buffer: %w", err)
	}

	fenceFD, err := p.submit(pacingFence.Handle())
	if err != nil {
		return TickResult{}, fmt.Errorf("server: submit: %w", err)
	}

	return TickResult{
		SendDmabuf: p.resources.ConsumeFirstBuild(),
		SendFence:  true,
		FenceFD:    fenceFD,
	}, nil
}

func (p *Pipeline) rebuild(width, height uint32) error {
	if prev := p.resources.Target(); prev != nil {
		if err := prev.Destroy(); err != nil {
			return err
		}
	}
	rt, err := BuildRenderTarget(p.cmds, p.device, p.gbmDevice, width, height, p.resources.DmabufEnabled())
	if err != nil {
		return err
	}
	p.resources.SetTarget(rt)
	return nil
}

// record transitions the source image, draws into it, and copies the
// result into every active destination image, leaving all of them in
// GENERAL layout for the client's import/sample step (spec §4.2 "Image
// layout state machine").
func (p *Pipeline) record(target *RenderTarget, table *metrics.HudTable, layout metrics.Layout) error {
	result, err := p.cmds.ResetCommandBuffer(p.cmdBuf, 0)
	if err != nil || result.IsError() {
		return fmt.Errorf("vkResetCommandBuffer: result=%v err=%w", result, err)
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageOneTimeSubmitBit,
	}
	result, err = p.cmds.BeginCommandBuffer(p.cmdBuf, &beginInfo)
	if err != nil || result.IsError() {
		return fmt.Errorf("vkBeginCommandBuffer: result=%v err=%w", result, err)
	}

	drawTarget := DrawTarget{Image: target.Source.image, View: target.Source.view, Width: target.Width, Height: target.Height}
	if err := p.drawer.Draw(p.cmdBuf, drawTarget, table, layout); err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	if err := p.transition(&target.Source, vk.AccessColorAttachmentWrite, vk.AccessTransferRead,
		vk.PipelineStageColorAttachmentOutput, vk.PipelineStageTransfer, vk.ImageLayoutTransferSrcOptimal); err != nil {
		return err
	}

	region := []vk.ImageCopy{{
		SrcSubresource: vk.ImageSubresourceLayers{AspectMask: 1, LayerCount: 1},
		DstSubresource: vk.ImageSubresourceLayers{AspectMask: 1, LayerCount: 1},
		Extent:         vk.Extent3D{Width: target.Width, Height: target.Height, Depth: 1},
	}}

	if target.hasDmabuf {
		if err := p.transition(&target.DmabufDest, 0, vk.AccessTransferWrite,
			vk.PipelineStageTopOfPipe, vk.PipelineStageTransfer, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		if err := p.cmds.CmdCopyImage(p.cmdBuf, target.Source.image, vk.ImageLayoutTransferSrcOptimal,
			target.DmabufDest.image, vk.ImageLayoutTransferDstOptimal, region); err != nil {
			return fmt.Errorf("vkCmdCopyImage (dma-buf dest): %w", err)
		}
		if err := p.transition(&target.DmabufDest, vk.AccessTransferWrite, vk.AccessShaderRead,
			vk.PipelineStageTransfer, vk.PipelineStageAllCommands, vk.ImageLayoutGeneral); err != nil {
			return err
		}
	}

	if target.hasOpaque {
		if err := p.transition(&target.OpaqueDest, 0, vk.AccessTransferWrite,
			vk.PipelineStageTopOfPipe, vk.PipelineStageTransfer, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		if err := p.cmds.CmdCopyImage(p.cmdBuf, target.Source.image, vk.ImageLayoutTransferSrcOptimal,
			target.OpaqueDest.image, vk.ImageLayoutTransferDstOptimal, region); err != nil {
			return fmt.Errorf("vkCmdCopyImage (opaque dest): %w", err)
		}
		if err := p.transition(&target.OpaqueDest, vk.AccessTransferWrite, vk.AccessShaderRead,
			vk.PipelineStageTransfer, vk.PipelineStageAllCommands, vk.ImageLayoutGeneral); err != nil {
			return err
		}
	}

	if err := p.transition(&target.Source, vk.AccessTransferRead, 0,
		vk.PipelineStageTransfer, vk.PipelineStageBottomOfPipe, vk.ImageLayoutGeneral); err != nil {
		return err
	}

	result, err = p.cmds.EndCommandBuffer(p.cmdBuf)
	if err != nil || result.IsError() {
		return fmt.Errorf("vkEndCommandBuffer: result=%v err=%w", result, err)
	}
	return nil
}

// transition records a full-image pipeline barrier and updates obj's
// current-layout cell (spec §3 "their layouts are tracked ... and updated
// monotonically per command buffer").
func (p *Pipeline) transition(obj *imageObj, srcAccess, dstAccess vk.AccessFlags, srcStage, dstStage vk.PipelineStageFlags, newLayout vk.ImageLayout) error {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           obj.layout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: queueFamilyIgnored,
		DstQueueFamilyIndex: queueFamilyIgnored,
		Image:               obj.image,
		SubresourceRange:    vk.ImageSubresourceRange{AspectMask: 1, LevelCount: 1, LayerCount: 1},
	}
	if err := p.cmds.CmdPipelineBarrier(p.cmdBuf, srcStage, dstStage, &barrier); err != nil {
		return fmt.Errorf("vkCmdPipelineBarrier: %w", err)
	}
	obj.layout = newLayout
	return nil
}

// submit queues the recorded command buffer, signalling the pacing fence
// for next tick and a fresh semaphore whose sync-fd payload becomes this
// tick's send_fence (spec §4.2 step 5). The semaphore is recreated every
// tick because an exported sync-fd semaphore's payload is consumed by the
// export and cannot be waited on twice.
func (p *Pipeline) submit(pacingFence vk.Fence) (int, error) {
	exportInfo := vk.ExportSemaphoreCreateInfo{
		SType:       vk.StructureTypeExportSemaphoreCreateInfo,
		HandleTypes: vk.ExternalSemaphoreHandleTypeSyncFd,
	}
	semInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: unsafe.Pointer(&exportInfo),
	}

	var sem vk.Semaphore
	result, err := p.cmds.CreateSemaphore(p.device, &semInfo, &sem)
	if err != nil || result.IsError() {
		return -1, fmt.Errorf("vkCreateSemaphore: result=%v err=%w", result, err)
	}

	cmdBuf := p.cmdBuf
	submit := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   1,
		PCommandBuffers:      &cmdBuf,
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    &sem,
	}

	result, err = p.cmds.QueueSubmit(p.queue, []vk.SubmitInfo{submit}, pacingFence)
	if err != nil || result.IsError() {
		_ = p.cmds.DestroySemaphore(p.device, sem)
		return -1, fmt.Errorf("vkQueueSubmit: result=%v err=%w", result, err)
	}

	fdInfo := vk.SemaphoreGetFdInfoKHR{
		SType:      vk.StructureTypeSemaphoreGetFdInfoKHR,
		Semaphore:  sem,
		HandleType: vk.ExternalSemaphoreHandleTypeSyncFd,
	}
	var fd int32
	result, err = p.cmds.GetSemaphoreFdKHR(p.device, &fdInfo, &fd)
	destroyErr := p.cmds.DestroySemaphore(p.device, sem)
	if err != nil || result.IsError() {
		return -1, fmt.Errorf("vkGetSemaphoreFdKHR: result=%v err=%w", result, err)
	}
	if destroyErr != nil {
		return -1, fmt.Errorf("vkDestroySemaphore: %w", destroyErr)
	}
	return int(fd), nil
}

// Close destroys the pipeline's command pool (which implicitly frees its
// allocated command buffer).
func (p *Pipeline) Close() error {
	return p.cmds.DestroyCommandPool(p.device, p.cmdPool)
}
