// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package client

import (
	"fmt"
	"unsafe"

	"github.com/gpuhud/hud/internal/vk"
)

// OnQueuePresent runs the full per-present composite sequence for one
// image of one tracked swapchain, rewriting presentInfo's wait-semaphore
// list in place so the caller's real vkQueuePresentKHR call waits on the
// overlay's completion instead of the application's own semaphores (spec
// §4.3, grounded directly on the original's draw() / sample_dmabuf() /
// semaphores() sequence). Returns an error if swap is not tracked or any
// step fails; the caller should fall back to presenting unmodified rather
// than dropping the frame.
func (it *Interceptor) OnQueuePresent(queue vk.Queue, swap vk.Swapchain, imageIndex uint32, presentInfo *vk.PresentInfoKHR) error {
	sd := it.overlay.Get(swap)
	if sd == nil {
		return fmt.Errorf("client: swapchain %d not tracked", swap)
	}

	canRefresh, err := it.prepareImport()
	if err != nil {
		return err
	}
	imp := it.currentImport()
	if imp == nil {
		return fmt.Errorf("client: no frame imported yet")
	}

	if err := sd.EnsureCommandResources(it.queueFamily); err != nil {
		return err
	}
	if sd.Pipe == nil {
		pipe, err := BuildOverlayPipeline(it.dispatch, it.device, sd.RenderPass(), sd.Extent, it.vertSPV, it.fragSPV)
		if err != nil {
			return err
		}
		_, cacheView, _ := imp.CacheImage()
		if err := pipe.BindCacheView(cacheView); err != nil {
			pipe.Destroy()
			return err
		}
		sd.Pipe = pipe
	}

	idx := int(imageIndex)
	if err := it.record(sd, imp, idx, canRefresh); err != nil {
		return err
	}
	return it.submit(sd, idx, queue, presentInfo, canRefresh)
}

func (it *Interceptor) currentImport() *DmabufImport {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.imp
}

// prepareImport polls the previous export fence, decides whether a fresh
// frame may be composited this present, and rebuilds the import if the
// server has sent a new one and the pipeline is free to stall for it
// (spec §4.3 "draw()": release-fence poll, then needs_import re-import
// gate).
func (it *Interceptor) prepareImport() (canRefresh bool, err error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.releaseFence != 0 {
		fences := []vk.Fence{it.releaseFence}
		result, err := it.dispatch.WaitForFences(it.device, fences, true, 0)
		if err != nil {
			return false, fmt.Errorf("vkWaitForFences (release poll): %w", err)
		}
		switch result {
		case vk.Success:
			_ = it.dispatch.DestroyFence(it.device, it.releaseFence)
			it.releaseFence = 0
			_ = it.dispatch.DestroySemaphore(it.device, it.releaseSema)
			it.releaseSema = 0
		case vk.NotReady, vk.Timeout:
			return false, nil
		default:
			if result.IsError() {
				return false, fmt.Errorf("vkWaitForFences (release poll): result=%v", result)
			}
			return false, nil
		}
	}

	ready, err := it.ipcClient.ReadyFrame()
	if err != nil {
		return false, fmt.Errorf("ipc: ready_frame: %w", err)
	}
	canRefresh = ready

	if it.ipcClient.NeedsImport() && canRefresh && it.pending != nil {
		if _, err := it.dispatch.DeviceWaitIdle(it.device); err != nil {
			return canRefresh, fmt.Errorf("vkDeviceWaitIdle: %w", err)
		}
		if it.imp != nil {
			_ = it.imp.Destroy()
			it.imp = nil
		}
		info := *it.pending
		it.pending = nil
		imp, err := Import(it.dispatch, it.device, info)
		if err != nil {
			return canRefresh, fmt.Errorf("client: re-import: %w", err)
		}
		it.imp = imp
		it.ipcClient.ClearNeedsImport()
	}

	return canRefresh, nil
}

// record builds the command buffer for one present: conditionally
// refreshes the cache image from the imported source, transitions the
// swapchain image, draws the composite triangle, and transitions back
// (spec §4.3 sample_dmabuf).
func (it *Interceptor) record(sd *SwapchainData, imp *DmabufImport, idx int, refreshCache bool) error {
	cb := sd.CommandBuffer(idx)
	fence := sd.Fence(idx)

	fences := []vk.Fence{fence}
	if result, err := it.dispatch.WaitForFences(it.device, fences, true, ^uint64(0)); err != nil || result.IsError() {
		return fmt.Errorf("vkWaitForFences (cmd): result=%v err=%w", result, err)
	}
	if result, err := it.dispatch.ResetFences(it.device, fences); err != nil || result.IsError() {
		return fmt.Errorf("vkResetFences: result=%v err=%w", result, err)
	}
	if result, err := it.dispatch.ResetCommandBuffer(cb, 0); err != nil || result.IsError() {
		return fmt.Errorf("vkResetCommandBuffer: result=%v err=%w", result, err)
	}

	beginInfo := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo, Flags: vk.CommandBufferUsageOneTimeSubmitBit}
	if result, err := it.dispatch.BeginCommandBuffer(cb, &beginInfo); err != nil || result.IsError() {
		return fmt.Errorf("vkBeginCommandBuffer: result=%v err=%w", result, err)
	}

	srcImage, srcLayout := imp.SourceImage()
	cacheImage, _, cacheLayout := imp.CacheImage()

	needCacheInit := *cacheLayout == vk.ImageLayoutUndefined
	if refreshCache || needCacheInit {
		it.transition(cb, cacheImage, *cacheLayout, vk.ImageLayoutTransferDstOptimal,
			cacheAccessFor(*cacheLayout), vk.AccessTransferWrite,
			cacheStageFor(*cacheLayout), vk.PipelineStageTransfer)
		*cacheLayout = vk.ImageLayoutTransferDstOptimal

		if needCacheInit && !refreshCache {
			clear := vk.ClearColorValue{}
			ranges := []vk.ImageSubresourceRange{{AspectMask: uint32(vk.ImageAspectColor), LevelCount: 1, LayerCount: 1}}
			if err := it.dispatch.CmdClearColorImage(cb, cacheImage, vk.ImageLayoutTransferDstOptimal, &clear, ranges); err != nil {
				return fmt.Errorf("vkCmdClearColorImage: %w", err)
			}
		}

		if refreshCache {
			it.transition(cb, srcImage, *srcLayout, vk.ImageLayoutTransferSrcOptimal,
				0, vk.AccessTransferRead, vk.PipelineStageTopOfPipe, vk.PipelineStageTransfer)
			*srcLayout = vk.ImageLayoutTransferSrcOptimal

			region := vk.ImageCopy{
				SrcSubresource: vk.ImageSubresourceLayers{AspectMask: uint32(vk.ImageAspectColor), LayerCount: 1},
				DstSubresource: vk.ImageSubresourceLayers{AspectMask: uint32(vk.ImageAspectColor), LayerCount: 1},
				Extent:         vk.Extent3D{Width: imp.Width, Height: imp.Height, Depth: 1},
			}
			if err := it.dispatch.CmdCopyImage(cb, srcImage, vk.ImageLayoutTransferSrcOptimal, cacheImage, vk.ImageLayoutTransferDstOptimal, []vk.ImageCopy{region}); err != nil {
				return fmt.Errorf("vkCmdCopyImage: %w", err)
			}
		}

		it.transition(cb, cacheImage, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
			vk.AccessTransferWrite, vk.AccessShaderRead, vk.PipelineStageTransfer, vk.PipelineStageAllCommands)
		*cacheLayout = vk.ImageLayoutShaderReadOnlyOptimal
	}

	swapImage := sd.Image(idx)
	it.transition(cb, swapImage, vk.ImageLayoutPresentSrcKHR, vk.ImageLayoutColorAttachmentOptimal,
		0, vk.AccessColorAttachmentWrite, vk.PipelineStageTopOfPipe, vk.PipelineStageColorAttachmentOutput)

	rpBegin := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  sd.RenderPass(),
		Framebuffer: sd.Framebuffer(idx),
		RenderArea:  vk.Rect2D{Extent: sd.Extent},
	}
	if err := it.dispatch.CmdBeginRenderPass(cb, &rpBegin, vk.SubpassContentsInline); err != nil {
		return fmt.Errorf("vkCmdBeginRenderPass: %w", err)
	}

	if err := it.dispatch.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, sd.Pipe.Pipeline()); err != nil {
		return fmt.Errorf("vkCmdBindPipeline: %w", err)
	}
	sets := []vk.DescriptorSet{sd.Pipe.DescriptorSet()}
	if err := it.dispatch.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, sd.Pipe.Layout(), 0, sets, nil); err != nil {
		return fmt.Errorf("vkCmdBindDescriptorSets: %w", err)
	}

	pc := OverlayPushConsts{
		DstExtent:        [2]float32{float32(sd.Extent.Width), float32(sd.Extent.Height)},
		SrcExtent:        [2]float32{float32(imp.Width), float32(imp.Height)},
		OffsetPx:         [2]float32{it.OffsetX, it.OffsetY},
		TransferFunction: transferFunction(sd.Format),
	}
	if err := it.dispatch.CmdPushConstants(cb, sd.Pipe.Layout(), vk.ShaderStageFragment, 0, uint32(unsafe.Sizeof(pc)), unsafe.Pointer(&pc)); err != nil {
		return fmt.Errorf("vkCmdPushConstants: %w", err)
	}

	if err := it.dispatch.CmdDraw(cb, 3, 1, 0, 0); err != nil {
		return fmt.Errorf("vkCmdDraw: %w", err)
	}
	if err := it.dispatch.CmdEndRenderPass(cb); err != nil {
		return fmt.Errorf("vkCmdEndRenderPass: %w", err)
	}

	it.transition(cb, swapImage, vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutPresentSrcKHR,
		vk.AccessColorAttachmentWrite, 0, vk.PipelineStageColorAttachmentOutput, vk.PipelineStageBottomOfPipe)

	if result, err := it.dispatch.EndCommandBuffer(cb); err != nil || result.IsError() {
		return fmt.Errorf("vkEndCommandBuffer: result=%v err=%w", result, err)
	}
	return nil
}

// submit submits the recorded command buffer, waiting on the caller's own
// present-wait semaphores and signalling this image's overlay-done
// semaphore plus (when canRefresh) a freshly exported release semaphore,
// then rewrites presentInfo to wait on overlay-done alone (spec §4.3
// semaphores()).
func (it *Interceptor) submit(sd *SwapchainData, idx int, queue vk.Queue, presentInfo *vk.PresentInfoKHR, canRefresh bool) error {
	overlayDone := sd.OverlayDone(idx)

	waitCount := int(presentInfo.WaitSemaphoreCount)
	var waits []vk.Semaphore
	var stages []vk.PipelineStageFlags
	if waitCount > 0 {
		waits = append(waits, unsafe.Slice(presentInfo.PWaitSemaphores, waitCount)...)
		stages = make([]vk.PipelineStageFlags, waitCount)
		for i := range stages {
			stages[i] = vk.PipelineStageColorAttachmentOutput
		}
	}

	var newReleaseSema vk.Semaphore
	if canRefresh {
		exportInfo := vk.ExportSemaphoreCreateInfo{SType: vk.StructureTypeExportSemaphoreCreateInfo, HandleTypes: vk.ExternalSemaphoreHandleTypeSyncFd}
		semaInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo, PNext: unsafe.Pointer(&exportInfo)}
		result, err := it.dispatch.CreateSemaphore(it.device, &semaInfo, &newReleaseSema)
		if err != nil || result.IsError() {
			newReleaseSema = 0
		}
	}

	signals := []vk.Semaphore{overlayDone}
	if newReleaseSema != 0 {
		signals = append(signals, newReleaseSema)
	}

	cb := sd.CommandBuffer(idx)
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waits)),
		CommandBufferCount:   1,
		PCommandBuffers:      &cb,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    &signals[0],
	}
	if len(waits) > 0 {
		submitInfo.PWaitSemaphores = &waits[0]
		submitInfo.PWaitDstStageMask = &stages[0]
	}

	fence := sd.Fence(idx)
	result, err := it.dispatch.QueueSubmit(queue, []vk.SubmitInfo{submitInfo}, fence)
	if err != nil || result.IsError() {
		if newReleaseSema != 0 {
			_ = it.dispatch.DestroySemaphore(it.device, newReleaseSema)
		}
		return fmt.Errorf("vkQueueSubmit: result=%v err=%w", result, err)
	}

	if newReleaseSema != 0 {
		it.mu.Lock()
		it.releaseSema = newReleaseSema
		it.releaseFence = fence
		it.mu.Unlock()

		fdInfo := vk.SemaphoreGetFdInfoKHR{SType: vk.StructureTypeSemaphoreGetFdInfoKHR, Semaphore: newReleaseSema, HandleType: vk.ExternalSemaphoreHandleTypeSyncFd}
		var fd int32
		result, err := it.dispatch.GetSemaphoreFdKHR(it.device, &fdInfo, &fd)
		if err == nil && !result.IsError() && fd >= 0 {
			_ = it.ipcClient.SendReleaseFence(int(fd))
		}
	}

	presentInfo.WaitSemaphoreCount = 1
	presentInfo.PWaitSemaphores = &sd.overlayDone[idx]
	return nil
}

func (it *Interceptor) transition(cb vk.CommandBuffer, image vk.Image, oldLayout, newLayout vk.ImageLayout, srcAccess, dstAccess vk.AccessFlags, srcStage, dstStage vk.PipelineStageFlags) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: queueFamilyIgnored,
		DstQueueFamilyIndex: queueFamilyIgnored,
		Image:               image,
		SubresourceRange:    vk.ImageSubresourceRange{AspectMask: uint32(vk.ImageAspectColor), LevelCount: 1, LayerCount: 1},
	}
	_ = it.dispatch.CmdPipelineBarrier(cb, srcStage, dstStage, &barrier)
}

func cacheAccessFor(layout vk.ImageLayout) vk.AccessFlags {
	switch layout {
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.AccessShaderRead
	case vk.ImageLayoutTransferDstOptimal:
		return vk.AccessTransferWrite
	default:
		return 0
	}
}

func cacheStageFor(layout vk.ImageLayout) vk.PipelineStageFlags {
	switch layout {
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.PipelineStageAllCommands
	case vk.ImageLayoutTransferDstOptimal:
		return vk.PipelineStageTransfer
	default:
		return vk.PipelineStageTopOfPipe
	}
}

// queueFamilyIgnored mirrors VK_QUEUE_FAMILY_IGNORED.
const queueFamilyIgnored = ^uint32(0)
