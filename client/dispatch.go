// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package client implements the overlay side of the HUD: a Vulkan layer
// that intercepts an application's own swapchain and composites the
// server-rendered HUD frame onto it at present time (spec §4.3).
package client

import (
	"unsafe"

	"github.com/gpuhud/hud/internal/vk"
)

// Dispatch is the minimum set of Vulkan entry points the composite pass
// needs, resolved via the intercepted application's own device rather than
// one this module creates (spec §9 "dynamic dispatch via function-pointer
// tables"). *vk.Commands satisfies Dispatch directly; a real loader-layer
// integration would instead resolve these through the next link in the
// layer chain (vkGetDeviceProcAddr's "next" pointer), which is outside this
// module's surface (see cmd/hud-shim).
type Dispatch interface {
	CreateImage(device vk.Device, info *vk.ImageCreateInfo, image *vk.Image) (vk.Result, error)
	DestroyImage(device vk.Device, image vk.Image) error
	GetImageMemoryRequirements(device vk.Device, image vk.Image, reqs *vk.MemoryRequirements) error
	BindImageMemory(device vk.Device, image vk.Image, mem vk.DeviceMemory, offset uint64) (vk.Result, error)
	CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo, view *vk.ImageView) (vk.Result, error)
	DestroyImageView(device vk.Device, view vk.ImageView) error

	AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo, mem *vk.DeviceMemory) (vk.Result, error)
	FreeMemory(device vk.Device, mem vk.DeviceMemory) error
	GetMemoryFdPropertiesKHR(device vk.Device, handleType vk.ExternalMemoryHandleTypeFlagBits, fd int32, props *vk.MemoryFdPropertiesKHR) (vk.Result, error)

	CreateFence(device vk.Device, info *vk.FenceCreateInfo, fence *vk.Fence) (vk.Result, error)
	DestroyFence(device vk.Device, fence vk.Fence) error
	ResetFences(device vk.Device, fences []vk.Fence) (vk.Result, error)
	WaitForFences(device vk.Device, fences []vk.Fence, waitAll bool, timeoutNs uint64) (vk.Result, error)

	CreateSemaphore(device vk.Device, info *vk.SemaphoreCreateInfo, sem *vk.Semaphore) (vk.Result, error)
	DestroySemaphore(device vk.Device, sem vk.Semaphore) error
	GetSemaphoreFdKHR(device vk.Device, info *vk.SemaphoreGetFdInfoKHR, fd *int32) (vk.Result, error)

	CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo, pool *vk.CommandPool) (vk.Result, error)
	DestroyCommandPool(device vk.Device, pool vk.CommandPool) error
	AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo, buffers *vk.CommandBuffer) (vk.Result, error)
	ResetCommandBuffer(cb vk.CommandBuffer, flags uint32) (vk.Result, error)
	BeginCommandBuffer(cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) (vk.Result, error)
	EndCommandBuffer(cb vk.CommandBuffer) (vk.Result, error)

	CmdPipelineBarrier(cb vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barrier *vk.ImageMemoryBarrier) error
	CmdCopyImage(cb vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, regions []vk.ImageCopy) error
	CmdClearColorImage(cb vk.CommandBuffer, image vk.Image, layout vk.ImageLayout, color *vk.ClearColorValue, ranges []vk.ImageSubresourceRange) error
	CmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) error
	CmdEndRenderPass(cb vk.CommandBuffer) error
	CmdBindPipeline(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) error
	CmdBindDescriptorSets(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet, dynamicOffsets []uint32) error
	CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stageFlags vk.ShaderStageFlags, offset, size uint32, values unsafe.Pointer) error
	CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) error

	QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) (vk.Result, error)
	DeviceWaitIdle(device vk.Device) (vk.Result, error)

	CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo, rp *vk.RenderPass) (vk.Result, error)
	DestroyRenderPass(device vk.Device, rp vk.RenderPass) error
	CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo, fb *vk.Framebuffer) (vk.Result, error)
	DestroyFramebuffer(device vk.Device, fb vk.Framebuffer) error

	CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo, mod *vk.ShaderModule) (vk.Result, error)
	DestroyShaderModule(device vk.Device, mod vk.ShaderModule) error
	CreateDescriptorSetLayout(device vk.Device, info *vk.DescriptorSetLayoutCreateInfo, layout *vk.DescriptorSetLayout) (vk.Result, error)
	DestroyDescriptorSetLayout(device vk.Device, layout vk.DescriptorSetLayout) error
	CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo, pool *vk.DescriptorPool) (vk.Result, error)
	DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool) error
	AllocateDescriptorSets(device vk.Device, info *vk.DescriptorSetAllocateInfo, sets *vk.DescriptorSet) (vk.Result, error)
	UpdateDescriptorSets(device vk.Device, writes []vk.WriteDescriptorSet) error
	CreateSampler(device vk.Device, info *vk.SamplerCreateInfo, sampler *vk.Sampler) (vk.Result, error)
	DestroySampler(device vk.Device, sampler vk.Sampler) error
	CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo, layout *vk.PipelineLayout) (vk.Result, error)
	DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) error
	CreateGraphicsPipelines(device vk.Device, infos []vk.GraphicsPipelineCreateInfo, pipelines []vk.Pipeline) (vk.Result, error)
	DestroyPipeline(device vk.Device, pipeline vk.Pipeline) error
}
