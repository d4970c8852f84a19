// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
)

// Commands holds resolved function pointers for one instance/device pair.
// Server and client each own one Commands: the server's talks to whichever
// physical device matched the requested DRM render-minor (spec §4.2); the
// client's talks to whatever device the intercepted application already
// created (spec §4.3 — this module never creates the application's own
// device).
type Commands struct {
	createInstance  unsafe.Pointer
	destroyInstance unsafe.Pointer
	enumeratePhysicalDevices unsafe.Pointer
	getPhysicalDeviceQueueFamilyProperties unsafe.Pointer
	getPhysicalDeviceProperties2 unsafe.Pointer
	createDevice    unsafe.Pointer
	destroyDevice   unsafe.Pointer
	getDeviceQueue  unsafe.Pointer

	createImage  unsafe.Pointer
	destroyImage unsafe.Pointer
	getImageMemoryRequirements unsafe.Pointer
	bindImageMemory unsafe.Pointer
	createImageView unsafe.Pointer
	destroyImageView unsafe.Pointer

	allocateMemory unsafe.Pointer
	freeMemory     unsafe.Pointer
	getMemoryFdKHR unsafe.Pointer
	getMemoryFdPropertiesKHR unsafe.Pointer

	createFence  unsafe.Pointer
	destroyFence unsafe.Pointer
	resetFences  unsafe.Pointer
	waitForFences unsafe.Pointer
	getFenceFdKHR unsafe.Pointer
	importFenceFdKHR unsafe.Pointer

	createSemaphore  unsafe.Pointer
	destroySemaphore unsafe.Pointer
	getSemaphoreFdKHR unsafe.Pointer
	importSemaphoreFdKHR unsafe.Pointer

	createCommandPool  unsafe.Pointer
	destroyCommandPool unsafe.Pointer
	allocateCommandBuffers unsafe.Pointer
	resetCommandBuffer unsafe.Pointer
	beginCommandBuffer unsafe.Pointer
	endCommandBuffer   unsafe.Pointer

	cmdPipelineBarrier unsafe.Pointer
	cmdCopyImage       unsafe.Pointer
	cmdBeginRenderPass unsafe.Pointer
	cmdEndRenderPass   unsafe.Pointer
	cmdBindPipeline    unsafe.Pointer
	cmdBindDescriptorSets unsafe.Pointer
	cmdPushConstants   unsafe.Pointer
	cmdSetViewport     unsafe.Pointer
	cmdSetScissor      unsafe.Pointer
	cmdDraw            unsafe.Pointer
	cmdClearColorImage unsafe.Pointer

	queueSubmit  unsafe.Pointer
	queueWaitIdle unsafe.Pointer
	deviceWaitIdle unsafe.Pointer

	createRenderPass   unsafe.Pointer
	destroyRenderPass  unsafe.Pointer
	createFramebuffer  unsafe.Pointer
	destroyFramebuffer unsafe.Pointer

	createShaderModule  unsafe.Pointer
	destroyShaderModule unsafe.Pointer
	createDescriptorSetLayout  unsafe.Pointer
	destroyDescriptorSetLayout unsafe.Pointer
	createDescriptorPool  unsafe.Pointer
	destroyDescriptorPool unsafe.Pointer
	allocateDescriptorSets unsafe.Pointer
	updateDescriptorSets   unsafe.Pointer
	createSampler  unsafe.Pointer
	destroySampler unsafe.Pointer
	createPipelineLayout  unsafe.Pointer
	destroyPipelineLayout unsafe.Pointer
	createGraphicsPipelines unsafe.Pointer
	destroyPipeline         unsafe.Pointer
}

func NewCommands() *Commands { return &Commands{} }

// LoadGlobal loads the entry points callable without an instance.
func (c *Commands) LoadGlobal() error {
	c.createInstance = GetInstanceProcAddr(0, "vkCreateInstance")
	if c.createInstance == nil {
		return fmt.Errorf("vk: vkCreateInstance not found")
	}
	return nil
}

// LoadInstance loads instance-level entry points and, per the teacher's
// Intel-compatibility note, primes vkGetDeviceProcAddr from a live
// instance rather than a null one.
func (c *Commands) LoadInstance(instance Instance) error {
	SetDeviceProcAddr(instance)
	must := map[string]*unsafe.Pointer{
		"vkDestroyInstance":                      &c.destroyInstance,
		"vkEnumeratePhysicalDevices":              &c.enumeratePhysicalDevices,
		"vkGetPhysicalDeviceQueueFamilyProperties": &c.getPhysicalDeviceQueueFamilyProperties,
		"vkGetPhysicalDeviceProperties2":          &c.getPhysicalDeviceProperties2,
		"vkCreateDevice":                          &c.createDevice,
	}
	for name, slot := range must {
		*slot = GetInstanceProcAddr(instance, name)
		if *slot == nil {
			return fmt.Errorf("vk: %s not found", name)
		}
	}
	return nil
}

// LoadDevice loads device-level entry points, including the external
// memory/fence/semaphore-FD extension commands this module's dma-buf and
// sync-file exchange depend on (spec §4.2–§4.5).
func (c *Commands) LoadDevice(device Device) error {
	must := map[string]*unsafe.Pointer{
		"vkDestroyDevice":                  &c.destroyDevice,
		"vkGetDeviceQueue":                 &c.getDeviceQueue,
		"vkCreateImage":                    &c.createImage,
		"vkDestroyImage":                   &c.destroyImage,
		"vkGetImageMemoryRequirements":     &c.getImageMemoryRequirements,
		"vkBindImageMemory":                &c.bindImageMemory,
		"vkCreateImageView":                &c.createImageView,
		"vkDestroyImageView":               &c.destroyImageView,
		"vkAllocateMemory":                 &c.allocateMemory,
		"vkFreeMemory":                     &c.freeMemory,
		"vkGetMemoryFdKHR":                 &c.getMemoryFdKHR,
		"vkGetMemoryFdPropertiesKHR":       &c.getMemoryFdPropertiesKHR,
		"vkCreateFence":                    &c.createFence,
		"vkDestroyFence":                   &c.destroyFence,
		"vkResetFences":                    &c.resetFences,
		"vkWaitForFences":                  &c.waitForFences,
		"vkGetFenceFdKHR":                  &c.getFenceFdKHR,
		"vkImportFenceFdKHR":               &c.importFenceFdKHR,
		"vkCreateSemaphore":                &c.createSemaphore,
		"vkDestroySemaphore":               &c.destroySemaphore,
		"vkGetSemaphoreFdKHR":              &c.getSemaphoreFdKHR,
		"vkImportSemaphoreFdKHR":           &c.importSemaphoreFdKHR,
		"vkCreateCommandPool":              &c.createCommandPool,
		"vkDestroyCommandPool":             &c.destroyCommandPool,
		"vkAllocateCommandBuffers":         &c.allocateCommandBuffers,
		"vkResetCommandBuffer":             &c.resetCommandBuffer,
		"vkBeginCommandBuffer":             &c.beginCommandBuffer,
		"vkEndCommandBuffer":               &c.endCommandBuffer,
		"vkCmdPipelineBarrier":             &c.cmdPipelineBarrier,
		"vkCmdCopyImage":                  &c.cmdCopyImage,
		"vkCmdBeginRenderPass":             &c.cmdBeginRenderPass,
		"vkCmdEndRenderPass":               &c.cmdEndRenderPass,
		"vkCmdBindPipeline":                &c.cmdBindPipeline,
		"vkCmdBindDescriptorSets":          &c.cmdBindDescriptorSets,
		"vkCmdPushConstants":               &c.cmdPushConstants,
		"vkCmdSetViewport":                 &c.cmdSetViewport,
		"vkCmdSetScissor":                  &c.cmdSetScissor,
		"vkCmdDraw":                        &c.cmdDraw,
		"vkCmdClearColorImage":             &c.cmdClearColorImage,
		"vkQueueSubmit":                    &c.queueSubmit,
		"vkQueueWaitIdle":                  &c.queueWaitIdle,
		"vkDeviceWaitIdle":                 &c.deviceWaitIdle,
		"vkCreateRenderPass":               &c.createRenderPass,
		"vkDestroyRenderPass":              &c.destroyRenderPass,
		"vkCreateFramebuffer":              &c.createFramebuffer,
		"vkDestroyFramebuffer":             &c.destroyFramebuffer,
		"vkCreateShaderModule":             &c.createShaderModule,
		"vkDestroyShaderModule":            &c.destroyShaderModule,
		"vkCreateDescriptorSetLayout":      &c.createDescriptorSetLayout,
		"vkDestroyDescriptorSetLayout":     &c.destroyDescriptorSetLayout,
		"vkCreateDescriptorPool":           &c.createDescriptorPool,
		"vkDestroyDescriptorPool":          &c.destroyDescriptorPool,
		"vkAllocateDescriptorSets":         &c.allocateDescriptorSets,
		"vkUpdateDescriptorSets":           &c.updateDescriptorSets,
		"vkCreateSampler":                  &c.createSampler,
		"vkDestroySampler":                 &c.destroySampler,
		"vkCreatePipelineLayout":           &c.createPipelineLayout,
		"vkDestroyPipelineLayout":          &c.destroyPipelineLayout,
		"vkCreateGraphicsPipelines":        &c.createGraphicsPipelines,
		"vkDestroyPipeline":                &c.destroyPipeline,
	}
	for name, slot := range must {
		*slot = GetDeviceProcAddr(device, name)
		if *slot == nil {
			return fmt.Errorf("vk: %s not found", name)
		}
	}
	return nil
}

// callResult invokes fn with the given shape, returning its VkResult.
func callResult(fn unsafe.Pointer, args []unsafe.Pointer, kinds ...argKind) (Result, error) {
	cif, err := sig(true, kinds...)
	if err != nil {
		return 0, err
	}
	var result int32
	if err := ffi.CallFunction(cif, fn, unsafe.Pointer(&result), args); err != nil {
		return 0, fmt.Errorf("vk: call: %w", err)
	}
	return Result(result), nil
}

// callVoid invokes fn with the given shape, discarding any return value.
func callVoid(fn unsafe.Pointer, args []unsafe.Pointer, kinds ...argKind) error {
	cif, err := sig(false, kinds...)
	if err != nil {
		return err
	}
	if err := ffi.CallFunction(cif, fn, nil, args); err != nil {
		return fmt.Errorf("vk: call: %w", err)
	}
	return nil
}

func (c *Commands) CreateInstance(info *InstanceCreateInfo, instance *Instance) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&info), nil, unsafe.Pointer(&instance)}
	return callResult(c.createInstance, args, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyInstance(instance Instance) error {
	return callVoid(c.destroyInstance, []unsafe.Pointer{unsafe.Pointer(&instance), nil}, argHandle, argPtr)
}

func (c *Commands) EnumeratePhysicalDevices(instance Instance, count *uint32, devices *PhysicalDevice) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&instance), unsafe.Pointer(&count), unsafe.Pointer(&devices)}
	return callResult(c.enumeratePhysicalDevices, args, argHandle, argPtr, argPtr)
}

func (c *Commands) GetPhysicalDeviceQueueFamilyProperties(pd PhysicalDevice, count *uint32, props *QueueFamilyProperties) error {
	args := []unsafe.Pointer{unsafe.Pointer(&pd), unsafe.Pointer(&count), unsafe.Pointer(&props)}
	return callVoid(c.getPhysicalDeviceQueueFamilyProperties, args, argHandle, argPtr, argPtr)
}

// GetPhysicalDeviceDrmPropertiesEXT reads the DRM render-minor a physical
// device backs, via vkGetPhysicalDeviceProperties2 with a
// VkPhysicalDeviceDrmPropertiesEXT in pNext (spec §4.2 device selection).
func (c *Commands) GetPhysicalDeviceDrmPropertiesEXT(pd PhysicalDevice) (PhysicalDeviceDrmPropertiesEXT, error) {
	drm := PhysicalDeviceDrmPropertiesEXT{SType: StructureTypePhysicalDeviceDrmPropertiesEXT}
	props2 := struct {
		SType StructureType
		PNext unsafe.Pointer
		Props [824]byte // VkPhysicalDeviceProperties2's embedded VkPhysicalDeviceProperties, opaque to this caller
	}{SType: 1000059001, PNext: unsafe.Pointer(&drm)}
	args := []unsafe.Pointer{unsafe.Pointer(&pd), unsafe.Pointer(&props2)}
	if err := callVoid(c.getPhysicalDeviceProperties2, args, argHandle, argPtr); err != nil {
		return PhysicalDeviceDrmPropertiesEXT{}, err
	}
	return drm, nil
}

func (c *Commands) CreateDevice(pd PhysicalDevice, info *DeviceCreateInfo, device *Device) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&pd), unsafe.Pointer(&info), nil, unsafe.Pointer(&device)}
	return callResult(c.createDevice, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyDevice(device Device) error {
	return callVoid(c.destroyDevice, []unsafe.Pointer{unsafe.Pointer(&device), nil}, argHandle, argPtr)
}

func (c *Commands) GetDeviceQueue(device Device, familyIndex, index uint32, queue *Queue) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&familyIndex), unsafe.Pointer(&index), unsafe.Pointer(&queue)}
	return callVoid(c.getDeviceQueue, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) CreateImage(device Device, info *ImageCreateInfo, image *Image) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&image)}
	return callResult(c.createImage, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyImage(device Device, image Image) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&image), nil}
	return callVoid(c.destroyImage, args, argHandle, argHandle, argPtr)
}

func (c *Commands) GetImageMemoryRequirements(device Device, image Image, reqs *MemoryRequirements) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&image), unsafe.Pointer(&reqs)}
	return callVoid(c.getImageMemoryRequirements, args, argHandle, argHandle, argPtr)
}

func (c *Commands) BindImageMemory(device Device, image Image, mem DeviceMemory, offset uint64) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&image), unsafe.Pointer(&mem), unsafe.Pointer(&offset)}
	return callResult(c.bindImageMemory, args, argHandle, argHandle, argHandle, argPtr)
}

func (c *Commands) CreateImageView(device Device, info *ImageViewCreateInfo, view *ImageView) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&view)}
	return callResult(c.createImageView, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyImageView(device Device, view ImageView) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&view), nil}
	return callVoid(c.destroyImageView, args, argHandle, argHandle, argPtr)
}

func (c *Commands) AllocateMemory(device Device, info *MemoryAllocateInfo, mem *DeviceMemory) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&mem)}
	return callResult(c.allocateMemory, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) FreeMemory(device Device, mem DeviceMemory) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&mem), nil}
	return callVoid(c.freeMemory, args, argHandle, argHandle, argPtr)
}

// GetMemoryFdKHR exports a device memory allocation as a dma-buf/opaque FD
// (spec §4.2 "hands the FD over the fabric").
func (c *Commands) GetMemoryFdKHR(device Device, info *MemoryGetFdInfoKHR, fd *int32) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), unsafe.Pointer(&fd)}
	return callResult(c.getMemoryFdKHR, args, argHandle, argPtr, argPtr)
}

// GetMemoryFdPropertiesKHR intersects an imported FD's supported memory
// types with an image's requirements (spec §4.3 re-import step).
func (c *Commands) GetMemoryFdPropertiesKHR(device Device, handleType ExternalMemoryHandleTypeFlagBits, fd int32, props *MemoryFdPropertiesKHR) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&handleType), unsafe.Pointer(&fd), unsafe.Pointer(&props)}
	return callResult(c.getMemoryFdPropertiesKHR, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) CreateFence(device Device, info *FenceCreateInfo, fence *Fence) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&fence)}
	return callResult(c.createFence, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyFence(device Device, fence Fence) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&fence), nil}
	return callVoid(c.destroyFence, args, argHandle, argHandle, argPtr)
}

func (c *Commands) ResetFences(device Device, fences []Fence) (Result, error) {
	count := uint32(len(fences))
	var pFences *Fence
	if count > 0 {
		pFences = &fences[0]
	}
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&count), unsafe.Pointer(&pFences)}
	return callResult(c.resetFences, args, argHandle, argPtr, argPtr)
}

func (c *Commands) WaitForFences(device Device, fences []Fence, waitAll bool, timeoutNs uint64) (Result, error) {
	count := uint32(len(fences))
	var pFences *Fence
	if count > 0 {
		pFences = &fences[0]
	}
	var all uint32
	if waitAll {
		all = 1
	}
	args := []unsafe.Pointer{
		unsafe.Pointer(&device), unsafe.Pointer(&count), unsafe.Pointer(&pFences),
		unsafe.Pointer(&all), unsafe.Pointer(&timeoutNs),
	}
	cif, err := sig(true, argHandle, argPtr, argPtr, argPtr, argPtr)
	if err != nil {
		return 0, err
	}
	var result int32
	if err := ffi.CallFunction(cif, c.waitForFences, unsafe.Pointer(&result), args); err != nil {
		return 0, fmt.Errorf("vk: call: %w", err)
	}
	return Result(result), nil
}

// GetFenceFdKHR exports a fence as a sync-file descriptor (spec §4.1
// send_fence).
func (c *Commands) GetFenceFdKHR(device Device, info *FenceGetFdInfoKHR, fd *int32) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), unsafe.Pointer(&fd)}
	return callResult(c.getFenceFdKHR, args, argHandle, argPtr, argPtr)
}

// ImportFenceFdKHR imports a sync-file descriptor into a fence (spec §4.1
// release_fence, consumed by the server to wait on the client's release).
func (c *Commands) ImportFenceFdKHR(device Device, info *ImportFenceFdInfoKHR) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info)}
	return callResult(c.importFenceFdKHR, args, argHandle, argPtr)
}

func (c *Commands) CreateSemaphore(device Device, info *SemaphoreCreateInfo, sem *Semaphore) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&sem)}
	return callResult(c.createSemaphore, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroySemaphore(device Device, sem Semaphore) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&sem), nil}
	return callVoid(c.destroySemaphore, args, argHandle, argHandle, argPtr)
}

func (c *Commands) GetSemaphoreFdKHR(device Device, info *SemaphoreGetFdInfoKHR, fd *int32) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), unsafe.Pointer(&fd)}
	return callResult(c.getSemaphoreFdKHR, args, argHandle, argPtr, argPtr)
}

func (c *Commands) ImportSemaphoreFdKHR(device Device, info *ImportSemaphoreFdInfoKHR) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info)}
	return callResult(c.importSemaphoreFdKHR, args, argHandle, argPtr)
}

func (c *Commands) CreateCommandPool(device Device, info *CommandPoolCreateInfo, pool *CommandPool) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&pool)}
	return callResult(c.createCommandPool, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyCommandPool(device Device, pool CommandPool) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&pool), nil}
	return callVoid(c.destroyCommandPool, args, argHandle, argHandle, argPtr)
}

func (c *Commands) AllocateCommandBuffers(device Device, info *CommandBufferAllocateInfo, buffers *CommandBuffer) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), unsafe.Pointer(&buffers)}
	return callResult(c.allocateCommandBuffers, args, argHandle, argPtr, argPtr)
}

func (c *Commands) ResetCommandBuffer(cb CommandBuffer, flags uint32) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&cb), unsafe.Pointer(&flags)}
	return callResult(c.resetCommandBuffer, args, argHandle, argPtr)
}

func (c *Commands) BeginCommandBuffer(cb CommandBuffer, info *CommandBufferBeginInfo) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&cb), unsafe.Pointer(&info)}
	return callResult(c.beginCommandBuffer, args, argHandle, argPtr)
}

func (c *Commands) EndCommandBuffer(cb CommandBuffer) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&cb)}
	return callResult(c.endCommandBuffer, args, argHandle)
}

func (c *Commands) CmdPipelineBarrier(cb CommandBuffer, srcStage, dstStage PipelineStageFlags, barrier *ImageMemoryBarrier) error {
	zero := uint32(0)
	var nilPtr unsafe.Pointer
	args := []unsafe.Pointer{
		unsafe.Pointer(&cb), unsafe.Pointer(&srcStage), unsafe.Pointer(&dstStage), unsafe.Pointer(&zero),
		unsafe.Pointer(&zero), unsafe.Pointer(&nilPtr), unsafe.Pointer(&zero), unsafe.Pointer(&nilPtr),
		unsafe.Pointer(&[1]uint32{1}[0]), unsafe.Pointer(&barrier),
	}
	cif, err := sig(false, argHandle, argPtr, argPtr, argPtr, argPtr, argPtr, argPtr, argPtr, argPtr, argPtr)
	if err != nil {
		return err
	}
	if err := ffi.CallFunction(cif, c.cmdPipelineBarrier, nil, args); err != nil {
		return fmt.Errorf("vk: call: %w", err)
	}
	return nil
}

func (c *Commands) CmdCopyImage(cb CommandBuffer, src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, regions []ImageCopy) error {
	count := uint32(len(regions))
	var pRegions *ImageCopy
	if count > 0 {
		pRegions = &regions[0]
	}
	args := []unsafe.Pointer{
		unsafe.Pointer(&cb), unsafe.Pointer(&src), unsafe.Pointer(&srcLayout),
		unsafe.Pointer(&dst), unsafe.Pointer(&dstLayout), unsafe.Pointer(&count), unsafe.Pointer(&pRegions),
	}
	return callVoid(c.cmdCopyImage, args, argHandle, argHandle, argPtr, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) CmdBeginRenderPass(cb CommandBuffer, info *RenderPassBeginInfo, contents SubpassContents) error {
	args := []unsafe.Pointer{unsafe.Pointer(&cb), unsafe.Pointer(&info), unsafe.Pointer(&contents)}
	return callVoid(c.cmdBeginRenderPass, args, argHandle, argPtr, argPtr)
}

func (c *Commands) CmdEndRenderPass(cb CommandBuffer) error {
	return callVoid(c.cmdEndRenderPass, []unsafe.Pointer{unsafe.Pointer(&cb)}, argHandle)
}

func (c *Commands) CmdBindPipeline(cb CommandBuffer, bindPoint PipelineBindPoint, pipeline Pipeline) error {
	args := []unsafe.Pointer{unsafe.Pointer(&cb), unsafe.Pointer(&bindPoint), unsafe.Pointer(&pipeline)}
	return callVoid(c.cmdBindPipeline, args, argHandle, argPtr, argHandle)
}

// CmdBindDescriptorSets binds sets starting at firstSet. The composite
// pipeline's single combined-image-sampler binding has no dynamic
// uniform/storage buffers, so dynamicOffsets is always empty in practice.
func (c *Commands) CmdBindDescriptorSets(cb CommandBuffer, bindPoint PipelineBindPoint, layout PipelineLayout, firstSet uint32, sets []DescriptorSet, dynamicOffsets []uint32) error {
	setCount := uint32(len(sets))
	var pSets *DescriptorSet
	if setCount > 0 {
		pSets = &sets[0]
	}
	offCount := uint32(len(dynamicOffsets))
	var pOffsets *uint32
	if offCount > 0 {
		pOffsets = &dynamicOffsets[0]
	}
	args := []unsafe.Pointer{
		unsafe.Pointer(&cb), unsafe.Pointer(&bindPoint), unsafe.Pointer(&layout), unsafe.Pointer(&firstSet),
		unsafe.Pointer(&setCount), unsafe.Pointer(&pSets), unsafe.Pointer(&offCount), unsafe.Pointer(&pOffsets),
	}
	return callVoid(c.cmdBindDescriptorSets, args, argHandle, argPtr, argHandle, argPtr, argPtr, argPtr, argPtr, argPtr)
}

func (c *Commands) CmdPushConstants(cb CommandBuffer, layout PipelineLayout, stageFlags ShaderStageFlags, offset, size uint32, values unsafe.Pointer) error {
	args := []unsafe.Pointer{
		unsafe.Pointer(&cb), unsafe.Pointer(&layout), unsafe.Pointer(&stageFlags),
		unsafe.Pointer(&offset), unsafe.Pointer(&size), unsafe.Pointer(&values),
	}
	return callVoid(c.cmdPushConstants, args, argHandle, argHandle, argPtr, argPtr, argPtr, argPtr)
}

func (c *Commands) CmdSetViewport(cb CommandBuffer, firstViewport uint32, viewports []Viewport) error {
	count := uint32(len(viewports))
	var pViewports *Viewport
	if count > 0 {
		pViewports = &viewports[0]
	}
	args := []unsafe.Pointer{unsafe.Pointer(&cb), unsafe.Pointer(&firstViewport), unsafe.Pointer(&count), unsafe.Pointer(&pViewports)}
	return callVoid(c.cmdSetViewport, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) CmdSetScissor(cb CommandBuffer, firstScissor uint32, scissors []Rect2D) error {
	count := uint32(len(scissors))
	var pScissors *Rect2D
	if count > 0 {
		pScissors = &scissors[0]
	}
	args := []unsafe.Pointer{unsafe.Pointer(&cb), unsafe.Pointer(&firstScissor), unsafe.Pointer(&count), unsafe.Pointer(&pScissors)}
	return callVoid(c.cmdSetScissor, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) CmdDraw(cb CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	args := []unsafe.Pointer{
		unsafe.Pointer(&cb), unsafe.Pointer(&vertexCount), unsafe.Pointer(&instanceCount),
		unsafe.Pointer(&firstVertex), unsafe.Pointer(&firstInstance),
	}
	return callVoid(c.cmdDraw, args, argHandle, argPtr, argPtr, argPtr, argPtr)
}

func (c *Commands) CmdClearColorImage(cb CommandBuffer, image Image, layout ImageLayout, color *ClearColorValue, ranges []ImageSubresourceRange) error {
	count := uint32(len(ranges))
	var pRanges *ImageSubresourceRange
	if count > 0 {
		pRanges = &ranges[0]
	}
	args := []unsafe.Pointer{
		unsafe.Pointer(&cb), unsafe.Pointer(&image), unsafe.Pointer(&layout),
		unsafe.Pointer(&color), unsafe.Pointer(&count), unsafe.Pointer(&pRanges),
	}
	return callVoid(c.cmdClearColorImage, args, argHandle, argHandle, argPtr, argPtr, argPtr, argPtr)
}

func (c *Commands) QueueSubmit(queue Queue, submits []SubmitInfo, fence Fence) (Result, error) {
	count := uint32(len(submits))
	var pSubmits *SubmitInfo
	if count > 0 {
		pSubmits = &submits[0]
	}
	args := []unsafe.Pointer{unsafe.Pointer(&queue), unsafe.Pointer(&count), unsafe.Pointer(&pSubmits), unsafe.Pointer(&fence)}
	return callResult(c.queueSubmit, args, argHandle, argPtr, argPtr, argHandle)
}

func (c *Commands) QueueWaitIdle(queue Queue) (Result, error) {
	return callResult(c.queueWaitIdle, []unsafe.Pointer{unsafe.Pointer(&queue)}, argHandle)
}

func (c *Commands) DeviceWaitIdle(device Device) (Result, error) {
	return callResult(c.deviceWaitIdle, []unsafe.Pointer{unsafe.Pointer(&device)}, argHandle)
}

func (c *Commands) CreateRenderPass(device Device, info *RenderPassCreateInfo, rp *RenderPass) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&rp)}
	return callResult(c.createRenderPass, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyRenderPass(device Device, rp RenderPass) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&rp), nil}
	return callVoid(c.destroyRenderPass, args, argHandle, argHandle, argPtr)
}

func (c *Commands) CreateFramebuffer(device Device, info *FramebufferCreateInfo, fb *Framebuffer) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&fb)}
	return callResult(c.createFramebuffer, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyFramebuffer(device Device, fb Framebuffer) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&fb), nil}
	return callVoid(c.destroyFramebuffer, args, argHandle, argHandle, argPtr)
}

func (c *Commands) CreateShaderModule(device Device, info *ShaderModuleCreateInfo, mod *ShaderModule) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&mod)}
	return callResult(c.createShaderModule, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyShaderModule(device Device, mod ShaderModule) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&mod), nil}
	return callVoid(c.destroyShaderModule, args, argHandle, argHandle, argPtr)
}

func (c *Commands) CreateDescriptorSetLayout(device Device, info *DescriptorSetLayoutCreateInfo, layout *DescriptorSetLayout) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&layout)}
	return callResult(c.createDescriptorSetLayout, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyDescriptorSetLayout(device Device, layout DescriptorSetLayout) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&layout), nil}
	return callVoid(c.destroyDescriptorSetLayout, args, argHandle, argHandle, argPtr)
}

func (c *Commands) CreateDescriptorPool(device Device, info *DescriptorPoolCreateInfo, pool *DescriptorPool) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&pool)}
	return callResult(c.createDescriptorPool, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyDescriptorPool(device Device, pool DescriptorPool) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&pool), nil}
	return callVoid(c.destroyDescriptorPool, args, argHandle, argHandle, argPtr)
}

func (c *Commands) AllocateDescriptorSets(device Device, info *DescriptorSetAllocateInfo, sets *DescriptorSet) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), unsafe.Pointer(&sets)}
	return callResult(c.allocateDescriptorSets, args, argHandle, argPtr, argPtr)
}

func (c *Commands) UpdateDescriptorSets(device Device, writes []WriteDescriptorSet) error {
	count := uint32(len(writes))
	var pWrites *WriteDescriptorSet
	if count > 0 {
		pWrites = &writes[0]
	}
	zero := uint32(0)
	var nilPtr unsafe.Pointer
	args := []unsafe.Pointer{
		unsafe.Pointer(&device), unsafe.Pointer(&count), unsafe.Pointer(&pWrites),
		unsafe.Pointer(&zero), unsafe.Pointer(&nilPtr),
	}
	return callVoid(c.updateDescriptorSets, args, argHandle, argPtr, argPtr, argPtr, argPtr)
}

func (c *Commands) CreateSampler(device Device, info *SamplerCreateInfo, sampler *Sampler) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&sampler)}
	return callResult(c.createSampler, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroySampler(device Device, sampler Sampler) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&sampler), nil}
	return callVoid(c.destroySampler, args, argHandle, argHandle, argPtr)
}

func (c *Commands) CreatePipelineLayout(device Device, info *PipelineLayoutCreateInfo, layout *PipelineLayout) (Result, error) {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), nil, unsafe.Pointer(&layout)}
	return callResult(c.createPipelineLayout, args, argHandle, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyPipelineLayout(device Device, layout PipelineLayout) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&layout), nil}
	return callVoid(c.destroyPipelineLayout, args, argHandle, argHandle, argPtr)
}

func (c *Commands) CreateGraphicsPipelines(device Device, infos []GraphicsPipelineCreateInfo, pipelines []Pipeline) (Result, error) {
	count := uint32(len(infos))
	var pInfos *GraphicsPipelineCreateInfo
	if count > 0 {
		pInfos = &infos[0]
	}
	var pPipelines *Pipeline
	if len(pipelines) > 0 {
		pPipelines = &pipelines[0]
	}
	var cache uint64
	args := []unsafe.Pointer{
		unsafe.Pointer(&device), unsafe.Pointer(&cache), unsafe.Pointer(&count),
		unsafe.Pointer(&pInfos), nil, unsafe.Pointer(&pPipelines),
	}
	return callResult(c.createGraphicsPipelines, args, argHandle, argHandle, argPtr, argPtr, argPtr, argPtr)
}

func (c *Commands) DestroyPipeline(device Device, pipeline Pipeline) error {
	args := []unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&pipeline), nil}
	return callVoid(c.destroyPipeline, args, argHandle, argHandle, argPtr)
}
