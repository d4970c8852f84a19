// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package client

import (
	"testing"
	"unsafe"

	"github.com/gpuhud/hud/internal/vk"
)

// fakeDispatch satisfies Dispatch without touching a real driver, handing
// out monotonically increasing non-zero handles so Close paths exercise
// their "was this ever created" checks the same way a live Commands would.
type fakeDispatch struct {
	next uint64
}

func (f *fakeDispatch) handle() uint64 {
	f.next++
	return f.next
}

func (f *fakeDispatch) CreateImage(vk.Device, *vk.ImageCreateInfo, *vk.Image) (vk.Result, error) {
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyImage(vk.Device, vk.Image) error { return nil }
func (f *fakeDispatch) GetImageMemoryRequirements(vk.Device, vk.Image, *vk.MemoryRequirements) error {
	return nil
}
func (f *fakeDispatch) BindImageMemory(vk.Device, vk.Image, vk.DeviceMemory, uint64) (vk.Result, error) {
	return vk.Success, nil
}
func (f *fakeDispatch) CreateImageView(_ vk.Device, _ *vk.ImageViewCreateInfo, view *vk.ImageView) (vk.Result, error) {
	*view = vk.ImageView(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyImageView(vk.Device, vk.ImageView) error { return nil }

func (f *fakeDispatch) AllocateMemory(vk.Device, *vk.MemoryAllocateInfo, *vk.DeviceMemory) (vk.Result, error) {
	return vk.Success, nil
}
func (f *fakeDispatch) FreeMemory(vk.Device, vk.DeviceMemory) error { return nil }
func (f *fakeDispatch) GetMemoryFdPropertiesKHR(vk.Device, vk.ExternalMemoryHandleTypeFlagBits, int32, *vk.MemoryFdPropertiesKHR) (vk.Result, error) {
	return vk.Success, nil
}

func (f *fakeDispatch) CreateFence(_ vk.Device, _ *vk.FenceCreateInfo, fence *vk.Fence) (vk.Result, error) {
	*fence = vk.Fence(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyFence(vk.Device, vk.Fence) error { return nil }
func (f *fakeDispatch) ResetFences(vk.Device, []vk.Fence) (vk.Result, error) {
	return vk.Success, nil
}
func (f *fakeDispatch) WaitForFences(vk.Device, []vk.Fence, bool, uint64) (vk.Result, error) {
	return vk.Success, nil
}

func (f *fakeDispatch) CreateSemaphore(_ vk.Device, _ *vk.SemaphoreCreateInfo, sem *vk.Semaphore) (vk.Result, error) {
	*sem = vk.Semaphore(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroySemaphore(vk.Device, vk.Semaphore) error { return nil }
func (f *fakeDispatch) GetSemaphoreFdKHR(vk.Device, *vk.SemaphoreGetFdInfoKHR, *int32) (vk.Result, error) {
	return vk.Success, nil
}

func (f *fakeDispatch) CreateCommandPool(_ vk.Device, _ *vk.CommandPoolCreateInfo, pool *vk.CommandPool) (vk.Result, error) {
	*pool = vk.CommandPool(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyCommandPool(vk.Device, vk.CommandPool) error { return nil }
func (f *fakeDispatch) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo, buffers *vk.CommandBuffer) (vk.Result, error) {
	out := unsafe.Slice(buffers, info.CommandBufferCount)
	for i := range out {
		out[i] = vk.CommandBuffer(f.handle())
	}
	return vk.Success, nil
}
func (f *fakeDispatch) ResetCommandBuffer(vk.CommandBuffer, uint32) (vk.Result, error) {
	return vk.Success, nil
}
func (f *fakeDispatch) BeginCommandBuffer(vk.CommandBuffer, *vk.CommandBufferBeginInfo) (vk.Result, error) {
	return vk.Success, nil
}
func (f *fakeDispatch) EndCommandBuffer(vk.CommandBuffer) (vk.Result, error) {
	return vk.Success, nil
}

func (f *fakeDispatch) CmdPipelineBarrier(vk.CommandBuffer, vk.PipelineStageFlags, vk.PipelineStageFlags, *vk.ImageMemoryBarrier) error {
	return nil
}
func (f *fakeDispatch) CmdCopyImage(vk.CommandBuffer, vk.Image, vk.ImageLayout, vk.Image, vk.ImageLayout, []vk.ImageCopy) error {
	return nil
}
func (f *fakeDispatch) CmdClearColorImage(vk.CommandBuffer, vk.Image, vk.ImageLayout, *vk.ClearColorValue, []vk.ImageSubresourceRange) error {
	return nil
}
func (f *fakeDispatch) CmdBeginRenderPass(vk.CommandBuffer, *vk.RenderPassBeginInfo, vk.SubpassContents) error {
	return nil
}
func (f *fakeDispatch) CmdEndRenderPass(vk.CommandBuffer) error { return nil }
func (f *fakeDispatch) CmdBindPipeline(vk.CommandBuffer, vk.PipelineBindPoint, vk.Pipeline) error {
	return nil
}
func (f *fakeDispatch) CmdBindDescriptorSets(vk.CommandBuffer, vk.PipelineBindPoint, vk.PipelineLayout, uint32, []vk.DescriptorSet, []uint32) error {
	return nil
}
func (f *fakeDispatch) CmdPushConstants(vk.CommandBuffer, vk.PipelineLayout, vk.ShaderStageFlags, uint32, uint32, unsafe.Pointer) error {
	return nil
}
func (f *fakeDispatch) CmdDraw(vk.CommandBuffer, uint32, uint32, uint32, uint32) error { return nil }

func (f *fakeDispatch) QueueSubmit(vk.Queue, []vk.SubmitInfo, vk.Fence) (vk.Result, error) {
	return vk.Success, nil
}
func (f *fakeDispatch) DeviceWaitIdle(vk.Device) (vk.Result, error) { return vk.Success, nil }

func (f *fakeDispatch) CreateRenderPass(_ vk.Device, _ *vk.RenderPassCreateInfo, rp *vk.RenderPass) (vk.Result, error) {
	*rp = vk.RenderPass(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyRenderPass(vk.Device, vk.RenderPass) error { return nil }
func (f *fakeDispatch) CreateFramebuffer(_ vk.Device, _ *vk.FramebufferCreateInfo, fb *vk.Framebuffer) (vk.Result, error) {
	*fb = vk.Framebuffer(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyFramebuffer(vk.Device, vk.Framebuffer) error { return nil }

func (f *fakeDispatch) CreateShaderModule(_ vk.Device, _ *vk.ShaderModuleCreateInfo, mod *vk.ShaderModule) (vk.Result, error) {
	*mod = vk.ShaderModule(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyShaderModule(vk.Device, vk.ShaderModule) error { return nil }
func (f *fakeDispatch) CreateDescriptorSetLayout(_ vk.Device, _ *vk.DescriptorSetLayoutCreateInfo, layout *vk.DescriptorSetLayout) (vk.Result, error) {
	*layout = vk.DescriptorSetLayout(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyDescriptorSetLayout(vk.Device, vk.DescriptorSetLayout) error { return nil }
func (f *fakeDispatch) CreateDescriptorPool(_ vk.Device, _ *vk.DescriptorPoolCreateInfo, pool *vk.DescriptorPool) (vk.Result, error) {
	*pool = vk.DescriptorPool(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyDescriptorPool(vk.Device, vk.DescriptorPool) error { return nil }
func (f *fakeDispatch) AllocateDescriptorSets(_ vk.Device, _ *vk.DescriptorSetAllocateInfo, sets *vk.DescriptorSet) (vk.Result, error) {
	*sets = vk.DescriptorSet(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) UpdateDescriptorSets(vk.Device, []vk.WriteDescriptorSet) error { return nil }
func (f *fakeDispatch) CreateSampler(_ vk.Device, _ *vk.SamplerCreateInfo, sampler *vk.Sampler) (vk.Result, error) {
	*sampler = vk.Sampler(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroySampler(vk.Device, vk.Sampler) error { return nil }
func (f *fakeDispatch) CreatePipelineLayout(_ vk.Device, _ *vk.PipelineLayoutCreateInfo, layout *vk.PipelineLayout) (vk.Result, error) {
	*layout = vk.PipelineLayout(f.handle())
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyPipelineLayout(vk.Device, vk.PipelineLayout) error { return nil }
func (f *fakeDispatch) CreateGraphicsPipelines(_ vk.Device, infos []vk.GraphicsPipelineCreateInfo, pipelines []vk.Pipeline) (vk.Result, error) {
	for i := range infos {
		pipelines[i] = vk.Pipeline(f.handle())
	}
	return vk.Success, nil
}
func (f *fakeDispatch) DestroyPipeline(vk.Device, vk.Pipeline) error { return nil }

func newTestSwapchainData(t *testing.T) *SwapchainData {
	t.Helper()
	fd := &fakeDispatch{}
	images := []vk.Image{vk.Image(fd.handle()), vk.Image(fd.handle())}
	sd, err := NewSwapchainData(fd, vk.Device(1), vk.FormatB8G8R8A8Srgb, vk.Extent2D{Width: 1920, Height: 1080}, images)
	if err != nil {
		t.Fatalf("NewSwapchainData: %v", err)
	}
	return sd
}

func TestOverlayTrackGetUntrack(t *testing.T) {
	o := NewOverlay()
	swap := vk.Swapchain(42)

	if got := o.Get(swap); got != nil {
		t.Fatalf("Get on empty overlay = %v, want nil", got)
	}

	sd := newTestSwapchainData(t)
	o.Track(swap, sd)
	if got := o.Get(swap); got != sd {
		t.Fatalf("Get after Track = %v, want %v", got, sd)
	}

	o.Untrack(swap)
	if got := o.Get(swap); got != nil {
		t.Fatalf("Get after Untrack = %v, want nil", got)
	}
}

func TestOverlayTrackReplacesPriorEntry(t *testing.T) {
	o := NewOverlay()
	swap := vk.Swapchain(7)

	first := newTestSwapchainData(t)
	second := newTestSwapchainData(t)

	o.Track(swap, first)
	o.Track(swap, second)

	if got := o.Get(swap); got != second {
		t.Fatalf("Get after replacing Track = %v, want the second registration", got)
	}
}

func TestOverlayCloseClearsAllEntries(t *testing.T) {
	o := NewOverlay()
	o.Track(vk.Swapchain(1), newTestSwapchainData(t))
	o.Track(vk.Swapchain(2), newTestSwapchainData(t))

	o.Close()

	if got := o.Get(vk.Swapchain(1)); got != nil {
		t.Fatalf("Get(1) after Close = %v, want nil", got)
	}
	if got := o.Get(vk.Swapchain(2)); got != nil {
		t.Fatalf("Get(2) after Close = %v, want nil", got)
	}
}

func TestSwapchainDataEnsureCommandResourcesIsIdempotent(t *testing.T) {
	sd := newTestSwapchainData(t)

	if err := sd.EnsureCommandResources(0); err != nil {
		t.Fatalf("EnsureCommandResources: %v", err)
	}
	firstPool := sd.cmdPool
	firstCmd := sd.CommandBuffer(0)

	if err := sd.EnsureCommandResources(0); err != nil {
		t.Fatalf("EnsureCommandResources (second call): %v", err)
	}
	if sd.cmdPool != firstPool {
		t.Fatalf("EnsureCommandResources recreated the command pool on an unchanged image count")
	}
	if sd.CommandBuffer(0) != firstCmd {
		t.Fatalf("EnsureCommandResources reallocated command buffers on an unchanged image count")
	}
}
