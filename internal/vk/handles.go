// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

// Vulkan handles. Dispatchable and non-dispatchable handles are both
// modeled as uint64, matching how the teacher's loader passes VkInstance /
// VkDevice to goffi as a UInt64TypeDescriptor argument regardless of the
// underlying handle's real pointer-vs-integer representation on the C
// side — goffi only needs the bit pattern preserved.
type (
	Instance       uint64
	PhysicalDevice uint64
	Device         uint64
	Queue          uint64

	CommandPool   uint64
	CommandBuffer uint64

	Image       uint64
	ImageView   uint64
	DeviceMemory uint64
	Buffer      uint64

	Fence     uint64
	Semaphore uint64

	RenderPass          uint64
	Framebuffer         uint64
	Pipeline            uint64
	PipelineLayout      uint64
	ShaderModule        uint64
	DescriptorSetLayout uint64
	DescriptorPool      uint64
	DescriptorSet       uint64
	Sampler             uint64

	// Swapchain is the application's own VkSwapchainKHR handle, as passed
	// into the interception layer by the hooked QueuePresent call. This
	// module never creates a swapchain itself.
	Swapchain uint64
)

// NullHandle is the zero value shared by every handle type above.
const NullHandle = 0
