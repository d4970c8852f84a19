// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import "unsafe"

// Extent2D / Extent3D / Offset2D / Offset3D / Rect2D mirror their Vk
// counterparts.
type Extent2D struct{ Width, Height uint32 }
type Extent3D struct{ Width, Height, Depth uint32 }
type Offset2D struct{ X, Y int32 }
type Offset3D struct{ X, Y, Z int32 }
type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}
type Viewport struct {
	X, Y, Width, Height, MinDepth, MaxDepth float32
}

// ApplicationInfo mirrors VkApplicationInfo.
type ApplicationInfo struct {
	SType         StructureType
	PNext         unsafe.Pointer
	PApplicationName unsafe.Pointer
	ApplicationVersion uint32
	PEngineName   unsafe.Pointer
	EngineVersion uint32
	APIVersion    uint32
}

// InstanceCreateInfo mirrors VkInstanceCreateInfo.
type InstanceCreateInfo struct {
	SType                   StructureType
	PNext                   unsafe.Pointer
	Flags                   uint32
	PApplicationInfo        *ApplicationInfo
	EnabledLayerCount       uint32
	PpEnabledLayerNames     unsafe.Pointer
	EnabledExtensionCount   uint32
	PpEnabledExtensionNames unsafe.Pointer
}

// PhysicalDeviceDrmPropertiesEXT mirrors the extension struct the device
// selector reads to discover a physical device's DRM render-minor (spec
// §4.2 "Device selection", SPEC_FULL "server/minor.go").
type PhysicalDeviceDrmPropertiesEXT struct {
	SType          StructureType
	PNext          unsafe.Pointer
	HasPrimary     uint32
	HasRender      uint32
	PrimaryMajor   int64
	PrimaryMinor   int64
	RenderMajor    int64
	RenderMinor    int64
}

// QueueFamilyProperties mirrors VkQueueFamilyProperties.
type QueueFamilyProperties struct {
	QueueFlags                  QueueFlags
	QueueCount                  uint32
	TimestampValidBits          uint32
	MinImageTransferGranularity Extent3D
}

// DeviceQueueCreateInfo mirrors VkDeviceQueueCreateInfo.
type DeviceQueueCreateInfo struct {
	SType            StructureType
	PNext            unsafe.Pointer
	Flags            uint32
	QueueFamilyIndex uint32
	QueueCount       uint32
	PQueuePriorities *float32
}

// DeviceCreateInfo mirrors VkDeviceCreateInfo.
type DeviceCreateInfo struct {
	SType                   StructureType
	PNext                   unsafe.Pointer
	Flags                   uint32
	QueueCreateInfoCount    uint32
	PQueueCreateInfos       *DeviceQueueCreateInfo
	EnabledLayerCount       uint32
	PpEnabledLayerNames     unsafe.Pointer
	EnabledExtensionCount   uint32
	PpEnabledExtensionNames unsafe.Pointer
	PEnabledFeatures        unsafe.Pointer
}

// ExternalMemoryImageCreateInfo mirrors VkExternalMemoryImageCreateInfo
// (spec §4.2 dma-buf destination image, opaque-FD sibling image).
type ExternalMemoryImageCreateInfo struct {
	SType       StructureType
	PNext       unsafe.Pointer
	HandleTypes ExternalMemoryHandleTypeFlagBits
}

// SubresourceLayout mirrors VkSubresourceLayout, one plane's layout within
// a DRM-format-modifier image (spec §4.5 DmabufInfo's stride/offset).
type SubresourceLayout struct {
	Offset, Size, RowPitch, ArrayPitch, DepthPitch uint64
}

// ImageDrmFormatModifierExplicitCreateInfoEXT mirrors the extension struct
// used to re-import a dma-buf as an explicit-modifier image (spec §4.3
// "Re-imports: creates a sampled dma-buf image (drm-format-modifier
// explicit)").
type ImageDrmFormatModifierExplicitCreateInfoEXT struct {
	SType              StructureType
	PNext              unsafe.Pointer
	DrmFormatModifier  uint64
	PlaneLayoutCount   uint32
	PPlaneLayouts      *SubresourceLayout
}

// ImageCreateInfo mirrors VkImageCreateInfo.
type ImageCreateInfo struct {
	SType                 StructureType
	PNext                 unsafe.Pointer
	Flags                 uint32
	ImageType             int32
	Format                Format
	Extent                Extent3D
	MipLevels             uint32
	ArrayLayers           uint32
	Samples               uint32
	Tiling                ImageTiling
	Usage                 ImageUsageFlags
	SharingMode           SharingMode
	QueueFamilyIndexCount uint32
	PQueueFamilyIndices   *uint32
	InitialLayout         ImageLayout
}

// MemoryRequirements mirrors VkMemoryRequirements.
type MemoryRequirements struct {
	Size, Alignment uint64
	MemoryTypeBits  uint32
}

// ExportMemoryAllocateInfo mirrors VkExportMemoryAllocateInfo (opaque-FD
// sibling image path, spec §4.2).
type ExportMemoryAllocateInfo struct {
	SType       StructureType
	PNext       unsafe.Pointer
	HandleTypes ExternalMemoryHandleTypeFlagBits
}

// ImportMemoryFdInfoKHR mirrors VkImportMemoryFdInfoKHR (dma-buf / GBM FD
// import path, spec §4.3).
type ImportMemoryFdInfoKHR struct {
	SType      StructureType
	PNext      unsafe.Pointer
	HandleType ExternalMemoryHandleTypeFlagBits
	Fd         int32
}

// MemoryFdPropertiesKHR mirrors VkMemoryFdPropertiesKHR, used to intersect
// the imported FD's supported memory types with the image's requirements
// (spec §4.3: "memory imported from the GBM object's FD... type chosen
// from intersection of image requirements and VkMemoryFdProperties").
type MemoryFdPropertiesKHR struct {
	SType         StructureType
	PNext         unsafe.Pointer
	MemoryTypeBits uint32
}

// MemoryAllocateInfo mirrors VkMemoryAllocateInfo.
type MemoryAllocateInfo struct {
	SType           StructureType
	PNext           unsafe.Pointer
	AllocationSize  uint64
	MemoryTypeIndex uint32
}

// MemoryGetFdInfoKHR mirrors VkMemoryGetFdInfoKHR (exporting the opaque-FD
// sibling image's backing memory, spec §4.2).
type MemoryGetFdInfoKHR struct {
	SType      StructureType
	PNext      unsafe.Pointer
	Memory     DeviceMemory
	HandleType ExternalMemoryHandleTypeFlagBits
}

// ComponentMapping / ImageSubresourceRange / ImageSubresourceLayers mirror
// their Vk counterparts.
type ComponentMapping struct{ R, G, B, A int32 }
type ImageSubresourceRange struct {
	AspectMask                              uint32
	BaseMipLevel, LevelCount                uint32
	BaseArrayLayer, LayerCount              uint32
}
type ImageSubresourceLayers struct {
	AspectMask     uint32
	MipLevel       uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// ImageViewCreateInfo mirrors VkImageViewCreateInfo.
type ImageViewCreateInfo struct {
	SType            StructureType
	PNext            unsafe.Pointer
	Flags            uint32
	Image            Image
	ViewType         int32
	Format           Format
	Components       ComponentMapping
	SubresourceRange ImageSubresourceRange
}

// FenceCreateInfo / ExportFenceCreateInfo mirror their Vk counterparts
// (spec §3 "one fence per image (created pre-signalled)").
type FenceCreateInfo struct {
	SType StructureType
	PNext unsafe.Pointer
	Flags uint32
}
const FenceCreateSignaledBit uint32 = 1

type ExportFenceCreateInfo struct {
	SType       StructureType
	PNext       unsafe.Pointer
	HandleTypes ExternalFenceHandleTypeFlagBits
}

// ImportFenceFdInfoKHR / FenceGetFdInfoKHR mirror their Vk counterparts
// (spec §4.1 send_fence / release_fence sync-file exchange).
type ImportFenceFdInfoKHR struct {
	SType      StructureType
	PNext      unsafe.Pointer
	Fence      Fence
	Flags      uint32
	HandleType ExternalFenceHandleTypeFlagBits
	Fd         int32
}
type FenceGetFdInfoKHR struct {
	SType      StructureType
	PNext      unsafe.Pointer
	Fence      Fence
	HandleType ExternalFenceHandleTypeFlagBits
}

// SemaphoreCreateInfo / ExportSemaphoreCreateInfo mirror their Vk
// counterparts (spec §3 "overlay-done" binary semaphore).
type SemaphoreCreateInfo struct {
	SType StructureType
	PNext unsafe.Pointer
	Flags uint32
}
type ExportSemaphoreCreateInfo struct {
	SType       StructureType
	PNext       unsafe.Pointer
	HandleTypes ExternalSemaphoreHandleTypeFlagBits
}
type ImportSemaphoreFdInfoKHR struct {
	SType      StructureType
	PNext      unsafe.Pointer
	Semaphore  Semaphore
	Flags      uint32
	HandleType ExternalSemaphoreHandleTypeFlagBits
	Fd         int32
}
type SemaphoreGetFdInfoKHR struct {
	SType      StructureType
	PNext      unsafe.Pointer
	Semaphore  Semaphore
	HandleType ExternalSemaphoreHandleTypeFlagBits
}

// CommandPoolCreateInfo / CommandBufferAllocateInfo / CommandBufferBeginInfo
// mirror their Vk counterparts.
type CommandPoolCreateInfo struct {
	SType            StructureType
	PNext            unsafe.Pointer
	Flags            uint32
	QueueFamilyIndex uint32
}
const CommandPoolCreateResetCommandBufferBit uint32 = 2

type CommandBufferAllocateInfo struct {
	SType              StructureType
	PNext              unsafe.Pointer
	CommandPool        CommandPool
	Level              CommandBufferLevel
	CommandBufferCount uint32
}
type CommandBufferBeginInfo struct {
	SType            StructureType
	PNext            unsafe.Pointer
	Flags            uint32
	PInheritanceInfo unsafe.Pointer
}
const CommandBufferUsageOneTimeSubmitBit uint32 = 1

// SubmitInfo mirrors VkSubmitInfo.
type SubmitInfo struct {
	SType                StructureType
	PNext                unsafe.Pointer
	WaitSemaphoreCount   uint32
	PWaitSemaphores      *Semaphore
	PWaitDstStageMask    *PipelineStageFlags
	CommandBufferCount   uint32
	PCommandBuffers      *CommandBuffer
	SignalSemaphoreCount uint32
	PSignalSemaphores    *Semaphore
}

// PresentInfoKHR mirrors VkPresentInfoKHR. The client interceptor rewrites
// this struct's wait-semaphore list before forwarding the call (spec §4.3:
// "rewrite the outgoing VkPresentInfoKHR so its wait list becomes exactly
// {overlay-done}").
type PresentInfoKHR struct {
	SType              StructureType
	PNext              unsafe.Pointer
	WaitSemaphoreCount uint32
	PWaitSemaphores    *Semaphore
	SwapchainCount     uint32
	PSwapchains        *Swapchain
	PImageIndices      *uint32
	PResults           *Result
}

// AttachmentDescription / AttachmentReference / SubpassDescription /
// RenderPassCreateInfo mirror their Vk counterparts (spec §4.3 "a single
// render pass that loads-op-load and store-op-stores the swapchain color
// attachment").
type AttachmentDescription struct {
	Flags          uint32
	Format         Format
	Samples        uint32
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}
type AttachmentReference struct {
	Attachment uint32
	Layout     ImageLayout
}
type SubpassDescription struct {
	Flags                  uint32
	PipelineBindPoint      PipelineBindPoint
	InputAttachmentCount   uint32
	PInputAttachments      *AttachmentReference
	ColorAttachmentCount   uint32
	PColorAttachments      *AttachmentReference
	PResolveAttachments    *AttachmentReference
	PDepthStencilAttachment *AttachmentReference
	PreserveAttachmentCount uint32
	PPreserveAttachments    *uint32
}
type RenderPassCreateInfo struct {
	SType           StructureType
	PNext           unsafe.Pointer
	Flags           uint32
	AttachmentCount uint32
	PAttachments    *AttachmentDescription
	SubpassCount    uint32
	PSubpasses      *SubpassDescription
	DependencyCount uint32
	PDependencies   unsafe.Pointer
}

// FramebufferCreateInfo mirrors VkFramebufferCreateInfo.
type FramebufferCreateInfo struct {
	SType           StructureType
	PNext           unsafe.Pointer
	Flags           uint32
	RenderPass      RenderPass
	AttachmentCount uint32
	PAttachments    *ImageView
	Width, Height, Layers uint32
}

// ImageMemoryBarrier mirrors VkImageMemoryBarrier (spec §3 "their layouts
// are tracked ... and updated monotonically per command buffer").
type ImageMemoryBarrier struct {
	SType               StructureType
	PNext               unsafe.Pointer
	SrcAccessMask       AccessFlags
	DstAccessMask       AccessFlags
	OldLayout           ImageLayout
	NewLayout           ImageLayout
	SrcQueueFamilyIndex uint32
	DstQueueFamilyIndex uint32
	Image               Image
	SubresourceRange    ImageSubresourceRange
}

// BufferImageCopy / ImageCopy mirror their Vk counterparts.
type BufferImageCopy struct {
	BufferOffset      uint64
	BufferRowLength   uint32
	BufferImageHeight uint32
	ImageSubresource  ImageSubresourceLayers
	ImageOffset       Offset3D
	ImageExtent       Extent3D
}
type ImageCopy struct {
	SrcSubresource ImageSubresourceLayers
	SrcOffset      Offset3D
	DstSubresource ImageSubresourceLayers
	DstOffset      Offset3D
	Extent         Extent3D
}

// DescriptorSetLayoutBinding / DescriptorSetLayoutCreateInfo /
// DescriptorPoolSize / DescriptorPoolCreateInfo / DescriptorSetAllocateInfo
// / DescriptorImageInfo / WriteDescriptorSet mirror their Vk counterparts
// (spec §3 "a single combined-image-sampler descriptor set").
type DescriptorSetLayoutBinding struct {
	Binding            uint32
	DescriptorType     DescriptorType
	DescriptorCount    uint32
	StageFlags         ShaderStageFlags
	PImmutableSamplers *Sampler
}
type DescriptorSetLayoutCreateInfo struct {
	SType        StructureType
	PNext        unsafe.Pointer
	Flags        uint32
	BindingCount uint32
	PBindings    *DescriptorSetLayoutBinding
}
type DescriptorPoolSize struct {
	Type            DescriptorType
	DescriptorCount uint32
}
type DescriptorPoolCreateInfo struct {
	SType         StructureType
	PNext         unsafe.Pointer
	Flags         uint32
	MaxSets       uint32
	PoolSizeCount uint32
	PPoolSizes    *DescriptorPoolSize
}
type DescriptorSetAllocateInfo struct {
	SType              StructureType
	PNext              unsafe.Pointer
	DescriptorPool     DescriptorPool
	DescriptorSetCount uint32
	PSetLayouts        *DescriptorSetLayout
}
type DescriptorImageInfo struct {
	Sampler     Sampler
	ImageView   ImageView
	ImageLayout ImageLayout
}
type WriteDescriptorSet struct {
	SType           StructureType
	PNext           unsafe.Pointer
	DstSet          DescriptorSet
	DstBinding      uint32
	DstArrayElement uint32
	DescriptorCount uint32
	DescriptorType  DescriptorType
	PImageInfo      *DescriptorImageInfo
	PBufferInfo     unsafe.Pointer
	PTexelBufferView unsafe.Pointer
}

// SamplerCreateInfo mirrors VkSamplerCreateInfo (spec §3 "nearest-neighbor
// clamp-to-edge sampler").
type SamplerCreateInfo struct {
	SType                   StructureType
	PNext                   unsafe.Pointer
	Flags                   uint32
	MagFilter, MinFilter    Filter
	MipmapMode              int32
	AddressModeU, AddressModeV, AddressModeW SamplerAddressMode
	MipLodBias              float32
	AnisotropyEnable        uint32
	MaxAnisotropy           float32
	CompareEnable           uint32
	CompareOp               int32
	MinLod, MaxLod          float32
	BorderColor             int32
	UnnormalizedCoordinates uint32
}

// ShaderModuleCreateInfo mirrors VkShaderModuleCreateInfo.
type ShaderModuleCreateInfo struct {
	SType    StructureType
	PNext    unsafe.Pointer
	Flags    uint32
	CodeSize uintptr
	PCode    unsafe.Pointer
}

// PushConstantRange / PipelineLayoutCreateInfo mirror their Vk
// counterparts (spec §4.3: "A single push-constant block carries
// destination extent, source extent, and pixel offset.").
type PushConstantRange struct {
	StageFlags ShaderStageFlags
	Offset     uint32
	Size       uint32
}
type PipelineLayoutCreateInfo struct {
	SType                  StructureType
	PNext                  unsafe.Pointer
	Flags                  uint32
	SetLayoutCount         uint32
	PSetLayouts            *DescriptorSetLayout
	PushConstantRangeCount uint32
	PPushConstantRanges    *PushConstantRange
}

// PipelineShaderStageCreateInfo and the fixed-function state structs below
// mirror their Vk counterparts, trimmed to what one full-screen-triangle
// composite pipeline needs (no vertex buffers: spec §4.3 carries
// everything through push constants instead).
type PipelineShaderStageCreateInfo struct {
	SType  StructureType
	PNext  unsafe.Pointer
	Flags  uint32
	Stage  ShaderStageFlags
	Module ShaderModule
	PName  unsafe.Pointer
}
type PipelineVertexInputStateCreateInfo struct {
	SType StructureType
	PNext unsafe.Pointer
	Flags uint32
}
type PipelineInputAssemblyStateCreateInfo struct {
	SType                  StructureType
	PNext                  unsafe.Pointer
	Flags                  uint32
	Topology               int32
	PrimitiveRestartEnable uint32
}
type PipelineViewportStateCreateInfo struct {
	SType         StructureType
	PNext         unsafe.Pointer
	Flags         uint32
	ViewportCount uint32
	PViewports    *Viewport
	ScissorCount  uint32
	PScissors     *Rect2D
}
type PipelineRasterizationStateCreateInfo struct {
	SType                   StructureType
	PNext                   unsafe.Pointer
	Flags                   uint32
	DepthClampEnable        uint32
	RasterizerDiscardEnable uint32
	PolygonMode             int32
	CullMode                uint32
	FrontFace               int32
	DepthBiasEnable         uint32
	DepthBiasConstantFactor float32
	DepthBiasClamp          float32
	DepthBiasSlopeFactor    float32
	LineWidth               float32
}
type PipelineMultisampleStateCreateInfo struct {
	SType                StructureType
	PNext                unsafe.Pointer
	Flags                uint32
	RasterizationSamples uint32
	SampleShadingEnable  uint32
	MinSampleShading     float32
	PSampleMask          unsafe.Pointer
	AlphaToCoverageEnable uint32
	AlphaToOneEnable      uint32
}
type PipelineColorBlendAttachmentState struct {
	BlendEnable         uint32
	SrcColorBlendFactor int32
	DstColorBlendFactor int32
	ColorBlendOp        int32
	SrcAlphaBlendFactor int32
	DstAlphaBlendFactor int32
	AlphaBlendOp        int32
	ColorWriteMask      uint32
}
type PipelineColorBlendStateCreateInfo struct {
	SType           StructureType
	PNext           unsafe.Pointer
	Flags           uint32
	LogicOpEnable   uint32
	LogicOp         int32
	AttachmentCount uint32
	PAttachments    *PipelineColorBlendAttachmentState
	BlendConstants  [4]float32
}
// ClearColorValue / ClearValue mirror VkClearColorValue / VkClearValue.
// This module only ever clears color attachments (the composite pass has
// no depth buffer), so ClearValue carries just the color union's float32
// form.
type ClearColorValue struct {
	Float32 [4]float32
}
type ClearValue struct {
	Color ClearColorValue
}

// RenderPassBeginInfo mirrors VkRenderPassBeginInfo.
type RenderPassBeginInfo struct {
	SType           StructureType
	PNext           unsafe.Pointer
	RenderPass      RenderPass
	Framebuffer     Framebuffer
	RenderArea      Rect2D
	ClearValueCount uint32
	PClearValues    *ClearValue
}

type GraphicsPipelineCreateInfo struct {
	SType               StructureType
	PNext               unsafe.Pointer
	Flags               uint32
	StageCount          uint32
	PStages             *PipelineShaderStageCreateInfo
	PVertexInputState   *PipelineVertexInputStateCreateInfo
	PInputAssemblyState *PipelineInputAssemblyStateCreateInfo
	PTessellationState  unsafe.Pointer
	PViewportState      *PipelineViewportStateCreateInfo
	PRasterizationState *PipelineRasterizationStateCreateInfo
	PMultisampleState   *PipelineMultisampleStateCreateInfo
	PDepthStencilState  unsafe.Pointer
	PColorBlendState    *PipelineColorBlendStateCreateInfo
	PDynamicState       unsafe.Pointer
	Layout              PipelineLayout
	RenderPass          RenderPass
	Subpass             uint32
	BasePipelineHandle  Pipeline
	BasePipelineIndex   int32
}
