// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

// Result mirrors VkResult. Only the values this module's error paths
// distinguish are named; any other negative value is still a valid
// Result, just unnamed here.
type Result int32

const (
	Success          Result = 0
	NotReady         Result = 1
	Timeout          Result = 2
	Suboptimal       Result = 1000001003
	ErrorOutOfDate   Result = -1000001004
	ErrorDeviceLost  Result = -4
	ErrorOutOfHostMemory   Result = -1
	ErrorOutOfDeviceMemory Result = -2
	ErrorInitializationFailed Result = -3
)

// IsError reports whether r represents a failure (negative VkResult).
func (r Result) IsError() bool { return r < 0 }

// StructureType mirrors VkStructureType, subset used by this module.
type StructureType int32

const (
	StructureTypeApplicationInfo StructureType = 0
	StructureTypeInstanceCreateInfo StructureType = 1
	StructureTypeDeviceQueueCreateInfo StructureType = 2
	StructureTypeDeviceCreateInfo StructureType = 3
	StructureTypeSubmitInfo StructureType = 4
	StructureTypeMemoryAllocateInfo StructureType = 5
	StructureTypeFenceCreateInfo StructureType = 8
	StructureTypeSemaphoreCreateInfo StructureType = 9
	StructureTypeCommandPoolCreateInfo StructureType = 39
	StructureTypeCommandBufferAllocateInfo StructureType = 40
	StructureTypeCommandBufferBeginInfo StructureType = 42
	StructureTypeRenderPassCreateInfo StructureType = 38
	StructureTypeImageCreateInfo StructureType = 14
	StructureTypeImageViewCreateInfo StructureType = 15
	StructureTypeFramebufferCreateInfo StructureType = 37
	StructureTypeBufferImageCopy StructureType = 0 // not a struct w/ sType; placeholder unused
	StructureTypeImageMemoryBarrier StructureType = 45
	StructureTypeDescriptorSetLayoutCreateInfo StructureType = 32
	StructureTypeDescriptorPoolCreateInfo StructureType = 33
	StructureTypeDescriptorSetAllocateInfo StructureType = 34
	StructureTypeWriteDescriptorSet StructureType = 35
	StructureTypeSamplerCreateInfo StructureType = 31
	StructureTypeShaderModuleCreateInfo StructureType = 16
	StructureTypeGraphicsPipelineCreateInfo StructureType = 28
	StructureTypePipelineLayoutCreateInfo StructureType = 30
	StructureTypePresentInfoKHR StructureType = 1000001001
	StructureTypeRenderPassBeginInfo StructureType = 43

	// External memory / DRM-format-modifier extensions (spec §4.2, §4.3).
	StructureTypeExternalMemoryImageCreateInfo       StructureType = 1000072001
	StructureTypeExportMemoryAllocateInfo            StructureType = 1000072002
	StructureTypeImportMemoryFdInfoKHR                StructureType = 1000074000
	StructureTypeMemoryFdPropertiesKHR                 StructureType = 1000074001
	StructureTypeMemoryGetFdInfoKHR                    StructureType = 1000074002
	StructureTypeImageDrmFormatModifierListCreateInfoEXT     StructureType = 1000158003
	StructureTypeImageDrmFormatModifierExplicitCreateInfoEXT StructureType = 1000158004
	StructureTypeDrmFormatModifierPropertiesListEXT          StructureType = 1000158000
	StructureTypePhysicalDeviceDrmPropertiesEXT              StructureType = 1000353000

	// External fence/semaphore FD (spec §4.1 acquire/release sync-files).
	StructureTypeExportFenceCreateInfo    StructureType = 1000113000
	StructureTypeImportFenceFdInfoKHR     StructureType = 1000115000
	StructureTypeFenceGetFdInfoKHR        StructureType = 1000115001
	StructureTypeExportSemaphoreCreateInfo StructureType = 1000077000
	StructureTypeImportSemaphoreFdInfoKHR StructureType = 1000079000
	StructureTypeSemaphoreGetFdInfoKHR    StructureType = 1000079001
)

// Format mirrors VkFormat, subset used by this module.
type Format int32

const (
	FormatUndefined    Format = 0
	FormatR8G8B8A8Unorm Format = 37
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
)

// ImageLayout mirrors VkImageLayout.
type ImageLayout int32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutGeneral                ImageLayout = 1
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutShaderReadOnlyOptimal  ImageLayout = 5
	ImageLayoutTransferSrcOptimal     ImageLayout = 6
	ImageLayoutTransferDstOptimal     ImageLayout = 7
	ImageLayoutPresentSrcKHR          ImageLayout = 1000001002
)

// ImageTiling mirrors VkImageTiling.
type ImageTiling int32

const (
	ImageTilingOptimal      ImageTiling = 0
	ImageTilingLinear       ImageTiling = 1
	ImageTilingDrmFormatModifierEXT ImageTiling = 1000158000
)

// ImageUsageFlags mirrors VkImageUsageFlags bits this module sets.
type ImageUsageFlags uint32

const (
	ImageUsageTransferSrc     ImageUsageFlags = 1 << 0
	ImageUsageTransferDst     ImageUsageFlags = 1 << 1
	ImageUsageSampled         ImageUsageFlags = 1 << 2
	ImageUsageColorAttachment ImageUsageFlags = 1 << 4
)

// SharingMode mirrors VkSharingMode.
type SharingMode int32

const (
	SharingModeExclusive  SharingMode = 0
	SharingModeConcurrent SharingMode = 1
)

// MemoryPropertyFlags mirrors VkMemoryPropertyFlags bits used here.
type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal MemoryPropertyFlags = 1 << 0
	MemoryPropertyHostVisible MemoryPropertyFlags = 1 << 1
	MemoryPropertyHostCoherent MemoryPropertyFlags = 1 << 2
)

// QueueFlags mirrors VkQueueFlags bits this module inspects when picking a
// queue family.
type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 1 << 0
	QueueTransfer QueueFlags = 1 << 2
)

// PipelineStageFlags mirrors VkPipelineStageFlags bits used in barriers
// and submits here.
type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe    PipelineStageFlags = 1 << 0
	PipelineStageTransfer     PipelineStageFlags = 1 << 12
	PipelineStageColorAttachmentOutput PipelineStageFlags = 1 << 10
	PipelineStageBottomOfPipe PipelineStageFlags = 1 << 13
	PipelineStageAllCommands  PipelineStageFlags = 1 << 16
)

// AccessFlags mirrors VkAccessFlags bits used in barriers here.
type AccessFlags uint32

const (
	AccessTransferRead  AccessFlags = 1 << 11
	AccessTransferWrite AccessFlags = 1 << 12
	AccessShaderRead    AccessFlags = 1 << 5
	AccessColorAttachmentWrite AccessFlags = 1 << 8
)

// ExternalMemoryHandleTypeFlagBits mirrors the extension of the same name
// (spec §4.2: dma-buf vs opaque-FD import paths).
type ExternalMemoryHandleTypeFlagBits uint32

const (
	ExternalMemoryHandleTypeDmaBufEXT      ExternalMemoryHandleTypeFlagBits = 1 << 9
	ExternalMemoryHandleTypeOpaqueFd       ExternalMemoryHandleTypeFlagBits = 1 << 0
)

// ExternalFenceHandleTypeFlagBits mirrors VkExternalFenceHandleTypeFlagBits;
// this module only ever uses the sync-fd type (spec GLOSSARY "Sync-file").
type ExternalFenceHandleTypeFlagBits uint32

const ExternalFenceHandleTypeSyncFd ExternalFenceHandleTypeFlagBits = 1 << 3

// ExternalSemaphoreHandleTypeFlagBits mirrors VkExternalSemaphoreHandleTypeFlagBits.
type ExternalSemaphoreHandleTypeFlagBits uint32

const ExternalSemaphoreHandleTypeSyncFd ExternalSemaphoreHandleTypeFlagBits = 1 << 4

// CommandBufferLevel mirrors VkCommandBufferLevel.
type CommandBufferLevel int32

const CommandBufferLevelPrimary CommandBufferLevel = 0

// AttachmentLoadOp / AttachmentStoreOp mirror the Vk enums of the same
// name (spec §4.3: "a single render pass that loads-op-load and
// store-op-stores the swapchain color attachment").
type AttachmentLoadOp int32

const (
	AttachmentLoadOpLoad  AttachmentLoadOp = 0
	AttachmentLoadOpClear AttachmentLoadOp = 1
)

type AttachmentStoreOp int32

const AttachmentStoreOpStore AttachmentStoreOp = 0

// Filter / SamplerAddressMode mirror the Vk enums used by the composite
// sampler (spec §3 SwapchainData: "nearest-neighbor clamp-to-edge").
type Filter int32

const FilterNearest Filter = 0

type SamplerAddressMode int32

const SamplerAddressModeClampToEdge SamplerAddressMode = 2

// PipelineBindPoint mirrors VkPipelineBindPoint.
type PipelineBindPoint int32

const PipelineBindPointGraphics PipelineBindPoint = 0

// DescriptorType mirrors VkDescriptorType; this module uses exactly one.
type DescriptorType int32

const DescriptorTypeCombinedImageSampler DescriptorType = 1

// ShaderStageFlags mirrors VkShaderStageFlags bits used here.
type ShaderStageFlags uint32

const (
	ShaderStageVertex   ShaderStageFlags = 1 << 0
	ShaderStageFragment ShaderStageFlags = 1 << 4
)

// ImageAspectFlags mirrors VkImageAspectFlags bits used here.
type ImageAspectFlags uint32

const ImageAspectColor ImageAspectFlags = 1 << 0

// SubpassContents mirrors VkSubpassContents; the composite pass never
// records from a secondary command buffer.
type SubpassContents int32

const SubpassContentsInline SubpassContents = 0

// PrimitiveTopology mirrors VkPrimitiveTopology. The composite pipeline
// draws a full-screen triangle with no vertex buffers (spec §4.3).
type PrimitiveTopology int32

const PrimitiveTopologyTriangleList PrimitiveTopology = 3

// PolygonMode / CullMode / FrontFace mirror their Vk counterparts, as used
// by the composite pipeline's rasterization state (spec §4.3).
type PolygonMode int32

const PolygonModeFill PolygonMode = 0

type CullMode uint32

const CullModeNone CullMode = 0

type FrontFace int32

const FrontFaceCounterClockwise FrontFace = 0

// BlendFactor / BlendOp mirror their Vk counterparts, as used by the
// composite pipeline's alpha-blended color attachment (spec §4.3: overlay
// draws atop the game's presented frame with standard alpha blending).
type BlendFactor int32

const (
	BlendFactorOne                BlendFactor = 1
	BlendFactorSrcAlpha           BlendFactor = 6
	BlendFactorOneMinusSrcAlpha   BlendFactor = 7
)

type BlendOp int32

const BlendOpAdd BlendOp = 0

// ColorComponentFlags mirrors VkColorComponentFlags bits.
type ColorComponentFlags uint32

const (
	ColorComponentR ColorComponentFlags = 1 << 0
	ColorComponentG ColorComponentFlags = 1 << 1
	ColorComponentB ColorComponentFlags = 1 << 2
	ColorComponentA ColorComponentFlags = 1 << 3
	ColorComponentRGBA = ColorComponentR | ColorComponentG | ColorComponentB | ColorComponentA
)
