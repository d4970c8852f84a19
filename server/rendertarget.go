// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package server

import (
	"fmt"
	"unsafe"

	"github.com/gpuhud/hud/internal/gbm"
	"github.com/gpuhud/hud/internal/vk"
)

// fourccARGB8888 is DRM_FORMAT_ARGB8888 (fourcc_code('A','R','2','4')),
// the FOURCC this module always advertises for its dma-buf destination
// image (spec §4.2: "the FOURCC is DRM_FORMAT_ARGB8888").
const fourccARGB8888 = 0x34325241

// drmFormatModLinear is DRM_FORMAT_MOD_LINEAR, the preferred modifier
// (spec §4.2: "the preferred modifier is linear, falling back to
// implementation-chosen").
const drmFormatModLinear = 0

// colorFormat is the pixel format every render target image uses (spec
// §4.2: "The chosen pixel format is B8G8R8A8_SRGB").
const colorFormat = vk.FormatB8G8R8A8Srgb

// RenderTarget is the per-client set of images a pipeline tick draws into
// and exports from (spec §4.2 "Render target layout"): a source image
// always present, plus whichever of the dma-buf and opaque destination
// images the device's capabilities enable.
type RenderTarget struct {
	cmds   *vk.Commands
	device vk.Device

	Width, Height uint32

	Source     imageObj
	DmabufDest imageObj
	OpaqueDest imageObj

	gbmDevice *gbm.Device
	gbmBuffer *gbm.Buffer

	hasDmabuf bool
	hasOpaque bool
}

// imageObj bundles one VkImage with its backing memory, view, and current
// layout cell (spec §4.2 "Image layout state machine": "Each image carries
// a 'current layout' cell").
type imageObj struct {
	image  vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
	layout vk.ImageLayout
}

// BuildRenderTarget creates the source image and whichever destination
// images the device supports, at the given extent (spec §4.2 "Render
// target layout"). gbmDevice is reused across rebuilds; it is only closed
// when the pipeline itself tears down, not on a per-tick resize.
func BuildRenderTarget(cmds *vk.Commands, device vk.Device, gbmDevice *gbm.Device, width, height uint32, dmabufEnabled bool) (*RenderTarget, error) {
	rt := &RenderTarget{cmds: cmds, device: device, Width: width, Height: height, gbmDevice: gbmDevice}

	source, err := createImage(cmds, device, width, height, colorFormat, vk.ImageTilingOptimal,
		vk.ImageUsageColorAttachment|vk.ImageUsageTransferSrc, nil)
	if err != nil {
		return nil, fmt.Errorf("server: build source image: %w", err)
	}
	rt.Source = source

	if dmabufEnabled && gbmDevice != nil {
		dest, buf, err := rt.buildDmabufDest(width, height)
		if err != nil {
			_ = destroyImage(cmds, device, rt.Source)
			return nil, fmt.Errorf("server: build dma-buf destination: %w", err)
		}
		rt.DmabufDest = dest
		rt.gbmBuffer = buf
		rt.hasDmabuf = true
	}

	opaque, err := createExportableImage(cmds, device, width, height, colorFormat, vk.ImageTilingOptimal,
		vk.ImageUsageTransferSrc|vk.ImageUsageTransferDst|vk.ImageUsageColorAttachment, nil,
		vk.ExternalMemoryHandleTypeOpaqueFd)
	if err != nil {
		_ = destroyImage(cmds, device, rt.Source)
		if rt.hasDmabuf {
			_ = destroyImage(cmds, device, rt.DmabufDest)
			_ = rt.gbmBuffer.Destroy()
		}
		return nil, fmt.Errorf("server: build opaque destination: %w", err)
	}
	rt.OpaqueDest = opaque
	rt.hasOpaque = true

	return rt, nil
}

// buildDmabufDest allocates a GBM buffer-object with the linear modifier
// (falling back to an implementation-chosen one) and a Vulkan image whose
// memory is imported from its FD (spec §4.2 dma-buf destination image).
func (rt *RenderTarget) buildDmabufDest(width, height uint32) (imageObj, *gbm.Buffer, error) {
	buf, err := rt.gbmDevice.CreateBufferWithModifiers(width, height, fourccARGB8888,
		[]uint64{drmFormatModLinear}, gbm.UsageRendering|gbm.UsageLinear)
	if err != nil {
		return imageObj{}, nil, err
	}

	fd, err := buf.FD()
	if err != nil {
		_ = buf.Destroy()
		return imageObj{}, nil, err
	}
	modifier, err := buf.Modifier()
	if err != nil {
		_ = buf.Destroy()
		return imageObj{}, nil, err
	}
	stride, err := buf.Stride()
	if err != nil {
		_ = buf.Destroy()
		return imageObj{}, nil, err
	}
	offset, err := buf.Offset()
	if err != nil {
		_ = buf.Destroy()
		return imageObj{}, nil, err
	}

	planeLayout := vk.SubresourceLayout{
		Offset:   uint64(offset),
		RowPitch: uint64(stride),
	}
	explicitInfo := vk.ImageDrmFormatModifierExplicitCreateInfoEXT{
		SType:             vk.StructureTypeImageDrmFormatModifierExplicitCreateInfoEXT,
		DrmFormatModifier: modifier,
		PlaneLayoutCount:  1,
		PPlaneLayouts:     &planeLayout,
	}
	img, err := createImage(rt.cmds, rt.device, width, height, colorFormat, vk.ImageTilingDrmFormatModifierEXT,
		vk.ImageUsageTransferDst|vk.ImageUsageSampled, unsafe.Pointer(&explicitInfo))
	if err != nil {
		_ = buf.Destroy()
		return imageObj{}, nil, err
	}

	if err := importMemoryFd(rt.cmds, rt.device, img.image, fd, vk.ExternalMemoryHandleTypeDmaBufEXT); err != nil {
		_ = destroyImage(rt.cmds, rt.device, img)
		_ = buf.Destroy()
		return imageObj{}, nil, err
	}

	return img, buf, nil
}

// HasDmabuf reports whether this target built a dma-buf destination image
// (false when the device lacks dma-buf prerequisites, spec §4.7).
func (rt *RenderTarget) HasDmabuf() bool { return rt.hasDmabuf }

// DmabufDescriptor returns the fields a DmabufInfo message needs to
// describe this target's dma-buf destination image, and a fresh FD the
// caller owns closing (spec §4.5).
func (rt *RenderTarget) DmabufDescriptor() (fd int, modifier uint64, stride, offset uint32, planeSize uint64, err error) {
	if !rt.hasDmabuf {
		return -1, 0, 0, 0, 0, fmt.Errorf("server: render target has no dma-buf destination")
	}
	fd, err = rt.gbmBuffer.FD()
	if err != nil {
		return -1, 0, 0, 0, 0, err
	}
	modifier, err = rt.gbmBuffer.Modifier()
	if err != nil {
		return -1, 0, 0, 0, 0, err
	}
	stride, err = rt.gbmBuffer.Stride()
	if err != nil {
		return -1, 0, 0, 0, 0, err
	}
	offset, err = rt.gbmBuffer.Offset()
	if err != nil {
		return -1, 0, 0, 0, 0, err
	}
	return fd, modifier, stride, offset, uint64(stride) * uint64(rt.Height), nil
}

// OpaqueFD exports the opaque sibling image's backing memory as a fresh
// FD the caller owns closing (spec §4.2 opaque-FD fallback).
func (rt *RenderTarget) OpaqueFD() (int, error) {
	if !rt.hasOpaque {
		return -1, fmt.Errorf("server: render target has no opaque destination")
	}
	info := vk.MemoryGetFdInfoKHR{
		SType:      vk.StructureTypeMemoryGetFdInfoKHR,
		Memory:     rt.OpaqueDest.memory,
		HandleType: vk.ExternalMemoryHandleTypeOpaqueFd,
	}
	var fd int32
	result, err := rt.cmds.GetMemoryFdKHR(rt.device, &info, &fd)
	if err != nil {
		return -1, fmt.Errorf("vkGetMemoryFdKHR: %w", err)
	}
	if result.IsError() {
		return -1, fmt.Errorf("vkGetMemoryFdKHR: %d", result)
	}
	return int(fd), nil
}

// Destroy releases every Vulkan and GBM object this target owns.
func (rt *RenderTarget) Destroy() error {
	var firstErr error
	if err := destroyImage(rt.cmds, rt.device, rt.Source); err != nil && firstErr == nil {
		firstErr = err
	}
	if rt.hasOpaque {
		if err := destroyImage(rt.cmds, rt.device, rt.OpaqueDest); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if rt.hasDmabuf {
		if err := destroyImage(rt.cmds, rt.device, rt.DmabufDest); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := rt.gbmBuffer.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func createImage(cmds *vk.Commands, device vk.Device, width, height uint32, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, pNext unsafe.Pointer) (imageObj, error) {
	return createExportableImage(cmds, device, width, height, format, tiling, usage, pNext, 0)
}

// createExportableImage is createImage plus an optional exported-memory
// chain: when exportHandleTypes is non-zero, both the image (via
// ExternalMemoryImageCreateInfo) and its backing allocation (via
// ExportMemoryAllocateInfo) advertise that handle type, matching the
// opaque sibling image's export requirement (spec §4.2 "memory exported
// with an opaque handle type").
func createExportableImage(cmds *vk.Commands, device vk.Device, width, height uint32, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, pNext unsafe.Pointer, exportHandleTypes vk.ExternalMemoryHandleTypeFlagBits) (imageObj, error) {
	if exportHandleTypes != 0 {
		externalInfo := vk.ExternalMemoryImageCreateInfo{
			SType:       vk.StructureTypeExternalMemoryImageCreateInfo,
			PNext:       pNext,
			HandleTypes: exportHandleTypes,
		}
		pNext = unsafe.Pointer(&externalInfo)
	}

	info := vk.ImageCreateInfo{
		SType:       vk.StructureTypeImageCreateInfo,
		PNext:       pNext,
		ImageType:   1, // VK_IMAGE_TYPE_2D
		Format:      format,
		Extent:      vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     1,
		Tiling:      tiling,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var image vk.Image
	result, err := cmds.CreateImage(device, &info, &image)
	if err != nil {
		return imageObj{}, fmt.Errorf("vkCreateImage: %w", err)
	}
	if result.IsError() {
		return imageObj{}, fmt.Errorf("vkCreateImage: %d", result)
	}

	var reqs vk.MemoryRequirements
	if err := cmds.GetImageMemoryRequirements(device, image, &reqs); err != nil {
		_ = cmds.DestroyImage(device, image)
		return imageObj{}, fmt.Errorf("vkGetImageMemoryRequirements: %w", err)
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: firstMemoryTypeBit(reqs.MemoryTypeBits),
	}
	if exportHandleTypes != 0 {
		exportAlloc := vk.ExportMemoryAllocateInfo{
			SType:       vk.StructureTypeExportMemoryAllocateInfo,
			HandleTypes: exportHandleTypes,
		}
		allocInfo.PNext = unsafe.Pointer(&exportAlloc)
	}
	var memory vk.DeviceMemory
	result, err = cmds.AllocateMemory(device, &allocInfo, &memory)
	if err != nil {
		_ = cmds.DestroyImage(device, image)
		return imageObj{}, fmt.Errorf("vkAllocateMemory: %w", err)
	}
	if result.IsError() {
		_ = cmds.DestroyImage(device, image)
		return imageObj{}, fmt.Errorf("vkAllocateMemory: %d", result)
	}

	result, err = cmds.BindImageMemory(device, image, memory, 0)
	if err != nil || result.IsError() {
		_ = cmds.FreeMemory(device, memory)
		_ = cmds.DestroyImage(device, image)
		return imageObj{}, fmt.Errorf("vkBindImageMemory: result=%v err=%w", result, err)
	}

	viewInfo := vk.ImageViewCreateInfo{
		SType:      vk.StructureTypeImageViewCreateInfo,
		Image:      image,
		ViewType:   1, // VK_IMAGE_VIEW_TYPE_2D
		Format:     format,
		Components: vk.ComponentMapping{},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: 1, // VK_IMAGE_ASPECT_COLOR_BIT
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	result, err = cmds.CreateImageView(device, &viewInfo, &view)
	if err != nil || result.IsError() {
		_ = cmds.FreeMemory(device, memory)
		_ = cmds.DestroyImage(device, image)
		return imageObj{}, fmt.Errorf("vkCreateImageView: result=%v err=%w", result, err)
	}

	return imageObj{image: image, memory: memory, view: view, layout: vk.ImageLayoutUndefined}, nil
}

func destroyImage(cmds *vk.Commands, device vk.Device, obj imageObj) error {
	var firstErr error
	if obj.view != 0 {
		if err := cmds.DestroyImageView(device, obj.view); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if obj.memory != 0 {
		if err := cmds.FreeMemory(device, obj.memory); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if obj.image != 0 {
		if err := cmds.DestroyImage(device, obj.image); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func importMemoryFd(cmds *vk.Commands, device vk.Device, image vk.Image, fd int, handleType vk.ExternalMemoryHandleTypeFlagBits) error {
	var reqs vk.MemoryRequirements
	if err := cmds.GetImageMemoryRequirements(device, image, &reqs); err != nil {
		return fmt.Errorf("vkGetImageMemoryRequirements: %w", err)
	}

	fdProps := vk.MemoryFdPropertiesKHR{SType: vk.StructureTypeMemoryFdPropertiesKHR}
	result, err := cmds.GetMemoryFdPropertiesKHR(device, handleType, int32(fd), &fdProps)
	if err != nil {
		return fmt.Errorf("vkGetMemoryFdPropertiesKHR: %w", err)
	}
	if result.IsError() {
		return fmt.Errorf("vkGetMemoryFdPropertiesKHR: %d", result)
	}

	importInfo := vk.ImportMemoryFdInfoKHR{
		SType:      vk.StructureTypeImportMemoryFdInfoKHR,
		HandleType: handleType,
		Fd:         int32(fd),
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		PNext:           unsafe.Pointer(&importInfo),
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: firstMemoryTypeBit(reqs.MemoryTypeBits & fdProps.MemoryTypeBits),
	}
	var memory vk.DeviceMemory
	result, err = cmds.AllocateMemory(device, &allocInfo, &memory)
	if err != nil {
		return fmt.Errorf("vkAllocateMemory (import): %w", err)
	}
	if result.IsError() {
		return fmt.Errorf("vkAllocateMemory (import): %d", result)
	}

	result, err = cmds.BindImageMemory(device, image, memory, 0)
	if err != nil || result.IsError() {
		_ = cmds.FreeMemory(device, memory)
		return fmt.Errorf("vkBindImageMemory (import): result=%v err=%w", result, err)
	}
	return nil
}

// firstMemoryTypeBit returns the index of the lowest set bit in a
// VkMemoryRequirements.memoryTypeBits mask. A full implementation would
// cross-reference VkPhysicalDeviceMemoryProperties for a DEVICE_LOCAL
// type; this module's render target has no host-access requirement so the
// first compatible type is always acceptable.
func firstMemoryTypeBit(bits uint32) uint32 {
	for i := uint32(0); i < 32; i++ {
		if bits&(1<<i) != 0 {
			return i
		}
	}
	return 0
}
