// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package client

import (
	"fmt"
	"unsafe"

	"github.com/gpuhud/hud/internal/vk"
	"github.com/gpuhud/hud/wire"
)

// importFormat is the pixel format every imported source image uses,
// matching the fixed format the server always advertises for its
// destination images (spec §4.2 "The chosen pixel format is
// B8G8R8A8_SRGB").
const importFormat = vk.FormatB8G8R8A8Srgb

// sourceObj bundles one VkImage with its backing memory, view, and tracked
// layout cell (spec §4.2 "Image layout state machine"), mirrored from the
// server's own render-target bookkeeping.
type sourceObj struct {
	image  vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
	layout vk.ImageLayout
}

// DmabufImport holds the per-swapchain imported frame and the separate,
// always-device-local cache image the composite pipeline actually samples
// (spec §4.3 "sample_dmabuf": a dedicated cache image is re-copied into on
// every frame the server signals, rather than sampling the imported image
// directly, since the imported image's memory may not be host/shader
// friendly for every producer).
type DmabufImport struct {
	dispatch Dispatch
	device   vk.Device

	Width, Height uint32

	source sourceObj
	cache  sourceObj

	// usingGBM records which import path produced source, so Destroy
	// tears down identically regardless of path (spec §4.7 fallback: "the
	// client imports via the opaque handle type and composites
	// identically").
	usingGBM bool
}

// Import builds the source image described by info (dma-buf path when
// info.HasGBM, opaque-FD fallback otherwise) plus a fresh cache image,
// closing whichever fd it consumes on both success and failure (ownership
// transfers to this call, spec §4.5 "GbmFD and OpaqueFD ... must be
// re-attached by the caller").
func Import(dispatch Dispatch, device vk.Device, info wire.DmabufInfo) (*DmabufImport, error) {
	di := &DmabufImport{dispatch: dispatch, device: device, Width: info.Width, Height: info.Height, usingGBM: info.HasGBM}

	var err error
	if info.HasGBM {
		di.source, err = importDmabuf(dispatch, device, info)
	} else {
		di.source, err = importOpaque(dispatch, device, info)
	}
	if err != nil {
		return nil, fmt.Errorf("client: import source image: %w", err)
	}

	di.cache, err = buildCacheImage(dispatch, device, info.Width, info.Height)
	if err != nil {
		_ = destroySource(dispatch, device, di.source)
		return nil, fmt.Errorf("client: build cache image: %w", err)
	}

	return di, nil
}

// SourceImage returns the imported image and its tracked layout cell, for
// present.go's copy-into-cache step.
func (di *DmabufImport) SourceImage() (vk.Image, *vk.ImageLayout) { return di.source.image, &di.source.layout }

// CacheImage returns the cache image, its view, and its tracked layout
// cell; the composite pipeline samples CacheView, never the source image
// directly.
func (di *DmabufImport) CacheImage() (vk.Image, vk.ImageView, *vk.ImageLayout) {
	return di.cache.image, di.cache.view, &di.cache.layout
}

// Destroy releases both images in reverse creation order.
func (di *DmabufImport) Destroy() error {
	var firstErr error
	if err := destroySource(di.dispatch, di.device, di.cache); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := destroySource(di.dispatch, di.device, di.source); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// importDmabuf builds the source image via the explicit-DRM-format-modifier
// path (spec §4.2, §4.7): the image is created with
// ImageTilingDrmFormatModifierEXT plus an explicit single-plane layout, then
// its memory is imported from info.GbmFD as dma-buf external memory.
func importDmabuf(dispatch Dispatch, device vk.Device, info wire.DmabufInfo) (sourceObj, error) {
	planeLayout := vk.SubresourceLayout{
		Offset:   uint64(info.DmabufOffset),
		RowPitch: uint64(info.Stride),
	}
	explicitInfo := vk.ImageDrmFormatModifierExplicitCreateInfoEXT{
		SType:             vk.StructureTypeImageDrmFormatModifierExplicitCreateInfoEXT,
		DrmFormatModifier: info.Modifier,
		PlaneLayoutCount:  1,
		PPlaneLayouts:     &planeLayout,
	}

	img, err := createImportedImage(dispatch, device, info.Width, info.Height, vk.ImageTilingDrmFormatModifierEXT,
		vk.ImageUsageSampled, unsafe.Pointer(&explicitInfo), vk.ExternalMemoryHandleTypeDmaBufEXT)
	if err != nil {
		return sourceObj{}, err
	}

	if err := importMemoryFd(dispatch, device, img.image, info.GbmFD, vk.ExternalMemoryHandleTypeDmaBufEXT); err != nil {
		_ = destroySource(dispatch, device, img)
		return sourceObj{}, err
	}
	return img, nil
}

// importOpaque builds the source image via the opaque-FD fallback path
// (spec §4.7): ordinary optimal tiling, with memory imported from
// info.OpaqueFD as opaque external memory.
func importOpaque(dispatch Dispatch, device vk.Device, info wire.DmabufInfo) (sourceObj, error) {
	img, err := createImportedImage(dispatch, device, info.Width, info.Height, vk.ImageTilingOptimal,
		vk.ImageUsageSampled|vk.ImageUsageTransferDst, nil, vk.ExternalMemoryHandleTypeOpaqueFd)
	if err != nil {
		return sourceObj{}, err
	}

	if err := importMemoryFd(dispatch, device, img.image, info.OpaqueFD, vk.ExternalMemoryHandleTypeOpaqueFd); err != nil {
		_ = destroySource(dispatch, device, img)
		return sourceObj{}, err
	}
	return img, nil
}

// buildCacheImage creates the separate, non-imported image the composite
// pipeline samples: ordinary device-local memory, optimal tiling, usable
// both as a copy destination and a sampled source.
func buildCacheImage(dispatch Dispatch, device vk.Device, width, height uint32) (sourceObj, error) {
	info := vk.ImageCreateInfo{
		SType:       vk.StructureTypeImageCreateInfo,
		ImageType:   1, // VK_IMAGE_TYPE_2D
		Format:      importFormat,
		Extent:      vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     1,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageTransferDst | vk.ImageUsageSampled,
		SharingMode: vk.SharingModeExclusive,
	}

	var image vk.Image
	result, err := dispatch.CreateImage(device, &info, &image)
	if err != nil || result.IsError() {
		return sourceObj{}, fmt.Errorf("vkCreateImage (cache): result=%v err=%w", result, err)
	}

	var reqs vk.MemoryRequirements
	if err := dispatch.GetImageMemoryRequirements(device, image, &reqs); err != nil {
		_ = dispatch.DestroyImage(device, image)
		return sourceObj{}, fmt.Errorf("vkGetImageMemoryRequirements (cache): %w", err)
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: firstMemoryTypeBit(reqs.MemoryTypeBits),
	}
	var memory vk.DeviceMemory
	result, err = dispatch.AllocateMemory(device, &allocInfo, &memory)
	if err != nil || result.IsError() {
		_ = dispatch.DestroyImage(device, image)
		return sourceObj{}, fmt.Errorf("vkAllocateMemory (cache): result=%v err=%w", result, err)
	}

	result, err = dispatch.BindImageMemory(device, image, memory, 0)
	if err != nil || result.IsError() {
		_ = dispatch.FreeMemory(device, memory)
		_ = dispatch.DestroyImage(device, image)
		return sourceObj{}, fmt.Errorf("vkBindImageMemory (cache): result=%v err=%w", result, err)
	}

	view, err := createImageView(dispatch, device, image, importFormat)
	if err != nil {
		_ = dispatch.FreeMemory(device, memory)
		_ = dispatch.DestroyImage(device, image)
		return sourceObj{}, err
	}

	return sourceObj{image: image, memory: memory, view: view, layout: vk.ImageLayoutUndefined}, nil
}

// createImportedImage creates the image half of an external-memory import:
// the image itself, chained with ExternalMemoryImageCreateInfo so the
// driver knows memory will be imported rather than allocated fresh. The
// caller still must import the memory and bind it.
func createImportedImage(dispatch Dispatch, device vk.Device, width, height uint32, tiling vk.ImageTiling, usage vk.ImageUsageFlags, tilingPNext unsafe.Pointer, handleType vk.ExternalMemoryHandleTypeFlagBits) (sourceObj, error) {
	externalInfo := vk.ExternalMemoryImageCreateInfo{
		SType:       vk.StructureTypeExternalMemoryImageCreateInfo,
		PNext:       tilingPNext,
		HandleTypes: handleType,
	}

	info := vk.ImageCreateInfo{
		SType:       vk.StructureTypeImageCreateInfo,
		PNext:       unsafe.Pointer(&externalInfo),
		ImageType:   1, // VK_IMAGE_TYPE_2D
		Format:      importFormat,
		Extent:      vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     1,
		Tiling:      tiling,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var image vk.Image
	result, err := dispatch.CreateImage(device, &info, &image)
	if err != nil || result.IsError() {
		return sourceObj{}, fmt.Errorf("vkCreateImage (import): result=%v err=%w", result, err)
	}

	view, err := createImageView(dispatch, device, image, importFormat)
	if err != nil {
		_ = dispatch.DestroyImage(device, image)
		return sourceObj{}, err
	}

	return sourceObj{image: image, view: view, layout: vk.ImageLayoutUndefined}, nil
}

// importMemoryFd imports fd as image's backing memory, mirroring the
// server's own dma-buf import helper (server/rendertarget.go).
func importMemoryFd(dispatch Dispatch, device vk.Device, image vk.Image, fd int, handleType vk.ExternalMemoryHandleTypeFlagBits) error {
	var reqs vk.MemoryRequirements
	if err := dispatch.GetImageMemoryRequirements(device, image, &reqs); err != nil {
		return fmt.Errorf("vkGetImageMemoryRequirements: %w", err)
	}

	fdProps := vk.MemoryFdPropertiesKHR{SType: vk.StructureTypeMemoryFdPropertiesKHR}
	result, err := dispatch.GetMemoryFdPropertiesKHR(device, handleType, int32(fd), &fdProps)
	if err != nil || result.IsError() {
		return fmt.Errorf("vkGetMemoryFdPropertiesKHR: result=%v err=%w", result, err)
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
	result, err = dispatch.AllocateMemory(device, &allocInfo, &memory)
	if err != nil || result.IsError() {
		return fmt.Errorf("vkAllocateMemory (import): result=%v err=%w", result, err)
	}

	result, err = dispatch.BindImageMemory(device, image, memory, 0)
	if err != nil || result.IsError() {
		_ = dispatch.FreeMemory(device, memory)
		return fmt.Errorf("vkBindImageMemory (import): result=%v err=%w", result, err)
	}
	return nil
}

func createImageView(dispatch Dispatch, device vk.Device, image vk.Image, format vk.Format) (vk.ImageView, error) {
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: 1, // VK_IMAGE_VIEW_TYPE_2D
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: uint32(vk.ImageAspectColor),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	result, err := dispatch.CreateImageView(device, &info, &view)
	if err != nil || result.IsError() {
		return 0, fmt.Errorf("vkCreateImageView: result=%v err=%w", result, err)
	}
	return view, nil
}

func destroySource(dispatch Dispatch, device vk.Device, obj sourceObj) error {
	var firstErr error
	if obj.view != 0 {
		if err := dispatch.DestroyImageView(device, obj.view); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if obj.memory != 0 {
		if err := dispatch.FreeMemory(device, obj.memory); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if obj.image != 0 {
		if err := dispatch.DestroyImage(device, obj.image); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// firstMemoryTypeBit returns the index of the lowest set bit in a memory
// type mask. This module's imported and cache images have no host-access
// requirement, so the first compatible type is always acceptable.
func firstMemoryTypeBit(bits uint32) uint32 {
	for i := uint32(0); i < 32; i++ {
		if bits&(1<<i) != 0 {
			return i
		}
	}
	return 0
}
