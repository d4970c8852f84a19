// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package gbm

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
)

// Usage mirrors the gbm_bo_flags bits this module sets.
type Usage uint32

const (
	UsageScanout Usage = 1 << 0
	UsageRendering Usage = 1 << 2
	UsageLinear  Usage = 1 << 4
)

// Buffer wraps a gbm_bo allocated with an explicit modifier list, the
// shape the server needs so the dma-buf it hands across the fabric carries
// a modifier Vulkan can re-import explicitly (spec §4.2 DmabufInfo,
// §4.3 re-import).
type Buffer struct {
	handle unsafe.Pointer
	width, height uint32
	format uint32
}

// CreateBufferWithModifiers allocates a gbm_bo of the given format/size,
// restricted to one of the supplied DRM format modifiers.
func (d *Device) CreateBufferWithModifiers(width, height, format uint32, modifiers []uint64, usage Usage) (*Buffer, error) {
	var pMods *uint64
	if len(modifiers) > 0 {
		pMods = &modifiers[0]
	}
	count := uint32(len(modifiers))
	var result unsafe.Pointer
	args := []unsafe.Pointer{
		unsafe.Pointer(&d.handle), unsafe.Pointer(&width), unsafe.Pointer(&height),
		unsafe.Pointer(&format), unsafe.Pointer(&pMods), unsafe.Pointer(&count),
	}
	if err := ffi.CallFunction(&cifPtrFromDevWHFmtModPtrU32, fnBoCreateWithModifiers, unsafe.Pointer(&result), args); err != nil {
		return nil, fmt.Errorf("gbm: gbm_bo_create_with_modifiers2: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("gbm: gbm_bo_create_with_modifiers2 returned NULL (w=%d h=%d fmt=%d)", width, height, format)
	}
	return &Buffer{handle: result, width: width, height: height, format: format}, nil
}

// FD exports the buffer's single plane as a dma-buf FD.
func (b *Buffer) FD() (int, error) {
	var fd int32
	args := []unsafe.Pointer{unsafe.Pointer(&b.handle)}
	if err := ffi.CallFunction(&cifIntFromPtr, fnBoGetFd, unsafe.Pointer(&fd), args); err != nil {
		return -1, fmt.Errorf("gbm: gbm_bo_get_fd: %w", err)
	}
	return int(fd), nil
}

// Stride returns the buffer's single-plane row stride in bytes.
func (b *Buffer) Stride() (uint32, error) {
	var stride uint32
	args := []unsafe.Pointer{unsafe.Pointer(&b.handle)}
	if err := ffi.CallFunction(&cifIntFromPtr, fnBoGetStride, unsafe.Pointer(&stride), args); err != nil {
		return 0, fmt.Errorf("gbm: gbm_bo_get_stride: %w", err)
	}
	return stride, nil
}

// Offset returns the buffer's single-plane byte offset (always 0 for a
// single-plane allocation, kept for symmetry with DmabufInfo's field).
func (b *Buffer) Offset() (uint32, error) {
	plane := uint32(0)
	var offset uint32
	args := []unsafe.Pointer{unsafe.Pointer(&b.handle), unsafe.Pointer(&plane)}
	if err := ffi.CallFunction(&cifU32FromPtrU32, fnBoGetOffset, unsafe.Pointer(&offset), args); err != nil {
		return 0, fmt.Errorf("gbm: gbm_bo_get_offset: %w", err)
	}
	return offset, nil
}

// Modifier returns the DRM format modifier the allocator chose among the
// candidates passed to CreateBufferWithModifiers.
func (b *Buffer) Modifier() (uint64, error) {
	var mod uint64
	args := []unsafe.Pointer{unsafe.Pointer(&b.handle)}
	if err := ffi.CallFunction(&cifU64FromPtr, fnBoGetModifier, unsafe.Pointer(&mod), args); err != nil {
		return 0, fmt.Errorf("gbm: gbm_bo_get_modifier: %w", err)
	}
	return mod, nil
}

// Width and Height return the buffer's dimensions as allocated.
func (b *Buffer) Width() uint32  { return b.width }
func (b *Buffer) Height() uint32 { return b.height }

// Destroy releases the gbm_bo. Does not close any FD previously obtained
// from FD(); the caller owns that lifetime once exported.
func (b *Buffer) Destroy() error {
	if b.handle == nil {
		return nil
	}
	args := []unsafe.Pointer{unsafe.Pointer(&b.handle)}
	if err := ffi.CallFunction(&cifVoidFromPtr, fnBoDestroy, nil, args); err != nil {
		return fmt.Errorf("gbm: gbm_bo_destroy: %w", err)
	}
	b.handle = nil
	return nil
}
