// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package gbm binds the subset of libgbm this module needs to allocate
// dma-buf-backed buffers on a DRM render node and hand them to Vulkan via
// VK_EXT_image_drm_format_modifier (spec §4.2, §4.3). It follows the same
// dlopen-and-resolve technique as internal/vk's loader: no cgo, symbols
// resolved through github.com/go-webgpu/goffi/ffi.
package gbm

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

const libraryName = "libgbm.so.1"

var (
	gbmLib unsafe.Pointer

	fnCreateDevice         unsafe.Pointer
	fnDeviceDestroy        unsafe.Pointer
	fnBoCreateWithModifiers unsafe.Pointer
	fnBoGetFd              unsafe.Pointer
	fnBoGetStride          unsafe.Pointer
	fnBoGetOffset          unsafe.Pointer
	fnBoGetModifier        unsafe.Pointer
	fnBoDestroy            unsafe.Pointer

	cifPtrFromInt  types.CallInterface // void* f(int)
	cifVoidFromPtr types.CallInterface // void f(void*)
	cifIntFromPtr  types.CallInterface // int f(void*)
	cifU64FromPtr  types.CallInterface // uint64 f(void*)
	cifU32FromPtrU32 types.CallInterface // uint32 f(void*, uint32)
	cifPtrFromDevWHFmtModPtrU32 types.CallInterface // void* f(void*, u32, u32, u32, const u64*, u32)

	initOnce sync.Once
	errInit  error
)

// Init loads libgbm.so.1 and prepares its call interfaces. Safe to call
// multiple times; only the first call does work.
func Init() error {
	initOnce.Do(func() {
		errInit = doInit()
	})
	return errInit
}

func doInit() error {
	var err error
	gbmLib, err = ffi.LoadLibrary(libraryName)
	if err != nil {
		return fmt.Errorf("gbm: load %s: %w", libraryName, err)
	}

	symbols := map[string]*unsafe.Pointer{
		"gbm_create_device":             &fnCreateDevice,
		"gbm_device_destroy":            &fnDeviceDestroy,
		"gbm_bo_create_with_modifiers2": &fnBoCreateWithModifiers,
		"gbm_bo_get_fd":                 &fnBoGetFd,
		"gbm_bo_get_stride":             &fnBoGetStride,
		"gbm_bo_get_offset":             &fnBoGetOffset,
		"gbm_bo_get_modifier":           &fnBoGetModifier,
		"gbm_bo_destroy":                &fnBoDestroy,
	}
	for name, slot := range symbols {
		sym, err := ffi.GetSymbol(gbmLib, name)
		if err != nil {
			return fmt.Errorf("gbm: %s not found: %w", name, err)
		}
		*slot = sym
	}

	if err := ffi.PrepareCallInterface(&cifPtrFromInt, types.DefaultCall,
		types.PointerTypeDescriptor, []*types.TypeDescriptor{types.SInt32TypeDescriptor}); err != nil {
		return fmt.Errorf("gbm: prepare ptr-from-int interface: %w", err)
	}
	if err := ffi.PrepareCallInterface(&cifVoidFromPtr, types.DefaultCall,
		types.VoidTypeDescriptor, []*types.TypeDescriptor{types.PointerTypeDescriptor}); err != nil {
		return fmt.Errorf("gbm: prepare void-from-ptr interface: %w", err)
	}
	if err := ffi.PrepareCallInterface(&cifIntFromPtr, types.DefaultCall,
		types.SInt32TypeDescriptor, []*types.TypeDescriptor{types.PointerTypeDescriptor}); err != nil {
		return fmt.Errorf("gbm: prepare int-from-ptr interface: %w", err)
	}
	if err := ffi.PrepareCallInterface(&cifU64FromPtr, types.DefaultCall,
		types.UInt64TypeDescriptor, []*types.TypeDescriptor{types.PointerTypeDescriptor}); err != nil {
		return fmt.Errorf("gbm: prepare u64-from-ptr interface: %w", err)
	}
	if err := ffi.PrepareCallInterface(&cifU32FromPtrU32, types.DefaultCall,
		types.UInt32TypeDescriptor, []*types.TypeDescriptor{types.PointerTypeDescriptor, types.UInt32TypeDescriptor}); err != nil {
		return fmt.Errorf("gbm: prepare u32-from-ptr-u32 interface: %w", err)
	}
	if err := ffi.PrepareCallInterface(&cifPtrFromDevWHFmtModPtrU32, types.DefaultCall,
		types.PointerTypeDescriptor, []*types.TypeDescriptor{
			types.PointerTypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor,
			types.UInt32TypeDescriptor, types.PointerTypeDescriptor, types.UInt32TypeDescriptor,
		}); err != nil {
		return fmt.Errorf("gbm: prepare bo-create interface: %w", err)
	}
	return nil
}

// Close releases the library.
func Close() error {
	if gbmLib == nil {
		return nil
	}
	err := ffi.FreeLibrary(gbmLib)
	gbmLib = nil
	return err
}
