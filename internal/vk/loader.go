// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

var (
	vulkanLib              unsafe.Pointer
	vkGetInstanceProcAddr   unsafe.Pointer
	vkGetDeviceProcAddr     unsafe.Pointer
	cifGetInstanceProcAddr  types.CallInterface
	cifGetDeviceProcAddr    types.CallInterface

	initOnce sync.Once
	errInit  error
)

// libraryName is always libvulkan.so.1: this module targets a Linux
// render node shared between a server and its co-tenant clients, never a
// cross-platform desktop target.
const libraryName = "libvulkan.so.1"

// Init loads the Vulkan library and prepares the two bootstrap call
// interfaces. Safe to call multiple times; only the first call does work.
func Init() error {
	initOnce.Do(func() {
		errInit = doInit()
	})
	return errInit
}

func doInit() error {
	var err error
	vulkanLib, err = ffi.LoadLibrary(libraryName)
	if err != nil {
		return fmt.Errorf("vk: load %s: %w", libraryName, err)
	}

	vkGetInstanceProcAddr, err = ffi.GetSymbol(vulkanLib, "vkGetInstanceProcAddr")
	if err != nil {
		return fmt.Errorf("vk: vkGetInstanceProcAddr not found: %w", err)
	}

	// PFN_vkVoidFunction vkGetInstanceProcAddr(VkInstance instance, const char* pName)
	if err := ffi.PrepareCallInterface(&cifGetInstanceProcAddr, types.DefaultCall,
		types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor,
			types.PointerTypeDescriptor,
		}); err != nil {
		return fmt.Errorf("vk: prepare GetInstanceProcAddr interface: %w", err)
	}

	// PFN_vkVoidFunction vkGetDeviceProcAddr(VkDevice device, const char* pName)
	if err := ffi.PrepareCallInterface(&cifGetDeviceProcAddr, types.DefaultCall,
		types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor,
			types.PointerTypeDescriptor,
		}); err != nil {
		return fmt.Errorf("vk: prepare GetDeviceProcAddr interface: %w", err)
	}

	if err := initSignatures(); err != nil {
		return fmt.Errorf("vk: init signatures: %w", err)
	}
	return nil
}

// GetInstanceProcAddr resolves a Vulkan entry point. Pass instance=0 for
// global functions (vkCreateInstance, vkEnumerateInstanceVersion).
func GetInstanceProcAddr(instance Instance, name string) unsafe.Pointer {
	if vkGetInstanceProcAddr == nil {
		return nil
	}
	cname := make([]byte, len(name)+1)
	copy(cname, name)

	var result unsafe.Pointer
	namePtr := unsafe.Pointer(&cname[0])
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&instance),
		unsafe.Pointer(&namePtr), // pointer TO the pointer, per goffi's convention
	}
	_ = ffi.CallFunction(&cifGetInstanceProcAddr, vkGetInstanceProcAddr, unsafe.Pointer(&result), args[:])
	return result
}

// SetDeviceProcAddr resolves vkGetDeviceProcAddr via a live instance. Some
// drivers refuse to resolve it with a null instance.
func SetDeviceProcAddr(instance Instance) {
	if vkGetDeviceProcAddr == nil {
		vkGetDeviceProcAddr = GetInstanceProcAddr(instance, "vkGetDeviceProcAddr")
	}
}

// GetDeviceProcAddr resolves a device-level Vulkan entry point.
func GetDeviceProcAddr(device Device, name string) unsafe.Pointer {
	if vkGetDeviceProcAddr == nil {
		vkGetDeviceProcAddr = GetInstanceProcAddr(0, "vkGetDeviceProcAddr")
		if vkGetDeviceProcAddr == nil {
			return nil
		}
	}
	cname := make([]byte, len(name)+1)
	copy(cname, name)

	var result unsafe.Pointer
	namePtr := unsafe.Pointer(&cname[0])
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&device),
		unsafe.Pointer(&namePtr),
	}
	_ = ffi.CallFunction(&cifGetDeviceProcAddr, vkGetDeviceProcAddr, unsafe.Pointer(&result), args[:])
	return result
}

// Close releases the Vulkan library.
func Close() error {
	if vulkanLib == nil {
		return nil
	}
	err := ffi.FreeLibrary(vulkanLib)
	vulkanLib = nil
	vkGetInstanceProcAddr = nil
	vkGetDeviceProcAddr = nil
	return err
}
