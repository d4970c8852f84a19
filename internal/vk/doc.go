// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vk is a pure-Go, cgo-free Vulkan binding: a curated subset of
// entry points, handles, and structures sufficient for an off-screen,
// dma-buf-sharing render pipeline and a present-path composite pass. It is
// not a full generated binding; it covers exactly the surface the server
// and client packages use — instance/device/queue setup, image/memory
// creation including DRM-format-modifier and external-FD import/export,
// fences and semaphores with sync-file export, command recording, render
// passes and a single graphics pipeline shape, and descriptor/sampler
// setup for one combined-image-sampler binding.
//
// Calls are dispatched through github.com/go-webgpu/goffi: the library is
// dlopen'd, entry points resolved through vkGetInstanceProcAddr /
// vkGetDeviceProcAddr, and each call goes through a prepared CallInterface.
//
// goffi's calling convention: args[] holds pointers to WHERE each argument
// value is stored, never the value itself — even for pointer-typed Vulkan
// arguments, which need a pointer to the pointer.
package vk
