// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package gbm

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
)

// Device wraps a gbm_device created over an already-open DRM render node
// FD. The caller owns the FD's lifetime; Device never closes it (the
// server keeps the render node open for the process's lifetime, spec §4.2
// device selection).
type Device struct {
	handle unsafe.Pointer
	fd     int
}

// NewDevice creates a gbm_device over fd.
func NewDevice(fd int) (*Device, error) {
	fdVal := int32(fd)
	var result unsafe.Pointer
	args := []unsafe.Pointer{unsafe.Pointer(&fdVal)}
	if err := ffi.CallFunction(&cifPtrFromInt, fnCreateDevice, unsafe.Pointer(&result), args); err != nil {
		return nil, fmt.Errorf("gbm: gbm_create_device: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("gbm: gbm_create_device returned NULL for fd %d", fd)
	}
	return &Device{handle: result, fd: fd}, nil
}

// FD returns the DRM render node FD this device was created over.
func (d *Device) FD() int { return d.fd }

// Destroy releases the gbm_device. It does not close the underlying FD.
func (d *Device) Destroy() error {
	if d.handle == nil {
		return nil
	}
	args := []unsafe.Pointer{unsafe.Pointer(&d.handle)}
	if err := ffi.CallFunction(&cifVoidFromPtr, fnDeviceDestroy, nil, args); err != nil {
		return fmt.Errorf("gbm: gbm_device_destroy: %w", err)
	}
	d.handle = nil
	return nil
}
