// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import "unsafe"

// ptr converts a typed pointer to unsafe.Pointer for PNext chains, saving
// every call site an explicit unsafe.Pointer(...) conversion.
func ptr[T any](v *T) unsafe.Pointer { return unsafe.Pointer(v) }
