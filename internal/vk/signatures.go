// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// Vulkan has hundreds of entry points but only a handful of distinct
// calling shapes (result-vs-void return, N pointer/handle/u32/u64
// arguments). Rather than hand-declare one CallInterface per shape up
// front, sig lazily prepares and caches one per (return, arg-kind...)
// combination the first time it's requested, and every later command with
// the same shape reuses it — the same "~30 unique signatures cover ~700
// functions" observation, expressed as a cache instead of a fixed list of
// package-level vars.
type argKind byte

const (
	argHandle argKind = 'h' // uint64-sized handle or scalar value
	argPtr    argKind = 'p' // pointer-to-value-storage
)

var (
	sigMu    sync.Mutex
	sigCache = map[string]*types.CallInterface{}
)

func sigKey(returnsResult bool, kinds ...argKind) string {
	var b strings.Builder
	if returnsResult {
		b.WriteByte('r')
	} else {
		b.WriteByte('v')
	}
	for _, k := range kinds {
		b.WriteByte(byte(k))
	}
	return b.String()
}

// sig returns the cached CallInterface for the given shape, preparing it
// on first use. returnsResult selects Int32TypeDescriptor (VkResult) vs.
// no return value (void-returning commands).
func sig(returnsResult bool, kinds ...argKind) (*types.CallInterface, error) {
	key := sigKey(returnsResult, kinds...)

	sigMu.Lock()
	defer sigMu.Unlock()
	if cif, ok := sigCache[key]; ok {
		return cif, nil
	}

	args := make([]*types.TypeDescriptor, len(kinds))
	for i, k := range kinds {
		switch k {
		case argHandle:
			args[i] = types.UInt64TypeDescriptor
		case argPtr:
			args[i] = types.PointerTypeDescriptor
		default:
			return nil, fmt.Errorf("vk: unknown arg kind %q", k)
		}
	}

	var ret *types.TypeDescriptor
	if returnsResult {
		ret = types.SInt32TypeDescriptor
	} else {
		ret = types.VoidTypeDescriptor
	}

	cif := &types.CallInterface{}
	if err := ffi.PrepareCallInterface(cif, types.DefaultCall, ret, args); err != nil {
		return nil, fmt.Errorf("vk: prepare call interface %q: %w", key, err)
	}
	sigCache[key] = cif
	return cif, nil
}

func initSignatures() error {
	// Warm the handful of shapes every command path below needs, so the
	// first real Vulkan call doesn't pay lazy-preparation cost mid-frame.
	shapes := [][]argKind{
		{argHandle, argPtr, argPtr},
		{argHandle, argPtr, argPtr, argPtr},
		{argPtr, argPtr, argPtr},
		{argHandle, argPtr},
		{argHandle, argHandle, argPtr},
		{argHandle, argHandle, argHandle, argPtr},
		{argHandle},
		{argHandle, argHandle},
		{argHandle, argHandle, argHandle},
	}
	for _, kinds := range shapes {
		if _, err := sig(true, kinds...); err != nil {
			return err
		}
		if _, err := sig(false, kinds...); err != nil {
			return err
		}
	}
	return nil
}
