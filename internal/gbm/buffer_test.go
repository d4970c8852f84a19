// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package gbm

import "testing"

// Buffer's FFI-backed methods need a loaded libgbm.so.1 and a live DRM
// render node, so only the pure accessor surface is unit-tested here.

func TestBufferDimensionAccessors(t *testing.T) {
	b := &Buffer{width: 1920, height: 1080, format: 0x34325258}
	if b.Width() != 1920 {
		t.Errorf("Width() = %d, want 1920", b.Width())
	}
	if b.Height() != 1080 {
		t.Errorf("Height() = %d, want 1080", b.Height())
	}
}

func TestUsageBitsDistinct(t *testing.T) {
	all := UsageScanout | UsageRendering | UsageLinear
	if all&UsageScanout == 0 || all&UsageRendering == 0 || all&UsageLinear == 0 {
		t.Fatalf("usage bits overlap or are zero: %#x", all)
	}
}
