// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package server

import "testing"

func TestNewClientResourcesDefaults(t *testing.T) {
	r := NewClientResources(2, true)
	if !r.ConsumeFirstBuild() {
		t.Fatal("first build should be pending on a fresh ClientResources")
	}
	if r.ConsumeFirstBuild() {
		t.Fatal("ConsumeFirstBuild should clear the flag")
	}
	if !r.DmabufEnabled() {
		t.Fatal("DmabufEnabled should reflect the constructor argument")
	}
}

func TestMarkAndClearReinit(t *testing.T) {
	r := NewClientResources(0, false)
	if r.NeedsReinit() {
		t.Fatal("NeedsReinit should be false before any MarkReinit")
	}
	r.MarkReinit()
	if !r.NeedsReinit() {
		t.Fatal("NeedsReinit should be true after MarkReinit")
	}
	if !r.ClearReinit() {
		t.Fatal("ClearReinit should report the pending request")
	}
	if r.NeedsReinit() {
		t.Fatal("NeedsReinit should be false after ClearReinit consumes it")
	}
	if r.ClearReinit() {
		t.Fatal("ClearReinit should report false once already consumed")
	}
}

func TestMarkRebuiltRearmsFirstBuild(t *testing.T) {
	r := NewClientResources(0, false)
	r.ConsumeFirstBuild()
	if r.ConsumeFirstBuild() {
		t.Fatal("first build flag should already be consumed")
	}
	r.MarkRebuilt()
	if !r.ConsumeFirstBuild() {
		t.Fatal("MarkRebuilt should re-arm the first-build flag")
	}
}

func TestTargetRoundTrip(t *testing.T) {
	r := NewClientResources(0, false)
	if r.Target() != nil {
		t.Fatal("Target should be nil before any SetTarget")
	}
	rt := &RenderTarget{Width: 640, Height: 480}
	r.SetTarget(rt)
	if got := r.Target(); got != rt {
		t.Fatalf("Target() = %v, want %v", got, rt)
	}
}

func TestSmoothersCoerceOutliers(t *testing.T) {
	r := NewClientResources(0, false)
	first := r.SmoothFPS(60)
	if first != 60 {
		t.Fatalf("first SmoothFPS push should pass through unchanged, got %v", first)
	}
	spiked := r.SmoothFPS(6000)
	if spiked > 60*5.0 {
		t.Fatalf("SmoothFPS should clamp a wild spike within its max ratio, got %v", spiked)
	}
}
