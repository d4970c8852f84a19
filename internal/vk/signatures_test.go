// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import "testing"

// These tests cover sigKey's string encoding only. sig itself calls into
// goffi's FFI preparation, which has no meaningful behavior without a
// loaded libvulkan.so.1, so it is exercised by the package's intended
// caller (Init) rather than a unit test here.

func TestSigKeyDistinguishesReturnKind(t *testing.T) {
	r := sigKey(true, argHandle, argPtr)
	v := sigKey(false, argHandle, argPtr)
	if r == v {
		t.Fatalf("expected distinct keys for result vs void return, got %q for both", r)
	}
}

func TestSigKeyDistinguishesArgOrder(t *testing.T) {
	a := sigKey(true, argHandle, argPtr)
	b := sigKey(true, argPtr, argHandle)
	if a == b {
		t.Fatalf("expected distinct keys for different arg orders, got %q for both", a)
	}
}

func TestSigKeyStable(t *testing.T) {
	a := sigKey(true, argHandle, argHandle, argPtr)
	b := sigKey(true, argHandle, argHandle, argPtr)
	if a != b {
		t.Fatalf("expected identical keys for identical input, got %q and %q", a, b)
	}
}

func TestResultIsError(t *testing.T) {
	cases := []struct {
		r    Result
		want bool
	}{
		{Success, false},
		{NotReady, false},
		{Timeout, false},
		{ErrorDeviceLost, true},
		{ErrorOutOfHostMemory, true},
		{ErrorInitializationFailed, true},
	}
	for _, c := range cases {
		if got := c.r.IsError(); got != c.want {
			t.Errorf("Result(%d).IsError() = %v, want %v", c.r, got, c.want)
		}
	}
}
