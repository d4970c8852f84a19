// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package arena

import "testing"

func TestAllocGetFree(t *testing.T) {
	a := New[string]()
	idx := a.Alloc("hello")
	v, ok := a.Get(idx)
	if !ok || v != "hello" {
		t.Fatalf("Get(%v) = (%q, %v), want (\"hello\", true)", idx, v, ok)
	}
	if a.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", a.Len())
	}

	freed, ok := a.Free(idx)
	if !ok || freed != "hello" {
		t.Fatalf("Free(%v) = (%q, %v), want (\"hello\", true)", idx, freed, ok)
	}
	if _, ok := a.Get(idx); ok {
		t.Fatalf("Get(%v) after Free still reports live", idx)
	}
	if a.Len() != 0 {
		t.Fatalf("Len() after Free = %d, want 0", a.Len())
	}
}

func TestFreedIndexReused(t *testing.T) {
	a := New[int]()
	first := a.Alloc(1)
	a.Free(first)
	second := a.Alloc(2)
	if second != first {
		t.Fatalf("expected freed index %v to be reused, got %v", first, second)
	}
}

func TestSetOnlyAffectsLiveSlot(t *testing.T) {
	a := New[int]()
	idx := a.Alloc(1)
	a.Free(idx)
	a.Set(idx, 99) // should be a no-op, slot not live
	if _, ok := a.Get(idx); ok {
		t.Fatalf("Set revived a freed slot")
	}
}

func TestInvalidIndexNeverValid(t *testing.T) {
	if InvalidIndex.IsValid() {
		t.Fatalf("InvalidIndex.IsValid() = true, want false")
	}
}

func TestEachVisitsAllLiveSlots(t *testing.T) {
	a := New[int]()
	idxs := []Index{a.Alloc(10), a.Alloc(20), a.Alloc(30)}
	a.Free(idxs[1])

	seen := map[Index]int{}
	a.Each(func(idx Index, v int) { seen[idx] = v })
	if len(seen) != 2 {
		t.Fatalf("Each visited %d slots, want 2", len(seen))
	}
	if _, ok := seen[idxs[1]]; ok {
		t.Fatalf("Each visited freed slot %v", idxs[1])
	}
}
