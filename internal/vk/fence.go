// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import "fmt"

// ExportableFence wraps a VkFence created with VK_EXTERNAL_FENCE_HANDLE_TYPE_SYNC_FD_BIT.
// The server creates one per client as its pacing fence, pre-signalled at
// creation so the first tick's wait never blocks on a fence nobody has
// submitted yet.
//
// Unlike the teacher's deviceFence, there is no timeline-semaphore path here:
// a sync-fd is exported/imported per round-trip, so the fence itself carries
// no monotonic counter, just binary signalled/unsignalled state.
type ExportableFence struct {
	cmds   *Commands
	device Device
	handle Fence
}

// CreateExportableFence creates a pre-signalled fence exportable as a
// sync-file descriptor (spec §3 "one fence per image (created
// pre-signalled)").
func CreateExportableFence(cmds *Commands, device Device) (*ExportableFence, error) {
	exportInfo := ExportFenceCreateInfo{
		SType:       StructureTypeExportFenceCreateInfo,
		HandleTypes: ExternalFenceHandleTypeSyncFd,
	}
	info := FenceCreateInfo{
		SType: StructureTypeFenceCreateInfo,
		PNext: ptr(&exportInfo),
		Flags: FenceCreateSignaledBit,
	}
	var fence Fence
	result, err := cmds.CreateFence(device, &info, &fence)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, fmt.Errorf("vk: vkCreateFence: %d", result)
	}
	return &ExportableFence{cmds: cmds, device: device, handle: fence}, nil
}

// Handle returns the underlying VkFence.
func (f *ExportableFence) Handle() Fence { return f.handle }

// Wait blocks until the fence is signalled or timeoutNs elapses.
func (f *ExportableFence) Wait(timeoutNs uint64) error {
	result, err := f.cmds.WaitForFences(f.device, []Fence{f.handle}, true, timeoutNs)
	if err != nil {
		return err
	}
	if result == Timeout {
		return fmt.Errorf("vk: fence wait timed out")
	}
	if result.IsError() {
		return fmt.Errorf("vk: vkWaitForFences: %d", result)
	}
	return nil
}

// Reset clears the fence's signalled state ahead of the next submission.
func (f *ExportableFence) Reset() error {
	result, err := f.cmds.ResetFences(f.device, []Fence{f.handle})
	if err != nil {
		return err
	}
	if result.IsError() {
		return fmt.Errorf("vk: vkResetFences: %d", result)
	}
	return nil
}

// ExportSyncFd exports the fence's current state as a sync-file descriptor
// (spec §4.1 send_fence). The fence retains its signalled state; only the
// FD is a fresh handle on it.
func (f *ExportableFence) ExportSyncFd() (int, error) {
	info := FenceGetFdInfoKHR{
		SType:      StructureTypeFenceGetFdInfoKHR,
		Fence:      f.handle,
		HandleType: ExternalFenceHandleTypeSyncFd,
	}
	var fd int32
	result, err := f.cmds.GetFenceFdKHR(f.device, &info, &fd)
	if err != nil {
		return -1, err
	}
	if result.IsError() {
		return -1, fmt.Errorf("vk: vkGetFenceFdKHR: %d", result)
	}
	return int(fd), nil
}

// ImportSyncFd imports a sync-file descriptor into the fence, replacing its
// current payload (spec §4.1 release_fence, consumed so the server can wait
// on the client's release before reusing a dma-buf image).
func (f *ExportableFence) ImportSyncFd(fd int) error {
	info := ImportFenceFdInfoKHR{
		SType:      StructureTypeImportFenceFdInfoKHR,
		Fence:      f.handle,
		HandleType: ExternalFenceHandleTypeSyncFd,
		Fd:         int32(fd),
	}
	result, err := f.cmds.ImportFenceFdKHR(f.device, &info)
	if err != nil {
		return err
	}
	if result.IsError() {
		return fmt.Errorf("vk: vkImportFenceFdKHR: %d", result)
	}
	return nil
}

// Destroy releases the fence.
func (f *ExportableFence) Destroy() error {
	return f.cmds.DestroyFence(f.device, f.handle)
}
