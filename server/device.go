// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package server

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/gpuhud/hud/internal/vk"
)

// DeviceSelector picks and owns the one Vulkan instance this server
// process uses, and resolves a physical device per requested DRM
// render-minor (spec §4.2 "Device selection"). Selection happens once per
// distinct minor: subsequent clients requesting the same minor share the
// already-chosen device.
type DeviceSelector struct {
	cmds     *vk.Commands
	instance vk.Instance

	mu      sync.Mutex
	devices map[int64]*SelectedDevice
}

// SelectedDevice is one physical-device-plus-logical-device pair chosen
// for a DRM render-minor, along with the capability flags that decide
// whether this device's clients use the dma-buf or opaque-FD path.
type SelectedDevice struct {
	Physical       vk.PhysicalDevice
	Logical        vk.Device
	GraphicsFamily uint32
	Queue          vk.Queue

	// DmabufCapable selects the dma-buf render-target path for this
	// device. Device selection does not probe the prerequisites of that
	// path (Vulkan 1.3 with dynamic rendering, external-memory/semaphore/
	// fence-FD families, DRM-format-modifier plus dma-buf external memory
	// support) and always sets it to false, so every client on this device
	// uses the opaque-FD fallback and the dma-buf path is disabled for it.
	DmabufCapable bool
}

// NewDeviceSelector creates an instance and a selector bound to it. cmds
// must already have its global-level entry points loaded
// (vk.Init + cmds.LoadGlobal) before calling this.
func NewDeviceSelector(cmds *vk.Commands, appName string) (*DeviceSelector, error) {
	nameBytes := make([]byte, len(appName)+1)
	copy(nameBytes, appName)
	appInfo := vk.ApplicationInfo{
		SType:            vk.StructureTypeApplicationInfo,
		PApplicationName: unsafe.Pointer(&nameBytes[0]),
		// Vulkan 1.3 encoded as (0<<29 | 1<<22 | 3<<12 | 0), the spec's
		// VK_MAKE_API_VERSION(0, 1, 3, 0) (spec §4.2 "requires Vulkan 1.3
		// with dynamic rendering").
		APIVersion: 1<<22 | 3<<12,
	}
	info := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}
	var instance vk.Instance
	result, err := cmds.CreateInstance(&info, &instance)
	if err != nil {
		return nil, fmt.Errorf("server: vkCreateInstance: %w", err)
	}
	if result.IsError() {
		return nil, fmt.Errorf("server: vkCreateInstance: %d", result)
	}
	if err := cmds.LoadInstance(instance); err != nil {
		return nil, fmt.Errorf("server: load instance commands: %w", err)
	}

	return &DeviceSelector{
		cmds:     cmds,
		instance: instance,
		devices:  make(map[int64]*SelectedDevice),
	}, nil
}

// Select returns the device already chosen for requestedMinor, or probes
// every physical device and picks the one whose DRM render-minor matches.
// requestedMinor == 0 picks the first enumerated device's own minor
// (no-preference case); its resolved minor is still used as the cache key
// so a second client with no preference reuses the same device.
func (s *DeviceSelector) Select(requestedMinor int64) (*SelectedDevice, error) {
	s.mu.Lock()
	if d, ok := s.devices[requestedMinor]; ok {
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()

	physicalDevices, err := s.enumeratePhysicalDevices()
	if err != nil {
		return nil, err
	}
	if len(physicalDevices) == 0 {
		return nil, fmt.Errorf("server: no Vulkan physical devices enumerated")
	}

	var chosen vk.PhysicalDevice
	var chosenMinor int64
	found := false
	for _, pd := range physicalDevices {
		minor, err := RenderMinor(s.cmds, pd)
		if err != nil {
			continue
		}
		if requestedMinor == 0 || minor == requestedMinor {
			chosen, chosenMinor = pd, minor
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("server: no physical device backs render-minor %d", requestedMinor)
	}

	s.mu.Lock()
	if d, ok := s.devices[chosenMinor]; ok {
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()

	selected, err := s.createLogicalDevice(chosen)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.devices[chosenMinor] = selected
	s.devices[requestedMinor] = selected
	s.mu.Unlock()
	return selected, nil
}

func (s *DeviceSelector) enumeratePhysicalDevices() ([]vk.PhysicalDevice, error) {
	var count uint32
	if _, err := s.cmds.EnumeratePhysicalDevices(s.instance, &count, nil); err != nil {
		return nil, fmt.Errorf("server: vkEnumeratePhysicalDevices (count): %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	devices := make([]vk.PhysicalDevice, count)
	if _, err := s.cmds.EnumeratePhysicalDevices(s.instance, &count, &devices[0]); err != nil {
		return nil, fmt.Errorf("server: vkEnumeratePhysicalDevices: %w", err)
	}
	return devices, nil
}

func (s *DeviceSelector) graphicsFamily(pd vk.PhysicalDevice) (uint32, error) {
	var count uint32
	if err := s.cmds.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil); err != nil {
		return 0, fmt.Errorf("server: query queue family count: %w", err)
	}
	if count == 0 {
		return 0, fmt.Errorf("server: physical device exposes no queue families")
	}
	props := make([]vk.QueueFamilyProperties, count)
	if err := s.cmds.GetPhysicalDeviceQueueFamilyProperties(pd, &count, &props[0]); err != nil {
		return 0, fmt.Errorf("server: query queue families: %w", err)
	}
	for i, p := range props {
		if p.QueueFlags&vk.QueueGraphics != 0 {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("server: physical device has no graphics-capable queue family")
}

func (s *DeviceSelector) createLogicalDevice(pd vk.PhysicalDevice) (*SelectedDevice, error) {
	family, err := s.graphicsFamily(pd)
	if err != nil {
		return nil, err
	}

	priority := float32(1.0)
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family,
		QueueCount:       1,
		PQueuePriorities: &priority,
	}
	devInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    &queueInfo,
	}

	var device vk.Device
	result, err := s.cmds.CreateDevice(pd, &devInfo, &device)
	if err != nil {
		return nil, fmt.Errorf("server: vkCreateDevice: %w", err)
	}
	if result.IsError() {
		return nil, fmt.Errorf("server: vkCreateDevice: %d", result)
	}
	if err := s.cmds.LoadDevice(device); err != nil {
		return nil, fmt.Errorf("server: load device commands: %w", err)
	}

	var queue vk.Queue
	if err := s.cmds.GetDeviceQueue(device, family, 0, &queue); err != nil {
		return nil, fmt.Errorf("server: vkGetDeviceQueue: %w", err)
	}

	return &SelectedDevice{
		Physical:       pd,
		Logical:        device,
		GraphicsFamily: family,
		Queue:          queue,
		// No extension/feature probe is made: DmabufCapable is always
		// false, and the render target is built on the opaque-FD path
		// whenever it is false (spec §4.7 "Unsupported DMA-BUF import:
		// disable DMA-BUF pathway globally").
		DmabufCapable: false,
	}, nil
}

// Close destroys every logical device and the shared instance, in
// dependency order.
func (s *DeviceSelector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[vk.Device]bool)
	var firstErr error
	for _, d := range s.devices {
		if seen[d.Logical] {
			continue
		}
		seen[d.Logical] = true
		if err := s.cmds.DestroyDevice(d.Logical); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.cmds.DestroyInstance(s.instance); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
