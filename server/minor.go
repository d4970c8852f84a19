// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package server

import (
	"fmt"

	"github.com/gpuhud/hud/internal/vk"
)

// RenderMinor derives the DRM render-minor a physical device backs, by
// querying its VkPhysicalDeviceDrmPropertiesEXT rather than trusting a
// client-supplied value (original_source's wsi_helpers.cpp / vulkan_ctx.cpp
// do the same: renderMinor comes from the device, the client's requested
// value is only a routing key into DeviceSelector, never authoritative).
func RenderMinor(cmds *vk.Commands, pd vk.PhysicalDevice) (int64, error) {
	drm, err := cmds.GetPhysicalDeviceDrmPropertiesEXT(pd)
	if err != nil {
		return 0, fmt.Errorf("server: query drm properties: %w", err)
	}
	if drm.HasRender == 0 {
		return 0, fmt.Errorf("server: physical device exposes no render node")
	}
	return drm.RenderMinor, nil
}
