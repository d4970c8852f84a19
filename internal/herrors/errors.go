// Package herrors defines the sentinel error taxonomy shared across the
// server pipeline, the client overlay layer, and the IPC fabric (spec §7).
// Call sites wrap these with fmt.Errorf("...: %w", ...) for context; callers
// match with errors.Is.
package herrors

import "errors"

var (
	// ErrConfigInvalid indicates the resolved configuration failed
	// validation. Recovery: fall back to the built-in default layout.
	ErrConfigInvalid = errors.New("hud: config invalid")

	// ErrDeviceUnsuitable indicates physical-device selection found no
	// device meeting the minimum feature/extension requirements for a
	// requested DRM render-minor. Recovery: disable the dma-buf pathway
	// and retry with the opaque-FD fallback.
	ErrDeviceUnsuitable = errors.New("hud: no suitable vulkan device")

	// ErrTransientVulkan indicates a recoverable per-tick Vulkan failure.
	// Recovery: skip this tick, retain prior state, retry next tick.
	ErrTransientVulkan = errors.New("hud: transient vulkan error")

	// ErrDeviceLost indicates VK_ERROR_DEVICE_LOST or an equivalent fatal
	// condition. Recovery: tear down the device and every session bound
	// to it.
	ErrDeviceLost = errors.New("hud: vulkan device lost")

	// ErrPeerGone indicates an IPC send or receive failed because the
	// peer process is no longer reachable. Recovery: mark the session
	// dead; it is reaped on the next cycle.
	ErrPeerGone = errors.New("hud: peer process gone")

	// ErrFDDupFailed indicates dup(2) of a received file descriptor
	// failed. Recovery: drop the message, continue processing the
	// session.
	ErrFDDupFailed = errors.New("hud: fd dup failed")

	// ErrSchemaMismatch indicates a wire message did not decode to the
	// expected fixed-arity shape. Recovery: drop the message, continue.
	ErrSchemaMismatch = errors.New("hud: message schema mismatch")

	// ErrNotReady indicates an operation was attempted before its
	// prerequisite state was established (e.g. drawing before any config
	// has been received).
	ErrNotReady = errors.New("hud: not ready")
)
