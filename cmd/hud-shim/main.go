// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command hud-shim demonstrates the integration shape a real Vulkan
// loader-layer would drive: it resolves a device, dials the server's
// control socket, and wires client.Interceptor's present-path hooks to a
// live client.Dispatch (spec §4.3, §9). A real layer instead receives its
// device and swapchain handles from the application it intercepts via the
// loader's chained vkGetDeviceProcAddr, and registers itself through a
// VK_LAYER manifest; both are outside this module's Go surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gpuhud/hud/client"
	"github.com/gpuhud/hud/internal/hlog"
	"github.com/gpuhud/hud/internal/vk"
	"github.com/gpuhud/hud/ipc"
	"github.com/gpuhud/hud/server"
)

func main() {
	socketPath := flag.String("socket", ipc.SocketPath(), "server control socket path")
	requestedMinor := flag.Int64("render-minor", 0, "preferred DRM render-minor (0 = no preference)")
	vertSPVPath := flag.String("vert-spv", "", "path to the compiled composite vertex shader (SPIR-V)")
	fragSPVPath := flag.String("frag-spv", "", "path to the compiled composite fragment shader (SPIR-V)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	hlog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*socketPath, *requestedMinor, *vertSPVPath, *fragSPVPath); err != nil {
		hlog.Logger().Error("hud-shim: fatal", "error", err)
		os.Exit(1)
	}
}

func run(socketPath string, requestedMinor int64, vertSPVPath, fragSPVPath string) error {
	vertSPV, err := os.ReadFile(vertSPVPath)
	if err != nil {
		return fmt.Errorf("hud-shim: read vertex shader: %w", err)
	}
	fragSPV, err := os.ReadFile(fragSPVPath)
	if err != nil {
		return fmt.Errorf("hud-shim: read fragment shader: %w", err)
	}

	if err := vk.Init(); err != nil {
		return fmt.Errorf("hud-shim: vk.Init: %w", err)
	}
	cmds := vk.NewCommands()
	if err := cmds.LoadGlobal(); err != nil {
		return fmt.Errorf("hud-shim: LoadGlobal: %w", err)
	}

	selector, err := server.NewDeviceSelector(cmds, "hud-shim")
	if err != nil {
		return fmt.Errorf("hud-shim: new device selector: %w", err)
	}
	defer selector.Close()

	device, err := selector.Select(requestedMinor)
	if err != nil {
		return fmt.Errorf("hud-shim: select device: %w", err)
	}

	interceptor := client.NewInterceptor(cmds, device.Logical, device.GraphicsFamily, nil, vertSPV, fragSPV)
	defer interceptor.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hlog.Logger().Info("hud-shim: connecting", "socket", socketPath)
	ipc.RunReconnecting(ctx, ipc.DefaultReconnectConfig, socketPath, requestedMinor, func(c *ipc.Client) {
		interceptor.Attach(c)
	})
	return nil
}
