// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command hud-server is the per-host HUD rendering daemon: it accepts
// client connections on the fabric's control socket, selects a Vulkan
// device per client, and ticks each client's pipeline until it
// disconnects (spec §4.1, §4.2, §4.4).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gpuhud/hud/internal/hlog"
	"github.com/gpuhud/hud/internal/vk"
	"github.com/gpuhud/hud/ipc"
	"github.com/gpuhud/hud/metrics"
	"github.com/gpuhud/hud/server"
)

func main() {
	socketPath := flag.String("socket", ipc.SocketPath(), "control socket path")
	configPath := flag.String("config", "", "configuration file path (spec §6)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	hlog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*socketPath, *configPath); err != nil {
		hlog.Logger().Error("hud-server: fatal", "error", err)
		os.Exit(1)
	}
}

func run(socketPath, configPath string) error {
	if err := vk.Init(); err != nil {
		return fmt.Errorf("hud-server: vk.Init: %w", err)
	}

	cmds := vk.NewCommands()
	if err := cmds.LoadGlobal(); err != nil {
		return fmt.Errorf("hud-server: LoadGlobal: %w", err)
	}

	fabric, err := ipc.Listen(socketPath)
	if err != nil {
		return fmt.Errorf("hud-server: listen %s: %w", socketPath, err)
	}
	defer fabric.Close()

	snapshot := &metrics.Snapshot{}

	srv, err := server.NewServer(cmds, fabric, snapshot, server.NullDrawer{}, configPath)
	if err != nil {
		return fmt.Errorf("hud-server: new server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hlog.Logger().Info("hud-server: listening", "socket", socketPath)
	if err := fabric.Serve(ctx); err != nil {
		return fmt.Errorf("hud-server: serve: %w", err)
	}
	return nil
}
