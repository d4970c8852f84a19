// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gpuhud/hud/config"
	"github.com/gpuhud/hud/internal/gbm"
	"github.com/gpuhud/hud/internal/hlog"
	"github.com/gpuhud/hud/internal/syncfile"
	"github.com/gpuhud/hud/internal/vk"
	"github.com/gpuhud/hud/ipc"
	"github.com/gpuhud/hud/metrics"
	"github.com/gpuhud/hud/wire"
)

// tickInterval is the per-client worker's render cadence, chosen well
// above any plausible display refresh rate so the overlay never becomes
// the presentation bottleneck (spec §4.2: "the server paces itself
// independently of the client's present rate").
const tickInterval = time.Second / 144

// Server owns device selection, the shared HUD table snapshot, the
// configuration store, and one clientState per connected session (spec
// §4.2, §6).
type Server struct {
	cmds     *vk.Commands
	selector *DeviceSelector
	fabric   *ipc.Fabric
	configs  *config.Store
	snapshot *metrics.Snapshot
	drawer   Drawer

	clients map[int32]*clientState
}

// clientState bundles everything a connected client's worker goroutine
// touches: its device, resources, pipeline, and the cancel func that stops
// its worker on disconnect.
type clientState struct {
	device    *SelectedDevice
	resources *ClientResources
	pipeline  *Pipeline
	cancel    context.CancelFunc
}

// NewServer creates a Server bound to fabric, resolving devices through
// cmds and publishing rendered tables from snapshot. drawer rasterizes
// each tick's HudTable; configPath is the resolved configuration file
// whose stat signature is polled for changes (spec §6).
func NewServer(cmds *vk.Commands, fabric *ipc.Fabric, snapshot *metrics.Snapshot, drawer Drawer, configPath string) (*Server, error) {
	selector, err := NewDeviceSelector(cmds, "hud-server")
	if err != nil {
		return nil, err
	}
	s := &Server{
		cmds:     cmds,
		selector: selector,
		fabric:   fabric,
		configs:  config.NewStore(configPath),
		snapshot: snapshot,
		drawer:   drawer,
		clients:  make(map[int32]*clientState),
	}
	fabric.OnConnect = s.onConnect
	fabric.OnFrameSamples = s.onFrameSamples
	fabric.OnReleaseFence = s.onReleaseFence
	return s, nil
}

// onConnect resolves the requested device, builds the client's pipeline,
// and starts its per-tick worker (spec §4.2, §4.4 WAITING_FOR_READY entry).
func (s *Server) onConnect(session *ipc.Session, requestedMinor int64) {
	device, err := s.selector.Select(requestedMinor)
	if err != nil {
		hlog.Logger().Error("server: device selection failed", "pid", session.Pid, "error", err)
		session.MarkDead()
		return
	}

	resources := NewClientResources(requestedMinor, device.DmabufCapable)
	var gbmDevice *gbm.Device
	if device.DmabufCapable {
		fd, err := openRenderNode(s.cmds, device.Physical)
		if err != nil {
			hlog.Logger().Warn("server: render node open failed, falling back to opaque-fd path", "pid", session.Pid, "error", err)
			resources = NewClientResources(requestedMinor, false)
		} else {
			gbmDevice, err = gbm.NewDevice(fd)
			if err != nil {
				hlog.Logger().Warn("server: gbm device open failed, falling back to opaque-fd path", "pid", session.Pid, "error", err)
				_ = unix.Close(fd)
				resources = NewClientResources(requestedMinor, false)
				gbmDevice = nil
			}
		}
	}

	pipeline, err := NewPipeline(s.cmds, device.Logical, device.Queue, device.GraphicsFamily, gbmDevice, s.drawer, resources)
	if err != nil {
		hlog.Logger().Error("server: pipeline creation failed", "pid", session.Pid, "error", err)
		session.MarkDead()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cs := &clientState{device: device, resources: resources, pipeline: pipeline, cancel: cancel}
	s.clients[session.Pid] = cs

	session.SetState(ipc.StateRender)
	go s.runWorker(ctx, session, cs)
}

// openRenderNode opens the DRM render node backing pd, the FD
// gbm.NewDevice needs to create buffer objects on the same device the
// Vulkan instance resolved (spec §4.2 "Device selection").
func openRenderNode(cmds *vk.Commands, pd vk.PhysicalDevice) (int, error) {
	minor, err := RenderMinor(cmds, pd)
	if err != nil {
		return -1, err
	}
	path := fmt.Sprintf("/dev/dri/renderD%d", minor)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("server: open %s: %w", path, err)
	}
	return fd, nil
}

// onFrameSamples feeds a session's frame_samples into its sample window
// and frametime ring, and recomputes its smoothed FPS/frametime (spec §3,
// §4.4).
func (s *Server) onFrameSamples(session *ipc.Session, samples wire.FrameSamples) {
	cs, ok := s.clients[session.Pid]
	if !ok {
		return
	}
	batch := make([]metrics.Sample, len(samples.Samples))
	for i, fs := range samples.Samples {
		batch[i] = metrics.Sample{Seq: fs.Seq, TNs: fs.TNs}
	}
	cs.resources.Samples().AppendBatch(batch)
	if len(batch) >= 2 {
		last, prev := batch[len(batch)-1], batch[len(batch)-2]
		if dt := last.TNs - prev.TNs; dt > 0 {
			cs.resources.Frametimes().Push(float32(dt) / 1e6)
			cs.resources.SmoothFrametime(float64(dt) / 1e6)
		}
	}
	cs.resources.SmoothFPS(cs.resources.Samples().FPS())
}

// onReleaseFence installs the client's release sync-file on its session,
// gating the next render iteration's ready_frame (spec §4.4).
func (s *Server) onReleaseFence(session *ipc.Session, fd int) {
	session.SetRelease(syncfile.New(fd))
}

// runWorker drives one client's render/export/wait cycle at tickInterval
// until ctx is cancelled or the session dies (spec §4.4 state machine).
func (s *Server) runWorker(ctx context.Context, session *ipc.Session, cs *clientState) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	defer cs.pipeline.Close()
	defer cs.resources.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if session.Dead() {
			return
		}

		ready, err := session.ReadyFrame()
		if err != nil {
			hlog.Logger().Debug("server: ready_frame error", "pid", session.Pid, "error", err)
			continue
		}
		if !ready {
			continue
		}

		if s.configs.Changed() {
			hlog.Logger().Info("server: configuration changed, awaiting external reload", "pid", session.Pid)
		}

		table := s.snapshot.Current()
		if table == nil {
			continue
		}

		layout := metrics.ComputeLayout(table, nil, metrics.Padding{X: 8, Y: 8})
		result, err := cs.pipeline.Tick(table, layout)
		if err != nil {
			hlog.Logger().Error("server: tick failed", "pid", session.Pid, "error", err)
			continue
		}
		if result.ReinitNeeded {
			continue
		}

		acquireFD := result.FenceFD
		if result.SendFence {
			dup, err := unix.Dup(acquireFD)
			if err != nil {
				hlog.Logger().Debug("server: dup acquire fd failed", "pid", session.Pid, "error", err)
			} else if err := session.SendFence(dup); err != nil {
				hlog.Logger().Debug("server: send_fence failed", "pid", session.Pid, "error", err)
			}
		}
		session.SetAcquire(syncfile.New(acquireFD))
		if result.SendDmabuf {
			if err := s.sendDmabuf(session, cs); err != nil {
				hlog.Logger().Debug("server: send_dmabuf failed", "pid", session.Pid, "error", err)
			}
		}
	}
}

// sendDmabuf assembles this client's DmabufInfo from its active render
// target and hands it over the fabric (spec §4.1 send_dmabuf, §4.5).
func (s *Server) sendDmabuf(session *ipc.Session, cs *clientState) error {
	target := cs.resources.Target()
	if target == nil {
		return nil
	}

	minor, err := RenderMinor(s.cmds, cs.device.Physical)
	if err != nil {
		return fmt.Errorf("server: resolve render minor: %w", err)
	}

	info := wire.DmabufInfo{
		Width:             target.Width,
		Height:            target.Height,
		ServerRenderMinor: minor,
		HasGBM:            target.HasDmabuf(),
	}

	gbmFD, opaqueFD := -1, -1
	if target.HasDmabuf() {
		fd, modifier, stride, offset, planeSize, err := target.DmabufDescriptor()
		if err != nil {
			return fmt.Errorf("server: dmabuf descriptor: %w", err)
		}
		gbmFD = fd
		defer unix.Close(gbmFD)
		info.Modifier = modifier
		info.Stride = stride
		info.DmabufOffset = offset
		info.PlaneSize = planeSize
		info.Fourcc = fourccARGB8888
	} else {
		// SendDmabuf dups every fd it's given; -1 makes unix.Dup fail with
		// EBADF and drops the whole message. A placeholder keeps the
		// message's fixed arity on the opaque-fd-only path (spec §4.5).
		placeholder, err := os.Open(os.DevNull)
		if err != nil {
			return fmt.Errorf("server: open placeholder fd: %w", err)
		}
		gbmFD = int(placeholder.Fd())
		defer placeholder.Close()
	}

	fd, err := target.OpaqueFD()
	if err != nil {
		return fmt.Errorf("server: opaque fd: %w", err)
	}
	opaqueFD = fd
	defer unix.Close(opaqueFD)

	return session.SendDmabuf(info, gbmFD, opaqueFD)
}

// Close tears down every connected client's resources and the device
// selector.
func (s *Server) Close() error {
	for _, cs := range s.clients {
		cs.cancel()
	}
	return s.selector.Close()
}
