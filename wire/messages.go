package wire

// Kind identifies the message type of a framed payload on the session
// channel (spec §4.1, §6). Each session is a single duplex byte stream;
// Kind plus a length prefix is how the two ends demultiplex it without a
// registry or reflection.
type Kind uint8

const (
	KindOnConnect Kind = iota + 1
	KindDmabuf
	KindFence
	KindReleaseFence
	KindFrameSamples
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindOnConnect:
		return "on_connect"
	case KindDmabuf:
		return "dmabuf"
	case KindFence:
		return "fence"
	case KindReleaseFence:
		return "release_fence"
	case KindFrameSamples:
		return "frame_samples"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// OnConnect is sent by the client immediately after the duplex channel is
// established (spec §4.1 register_client). Pid lets the server's liveness
// prober watch the right process without trusting SO_PEERCRED alone on
// platforms where it's unavailable.
type OnConnect struct {
	Pid                  int32
	RequestedRenderMinor int64
}

// Fence carries a single acquire sync-file (spec §4.1 send_fence). The FD
// itself travels out-of-band via SCM_RIGHTS; AcquireFD is a local-process
// descriptor valid only around the send/receive call.
type Fence struct {
	AcquireFD int `json:"-"`
}

// ReleaseFence carries a single release sync-file from client to server
// (spec §4.1 release_fence). The server deduplicates: a new ReleaseFence
// for a session that already holds one closes the stale FD before storing
// the new one.
type ReleaseFence struct {
	ReleaseFD int `json:"-"`
}

// FrameSample is one (presentation sequence, timestamp) pair reported by a
// client (spec §3, §4.4).
type FrameSample struct {
	Seq  uint64
	TNs  int64
}

// FrameSamples batches samples accumulated by the client since the last
// flush (spec §4.1 frame_samples). Batching amortizes the IPC round trip.
// ipc.Client.SendFrameSamples sends one batch per call; the client has no
// periodic flush, and fps_limit plays no part in when a batch is sent.
type FrameSamples struct {
	Samples []FrameSample
}

// ConfigPayload is the server-to-client configuration push (spec §4.1
// config, §6), sent by ipc.Session.SendConfig. server.Server does not send
// it: neither on register_client nor when config.Store observes a change,
// which the server only logs.
type ConfigPayload struct {
	Rows     uint32
	Cols     uint32
	FontSize float32
	FPSLimit float32
}
