package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Frame is the length-prefixed envelope written to the session channel:
// a 1-byte Kind, a 4-byte little-endian payload length, then the payload.
// File descriptors associated with the payload (Dmabuf, Fence,
// ReleaseFence) are never part of this byte stream; they ride alongside it
// as SCM_RIGHTS ancillary data on the same sendmsg/recvmsg call, and
// callers are responsible for pairing the two (see ipc.Session).
const frameHeaderSize = 1 + 4

// WriteFrame writes a framed message to w: Kind, length, payload.
func WriteFrame(w io.Writer, kind Kind, payload []byte) error {
	hdr := make([]byte, frameHeaderSize)
	hdr[0] = byte(kind)
	binary.LittleEndian.PutUint32(hdr[1:], uint32(len(payload)))
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("wire: write frame header: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame payload: %w", err)
	}
	return nil
}

// EncodeFrame builds a framed message as a single byte slice rather than
// writing to an io.Writer. ipc.Session uses this for messages that carry
// FDs: the frame bytes become the non-FD payload of a single sendmsg/SCM_RIGHTS
// call, so they must exist as one buffer rather than two separate writes.
func EncodeFrame(kind Kind, payload []byte) []byte {
	buf := make([]byte, frameHeaderSize+len(payload))
	buf[0] = byte(kind)
	binary.LittleEndian.PutUint32(buf[1:], uint32(len(payload)))
	copy(buf[frameHeaderSize:], payload)
	return buf
}

// DecodeFrame parses a single framed message previously produced by
// EncodeFrame or WriteFrame out of a buffer already known to hold exactly
// one frame (the fdpass.Recv counterpart to ReadFrame's streaming version).
func DecodeFrame(buf []byte) (Kind, []byte, error) {
	if len(buf) < frameHeaderSize {
		return 0, nil, fmt.Errorf("wire: frame buffer has %d bytes, want at least %d", len(buf), frameHeaderSize)
	}
	kind := Kind(buf[0])
	n := binary.LittleEndian.Uint32(buf[1:])
	if int(n) != len(buf)-frameHeaderSize {
		return 0, nil, fmt.Errorf("wire: frame declares %d payload bytes, buffer has %d", n, len(buf)-frameHeaderSize)
	}
	return kind, buf[frameHeaderSize:], nil
}

// ReadFrame reads one framed message from r. The returned payload is a
// freshly allocated slice sized exactly to the frame's declared length.
func ReadFrame(r io.Reader) (Kind, []byte, error) {
	hdr := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return 0, nil, err
	}
	kind := Kind(hdr[0])
	n := binary.LittleEndian.Uint32(hdr[1:])
	if n == 0 {
		return kind, nil, nil
	}
	// An unreasonably large declared length almost certainly indicates a
	// desynchronized stream rather than a legitimate message; frame_samples
	// batches are the largest payload this protocol ever sends and stay
	// well under this bound in practice.
	const maxFrame = 16 << 20
	if n > maxFrame {
		return 0, nil, fmt.Errorf("wire: frame length %d exceeds %d", n, maxFrame)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("wire: read frame payload: %w", err)
	}
	return kind, payload, nil
}

// MarshalOnConnect / UnmarshalOnConnect encode the fixed two-field
// OnConnect message.
func MarshalOnConnect(m OnConnect) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:], uint32(m.Pid))
	binary.LittleEndian.PutUint64(buf[4:], uint64(m.RequestedRenderMinor))
	return buf
}

func UnmarshalOnConnect(buf []byte) (OnConnect, error) {
	if len(buf) != 12 {
		return OnConnect{}, fmt.Errorf("wire: on_connect message has %d bytes, want 12", len(buf))
	}
	return OnConnect{
		Pid:                  int32(binary.LittleEndian.Uint32(buf[0:])),
		RequestedRenderMinor: int64(binary.LittleEndian.Uint64(buf[4:])),
	}, nil
}

// MarshalFrameSamples / UnmarshalFrameSamples encode a variable-length
// batch: a uint32 count followed by count*(uint64 seq, int64 t_ns) pairs.
// Unlike DmabufInfo this message has no fixed arity in the spec (it's
// explicitly a variable-size batch), so a count prefix is appropriate here.
func MarshalFrameSamples(m FrameSamples) []byte {
	buf := make([]byte, 4+len(m.Samples)*16)
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(m.Samples)))
	o := 4
	for _, s := range m.Samples {
		binary.LittleEndian.PutUint64(buf[o:], s.Seq)
		binary.LittleEndian.PutUint64(buf[o+8:], uint64(s.TNs))
		o += 16
	}
	return buf
}

func UnmarshalFrameSamples(buf []byte) (FrameSamples, error) {
	if len(buf) < 4 {
		return FrameSamples{}, fmt.Errorf("wire: frame_samples message too short (%d bytes)", len(buf))
	}
	n := binary.LittleEndian.Uint32(buf[0:])
	want := 4 + int(n)*16
	if len(buf) != want {
		return FrameSamples{}, fmt.Errorf("wire: frame_samples message has %d bytes, want %d", len(buf), want)
	}
	samples := make([]FrameSample, n)
	o := 4
	for i := range samples {
		samples[i].Seq = binary.LittleEndian.Uint64(buf[o:])
		samples[i].TNs = int64(binary.LittleEndian.Uint64(buf[o+8:]))
		o += 16
	}
	return FrameSamples{Samples: samples}, nil
}

// MarshalConfigPayload / UnmarshalConfigPayload encode the fixed-arity
// configuration push.
func MarshalConfigPayload(m ConfigPayload) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], m.Rows)
	binary.LittleEndian.PutUint32(buf[4:], m.Cols)
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(m.FontSize))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(m.FPSLimit))
	return buf
}

func UnmarshalConfigPayload(buf []byte) (ConfigPayload, error) {
	if len(buf) != 16 {
		return ConfigPayload{}, fmt.Errorf("wire: config message has %d bytes, want 16", len(buf))
	}
	return ConfigPayload{
		Rows:     binary.LittleEndian.Uint32(buf[0:]),
		Cols:     binary.LittleEndian.Uint32(buf[4:]),
		FontSize: math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])),
		FPSLimit: math.Float32frombits(binary.LittleEndian.Uint32(buf[12:])),
	}, nil
}
