package wire

import (
	"bytes"
	"testing"
)

func TestDmabufInfoRoundTrip(t *testing.T) {
	cases := []DmabufInfo{
		{
			Modifier: 0x0100000000000002, DmabufOffset: 0, Stride: 3840 * 4,
			Fourcc: 0x34325258, PlaneSize: 3840 * 2160 * 4, Width: 3840, Height: 2160,
			ServerRenderMinor: 128, HasGBM: true,
		},
		{HasGBM: false, OpaqueSize: 1 << 20, OpaqueOffset: 4096},
	}
	for i, want := range cases {
		buf := want.Marshal()
		if len(buf) != dmabufWireSize {
			t.Fatalf("case %d: Marshal produced %d bytes, want %d", i, len(buf), dmabufWireSize)
		}
		got, err := UnmarshalDmabufInfo(buf)
		if err != nil {
			t.Fatalf("case %d: Unmarshal: %v", i, err)
		}
		got.GbmFD, got.OpaqueFD = want.GbmFD, want.OpaqueFD
		if got != want {
			t.Fatalf("case %d: round trip mismatch: got %+v, want %+v", i, got, want)
		}
	}
}

func TestUnmarshalDmabufInfoWrongSize(t *testing.T) {
	if _, err := UnmarshalDmabufInfo([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for undersized buffer")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := MarshalOnConnect(OnConnect{Pid: 4242, RequestedRenderMinor: 7})
	if err := WriteFrame(&buf, KindOnConnect, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	kind, got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if kind != KindOnConnect {
		t.Fatalf("kind = %v, want %v", kind, KindOnConnect)
	}
	m, err := UnmarshalOnConnect(got)
	if err != nil {
		t.Fatalf("UnmarshalOnConnect: %v", err)
	}
	if m.Pid != 4242 || m.RequestedRenderMinor != 7 {
		t.Fatalf("got %+v", m)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(KindFrameSamples))
	buf.Write([]byte{0xff, 0xff, 0xff, 0x7f}) // ~2GB declared length
	if _, _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected error for oversized frame length")
	}
}

func TestFrameSamplesRoundTrip(t *testing.T) {
	want := FrameSamples{Samples: []FrameSample{
		{Seq: 1, TNs: 1000},
		{Seq: 2, TNs: 2016},
		{Seq: 3, TNs: 3033},
	}}
	buf := MarshalFrameSamples(want)
	got, err := UnmarshalFrameSamples(buf)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Samples) != len(want.Samples) {
		t.Fatalf("got %d samples, want %d", len(got.Samples), len(want.Samples))
	}
	for i := range want.Samples {
		if got.Samples[i] != want.Samples[i] {
			t.Fatalf("sample %d: got %+v, want %+v", i, got.Samples[i], want.Samples[i])
		}
	}
}

func TestFrameSamplesEmpty(t *testing.T) {
	buf := MarshalFrameSamples(FrameSamples{})
	got, err := UnmarshalFrameSamples(buf)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Samples) != 0 {
		t.Fatalf("got %d samples, want 0", len(got.Samples))
	}
}

func TestUnmarshalFrameSamplesTruncated(t *testing.T) {
	buf := MarshalFrameSamples(FrameSamples{Samples: []FrameSample{{Seq: 1, TNs: 2}}})
	if _, err := UnmarshalFrameSamples(buf[:len(buf)-1]); err == nil {
		t.Fatal("expected error for truncated frame_samples payload")
	}
}

func TestConfigPayloadRoundTrip(t *testing.T) {
	want := ConfigPayload{Rows: 8, Cols: 3, FontSize: 14.5, FPSLimit: 60}
	got, err := UnmarshalConfigPayload(MarshalConfigPayload(want))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	payload := MarshalConfigPayload(ConfigPayload{Rows: 2, Cols: 4, FontSize: 13, FPSLimit: 0})
	buf := EncodeFrame(KindConfig, payload)
	kind, got, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if kind != KindConfig {
		t.Fatalf("kind = %v, want %v", kind, KindConfig)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got payload %v, want %v", got, payload)
	}
}

func TestDecodeFrameRejectsLengthMismatch(t *testing.T) {
	buf := EncodeFrame(KindFence, []byte{1, 2, 3, 4})
	buf = buf[:len(buf)-1] // truncate payload without fixing the declared length
	if _, _, err := DecodeFrame(buf); err == nil {
		t.Fatal("expected error for length/buffer mismatch")
	}
}

func TestKindString(t *testing.T) {
	if KindDmabuf.String() != "dmabuf" {
		t.Fatalf("got %q", KindDmabuf.String())
	}
	if Kind(99).String() != "unknown" {
		t.Fatalf("got %q for unrecognized kind", Kind(99).String())
	}
}
