// Package wire defines the on-the-wire shapes exchanged between the server
// and a client session over the IPC fabric (spec §4.1, §4.5), and their
// binary codec. File descriptors never travel inside the byte payload — they
// are exchanged out-of-band via SCM_RIGHTS (internal/fdpass) and referenced
// here only as placeholders that preserve field order and arity.
package wire

import (
	"encoding/binary"
	"fmt"
)

// DmabufInfo is the fixed-arity buffer-descriptor message of spec §4.5.
// Every field is always present; HasGBM conveys whether GbmFD is a real
// dma-buf handle or a placeholder (e.g. /dev/null), so the message shape
// never changes between the dma-buf and opaque-FD fallback paths.
//
// GbmFD and OpaqueFD are not serialized by Marshal/Unmarshal: they are
// carried alongside the byte payload as ancillary SCM_RIGHTS data and must
// be re-attached by the caller (see ipc.Session.SendDmabuf / ipc.Client.handleDmabuf).
type DmabufInfo struct {
	Modifier          uint64
	DmabufOffset      uint32
	Stride            uint32
	Fourcc            uint32
	PlaneSize         uint64
	Width             uint32
	Height            uint32
	ServerRenderMinor int64
	HasGBM            bool
	OpaqueSize        uint64
	OpaqueOffset      uint64

	// GbmFD and OpaqueFD are local-process file descriptors valid only
	// until the message is marshaled for transfer, or only after it has
	// been unmarshaled and its ancillary data re-attached on receive.
	// -1 means "no local fd attached here" (e.g. during Marshal on the
	// sender, or before fdpass.Recv fills it in).
	GbmFD    int `json:"-"`
	OpaqueFD int `json:"-"`
}

// dmabufWireSize is the byte length of the fixed-layout portion of
// DmabufInfo (everything except the two FDs, which travel out-of-band).
const dmabufWireSize = 8 + 4 + 4 + 4 + 8 + 4 + 4 + 8 + 1 + 8 + 8

// Marshal encodes the fixed-arity fields in a constant byte layout. FDs are
// not included; the caller sends them as ancillary data alongside this
// payload via fdpass.Send.
func (d DmabufInfo) Marshal() []byte {
	buf := make([]byte, dmabufWireSize)
	o := 0
	binary.LittleEndian.PutUint64(buf[o:], d.Modifier)
	o += 8
	binary.LittleEndian.PutUint32(buf[o:], d.DmabufOffset)
	o += 4
	binary.LittleEndian.PutUint32(buf[o:], d.Stride)
	o += 4
	binary.LittleEndian.PutUint32(buf[o:], d.Fourcc)
	o += 4
	binary.LittleEndian.PutUint64(buf[o:], d.PlaneSize)
	o += 8
	binary.LittleEndian.PutUint32(buf[o:], d.Width)
	o += 4
	binary.LittleEndian.PutUint32(buf[o:], d.Height)
	o += 4
	binary.LittleEndian.PutUint64(buf[o:], uint64(d.ServerRenderMinor))
	o += 8
	if d.HasGBM {
		buf[o] = 1
	}
	o++
	binary.LittleEndian.PutUint64(buf[o:], d.OpaqueSize)
	o += 8
	binary.LittleEndian.PutUint64(buf[o:], d.OpaqueOffset)
	return buf
}

// UnmarshalDmabufInfo decodes the fixed-arity fields. The caller must fill
// in GbmFD/OpaqueFD separately from the ancillary data of the same message.
func UnmarshalDmabufInfo(buf []byte) (DmabufInfo, error) {
	if len(buf) != dmabufWireSize {
		return DmabufInfo{}, fmt.Errorf("wire: dmabuf message has %d bytes, want %d", len(buf), dmabufWireSize)
	}
	var d DmabufInfo
	o := 0
	d.Modifier = binary.LittleEndian.Uint64(buf[o:])
	o += 8
	d.DmabufOffset = binary.LittleEndian.Uint32(buf[o:])
	o += 4
	d.Stride = binary.LittleEndian.Uint32(buf[o:])
	o += 4
	d.Fourcc = binary.LittleEndian.Uint32(buf[o:])
	o += 4
	d.PlaneSize = binary.LittleEndian.Uint64(buf[o:])
	o += 8
	d.Width = binary.LittleEndian.Uint32(buf[o:])
	o += 4
	d.Height = binary.LittleEndian.Uint32(buf[o:])
	o += 4
	d.ServerRenderMinor = int64(binary.LittleEndian.Uint64(buf[o:]))
	o += 8
	d.HasGBM = buf[o] != 0
	o++
	d.OpaqueSize = binary.LittleEndian.Uint64(buf[o:])
	o += 8
	d.OpaqueOffset = binary.LittleEndian.Uint64(buf[o:])
	d.GbmFD = -1
	d.OpaqueFD = -1
	return d, nil
}
