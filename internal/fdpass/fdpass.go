// Package fdpass sends and receives file descriptors over a Unix domain
// socket using SCM_RIGHTS ancillary data, alongside a regular byte payload
// (spec §4.1, §4.5: dma-buf, acquire-fence and release-fence FD exchange).
package fdpass

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// maxFDs bounds a single message: this protocol never sends more than one
// fd (dma-buf) or two (dma-buf plus its opaque-FD fallback) per message.
const maxFDs = 2

// Send writes payload to conn with fds attached as SCM_RIGHTS ancillary
// data. fds may be empty for a payload-only message. The caller retains
// ownership of fds; Send does not close them.
func Send(conn *net.UnixConn, payload []byte, fds ...int) error {
	if len(fds) > maxFDs {
		return fmt.Errorf("fdpass: send: %d fds exceeds max %d", len(fds), maxFDs)
	}
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("fdpass: send: raw conn: %w", err)
	}
	var sendErr error
	ctrlErr := rawConn.Write(func(fd uintptr) bool {
		sendErr = unix.Sendmsg(int(fd), payload, oob, nil, 0)
		return sendErr != unix.EAGAIN
	})
	if ctrlErr != nil {
		return fmt.Errorf("fdpass: send: raw conn write: %w", ctrlErr)
	}
	if sendErr != nil {
		return fmt.Errorf("fdpass: send: sendmsg: %w", sendErr)
	}
	return nil
}

// Recv reads one message from conn, returning its byte payload and any
// attached file descriptors. Received descriptors are owned by the caller
// and must eventually be closed.
//
// bufSize bounds the byte payload; it should be sized for the largest
// fixed-arity message plus headroom, not for the FDs (which travel out of
// band regardless of byte-payload size).
func Recv(conn *net.UnixConn, bufSize int) (payload []byte, fds []int, err error) {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return nil, nil, fmt.Errorf("fdpass: recv: raw conn: %w", err)
	}
	buf := make([]byte, bufSize)
	oob := make([]byte, unix.CmsgSpace(4*maxFDs))
	var n, oobn int
	var recvErr error
	ctrlErr := rawConn.Read(func(fd uintptr) bool {
		n, oobn, _, _, recvErr = unix.Recvmsg(int(fd), buf, oob, 0)
		return true
	})
	if ctrlErr != nil {
		return nil, nil, fmt.Errorf("fdpass: recv: raw conn read: %w", ctrlErr)
	}
	if recvErr != nil {
		return nil, nil, fmt.Errorf("fdpass: recv: recvmsg: %w", recvErr)
	}
	if n == 0 && oobn == 0 {
		return nil, nil, nil
	}
	if oobn > 0 {
		scms, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			return nil, nil, fmt.Errorf("fdpass: recv: parse control message: %w", err)
		}
		for _, scm := range scms {
			rights, err := unix.ParseUnixRights(&scm)
			if err != nil {
				continue
			}
			fds = append(fds, rights...)
		}
	}
	return buf[:n], fds, nil
}

// DupDefensive duplicates fd and closes the original, so a malformed or
// duplicate descriptor from a misbehaving peer cannot alias a descriptor
// number the receiver reuses elsewhere. On failure the original fd is
// still closed and the whole message the fd belonged to must be dropped
// (spec §4.1 failure semantics).
func DupDefensive(fd int) (int, error) {
	nfd, err := unix.Dup(fd)
	closeErr := unix.Close(fd)
	if err != nil {
		return -1, fmt.Errorf("fdpass: dup: %w", err)
	}
	if closeErr != nil {
		return -1, fmt.Errorf("fdpass: close original after dup: %w", closeErr)
	}
	return nfd, nil
}

// CloseAll closes every fd in fds, collecting (not stopping on) errors.
func CloseAll(fds []int) error {
	var firstErr error
	for _, fd := range fds {
		if err := unix.Close(fd); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("fdpass: close: %w", err)
		}
	}
	return firstErr
}
