// Package syncfile wraps a Linux sync-file: a file descriptor representing
// a GPU fence, pollable for completion (spec §9 GLOSSARY "Sync-file").
//
// The contract here resolves the spec's Open Question on ready_frame:
// non-blocking, FD-consuming, POLLIN|POLLHUP as "signalled". Both
// ipc.Session.ReadyFrame (polling the client's release fence) and
// ipc.Client.ReadyFrame (polling the server's acquire fence) use the same
// Poll contract so the two subtly different ready_frame variants in the
// source this spec was distilled from collapse into one.
package syncfile

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// File is an owned sync-file descriptor.
type File struct {
	fd int
}

// New wraps fd. Ownership of fd transfers to the returned File: Close (or a
// signalled Poll) closes it.
func New(fd int) *File {
	return &File{fd: fd}
}

// FD returns the underlying descriptor without transferring ownership.
// Valid only until the File is closed or consumed by a signalled Poll.
func (f *File) FD() int {
	return f.fd
}

// Poll performs a single non-blocking check of whether the fence has
// signalled. It never blocks: the poll(2) timeout is always zero.
//
// If the fence has signalled (POLLIN or POLLHUP set), Poll closes the
// underlying descriptor and returns (true, nil); the File must not be used
// again. If not yet signalled, Poll returns (false, nil) and the File
// remains valid for a later Poll or Wait.
func (f *File) Poll() (signalled bool, err error) {
	if f.fd < 0 {
		return false, fmt.Errorf("syncfile: poll on closed file")
	}
	fds := []unix.PollFd{{Fd: int32(f.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("syncfile: poll: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&(unix.POLLIN|unix.POLLHUP) == 0 {
		return false, nil
	}
	f.close()
	return true, nil
}

// Wait blocks until the fence signals or timeoutMs elapses (-1 blocks
// forever). Reserved for teardown paths (e.g. waiting for a client's last
// release fence before freeing its resources) where a busy Poll loop would
// be wasteful; steady-state per-tick code uses Poll.
func (f *File) Wait(timeoutMs int) (signalled bool, err error) {
	if f.fd < 0 {
		return false, fmt.Errorf("syncfile: wait on closed file")
	}
	fds := []unix.PollFd{{Fd: int32(f.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		return false, fmt.Errorf("syncfile: poll: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&(unix.POLLIN|unix.POLLHUP) == 0 {
		return false, nil
	}
	f.close()
	return true, nil
}

// Dup returns a new File wrapping a dup(2) of the underlying descriptor,
// leaving f valid and independently owned. Used when the same fence needs
// to be handed to two consumers (e.g. kept locally for Wait while also
// sent across the fabric).
func (f *File) Dup() (*File, error) {
	if f.fd < 0 {
		return nil, fmt.Errorf("syncfile: dup of closed file")
	}
	nfd, err := unix.Dup(f.fd)
	if err != nil {
		return nil, fmt.Errorf("syncfile: dup: %w", err)
	}
	return &File{fd: nfd}, nil
}

// Close releases the descriptor if still open. Safe to call on an already
// consumed or closed File.
func (f *File) Close() error {
	if f.fd < 0 {
		return nil
	}
	err := unix.Close(f.fd)
	f.fd = -1
	if err != nil {
		return fmt.Errorf("syncfile: close: %w", err)
	}
	return nil
}

func (f *File) close() {
	if f.fd >= 0 {
		unix.Close(f.fd)
		f.fd = -1
	}
}
