package fdpass

import (
	"net"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// socketpairConns returns a connected pair of *net.UnixConn backed by a
// real AF_UNIX socketpair, so SCM_RIGHTS behaves as it would between two
// processes.
func socketpairConns(t *testing.T) (a, b *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	toConn := func(fd int) *net.UnixConn {
		f := os.NewFile(uintptr(fd), "sp")
		c, err := net.FileConn(f)
		f.Close()
		if err != nil {
			t.Fatalf("FileConn: %v", err)
		}
		uc, ok := c.(*net.UnixConn)
		if !ok {
			t.Fatalf("FileConn did not return *net.UnixConn")
		}
		return uc
	}
	a = toConn(fds[0])
	b = toConn(fds[1])
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

func TestSendRecvPayloadOnly(t *testing.T) {
	a, b := socketpairConns(t)
	if err := Send(a, []byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	payload, fds, err := Recv(b, 64)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(payload) != "hello" {
		t.Fatalf("payload = %q", payload)
	}
	if len(fds) != 0 {
		t.Fatalf("expected no fds, got %v", fds)
	}
}

func TestSendRecvWithFD(t *testing.T) {
	a, b := socketpairConns(t)

	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(pipeFds[1])

	if err := Send(a, []byte("dmabuf"), pipeFds[0]); err != nil {
		t.Fatalf("Send: %v", err)
	}
	unix.Close(pipeFds[0]) // sender's copy no longer needed after send

	payload, fds, err := Recv(b, 64)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(payload) != "dmabuf" {
		t.Fatalf("payload = %q", payload)
	}
	if len(fds) != 1 {
		t.Fatalf("expected 1 fd, got %d", len(fds))
	}
	defer unix.Close(fds[0])

	if _, err := unix.Write(pipeFds[1], []byte{1}); err != nil {
		t.Fatalf("write to pipe: %v", err)
	}
	rbuf := make([]byte, 1)
	if _, err := unix.Read(fds[0], rbuf); err != nil {
		t.Fatalf("read from received fd: %v", err)
	}
	if rbuf[0] != 1 {
		t.Fatalf("got %v, want [1]", rbuf)
	}
}

func TestDupDefensive(t *testing.T) {
	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(fds[1])
	nfd, err := DupDefensive(fds[0])
	if err != nil {
		t.Fatalf("DupDefensive: %v", err)
	}
	defer unix.Close(nfd)
	if nfd == fds[0] {
		t.Fatal("expected a distinct descriptor number")
	}
	// original must be closed: writing to it as a reader is nonsensical,
	// instead verify the dup works by round-tripping a byte through it.
	if _, err := unix.Write(fds[1], []byte{7}); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := unix.Read(nfd, buf); err != nil {
		t.Fatalf("read via dup: %v", err)
	}
	if buf[0] != 7 {
		t.Fatalf("got %v, want [7]", buf)
	}
}

func TestCloseAllCollectsFirstError(t *testing.T) {
	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if err := CloseAll(fds); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	// second close of already-closed fds should surface an error, not panic
	if err := CloseAll(fds); err == nil {
		t.Fatal("expected error closing already-closed fds")
	}
}
