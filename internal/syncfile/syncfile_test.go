package syncfile

import (
	"testing"

	"golang.org/x/sys/unix"
)

// pipeFile returns a syncfile.File wrapping the read end of a pipe, and a
// function that writes a byte into it (simulating the fence signalling).
func pipeFile(t *testing.T) (f *File, signal func()) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() { unix.Close(fds[1]) })
	return New(fds[0]), func() {
		if _, err := unix.Write(fds[1], []byte{0}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func TestPollNotSignalled(t *testing.T) {
	f, _ := pipeFile(t)
	defer f.Close()
	signalled, err := f.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if signalled {
		t.Fatal("expected not signalled")
	}
}

func TestPollSignalledClosesFD(t *testing.T) {
	f, signal := pipeFile(t)
	signal()
	signalled, err := f.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !signalled {
		t.Fatal("expected signalled")
	}
	if f.fd != -1 {
		t.Fatalf("fd not cleared after signalled poll: %d", f.fd)
	}
}

func TestWaitBlocksUntilSignalled(t *testing.T) {
	f, signal := pipeFile(t)
	signal()
	signalled, err := f.Wait(1000)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !signalled {
		t.Fatal("expected signalled")
	}
}

func TestWaitTimesOut(t *testing.T) {
	f, _ := pipeFile(t)
	defer f.Close()
	signalled, err := f.Wait(10)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if signalled {
		t.Fatal("expected timeout, not signalled")
	}
}

func TestDupIndependentOwnership(t *testing.T) {
	f, signal := pipeFile(t)
	dup, err := f.Dup()
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close original: %v", err)
	}
	signal()
	signalled, err := dup.Poll()
	if err != nil {
		t.Fatalf("Poll on dup: %v", err)
	}
	if !signalled {
		t.Fatal("expected dup to observe signal independently of original")
	}
}

func TestPollOnClosedFileErrors(t *testing.T) {
	f, _ := pipeFile(t)
	f.Close()
	if _, err := f.Poll(); err == nil {
		t.Fatal("expected error polling a closed file")
	}
}
