package procwatch

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestAliveSelf(t *testing.T) {
	if !Alive(int32(os.Getpid())) {
		t.Fatal("expected current process to be alive")
	}
}

func TestAliveExitedProcess(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("could not run helper process: %v", err)
	}
	if Alive(int32(cmd.Process.Pid)) {
		t.Fatal("expected exited, waited process to be reported dead")
	}
}

func TestWatchFiresOnDead(t *testing.T) {
	cmd := exec.Command("sleep", "0.05")
	if err := cmd.Start(); err != nil {
		t.Skipf("could not start helper process: %v", err)
	}

	dead := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go Watch(ctx, int32(cmd.Process.Pid), 10*time.Millisecond, func() { close(dead) })

	select {
	case <-dead:
	case <-ctx.Done():
		t.Fatal("Watch did not observe process death in time")
	}
	cmd.Wait()
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		Watch(ctx, int32(os.Getpid()), 5*time.Millisecond, func() { called <- struct{}{} })
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after context cancellation")
	}
	select {
	case <-called:
		t.Fatal("onDead should not fire when the watched pid stays alive")
	default:
	}
}
