package tunnel

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"siteship/internal/ssh"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(
		ssh.Target{Host: "db.example.com", User: "deploy", KeyPath: "/k"},
		Options{GracePeriod: 50 * time.Millisecond},
	)
	m.portOwner = func(int) (int, bool) { return 0, false }
	m.killPID = func(int) error { return nil }
	return m
}

// launchSleep stands in for the ssh forward with a long-lived local
// process, recording every spawn.
func launchSleep(procs *[]*exec.Cmd) func(ssh.Target, int, int) (*exec.Cmd, *bytes.Buffer, error) {
	return func(ssh.Target, int, int) (*exec.Cmd, *bytes.Buffer, error) {
		cmd := exec.Command("sleep", "60")
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Start(); err != nil {
			return nil, nil, err
		}
		*procs = append(*procs, cmd)
		return cmd, &stderr, nil
	}
}

func TestConnectDisconnectReconnect(t *testing.T) {
	var procs []*exec.Cmd
	m := testManager(t)
	m.launch = launchSleep(&procs)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := m.State(); got != StateConnected {
		t.Errorf("state = %s, want connected", got)
	}

	if err := m.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if got := m.State(); got != StateDisconnected {
		t.Errorf("state = %s, want disconnected", got)
	}
	if procs[0].ProcessState == nil {
		t.Error("subprocess was not reaped on disconnect")
	}

	// The port owner reports nothing bound, so a second connect must
	// come up clean rather than trip over its own remains.
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if len(procs) != 2 {
		t.Errorf("launched %d subprocesses, want 2", len(procs))
	}
	m.Disconnect()
}

func TestConnectIdempotentWhileAlive(t *testing.T) {
	var procs []*exec.Cmd
	m := testManager(t)
	m.launch = launchSleep(&procs)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer m.Disconnect()

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if len(procs) != 1 {
		t.Errorf("launched %d subprocesses, want 1", len(procs))
	}
}

func TestConnectEarlyExitReportsStderr(t *testing.T) {
	m := testManager(t)
	m.opts.GracePeriod = 5 * time.Second
	m.launch = func(ssh.Target, int, int) (*exec.Cmd, *bytes.Buffer, error) {
		cmd := exec.Command("sh", "-c", "echo 'bind: Address already in use' >&2; exit 255")
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Start(); err != nil {
			return nil, nil, err
		}
		return cmd, &stderr, nil
	}

	err := m.Connect(context.Background())
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("error = %T %v, want tunnel.Error", err, err)
	}
	if !strings.Contains(terr.Reason, "Address already in use") {
		t.Errorf("reason = %q, want captured stderr", terr.Reason)
	}
	if got := m.State(); got != StateDisconnected {
		t.Errorf("state = %s, want disconnected", got)
	}
}

func TestConnectReclaimsStalePort(t *testing.T) {
	var procs []*exec.Cmd
	var killed []int
	m := testManager(t)
	m.launch = launchSleep(&procs)

	calls := 0
	m.portOwner = func(port int) (int, bool) {
		calls++
		if calls == 1 {
			return 4242, true
		}
		return 0, false
	}
	m.killPID = func(pid int) error {
		killed = append(killed, pid)
		return nil
	}

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer m.Disconnect()

	if len(killed) != 1 || killed[0] != 4242 {
		t.Errorf("killed = %v, want [4242]", killed)
	}
}
