// Package tunnel manages a single SSH port-forwarding subprocess, the
// kind used to reach a database bound to a remote loopback.
package tunnel

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"siteship/internal/common"
	"siteship/internal/logging"
	"siteship/internal/ssh"
)

// State describes the manager's view of the tunnel. It is advisory;
// the subprocess handle is authoritative and the two are reconciled
// whenever the tunnel is observed.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Defaults. The local port is deliberately non-standard so a local
// MySQL does not collide with the forwarded one.
const (
	DefaultLocalPort   = 23306
	DefaultRemotePort  = 3306
	DefaultGracePeriod = 1500 * time.Millisecond
)

// Error reports a tunnel that failed to come up, carrying whatever the
// ssh subprocess wrote to stderr before exiting.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("tunnel failed: %s", strings.TrimSpace(e.Reason))
}

// Options configures a tunnel.
type Options struct {
	LocalPort   int           // listen port on this machine
	RemotePort  int           // forwarded port on the target's loopback
	GracePeriod time.Duration // how long to watch the subprocess before declaring it up
}

// Manager supervises at most one forwarding subprocess. All state is
// guarded by one mutex; Connect and Disconnect are safe to call from
// any goroutine.
type Manager struct {
	target ssh.Target
	opts   Options
	log    *logrus.Entry

	mu       sync.Mutex
	state    State
	cmd      *exec.Cmd
	stderr   *bytes.Buffer
	waitDone chan error

	// Injection points for tests.
	launch    func(target ssh.Target, localPort, remotePort int) (*exec.Cmd, *bytes.Buffer, error)
	portOwner func(port int) (int, bool)
	killPID   func(pid int) error
}

// NewManager returns a manager for one tunnel to the target. Zero
// option fields take the package defaults.
func NewManager(target ssh.Target, opts Options) *Manager {
	if opts.LocalPort == 0 {
		opts.LocalPort = DefaultLocalPort
	}
	if opts.RemotePort == 0 {
		opts.RemotePort = DefaultRemotePort
	}
	if opts.GracePeriod == 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	return &Manager{
		target:    target,
		opts:      opts,
		state:     StateDisconnected,
		log:       logging.WithComponent("tunnel"),
		launch:    launchForward,
		portOwner: lsofPortOwner,
		killPID:   kill9,
	}
}

// Addr returns the local endpoint a database client should dial.
func (m *Manager) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", m.opts.LocalPort)
}

// State returns the tunnel state, reconciled against the subprocess.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alive() {
		return StateConnected
	}
	return m.state
}

// Connect brings the tunnel up. It is idempotent while the subprocess
// is alive. If the local port is held by a foreign process it is
// assumed to be a tunnel leaked by an earlier run and is killed before
// the new subprocess starts.
//
// A tunnel is declared up when its subprocess survives the grace
// period. That is a best-effort liveness check: a forward that dies
// later is only noticed on the next observation.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.alive() {
		m.state = StateConnected
		return nil
	}
	m.state = StateConnecting

	m.reclaimPort()

	cmd, stderr, err := m.launch(m.target, m.opts.LocalPort, m.opts.RemotePort)
	if err != nil {
		m.state = StateDisconnected
		return &Error{Reason: err.Error()}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-done:
		// Exited inside the grace period: the forward never came up.
		m.state = StateDisconnected
		return &Error{Reason: stderrString(stderr)}
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		m.state = StateDisconnected
		return ctx.Err()
	case <-time.After(m.opts.GracePeriod):
	}

	m.cmd = cmd
	m.stderr = stderr
	m.waitDone = done
	m.state = StateConnected
	m.log.WithFields(logrus.Fields{
		"local":  m.opts.LocalPort,
		"remote": m.opts.RemotePort,
		"pid":    cmd.Process.Pid,
	}).Info("tunnel up")
	return nil
}

// Disconnect tears the tunnel down synchronously. The subprocess is
// killed and reaped before it returns, so the local port is free.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.alive() {
		m.state = StateDisconnected
		return nil
	}

	pid := m.cmd.Process.Pid
	_ = m.cmd.Process.Kill()
	<-m.waitDone

	m.cmd = nil
	m.waitDone = nil
	m.state = StateDisconnected
	m.log.WithField("pid", pid).Debug("tunnel stopped")
	return nil
}

// alive reports whether the recorded subprocess is still running,
// folding an unnoticed exit into the state. Callers hold m.mu.
func (m *Manager) alive() bool {
	if m.cmd == nil {
		return false
	}
	select {
	case <-m.waitDone:
		m.log.WithField("stderr", stderrString(m.stderr)).Warn("tunnel subprocess exited")
		m.cmd = nil
		m.waitDone = nil
		m.state = StateDisconnected
		return false
	default:
		return true
	}
}

// reclaimPort kills whatever foreign process holds the local port and
// waits briefly for the listener to disappear. Callers hold m.mu.
func (m *Manager) reclaimPort() {
	pid, ok := m.portOwner(m.opts.LocalPort)
	if !ok {
		return
	}
	if m.cmd != nil && m.cmd.Process != nil && pid == m.cmd.Process.Pid {
		return
	}

	m.log.WithFields(logrus.Fields{"port": m.opts.LocalPort, "pid": pid}).Warn("reclaiming local port from stale owner")
	if err := m.killPID(pid); err != nil {
		m.log.WithError(err).WithField("pid", pid).Warn("could not kill stale port owner")
		return
	}
	for i := 0; i < 10; i++ {
		if _, held := m.portOwner(m.opts.LocalPort); !held {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	m.log.WithField("port", m.opts.LocalPort).Warn("local port still held after reclaim")
}

// launchForward spawns ssh -N -L with stderr captured.
// ExitOnForwardFailure makes a failed bind exit inside the grace
// period instead of lingering silently.
func launchForward(target ssh.Target, localPort, remotePort int) (*exec.Cmd, *bytes.Buffer, error) {
	args := append(ssh.NonInteractiveArgs(target, "-p"),
		"-o", "ExitOnForwardFailure=yes",
		"-N",
		"-L", fmt.Sprintf("%d:127.0.0.1:%d", localPort, remotePort),
		target.UserHost(),
	)
	cmd := exec.Command("ssh", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return cmd, &stderr, nil
}

// lsofPortOwner resolves the PID listening on a local port.
func lsofPortOwner(port int) (int, bool) {
	out, err := common.RunOutput("lsof", "-ti", fmt.Sprintf(":%d", port))
	if err != nil || out == "" {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.Fields(out)[0])
	if err != nil {
		return 0, false
	}
	return pid, true
}

func kill9(pid int) error {
	return common.RunQuiet("kill", "-9", strconv.Itoa(pid))
}

// PortOwner reports the pid listening on the local port, if any.
func PortOwner(port int) (int, bool) {
	return lsofPortOwner(port)
}

// Shutdown kills whatever process holds the local port and waits for
// the listener to disappear. It covers tunnels left behind by earlier
// runs, which no Manager in this process knows about.
func Shutdown(port int) error {
	pid, ok := lsofPortOwner(port)
	if !ok {
		return nil
	}
	if err := kill9(pid); err != nil {
		return fmt.Errorf("kill pid %d: %w", pid, err)
	}
	for i := 0; i < 10; i++ {
		if _, held := lsofPortOwner(port); !held {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return &Error{Reason: fmt.Sprintf("port %d still held after kill", port)}
}

func stderrString(b *bytes.Buffer) string {
	if b == nil {
		return ""
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		return s
	}
	return "tunnel process exited"
}
