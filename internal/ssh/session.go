package ssh

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Session is a running remote command. Lines delivers combined output
// one line at a time while the command runs; Wait blocks until exit and
// returns the collected Result. Consume Lines to completion before
// calling Wait, or skip Lines entirely; Wait discards anything left
// undelivered.
type Session struct {
	cmd     *exec.Cmd
	ctx     context.Context
	command string
	target  string
	started time.Time
	lines   chan string
	buf     strings.Builder
	wg      sync.WaitGroup
}

// Start launches a command on the target and returns a Session
// streaming its output.
func (c *Client) Start(ctx context.Context, command string) (*Session, error) {
	if err := c.preflight(); err != nil {
		return nil, err
	}

	args := append(c.baseArgs("-p"), c.target.UserHost(), command)
	cmd := exec.CommandContext(ctx, "ssh", args...)

	c.log.WithField("command", command).Debug("exec")
	return startSession(ctx, cmd, command, c.target.UserHost())
}

func startSession(ctx context.Context, cmd *exec.Cmd, command, target string) (*Session, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	s := &Session{
		cmd:     cmd,
		ctx:     ctx,
		command: command,
		target:  target,
		started: time.Now(),
		lines:   make(chan string, 64),
	}

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, &ConnectError{Target: target, Err: err}
	}

	// The child now holds the only write end, so EOF on the read end
	// tracks process exit.
	pw.Close()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer pr.Close()
		sc := bufio.NewScanner(pr)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			s.buf.WriteString(line)
			s.buf.WriteByte('\n')
			s.lines <- line
		}
		close(s.lines)
	}()

	return s, nil
}

// Lines returns the output channel. It is closed once the command's
// output is exhausted.
func (s *Session) Lines() <-chan string { return s.lines }

// Wait drains any remaining output, reaps the subprocess, and maps the
// exit status onto the transport error types.
func (s *Session) Wait() (Result, error) {
	for range s.lines {
	}
	s.wg.Wait()

	err := s.cmd.Wait()
	res := Result{
		Command:  s.command,
		Output:   s.buf.String(),
		Duration: time.Since(s.started),
	}
	if err == nil {
		return res, nil
	}
	if s.ctx != nil && s.ctx.Err() != nil {
		res.ExitCode = -1
		return res, s.ctx.Err()
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
		if res.ExitCode == sshExitConnect {
			return res, &ConnectError{Target: s.target, Output: res.Output, Err: err}
		}
		return res, &CommandError{Command: s.command, ExitCode: res.ExitCode, Output: res.Output}
	}
	res.ExitCode = -1
	return res, &ConnectError{Target: s.target, Err: err}
}
