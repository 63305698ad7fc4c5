package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"siteship/internal/logging"
)

// sshExitConnect is the exit status ssh reserves for its own failures,
// as opposed to the remote command's.
const sshExitConnect = 255

// Client is a Runner for a single remote target.
type Client struct {
	target Target
	log    *logrus.Entry

	mu   sync.Mutex
	info *HostInfo
}

// NewClient validates the target and returns a client for it.
func NewClient(target Target) (*Client, error) {
	if target.Host == "" || target.User == "" {
		return nil, ErrNoCredentials
	}
	if target.KeyPath == "" {
		return nil, ErrNoSSHKey
	}
	return &Client{
		target: target,
		log:    logging.WithComponent("ssh").WithField("target", target.UserHost()),
	}, nil
}

// Target returns the target this client talks to.
func (c *Client) Target() Target { return c.target }

// preflight re-checks credentials and the key file right before a
// subprocess is spawned.
func (c *Client) preflight() error {
	if c.target.Host == "" || c.target.User == "" {
		return ErrNoCredentials
	}
	if c.target.KeyPath == "" {
		return ErrNoSSHKey
	}
	if _, err := os.Stat(c.target.KeyPath); err != nil {
		return fmt.Errorf("%w: %s", ErrNoSSHKey, c.target.KeyPath)
	}
	return nil
}

// NonInteractiveArgs returns the flag set every ssh and scp invocation
// carries. Host key checking is disabled so first contact with a
// configured target works unattended. portFlag is -p for ssh and -P
// for scp.
func NonInteractiveArgs(t Target, portFlag string) []string {
	args := []string{
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=no",
		"-i", t.KeyPath,
	}
	if t.Port > 0 && t.Port != 22 {
		args = append(args, portFlag, strconv.Itoa(t.Port))
	}
	return args
}

func (c *Client) baseArgs(portFlag string) []string {
	return NonInteractiveArgs(c.target, portFlag)
}

// Exec runs a command and blocks until it exits.
func (c *Client) Exec(ctx context.Context, command string) (Result, error) {
	s, err := c.Start(ctx, command)
	if err != nil {
		return Result{}, err
	}
	return s.Wait()
}

// ExecStream runs a command with stdout copied to w and stderr
// collected, for commands whose stdout is a byte stream rather than
// text.
func (c *Client) ExecStream(ctx context.Context, command string, w io.Writer) error {
	if err := c.preflight(); err != nil {
		return err
	}

	args := append(c.baseArgs("-p"), c.target.UserHost(), command)
	cmd := exec.CommandContext(ctx, "ssh", args...)
	cmd.Stdout = w
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.log.WithField("command", command).Debug("exec stream")
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			if ee.ExitCode() == sshExitConnect {
				return &ConnectError{Target: c.target.UserHost(), Output: stderr.String(), Err: err}
			}
			return &CommandError{Command: command, ExitCode: ee.ExitCode(), Output: stderr.String()}
		}
		return &ConnectError{Target: c.target.UserHost(), Err: err}
	}
	return nil
}

// Upload copies a local file to the target via scp. Relative remote
// paths resolve against the remote home directory.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := c.preflight(); err != nil {
		return err
	}

	args := append(c.baseArgs("-P"), localPath, c.target.UserHost()+":"+remotePath)
	cmd := exec.CommandContext(ctx, "scp", args...)

	c.log.WithFields(logrus.Fields{"local": localPath, "remote": remotePath}).Debug("upload")
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &UploadError{LocalPath: localPath, RemotePath: remotePath, Output: string(out), Err: err}
	}
	return nil
}
