package ssh

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCredentials means the target lacks a host or user.
	ErrNoCredentials = errors.New("host and user are required")

	// ErrNoSSHKey means the configured key file does not exist.
	ErrNoSSHKey = errors.New("ssh key file not found")
)

// ConnectError means ssh could not reach or authenticate with the
// target, or the subprocess could not be spawned at all. The remote
// command never ran.
type ConnectError struct {
	Target string
	Output string
	Err    error
}

func (e *ConnectError) Error() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return fmt.Sprintf("connect to %s: %s", e.Target, out)
	}
	return fmt.Sprintf("connect to %s: %v", e.Target, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// CommandError means the remote command ran and exited nonzero.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("remote command exited %d: %s", e.ExitCode, strings.TrimSpace(e.Output))
}

// UploadError means scp failed to copy a file to the target.
type UploadError struct {
	LocalPath  string
	RemotePath string
	Output     string
	Err        error
}

func (e *UploadError) Error() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return fmt.Sprintf("upload %s: %s", e.LocalPath, out)
	}
	return fmt.Sprintf("upload %s: %v", e.LocalPath, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
