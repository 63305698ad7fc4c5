// Package ssh runs commands and file transfers on deployment targets
// by shelling out to the installed ssh and scp binaries. It never
// speaks the SSH protocol itself; every operation spawns a fresh
// subprocess and nothing is pooled or reused.
package ssh

import (
	"context"
	"time"
)

// Target identifies a remote host and the credentials used to reach it.
type Target struct {
	Host    string // hostname or IP
	User    string // remote login user
	Port    int    // 0 means the ssh default
	KeyPath string // private key file
}

// UserHost returns the user@host form ssh and scp expect.
func (t Target) UserHost() string {
	return t.User + "@" + t.Host
}

// Result holds the outcome of one command.
type Result struct {
	Command  string        // the command as sent
	Output   string        // combined stdout and stderr
	ExitCode int           // -1 when the process never ran to completion
	Duration time.Duration // wall time from spawn to exit
}

// Runner executes commands and uploads files on a deployment target.
type Runner interface {
	// Exec runs a command and blocks until it exits, returning the
	// combined output. A nonzero exit is reported as an error; the
	// Result is populated either way.
	Exec(ctx context.Context, command string) (Result, error)

	// Upload copies a local file to a path on the target. Relative
	// remote paths resolve against the remote home directory.
	Upload(ctx context.Context, localPath, remotePath string) error
}
