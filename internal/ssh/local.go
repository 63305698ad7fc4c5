package ssh

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// LocalRunner is a Runner for the local machine, used for localhost
// targets and tests. Commands run under sh -c.
type LocalRunner struct{}

// Exec runs a command locally and blocks until it exits.
func (LocalRunner) Exec(ctx context.Context, command string) (Result, error) {
	started := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()

	res := Result{Command: command, Output: string(out), Duration: time.Since(started)}
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		res.ExitCode = -1
		return res, ctx.Err()
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
		return res, &CommandError{Command: command, ExitCode: res.ExitCode, Output: res.Output}
	}
	res.ExitCode = -1
	return res, &ConnectError{Target: "localhost", Err: err}
}

// Upload copies a file on the local filesystem. Relative destinations
// resolve against the home directory, matching scp's behavior.
func (LocalRunner) Upload(ctx context.Context, localPath, remotePath string) error {
	dst := remotePath
	if !filepath.IsAbs(dst) {
		home, err := os.UserHomeDir()
		if err != nil {
			return &UploadError{LocalPath: localPath, RemotePath: remotePath, Err: err}
		}
		dst = filepath.Join(home, dst)
	}
	if err := copyFile(localPath, dst); err != nil {
		return &UploadError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	return nil
}

// copyFile copies a file from src to dst, preserving its mode.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
