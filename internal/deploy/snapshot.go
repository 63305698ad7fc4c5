package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"

	"siteship/internal/ssh"
)

// StreamRunner runs a remote command with stdout streamed to a writer.
// *ssh.Client satisfies it.
type StreamRunner interface {
	ExecStream(ctx context.Context, command string, w io.Writer) error
}

// Snapshot tars the component's live directory on the remote host and
// stores it locally as <destDir>/<id>-<timestamp>.tar.xz. It returns
// the written path.
func Snapshot(ctx context.Context, runner StreamRunner, paths *PathResolver, c Component, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s.tar.xz", c.ID, time.Now().Format("20060102-150405"))
	dest := filepath.Join(destDir, name)

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}

	xw, err := xz.NewWriter(f)
	if err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("create xz writer: %w", err)
	}

	dir := paths.ComponentDir(c)
	cmd := fmt.Sprintf("tar -C %s -cf - %s",
		ssh.Quote(path.Dir(dir)), ssh.Quote(path.Base(dir)))

	streamErr := runner.ExecStream(ctx, cmd, xw)
	if err := xw.Close(); err != nil && streamErr == nil {
		streamErr = err
	}
	if err := f.Close(); err != nil && streamErr == nil {
		streamErr = err
	}
	if streamErr != nil {
		os.Remove(dest)
		return "", fmt.Errorf("snapshot %s: %w", c.ID, streamErr)
	}
	return dest, nil
}
