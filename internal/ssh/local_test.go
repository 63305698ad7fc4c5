package ssh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalRunnerExec(t *testing.T) {
	var r LocalRunner
	res, err := r.Exec(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if res.Output != "hello\n" {
		t.Errorf("output = %q", res.Output)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
}

func TestLocalRunnerExecFailure(t *testing.T) {
	var r LocalRunner
	res, err := r.Exec(context.Background(), "echo bad >&2; exit 2")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %T %v, want CommandError", err, err)
	}
	if cmdErr.ExitCode != 2 {
		t.Errorf("exit code = %d, want 2", cmdErr.ExitCode)
	}
	if !strings.Contains(res.Output, "bad") {
		t.Errorf("output = %q, want stderr captured", res.Output)
	}
}

func TestLocalRunnerUpload(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "artifact.zip")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "staged.zip")

	var r LocalRunner
	if err := r.Upload(context.Background(), src, dst); err != nil {
		t.Fatalf("upload: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("copied content = %q", data)
	}
}

func TestLocalRunnerUploadMissingSource(t *testing.T) {
	dir := t.TempDir()

	var r LocalRunner
	err := r.Upload(context.Background(), filepath.Join(dir, "absent.zip"), filepath.Join(dir, "out.zip"))

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %T %v, want UploadError", err, err)
	}
}
