package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	tmpDir := t.TempDir()

	l, err := Acquire(tmpDir, "confchat")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "LOCK"))
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	info := parseInfo(string(data))
	if info.PID != os.Getpid() || info.Command != "confchat" || info.Started.IsZero() {
		t.Errorf("lock info = %+v", info)
	}

	if err := l.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "LOCK")); !os.IsNotExist(err) {
		t.Error("lock file left behind")
	}
}

func TestDoubleAcquireFails(t *testing.T) {
	tmpDir := t.TempDir()

	l1, err := Acquire(tmpDir, "confchat")
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer func() { _ = l1.Release() }()

	_, err = Acquire(tmpDir, "confchatctl")
	if err == nil {
		t.Fatal("second Acquire() should fail")
	}

	var lockErr *LockHeldError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockHeldError, got %T: %v", err, err)
	}
	if lockErr.Holder.Command != "confchat" {
		t.Errorf("holder = %+v", lockErr.Holder)
	}
}

func TestInspect(t *testing.T) {
	tmpDir := t.TempDir()

	info, err := Inspect(tmpDir)
	if err != nil || info != nil {
		t.Fatalf("Inspect() on empty dir = %+v, %v", info, err)
	}

	l, err := Acquire(tmpDir, "confchat")
	if err != nil {
		t.Fatal(err)
	}
	info, err = Inspect(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if info == nil || info.PID != os.Getpid() {
		t.Errorf("Inspect() = %+v, want current process", info)
	}
	_ = l.Release()

	// A leftover file nobody holds is reported as free.
	if err := os.WriteFile(filepath.Join(tmpDir, "LOCK"), []byte("pid=1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if info, err := Inspect(tmpDir); err != nil || info != nil {
		t.Errorf("Inspect() on stale file = %+v, %v", info, err)
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	l, err := Acquire(t.TempDir(), "confchat")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if err := l.Release(); err != nil {
		t.Errorf("first Release() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}
