// Package artifact manages the on-disk bundle of the transformation program.
//
// Production processes share a single prebuilt bundle. Every other process
// writes its own bundle, keyed by PID, so concurrent development servers do
// not overwrite each other's output.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	// FileName is the bundle name used in production.
	FileName = "js-processor.js"
	// PerProcessDir holds per-PID bundles outside production.
	PerProcessDir = "js-processor"
)

// Path returns the bundle location below dir.
func Path(dir string, production bool) string {
	if production {
		return filepath.Join(dir, FileName)
	}
	return PIDPath(dir, os.Getpid())
}

// PIDPath returns the per-process bundle path for pid.
func PIDPath(dir string, pid int) string {
	return filepath.Join(dir, PerProcessDir, strconv.Itoa(pid)+".js")
}

// LockPath returns the lock file guarding builds of the bundle at path.
func LockPath(path string) string {
	return path + ".lock"
}

// Write stores data at path via a temp file and rename, so readers never
// observe a partially written bundle.
func Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".js-processor-*")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("installing artifact: %w", err)
	}
	return nil
}

// Remove deletes the bundle at path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CleanStale removes per-process bundles left behind by processes that are
// no longer running and returns the removed paths.
func CleanStale(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dir, PerProcessDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".js" {
			continue
		}

		pid, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".js"))
		if err != nil {
			continue // Not one of ours
		}
		if VerifyPID(pid) {
			continue
		}

		path := PIDPath(dir, pid)
		if err := Remove(path); err != nil {
			return removed, fmt.Errorf("removing stale artifact %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// VerifyPID checks if a process with the given PID is running.
func VerifyPID(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 checks for existence without killing
	return process.Signal(syscall.Signal(0)) == nil
}

// WithLock runs fn while holding an exclusive advisory lock on lockPath.
// It gives up after timeout.
func WithLock(lockPath string, timeout time.Duration, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	defer lockFile.Close()

	deadline := time.Now().Add(timeout)
	for {
		err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout acquiring build lock %s (another build may be in progress)", lockPath)
		}
		time.Sleep(100 * time.Millisecond)
	}
	defer func() {
		_ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
	}()

	return fn()
}
