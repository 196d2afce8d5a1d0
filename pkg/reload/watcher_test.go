package reload

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// startWatcher runs w until the test ends and waits for it to settle.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Watch(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})
	time.Sleep(100 * time.Millisecond)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewWatcher_Errors(t *testing.T) {
	if _, err := NewWatcher(func() error { return nil }); err == nil {
		t.Error("expected error with no paths")
	}
	if _, err := NewWatcher(func() error { return nil }, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestWatcher_FileDirectWrite(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "jsproc.yaml")
	writeFile(t, configPath, "env: development\n")

	var callCount atomic.Int32
	watcher, err := NewWatcher(func() error {
		callCount.Add(1)
		return nil
	}, configPath)
	if err != nil {
		t.Fatal(err)
	}
	watcher.SetDebounce(50 * time.Millisecond)
	startWatcher(t, watcher)

	writeFile(t, configPath, "env: test\n")
	// Other files in the directory are ignored.
	writeFile(t, filepath.Join(tmpDir, "other.yaml"), "x: 1\n")

	time.Sleep(200 * time.Millisecond)

	if callCount.Load() != 1 {
		t.Errorf("expected onChange to be called once, got %d", callCount.Load())
	}
}

func TestWatcher_FileAtomicSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "jsproc.yaml")
	writeFile(t, configPath, "env: development\n")

	var callCount atomic.Int32
	watcher, err := NewWatcher(func() error {
		callCount.Add(1)
		return nil
	}, configPath)
	if err != nil {
		t.Fatal(err)
	}
	watcher.SetDebounce(50 * time.Millisecond)
	startWatcher(t, watcher)

	tmpPath := filepath.Join(tmpDir, "jsproc.yaml.tmp")
	writeFile(t, tmpPath, "env: test\n")
	if err := os.Rename(tmpPath, configPath); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)

	if callCount.Load() < 1 {
		t.Errorf("expected onChange to be called at least once for atomic save, got %d", callCount.Load())
	}
}

func TestWatcher_DirectoryExtensions(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "index.js"), "export {};\n")

	var callCount atomic.Int32
	watcher, err := NewWatcher(func() error {
		callCount.Add(1)
		return nil
	}, srcDir)
	if err != nil {
		t.Fatal(err)
	}
	watcher.SetDebounce(50 * time.Millisecond)
	watcher.SetExtensions("js")
	startWatcher(t, watcher)

	writeFile(t, filepath.Join(srcDir, "notes.txt"), "ignored\n")
	writeFile(t, filepath.Join(srcDir, ".index.js.swp"), "ignored\n")
	time.Sleep(200 * time.Millisecond)
	if callCount.Load() != 0 {
		t.Fatalf("unrelated files should not trigger a reload, got %d", callCount.Load())
	}

	writeFile(t, filepath.Join(srcDir, "minify.js"), "export {};\n")
	time.Sleep(200 * time.Millisecond)
	if callCount.Load() != 1 {
		t.Fatalf("expected one reload for a new source file, got %d", callCount.Load())
	}

	if err := os.Remove(filepath.Join(srcDir, "minify.js")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if callCount.Load() != 2 {
		t.Errorf("expected a reload for a removed source file, got %d", callCount.Load())
	}
}

func TestWatcher_MultipleWritesDebounced(t *testing.T) {
	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "transpile.js")
	writeFile(t, path, "export {};\n")

	var callCount atomic.Int32
	watcher, err := NewWatcher(func() error {
		callCount.Add(1)
		return nil
	}, srcDir)
	if err != nil {
		t.Fatal(err)
	}
	watcher.SetDebounce(100 * time.Millisecond)
	startWatcher(t, watcher)

	// Multiple rapid writes should be debounced to one call
	for i := 0; i < 5; i++ {
		writeFile(t, path, "export const v = "+string(rune('a'+i))+";\n")
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)

	if callCount.Load() != 1 {
		t.Errorf("expected rapid writes to be debounced to 1 call, got %d", callCount.Load())
	}
}
