package state

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

func startWatcher(t *testing.T, vault string, opts ...WatcherOption) (*VaultWatcher, <-chan []string) {
	t.Helper()

	w, err := NewVaultWatcher(vault, opts...)
	if err != nil {
		t.Fatalf("NewVaultWatcher returned error: %v", err)
	}

	batches := make(chan []string, 16)
	w.OnBatch(func(rels []string) {
		batches <- rels
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w, batches
}

func waitForPath(t *testing.T, batches <-chan []string, want string) []string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch := <-batches:
			if slices.Contains(batch, want) {
				return batch
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestVaultWatcherReportsNoteChanges(t *testing.T) {
	vault := t.TempDir()
	w, batches := startWatcher(t, vault, WithDebounce(20*time.Millisecond))

	var mu sync.Mutex
	var changed []string
	w.OnChange(func(rel string) {
		mu.Lock()
		changed = append(changed, rel)
		mu.Unlock()
	})

	if err := os.WriteFile(filepath.Join(vault, "note.md"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write note: %v", err)
	}

	batch := waitForPath(t, batches, "note.md")
	if slices.Contains(batch, "") {
		t.Fatalf("unexpected empty path in batch %v", batch)
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Contains(changed, "note.md") {
		t.Fatalf("expected change callback for note.md, got %v", changed)
	}
}

func TestVaultWatcherFollowsNewDirectories(t *testing.T) {
	vault := t.TempDir()
	_, batches := startWatcher(t, vault, WithDebounce(20*time.Millisecond))

	dir := filepath.Join(vault, "projects")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// give the watcher time to pick up the directory
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "plan.md"), []byte("plan"), 0o644); err != nil {
		t.Fatalf("write note: %v", err)
	}
	waitForPath(t, batches, "projects/plan.md")
}

func TestVaultWatcherSkipsHiddenAndIgnoredFolders(t *testing.T) {
	vault := t.TempDir()
	for _, dir := range []string{".obsidian", "archive"} {
		if err := os.Mkdir(filepath.Join(vault, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	_, batches := startWatcher(t, vault, WithDebounce(20*time.Millisecond), WithIgnoredFolders([]string{"archive"}))

	for _, rel := range []string{".obsidian/workspace.md", "archive/old.md", "visible.md"} {
		if err := os.WriteFile(filepath.Join(vault, filepath.FromSlash(rel)), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}

	batch := waitForPath(t, batches, "visible.md")
	for _, rel := range batch {
		if rel != "visible.md" {
			t.Fatalf("unexpected path %q in batch %v", rel, batch)
		}
	}
}

func TestVaultWatcherCloseRunsCallbackOnce(t *testing.T) {
	w, err := NewVaultWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewVaultWatcher returned error: %v", err)
	}

	calls := 0
	w.OnClose(func() { calls++ })
	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	_ = w.Close()
	if calls != 1 {
		t.Fatalf("expected close callback once, got %d", calls)
	}

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run on closed watcher returned error: %v", err)
	}
}

func TestNewVaultWatcherRejectsEmptyVault(t *testing.T) {
	if _, err := NewVaultWatcher(""); err == nil {
		t.Fatalf("expected error for empty vault")
	}
}
