package objstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/gma-backend/internal/platform/logger"
)

func newTestLocal(t *testing.T) (Store, string) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	root := filepath.Join(t.TempDir(), "uploads")
	st, err := NewLocal(log, root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return st, root
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, root := newTestLocal(t)

	w, err := st.Create(ctx, "20250101_120000_clip.mp4")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte("frames")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if got := st.Path("20250101_120000_clip.mp4"); got != filepath.Join(root, "20250101_120000_clip.mp4") {
		t.Fatalf("Path: got %q", got)
	}
	ok, err := st.Exists(ctx, "20250101_120000_clip.mp4")
	if err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}

	rc, size, err := st.Open(ctx, "20250101_120000_clip.mp4")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "frames" || size != 6 {
		t.Fatalf("Open: body=%q size=%d", body, size)
	}

	keys, err := st.List(ctx)
	if err != nil || len(keys) != 1 {
		t.Fatalf("List: keys=%v err=%v", keys, err)
	}

	if err := st.Remove(ctx, "20250101_120000_clip.mp4"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := st.Remove(ctx, "20250101_120000_clip.mp4"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("second Remove: want ErrObjectNotFound got %v", err)
	}
	if _, _, err := st.Open(ctx, "20250101_120000_clip.mp4"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Open after remove: want ErrObjectNotFound got %v", err)
	}
}

func TestLocalStoreAbortLeavesNothing(t *testing.T) {
	ctx := context.Background()
	st, root := newTestLocal(t)

	w, err := st.Create(ctx, "partial.mov")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _ = w.Write([]byte("half a video"))
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "partial.mov")); !os.IsNotExist(err) {
		t.Fatalf("partial file still present: %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit after Abort should be a no-op: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	st, _ := newTestLocal(t)
	if _, err := st.Create(context.Background(), "../escape.mp4"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if ok, _ := st.Exists(context.Background(), "../escape.mp4"); ok {
		t.Fatal("traversal key reported as existing")
	}
}

func TestLocalStoreAbortKeepsCommittedObject(t *testing.T) {
	ctx := context.Background()
	st, root := newTestLocal(t)
	const key = "20250101_120000_clip.mp4"

	w, err := st.Create(ctx, key)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _ = w.Write([]byte("committed"))
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	w2, err := st.Create(ctx, key)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	_, _ = w2.Write([]byte("doomed bytes"))
	if err := w2.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	rc, size, err := st.Open(ctx, key)
	if err != nil {
		t.Fatalf("committed object lost after aborted rewrite: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "committed" || size != int64(len("committed")) {
		t.Fatalf("committed object changed: body=%q size=%d", body, size)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestLocalStoreCommitReplacesAndHidesInFlightWrites(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestLocal(t)
	const key = "20250101_120000_clip.mp4"

	for _, body := range []string{"first", "second"} {
		w, err := st.Create(ctx, key)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		_, _ = w.Write([]byte(body))
		if err := w.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	inflight, err := st.Create(ctx, "20250101_120001_other.mp4")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer inflight.Abort()
	_, _ = inflight.Write([]byte("partial"))

	keys, err := st.List(ctx)
	if err != nil || len(keys) != 1 || keys[0] != key {
		t.Fatalf("List should show only committed objects: keys=%v err=%v", keys, err)
	}
	rc, _, err := st.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "second" {
		t.Fatalf("Commit did not replace: %q", body)
	}
}

func TestLocalStoreFailedCommitLeavesNoTempFile(t *testing.T) {
	ctx := context.Background()
	st, root := newTestLocal(t)
	key := "20250101_120000_blocked.mp4"

	// A non-empty directory at the key makes the final rename fail.
	if err := os.MkdirAll(filepath.Join(root, key), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, key, "keep"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := st.Create(ctx, key)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte("frames")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Commit(); err == nil {
		t.Fatal("expected commit over a directory to fail")
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != key {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("leftover entries after failed commit: %v", names)
	}
	if _, err := os.Stat(filepath.Join(root, key, "keep")); err != nil {
		t.Fatalf("existing entry disturbed: %v", err)
	}
}
