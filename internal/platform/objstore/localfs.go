package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type localStore struct {
	log  *logger.Logger
	root string
}

// NewLocal stores objects as flat files under root, creating it if needed.
func NewLocal(log *logger.Logger, root string) (Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, &ConfigError{Code: ConfigErrorMissingRoot, Mode: string(ModeLocal)}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &localStore{log: log.With("store", "local"), root: root}, nil
}

func (s *localStore) Backend() string { return string(ModeLocal) }

func (s *localStore) Path(key string) string {
	return filepath.Join(s.root, key)
}

func (s *localStore) Create(ctx context.Context, key string) (Writer, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Bytes land in a temp file and are renamed onto the key on Commit, so
	// a failed write never touches an object already stored under key.
	f, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", key, err)
	}
	return &fileWriter{f: f, tmp: f.Name(), path: s.Path(key)}, nil
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if err := checkKey(key); err != nil {
		return nil, 0, ErrObjectNotFound
	}
	f, err := os.Open(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, 0, ErrObjectNotFound
	}
	return f, st.Size(), nil
}

func (s *localStore) Exists(ctx context.Context, key string) (bool, error) {
	if checkKey(key) != nil {
		return false, nil
	}
	st, err := os.Stat(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !st.IsDir(), nil
}

func (s *localStore) Remove(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return ErrObjectNotFound
	}
	if err := os.Remove(s.Path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

func (s *localStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), tempPrefix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// In-flight writes; never listed and never valid keys.
const tempPrefix = ".upload-"

type fileWriter struct {
	f    *os.File
	tmp  string
	path string
	done bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *fileWriter) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = os.Remove(w.tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.tmp)
		return err
	}
	if err := os.Chmod(w.tmp, 0o644); err != nil {
		_ = os.Remove(w.tmp)
		return err
	}
	if err := os.Rename(w.tmp, w.path); err != nil {
		_ = os.Remove(w.tmp)
		return err
	}
	return nil
}

func (w *fileWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close()
	if err := os.Remove(w.tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// checkKey rejects keys that would escape the store's namespace.
func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.HasPrefix(key, tempPrefix) || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
