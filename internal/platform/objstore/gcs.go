package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

// NewGCS opens a bucket-backed store. In ModeGCSEmulator the client talks to
// cfg.EmulatorHost without authentication.
func NewGCS(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	st := &gcsStore{
		log:    log.With("store", "gcs", "bucket", cfg.Bucket),
		client: client,
		bucket: cfg.Bucket,
	}
	st.log.Info("Object storage initialized", "mode", cfg.Mode, "emulator_host", cfg.EmulatorHost)
	return st, nil
}

func newStorageClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	switch cfg.Mode {
	case ModeGCS:
		opts := credentialOptions(cfg.CredentialsFile)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func credentialOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (s *gcsStore) Backend() string { return string(ModeGCS) }

func (s *gcsStore) Path(key string) string {
	return "gs://" + s.bucket + "/" + key
}

func (s *gcsStore) Create(ctx context.Context, key string) (Writer, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	wctx, cancel := context.WithCancel(ctx)
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(wctx)
	w.ContentType = "application/octet-stream"
	return &gcsWriter{w: w, cancel: cancel}, nil
}

func (s *gcsStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, err
	}
	return r, r.Attrs.Size, nil
}

func (s *gcsStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *gcsStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

func (s *gcsStore) List(ctx context.Context) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// gcsWriter finalizes the object on Close; cancelling the context before
// Close discards the upload.
type gcsWriter struct {
	w      *storage.Writer
	cancel context.CancelFunc
	done   bool
}

func (w *gcsWriter) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

func (w *gcsWriter) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	defer w.cancel()
	return w.w.Close()
}

func (w *gcsWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.cancel()
	_ = w.w.Close()
	return nil
}
