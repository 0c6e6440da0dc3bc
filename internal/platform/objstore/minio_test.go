package objstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type recordedPut struct {
	size int64
	opts minio.PutObjectOptions
	body []byte
	err  error
}

func newFakeMinio(t *testing.T, calls chan<- recordedPut) *minioStore {
	t.Helper()
	log, _ := logger.New("test")
	return &minioStore{
		log:    log,
		bucket: "videos",
		put: func(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
			body, err := io.ReadAll(r)
			calls <- recordedPut{size: size, opts: opts, body: body, err: err}
			if err != nil {
				return minio.UploadInfo{}, err
			}
			return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(body))}, nil
		},
	}
}

func TestMinioStreamsWithBoundedPartSize(t *testing.T) {
	calls := make(chan recordedPut, 1)
	st := newFakeMinio(t, calls)

	w, err := st.Create(context.Background(), "20250101_120000_clip.mp4")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte("frames")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got := <-calls
	if got.size != -1 {
		t.Fatalf("size: want -1 (streamed) got %d", got.size)
	}
	if got.opts.PartSize != MinioPartSize {
		t.Fatalf("PartSize: want %d got %d", MinioPartSize, got.opts.PartSize)
	}
	if got.opts.PartSize < 5<<20 || got.opts.PartSize > 64<<20 {
		t.Fatalf("PartSize %d outside the per-upload memory budget", got.opts.PartSize)
	}
	if got.opts.ConcurrentStreamParts {
		t.Fatal("concurrent stream parts would multiply the buffer")
	}
	if string(got.body) != "frames" {
		t.Fatalf("body: got %q", got.body)
	}
}

func TestMinioAbortFailsThePut(t *testing.T) {
	calls := make(chan recordedPut, 1)
	st := newFakeMinio(t, calls)

	w, err := st.Create(context.Background(), "20250101_120000_clip.mp4")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _ = w.Write([]byte("half"))
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	got := <-calls
	if !errors.Is(got.err, errWriteAborted) {
		t.Fatalf("put should see the abort, got %v", got.err)
	}
}
