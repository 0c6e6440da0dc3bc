package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yungbote/gma-backend/internal/platform/logger"
)

var errWriteAborted = errors.New("object write aborted")

// MinioPartSize is the multipart buffer held per in-flight upload. Without
// it an unknown-length PutObject sizes parts for a 5 TiB object and
// allocates over 500 MiB up front. 16 MiB parts cover 156 GiB within the
// 10000 part limit.
const MinioPartSize uint64 = 16 << 20

type putObjectFunc func(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)

type minioStore struct {
	log    *logger.Logger
	client *minio.Client
	bucket string
	put    putObjectFunc
}

// NewMinio connects to an S3-compatible endpoint and creates the bucket when
// it does not exist yet.
func NewMinio(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check minio bucket: %w", err)
	}
	storeLog := log.With("store", "minio", "bucket", cfg.Bucket)
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create minio bucket: %w", err)
		}
		storeLog.Info("Created object storage bucket")
	}
	storeLog.Info("Object storage initialized", "mode", cfg.Mode, "endpoint", cfg.Endpoint)
	return &minioStore{log: storeLog, client: client, bucket: cfg.Bucket, put: client.PutObject}, nil
}

func (s *minioStore) Backend() string { return string(ModeMinio) }

func (s *minioStore) Path(key string) string {
	return "s3://" + s.bucket + "/" + key
}

// Create streams through a pipe into PutObject so the caller can enforce
// its own size limit while bytes are still arriving.
func (s *minioStore) Create(ctx context.Context, key string) (Writer, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, err := s.put(ctx, s.bucket, key, pr, -1, putOptions())
		_ = pr.CloseWithError(err)
		done <- err
	}()
	return &pipeWriter{store: s, key: key, pw: pw, done: done}, nil
}

func putOptions() minio.PutObjectOptions {
	return minio.PutObjectOptions{
		ContentType: "application/octet-stream",
		PartSize:    MinioPartSize,
	}
}

func (s *minioStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, err
	}
	return obj, info.Size, nil
}

func (s *minioStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Remove stats first because S3 deletes of missing keys succeed silently.
func (s *minioStore) Remove(ctx context.Context, key string) error {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrObjectNotFound
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *minioStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

type pipeWriter struct {
	store    *minioStore
	key      string
	pw       *io.PipeWriter
	done     chan error
	finished bool
}

func (w *pipeWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *pipeWriter) Commit() error {
	if w.finished {
		return nil
	}
	w.finished = true
	_ = w.pw.Close()
	return <-w.done
}

func (w *pipeWriter) Abort() error {
	if w.finished {
		return nil
	}
	w.finished = true
	_ = w.pw.CloseWithError(errWriteAborted)
	if err := <-w.done; err == nil && w.store.client != nil {
		// the upload raced to completion before the abort landed
		if rmErr := w.store.client.RemoveObject(context.Background(), w.store.bucket, w.key, minio.RemoveObjectOptions{}); rmErr != nil {
			return rmErr
		}
	}
	return nil
}
