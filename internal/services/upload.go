package services

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	datadb "github.com/yungbote/gma-backend/internal/data/db"
	"github.com/yungbote/gma-backend/internal/data/repos"
	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/domain/uploads"
	"github.com/yungbote/gma-backend/internal/observability"
	apperrors "github.com/yungbote/gma-backend/internal/pkg/errors"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/platform/objstore"
)

const (
	DefaultMaxFileSize int64 = 1_500_000_000
	DefaultChunkSize         = 1 << 20

	storedNameLayout = "20060102_150405"
)

var DefaultAllowedExtensions = []string{".mov", ".mp4"}

type UploadConfig struct {
	MaxFileSize       int64
	ChunkSize         int
	AllowedExtensions []string
	// Now stamps stored filenames; defaults to time.Now.
	Now func() time.Time
}

// UploadFile is one incoming file. Content is read once, in order.
type UploadFile struct {
	OriginalName string
	Content      io.Reader
}

// Download is an open stored object. Callers must close Body.
type Download struct {
	Path string
	Name string
	Size int64
	Body io.ReadCloser
}

type UploadService interface {
	// Store writes files sequentially and returns the rows committed before
	// the first failure alongside that failure.
	Store(dbc dbctx.Context, doctorID uuid.UUID, files []UploadFile) ([]*types.VideoUpload, error)
	List(dbc dbctx.Context, doctorID uuid.UUID) ([]*types.VideoUpload, error)
	Delete(dbc dbctx.Context, doctorID, uploadID uuid.UUID) error
	Rename(dbc dbctx.Context, doctorID, uploadID uuid.UUID, newFilename string) (*types.VideoUpload, error)
	FetchForDownload(dbc dbctx.Context, doctorID, uploadID uuid.UUID) (*Download, error)
	// FetchStatic serves a stored object by key after checking ownership.
	FetchStatic(dbc dbctx.Context, doctorID uuid.UUID, storedFilename string) (*Download, error)
	// OpenPublic serves a stored object by key with no ownership check.
	OpenPublic(dbc dbctx.Context, storedFilename string) (*Download, error)
}

type uploadService struct {
	db         *gorm.DB
	log        *logger.Logger
	uploadRepo repos.VideoUploadRepo
	store      objstore.Store
	metrics    *observability.Metrics
	cfg        UploadConfig
	allowed    map[string]struct{}
}

func NewUploadService(
	db *gorm.DB,
	log *logger.Logger,
	uploadRepo repos.VideoUploadRepo,
	store objstore.Store,
	metrics *observability.Metrics,
	cfg UploadConfig,
) UploadService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultAllowedExtensions
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &uploadService{
		db:         db,
		log:        log.With("service", "UploadService"),
		uploadRepo: uploadRepo,
		store:      store,
		metrics:    metrics,
		cfg:        cfg,
		allowed:    allowed,
	}
}

func (s *uploadService) Store(dbc dbctx.Context, doctorID uuid.UUID, files []UploadFile) (_ []*types.VideoUpload, err error) {
	var span trace.Span
	dbc.Ctx, span = observability.StartSpan(dbc.Ctx, "uploads.store", attribute.Int("upload.files", len(files)))
	defer func() { observability.EndSpan(span, err) }()

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", apperrors.ErrInvalidArgument)
	}
	out := make([]*types.VideoUpload, 0, len(files))
	for _, f := range files {
		row, err := s.storeOne(dbc, doctorID, f)
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *uploadService) storeOne(dbc dbctx.Context, doctorID uuid.UUID, f UploadFile) (*types.VideoUpload, error) {
	name := baseName(f.OriginalName)
	if name == "" {
		s.metrics.ObserveUpload("rejected", 0)
		return nil, fmt.Errorf("%w: missing filename", apperrors.ErrInvalidArgument)
	}
	if _, ok := s.allowed[strings.ToLower(path.Ext(name))]; !ok {
		s.metrics.ObserveUpload("rejected", 0)
		return nil, fmt.Errorf("%w: only %s files allowed: %s",
			apperrors.ErrInvalidArgument, strings.Join(s.cfg.AllowedExtensions, " or "), f.OriginalName)
	}

	stored := s.cfg.Now().Format(storedNameLayout) + "_" + name
	w, err := s.store.Create(dbc.Ctx, stored)
	if err != nil {
		s.metrics.ObserveUpload("failed", 0)
		return nil, &UploadWriteError{Filename: name, Err: err}
	}

	size, err := s.copyLimited(dbc, w, f.Content, name)
	if err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			s.log.Error("Discarding partial upload failed", "stored_filename", stored, "error", abortErr)
		}
		var tooLarge *UploadTooLargeError
		if errors.As(err, &tooLarge) {
			s.metrics.ObserveUpload("too_large", 0)
			s.log.Warn("Upload over limit", "doctor_id", doctorID, "stored_filename", stored, "limit", s.cfg.MaxFileSize)
		} else {
			s.metrics.ObserveUpload("failed", 0)
			s.log.Error("Upload stream failed", "doctor_id", doctorID, "stored_filename", stored, "error", err)
		}
		return nil, err
	}
	// A failed Commit leaves the store as it was; removing the key here
	// could delete an earlier upload stored under the same name.
	if err := w.Commit(); err != nil {
		s.metrics.ObserveUpload("failed", 0)
		s.log.Error("Upload commit failed", "doctor_id", doctorID, "stored_filename", stored, "error", err)
		return nil, &UploadWriteError{Filename: name, Err: err}
	}

	row := &types.VideoUpload{
		DoctorID:         doctorID,
		Filename:         stored,
		StoredFilename:   stored,
		OriginalFilename: name,
		StoragePath:      s.store.Path(stored),
		FileSize:         size,
		UploadTime:       s.cfg.Now().UTC(),
		Status:           uploads.StatusUploaded,
	}
	if _, err := s.uploadRepo.Create(dbc, []*types.VideoUpload{row}); err != nil {
		if rmErr := s.store.Remove(dbc.Ctx, stored); rmErr != nil && !errors.Is(rmErr, objstore.ErrObjectNotFound) {
			s.log.Error("Compensating delete failed; object orphaned", "stored_filename", stored, "error", rmErr)
		}
		s.metrics.ObserveUpload("failed", 0)
		return nil, fmt.Errorf("record upload %s: %w", name, err)
	}

	s.metrics.ObserveUpload("stored", size)
	s.log.Info("Upload stored", "doctor_id", doctorID, "stored_filename", stored, "file_size", size)
	return row, nil
}

// copyLimited moves r into w one chunk at a time and fails as soon as the
// running total passes the limit, before the offending chunk is written.
func (s *uploadService) copyLimited(dbc dbctx.Context, w io.Writer, r io.Reader, name string) (int64, error) {
	if r == nil {
		return 0, &UploadWriteError{Filename: name, Err: errors.New("no content")}
	}
	buf := make([]byte, s.cfg.ChunkSize)
	var total int64
	for {
		if dbc.Ctx != nil {
			if err := dbc.Ctx.Err(); err != nil {
				return total, &UploadWriteError{Filename: name, Err: err}
			}
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > s.cfg.MaxFileSize {
				return total, &UploadTooLargeError{Filename: name, Limit: s.cfg.MaxFileSize}
			}
			if _, werr := w.Write(buf[:n]); werr != nil {
				return total, &UploadWriteError{Filename: name, Err: werr}
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, &UploadWriteError{Filename: name, Err: rerr}
		}
	}
}

func (s *uploadService) List(dbc dbctx.Context, doctorID uuid.UUID) ([]*types.VideoUpload, error) {
	rows, err := s.uploadRepo.ListByDoctor(dbc, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return rows, nil
}

func (s *uploadService) Delete(dbc dbctx.Context, doctorID, uploadID uuid.UUID) error {
	row, err := s.uploadRepo.GetOwned(dbc, doctorID, uploadID)
	if err != nil {
		return fmt.Errorf("lookup upload: %w", err)
	}
	if row == nil {
		return fmt.Errorf("video %w", apperrors.ErrNotFound)
	}

	err = datadb.Transaction(dbc, s.db, func(tx *gorm.DB) error {
		n, err := s.uploadRepo.DeleteOwned(dbc.WithTx(tx), doctorID, uploadID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("video %w", apperrors.ErrNotFound)
		}
		if err := s.store.Remove(dbc.Ctx, row.StoredFilename); err != nil && !errors.Is(err, objstore.ErrObjectNotFound) {
			return fmt.Errorf("remove object: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Error("Delete upload failed", "doctor_id", doctorID, "upload_id", uploadID, "error", err)
		}
		return err
	}
	s.log.Info("Upload deleted", "doctor_id", doctorID, "upload_id", uploadID)
	return nil
}

func (s *uploadService) Rename(dbc dbctx.Context, doctorID, uploadID uuid.UUID, newFilename string) (*types.VideoUpload, error) {
	newFilename = strings.TrimSpace(newFilename)
	if newFilename == "" {
		return nil, fmt.Errorf("%w: filename must not be empty", apperrors.ErrInvalidArgument)
	}
	n, err := s.uploadRepo.Rename(dbc, doctorID, uploadID, newFilename)
	if err != nil {
		return nil, fmt.Errorf("rename upload: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("video %w", apperrors.ErrNotFound)
	}
	row, err := s.uploadRepo.GetOwned(dbc, doctorID, uploadID)
	if err != nil {
		return nil, fmt.Errorf("reload upload: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("video %w", apperrors.ErrNotFound)
	}
	return row, nil
}

func (s *uploadService) FetchForDownload(dbc dbctx.Context, doctorID, uploadID uuid.UUID) (*Download, error) {
	row, err := s.uploadRepo.GetOwned(dbc, doctorID, uploadID)
	if err != nil {
		return nil, fmt.Errorf("lookup upload: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("video %w", apperrors.ErrNotFound)
	}
	return s.open(dbc, row.StoredFilename, row.OriginalFilename)
}

func (s *uploadService) FetchStatic(dbc dbctx.Context, doctorID uuid.UUID, storedFilename string) (*Download, error) {
	row, err := s.uploadRepo.GetOwnedByStoredFilename(dbc, doctorID, storedFilename)
	if err != nil {
		return nil, fmt.Errorf("lookup upload: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("file %w", apperrors.ErrNotFound)
	}
	return s.open(dbc, row.StoredFilename, row.StoredFilename)
}

func (s *uploadService) OpenPublic(dbc dbctx.Context, storedFilename string) (*Download, error) {
	if baseName(storedFilename) != storedFilename {
		return nil, fmt.Errorf("file %w", apperrors.ErrNotFound)
	}
	return s.open(dbc, storedFilename, storedFilename)
}

func (s *uploadService) open(dbc dbctx.Context, key, name string) (*Download, error) {
	body, size, err := s.store.Open(dbc.Ctx, key)
	if err != nil {
		if errors.Is(err, objstore.ErrObjectNotFound) {
			return nil, fmt.Errorf("video file %w in storage", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return &Download{Path: s.store.Path(key), Name: name, Size: size, Body: body}, nil
}

// baseName strips any client-side directory, including Windows separators.
func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	b := path.Base(name)
	if b == "." || b == "/" || b == ".." {
		return ""
	}
	return b
}
