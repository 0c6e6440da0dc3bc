package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gma-backend/internal/data/repos"
	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/domain/uploads"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/platform/objstore"
)

// ReconcileReport lists the two ways the row/object pair can drift apart.
type ReconcileReport struct {
	Rows           int
	Objects        int
	MissingObjects []*types.VideoUpload
	OrphanObjects  []string
	// Skipped counts mismatches too recent to judge.
	Skipped int
}

func (r *ReconcileReport) Clean() bool {
	return len(r.MissingObjects) == 0 && len(r.OrphanObjects) == 0
}

type ReconcileService interface {
	// Scan compares rows with stored objects. Anything newer than the grace
	// window is skipped because an upload may still be between its object
	// commit and its row insert.
	Scan(dbc dbctx.Context) (*ReconcileReport, error)
	// Fix re-checks every finding against live state, then marks rows
	// without an object as "error" and removes objects without a row.
	Fix(dbc dbctx.Context, report *ReconcileReport) error
}

// DefaultReconcileGrace outlasts the slowest upload at the size cap.
const DefaultReconcileGrace = time.Hour

type reconcileService struct {
	log        *logger.Logger
	uploadRepo repos.VideoUploadRepo
	store      objstore.Store
	grace      time.Duration
	now        func() time.Time
}

func NewReconcileService(log *logger.Logger, uploadRepo repos.VideoUploadRepo, store objstore.Store, grace time.Duration) ReconcileService {
	if grace < 0 {
		grace = 0
	}
	return &reconcileService{
		log:        log.With("service", "ReconcileService"),
		uploadRepo: uploadRepo,
		store:      store,
		grace:      grace,
		now:        time.Now,
	}
}

// Objects are listed before rows: an upload landing in between then shows
// up as a row whose object was not seen, which Fix re-checks, rather than
// as an object to delete.
func (s *reconcileService) Scan(dbc dbctx.Context) (*ReconcileReport, error) {
	keys, err := s.store.List(dbc.Ctx)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	rows, err := s.uploadRepo.ListAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}

	cutoff := s.now().Add(-s.grace)
	present := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		present[k] = struct{}{}
	}
	referenced := make(map[string]struct{}, len(rows))

	report := &ReconcileReport{Rows: len(rows), Objects: len(keys)}
	for _, row := range rows {
		referenced[row.StoredFilename] = struct{}{}
		if _, ok := present[row.StoredFilename]; ok {
			continue
		}
		if row.UploadTime.After(cutoff) {
			report.Skipped++
			continue
		}
		report.MissingObjects = append(report.MissingObjects, row)
	}
	for _, k := range keys {
		if _, ok := referenced[k]; ok {
			continue
		}
		if ts, ok := storedAt(k); ok && ts.After(cutoff) {
			report.Skipped++
			continue
		}
		report.OrphanObjects = append(report.OrphanObjects, k)
	}
	sort.Strings(report.OrphanObjects)
	return report, nil
}

// storedAt reads the upload start time encoded in a stored filename.
func storedAt(key string) (time.Time, bool) {
	if len(key) <= len(storedNameLayout) || key[len(storedNameLayout)] != '_' {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(storedNameLayout, key[:len(storedNameLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (s *reconcileService) Fix(dbc dbctx.Context, report *ReconcileReport) error {
	if report == nil || report.Clean() {
		return nil
	}
	var errs []error
	ids := make([]uuid.UUID, 0, len(report.MissingObjects))
	for _, row := range report.MissingObjects {
		if row.Status == uploads.StatusError {
			continue
		}
		ok, err := s.store.Exists(dbc.Ctx, row.StoredFilename)
		if err != nil {
			errs = append(errs, fmt.Errorf("recheck %s: %w", row.StoredFilename, err))
			continue
		}
		if ok {
			continue
		}
		ids = append(ids, row.ID)
	}
	if err := s.uploadRepo.UpdateStatus(dbc, ids, uploads.StatusError); err != nil {
		return fmt.Errorf("mark rows: %w", err)
	}
	s.log.Info("Marked rows without objects", "count", len(ids))

	for _, key := range report.OrphanObjects {
		n, err := s.uploadRepo.CountByStoredFilename(dbc, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("recheck %s: %w", key, err))
			continue
		}
		if n > 0 {
			s.log.Info("Object gained a row since scan; kept", "stored_filename", key)
			continue
		}
		if err := s.store.Remove(dbc.Ctx, key); err != nil && !errors.Is(err, objstore.ErrObjectNotFound) {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
			continue
		}
		s.log.Info("Removed orphan object", "stored_filename", key)
	}
	return errors.Join(errs...)
}
