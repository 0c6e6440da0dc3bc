package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/data/repos"
	"github.com/yungbote/gma-backend/internal/data/repos/testutil"
	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/domain/screening"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/idcache"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/platform/objstore"
)

type testEnv struct {
	db      *gorm.DB
	root    string
	store   objstore.Store
	doctors repos.DoctorRepo
	videos  repos.VideoUploadRepo
	tests   repos.BlindTestRepo
	doctor  DoctorService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.FreshDB(t)
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := objstore.NewLocal(log, root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	env := &testEnv{
		db:      db,
		root:    root,
		store:   store,
		doctors: repos.NewDoctorRepo(db, log),
		videos:  repos.NewVideoUploadRepo(db, log),
		tests:   repos.NewBlindTestRepo(db, log),
	}
	env.doctor = NewDoctorService(db, log, env.doctors, idcache.NewMemory(time.Minute))
	return env
}

func (e *testEnv) uploads(t *testing.T, cfg UploadConfig) UploadService {
	t.Helper()
	return NewUploadService(e.db, testutil.Logger(t), e.videos, e.store, nil, cfg)
}

func (e *testEnv) blindTests(t *testing.T, scorer Scorer) BlindTestService {
	t.Helper()
	return NewBlindTestService(e.db, testutil.Logger(t), e.videos, e.tests, scorer, nil)
}

func (e *testEnv) newDoctor(t *testing.T, externalID string) uuid.UUID {
	t.Helper()
	id, err := e.doctor.ResolveOrCreate(bg(), externalID, externalID+"@clinic.test", "")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}
	return id
}

func (e *testEnv) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, en := range entries {
		names = append(names, en.Name())
	}
	return names
}

func (e *testEnv) rowCount(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func bg() dbctx.Context { return dbctx.Context{Ctx: context.Background()} }

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// fixedScorer returns the same sub-scores for every video.
type fixedScorer struct {
	scores screening.SubScores
	err    error
	calls  int
}

func (f *fixedScorer) Score(ctx context.Context, _ uuid.UUID, _ string) (screening.SubScores, error) {
	f.calls++
	if f.err != nil {
		return screening.SubScores{}, f.err
	}
	return f.scores, nil
}

// failingReader yields some bytes then errors.
type failingReader struct {
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset")
}

// brokenCreateRepo fails every insert.
type brokenCreateRepo struct {
	repos.VideoUploadRepo
}

func (brokenCreateRepo) Create(dbctx.Context, []*types.VideoUpload) ([]*types.VideoUpload, error) {
	return nil, errors.New("disk I/O error")
}

// stubbornStore refuses removals.
type stubbornStore struct {
	objstore.Store
}

func (stubbornStore) Remove(context.Context, string) error {
	return errors.New("permission denied")
}

// brokenTestRepo fails every blind test insert.
type brokenTestRepo struct {
	repos.BlindTestRepo
}

func (brokenTestRepo) Create(dbctx.Context, *types.BlindTest) (*types.BlindTest, error) {
	return nil, errors.New("database is full")
}

// commitFailStore hands out writers whose Commit discards the bytes and
// fails, as a backend does when finalizing an object errors.
type commitFailStore struct {
	objstore.Store
}

func (s commitFailStore) Create(ctx context.Context, key string) (objstore.Writer, error) {
	w, err := s.Store.Create(ctx, key)
	if err != nil {
		return nil, err
	}
	return commitFailWriter{w}, nil
}

type commitFailWriter struct {
	objstore.Writer
}

func (w commitFailWriter) Commit() error {
	_ = w.Writer.Abort()
	return errors.New("finalize object: connection reset")
}

func (e *testEnv) log(t *testing.T) *logger.Logger {
	t.Helper()
	return testutil.Logger(t)
}
