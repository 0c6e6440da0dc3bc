package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	types "github.com/yungbote/gma-backend/internal/domain"
	apperrors "github.com/yungbote/gma-backend/internal/pkg/errors"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
)

var uploadClock = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func TestStoreWritesObjectAndRow(t *testing.T) {
	env := newTestEnv(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	doc := env.newDoctor(t, "uid-store")
	svc := env.uploads(t, UploadConfig{ChunkSize: 4, Now: fixedClock(uploadClock)})

	rows, err := svc.Store(bg(), doc, []UploadFile{
		{OriginalName: `C:\Users\dr\Videos\clip.MP4`, Content: strings.NewReader("0123456789")},
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.StoredFilename != "20250102_030405_clip.MP4" || row.Filename != row.StoredFilename {
		t.Fatalf("unexpected stored name: %+v", row)
	}
	if row.OriginalFilename != "clip.MP4" || row.FileSize != 10 || row.Status != "uploaded" || row.DoctorID != doc {
		t.Fatalf("unexpected row: %+v", row)
	}
	body, err := os.ReadFile(row.StoragePath)
	if err != nil || string(body) != "0123456789" {
		t.Fatalf("stored content: %q err=%v", body, err)
	}
}

func TestStoreRejectsExtensionBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-ext")
	svc := env.uploads(t, UploadConfig{})

	for _, name := range []string{"notes.txt", "movie.avi", "noext", ""} {
		_, err := svc.Store(bg(), doc, []UploadFile{{OriginalName: name, Content: strings.NewReader("x")}})
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("%q: want ErrInvalidArgument, got %v", name, err)
		}
	}
	if files := env.storedFiles(t); len(files) != 0 {
		t.Fatalf("rejected uploads left files: %v", files)
	}
	if n := env.rowCount(t, &types.VideoUpload{}); n != 0 {
		t.Fatalf("rejected uploads left rows: %d", n)
	}
}

func TestStoreOverLimitCleansUp(t *testing.T) {
	env := newTestEnv(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	doc := env.newDoctor(t, "uid-big")
	svc := env.uploads(t, UploadConfig{MaxFileSize: 10, ChunkSize: 4})

	_, err := svc.Store(bg(), doc, []UploadFile{{OriginalName: "big.mov", Content: strings.NewReader("0123456789A")}})
	var tooLarge *UploadTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("want UploadTooLargeError, got %v", err)
	}
	if tooLarge.Limit != 10 || !strings.Contains(err.Error(), "10 bytes") {
		t.Fatalf("limit not reported: %v", err)
	}
	if files := env.storedFiles(t); len(files) != 0 {
		t.Fatalf("over-limit upload left files: %v", files)
	}
	if n := env.rowCount(t, &types.VideoUpload{}); n != 0 {
		t.Fatalf("over-limit upload left rows: %d", n)
	}

	rows, err := svc.Store(bg(), doc, []UploadFile{{OriginalName: "exact.mov", Content: strings.NewReader("0123456789")}})
	if err != nil || len(rows) != 1 || rows[0].FileSize != 10 {
		t.Fatalf("exactly-at-limit upload: rows=%v err=%v", rows, err)
	}
}

func TestDefaultLimitMessage(t *testing.T) {
	err := &UploadTooLargeError{Filename: "a.mp4", Limit: DefaultMaxFileSize}
	if !strings.Contains(err.Error(), "1.5GB") {
		t.Fatalf("unexpected message: %s", err)
	}
}

func TestStoreReadFailureCleansUp(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-reset")
	svc := env.uploads(t, UploadConfig{})

	_, err := svc.Store(bg(), doc, []UploadFile{{OriginalName: "cut.mp4", Content: &failingReader{}}})
	var writeErr *UploadWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("want UploadWriteError, got %v", err)
	}
	if files := env.storedFiles(t); len(files) != 0 {
		t.Fatalf("failed upload left files: %v", files)
	}
}

func TestStoreCancelledContextCleansUp(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-cancel")
	svc := env.uploads(t, UploadConfig{ChunkSize: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Store(dbctx.Context{Ctx: ctx}, doc, []UploadFile{{OriginalName: "gone.mp4", Content: strings.NewReader("abcdef")}})
	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if files := env.storedFiles(t); len(files) != 0 {
		t.Fatalf("cancelled upload left files: %v", files)
	}
}

func TestStoreBatchStopsAtFirstFailure(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-batch")
	svc := env.uploads(t, UploadConfig{})

	third := bytes.NewReader([]byte("never read"))
	rows, err := svc.Store(bg(), doc, []UploadFile{
		{OriginalName: "one.mp4", Content: strings.NewReader("1")},
		{OriginalName: "two.txt", Content: strings.NewReader("2")},
		{OriginalName: "three.mov", Content: third},
	})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
	if len(rows) != 1 || rows[0].OriginalFilename != "one.mp4" {
		t.Fatalf("expected the first file to stay committed, got %+v", rows)
	}
	if third.Len() != len("never read") {
		t.Fatal("files after the failure must not be consumed")
	}
	if n := env.rowCount(t, &types.VideoUpload{}); n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestStoreRowFailureRemovesObject(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-rowfail")
	svc := NewUploadService(env.db, env.log(t), brokenCreateRepo{env.videos}, env.store, nil, UploadConfig{})

	if _, err := svc.Store(bg(), doc, []UploadFile{{OriginalName: "orphan.mp4", Content: strings.NewReader("data")}}); err == nil {
		t.Fatal("expected insert failure")
	}
	if files := env.storedFiles(t); len(files) != 0 {
		t.Fatalf("compensation left files: %v", files)
	}
}

func TestStoreCommitFailureKeepsEarlierObject(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-commitfail")
	cfg := UploadConfig{Now: fixedClock(uploadClock)}

	first, err := env.uploads(t, cfg).Store(bg(), doc, []UploadFile{{OriginalName: "same.mp4", Content: strings.NewReader("first")}})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	svc := NewUploadService(env.db, env.log(t), env.videos, commitFailStore{env.store}, nil, cfg)
	_, err = svc.Store(bg(), doc, []UploadFile{{OriginalName: "same.mp4", Content: strings.NewReader("second")}})
	var writeErr *UploadWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("want UploadWriteError, got %v", err)
	}
	if n := env.rowCount(t, &types.VideoUpload{}); n != 1 {
		t.Fatalf("failed commit recorded a row: %d rows", n)
	}
	body, err := os.ReadFile(first[0].StoragePath)
	if err != nil || string(body) != "first" {
		t.Fatalf("earlier object disturbed: %q err=%v", body, err)
	}
}

func TestDeleteRemovesRowAndObject(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-del")
	svc := env.uploads(t, UploadConfig{})

	rows, err := svc.Store(bg(), doc, []UploadFile{{OriginalName: "del.mp4", Content: strings.NewReader("data")}})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	id := rows[0].ID

	if err := svc.Delete(bg(), doc, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err := svc.List(bg(), doc)
	if err != nil || len(list) != 0 {
		t.Fatalf("List after delete: %v err=%v", list, err)
	}
	if _, err := svc.FetchForDownload(bg(), doc, id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("download after delete: want ErrNotFound, got %v", err)
	}
	if files := env.storedFiles(t); len(files) != 0 {
		t.Fatalf("delete left files: %v", files)
	}
	if err := svc.Delete(bg(), doc, id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestDeleteToleratesMissingObject(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-missing")
	svc := env.uploads(t, UploadConfig{})

	rows, _ := svc.Store(bg(), doc, []UploadFile{{OriginalName: "m.mp4", Content: strings.NewReader("data")}})
	if err := os.Remove(rows[0].StoragePath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := svc.FetchForDownload(bg(), doc, rows[0].ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("download of missing object: want ErrNotFound, got %v", err)
	}
	if err := svc.Delete(bg(), doc, rows[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := env.rowCount(t, &types.VideoUpload{}); n != 0 {
		t.Fatalf("row survived delete: %d", n)
	}
}

func TestDeleteRollsBackWhenObjectRemovalFails(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-rollback")
	rows, err := env.uploads(t, UploadConfig{}).Store(bg(), doc, []UploadFile{{OriginalName: "keep.mp4", Content: strings.NewReader("data")}})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	svc := NewUploadService(env.db, env.log(t), env.videos, stubbornStore{env.store}, nil, UploadConfig{})
	if err := svc.Delete(bg(), doc, rows[0].ID); err == nil {
		t.Fatal("expected delete to fail")
	}
	if n := env.rowCount(t, &types.VideoUpload{}); n != 1 {
		t.Fatalf("row delete was not rolled back: %d rows", n)
	}
}

func TestRename(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-rename")
	svc := env.uploads(t, UploadConfig{})
	rows, _ := svc.Store(bg(), doc, []UploadFile{{OriginalName: "r.mp4", Content: strings.NewReader("data")}})

	if _, err := svc.Rename(bg(), doc, rows[0].ID, "   "); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("empty name: want ErrInvalidArgument, got %v", err)
	}
	got, err := svc.Rename(bg(), doc, rows[0].ID, "Session 1")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got.Filename != "Session 1" || got.StoredFilename != rows[0].StoredFilename || got.OriginalFilename != "r.mp4" {
		t.Fatalf("rename touched more than the display name: %+v", got)
	}
	if _, err := svc.Rename(bg(), doc, uuid.New(), "x"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unknown id: want ErrNotFound, got %v", err)
	}
}

func TestDownloadUsesOriginalName(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-dl")
	svc := env.uploads(t, UploadConfig{})
	rows, _ := svc.Store(bg(), doc, []UploadFile{{OriginalName: "baby.mov", Content: strings.NewReader("frames")}})

	dl, err := svc.FetchForDownload(bg(), doc, rows[0].ID)
	if err != nil {
		t.Fatalf("FetchForDownload: %v", err)
	}
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	if dl.Name != "baby.mov" || dl.Size != 6 || string(body) != "frames" {
		t.Fatalf("unexpected download: name=%q size=%d body=%q", dl.Name, dl.Size, body)
	}
}

func TestCrossDoctorIsolation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newDoctor(t, "uid-iso-alice")
	bob := env.newDoctor(t, "uid-iso-bob")
	svc := env.uploads(t, UploadConfig{})

	rows, err := svc.Store(bg(), alice, []UploadFile{{OriginalName: "a.mp4", Content: strings.NewReader("data")}})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	id := rows[0].ID

	if list, _ := svc.List(bg(), bob); len(list) != 0 {
		t.Fatalf("bob sees alice's uploads: %+v", list)
	}
	if err := svc.Delete(bg(), bob, id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("bob delete: want ErrNotFound, got %v", err)
	}
	if _, err := svc.Rename(bg(), bob, id, "mine now"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("bob rename: want ErrNotFound, got %v", err)
	}
	if _, err := svc.FetchForDownload(bg(), bob, id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("bob download: want ErrNotFound, got %v", err)
	}
	if _, err := svc.FetchStatic(bg(), bob, rows[0].StoredFilename); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("bob static: want ErrNotFound, got %v", err)
	}
	dl, err := svc.FetchStatic(bg(), alice, rows[0].StoredFilename)
	if err != nil {
		t.Fatalf("alice static: %v", err)
	}
	_ = dl.Body.Close()

	if list, _ := svc.List(bg(), alice); len(list) != 1 || list[0].Filename != rows[0].Filename {
		t.Fatalf("alice's upload changed: %+v", list)
	}
}

func TestOpenPublicRejectsPaths(t *testing.T) {
	env := newTestEnv(t)
	svc := env.uploads(t, UploadConfig{})
	if _, err := svc.OpenPublic(bg(), "../secret.mp4"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
