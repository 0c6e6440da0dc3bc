package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/domain/screening"
	apperrors "github.com/yungbote/gma-backend/internal/pkg/errors"
)

func storeVideos(t *testing.T, env *testEnv, doctorID uuid.UUID, names ...string) []*types.VideoUpload {
	t.Helper()
	svc := env.uploads(t, UploadConfig{})
	var out []*types.VideoUpload
	for _, n := range names {
		rows, err := svc.Store(bg(), doctorID, []UploadFile{{OriginalName: n, Content: strings.NewReader(n)}})
		if err != nil {
			t.Fatalf("Store %s: %v", n, err)
		}
		out = append(out, rows...)
	}
	return out
}

func decodeResults(t *testing.T, bt *types.BlindTest) []screening.Classification {
	t.Helper()
	var out []screening.Classification
	if err := json.Unmarshal(bt.Results, &out); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	return out
}

func TestRunScoresOnlyOwnedVideos(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newDoctor(t, "uid-bt-alice")
	bob := env.newDoctor(t, "uid-bt-bob")
	mine := storeVideos(t, env, alice, "a1.mp4", "a2.mov")
	theirs := storeVideos(t, env, bob, "b1.mp4")

	scorer := &fixedScorer{scores: screening.SubScores{Math: 71, DL: 68}}
	svc := env.blindTests(t, scorer)

	requested := []uuid.UUID{mine[1].ID, theirs[0].ID, uuid.New(), mine[0].ID, mine[1].ID}
	bt, err := svc.Run(bg(), alice, "instant", requested)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if bt.Status != screening.StatusCompleted || bt.TestType != "instant" || bt.DoctorID != alice {
		t.Fatalf("unexpected test: %+v", bt)
	}

	results := decodeResults(t, bt)
	if len(results) != 2 || scorer.calls != 2 {
		t.Fatalf("expected 2 results from 2 scorer calls, got %d/%d", len(results), scorer.calls)
	}
	if results[0].VideoID != mine[1].ID || results[1].VideoID != mine[0].ID {
		t.Fatalf("results not in request order: %+v", results)
	}
	for _, r := range results {
		if r.Math != 71 || r.DL != 68 || r.Final != 69 || r.Status != screening.RiskUncertain {
			t.Fatalf("unexpected classification: %+v", r)
		}
	}

	var stored []uuid.UUID
	if err := json.Unmarshal(bt.VideoIDs, &stored); err != nil {
		t.Fatalf("decode video ids: %v", err)
	}
	if len(stored) != len(requested) {
		t.Fatalf("video_ids should hold the request as given: %v", stored)
	}
}

func TestRunValidatesBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-bt-validate")
	svc := env.blindTests(t, &fixedScorer{})

	if _, err := svc.Run(bg(), doc, "instant", nil); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("empty ids: want ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Run(bg(), doc, "quick", []uuid.UUID{uuid.New()}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("bad type: want ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Run(bg(), doc, "full", []uuid.UUID{uuid.New()}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unresolved ids: want ErrNotFound, got %v", err)
	}
	if n := env.rowCount(t, &types.BlindTest{}); n != 0 {
		t.Fatalf("rejected runs left rows: %d", n)
	}
}

func TestRunRecordsScoringFailure(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-bt-fail")
	videos := storeVideos(t, env, doc, "f.mp4")
	svc := env.blindTests(t, &fixedScorer{err: errors.New("model offline")})

	_, err := svc.Run(bg(), doc, "full", []uuid.UUID{videos[0].ID})
	var scoreErr *ScoringError
	if !errors.As(err, &scoreErr) {
		t.Fatalf("want ScoringError, got %v", err)
	}
	if !strings.Contains(err.Error(), scoreErr.TestID.String()) {
		t.Fatalf("error should name the test id: %v", err)
	}

	history, err := svc.History(bg(), doc)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ID != scoreErr.TestID || history[0].Status != screening.StatusError {
		t.Fatalf("expected one error record, got %+v", history)
	}
	if results := decodeResults(t, history[0]); len(results) != 0 {
		t.Fatalf("error record should carry no results: %+v", results)
	}
}

func TestHistoryNewestFirstAndScoped(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newDoctor(t, "uid-hist-alice")
	bob := env.newDoctor(t, "uid-hist-bob")
	videos := storeVideos(t, env, alice, "h.mp4")
	svc := env.blindTests(t, &fixedScorer{scores: screening.SubScores{Math: 90, DL: 90}})

	first, err := svc.Run(bg(), alice, "instant", []uuid.UUID{videos[0].ID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := svc.Run(bg(), alice, "full", []uuid.UUID{videos[0].ID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	history, err := svc.History(bg(), alice)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 || history[0].ID != second.ID || history[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", history)
	}
	if _, err := svc.Run(bg(), bob, "instant", []uuid.UUID{videos[0].ID}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("bob testing alice's video: want ErrNotFound, got %v", err)
	}
	if other, _ := svc.History(bg(), bob); len(other) != 0 {
		t.Fatalf("bob sees alice's tests: %+v", other)
	}
}

func TestScoringErrorOmitsUnrecordedTest(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-bt-unrecorded")
	videos := storeVideos(t, env, doc, "u.mp4")
	svc := NewBlindTestService(env.db, env.log(t), env.videos, brokenTestRepo{env.tests}, &fixedScorer{err: errors.New("model offline")}, nil)

	_, err := svc.Run(bg(), doc, "full", []uuid.UUID{videos[0].ID})
	var scoreErr *ScoringError
	if !errors.As(err, &scoreErr) {
		t.Fatalf("want ScoringError, got %v", err)
	}
	if scoreErr.TestID != uuid.Nil {
		t.Fatalf("error names a test that was never stored: %s", scoreErr.TestID)
	}
	if strings.Contains(err.Error(), "for test") {
		t.Fatalf("message should not reference a test: %v", err)
	}
	if n := env.rowCount(t, &types.BlindTest{}); n != 0 {
		t.Fatalf("unexpected rows: %d", n)
	}
}

func TestRandomScorerRange(t *testing.T) {
	s := NewRandomScorer(42)
	seenMin, seenMax := 100, 0
	for i := 0; i < 5000; i++ {
		sub, err := s.Score(context.Background(), uuid.New(), "x.mp4")
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		for _, v := range []int{sub.Math, sub.DL} {
			if v < 30 || v > 95 {
				t.Fatalf("score %d outside [30,95]", v)
			}
			if v < seenMin {
				seenMin = v
			}
			if v > seenMax {
				seenMax = v
			}
		}
	}
	if seenMin != 30 || seenMax != 95 {
		t.Fatalf("bounds not reached: min=%d max=%d", seenMin, seenMax)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Score(ctx, uuid.New(), "x.mp4"); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled ctx: want context.Canceled, got %v", err)
	}
}

func TestRandomScorerZeroValue(t *testing.T) {
	var s RandomScorer
	for i := 0; i < 100; i++ {
		sub, err := s.Score(context.Background(), uuid.New(), "x.mp4")
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if sub.Math < RandomScoreMin || sub.Math > RandomScoreMax || sub.DL < RandomScoreMin || sub.DL > RandomScoreMax {
			t.Fatalf("zero value scored out of range: %+v", sub)
		}
	}
}

func TestUploadListTestHistoryEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	doc := env.newDoctor(t, "uid-e2e")
	uploadsSvc := env.uploads(t, UploadConfig{})
	testsSvc := env.blindTests(t, NewRandomScorer(7))

	if _, err := uploadsSvc.Store(bg(), doc, []UploadFile{
		{OriginalName: "day1.mp4", Content: strings.NewReader("one")},
		{OriginalName: "day2.mov", Content: strings.NewReader("two")},
	}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	list, err := uploadsSvc.List(bg(), doc)
	if err != nil || len(list) != 2 {
		t.Fatalf("List: %v err=%v", list, err)
	}

	ids := []uuid.UUID{list[0].ID, list[1].ID}
	bt, err := testsSvc.Run(bg(), doc, "instant", ids)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, r := range decodeResults(t, bt) {
		if r.Final != (r.Math+r.DL)/2 || r.Status != screening.RiskBucket(r.Final) {
			t.Fatalf("inconsistent classification: %+v", r)
		}
	}

	history, err := testsSvc.History(bg(), doc)
	if err != nil || len(history) != 1 || history[0].ID != bt.ID {
		t.Fatalf("History: %+v err=%v", history, err)
	}
}
