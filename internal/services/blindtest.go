package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	datadb "github.com/yungbote/gma-backend/internal/data/db"
	"github.com/yungbote/gma-backend/internal/data/repos"
	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/domain/screening"
	"github.com/yungbote/gma-backend/internal/observability"
	apperrors "github.com/yungbote/gma-backend/internal/pkg/errors"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type BlindTestService interface {
	// Run scores the caller's videos among videoIDs and stores the test.
	// Ids that do not exist or belong to someone else are skipped.
	Run(dbc dbctx.Context, doctorID uuid.UUID, testType string, videoIDs []uuid.UUID) (*types.BlindTest, error)
	History(dbc dbctx.Context, doctorID uuid.UUID) ([]*types.BlindTest, error)
}

type blindTestService struct {
	db         *gorm.DB
	log        *logger.Logger
	uploadRepo repos.VideoUploadRepo
	testRepo   repos.BlindTestRepo
	scorer     Scorer
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewBlindTestService(
	db *gorm.DB,
	log *logger.Logger,
	uploadRepo repos.VideoUploadRepo,
	testRepo repos.BlindTestRepo,
	scorer Scorer,
	metrics *observability.Metrics,
) BlindTestService {
	return &blindTestService{
		db:         db,
		log:        log.With("service", "BlindTestService"),
		uploadRepo: uploadRepo,
		testRepo:   testRepo,
		scorer:     scorer,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *blindTestService) Run(dbc dbctx.Context, doctorID uuid.UUID, testType string, videoIDs []uuid.UUID) (_ *types.BlindTest, err error) {
	testType = strings.ToLower(strings.TrimSpace(testType))
	var span trace.Span
	dbc.Ctx, span = observability.StartSpan(dbc.Ctx, "blindtest.run",
		attribute.String("test.type", testType),
		attribute.Int("test.requested_videos", len(videoIDs)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if !screening.ValidTestType(testType) {
		return nil, fmt.Errorf("%w: unknown test type %q", apperrors.ErrInvalidArgument, testType)
	}
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("%w: no video IDs provided", apperrors.ErrInvalidArgument)
	}

	videos, err := s.resolveOwned(dbc, doctorID, videoIDs)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("%w: no videos found", apperrors.ErrNotFound)
	}

	requested, err := json.Marshal(videoIDs)
	if err != nil {
		return nil, fmt.Errorf("encode video ids: %w", err)
	}
	test := &types.BlindTest{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		TestType:  testType,
		VideoIDs:  datatypes.JSON(requested),
		CreatedAt: s.now(),
	}

	results, scoreErr := s.score(dbc.Ctx, videos)
	if scoreErr != nil {
		test.Status = screening.StatusError
		test.Results = datatypes.JSON("[]")
		recorded := test.ID
		if err := s.persist(dbc, test); err != nil {
			s.log.Error("Recording failed test failed", "test_id", test.ID, "error", err)
			recorded = uuid.Nil
		}
		s.metrics.ObserveBlindTest(testType, screening.StatusError)
		s.log.Error("Blind test scoring failed", "doctor_id", doctorID, "test_id", recorded, "error", scoreErr)
		return nil, &ScoringError{TestID: recorded, Err: scoreErr}
	}

	raw, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	test.Status = screening.StatusCompleted
	test.Results = datatypes.JSON(raw)
	if err := s.persist(dbc, test); err != nil {
		s.log.Error("Persist blind test failed", "doctor_id", doctorID, "error", err)
		return nil, fmt.Errorf("error creating %s test: %w", testType, err)
	}

	s.metrics.ObserveBlindTest(testType, screening.StatusCompleted)
	for _, r := range results {
		s.metrics.ObserveClassification(r.Status)
	}
	s.log.Info("Blind test completed", "doctor_id", doctorID, "test_id", test.ID, "test_type", testType, "videos", len(results))
	return test, nil
}

// resolveOwned returns the owned videos in request order, once each.
func (s *blindTestService) resolveOwned(dbc dbctx.Context, doctorID uuid.UUID, ids []uuid.UUID) ([]*types.VideoUpload, error) {
	rows, err := s.uploadRepo.GetOwnedByIDs(dbc, doctorID, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve videos: %w", err)
	}
	byID := make(map[uuid.UUID]*types.VideoUpload, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]*types.VideoUpload, 0, len(rows))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
			delete(byID, id)
		}
	}
	return out, nil
}

func (s *blindTestService) score(ctx context.Context, videos []*types.VideoUpload) ([]screening.Classification, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	out := make([]screening.Classification, 0, len(videos))
	for _, v := range videos {
		sub, err := s.scorer.Score(ctx, v.ID, v.OriginalFilename)
		if err != nil {
			return nil, fmt.Errorf("video %s: %w", v.ID, err)
		}
		out = append(out, screening.Classify(v.ID, v.OriginalFilename, sub))
	}
	return out, nil
}

func (s *blindTestService) persist(dbc dbctx.Context, test *types.BlindTest) error {
	return datadb.Transaction(dbc, s.db, func(tx *gorm.DB) error {
		_, err := s.testRepo.Create(dbc.WithTx(tx), test)
		return err
	})
}

func (s *blindTestService) History(dbc dbctx.Context, doctorID uuid.UUID) ([]*types.BlindTest, error) {
	tests, err := s.testRepo.ListByDoctor(dbc, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list blind tests: %w", err)
	}
	return tests, nil
}
