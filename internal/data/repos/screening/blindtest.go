package screening

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

// BlindTestRepo is append-only; no update path exists for stored tests.
type BlindTestRepo interface {
	Create(dbc dbctx.Context, t *types.BlindTest) (*types.BlindTest, error)
	ListByDoctor(dbc dbctx.Context, doctorID uuid.UUID) ([]*types.BlindTest, error)
}

type blindTestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBlindTestRepo(db *gorm.DB, baseLog *logger.Logger) BlindTestRepo {
	repoLog := baseLog.With("repo", "BlindTestRepo")
	return &blindTestRepo{db: db, log: repoLog}
}

func (r *blindTestRepo) Create(dbc dbctx.Context, t *types.BlindTest) (*types.BlindTest, error) {
	if err := dbc.DB(r.db).Omit("Doctor").Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *blindTestRepo) ListByDoctor(dbc dbctx.Context, doctorID uuid.UUID) ([]*types.BlindTest, error) {
	var results []*types.BlindTest
	if err := dbc.DB(r.db).
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
