package uploads

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

// VideoUploadRepo scopes every read and write by doctor id except the
// ListAll/UpdateStatus pair used by offline reconciliation.
type VideoUploadRepo interface {
	Create(dbc dbctx.Context, rows []*types.VideoUpload) ([]*types.VideoUpload, error)
	ListByDoctor(dbc dbctx.Context, doctorID uuid.UUID) ([]*types.VideoUpload, error)
	GetOwned(dbc dbctx.Context, doctorID, id uuid.UUID) (*types.VideoUpload, error)
	GetOwnedByIDs(dbc dbctx.Context, doctorID uuid.UUID, ids []uuid.UUID) ([]*types.VideoUpload, error)
	GetOwnedByStoredFilename(dbc dbctx.Context, doctorID uuid.UUID, stored string) (*types.VideoUpload, error)
	Rename(dbc dbctx.Context, doctorID, id uuid.UUID, filename string) (int64, error)
	DeleteOwned(dbc dbctx.Context, doctorID, id uuid.UUID) (int64, error)

	ListAll(dbc dbctx.Context) ([]*types.VideoUpload, error)
	CountByStoredFilename(dbc dbctx.Context, stored string) (int64, error)
	UpdateStatus(dbc dbctx.Context, ids []uuid.UUID, status string) error
}

type videoUploadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoUploadRepo(db *gorm.DB, baseLog *logger.Logger) VideoUploadRepo {
	repoLog := baseLog.With("repo", "VideoUploadRepo")
	return &videoUploadRepo{db: db, log: repoLog}
}

func (r *videoUploadRepo) Create(dbc dbctx.Context, rows []*types.VideoUpload) ([]*types.VideoUpload, error) {
	if len(rows) == 0 {
		return []*types.VideoUpload{}, nil
	}
	if err := dbc.DB(r.db).Omit("Doctor").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *videoUploadRepo) ListByDoctor(dbc dbctx.Context, doctorID uuid.UUID) ([]*types.VideoUpload, error) {
	var results []*types.VideoUpload
	if err := dbc.DB(r.db).
		Where("doctor_id = ?", doctorID).
		Order("upload_time DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoUploadRepo) GetOwned(dbc dbctx.Context, doctorID, id uuid.UUID) (*types.VideoUpload, error) {
	var v types.VideoUpload
	err := dbc.DB(r.db).
		Where("id = ? AND doctor_id = ?", id, doctorID).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoUploadRepo) GetOwnedByIDs(dbc dbctx.Context, doctorID uuid.UUID, ids []uuid.UUID) ([]*types.VideoUpload, error) {
	var results []*types.VideoUpload
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("doctor_id = ? AND id IN ?", doctorID, ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoUploadRepo) GetOwnedByStoredFilename(dbc dbctx.Context, doctorID uuid.UUID, stored string) (*types.VideoUpload, error) {
	var v types.VideoUpload
	err := dbc.DB(r.db).
		Where("doctor_id = ? AND stored_filename = ?", doctorID, stored).
		Order("upload_time DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoUploadRepo) Rename(dbc dbctx.Context, doctorID, id uuid.UUID, filename string) (int64, error) {
	res := dbc.DB(r.db).
		Model(&types.VideoUpload{}).
		Where("id = ? AND doctor_id = ?", id, doctorID).
		Update("filename", filename)
	return res.RowsAffected, res.Error
}

func (r *videoUploadRepo) DeleteOwned(dbc dbctx.Context, doctorID, id uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).
		Where("id = ? AND doctor_id = ?", id, doctorID).
		Delete(&types.VideoUpload{})
	return res.RowsAffected, res.Error
}

func (r *videoUploadRepo) ListAll(dbc dbctx.Context) ([]*types.VideoUpload, error) {
	var results []*types.VideoUpload
	if err := dbc.DB(r.db).Order("upload_time ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoUploadRepo) CountByStoredFilename(dbc dbctx.Context, stored string) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.VideoUpload{}).
		Where("stored_filename = ?", stored).
		Count(&n).Error
	return n, err
}

func (r *videoUploadRepo) UpdateStatus(dbc dbctx.Context, ids []uuid.UUID, status string) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.VideoUpload{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}
