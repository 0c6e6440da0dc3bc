package doctor

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type DoctorRepo interface {
	GetByExternalID(dbc dbctx.Context, externalID string) (*types.Doctor, error)
	// CreateIfAbsent inserts d unless a row with the same external_id exists.
	// created reports whether this call inserted the row.
	CreateIfAbsent(dbc dbctx.Context, d *types.Doctor) (created bool, err error)
	UpdateProfile(dbc dbctx.Context, id uuid.UUID, email, name string) error
}

type doctorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDoctorRepo(db *gorm.DB, baseLog *logger.Logger) DoctorRepo {
	repoLog := baseLog.With("repo", "DoctorRepo")
	return &doctorRepo{db: db, log: repoLog}
}

func (r *doctorRepo) GetByExternalID(dbc dbctx.Context, externalID string) (*types.Doctor, error) {
	var d types.Doctor
	err := dbc.DB(r.db).Where("external_id = ?", externalID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepo) CreateIfAbsent(dbc dbctx.Context, d *types.Doctor) (bool, error) {
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(d)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *doctorRepo) UpdateProfile(dbc dbctx.Context, id uuid.UUID, email, name string) error {
	return dbc.DB(r.db).
		Model(&types.Doctor{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"email": email,
			"name":  name,
		}).Error
}
