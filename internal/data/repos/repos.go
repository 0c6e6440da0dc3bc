package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/data/repos/doctor"
	"github.com/yungbote/gma-backend/internal/data/repos/screening"
	"github.com/yungbote/gma-backend/internal/data/repos/uploads"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type DoctorRepo = doctor.DoctorRepo
type VideoUploadRepo = uploads.VideoUploadRepo
type BlindTestRepo = screening.BlindTestRepo

func NewDoctorRepo(db *gorm.DB, log *logger.Logger) DoctorRepo {
	return doctor.NewDoctorRepo(db, log)
}

func NewVideoUploadRepo(db *gorm.DB, log *logger.Logger) VideoUploadRepo {
	return uploads.NewVideoUploadRepo(db, log)
}

func NewBlindTestRepo(db *gorm.DB, log *logger.Logger) BlindTestRepo {
	return screening.NewBlindTestRepo(db, log)
}
