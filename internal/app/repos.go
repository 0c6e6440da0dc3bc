package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/data/repos"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type Repos struct {
	Doctor      repos.DoctorRepo
	VideoUpload repos.VideoUploadRepo
	BlindTest   repos.BlindTestRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Doctor:      repos.NewDoctorRepo(db, log),
		VideoUpload: repos.NewVideoUploadRepo(db, log),
		BlindTest:   repos.NewBlindTestRepo(db, log),
	}
}
