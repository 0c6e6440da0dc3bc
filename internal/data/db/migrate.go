package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// EnsureIndexes adds the composite indexes behind the per-doctor listings.
func EnsureIndexes(db *gorm.DB) error {
	stmts := map[string]string{
		"idx_video_uploads_doctor_time": `CREATE INDEX IF NOT EXISTS idx_video_uploads_doctor_time ON video_uploads (doctor_id, upload_time DESC)`,
		"idx_blind_tests_doctor_time":   `CREATE INDEX IF NOT EXISTS idx_blind_tests_doctor_time ON blind_tests (doctor_id, created_at DESC)`,
	}
	for name, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(s.db); err != nil {
		s.log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
