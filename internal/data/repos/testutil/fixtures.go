package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gma-backend/internal/domain"
)

func SeedDoctor(tb testing.TB, ctx context.Context, tx *gorm.DB, externalID string) *types.Doctor {
	tb.Helper()
	d := &types.Doctor{
		ID:         uuid.New(),
		ExternalID: externalID,
		Email:      externalID + "@clinic.test",
		Name:       "Dr " + externalID,
		Role:       "Doctor",
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed doctor: %v", err)
	}
	return d
}

func SeedVideoUpload(tb testing.TB, ctx context.Context, tx *gorm.DB, doctorID uuid.UUID, original string, at time.Time) *types.VideoUpload {
	tb.Helper()
	stored := at.Format("20060102_150405") + "_" + original
	v := &types.VideoUpload{
		ID:               uuid.New(),
		DoctorID:         doctorID,
		Filename:         stored,
		StoredFilename:   stored,
		OriginalFilename: original,
		StoragePath:      "/tmp/uploads/" + stored,
		FileSize:         1024,
		UploadTime:       at.UTC(),
		Status:           "uploaded",
	}
	if err := tx.WithContext(ctx).Omit("Doctor").Create(v).Error; err != nil {
		tb.Fatalf("seed video upload: %v", err)
	}
	return v
}
