package uploads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/domain/doctor"
)

const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// VideoUpload is the metadata row for one stored video. StoredFilename is
// the object key and never changes; Filename is the display name.
type VideoUpload struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DoctorID         uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Filename         string    `gorm:"not null;column:filename" json:"filename"`
	StoredFilename   string    `gorm:"not null;index;column:stored_filename" json:"stored_filename"`
	OriginalFilename string    `gorm:"not null;column:original_filename" json:"original_filename"`
	StoragePath      string    `gorm:"not null;column:storage_path" json:"-"`
	FileSize         int64     `gorm:"not null;column:file_size" json:"file_size"`
	UploadTime       time.Time `gorm:"not null;index;column:upload_time" json:"upload_time"`
	Status           string    `gorm:"not null;column:status" json:"status"`

	Doctor *doctor.Doctor `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (VideoUpload) TableName() string { return "video_uploads" }

func (v *VideoUpload) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.UploadTime.IsZero() {
		v.UploadTime = time.Now().UTC()
	}
	if v.Status == "" {
		v.Status = StatusUploaded
	}
	return nil
}
