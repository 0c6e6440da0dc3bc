package screening

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/domain/doctor"
)

const (
	TestTypeInstant = "instant"
	TestTypeFull    = "full"

	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusError     = "error"
)

func ValidTestType(t string) bool {
	return t == TestTypeInstant || t == TestTypeFull
}

// BlindTest records one scoring run. Results holds a JSON array of
// Classification; VideoIDs holds the ids exactly as requested.
type BlindTest struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DoctorID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"doctor_id"`
	TestType  string         `gorm:"not null;column:test_type" json:"test_type"`
	Status    string         `gorm:"not null;column:status" json:"status"`
	Results   datatypes.JSON `gorm:"column:results" json:"results"`
	VideoIDs  datatypes.JSON `gorm:"column:video_ids" json:"video_ids"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`

	Doctor *doctor.Doctor `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (BlindTest) TableName() string { return "blind_tests" }

func (b *BlindTest) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	return nil
}
