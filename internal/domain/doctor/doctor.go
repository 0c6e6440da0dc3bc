package doctor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultRole = "Doctor"

type Doctor struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID string    `gorm:"uniqueIndex;not null;column:external_id" json:"external_id"`
	Email      string    `gorm:"index;column:email" json:"email"`
	Name       string    `gorm:"column:name" json:"name"`
	Role       string    `gorm:"not null;column:role" json:"role"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (Doctor) TableName() string { return "doctors" }

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Role == "" {
		d.Role = DefaultRole
	}
	return nil
}
