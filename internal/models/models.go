// internal/models/models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"unique;not null" json:"email"`
	Password     string         `gorm:"not null" json:"-"`
	Name         string         `json:"name"`
	IsAdmin      bool           `gorm:"default:false" json:"is_admin"`
	TokenBalance float64        `gorm:"default:0" json:"token_balance"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Datasets []Dataset `gorm:"foreignKey:UserID" json:"datasets,omitempty"`
}

// Dataset names are unique per owner, not globally; the composite index
// spans user_id and name so two users can both own an "exp1".
type Dataset struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_owner_name" json:"user_id"`
	Name        string         `gorm:"not null;uniqueIndex:idx_owner_name" json:"name"`
	Description string         `json:"description"`
	Tags        string         `json:"tags,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Spectrograms []Spectrogram `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"spectrograms,omitempty"`
}

// Spectrogram content is immutable once created; rows go away only when
// their dataset is hard-deleted (cascade), never via soft delete.
type Spectrogram struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	DatasetID uint      `gorm:"not null;index" json:"dataset_id"`
	Name      string    `gorm:"not null" json:"name"`
	Data      []byte    `gorm:"type:bytea;not null" json:"data"`
	CreatedAt time.Time `json:"created_at"`
}
