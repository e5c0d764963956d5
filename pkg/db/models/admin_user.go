package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/enums"
)

// AdminUser is a back-office account that can sign in to the point of sale.
type AdminUser struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username     string          `gorm:"column:username;not null;uniqueIndex" json:"username"`
	PasswordHash string          `gorm:"column:password_hash;not null" json:"-"`
	Role         enums.AdminRole `gorm:"column:role;type:text;not null" json:"role"`
	Active       bool            `gorm:"column:active;not null" json:"active"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at" json:"lastLoginAt"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (u *AdminUser) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
