package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Role        enums.AdminRole `json:"role"`
	Active      bool            `json:"active"`
	LastLoginAt *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateInput is the data accepted for a new back-office account.
type CreateInput struct {
	Username string          `json:"username" validate:"required,min=3,max=64"`
	Password string          `json:"password" validate:"required"`
	Role     enums.AdminRole `json:"role" validate:"required"`
}

func FromModel(u *models.AdminUser) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
